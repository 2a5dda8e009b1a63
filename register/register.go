// Package register implements the 68000's register file: eight data
// registers, eight address registers (A7 doubling as the stack pointer),
// a 32-bit program counter, and a 16-bit status register.
package register

import "fmt"

// Kind distinguishes the three register families a Selector can name.
type Kind int

const (
	Data Kind = iota
	Address
	ProgramCounter
)

// Selector names a single register: a Data or Address register by index
// (0..7), or the program counter.
type Selector struct {
	kind  Kind
	index int
}

// D returns the selector for data register Dn.
func D(n int) Selector {
	if n < 0 || n > 7 {
		panic(fmt.Sprintf("data register index out of range: %d", n))
	}
	return Selector{kind: Data, index: n}
}

// A returns the selector for address register An. A7 is the stack pointer.
func A(n int) Selector {
	if n < 0 || n > 7 {
		panic(fmt.Sprintf("address register index out of range: %d", n))
	}
	return Selector{kind: Address, index: n}
}

// PC is the program-counter selector.
var PC = Selector{kind: ProgramCounter}

// SP is an alias for A7, the stack pointer.
var SP = A(7)

// Kind reports which register family s names.
func (s Selector) Kind() Kind { return s.kind }

// Index reports the 0..7 index of a Data or Address selector. It panics for
// ProgramCounter, which carries no index.
func (s Selector) Index() int {
	if s.kind == ProgramCounter {
		panic("register.Selector.Index: ProgramCounter has no index")
	}
	return s.index
}

func (s Selector) String() string {
	switch s.kind {
	case Data:
		return fmt.Sprintf("D%d", s.index)
	case Address:
		if s.index == 7 {
			return "A7/SP"
		}
		return fmt.Sprintf("A%d", s.index)
	default:
		return "PC"
	}
}

// File is the 68000 register file: D0-D7, A0-A7, PC, and SR. Every getter
// returns the full 32 bits of a general register; every setter stores a
// full 32-bit value. Callers wanting to change only a byte or word of a
// register compose the new 32-bit value themselves (see ea.RegisterDirect
// for the one place that needs to).
type File struct {
	d      [8]uint32
	a      [8]uint32
	pc     uint32
	status uint16
}

// New returns a File with every register zeroed.
func New() *File {
	return &File{}
}

// Get returns the full 32-bit value named by sel.
func (f *File) Get(sel Selector) uint32 {
	switch sel.kind {
	case Data:
		return f.d[sel.index]
	case Address:
		return f.a[sel.index]
	default:
		return f.pc
	}
}

// Set stores value in full, in the register named by sel.
func (f *File) Set(sel Selector, value uint32) {
	switch sel.kind {
	case Data:
		f.d[sel.index] = value
	case Address:
		f.a[sel.index] = value
	default:
		f.pc = value
	}
}

// PC returns the current program counter. Reading the PC never consumes
// any bytes; that is the decoder's job.
func (f *File) PC() uint32 { return f.pc }

// SetPC overwrites the program counter.
func (f *File) SetPC(value uint32) { f.pc = value }

// SR returns the 16-bit status register (high byte: system byte, low byte:
// condition codes).
func (f *File) SR() uint16 { return f.status }

// SetSR overwrites the status register.
func (f *File) SetSR(value uint16) { f.status = value }

func (f *File) String() string {
	return fmt.Sprintf(
		"D0:%08X D1:%08X D2:%08X D3:%08X D4:%08X D5:%08X D6:%08X D7:%08X\n"+
			"A0:%08X A1:%08X A2:%08X A3:%08X A4:%08X A5:%08X A6:%08X A7:%08X\n"+
			"PC:%08X SR:%04X",
		f.d[0], f.d[1], f.d[2], f.d[3], f.d[4], f.d[5], f.d[6], f.d[7],
		f.a[0], f.a[1], f.a[2], f.a[3], f.a[4], f.a[5], f.a[6], f.a[7],
		f.pc, f.status,
	)
}
