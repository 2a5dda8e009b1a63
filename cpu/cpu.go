// Package cpu ties together the register file, memory, and decoder into
// a single stepping machine.
package cpu

import (
	"fmt"
	"os"

	"m68kemu/decode"
	"m68kemu/isa"
	"m68kemu/mem"
	"m68kemu/register"
)

// fetchWindow is the number of bytes read per step. 10 suffices for every
// instruction length this core decodes (the longest is a word opcode plus
// a long immediate source and a long absolute destination).
const fetchWindow = 10

// CPU owns a register file and a memory region and steps through machine
// code one instruction at a time.
type CPU struct {
	Regs *register.File
	Mem  *mem.Memory
}

// New builds a CPU over a freshly zeroed register file and the given
// memory.
func New(m *mem.Memory) *CPU {
	return &CPU{Regs: register.New(), Mem: m}
}

// Step runs one fetch/decode/execute cycle.
//
// PC is advanced by the number of bytes the decoder consumed, unless the
// instruction itself changed PC (a jump), in which case the jump target is
// left untouched. This ordering is essential: a post-increment must never
// clobber a branch target.
func (c *CPU) Step() (isa.Instruction, error) {
	pc := c.Regs.PC()

	window, err := c.Mem.ReadBytes(pc, fetchWindow)
	if err != nil {
		return nil, err
	}

	instr, size, consumed, err := decode.Decode(window)
	if err != nil {
		return nil, err
	}
	if u, ok := instr.(isa.Unimplemented); ok {
		fmt.Fprintf(os.Stderr, "warning: unimplemented opcode 0x%04X at 0x%08X, executed as a no-op\n", u.Opcode, pc)
	}

	if err := instr.Execute(c.Regs, c.Mem, size); err != nil {
		return nil, err
	}

	if c.Regs.PC() == pc {
		c.Regs.SetPC(pc + uint32(consumed))
	}

	return instr, nil
}

// Run steps until the first error, matching the binary-image runner's
// loop-until-failure contract. verbose, if true, prints the decoded
// instruction and resulting register state after every step; otherwise
// the caller is left to report final state itself.
func (c *CPU) Run(verbose bool) error {
	for {
		instr, err := c.Step()
		if err != nil {
			return err
		}
		if verbose {
			fmt.Printf("step: %s\n%s\n", instr.String(), c.Regs.String())
		}
	}
}

// LoadImage copies a raw binary image into memory starting at address 0
// and resets PC to 0, matching the external binary-format contract: no
// header, no relocation, execution begins at the first byte.
func (c *CPU) LoadImage(image []byte) error {
	if err := c.Mem.WriteBytes(0, image); err != nil {
		return err
	}
	c.Regs.SetPC(0)
	return nil
}
