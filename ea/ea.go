// Package ea implements the 68000's effective-address modes: the
// get_value/set_value surface that every instruction operand goes
// through, independent of the instruction that uses it.
package ea

import (
	"fmt"

	"m68kemu/mem"
	"m68kemu/register"
	"m68kemu/value"
)

// Mode tags the addressing-mode variant an EffectiveAddress describes.
type Mode int

const (
	RegisterDirect Mode = iota
	RegisterIndirect
	RegisterIndirectPostIncrement
	RegisterIndirectPreDecrement
	RegisterIndirectWithDisplacement
	RegisterIndirectIndexed
	MemoryPreIndexed
	MemoryPostIndexed
	ProgramCounterIndirectWithDisplacement
	ProgramCounterIndirectIndexed
	ProgramCounterMemoryIndirectPreIndexed
	ProgramCounterMemoryIndirectPostIndexed
	Absolute
	Immediate
)

// WriteToReadOnlyError is returned when SetValue is called on an Immediate.
type WriteToReadOnlyError struct {
	Reason string
}

func (e *WriteToReadOnlyError) Error() string {
	return fmt.Sprintf("write to read-only effective address: %s", e.Reason)
}

// EffectiveAddress is an immutable descriptor of one addressing-mode
// operand. It is built by a decoder or assembly parser and consumed by a
// single GetValue/SetValue call; it carries no size of its own (every
// call supplies the OperandSize explicitly).
type EffectiveAddress struct {
	mode Mode

	reg   register.Selector // RegisterDirect, and the base register of indirect forms
	index register.Selector // index register, for indexed/memory-indirect forms
	hasIndex bool

	displacement      int32 // sign-extended displacement (8-bit for the indexed forms the decoder builds, else 16-bit)
	baseDisplacement  int32 // memory pre/post-indexed base displacement
	outerDisplacement int32 // memory pre/post-indexed outer displacement

	absoluteAddr uint32 // Absolute
	imm          uint32 // Immediate
}

// Direct builds a RegisterDirect operand.
func Direct(reg register.Selector) EffectiveAddress {
	return EffectiveAddress{mode: RegisterDirect, reg: reg}
}

// Indirect builds a RegisterIndirect operand, (An). The 68000 has no (PC)
// form without a displacement, so callers pass an address register here
// and spell PC-relative operands with PCWithDisplacement.
func Indirect(reg register.Selector) EffectiveAddress {
	return EffectiveAddress{mode: RegisterIndirect, reg: reg}
}

// PostIncrement builds (An)+.
func PostIncrement(reg register.Selector) EffectiveAddress {
	return EffectiveAddress{mode: RegisterIndirectPostIncrement, reg: reg}
}

// PreDecrement builds -(An).
func PreDecrement(reg register.Selector) EffectiveAddress {
	return EffectiveAddress{mode: RegisterIndirectPreDecrement, reg: reg}
}

// WithDisplacement builds d16(An).
func WithDisplacement(reg register.Selector, disp int32) EffectiveAddress {
	return EffectiveAddress{mode: RegisterIndirectWithDisplacement, reg: reg, displacement: disp}
}

// Indexed builds d8(An,Xi).
func Indexed(reg, index register.Selector, disp int32) EffectiveAddress {
	return EffectiveAddress{mode: RegisterIndirectIndexed, reg: reg, index: index, hasIndex: true, displacement: disp}
}

// PreIndexed builds the 68020 memory-pre-indexed form ([bd,An,Xi],od).
func PreIndexed(reg, index register.Selector, bd, od int32) EffectiveAddress {
	return EffectiveAddress{mode: MemoryPreIndexed, reg: reg, index: index, hasIndex: true, baseDisplacement: bd, outerDisplacement: od}
}

// PostIndexed builds the 68020 memory-post-indexed form ([bd,An],Xi,od).
func PostIndexed(reg, index register.Selector, bd, od int32) EffectiveAddress {
	return EffectiveAddress{mode: MemoryPostIndexed, reg: reg, index: index, hasIndex: true, baseDisplacement: bd, outerDisplacement: od}
}

// PCWithDisplacement builds d16(PC).
func PCWithDisplacement(disp int32) EffectiveAddress {
	return EffectiveAddress{mode: ProgramCounterIndirectWithDisplacement, reg: register.PC, displacement: disp}
}

// PCIndexed builds d8(PC,Xi).
func PCIndexed(index register.Selector, disp int32) EffectiveAddress {
	return EffectiveAddress{mode: ProgramCounterIndirectIndexed, reg: register.PC, index: index, hasIndex: true, displacement: disp}
}

// PCPreIndexed builds the PC-relative memory-pre-indexed form.
func PCPreIndexed(index register.Selector, bd, od int32) EffectiveAddress {
	return EffectiveAddress{mode: ProgramCounterMemoryIndirectPreIndexed, reg: register.PC, index: index, hasIndex: true, baseDisplacement: bd, outerDisplacement: od}
}

// PCPostIndexed builds the PC-relative memory-post-indexed form.
func PCPostIndexed(index register.Selector, bd, od int32) EffectiveAddress {
	return EffectiveAddress{mode: ProgramCounterMemoryIndirectPostIndexed, reg: register.PC, index: index, hasIndex: true, baseDisplacement: bd, outerDisplacement: od}
}

// AbsoluteAddr builds an Absolute(addr) operand.
func AbsoluteAddr(addr uint32) EffectiveAddress {
	return EffectiveAddress{mode: Absolute, absoluteAddr: addr}
}

// ImmediateValue builds an Immediate(v) operand.
func ImmediateValue(v uint32) EffectiveAddress {
	return EffectiveAddress{mode: Immediate, imm: v}
}

// Mode reports which addressing-mode variant ea describes.
func (ea EffectiveAddress) Mode() Mode { return ea.mode }

// minIncrement is the postincrement/predecrement step for a byte access
// through reg; every other size steps by its own byte width. A7 always
// steps by at least 2 to keep the stack word-aligned.
func minIncrement(reg register.Selector) uint32 {
	if reg.Kind() == register.Address && reg.Index() == 7 {
		return 2
	}
	return 1
}

func stepAmount(reg register.Selector, size value.OperandSize) uint32 {
	step := size.Bytes()
	if min := minIncrement(reg); step < min {
		step = min
	}
	return step
}

func indexValue(regs *register.File, index register.Selector, size value.OperandSize) uint32 {
	return regs.Get(index) * size.Bytes()
}

// address resolves the memory address an EffectiveAddress reads or writes,
// for every mode that targets memory. It is also responsible for the
// side effects (post-increment, pre-decrement) documented in the spec's
// get_value/set_value semantics; register-indirect variants call it
// exactly once per GetValue/SetValue so increment/decrement happens once.
func (ea EffectiveAddress) address(regs *register.File, m *mem.Memory, size value.OperandSize) (uint32, error) {
	switch ea.mode {
	case RegisterIndirect:
		return regs.Get(ea.reg), nil

	case RegisterIndirectPostIncrement:
		addr := regs.Get(ea.reg)
		regs.Set(ea.reg, addr+stepAmount(ea.reg, size))
		return addr, nil

	case RegisterIndirectPreDecrement:
		addr := regs.Get(ea.reg) - stepAmount(ea.reg, size)
		regs.Set(ea.reg, addr)
		return addr, nil

	case RegisterIndirectWithDisplacement, ProgramCounterIndirectWithDisplacement:
		return uint32(int32(regs.Get(ea.reg)) + ea.displacement), nil

	case RegisterIndirectIndexed, ProgramCounterIndirectIndexed:
		base := regs.Get(ea.reg)
		return base + uint32(ea.displacement) + indexValue(regs, ea.index, size), nil

	case MemoryPreIndexed, ProgramCounterMemoryIndirectPreIndexed:
		base := regs.Get(ea.reg)
		intermediateAddr := base + uint32(ea.baseDisplacement) + indexValue(regs, ea.index, size)
		intermediate, err := m.ReadLong(intermediateAddr)
		if err != nil {
			return 0, err
		}
		return intermediate + uint32(ea.outerDisplacement), nil

	case MemoryPostIndexed, ProgramCounterMemoryIndirectPostIndexed:
		base := regs.Get(ea.reg)
		intermediateAddr := base + uint32(ea.baseDisplacement)
		intermediate, err := m.ReadLong(intermediateAddr)
		if err != nil {
			return 0, err
		}
		return intermediate + indexValue(regs, ea.index, size) + uint32(ea.outerDisplacement), nil

	case Absolute:
		return ea.absoluteAddr, nil

	default:
		panic(fmt.Sprintf("ea.EffectiveAddress.address: mode %d does not address memory", ea.mode))
	}
}

// GetValue reads the operand ea describes at the given size.
func (ea EffectiveAddress) GetValue(regs *register.File, m *mem.Memory, size value.OperandSize) (value.Int, error) {
	switch ea.mode {
	case RegisterDirect:
		return value.FromUint32(regs.Get(ea.reg), size), nil

	case Immediate:
		return value.FromUint32(ea.imm, size), nil

	default:
		addr, err := ea.address(regs, m, size)
		if err != nil {
			return value.Int{}, err
		}
		return readMemory(m, addr, size)
	}
}

// SetValue writes v through the operand ea describes. v's size is trusted
// to match the caller's intended size; the mode does not re-check it.
func (ea EffectiveAddress) SetValue(regs *register.File, m *mem.Memory, v value.Int) error {
	switch ea.mode {
	case RegisterDirect:
		if ea.reg.Kind() == register.Address {
			// Address registers always take the full 32-bit value; byte
			// writes to An are not a legal 68000 encoding, but at the Go
			// API level we zero-extend rather than reject.
			regs.Set(ea.reg, v.Uint32())
			return nil
		}
		merged := mergePreservingUpperBits(regs.Get(ea.reg), v)
		regs.Set(ea.reg, merged)
		return nil

	case Immediate:
		return &WriteToReadOnlyError{Reason: "cannot write through an Immediate operand"}

	default:
		addr, err := ea.address(regs, m, v.Size())
		if err != nil {
			return err
		}
		return writeMemory(m, addr, v)
	}
}

// mergePreservingUpperBits implements the byte/word RegisterDirect write
// rule: only the bits named by v.Size() change, the rest of the register
// is left alone.
func mergePreservingUpperBits(current uint32, v value.Int) uint32 {
	switch v.Size() {
	case value.Byte:
		return (current &^ 0xFF) | uint32(v.Byte())
	case value.Word:
		return (current &^ 0xFFFF) | uint32(v.Word())
	default:
		return v.Uint32()
	}
}

func readMemory(m *mem.Memory, addr uint32, size value.OperandSize) (value.Int, error) {
	switch size {
	case value.Byte:
		b, err := m.ReadByte(addr)
		return value.FromByte(b), err
	case value.Word:
		w, err := m.ReadWord(addr)
		return value.FromWord(w), err
	default:
		l, err := m.ReadLong(addr)
		return value.FromLong(l), err
	}
}

func writeMemory(m *mem.Memory, addr uint32, v value.Int) error {
	switch v.Size() {
	case value.Byte:
		return m.WriteByte(addr, v.Byte())
	case value.Word:
		return m.WriteWord(addr, v.Word())
	default:
		return m.WriteLong(addr, v.Uint32())
	}
}
