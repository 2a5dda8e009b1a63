// Package isa implements the 68000 instruction set this core supports:
// each instruction is a small immutable value carrying its effective-address
// operands, with an Execute method that applies it to a register file and
// memory at a given operand size.
package isa

import (
	"fmt"

	"m68kemu/ea"
	"m68kemu/mem"
	"m68kemu/register"
	"m68kemu/value"
)

// Instruction is anything the decoder or assembly parser can produce and
// the CPU can run for one step.
type Instruction interface {
	// Execute applies the instruction at the given size. Any memory or
	// addressing-mode error propagates unchanged.
	Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error
	String() string
}

// BoundsExceededError reports that a BoundsCheck (CHK) operand fell
// outside its bound. There is no vector/trap mechanism in this core, so
// the condition surfaces as a plain Go error instead of a 68000 exception
// frame.
type BoundsExceededError struct {
	Value uint32
	Bound uint32
}

func (e *BoundsExceededError) Error() string {
	return fmt.Sprintf("bounds check failed: value %d exceeds bound %d", int32(e.Value), e.Bound)
}

func binaryOp(regs *register.File, m *mem.Memory, size value.OperandSize, src, dest ea.EffectiveAddress, op func(a, b value.Int) (value.Int, error)) error {
	s, err := src.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	d, err := dest.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	result, err := op(s, d)
	if err != nil {
		return err
	}
	return dest.SetValue(regs, m, result)
}

// Move copies src to dest, both read and written at the instruction's size.
type Move struct {
	Src, Dest ea.EffectiveAddress
}

func (i Move) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	v, err := i.Src.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	return i.Dest.SetValue(regs, m, v)
}

func (i Move) String() string { return "MOVE" }

// Add computes dest ← wrapping_add(src, dest).
type Add struct {
	Src, Dest ea.EffectiveAddress
}

func (i Add) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	return binaryOp(regs, m, size, i.Src, i.Dest, value.Add)
}

func (i Add) String() string { return "ADD" }

// Subtract computes dest ← wrapping_sub(dest, src). This is the PRM order;
// the addressing order of the arguments below is what makes it so.
type Subtract struct {
	Src, Dest ea.EffectiveAddress
}

func (i Subtract) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	src, err := i.Src.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	dest, err := i.Dest.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	result, err := value.Sub(dest, src)
	if err != nil {
		return err
	}
	return i.Dest.SetValue(regs, m, result)
}

func (i Subtract) String() string { return "SUB" }

// MultiplyUnsigned computes dest ← wrapping_mul(src, dest).
type MultiplyUnsigned struct {
	Src, Dest ea.EffectiveAddress
}

func (i MultiplyUnsigned) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	return binaryOp(regs, m, size, i.Src, i.Dest, value.Mul)
}

func (i MultiplyUnsigned) String() string { return "MULU" }

// And computes dest ← src & dest.
type And struct {
	Src, Dest ea.EffectiveAddress
}

func (i And) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	return binaryOp(regs, m, size, i.Src, i.Dest, value.And)
}

func (i And) String() string { return "AND" }

// InclusiveOr computes dest ← src | dest.
type InclusiveOr struct {
	Src, Dest ea.EffectiveAddress
}

func (i InclusiveOr) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	return binaryOp(regs, m, size, i.Src, i.Dest, value.Or)
}

func (i InclusiveOr) String() string { return "OR" }

// ExclusiveOr computes dest ← src ^ dest.
type ExclusiveOr struct {
	Src, Dest ea.EffectiveAddress
}

func (i ExclusiveOr) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	return binaryOp(regs, m, size, i.Src, i.Dest, value.Xor)
}

func (i ExclusiveOr) String() string { return "EOR" }

// RotateLeft rotates ToRotate left by RotateAmount mod size-in-bits.
type RotateLeft struct {
	ToRotate     ea.EffectiveAddress
	RotateAmount ea.EffectiveAddress
}

func (i RotateLeft) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	v, err := i.ToRotate.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	amount, err := i.RotateAmount.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	return i.ToRotate.SetValue(regs, m, value.RotateLeft(v, amount.Uint32()))
}

func (i RotateLeft) String() string { return "ROL" }

// JumpTo sets PC to the long read from Address.
type JumpTo struct {
	Address ea.EffectiveAddress
}

func (i JumpTo) Execute(regs *register.File, m *mem.Memory, _ value.OperandSize) error {
	target, err := i.Address.GetValue(regs, m, value.Long)
	if err != nil {
		return err
	}
	regs.SetPC(target.Uint32())
	return nil
}

func (i JumpTo) String() string { return "JMP" }

// BoundsCheck raises BoundsExceededError if Value (read as signed) is
// negative or exceeds Bound (read as unsigned). No state changes on
// success.
type BoundsCheck struct {
	Bound ea.EffectiveAddress
	Value ea.EffectiveAddress
}

func (i BoundsCheck) Execute(regs *register.File, m *mem.Memory, size value.OperandSize) error {
	bound, err := i.Bound.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	v, err := i.Value.GetValue(regs, m, size)
	if err != nil {
		return err
	}
	signed := signExtend(v)
	if signed < 0 || v.Uint32() > bound.Uint32() {
		return &BoundsExceededError{Value: v.Uint32(), Bound: bound.Uint32()}
	}
	return nil
}

func (i BoundsCheck) String() string { return "CHK" }

func signExtend(v value.Int) int32 {
	switch v.Size() {
	case value.Byte:
		return int32(int8(v.Byte()))
	case value.Word:
		return int32(int16(v.Word()))
	default:
		return int32(v.Uint32())
	}
}

// NoOp changes nothing.
type NoOp struct{}

func (NoOp) Execute(*register.File, *mem.Memory, value.OperandSize) error { return nil }

func (NoOp) String() string { return "NOP" }

// Unimplemented is the decoder's graceful-degradation output for a
// recognized-but-unsupported or unrecognized opcode. Behaviorally a no-op,
// but kept distinct from NoOp so a caller can report a diagnostic.
type Unimplemented struct {
	Opcode uint16
}

func (Unimplemented) Execute(*register.File, *mem.Memory, value.OperandSize) error { return nil }

func (u Unimplemented) String() string { return fmt.Sprintf("UNIMPLEMENTED(0x%04X)", u.Opcode) }
