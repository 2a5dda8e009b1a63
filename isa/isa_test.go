package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"m68kemu/ea"
	"m68kemu/mem"
	"m68kemu/register"
	"m68kemu/value"
)

func TestMove(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	instr := Move{
		Src:  ea.ImmediateValue(0xDEADBEEF),
		Dest: ea.AbsoluteAddr(0x40),
	}
	assert.NoError(t, instr.Execute(regs, m, value.Long))

	got, err := m.ReadLong(0x40)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), got)
}

func TestAdd(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()
	regs.Set(register.D(0), 5)
	regs.Set(register.D(1), 10)

	instr := Add{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}
	assert.NoError(t, instr.Execute(regs, m, value.Long))
	assert.Equal(t, uint32(15), regs.Get(register.D(1)))
}

func TestSubtractIsDestMinusSrc(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()
	regs.Set(register.D(0), 3)  // src
	regs.Set(register.D(1), 10) // dest

	instr := Subtract{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}
	assert.NoError(t, instr.Execute(regs, m, value.Long))
	assert.Equal(t, uint32(7), regs.Get(register.D(1)))
}

func TestMultiplyUnsignedWraps(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()
	regs.Set(register.D(0), 0x8000)
	regs.Set(register.D(1), 0x0002)

	instr := MultiplyUnsigned{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}
	assert.NoError(t, instr.Execute(regs, m, value.Word))
	assert.Equal(t, uint32(0), regs.Get(register.D(1))&0xFFFF)
}

func TestBitwiseInstructions(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	regs.Set(register.D(0), 0xF0F0)
	regs.Set(register.D(1), 0xFF00)
	assert.NoError(t, (And{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}).Execute(regs, m, value.Long))
	assert.Equal(t, uint32(0xF000), regs.Get(register.D(1)))

	regs.Set(register.D(0), 0x0F0F)
	regs.Set(register.D(1), 0xF0F0)
	assert.NoError(t, (InclusiveOr{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}).Execute(regs, m, value.Long))
	assert.Equal(t, uint32(0xFFFF), regs.Get(register.D(1)))

	regs.Set(register.D(0), 0xFFFF)
	regs.Set(register.D(1), 0x0F0F)
	assert.NoError(t, (ExclusiveOr{Src: ea.Direct(register.D(0)), Dest: ea.Direct(register.D(1))}).Execute(regs, m, value.Long))
	assert.Equal(t, uint32(0xF0F0), regs.Get(register.D(1)))
}

func TestRotateLeft(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()
	regs.Set(register.D(0), 0x80)
	regs.Set(register.D(1), 1)

	instr := RotateLeft{ToRotate: ea.Direct(register.D(0)), RotateAmount: ea.Direct(register.D(1))}
	assert.NoError(t, instr.Execute(regs, m, value.Byte))
	assert.Equal(t, uint32(0x01), regs.Get(register.D(0))&0xFF)
}

func TestJumpTo(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	instr := JumpTo{Address: ea.ImmediateValue(0x1000)}
	assert.NoError(t, instr.Execute(regs, m, value.Long))
	assert.Equal(t, uint32(0x1000), regs.PC())
}

func TestBoundsCheckPasses(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	instr := BoundsCheck{Bound: ea.ImmediateValue(100), Value: ea.ImmediateValue(50)}
	assert.NoError(t, instr.Execute(regs, m, value.Long))
}

func TestBoundsCheckFailsAboveBound(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	instr := BoundsCheck{Bound: ea.ImmediateValue(10), Value: ea.ImmediateValue(50)}
	err := instr.Execute(regs, m, value.Long)
	assert.Error(t, err)
	assert.IsType(t, &BoundsExceededError{}, err)
}

func TestBoundsCheckFailsOnNegative(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()

	instr := BoundsCheck{Bound: ea.ImmediateValue(100), Value: ea.ImmediateValue(0xFFFFFFFF)}
	err := instr.Execute(regs, m, value.Long)
	assert.Error(t, err)
}

func TestNoOpAndUnimplementedChangeNothing(t *testing.T) {
	m := mem.New(0x100)
	regs := register.New()
	regs.Set(register.D(0), 0x42)

	assert.NoError(t, (NoOp{}).Execute(regs, m, value.Long))
	assert.NoError(t, (Unimplemented{Opcode: 0xBEEF}).Execute(regs, m, value.Long))
	assert.Equal(t, uint32(0x42), regs.Get(register.D(0)))
}
