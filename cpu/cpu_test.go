package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m68kemu/ea"
	"m68kemu/isa"
	"m68kemu/mem"
	"m68kemu/register"
	"m68kemu/value"
)

// S1: Move immediate to absolute, long.
func TestMoveImmediateToAbsoluteLong(t *testing.T) {
	m := mem.New(1024)
	c := New(m)

	instr := isa.Move{Src: ea.ImmediateValue(0xDEADBEEF), Dest: ea.AbsoluteAddr(0x40)}
	require.NoError(t, instr.Execute(c.Regs, c.Mem, value.Long))

	got, err := m.ReadLong(0x40)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), got)
}

// S2: Add wraps at the size boundary.
func TestAddWrapsAtSizeBoundary(t *testing.T) {
	m := mem.New(1024)
	c := New(m)
	require.NoError(t, m.WriteLong(0x40, 0x00000001))

	instr := isa.Add{Src: ea.ImmediateValue(0xFFFFFFFF), Dest: ea.AbsoluteAddr(0x40)}
	require.NoError(t, instr.Execute(c.Regs, c.Mem, value.Long))

	got, err := m.ReadLong(0x40)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)
}

// S3: PostIncrement through A7 at Byte size steps by 2, not 1.
func TestPostIncrementA7ByteStepsByTwo(t *testing.T) {
	m := mem.New(1024)
	c := New(m)
	c.Regs.Set(register.SP, 0x100)
	require.NoError(t, m.WriteByte(0x100, 0xAB))

	operand := ea.PostIncrement(register.SP)
	v, err := operand.GetValue(c.Regs, c.Mem, value.Byte)
	require.NoError(t, err)

	assert.Equal(t, byte(0xAB), v.Byte())
	assert.Equal(t, uint32(0x102), c.Regs.Get(register.SP))
}

// S5: a jump must leave its own target alone; Step must not re-advance PC
// past it.
func TestStepDoesNotOverwriteJumpTarget(t *testing.T) {
	m := mem.New(1024)
	c := New(m)

	// JMP ($00000080).L: 0100 1110 11 111001, then the 4-byte address.
	image := []byte{0x4E, 0xF9, 0x00, 0x00, 0x00, 0x80}
	require.NoError(t, c.LoadImage(image))

	_, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80), c.Regs.PC())
}

// When an instruction does not touch PC, Step advances it by exactly the
// number of bytes the decoder consumed.
func TestStepAdvancesPCByConsumedBytes(t *testing.T) {
	m := mem.New(1024)
	c := New(m)

	// MOVE.W #$1234, D0: 0011 000 000 111100, then the 2-byte immediate.
	image := []byte{0b0011_0000, 0b0011_1100, 0x12, 0x34}
	require.NoError(t, c.LoadImage(image))

	_, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), c.Regs.PC())
	assert.Equal(t, uint32(0x1234), c.Regs.Get(register.D(0)))
}

// NoOp leaves every register untouched, including PC advancing only by
// the decoder's own accounting.
func TestStepOnNOPOnlyAdvancesPC(t *testing.T) {
	m := mem.New(1024)
	c := New(m)
	c.Regs.Set(register.D(3), 0x99)

	require.NoError(t, c.LoadImage([]byte{0x4E, 0x71}))

	_, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Regs.PC())
	assert.Equal(t, uint32(0x99), c.Regs.Get(register.D(3)))
}

// Step surfaces decode/execute errors unchanged, and a driver can detect
// loop termination from them.
func TestRunStopsOnFirstError(t *testing.T) {
	m := mem.New(2)
	c := New(m)
	require.NoError(t, c.LoadImage([]byte{0x4E, 0x71}))

	// Memory is only 2 bytes; the fetch window (10 bytes) runs past the
	// end even on the first step, so Run must surface that error.
	err := c.Run(false)
	require.Error(t, err)
	assert.IsType(t, &mem.OutOfBoundsError{}, err)
}

func TestLoadImageResetsPC(t *testing.T) {
	m := mem.New(1024)
	c := New(m)
	c.Regs.SetPC(0x500)

	require.NoError(t, c.LoadImage([]byte{0x4E, 0x71}))
	assert.Equal(t, uint32(0), c.Regs.PC())

	got, err := m.ReadWord(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x4E71), got)
}
