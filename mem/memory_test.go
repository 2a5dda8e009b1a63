package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRW(t *testing.T) {
	m := New(0x400)
	require_ := assert.New(t)
	require_.NoError(m.WriteByte(0x201, 0xAB))
	got, err := m.ReadByte(0x201)
	require_.NoError(err)
	require_.Equal(byte(0xAB), got)
}

func TestWordRW(t *testing.T) {
	m := New(0x400)
	assert.NoError(t, m.WriteWord(0x40, 0xDEAD))
	got, err := m.ReadWord(0x40)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xDEAD), got)

	// big-endian: high byte first
	hi, _ := m.ReadByte(0x40)
	lo, _ := m.ReadByte(0x41)
	assert.Equal(t, byte(0xDE), hi)
	assert.Equal(t, byte(0xAD), lo)
}

func TestLongRW(t *testing.T) {
	m := New(0x400)
	assert.NoError(t, m.WriteLong(0x40, 0xDEADBEEF))
	got, err := m.ReadLong(0x40)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), got)
}

func TestMultipleBytesRW(t *testing.T) {
	m := New(0x400)
	data := []byte{0x12, 0x34, 0x56, 0x78, 0x9A}
	assert.NoError(t, m.WriteBytes(0x201, data))

	got, err := m.ReadBytes(0x201, uint32(len(data)))
	assert.NoError(t, err)
	assert.Equal(t, data, got)

	long, _ := m.ReadLong(0x201)
	assert.Equal(t, uint32(0x12345678), long)
	b, _ := m.ReadByte(0x201 + 4)
	assert.Equal(t, byte(0x9A), b)
}

func TestOutOfBounds(t *testing.T) {
	m := New(16)
	_, err := m.ReadByte(16)
	assert.Error(t, err)
	assert.IsType(t, &OutOfBoundsError{}, err)

	err = m.WriteByte(16, 1)
	assert.Error(t, err)
}

func TestWriteWordPartialOutOfBoundsLeavesMemoryUntouched(t *testing.T) {
	m := New(4)
	err := m.WriteWord(3, 0xFFFF)
	assert.Error(t, err)
	b, _ := m.ReadByte(3)
	assert.Equal(t, byte(0), b)
}

func TestDisplayDoesNotIncludeLotsOfZeroes(t *testing.T) {
	m := New(0x400)
	display := m.String()
	zeroes := 0
	for _, c := range display {
		if c == '0' {
			zeroes++
		}
	}
	assert.Less(t, zeroes, 10)
}
