package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLast(t *testing.T) {
	assert.Equal(t, uint16(0b0000_1111), Last(0b0000_0000_0000_1111, I4))
	assert.Equal(t, uint16(0b0000_0111), Last(0b1111_1111_1111_1111, I3))
	assert.Equal(t, uint16(0), Last(0b1111_1111_1111_0000, I4))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, uint16(0b1111), First(0xF123, I4))
	assert.Equal(t, uint16(0b1), First(0x8000, I1))
}

func TestRange(t *testing.T) {
	// the top four bits (I1-I4), an interior field (I6-I8) and the low
	// three bits (I14-I16), all 1-indexed from the MSB
	w := uint16(0b1101_0110_1001_0011)
	assert.Equal(t, uint16(0b1101), Range(w, I1, I4))
	assert.Equal(t, uint16(0b110), Range(w, I6, I8))
	assert.Equal(t, uint16(0b011), Range(w, I14, I16))
}

func TestIsSet(t *testing.T) {
	w := uint16(0b1000_0000_0000_0001)
	assert.True(t, IsSet(w, I1))
	assert.True(t, IsSet(w, I16))
	assert.False(t, IsSet(w, I2))
}

func TestRangePanicsOnInvertedBounds(t *testing.T) {
	assert.Panics(t, func() { Range(0, I5, I1) })
}
