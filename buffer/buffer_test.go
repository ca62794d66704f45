package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddItem(t *testing.T) {
	buf := NewBuffer(10)

	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(0), a)
	assert.Equal(t, Sum(0), s)

	for i := 0; i < 10; i++ {
		buf.AddItem(1)
	}
	assert.True(t, buf.Full())

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(1), a)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(1), mx)
	assert.Equal(t, Sum(10), s)

	buf.AddItem(10)

	a, mn, mx, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(1), a) // 19/10 truncated
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(10), mx)
	assert.Equal(t, Sum(19), s)
	assert.Equal(t, int32(10), buf.GetLast())

	buf.AddItem(15)
	a, _, _, s = buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(3), a)
	assert.Equal(t, Sum(33), s)
}

func TestPartialFill(t *testing.T) {
	buf := NewBuffer(64)
	buf.AddItem(100)
	buf.AddItem(200)
	buf.AddItem(301)

	assert.False(t, buf.Full())
	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(200), a)
	assert.Equal(t, Minimum(100), mn)
	assert.Equal(t, Maximum(301), mx)
	assert.Equal(t, Sum(601), s)
}

func TestReset(t *testing.T) {
	buf := NewBuffer(4)
	for _, v := range []int32{9, 9, 9, 9} {
		buf.AddItem(v)
	}
	buf.Reset()
	assert.False(t, buf.Full())

	buf.AddItem(2)
	a, mn, mx, s := buf.GetAverageMinMaxSum()
	assert.Equal(t, Average(2), a)
	assert.Equal(t, Minimum(2), mn)
	assert.Equal(t, Maximum(2), mx)
	assert.Equal(t, Sum(2), s)
	assert.Equal(t, Size(4), buf.GetSize())
}
