package buffer

import (
	"math"
	"sync"
)

// Raw ADC code statistics.
type Average int32
type Minimum int32
type Maximum int32
type Sum int64
type Size int

// SampleBuffer is a fixed size ring of raw ADC codes. Statistics cover only
// the slots written since the last Reset.
type SampleBuffer struct {
	position int
	size     int
	count    int
	data     []int32
	lock     sync.Mutex
}

func NewBuffer(size int) *SampleBuffer {
	b := SampleBuffer{}
	b.size = size
	b.data = make([]int32, size)
	return &b
}

func (b *SampleBuffer) AddItem(val int32) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.data[b.position] = val
	b.position += 1
	if b.position == b.size {
		b.position = 0
	}
	if b.count < b.size {
		b.count += 1
	}
}

func (b *SampleBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.position = 0
	b.count = 0
}

// Full reports whether every slot holds a sample.
func (b *SampleBuffer) Full() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.count == b.size
}

// GetAverageMinMaxSum returns the truncated integer mean. An empty buffer
// returns all zeros.
func (b *SampleBuffer) GetAverageMinMaxSum() (Average, Minimum, Maximum, Sum) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.count == 0 {
		return 0, 0, 0, 0
	}
	min := int32(math.MaxInt32)
	max := int32(math.MinInt32)
	sum := int64(0)
	for _, x := range b.data[:b.count] {
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
		sum += int64(x)
	}
	return Average(sum / int64(b.count)), Minimum(min), Maximum(max), Sum(sum)
}

func (b *SampleBuffer) GetSize() Size {
	return Size(b.size)
}

func (b *SampleBuffer) GetLast() int32 {
	b.lock.Lock()
	defer b.lock.Unlock()
	index := b.position - 1
	if index < 0 {
		index += b.size
	}
	return b.data[index]
}
