package analytics

import (
	"errors"
	"time"
)

// ErrInsufficientData means a detector cannot run yet for this channel.
// Callers skip the algorithm for the cycle; it is never a hard failure.
var ErrInsufficientData = errors.New("insufficient data")

// DefaultBufferCapacity bounds per-channel history.
const DefaultBufferCapacity = 1000

// Sample is one observed value; immutable once appended.
type Sample struct {
	Value      float64
	ObservedAt time.Time
}

// TimeSeriesBuffer holds the recent samples for one (device, channel) pair
// in a fixed-size ring. Oldest samples are evicted on overflow. Each pair
// owns its own buffer, so no internal locking is needed.
type TimeSeriesBuffer struct {
	capacity int
	samples  []Sample
	index    int
	count    int
}

func NewTimeSeriesBuffer(capacity int) *TimeSeriesBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &TimeSeriesBuffer{
		capacity: capacity,
		samples:  make([]Sample, capacity),
	}
}

// Append pushes a sample, evicting the oldest if the buffer is full.
func (b *TimeSeriesBuffer) Append(value float64, at time.Time) {
	b.samples[b.index] = Sample{Value: value, ObservedAt: at}
	b.index = (b.index + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}

// Len reports how many samples are currently retained.
func (b *TimeSeriesBuffer) Len() int {
	return b.count
}

// Window returns a copy of the most recent n samples, oldest first.
func (b *TimeSeriesBuffer) Window(n int) ([]Sample, error) {
	if n <= 0 || n > b.count {
		return nil, ErrInsufficientData
	}
	out := make([]Sample, n)
	start := b.index - n
	if start < 0 {
		start += b.capacity
	}
	for i := 0; i < n; i++ {
		out[i] = b.samples[(start+i)%b.capacity]
	}
	return out, nil
}

// Values returns the retained values oldest first.
func (b *TimeSeriesBuffer) Values() []float64 {
	samples, err := b.Window(b.count)
	if err != nil {
		return nil
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}
