package audio

import (
	"math"
	"sync/atomic"
)

// AtomicFloat32 is a float32 stored as its bit pattern so that readers and
// writers on different threads never observe a torn value.
type AtomicFloat32 struct {
	bits atomic.Uint32
}

func (f *AtomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *AtomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// AtomicFloat64 is the float64 counterpart of AtomicFloat32.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

func (f *AtomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *AtomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
