package meter

import (
	"context"
	"sync"
	"time"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

// DefaultInterval is the UI tick period, about 33 Hz
const DefaultInterval = 30 * time.Millisecond

// Side selects the input or the output meter
type Side int

const (
	// Input is the input meter
	Input Side = iota
	// Output is the output meter
	Output
)

// Source provides the latest raw levels written by the audio thread
type Source interface {
	RawLevels() (input, output float32)
}

// Snapshot is the display state of both meters
type Snapshot struct {
	Input      float32 `json:"input"`
	Output     float32 `json:"output"`
	InputPeak  float32 `json:"inputPeak"`
	OutputPeak float32 `json:"outputPeak"`
}

// Loop ticks an input and an output meter at UI rate. The meters are
// touched only by Tick; readers get the published atomic values.
type Loop struct {
	source   Source
	interval time.Duration
	onTick   func(Snapshot)

	mu     sync.Mutex
	input  *Meter
	output *Meter

	smoothedIn  audio.AtomicFloat32
	smoothedOut audio.AtomicFloat32
	peakIn      audio.AtomicFloat32
	peakOut     audio.AtomicFloat32
}

// NewLoop creates a loop reading from source every interval
func NewLoop(source Source, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		source:   source,
		interval: interval,
		input:    New(DefaultBallistics()),
		output:   New(DefaultBallistics()),
	}
}

// OnTick registers a callback run after every tick. Set it before Run.
func (l *Loop) OnTick(fn func(Snapshot)) {
	l.onTick = fn
}

// Tick reads the raw levels once and publishes the new display values
func (l *Loop) Tick() Snapshot {
	rawIn, rawOut := l.source.RawLevels()

	l.mu.Lock()
	s := Snapshot{
		Input:  l.input.Tick(rawIn),
		Output: l.output.Tick(rawOut),
	}
	s.InputPeak = l.input.PeakHold()
	s.OutputPeak = l.output.PeakHold()
	l.mu.Unlock()

	l.smoothedIn.Store(s.Input)
	l.smoothedOut.Store(s.Output)
	l.peakIn.Store(s.InputPeak)
	l.peakOut.Store(s.OutputPeak)
	return s
}

// Run ticks until ctx is done
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := l.Tick()
			if l.onTick != nil {
				l.onTick(s)
			}
		}
	}
}

// Reset zeroes both meters
func (l *Loop) Reset() {
	l.mu.Lock()
	l.input.Reset()
	l.output.Reset()
	l.mu.Unlock()

	l.smoothedIn.Store(0)
	l.smoothedOut.Store(0)
	l.peakIn.Store(0)
	l.peakOut.Store(0)
}

// SmoothedInputLevel returns the smoothed input level
func (l *Loop) SmoothedInputLevel() float32 {
	return l.smoothedIn.Load()
}

// SmoothedOutputLevel returns the smoothed output level
func (l *Loop) SmoothedOutputLevel() float32 {
	return l.smoothedOut.Load()
}

// PeakHold returns the held peak of one side
func (l *Loop) PeakHold(side Side) float32 {
	if side == Output {
		return l.peakOut.Load()
	}
	return l.peakIn.Load()
}

// Snapshot returns the last published display values
func (l *Loop) Snapshot() Snapshot {
	return Snapshot{
		Input:      l.smoothedIn.Load(),
		Output:     l.smoothedOut.Load(),
		InputPeak:  l.peakIn.Load(),
		OutputPeak: l.peakOut.Load(),
	}
}
