// Package meter turns raw per-block levels into display values: an
// exponential moving average with a peak hold that snaps up and falls slowly.
package meter

// Ballistics defaults. These are fixed by the display design and not
// derived from anything.
const (
	Retain    float32 = 0.8
	Blend     float32 = 0.2
	HoldTicks         = 60
	PeakDecay float32 = 0.95
)

// Ballistics holds the meter coefficients
type Ballistics struct {
	Retain    float32
	Blend     float32
	HoldTicks int
	Decay     float32
}

// DefaultBallistics returns the standard coefficients
func DefaultBallistics() Ballistics {
	return Ballistics{
		Retain:    Retain,
		Blend:     Blend,
		HoldTicks: HoldTicks,
		Decay:     PeakDecay,
	}
}

// Meter is one smoothed level with peak hold. It is not safe for
// concurrent use; the Loop owns its meters.
type Meter struct {
	b        Ballistics
	smoothed float32
	peak     float32
	age      int
}

// New creates a meter with the given ballistics
func New(b Ballistics) *Meter {
	return &Meter{b: b}
}

// Tick folds one raw level into the meter and returns the smoothed level.
// The peak hold follows the smoothed level up immediately; once it has not
// been exceeded for more than HoldTicks ticks it decays every tick.
func (m *Meter) Tick(raw float32) float32 {
	m.smoothed = m.smoothed*m.b.Retain + raw*m.b.Blend

	if m.smoothed > m.peak {
		m.peak = m.smoothed
		m.age = 0
		return m.smoothed
	}

	m.age++
	if m.age > m.b.HoldTicks {
		m.peak *= m.b.Decay
	}
	return m.smoothed
}

// Level returns the smoothed level
func (m *Meter) Level() float32 {
	return m.smoothed
}

// PeakHold returns the held peak
func (m *Meter) PeakHold() float32 {
	return m.peak
}

// Reset zeroes the meter
func (m *Meter) Reset() {
	m.smoothed = 0
	m.peak = 0
	m.age = 0
}
