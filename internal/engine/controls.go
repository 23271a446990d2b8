package engine

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

// Mode selects what the signal path writes to the outputs
type Mode int32

const (
	// ModeOff writes silence
	ModeOff Mode = iota
	// ModeTestTone writes the sine test tone
	ModeTestTone
	// ModeMonitor routes the active input to the outputs
	ModeMonitor
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeTestTone:
		return "test-tone"
	case ModeMonitor:
		return "monitor"
	default:
		return "unknown"
	}
}

// ParseMode parses the output of Mode.String
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return ModeOff, nil
	case "test-tone", "tone", "testtone":
		return ModeTestTone, nil
	case "monitor":
		return ModeMonitor, nil
	}
	return ModeOff, fmt.Errorf("unknown mode: %q", s)
}

// UI ranges of the control setters
const (
	MaxInputGain         = 200
	InputGainScale       = 50
	MaxOutputVolume      = 100
	OutputVolumeScale    = 100
	MinTestFrequency     = 100.0
	MaxTestFrequency     = 1000.0
	DefaultInputGain     = 100
	DefaultOutputVolume  = 75
	DefaultTestFrequency = 440.0
)

// Controls is the boundary between the control context and the real-time
// context. Every field crossing it is a single atomic word. mu only
// serializes control-side writers of power and mode; Process never takes it.
type Controls struct {
	mu sync.Mutex

	power        atomic.Bool
	mode         atomic.Int32
	inputGain    audio.AtomicFloat32
	outputVolume audio.AtomicFloat32
	frequency    audio.AtomicFloat64

	inputLevel     audio.AtomicFloat32
	outputLevel    audio.AtomicFloat32
	fallbackBlocks atomic.Uint64
}

// NewControls returns powered-on controls with default gain, volume and
// frequency and Mode Off.
func NewControls() *Controls {
	c := &Controls{}
	c.power.Store(true)
	c.SetInputGain(DefaultInputGain)
	c.SetOutputVolume(DefaultOutputVolume)
	c.SetTestFrequency(DefaultTestFrequency)
	return c
}

// SetPower switches the monitor on or off. Switching off forces Mode Off
// and zeroes the reported levels.
func (c *Controls) SetPower(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.power.Store(on)
	if !on {
		c.mode.Store(int32(ModeOff))
		c.inputLevel.Store(0)
		c.outputLevel.Store(0)
	}
}

// Power reports whether the monitor is powered
func (c *Controls) Power() bool {
	return c.power.Load()
}

// SetMode switches the output mode. It returns false, leaving Mode Off,
// when a mode other than Off is requested while powered off.
func (c *Controls) SetMode(m Mode) bool {
	if m < ModeOff || m > ModeMonitor {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m != ModeOff && !c.power.Load() {
		return false
	}
	c.mode.Store(int32(m))
	return true
}

// Mode returns the current output mode
func (c *Controls) Mode() Mode {
	return Mode(c.mode.Load())
}

// SetInputGain sets the input gain from its UI value (0..200, 100 = x2)
func (c *Controls) SetInputGain(ui float64) {
	c.inputGain.Store(float32(clamp(ui, 0, MaxInputGain) / InputGainScale))
}

// InputGain returns the raw input gain multiplier
func (c *Controls) InputGain() float32 {
	return c.inputGain.Load()
}

// SetOutputVolume sets the output volume from its UI value (0..100)
func (c *Controls) SetOutputVolume(ui float64) {
	c.outputVolume.Store(float32(clamp(ui, 0, MaxOutputVolume) / OutputVolumeScale))
}

// OutputVolume returns the raw output volume multiplier
func (c *Controls) OutputVolume() float32 {
	return c.outputVolume.Load()
}

// SetTestFrequency sets the test tone frequency in Hz
func (c *Controls) SetTestFrequency(hz float64) {
	c.frequency.Store(clamp(hz, MinTestFrequency, MaxTestFrequency))
}

// TestFrequency returns the test tone frequency in Hz
func (c *Controls) TestFrequency() float64 {
	return c.frequency.Load()
}

// RawLevels returns the latest per-block input and output levels
func (c *Controls) RawLevels() (input, output float32) {
	return c.inputLevel.Load(), c.outputLevel.Load()
}

// FallbackBlocks returns how many blocks found signal on a channel other
// than the selected one.
func (c *Controls) FallbackBlocks() uint64 {
	return c.fallbackBlocks.Load()
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
