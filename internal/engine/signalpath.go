package engine

import (
	"math"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

// TestToneLevel scales the test tone below full scale
const TestToneLevel float32 = 0.3

// Settings is the per-block snapshot of the controls
type Settings struct {
	Power        bool
	Mode         Mode
	InputGain    float32
	OutputVolume float32
	Frequency    float64
	SampleRate   float64
}

// Levels is what one block reports for metering
type Levels struct {
	Input    float32
	Output   float32
	Channel  int
	Fallback bool
}

// SignalPath computes the output block. It belongs to the real-time
// context: Process never allocates, locks or blocks. Output is not
// clipped; values past full scale are left to the device.
type SignalPath struct {
	scanner Scanner
	phase   float64
}

// NewSignalPath returns a signal path with zero phase
func NewSignalPath() *SignalPath {
	return &SignalPath{scanner: NewScanner()}
}

// Phase returns the test tone phase in [0, 1)
func (sp *SignalPath) Phase() float64 {
	return sp.phase
}

// Reset zeroes the test tone phase
func (sp *SignalPath) Reset() {
	sp.phase = 0
}

// Process clears every output channel and then writes the block for the
// current mode. outputs lists the active output channels. The input level
// is reported whenever Power is set, also in Mode Off.
func (sp *SignalPath) Process(block audio.Block, inputs *ChannelMap, outputs []int, s Settings) Levels {
	frames := block.Frames()
	clearChannels(block.Out)

	scan := sp.scanner.Scan(block.In, inputs.Selected(), inputs.activeView())
	levels := Levels{Channel: scan.Channel, Fallback: scan.Fallback}

	switch s.Mode {
	case ModeTestTone:
		levels.Output = sp.tone(block.Out, outputs, frames, s)
	case ModeMonitor:
		if scan.Channel != NoChannel {
			levels.Output = monitor(block.In[scan.Channel], block.Out, outputs, s)
		}
	}

	// The input meter runs in every mode while powered
	if s.Power {
		levels.Input = scan.Peak * s.InputGain
	}
	return levels
}

// tone synthesizes the test tone into the first active output and copies it
// to the rest. The phase advances once per block by the elapsed frames.
func (sp *SignalPath) tone(out [][]float32, outputs []int, frames int, s Settings) float32 {
	if s.SampleRate <= 0 || frames == 0 {
		return 0
	}

	cps := s.Frequency / s.SampleRate
	start := sp.phase
	sp.phase = math.Mod(start+cps*float64(frames), 1)

	dst := firstOutput(out, outputs)
	if dst == nil {
		return 0
	}
	if len(dst) > frames {
		dst = dst[:frames]
	}

	gain := s.OutputVolume * TestToneLevel
	phase := start
	var peak float32
	for i := range dst {
		v := float32(math.Sin(2*math.Pi*phase)) * gain
		dst[i] = v
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
		phase += cps
		if phase >= 1 {
			phase -= math.Floor(phase)
		}
	}

	fanOut(dst, out, outputs)
	return peak
}

// monitor writes input * gain * volume to every active output
func monitor(src []float32, out [][]float32, outputs []int, s Settings) float32 {
	dst := firstOutput(out, outputs)
	if dst == nil {
		return 0
	}
	n := min(len(src), len(dst))
	dst = dst[:n]

	var peak float32
	for i, x := range src[:n] {
		v := x * s.InputGain * s.OutputVolume
		dst[i] = v
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}

	fanOut(dst, out, outputs)
	return peak
}

func firstOutput(out [][]float32, outputs []int) []float32 {
	for _, ch := range outputs {
		if ch >= 0 && ch < len(out) && out[ch] != nil {
			return out[ch]
		}
	}
	return nil
}

// fanOut copies the rendered channel to the remaining active outputs
func fanOut(src []float32, out [][]float32, outputs []int) {
	if len(src) == 0 {
		return
	}
	for _, ch := range outputs {
		if ch < 0 || ch >= len(out) || len(out[ch]) == 0 {
			continue
		}
		if &out[ch][0] == &src[0] {
			continue
		}
		copy(out[ch], src)
	}
}

func clearChannels(channels [][]float32) {
	for _, ch := range channels {
		clear(ch)
	}
}
