// Package render writes the test tone to a WAV file by running the engine
// against the in-process host. The samples are produced by the same signal
// path that feeds the sound card.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"

	"github.com/yok-tottii/performia-monitor/internal/audio"
	"github.com/yok-tottii/performia-monitor/internal/audiotest"
	"github.com/yok-tottii/performia-monitor/internal/engine"
)

// wavPCM is the WAVE_FORMAT_PCM format tag
const wavPCM = 1

// Options describes a render
type Options struct {
	Duration        time.Duration
	SampleRate      int
	BitDepth        int
	Channels        int
	Frequency       float64
	Volume          float64 // UI value 0..100
	FramesPerBuffer int
}

// DefaultOptions returns a two second stereo 16-bit render at 440 Hz
func DefaultOptions() Options {
	return Options{
		Duration:        2 * time.Second,
		SampleRate:      48000,
		BitDepth:        16,
		Channels:        2,
		Frequency:       engine.DefaultTestFrequency,
		Volume:          engine.DefaultOutputVolume,
		FramesPerBuffer: 512,
	}
}

// Validate validates the options
func (o Options) Validate() error {
	if o.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if o.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", o.SampleRate)
	}
	if o.BitDepth != 16 && o.BitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d (must be 16 or 24)", o.BitDepth)
	}
	if o.Channels < 1 || o.Channels > engine.DefaultChannelCount {
		return fmt.Errorf("invalid channel count: %d (must be 1 or 2)", o.Channels)
	}
	if o.Frequency < engine.MinTestFrequency || o.Frequency > engine.MaxTestFrequency {
		return fmt.Errorf("frequency must be between %.0f and %.0f Hz", engine.MinTestFrequency, engine.MaxTestFrequency)
	}
	if o.Volume < 0 || o.Volume > engine.MaxOutputVolume {
		return fmt.Errorf("volume must be between 0 and %d", engine.MaxOutputVolume)
	}
	if o.FramesPerBuffer <= 0 {
		return fmt.Errorf("invalid buffer size: %d", o.FramesPerBuffer)
	}
	return nil
}

// Result summarizes a finished render
type Result struct {
	Frames int
	Peak   float32
}

// ToneToFile renders the test tone into a new WAV file at path
func ToneToFile(ctx context.Context, path string, opts Options, log engine.Logger) (Result, error) {
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create output file: %w", err)
	}

	result, err := Tone(ctx, f, opts, log)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	return result, err
}

// Tone renders the test tone as WAV into w
func Tone(ctx context.Context, w io.WriteSeeker, opts Options, log engine.Logger) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid render options: %w", err)
	}

	driver := audiotest.NewMockDriver()
	defer driver.Close()

	config := engine.DefaultConfig()
	config.Stream.SampleRate = float64(opts.SampleRate)
	config.Stream.FramesPerBuffer = opts.FramesPerBuffer

	eng := engine.New(driver, config, log)
	state, err := eng.Open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open render host: %w", err)
	}
	defer eng.Shutdown()

	eng.SetOutputVolume(opts.Volume)
	eng.SetTestFrequency(opts.Frequency)
	eng.SetMode(engine.ModeTestTone)
	if err := eng.Start(); err != nil {
		return Result{}, err
	}

	enc := wav.NewEncoder(w, opts.SampleRate, opts.BitDepth, opts.Channels, wavPCM)

	total := int(opts.Duration.Seconds() * float64(opts.SampleRate))
	frames := opts.FramesPerBuffer
	block := audiotest.NewBlock(len(state.ActiveInputs), len(state.ActiveOutputs), frames)
	interleaved := make([]float32, frames*opts.Channels)
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			NumChannels: opts.Channels,
			SampleRate:  opts.SampleRate,
		},
		SourceBitDepth: opts.BitDepth,
	}

	var result Result
	for result.Frames < total {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n := min(frames, total-result.Frames)
		driver.Deliver(truncate(block, n))

		for i := 0; i < n; i++ {
			for ch := 0; ch < opts.Channels; ch++ {
				v := block.Out[ch][i]
				interleaved[i*opts.Channels+ch] = v
				if v < 0 {
					v = -v
				}
				result.Peak = max(result.Peak, v)
			}
		}

		buf.Data = interleaved[:n*opts.Channels]
		if err := transforms.PCMScaleF32(buf, opts.BitDepth); err != nil {
			return result, fmt.Errorf("failed to scale samples: %w", err)
		}
		if err := enc.Write(buf.AsIntBuffer()); err != nil {
			return result, fmt.Errorf("failed to write samples: %w", err)
		}
		result.Frames += n
	}

	if err := enc.Close(); err != nil {
		return result, fmt.Errorf("failed to finalize wav: %w", err)
	}
	return result, nil
}

// truncate shortens the last block of a render
func truncate(block audio.Block, n int) audio.Block {
	if block.Frames() == n {
		return block
	}
	short := audio.Block{
		In:  make([][]float32, len(block.In)),
		Out: make([][]float32, len(block.Out)),
	}
	for i, ch := range block.In {
		short.In[i] = ch[:n]
	}
	for i, ch := range block.Out {
		short.Out[i] = ch[:n]
	}
	return short
}
