package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDriver implements AudioDriver using PortAudio
type PortAudioDriver struct {
	mu          sync.Mutex
	stream      *portaudio.Stream
	processor   Processor
	config      Config
	state       DeviceState
	events      chan DeviceState
	generation  uint64
	running     bool
	initialized bool
}

// NewPortAudioDriver creates a new PortAudio driver
func NewPortAudioDriver() (*PortAudioDriver, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	return &PortAudioDriver{
		events:      make(chan DeviceState, 4),
		initialized: true,
	}, nil
}

// ListDevices returns every device PortAudio reports
func (d *PortAudioDriver) ListDevices() ([]Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	// A missing default is not fatal; nothing gets marked as default then
	defaultIn, _ := portaudio.DefaultInputDevice()
	defaultOut, _ := portaudio.DefaultOutputDevice()

	result := make([]Device, 0, len(devices))
	for i, dev := range devices {
		result = append(result, Device{
			ID:                i,
			Name:              dev.Name,
			HostAPI:           hostAPIName(dev),
			MaxInputChannels:  dev.MaxInputChannels,
			MaxOutputChannels: dev.MaxOutputChannels,
			IsDefaultInput:    defaultIn != nil && dev.Name == defaultIn.Name,
			IsDefaultOutput:   defaultOut != nil && dev.Name == defaultOut.Name,
		})
	}

	return result, nil
}

// Open closes any existing stream and opens a duplex, non-interleaved
// float32 stream. PortAudio rejects channel counts the device cannot
// provide, which is what channel negotiation relies on.
func (d *PortAudioDriver) Open(config Config, p Processor) (DeviceState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return DeviceState{}, ErrNotInitialized
	}

	if d.running {
		return DeviceState{}, ErrStreamRunning
	}

	if err := d.closeStreamLocked(); err != nil {
		return DeviceState{}, err
	}

	params := portaudio.StreamParameters{
		SampleRate:      config.SampleRate,
		FramesPerBuffer: config.FramesPerBuffer,
	}

	var inDev, outDev *portaudio.DeviceInfo
	var err error

	if config.InputChannels > 0 {
		inDev, err = findDevice(config.InputDevice, true)
		if err != nil {
			return DeviceState{}, err
		}
		params.Input = portaudio.StreamDeviceParameters{
			Device:   inDev,
			Channels: config.InputChannels,
			Latency:  latencyFor(inDev, config.Latency, true),
		}
	}

	if config.OutputChannels > 0 {
		outDev, err = findDevice(config.OutputDevice, false)
		if err != nil {
			return DeviceState{}, err
		}
		params.Output = portaudio.StreamDeviceParameters{
			Device:   outDev,
			Channels: config.OutputChannels,
			Latency:  latencyFor(outDev, config.Latency, false),
		}
	}

	if params.SampleRate <= 0 {
		switch {
		case inDev != nil:
			params.SampleRate = inDev.DefaultSampleRate
		case outDev != nil:
			params.SampleRate = outDev.DefaultSampleRate
		}
	}

	stream, err := portaudio.OpenStream(params, func(in, out [][]float32) {
		p.Process(Block{In: in, Out: out})
	})
	if err != nil {
		return DeviceState{}, fmt.Errorf("failed to open stream (%d in / %d out): %w",
			config.InputChannels, config.OutputChannels, err)
	}

	sampleRate := params.SampleRate
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		sampleRate = info.SampleRate
	}

	state := DeviceState{
		Name:          deviceName(inDev, outDev),
		TypeName:      hostAPIName(firstDevice(inDev, outDev)),
		SampleRate:    sampleRate,
		BufferSize:    config.FramesPerBuffer,
		ActiveInputs:  channelRange(config.InputChannels),
		ActiveOutputs: channelRange(config.OutputChannels),
	}
	d.generation++
	state.Generation = d.generation

	p.Prepare(state.SampleRate, state.BufferSize)

	d.stream = stream
	d.processor = p
	d.config = config
	d.state = state
	d.publish(state.Clone())

	return state.Clone(), nil
}

// Start starts the stream
func (d *PortAudioDriver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return ErrNoStream
	}

	if d.running {
		return nil
	}

	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	d.running = true
	return nil
}

// Stop stops the stream. PortAudio returns only after pending buffers
// have been processed, so no callback is in flight afterwards.
func (d *PortAudioDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.stopLocked()
}

func (d *PortAudioDriver) stopLocked() error {
	if !d.running {
		return nil
	}

	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop stream: %w", err)
	}

	d.running = false
	return nil
}

// CloseStream closes the current stream and releases its processor
func (d *PortAudioDriver) CloseStream() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closeStreamLocked()
}

func (d *PortAudioDriver) closeStreamLocked() error {
	if d.stream == nil {
		return nil
	}

	if err := d.stopLocked(); err != nil {
		return err
	}

	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}

	if d.processor != nil {
		d.processor.Release()
	}

	d.stream = nil
	d.processor = nil
	return nil
}

// Rescan re-initializes PortAudio so that hot-plugged devices show up.
func (d *PortAudioDriver) Rescan() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return ErrStreamRunning
	}

	if d.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		d.initialized = false
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	d.initialized = true
	return nil
}

// Events returns the device-change notification channel
func (d *PortAudioDriver) Events() <-chan DeviceState {
	return d.events
}

// Close releases all resources
func (d *PortAudioDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.closeStreamLocked(); err != nil {
		return err
	}

	if !d.initialized {
		return nil
	}

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}

	d.initialized = false
	close(d.events)
	return nil
}

// publish delivers a state without blocking, replacing an unread one
func (d *PortAudioDriver) publish(state DeviceState) {
	select {
	case d.events <- state:
		return
	default:
	}

	select {
	case <-d.events:
	default:
	}

	select {
	case d.events <- state:
	default:
	}
}

func findDevice(name string, input bool) (*portaudio.DeviceInfo, error) {
	if name == "" {
		var dev *portaudio.DeviceInfo
		var err error
		if input {
			dev, err = portaudio.DefaultInputDevice()
		} else {
			dev, err = portaudio.DefaultOutputDevice()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get default device: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	for _, dev := range devices {
		if dev.Name != name {
			continue
		}
		if (input && dev.MaxInputChannels > 0) || (!input && dev.MaxOutputChannels > 0) {
			return dev, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

func latencyFor(dev *portaudio.DeviceInfo, mode LatencyMode, input bool) time.Duration {
	switch {
	case input && mode == LowLatency:
		return dev.DefaultLowInputLatency
	case input:
		return dev.DefaultHighInputLatency
	case mode == LowLatency:
		return dev.DefaultLowOutputLatency
	default:
		return dev.DefaultHighOutputLatency
	}
}

func deviceName(in, out *portaudio.DeviceInfo) string {
	switch {
	case in != nil && out != nil && in.Name != out.Name:
		return in.Name + " / " + out.Name
	case in != nil:
		return in.Name
	case out != nil:
		return out.Name
	}
	return ""
}

func firstDevice(devs ...*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	for _, dev := range devs {
		if dev != nil {
			return dev
		}
	}
	return nil
}

func hostAPIName(dev *portaudio.DeviceInfo) string {
	if dev == nil || dev.HostApi == nil {
		return ""
	}
	return dev.HostApi.Name
}

func channelRange(n int) []int {
	channels := make([]int, n)
	for i := range channels {
		channels[i] = i
	}
	return channels
}
