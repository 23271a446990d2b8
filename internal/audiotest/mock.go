// Package audiotest provides an in-process audio host for tests and offline
// rendering. It implements audio.AudioDriver without touching hardware.
package audiotest

import (
	"fmt"
	"sync"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

// DefaultSampleRate is used when a config does not ask for one
const DefaultSampleRate = 48000

// MockDriver is a scripted audio.AudioDriver. Blocks are delivered
// synchronously through Deliver, so tests control exactly when the
// processor runs.
type MockDriver struct {
	mu        sync.Mutex
	devices   []audio.Device
	accept    func(audio.Config) bool
	processor audio.Processor
	state     audio.DeviceState
	opens     []audio.Config
	events    chan audio.DeviceState
	gen       uint64
	rescans   int
	open      bool
	running   bool
	closed    bool
}

// NewMockDriver creates a mock host that knows the given devices. With no
// devices, any device name is accepted.
func NewMockDriver(devices ...audio.Device) *MockDriver {
	return &MockDriver{
		devices: devices,
		accept:  func(audio.Config) bool { return true },
		events:  make(chan audio.DeviceState, 8),
	}
}

// SetAccept replaces the rule deciding which configurations open
func (m *MockDriver) SetAccept(accept func(audio.Config) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accept = accept
}

// RejectInputChannels makes Open fail for the given input channel counts
func (m *MockDriver) RejectInputChannels(counts ...int) {
	rejected := make(map[int]bool, len(counts))
	for _, n := range counts {
		rejected[n] = true
	}
	m.SetAccept(func(c audio.Config) bool {
		return !rejected[c.InputChannels]
	})
}

// ListDevices returns the scripted devices
func (m *MockDriver) ListDevices() ([]audio.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, audio.ErrNotInitialized
	}
	return append([]audio.Device(nil), m.devices...), nil
}

// Open records the attempt and, when accepted, prepares the processor
func (m *MockDriver) Open(config audio.Config, p audio.Processor) (audio.DeviceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens = append(m.opens, config)

	if m.closed {
		return audio.DeviceState{}, audio.ErrNotInitialized
	}
	if m.running {
		return audio.DeviceState{}, audio.ErrStreamRunning
	}

	m.closeStreamLocked()

	if !m.knows(config.InputDevice) {
		return audio.DeviceState{}, fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, config.InputDevice)
	}
	if !m.knows(config.OutputDevice) {
		return audio.DeviceState{}, fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, config.OutputDevice)
	}

	if !m.accept(config) {
		return audio.DeviceState{}, fmt.Errorf("invalid number of channels (%d in / %d out)",
			config.InputChannels, config.OutputChannels)
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	name := config.InputDevice
	if name == "" {
		name = "Mock Device"
	}

	state := audio.DeviceState{
		Name:          name,
		TypeName:      "Mock",
		SampleRate:    sampleRate,
		BufferSize:    config.FramesPerBuffer,
		ActiveInputs:  sequence(config.InputChannels),
		ActiveOutputs: sequence(config.OutputChannels),
	}
	m.gen++
	state.Generation = m.gen

	p.Prepare(state.SampleRate, state.BufferSize)

	m.processor = p
	m.state = state
	m.open = true
	m.emitLocked(state.Clone())

	return state.Clone(), nil
}

// Start marks the stream running
func (m *MockDriver) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return audio.ErrNoStream
	}
	m.running = true
	return nil
}

// Stop marks the stream stopped
func (m *MockDriver) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	return nil
}

// CloseStream releases the processor of the open stream
func (m *MockDriver) CloseStream() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeStreamLocked()
	return nil
}

func (m *MockDriver) closeStreamLocked() {
	if !m.open {
		return
	}
	m.running = false
	m.open = false
	if m.processor != nil {
		m.processor.Release()
		m.processor = nil
	}
}

// Rescan counts re-enumerations
func (m *MockDriver) Rescan() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		return audio.ErrStreamRunning
	}
	m.rescans++
	return nil
}

// Events returns the device-change channel
func (m *MockDriver) Events() <-chan audio.DeviceState {
	return m.events
}

// Close shuts the mock host down
func (m *MockDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closeStreamLocked()
	m.closed = true
	close(m.events)
	return nil
}

// Deliver hands one block to the processor as the host callback would.
// It reports false when no stream is running.
func (m *MockDriver) Deliver(block audio.Block) bool {
	m.mu.Lock()
	p := m.processor
	running := m.running
	m.mu.Unlock()

	if !running || p == nil {
		return false
	}
	p.Process(block)
	return true
}

// Emit publishes a device change as if the host had reconfigured itself.
// The state is stamped with the next generation.
func (m *MockDriver) Emit(state audio.DeviceState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.gen++
	state.Generation = m.gen
	m.state = state.Clone()
	m.emitLocked(state.Clone())
}

func (m *MockDriver) emitLocked(state audio.DeviceState) {
	select {
	case m.events <- state:
	default:
	}
}

// Opens returns every configuration passed to Open, in order
func (m *MockDriver) Opens() []audio.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audio.Config(nil), m.opens...)
}

// Running reports whether the stream is started
func (m *MockDriver) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Rescans returns how many times Rescan succeeded
func (m *MockDriver) Rescans() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rescans
}

// State returns the last opened or emitted device state
func (m *MockDriver) State() audio.DeviceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

func (m *MockDriver) knows(name string) bool {
	if name == "" || len(m.devices) == 0 {
		return true
	}
	for _, dev := range m.devices {
		if dev.Name == name {
			return true
		}
	}
	return false
}

func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
