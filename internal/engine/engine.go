package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yok-tottii/performia-monitor/internal/audio"
)

var (
	// ErrNegotiationFailed is returned when every channel count was rejected
	ErrNegotiationFailed = errors.New("channel negotiation failed")
	// ErrNotOpen is returned when the stream has not been opened
	ErrNotOpen = errors.New("engine not open")
	// ErrNotPrepared is the panic value of Process called before Prepare
	ErrNotPrepared = errors.New("process called before prepare")
)

// NegotiationChannelCounts are the input channel counts requested on open,
// in order. Each attempt is a full reinitialization of the device.
var NegotiationChannelCounts = []int{256, 8, 2}

// DefaultChannelCount is the stereo count used for outputs and as the
// fallback when a device rejects a selection.
const DefaultChannelCount = 2

// State represents the host lifecycle state of the engine
type State int32

const (
	// Uninitialized means Prepare has never been called
	Uninitialized State = iota
	// Prepared means sample rate and block size are known
	Prepared
	// Processing means blocks are being delivered
	Processing
	// Released means the host released the engine
	Released
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Prepared:
		return "Prepared"
	case Processing:
		return "Processing"
	case Released:
		return "Released"
	default:
		return "Unknown"
	}
}

// Logger is the logging surface the engine needs
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Config holds configuration for the engine
type Config struct {
	// Stream carries device names, sample rate, buffer size and latency.
	// Channel counts are negotiated and ignored here.
	Stream audio.Config
	// InputChannel is the preferred logical input channel (1-based)
	InputChannel int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Stream:       audio.DefaultConfig(),
		InputChannel: 1,
	}
}

// routing is the device snapshot the audio thread reads. It is replaced
// wholesale and never mutated.
type routing struct {
	device audio.DeviceState
	inputs *ChannelMap
}

// Engine is the device-facing shell. It implements audio.Processor for the
// host and exposes the control surface to the UI.
type Engine struct {
	*Controls

	driver audio.AudioDriver
	log    Logger
	path   *SignalPath

	state      atomic.Int32
	sampleRate audio.AtomicFloat64
	blockSize  atomic.Int64
	routing    atomic.Pointer[routing]
	status     atomic.Pointer[string]
	reported   atomic.Uint64

	// mu serializes device operations from the control context
	mu      sync.Mutex
	config  audio.Config
	running bool

	// routeMu serializes writers of routing
	routeMu   sync.Mutex
	preferred int
}

// New creates an engine on top of a host driver
func New(driver audio.AudioDriver, config Config, log Logger) *Engine {
	if log == nil {
		log = nopLogger{}
	}
	preferred := config.InputChannel
	if preferred < 1 {
		preferred = 1
	}

	e := &Engine{
		Controls:  NewControls(),
		driver:    driver,
		log:       log,
		path:      NewSignalPath(),
		config:    config.Stream,
		preferred: preferred,
	}
	e.routing.Store(&routing{})
	return e
}

// Prepare stores the stream format. Called by the host before the first
// block and after every reinitialization.
func (e *Engine) Prepare(sampleRate float64, blockSize int) {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("engine: invalid sample rate %v", sampleRate))
	}
	e.sampleRate.Store(sampleRate)
	e.blockSize.Store(int64(blockSize))
	e.path.Reset()
	e.state.Store(int32(Prepared))
}

// Process renders one block on the real-time thread. It panics with
// ErrNotPrepared when the host skipped Prepare.
func (e *Engine) Process(block audio.Block) {
	st := State(e.state.Load())
	if st != Prepared && st != Processing {
		panic(ErrNotPrepared)
	}
	if st == Prepared {
		e.state.CompareAndSwap(int32(Prepared), int32(Processing))
	}

	r := e.routing.Load()
	levels := e.path.Process(block, r.inputs, r.device.ActiveOutputs, Settings{
		Power:        e.Power(),
		Mode:         e.Mode(),
		InputGain:    e.InputGain(),
		OutputVolume: e.OutputVolume(),
		Frequency:    e.TestFrequency(),
		SampleRate:   e.sampleRate.Load(),
	})

	e.inputLevel.Store(levels.Input)
	e.outputLevel.Store(levels.Output)
	if levels.Fallback {
		e.fallbackBlocks.Add(1)
	}
}

// Release is called by the host when the stream closes. Phase and levels
// are discarded.
func (e *Engine) Release() {
	e.state.Store(int32(Released))
	e.inputLevel.Store(0)
	e.outputLevel.Store(0)
}

// Format returns the sample rate and block size of the last Prepare
func (e *Engine) Format() (sampleRate float64, blockSize int) {
	return e.sampleRate.Load(), int(e.blockSize.Load())
}

// State returns the host lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Open opens the device, negotiating the input channel count
func (e *Engine) Open(ctx context.Context) (audio.DeviceState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.negotiateLocked(ctx, e.config)
}

// negotiateLocked tries NegotiationChannelCounts in order until the host
// accepts one.
func (e *Engine) negotiateLocked(ctx context.Context, base audio.Config) (audio.DeviceState, error) {
	state, config, err := e.openLadder(ctx, base, NegotiationChannelCounts)
	if err != nil {
		return audio.DeviceState{}, err
	}

	e.config = config
	e.ApplyDeviceState(state)
	e.log.Info("Opened %q: %d in / %d out at %.0f Hz, %d frames",
		state.Name, len(state.ActiveInputs), len(state.ActiveOutputs), state.SampleRate, state.BufferSize)
	return state, nil
}

// openLadder opens base with each input channel count in turn and returns
// the first accepted configuration. Nothing is applied to the engine.
func (e *Engine) openLadder(ctx context.Context, base audio.Config, counts []int) (audio.DeviceState, audio.Config, error) {
	var errs []error
	for _, n := range counts {
		if err := ctx.Err(); err != nil {
			return audio.DeviceState{}, audio.Config{}, err
		}

		config := base
		config.InputChannels = n
		config.OutputChannels = DefaultChannelCount

		state, err := e.driver.Open(config, e)
		if err == nil {
			return state, config, nil
		}

		e.log.Warn("Device rejected %d input channels: %v", n, err)
		errs = append(errs, err)
	}

	return audio.DeviceState{}, audio.Config{}, fmt.Errorf("%w: %w", ErrNegotiationFailed, errors.Join(errs...))
}

// inputCounts returns the negotiation counts the named input device can
// offer. Counts above the device's channel count are skipped; a device
// with fewer channels than every count is asked for all of its channels.
// Unknown devices get the full list.
func (e *Engine) inputCounts(name string) []int {
	if name == "" {
		return NegotiationChannelCounts
	}
	devices, err := e.driver.ListDevices()
	if err != nil {
		return NegotiationChannelCounts
	}

	for _, dev := range devices {
		if dev.Name != name || dev.MaxInputChannels <= 0 {
			continue
		}
		counts := make([]int, 0, len(NegotiationChannelCounts))
		for _, n := range NegotiationChannelCounts {
			if n <= dev.MaxInputChannels {
				counts = append(counts, n)
			}
		}
		if len(counts) == 0 {
			counts = append(counts, dev.MaxInputChannels)
		}
		return counts
	}
	return NegotiationChannelCounts
}

// Start starts block delivery
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.State() == Uninitialized {
		return ErrNotOpen
	}
	if err := e.driver.Start(); err != nil {
		return fmt.Errorf("failed to start audio: %w", err)
	}
	e.running = true
	return nil
}

// Running reports whether blocks are being delivered
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Shutdown stops the stream synchronously and closes it. No callback is in
// flight once it returns. Safe to call at any time from the control context.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.stopLocked(); err != nil {
		return err
	}
	if err := e.driver.CloseStream(); err != nil {
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}

func (e *Engine) stopLocked() error {
	if err := e.driver.Stop(); err != nil {
		return fmt.Errorf("failed to stop audio: %w", err)
	}
	e.running = false
	return nil
}

// Refresh re-enumerates devices and reopens with the current channel
// counts, renegotiating when they are no longer accepted.
func (e *Engine) Refresh(ctx context.Context) (audio.DeviceState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasRunning := e.running
	if err := e.stopLocked(); err != nil {
		return audio.DeviceState{}, err
	}
	if err := e.driver.CloseStream(); err != nil {
		return audio.DeviceState{}, fmt.Errorf("failed to close audio stream: %w", err)
	}
	if err := e.driver.Rescan(); err != nil {
		return audio.DeviceState{}, fmt.Errorf("failed to rescan devices: %w", err)
	}

	config := e.config
	if config.InputChannels == 0 {
		config.InputChannels = DefaultChannelCount
	}
	if config.OutputChannels == 0 {
		config.OutputChannels = DefaultChannelCount
	}

	state, err := e.driver.Open(config, e)
	if err != nil {
		e.log.Warn("Reopen with %d input channels failed: %v", config.InputChannels, err)
		state, err = e.negotiateLocked(ctx, config)
		if err != nil {
			return audio.DeviceState{}, err
		}
	} else {
		e.config = config
		e.ApplyDeviceState(state)
	}

	if wasRunning {
		if err := e.startLocked(); err != nil {
			return state, err
		}
	}
	return state, nil
}

// SelectDevice switches the input or output device. A new input device
// goes through channel negotiation. When the device rejects every
// configuration, it is retried with the default channel count and the
// device's own stream format; if that fails too, the previous device is
// restored. The returned status is informational and meant for the UI.
func (e *Engine) SelectDevice(ctx context.Context, name string, isInput bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	wasRunning := e.running
	if err := e.stopLocked(); err != nil {
		return "", err
	}

	previous := e.config
	config := previous
	counts := []int{config.InputChannels}
	if isInput {
		config.InputDevice = name
		counts = e.inputCounts(name)
	} else {
		config.OutputDevice = name
	}
	if counts[0] == 0 {
		counts = []int{DefaultChannelCount}
	}

	status := ""
	state, accepted, err := e.openLadder(ctx, config, counts)
	if err != nil && ctx.Err() == nil {
		e.log.Warn("Device setup rejected for %q: %v", name, err)
		accepted = config
		accepted.InputChannels = DefaultChannelCount
		accepted.OutputChannels = DefaultChannelCount
		accepted.SampleRate = 0
		state, err = e.driver.Open(accepted, e)
		if err == nil {
			status = fmt.Sprintf(fallbackStatus, name)
		}
	}

	if err != nil {
		e.log.Error("Failed to open %q: %v", name, err)
		status = fmt.Sprintf("Could not open %q: %v", name, err)
		e.setStatus(status)

		restored, rerr := e.driver.Open(previous, e)
		if rerr != nil {
			e.log.Error("Failed to restore previous device: %v", rerr)
			return status, fmt.Errorf("failed to select device %q: %w", name, err)
		}
		e.ApplyDeviceState(restored)
		if wasRunning {
			if serr := e.startLocked(); serr != nil {
				e.log.Error("Failed to restart audio: %v", serr)
			}
		}
		return status, fmt.Errorf("failed to select device %q: %w", name, err)
	}

	if status == "" {
		status = fmt.Sprintf("Using %q", state.Name)
	}
	e.setStatus(status)
	e.config = accepted
	e.ApplyDeviceState(state)
	e.log.Info("Selected %s device %q (%d in / %d out at %.0f Hz)", direction(isInput), name,
		len(state.ActiveInputs), len(state.ActiveOutputs), state.SampleRate)

	if wasRunning {
		if err := e.startLocked(); err != nil {
			return status, err
		}
	}
	return status, nil
}

const fallbackStatus = "Device setup failed, using default channels for %q"

// IsFallbackStatus reports whether a SelectDevice status means the device
// only opened with the default channel count.
func IsFallbackStatus(status string) bool {
	return strings.HasPrefix(status, fallbackStatus[:strings.Index(fallbackStatus, "%")])
}

// ListDevices returns the devices the host knows about
func (e *Engine) ListDevices() ([]audio.Device, error) {
	devices, err := e.driver.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// ApplyDeviceState replaces the device snapshot and rebuilds the channel
// map. A selection that is no longer active falls back to the first
// active channel. A snapshot older than the applied one is ignored and
// false is returned.
func (e *Engine) ApplyDeviceState(state audio.DeviceState) bool {
	e.routeMu.Lock()
	defer e.routeMu.Unlock()

	old := e.routing.Load()
	if !state.Supersedes(old.device) {
		return false
	}

	var inputs *ChannelMap
	if old.inputs.Len() == 0 {
		inputs = NewChannelMap(state.ActiveInputs, e.preferred)
	} else {
		inputs = old.inputs.Rebuild(state.ActiveInputs)
	}

	if prev := old.inputs.Selected(); prev != NoChannel && prev != inputs.Selected() {
		e.log.Info("Input channel %d no longer active, selected %d", prev, inputs.Selected())
	}

	e.routing.Store(&routing{device: state.Clone(), inputs: inputs})
	return true
}

// Watch applies device changes until ctx is done or events is closed
func (e *Engine) Watch(ctx context.Context, events <-chan audio.DeviceState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-events:
			if !ok {
				return
			}
			if e.ApplyDeviceState(state) {
				e.log.Debug("Device changed: %q, %d inputs", state.Name, len(state.ActiveInputs))
			}
		}
	}
}

// SelectInputChannel selects a logical (1-based) input channel. It returns
// false when the channel is not active.
func (e *Engine) SelectInputChannel(logical int) bool {
	e.routeMu.Lock()
	defer e.routeMu.Unlock()

	old := e.routing.Load()
	inputs, ok := old.inputs.Select(logical)
	if !ok {
		return false
	}

	e.preferred = logical
	e.routing.Store(&routing{device: old.device, inputs: inputs})
	return true
}

// ReportFallbacks logs the blocks whose signal came from a channel other
// than the selected one since the last call, and returns their count.
// Called at UI rate; the audio thread only increments the counter.
func (e *Engine) ReportFallbacks() uint64 {
	total := e.FallbackBlocks()
	delta := total - e.reported.Swap(total)
	if delta > 0 {
		e.log.Debug("Signal found outside channel %d in %d blocks", e.SelectedInputChannel(), delta)
	}
	return delta
}

// InputChannels returns the active input channel listing
func (e *Engine) InputChannels() []Channel {
	return e.routing.Load().inputs.Channels()
}

// SelectedInputChannel returns the selected logical channel, 0 when none
func (e *Engine) SelectedInputChannel() int {
	return e.routing.Load().inputs.SelectedLogical()
}

// DeviceInfo is the device summary shown to the user
type DeviceInfo struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	SampleRate         float64 `json:"sampleRate"`
	BufferSize         int     `json:"bufferSize"`
	LatencyMs          float64 `json:"latencyMs"`
	ActiveInputs       []int   `json:"activeInputs"`
	ActiveOutputs      []int   `json:"activeOutputs"`
	InputChannelCount  int     `json:"inputChannelCount"`
	OutputChannelCount int     `json:"outputChannelCount"`
	SelectedChannel    int     `json:"selectedChannel"`
	State              string  `json:"state"`
	Status             string  `json:"status,omitempty"`
}

// DeviceInfo returns the current device summary
func (e *Engine) DeviceInfo() DeviceInfo {
	r := e.routing.Load()
	device := r.device.Clone()

	info := DeviceInfo{
		Name:               device.Name,
		Type:               device.TypeName,
		SampleRate:         device.SampleRate,
		BufferSize:         device.BufferSize,
		LatencyMs:          device.LatencyMs(),
		ActiveInputs:       device.ActiveInputs,
		ActiveOutputs:      device.ActiveOutputs,
		InputChannelCount:  len(device.ActiveInputs),
		OutputChannelCount: len(device.ActiveOutputs),
		SelectedChannel:    r.inputs.SelectedLogical(),
		State:              e.State().String(),
	}
	if s := e.status.Load(); s != nil {
		info.Status = *s
	}
	return info
}

func (e *Engine) setStatus(s string) {
	e.status.Store(&s)
}

func direction(isInput bool) string {
	if isInput {
		return "input"
	}
	return "output"
}
