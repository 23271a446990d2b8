package audio

// Block holds one callback's worth of non-interleaved float samples.
// In and Out are indexed by physical channel; an entry may be nil for a
// channel the host did not open. In and Out never alias.
type Block struct {
	In  [][]float32
	Out [][]float32
}

// Frames returns the number of sample frames in the block
func (b Block) Frames() int {
	for _, ch := range b.In {
		if ch != nil {
			return len(ch)
		}
	}
	for _, ch := range b.Out {
		if ch != nil {
			return len(ch)
		}
	}
	return 0
}

// DeviceState is a snapshot of the opened device. It is replaced wholesale
// on every reconfiguration and never mutated in place.
type DeviceState struct {
	Name          string
	TypeName      string
	SampleRate    float64
	BufferSize    int
	ActiveInputs  []int
	ActiveOutputs []int
	// Generation increases with every snapshot a driver produces; 0 means
	// the state did not come from a driver.
	Generation uint64
}

// Supersedes reports whether s is newer than applied. States without a
// generation always supersede.
func (s DeviceState) Supersedes(applied DeviceState) bool {
	return s.Generation == 0 || s.Generation > applied.Generation
}

// Clone returns a deep copy of the state
func (s DeviceState) Clone() DeviceState {
	c := s
	c.ActiveInputs = append([]int(nil), s.ActiveInputs...)
	c.ActiveOutputs = append([]int(nil), s.ActiveOutputs...)
	return c
}

// LatencyMs returns the buffer latency in milliseconds
func (s DeviceState) LatencyMs() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.BufferSize) * 1000.0 / s.SampleRate
}

// Device represents an audio device known to the host
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (real-time)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// Config describes the stream a driver should open
type Config struct {
	InputDevice     string // "" means the system default
	OutputDevice    string // "" means the system default
	InputChannels   int
	OutputChannels  int
	SampleRate      float64
	FramesPerBuffer int
	Latency         LatencyMode
}

// DefaultConfig returns the default stream configuration
// Sample rate: 48kHz, 512 frames, stereo in and out
func DefaultConfig() Config {
	return Config{
		InputChannels:   2,
		OutputChannels:  2,
		SampleRate:      48000,
		FramesPerBuffer: 512,
		Latency:         LowLatency,
	}
}

// Processor receives the host lifecycle callbacks.
// Process runs on the real-time thread and must not block or allocate.
type Processor interface {
	Prepare(sampleRate float64, blockSize int)
	Process(block Block)
	Release()
}

// AudioDriver is the interface to the host audio subsystem.
// This abstraction allows for replacement of PortAudio with other libraries or an in-process host.
type AudioDriver interface {
	// ListDevices returns the input and output devices the host knows about
	ListDevices() ([]Device, error)

	// Open reinitializes the stream with the given configuration, closing any
	// previous stream first. On success the processor has been prepared.
	Open(config Config, p Processor) (DeviceState, error)

	// Start starts delivering blocks to the processor
	Start() error

	// Stop stops the stream and waits until no callback is in flight
	Stop() error

	// CloseStream closes the current stream and releases its processor
	CloseStream() error

	// Rescan re-enumerates the host's devices. No stream may be open.
	Rescan() error

	// Events delivers a new DeviceState whenever the device is reconfigured
	Events() <-chan DeviceState

	// Close releases all resources
	Close() error
}
