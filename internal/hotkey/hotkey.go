package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.design/x/hotkey"

	"github.com/yok-tottii/performia-monitor/internal/config"
	"github.com/yok-tottii/performia-monitor/internal/engine"
)

// TriggerMode defines how the hotkey drives the test tone
type TriggerMode int

const (
	// PressToHold mode: the tone plays while the key is held down
	PressToHold TriggerMode = iota
	// Toggle mode: first press starts, second press stops
	Toggle
)

// ParseTriggerMode parses the mode names used in the configuration file
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch s {
	case "press-to-hold", "":
		return PressToHold, nil
	case "toggle":
		return Toggle, nil
	}
	return PressToHold, fmt.Errorf("unknown hotkey mode: %q", s)
}

// EventType represents the type of hotkey event
type EventType int

const (
	// Pressed indicates the hotkey was pressed
	Pressed EventType = iota
	// Released indicates the hotkey was released
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Config holds hotkey configuration
type Config struct {
	Modifiers []hotkey.Modifier
	Key       hotkey.Key
	Mode      TriggerMode
}

// keyNames maps configuration key names to key codes. Key codes are not
// contiguous on every platform, so ranges cannot be used.
var keyNames = map[string]hotkey.Key{
	"Space": hotkey.KeySpace, "Escape": hotkey.KeyEscape, "Return": hotkey.KeyReturn,
	"Tab": hotkey.KeyTab, "Delete": hotkey.KeyDelete,
	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
}

// ParseKey converts a key name such as "T" or "Space" to a key code
func ParseKey(name string) (hotkey.Key, error) {
	// macOS IMEs can report the space key as NBSP
	if name == "\u00a0" {
		name = "Space"
	}
	if len(name) == 1 {
		name = strings.ToUpper(name)
	}
	if key, ok := keyNames[name]; ok {
		return key, nil
	}
	return 0, fmt.Errorf("unsupported hotkey key: %q", name)
}

// ConfigFrom converts the configuration file section to a hotkey Config.
// Alt and Cmd map to the platform's option and command keys.
func ConfigFrom(c config.HotkeyConfig) (Config, error) {
	key, err := ParseKey(c.Key)
	if err != nil {
		return Config{}, err
	}
	mode, err := ParseTriggerMode(c.Mode)
	if err != nil {
		return Config{}, err
	}

	var mods []hotkey.Modifier
	if c.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if c.Alt {
		mods = append(mods, modAlt)
	}
	if c.Cmd {
		mods = append(mods, modCmd)
	}
	if len(mods) == 0 {
		return Config{}, fmt.Errorf("hotkey %q needs at least one modifier", c.Key)
	}

	return Config{Modifiers: mods, Key: key, Mode: mode}, nil
}

// Manager manages global hotkey registration and events
type Manager struct {
	hk        *hotkey.Hotkey
	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// New creates a new hotkey manager with default configuration
// Default: Ctrl+Alt+T, press to hold
func New() *Manager {
	return &Manager{
		config: Config{
			Modifiers: []hotkey.Modifier{hotkey.ModCtrl, modAlt},
			Key:       hotkey.KeyT,
			Mode:      PressToHold,
		},
		eventChan: make(chan Event, 10),
		stopChan:  make(chan struct{}),
	}
}

// Register registers the hotkey with the system
func (m *Manager) Register(config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("hotkey is already running, call Close() first")
	}

	m.config = config

	// Recreate channels (they may have been closed by a previous Close())
	m.stopChan = make(chan struct{})
	m.eventChan = make(chan Event, 10)

	hk := hotkey.New(m.config.Modifiers, m.config.Key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey %s: %w", FormatHotkey(config.Modifiers, config.Key), err)
	}

	m.hk = hk
	m.running = true

	m.wg.Add(1)
	go m.listen(hk, m.config.Mode, m.eventChan, m.stopChan)

	return nil
}

// listen translates key events into tone events for the configured mode
func (m *Manager) listen(hk *hotkey.Hotkey, mode TriggerMode, events chan<- Event, stop <-chan struct{}) {
	defer m.wg.Done()

	send := func(t EventType) bool {
		select {
		case events <- Event{Type: t}:
			return true
		case <-stop:
			return false
		}
	}

	on := false
	for {
		select {
		case <-hk.Keydown():
			next := Pressed
			if mode == Toggle {
				if on {
					next = Released
				}
				on = !on
			}
			if !send(next) {
				return
			}

		case <-hk.Keyup():
			if mode == PressToHold && !send(Released) {
				return
			}

		case <-stop:
			return
		}
	}
}

// Events returns the event channel for receiving hotkey events
func (m *Manager) Events() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventChan
}

// Close unregisters the hotkey and stops listening
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	close(m.stopChan)
	m.wg.Wait()

	// Clean up even when Unregister fails so Register can run again
	var unregisterErr error
	if m.hk != nil {
		if err := m.hk.Unregister(); err != nil {
			unregisterErr = fmt.Errorf("failed to unregister hotkey: %w", err)
		}
	}

	// Close event channel to notify consumers of shutdown
	close(m.eventChan)
	m.running = false

	return unregisterErr
}

// IsRunning returns whether the hotkey is currently registered and running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// GetConfig returns a copy of the current hotkey configuration
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()

	configCopy := m.config
	if m.config.Modifiers != nil {
		configCopy.Modifiers = append([]hotkey.Modifier(nil), m.config.Modifiers...)
	}
	return configCopy
}

// ToneTarget is the part of the engine the hotkey drives
type ToneTarget interface {
	Mode() engine.Mode
	SetMode(engine.Mode) bool
}

// DriveTestTone turns the test tone on for Pressed and restores the mode
// that was active before for Released. It returns when ctx is done or
// events is closed. onChange, if set, runs after every mode change.
func DriveTestTone(ctx context.Context, events <-chan Event, target ToneTarget, onChange func()) {
	held := false
	previous := engine.ModeOff

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			switch ev.Type {
			case Pressed:
				if held {
					continue
				}
				before := target.Mode()
				if before == engine.ModeTestTone || !target.SetMode(engine.ModeTestTone) {
					continue
				}
				held, previous = true, before
			case Released:
				if !held {
					continue
				}
				held = false
				// Someone else switched modes while the key was held
				if target.Mode() != engine.ModeTestTone {
					continue
				}
				target.SetMode(previous)
			}

			if onChange != nil {
				onChange()
			}
		}
	}
}
