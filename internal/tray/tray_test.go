package tray

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/yok-tottii/performia-monitor/internal/engine"
	"github.com/yok-tottii/performia-monitor/internal/i18n"
	"github.com/yok-tottii/performia-monitor/internal/meter"
)

func TestNewManager(t *testing.T) {
	var powered, quit bool
	var mode engine.Mode
	var device string
	var channel int

	config := Config{
		OnPower:       func(on bool) { powered = on },
		OnMode:        func(m engine.Mode) { mode = m },
		OnInputDevice: func(name string) { device = name },
		OnChannel:     func(logical int) { channel = logical },
		OnQuit:        func() { quit = true },
	}

	manager := NewManager(config)
	if manager == nil {
		t.Fatal("Expected manager to be created")
	}
	if manager.t == nil {
		t.Error("Expected a default translator")
	}
	if !manager.current().Power {
		t.Error("Expected initial view to be powered on")
	}

	manager.config.OnPower(true)
	manager.config.OnMode(engine.ModeMonitor)
	manager.config.OnInputDevice("Scarlett")
	manager.config.OnChannel(3)
	manager.config.OnQuit()

	if !powered || mode != engine.ModeMonitor || device != "Scarlett" || channel != 3 || !quit {
		t.Error("Expected every callback to be called")
	}
}

func TestUpdateBeforeReady(t *testing.T) {
	manager := NewManager(Config{})

	// Must not touch systray before Run
	v := View{Power: true, Mode: engine.ModeTestTone, Frequency: 440}
	manager.Update(v)
	manager.SetInputDevices([]Device{{Name: "Scarlett"}})
	manager.SetChannels([]engine.Channel{{Logical: 1, Physical: 0}}, 1)

	if manager.current() != v {
		t.Errorf("Expected view to be stored, got %+v", manager.current())
	}
	if manager.icon != iconUnset || manager.tooltip != "" {
		t.Error("Expected no icon or tooltip before ready")
	}
}

func TestToggleMode(t *testing.T) {
	tests := []struct {
		current engine.Mode
		clicked engine.Mode
		want    engine.Mode
	}{
		{engine.ModeOff, engine.ModeTestTone, engine.ModeTestTone},
		{engine.ModeTestTone, engine.ModeTestTone, engine.ModeOff},
		{engine.ModeMonitor, engine.ModeTestTone, engine.ModeTestTone},
		{engine.ModeTestTone, engine.ModeMonitor, engine.ModeMonitor},
		{engine.ModeMonitor, engine.ModeMonitor, engine.ModeOff},
	}

	for _, tt := range tests {
		if got := toggleMode(tt.current, tt.clicked); got != tt.want {
			t.Errorf("toggleMode(%v, %v) = %v, want %v", tt.current, tt.clicked, got, tt.want)
		}
	}
}

func TestTooltip(t *testing.T) {
	en := i18n.NewDefault(i18n.LanguageEnglish)

	tests := []struct {
		name string
		view View
		want string
	}{
		{"power off", View{Power: false, Mode: engine.ModeMonitor}, "Power off"},
		{"off", View{Power: true}, "Off"},
		{"tone", View{Power: true, Mode: engine.ModeTestTone, Frequency: 439.6}, "Test tone 440 Hz"},
		{"monitor", View{Power: true, Mode: engine.ModeMonitor, Channel: 3}, "Monitoring channel 3"},
		{"no channel", View{Power: true, Mode: engine.ModeMonitor}, "No signal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tooltip(en, tt.view)
			first := strings.SplitN(got, "\n", 2)[0]
			if first != AppName+" - "+tt.want {
				t.Errorf("Tooltip first line = %q, want %q", first, AppName+" - "+tt.want)
			}
		})
	}
}

func TestTooltipLevels(t *testing.T) {
	ja := i18n.NewDefault(i18n.LanguageJapanese)

	got := Tooltip(ja, View{Power: true, Levels: meter.Snapshot{Input: 1, Output: 0.1}})
	if !strings.HasSuffix(got, "\n入力 0 dB / 出力 -20 dB") {
		t.Errorf("Unexpected tooltip %q", got)
	}
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level float32
		want  string
	}{
		{0, "-inf dB"},
		{engine.SilenceThreshold, "-inf dB"},
		{1, "0 dB"},
		{0.5, "-6 dB"},
		{0.01, "-40 dB"},
		{2, "6 dB"},
	}

	for _, tt := range tests {
		if got := FormatLevel(tt.level); got != tt.want {
			t.Errorf("FormatLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestDeviceEntries(t *testing.T) {
	en := i18n.NewDefault(i18n.LanguageEnglish)

	entries := deviceEntries(en, []Device{
		{Name: "Built-in", IsDefault: true},
		{Name: "Scarlett", IsCurrent: true},
	})
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].title != "System Default" || entries[0].value != "" || entries[0].checked {
		t.Errorf("Unexpected default entry %+v", entries[0])
	}
	if entries[1].tooltip != "System Default" || entries[1].checked {
		t.Errorf("Unexpected default device entry %+v", entries[1])
	}
	if !entries[2].checked || entries[2].value != "Scarlett" {
		t.Errorf("Unexpected current device entry %+v", entries[2])
	}

	// With no current device the default entry is checked
	entries = deviceEntries(en, []Device{{Name: "Built-in"}})
	if !entries[0].checked {
		t.Error("Expected system default to be checked")
	}
}

func TestChannelEntries(t *testing.T) {
	en := i18n.NewDefault(i18n.LanguageEnglish)

	channels := make([]engine.Channel, 256)
	for i := range channels {
		channels[i] = engine.Channel{Logical: i + 1, Physical: i}
	}

	entries := channelEntries(en, channels, 2)
	if len(entries) != maxChannelItems {
		t.Fatalf("Expected %d entries, got %d", maxChannelItems, len(entries))
	}
	if entries[1].title != "Channel 2" || entries[1].value != "2" || !entries[1].checked {
		t.Errorf("Unexpected entry %+v", entries[1])
	}
	if entries[0].checked {
		t.Error("Only the selected channel should be checked")
	}
}

func TestIcons(t *testing.T) {
	icons := renderIcons()

	seen := make(map[string]iconKind)
	for _, kind := range []iconKind{iconPowerOff, iconIdle, iconTone, iconMonitor} {
		data := icons[kind]
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("icon %d is not a PNG: %v", kind, err)
		}
		if img.Bounds().Dx() != iconSize || img.Bounds().Dy() != iconSize {
			t.Errorf("icon %d has size %v", kind, img.Bounds())
		}
		if other, ok := seen[string(data)]; ok {
			t.Errorf("icons %d and %d are identical", kind, other)
		}
		seen[string(data)] = kind
	}
}

func TestIconFor(t *testing.T) {
	tests := []struct {
		view View
		want iconKind
	}{
		{View{Power: false, Mode: engine.ModeTestTone}, iconPowerOff},
		{View{Power: true}, iconIdle},
		{View{Power: true, Mode: engine.ModeTestTone}, iconTone},
		{View{Power: true, Mode: engine.ModeMonitor}, iconMonitor},
	}

	for _, tt := range tests {
		if got := iconFor(tt.view); got != tt.want {
			t.Errorf("iconFor(%+v) = %d, want %d", tt.view, got, tt.want)
		}
	}
}
