package tray

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/getlantern/systray"

	"github.com/yok-tottii/performia-monitor/internal/engine"
	"github.com/yok-tottii/performia-monitor/internal/i18n"
	"github.com/yok-tottii/performia-monitor/internal/meter"
)

// AppName is shown as the tooltip title
const AppName = "Performia Monitor"

// maxChannelItems caps the channel submenu; 256-channel devices would
// otherwise produce an unusable menu.
const maxChannelItems = 64

// View is what the tray displays
type View struct {
	Power     bool
	Mode      engine.Mode
	Frequency float64
	Channel   int // logical, 0 when no channel is active
	Levels    meter.Snapshot
}

// Device represents an audio device for the menu
type Device struct {
	Name      string
	IsDefault bool
	IsCurrent bool
}

// Config holds tray manager configuration
type Config struct {
	Translator     *i18n.Translator
	OnReady        func() // Called when systray is ready for initialization
	OnPower        func(on bool)
	OnMode         func(mode engine.Mode)
	OnInputDevice  func(name string) // "" selects the system default
	OnOutputDevice func(name string)
	OnChannel      func(logical int)
	OnRefresh      func()
	OnQuit         func()
}

// Manager manages the system tray icon and menu
type Manager struct {
	config Config
	t      *i18n.Translator

	mu      sync.Mutex
	ready   bool
	view    View
	icon    iconKind
	tooltip string

	menuPower   *systray.MenuItem
	menuTone    *systray.MenuItem
	menuMonitor *systray.MenuItem
	menuRefresh *systray.MenuItem
	menuQuit    *systray.MenuItem

	inputDevices  submenu
	outputDevices submenu
	channels      submenu

	icons map[iconKind][]byte
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	t := config.Translator
	if t == nil {
		t = i18n.NewDefault(i18n.LanguageEnglish)
	}
	return &Manager{
		config: config,
		t:      t,
		view:   View{Power: true},
		icon:   iconUnset,
		icons:  renderIcons(),
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// onReady is called when systray is ready
func (m *Manager) onReady() {
	t := m.t

	m.menuPower = systray.AddMenuItemCheckbox(t.Translate("menu.power"), "", true)
	m.menuTone = systray.AddMenuItemCheckbox(t.Translate("menu.test_tone"), "", false)
	m.menuMonitor = systray.AddMenuItemCheckbox(t.Translate("menu.monitor"), "", false)

	systray.AddSeparator()

	m.inputDevices.parent = systray.AddMenuItem(t.Translate("menu.input_device"), "")
	m.outputDevices.parent = systray.AddMenuItem(t.Translate("menu.output_device"), "")
	m.channels.parent = systray.AddMenuItem(t.Translate("menu.input_channel"), "")
	m.menuRefresh = systray.AddMenuItem(t.Translate("menu.refresh"), "")

	systray.AddSeparator()

	m.menuQuit = systray.AddMenuItem(t.Translate("menu.quit"), "")

	m.mu.Lock()
	m.ready = true
	m.applyLocked(m.view)
	m.mu.Unlock()

	go m.handleMenuEvents()

	if m.config.OnReady != nil {
		m.config.OnReady()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {
	m.inputDevices.cancel()
	m.outputDevices.cancel()
	m.channels.cancel()
}

// handleMenuEvents handles menu item clicks
func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuPower.ClickedCh:
			if m.config.OnPower != nil {
				m.config.OnPower(!m.current().Power)
			}
		case <-m.menuTone.ClickedCh:
			if m.config.OnMode != nil {
				m.config.OnMode(toggleMode(m.current().Mode, engine.ModeTestTone))
			}
		case <-m.menuMonitor.ClickedCh:
			if m.config.OnMode != nil {
				m.config.OnMode(toggleMode(m.current().Mode, engine.ModeMonitor))
			}
		case <-m.menuRefresh.ClickedCh:
			if m.config.OnRefresh != nil {
				m.config.OnRefresh()
			}
		case <-m.menuQuit.ClickedCh:
			if m.config.OnQuit != nil {
				m.config.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

// toggleMode returns the mode a click on the item for clicked selects:
// the item's mode, or Off when it is already active.
func toggleMode(current, clicked engine.Mode) engine.Mode {
	if current == clicked {
		return engine.ModeOff
	}
	return clicked
}

func (m *Manager) current() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Update shows a new view. Only the parts that changed are pushed to the
// system tray, so it is cheap to call at meter rate.
func (m *Manager) Update(v View) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.view = v
	if m.ready {
		m.applyLocked(v)
	}
}

func (m *Manager) applyLocked(v View) {
	if kind := iconFor(v); kind != m.icon {
		m.icon = kind
		systray.SetIcon(m.icons[kind])
	}
	if tip := Tooltip(m.t, v); tip != m.tooltip {
		m.tooltip = tip
		systray.SetTooltip(tip)
	}

	setChecked(m.menuPower, v.Power)
	setChecked(m.menuTone, v.Mode == engine.ModeTestTone)
	setChecked(m.menuMonitor, v.Mode == engine.ModeMonitor)
	if v.Power {
		m.menuTone.Enable()
		m.menuMonitor.Enable()
	} else {
		m.menuTone.Disable()
		m.menuMonitor.Disable()
	}
}

func setChecked(item *systray.MenuItem, on bool) {
	if item.Checked() == on {
		return
	}
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// Tooltip renders the status line and the meter levels of a view
func Tooltip(t *i18n.Translator, v View) string {
	var status string
	switch {
	case !v.Power:
		status = t.Translate("status.power_off")
	case v.Mode == engine.ModeTestTone:
		status = t.TranslateWithFormat("status.test_tone", map[string]string{
			"frequency": strconv.FormatFloat(math.Round(v.Frequency), 'f', 0, 64),
		})
	case v.Mode == engine.ModeMonitor && v.Channel > 0:
		status = t.TranslateWithFormat("status.monitor", map[string]string{
			"channel": strconv.Itoa(v.Channel),
		})
	case v.Mode == engine.ModeMonitor:
		status = t.Translate("status.no_signal")
	default:
		status = t.Translate("status.off")
	}

	levels := t.TranslateWithFormat("status.levels", map[string]string{
		"input":  FormatLevel(v.Levels.Input),
		"output": FormatLevel(v.Levels.Output),
	})
	return AppName + " - " + status + "\n" + levels
}

// FormatLevel renders a linear level in whole decibels
func FormatLevel(level float32) string {
	if level <= engine.SilenceThreshold {
		return "-inf dB"
	}
	db := math.Round(20 * math.Log10(float64(level)))
	if db == 0 {
		db = 0 // avoid "-0"
	}
	return strconv.FormatFloat(db, 'f', 0, 64) + " dB"
}

// SetInputDevices rebuilds the input device submenu
func (m *Manager) SetInputDevices(devices []Device) {
	m.setDevices(&m.inputDevices, devices, m.config.OnInputDevice)
}

// SetOutputDevices rebuilds the output device submenu
func (m *Manager) SetOutputDevices(devices []Device) {
	m.setDevices(&m.outputDevices, devices, m.config.OnOutputDevice)
}

func (m *Manager) setDevices(s *submenu, devices []Device, onSelect func(string)) {
	entries := deviceEntries(m.t, devices)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}
	s.set(entries, func(value string) {
		if onSelect != nil {
			onSelect(value)
		}
	})
}

// SetChannels rebuilds the input channel submenu
func (m *Manager) SetChannels(channels []engine.Channel, selected int) {
	entries := channelEntries(m.t, channels, selected)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return
	}
	s := &m.channels
	s.set(entries, func(value string) {
		logical, err := strconv.Atoi(value)
		if err == nil && m.config.OnChannel != nil {
			m.config.OnChannel(logical)
		}
	})
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}

// entry is one submenu item before it is bound to a menu item
type entry struct {
	title   string
	tooltip string
	checked bool
	value   string
}

// deviceEntries lists the system default first, then every device. The
// default entry is checked when no device is current.
func deviceEntries(t *i18n.Translator, devices []Device) []entry {
	entries := []entry{{title: t.Translate("menu.system_default"), checked: true}}
	for _, d := range devices {
		e := entry{title: d.Name, checked: d.IsCurrent, value: d.Name}
		if d.IsDefault {
			e.tooltip = t.Translate("menu.system_default")
		}
		if d.IsCurrent {
			entries[0].checked = false
		}
		entries = append(entries, e)
	}
	return entries
}

func channelEntries(t *i18n.Translator, channels []engine.Channel, selected int) []entry {
	if len(channels) > maxChannelItems {
		channels = channels[:maxChannelItems]
	}
	entries := make([]entry, 0, len(channels))
	for _, c := range channels {
		logical := strconv.Itoa(c.Logical)
		entries = append(entries, entry{
			title:   t.TranslateWithFormat("channel.label", map[string]string{"channel": logical}),
			checked: c.Logical == selected,
			value:   logical,
		})
	}
	return entries
}

// submenu owns the items under a parent menu item. Items are reused
// across rebuilds because systray cannot remove them; unused ones are
// hidden.
type submenu struct {
	parent  *systray.MenuItem
	items   []*systray.MenuItem
	cancels []context.CancelFunc // Cancel functions for item goroutines
}

func (s *submenu) cancel() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *submenu) set(entries []entry, onClick func(value string)) {
	s.cancel()

	for i, e := range entries {
		var item *systray.MenuItem
		if i < len(s.items) {
			item = s.items[i]
			item.SetTitle(e.title)
			item.SetTooltip(e.tooltip)
			item.Show()
		} else {
			item = s.parent.AddSubMenuItemCheckbox(e.title, e.tooltip, e.checked)
			s.items = append(s.items, item)
		}
		setChecked(item, e.checked)

		ctx, cancel := context.WithCancel(context.Background())
		s.cancels = append(s.cancels, cancel)

		go func(ctx context.Context, item *systray.MenuItem, value string) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					onClick(value)
				}
			}
		}(ctx, item, e.value)
	}

	for _, item := range s.items[len(entries):] {
		item.Hide()
	}
}
