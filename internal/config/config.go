package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yok-tottii/performia-monitor/internal/i18n"
)

// Config holds application configuration. It is read once at startup;
// changes made while running are not written back.
type Config struct {
	InputDevice     string       `json:"input_device"`  // "" means the system default
	OutputDevice    string       `json:"output_device"` // "" means the system default
	InputChannel    int          `json:"input_channel"` // logical, 1-based
	InputGain       float64      `json:"input_gain"`    // 0..200
	OutputVolume    float64      `json:"output_volume"` // 0..100
	TestFrequency   float64      `json:"test_frequency"`
	FramesPerBuffer int          `json:"frames_per_buffer"`
	SampleRate      float64      `json:"sample_rate"`
	MeterIntervalMs int          `json:"meter_interval_ms"`
	HTTPPort        int          `json:"http_port"`   // 0 picks a random port
	UILanguage      string       `json:"ui_language"` // "ja", "en" or "" for the system language
	Hotkey          HotkeyConfig `json:"hotkey"`
	LogLevel        string       `json:"log_level"`
	mu              sync.RWMutex
}

// HotkeyConfig holds hotkey configuration
type HotkeyConfig struct {
	Ctrl  bool   `json:"ctrl"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Cmd   bool   `json:"cmd"`
	Key   string `json:"key"`  // e.g., "T"
	Mode  string `json:"mode"` // "press-to-hold" or "toggle"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		InputChannel:    1,
		InputGain:       100,
		OutputVolume:    75,
		TestFrequency:   440,
		FramesPerBuffer: 512,
		SampleRate:      48000,
		MeterIntervalMs: 30,
		HTTPPort:        18766,
		UILanguage:      "ja",
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "T",
			Mode: "press-to-hold",
		},
		LogLevel: "info",
	}
}

// Load loads configuration from the specified path. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "T"
	}
	if config.Hotkey.Mode == "" {
		config.Hotkey.Mode = "press-to-hold"
	}

	return config, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, "performia-monitor", "config.json")
}

// MeterInterval returns the meter tick period
func (c *Config) MeterInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.MeterIntervalMs) * time.Millisecond
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		InputDevice:     c.InputDevice,
		OutputDevice:    c.OutputDevice,
		InputChannel:    c.InputChannel,
		InputGain:       c.InputGain,
		OutputVolume:    c.OutputVolume,
		TestFrequency:   c.TestFrequency,
		FramesPerBuffer: c.FramesPerBuffer,
		SampleRate:      c.SampleRate,
		MeterIntervalMs: c.MeterIntervalMs,
		HTTPPort:        c.HTTPPort,
		UILanguage:      c.UILanguage,
		Hotkey:          c.Hotkey,
		LogLevel:        c.LogLevel,
	}
}

// ExpandPath expands ~ to home directory in file paths
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, path[2:]), nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.InputChannel < 1 {
		return fmt.Errorf("invalid input_channel: %d (must be 1 or greater)", c.InputChannel)
	}

	if c.InputGain < 0 || c.InputGain > 200 {
		return fmt.Errorf("invalid input_gain: %g (must be between 0 and 200)", c.InputGain)
	}

	if c.OutputVolume < 0 || c.OutputVolume > 100 {
		return fmt.Errorf("invalid output_volume: %g (must be between 0 and 100)", c.OutputVolume)
	}

	if c.TestFrequency < 100 || c.TestFrequency > 1000 {
		return fmt.Errorf("invalid test_frequency: %g (must be between 100 and 1000 Hz)", c.TestFrequency)
	}

	if c.FramesPerBuffer <= 0 || c.FramesPerBuffer > 8192 {
		return fmt.Errorf("invalid frames_per_buffer: %d (must be between 1 and 8192)", c.FramesPerBuffer)
	}

	if c.SampleRate < 8000 || c.SampleRate > 384000 {
		return fmt.Errorf("invalid sample_rate: %g (must be between 8000 and 384000)", c.SampleRate)
	}

	if c.MeterIntervalMs < 10 || c.MeterIntervalMs > 1000 {
		return fmt.Errorf("invalid meter_interval_ms: %d (must be between 10 and 1000)", c.MeterIntervalMs)
	}

	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if !i18n.ValidateLanguage(c.UILanguage) {
		return fmt.Errorf("invalid ui_language: %s (must be 'ja', 'en' or empty for the system language)", c.UILanguage)
	}

	if c.Hotkey.Mode != "press-to-hold" && c.Hotkey.Mode != "toggle" {
		return fmt.Errorf("invalid hotkey mode: %s (must be 'press-to-hold' or 'toggle')", c.Hotkey.Mode)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	return nil
}
