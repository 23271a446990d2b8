package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Language represents a supported language
type Language string

const (
	// Japanese language
	LanguageJapanese Language = "ja"
	// English language
	LanguageEnglish Language = "en"
)

// Translator manages translations for the application
type Translator struct {
	currentLanguage Language
	translations    map[Language]map[string]string
	mu              sync.RWMutex
}

// NewTranslator creates a new translator with default language
func NewTranslator(language Language) *Translator {
	return &Translator{
		currentLanguage: language,
		translations:    make(map[Language]map[string]string),
	}
}

// NewDefault creates a translator loaded with the built-in strings
func NewDefault(language Language) *Translator {
	t := NewTranslator(language)
	t.SetTranslations(LanguageEnglish, DefaultEnglishTranslations())
	t.SetTranslations(LanguageJapanese, DefaultJapaneseTranslations())
	return t
}

// SetTranslations merges translations into the table of a language
func (t *Translator) SetTranslations(language Language, translations map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table, ok := t.translations[language]
	if !ok {
		table = make(map[string]string, len(translations))
		t.translations[language] = table
	}
	for k, v := range translations {
		table[k] = v
	}
}

// Translate translates a key in the current language
func (t *Translator) Translate(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if text, ok := t.translations[t.currentLanguage][key]; ok {
		return text
	}

	// Fallback to English if translation not found
	if text, ok := t.translations[LanguageEnglish][key]; ok {
		return text
	}

	// Return key itself if no translation found
	return key
}

// TranslateWithFormat translates a key and formats with parameters
func (t *Translator) TranslateWithFormat(key string, params map[string]string) string {
	text := t.Translate(key)

	// Simple string replacement for parameters
	for param, value := range params {
		placeholder := fmt.Sprintf("{%s}", param)
		text = strings.ReplaceAll(text, placeholder, value)
	}

	return text
}

// ValidateLanguage validates that a language is supported. The empty
// string selects the system language.
func ValidateLanguage(language string) bool {
	return language == "" || language == string(LanguageJapanese) || language == string(LanguageEnglish)
}

// Resolve maps a configured language to a supported one, detecting the
// system language when none is configured.
func Resolve(language string) Language {
	if language == "" || !ValidateLanguage(language) {
		return DetectSystemLanguage()
	}
	return Language(language)
}

// DetectSystemLanguage reads the locale environment, falling back to English
func DetectSystemLanguage() Language {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			if strings.HasPrefix(strings.ToLower(v), "ja") {
				return LanguageJapanese
			}
			return LanguageEnglish
		}
	}
	return LanguageEnglish
}

// DefaultEnglishTranslations returns default English translations
func DefaultEnglishTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.power":          "Power",
		"menu.test_tone":      "Test Tone",
		"menu.monitor":        "Monitor",
		"menu.input_device":   "Input Device",
		"menu.output_device":  "Output Device",
		"menu.input_channel":  "Input Channel",
		"menu.refresh":        "Refresh Devices",
		"menu.system_default": "System Default",
		"menu.quit":           "Quit",

		// Tray status
		"status.off":       "Off",
		"status.power_off": "Power off",
		"status.test_tone": "Test tone {frequency} Hz",
		"status.monitor":   "Monitoring channel {channel}",
		"status.no_signal": "No signal",
		"status.levels":    "In {input} / Out {output}",
		"channel.label":    "Channel {channel}",

		// Permissions
		"permission.microphone": "Microphone",
		"permission.granted":    "✓ Granted",
		"permission.denied":     "✗ Denied",

		// Errors
		"error.mic_permission_denied": "Microphone access denied",
		"error.audio_init_failed":     "Audio initialization failed",
		"error.device_failed":         "Could not open {device}",

		// Notifications
		"notification.device_selected":   "Using {device}",
		"notification.device_fallback":   "Device setup failed, using default channels for {device}",
		"notification.signal_elsewhere":  "Signal found outside channel {channel}",
		"notification.devices_refreshed": "Devices refreshed",
	}
}

// DefaultJapaneseTranslations returns default Japanese translations
func DefaultJapaneseTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.power":          "電源",
		"menu.test_tone":      "テストトーン",
		"menu.monitor":        "モニター",
		"menu.input_device":   "入力デバイス",
		"menu.output_device":  "出力デバイス",
		"menu.input_channel":  "入力チャンネル",
		"menu.refresh":        "デバイスを再読み込み",
		"menu.system_default": "システムデフォルト",
		"menu.quit":           "終了",

		// Tray status
		"status.off":       "停止中",
		"status.power_off": "電源オフ",
		"status.test_tone": "テストトーン {frequency} Hz",
		"status.monitor":   "チャンネル {channel} をモニター中",
		"status.no_signal": "信号なし",
		"status.levels":    "入力 {input} / 出力 {output}",
		"channel.label":    "チャンネル {channel}",

		// Permissions
		"permission.microphone": "マイク",
		"permission.granted":    "✓ 許可済み",
		"permission.denied":     "✗ 拒否",

		// Errors
		"error.mic_permission_denied": "マイクへのアクセスが拒否されました",
		"error.audio_init_failed":     "オーディオの初期化に失敗しました",
		"error.device_failed":         "{device} を開けませんでした",

		// Notifications
		"notification.device_selected":   "{device} を使用中",
		"notification.device_fallback":   "デバイス設定に失敗したため、{device} を既定のチャンネル数で使用します",
		"notification.signal_elsewhere":  "チャンネル {channel} 以外で信号を検出しました",
		"notification.devices_refreshed": "デバイスを再読み込みしました",
	}
}
