package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/yok-tottii/performia-monitor/internal/i18n"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName    string
	translator *i18n.Translator
	goos       string
	run        func(*exec.Cmd) error
}

// NewNotificationManager creates a new notification manager
func NewNotificationManager(appName string, translator *i18n.Translator) *NotificationManager {
	if translator == nil {
		translator = i18n.NewDefault(i18n.LanguageEnglish)
	}
	return &NotificationManager{
		appName:    appName,
		translator: translator,
		goos:       runtime.GOOS,
		run:        (*exec.Cmd).Run,
	}
}

// Send sends a notification through the desktop notification service
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	cmd, err := command(nm.goos, notification)
	if err != nil {
		return err
	}
	if err := nm.run(cmd); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// command builds the notifier invocation for an OS
func command(goos string, n *Notification) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(n.Message),
			escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		urgency := "normal"
		if n.Type == TypeError {
			urgency = "critical"
		}
		return exec.Command("notify-send", "--urgency="+urgency, n.Title, n.Message), nil
	default:
		return nil, fmt.Errorf("notifications are not supported on %s", goos)
	}
}

// escapeAppleScript escapes special characters for AppleScript
func escapeAppleScript(s string) string {
	// Escape backslashes first to avoid double-escaping
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeInfo,
	})
}

// SendWarning sends a warning notification
func (nm *NotificationManager) SendWarning(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeWarning,
	})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeError,
	})
}

// DeviceSelected reports the device now in use
func (nm *NotificationManager) DeviceSelected(device string) error {
	return nm.SendInfo(nm.appName, nm.format("notification.device_selected", "device", device))
}

// DeviceFallback reports that a device only opened with default channels
func (nm *NotificationManager) DeviceFallback(device string) error {
	return nm.SendWarning(nm.appName, nm.format("notification.device_fallback", "device", device))
}

// DeviceFailed reports a device that could not be opened
func (nm *NotificationManager) DeviceFailed(device string) error {
	return nm.SendError(nm.appName, nm.format("error.device_failed", "device", device))
}

// SignalElsewhere reports signal on a channel other than the selected one
func (nm *NotificationManager) SignalElsewhere(channel int) error {
	return nm.SendInfo(nm.appName, nm.format("notification.signal_elsewhere", "channel", strconv.Itoa(channel)))
}

// DevicesRefreshed reports a finished device rescan
func (nm *NotificationManager) DevicesRefreshed() error {
	return nm.SendInfo(nm.appName, nm.translator.Translate("notification.devices_refreshed"))
}

// MicrophonePermissionDenied sends a notification that microphone permission is denied
func (nm *NotificationManager) MicrophonePermissionDenied() error {
	return nm.SendError(nm.appName, nm.translator.Translate("error.mic_permission_denied"))
}

// AudioInitFailed sends a notification that the audio device could not be set up
func (nm *NotificationManager) AudioInitFailed(reason string) error {
	message := nm.translator.Translate("error.audio_init_failed")
	if reason != "" {
		message += ": " + reason
	}
	return nm.SendError(nm.appName, message)
}

func (nm *NotificationManager) format(key, param, value string) string {
	return nm.translator.TranslateWithFormat(key, map[string]string{param: value})
}
