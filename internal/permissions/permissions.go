package permissions

import (
	"github.com/yok-tottii/performia-monitor/internal/i18n"
)

// PermissionStatus represents the status of a system permission
type PermissionStatus int

const (
	// PermissionNotDetermined means the user hasn't been asked yet
	PermissionNotDetermined PermissionStatus = 0
	// PermissionRestricted means the permission is restricted by parental controls
	PermissionRestricted PermissionStatus = 1
	// PermissionDenied means the user has explicitly denied the permission
	PermissionDenied PermissionStatus = 2
	// PermissionAuthorized means the user has authorized the permission
	PermissionAuthorized PermissionStatus = 3
)

// PermissionChecker checks the microphone permission the input side needs
type PermissionChecker struct{}

// NewPermissionChecker creates a new permission checker
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{}
}

// CheckMicrophonePermission checks if the application has microphone access permission
func (pc *PermissionChecker) CheckMicrophonePermission() PermissionStatus {
	return microphoneStatus()
}

// IsMicrophoneAuthorized returns whether microphone permission is granted.
// A status that is not yet determined counts as usable: opening the input
// stream triggers the system prompt.
func (pc *PermissionChecker) IsMicrophoneAuthorized() bool {
	switch pc.CheckMicrophonePermission() {
	case PermissionAuthorized, PermissionNotDetermined:
		return true
	}
	return false
}

// RequestMicrophonePermission opens the system settings page for the microphone
func (pc *PermissionChecker) RequestMicrophonePermission() error {
	return openMicrophoneSettings()
}

// String returns the string representation of the status
func (ps PermissionStatus) String() string {
	switch ps {
	case PermissionNotDetermined:
		return "NotDetermined"
	case PermissionRestricted:
		return "Restricted"
	case PermissionDenied:
		return "Denied"
	case PermissionAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// GetPermissionStatusMessage returns a human-readable message for a permission status
func GetPermissionStatusMessage(status PermissionStatus) string {
	switch status {
	case PermissionNotDetermined:
		return "Permission not yet determined"
	case PermissionRestricted:
		return "Permission restricted by parental controls"
	case PermissionDenied:
		return "Permission denied"
	case PermissionAuthorized:
		return "Permission authorized"
	default:
		return "Unknown permission status"
	}
}

// GetMissingPermissionsMessage returns a localized line for a missing
// microphone permission, or "" when nothing is missing
func (pc *PermissionChecker) GetMissingPermissionsMessage(t *i18n.Translator) string {
	if pc.IsMicrophoneAuthorized() {
		return ""
	}
	return t.Translate("permission.microphone") + " " + t.Translate("permission.denied")
}
