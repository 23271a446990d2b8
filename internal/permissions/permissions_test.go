package permissions

import (
	"runtime"
	"testing"

	"github.com/yok-tottii/performia-monitor/internal/i18n"
)

func TestNewPermissionChecker(t *testing.T) {
	pc := NewPermissionChecker()

	if pc == nil {
		t.Fatal("Expected PermissionChecker to be created")
	}
}

func TestCheckMicrophonePermission(t *testing.T) {
	pc := NewPermissionChecker()

	status := pc.CheckMicrophonePermission()

	// Status should be one of the valid values
	if status < PermissionNotDetermined || status > PermissionAuthorized {
		t.Errorf("Expected valid permission status, got %d", status)
	}

	if runtime.GOOS != "darwin" && status != PermissionAuthorized {
		t.Errorf("Expected Authorized outside macOS, got %v", status)
	}
}

func TestPermissionStatusString(t *testing.T) {
	tests := []struct {
		status   PermissionStatus
		expected string
	}{
		{PermissionNotDetermined, "NotDetermined"},
		{PermissionRestricted, "Restricted"},
		{PermissionDenied, "Denied"},
		{PermissionAuthorized, "Authorized"},
		{PermissionStatus(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.expected {
			t.Errorf("PermissionStatus(%d).String() = %q, expected %q", tt.status, got, tt.expected)
		}
	}
}

func TestGetPermissionStatusMessage(t *testing.T) {
	statuses := []PermissionStatus{
		PermissionNotDetermined,
		PermissionRestricted,
		PermissionDenied,
		PermissionAuthorized,
	}

	for _, status := range statuses {
		if msg := GetPermissionStatusMessage(status); msg == "" || msg == "Unknown permission status" {
			t.Errorf("Expected message for %v, got %q", status, msg)
		}
	}
}

func TestGetMissingPermissionsMessage(t *testing.T) {
	pc := NewPermissionChecker()
	msg := pc.GetMissingPermissionsMessage(i18n.NewDefault(i18n.LanguageEnglish))

	if pc.IsMicrophoneAuthorized() && msg != "" {
		t.Errorf("Expected empty message when authorized, got %q", msg)
	}
	if !pc.IsMicrophoneAuthorized() && msg == "" {
		t.Error("Expected a message when not authorized")
	}
}
