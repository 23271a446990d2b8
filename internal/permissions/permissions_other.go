//go:build !darwin

package permissions

import (
	"errors"
)

// Other systems gate audio devices through group membership, not a prompt
func microphoneStatus() PermissionStatus {
	return PermissionAuthorized
}

func openMicrophoneSettings() error {
	return errors.New("microphone settings are only available on macOS")
}
