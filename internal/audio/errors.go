package audio

import "errors"

var (
	ErrNotInitialized = errors.New("driver not initialized")
	ErrDeviceNotFound = errors.New("audio device not found")
	ErrNoStream       = errors.New("no stream open")
	ErrStreamRunning  = errors.New("stream is running")
)
