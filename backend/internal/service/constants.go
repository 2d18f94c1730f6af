package service

import "errors"

const (
	statusOK    = "ok"
	statusError = "error"
	statusEmpty = "empty"
)

var (
	// ErrNoAudio is returned when the model produced no audio for a request
	// that needs a container.
	ErrNoAudio = errors.New("model returned no audio")
	// ErrInvalidImage wraps failures to prepare the image for the model.
	ErrInvalidImage = errors.New("invalid image")
)
