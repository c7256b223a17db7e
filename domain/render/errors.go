package render

import "errors"

var (
	// ErrConfigInvalid is returned when a render pass cannot be configured
	ErrConfigInvalid = errors.New("render configuration invalid")

	// ErrEngineFailure is returned when rendering fails or stops making progress
	ErrEngineFailure = errors.New("render engine failure")

	// ErrInvalidState is returned when an operation is called in the wrong state
	ErrInvalidState = errors.New("renderer in invalid state")
)
