package effect

import "errors"

var (
	// ErrFormatMismatch is returned when two connected nodes disagree on PCM format
	ErrFormatMismatch = errors.New("effect graph format mismatch")

	// ErrInvalidParameters is returned for parameters outside the invariant
	ErrInvalidParameters = errors.New("invalid effect parameters")

	// ErrUnknownPreset is returned when a preset name is not defined
	ErrUnknownPreset = errors.New("unknown preset")
)
