package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of a transform run
type Stage string

const (
	StageExtract Stage = "extract"
	StageRender  Stage = "render"
	StageRemux   Stage = "remux"
)

// ErrBusy is returned when another run holds the scratch directory
var ErrBusy = errors.New("another transform is using the scratch directory")

// StageError tags a failure with the stage that produced it
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage of err, or "" when err did not come from a stage
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
