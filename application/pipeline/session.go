package pipeline

import (
	"time"

	"github.com/google/uuid"

	"voicefx-media/domain/effect"
	"voicefx-media/domain/media"
)

// Session holds the state of one transform run. It is created when the scratch
// directory has been locked and discarded when the run ends.
type Session struct {
	ID         string
	Preset     string
	Parameters effect.Parameters
	Source     *media.Asset

	ExtractedPath string
	FilteredPath  string
	RemuxedPath   string

	Started time.Time
}

func newSession(source *media.Asset, preset string, params effect.Parameters, scratch media.Scratch) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Preset:        preset,
		Parameters:    params,
		Source:        source,
		ExtractedPath: scratch.Path(media.ArtifactExtracted),
		FilteredPath:  scratch.Path(media.ArtifactFiltered),
		RemuxedPath:   scratch.Path(media.ArtifactRemuxed),
		Started:       time.Now(),
	}
}

// Result describes a successful transform. The output file belongs to the caller
// until the next run overwrites it.
type Result struct {
	OutputPath     string
	Preset         string
	Parameters     effect.Parameters
	RunID          string
	VideoDuration  time.Duration
	AudioDuration  time.Duration
	OutputDuration time.Duration
	Elapsed        time.Duration
}

// StepInfo provides information about a transform step
type StepInfo struct {
	Number      int
	Stage       Stage
	Description string
}

// GetSteps returns the list of transform steps
func GetSteps() []StepInfo {
	return []StepInfo{
		{1, StageExtract, "Extracting audio"},
		{2, StageRender, "Rendering filter"},
		{3, StageRemux, "Remuxing video"},
	}
}
