package media

import "context"

// Artifact is one of the fixed-name transient files a transform run produces
type Artifact int

const (
	ArtifactExtracted Artifact = iota
	ArtifactFiltered
	ArtifactRemuxed
)

func (a Artifact) String() string {
	switch a {
	case ArtifactExtracted:
		return "extracted"
	case ArtifactFiltered:
		return "filtered"
	case ArtifactRemuxed:
		return "remuxed"
	default:
		return "unknown"
	}
}

// Artifacts lists every transient artifact in production order
func Artifacts() []Artifact {
	return []Artifact{ArtifactExtracted, ArtifactFiltered, ArtifactRemuxed}
}

// Scratch owns the working directory where transient artifacts live.
// Only one run may use a scratch directory at a time.
type Scratch interface {
	// Path returns the fixed location of an artifact
	Path(a Artifact) string
	// Lock claims the directory for one run. The returned func releases it.
	Lock(ctx context.Context) (func() error, error)
	// Remove deletes one artifact and any partial export of it
	Remove(a Artifact) error
	// Clean removes every artifact
	Clean() error
}
