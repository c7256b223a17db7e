package scratch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"voicefx-media/domain/media"
)

const (
	lockFileName = ".lock"

	// DefaultLockTimeout is how long Lock waits for another process to finish
	DefaultLockTimeout = 5 * time.Second

	lockRetryDelay = 100 * time.Millisecond
)

// ErrLocked is returned when another process holds the scratch directory
var ErrLocked = errors.New("scratch directory is in use by another run")

// Names are the file names of the transient artifacts
type Names struct {
	Extracted string
	Filtered  string
	Remuxed   string
}

// DefaultNames returns the standard artifact names
func DefaultNames() Names {
	return Names{
		Extracted: "extracted.m4a",
		Filtered:  "filtered.m4a",
		Remuxed:   "remuxed.mp4",
	}
}

// Dir implements media.Scratch over a directory guarded by a file lock
type Dir struct {
	root        string
	names       Names
	lockTimeout time.Duration
	lock        *flock.Flock
	logger      *logrus.Entry
}

// Option is a functional option for configuring Dir
type Option func(*Dir)

// WithNames overrides the artifact file names. Empty names keep their default.
func WithNames(n Names) Option {
	return func(d *Dir) {
		if n.Extracted != "" {
			d.names.Extracted = n.Extracted
		}
		if n.Filtered != "" {
			d.names.Filtered = n.Filtered
		}
		if n.Remuxed != "" {
			d.names.Remuxed = n.Remuxed
		}
	}
}

// WithLockTimeout sets how long Lock waits for the directory
func WithLockTimeout(d time.Duration) Option {
	return func(s *Dir) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New creates the scratch directory if needed
func New(root string, opts ...Option) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("scratch directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	d := &Dir{
		root:        root,
		names:       DefaultNames(),
		lockTimeout: DefaultLockTimeout,
		lock:        flock.New(filepath.Join(root, lockFileName)),
		logger:      logrus.WithField("component", "scratch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Root returns the scratch directory
func (d *Dir) Root() string {
	return d.root
}

// Path implements media.Scratch
func (d *Dir) Path(a media.Artifact) string {
	switch a {
	case media.ArtifactExtracted:
		return filepath.Join(d.root, d.names.Extracted)
	case media.ArtifactFiltered:
		return filepath.Join(d.root, d.names.Filtered)
	default:
		return filepath.Join(d.root, d.names.Remuxed)
	}
}

// Lock implements media.Scratch. It polls the file lock until lockTimeout elapses.
func (d *Dir) Lock(ctx context.Context) (func() error, error) {
	ctx, cancel := context.WithTimeout(ctx, d.lockTimeout)
	defer cancel()

	ok, err := d.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire scratch lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, d.root)
	}

	d.logger.WithField("lock", d.lock.Path()).Debug("Scratch lock acquired")
	return func() error {
		if err := d.lock.Unlock(); err != nil {
			return fmt.Errorf("release scratch lock: %w", err)
		}
		return nil
	}, nil
}

// Remove implements media.Scratch
func (d *Dir) Remove(a media.Artifact) error {
	path := d.Path(a)
	ext := filepath.Ext(path)
	partial := path[:len(path)-len(ext)] + ".partial" + ext

	var errs []error
	for _, p := range []string{path, partial} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clean implements media.Scratch. Leftover partial exports are removed too.
func (d *Dir) Clean() error {
	var errs []error
	for _, a := range media.Artifacts() {
		if err := d.Remove(a); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clean scratch directory: %w", err)
	}
	return nil
}

// Existing returns the artifacts currently present with their sizes
func (d *Dir) Existing() map[media.Artifact]int64 {
	out := make(map[media.Artifact]int64)
	for _, a := range media.Artifacts() {
		if info, err := os.Stat(d.Path(a)); err == nil && !info.IsDir() {
			out[a] = info.Size()
		}
	}
	return out
}

// Ensure Dir implements media.Scratch
var _ media.Scratch = (*Dir)(nil)
