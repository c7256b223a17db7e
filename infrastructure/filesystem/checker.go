package filesystem

import (
	"os"

	"voicefx-media/domain/media"
)

// Checker implements media.FileChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if a regular file exists at path. Directories do not count.
func (c *Checker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Size returns the size of the file at path, or 0 when it cannot be read
func (c *Checker) Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Ensure Checker implements media.FileChecker
var _ media.FileChecker = (*Checker)(nil)
