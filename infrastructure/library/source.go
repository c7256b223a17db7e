package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/media"
)

// videoExtensions are the containers listed by Videos
var videoExtensions = map[string]bool{
	".mp4": true,
	".m4v": true,
	".mov": true,
}

// Source implements media.AssetSource over a local directory of videos.
// Relative identifiers resolve against the library root; absolute paths are used as-is.
type Source struct {
	root    string
	prober  media.Prober
	checker media.FileChecker
	logger  *logrus.Entry
}

// NewSource creates a library source rooted at dir
func NewSource(root string, prober media.Prober, checker media.FileChecker) *Source {
	return &Source{
		root:    root,
		prober:  prober,
		checker: checker,
		logger:  logrus.WithField("component", "library"),
	}
}

// Path returns the local path an identifier refers to
func (s *Source) Path(id string) string {
	id = strings.TrimSpace(id)
	if filepath.IsAbs(id) || s.root == "" {
		return filepath.Clean(id)
	}
	return filepath.Join(s.root, id)
}

// Resolve implements media.AssetSource
func (s *Source) Resolve(ctx context.Context, id string) (*media.Asset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty asset identifier", media.ErrAssetUnavailable)
	}

	path := s.Path(id)
	if !s.checker.Exists(path) {
		return nil, fmt.Errorf("%w: %s not found", media.ErrAssetUnavailable, path)
	}

	asset, err := s.prober.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"path":   path,
		"tracks": len(asset.Tracks),
	}).Debug("Resolved library asset")
	return asset, nil
}

// Videos lists the video files directly inside the library root, sorted by name
func (s *Source) Videos() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read library directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Ensure Source implements media.AssetSource
var _ media.AssetSource = (*Source)(nil)
