package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/media"
)

// Prefix marks an asset identifier as a Google Drive file ID
const Prefix = "drive:"

const fileFields = "id, name, mimeType, size, md5Checksum"

// Config selects the credentials used to reach Drive
type Config struct {
	// CredentialsFile is a service account key, or OAuth client credentials when TokenFile is set
	CredentialsFile string
	// TokenFile holds a user token produced by Authorize
	TokenFile string
	// CacheDir receives downloaded videos under a drive/ subdirectory
	CacheDir string
}

// Source implements media.AssetSource by downloading Drive files into a local cache
type Source struct {
	service  DriveService
	cacheDir string
	prober   media.Prober
	logger   *logrus.Entry
}

// SourceOption is a functional option for configuring Source
type SourceOption func(*Source)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) SourceOption {
	return func(s *Source) {
		s.service = svc
	}
}

// NewSource creates a Drive asset source
// If no service is provided, one is built from cfg
func NewSource(ctx context.Context, cfg Config, prober media.Prober, opts ...SourceOption) (*Source, error) {
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("drive cache directory is required")
	}

	s := &Source{
		cacheDir: filepath.Join(cfg.CacheDir, "drive"),
		prober:   prober,
		logger:   logrus.WithField("component", "drive"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		var (
			svc *GoogleDriveService
			err error
		)
		if cfg.TokenFile != "" {
			svc, err = newOAuthDriveService(ctx, cfg.CredentialsFile, cfg.TokenFile)
		} else {
			svc, err = newServiceAccountDriveService(ctx, cfg.CredentialsFile)
		}
		if err != nil {
			return nil, err
		}
		s.service = svc
	}

	return s, nil
}

// IsDriveID reports whether id names a Drive file
func IsDriveID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), Prefix)
}

// Resolve implements media.AssetSource. A cached download with the expected size is reused.
func (s *Source) Resolve(ctx context.Context, id string) (*media.Asset, error) {
	fileID := strings.TrimPrefix(strings.TrimSpace(id), Prefix)
	if fileID == "" {
		return nil, fmt.Errorf("%w: empty drive file ID", media.ErrAssetUnavailable)
	}

	meta, err := s.service.GetFile(ctx, fileID, fileFields)
	if err != nil {
		return nil, fmt.Errorf("%w: drive file %s: %w", media.ErrAssetUnavailable, fileID, err)
	}
	if !strings.HasPrefix(meta.MimeType, "video/") {
		return nil, fmt.Errorf("%w: drive file %s is %s, not a video", media.ErrAssetUnavailable, meta.Name, meta.MimeType)
	}

	local := s.cachePath(fileID, meta.Name)
	logger := s.logger.WithFields(logrus.Fields{
		"file_id": fileID,
		"name":    meta.Name,
		"path":    local,
	})

	if info, err := os.Stat(local); err == nil && info.Size() == meta.Size {
		logger.Debug("Using cached drive download")
	} else {
		logger.WithField("bytes", meta.Size).Info("Downloading from Google Drive")
		if err := s.download(ctx, fileID, local, meta.Size); err != nil {
			return nil, fmt.Errorf("%w: %w", media.ErrAssetUnavailable, err)
		}
	}

	return s.prober.Probe(ctx, local)
}

func (s *Source) cachePath(fileID, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(s.cacheDir, fileID+ext)
}

// download writes to a partial file and renames it once the size checks out
func (s *Source) download(ctx context.Context, fileID, dst string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	body, err := s.service.Download(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	defer body.Close()

	partial := dst + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create %s: %w", partial, err)
	}

	written, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(partial)
		return fmt.Errorf("download %s: %w", fileID, err)
	}
	if size > 0 && written != size {
		os.Remove(partial)
		return fmt.Errorf("download %s: got %d bytes, expected %d", fileID, written, size)
	}

	return os.Rename(partial, dst)
}

// Ensure Source implements media.AssetSource
var _ media.AssetSource = (*Source)(nil)
