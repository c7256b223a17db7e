package drive

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveService defines the Google Drive API operations the source needs
// This allows mocking the Google Drive API in tests
type DriveService interface {
	GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// GetFile returns the metadata of one file
func (s *GoogleDriveService) GetFile(ctx context.Context, fileID string, fields string) (*drive.File, error) {
	return s.service.Files.Get(fileID).
		Fields(googleapi.Field(fields)).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}

// Download streams the content of one file
func (s *GoogleDriveService) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := s.service.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// newServiceAccountDriveService creates a read-only Drive service from a service account key
func newServiceAccountDriveService(ctx context.Context, credentialsPath string) (*GoogleDriveService, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(b, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}

	return &GoogleDriveService{service: srv}, nil
}
