package media

import "context"

// Prober inspects a media file and describes its tracks
type Prober interface {
	Probe(ctx context.Context, path string) (*Asset, error)
}

// TrackExtractor exports only the audio tracks of an asset into a standalone audio file.
// Extract blocks until the export has completed or failed.
type TrackExtractor interface {
	Extract(ctx context.Context, asset *Asset, outputPath string) error
}

// Remuxer combines the first video track of one asset with the first audio track of
// another into a new container. Remux blocks until the export has completed or failed.
type Remuxer interface {
	Remux(ctx context.Context, videoAsset, audioAsset *Asset, outputPath string) error
}

// AssetSource resolves an opaque identifier into a locally readable asset
type AssetSource interface {
	Resolve(ctx context.Context, id string) (*Asset, error)
}

// FileChecker defines the interface for checking file existence
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}
