package media

import "errors"

var (
	// ErrNoAudioTrack is returned when an asset has no audio track to work with
	ErrNoAudioTrack = errors.New("asset has no audio track")

	// ErrNoVideoTrack is returned when an asset has no video track to work with
	ErrNoVideoTrack = errors.New("asset has no video track")

	// ErrExportFailed is returned when an export does not reach a completed state
	ErrExportFailed = errors.New("export did not complete")

	// ErrAssetUnavailable is returned when an asset source cannot produce an asset
	ErrAssetUnavailable = errors.New("asset unavailable")
)
