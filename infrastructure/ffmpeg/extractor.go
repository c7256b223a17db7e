package ffmpeg

import (
	"context"
	"fmt"
	"strconv"

	"voicefx-media/domain/media"
)

// DefaultAudioBitrate is the default AAC bitrate for extracted and rendered audio
const DefaultAudioBitrate = "192k"

// Extractor implements media.TrackExtractor using ffmpeg
type Extractor struct {
	ffmpegPath string
	bitrate    string
	runner     CommandRunner
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithExtractorFFmpegPath sets a custom ffmpeg executable path
func WithExtractorFFmpegPath(path string) ExtractorOption {
	return func(e *Extractor) {
		e.ffmpegPath = path
	}
}

// WithExtractorCommandRunner sets a custom command runner (for testing)
func WithExtractorCommandRunner(runner CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// WithExtractorBitrate sets the AAC bitrate of the extracted audio
func WithExtractorBitrate(bitrate string) ExtractorOption {
	return func(e *Extractor) {
		if bitrate != "" {
			e.bitrate = bitrate
		}
	}
}

// NewExtractor creates a new FFmpeg-based audio track extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffmpegPath: "ffmpeg",
		bitrate:    DefaultAudioBitrate,
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract implements media.TrackExtractor. Every audio track becomes its own output
// stream; tracks are never mixed down.
func (e *Extractor) Extract(ctx context.Context, asset *media.Asset, outputPath string) error {
	tracks := asset.AudioTracks()
	if len(tracks) == 0 {
		return media.ErrNoAudioTrack
	}

	if err := removeStale(outputPath); err != nil {
		return err
	}

	export := startExport(ctx, e.runner, e.ffmpegPath, outputPath, muxerFor(outputPath), e.args(asset, tracks, outputPath))
	if err := export.Wait(); err != nil {
		return fmt.Errorf("audio extraction from %s: %w", asset.Location, err)
	}
	return nil
}

func (e *Extractor) args(asset *media.Asset, tracks []media.Track, outputPath string) []string {
	args := baseArgs()

	// keep each track at its original start offset
	for _, t := range tracks {
		if t.Start > 0 {
			args = append(args, "-copyts", "-start_at_zero")
			break
		}
	}

	args = append(args, "-i", asset.Location)
	for _, t := range tracks {
		args = append(args, "-map", "0:"+strconv.Itoa(t.Index))
	}

	args = append(args, "-vn") // No video
	return append(args, audioCodecArgs(outputPath, e.bitrate)...)
}

// VerifyInstalled checks that ffmpeg is available
func (e *Extractor) VerifyInstalled(ctx context.Context) error {
	return verifyInstalled(ctx, e.runner, e.ffmpegPath)
}

// Ensure Extractor implements media.TrackExtractor
var _ media.TrackExtractor = (*Extractor)(nil)
