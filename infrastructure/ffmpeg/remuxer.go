package ffmpeg

import (
	"context"
	"fmt"
	"strconv"

	"voicefx-media/domain/media"
)

// Remuxer implements media.Remuxer using ffmpeg stream copy
type Remuxer struct {
	ffmpegPath string
	runner     CommandRunner
}

// RemuxerOption is a functional option for configuring Remuxer
type RemuxerOption func(*Remuxer)

// WithRemuxerFFmpegPath sets a custom ffmpeg executable path
func WithRemuxerFFmpegPath(path string) RemuxerOption {
	return func(r *Remuxer) {
		r.ffmpegPath = path
	}
}

// WithRemuxerCommandRunner sets a custom command runner (for testing)
func WithRemuxerCommandRunner(runner CommandRunner) RemuxerOption {
	return func(r *Remuxer) {
		r.runner = runner
	}
}

// NewRemuxer creates a new FFmpeg-based remuxer
func NewRemuxer(opts ...RemuxerOption) *Remuxer {
	r := &Remuxer{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Remux implements media.Remuxer. The first video track of videoAsset and the first
// audio track of audioAsset both start at zero; the output is cut at the video duration.
// Neither stream is re-encoded and the video is never re-timed.
func (r *Remuxer) Remux(ctx context.Context, videoAsset, audioAsset *media.Asset, outputPath string) error {
	videoTrack, ok := videoAsset.FirstTrack(media.KindVideo)
	if !ok {
		return media.ErrNoVideoTrack
	}
	audioTrack, ok := audioAsset.FirstTrack(media.KindAudio)
	if !ok {
		return media.ErrNoAudioTrack
	}

	if err := removeStale(outputPath); err != nil {
		return err
	}

	args := baseArgs()
	args = append(args,
		"-i", videoAsset.Location,
		"-i", audioAsset.Location,
		"-map", "0:"+strconv.Itoa(videoTrack.Index),
		"-map", "1:"+strconv.Itoa(audioTrack.Index),
		"-c", "copy",
	)
	if videoAsset.Duration > 0 {
		args = append(args, "-t", formatSeconds(videoAsset.Duration.Seconds()))
	}
	args = append(args, "-movflags", "+faststart")

	export := startExport(ctx, r.runner, r.ffmpegPath, outputPath, muxerFor(outputPath), args)
	if err := export.Wait(); err != nil {
		return fmt.Errorf("remux of %s: %w", videoAsset.Location, err)
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (r *Remuxer) VerifyInstalled(ctx context.Context) error {
	return verifyInstalled(ctx, r.runner, r.ffmpegPath)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// Ensure Remuxer implements media.Remuxer
var _ media.Remuxer = (*Remuxer)(nil)
