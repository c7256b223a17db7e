package ffmpeg

import (
	"context"
	"fmt"
	"time"

	"voicefx-media/infrastructure/audiofile"
)

// DefaultCodecTimeout bounds a single decode or encode of an audio file
const DefaultCodecTimeout = 10 * time.Minute

// Codec converts compressed audio to and from PCM WAV. It implements
// audiofile.Transcoder so compressed formats can be read and written as PCM.
type Codec struct {
	ffmpegPath string
	bitrate    string
	timeout    time.Duration
	runner     CommandRunner
}

// CodecOption is a functional option for configuring Codec
type CodecOption func(*Codec)

// WithCodecFFmpegPath sets a custom ffmpeg executable path
func WithCodecFFmpegPath(path string) CodecOption {
	return func(c *Codec) {
		c.ffmpegPath = path
	}
}

// WithCodecCommandRunner sets a custom command runner (for testing)
func WithCodecCommandRunner(runner CommandRunner) CodecOption {
	return func(c *Codec) {
		c.runner = runner
	}
}

// WithCodecBitrate sets the AAC bitrate used when encoding
func WithCodecBitrate(bitrate string) CodecOption {
	return func(c *Codec) {
		if bitrate != "" {
			c.bitrate = bitrate
		}
	}
}

// WithCodecTimeout bounds each conversion
func WithCodecTimeout(d time.Duration) CodecOption {
	return func(c *Codec) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewCodec creates a new FFmpeg-based transcoder
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		ffmpegPath: "ffmpeg",
		bitrate:    DefaultAudioBitrate,
		timeout:    DefaultCodecTimeout,
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DecodeToWAV decodes the first audio stream of src into 16-bit PCM WAV at dst
func (c *Codec) DecodeToWAV(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := baseArgs()
	args = append(args,
		"-i", src,
		"-map", "0:a:0",
		"-vn",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg decode failed: %w", err)
	}
	return nil
}

// EncodeFromWAV encodes a PCM WAV into AAC inside the container named by dst.
// dst only appears once the encode has completed.
func (c *Codec) EncodeFromWAV(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := removeStale(dst); err != nil {
		return err
	}

	args := baseArgs()
	args = append(args, "-i", src)
	args = append(args, audioCodecArgs(dst, c.bitrate)...)
	export := startExport(ctx, c.runner, c.ffmpegPath, dst, muxerFor(dst), args)
	if err := export.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (c *Codec) VerifyInstalled(ctx context.Context) error {
	return verifyInstalled(ctx, c.runner, c.ffmpegPath)
}

// Ensure Codec implements audiofile.Transcoder
var _ audiofile.Transcoder = (*Codec)(nil)
