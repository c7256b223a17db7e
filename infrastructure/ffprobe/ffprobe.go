package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"voicefx-media/domain/media"
	"voicefx-media/infrastructure/ffmpeg"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Prober implements media.Prober by running ffprobe
type Prober struct {
	binary string
	runner ffmpeg.CommandRunner
}

// Option is a functional option for configuring Prober
type Option func(*Prober)

// WithBinary sets a custom ffprobe executable path
func WithBinary(path string) Option {
	return func(p *Prober) {
		if strings.TrimSpace(path) != "" {
			p.binary = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner ffmpeg.CommandRunner) Option {
	return func(p *Prober) {
		p.runner = runner
	}
}

// New creates a Prober
func New(opts ...Option) *Prober {
	p := &Prober{
		binary: "ffprobe",
		runner: &ffmpeg.ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := p.runner.Output(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Probe implements media.Prober
func (p *Prober) Probe(ctx context.Context, path string) (*media.Asset, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", media.ErrAssetUnavailable, path, err)
	}
	return result.Asset(path)
}

// Asset converts the probe result into a media.Asset. Streams that are neither
// audio nor video (subtitles, data) are dropped.
func (r Result) Asset(path string) (*media.Asset, error) {
	var tracks []media.Track
	for _, s := range r.Streams {
		var kind media.TrackKind
		switch strings.ToLower(s.CodecType) {
		case "audio":
			kind = media.KindAudio
		case "video":
			kind = media.KindVideo
		default:
			continue
		}
		sampleRate, _ := strconv.Atoi(strings.TrimSpace(s.SampleRate))
		tracks = append(tracks, media.Track{
			Index:      s.Index,
			Kind:       kind,
			Codec:      s.CodecName,
			Start:      seconds(s.StartTime),
			Duration:   seconds(s.Duration),
			SampleRate: sampleRate,
			Channels:   s.Channels,
			Width:      s.Width,
			Height:     s.Height,
		})
	}
	return media.NewAsset(path, seconds(r.Format.Duration), tracks)
}

func seconds(value string) time.Duration {
	s := parseFloat(value)
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

// Ensure Prober implements media.Prober
var _ media.Prober = (*Prober)(nil)
