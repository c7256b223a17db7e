package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apprender "voicefx-media/application/render"
	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/media"
	"voicefx-media/domain/render"
)

// CustomPresetName labels runs started with ad-hoc parameters
const CustomPresetName = "custom"

// Dependencies are the ports a Service drives
type Dependencies struct {
	Extractor media.TrackExtractor
	Remuxer   media.Remuxer
	Prober    media.Prober
	Source    media.AssetSource
	FileIO    audio.FileIO
	Engine    render.Engine
	Scratch   media.Scratch
	Presets   *effect.Presets
}

// Options tune a Service
type Options struct {
	// StageTimeout bounds each stage; zero means no limit
	StageTimeout time.Duration
	Render       apprender.Options
}

// Service orchestrates extract -> render -> remux for one asset at a time
type Service struct {
	deps   Dependencies
	opts   Options
	output io.Writer
	mu     sync.Mutex
	logger *logrus.Entry
}

// NewService creates a new transform service. Progress lines are written to output.
func NewService(deps Dependencies, opts Options, output io.Writer) *Service {
	if deps.Presets == nil {
		deps.Presets = effect.DefaultPresets()
	}
	if output == nil {
		output = io.Discard
	}
	return &Service{
		deps:   deps,
		opts:   opts,
		output: output,
		logger: logrus.WithField("component", "pipeline"),
	}
}

// Presets returns the preset set the service looks names up in
func (s *Service) Presets() *effect.Presets {
	return s.deps.Presets
}

// Resolve fetches an asset through the configured asset source
func (s *Service) Resolve(ctx context.Context, id string) (*media.Asset, error) {
	if s.deps.Source == nil {
		return nil, fmt.Errorf("%w: no asset source configured", media.ErrAssetUnavailable)
	}
	return s.deps.Source.Resolve(ctx, id)
}

// ApplyPreset transforms asset with a named preset
func (s *Service) ApplyPreset(ctx context.Context, asset *media.Asset, presetName string) (*Result, error) {
	preset, err := s.deps.Presets.Lookup(presetName)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, asset, preset.Name, preset.Parameters)
}

// ApplyParameters transforms asset with ad-hoc parameters
func (s *Service) ApplyParameters(ctx context.Context, asset *media.Asset, params effect.Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, asset, CustomPresetName, params)
}

func (s *Service) run(ctx context.Context, asset *media.Asset, presetName string, params effect.Parameters) (*Result, error) {
	if asset == nil {
		return nil, fmt.Errorf("%w: no source asset", media.ErrAssetUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.deps.Scratch.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}

	session := newSession(asset, presetName, params, s.deps.Scratch)
	logger := s.logger.WithFields(logrus.Fields{
		"run_id": session.ID,
		"preset": presetName,
		"source": asset.Location,
	})
	defer func() {
		s.deps.Engine.Reset()
		if err := unlock(); err != nil {
			logger.WithError(err).Warn("Could not release scratch lock")
		}
	}()

	// artifacts from an earlier run must not survive a failure of this one
	if err := s.deps.Scratch.Clean(); err != nil {
		return nil, err
	}

	logger.WithField("parameters", params.String()).Info("Transform started")
	fmt.Fprintf(s.output, "Source: %s\n", filepath.Base(asset.Location))
	fmt.Fprintf(s.output, "Preset: %s (%s)\n\n", presetName, params)

	// Step 1: Extract audio
	fmt.Fprintf(s.output, "[1/3] Extracting audio...\n")
	if err := s.stage(ctx, logger, StageExtract, func(ctx context.Context) error {
		return s.deps.Extractor.Extract(ctx, asset, session.ExtractedPath)
	}); err != nil {
		s.showRecoveryCommands(session, StageExtract)
		return nil, err
	}
	fmt.Fprintf(s.output, "      Created: %s\n\n", session.ExtractedPath)

	// Step 2: Render the effect chain
	fmt.Fprintf(s.output, "[2/3] Rendering filter...\n")
	var (
		rendered *apprender.Result
		filtered *media.Asset
	)
	if err := s.stage(ctx, logger, StageRender, func(ctx context.Context) error {
		var err error
		rendered, err = s.render(ctx, session)
		if err != nil {
			return err
		}
		filtered, err = s.deps.Prober.Probe(ctx, session.FilteredPath)
		return err
	}); err != nil {
		s.showRecoveryCommands(session, StageRender)
		return nil, err
	}
	fmt.Fprintf(s.output, "      Created: %s (%s)\n\n", session.FilteredPath, formatDuration(rendered.Duration()))

	// Step 3: Remux with the original video
	fmt.Fprintf(s.output, "[3/3] Remuxing video...\n")
	var remuxed *media.Asset
	if err := s.stage(ctx, logger, StageRemux, func(ctx context.Context) error {
		if err := s.deps.Remuxer.Remux(ctx, asset, filtered, session.RemuxedPath); err != nil {
			return err
		}
		var err error
		remuxed, err = s.deps.Prober.Probe(ctx, session.RemuxedPath)
		return err
	}); err != nil {
		if rmErr := s.deps.Scratch.Remove(media.ArtifactRemuxed); rmErr != nil {
			logger.WithError(rmErr).Warn("Could not remove failed remux output")
		}
		s.showRecoveryCommands(session, StageRemux)
		return nil, err
	}
	fmt.Fprintf(s.output, "      Created: %s\n\n", session.RemuxedPath)

	elapsed := time.Since(session.Started)
	fmt.Fprintf(s.output, "Done in %s\n", formatDuration(elapsed))
	logger.WithField("elapsed", elapsed.Round(time.Millisecond).String()).Info("Transform completed")

	return &Result{
		OutputPath:     session.RemuxedPath,
		Preset:         presetName,
		Parameters:     params,
		RunID:          session.ID,
		VideoDuration:  asset.Duration,
		AudioDuration:  rendered.Duration(),
		OutputDuration: remuxed.Duration,
		Elapsed:        elapsed,
	}, nil
}

// stage runs fn under the stage timeout and tags any failure with the stage
func (s *Service) stage(ctx context.Context, logger *logrus.Entry, stage Stage, fn func(context.Context) error) error {
	if s.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	entry := logger.WithFields(logrus.Fields{
		"stage":   string(stage),
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("exceeded stage timeout of %s: %w", s.opts.StageTimeout, err)
		}
		entry.WithError(err).Error("Stage failed")
		return &StageError{Stage: stage, Err: err}
	}
	entry.Debug("Stage completed")
	return nil
}

// render runs one offline pass from the extracted audio into the filtered artifact
func (s *Service) render(ctx context.Context, session *Session) (*apprender.Result, error) {
	stream, err := s.deps.FileIO.OpenForReading(ctx, session.ExtractedPath)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	graph, err := effect.NewGraph(session.Parameters, stream.Format())
	if err != nil {
		return nil, err
	}

	renderer := apprender.NewRenderer(s.deps.Engine, s.deps.FileIO, s.opts.Render)
	return renderer.RenderFile(ctx, stream, graph, session.FilteredPath)
}

// showRecoveryCommands prints the commands that finish a failed run by hand
func (s *Service) showRecoveryCommands(session *Session, failed Stage) {
	fmt.Fprintln(s.output)
	fmt.Fprintln(s.output, "To complete manually:")

	step := 1
	if failed == StageExtract {
		fmt.Fprintf(s.output, "  %d. Extract:  voicefx extract-audio --source %q --output %q\n",
			step, session.Source.Location, session.ExtractedPath)
		step++
	}
	if failed == StageExtract || failed == StageRender {
		fmt.Fprintf(s.output, "  %d. Render:   voicefx render --input %q --output %q --pitch %d --rate %g\n",
			step, session.ExtractedPath, session.FilteredPath, session.Parameters.PitchCents, session.Parameters.Rate)
		step++
	}
	fmt.Fprintf(s.output, "  %d. Remux:    voicefx remux --video %q --audio %q --output %q\n",
		step, session.Source.Location, session.FilteredPath, session.RemuxedPath)
	fmt.Fprintln(s.output)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	sec := (d % time.Minute) / time.Second
	return fmt.Sprintf("%dm %ds", m, sec)
}
