package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/render"
)

const (
	// DefaultMaxRetries bounds consecutive busy or starved render calls at one position
	DefaultMaxRetries = 4096
)

// Options tune a Renderer
type Options struct {
	// MaxFrames is the capacity of the render buffer
	MaxFrames int
	// MaxRetries bounds consecutive non-advancing render calls
	MaxRetries int
	// Timeout bounds the whole render loop; zero means no wall-clock limit
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxFrames <= 0 {
		o.MaxFrames = audio.DefaultBufferFrames
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	return o
}

// Result describes a finished render pass
type Result struct {
	OutputPath  string
	InputFrames int64
	// ConsumedFrames is the input actually pulled, or -1 when the engine does not say
	ConsumedFrames int64
	Frames         int64
	Format         audio.Format
	Retries        int
	Elapsed        time.Duration
}

// Duration returns the rendered length at the output sample rate
func (r *Result) Duration() time.Duration {
	return time.Duration(r.Format.FramesToSeconds(r.Frames) * float64(time.Second))
}

// Renderer converts an input stream into a filtered output file by pulling blocks
// through an engine: Idle -> Configured -> Rendering -> Completed | Failed.
// A Renderer owns its engine and buffer for one pass at a time and is not safe for
// concurrent use.
type Renderer struct {
	engine render.Engine
	fileIO audio.FileIO
	opts   Options
	logger *logrus.Entry

	state      render.State
	stream     audio.Stream
	graph      *effect.Graph
	sink       audio.Sink
	buffer     *audio.Buffer
	outputPath string
}

// NewRenderer creates an idle renderer
func NewRenderer(engine render.Engine, fileIO audio.FileIO, opts Options) *Renderer {
	return &Renderer{
		engine: engine,
		fileIO: fileIO,
		opts:   opts.withDefaults(),
		logger: logrus.WithField("component", "renderer"),
		state:  render.StateIdle,
	}
}

// State returns the current lifecycle state
func (r *Renderer) State() render.State {
	return r.state
}

// Configure validates formats, allocates the render buffer and opens the destination.
// ctx stays attached to the sink and bounds the encode when the output is finalised.
func (r *Renderer) Configure(ctx context.Context, stream audio.Stream, graph *effect.Graph, outputPath string) error {
	if r.state != render.StateIdle {
		return fmt.Errorf("%w: configure called while %s", render.ErrInvalidState, r.state)
	}
	if stream == nil || graph == nil {
		return fmt.Errorf("%w: stream and graph are required", render.ErrConfigInvalid)
	}

	if err := graph.Validate(); err != nil {
		return fmt.Errorf("%w: %w", render.ErrConfigInvalid, err)
	}
	if err := graph.Accepts(stream.Format()); err != nil {
		return fmt.Errorf("%w: %w", render.ErrConfigInvalid, err)
	}

	if err := r.engine.Prepare(stream, graph, r.opts.MaxFrames); err != nil {
		return fmt.Errorf("%w: prepare engine: %w", render.ErrConfigInvalid, err)
	}

	sink, err := r.fileIO.OpenForWriting(ctx, outputPath, graph.OutputFormat())
	if err != nil {
		r.engine.Reset()
		return fmt.Errorf("%w: %w", render.ErrConfigInvalid, err)
	}

	r.stream = stream
	r.graph = graph
	r.sink = sink
	r.buffer = audio.NewBuffer(graph.OutputFormat(), r.opts.MaxFrames)
	r.outputPath = outputPath
	r.state = render.StateConfigured
	return nil
}

// Run renders until the output reaches the length the graph yields for the whole input.
// The engine is stopped and the sink closed on every path; a failed pass removes the
// partial output.
func (r *Renderer) Run(ctx context.Context) (result *Result, err error) {
	if r.state != render.StateConfigured {
		return nil, fmt.Errorf("%w: run called while %s", render.ErrInvalidState, r.state)
	}
	r.state = render.StateRendering

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	inputFrames := r.stream.Length()
	target := r.graph.OutputFrames(inputFrames)

	logger := r.logger.WithFields(logrus.Fields{
		"output":       r.outputPath,
		"input_frames": inputFrames,
		"target":       target,
		"parameters":   r.graph.Parameters().String(),
	})
	logger.Debug("Render started")

	defer func() {
		r.engine.Stop()
		closeErr := r.sink.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("%w: finalise output: %w", render.ErrEngineFailure, closeErr)
		}
		if err != nil {
			r.state = render.StateFailed
			result = nil
			if rmErr := os.Remove(r.outputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.WithError(rmErr).Warn("Could not remove partial render output")
			}
			logger.WithError(err).Error("Render failed")
			return
		}
		r.state = render.StateCompleted
		logger.WithFields(logrus.Fields{
			"elapsed":  result.Elapsed.Round(time.Millisecond).String(),
			"consumed": result.ConsumedFrames,
		}).Debug("Render completed")
	}()

	if err := r.engine.Start(); err != nil {
		return nil, fmt.Errorf("%w: start engine: %w", render.ErrEngineFailure, err)
	}

	retries, totalRetries := 0, 0
	for r.engine.SampleTime() < target {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", render.ErrEngineFailure, ctxErr)
		}

		position := r.engine.SampleTime()
		frames := int(min(target-position, int64(r.buffer.Cap())))

		status, renderErr := r.engine.Render(frames, r.buffer)
		if renderErr != nil {
			return nil, fmt.Errorf("%w: at frame %d: %w", render.ErrEngineFailure, position, renderErr)
		}

		switch {
		case status == render.StatusSuccess && r.buffer.Frames > 0:
			if err := audio.Write(r.sink, r.buffer); err != nil {
				return nil, fmt.Errorf("%w: write output: %w", render.ErrEngineFailure, err)
			}
			retries = 0
		case status == render.StatusSuccess, status == render.StatusInsufficientInput, status == render.StatusBusy:
			retries++
			totalRetries++
			if retries > r.opts.MaxRetries {
				return nil, fmt.Errorf("%w: no progress at frame %d after %d %s calls",
					render.ErrEngineFailure, position, r.opts.MaxRetries, status)
			}
		default:
			return nil, fmt.Errorf("%w: engine reported %s at frame %d", render.ErrEngineFailure, status, position)
		}
	}

	consumed := int64(-1)
	if c, ok := r.engine.(render.InputCounter); ok {
		consumed = c.SourceConsumed()
	}

	return &Result{
		OutputPath:     r.outputPath,
		InputFrames:    inputFrames,
		ConsumedFrames: consumed,
		Frames:         r.engine.SampleTime(),
		Format:         r.graph.OutputFormat(),
		Retries:        totalRetries,
		Elapsed:        time.Since(start),
	}, nil
}

// Reset returns the renderer to Idle, clearing the engine so it can serve another pass.
// The input stream is not closed; it belongs to the caller.
func (r *Renderer) Reset() {
	if r.state == render.StateConfigured && r.sink != nil {
		r.sink.Close()
		os.Remove(r.outputPath)
	}
	r.engine.Reset()
	r.stream = nil
	r.graph = nil
	r.sink = nil
	r.buffer = nil
	r.outputPath = ""
	r.state = render.StateIdle
}

// RenderFile is a convenience for one complete pass: configure, run and reset
func (r *Renderer) RenderFile(ctx context.Context, stream audio.Stream, graph *effect.Graph, outputPath string) (*Result, error) {
	defer r.Reset()

	if err := r.Configure(ctx, stream, graph, outputPath); err != nil {
		return nil, err
	}
	return r.Run(ctx)
}
