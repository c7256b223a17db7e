package dsp

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/render"
)

var (
	errNotPrepared = errors.New("engine has no stream attached")
	errNotRunning  = errors.New("engine is not running")
	errBlockSize   = errors.New("requested frames exceed the engine block size")
)

// Engine implements render.Engine: player -> varispeed -> time-pitch, pulled manually.
// An Engine serves one render pass at a time and must be Reset before reuse.
type Engine struct {
	player    *playerNode
	varispeed *varispeedNode
	pitch     *timePitchNode

	format     audio.Format
	maxFrames  int
	sampleTime int64
	prepared   bool
	running    bool
	logger     *logrus.Entry
}

// NewEngine creates an idle engine
func NewEngine() *Engine {
	return &Engine{
		logger: logrus.WithField("component", "dsp"),
	}
}

// Prepare implements render.Engine
func (e *Engine) Prepare(stream audio.Stream, graph *effect.Graph, maxFrames int) error {
	if e.prepared {
		return fmt.Errorf("engine already prepared; reset it first")
	}
	if err := graph.Validate(); err != nil {
		return err
	}
	if err := graph.Accepts(stream.Format()); err != nil {
		return err
	}
	if maxFrames <= 0 {
		maxFrames = audio.DefaultBufferFrames
	}

	params := graph.Parameters()
	format := stream.Format()

	e.format = format
	e.maxFrames = maxFrames
	e.player = newPlayerNode(stream, maxFrames)
	e.varispeed = newVarispeedNode(e.player, params.Rate, format.Channels)
	e.pitch = newTimePitchNode(params.PitchCents, format.SampleRate, format.Channels)
	e.sampleTime = 0
	e.prepared = true

	e.logger.WithFields(logrus.Fields{
		"format":     format.String(),
		"parameters": params.String(),
		"max_frames": maxFrames,
	}).Debug("Engine prepared")
	return nil
}

// Start implements render.Engine
func (e *Engine) Start() error {
	if !e.prepared {
		return errNotPrepared
	}
	e.running = true
	return nil
}

// Render implements render.Engine
func (e *Engine) Render(frames int, buf *audio.Buffer) (render.Status, error) {
	if !e.running {
		return render.StatusError, errNotRunning
	}
	if frames <= 0 {
		buf.Frames = 0
		return render.StatusSuccess, nil
	}
	if frames > e.maxFrames || frames > buf.Cap() {
		return render.StatusError, fmt.Errorf("%w: %d > %d", errBlockSize, frames, min(e.maxFrames, buf.Cap()))
	}
	if buf.Format.Channels != e.format.Channels {
		return render.StatusError, fmt.Errorf("buffer has %d channels, engine renders %d", buf.Format.Channels, e.format.Channels)
	}

	dst := buf.Data[:frames*e.format.Channels]
	if err := e.varispeed.process(dst); err != nil {
		buf.Frames = 0
		return render.StatusError, err
	}
	e.pitch.process(dst)

	buf.Frames = frames
	e.sampleTime += int64(frames)
	return render.StatusSuccess, nil
}

// SampleTime implements render.Engine
func (e *Engine) SampleTime() int64 {
	return e.sampleTime
}

// SourceConsumed implements render.InputCounter
func (e *Engine) SourceConsumed() int64 {
	if e.player == nil {
		return 0
	}
	return e.player.consumed
}

// Stop implements render.Engine
func (e *Engine) Stop() {
	e.running = false
}

// Reset implements render.Engine
func (e *Engine) Reset() {
	e.running = false
	e.prepared = false
	if e.varispeed != nil {
		e.varispeed.reset()
	}
	if e.pitch != nil {
		e.pitch.reset()
	}
	e.player = nil
	e.varispeed = nil
	e.pitch = nil
	e.sampleTime = 0
}

// Ensure Engine implements render.Engine
var _ render.Engine = (*Engine)(nil)
