package render

import (
	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
)

// Status is the outcome of a single offline render call
type Status int

const (
	// StatusSuccess means frames were produced into the buffer
	StatusSuccess Status = iota
	// StatusInsufficientInput means a live input node had no frames for this call
	StatusInsufficientInput
	// StatusBusy means the engine could not render in this call; retry at the same position
	StatusBusy
	// StatusError means rendering failed and cannot continue
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInsufficientInput:
		return "insufficient-input"
	case StatusBusy:
		return "busy"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Engine drives an effect graph in manual, non-realtime mode.
// This is a port that can be implemented by different infrastructure adapters.
type Engine interface {
	// Prepare attaches the stream to the source node and wires the graph.
	// maxFrames is the largest block a single Render call may be asked for.
	Prepare(stream audio.Stream, graph *effect.Graph, maxFrames int) error
	// Start begins a render pass
	Start() error
	// Render pulls up to frames frames through the graph into buf
	Render(frames int, buf *audio.Buffer) (Status, error)
	// SampleTime is the number of frames rendered so far in this pass
	SampleTime() int64
	// Stop ends the pass. It is safe to call more than once.
	Stop()
	// Reset detaches the stream and clears all node state so the engine can be reused
	Reset()
}

// InputCounter is implemented by engines that report how many source frames a
// pass has pulled
type InputCounter interface {
	SourceConsumed() int64
}
