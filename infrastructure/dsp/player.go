package dsp

import (
	"errors"
	"fmt"
	"io"

	"voicefx-media/domain/audio"
)

// playerNode is the graph source. It drains a stream block by block and hands out
// single frames; once the stream is exhausted it produces silence.
type playerNode struct {
	stream   audio.Stream
	block    *audio.Buffer
	pos      int
	consumed int64
	drained  bool
}

func newPlayerNode(stream audio.Stream, blockFrames int) *playerNode {
	return &playerNode{
		stream: stream,
		block:  audio.NewBuffer(stream.Format(), blockFrames),
	}
}

// nextFrame copies the next frame into dst (len == channels)
func (p *playerNode) nextFrame(dst []float32) error {
	if p.pos >= p.block.Frames && !p.drained {
		if err := p.refill(); err != nil {
			return err
		}
	}

	if p.pos >= p.block.Frames {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}

	ch := len(dst)
	copy(dst, p.block.Data[p.pos*ch:(p.pos+1)*ch])
	p.pos++
	p.consumed++
	return nil
}

// pull fills dst with whole frames and returns the frame count
func (p *playerNode) pull(dst []float32, channels int) (int, error) {
	frames := len(dst) / channels
	for i := 0; i < frames; i++ {
		if err := p.nextFrame(dst[i*channels : (i+1)*channels]); err != nil {
			return i, err
		}
	}
	return frames, nil
}

func (p *playerNode) refill() error {
	p.pos = 0
	n, err := p.stream.ReadFrames(p.block)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			p.block.Frames = 0
			return fmt.Errorf("read source frames: %w", err)
		}
		p.drained = true
	}
	if n == 0 {
		p.drained = true
	}
	return nil
}
