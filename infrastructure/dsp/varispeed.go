package dsp

// varispeedNode resamples its input by rate using cubic interpolation, changing
// playback speed and pitch together. rate > 1 plays faster and shortens the audio.
type varispeedNode struct {
	src      *playerNode
	rate     float64
	channels int

	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames [4][]float32
	primed bool
	pos    float64
}

func newVarispeedNode(src *playerNode, rate float64, channels int) *varispeedNode {
	v := &varispeedNode{src: src, rate: rate, channels: channels}
	for i := range v.frames {
		v.frames[i] = make([]float32, channels)
	}
	return v
}

func (v *varispeedNode) bypass() bool {
	return v.rate == 1.0
}

func (v *varispeedNode) prime() error {
	// t-1 starts as silence so the first output frame is exactly the first input frame
	for c := range v.frames[0] {
		v.frames[0][c] = 0
	}
	for i := 1; i < 4; i++ {
		if err := v.src.nextFrame(v.frames[i]); err != nil {
			return err
		}
	}
	v.primed = true
	return nil
}

func (v *varispeedNode) advance() error {
	first := v.frames[0]
	v.frames[0] = v.frames[1]
	v.frames[1] = v.frames[2]
	v.frames[2] = v.frames[3]
	v.frames[3] = first
	return v.src.nextFrame(v.frames[3])
}

// process fills dst with len(dst)/channels output frames
func (v *varispeedNode) process(dst []float32) error {
	if v.bypass() {
		_, err := v.src.pull(dst, v.channels)
		return err
	}

	if !v.primed {
		if err := v.prime(); err != nil {
			return err
		}
	}

	frames := len(dst) / v.channels
	for i := 0; i < frames; i++ {
		for v.pos >= 1.0 {
			v.pos -= 1.0
			if err := v.advance(); err != nil {
				return err
			}
		}

		x := float32(v.pos)
		for c := 0; c < v.channels; c++ {
			dst[i*v.channels+c] = cubicInterpolate(v.frames[0][c], v.frames[1][c], v.frames[2][c], v.frames[3][c], x)
		}
		v.pos += v.rate
	}
	return nil
}

func (v *varispeedNode) reset() {
	v.primed = false
	v.pos = 0
}
