package dsp

import (
	"math"
)

// grainSeconds is the length of one delay-line sweep of the pitch shifter
const grainSeconds = 0.05

// timePitchNode shifts pitch by a number of cents without changing duration.
// It uses two read taps sweeping a delay line in opposite phase, each faded with a
// squared sine window so the wrap-around of one tap is masked by the other.
type timePitchNode struct {
	channels int
	ratio    float64
	window   int

	lines [][]float32
	write int
	delay float64
}

func newTimePitchNode(cents int, sampleRate, channels int) *timePitchNode {
	window := int(grainSeconds * float64(sampleRate))
	if window < 64 {
		window = 64
	}

	n := &timePitchNode{
		channels: channels,
		ratio:    math.Pow(2, float64(cents)/1200),
		window:   window,
		lines:    make([][]float32, channels),
	}
	for c := range n.lines {
		n.lines[c] = make([]float32, window*2)
	}
	return n
}

func (n *timePitchNode) bypass() bool {
	return n.ratio == 1.0
}

// process shifts dst in place
func (n *timePitchNode) process(dst []float32) {
	if n.bypass() {
		return
	}

	size := len(n.lines[0])
	w := float64(n.window)
	frames := len(dst) / n.channels

	for i := 0; i < frames; i++ {
		for c := 0; c < n.channels; c++ {
			n.lines[c][n.write] = dst[i*n.channels+c]
		}

		d1 := n.delay
		d2 := math.Mod(n.delay+w/2, w)
		// squared sine windows half a period apart sum to one
		s1 := math.Sin(math.Pi * d1 / w)
		g1 := float32(s1 * s1)
		g2 := float32(1 - s1*s1)

		for c := 0; c < n.channels; c++ {
			line := n.lines[c]
			dst[i*n.channels+c] = g1*readDelayed(line, n.write, d1, size) + g2*readDelayed(line, n.write, d2, size)
		}

		// a shrinking delay reads faster than it writes, raising pitch
		n.delay = math.Mod(n.delay+(1-n.ratio)+w, w)
		n.write = (n.write + 1) % size
	}
}

// readDelayed returns the sample delay frames behind write, linearly interpolated
func readDelayed(line []float32, write int, delay float64, size int) float32 {
	pos := float64(write) - delay
	for pos < 0 {
		pos += float64(size)
	}
	i0 := int(pos)
	frac := float32(pos - float64(i0))
	i0 %= size
	i1 := (i0 + 1) % size
	return line[i0]*(1-frac) + line[i1]*frac
}

func (n *timePitchNode) reset() {
	for _, line := range n.lines {
		for i := range line {
			line[i] = 0
		}
	}
	n.write = 0
	n.delay = 0
}
