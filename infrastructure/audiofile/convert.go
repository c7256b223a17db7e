package audiofile

import "math"

// fullScale returns the magnitude of the most negative integer sample for a bit depth
func fullScale(bitDepth int) float64 {
	return float64(int64(1) << uint(bitDepth-1))
}

// intToFloat normalises an integer PCM sample into [-1, 1)
func intToFloat(v int, bitDepth int) float32 {
	return float32(float64(v) / fullScale(bitDepth))
}

// floatToInt scales a float sample back to integer PCM, clamping out-of-range values.
// intToFloat followed by floatToInt is lossless for every integer sample.
func floatToInt(x float32, bitDepth int) int {
	scale := fullScale(bitDepth)
	v := math.Round(float64(x) * scale)
	if v > scale-1 {
		v = scale - 1
	} else if v < -scale {
		v = -scale
	}
	return int(v)
}
