package audio

import "fmt"

// Format describes the PCM processing format of a stream or sink
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks that the format can describe real PCM data
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("channel count must be positive, got %d", f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	return nil
}

// Equal reports whether two formats describe the same PCM layout
func (f Format) Equal(other Format) bool {
	return f.SampleRate == other.SampleRate && f.Channels == other.Channels && f.BitDepth == other.BitDepth
}

// String returns a compact description such as "44100Hz/2ch/16bit"
func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// FramesToSeconds converts a frame count at this format's rate into seconds
func (f Format) FramesToSeconds(frames int64) float64 {
	if f.SampleRate == 0 {
		return 0
	}
	return float64(frames) / float64(f.SampleRate)
}
