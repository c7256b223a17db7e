package audio

// DefaultBufferFrames is the render block size used when none is configured
const DefaultBufferFrames = 4096

// Buffer is a fixed-capacity block of interleaved float32 PCM frames in [-1, 1].
// Frames holds the number of valid frames currently stored in Data.
type Buffer struct {
	Format Format
	Data   []float32
	Frames int
}

// NewBuffer allocates a buffer able to hold capacity frames of the given format
func NewBuffer(format Format, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferFrames
	}
	return &Buffer{
		Format: format,
		Data:   make([]float32, capacity*format.Channels),
	}
}

// Cap returns the buffer capacity in frames
func (b *Buffer) Cap() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Format.Channels
}

// Samples returns the valid interleaved samples
func (b *Buffer) Samples() []float32 {
	return b.Data[:b.Frames*b.Format.Channels]
}

// Reset marks the buffer empty without releasing its storage
func (b *Buffer) Reset() {
	b.Frames = 0
}
