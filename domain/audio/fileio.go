package audio

import "context"

// Stream is a readable sequence of PCM frames with a known total length
type Stream interface {
	// Format returns the processing format of the decoded frames
	Format() Format
	// Length returns the total number of frames in the stream
	Length() int64
	// ReadFrames fills buf up to its capacity and sets buf.Frames.
	// It returns the number of frames read and io.EOF once the stream is drained.
	ReadFrames(buf *Buffer) (int, error)
	// Close releases the underlying file
	Close() error
}

// Sink is a writable destination for PCM frames backed by an encoded file
type Sink interface {
	// Format returns the format frames must be written in
	Format() Format
	// Write appends buf.Frames frames to the output
	Write(buf *Buffer) error
	// Close finalises the container. The file is not valid until Close returns nil.
	Close() error
}

// FileIO opens audio files for reading and writing
// This is a port that can be implemented by different infrastructure adapters
type FileIO interface {
	// OpenForReading opens path and decodes it to PCM
	OpenForReading(ctx context.Context, path string) (Stream, error)
	// OpenForWriting deletes any existing file at path and creates a new sink.
	// ctx also bounds any encoding the sink does when it is closed.
	OpenForWriting(ctx context.Context, path string, format Format) (Sink, error)
}

// Write writes buf to sink, checking that the formats agree
func Write(sink Sink, buf *Buffer) error {
	if !sink.Format().Equal(buf.Format) {
		return ErrFormatMismatch
	}
	return sink.Write(buf)
}
