package audiofile

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"voicefx-media/domain/audio"
)

// oggCodec decodes Ogg Vorbis files with jfreymuth/oggvorbis. Writing is not supported.
type oggCodec struct{}

func (oggCodec) Open(_ context.Context, path string) (audio.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode vorbis: %w", err)
	}

	return &oggStream{
		file: f,
		dec:  dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   dec.Channels(),
			BitDepth:   16,
		},
		length: dec.Length(),
	}, nil
}

func (oggCodec) Create(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	return nil, errDecodeOnly
}

type oggStream struct {
	file   *os.File
	dec    *oggvorbis.Reader
	format audio.Format
	length int64
	read   int64
}

func (s *oggStream) Format() audio.Format { return s.format }
func (s *oggStream) Length() int64        { return s.length }
func (s *oggStream) Close() error         { return s.file.Close() }

func (s *oggStream) ReadFrames(buf *audio.Buffer) (int, error) {
	buf.Frames = 0
	if buf.Format.Channels != s.format.Channels {
		return 0, errWrongChannel
	}

	// Read returns interleaved values, not frames
	dst := buf.Data[:buf.Cap()*s.format.Channels]
	total := 0
	var err error
	for total < len(dst) {
		var n int
		n, err = s.dec.Read(dst[total:])
		total += n
		if err != nil || n == 0 {
			break
		}
	}
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode vorbis: %w", err)
	}

	frames := total / s.format.Channels
	buf.Frames = frames
	s.read += int64(frames)

	if frames == 0 || err == io.EOF || s.read >= s.length {
		return frames, io.EOF
	}
	return frames, nil
}
