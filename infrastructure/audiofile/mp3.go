package audiofile

import (
	"context"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"voicefx-media/domain/audio"
)

// go-mp3 always decodes to 16-bit little-endian stereo
const (
	mp3Channels      = 2
	mp3BytesPerFrame = 4
)

// mp3Codec decodes MP3 files with hajimehoshi/go-mp3. Writing is not supported.
type mp3Codec struct{}

func (mp3Codec) Open(_ context.Context, path string) (audio.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	return &mp3Stream{
		file: f,
		dec:  dec,
		format: audio.Format{
			SampleRate: dec.SampleRate(),
			Channels:   mp3Channels,
			BitDepth:   16,
		},
		length: dec.Length() / mp3BytesPerFrame,
	}, nil
}

func (mp3Codec) Create(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	return nil, errDecodeOnly
}

type mp3Stream struct {
	file   *os.File
	dec    *gomp3.Decoder
	format audio.Format
	length int64
	read   int64
	raw    []byte
}

func (s *mp3Stream) Format() audio.Format { return s.format }
func (s *mp3Stream) Length() int64        { return s.length }
func (s *mp3Stream) Close() error         { return s.file.Close() }

func (s *mp3Stream) ReadFrames(buf *audio.Buffer) (int, error) {
	buf.Frames = 0
	if buf.Format.Channels != mp3Channels {
		return 0, errWrongChannel
	}

	need := buf.Cap() * mp3BytesPerFrame
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	s.raw = s.raw[:need]

	n, err := io.ReadFull(s.dec, s.raw)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}

	frames := n / mp3BytesPerFrame
	for i := 0; i < frames*mp3Channels; i++ {
		v := int16(uint16(s.raw[2*i]) | uint16(s.raw[2*i+1])<<8)
		buf.Data[i] = intToFloat(int(v), 16)
	}
	buf.Frames = frames
	s.read += int64(frames)

	if err == io.EOF || err == io.ErrUnexpectedEOF || s.read >= s.length {
		return frames, io.EOF
	}
	return frames, nil
}
