package audiofile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"voicefx-media/domain/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var (
	errNotWAV       = errors.New("not a WAV file")
	errWAVNotPCM    = errors.New("only integer PCM WAV is supported")
	errBitDepth     = errors.New("unsupported PCM bit depth")
	errWrongChannel = errors.New("buffer channel count does not match")
)

// wavCodec reads and writes integer PCM WAV files with go-audio/wav
type wavCodec struct{}

func (wavCodec) Open(_ context.Context, path string) (audio.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errNotWAV, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		f.Close()
		return nil, errNotWAV
	}
	switch dec.WavAudioFormat {
	case wavFormatPCM:
	case wavFormatExtensible:
		// ffmpeg writes this header for more than two channels or rates above 48 kHz
		sub, err := extensibleSubFormat(io.NewSectionReader(f, 0, math.MaxInt64))
		if err != nil || sub != wavFormatPCM {
			f.Close()
			return nil, errWAVNotPCM
		}
	default:
		f.Close()
		return nil, errWAVNotPCM
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errNotWAV, err)
	}

	format := audio.Format{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		f.Close()
		return nil, fmt.Errorf("%w: %d", errBitDepth, format.BitDepth)
	}

	bytesPerFrame := int64(format.Channels) * int64(format.BitDepth/8)
	return &pcmStream{
		closer: f,
		reader: dec,
		format: format,
		length: dec.PCMLen() / bytesPerFrame,
	}, nil
}

func (wavCodec) Create(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("%w: %d", errBitDepth, format.BitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &wavSink{
		file:   f,
		enc:    wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
		ib: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// extensibleSubFormat returns the format code carried in the first two bytes of a
// WAVE_FORMAT_EXTENSIBLE sub-format GUID
func extensibleSubFormat(r io.Reader) (uint16, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, err
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}

		// tag, channels, rate, byte rate, block align, bits, cbSize, valid bits, mask
		var head [26]byte
		if ch.Size < len(head) {
			return 0, fmt.Errorf("%w: short extensible fmt chunk", errNotWAV)
		}
		if err := ch.ReadLE(&head); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(head[24:]), nil
	}
}

// pcmReader is the part of the go-audio decoders a pcmStream needs
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// pcmStream adapts a go-audio integer decoder (wav or aiff) to audio.Stream
type pcmStream struct {
	closer io.Closer
	reader pcmReader
	format audio.Format
	length int64
	read   int64
	ib     *goaudio.IntBuffer
}

func (s *pcmStream) Format() audio.Format { return s.format }
func (s *pcmStream) Length() int64        { return s.length }
func (s *pcmStream) Close() error         { return s.closer.Close() }

func (s *pcmStream) ReadFrames(buf *audio.Buffer) (int, error) {
	buf.Frames = 0
	if buf.Format.Channels != s.format.Channels {
		return 0, errWrongChannel
	}

	remaining := s.length - s.read
	if remaining <= 0 {
		return 0, io.EOF
	}
	frames := buf.Cap()
	if int64(frames) > remaining {
		frames = int(remaining)
	}

	want := frames * s.format.Channels
	if s.ib == nil || cap(s.ib.Data) < want {
		s.ib = &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: s.format.Channels, SampleRate: s.format.SampleRate},
			Data:   make([]int, want),
		}
	}
	s.ib.Data = s.ib.Data[:want]

	n, err := s.reader.PCMBuffer(s.ib)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode pcm: %w", err)
	}

	got := n / s.format.Channels
	for i := 0; i < got*s.format.Channels; i++ {
		buf.Data[i] = intToFloat(s.ib.Data[i], s.format.BitDepth)
	}
	buf.Frames = got
	s.read += int64(got)

	if got == 0 {
		// the header promised more frames than the file holds
		s.length = s.read
		return 0, io.EOF
	}
	if s.read >= s.length {
		return got, io.EOF
	}
	return got, nil
}

// wavSink encodes float frames into an integer PCM WAV file
type wavSink struct {
	file   *os.File
	enc    *wav.Encoder
	format audio.Format
	ib     *goaudio.IntBuffer
	closed bool
}

func (s *wavSink) Format() audio.Format { return s.format }

func (s *wavSink) Write(buf *audio.Buffer) error {
	if buf.Format.Channels != s.format.Channels {
		return errWrongChannel
	}

	samples := buf.Samples()
	if cap(s.ib.Data) < len(samples) {
		s.ib.Data = make([]int, len(samples))
	}
	s.ib.Data = s.ib.Data[:len(samples)]
	for i, v := range samples {
		s.ib.Data[i] = floatToInt(v, s.format.BitDepth)
	}

	if err := s.enc.Write(s.ib); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

func (s *wavSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.enc.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("finalise wav: %w", err)
	}
	return s.file.Close()
}
