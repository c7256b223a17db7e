package audiofile

import (
	"context"
	"fmt"
	"os"

	"voicefx-media/domain/audio"
)

// Transcoder converts between compressed containers and PCM WAV.
// infrastructure/ffmpeg.Codec is the production implementation.
type Transcoder interface {
	DecodeToWAV(ctx context.Context, src, dst string) error
	EncodeFromWAV(ctx context.Context, src, dst string) error
}

// bridgeCodec handles compressed formats through a temporary WAV intermediate
type bridgeCodec struct {
	transcoder Transcoder
}

func (b *bridgeCodec) Open(ctx context.Context, path string) (audio.Stream, error) {
	tmp, err := tempWAV()
	if err != nil {
		return nil, err
	}

	if err := b.transcoder.DecodeToWAV(ctx, path, tmp); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	stream, err := wavCodec{}.Open(ctx, tmp)
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}

	return &tempStream{Stream: stream, tmp: tmp}, nil
}

func (b *bridgeCodec) Create(ctx context.Context, path string, format audio.Format) (audio.Sink, error) {
	tmp, err := tempWAV()
	if err != nil {
		return nil, err
	}

	sink, err := wavCodec{}.Create(ctx, tmp, format)
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}

	return &encodeOnClose{Sink: sink, ctx: ctx, tmp: tmp, dst: path, transcoder: b.transcoder}, nil
}

func tempWAV() (string, error) {
	f, err := os.CreateTemp("", "voicefx-*.wav")
	if err != nil {
		return "", fmt.Errorf("create intermediate wav: %w", err)
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// tempStream removes its intermediate file once closed
type tempStream struct {
	audio.Stream
	tmp string
}

func (s *tempStream) Close() error {
	err := s.Stream.Close()
	os.Remove(s.tmp)
	return err
}

// encodeOnClose writes PCM to an intermediate WAV and encodes it to dst on Close.
// dst does not exist until the encode succeeds. The encode runs under the context
// the sink was created with.
type encodeOnClose struct {
	audio.Sink
	ctx        context.Context
	tmp        string
	dst        string
	transcoder Transcoder
	closed     bool
}

func (s *encodeOnClose) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer os.Remove(s.tmp)

	if err := s.Sink.Close(); err != nil {
		return audio.NewFileError("close", s.dst, audio.ErrCannotCreate, err)
	}
	if err := s.transcoder.EncodeFromWAV(s.ctx, s.tmp, s.dst); err != nil {
		os.Remove(s.dst)
		return audio.NewFileError("close", s.dst, audio.ErrCannotCreate, err)
	}
	return nil
}
