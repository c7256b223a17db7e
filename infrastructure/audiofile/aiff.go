package audiofile

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/aiff"

	"voicefx-media/domain/audio"
)

var errNotAIFF = errors.New("not an AIFF file")

// aiffCodec decodes AIFF files with go-audio/aiff. Writing is not supported.
type aiffCodec struct{}

func (aiffCodec) Open(_ context.Context, path string) (audio.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, errNotAIFF
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", errNotAIFF, err)
	}

	format := audio.Format{
		SampleRate: dec.SampleRate,
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		f.Close()
		return nil, fmt.Errorf("%w: %d", errBitDepth, format.BitDepth)
	}

	return &pcmStream{
		closer: f,
		reader: dec,
		format: format,
		length: int64(dec.NumSampleFrames),
	}, nil
}

func (aiffCodec) Create(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	return nil, errDecodeOnly
}
