package audiofile

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicefx-media/domain/audio"
)

var cdFormat = audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

// rampSamples returns interleaved samples that are exact 16-bit values
func rampSamples(frames, channels int) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		v := (i%2000 - 1000) * 31
		out[i] = float32(v) / 32768
	}
	return out
}

func writeWAV(t *testing.T, fio *FileIO, path string, format audio.Format, samples []float32) {
	t.Helper()
	sink, err := fio.OpenForWriting(context.Background(), path, format)
	require.NoError(t, err)

	buf := audio.NewBuffer(format, 1000)
	ch := format.Channels
	for off := 0; off < len(samples); off += buf.Cap() * ch {
		end := min(off+buf.Cap()*ch, len(samples))
		n := copy(buf.Data, samples[off:end])
		buf.Frames = n / ch
		require.NoError(t, audio.Write(sink, buf))
	}
	require.NoError(t, sink.Close())
}

func readAll(t *testing.T, stream audio.Stream) []float32 {
	t.Helper()
	buf := audio.NewBuffer(stream.Format(), 777)
	var out []float32
	for {
		n, err := stream.ReadFrames(buf)
		out = append(out, buf.Data[:n*stream.Format().Channels]...)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
	}
}

func TestFileIO_WAVRoundTrip(t *testing.T) {
	fio := New()
	path := filepath.Join(t.TempDir(), "tone.wav")
	want := rampSamples(5000, 2)

	writeWAV(t, fio, path, cdFormat, want)

	stream, err := fio.OpenForReading(context.Background(), path)
	require.NoError(t, err)
	defer stream.Close()

	assert.True(t, stream.Format().Equal(cdFormat), "format = %s", stream.Format())
	assert.Equal(t, int64(5000), stream.Length())
	assert.Equal(t, want, readAll(t, stream))
}

func TestFileIO_OpenForReadingErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("this is not a riff file"), 0644))
	unknown := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unknown, []byte("hello"), 0644))

	tests := []struct {
		name string
		path string
		want error
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.wav"), want: audio.ErrNotFound},
		{name: "unknown extension", path: unknown, want: audio.ErrUnsupportedFormat},
		{name: "corrupt container", path: garbage, want: audio.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().OpenForReading(context.Background(), tt.path)
			assert.ErrorIs(t, err, tt.want)

			var fe *audio.FileError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.path, fe.Path)
		})
	}
}

func TestFileIO_OpenForWritingErrors(t *testing.T) {
	dir := t.TempDir()
	busyDir := filepath.Join(dir, "occupied.wav")
	require.NoError(t, os.MkdirAll(filepath.Join(busyDir, "child"), 0755))

	tests := []struct {
		name   string
		path   string
		format audio.Format
		want   error
	}{
		{name: "decode-only container", path: filepath.Join(dir, "out.mp3"), format: cdFormat, want: audio.ErrUnsupportedFormat},
		{name: "unknown extension", path: filepath.Join(dir, "out.xyz"), format: cdFormat, want: audio.ErrUnsupportedFormat},
		{name: "invalid format", path: filepath.Join(dir, "out.wav"), format: audio.Format{SampleRate: 44100, Channels: 0, BitDepth: 16}, want: audio.ErrUnsupportedFormat},
		{name: "8-bit wav", path: filepath.Join(dir, "out8.wav"), format: audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 8}, want: audio.ErrUnsupportedFormat},
		{name: "missing parent directory", path: filepath.Join(dir, "nope", "out.wav"), format: cdFormat, want: audio.ErrCannotCreate},
		{name: "existing path cannot be removed", path: busyDir, format: cdFormat, want: audio.ErrCannotDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().OpenForWriting(context.Background(), tt.path, tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFileIO_OpenForWritingReplacesExisting(t *testing.T) {
	fio := New()
	path := filepath.Join(t.TempDir(), "out.wav")

	writeWAV(t, fio, path, cdFormat, rampSamples(4000, 2))
	writeWAV(t, fio, path, cdFormat, rampSamples(100, 2))

	stream, err := fio.OpenForReading(context.Background(), path)
	require.NoError(t, err)
	defer stream.Close()
	assert.Equal(t, int64(100), stream.Length())
}

func TestFileIO_WriteRejectsFormatMismatch(t *testing.T) {
	fio := New()
	sink, err := fio.OpenForWriting(context.Background(), filepath.Join(t.TempDir(), "out.wav"), cdFormat)
	require.NoError(t, err)
	defer sink.Close()

	mono := audio.NewBuffer(audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, 10)
	mono.Frames = 10
	assert.ErrorIs(t, audio.Write(sink, mono), audio.ErrFormatMismatch)
}

func TestFileIO_RegisterNormalisesExtension(t *testing.T) {
	fio := New()
	fio.Register("PCM", wavCodec{})

	path := filepath.Join(t.TempDir(), "tone.pcm")
	writeWAV(t, fio, path, cdFormat, rampSamples(10, 2))

	stream, err := fio.OpenForReading(context.Background(), path)
	require.NoError(t, err)
	stream.Close()
}

// copyTranscoder implements Transcoder by copying the WAV bytes, standing in for ffmpeg
type copyTranscoder struct {
	decodes, encodes int
	encodeErr        error
}

func (c *copyTranscoder) DecodeToWAV(ctx context.Context, src, dst string) error {
	c.decodes++
	if err := ctx.Err(); err != nil {
		return err
	}
	return copyFile(src, dst)
}

func (c *copyTranscoder) EncodeFromWAV(ctx context.Context, src, dst string) error {
	c.encodes++
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.encodeErr != nil {
		return c.encodeErr
	}
	return copyFile(src, dst)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

func TestFileIO_TranscodedContainers(t *testing.T) {
	tc := &copyTranscoder{}
	fio := New(WithTranscoder(tc))
	path := filepath.Join(t.TempDir(), "voice.m4a")
	want := rampSamples(3000, 2)

	writeWAV(t, fio, path, cdFormat, want)
	assert.Equal(t, 1, tc.encodes)
	assert.FileExists(t, path)

	stream, err := fio.OpenForReading(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, tc.decodes)
	assert.Equal(t, want, readAll(t, stream))
	require.NoError(t, stream.Close())
}

func TestFileIO_TranscodeFailureLeavesNoOutput(t *testing.T) {
	tc := &copyTranscoder{encodeErr: os.ErrPermission}
	fio := New(WithTranscoder(tc))
	path := filepath.Join(t.TempDir(), "voice.m4a")

	sink, err := fio.OpenForWriting(context.Background(), path, cdFormat)
	require.NoError(t, err)

	err = sink.Close()
	assert.ErrorIs(t, err, audio.ErrCannotCreate)
	assert.NoFileExists(t, path)
}

func TestFileIO_TranscodeHonoursContext(t *testing.T) {
	tc := &copyTranscoder{}
	fio := New(WithTranscoder(tc))
	path := filepath.Join(t.TempDir(), "voice.m4a")

	ctx, cancel := context.WithCancel(context.Background())
	sink, err := fio.OpenForWriting(ctx, path, cdFormat)
	require.NoError(t, err)

	// the encode runs at Close, after the caller has given up
	cancel()
	err = sink.Close()
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, audio.ErrCannotCreate)
	assert.NoFileExists(t, path)

	writeWAV(t, fio, path, cdFormat, rampSamples(100, 2))
	_, err = fio.OpenForReading(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

// writeExtensibleWAV writes 16-bit samples under a WAVE_FORMAT_EXTENSIBLE header,
// the layout ffmpeg emits for surround or high sample rate PCM
func writeExtensibleWAV(t *testing.T, path string, channels, rate int, subFormat uint16, samples []int16) {
	t.Helper()
	le := binary.LittleEndian
	blockAlign := channels * 2

	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, le, uint16(0xFFFE))
	binary.Write(&fmtChunk, le, uint16(channels))
	binary.Write(&fmtChunk, le, uint32(rate))
	binary.Write(&fmtChunk, le, uint32(rate*blockAlign))
	binary.Write(&fmtChunk, le, uint16(blockAlign))
	binary.Write(&fmtChunk, le, uint16(16))
	binary.Write(&fmtChunk, le, uint16(22))
	binary.Write(&fmtChunk, le, uint16(16))
	binary.Write(&fmtChunk, le, uint32(0x3F))
	binary.Write(&fmtChunk, le, subFormat)
	fmtChunk.Write([]byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71})

	var data bytes.Buffer
	binary.Write(&data, le, samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, le, uint32(4+8+fmtChunk.Len()+8+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(&out, le, uint32(fmtChunk.Len()))
	out.Write(fmtChunk.Bytes())
	out.WriteString("data")
	binary.Write(&out, le, uint32(data.Len()))
	out.Write(data.Bytes())

	require.NoError(t, os.WriteFile(path, out.Bytes(), 0644))
}

func TestFileIO_OpenExtensibleWAV(t *testing.T) {
	const channels, frames = 6, 4800
	samples := make([]int16, channels*frames)
	for i := range samples {
		samples[i] = int16((i%500 - 250) * 64)
	}

	t.Run("integer pcm sub-format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "surround.wav")
		writeExtensibleWAV(t, path, channels, 96000, 1, samples)

		stream, err := New().OpenForReading(context.Background(), path)
		require.NoError(t, err)
		defer stream.Close()

		assert.Equal(t, audio.Format{SampleRate: 96000, Channels: channels, BitDepth: 16}, stream.Format())
		assert.Equal(t, int64(frames), stream.Length())

		got := readAll(t, stream)
		require.Len(t, got, len(samples))
		for i, v := range samples {
			if got[i] != float32(v)/32768 {
				t.Fatalf("sample %d = %v, want %v", i, got[i], float32(v)/32768)
			}
		}
	})

	t.Run("float sub-format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "float.wav")
		writeExtensibleWAV(t, path, channels, 48000, 3, samples)

		_, err := New().OpenForReading(context.Background(), path)
		assert.ErrorIs(t, err, audio.ErrUnsupportedFormat)
	})
}

func TestConvert_IntRoundTripIsLossless(t *testing.T) {
	for _, bd := range []int{16, 24} {
		scale := int(fullScale(bd))
		for _, v := range []int{-scale, -scale + 1, -1, 0, 1, 12345, scale - 1} {
			assert.Equal(t, v, floatToInt(intToFloat(v, bd), bd), "bit depth %d value %d", bd, v)
		}
	}
	assert.Equal(t, 32767, floatToInt(1.5, 16))
	assert.Equal(t, -32768, floatToInt(-1.5, 16))
}
