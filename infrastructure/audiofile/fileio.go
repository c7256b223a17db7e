package audiofile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"voicefx-media/domain/audio"
)

var errDecodeOnly = errors.New("format can be read but not written")

// Codec opens and creates audio files of one container type
type Codec interface {
	Open(ctx context.Context, path string) (audio.Stream, error)
	Create(ctx context.Context, path string, format audio.Format) (audio.Sink, error)
}

// FileIO implements audio.FileIO over a registry of codecs keyed by file extension
type FileIO struct {
	codecs map[string]Codec
	mtx    *sync.Mutex
	logger *logrus.Entry
}

// Option is a functional option for configuring FileIO
type Option func(*FileIO)

// WithCodec registers a codec for one or more extensions (".wav", "m4a", ...)
func WithCodec(c Codec, exts ...string) Option {
	return func(f *FileIO) {
		for _, ext := range exts {
			f.codecs[normalizeExt(ext)] = c
		}
	}
}

// WithTranscoder registers the compressed container formats handled through ffmpeg
func WithTranscoder(t Transcoder) Option {
	return WithCodec(&bridgeCodec{transcoder: t}, ".m4a", ".aac", ".mp4", ".m4v", ".mov", ".caf")
}

// WithLogger sets the logger used for best-effort cleanup warnings
func WithLogger(l *logrus.Entry) Option {
	return func(f *FileIO) {
		f.logger = l
	}
}

// New creates a FileIO with the native PCM codecs registered
func New(opts ...Option) *FileIO {
	f := &FileIO{
		codecs: map[string]Codec{
			".wav":  wavCodec{},
			".wave": wavCodec{},
			".aif":  aiffCodec{},
			".aiff": aiffCodec{},
			".mp3":  mp3Codec{},
			".ogg":  oggCodec{},
			".oga":  oggCodec{},
		},
		mtx:    &sync.Mutex{},
		logger: logrus.WithField("component", "audiofile"),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Register adds or replaces the codec for an extension
func (f *FileIO) Register(ext string, c Codec) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.codecs[normalizeExt(ext)] = c
}

func (f *FileIO) codecFor(path string) (Codec, bool) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	c, ok := f.codecs[normalizeExt(filepath.Ext(path))]
	return c, ok
}

// OpenForReading implements audio.FileIO
func (f *FileIO) OpenForReading(ctx context.Context, path string) (audio.Stream, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, audio.NewFileError("open", path, audio.ErrNotFound, nil)
		}
		return nil, audio.NewFileError("open", path, audio.ErrNotFound, err)
	}

	codec, ok := f.codecFor(path)
	if !ok {
		return nil, audio.NewFileError("open", path, audio.ErrUnsupportedFormat,
			fmt.Errorf("no decoder for extension %q", filepath.Ext(path)))
	}

	stream, err := codec.Open(ctx, path)
	if err != nil {
		var fe *audio.FileError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, audio.NewFileError("open", path, audio.ErrUnsupportedFormat, err)
	}

	f.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": stream.Format().String(),
		"frames": stream.Length(),
	}).Debug("Opened audio stream")

	return stream, nil
}

// OpenForWriting implements audio.FileIO. An existing file at path is deleted first.
func (f *FileIO) OpenForWriting(ctx context.Context, path string, format audio.Format) (audio.Sink, error) {
	if err := format.Validate(); err != nil {
		return nil, audio.NewFileError("create", path, audio.ErrUnsupportedFormat, err)
	}

	codec, ok := f.codecFor(path)
	if !ok {
		return nil, audio.NewFileError("create", path, audio.ErrUnsupportedFormat,
			fmt.Errorf("no encoder for extension %q", filepath.Ext(path)))
	}

	if err := RemoveExisting(path); err != nil {
		return nil, audio.NewFileError("create", path, audio.ErrCannotDelete, err)
	}

	sink, err := codec.Create(ctx, path, format)
	if err != nil {
		if errors.Is(err, errDecodeOnly) || errors.Is(err, errBitDepth) {
			return nil, audio.NewFileError("create", path, audio.ErrUnsupportedFormat, err)
		}
		return nil, audio.NewFileError("create", path, audio.ErrCannotCreate, err)
	}

	return sink, nil
}

// RemoveExisting deletes path if it exists. A missing file is not an error.
func RemoveExisting(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Ensure FileIO implements audio.FileIO
var _ audio.FileIO = (*FileIO)(nil)
