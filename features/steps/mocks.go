//go:build integration

package steps

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/media"
	"voicefx-media/domain/render"
)

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

// mockSource resolves ids from a fixed catalogue
type mockSource struct {
	assets map[string]*media.Asset
}

func newMockSource() *mockSource {
	return &mockSource{assets: make(map[string]*media.Asset)}
}

func (m *mockSource) add(id string, duration time.Duration, audioTracks int) {
	tracks := []media.Track{{Index: 0, Kind: media.KindVideo, Codec: "h264", Width: 1920, Height: 1080}}
	for i := 0; i < audioTracks; i++ {
		tracks = append(tracks, media.Track{Index: i + 1, Kind: media.KindAudio, Codec: "aac", SampleRate: 44100, Channels: 2})
	}
	asset, _ := media.NewAsset("/library/"+id, duration, tracks)
	m.assets[id] = asset
}

func (m *mockSource) Resolve(ctx context.Context, id string) (*media.Asset, error) {
	asset, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrAssetUnavailable, id)
	}
	return asset, nil
}

// mockExtractor records the assets it was asked to export
type mockExtractor struct {
	calls     []string
	failError error
}

func (m *mockExtractor) Extract(ctx context.Context, asset *media.Asset, outputPath string) error {
	if len(asset.AudioTracks()) == 0 {
		return media.ErrNoAudioTrack
	}
	if m.failError != nil {
		return m.failError
	}
	m.calls = append(m.calls, outputPath)
	return nil
}

// mockRemuxer records the inputs of the last remux
type mockRemuxer struct {
	videoPath string
	audioPath string
	output    string
	failError error
}

func (m *mockRemuxer) Remux(ctx context.Context, videoAsset, audioAsset *media.Asset, outputPath string) error {
	if m.failError != nil {
		return m.failError
	}
	m.videoPath = videoAsset.Location
	m.audioPath = audioAsset.Location
	m.output = outputPath
	return nil
}

// mockProber describes every path as a single audio track
type mockProber struct{}

func (m *mockProber) Probe(ctx context.Context, path string) (*media.Asset, error) {
	return media.NewAsset(path, 0, []media.Track{{Index: 0, Kind: media.KindAudio}})
}

type memStream struct {
	format audio.Format
	length int64
	read   int64
}

func (s *memStream) Format() audio.Format { return s.format }
func (s *memStream) Length() int64        { return s.length }
func (s *memStream) Close() error         { return nil }

func (s *memStream) ReadFrames(buf *audio.Buffer) (int, error) {
	if s.read >= s.length {
		return 0, io.EOF
	}
	n := int(min(s.length-s.read, int64(buf.Cap())))
	buf.Frames = n
	s.read += int64(n)
	return n, nil
}

type countingSink struct {
	format audio.Format
	frames int64
}

func (s *countingSink) Format() audio.Format { return s.format }
func (s *countingSink) Close() error         { return nil }

func (s *countingSink) Write(buf *audio.Buffer) error {
	s.frames += int64(buf.Frames)
	return nil
}

// mockFileIO serves a silent stream of a fixed length and counts written frames
type mockFileIO struct {
	format  audio.Format
	length  int64
	sink    *countingSink
	openErr error
}

func (m *mockFileIO) OpenForReading(_ context.Context, path string) (audio.Stream, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &memStream{format: m.format, length: m.length}, nil
}

func (m *mockFileIO) OpenForWriting(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	m.sink = &countingSink{format: format}
	return m.sink, nil
}

// scriptedEngine renders silence, optionally reporting busy forever
type scriptedEngine struct {
	alwaysBusy bool
	position   int64
}

func (e *scriptedEngine) Prepare(stream audio.Stream, graph *effect.Graph, maxFrames int) error {
	return nil
}
func (e *scriptedEngine) Start() error { return nil }
func (e *scriptedEngine) Render(frames int, buf *audio.Buffer) (render.Status, error) {
	if e.alwaysBusy {
		buf.Frames = 0
		return render.StatusBusy, nil
	}
	buf.Frames = frames
	e.position += int64(frames)
	return render.StatusSuccess, nil
}
func (e *scriptedEngine) SampleTime() int64 { return e.position }
func (e *scriptedEngine) Stop()             {}
func (e *scriptedEngine) Reset()            { e.position = 0 }

// memScratch is a scratch directory that only hands out paths
type memScratch struct {
	root string
}

func (s *memScratch) Path(a media.Artifact) string {
	switch a {
	case media.ArtifactExtracted:
		return s.root + "/extracted.m4a"
	case media.ArtifactFiltered:
		return s.root + "/filtered.m4a"
	default:
		return s.root + "/remuxed.mp4"
	}
}

func (s *memScratch) Lock(ctx context.Context) (func() error, error) {
	return func() error { return nil }, nil
}

func (s *memScratch) Remove(a media.Artifact) error { return nil }
func (s *memScratch) Clean() error                  { return nil }
