package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"voicefx-media/domain/media"
)

// mockRunner implements CommandRunner. On success it writes the last argument,
// which is where ffmpeg would put its output.
type mockRunner struct {
	mu       sync.Mutex
	calls    [][]string
	runErr   error
	output   []byte
	writeOut bool
	block    chan struct{}
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) error {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	out := args[len(args)-1]
	if m.writeOut || m.runErr != nil {
		// ffmpeg leaves a truncated file behind when it fails
		if err := os.WriteFile(out, []byte("data"), 0644); err != nil {
			return err
		}
	}
	return m.runErr
}

func (m *mockRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()
	return m.output, m.runErr
}

func (m *mockRunner) lastCall() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func videoAsset(location string, audioTracks int) *media.Asset {
	tracks := []media.Track{{Index: 0, Kind: media.KindVideo, Codec: "h264", Duration: 10 * time.Second}}
	for i := 0; i < audioTracks; i++ {
		tracks = append(tracks, media.Track{Index: i + 1, Kind: media.KindAudio, Codec: "aac", Duration: 10 * time.Second})
	}
	a, _ := media.NewAsset(location, 10*time.Second, tracks)
	return a
}

func containsSeq(args []string, seq ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(seq, " ")+" ")
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "extracted.m4a")
	runner := &mockRunner{writeOut: true}
	e := NewExtractor(WithExtractorCommandRunner(runner), WithExtractorFFmpegPath("/opt/ffmpeg"), WithExtractorBitrate("128k"))

	if err := e.Extract(context.Background(), videoAsset("/videos/in.mp4", 2), output); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	call := runner.lastCall()
	if call[0] != "/opt/ffmpeg" {
		t.Errorf("binary = %q, want /opt/ffmpeg", call[0])
	}
	for _, seq := range [][]string{
		{"-i", "/videos/in.mp4"},
		{"-map", "0:1", "-map", "0:2"},
		{"-vn"},
		{"-c:a", "aac", "-b:a", "128k"},
		{"-f", "ipod", filepath.Join(dir, "extracted.partial.m4a")},
	} {
		if !containsSeq(call, seq...) {
			t.Errorf("args %v missing %v", call, seq)
		}
	}
	if containsSeq(call, "-copyts") {
		t.Errorf("args %v should not shift timestamps for tracks starting at zero", call)
	}

	if _, err := os.Stat(output); err != nil {
		t.Errorf("output not renamed into place: %v", err)
	}
	if _, err := os.Stat(partialPath(output)); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}
}

func TestExtractor_KeepsTrackOffsets(t *testing.T) {
	asset := videoAsset("/videos/in.mov", 1)
	asset.Tracks[1].Start = 500 * time.Millisecond

	runner := &mockRunner{writeOut: true}
	e := NewExtractor(WithExtractorCommandRunner(runner))
	if err := e.Extract(context.Background(), asset, filepath.Join(t.TempDir(), "a.wav")); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	call := runner.lastCall()
	if !containsSeq(call, "-copyts", "-start_at_zero") {
		t.Errorf("args %v should keep track offsets", call)
	}
	if !containsSeq(call, "-c:a", "pcm_s16le", "-f", "wav") {
		t.Errorf("args %v should write PCM WAV", call)
	}
}

func TestExtractor_NoAudioTrack(t *testing.T) {
	runner := &mockRunner{}
	e := NewExtractor(WithExtractorCommandRunner(runner))

	err := e.Extract(context.Background(), videoAsset("/videos/silent.mp4", 0), filepath.Join(t.TempDir(), "out.m4a"))
	if !errors.Is(err, media.ErrNoAudioTrack) {
		t.Errorf("Extract() error = %v, want ErrNoAudioTrack", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("ffmpeg should not run without an audio track, got %d calls", len(runner.calls))
	}
}

func TestExtractor_FailureRemovesPartialAndStaleOutput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "extracted.m4a")
	if err := os.WriteFile(output, []byte("previous run"), 0644); err != nil {
		t.Fatal(err)
	}

	runner := &mockRunner{runErr: errors.New("exit status 1: Invalid data found")}
	e := NewExtractor(WithExtractorCommandRunner(runner))

	err := e.Extract(context.Background(), videoAsset("/videos/in.mp4", 1), output)
	if !errors.Is(err, media.ErrExportFailed) {
		t.Fatalf("Extract() error = %v, want ErrExportFailed", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("stale output from a previous run should have been removed")
	}
	if _, statErr := os.Stat(partialPath(output)); !os.IsNotExist(statErr) {
		t.Error("partial file left behind after failure")
	}
}

func TestRemuxer_Remux(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "remuxed.mp4")
	runner := &mockRunner{writeOut: true}
	r := NewRemuxer(WithRemuxerCommandRunner(runner))

	audioOnly, _ := media.NewAsset("/scratch/filtered.m4a", 9*time.Second, []media.Track{{Index: 0, Kind: media.KindAudio}})
	if err := r.Remux(context.Background(), videoAsset("/videos/in.mp4", 1), audioOnly, output); err != nil {
		t.Fatalf("Remux() error = %v", err)
	}

	call := runner.lastCall()
	for _, seq := range [][]string{
		{"-i", "/videos/in.mp4", "-i", "/scratch/filtered.m4a"},
		{"-map", "0:0", "-map", "1:0"},
		{"-c", "copy"},
		{"-t", "10.000"},
		{"-f", "mp4"},
	} {
		if !containsSeq(call, seq...) {
			t.Errorf("args %v missing %v", call, seq)
		}
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestRemuxer_MissingTracks(t *testing.T) {
	audioOnly, _ := media.NewAsset("/a.m4a", time.Second, []media.Track{{Index: 0, Kind: media.KindAudio}})
	noTracks, _ := media.NewAsset("/empty.m4a", time.Second, nil)

	tests := []struct {
		name  string
		video *media.Asset
		audio *media.Asset
		want  error
	}{
		{name: "no video track", video: audioOnly, audio: audioOnly, want: media.ErrNoVideoTrack},
		{name: "no audio track", video: videoAsset("/v.mp4", 1), audio: noTracks, want: media.ErrNoAudioTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			r := NewRemuxer(WithRemuxerCommandRunner(runner))
			err := r.Remux(context.Background(), tt.video, tt.audio, filepath.Join(t.TempDir(), "out.mp4"))
			if !errors.Is(err, tt.want) {
				t.Errorf("Remux() error = %v, want %v", err, tt.want)
			}
			if len(runner.calls) != 0 {
				t.Error("ffmpeg should not run")
			}
		})
	}
}

func TestExport_Cancelled(t *testing.T) {
	dir := t.TempDir()
	runner := &mockRunner{block: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	export := startExport(ctx, runner, "ffmpeg", filepath.Join(dir, "out.m4a"), "ipod", baseArgs())
	cancel()

	err := export.Wait()
	if !errors.Is(err, media.ErrExportFailed) {
		t.Errorf("Wait() error = %v, want ErrExportFailed", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if export.status != ExportCancelled {
		t.Errorf("status = %s, want cancelled", export.status)
	}
	if _, statErr := os.Stat(export.partial); !os.IsNotExist(statErr) {
		t.Error("partial export should be removed after cancellation")
	}
}

func TestCodec_DecodeAndEncode(t *testing.T) {
	dir := t.TempDir()
	runner := &mockRunner{writeOut: true}
	c := NewCodec(WithCodecCommandRunner(runner))

	wav := filepath.Join(dir, "decoded.wav")
	if err := c.DecodeToWAV(context.Background(), "/in/voice.m4a", wav); err != nil {
		t.Fatalf("DecodeToWAV() error = %v", err)
	}
	if !containsSeq(runner.lastCall(), "-c:a", "pcm_s16le", "-f", "wav", wav) {
		t.Errorf("decode args = %v", runner.lastCall())
	}

	dst := filepath.Join(dir, "filtered.m4a")
	if err := c.EncodeFromWAV(context.Background(), wav, dst); err != nil {
		t.Fatalf("EncodeFromWAV() error = %v", err)
	}
	if !containsSeq(runner.lastCall(), "-i", wav, "-c:a", "aac", "-b:a", DefaultAudioBitrate) {
		t.Errorf("encode args = %v", runner.lastCall())
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("encoded output missing: %v", err)
	}
}

func TestVerifyInstalled(t *testing.T) {
	ok := &mockRunner{output: []byte("ffmpeg version 6.1")}
	if err := NewExtractor(WithExtractorCommandRunner(ok)).VerifyInstalled(context.Background()); err != nil {
		t.Errorf("VerifyInstalled() error = %v", err)
	}

	missing := &mockRunner{runErr: errors.New("executable file not found")}
	if err := NewRemuxer(WithRemuxerCommandRunner(missing)).VerifyInstalled(context.Background()); err == nil {
		t.Error("VerifyInstalled() should fail when ffmpeg is missing")
	}
}

func TestHelpers(t *testing.T) {
	if got := partialPath("/s/remuxed.mp4"); got != "/s/remuxed.partial.mp4" {
		t.Errorf("partialPath() = %q", got)
	}
	muxers := map[string]string{"a.m4a": "ipod", "a.MOV": "mov", "a.aac": "adts", "a.caf": "caf", "a.wav": "wav", "a.mp4": "mp4"}
	for path, want := range muxers {
		if got := muxerFor(path); got != want {
			t.Errorf("muxerFor(%q) = %q, want %q", path, got, want)
		}
	}
	if got := lastLine("frame=1\nError opening input\n"); got != "Error opening input" {
		t.Errorf("lastLine() = %q", got)
	}
}
