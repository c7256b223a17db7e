package render

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"voicefx-media/domain/audio"
	"voicefx-media/domain/effect"
	"voicefx-media/domain/render"
)

// --- Mock implementations for testing ---

var testFormat = audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

// mockStream implements audio.Stream with a fixed length of silence
type mockStream struct {
	format audio.Format
	length int64
	read   int64
	closed bool
}

func (m *mockStream) Format() audio.Format { return m.format }
func (m *mockStream) Length() int64        { return m.length }
func (m *mockStream) Close() error         { m.closed = true; return nil }

func (m *mockStream) ReadFrames(buf *audio.Buffer) (int, error) {
	remaining := m.length - m.read
	if remaining <= 0 {
		buf.Frames = 0
		return 0, io.EOF
	}
	n := int(min(remaining, int64(buf.Cap())))
	buf.Frames = n
	m.read += int64(n)
	return n, nil
}

// mockSink implements audio.Sink by counting frames. It creates the file on disk so
// cleanup of partial output can be observed.
type mockSink struct {
	format   audio.Format
	path     string
	frames   int64
	writes   int
	closed   bool
	closeErr error
}

func (m *mockSink) Format() audio.Format { return m.format }

func (m *mockSink) Write(buf *audio.Buffer) error {
	m.frames += int64(buf.Frames)
	m.writes++
	return nil
}

func (m *mockSink) Close() error {
	m.closed = true
	return m.closeErr
}

// mockFileIO implements audio.FileIO
type mockFileIO struct {
	sink     *mockSink
	writeErr error
}

func (m *mockFileIO) OpenForReading(_ context.Context, path string) (audio.Stream, error) {
	return nil, audio.ErrNotFound
}

func (m *mockFileIO) OpenForWriting(_ context.Context, path string, format audio.Format) (audio.Sink, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	if err := os.WriteFile(path, []byte("partial"), 0644); err != nil {
		return nil, err
	}
	m.sink = &mockSink{format: format, path: path}
	return m.sink, nil
}

// mockEngine implements render.Engine with scripted statuses
type mockEngine struct {
	// script is consumed one status per Render call; when empty, success is returned
	script     []render.Status
	always     *render.Status
	renderErr  error
	prepareErr error
	startErr   error

	sampleTime int64
	prepared   bool
	running    bool
	stops      int
	resets     int
	calls      int
}

func (m *mockEngine) Prepare(stream audio.Stream, graph *effect.Graph, maxFrames int) error {
	if m.prepareErr != nil {
		return m.prepareErr
	}
	m.prepared = true
	return nil
}

func (m *mockEngine) Start() error {
	if m.startErr != nil {
		return m.startErr
	}
	m.running = true
	return nil
}

func (m *mockEngine) Render(frames int, buf *audio.Buffer) (render.Status, error) {
	m.calls++
	if m.renderErr != nil {
		return render.StatusError, m.renderErr
	}

	status := render.StatusSuccess
	switch {
	case m.always != nil:
		status = *m.always
	case len(m.script) > 0:
		status = m.script[0]
		m.script = m.script[1:]
	}

	if status != render.StatusSuccess {
		buf.Frames = 0
		return status, nil
	}
	buf.Frames = frames
	m.sampleTime += int64(frames)
	return status, nil
}

func (m *mockEngine) SampleTime() int64 { return m.sampleTime }
func (m *mockEngine) Stop()             { m.running = false; m.stops++ }

func (m *mockEngine) Reset() {
	m.resets++
	m.prepared = false
	m.running = false
	m.sampleTime = 0
}

func statusPtr(s render.Status) *render.Status { return &s }

func newGraph(t *testing.T, params effect.Parameters) *effect.Graph {
	t.Helper()
	g, err := effect.NewGraph(params, testFormat)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

// --- Tests ---

func TestRenderer_RendersTargetLength(t *testing.T) {
	tests := []struct {
		name   string
		params effect.Parameters
		length int64
		want   int64
	}{
		{name: "identity", params: effect.Identity(), length: 44100, want: 44100},
		{name: "faster rate shortens output", params: effect.Parameters{PitchCents: 1000, Rate: 1.1}, length: 441000, want: 400909},
		{name: "slower rate lengthens output", params: effect.Parameters{PitchCents: -500, Rate: 0.9}, length: 9000, want: 10000},
		{name: "empty input", params: effect.Identity(), length: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{}
			fileIO := &mockFileIO{}
			r := NewRenderer(engine, fileIO, Options{})
			out := filepath.Join(t.TempDir(), "out.wav")

			if err := r.Configure(context.Background(), &mockStream{format: testFormat, length: tt.length}, newGraph(t, tt.params), out); err != nil {
				t.Fatalf("Configure() error = %v", err)
			}
			if r.State() != render.StateConfigured {
				t.Errorf("State() = %s, want configured", r.State())
			}

			result, err := r.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if result.Frames != tt.want {
				t.Errorf("Frames = %d, want %d", result.Frames, tt.want)
			}
			if fileIO.sink.frames != tt.want {
				t.Errorf("sink received %d frames, want %d", fileIO.sink.frames, tt.want)
			}
			if !fileIO.sink.closed {
				t.Error("sink was not closed")
			}
			if engine.stops == 0 {
				t.Error("engine was not stopped")
			}
			if r.State() != render.StateCompleted {
				t.Errorf("State() = %s, want completed", r.State())
			}
		})
	}
}

func TestRenderer_RetriesBusyAndStarvedCalls(t *testing.T) {
	engine := &mockEngine{script: []render.Status{
		render.StatusBusy,
		render.StatusInsufficientInput,
		render.StatusSuccess,
		render.StatusBusy,
	}}
	fileIO := &mockFileIO{}
	r := NewRenderer(engine, fileIO, Options{MaxFrames: 1000})
	out := filepath.Join(t.TempDir(), "out.wav")

	if err := r.Configure(context.Background(), &mockStream{format: testFormat, length: 3000}, newGraph(t, effect.Identity()), out); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Frames != 3000 {
		t.Errorf("Frames = %d, want 3000", result.Frames)
	}
	if result.Retries != 3 {
		t.Errorf("Retries = %d, want 3", result.Retries)
	}
	if fileIO.sink.writes != 3 {
		t.Errorf("writes = %d, want 3", fileIO.sink.writes)
	}
	if result.ConsumedFrames != -1 {
		t.Errorf("ConsumedFrames = %d, want -1 for an engine without an input count", result.ConsumedFrames)
	}
}

// countingEngine reports a fixed input count the way the DSP engine does
type countingEngine struct {
	*mockEngine
	consumed int64
}

func (c *countingEngine) SourceConsumed() int64 { return c.consumed }

func TestRenderer_ReportsConsumedInput(t *testing.T) {
	engine := &countingEngine{mockEngine: &mockEngine{}, consumed: 2998}
	r := NewRenderer(engine, &mockFileIO{}, Options{MaxFrames: 1000})

	result, err := r.RenderFile(context.Background(), &mockStream{format: testFormat, length: 3000},
		newGraph(t, effect.Identity()), filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}
	if result.InputFrames != 3000 || result.ConsumedFrames != 2998 {
		t.Errorf("InputFrames = %d, ConsumedFrames = %d", result.InputFrames, result.ConsumedFrames)
	}
}

func TestRenderer_PermanentlyBusyEngineFails(t *testing.T) {
	engine := &mockEngine{always: statusPtr(render.StatusBusy)}
	fileIO := &mockFileIO{}
	r := NewRenderer(engine, fileIO, Options{MaxRetries: 8})
	out := filepath.Join(t.TempDir(), "out.wav")

	if err := r.Configure(context.Background(), &mockStream{format: testFormat, length: 100}, newGraph(t, effect.Identity()), out); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	_, err := r.Run(context.Background())
	if !errors.Is(err, render.ErrEngineFailure) {
		t.Fatalf("Run() error = %v, want ErrEngineFailure", err)
	}
	if engine.calls != 9 {
		t.Errorf("Render called %d times, want 9", engine.calls)
	}
	if r.State() != render.StateFailed {
		t.Errorf("State() = %s, want failed", r.State())
	}
	if !fileIO.sink.closed {
		t.Error("sink was not closed after failure")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("partial output was not removed")
	}
}

func TestRenderer_ErrorStatusFails(t *testing.T) {
	tests := []struct {
		name   string
		engine *mockEngine
	}{
		{name: "error status", engine: &mockEngine{script: []render.Status{render.StatusSuccess, render.StatusError}}},
		{name: "render error", engine: &mockEngine{renderErr: errors.New("node exploded")}},
		{name: "start error", engine: &mockEngine{startErr: errors.New("cannot start")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileIO := &mockFileIO{}
			r := NewRenderer(tt.engine, fileIO, Options{MaxFrames: 10})
			out := filepath.Join(t.TempDir(), "out.wav")

			if err := r.Configure(context.Background(), &mockStream{format: testFormat, length: 100}, newGraph(t, effect.Identity()), out); err != nil {
				t.Fatalf("Configure() error = %v", err)
			}
			_, err := r.Run(context.Background())
			if !errors.Is(err, render.ErrEngineFailure) {
				t.Errorf("Run() error = %v, want ErrEngineFailure", err)
			}
			if tt.engine.stops == 0 {
				t.Error("engine was not stopped")
			}
		})
	}
}

func TestRenderer_CancelledContextFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fileIO := &mockFileIO{}
	r := NewRenderer(&mockEngine{}, fileIO, Options{})
	out := filepath.Join(t.TempDir(), "out.wav")
	if err := r.Configure(context.Background(), &mockStream{format: testFormat, length: 100}, newGraph(t, effect.Identity()), out); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	_, err := r.Run(ctx)
	if !errors.Is(err, render.ErrEngineFailure) || !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want ErrEngineFailure wrapping context.Canceled", err)
	}
}

func TestRenderer_ConfigureErrors(t *testing.T) {
	mono := audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}

	tests := []struct {
		name   string
		stream audio.Stream
		engine *mockEngine
		fileIO *mockFileIO
		want   error
	}{
		{
			name:   "format mismatch",
			stream: &mockStream{format: mono, length: 10},
			engine: &mockEngine{},
			fileIO: &mockFileIO{},
			want:   effect.ErrFormatMismatch,
		},
		{
			name:   "engine prepare failure",
			stream: &mockStream{format: testFormat, length: 10},
			engine: &mockEngine{prepareErr: errors.New("no nodes")},
			fileIO: &mockFileIO{},
			want:   render.ErrConfigInvalid,
		},
		{
			name:   "destination cannot be created",
			stream: &mockStream{format: testFormat, length: 10},
			engine: &mockEngine{},
			fileIO: &mockFileIO{writeErr: audio.ErrCannotCreate},
			want:   audio.ErrCannotCreate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(tt.engine, tt.fileIO, Options{})
			err := r.Configure(context.Background(), tt.stream, newGraph(t, effect.Identity()), filepath.Join(t.TempDir(), "out.wav"))
			if !errors.Is(err, render.ErrConfigInvalid) {
				t.Errorf("Configure() error = %v, want ErrConfigInvalid", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Configure() error = %v, want %v", err, tt.want)
			}
			if r.State() != render.StateIdle {
				t.Errorf("State() = %s, want idle", r.State())
			}
		})
	}
}

func TestRenderer_InvalidStateTransitions(t *testing.T) {
	r := NewRenderer(&mockEngine{}, &mockFileIO{}, Options{})

	if _, err := r.Run(context.Background()); !errors.Is(err, render.ErrInvalidState) {
		t.Errorf("Run() on idle renderer error = %v, want ErrInvalidState", err)
	}

	out := filepath.Join(t.TempDir(), "out.wav")
	stream := &mockStream{format: testFormat, length: 10}
	if err := r.Configure(context.Background(), stream, newGraph(t, effect.Identity()), out); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if err := r.Configure(context.Background(), stream, newGraph(t, effect.Identity()), out); !errors.Is(err, render.ErrInvalidState) {
		t.Errorf("second Configure() error = %v, want ErrInvalidState", err)
	}

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := r.Run(context.Background()); !errors.Is(err, render.ErrInvalidState) {
		t.Errorf("Run() on completed renderer error = %v, want ErrInvalidState", err)
	}
}

func TestRenderer_ResetAllowsReuse(t *testing.T) {
	engine := &mockEngine{}
	fileIO := &mockFileIO{}
	r := NewRenderer(engine, fileIO, Options{})
	dir := t.TempDir()

	for i, name := range []string{"first.wav", "second.wav"} {
		result, err := r.RenderFile(context.Background(), &mockStream{format: testFormat, length: 500}, newGraph(t, effect.Identity()), filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("pass %d: RenderFile() error = %v", i, err)
		}
		if result.Frames != 500 {
			t.Errorf("pass %d: Frames = %d, want 500", i, result.Frames)
		}
		if r.State() != render.StateIdle {
			t.Errorf("pass %d: State() = %s, want idle after RenderFile", i, r.State())
		}
	}
	if engine.resets != 2 {
		t.Errorf("engine reset %d times, want 2", engine.resets)
	}
}
