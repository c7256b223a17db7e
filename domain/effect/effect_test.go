package effect

import (
	"errors"
	"math"
	"testing"

	"voicefx-media/domain/audio"
)

var stereo = audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

func TestParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Parameters
		wantErr bool
	}{
		{name: "identity", params: Identity()},
		{name: "child", params: Parameters{PitchCents: 1000, Rate: 1.1}},
		{name: "zero rate", params: Parameters{Rate: 0}, wantErr: true},
		{name: "negative rate", params: Parameters{Rate: -1}, wantErr: true},
		{name: "NaN rate", params: Parameters{Rate: math.NaN()}, wantErr: true},
		{name: "infinite rate", params: Parameters{Rate: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParameters) {
				t.Errorf("Validate() error = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestParameters_Clamped(t *testing.T) {
	got := Parameters{PitchCents: 5000, Rate: 10}.Clamped()
	if got.PitchCents != MaxPitchCents || got.Rate != MaxRate {
		t.Errorf("Clamped() = %+v", got)
	}
	got = Parameters{PitchCents: -5000, Rate: 0.01}.Clamped()
	if got.PitchCents != MinPitchCents || got.Rate != MinRate {
		t.Errorf("Clamped() = %+v", got)
	}
	if s := (Parameters{PitchCents: 1000, Rate: 1.1}).String(); s != "+1000c x1.10" {
		t.Errorf("String() = %q", s)
	}
}

func TestPresets_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		wantCents int
		wantRate  float64
		legacy    bool
	}{
		{name: "child", wantCents: 1000, wantRate: 1.1},
		{name: "MAN", wantCents: -500, wantRate: 0.9},
		{name: " alien ", wantCents: 700, wantRate: 1.25},
		{name: "filter1", wantCents: 1000, wantRate: 1.1, legacy: true},
		{name: "filter2", wantCents: 100, wantRate: 0.9, legacy: true},
	}

	presets := DefaultPresets()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := presets.Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if p.Parameters.PitchCents != tt.wantCents || p.Parameters.Rate != tt.wantRate || p.Legacy != tt.legacy {
				t.Errorf("Lookup() = %+v", p)
			}
		})
	}

	if _, err := LookupPreset("robot"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Lookup(robot) error = %v, want ErrUnknownPreset", err)
	}
}

func TestPresets_WithAndAll(t *testing.T) {
	custom, err := DefaultPresets().With(
		Preset{Name: "Robot", Parameters: Parameters{PitchCents: -1200, Rate: 1}},
		Preset{Name: "child", Parameters: Parameters{PitchCents: 1200, Rate: 1.2}},
	)
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}

	child, _ := custom.Lookup("child")
	if child.Parameters.PitchCents != 1200 {
		t.Errorf("overridden child = %+v", child)
	}

	all := custom.All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	want := []string{"alien", "child", "man", "robot", "filter1", "filter2"}
	if len(names) != len(want) {
		t.Fatalf("All() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if _, err := NewPresets(Preset{Name: "a", Parameters: Identity()}, Preset{Name: "A", Parameters: Identity()}); err == nil {
		t.Error("duplicate names should be rejected")
	}
	if _, err := NewPresets(Preset{Name: "bad", Parameters: Parameters{Rate: 0}}); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("invalid preset error = %v, want ErrInvalidParameters", err)
	}
}

func TestGraph_Validate(t *testing.T) {
	g, err := NewGraph(Parameters{PitchCents: 1000, Rate: 1.1}, stereo)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if len(g.Nodes()) != 4 {
		t.Errorf("Nodes() = %d, want 4", len(g.Nodes()))
	}

	mono := audio.Format{SampleRate: 44100, Channels: 1, BitDepth: 16}
	if err := g.Accepts(mono); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Accepts(mono) error = %v, want ErrFormatMismatch", err)
	}

	g.SetNodeFormat(NodePitchShift, mono, mono)
	if err := g.Validate(); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Validate() after mismatched node error = %v, want ErrFormatMismatch", err)
	}
}

func TestNewGraph_Errors(t *testing.T) {
	if _, err := NewGraph(Parameters{Rate: 0}, stereo); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("NewGraph() with zero rate error = %v", err)
	}
	if _, err := NewGraph(Identity(), audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 12}); err == nil {
		t.Error("NewGraph() with 12-bit format should fail")
	}
}

func TestGraph_OutputFrames(t *testing.T) {
	tests := []struct {
		rate  float64
		input int64
		want  int64
	}{
		{rate: 1.0, input: 441000, want: 441000},
		{rate: 1.1, input: 441000, want: 400909},
		{rate: 0.9, input: 441000, want: 490000},
		{rate: 2.0, input: 3, want: 2},
		{rate: 1.1, input: 0, want: 0},
	}

	for _, tt := range tests {
		g, err := NewGraph(Parameters{Rate: tt.rate}, stereo)
		if err != nil {
			t.Fatalf("NewGraph() error = %v", err)
		}
		if got := g.OutputFrames(tt.input); got != tt.want {
			t.Errorf("rate %v: OutputFrames(%d) = %d, want %d", tt.rate, tt.input, got, tt.want)
		}
	}
}
