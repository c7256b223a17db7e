package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voicefx-media/domain/effect"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
paths:
  library_directory: /media/videos
pipeline:
  stage_timeout: 5m
presets:
  robot:
    pitch_cents: -1200
    rate: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.LibraryDirectory != "/media/videos" {
		t.Errorf("LibraryDirectory = %q", cfg.Paths.LibraryDirectory)
	}
	if cfg.Pipeline.StageTimeout != 5*time.Minute {
		t.Errorf("StageTimeout = %v, want 5m", cfg.Pipeline.StageTimeout)
	}
	if cfg.Pipeline.LockTimeout != 5*time.Second {
		t.Errorf("LockTimeout = %v, want default 5s", cfg.Pipeline.LockTimeout)
	}
	if cfg.Render.MaxFrames != 4096 || cfg.Render.MaxRetries != 4096 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Audio.Bitrate != "192k" {
		t.Errorf("Bitrate = %q", cfg.Audio.Bitrate)
	}
	if cfg.Pipeline.Artifacts.Remuxed != "remuxed.mp4" {
		t.Errorf("Artifacts = %+v", cfg.Pipeline.Artifacts)
	}
	if cfg.Presets["robot"].PitchCents != -1200 {
		t.Errorf("Presets = %+v", cfg.Presets)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("paths: [unclosed"), 0644)
	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("logging:\n  format: xml\n"), 0644)

	for _, path := range []string{filepath.Join(dir, "missing.yaml"), bad, invalid} {
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s) should fail", filepath.Base(path))
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Render.Timeout = 90 * time.Second

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Render.Timeout != 90*time.Second {
		t.Errorf("Render.Timeout = %v, want 90s", loaded.Render.Timeout)
	}
}

func TestConfigManager_PresetCRUD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Defaults()
	m := NewConfigManager(cfg, path)

	if err := m.AddPreset("Robot", "Flat and low", -1200, 1.0); err != nil {
		t.Fatalf("AddPreset() error = %v", err)
	}
	if err := m.AddPreset("robot", "", 0, 1); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate AddPreset() error = %v, want ErrDuplicateKey", err)
	}
	if err := m.AddPreset("child", "", 0, 1); !errors.Is(err, ErrBuiltinPreset) {
		t.Errorf("AddPreset(child) error = %v, want ErrBuiltinPreset", err)
	}
	if err := m.AddPreset("fast", "", 0, 9); !errors.Is(err, effect.ErrInvalidParameters) {
		t.Errorf("AddPreset() out of range error = %v, want ErrInvalidParameters", err)
	}

	rate := 0.8
	if err := m.UpdatePreset("ROBOT", "", nil, &rate); err != nil {
		t.Fatalf("UpdatePreset() error = %v", err)
	}
	got, err := m.GetPreset("robot")
	if err != nil {
		t.Fatalf("GetPreset() error = %v", err)
	}
	if got.Rate != 0.8 || got.PitchCents != -1200 || got.Description != "Flat and low" {
		t.Errorf("GetPreset() = %+v", got)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Presets["robot"].Rate != 0.8 {
		t.Errorf("saved preset = %+v", reloaded.Presets["robot"])
	}

	if len(m.ListPresets()) != 1 {
		t.Errorf("ListPresets() = %v", m.ListPresets())
	}
	if err := m.RemovePreset("robot"); err != nil {
		t.Fatalf("RemovePreset() error = %v", err)
	}
	if _, err := m.GetPreset("robot"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("GetPreset() after remove error = %v, want ErrPresetNotFound", err)
	}
	if err := m.RemovePreset("man"); !errors.Is(err, ErrBuiltinPreset) {
		t.Errorf("RemovePreset(man) error = %v, want ErrBuiltinPreset", err)
	}
}

func TestPresetSet(t *testing.T) {
	cfg := Defaults()
	cfg.Presets = map[string]PresetConfig{"Robot": {PitchCents: -1200, Rate: 1}}

	set, err := PresetSet(cfg)
	if err != nil {
		t.Fatalf("PresetSet() error = %v", err)
	}
	if _, err := set.Lookup("robot"); err != nil {
		t.Errorf("Lookup(robot) error = %v", err)
	}
	if _, err := set.Lookup("child"); err != nil {
		t.Errorf("built-in presets should remain, got %v", err)
	}

	cfg.Presets = map[string]PresetConfig{"broken": {Rate: 0}}
	if _, err := PresetSet(cfg); !errors.Is(err, effect.ErrInvalidParameters) {
		t.Errorf("PresetSet() error = %v, want ErrInvalidParameters", err)
	}
}
