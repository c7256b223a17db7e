package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the configuration file
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths    PathsConfig             `yaml:"paths"`
	Audio    AudioConfig             `yaml:"audio"`
	Render   RenderConfig            `yaml:"render"`
	Pipeline PipelineConfig          `yaml:"pipeline"`
	Presets  map[string]PresetConfig `yaml:"presets,omitempty"`
	Google   GoogleConfig            `yaml:"google"`
	Logging  LoggingConfig           `yaml:"logging"`
	FFmpeg   FFmpegConfig            `yaml:"ffmpeg"`
}

// PathsConfig contains the directories the pipeline reads from and writes to
type PathsConfig struct {
	LibraryDirectory string `yaml:"library_directory"`
	CacheDirectory   string `yaml:"cache_directory"`
	ScratchDirectory string `yaml:"scratch_directory"`
}

// AudioConfig contains encoding settings for extracted and rendered audio
type AudioConfig struct {
	Bitrate string `yaml:"bitrate"`
}

// RenderConfig bounds the offline render loop
type RenderConfig struct {
	MaxFrames  int           `yaml:"max_frames"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig contains transform run settings
type PipelineConfig struct {
	StageTimeout time.Duration   `yaml:"stage_timeout"`
	LockTimeout  time.Duration   `yaml:"lock_timeout"`
	Artifacts    ArtifactsConfig `yaml:"artifacts"`
}

// ArtifactsConfig names the transient files in the scratch directory
type ArtifactsConfig struct {
	Extracted string `yaml:"extracted"`
	Filtered  string `yaml:"filtered"`
	Remuxed   string `yaml:"remuxed"`
}

// PresetConfig is a user-defined preset
type PresetConfig struct {
	Description string  `yaml:"description,omitempty"`
	PitchCents  int     `yaml:"pitch_cents"`
	Rate        float64 `yaml:"rate"`
}

// GoogleConfig contains Google API settings for the Drive asset source
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// LoggingConfig selects log verbosity and output format
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FFmpegConfig locates the external media tools
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// Defaults returns a configuration usable without a config file
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Paths.LibraryDirectory == "" {
		c.Paths.LibraryDirectory = "."
	}
	if c.Paths.CacheDirectory == "" {
		c.Paths.CacheDirectory = filepath.Join(os.TempDir(), "voicefx", "cache")
	}
	if c.Paths.ScratchDirectory == "" {
		c.Paths.ScratchDirectory = filepath.Join(os.TempDir(), "voicefx", "scratch")
	}
	if c.Audio.Bitrate == "" {
		c.Audio.Bitrate = "192k"
	}
	if c.Render.MaxFrames == 0 {
		c.Render.MaxFrames = 4096
	}
	if c.Render.MaxRetries == 0 {
		c.Render.MaxRetries = 4096
	}
	if c.Pipeline.StageTimeout == 0 {
		c.Pipeline.StageTimeout = 30 * time.Minute
	}
	if c.Pipeline.LockTimeout == 0 {
		c.Pipeline.LockTimeout = 5 * time.Second
	}
	if c.Pipeline.Artifacts.Extracted == "" {
		c.Pipeline.Artifacts.Extracted = "extracted.m4a"
	}
	if c.Pipeline.Artifacts.Filtered == "" {
		c.Pipeline.Artifacts.Filtered = "filtered.m4a"
	}
	if c.Pipeline.Artifacts.Remuxed == "" {
		c.Pipeline.Artifacts.Remuxed = "remuxed.mp4"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
}

// Validate checks values that would only fail later, deep inside a run
func (c *Config) Validate() error {
	var errs []error
	if c.Render.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("render.max_frames must not be negative"))
	}
	if c.Render.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("render.max_retries must not be negative"))
	}
	if c.Render.Timeout < 0 || c.Pipeline.StageTimeout < 0 || c.Pipeline.LockTimeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts must not be negative"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, text or json, got %q", c.Logging.Format))
	}
	for name, p := range c.Presets {
		if p.Rate <= 0 {
			errs = append(errs, fmt.Errorf("preset %q: rate must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// Load reads and parses the configuration from the specified YAML file.
// Missing values are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
