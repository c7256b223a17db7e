package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"voicefx-media/domain/effect"
)

// Errors for config management
var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrDuplicateKey   = errors.New("key already exists")
	ErrBuiltinPreset  = errors.New("built-in presets cannot be changed")
)

// ConfigManager provides CRUD operations for user-defined presets
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Preset is a user-defined preset entry
type Preset struct {
	Key         string
	Description string
	PitchCents  int
	Rate        float64
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func isBuiltin(key string) bool {
	_, err := effect.LookupPreset(key)
	return err == nil
}

func validateValues(pitchCents int, rate float64) error {
	params := effect.Parameters{PitchCents: pitchCents, Rate: rate}
	if err := params.Validate(); err != nil {
		return err
	}
	if params.Clamped() != params {
		return fmt.Errorf("%w: %s is outside pitch %d..%d cents or rate %.2f..%.2f",
			effect.ErrInvalidParameters, params, effect.MinPitchCents, effect.MaxPitchCents, effect.MinRate, effect.MaxRate)
	}
	return nil
}

// AddPreset adds a new preset to config
func (m *ConfigManager) AddPreset(key, description string, pitchCents int, rate float64) error {
	key = normalizeKey(key)
	if key == "" {
		return fmt.Errorf("preset key is required")
	}
	if isBuiltin(key) {
		return fmt.Errorf("%w: %q", ErrBuiltinPreset, key)
	}
	if err := validateValues(pitchCents, rate); err != nil {
		return err
	}

	if m.config.Presets == nil {
		m.config.Presets = make(map[string]PresetConfig)
	}
	if _, exists := m.config.Presets[key]; exists {
		return fmt.Errorf("%w: preset %q", ErrDuplicateKey, key)
	}

	m.config.Presets[key] = PresetConfig{
		Description: strings.TrimSpace(description),
		PitchCents:  pitchCents,
		Rate:        rate,
	}
	return Save(m.config, m.configPath)
}

// ListPresets returns all user-defined presets sorted by key
func (m *ConfigManager) ListPresets() []Preset {
	result := make([]Preset, 0, len(m.config.Presets))
	for key, pc := range m.config.Presets {
		result = append(result, Preset{
			Key:         key,
			Description: pc.Description,
			PitchCents:  pc.PitchCents,
			Rate:        pc.Rate,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// GetPreset gets a preset by key (case-insensitive)
func (m *ConfigManager) GetPreset(key string) (Preset, error) {
	key = normalizeKey(key)
	if pc, exists := m.config.Presets[key]; exists {
		return Preset{Key: key, Description: pc.Description, PitchCents: pc.PitchCents, Rate: pc.Rate}, nil
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, key)
}

// RemovePreset removes a preset by key
func (m *ConfigManager) RemovePreset(key string) error {
	key = normalizeKey(key)
	if isBuiltin(key) {
		return fmt.Errorf("%w: %q", ErrBuiltinPreset, key)
	}
	if _, exists := m.config.Presets[key]; !exists {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, key)
	}

	delete(m.config.Presets, key)
	return Save(m.config, m.configPath)
}

// UpdatePreset changes the values of an existing preset.
// A nil pitch or rate keeps the stored value; an empty description keeps the old one.
func (m *ConfigManager) UpdatePreset(key, description string, pitchCents *int, rate *float64) error {
	key = normalizeKey(key)
	pc, exists := m.config.Presets[key]
	if !exists {
		return fmt.Errorf("%w: %q", ErrPresetNotFound, key)
	}

	if d := strings.TrimSpace(description); d != "" {
		pc.Description = d
	}
	if pitchCents != nil {
		pc.PitchCents = *pitchCents
	}
	if rate != nil {
		pc.Rate = *rate
	}
	if err := validateValues(pc.PitchCents, pc.Rate); err != nil {
		return err
	}

	m.config.Presets[key] = pc
	return Save(m.config, m.configPath)
}

// PresetSet returns the built-in presets extended with the configured ones
func PresetSet(cfg *Config) (*effect.Presets, error) {
	if cfg == nil || len(cfg.Presets) == 0 {
		return effect.DefaultPresets(), nil
	}

	extra := make([]effect.Preset, 0, len(cfg.Presets))
	for key, pc := range cfg.Presets {
		extra = append(extra, effect.Preset{
			Name:        key,
			Description: pc.Description,
			Parameters:  effect.Parameters{PitchCents: pc.PitchCents, Rate: pc.Rate},
		})
	}
	return effect.DefaultPresets().With(extra...)
}
