package effect

import (
	"fmt"
	"sort"
	"strings"
)

// Preset is a named combination of effect parameters
type Preset struct {
	Name        string
	Description string
	Parameters  Parameters
	Legacy      bool
}

var builtinPresets = []Preset{
	{Name: "child", Description: "Higher and slightly faster", Parameters: Parameters{PitchCents: 1000, Rate: 1.1}},
	{Name: "man", Description: "Lower and slightly slower", Parameters: Parameters{PitchCents: -500, Rate: 0.9}},
	{Name: "alien", Description: "High and fast", Parameters: Parameters{PitchCents: 700, Rate: 1.25}},
	{Name: "filter1", Description: "Legacy filter 1", Parameters: Parameters{PitchCents: 1000, Rate: 1.1}, Legacy: true},
	{Name: "filter2", Description: "Legacy filter 2", Parameters: Parameters{PitchCents: 100, Rate: 0.9}, Legacy: true},
}

// Presets is a fixed, name-indexed preset set
type Presets struct {
	byName map[string]Preset
}

// DefaultPresets returns the built-in preset set
func DefaultPresets() *Presets {
	p, _ := NewPresets(builtinPresets...)
	return p
}

// NewPresets builds a preset set, rejecting duplicates and invalid parameters
func NewPresets(presets ...Preset) (*Presets, error) {
	p := &Presets{byName: make(map[string]Preset, len(presets))}
	for _, preset := range presets {
		if err := p.add(preset); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// With returns a copy of the set with extra presets added or replaced
func (p *Presets) With(extra ...Preset) (*Presets, error) {
	out := &Presets{byName: make(map[string]Preset, len(p.byName)+len(extra))}
	for k, v := range p.byName {
		out.byName[k] = v
	}
	for _, preset := range extra {
		delete(out.byName, normalizeName(preset.Name))
		if err := out.add(preset); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Presets) add(preset Preset) error {
	name := normalizeName(preset.Name)
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	if _, exists := p.byName[name]; exists {
		return fmt.Errorf("duplicate preset %q", name)
	}
	if err := preset.Parameters.Validate(); err != nil {
		return fmt.Errorf("preset %q: %w", name, err)
	}
	preset.Name = name
	p.byName[name] = preset
	return nil
}

// Lookup returns the preset with the given name (case-insensitive)
func (p *Presets) Lookup(name string) (Preset, error) {
	preset, ok := p.byName[normalizeName(name)]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return preset, nil
}

// All returns the presets sorted with current presets before legacy ones
func (p *Presets) All() []Preset {
	out := make([]Preset, 0, len(p.byName))
	for _, preset := range p.byName {
		out = append(out, preset)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Legacy != out[j].Legacy {
			return !out[i].Legacy
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// LookupPreset looks a name up in the built-in preset set
func LookupPreset(name string) (Preset, error) {
	return DefaultPresets().Lookup(name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
