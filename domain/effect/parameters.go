package effect

import (
	"fmt"
	"math"
)

const (
	// MinPitchCents and MaxPitchCents bound the time-pitch unit
	MinPitchCents = -2400
	MaxPitchCents = 2400

	// MinRate and MaxRate bound the varispeed unit
	MinRate = 0.25
	MaxRate = 4.0
)

// Parameters are the adjustable values of the effect chain
type Parameters struct {
	PitchCents int     `yaml:"pitch_cents"`
	Rate       float64 `yaml:"rate"`
}

// Identity returns parameters that leave audio unchanged
func Identity() Parameters {
	return Parameters{PitchCents: 0, Rate: 1.0}
}

// Validate checks the rate invariant
func (p Parameters) Validate() error {
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) || p.Rate <= 0 {
		return fmt.Errorf("%w: rate must be a positive finite number, got %v", ErrInvalidParameters, p.Rate)
	}
	return nil
}

// Clamped returns a copy limited to the range the effect units support
func (p Parameters) Clamped() Parameters {
	c := p
	if c.PitchCents < MinPitchCents {
		c.PitchCents = MinPitchCents
	}
	if c.PitchCents > MaxPitchCents {
		c.PitchCents = MaxPitchCents
	}
	if c.Rate < MinRate {
		c.Rate = MinRate
	}
	if c.Rate > MaxRate {
		c.Rate = MaxRate
	}
	return c
}

// IsIdentity reports whether the parameters pass audio through untouched
func (p Parameters) IsIdentity() bool {
	return p.PitchCents == 0 && p.Rate == 1.0
}

// String returns e.g. "+1000c x1.10"
func (p Parameters) String() string {
	return fmt.Sprintf("%+dc x%.2f", p.PitchCents, p.Rate)
}
