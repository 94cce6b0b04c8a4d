package scoring

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when a weight set does not sum to 1.0 or has a
// negative member.
var ErrInvalidWeights = errors.New("invalid weight config")

const weightTolerance = 0.001

// FactorWeights defines the relative importance of each factor, in model order.
// All weights must sum to 1.0 (±0.001 tolerance).
type FactorWeights [FactorCount]float64

// Blend splits the final touchpoint score between the persona's intrinsic
// baseline and the portfolio's fulfillment.
type Blend struct {
	Baseline    float64 `json:"baseline"`
	Fulfillment float64 `json:"fulfillment"`
}

// ROIParams controls the linear ROI metric: impact points above Midpoint per
// Scale units of spend.
type ROIParams struct {
	Midpoint float64 `json:"midpoint"`
	Scale    float64 `json:"scale"`
}

// SecondaryWeight selects the persona field applied after relevance.
type SecondaryWeight string

const (
	SecondaryNone   SecondaryWeight = "none"
	SecondaryVolume SecondaryWeight = "volume"
	SecondaryScore  SecondaryWeight = "score"
)

// Config is the complete set of scoring parameters.
type Config struct {
	Model           Model           `json:"model"`
	Weights         FactorWeights   `json:"weights"`
	Blend           Blend           `json:"blend"`
	ROI             ROIParams       `json:"roi"`
	SecondaryWeight SecondaryWeight `json:"secondary_weight"`
}

// DefaultWeights returns the weights for the experience model.
func DefaultWeights() FactorWeights {
	return FactorWeights{0.4, 0.4, 0.2}
}

// EffortWeights returns the weights for the effort model.
func EffortWeights() FactorWeights {
	return FactorWeights{0.3, 0.4, 0.3}
}

// DefaultBlend returns the fixed 0.3/0.7 baseline/fulfillment split.
func DefaultBlend() Blend {
	return Blend{Baseline: 0.3, Fulfillment: 0.7}
}

// DefaultROI returns the neutral midpoint of 50 per $1000.
func DefaultROI() ROIParams {
	return ROIParams{Midpoint: 50, Scale: 1000}
}

// DefaultConfig is the experience model weighted by relevance only.
func DefaultConfig() Config {
	return Config{
		Model:           ExperienceModel(),
		Weights:         DefaultWeights(),
		Blend:           DefaultBlend(),
		ROI:             DefaultROI(),
		SecondaryWeight: SecondaryNone,
	}
}

// ConfigForModel returns the default config for a built-in model name.
func ConfigForModel(name string) (Config, error) {
	m, err := ModelByName(name)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	cfg.Model = m
	if m.Name == ModelEffort {
		cfg.Weights = EffortWeights()
	}
	return cfg, nil
}

// Sum returns the total of all weights.
func (w FactorWeights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w FactorWeights) Validate() error {
	for _, v := range w {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: negative weight: %f", ErrInvalidWeights, v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// Validate checks that the blend is a convex split.
func (b Blend) Validate() error {
	if b.Baseline < 0 || b.Fulfillment < 0 {
		return fmt.Errorf("%w: negative blend weight", ErrInvalidWeights)
	}
	if sum := b.Baseline + b.Fulfillment; math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: blend sums to %.4f, must sum to 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// Validate rejects any config the engine should not be constructed with.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Blend.Validate(); err != nil {
		return err
	}
	if c.ROI.Scale <= 0 || math.IsNaN(c.ROI.Midpoint) {
		return fmt.Errorf("roi scale must be positive, got %f", c.ROI.Scale)
	}
	switch c.SecondaryWeight {
	case SecondaryNone, SecondaryVolume, SecondaryScore:
	default:
		return fmt.Errorf("unknown secondary weight %q", c.SecondaryWeight)
	}
	seen := make(map[string]bool, FactorCount)
	for _, f := range c.Model.Factors {
		if f.Name == "" {
			return fmt.Errorf("model %q has an unnamed factor", c.Model.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("model %q repeats factor %q", c.Model.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Polarity != HigherIsBetter && f.Polarity != LowerIsBetter {
			return fmt.Errorf("factor %q has unknown polarity %q", f.Name, f.Polarity)
		}
	}
	return nil
}
