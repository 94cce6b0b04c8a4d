package scoring

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidVector is returned when a named vector does not match the model's factors.
var ErrInvalidVector = errors.New("invalid factor vector")

// FactorCount is the number of factors in every need and fulfillment vector.
const FactorCount = 3

// Polarity declares which direction of a raw factor value is the better experience.
type Polarity string

const (
	HigherIsBetter Polarity = "higher"
	LowerIsBetter  Polarity = "lower"
)

// Factor names one dimension of the need/fulfillment vectors.
type Factor struct {
	Name     string   `json:"name" yaml:"name"`
	Polarity Polarity `json:"polarity" yaml:"polarity"`
}

// Model is the ordered set of factors shared by need and fulfillment vectors.
type Model struct {
	Name    string              `json:"name"`
	Factors [FactorCount]Factor `json:"factors"`
}

const (
	ModelExperience = "experience"
	ModelEffort     = "effort"
)

// ExperienceModel is the speed/simplicity/personalization scheme. All factors
// are higher-is-better.
func ExperienceModel() Model {
	return Model{
		Name: ModelExperience,
		Factors: [FactorCount]Factor{
			{Name: "speed", Polarity: HigherIsBetter},
			{Name: "simplicity", Polarity: HigherIsBetter},
			{Name: "personalization", Polarity: HigherIsBetter},
		},
	}
}

// EffortModel is the CES/mitigated-painpoints/WOW-moments scheme. The customer
// effort score is inverted: 0 is the best experience.
func EffortModel() Model {
	return Model{
		Name: ModelEffort,
		Factors: [FactorCount]Factor{
			{Name: "ces", Polarity: LowerIsBetter},
			{Name: "mitigated_painpoints", Polarity: HigherIsBetter},
			{Name: "wow_moments", Polarity: HigherIsBetter},
		},
	}
}

// ModelByName resolves one of the built-in factor models.
func ModelByName(name string) (Model, error) {
	switch name {
	case "", ModelExperience:
		return ExperienceModel(), nil
	case ModelEffort:
		return EffortModel(), nil
	default:
		return Model{}, fmt.Errorf("unknown scoring model %q", name)
	}
}

// FactorNames returns the factor names in vector order.
func (m Model) FactorNames() []string {
	names := make([]string, FactorCount)
	for i, f := range m.Factors {
		names[i] = f.Name
	}
	return names
}

func (m Model) factorIndex(name string) int {
	for i, f := range m.Factors {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// NeedVector is a persona's intrinsic expectation per factor, each in [0,100].
type NeedVector [FactorCount]float64

// FulfillmentVector is a service's capability per factor, each in [0,100].
// Values are always on the higher-is-better scale, including for inverted
// factors where they express effort reduction.
type FulfillmentVector [FactorCount]float64

// NamedVector is the factor-name keyed representation used on the wire and in
// scenario files.
type NamedVector map[string]float64

// DecodeVector maps a named vector onto the model's factor order. Every factor
// must be present and no unknown names are accepted.
func DecodeVector[V ~[FactorCount]float64](m Model, in NamedVector) (V, error) {
	var v V
	for name := range in {
		if m.factorIndex(name) < 0 {
			return v, fmt.Errorf("%w: unknown factor %q for model %s", ErrInvalidVector, name, m.Name)
		}
	}
	for i, f := range m.Factors {
		val, ok := in[f.Name]
		if !ok {
			return v, fmt.Errorf("%w: missing factor %q", ErrInvalidVector, f.Name)
		}
		v[i] = val
	}
	return v, nil
}

// EncodeVector is the inverse of DecodeVector.
func EncodeVector[V ~[FactorCount]float64](m Model, v V) NamedVector {
	out := make(NamedVector, FactorCount)
	for i, f := range m.Factors {
		out[f.Name] = v[i]
	}
	return out
}

// DecodeVectors decodes a touchpoint-keyed map of named vectors.
func DecodeVectors[V ~[FactorCount]float64](m Model, in map[string]NamedVector) (map[string]V, error) {
	out := make(map[string]V, len(in))
	for tp, nv := range in {
		v, err := DecodeVector[V](m, nv)
		if err != nil {
			return nil, fmt.Errorf("touchpoint %s: %w", tp, err)
		}
		out[tp] = v
	}
	return out, nil
}

// EncodeVectors is the inverse of DecodeVectors.
func EncodeVectors[V ~[FactorCount]float64](m Model, in map[string]V) map[string]NamedVector {
	out := make(map[string]NamedVector, len(in))
	for tp, v := range in {
		out[tp] = EncodeVector(m, v)
	}
	return out
}

// TouchPoint is a stage in a customer or asset lifecycle. Reference data only.
type TouchPoint struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Persona is a customer or asset segment with its own need profile.
type Persona struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Group       string                `json:"group,omitempty"`
	Relevance   float64               `json:"relevance"`
	Volume      float64               `json:"volume"`
	Score       float64               `json:"score"`
	Needs       map[string]NeedVector `json:"needs"`
	Journey     []string              `json:"journey"`
}

// Clone returns a deep copy.
func (p Persona) Clone() Persona {
	c := p
	if p.Needs != nil {
		c.Needs = make(map[string]NeedVector, len(p.Needs))
		for k, v := range p.Needs {
			c.Needs[k] = v
		}
	}
	if p.Journey != nil {
		c.Journey = append([]string(nil), p.Journey...)
	}
	return c
}

// Service is a candidate investment that can be toggled in and out of the simulation.
type Service struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Cost        float64                      `json:"cost"`
	Enabled     bool                         `json:"enabled"`
	Fulfillment map[string]FulfillmentVector `json:"fulfillment"`
}

// Clone returns a deep copy.
func (s Service) Clone() Service {
	c := s
	if s.Fulfillment != nil {
		c.Fulfillment = make(map[string]FulfillmentVector, len(s.Fulfillment))
		for k, v := range s.Fulfillment {
			c.Fulfillment[k] = v
		}
	}
	return c
}

// TouchPointImpact is the derived score of one persona at one touchpoint.
type TouchPointImpact struct {
	TouchPointID string `json:"touch_point_id"`
	Score        int    `json:"score"`
	Improvement  int    `json:"improvement"`
}

// PersonaImpact is the derived aggregate for one persona.
type PersonaImpact struct {
	PersonaID         string             `json:"persona_id"`
	OverallScore      int                `json:"overall_score"`
	WeightedScore     int                `json:"weighted_score"`
	TouchPointImpacts []TouchPointImpact `json:"touch_point_impacts"`
}

// SimulationState is the portfolio-wide result of one recomputation.
type SimulationState struct {
	TotalCost       float64         `json:"total_cost"`
	OverallImpact   int             `json:"overall_impact"`
	PersonaImpacts  []PersonaImpact `json:"persona_impacts"`
	EnabledServices int             `json:"enabled_services"`
	ROI             int             `json:"roi"`
	Warnings        []Warning       `json:"warnings,omitempty"`
}

// ImpactFor returns the impact for the given persona, if present.
func (s SimulationState) ImpactFor(personaID string) (PersonaImpact, bool) {
	for _, pi := range s.PersonaImpacts {
		if pi.PersonaID == personaID {
			return pi, true
		}
	}
	return PersonaImpact{}, false
}

// sortedKeys gives deterministic iteration over touchpoint-keyed maps.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
