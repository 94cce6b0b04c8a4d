package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/store"
)

//go:embed scenarios/*.yaml
var embedded embed.FS

var (
	ErrModelMismatch = errors.New("scenario model does not match configured model")
	ErrStoreNotEmpty = errors.New("store already holds personas or services")
)

// PersonaSpec is the wire form of a persona: needs keyed by factor name
// instead of factor position.
type PersonaSpec struct {
	ID          string                         `json:"id" yaml:"id"`
	Name        string                         `json:"name" yaml:"name"`
	Description string                         `json:"description" yaml:"description"`
	Group       string                         `json:"group,omitempty" yaml:"group"`
	Relevance   float64                        `json:"relevance" yaml:"relevance"`
	Volume      float64                        `json:"volume" yaml:"volume"`
	Score       float64                        `json:"score" yaml:"score"`
	Needs       map[string]scoring.NamedVector `json:"needs" yaml:"needs"`
	Journey     []string                       `json:"journey" yaml:"journey"`
}

// ServiceSpec is the wire form of a service.
type ServiceSpec struct {
	ID          string                         `json:"id" yaml:"id"`
	Name        string                         `json:"name" yaml:"name"`
	Description string                         `json:"description" yaml:"description"`
	Cost        float64                        `json:"cost" yaml:"cost"`
	Enabled     bool                           `json:"enabled" yaml:"enabled"`
	Fulfillment map[string]scoring.NamedVector `json:"fulfillment" yaml:"fulfillment"`
}

// Scenario is a complete set of simulation inputs.
type Scenario struct {
	Model       string               `json:"model,omitempty" yaml:"model"`
	TouchPoints []scoring.TouchPoint `json:"touchpoints" yaml:"touchpoints"`
	Personas    []PersonaSpec        `json:"personas" yaml:"personas"`
	Services    []ServiceSpec        `json:"services" yaml:"services"`
}

// Resolved holds a scenario decoded against a concrete model.
type Resolved struct {
	TouchPoints []scoring.TouchPoint
	Personas    []scoring.Persona
	Services    []scoring.Service
}

func (p PersonaSpec) Persona(m scoring.Model) (scoring.Persona, error) {
	needs, err := scoring.DecodeVectors[scoring.NeedVector](m, p.Needs)
	if err != nil {
		return scoring.Persona{}, fmt.Errorf("persona %s needs: %w", p.ID, err)
	}
	return scoring.Persona{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Group:       p.Group,
		Relevance:   p.Relevance,
		Volume:      p.Volume,
		Score:       p.Score,
		Needs:       needs,
		Journey:     append([]string(nil), p.Journey...),
	}, nil
}

func PersonaSpecFrom(m scoring.Model, p scoring.Persona) PersonaSpec {
	journey := p.Journey
	if journey == nil {
		journey = []string{}
	}
	return PersonaSpec{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Group:       p.Group,
		Relevance:   p.Relevance,
		Volume:      p.Volume,
		Score:       p.Score,
		Needs:       scoring.EncodeVectors(m, p.Needs),
		Journey:     journey,
	}
}

func (s ServiceSpec) Service(m scoring.Model) (scoring.Service, error) {
	f, err := scoring.DecodeVectors[scoring.FulfillmentVector](m, s.Fulfillment)
	if err != nil {
		return scoring.Service{}, fmt.Errorf("service %s fulfillment: %w", s.ID, err)
	}
	return scoring.Service{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Cost:        s.Cost,
		Enabled:     s.Enabled,
		Fulfillment: f,
	}, nil
}

func ServiceSpecFrom(m scoring.Model, s scoring.Service) ServiceSpec {
	return ServiceSpec{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Cost:        s.Cost,
		Enabled:     s.Enabled,
		Fulfillment: scoring.EncodeVectors(m, s.Fulfillment),
	}
}

// Resolve decodes every named vector against m. A scenario that names a
// different model is rejected since its factor names would not line up.
func (sc Scenario) Resolve(m scoring.Model) (Resolved, error) {
	if sc.Model != "" && sc.Model != m.Name {
		return Resolved{}, fmt.Errorf("%w: scenario %q, configured %q", ErrModelMismatch, sc.Model, m.Name)
	}
	r := Resolved{
		TouchPoints: append([]scoring.TouchPoint{}, sc.TouchPoints...),
		Personas:    make([]scoring.Persona, 0, len(sc.Personas)),
		Services:    make([]scoring.Service, 0, len(sc.Services)),
	}
	for _, ps := range sc.Personas {
		p, err := ps.Persona(m)
		if err != nil {
			return Resolved{}, err
		}
		r.Personas = append(r.Personas, p)
	}
	for _, ss := range sc.Services {
		s, err := ss.Service(m)
		if err != nil {
			return Resolved{}, err
		}
		r.Services = append(r.Services, s)
	}
	return r, nil
}

// Validate checks every entity against the scenario's own touchpoints.
func (r Resolved) Validate() error {
	if err := scoring.ValidateTouchPoints(r.TouchPoints); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Personas))
	for _, p := range r.Personas {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate persona id %q", scoring.ErrInvalidEntity, p.ID)
		}
		seen[p.ID] = true
		if err := scoring.ValidatePersona(p, r.TouchPoints); err != nil {
			return err
		}
	}
	seen = make(map[string]bool, len(r.Services))
	for _, s := range r.Services {
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate service id %q", scoring.ErrInvalidEntity, s.ID)
		}
		seen[s.ID] = true
		if err := scoring.ValidateService(s, r.TouchPoints); err != nil {
			return err
		}
	}
	return nil
}

func Parse(data []byte) (Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	return sc, nil
}

// LoadFile reads a scenario from a YAML file.
func LoadFile(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in scenario for the named model.
func Default(model string) (Scenario, error) {
	if model == "" {
		model = scoring.ModelExperience
	}
	data, err := embedded.ReadFile("scenarios/" + model + ".yaml")
	if err != nil {
		return Scenario{}, fmt.Errorf("no default scenario for model %q", model)
	}
	return Parse(data)
}

// Apply validates the scenario and writes it into st. The store is bound to
// the model first and must not hold any personas or services yet; touchpoints
// are replaced wholesale.
func Apply(ctx context.Context, st store.Store, m scoring.Model, sc Scenario) (Resolved, error) {
	r, err := sc.Resolve(m)
	if err != nil {
		return Resolved{}, err
	}
	if err := r.Validate(); err != nil {
		return Resolved{}, err
	}
	if err := st.BindModel(ctx, m.Name); err != nil {
		return Resolved{}, err
	}

	personas, err := st.ListPersonas(ctx)
	if err != nil {
		return Resolved{}, fmt.Errorf("list personas: %w", err)
	}
	services, err := st.ListServices(ctx)
	if err != nil {
		return Resolved{}, fmt.Errorf("list services: %w", err)
	}
	if len(personas) > 0 || len(services) > 0 {
		return Resolved{}, ErrStoreNotEmpty
	}

	if err := st.ReplaceTouchPoints(ctx, r.TouchPoints); err != nil {
		return Resolved{}, fmt.Errorf("write touchpoints: %w", err)
	}
	for i := range r.Personas {
		if err := st.CreatePersona(ctx, &r.Personas[i]); err != nil {
			return Resolved{}, fmt.Errorf("write persona: %w", err)
		}
	}
	for i := range r.Services {
		if err := st.CreateService(ctx, &r.Services[i]); err != nil {
			return Resolved{}, fmt.Errorf("write service: %w", err)
		}
	}
	return r, nil
}
