package scoring

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownService = errors.New("unknown service")
	ErrUnknownPersona = errors.New("unknown persona")
)

// ServiceImpact is a what-if view of one service against the current portfolio.
type ServiceImpact struct {
	ServiceID string  `json:"service_id"`
	Enabled   bool    `json:"enabled"`
	Cost      float64 `json:"cost"`

	// Only this service enabled.
	StandaloneImpact int `json:"standalone_impact"`
	StandaloneROI    int `json:"standalone_roi"`

	// Current portfolio with the service forced on and forced off.
	ImpactWith     int `json:"impact_with"`
	ImpactWithout  int `json:"impact_without"`
	MarginalImpact int `json:"marginal_impact"`
	ROIWith        int `json:"roi_with"`
	ROIWithout     int `json:"roi_without"`
}

func withEnabled(services []Service, enabled func(Service) bool) []Service {
	out := make([]Service, len(services))
	for i, s := range services {
		out[i] = s
		out[i].Enabled = enabled(s)
	}
	return out
}

// ServiceImpact scores the given configuration three more times: with only the
// service enabled, and with the rest of the portfolio as-is while the service
// is forced on and off. It evaluates fixed configurations only.
func (e *Engine) ServiceImpact(personas []Persona, services []Service, touchPoints []TouchPoint, serviceID string) (ServiceImpact, error) {
	idx := -1
	for i := range services {
		if services[i].ID == serviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ServiceImpact{}, fmt.Errorf("%w: %s", ErrUnknownService, serviceID)
	}
	target := services[idx]

	alone := e.Compute(personas, withEnabled(services, func(s Service) bool { return s.ID == serviceID }), touchPoints)
	on := e.Compute(personas, withEnabled(services, func(s Service) bool { return s.ID == serviceID || s.Enabled }), touchPoints)
	off := e.Compute(personas, withEnabled(services, func(s Service) bool { return s.ID != serviceID && s.Enabled }), touchPoints)

	return ServiceImpact{
		ServiceID:        serviceID,
		Enabled:          target.Enabled,
		Cost:             finiteCost(target.Cost),
		StandaloneImpact: alone.OverallImpact,
		StandaloneROI:    alone.ROI,
		ImpactWith:       on.OverallImpact,
		ImpactWithout:    off.OverallImpact,
		MarginalImpact:   on.OverallImpact - off.OverallImpact,
		ROIWith:          on.ROI,
		ROIWithout:       off.ROI,
	}, nil
}

// JourneyStep is one visit along a persona's journey.
type JourneyStep struct {
	Position     int    `json:"position"`
	TouchPointID string `json:"touch_point_id"`
	Score        int    `json:"score"`
	Improvement  int    `json:"improvement"`
}

// JourneyInsight summarises how a persona fares along its declared path.
type JourneyInsight struct {
	PersonaID       string        `json:"persona_id"`
	Steps           []JourneyStep `json:"steps"`
	OverallScore    int           `json:"overall_score"`
	Efficiency      int           `json:"efficiency"`
	ServiceCoverage int           `json:"service_coverage"`
	VolumeShare     int           `json:"volume_share"`
	WeightedScore   int           `json:"weighted_score"`
	Warnings        []Warning     `json:"warnings,omitempty"`
}

const journeyEfficiencyFactor = 0.85

// Journey builds the journey insight for a persona from an already computed
// state. Repeat visits are kept. Steps at touchpoints outside the state are
// skipped and reported as warnings.
func Journey(state SimulationState, personas []Persona, services []Service, personaID string) (JourneyInsight, error) {
	var persona *Persona
	var totalVolume float64
	for i := range personas {
		totalVolume += max(personas[i].Volume, 0)
		if personas[i].ID == personaID {
			persona = &personas[i]
		}
	}
	impact, ok := state.ImpactFor(personaID)
	if persona == nil || !ok {
		return JourneyInsight{}, fmt.Errorf("%w: %s", ErrUnknownPersona, personaID)
	}

	byTP := make(map[string]TouchPointImpact, len(impact.TouchPointImpacts))
	for _, tpi := range impact.TouchPointImpacts {
		byTP[tpi.TouchPointID] = tpi
	}
	steps := make([]JourneyStep, 0, len(persona.Journey))
	var warnings []Warning
	for _, tp := range persona.Journey {
		tpi, ok := byTP[tp]
		if !ok {
			warnings = append(warnings, unknownTouchPoint("persona", personaID, "journey", tp))
			continue
		}
		steps = append(steps, JourneyStep{
			Position:     len(steps) + 1,
			TouchPointID: tp,
			Score:        tpi.Score,
			Improvement:  tpi.Improvement,
		})
	}

	var volumeShare int
	if totalVolume > 0 {
		volumeShare = round(max(persona.Volume, 0) / totalVolume * 100)
	}

	return JourneyInsight{
		PersonaID:       personaID,
		Steps:           steps,
		OverallScore:    impact.OverallScore,
		Efficiency:      round(float64(impact.OverallScore) * journeyEfficiencyFactor),
		ServiceCoverage: round(float64(state.EnabledServices) / float64(max(len(services), 1)) * 100),
		VolumeShare:     volumeShare,
		WeightedScore:   impact.WeightedScore,
		Warnings:        warnings,
	}, nil
}
