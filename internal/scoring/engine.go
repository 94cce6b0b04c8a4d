package scoring

import "fmt"

// Engine computes simulation states for a fixed scoring config. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine bound to it.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the config the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Model returns the factor model in use.
func (e *Engine) Model() Model {
	return e.cfg.Model
}

// ComputeSimulation runs the full pipeline with the given config. The config is
// used as-is; call Config.Validate beforehand when it comes from user input.
func ComputeSimulation(personas []Persona, services []Service, touchPoints []TouchPoint, cfg Config) SimulationState {
	e := &Engine{cfg: cfg}
	return e.Compute(personas, services, touchPoints)
}

// Compute maps personas × services × touchpoints to a SimulationState. It never
// fails: missing needs, empty portfolios and empty persona sets all resolve to
// defined zero contributions, and dangling touchpoint references are reported
// as warnings.
func (e *Engine) Compute(personas []Persona, services []Service, touchPoints []TouchPoint) SimulationState {
	fulfillment := make([]FulfillmentVector, len(touchPoints))
	for i, tp := range touchPoints {
		fulfillment[i] = AggregateFulfillment(tp.ID, services)
	}

	impacts := make([]PersonaImpact, len(personas))
	for i := range personas {
		p := &personas[i]
		tpImpacts := make([]TouchPointImpact, len(touchPoints))
		for j, tp := range touchPoints {
			var need *NeedVector
			if n, ok := p.Needs[tp.ID]; ok {
				need = &n
			}
			s := e.ScoreTouchPoint(need, fulfillment[j])
			tpImpacts[j] = TouchPointImpact{
				TouchPointID: tp.ID,
				Score:        s.Score,
				Improvement:  s.Improvement,
			}
		}
		impacts[i] = e.AggregatePersona(*p, tpImpacts)
	}

	state := e.AggregatePortfolio(impacts, services)
	state.Warnings = CheckReferences(personas, services, touchPoints)
	return state
}

// AggregatePersona averages touchpoint scores across every touchpoint in the
// system and scales the result by relevance and the configured secondary weight.
func (e *Engine) AggregatePersona(p Persona, impacts []TouchPointImpact) PersonaImpact {
	var sum float64
	for _, tpi := range impacts {
		sum += float64(tpi.Score)
	}
	overall := round(mean(sum, len(impacts)))

	weighted := float64(overall) * clampFactor(p.Relevance) / 100
	switch e.cfg.SecondaryWeight {
	case SecondaryVolume:
		weighted *= clampFactor(p.Volume) / 100
	case SecondaryScore:
		weighted *= clampFactor(p.Score) / 100
	}

	return PersonaImpact{
		PersonaID:         p.ID,
		OverallScore:      overall,
		WeightedScore:     round(weighted),
		TouchPointImpacts: impacts,
	}
}

// AggregatePortfolio derives the portfolio figures. With no personas the
// overall impact is 0. ROI is 0 whenever nothing is spent. Negative or
// non-finite costs count as 0 and the total saturates rather than overflowing.
func (e *Engine) AggregatePortfolio(impacts []PersonaImpact, services []Service) SimulationState {
	var totalCost float64
	var enabled int
	for i := range services {
		if !services[i].Enabled {
			continue
		}
		enabled++
		totalCost = addCost(totalCost, services[i].Cost)
	}

	var sum float64
	for _, pi := range impacts {
		sum += float64(pi.WeightedScore)
	}
	overall := round(mean(sum, len(impacts)))

	roi := 0
	if totalCost > 0 {
		roi = round((float64(overall) - e.cfg.ROI.Midpoint) * e.cfg.ROI.Scale / totalCost)
	}

	return SimulationState{
		TotalCost:       totalCost,
		OverallImpact:   overall,
		PersonaImpacts:  impacts,
		EnabledServices: enabled,
		ROI:             roi,
	}
}
