package scoring

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

func onboardingOnly() []TouchPoint {
	return []TouchPoint{{ID: "onboarding", Name: "Onboarding"}}
}

func techPro() Persona {
	return Persona{
		ID:        "p1",
		Name:      "Tech-Savvy Professional",
		Relevance: 100,
		Volume:    35,
		Score:     50,
		Needs:     map[string]NeedVector{"onboarding": {90, 70, 60}},
		Journey:   []string{"onboarding"},
	}
}

func fullService(cost float64, enabled bool) Service {
	return Service{
		ID:          "s1",
		Name:        "Everything",
		Cost:        cost,
		Enabled:     enabled,
		Fulfillment: map[string]FulfillmentVector{"onboarding": {100, 100, 100}},
	}
}

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	for name, w := range map[string]FactorWeights{"experience": DefaultWeights(), "effort": EffortWeights()} {
		if err := w.Validate(); err != nil {
			t.Errorf("%s weights invalid: %v", name, err)
		}
		if math.Abs(w.Sum()-1.0) > 0.001 {
			t.Errorf("%s weights sum to %f, expected 1.0", name, w.Sum())
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights FactorWeights
		wantErr bool
	}{
		{"default", FactorWeights{0.4, 0.4, 0.2}, false},
		{"within tolerance", FactorWeights{0.3333, 0.3333, 0.3334}, false},
		{"short", FactorWeights{0.4, 0.4, 0.1}, true},
		{"over", FactorWeights{0.5, 0.4, 0.2}, true},
		{"negative", FactorWeights{1.2, 0.0, -0.2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWeights) {
					t.Errorf("expected ErrInvalidWeights, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		if err := DefaultConfig().Validate(); err != nil {
			t.Errorf("default config invalid: %v", err)
		}
	})

	t.Run("effort preset", func(t *testing.T) {
		cfg, err := ConfigForModel(ModelEffort)
		if err != nil {
			t.Fatal(err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("effort config invalid: %v", err)
		}
		if cfg.Model.Factors[0].Polarity != LowerIsBetter {
			t.Error("expected ces to be lower-is-better")
		}
	})

	t.Run("bad blend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Blend = Blend{Baseline: 0.5, Fulfillment: 0.7}
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("expected ErrInvalidWeights, got %v", err)
		}
	})

	t.Run("zero roi scale", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ROI.Scale = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero roi scale")
		}
	})

	t.Run("unknown secondary weight", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SecondaryWeight = "headcount"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown secondary weight")
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		if _, err := ConfigForModel("nps"); err == nil {
			t.Error("expected error for unknown model")
		}
	})

	t.Run("engine rejects invalid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weights = FactorWeights{1, 1, 1}
		if _, err := NewEngine(cfg); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("expected ErrInvalidWeights, got %v", err)
		}
	})
}

func TestAggregateFulfillment(t *testing.T) {
	x := Service{ID: "x", Enabled: true, Fulfillment: map[string]FulfillmentVector{"onboarding": {100, 0, 0}}}
	y := Service{ID: "y", Enabled: true, Fulfillment: map[string]FulfillmentVector{"onboarding": {0, 100, 100}}}

	t.Run("complementary services take the max per factor", func(t *testing.T) {
		got := AggregateFulfillment("onboarding", []Service{x, y})
		if got != (FulfillmentVector{100, 100, 100}) {
			t.Errorf("expected {100,100,100}, got %v", got)
		}
	})

	t.Run("disabled services are ignored", func(t *testing.T) {
		off := y
		off.Enabled = false
		got := AggregateFulfillment("onboarding", []Service{x, off})
		if got != (FulfillmentVector{100, 0, 0}) {
			t.Errorf("expected {100,0,0}, got %v", got)
		}
	})

	t.Run("no contributors", func(t *testing.T) {
		if got := AggregateFulfillment("billing", []Service{x, y}); got != (FulfillmentVector{}) {
			t.Errorf("expected zero vector, got %v", got)
		}
		if got := AggregateFulfillment("onboarding", nil); got != (FulfillmentVector{}) {
			t.Errorf("expected zero vector, got %v", got)
		}
	})

	t.Run("weak service does not drag down a strong one", func(t *testing.T) {
		weak := Service{ID: "w", Enabled: true, Fulfillment: map[string]FulfillmentVector{"onboarding": {10, 10, 10}}}
		strong := Service{ID: "s", Enabled: true, Fulfillment: map[string]FulfillmentVector{"onboarding": {80, 70, 60}}}
		got := AggregateFulfillment("onboarding", []Service{weak, strong})
		if got != (FulfillmentVector{80, 70, 60}) {
			t.Errorf("expected {80,70,60}, got %v", got)
		}
	})

	t.Run("out of range values are clamped", func(t *testing.T) {
		bad := Service{ID: "b", Enabled: true, Fulfillment: map[string]FulfillmentVector{"onboarding": {150, -20, math.NaN()}}}
		got := AggregateFulfillment("onboarding", []Service{bad})
		if got != (FulfillmentVector{100, 0, 0}) {
			t.Errorf("expected {100,0,0}, got %v", got)
		}
	})
}

func TestScoreTouchPoint(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	need := NeedVector{90, 70, 60}

	t.Run("no services", func(t *testing.T) {
		s := e.ScoreTouchPoint(&need, FulfillmentVector{})
		if math.Abs(s.Baseline-73.333) > 0.001 {
			t.Errorf("expected baseline 73.333, got %f", s.Baseline)
		}
		if s.FulfillmentScore != 0 {
			t.Errorf("expected fulfillment 0, got %f", s.FulfillmentScore)
		}
		if s.Score != 22 || s.Improvement != -51 {
			t.Errorf("expected {22,-51}, got {%d,%d}", s.Score, s.Improvement)
		}
	})

	t.Run("full service", func(t *testing.T) {
		s := e.ScoreTouchPoint(&need, FulfillmentVector{100, 100, 100})
		if math.Abs(s.FulfillmentScore-76) > 0.0001 {
			t.Errorf("expected fulfillment 76, got %f", s.FulfillmentScore)
		}
		if s.Score != 75 || s.Improvement != 2 {
			t.Errorf("expected {75,2}, got {%d,%d}", s.Score, s.Improvement)
		}
	})

	t.Run("excess capability earns nothing", func(t *testing.T) {
		exact := e.ScoreTouchPoint(&need, FulfillmentVector{90, 70, 60})
		over := e.ScoreTouchPoint(&need, FulfillmentVector{100, 100, 100})
		if exact != over {
			t.Errorf("expected identical scores, got %+v vs %+v", exact, over)
		}
	})

	t.Run("missing need", func(t *testing.T) {
		s := e.ScoreTouchPoint(nil, FulfillmentVector{100, 100, 100})
		if s.Score != 0 || s.Improvement != 0 || s.Defined {
			t.Errorf("expected zero score, got %+v", s)
		}
	})

	t.Run("improvement uses independent rounding", func(t *testing.T) {
		// baseline 72.5 rounds to 73, final 50.1 rounds to 50: 50-73, not round(-22.4).
		n := NeedVector{72.5, 72.5, 72.5}
		s := e.ScoreTouchPoint(&n, FulfillmentVector{40.5, 40.5, 40.5})
		if s.Score != 50 {
			t.Fatalf("expected score 50, got %d", s.Score)
		}
		if s.Improvement != -23 {
			t.Errorf("expected improvement -23, got %d", s.Improvement)
		}
	})
}

func TestScoreTouchPointEffortModel(t *testing.T) {
	cfg, err := ConfigForModel(ModelEffort)
	if err != nil {
		t.Fatal(err)
	}
	e := mustEngine(t, cfg)
	// ces 20 is low effort: normalized to 80.
	need := NeedVector{20, 70, 60}

	if b := e.Baseline(need); math.Abs(b-70) > 0.0001 {
		t.Errorf("expected baseline 70, got %f", b)
	}

	none := e.ScoreTouchPoint(&need, FulfillmentVector{})
	if none.Score != 21 || none.Improvement != -49 {
		t.Errorf("expected {21,-49}, got {%d,%d}", none.Score, none.Improvement)
	}

	full := e.ScoreTouchPoint(&need, FulfillmentVector{100, 100, 100})
	// 80*0.3 + 70*0.4 + 60*0.3 = 70
	if math.Abs(full.FulfillmentScore-70) > 0.0001 {
		t.Errorf("expected fulfillment 70, got %f", full.FulfillmentScore)
	}
	if full.Score != 70 || full.Improvement != 0 {
		t.Errorf("expected {70,0}, got {%d,%d}", full.Score, full.Improvement)
	}

	// Effort fulfillment is not re-inverted: a low value helps little.
	weak := e.ScoreTouchPoint(&need, FulfillmentVector{10, 100, 100})
	if weak.Score >= full.Score {
		t.Errorf("expected weak effort reduction to score below %d, got %d", full.Score, weak.Score)
	}
}

func TestComputeSimulationScenarios(t *testing.T) {
	tps := onboardingOnly()
	personas := []Persona{techPro()}

	t.Run("no services", func(t *testing.T) {
		state := ComputeSimulation(personas, nil, tps, DefaultConfig())
		tpi := state.PersonaImpacts[0].TouchPointImpacts[0]
		if tpi.Score != 22 || tpi.Improvement != -51 {
			t.Errorf("expected {22,-51}, got {%d,%d}", tpi.Score, tpi.Improvement)
		}
		if state.TotalCost != 0 || state.EnabledServices != 0 || state.ROI != 0 {
			t.Errorf("expected empty portfolio, got %+v", state)
		}
		if state.OverallImpact != 22 {
			t.Errorf("expected overall impact 22, got %d", state.OverallImpact)
		}
	})

	t.Run("one full service", func(t *testing.T) {
		state := ComputeSimulation(personas, []Service{fullService(50000, true)}, tps, DefaultConfig())
		pi := state.PersonaImpacts[0]
		if pi.TouchPointImpacts[0].Score != 75 || pi.TouchPointImpacts[0].Improvement != 2 {
			t.Errorf("expected {75,2}, got %+v", pi.TouchPointImpacts[0])
		}
		if pi.OverallScore != 75 || pi.WeightedScore != 75 {
			t.Errorf("expected overall/weighted 75, got %d/%d", pi.OverallScore, pi.WeightedScore)
		}
		if state.TotalCost != 50000 || state.EnabledServices != 1 {
			t.Errorf("unexpected portfolio totals: %+v", state)
		}
		// (75-50)*1000/50000 = 0.5, rounded half away from zero
		if state.ROI != 1 {
			t.Errorf("expected roi 1, got %d", state.ROI)
		}
	})

	t.Run("negative roi", func(t *testing.T) {
		elsewhere := Service{ID: "s2", Name: "Billing", Cost: 50000, Enabled: true,
			Fulfillment: map[string]FulfillmentVector{"billing": {100, 100, 100}}}
		state := ComputeSimulation(personas, []Service{elsewhere}, tps, DefaultConfig())
		// (22-50)*1000/50000 = -0.56
		if state.ROI != -1 {
			t.Errorf("expected roi -1, got %d", state.ROI)
		}
	})
}

func TestPersonaAggregation(t *testing.T) {
	tps := []TouchPoint{{ID: "onboarding", Name: "Onboarding"}, {ID: "support", Name: "Support"}}

	t.Run("touchpoints without needs count as zero", func(t *testing.T) {
		p := techPro()
		p.Relevance = 85
		state := ComputeSimulation([]Persona{p}, nil, tps, DefaultConfig())
		pi := state.PersonaImpacts[0]
		if len(pi.TouchPointImpacts) != 2 {
			t.Fatalf("expected one impact per touchpoint, got %d", len(pi.TouchPointImpacts))
		}
		if pi.TouchPointImpacts[1].TouchPointID != "support" || pi.TouchPointImpacts[1].Score != 0 {
			t.Errorf("expected support scored 0, got %+v", pi.TouchPointImpacts[1])
		}
		// mean(22, 0) = 11; 11 * 0.85 = 9.35
		if pi.OverallScore != 11 || pi.WeightedScore != 9 {
			t.Errorf("expected 11/9, got %d/%d", pi.OverallScore, pi.WeightedScore)
		}
	})

	t.Run("secondary weight", func(t *testing.T) {
		p := techPro()
		p.Relevance = 80
		p.Volume = 50
		p.Score = 25
		services := []Service{fullService(1000, true)}

		tests := []struct {
			field SecondaryWeight
			want  int
		}{
			{SecondaryNone, 60},   // 75 * 0.8
			{SecondaryVolume, 30}, // 75 * 0.8 * 0.5
			{SecondaryScore, 15},  // 75 * 0.8 * 0.25
		}
		for _, tt := range tests {
			t.Run(string(tt.field), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.SecondaryWeight = tt.field
				state := ComputeSimulation([]Persona{p}, services, onboardingOnly(), cfg)
				if got := state.PersonaImpacts[0].WeightedScore; got != tt.want {
					t.Errorf("expected weighted %d, got %d", tt.want, got)
				}
			})
		}
	})

	t.Run("no touchpoints", func(t *testing.T) {
		state := ComputeSimulation([]Persona{techPro()}, nil, nil, DefaultConfig())
		if state.PersonaImpacts[0].OverallScore != 0 {
			t.Errorf("expected 0 overall score, got %d", state.PersonaImpacts[0].OverallScore)
		}
	})
}

func TestPortfolioAggregation(t *testing.T) {
	t.Run("empty persona set falls back to zero", func(t *testing.T) {
		state := ComputeSimulation(nil, []Service{fullService(50000, true)}, onboardingOnly(), DefaultConfig())
		if state.OverallImpact != 0 {
			t.Errorf("expected 0 overall impact, got %d", state.OverallImpact)
		}
		if len(state.PersonaImpacts) != 0 {
			t.Errorf("expected no persona impacts, got %d", len(state.PersonaImpacts))
		}
		// (0-50)*1000/50000
		if state.ROI != -1 {
			t.Errorf("expected roi -1, got %d", state.ROI)
		}
	})

	t.Run("roi is zero when nothing is spent", func(t *testing.T) {
		free := fullService(0, true)
		state := ComputeSimulation([]Persona{techPro()}, []Service{free}, onboardingOnly(), DefaultConfig())
		if state.OverallImpact != 75 {
			t.Fatalf("expected impact 75, got %d", state.OverallImpact)
		}
		if state.ROI != 0 {
			t.Errorf("expected roi 0, got %d", state.ROI)
		}
	})

	t.Run("cost additivity across toggles", func(t *testing.T) {
		services := []Service{
			{ID: "a", Cost: 50000, Enabled: true},
			{ID: "b", Cost: 75000, Enabled: false},
			{ID: "c", Cost: 40000, Enabled: true},
		}
		before := ComputeSimulation(nil, services, nil, DefaultConfig())
		if before.TotalCost != 90000 || before.EnabledServices != 2 {
			t.Fatalf("expected 90000/2, got %f/%d", before.TotalCost, before.EnabledServices)
		}
		services[0].Enabled = false
		mid := ComputeSimulation(nil, services, nil, DefaultConfig())
		if mid.TotalCost != 40000 {
			t.Errorf("expected 40000 after toggle off, got %f", mid.TotalCost)
		}
		services[0].Enabled = true
		after := ComputeSimulation(nil, services, nil, DefaultConfig())
		if after.TotalCost != before.TotalCost {
			t.Errorf("expected total cost restored to %f, got %f", before.TotalCost, after.TotalCost)
		}
	})
}

func TestComputeSimulationWarnings(t *testing.T) {
	p := techPro()
	p.Needs["checkout"] = NeedVector{50, 50, 50}
	p.Journey = []string{"onboarding", "checkout"}
	s := fullService(1000, true)
	s.Fulfillment["returns"] = FulfillmentVector{1, 2, 3}

	state := ComputeSimulation([]Persona{p}, []Service{s}, onboardingOnly(), DefaultConfig())
	if len(state.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %+v", len(state.Warnings), state.Warnings)
	}
	want := []struct{ entity, field, tp string }{
		{"persona", "needs", "checkout"},
		{"persona", "journey", "checkout"},
		{"service", "fulfillment", "returns"},
	}
	for i, w := range want {
		got := state.Warnings[i]
		if got.Kind != WarningUnknownTouchPoint || got.EntityType != w.entity || got.Field != w.field || got.TouchPointID != w.tp {
			t.Errorf("warning %d: expected %+v, got %+v", i, w, got)
		}
	}
	// Dangling references do not change the score.
	if state.PersonaImpacts[0].TouchPointImpacts[0].Score != 75 {
		t.Errorf("expected score 75, got %d", state.PersonaImpacts[0].TouchPointImpacts[0].Score)
	}
}

func randomScenario(r *rand.Rand) ([]Persona, []Service, []TouchPoint) {
	ids := []string{"onboarding", "support", "billing", "feature-discovery"}
	tps := make([]TouchPoint, len(ids))
	for i, id := range ids {
		tps[i] = TouchPoint{ID: id, Name: id}
	}
	vec := func() [FactorCount]float64 {
		return [FactorCount]float64{float64(r.Intn(101)), float64(r.Intn(101)), float64(r.Intn(101))}
	}

	personas := make([]Persona, 1+r.Intn(5))
	for i := range personas {
		needs := make(map[string]NeedVector)
		for _, id := range ids {
			if r.Intn(4) > 0 {
				needs[id] = NeedVector(vec())
			}
		}
		personas[i] = Persona{ID: string(rune('a' + i)), Relevance: float64(r.Intn(101)), Volume: float64(r.Intn(101)), Score: float64(r.Intn(101)), Needs: needs}
	}
	services := make([]Service, r.Intn(6))
	for i := range services {
		f := make(map[string]FulfillmentVector)
		for _, id := range ids {
			if r.Intn(3) > 0 {
				f[id] = FulfillmentVector(vec())
			}
		}
		services[i] = Service{ID: string(rune('A' + i)), Cost: float64(r.Intn(100000)), Enabled: r.Intn(2) == 0, Fulfillment: f}
	}
	return personas, services, tps
}

func TestComputeSimulationProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	configs := []Config{DefaultConfig()}
	if effort, err := ConfigForModel(ModelEffort); err == nil {
		configs = append(configs, effort)
	}

	for iter := 0; iter < 200; iter++ {
		personas, services, tps := randomScenario(r)
		for _, cfg := range configs {
			first := ComputeSimulation(personas, services, tps, cfg)
			second := ComputeSimulation(personas, services, tps, cfg)
			if !reflect.DeepEqual(first, second) {
				t.Fatalf("iteration %d: non-deterministic result", iter)
			}

			for _, pi := range first.PersonaImpacts {
				for _, tpi := range pi.TouchPointImpacts {
					if tpi.Score < 0 || tpi.Score > 100 {
						t.Fatalf("score out of bounds: %d", tpi.Score)
					}
					if tpi.Improvement < -100 || tpi.Improvement > 100 {
						t.Fatalf("improvement out of bounds: %d", tpi.Improvement)
					}
				}
			}

			for i := range services {
				if services[i].Enabled {
					continue
				}
				enabled := make([]Service, len(services))
				copy(enabled, services)
				enabled[i].Enabled = true
				more := ComputeSimulation(personas, enabled, tps, cfg)
				for pIdx := range first.PersonaImpacts {
					for tIdx := range first.PersonaImpacts[pIdx].TouchPointImpacts {
						before := first.PersonaImpacts[pIdx].TouchPointImpacts[tIdx].Score
						after := more.PersonaImpacts[pIdx].TouchPointImpacts[tIdx].Score
						if after < before {
							t.Fatalf("enabling %s lowered score at %s: %d -> %d", services[i].ID, tps[tIdx].ID, before, after)
						}
					}
				}
				for _, tp := range tps {
					b := AggregateFulfillment(tp.ID, services)
					a := AggregateFulfillment(tp.ID, enabled)
					for k := range a {
						if a[k] < b[k] {
							t.Fatalf("aggregated fulfillment decreased at %s", tp.ID)
						}
					}
				}
			}
		}
	}
}

func TestNoServiceBaseline(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	e := mustEngine(t, DefaultConfig())
	for iter := 0; iter < 50; iter++ {
		personas, services, tps := randomScenario(r)
		for i := range services {
			services[i].Enabled = false
		}
		state := e.Compute(personas, services, tps)
		for pIdx, pi := range state.PersonaImpacts {
			for tIdx, tpi := range pi.TouchPointImpacts {
				need, ok := personas[pIdx].Needs[tps[tIdx].ID]
				if !ok {
					if tpi.Score != 0 || tpi.Improvement != 0 {
						t.Fatalf("missing need scored %+v", tpi)
					}
					continue
				}
				want := round(e.Baseline(need) * 0.3)
				if tpi.Score != want {
					t.Fatalf("expected baseline-only score %d, got %d", want, tpi.Score)
				}
			}
		}
	}
}

func TestDefensiveClamping(t *testing.T) {
	p := techPro()
	p.Needs["onboarding"] = NeedVector{math.NaN(), math.Inf(1), -40}
	p.Relevance = math.NaN()
	s := fullService(1000, true)
	s.Fulfillment["onboarding"] = FulfillmentVector{math.Inf(1), 500, -1}

	state := ComputeSimulation([]Persona{p}, []Service{s}, onboardingOnly(), DefaultConfig())
	tpi := state.PersonaImpacts[0].TouchPointImpacts[0]
	if tpi.Score < 0 || tpi.Score > 100 {
		t.Errorf("score out of bounds: %d", tpi.Score)
	}
	if state.PersonaImpacts[0].WeightedScore != 0 {
		t.Errorf("expected NaN relevance to weigh 0, got %d", state.PersonaImpacts[0].WeightedScore)
	}
}

func TestTotalCostStaysFinite(t *testing.T) {
	tps := onboardingOnly()
	personas := []Persona{techPro()}

	t.Run("overflowing sum saturates", func(t *testing.T) {
		services := []Service{fullService(1e308, true), fullService(1e308, true)}
		services[1].ID = "s2"
		state := ComputeSimulation(personas, services, tps, DefaultConfig())
		if math.IsInf(state.TotalCost, 0) || math.IsNaN(state.TotalCost) {
			t.Fatalf("expected finite total cost, got %v", state.TotalCost)
		}
		if state.TotalCost != math.MaxFloat64 {
			t.Errorf("expected saturation at MaxFloat64, got %v", state.TotalCost)
		}
		if _, err := json.Marshal(state); err != nil {
			t.Errorf("state must stay encodable: %v", err)
		}
	})

	t.Run("non-finite costs count as zero", func(t *testing.T) {
		nan := fullService(math.NaN(), true)
		inf := fullService(math.Inf(1), true)
		inf.ID = "s2"
		state := ComputeSimulation(personas, []Service{nan, inf, {ID: "s3", Cost: 500, Enabled: true}}, tps, DefaultConfig())
		if state.TotalCost != 500 {
			t.Errorf("expected total cost 500, got %v", state.TotalCost)
		}
		if state.EnabledServices != 3 {
			t.Errorf("expected 3 enabled services, got %d", state.EnabledServices)
		}
		if _, err := json.Marshal(state); err != nil {
			t.Errorf("state must stay encodable: %v", err)
		}
	})
}
