package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/seed"
	"github.com/MikeSquared-Agency/Impact/internal/simulator"
)

type SimulationHandler struct {
	sim *simulator.Simulator
}

func NewSimulationHandler(sim *simulator.Simulator) *SimulationHandler {
	return &SimulationHandler{sim: sim}
}

// ModelResponse describes the active scoring configuration.
type ModelResponse struct {
	Name            string                  `json:"name"`
	Factors         []scoring.Factor        `json:"factors"`
	Weights         scoring.NamedVector     `json:"weights"`
	Blend           scoring.Blend           `json:"blend"`
	ROI             scoring.ROIParams       `json:"roi"`
	SecondaryWeight scoring.SecondaryWeight `json:"secondary_weight"`
}

func (h *SimulationHandler) TouchPoints(w http.ResponseWriter, r *http.Request) {
	tps, err := h.sim.TouchPoints(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tps)
}

func (h *SimulationHandler) Model(w http.ResponseWriter, r *http.Request) {
	cfg := h.sim.Engine().Config()
	writeJSON(w, http.StatusOK, ModelResponse{
		Name:            cfg.Model.Name,
		Factors:         cfg.Model.Factors[:],
		Weights:         scoring.EncodeVector(cfg.Model, cfg.Weights),
		Blend:           cfg.Blend,
		ROI:             cfg.ROI,
		SecondaryWeight: cfg.SecondaryWeight,
	})
}

func (h *SimulationHandler) Current(w http.ResponseWriter, r *http.Request) {
	state, err := h.sim.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Evaluate scores the scenario in the body. Dangling touchpoint references come
// back as warnings rather than errors.
func (h *SimulationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var sc seed.Scenario
	if !decodeBody(w, r, &sc) {
		return
	}
	resolved, err := sc.Resolve(h.sim.Model())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sim.Evaluate(resolved.Personas, resolved.Services, resolved.TouchPoints))
}
