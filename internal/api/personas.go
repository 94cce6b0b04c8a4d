package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/seed"
	"github.com/MikeSquared-Agency/Impact/internal/simulator"
)

type PersonasHandler struct {
	sim *simulator.Simulator
}

func NewPersonasHandler(sim *simulator.Simulator) *PersonasHandler {
	return &PersonasHandler{sim: sim}
}

// PersonaPatch carries the fields of a partial update. Needs are merged per
// touchpoint; a journey, when present, replaces the old one.
type PersonaPatch struct {
	Name        *string                        `json:"name,omitempty"`
	Description *string                        `json:"description,omitempty"`
	Group       *string                        `json:"group,omitempty"`
	Relevance   *float64                       `json:"relevance,omitempty"`
	Volume      *float64                       `json:"volume,omitempty"`
	Score       *float64                       `json:"score,omitempty"`
	Needs       map[string]scoring.NamedVector `json:"needs,omitempty"`
	Journey     []string                       `json:"journey,omitempty"`
}

func (h *PersonasHandler) List(w http.ResponseWriter, r *http.Request) {
	personas, err := h.sim.ListPersonas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	m := h.sim.Model()
	out := make([]seed.PersonaSpec, len(personas))
	for i, p := range personas {
		out[i] = seed.PersonaSpecFrom(m, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PersonasHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.sim.GetPersona(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seed.PersonaSpecFrom(h.sim.Model(), *p))
}

func (h *PersonasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seed.PersonaSpec
	if !decodeBody(w, r, &req) {
		return
	}
	m := h.sim.Model()
	p, err := req.Persona(m)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.sim.CreatePersona(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seed.PersonaSpecFrom(m, created))
}

func (h *PersonasHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch PersonaPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	m := h.sim.Model()
	updated, err := h.sim.PatchPersona(r.Context(), chi.URLParam(r, "id"), func(p *scoring.Persona) error {
		return patch.apply(m, p)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seed.PersonaSpecFrom(m, updated))
}

func (h *PersonasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sim.DeletePersona(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PersonasHandler) Journey(w http.ResponseWriter, r *http.Request) {
	insight, err := h.sim.Journey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func (patch PersonaPatch) apply(m scoring.Model, p *scoring.Persona) error {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Group != nil {
		p.Group = *patch.Group
	}
	if patch.Relevance != nil {
		p.Relevance = *patch.Relevance
	}
	if patch.Volume != nil {
		p.Volume = *patch.Volume
	}
	if patch.Score != nil {
		p.Score = *patch.Score
	}
	if patch.Needs != nil {
		needs, err := scoring.DecodeVectors[scoring.NeedVector](m, patch.Needs)
		if err != nil {
			return err
		}
		if p.Needs == nil {
			p.Needs = make(map[string]scoring.NeedVector, len(needs))
		}
		for tp, v := range needs {
			p.Needs[tp] = v
		}
	}
	if patch.Journey != nil {
		p.Journey = patch.Journey
	}
	return nil
}
