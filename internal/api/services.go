package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/seed"
	"github.com/MikeSquared-Agency/Impact/internal/simulator"
)

type ServicesHandler struct {
	sim *simulator.Simulator
}

func NewServicesHandler(sim *simulator.Simulator) *ServicesHandler {
	return &ServicesHandler{sim: sim}
}

// ServicePatch carries the fields of a partial update. Fulfillment is merged
// per touchpoint.
type ServicePatch struct {
	Name        *string                        `json:"name,omitempty"`
	Description *string                        `json:"description,omitempty"`
	Cost        *float64                       `json:"cost,omitempty"`
	Enabled     *bool                          `json:"enabled,omitempty"`
	Fulfillment map[string]scoring.NamedVector `json:"fulfillment,omitempty"`
}

type ToggleRequest struct {
	Enabled *bool `json:"enabled,omitempty"`
}

func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.sim.ListServices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	m := h.sim.Model()
	out := make([]seed.ServiceSpec, len(services))
	for i, s := range services {
		out[i] = seed.ServiceSpecFrom(m, s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ServicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.sim.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seed.ServiceSpecFrom(h.sim.Model(), *svc))
}

func (h *ServicesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req seed.ServiceSpec
	if !decodeBody(w, r, &req) {
		return
	}
	m := h.sim.Model()
	svc, err := req.Service(m)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.sim.CreateService(r.Context(), svc)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seed.ServiceSpecFrom(m, created))
}

func (h *ServicesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch ServicePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	m := h.sim.Model()
	updated, err := h.sim.PatchService(r.Context(), chi.URLParam(r, "id"), func(svc *scoring.Service) error {
		return patch.apply(m, svc)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seed.ServiceSpecFrom(m, updated))
}

func (h *ServicesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sim.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle flips the service, or forces it to the state given in the body.
func (h *ServicesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	var (
		svc scoring.Service
		err error
	)
	if req.Enabled != nil {
		svc, err = h.sim.SetServiceEnabled(r.Context(), id, *req.Enabled)
	} else {
		svc, err = h.sim.ToggleService(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seed.ServiceSpecFrom(h.sim.Model(), svc))
}

func (h *ServicesHandler) Impact(w http.ResponseWriter, r *http.Request) {
	impact, err := h.sim.ServiceImpact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impact)
}

func (patch ServicePatch) apply(m scoring.Model, svc *scoring.Service) error {
	if patch.Name != nil {
		svc.Name = *patch.Name
	}
	if patch.Description != nil {
		svc.Description = *patch.Description
	}
	if patch.Cost != nil {
		svc.Cost = *patch.Cost
	}
	if patch.Enabled != nil {
		svc.Enabled = *patch.Enabled
	}
	if patch.Fulfillment != nil {
		f, err := scoring.DecodeVectors[scoring.FulfillmentVector](m, patch.Fulfillment)
		if err != nil {
			return err
		}
		if svc.Fulfillment == nil {
			svc.Fulfillment = make(map[string]scoring.FulfillmentVector, len(f))
		}
		for tp, v := range f {
			svc.Fulfillment[tp] = v
		}
	}
	return nil
}
