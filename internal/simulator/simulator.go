package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Impact/internal/hermes"
	"github.com/MikeSquared-Agency/Impact/internal/metrics"
	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/store"
)

// Simulator owns the persisted inputs and keeps the derived simulation state,
// metrics and change events in step with every mutation.
type Simulator struct {
	store   store.Store
	hermes  hermes.Client
	metrics *metrics.Metrics
	engine  *scoring.Engine
	logger  *slog.Logger

	// mu serializes mutations so recompute events go out in write order.
	mu sync.Mutex
}

func New(s store.Store, h hermes.Client, m *metrics.Metrics, engine *scoring.Engine, logger *slog.Logger) *Simulator {
	if h == nil {
		h = hermes.NoopClient{}
	}
	return &Simulator{
		store:   s,
		hermes:  h,
		metrics: m,
		engine:  engine,
		logger:  logger,
	}
}

func (s *Simulator) Engine() *scoring.Engine { return s.engine }
func (s *Simulator) Model() scoring.Model    { return s.engine.Model() }

// Current computes the state of the stored scenario.
func (s *Simulator) Current(ctx context.Context) (scoring.SimulationState, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return scoring.SimulationState{}, fmt.Errorf("snapshot: %w", err)
	}
	return s.engine.Compute(snap.Personas, snap.Services, snap.TouchPoints), nil
}

// Evaluate scores ad-hoc inputs without touching the store, metrics or events.
func (s *Simulator) Evaluate(personas []scoring.Persona, services []scoring.Service, touchPoints []scoring.TouchPoint) scoring.SimulationState {
	return s.engine.Compute(personas, services, touchPoints)
}

// Refresh recomputes the stored state and publishes it. Mutations call it
// themselves; startup calls it once so metrics reflect the seeded scenario.
func (s *Simulator) Refresh(ctx context.Context, trigger string) (scoring.SimulationState, error) {
	start := time.Now()
	state, err := s.Current(ctx)
	if err != nil {
		return scoring.SimulationState{}, err
	}
	s.metrics.ObserveState(trigger, state, time.Since(start))
	for _, w := range state.Warnings {
		s.logger.Warn("dangling touchpoint reference",
			"entity_type", w.EntityType, "entity_id", w.EntityID, "touchpoint", w.TouchPointID)
	}
	s.publish(hermes.SubjectSimulationRecomputed, hermes.SimulationRecomputedEvent{
		Trigger:         trigger,
		OverallImpact:   state.OverallImpact,
		TotalCost:       state.TotalCost,
		ROI:             state.ROI,
		EnabledServices: state.EnabledServices,
		Warnings:        len(state.Warnings),
		Timestamp:       time.Now().UTC(),
	})
	s.logger.Info("simulation recomputed", "trigger", trigger,
		"overall_impact", state.OverallImpact, "total_cost", state.TotalCost, "roi", state.ROI)
	return state, nil
}

func (s *Simulator) publish(subject string, v interface{}) {
	if err := s.hermes.Publish(subject, v); err != nil {
		s.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func (s *Simulator) TouchPoints(ctx context.Context) ([]scoring.TouchPoint, error) {
	return s.store.ListTouchPoints(ctx)
}

func (s *Simulator) ListPersonas(ctx context.Context) ([]scoring.Persona, error) {
	return s.store.ListPersonas(ctx)
}

func (s *Simulator) GetPersona(ctx context.Context, id string) (*scoring.Persona, error) {
	return s.store.GetPersona(ctx, id)
}

func (s *Simulator) ListServices(ctx context.Context) ([]scoring.Service, error) {
	return s.store.ListServices(ctx)
}

func (s *Simulator) GetService(ctx context.Context, id string) (*scoring.Service, error) {
	return s.store.GetService(ctx, id)
}

// Personas

func (s *Simulator) CreatePersona(ctx context.Context, p scoring.Persona) (scoring.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.validatePersona(ctx, p); err != nil {
		return scoring.Persona{}, err
	}
	if err := s.store.CreatePersona(ctx, &p); err != nil {
		return scoring.Persona{}, err
	}
	s.personaChanged(ctx, p, "created", hermes.SubjectPersonaCreated(p.ID))
	return p, nil
}

func (s *Simulator) UpdatePersona(ctx context.Context, p scoring.Persona) (scoring.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePersona(ctx, p)
}

// PatchPersona applies mutate to the stored persona and saves the result. The
// read and the write happen under one lock so concurrent patches compose.
// An error from mutate aborts the patch unchanged.
func (s *Simulator) PatchPersona(ctx context.Context, id string, mutate func(*scoring.Persona) error) (scoring.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetPersona(ctx, id)
	if err != nil {
		return scoring.Persona{}, err
	}
	if err := mutate(p); err != nil {
		return scoring.Persona{}, err
	}
	p.ID = id
	return s.updatePersona(ctx, *p)
}

func (s *Simulator) updatePersona(ctx context.Context, p scoring.Persona) (scoring.Persona, error) {
	if err := s.validatePersona(ctx, p); err != nil {
		return scoring.Persona{}, err
	}
	if err := s.store.UpdatePersona(ctx, &p); err != nil {
		return scoring.Persona{}, err
	}
	s.personaChanged(ctx, p, "updated", hermes.SubjectPersonaUpdated(p.ID))
	return p, nil
}

func (s *Simulator) DeletePersona(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeletePersona(ctx, id); err != nil {
		return err
	}
	s.personaChanged(ctx, scoring.Persona{ID: id}, "deleted", hermes.SubjectPersonaDeleted(id))
	return nil
}

func (s *Simulator) validatePersona(ctx context.Context, p scoring.Persona) error {
	tps, err := s.store.ListTouchPoints(ctx)
	if err != nil {
		return fmt.Errorf("list touchpoints: %w", err)
	}
	return scoring.ValidatePersona(p, tps)
}

func (s *Simulator) personaChanged(ctx context.Context, p scoring.Persona, action, subject string) {
	s.metrics.IncMutation("persona", action)
	s.publish(subject, hermes.PersonaChangedEvent{
		PersonaID: p.ID,
		Name:      p.Name,
		Action:    action,
		Timestamp: time.Now().UTC(),
	})
	s.logger.Info("persona "+action, "persona_id", p.ID)
	if _, err := s.Refresh(ctx, "persona_"+action); err != nil {
		s.logger.Error("recompute after persona change failed", "persona_id", p.ID, "error", err)
	}
}

// Services

func (s *Simulator) CreateService(ctx context.Context, svc scoring.Service) (scoring.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := s.validateService(ctx, svc); err != nil {
		return scoring.Service{}, err
	}
	if err := s.store.CreateService(ctx, &svc); err != nil {
		return scoring.Service{}, err
	}
	s.serviceChanged(ctx, svc, "created", hermes.SubjectServiceCreated(svc.ID))
	return svc, nil
}

func (s *Simulator) UpdateService(ctx context.Context, svc scoring.Service) (scoring.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateService(ctx, svc)
}

// PatchService is the service counterpart of PatchPersona.
func (s *Simulator) PatchService(ctx context.Context, id string, mutate func(*scoring.Service) error) (scoring.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return scoring.Service{}, err
	}
	if err := mutate(svc); err != nil {
		return scoring.Service{}, err
	}
	svc.ID = id
	return s.updateService(ctx, *svc)
}

func (s *Simulator) updateService(ctx context.Context, svc scoring.Service) (scoring.Service, error) {
	if err := s.validateService(ctx, svc); err != nil {
		return scoring.Service{}, err
	}
	if err := s.store.UpdateService(ctx, &svc); err != nil {
		return scoring.Service{}, err
	}
	s.serviceChanged(ctx, svc, "updated", hermes.SubjectServiceUpdated(svc.ID))
	return svc, nil
}

// ToggleService flips the enabled flag of a service.
func (s *Simulator) ToggleService(ctx context.Context, id string) (scoring.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return scoring.Service{}, err
	}
	return s.setEnabled(ctx, *svc, !svc.Enabled)
}

// SetServiceEnabled forces the enabled flag. Setting the current value is a
// no-op that still reports the service.
func (s *Simulator) SetServiceEnabled(ctx context.Context, id string, enabled bool) (scoring.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return scoring.Service{}, err
	}
	if svc.Enabled == enabled {
		return *svc, nil
	}
	return s.setEnabled(ctx, *svc, enabled)
}

func (s *Simulator) setEnabled(ctx context.Context, svc scoring.Service, enabled bool) (scoring.Service, error) {
	if err := s.store.SetServiceEnabled(ctx, svc.ID, enabled); err != nil {
		return scoring.Service{}, err
	}
	svc.Enabled = enabled
	s.serviceChanged(ctx, svc, "toggled", hermes.SubjectServiceToggled(svc.ID))
	return svc, nil
}

func (s *Simulator) DeleteService(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteService(ctx, id); err != nil {
		return err
	}
	s.serviceChanged(ctx, scoring.Service{ID: id}, "deleted", hermes.SubjectServiceDeleted(id))
	return nil
}

func (s *Simulator) validateService(ctx context.Context, svc scoring.Service) error {
	tps, err := s.store.ListTouchPoints(ctx)
	if err != nil {
		return fmt.Errorf("list touchpoints: %w", err)
	}
	return scoring.ValidateService(svc, tps)
}

func (s *Simulator) serviceChanged(ctx context.Context, svc scoring.Service, action, subject string) {
	s.metrics.IncMutation("service", action)
	s.publish(subject, hermes.ServiceChangedEvent{
		ServiceID: svc.ID,
		Name:      svc.Name,
		Action:    action,
		Enabled:   svc.Enabled,
		Cost:      svc.Cost,
		Timestamp: time.Now().UTC(),
	})
	s.logger.Info("service "+action, "service_id", svc.ID, "enabled", svc.Enabled)
	if _, err := s.Refresh(ctx, "service_"+action); err != nil {
		s.logger.Error("recompute after service change failed", "service_id", svc.ID, "error", err)
	}
}

// What-if views

func (s *Simulator) ServiceImpact(ctx context.Context, serviceID string) (scoring.ServiceImpact, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return scoring.ServiceImpact{}, fmt.Errorf("snapshot: %w", err)
	}
	return s.engine.ServiceImpact(snap.Personas, snap.Services, snap.TouchPoints, serviceID)
}

func (s *Simulator) Journey(ctx context.Context, personaID string) (scoring.JourneyInsight, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return scoring.JourneyInsight{}, fmt.Errorf("snapshot: %w", err)
	}
	state := s.engine.Compute(snap.Personas, snap.Services, snap.TouchPoints)
	return scoring.Journey(state, snap.Personas, snap.Services, personaID)
}

// SetupSubscriptions lets other services flip services over NATS.
func (s *Simulator) SetupSubscriptions() error {
	return s.hermes.Subscribe(hermes.SubjectToggleServiceCommand, func(_ string, data []byte) {
		var cmd hermes.ToggleServiceCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.logger.Warn("invalid toggle command", "error", err)
			return
		}
		s.HandleToggleCommand(context.Background(), cmd)
	})
}

func (s *Simulator) HandleToggleCommand(ctx context.Context, cmd hermes.ToggleServiceCommand) {
	var err error
	if cmd.Enabled != nil {
		_, err = s.SetServiceEnabled(ctx, cmd.ServiceID, *cmd.Enabled)
	} else {
		_, err = s.ToggleService(ctx, cmd.ServiceID)
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.logger.Warn("toggle command for unknown service", "service_id", cmd.ServiceID)
	case err != nil:
		s.logger.Error("toggle command failed", "service_id", cmd.ServiceID, "error", err)
	}
}
