package store

import (
	"context"
	"errors"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
)

// ErrModelMismatch means the stored vectors were written under a different
// factor model than the one asked for.
var ErrModelMismatch = errors.New("store holds data for a different model")

// Snapshot is a consistent, deep-copied view of every simulation input.
type Snapshot struct {
	TouchPoints []scoring.TouchPoint
	Personas    []scoring.Persona
	Services    []scoring.Service
}

// Clone returns a deep copy so callers can mutate freely.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		TouchPoints: append([]scoring.TouchPoint(nil), s.TouchPoints...),
		Personas:    make([]scoring.Persona, len(s.Personas)),
		Services:    make([]scoring.Service, len(s.Services)),
	}
	for i, p := range s.Personas {
		out.Personas[i] = p.Clone()
	}
	for i, svc := range s.Services {
		out.Services[i] = svc.Clone()
	}
	return out
}

// Store persists touchpoints, personas and services. Lists preserve creation
// order; touchpoints keep definition order. Get returns ErrNotFound for
// unknown ids.
type Store interface {
	// BindModel records the factor model that gives stored vectors their
	// meaning. The first call claims the store; later calls with another
	// model fail with ErrModelMismatch.
	BindModel(ctx context.Context, model string) error

	ListTouchPoints(ctx context.Context) ([]scoring.TouchPoint, error)
	ReplaceTouchPoints(ctx context.Context, tps []scoring.TouchPoint) error

	ListPersonas(ctx context.Context) ([]scoring.Persona, error)
	GetPersona(ctx context.Context, id string) (*scoring.Persona, error)
	CreatePersona(ctx context.Context, p *scoring.Persona) error
	UpdatePersona(ctx context.Context, p *scoring.Persona) error
	DeletePersona(ctx context.Context, id string) error

	ListServices(ctx context.Context) ([]scoring.Service, error)
	GetService(ctx context.Context, id string) (*scoring.Service, error)
	CreateService(ctx context.Context, s *scoring.Service) error
	UpdateService(ctx context.Context, s *scoring.Service) error
	SetServiceEnabled(ctx context.Context, id string, enabled bool) error
	DeleteService(ctx context.Context, id string) error

	Snapshot(ctx context.Context) (Snapshot, error)

	Close() error
}
