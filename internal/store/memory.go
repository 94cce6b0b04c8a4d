package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

// MemoryStore keeps everything in process. Values are copied on the way in and
// out so callers never share maps with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	model       string
	touchPoints []scoring.TouchPoint
	personas    []scoring.Persona
	services    []scoring.Service
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) BindModel(_ context.Context, model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == "" {
		m.model = model
		return nil
	}
	if m.model != model {
		return fmt.Errorf("%w: bound to %q, asked for %q", ErrModelMismatch, m.model, model)
	}
	return nil
}

func (m *MemoryStore) ListTouchPoints(_ context.Context) ([]scoring.TouchPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]scoring.TouchPoint{}, m.touchPoints...), nil
}

func (m *MemoryStore) ReplaceTouchPoints(_ context.Context, tps []scoring.TouchPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchPoints = append([]scoring.TouchPoint(nil), tps...)
	return nil
}

func (m *MemoryStore) personaIndex(id string) int {
	for i := range m.personas {
		if m.personas[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) serviceIndex(id string) int {
	for i := range m.services {
		if m.services[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *MemoryStore) ListPersonas(_ context.Context) ([]scoring.Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scoring.Persona, len(m.personas))
	for i, p := range m.personas {
		out[i] = p.Clone()
	}
	return out, nil
}

func (m *MemoryStore) GetPersona(_ context.Context, id string) (*scoring.Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.personaIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	p := m.personas[i].Clone()
	return &p, nil
}

func (m *MemoryStore) CreatePersona(_ context.Context, p *scoring.Persona) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.personaIndex(p.ID) >= 0 {
		return fmt.Errorf("persona %s: %w", p.ID, ErrDuplicateID)
	}
	m.personas = append(m.personas, p.Clone())
	return nil
}

func (m *MemoryStore) UpdatePersona(_ context.Context, p *scoring.Persona) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.personaIndex(p.ID)
	if i < 0 {
		return fmt.Errorf("persona %s: %w", p.ID, ErrNotFound)
	}
	m.personas[i] = p.Clone()
	return nil
}

func (m *MemoryStore) DeletePersona(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.personaIndex(id)
	if i < 0 {
		return fmt.Errorf("persona %s: %w", id, ErrNotFound)
	}
	m.personas = append(m.personas[:i], m.personas[i+1:]...)
	return nil
}

func (m *MemoryStore) ListServices(_ context.Context) ([]scoring.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scoring.Service, len(m.services))
	for i, s := range m.services {
		out[i] = s.Clone()
	}
	return out, nil
}

func (m *MemoryStore) GetService(_ context.Context, id string) (*scoring.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.serviceIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	s := m.services[i].Clone()
	return &s, nil
}

func (m *MemoryStore) CreateService(_ context.Context, s *scoring.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.serviceIndex(s.ID) >= 0 {
		return fmt.Errorf("service %s: %w", s.ID, ErrDuplicateID)
	}
	m.services = append(m.services, s.Clone())
	return nil
}

func (m *MemoryStore) UpdateService(_ context.Context, s *scoring.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.serviceIndex(s.ID)
	if i < 0 {
		return fmt.Errorf("service %s: %w", s.ID, ErrNotFound)
	}
	m.services[i] = s.Clone()
	return nil
}

func (m *MemoryStore) SetServiceEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.serviceIndex(id)
	if i < 0 {
		return fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	m.services[i].Enabled = enabled
	return nil
}

func (m *MemoryStore) DeleteService(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.serviceIndex(id)
	if i < 0 {
		return fmt.Errorf("service %s: %w", id, ErrNotFound)
	}
	m.services = append(m.services[:i], m.services[i+1:]...)
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		TouchPoints: m.touchPoints,
		Personas:    m.personas,
		Services:    m.services,
	}.Clone(), nil
}
