package hermes

import "time"

type PersonaChangedEvent struct {
	PersonaID string    `json:"persona_id"`
	Name      string    `json:"name,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type ServiceChangedEvent struct {
	ServiceID string    `json:"service_id"`
	Name      string    `json:"name,omitempty"`
	Action    string    `json:"action"`
	Enabled   bool      `json:"enabled"`
	Cost      float64   `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
}

// SimulationRecomputedEvent carries the headline figures of a fresh state.
type SimulationRecomputedEvent struct {
	Trigger         string    `json:"trigger"`
	OverallImpact   int       `json:"overall_impact"`
	TotalCost       float64   `json:"total_cost"`
	ROI             int       `json:"roi"`
	EnabledServices int       `json:"enabled_services"`
	Warnings        int       `json:"warnings"`
	Timestamp       time.Time `json:"timestamp"`
}

// ToggleServiceCommand asks the simulator to flip a service. When Enabled is
// set the service is forced to that state instead.
type ToggleServiceCommand struct {
	ServiceID string `json:"service_id"`
	Enabled   *bool  `json:"enabled,omitempty"`
}
