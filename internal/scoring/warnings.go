package scoring

import "fmt"

// WarningUnknownTouchPoint marks a need, journey step or fulfillment entry that
// points at a touchpoint id outside the touchpoint set.
const WarningUnknownTouchPoint = "unknown_touchpoint_reference"

// Warning is a non-fatal condition found while computing a simulation.
type Warning struct {
	Kind         string `json:"kind"`
	EntityType   string `json:"entity_type"`
	EntityID     string `json:"entity_id"`
	Field        string `json:"field"`
	TouchPointID string `json:"touch_point_id"`
	Message      string `json:"message"`
}

// CheckReferences lists every dangling touchpoint reference in a stable order:
// personas then services in input order, needs keys sorted, journey in path order.
// Dangling references are ignored by scoring.
func CheckReferences(personas []Persona, services []Service, touchPoints []TouchPoint) []Warning {
	known := make(map[string]bool, len(touchPoints))
	for _, tp := range touchPoints {
		known[tp.ID] = true
	}

	var warnings []Warning
	add := func(entityType, entityID, field, tpID string) {
		warnings = append(warnings, unknownTouchPoint(entityType, entityID, field, tpID))
	}

	for i := range personas {
		p := &personas[i]
		for _, tp := range sortedKeys(p.Needs) {
			if !known[tp] {
				add("persona", p.ID, "needs", tp)
			}
		}
		for _, tp := range p.Journey {
			if !known[tp] {
				add("persona", p.ID, "journey", tp)
			}
		}
	}
	for i := range services {
		s := &services[i]
		for _, tp := range sortedKeys(s.Fulfillment) {
			if !known[tp] {
				add("service", s.ID, "fulfillment", tp)
			}
		}
	}
	return warnings
}

func unknownTouchPoint(entityType, entityID, field, tpID string) Warning {
	return Warning{
		Kind:         WarningUnknownTouchPoint,
		EntityType:   entityType,
		EntityID:     entityID,
		Field:        field,
		TouchPointID: tpID,
		Message:      fmt.Sprintf("%s %s references unknown touchpoint %q in %s", entityType, entityID, tpID, field),
	}
}
