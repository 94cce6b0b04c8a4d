package scoring

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrOutOfRange covers negative costs and factor or weight values outside [0,100].
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnknownTouchPoint is returned when an entity references a touchpoint
	// that is not defined.
	ErrUnknownTouchPoint = errors.New("unknown touchpoint")
	// ErrInvalidEntity covers missing identifiers and names.
	ErrInvalidEntity = errors.New("invalid entity")
)

// MaxServiceCost bounds a single service's cost so portfolio totals stay finite.
const MaxServiceCost = 1e12

func checkPercent(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be within [0,100], got %v", ErrOutOfRange, field, v)
	}
	return nil
}

func checkVector(field string, v [FactorCount]float64) error {
	for i, f := range v {
		if err := checkPercent(fmt.Sprintf("%s[%d]", field, i), f); err != nil {
			return err
		}
	}
	return nil
}

func touchPointSet(tps []TouchPoint) map[string]bool {
	set := make(map[string]bool, len(tps))
	for _, tp := range tps {
		set[tp.ID] = true
	}
	return set
}

// ValidateTouchPoint checks a touchpoint definition.
func ValidateTouchPoint(tp TouchPoint) error {
	if tp.ID == "" {
		return fmt.Errorf("%w: touchpoint id required", ErrInvalidEntity)
	}
	if tp.Name == "" {
		return fmt.Errorf("%w: touchpoint %s name required", ErrInvalidEntity, tp.ID)
	}
	return nil
}

// ValidateTouchPoints checks every touchpoint and rejects duplicate ids.
func ValidateTouchPoints(tps []TouchPoint) error {
	seen := make(map[string]bool, len(tps))
	for _, tp := range tps {
		if err := ValidateTouchPoint(tp); err != nil {
			return err
		}
		if seen[tp.ID] {
			return fmt.Errorf("%w: duplicate touchpoint id %s", ErrInvalidEntity, tp.ID)
		}
		seen[tp.ID] = true
	}
	return nil
}

// ValidatePersona rejects out-of-range weights and needs, and needs or journey
// steps that reference unknown touchpoints.
func ValidatePersona(p Persona, touchPoints []TouchPoint) error {
	if p.ID == "" {
		return fmt.Errorf("%w: persona id required", ErrInvalidEntity)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: persona %s name required", ErrInvalidEntity, p.ID)
	}
	if err := checkPercent("relevance", p.Relevance); err != nil {
		return err
	}
	if err := checkPercent("volume", p.Volume); err != nil {
		return err
	}
	if err := checkPercent("score", p.Score); err != nil {
		return err
	}
	known := touchPointSet(touchPoints)
	for _, tp := range sortedKeys(p.Needs) {
		if !known[tp] {
			return fmt.Errorf("%w: needs references %s", ErrUnknownTouchPoint, tp)
		}
		if err := checkVector("needs."+tp, p.Needs[tp]); err != nil {
			return err
		}
	}
	for _, tp := range p.Journey {
		if !known[tp] {
			return fmt.Errorf("%w: journey references %s", ErrUnknownTouchPoint, tp)
		}
	}
	return nil
}

// ValidateService rejects negative costs, out-of-range fulfillment and
// fulfillment entries for unknown touchpoints.
func ValidateService(s Service, touchPoints []TouchPoint) error {
	if s.ID == "" {
		return fmt.Errorf("%w: service id required", ErrInvalidEntity)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: service %s name required", ErrInvalidEntity, s.ID)
	}
	if math.IsNaN(s.Cost) || s.Cost < 0 || s.Cost > MaxServiceCost {
		return fmt.Errorf("%w: cost must be within [0,%g], got %v", ErrOutOfRange, float64(MaxServiceCost), s.Cost)
	}
	known := touchPointSet(touchPoints)
	for _, tp := range sortedKeys(s.Fulfillment) {
		if !known[tp] {
			return fmt.Errorf("%w: fulfillment references %s", ErrUnknownTouchPoint, tp)
		}
		if err := checkVector("fulfillment."+tp, s.Fulfillment[tp]); err != nil {
			return err
		}
	}
	return nil
}
