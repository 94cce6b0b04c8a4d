package scoring

// TouchPointScore is the full breakdown of one persona/touchpoint evaluation.
type TouchPointScore struct {
	Baseline         float64 `json:"baseline"`
	FulfillmentScore float64 `json:"fulfillment_score"`
	Final            float64 `json:"final"`
	Score            int     `json:"score"`
	Improvement      int     `json:"improvement"`
	Defined          bool    `json:"defined"`
}

// normalizeNeed puts every need factor on the higher-is-better scale.
func (e *Engine) normalizeNeed(need NeedVector) NeedVector {
	var out NeedVector
	for i, f := range e.cfg.Model.Factors {
		v := clampFactor(need[i])
		if f.Polarity == LowerIsBetter {
			v = 100 - v
		}
		out[i] = v
	}
	return out
}

// Baseline is the experience quality with no services at all: the mean of the
// polarity-normalized need factors.
func (e *Engine) Baseline(need NeedVector) float64 {
	norm := e.normalizeNeed(need)
	var sum float64
	for _, v := range norm {
		sum += v
	}
	return sum / FactorCount
}

// FulfillmentScore weighs, per factor, how much of the normalized need the
// portfolio can cover. Capability beyond the need earns nothing.
// Fulfillment values are already higher-is-better and are not re-inverted.
func (e *Engine) FulfillmentScore(need NeedVector, fulfillment FulfillmentVector) float64 {
	norm := e.normalizeNeed(need)
	var total float64
	for i := range norm {
		covered := min(norm[i], clampFactor(fulfillment[i]))
		total += covered * e.cfg.Weights[i]
	}
	return total
}

// ScoreTouchPoint evaluates one persona's need against the aggregated
// fulfillment at one touchpoint. A nil need means the persona has no entry for
// the touchpoint and always yields a zero score and zero improvement.
//
//	final       = clamp(baseline*0.3 + fulfillment*0.7, 0, 100)
//	improvement = round(final) - round(baseline)
func (e *Engine) ScoreTouchPoint(need *NeedVector, fulfillment FulfillmentVector) TouchPointScore {
	if need == nil {
		return TouchPointScore{}
	}
	baseline := e.Baseline(*need)
	fs := e.FulfillmentScore(*need, fulfillment)
	final := clamp(baseline*e.cfg.Blend.Baseline+fs*e.cfg.Blend.Fulfillment, 0, 100)
	score := round(final)
	return TouchPointScore{
		Baseline:         baseline,
		FulfillmentScore: fs,
		Final:            final,
		Score:            score,
		Improvement:      score - round(baseline),
		Defined:          true,
	}
}
