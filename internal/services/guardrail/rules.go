package guardrail

import (
	"math"
	"strings"

	"SignalDesk/internal/domain/models"
)

// Phase orders rules: every delta runs before any cap.
type Phase int

const (
	PhaseDelta Phase = iota
	PhaseCap
)

func (p Phase) String() string {
	if p == PhaseCap {
		return "cap"
	}
	return "delta"
}

// Rule is one predicate/effect pair. Override, when set, replaces the threshold signal.
type Rule struct {
	Name      string
	Phase     Phase
	Predicate func(in models.GuardrailInputs, score float64) bool
	Effect    func(score float64) float64
	Override  models.Signal
}

// Rule names, as they appear in a report's guardrail trace.
const (
	RuleMacroHeadwind       = "macro_headwind"
	RuleDebateBearWins      = "debate_bear_wins"
	RuleDebateBullWins      = "debate_bull_wins"
	RuleSentimentDivergence = "sentiment_divergence"
	RuleVolatilityMismatch  = "volatility_strategy_mismatch"
	RuleTimeframeConflict   = "timeframe_conflict"
	RuleDistributionPhase   = "distribution_phase"
	RuleOverheadSupply      = "overhead_supply"
	RuleDivergencePenalty   = "divergence_penalty"
)

const debateMidpoint = 55

// DefaultRules returns the production rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      RuleMacroHeadwind,
			Phase:     PhaseDelta,
			Predicate: func(in models.GuardrailInputs, _ float64) bool { return has(in.MacroCorrelation, "headwind") },
			Effect:    add(-15),
		},
		{
			Name:  RuleDebateBearWins,
			Phase: PhaseDelta,
			Predicate: func(in models.GuardrailInputs, score float64) bool {
				return has(in.DebateWinner, "bear") && score > debateMidpoint
			},
			Effect: pullBelowMidpoint,
		},
		{
			Name:  RuleDebateBullWins,
			Phase: PhaseDelta,
			Predicate: func(in models.GuardrailInputs, score float64) bool {
				return has(in.DebateWinner, "bull") && score < 45
			},
			Effect: func(score float64) float64 { return math.Min(score+20, debateMidpoint) },
		},
		{
			Name:      RuleSentimentDivergence,
			Phase:     PhaseDelta,
			Predicate: func(in models.GuardrailInputs, _ float64) bool { return bearishDivergence(in) },
			Effect:    add(-20),
			Override:  models.SignalNeutral,
		},
		{
			Name:      RuleVolatilityMismatch,
			Phase:     PhaseDelta,
			Predicate: func(in models.GuardrailInputs, _ float64) bool { return volatilityMismatch(in) },
			Effect:    add(-20),
		},
		{
			Name:  RuleTimeframeConflict,
			Phase: PhaseCap,
			Predicate: func(in models.GuardrailInputs, score float64) bool {
				return has(in.TimeframeAlignment, "conflict") && score > 70
			},
			Effect: limit(70),
		},
		{
			Name:      RuleDistributionPhase,
			Phase:     PhaseCap,
			Predicate: func(in models.GuardrailInputs, score float64) bool { return in.DistributionPhase && score > 60 },
			Effect:    limit(60),
		},
		{
			Name:      RuleOverheadSupply,
			Phase:     PhaseCap,
			Predicate: func(in models.GuardrailInputs, score float64) bool { return in.OverheadSupply && score > 65 },
			Effect:    limit(65),
		},
	}
}

// bearishDivergence: retail greed while institutions sell, or an explicit flag.
func bearishDivergence(in models.GuardrailInputs) bool {
	if in.SentimentDivergence {
		return true
	}
	greedy := has(in.RetailSentiment, "greed") || has(in.RetailSentiment, "euphori")
	selling := has(in.InstitutionalFlow, "sell") || has(in.InstitutionalFlow, "outflow") ||
		has(in.InstitutionalFlow, "distribut")
	return greedy && selling
}

func volatilityMismatch(in models.GuardrailInputs) bool {
	regime := strings.ToLower(in.VolatilityRegime)
	strategy := strings.ToLower(in.StrategyType)
	switch {
	case strings.Contains(regime, "low") && strings.Contains(strategy, "breakout"):
		return true
	case strings.Contains(regime, "high") && strings.Contains(strategy, "mean"):
		return true
	}
	return false
}

func has(field, word string) bool {
	return strings.Contains(strings.ToLower(field), word)
}

func add(delta float64) func(float64) float64 {
	return func(score float64) float64 { return score + delta }
}

func limit(ceiling float64) func(float64) float64 {
	return func(score float64) float64 { return math.Min(score, ceiling) }
}

// pullBelowMidpoint applies the 20-point debate margin and guarantees the result ends strictly
// below the midpoint.
func pullBelowMidpoint(score float64) float64 {
	if score -= 20; score >= debateMidpoint {
		return debateMidpoint - 20
	}
	return score
}
