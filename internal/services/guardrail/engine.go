package guardrail

import (
	"math"
	"sort"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/coerce"

	"github.com/shopspring/decimal"
)

const divergenceThreshold = 30

// Weighting names which sub-score set produced the base composite.
type Weighting string

const (
	WeightingDrivers   Weighting = "drivers"
	WeightingConsensus Weighting = "consensus"
)

// Outcome is the adjusted report together with the trace of what happened to it.
type Outcome struct {
	Report    *models.AnalysisReport
	Weighting Weighting
	Base      float64
	Fired     []string
	Override  models.Signal
}

// Engine recomputes the composite score and signal of a report from its sub-scores.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over rules; with none, DefaultRules is used.
// Rules are stable-sorted by phase so table order is kept within a phase.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Phase < sorted[j].Phase })
	return &Engine{rules: sorted}
}

// Rules returns the ordered rule table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Apply runs the ordered pipeline on a copy of r: base composite, divergence penalty,
// guardrail rules, clamp, signal derivation, override precedence.
// The upstream win rate and signal are ignored, so Apply(Apply(r)) == Apply(r).
func (e *Engine) Apply(r *models.AnalysisReport) Outcome {
	out := r.Clone()
	clampSubScores(out)

	weighting, score := base(out)
	o := Outcome{Report: out, Weighting: weighting, Base: score}

	if diverged(out, weighting) {
		score -= 10
		out.Consensus.Verdict = models.VerdictDivergence
		o.Fired = append(o.Fired, RuleDivergencePenalty)
	}

	var overrideBy []string
	for _, rule := range e.rules {
		if !rule.Predicate(out.Inputs, score) {
			continue
		}
		score = rule.Effect(score)
		o.Fired = append(o.Fired, rule.Name)
		if rule.Override != "" {
			o.Override = rule.Override
			overrideBy = append(overrideBy, rule.Name)
		}
	}

	score = round2(coerce.Clamp(score, 0, 100))
	out.WinRate = score
	out.Signal = models.SignalForScore(score)
	if o.Override != "" {
		out.Signal = o.Override
	}
	out.Guardrails = nonNil(o.Fired)
	out.Overrides = nonNil(overrideBy)
	return o
}

// SignalFor is the pure mapping from final score and override to signal.
func SignalFor(score float64, override models.Signal) models.Signal {
	if override != "" {
		return override
	}
	return models.SignalForScore(score)
}

func base(r *models.AnalysisReport) (Weighting, float64) {
	if !r.Meta.DriversProvided && r.Meta.ConsensusProvided {
		c := r.Consensus
		return WeightingConsensus, c.Quant*0.35 + c.Flow*0.35 + c.Structure*0.30
	}
	d := r.ScoreDrivers
	return WeightingDrivers, d.Technical*0.4 + d.Institutional*0.3 + d.Sentiment*0.2 + d.Macro*0.1
}

func diverged(r *models.AnalysisReport, w Weighting) bool {
	if w == WeightingConsensus {
		return math.Abs(r.Consensus.Quant-r.Consensus.Flow) > divergenceThreshold
	}
	return math.Abs(r.ScoreDrivers.Technical-r.ScoreDrivers.Institutional) > divergenceThreshold
}

func clampSubScores(r *models.AnalysisReport) {
	d := &r.ScoreDrivers
	d.Technical = coerce.Clamp(d.Technical, 0, 100)
	d.Institutional = coerce.Clamp(d.Institutional, 0, 100)
	d.Sentiment = coerce.Clamp(d.Sentiment, 0, 100)
	d.Macro = coerce.Clamp(d.Macro, 0, 100)

	c := &r.Consensus
	c.Quant = coerce.Clamp(c.Quant, 0, 100)
	c.Flow = coerce.Clamp(c.Flow, 0, 100)
	c.Structure = coerce.Clamp(c.Structure, 0, 100)
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
