package guardrail

import (
	"math"
	"testing"

	"SignalDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driversReport(tech, inst, sent, macro float64) *models.AnalysisReport {
	return &models.AnalysisReport{
		ScoreDrivers: models.ScoreDrivers{Technical: tech, Institutional: inst, Sentiment: sent, Macro: macro},
		Consensus:    models.ConsensusScores{Quant: 50, Flow: 50, Structure: 50, Verdict: models.VerdictModerate},
		Meta:         models.ReportMeta{DriversProvided: true},
	}
}

func TestConsensusDivergenceScenario(t *testing.T) {
	r := &models.AnalysisReport{
		ScoreDrivers: models.ScoreDrivers{Technical: 50, Institutional: 50, Sentiment: 50, Macro: 50},
		Consensus:    models.ConsensusScores{Quant: 80, Flow: 30, Structure: 75, Verdict: models.VerdictStrongConfluence},
		Signal:       models.SignalBuy,
		WinRate:      90,
		Meta:         models.ReportMeta{ConsensusProvided: true},
	}

	o := NewEngine().Apply(r)

	assert.Equal(t, WeightingConsensus, o.Weighting)
	assert.InDelta(t, 61.0, o.Base, 1e-9)
	assert.Equal(t, 51.0, o.Report.WinRate)
	assert.Equal(t, models.VerdictDivergence, o.Report.Consensus.Verdict)
	assert.Equal(t, models.SignalNeutral, o.Report.Signal)
	assert.Equal(t, []string{RuleDivergencePenalty}, o.Report.Guardrails)

	// input is left untouched
	assert.Equal(t, models.SignalBuy, r.Signal)
	assert.Equal(t, 90.0, r.WinRate)
}

func TestFourWayWeights(t *testing.T) {
	o := NewEngine().Apply(driversReport(80, 70, 60, 50))
	// 80*.4 + 70*.3 + 60*.2 + 50*.1 = 70
	assert.Equal(t, WeightingDrivers, o.Weighting)
	assert.Equal(t, 70.0, o.Report.WinRate)
	assert.Equal(t, models.SignalBuy, o.Report.Signal)
	assert.Empty(t, o.Report.Guardrails)
}

func TestDriversWinOverConsensusWhenBothProvided(t *testing.T) {
	r := driversReport(20, 20, 20, 20)
	r.Consensus = models.ConsensusScores{Quant: 90, Flow: 90, Structure: 90}
	r.Meta.ConsensusProvided = true
	o := NewEngine().Apply(r)
	assert.Equal(t, 20.0, o.Report.WinRate)
	assert.Equal(t, models.SignalSell, o.Report.Signal)
}

func TestRules(t *testing.T) {
	cases := []struct {
		name   string
		score  float64
		inputs models.GuardrailInputs
		want   float64
		fired  []string
		signal models.Signal
	}{
		{"headwind", 70, models.GuardrailInputs{MacroCorrelation: "Headwind"}, 55, []string{RuleMacroHeadwind}, models.SignalNeutral},
		{"timeframe conflict caps", 90, models.GuardrailInputs{TimeframeAlignment: "CONFLICT"}, 70, []string{RuleTimeframeConflict}, models.SignalBuy},
		{"distribution caps", 90, models.GuardrailInputs{DistributionPhase: true}, 60, []string{RuleDistributionPhase}, models.SignalBuy},
		{"overhead supply caps", 90, models.GuardrailInputs{OverheadSupply: true}, 65, []string{RuleOverheadSupply}, models.SignalBuy},
		{"cap leaves low scores alone", 30, models.GuardrailInputs{OverheadSupply: true}, 30, []string{}, models.SignalSell},
		{"bear wins pulls below midpoint", 70, models.GuardrailInputs{DebateWinner: "BEAR"}, 50, []string{RuleDebateBearWins}, models.SignalNeutral},
		{"bear wins from far above midpoint", 90, models.GuardrailInputs{DebateWinner: "bears"}, 35, []string{RuleDebateBearWins}, models.SignalSell},
		{"bear wins margin lands on midpoint", 75, models.GuardrailInputs{DebateWinner: "bear"}, 35, []string{RuleDebateBearWins}, models.SignalSell},
		{"bear wins just above midpoint", 56, models.GuardrailInputs{DebateWinner: "bear"}, 36, []string{RuleDebateBearWins}, models.SignalSell},
		{"bull wins pushes toward midpoint", 30, models.GuardrailInputs{DebateWinner: "Bull"}, 50, []string{RuleDebateBullWins}, models.SignalNeutral},
		{"bull wins capped at midpoint", 40, models.GuardrailInputs{DebateWinner: "bull"}, 55, []string{RuleDebateBullWins}, models.SignalNeutral},
		{"sentiment divergence overrides", 90, models.GuardrailInputs{RetailSentiment: "Extreme Greed", InstitutionalFlow: "net selling"}, 70, []string{RuleSentimentDivergence}, models.SignalNeutral},
		{"low vol breakout", 70, models.GuardrailInputs{VolatilityRegime: "LOW_VOL", StrategyType: "Breakout"}, 50, []string{RuleVolatilityMismatch}, models.SignalNeutral},
		{"high vol mean reversion", 70, models.GuardrailInputs{VolatilityRegime: "high", StrategyType: "mean reversion"}, 50, []string{RuleVolatilityMismatch}, models.SignalNeutral},
		{"low vol mean reversion is fine", 70, models.GuardrailInputs{VolatilityRegime: "low", StrategyType: "mean reversion"}, 70, []string{}, models.SignalBuy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := driversReport(tc.score, tc.score, tc.score, tc.score)
			r.Inputs = tc.inputs
			o := NewEngine().Apply(r)
			assert.InDelta(t, tc.want, o.Report.WinRate, 1e-9)
			assert.Equal(t, tc.fired, o.Report.Guardrails)
			assert.Equal(t, tc.signal, o.Report.Signal)
		})
	}
}

func TestDeltasRunBeforeCaps(t *testing.T) {
	inputs := models.GuardrailInputs{MacroCorrelation: "headwind", TimeframeAlignment: "conflict"}

	r := driversReport(90, 90, 90, 90)
	r.Inputs = inputs
	o := NewEngine().Apply(r)
	// 90 - 15 = 75, then capped to 70; the reverse order would give 55.
	assert.Equal(t, 70.0, o.Report.WinRate)
	assert.Equal(t, []string{RuleMacroHeadwind, RuleTimeframeConflict}, o.Report.Guardrails)

	rules := DefaultRules()
	reversed := make([]Rule, 0, len(rules))
	for i := len(rules) - 1; i >= 0; i-- {
		reversed = append(reversed, rules[i])
	}
	o = NewEngine(reversed...).Apply(r)
	assert.Equal(t, 70.0, o.Report.WinRate)
}

func TestOverrideWinsOverThreshold(t *testing.T) {
	r := driversReport(100, 100, 100, 100)
	r.Inputs = models.GuardrailInputs{SentimentDivergence: true}
	o := NewEngine().Apply(r)
	assert.Equal(t, 80.0, o.Report.WinRate)
	assert.Equal(t, models.SignalNeutral, o.Report.Signal)
	assert.Equal(t, models.SignalNeutral, o.Override)
	assert.Equal(t, []string{RuleSentimentDivergence}, o.Report.Overrides)
}

func TestBoundsWithAdversarialSubScores(t *testing.T) {
	cases := []*models.AnalysisReport{
		driversReport(1e9, -1e9, math.NaN(), math.Inf(1)),
		driversReport(-50, -50, -50, -50),
		driversReport(500, 500, 500, 500),
	}
	for _, r := range cases {
		r.Inputs = models.GuardrailInputs{MacroCorrelation: "headwind", SentimentDivergence: true}
		o := NewEngine().Apply(r)
		require.GreaterOrEqual(t, o.Report.WinRate, 0.0)
		require.LessOrEqual(t, o.Report.WinRate, 100.0)
		d := o.Report.ScoreDrivers
		for _, v := range []float64{d.Technical, d.Institutional, d.Sentiment, d.Macro} {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	inputs := []models.GuardrailInputs{
		{},
		{MacroCorrelation: "headwind", DistributionPhase: true},
		{DebateWinner: "bear"},
		{DebateWinner: "bull"},
		{SentimentDivergence: true, OverheadSupply: true, TimeframeAlignment: "conflict"},
		{VolatilityRegime: "low", StrategyType: "breakout"},
	}
	e := NewEngine()
	for _, in := range inputs {
		for _, s := range []float64{0, 20, 44, 50, 56, 75, 100, 140} {
			r := driversReport(s, s/2, s, s)
			r.Inputs = in
			first := e.Apply(r)
			second := e.Apply(first.Report)
			require.Equal(t, first.Report, second.Report, "inputs=%+v score=%v", in, s)
		}
	}
}

func TestSignalDeterminism(t *testing.T) {
	for _, s := range []float64{0, 40, 40.01, 59.99, 60, 100} {
		assert.Equal(t, SignalFor(s, ""), SignalFor(s, ""))
		assert.Equal(t, models.SignalNeutral, SignalFor(s, models.SignalNeutral))
	}
	assert.Equal(t, models.SignalSell, SignalFor(40, ""))
	assert.Equal(t, models.SignalNeutral, SignalFor(40.01, ""))
	assert.Equal(t, models.SignalBuy, SignalFor(60, ""))
}
