package models

import "time"

// Signal is the categorical trade direction carried by a report.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
)

// SignalForScore is the threshold rule: BUY at 60 or above, SELL at 40 or below.
func SignalForScore(score float64) Signal {
	switch {
	case score >= 60:
		return SignalBuy
	case score <= 40:
		return SignalSell
	default:
		return SignalNeutral
	}
}

// Verdict classifies agreement between the consensus sub-scores.
type Verdict string

const (
	VerdictStrongConfluence Verdict = "STRONG_CONFLUENCE"
	VerdictModerate         Verdict = "MODERATE"
	VerdictDivergence       Verdict = "DIVERGENCE"
)

// Severity grades a red-team assessment.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ScoreDrivers is the four-way sub-score breakdown.
type ScoreDrivers struct {
	Technical     float64 `json:"technical" validate:"gte=0,lte=100"`
	Institutional float64 `json:"institutional" validate:"gte=0,lte=100"`
	Sentiment     float64 `json:"sentiment" validate:"gte=0,lte=100"`
	Macro         float64 `json:"macro" validate:"gte=0,lte=100"`
}

// ConsensusScores is the three-way sub-score breakdown with its verdict.
type ConsensusScores struct {
	Quant     float64 `json:"quantScore" validate:"gte=0,lte=100"`
	Flow      float64 `json:"flowScore" validate:"gte=0,lte=100"`
	Structure float64 `json:"structureScore" validate:"gte=0,lte=100"`
	Verdict   Verdict `json:"verdict" validate:"oneof=STRONG_CONFLUENCE MODERATE DIVERGENCE"`
}

// Scenario is one forward-looking price path.
type Scenario struct {
	Probability float64 `json:"probability" validate:"gte=0,lte=100"`
	TargetPrice float64 `json:"targetPrice" validate:"gte=0"`
	Description string  `json:"description"`
}

// ScenarioSet holds the three mutually exclusive scenarios.
// Probabilities sum to exactly 100 once normalized.
type ScenarioSet struct {
	Bullish Scenario `json:"bullish"`
	Neutral Scenario `json:"neutral"`
	Bearish Scenario `json:"bearish"`
}

// Sum returns the total probability mass.
func (s ScenarioSet) Sum() float64 {
	return s.Bullish.Probability + s.Neutral.Probability + s.Bearish.Probability
}

// TradingSetup describes how to act on the dominant scenario.
type TradingSetup struct {
	Identity             string   `json:"identity" validate:"required"`
	ConfirmationTriggers []string `json:"confirmationTriggers" validate:"required,min=1"`
	InvalidationPoint    float64  `json:"invalidationPoint" validate:"gte=0"`
}

// RedTeamReport is the adversarial review of the thesis.
type RedTeamReport struct {
	Risks       []string `json:"risks" validate:"required,min=1"`
	Mitigations []string `json:"mitigations" validate:"required,min=1"`
	Severity    Severity `json:"severity" validate:"oneof=LOW MEDIUM HIGH CRITICAL"`
	StressTest  string   `json:"stressTest"`
}

// GuardrailInputs are the cross-field flags the consistency rules read.
// They come from the upstream text and are never emitted as judgments of their own.
type GuardrailInputs struct {
	MacroCorrelation    string `json:"macroCorrelation,omitempty"`
	TimeframeAlignment  string `json:"timeframeAlignment,omitempty"`
	DistributionPhase   bool   `json:"distributionPhase,omitempty"`
	OverheadSupply      bool   `json:"overheadSupply,omitempty"`
	DebateWinner        string `json:"debateWinner,omitempty"`
	RetailSentiment     string `json:"retailSentiment,omitempty"`
	InstitutionalFlow   string `json:"institutionalFlow,omitempty"`
	SentimentDivergence bool   `json:"sentimentDivergence,omitempty"`
	VolatilityRegime    string `json:"volatilityRegime,omitempty"`
	StrategyType        string `json:"strategyType,omitempty"`
}

// Names of substructures the backfill layer may synthesize.
const (
	PartScoreDrivers = "scoreDrivers"
	PartConsensus    = "consensus"
	PartInsights     = "insights"
	PartCatalysts    = "catalysts"
	PartRedTeam      = "redTeam"
	PartTradingSetup = "tradingSetup"
)

// ReportMeta records how the report was produced.
type ReportMeta struct {
	RepairStrategy    string    `json:"repairStrategy"`
	DriversProvided   bool      `json:"driversProvided"`
	ConsensusProvided bool      `json:"consensusProvided"`
	Backfilled        []string  `json:"backfilled"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// IsBackfilled reports whether part was synthesized rather than read from upstream.
func (m ReportMeta) IsBackfilled(part string) bool {
	for _, p := range m.Backfilled {
		if p == part {
			return true
		}
	}
	return false
}

// AnalysisReport is the validated, internally consistent result handed to callers.
type AnalysisReport struct {
	ID            string          `json:"id"`
	Symbol        string          `json:"symbol"`
	DisplayName   string          `json:"displayName,omitempty"`
	AnchorPrice   float64         `json:"anchorPrice" validate:"gte=0"`
	MarketSegment MarketSegment   `json:"marketSegment"`
	Timeframe     string          `json:"timeframe"`
	Summary       string          `json:"summary"`
	WinRate       float64         `json:"winRate" validate:"gte=0,lte=100"`
	Signal        Signal          `json:"signal" validate:"oneof=BUY SELL NEUTRAL"`
	ScoreDrivers  ScoreDrivers    `json:"scoreDrivers"`
	Consensus     ConsensusScores `json:"consensus"`
	Scenarios     ScenarioSet     `json:"scenarios"`
	TradingSetup  TradingSetup    `json:"tradingSetup"`
	RedTeam       RedTeamReport   `json:"redTeam"`
	Insights      []string        `json:"insights" validate:"required,min=1"`
	Catalysts     []string        `json:"catalysts" validate:"required,min=1"`
	Guardrails    []string        `json:"guardrails"`
	Overrides     []string        `json:"overrides"`
	Inputs        GuardrailInputs `json:"inputs"`
	Meta          ReportMeta      `json:"meta"`
}

// Clone returns a deep copy so callers never share slices with the engine.
func (r *AnalysisReport) Clone() *AnalysisReport {
	if r == nil {
		return nil
	}
	out := *r
	out.TradingSetup.ConfirmationTriggers = cloneStrings(r.TradingSetup.ConfirmationTriggers)
	out.RedTeam.Risks = cloneStrings(r.RedTeam.Risks)
	out.RedTeam.Mitigations = cloneStrings(r.RedTeam.Mitigations)
	out.Insights = cloneStrings(r.Insights)
	out.Catalysts = cloneStrings(r.Catalysts)
	out.Guardrails = cloneStrings(r.Guardrails)
	out.Overrides = cloneStrings(r.Overrides)
	out.Meta.Backfilled = cloneStrings(r.Meta.Backfilled)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
