package backfill

import (
	"strings"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/coerce"
)

// Neutral midpoint used when no composite score is available.
const neutralScore = 50

// Placeholder red-team content.
const (
	genericRisk       = "Thesis could be invalidated by an unexpected macro or liquidity shock."
	genericMitigation = "Size the position conservatively and respect the invalidation level."
	genericStressTest = "A sharp risk-off move would test the invalidation level before any target."
)

// Decode maps a parsed payload onto a report and backfills every absent substructure.
// The trading setup is only partially filled here; the scenario normalizer derives the rest.
func Decode(obj map[string]any, actx models.AnalysisContext) *models.AnalysisReport {
	r := &models.AnalysisReport{
		Summary:       coerce.String(lookup(obj, "summary", "analysis", "thesis")),
		DisplayName:   coerce.String(lookup(obj, "displayName", "name", "companyName")),
		MarketSegment: actx.MarketSegment,
		Timeframe:     actx.Timeframe,
	}

	composite, hasComposite := coerce.ScoreOK(lookup(obj, "winRate", "win_rate", "compositeScore", "score"))
	fallback := float64(neutralScore)
	if hasComposite {
		fallback = composite
	}
	r.WinRate = fallback

	decodeDrivers(r, object(obj, "scoreDrivers", "drivers", "score_drivers"), fallback)
	decodeConsensus(r, object(obj, "consensus", "consensusScores", "consensus_scores"), fallback)
	r.Scenarios = decodeScenarios(object(obj, "scenarios"))
	decodeSetup(r, object(obj, "tradingSetup", "trading_setup", "setup"))
	decodeRedTeam(r, object(obj, "redTeam", "redTeamReport", "red_team"))
	r.Inputs = decodeInputs(obj)

	// Commentary is keyed by a provisional signal; RefreshCommentary re-keys it later.
	c := Lookup(models.SignalForScore(fallback), actx.MarketSegment, actx.Bucket())
	r.Insights = coerce.Strings(lookup(obj, "insights", "keyInsights", "key_insights"))
	if len(r.Insights) == 0 {
		r.Insights = c.Insights
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartInsights)
	}
	r.Catalysts = coerce.Strings(lookup(obj, "catalysts", "upcomingCatalysts"))
	if len(r.Catalysts) == 0 {
		r.Catalysts = c.Catalysts
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartCatalysts)
	}

	r.Signal = models.SignalForScore(r.WinRate)
	return r
}

func decodeDrivers(r *models.AnalysisReport, m map[string]any, fallback float64) {
	found := 0
	pick := func(keys ...string) float64 {
		v, ok := coerce.ScoreOK(lookup(m, keys...))
		if !ok {
			return fallback
		}
		found++
		return v
	}
	r.ScoreDrivers = models.ScoreDrivers{
		Technical:     pick("technical", "technicalScore"),
		Institutional: pick("institutional", "institutionalScore", "flow"),
		Sentiment:     pick("sentiment", "sentimentScore"),
		Macro:         pick("macro", "macroScore"),
	}
	r.Meta.DriversProvided = found > 0
	if found == 0 {
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartScoreDrivers)
	}
}

func decodeConsensus(r *models.AnalysisReport, m map[string]any, fallback float64) {
	found := 0
	pick := func(keys ...string) float64 {
		v, ok := coerce.ScoreOK(lookup(m, keys...))
		if !ok {
			return fallback
		}
		found++
		return v
	}
	r.Consensus = models.ConsensusScores{
		Quant:     pick("quantScore", "quant", "quantitative"),
		Flow:      pick("flowScore", "flow"),
		Structure: pick("structureScore", "structure"),
		Verdict:   verdict(coerce.String(lookup(m, "verdict"))),
	}
	r.Meta.ConsensusProvided = found > 0
	if found == 0 {
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartConsensus)
	}
}

func verdict(s string) models.Verdict {
	switch v := models.Verdict(normalizeEnum(s)); v {
	case models.VerdictStrongConfluence, models.VerdictModerate, models.VerdictDivergence:
		return v
	}
	return models.VerdictModerate
}

func decodeScenarios(m map[string]any) models.ScenarioSet {
	one := func(keys ...string) models.Scenario {
		s := object(m, keys...)
		return models.Scenario{
			Probability: coerce.Number(lookup(s, "probability", "prob", "likelihood")),
			TargetPrice: coerce.Number(lookup(s, "targetPrice", "target", "price")),
			Description: coerce.String(lookup(s, "description", "summary", "narrative")),
		}
	}
	return models.ScenarioSet{
		Bullish: one("bullish", "bull", "bullCase"),
		Neutral: one("neutral", "base", "baseCase"),
		Bearish: one("bearish", "bear", "bearCase"),
	}
}

func decodeSetup(r *models.AnalysisReport, m map[string]any) {
	r.TradingSetup = models.TradingSetup{
		Identity:             coerce.String(lookup(m, "identity", "setupType", "name")),
		ConfirmationTriggers: coerce.Strings(lookup(m, "confirmationTriggers", "triggers", "entryTriggers")),
		InvalidationPoint:    coerce.Number(lookup(m, "invalidationPoint", "invalidation", "stopLoss")),
	}
	if m == nil {
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartTradingSetup)
	}
}

func decodeRedTeam(r *models.AnalysisReport, m map[string]any) {
	if m == nil {
		r.RedTeam = models.RedTeamReport{
			Risks:       []string{genericRisk},
			Mitigations: []string{genericMitigation},
			Severity:    models.SeverityLow,
			StressTest:  genericStressTest,
		}
		r.Meta.Backfilled = append(r.Meta.Backfilled, models.PartRedTeam)
		return
	}

	rt := models.RedTeamReport{
		Risks:       coerce.Strings(lookup(m, "risks", "criticalRisks")),
		Mitigations: coerce.Strings(lookup(m, "mitigations", "hedges")),
		Severity:    severity(coerce.String(lookup(m, "severity", "riskLevel"))),
		StressTest:  coerce.String(lookup(m, "stressTest", "stress_test")),
	}
	if len(rt.Risks) == 0 {
		rt.Risks = []string{genericRisk}
	}
	if len(rt.Mitigations) == 0 {
		rt.Mitigations = []string{genericMitigation}
	}
	if rt.StressTest == "" {
		rt.StressTest = genericStressTest
	}
	r.RedTeam = rt
}

func severity(s string) models.Severity {
	switch v := models.Severity(normalizeEnum(s)); v {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
		return v
	}
	return models.SeverityLow
}

func decodeInputs(obj map[string]any) models.GuardrailInputs {
	debate := object(obj, "debate", "adjudication")
	winner := coerce.String(lookup(obj, "debateWinner", "winner"))
	if winner == "" {
		winner = coerce.String(lookup(debate, "winner", "verdict"))
	}
	return models.GuardrailInputs{
		MacroCorrelation:    coerce.String(lookup(obj, "macroCorrelation", "macro_correlation")),
		TimeframeAlignment:  coerce.String(lookup(obj, "timeframeAlignment", "mtfTrend", "trendAlignment")),
		DistributionPhase:   coerce.Bool(lookup(obj, "distributionPhase", "distribution")),
		OverheadSupply:      coerce.Bool(lookup(obj, "overheadSupply", "overhead_supply")),
		DebateWinner:        winner,
		RetailSentiment:     coerce.String(lookup(obj, "retailSentiment", "retail_sentiment")),
		InstitutionalFlow:   coerce.String(lookup(obj, "institutionalFlow", "institutional_flow")),
		SentimentDivergence: coerce.Bool(lookup(obj, "sentimentDivergence", "bearishDivergence")),
		VolatilityRegime:    coerce.String(lookup(obj, "volatilityRegime", "volRegime")),
		StrategyType:        coerce.String(lookup(obj, "strategyType", "strategy")),
	}
}

// lookup returns the first present key. A nil map yields nil.
func lookup(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func object(m map[string]any, keys ...string) map[string]any {
	obj, _ := lookup(m, keys...).(map[string]any)
	return obj
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
