package backfill

import (
	"encoding/json"
	"testing"

	"SignalDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usDaily = models.AnalysisContext{MarketSegment: models.SegmentUSEquity, Timeframe: "1D"}

func TestDecodeEmptyPayloadBackfillsEverything(t *testing.T) {
	r := Decode(map[string]any{}, usDaily)

	assert.Equal(t, 50.0, r.WinRate)
	assert.Equal(t, models.SignalNeutral, r.Signal)
	assert.Equal(t, models.ScoreDrivers{Technical: 50, Institutional: 50, Sentiment: 50, Macro: 50}, r.ScoreDrivers)
	assert.Equal(t, models.VerdictModerate, r.Consensus.Verdict)
	assert.False(t, r.Meta.DriversProvided)
	assert.False(t, r.Meta.ConsensusProvided)
	assert.ElementsMatch(t, []string{
		models.PartScoreDrivers, models.PartConsensus, models.PartTradingSetup,
		models.PartRedTeam, models.PartInsights, models.PartCatalysts,
	}, r.Meta.Backfilled)

	assert.Equal(t, []string{genericRisk}, r.RedTeam.Risks)
	assert.Equal(t, []string{genericMitigation}, r.RedTeam.Mitigations)
	assert.Equal(t, models.SeverityLow, r.RedTeam.Severity)
	assert.NotEmpty(t, r.Insights)
	assert.NotEmpty(t, r.Catalysts)
}

func TestDecodeDriversFallBackToWinRate(t *testing.T) {
	r := Decode(map[string]any{
		"winRate":      json.Number("72"),
		"scoreDrivers": map[string]any{"technical": "80%"},
	}, usDaily)

	assert.Equal(t, 72.0, r.WinRate)
	assert.Equal(t, models.SignalBuy, r.Signal)
	assert.Equal(t, models.ScoreDrivers{Technical: 80, Institutional: 72, Sentiment: 72, Macro: 72}, r.ScoreDrivers)
	assert.True(t, r.Meta.DriversProvided)
	assert.False(t, r.Meta.IsBackfilled(models.PartScoreDrivers))
	assert.Equal(t, models.ConsensusScores{Quant: 72, Flow: 72, Structure: 72, Verdict: models.VerdictModerate}, r.Consensus)
}

func TestDecodeAliasesAndEnums(t *testing.T) {
	r := Decode(map[string]any{
		"score":     150,
		"consensus": map[string]any{"quant": 40, "flow": 45, "structure": 42, "verdict": "strong confluence"},
		"scenarios": map[string]any{
			"bull": map[string]any{"prob": "55", "target": "$210"},
			"base": map[string]any{"probability": 30, "targetPrice": 200},
			"bear": map[string]any{"likelihood": 15, "price": 180, "narrative": "breakdown"},
		},
		"redTeam":      map[string]any{"risks": []any{"earnings miss"}, "severity": "high"},
		"keyInsights":  []any{map[string]any{"title": "Breakout above range"}},
		"debate":       map[string]any{"winner": "BEAR"},
		"distribution": "yes",
	}, usDaily)

	assert.Equal(t, 100.0, r.WinRate)
	assert.Equal(t, models.VerdictStrongConfluence, r.Consensus.Verdict)
	assert.Equal(t, 55.0, r.Scenarios.Bullish.Probability)
	assert.Equal(t, 210.0, r.Scenarios.Bullish.TargetPrice)
	assert.Equal(t, "breakdown", r.Scenarios.Bearish.Description)
	assert.Equal(t, models.SeverityHigh, r.RedTeam.Severity)
	assert.Equal(t, []string{genericMitigation}, r.RedTeam.Mitigations)
	assert.Equal(t, genericStressTest, r.RedTeam.StressTest)
	assert.False(t, r.Meta.IsBackfilled(models.PartRedTeam))
	assert.Equal(t, []string{"Breakout above range"}, r.Insights)
	assert.Equal(t, "BEAR", r.Inputs.DebateWinner)
	assert.True(t, r.Inputs.DistributionPhase)
}

func TestLookupIsDeterministicAndDefaults(t *testing.T) {
	a := Lookup(models.SignalBuy, models.SegmentCrypto, models.HorizonShort)
	b := Lookup(models.SignalBuy, models.SegmentCrypto, models.HorizonShort)
	assert.Equal(t, a, b)
	require.Len(t, a.Insights, 4)
	require.Len(t, a.Catalysts, 3)

	fallback := Lookup("MAYBE", "MOON", "FOREVER")
	assert.Equal(t, Lookup(models.SignalNeutral, models.SegmentUSEquity, models.HorizonMedium), fallback)
}

func TestRefreshCommentaryOnlyTouchesSynthesizedLists(t *testing.T) {
	r := Decode(map[string]any{"winRate": 55, "catalysts": []any{"Product launch"}}, usDaily)
	require.True(t, r.Meta.IsBackfilled(models.PartInsights))

	r.Signal = models.SignalSell
	RefreshCommentary(r)

	want := Lookup(models.SignalSell, models.SegmentUSEquity, models.HorizonShort)
	assert.Equal(t, want.Insights, r.Insights)
	assert.Equal(t, []string{"Product launch"}, r.Catalysts)
}
