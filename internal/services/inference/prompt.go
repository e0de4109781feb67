package inference

import (
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
)

const analysisSystem = `You are a multi-desk market analyst. Answer with a single JSON object and nothing else.
Scores are 0-100. Prices are plain numbers in the instrument's quote currency.`

const analysisSchema = `{
  "summary": "two or three sentences",
  "winRate": 0,
  "scoreDrivers": {"technical": 0, "institutional": 0, "sentiment": 0, "macro": 0},
  "consensus": {"quantScore": 0, "flowScore": 0, "structureScore": 0, "verdict": "STRONG_CONFLUENCE|MODERATE|DIVERGENCE"},
  "scenarios": {
    "bullish": {"probability": 0, "targetPrice": 0, "description": ""},
    "neutral": {"probability": 0, "targetPrice": 0, "description": ""},
    "bearish": {"probability": 0, "targetPrice": 0, "description": ""}
  },
  "tradingSetup": {"identity": "", "confirmationTriggers": [""], "invalidationPoint": 0},
  "redTeam": {"risks": [""], "mitigations": [""], "severity": "LOW|MEDIUM|HIGH|CRITICAL", "stressTest": ""},
  "insights": [""],
  "catalysts": [""],
  "macroCorrelation": "e.g. strong negative vs DXY",
  "timeframeAlignment": "e.g. daily up, weekly down (conflict)",
  "distributionPhase": false,
  "overheadSupply": false,
  "debate": {"winner": "BULL|BEAR|NEUTRAL"},
  "retailSentiment": "e.g. extreme greed",
  "institutionalFlow": "e.g. net selling",
  "sentimentDivergence": false,
  "volatilityRegime": "e.g. high volatility",
  "strategyType": "e.g. trend following"
}`

// AnalysisRequest builds the inference request for a report. The chart image, if any, is
// attached by the caller.
func AnalysisRequest(symbol, displayName string, anchor float64, actx models.AnalysisContext) models.InferenceRequest {
	var b strings.Builder
	fmt.Fprintf(&b, "Instrument: %s", symbol)
	if displayName != "" && !strings.EqualFold(displayName, symbol) {
		fmt.Fprintf(&b, " (%s)", displayName)
	}
	fmt.Fprintf(&b, "\nMarket segment: %s\nTimeframe: %s\n", actx.MarketSegment, actx.Timeframe)
	if anchor > 0 {
		fmt.Fprintf(&b, "Current price: %g\n", anchor)
	} else {
		b.WriteString("Current price: unknown, estimate from the chart or latest data\n")
	}
	b.WriteString("\nReturn exactly this structure:\n")
	b.WriteString(analysisSchema)
	return models.InferenceRequest{
		System: analysisSystem,
		Prompt: b.String(),
		JSON:   true,
	}
}
