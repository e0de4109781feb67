package backfill

import "SignalDesk/internal/domain/models"

// Commentary is the static fallback content for one (signal, segment, horizon) key.
type Commentary struct {
	Insights  []string
	Catalysts []string
}

var signalInsights = map[models.Signal][]string{
	models.SignalBuy: {
		"Weighted sub-scores lean constructive; momentum and positioning favour upside continuation.",
		"Pullbacks toward support are more likely to attract demand than to extend lower.",
	},
	models.SignalSell: {
		"Weighted sub-scores lean defensive; rallies are more likely to meet supply than to extend.",
		"Risk of further downside outweighs the reward of catching a reversal early.",
	},
	models.SignalNeutral: {
		"Sub-scores are balanced; no side has a decisive edge at current levels.",
		"Waiting for confirmation outside the current range is preferable to anticipating it.",
	},
}

var segmentInsights = map[models.MarketSegment]string{
	models.SegmentCrypto:   "Crypto trades around the clock; weekend liquidity gaps can exaggerate moves.",
	models.SegmentUSEquity: "US equity flows are sensitive to index rebalancing and options expiry.",
	models.SegmentAShare:   "A-share price action is shaped by daily limit bands and northbound flows.",
	models.SegmentForex:    "Currency pairs react first to rate differentials and central bank guidance.",
}

var segmentCatalysts = map[models.MarketSegment][]string{
	models.SegmentCrypto:   {"Exchange flow and stablecoin supply changes", "Regulatory headlines"},
	models.SegmentUSEquity: {"Next earnings release", "FOMC rate decision"},
	models.SegmentAShare:   {"PBoC liquidity operations", "Policy announcements from the State Council"},
	models.SegmentForex:    {"Central bank meetings", "Inflation and employment prints"},
}

var horizonInsights = map[models.HorizonBucket]string{
	models.HorizonShort:  "On a short horizon, intraday levels matter more than the broader trend.",
	models.HorizonMedium: "On a swing horizon, weekly structure sets the bias and daily levels the timing.",
	models.HorizonLong:   "On a long horizon, macro regime and valuation outweigh short-term noise.",
}

var horizonCatalysts = map[models.HorizonBucket]string{
	models.HorizonShort:  "Session open and close volatility",
	models.HorizonMedium: "Weekly close relative to key moving averages",
	models.HorizonLong:   "Shifts in the macro cycle",
}

// Lookup returns the deterministic fallback commentary for a key.
// Unknown segments and buckets fall back to the defaults.
func Lookup(sig models.Signal, seg models.MarketSegment, bucket models.HorizonBucket) Commentary {
	if _, ok := signalInsights[sig]; !ok {
		sig = models.SignalNeutral
	}
	if !models.IsValidSegment(seg) {
		seg = models.DefaultSegment()
	}
	if _, ok := horizonInsights[bucket]; !ok {
		bucket = models.HorizonMedium
	}

	insights := make([]string, 0, 4)
	insights = append(insights, signalInsights[sig]...)
	insights = append(insights, segmentInsights[seg], horizonInsights[bucket])

	catalysts := make([]string, 0, 3)
	catalysts = append(catalysts, segmentCatalysts[seg]...)
	catalysts = append(catalysts, horizonCatalysts[bucket])

	return Commentary{Insights: insights, Catalysts: catalysts}
}

// RefreshCommentary re-keys synthesized commentary by the report's final signal.
// Upstream-provided lists are never touched.
func RefreshCommentary(r *models.AnalysisReport) {
	c := Lookup(r.Signal, r.MarketSegment, models.BucketForTimeframe(r.Timeframe))
	if r.Meta.IsBackfilled(models.PartInsights) {
		r.Insights = c.Insights
	}
	if r.Meta.IsBackfilled(models.PartCatalysts) {
		r.Catalysts = c.Catalysts
	}
}
