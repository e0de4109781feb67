package models

import "strings"

// MarketSegment identifies the market a symbol trades in.
type MarketSegment string

const (
	SegmentCrypto   MarketSegment = "CRYPTO"
	SegmentUSEquity MarketSegment = "US_EQUITY"
	SegmentAShare   MarketSegment = "A_SHARE"
	SegmentForex    MarketSegment = "FOREX"
)

// IsValidSegment returns true if s is a supported market segment.
func IsValidSegment(s MarketSegment) bool {
	switch s {
	case SegmentCrypto, SegmentUSEquity, SegmentAShare, SegmentForex:
		return true
	default:
		return false
	}
}

// DefaultSegment returns the default market segment.
func DefaultSegment() MarketSegment { return SegmentUSEquity }

// NormalizeSegment converts a raw string to a valid segment (or default).
func NormalizeSegment(s string) MarketSegment {
	seg := MarketSegment(strings.ToUpper(strings.TrimSpace(s)))
	if IsValidSegment(seg) {
		return seg
	}
	return DefaultSegment()
}

// HorizonBucket groups timeframes by holding period.
type HorizonBucket string

const (
	HorizonShort  HorizonBucket = "SHORT"
	HorizonMedium HorizonBucket = "MEDIUM"
	HorizonLong   HorizonBucket = "LONG"
)

// BucketForTimeframe maps a chart timeframe ("15m", "4h", "1D", "1W", "3M", ...) to a bucket.
// Unknown or empty timeframes fall into the medium bucket.
func BucketForTimeframe(tf string) HorizonBucket {
	tf = strings.TrimSpace(tf)
	if tf == "" {
		return HorizonMedium
	}
	switch strings.ToLower(tf) {
	case "intraday", "scalp", "short", "hourly", "daily":
		return HorizonShort
	case "swing", "medium", "weekly":
		return HorizonMedium
	case "position", "long", "monthly", "quarterly", "yearly":
		return HorizonLong
	}
	if len(tf) > 1 && (tf[0] < '0' || tf[0] > '9') {
		return HorizonMedium
	}
	unit := tf[len(tf)-1]
	switch unit {
	case 'm', 's', 'h', 'H':
		return HorizonShort
	case 'd', 'D':
		return HorizonShort
	case 'w', 'W':
		return HorizonMedium
	case 'M', 'y', 'Y', 'q', 'Q':
		return HorizonLong
	}
	return HorizonMedium
}

// AnalysisContext is the small context the host hands the core with every request.
type AnalysisContext struct {
	MarketSegment MarketSegment `json:"marketSegment"`
	Timeframe     string        `json:"timeframe"`
}

// Bucket returns the horizon bucket of the context timeframe.
func (c AnalysisContext) Bucket() HorizonBucket { return BucketForTimeframe(c.Timeframe) }
