package scenario

import (
	"fmt"
	"strconv"

	"SignalDesk/internal/domain/models"
)

// Direction names the dominant scenario.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Neutral Direction = "NEUTRAL"
	Bearish Direction = "BEARISH"
)

// Dominant returns the scenario with the highest probability. Any tie resolves to neutral.
func Dominant(set models.ScenarioSet) Direction {
	b, n, s := set.Bullish.Probability, set.Neutral.Probability, set.Bearish.Probability
	switch {
	case b > n && b > s:
		return Bullish
	case s > n && s > b:
		return Bearish
	default:
		return Neutral
	}
}

// ReconcileSetup fills missing trading-setup fields from the dominant scenario and replaces an
// invalidation point that sits on the wrong side of the anchor. set must already be normalized.
func ReconcileSetup(setup models.TradingSetup, set models.ScenarioSet, anchor float64) models.TradingSetup {
	anchor = Anchor(anchor)
	dir := Dominant(set)
	bull, bear := set.Bullish.TargetPrice, set.Bearish.TargetPrice

	if setup.Identity == "" {
		setup.Identity = identity(dir, bull, bear)
	}
	if len(setup.ConfirmationTriggers) == 0 {
		setup.ConfirmationTriggers = triggers(dir, anchor, bull, bear)
	}

	inv := price(setup.InvalidationPoint)
	switch dir {
	case Bullish:
		if inv <= 0 || inv >= anchor {
			inv = bear
		}
	case Bearish:
		if inv <= anchor {
			inv = bull
		}
	default:
		if inv <= 0 {
			inv = bear
		}
	}
	setup.InvalidationPoint = inv
	return setup
}

func identity(dir Direction, bull, bear float64) string {
	switch dir {
	case Bullish:
		return fmt.Sprintf("Trend continuation long toward %s", fmtPrice(bull))
	case Bearish:
		return fmt.Sprintf("Breakdown short toward %s", fmtPrice(bear))
	default:
		return fmt.Sprintf("Range trade between %s and %s", fmtPrice(bear), fmtPrice(bull))
	}
}

func triggers(dir Direction, anchor, bull, bear float64) []string {
	switch dir {
	case Bullish:
		return []string{
			fmt.Sprintf("Daily close above %s with rising volume", fmtPrice(anchor)),
			fmt.Sprintf("No rejection on the approach to %s", fmtPrice(bull)),
		}
	case Bearish:
		return []string{
			fmt.Sprintf("Daily close below %s with rising volume", fmtPrice(anchor)),
			fmt.Sprintf("Failed retest of %s from below", fmtPrice(anchor)),
		}
	default:
		return []string{
			fmt.Sprintf("Price holds between %s and %s", fmtPrice(bear), fmtPrice(bull)),
			"Wait for a decisive close outside the range before committing",
		}
	}
}

func fmtPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
