package scenario

import (
	"math"

	"SignalDesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Default split used when no scenario carries any probability mass.
const (
	defaultBullish = 33
	defaultNeutral = 33
	defaultBearish = 34
)

// fallbackOffset is the relative distance from the anchor used for unusable targets.
var fallbackOffset = decimal.RequireFromString("0.025")

// Normalize enforces both scenario invariants: probabilities that are whole numbers
// summing to exactly 100, and bullish target >= anchor >= bearish target.
func Normalize(set models.ScenarioSet, anchor float64) models.ScenarioSet {
	set.Bullish.Probability, set.Neutral.Probability, set.Bearish.Probability =
		Probabilities(set.Bullish.Probability, set.Neutral.Probability, set.Bearish.Probability)
	set.Bullish.TargetPrice, set.Neutral.TargetPrice, set.Bearish.TargetPrice =
		Targets(set.Bullish.TargetPrice, set.Neutral.TargetPrice, set.Bearish.TargetPrice, anchor)
	return set
}

// Probabilities rescales three weights to integers summing to exactly 100.
// Negative and non-finite weights count as zero; the rounding remainder goes to neutral.
func Probabilities(bull, neutral, bear float64) (float64, float64, float64) {
	b, n, s := weight(bull), weight(neutral), weight(bear)
	total := b.Add(n).Add(s)
	if total.IsZero() {
		return defaultBullish, defaultNeutral, defaultBearish
	}

	hundred := decimal.NewFromInt(100)
	pb := b.Mul(hundred).Div(total).Round(0).IntPart()
	ps := s.Mul(hundred).Div(total).Round(0).IntPart()
	if over := pb + ps - 100; over > 0 {
		if pb >= ps {
			pb -= over
		} else {
			ps -= over
		}
	}
	pn := 100 - pb - ps
	return float64(pb), float64(pn), float64(ps)
}

// Targets orders the three price targets around the anchor. An inverted bull/bear pair is
// swapped; a side still on the wrong side of the anchor (or a missing bearish target)
// is replaced by anchor ± 2.5%.
// The neutral target defaults to the anchor and is kept between the other two.
func Targets(bull, neutral, bear, anchor float64) (float64, float64, float64) {
	anchor = Anchor(anchor)
	bull, neutral, bear = price(bull), price(neutral), price(bear)

	if bull < bear {
		bull, bear = bear, bull
	}
	if bull <= anchor {
		bull = offset(anchor, 1)
	}
	if bear >= anchor || bear <= 0 {
		bear = offset(anchor, -1)
	}

	if neutral <= 0 {
		neutral = anchor
	}
	neutral = math.Max(bear, math.Min(neutral, bull))
	return bull, neutral, bear
}

// Anchor coerces a caller-supplied anchor: non-finite or negative becomes 0.
func Anchor(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return 0
	}
	return a
}

func offset(anchor float64, sign int64) float64 {
	a := decimal.NewFromFloat(anchor)
	delta := a.Abs().Mul(fallbackOffset).Mul(decimal.NewFromInt(sign))
	return a.Add(delta).InexactFloat64()
}

func weight(p float64) decimal.Decimal {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p)
}

func price(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}
