package scenario

import (
	"testing"

	"SignalDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func scenarios(bull, neutral, bear float64) models.ScenarioSet {
	return models.ScenarioSet{
		Bullish: models.Scenario{Probability: bull, TargetPrice: 110},
		Neutral: models.Scenario{Probability: neutral, TargetPrice: 100},
		Bearish: models.Scenario{Probability: bear, TargetPrice: 90},
	}
}

func TestDominant(t *testing.T) {
	assert.Equal(t, Bullish, Dominant(scenarios(50, 30, 20)))
	assert.Equal(t, Bearish, Dominant(scenarios(20, 30, 50)))
	assert.Equal(t, Neutral, Dominant(scenarios(20, 60, 20)))
	assert.Equal(t, Neutral, Dominant(scenarios(40, 20, 40)))
	assert.Equal(t, Neutral, Dominant(scenarios(40, 40, 20)))
}

func TestReconcileSetupDerivesMissingFields(t *testing.T) {
	got := ReconcileSetup(models.TradingSetup{}, scenarios(60, 25, 15), 100)
	assert.Equal(t, "Trend continuation long toward 110.00", got.Identity)
	assert.Len(t, got.ConfirmationTriggers, 2)
	assert.Equal(t, 90.0, got.InvalidationPoint)
}

func TestReconcileSetupReplacesWrongSideInvalidation(t *testing.T) {
	long := ReconcileSetup(models.TradingSetup{InvalidationPoint: 105}, scenarios(60, 25, 15), 100)
	assert.Equal(t, 90.0, long.InvalidationPoint)

	short := ReconcileSetup(models.TradingSetup{InvalidationPoint: 95}, scenarios(15, 25, 60), 100)
	assert.Equal(t, 110.0, short.InvalidationPoint)
}

func TestReconcileSetupKeepsValidUpstreamFields(t *testing.T) {
	in := models.TradingSetup{
		Identity:             "Breakout retest",
		ConfirmationTriggers: []string{"Reclaim 101"},
		InvalidationPoint:    96,
	}
	got := ReconcileSetup(in, scenarios(60, 25, 15), 100)
	assert.Equal(t, in, got)
}
