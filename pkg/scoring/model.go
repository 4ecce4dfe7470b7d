// Package scoring holds the pure churn-risk functions: the weighted scoring
// model, the tier classifier, the risk factor extractor and the intervention
// recommender. Nothing in this package touches a store; everything is safe to
// call concurrently.
package scoring

import (
	"math"

	"github.com/finpulse/churn-risk-engine/pkg/feature"
)

// Model weights. These sum to 1.0 and are deliberately hardcoded: historical
// predictions were produced with these exact values.
const (
	WeightWellness   = 0.30
	WeightSpending   = 0.20
	WeightEngagement = 0.20
	WeightAlerts     = 0.15
	WeightActivity   = 0.15
)

// Logistic squash parameters. Steepness 5 sharpens the curve around the raw
// midpoint so borderline subjects move quickly toward 0 or 1.
const (
	logisticSteepness = 5.0
	logisticMidpoint  = 0.5
)

// Normalization caps for the count-based signals.
const (
	alertCountCap      = 10.0
	activityDaysCap    = 30.0
	wellnessScoreScale = 100.0
)

// Score computes the churn probability for a snapshot. The result is always a
// finite number in [0,1]; out-of-range inputs are the caller's problem and are
// clamped by the normalization, not rejected.
func Score(snap *feature.Snapshot) float64 {
	raw := WeightWellness*wellnessNorm(snap.WellnessScore) +
		WeightSpending*spendingNorm(snap.SpendingLevel) +
		WeightEngagement*engagementNorm(snap.EngagementScore) +
		WeightAlerts*alertNorm(snap.ActiveAlertCount) +
		WeightActivity*activityNorm(snap.DaysSinceLastActivity)

	return 1.0 / (1.0 + math.Exp(-logisticSteepness*(raw-logisticMidpoint)))
}

// wellnessNorm maps wellness score 0-100 to [0,1], higher = worse.
func wellnessNorm(score float64) float64 {
	return math.Max(0, 1.0-score/wellnessScoreScale)
}

// engagementNorm maps engagement score 0-100 to [0,1], higher = worse.
func engagementNorm(score float64) float64 {
	return math.Max(0, 1.0-score/wellnessScoreScale)
}

func spendingNorm(level feature.SpendingLevel) float64 {
	switch level {
	case feature.SpendingExcessive:
		return 1.0
	case feature.SpendingHigh:
		return 0.7
	case feature.SpendingModerate:
		return 0.3
	case feature.SpendingLow:
		return 0.1
	default:
		// Unknown levels score as moderate.
		return 0.3
	}
}

func alertNorm(count int) float64 {
	return math.Min(1.0, float64(count)/alertCountCap)
}

func activityNorm(days int) float64 {
	return math.Min(1.0, float64(days)/activityDaysCap)
}
