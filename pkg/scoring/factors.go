package scoring

import (
	"fmt"

	"github.com/finpulse/churn-risk-engine/pkg/feature"
)

// MaxRiskFactors caps how many contributing factors a prediction carries.
const MaxRiskFactors = 5

// Factor trigger thresholds.
const (
	veryLowWellnessBelow   = 40.0
	lowWellnessBelow       = 50.0
	veryLowEngagementBelow = 30.0
	lowEngagementBelow     = 50.0
	multipleAlertsAbove    = 5
	inactiveDaysAbove      = 14
)

// ExtractFactors returns the human-readable risk factors for a snapshot,
// most severe first. The rule order below is fixed: the result is truncated
// to the first MaxRiskFactors in this order, never re-sorted.
func ExtractFactors(snap *feature.Snapshot) []string {
	var factors []string

	if snap.WellnessScore < veryLowWellnessBelow {
		factors = append(factors, "very low wellness score")
	} else if snap.WellnessScore < lowWellnessBelow {
		factors = append(factors, "low wellness score")
	}

	if snap.SpendingLevel == feature.SpendingExcessive {
		factors = append(factors, "excessive spending patterns")
	} else if snap.SpendingLevel == feature.SpendingHigh {
		factors = append(factors, "high spending level")
	}

	if snap.EngagementScore < veryLowEngagementBelow {
		factors = append(factors, "very low engagement")
	} else if snap.EngagementScore < lowEngagementBelow {
		factors = append(factors, "low engagement")
	}

	if snap.ActiveAlertCount > multipleAlertsAbove {
		factors = append(factors, fmt.Sprintf("multiple active alerts (%d)", snap.ActiveAlertCount))
	}

	if snap.DaysSinceLastActivity > inactiveDaysAbove {
		factors = append(factors, fmt.Sprintf("inactive for %d days", snap.DaysSinceLastActivity))
	}

	if snap.InterventionCount > 0 && snap.CompletedInterventionCount == 0 {
		factors = append(factors, "no completed interventions")
	}

	if len(factors) > MaxRiskFactors {
		factors = factors[:MaxRiskFactors]
	}

	return factors
}
