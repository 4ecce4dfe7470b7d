package scoring

// Tier is the ordinal churn-risk classification of a subject.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
	TierMinimal  Tier = "minimal"
)

// Tier thresholds are inclusive lower bounds on churn probability, checked in
// descending order. First match wins, so the mapping is total with no overlap.
const (
	ThresholdCritical = 0.8
	ThresholdHigh     = 0.6
	ThresholdMedium   = 0.4
	ThresholdLow      = 0.2
)

// HighRiskTiers is the default filter set for high-risk listings.
var HighRiskTiers = []Tier{TierCritical, TierHigh}

// ClassifyTier maps a churn probability to its risk tier.
func ClassifyTier(probability float64) Tier {
	switch {
	case probability >= ThresholdCritical:
		return TierCritical
	case probability >= ThresholdHigh:
		return TierHigh
	case probability >= ThresholdMedium:
		return TierMedium
	case probability >= ThresholdLow:
		return TierLow
	default:
		return TierMinimal
	}
}

// ValidTier reports whether t is one of the five known tiers.
func ValidTier(t Tier) bool {
	switch t {
	case TierCritical, TierHigh, TierMedium, TierLow, TierMinimal:
		return true
	}
	return false
}
