package scoring

import "strings"

// MaxRecommendations caps how many interventions a prediction suggests.
const MaxRecommendations = 4

// Recommend maps risk factors and a tier to an ordered list of suggested
// interventions. Each rule appends independently; the list is truncated to
// MaxRecommendations preserving rule precedence.
func Recommend(factors []string, tier Tier) []string {
	var recs []string

	if tier == TierCritical || tier == TierHigh {
		recs = append(recs, "urgent outreach", "one-on-one session")
	}

	if anyFactorMentions(factors, "wellness") {
		recs = append(recs, "wellness assessment", "personalized education program")
	}

	if anyFactorMentions(factors, "spending") {
		recs = append(recs, "spending analysis/budgeting", "debt resources")
	}

	if anyFactorMentions(factors, "engagement") {
		recs = append(recs, "engagement boost program", "peer mentoring")
	}

	if anyFactorMentions(factors, "inactive") {
		recs = append(recs, "re-engagement campaign", "personalized recommendations")
	}

	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}

	return recs
}

func anyFactorMentions(factors []string, keyword string) bool {
	for _, f := range factors {
		if strings.Contains(f, keyword) {
			return true
		}
	}
	return false
}
