// Package prediction contains the churn prediction record, its store contract
// and the orchestrator that composes the pure scoring functions into a
// persisted prediction.
package prediction

import (
	"time"

	"github.com/finpulse/churn-risk-engine/pkg/scoring"
)

// ChurnWindowDays is the horizon for the predicted churn date: a subject with
// probability 0 is predicted to churn in 90 days, probability 1 today.
const ChurnWindowDays = 90.0

// Prediction is the current churn prediction for a subject. Exactly one row
// exists per subject; every evaluation replaces the previous one.
type Prediction struct {
	SubjectID                string       `json:"subjectId"`
	ChurnProbability         float64      `json:"churnProbability"` // rounded to 2 decimals
	RiskTier                 scoring.Tier `json:"riskTier"`
	PredictedChurnDate       time.Time    `json:"predictedChurnDate"`
	MainRiskFactors          []string     `json:"mainRiskFactors"`
	RecommendedInterventions []string     `json:"recommendedInterventions"`
	EvaluatedAt              time.Time    `json:"evaluatedAt"`
}
