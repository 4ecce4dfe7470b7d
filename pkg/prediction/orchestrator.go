package prediction

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/common"
	"github.com/finpulse/churn-risk-engine/pkg/feature"
	"github.com/finpulse/churn-risk-engine/pkg/metrics"
	"github.com/finpulse/churn-risk-engine/pkg/scoring"
)

// DefaultListLimit caps high-risk listings when the caller passes no limit.
const DefaultListLimit = 50

// Orchestrator composes the pure scoring functions into a persisted
// prediction: snapshot → score → tier → factors → recommendations → upsert.
type Orchestrator struct {
	features feature.Source
	store    Store
	now      func() time.Time
}

// NewOrchestrator creates a prediction orchestrator.
func NewOrchestrator(features feature.Source, store Store) *Orchestrator {
	return &Orchestrator{
		features: features,
		store:    store,
		now:      time.Now,
	}
}

// Evaluate computes, persists and returns the current prediction for a
// subject. The upsert replaces any previous prediction; concurrent
// evaluations of the same subject converge to last write wins.
func (o *Orchestrator) Evaluate(ctx context.Context, subjectID string) (*Prediction, error) {
	scope := common.NewScope(ctx, "prediction.evaluate")
	defer scope.Finish()
	scope.SetAttribute("subject_id", subjectID)

	snap, err := o.features.GetSnapshot(scope.Ctx, subjectID)
	if err != nil {
		scope.TraceError(err)
		metrics.EvaluationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to read feature snapshot: %w", err)
	}

	pred := o.predict(snap)

	if err := o.store.Upsert(scope.Ctx, pred); err != nil {
		scope.TraceError(err)
		metrics.EvaluationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to persist prediction: %w", err)
	}

	metrics.EvaluationsTotal.WithLabelValues("success").Inc()
	scope.Log.Infof("evaluated subject %s: probability=%.2f tier=%s factors=%d",
		subjectID, pred.ChurnProbability, pred.RiskTier, len(pred.MainRiskFactors))

	return pred, nil
}

// predict runs the pure functions over a snapshot. The stored probability is
// rounded to two decimals and the tier is always derived from that stored
// value, never set independently.
func (o *Orchestrator) predict(snap *feature.Snapshot) *Prediction {
	probability := round2(scoring.Score(snap))
	tier := scoring.ClassifyTier(probability)
	factors := scoring.ExtractFactors(snap)

	now := o.now()
	daysUntilChurn := math.Round(ChurnWindowDays - probability*ChurnWindowDays)

	return &Prediction{
		SubjectID:                snap.SubjectID,
		ChurnProbability:         probability,
		RiskTier:                 tier,
		PredictedChurnDate:       now.AddDate(0, 0, int(daysUntilChurn)),
		MainRiskFactors:          factors,
		RecommendedInterventions: scoring.Recommend(factors, tier),
		EvaluatedAt:              now,
	}
}

// BatchEvaluate evaluates each subject independently. A failure for one
// subject is logged and excluded from the result; it never aborts the batch.
func (o *Orchestrator) BatchEvaluate(ctx context.Context, subjectIDs []string) []*Prediction {
	scope := common.NewScope(ctx, "prediction.batch_evaluate")
	defer scope.Finish()
	scope.SetAttributeInt("subject_count", len(subjectIDs))

	preds := make([]*Prediction, 0, len(subjectIDs))
	for _, subjectID := range subjectIDs {
		pred, err := o.Evaluate(scope.Ctx, subjectID)
		if err != nil {
			scope.Log.Errorf("batch evaluation failed for subject %s: %v", subjectID, err)
			continue
		}
		preds = append(preds, pred)
	}

	scope.Log.Infof("batch evaluation completed: %d/%d subjects", len(preds), len(subjectIDs))
	return preds
}

// ListHighRisk returns persisted predictions in the requested tiers, ordered
// by probability descending. An empty tier filter means critical and high;
// limit <= 0 falls back to DefaultListLimit. Unknown tiers are dropped from
// the filter rather than rejected.
func (o *Orchestrator) ListHighRisk(ctx context.Context, tiers []scoring.Tier, limit int) ([]*Prediction, error) {
	if len(tiers) == 0 {
		tiers = scoring.HighRiskTiers
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	valid := make([]scoring.Tier, 0, len(tiers))
	for _, tier := range tiers {
		if scoring.ValidTier(tier) {
			valid = append(valid, tier)
		} else {
			logrus.Warnf("ignoring unknown tier in high-risk filter: %s", tier)
		}
	}

	return o.store.ListByTier(ctx, valid, limit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
