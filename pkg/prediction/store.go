package prediction

import (
	"context"

	"github.com/finpulse/churn-risk-engine/pkg/scoring"
)

// Store persists one current prediction per subject.
type Store interface {
	// Upsert writes the prediction, replacing any previous one for the
	// subject. Last write wins; predictions are idempotent recomputations.
	Upsert(ctx context.Context, pred *Prediction) error

	// GetBySubject returns the current prediction for a subject, or nil
	// when the subject has never been evaluated.
	GetBySubject(ctx context.Context, subjectID string) (*Prediction, error)

	// ListByTier returns predictions in any of the given tiers, ordered by
	// churn probability descending and capped at limit.
	ListByTier(ctx context.Context, tiers []scoring.Tier, limit int) ([]*Prediction, error)
}
