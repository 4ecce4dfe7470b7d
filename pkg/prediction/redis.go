package prediction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/scoring"
)

const (
	// KeyPrefix is the prefix for per-subject prediction records.
	KeyPrefix = "risk_engine:prediction:"
	// TierIndexPrefix is the prefix for the per-tier sorted sets. Members
	// are subject IDs scored by churn probability, which makes the
	// descending-probability tier listing a plain ZREVRANGE.
	TierIndexPrefix = "risk_engine:prediction_tier:"
	// DefaultTTL bounds how long a stale prediction survives without
	// re-evaluation (90 days, matching the churn window).
	DefaultTTL = 90 * 24 * time.Hour
)

// RedisStore is the Redis-backed prediction store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed prediction store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func makeKey(subjectID string) string {
	return KeyPrefix + subjectID
}

func tierKey(tier scoring.Tier) string {
	return TierIndexPrefix + string(tier)
}

// Upsert replaces the subject's prediction and keeps the tier indexes in
// sync: the subject is scored into its new tier set and removed from the old
// one when the tier changed.
func (s *RedisStore) Upsert(ctx context.Context, pred *Prediction) error {
	previous, err := s.GetBySubject(ctx, pred.SubjectID)
	if err != nil {
		return fmt.Errorf("failed to read previous prediction: %w", err)
	}

	data, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("failed to marshal prediction for subject %s: %w", pred.SubjectID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, makeKey(pred.SubjectID), data, DefaultTTL)
	pipe.ZAdd(ctx, tierKey(pred.RiskTier), &redis.Z{
		Score:  pred.ChurnProbability,
		Member: pred.SubjectID,
	})
	if previous != nil && previous.RiskTier != pred.RiskTier {
		pipe.ZRem(ctx, tierKey(previous.RiskTier), pred.SubjectID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to upsert prediction for subject %s: %w", pred.SubjectID, err)
	}

	logrus.Debugf("upserted prediction for subject %s: probability=%.2f tier=%s",
		pred.SubjectID, pred.ChurnProbability, pred.RiskTier)
	return nil
}

// GetBySubject returns the subject's current prediction, or nil when the
// subject has never been evaluated.
func (s *RedisStore) GetBySubject(ctx context.Context, subjectID string) (*Prediction, error) {
	data, err := s.client.Get(ctx, makeKey(subjectID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction for subject %s: %w", subjectID, err)
	}

	var pred Prediction
	if err := json.Unmarshal([]byte(data), &pred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction for subject %s: %w", subjectID, err)
	}

	return &pred, nil
}

// ListByTier merges the requested tier indexes and returns the predictions
// ordered by probability descending, capped at limit.
func (s *RedisStore) ListByTier(ctx context.Context, tiers []scoring.Tier, limit int) ([]*Prediction, error) {
	if limit <= 0 {
		return nil, nil
	}

	var subjectIDs []string
	for _, tier := range tiers {
		members, err := s.client.ZRevRange(ctx, tierKey(tier), 0, int64(limit-1)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list tier %s: %w", tier, err)
		}
		subjectIDs = append(subjectIDs, members...)
	}

	if len(subjectIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(subjectIDs))
	for i, id := range subjectIDs {
		keys[i] = makeKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}

	preds := make([]*Prediction, 0, len(values))
	for i, val := range values {
		raw, ok := val.(string)
		if !ok {
			// Record expired after the index lookup; skip it.
			logrus.Debugf("prediction for subject %s missing, skipping", subjectIDs[i])
			continue
		}

		var pred Prediction
		if err := json.Unmarshal([]byte(raw), &pred); err != nil {
			logrus.Warnf("failed to unmarshal prediction for subject %s: %v", subjectIDs[i], err)
			continue
		}
		preds = append(preds, &pred)
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].ChurnProbability > preds[j].ChurnProbability
	})

	if len(preds) > limit {
		preds = preds[:limit]
	}

	return preds, nil
}
