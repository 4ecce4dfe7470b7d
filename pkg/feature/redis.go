package feature

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// KeyPrefix is the prefix for all feature snapshot hashes.
	KeyPrefix = "risk_engine:feature_snapshot:"
	// DefaultTTL is how long a written snapshot lives in Redis (30 days).
	DefaultTTL = 30 * 24 * time.Hour
)

// RedisSource reads feature snapshots from per-subject Redis hashes.
// Fields absent from the hash fall back to the package defaults.
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource creates a Redis-backed feature source.
func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func makeKey(subjectID string) string {
	return KeyPrefix + subjectID
}

// GetSnapshot reads the subject's hash and builds a snapshot. A subject with
// no hash at all gets a snapshot of pure defaults, not an error.
func (s *RedisSource) GetSnapshot(ctx context.Context, subjectID string) (*Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, makeKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read feature snapshot for subject %s: %w", subjectID, err)
	}

	snap := NewSnapshot(subjectID)
	if len(fields) == 0 {
		logrus.Debugf("no feature signals for subject %s, using defaults", subjectID)
		return snap, nil
	}

	snap.WellnessScore = floatField(fields, "wellnessScore", DefaultWellnessScore)
	snap.EngagementScore = floatField(fields, "engagementScore", DefaultEngagementScore)
	snap.ActiveAlertCount = intField(fields, "activeAlertCount", DefaultActiveAlertCount)
	snap.InterventionCount = intField(fields, "interventionCount", 0)
	snap.CompletedInterventionCount = intField(fields, "completedInterventionCount", 0)
	snap.DaysSinceLastActivity = intField(fields, "daysSinceLastActivity", DefaultDaysSinceLastActivity)

	if level, ok := fields["spendingLevel"]; ok {
		switch SpendingLevel(level) {
		case SpendingLow, SpendingModerate, SpendingHigh, SpendingExcessive:
			snap.SpendingLevel = SpendingLevel(level)
		default:
			logrus.Warnf("unknown spending level %q for subject %s, using default", level, subjectID)
		}
	}

	return snap, nil
}

// PutSnapshot writes a snapshot's signals into the subject's hash. Callers
// outside this engine own the feature data; this writer exists for seeding
// and integration tests.
func (s *RedisSource) PutSnapshot(ctx context.Context, snap *Snapshot) error {
	key := makeKey(snap.SubjectID)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"wellnessScore", snap.WellnessScore,
		"spendingLevel", string(snap.SpendingLevel),
		"engagementScore", snap.EngagementScore,
		"activeAlertCount", snap.ActiveAlertCount,
		"interventionCount", snap.InterventionCount,
		"completedInterventionCount", snap.CompletedInterventionCount,
		"daysSinceLastActivity", snap.DaysSinceLastActivity,
	)
	pipe.Expire(ctx, key, DefaultTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write feature snapshot for subject %s: %w", snap.SubjectID, err)
	}

	return nil
}

func floatField(fields map[string]string, name string, fallback float64) float64 {
	raw, ok := fields[name]
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.Warnf("invalid value %q for feature field %s, using default", raw, name)
		return fallback
	}
	return val
}

func intField(fields map[string]string, name string, fallback int) int {
	raw, ok := fields[name]
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("invalid value %q for feature field %s, using default", raw, name)
		return fallback
	}
	return val
}
