package alert

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// LogKeyPrefix is the prefix for per-subject action log lists.
const LogKeyPrefix = "risk_engine:action_log:"

// RedisLogSink appends action log entries to a per-subject Redis list.
type RedisLogSink struct {
	client *redis.Client
}

// NewRedisLogSink creates a Redis-backed action log sink.
func NewRedisLogSink(client *redis.Client) *RedisLogSink {
	return &RedisLogSink{client: client}
}

// Append writes the entry to the subject's action log list.
func (s *RedisLogSink) Append(ctx context.Context, entry *LogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal action log entry: %w", err)
	}

	key := LogKeyPrefix + entry.SubjectID
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append action log entry: %w", err)
	}

	return nil
}

// ListBySubject returns the subject's action log entries, oldest first.
func (s *RedisLogSink) ListBySubject(ctx context.Context, subjectID string) ([]*LogEntry, error) {
	values, err := s.client.LRange(ctx, LogKeyPrefix+subjectID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list action log for subject %s: %w", subjectID, err)
	}

	entries := make([]*LogEntry, 0, len(values))
	for _, raw := range values {
		var entry LogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			logrus.Warnf("failed to unmarshal action log entry for subject %s: %v", subjectID, err)
			continue
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
