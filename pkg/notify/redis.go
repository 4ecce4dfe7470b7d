package notify

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// KeyPrefix is the prefix for per-subject notification lists.
const KeyPrefix = "risk_engine:notifications:"

// RedisSink appends notifications to a per-subject Redis list.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a Redis-backed notification sink.
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func makeKey(subjectID string) string {
	return KeyPrefix + subjectID
}

// Write appends the notification to the subject's list.
func (s *RedisSink) Write(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := s.client.RPush(ctx, makeKey(n.SubjectID), data).Err(); err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}

	logrus.Debugf("wrote %s notification for subject %s", n.Kind, n.SubjectID)
	return nil
}

// ListBySubject returns the subject's notifications, oldest first.
func (s *RedisSink) ListBySubject(ctx context.Context, subjectID string) ([]*Notification, error) {
	values, err := s.client.LRange(ctx, makeKey(subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for subject %s: %w", subjectID, err)
	}

	notifications := make([]*Notification, 0, len(values))
	for _, raw := range values {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			logrus.Warnf("failed to unmarshal notification for subject %s: %v", subjectID, err)
			continue
		}
		notifications = append(notifications, &n)
	}

	return notifications, nil
}
