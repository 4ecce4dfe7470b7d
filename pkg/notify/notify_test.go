package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

type memorySink struct {
	notifications []*Notification
}

func (s *memorySink) Write(ctx context.Context, n *Notification) error {
	s.notifications = append(s.notifications, n)
	return nil
}

func TestEmit_TierUpgrade(t *testing.T) {
	sink := &memorySink{}
	emitter := NewEmitter(sink)
	createdAt := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	emitter.now = func() time.Time { return createdAt }

	err := emitter.Emit(context.Background(), "subject-1", KindTierUpgrade, Args{
		"oldTier":       "Silver",
		"newTier":       "Gold",
		"discount":      10,
		"rateReduction": 50,
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	if len(sink.notifications) != 1 {
		t.Fatalf("wrote %d notifications, expected 1", len(sink.notifications))
	}
	n := sink.notifications[0]

	if n.Title != "You've been upgraded to Gold" {
		t.Errorf("Title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "Silver to Gold") {
		t.Errorf("Body = %q, expected the tier transition", n.Body)
	}
	if !strings.Contains(n.Body, "10% fee discount") {
		t.Errorf("Body = %q, expected the discount", n.Body)
	}
	if !n.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt = %v, expected %v", n.CreatedAt, createdAt)
	}
}

func TestEmit_NewRecommendation(t *testing.T) {
	sink := &memorySink{}
	emitter := NewEmitter(sink)

	err := emitter.Emit(context.Background(), "subject-2", KindNewRecommendation, Args{
		"title":            "dining spending reduction",
		"estimatedSavings": 900,
		"urgency":          "high",
	})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	n := sink.notifications[0]
	if n.Title != "New recommendation: dining spending reduction" {
		t.Errorf("Title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "$900") {
		t.Errorf("Body = %q, expected the estimated savings", n.Body)
	}
	if n.Metadata.String("urgency", "") != "high" {
		t.Errorf("urgency metadata = %q, expected high", n.Metadata.String("urgency", ""))
	}
}

func TestEmit_InterventionKinds(t *testing.T) {
	sink := &memorySink{}
	emitter := NewEmitter(sink)
	ctx := context.Background()

	if err := emitter.Emit(ctx, "subject-3", KindInterventionStarted, Args{"program": "counseling"}); err != nil {
		t.Fatalf("Emit(started) error = %v", err)
	}
	if err := emitter.Emit(ctx, "subject-3", KindInterventionCompleted, Args{"program": "counseling"}); err != nil {
		t.Fatalf("Emit(completed) error = %v", err)
	}

	if sink.notifications[0].Title != "Your counseling program has started" {
		t.Errorf("started Title = %q", sink.notifications[0].Title)
	}
	if sink.notifications[1].Title != "You completed the counseling program" {
		t.Errorf("completed Title = %q", sink.notifications[1].Title)
	}
}

func TestEmit_RateImprovedAndMilestone(t *testing.T) {
	sink := &memorySink{}
	emitter := NewEmitter(sink)
	ctx := context.Background()

	if err := emitter.Emit(ctx, "subject-4", KindRateImproved, Args{"oldRate": 4.5, "newRate": 3.5}); err != nil {
		t.Fatalf("Emit(rate-improved) error = %v", err)
	}
	if err := emitter.Emit(ctx, "subject-4", KindMilestone, Args{"milestone": 60}); err != nil {
		t.Fatalf("Emit(milestone) error = %v", err)
	}

	if !strings.Contains(sink.notifications[0].Body, "4.5% to 3.5%") {
		t.Errorf("rate Body = %q", sink.notifications[0].Body)
	}
	if !strings.Contains(sink.notifications[1].Body, "crossed 60") {
		t.Errorf("milestone Body = %q", sink.notifications[1].Body)
	}
}

func TestEmit_UnknownKind(t *testing.T) {
	sink := &memorySink{}
	emitter := NewEmitter(sink)

	if err := emitter.Emit(context.Background(), "subject-5", Kind("carrier-pigeon"), nil); err == nil {
		t.Error("Emit() expected error for unknown kind")
	}
	if len(sink.notifications) != 0 {
		t.Errorf("wrote %d notifications, expected none for unknown kind", len(sink.notifications))
	}
}

func TestRedisSink_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := NewRedisSink(client)
	ctx := context.Background()
	emitter := NewEmitter(sink)

	if err := emitter.Emit(ctx, "subject-6", KindMilestone, Args{"milestone": 70}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := emitter.Emit(ctx, "subject-6", KindRateImproved, Args{"oldRate": 4.5, "newRate": 3.5}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	notifications, err := sink.ListBySubject(ctx, "subject-6")
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}

	if len(notifications) != 2 {
		t.Fatalf("listed %d notifications, expected 2", len(notifications))
	}
	if notifications[0].Kind != KindMilestone || notifications[1].Kind != KindRateImproved {
		t.Errorf("kinds = %s, %s, expected oldest first", notifications[0].Kind, notifications[1].Kind)
	}
	if got := notifications[0].Metadata.Int("milestone", -1); got != 70 {
		t.Errorf("milestone metadata = %d, expected 70", got)
	}

	other, err := sink.ListBySubject(ctx, "someone-else")
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("listed %d notifications for unrelated subject, expected none", len(other))
	}
}
