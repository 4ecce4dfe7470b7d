// Package notify renders and writes ecosystem notifications. Each kind has a
// fixed title/body template; the emitter substitutes the supplied arguments
// and hands the record to a durable sink. Delivery is at-least-once; no
// deduplication happens here.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/finpulse/churn-risk-engine/pkg/metrics"
)

// Kind identifies a notification template.
type Kind string

const (
	KindTierUpgrade           Kind = "tier-upgrade"
	KindNewRecommendation     Kind = "new-recommendation"
	KindInterventionStarted   Kind = "intervention-started"
	KindInterventionCompleted Kind = "intervention-completed"
	KindRateImproved          Kind = "rate-improved"
	KindMilestone             Kind = "milestone"
)

// Args carries the template arguments for a notification.
type Args map[string]interface{}

// String retrieves a string argument with a default.
func (a Args) String(key, defaultValue string) string {
	if val, ok := a[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultValue
}

// Int retrieves an integer argument with a default. Float values are
// truncated, which matters because YAML and JSON decode numbers as float64.
func (a Args) Int(key string, defaultValue int) int {
	if val, ok := a[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// Float retrieves a float argument with a default.
func (a Args) Float(key string, defaultValue float64) float64 {
	if val, ok := a[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultValue
}

// Notification is a rendered, durable notification record.
type Notification struct {
	SubjectID string    `json:"subjectId"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Metadata  Args      `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink writes notification records durably.
type Sink interface {
	Write(ctx context.Context, n *Notification) error
}

// Emitter renders notifications and writes them to a sink.
type Emitter struct {
	sink Sink
	now  func() time.Time
}

// NewEmitter creates a notification emitter.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{
		sink: sink,
		now:  time.Now,
	}
}

// Emit renders the template for kind and writes the notification.
func (e *Emitter) Emit(ctx context.Context, subjectID string, kind Kind, args Args) error {
	title, body, err := render(kind, args)
	if err != nil {
		return err
	}

	n := &Notification{
		SubjectID: subjectID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Metadata:  args,
		CreatedAt: e.now(),
	}

	if err := e.sink.Write(ctx, n); err != nil {
		return fmt.Errorf("failed to write %s notification for subject %s: %w", kind, subjectID, err)
	}

	metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	return nil
}

func render(kind Kind, args Args) (title, body string, err error) {
	switch kind {
	case KindTierUpgrade:
		newTier := args.String("newTier", "")
		title = fmt.Sprintf("You've been upgraded to %s", newTier)
		body = fmt.Sprintf(
			"Your membership moved from %s to %s. You now get a %d%% fee discount and a %d basis point rate reduction.",
			args.String("oldTier", ""), newTier,
			args.Int("discount", 0), args.Int("rateReduction", 0))

	case KindNewRecommendation:
		rec := args.String("title", "")
		title = fmt.Sprintf("New recommendation: %s", rec)
		body = fmt.Sprintf(
			"We have a new suggestion for you: %s. Estimated monthly savings: $%d.",
			rec, args.Int("estimatedSavings", 0))

	case KindInterventionStarted:
		program := args.String("program", "")
		title = fmt.Sprintf("Your %s program has started", program)
		body = fmt.Sprintf(
			"We've enrolled you in the %s support program. Check your dashboard for the first steps.",
			program)

	case KindInterventionCompleted:
		program := args.String("program", "")
		title = fmt.Sprintf("You completed the %s program", program)
		body = fmt.Sprintf(
			"Congratulations on finishing the %s program. Your progress is reflected in your wellness score.",
			program)

	case KindRateImproved:
		title = "Your advance rate improved"
		body = fmt.Sprintf(
			"Your advance rate dropped from %.1f%% to %.1f%% thanks to your improved financial wellness.",
			args.Float("oldRate", 0), args.Float("newRate", 0))

	case KindMilestone:
		title = "Wellness milestone reached"
		body = fmt.Sprintf(
			"Your financial wellness score crossed %d. Keep it up!",
			args.Int("milestone", 0))

	default:
		return "", "", fmt.Errorf("unknown notification kind: %s", kind)
	}

	return title, body, nil
}
