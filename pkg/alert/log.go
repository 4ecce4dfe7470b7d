package alert

import (
	"context"
	"time"
)

// Outcome is the recorded result of a dispatched action or event.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// LogEntry is an append-only record of one dispatched action.
type LogEntry struct {
	SubjectID string    `json:"subjectId"`
	AlertType Type      `json:"alertType"`
	Action    string    `json:"action"`
	Outcome   Outcome   `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LogSink appends action log entries. Appends are best effort: a sink
// failure never changes the dispatch outcome reported to the caller.
type LogSink interface {
	Append(ctx context.Context, entry *LogEntry) error
}
