package feature

import "context"

// SpendingLevel categorizes a subject's spending behavior.
type SpendingLevel string

const (
	SpendingLow       SpendingLevel = "low"
	SpendingModerate  SpendingLevel = "moderate"
	SpendingHigh      SpendingLevel = "high"
	SpendingExcessive SpendingLevel = "excessive"
)

// Defaults applied when an underlying signal is absent. Missing signals are
// never an error; the snapshot is simply filled with these values.
const (
	DefaultWellnessScore         = 50.0
	DefaultEngagementScore       = 50.0
	DefaultActiveAlertCount      = 0
	DefaultDaysSinceLastActivity = 7
)

// DefaultSpendingLevel is used when no spending signal exists for a subject.
const DefaultSpendingLevel = SpendingModerate

// Snapshot is the read-only view of a subject's signals at evaluation time.
type Snapshot struct {
	SubjectID                  string        `json:"subjectId"`
	WellnessScore              float64       `json:"wellnessScore"`   // 0-100
	SpendingLevel              SpendingLevel `json:"spendingLevel"`
	EngagementScore            float64       `json:"engagementScore"` // 0-100
	ActiveAlertCount           int           `json:"activeAlertCount"`
	InterventionCount          int           `json:"interventionCount"`
	CompletedInterventionCount int           `json:"completedInterventionCount"`
	DaysSinceLastActivity      int           `json:"daysSinceLastActivity"`
}

// NewSnapshot returns a snapshot populated with the default signal values.
func NewSnapshot(subjectID string) *Snapshot {
	return &Snapshot{
		SubjectID:             subjectID,
		WellnessScore:         DefaultWellnessScore,
		SpendingLevel:         DefaultSpendingLevel,
		EngagementScore:       DefaultEngagementScore,
		ActiveAlertCount:      DefaultActiveAlertCount,
		DaysSinceLastActivity: DefaultDaysSinceLastActivity,
	}
}

// Source reads the current feature snapshot for a subject.
// Implementations fill absent signals with the package defaults.
type Source interface {
	GetSnapshot(ctx context.Context, subjectID string) (*Snapshot, error)
}
