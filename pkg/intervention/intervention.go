// Package intervention manages named support programs that can be started
// against a subject. Starting a program records it durably and notifies the
// subject through the ecosystem emitter.
package intervention

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/notify"
)

// Program identifies a support program from the fixed catalogue.
type Program string

const (
	ProgramEducation       Program = "education"
	ProgramCounseling      Program = "counseling"
	ProgramGoals           Program = "goals"
	ProgramOffers          Program = "offers"
	ProgramManagerOutreach Program = "manager_outreach"
)

// ValidProgram reports whether p is part of the catalogue.
func ValidProgram(p Program) bool {
	switch p {
	case ProgramEducation, ProgramCounseling, ProgramGoals, ProgramOffers, ProgramManagerOutreach:
		return true
	}
	return false
}

// Record statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Record is a started or completed intervention for a subject.
type Record struct {
	SubjectID   string    `json:"subjectId"`
	Program     Program   `json:"program"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

// Starter starts a support program for a subject.
type Starter interface {
	Start(ctx context.Context, subjectID string, program Program, reason string) error
}

// KeyPrefix is the prefix for per-subject intervention lists.
const KeyPrefix = "risk_engine:interventions:"

// Service records interventions in Redis and emits the corresponding
// ecosystem notifications.
type Service struct {
	client  *redis.Client
	emitter *notify.Emitter
	now     func() time.Time
}

// NewService creates an intervention service.
func NewService(client *redis.Client, emitter *notify.Emitter) *Service {
	return &Service{
		client:  client,
		emitter: emitter,
		now:     time.Now,
	}
}

func makeKey(subjectID string) string {
	return KeyPrefix + subjectID
}

// Start records an active intervention and emits intervention-started.
func (s *Service) Start(ctx context.Context, subjectID string, program Program, reason string) error {
	if !ValidProgram(program) {
		return fmt.Errorf("unknown intervention program: %s", program)
	}

	rec := &Record{
		SubjectID: subjectID,
		Program:   program,
		Status:    StatusActive,
		Reason:    reason,
		StartedAt: s.now(),
	}

	if err := s.append(ctx, rec); err != nil {
		return err
	}

	logrus.Infof("started %s intervention for subject %s: %s", program, subjectID, reason)

	return s.emitter.Emit(ctx, subjectID, notify.KindInterventionStarted, notify.Args{
		"program": string(program),
		"reason":  reason,
	})
}

// Complete records a completed intervention and emits intervention-completed.
func (s *Service) Complete(ctx context.Context, subjectID string, program Program) error {
	if !ValidProgram(program) {
		return fmt.Errorf("unknown intervention program: %s", program)
	}

	now := s.now()
	rec := &Record{
		SubjectID:   subjectID,
		Program:     program,
		Status:      StatusCompleted,
		StartedAt:   now,
		CompletedAt: now,
	}

	if err := s.append(ctx, rec); err != nil {
		return err
	}

	logrus.Infof("completed %s intervention for subject %s", program, subjectID)

	return s.emitter.Emit(ctx, subjectID, notify.KindInterventionCompleted, notify.Args{
		"program": string(program),
	})
}

// ListBySubject returns the subject's intervention records, oldest first.
func (s *Service) ListBySubject(ctx context.Context, subjectID string) ([]*Record, error) {
	values, err := s.client.LRange(ctx, makeKey(subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list interventions for subject %s: %w", subjectID, err)
	}

	records := make([]*Record, 0, len(values))
	for _, raw := range values {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			logrus.Warnf("failed to unmarshal intervention for subject %s: %v", subjectID, err)
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}

func (s *Service) append(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal intervention record: %w", err)
	}

	if err := s.client.RPush(ctx, makeKey(rec.SubjectID), data).Err(); err != nil {
		return fmt.Errorf("failed to record intervention for subject %s: %w", rec.SubjectID, err)
	}

	return nil
}
