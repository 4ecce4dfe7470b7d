// Package worker runs the scheduled batch re-scoring job: every enrolled
// subject is re-evaluated on a cron schedule so predictions never go stale.
package worker

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/prediction"
)

// SubjectSetKey is the Redis set holding every subject enrolled for
// scheduled scoring.
const SubjectSetKey = "risk_engine:subjects"

// BatchWorker periodically re-evaluates all enrolled subjects.
type BatchWorker struct {
	cron     *cron.Cron
	orch     *prediction.Orchestrator
	client   *redis.Client
	schedule string
}

// New creates a batch worker. An empty schedule disables it.
func New(orch *prediction.Orchestrator, client *redis.Client, schedule string) *BatchWorker {
	return &BatchWorker{
		cron:     cron.New(),
		orch:     orch,
		client:   client,
		schedule: schedule,
	}
}

// Start registers the cron job and starts the scheduler.
func (w *BatchWorker) Start(ctx context.Context) error {
	if w.schedule == "" {
		logrus.Info("batch worker disabled: no schedule configured")
		return nil
	}

	_, err := w.cron.AddFunc(w.schedule, func() {
		w.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid batch schedule %q: %w", w.schedule, err)
	}

	w.cron.Start()
	logrus.Infof("batch worker started with schedule %q", w.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (w *BatchWorker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	logrus.Info("batch worker stopped")
}

// runOnce evaluates every enrolled subject. Per-subject failures are handled
// inside BatchEvaluate; a roster read failure only skips this run.
func (w *BatchWorker) runOnce(ctx context.Context) {
	subjectIDs, err := w.client.SMembers(ctx, SubjectSetKey).Result()
	if err != nil {
		logrus.Errorf("batch run skipped: failed to read subject roster: %v", err)
		return
	}

	if len(subjectIDs) == 0 {
		logrus.Debug("batch run skipped: no enrolled subjects")
		return
	}

	logrus.Infof("batch scoring run started for %d subjects", len(subjectIDs))
	preds := w.orch.BatchEvaluate(ctx, subjectIDs)
	logrus.Infof("batch scoring run completed: %d/%d subjects evaluated", len(preds), len(subjectIDs))
}

// Enroll adds a subject to the scheduled scoring roster.
func (w *BatchWorker) Enroll(ctx context.Context, subjectID string) error {
	if err := w.client.SAdd(ctx, SubjectSetKey, subjectID).Err(); err != nil {
		return fmt.Errorf("failed to enroll subject %s: %w", subjectID, err)
	}
	return nil
}

// Withdraw removes a subject from the scheduled scoring roster.
func (w *BatchWorker) Withdraw(ctx context.Context, subjectID string) error {
	if err := w.client.SRem(ctx, SubjectSetKey, subjectID).Err(); err != nil {
		return fmt.Errorf("failed to withdraw subject %s: %w", subjectID, err)
	}
	return nil
}
