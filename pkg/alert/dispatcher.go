package alert

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/common"
	"github.com/finpulse/churn-risk-engine/pkg/intervention"
	"github.com/finpulse/churn-risk-engine/pkg/metrics"
	"github.com/finpulse/churn-risk-engine/pkg/notify"
)

// Thresholds and constants of the alert rule table. These are fixed business
// constants, not configuration.
const (
	counselingWellnessBelow = 30.0
	educationWellnessBelow  = 50.0
	goalsSpendingAbove      = 5000.0
	spendingSavingsRate     = 0.15
	educationAdvancesAbove  = 5
	rateImprovementMinGain  = 5.0
	assumedOldAdvanceRate   = 4.5
	assumedNewAdvanceRate   = 3.5
)

// Dependencies are the ecosystem collaborators the rule table acts on.
type Dependencies struct {
	Notifier      *notify.Emitter
	Interventions intervention.Starter
}

// binding couples a named downstream action to the condition under which it
// runs. A nil condition means the action always runs for its alert type.
type binding struct {
	name string
	when func(e Event) bool
	run  func(ctx context.Context, deps Dependencies, e Event) error
}

// ruleTable is the declarative alert-to-action mapping. New alert types are
// additions to this table, not edits to dispatch logic.
var ruleTable = map[Type][]binding{
	TypeLowWellness: {
		{
			name: "start_counseling_intervention",
			when: func(e Event) bool { return e.Payload.Float("wellnessScore", 100) < counselingWellnessBelow },
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Interventions.Start(ctx, e.SubjectID, intervention.ProgramCounseling,
					fmt.Sprintf("wellness score dropped to %.0f", e.Payload.Float("wellnessScore", 0)))
			},
		},
		{
			name: "emit_education_recommendation",
			when: func(e Event) bool { return e.Payload.Float("wellnessScore", 100) < educationWellnessBelow },
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindNewRecommendation, notify.Args{
					"title":            "education",
					"estimatedSavings": 0,
					"urgency":          "high",
				})
			},
		},
	},
	TypeHighSpending: {
		{
			name: "emit_spending_reduction_recommendation",
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				amount := e.Payload.Float("amount", 0)
				category := e.Payload.String("category", "general")
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindNewRecommendation, notify.Args{
					"title":            fmt.Sprintf("%s spending reduction", category),
					"estimatedSavings": int(math.Round(amount * spendingSavingsRate)),
					"urgency":          "high",
				})
			},
		},
		{
			name: "start_goals_intervention",
			when: func(e Event) bool { return e.Payload.Float("amount", 0) > goalsSpendingAbove },
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Interventions.Start(ctx, e.SubjectID, intervention.ProgramGoals,
					fmt.Sprintf("%s spending of %.0f exceeded threshold",
						e.Payload.String("category", "general"), e.Payload.Float("amount", 0)))
			},
		},
	},
	TypeFrequentAdvanceRequests: {
		{
			name: "start_education_intervention",
			when: func(e Event) bool { return e.Payload.Int("count", 0) > educationAdvancesAbove },
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Interventions.Start(ctx, e.SubjectID, intervention.ProgramEducation,
					fmt.Sprintf("%d advance requests in period", e.Payload.Int("count", 0)))
			},
		},
		{
			name: "emit_budget_optimization_recommendation",
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindNewRecommendation, notify.Args{
					"title":            "budget optimization",
					"estimatedSavings": 0,
					"urgency":          "medium",
				})
			},
		},
	},
	TypeWellnessImprovement: {
		{
			name: "emit_milestone_notice",
			when: func(e Event) bool {
				return decile(e.Payload.Float("newScore", 0)) > decile(e.Payload.Float("oldScore", 0))
			},
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindMilestone, notify.Args{
					"milestone": decile(e.Payload.Float("newScore", 0)) * 10,
				})
			},
		},
		{
			name: "emit_rate_improvement_notice",
			when: func(e Event) bool {
				return e.Payload.Float("newScore", 0)-e.Payload.Float("oldScore", 0) >= rateImprovementMinGain
			},
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindRateImproved, notify.Args{
					"oldRate": assumedOldAdvanceRate,
					"newRate": assumedNewAdvanceRate,
				})
			},
		},
	},
	TypeTierUpgrade: {
		{
			name: "emit_tier_upgrade_notice",
			run: func(ctx context.Context, deps Dependencies, e Event) error {
				return deps.Notifier.Emit(ctx, e.SubjectID, notify.KindTierUpgrade, notify.Args{
					"oldTier":       e.Payload.String("oldTier", ""),
					"newTier":       e.Payload.String("newTier", ""),
					"discount":      e.Payload.Int("discount", 0),
					"rateReduction": e.Payload.Int("rateReduction", 0),
				})
			},
		},
	},
}

func decile(score float64) int {
	return int(math.Floor(score / 10))
}

// ActionResult is the outcome of one action within a dispatched event.
type ActionResult struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Result is the per-event dispatch outcome. The event outcome is failed when
// any executed action failed or the alert type is unhandled.
type Result struct {
	SubjectID string
	AlertType Type
	Outcome   Outcome
	Actions   []ActionResult
}

// Dispatcher routes alert events through the rule table. It is safe for
// concurrent use; the table is immutable after construction.
type Dispatcher struct {
	deps  Dependencies
	table map[Type][]binding
	log   LogSink
	now   func() time.Time
}

// NewDispatcher creates a dispatcher over the built-in rule table. When
// enabled is non-nil, only the listed alert types are handled; everything
// else dispatches as unhandled.
func NewDispatcher(deps Dependencies, logSink LogSink, enabled map[Type]bool) *Dispatcher {
	table := make(map[Type][]binding, len(ruleTable))
	for alertType, bindings := range ruleTable {
		if enabled != nil && !enabled[alertType] {
			logrus.Infof("alert type %s disabled by configuration", alertType)
			continue
		}
		table[alertType] = bindings
	}

	return &Dispatcher{
		deps:  deps,
		table: table,
		log:   logSink,
		now:   time.Now,
	}
}

// Dispatch runs every matching action for the event. It never returns an
// error: each action failure is recorded in the action log and in the
// result, and dispatch continues with the next action.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) *Result {
	scope := common.NewScope(ctx, "alert.dispatch")
	defer scope.Finish()
	scope.SetAttribute("subject_id", e.SubjectID)
	scope.SetAttribute("alert_type", string(e.Type))

	result := &Result{
		SubjectID: e.SubjectID,
		AlertType: e.Type,
		Outcome:   OutcomeSuccess,
	}

	bindings, ok := d.table[e.Type]
	if !ok {
		scope.Log.Warnf("unhandled event type %s for subject %s", e.Type, e.SubjectID)
		d.appendLog(scope.Ctx, e, "unhandled_event_type", OutcomeFailed, nil)
		metrics.DispatchesTotal.WithLabelValues(string(e.Type), "unhandled").Inc()
		result.Outcome = OutcomeFailed
		return result
	}

	for _, b := range bindings {
		if b.when != nil && !b.when(e) {
			scope.Log.Debugf("action %s skipped for subject %s: condition not met", b.name, e.SubjectID)
			continue
		}

		err := b.run(scope.Ctx, d.deps, e)
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeFailed
			result.Outcome = OutcomeFailed
			scope.TraceError(err)
			scope.Log.Errorf("action %s failed for subject %s: %v", b.name, e.SubjectID, err)
		} else {
			scope.Log.Infof("action %s completed for subject %s", b.name, e.SubjectID)
		}

		d.appendLog(scope.Ctx, e, b.name, outcome, err)
		metrics.ActionsTotal.WithLabelValues(b.name, string(outcome)).Inc()
		result.Actions = append(result.Actions, ActionResult{Name: b.name, Outcome: outcome, Err: err})
	}

	metrics.DispatchesTotal.WithLabelValues(string(e.Type), string(result.Outcome)).Inc()
	return result
}

// DispatchBatch dispatches each event independently and reports every
// event's outcome. One event's failures never prevent the others.
func (d *Dispatcher) DispatchBatch(ctx context.Context, events []Event) []*Result {
	scope := common.NewScope(ctx, "alert.dispatch_batch")
	defer scope.Finish()
	scope.SetAttributeInt("event_count", len(events))

	results := make([]*Result, 0, len(events))
	for _, e := range events {
		results = append(results, d.Dispatch(scope.Ctx, e))
	}

	return results
}

// appendLog records an action outcome. Log failures are swallowed: the
// action log is best effort and must not change the dispatch outcome.
func (d *Dispatcher) appendLog(ctx context.Context, e Event, action string, outcome Outcome, actionErr error) {
	if d.log == nil {
		return
	}

	entry := &LogEntry{
		SubjectID: e.SubjectID,
		AlertType: e.Type,
		Action:    action,
		Outcome:   outcome,
		Timestamp: d.now(),
	}
	if actionErr != nil {
		entry.Error = actionErr.Error()
	}

	if err := d.log.Append(ctx, entry); err != nil {
		logrus.Warnf("failed to append action log entry for subject %s: %v", e.SubjectID, err)
	}
}
