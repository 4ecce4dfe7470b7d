package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/finpulse/churn-risk-engine/pkg/intervention"
	"github.com/finpulse/churn-risk-engine/pkg/notify"
)

type capturingSink struct {
	notifications []*notify.Notification
	fail          bool
}

func (s *capturingSink) Write(ctx context.Context, n *notify.Notification) error {
	if s.fail {
		return errors.New("sink unavailable")
	}
	s.notifications = append(s.notifications, n)
	return nil
}

type startCall struct {
	subjectID string
	program   intervention.Program
	reason    string
}

type capturingStarter struct {
	starts []startCall
	fail   bool
}

func (s *capturingStarter) Start(ctx context.Context, subjectID string, program intervention.Program, reason string) error {
	if s.fail {
		return errors.New("intervention service unavailable")
	}
	s.starts = append(s.starts, startCall{subjectID, program, reason})
	return nil
}

type capturingLog struct {
	entries []*LogEntry
	fail    bool
}

func (l *capturingLog) Append(ctx context.Context, entry *LogEntry) error {
	if l.fail {
		return errors.New("log unavailable")
	}
	l.entries = append(l.entries, entry)
	return nil
}

type fixture struct {
	sink       *capturingSink
	starter    *capturingStarter
	log        *capturingLog
	dispatcher *Dispatcher
}

func newFixture() *fixture {
	sink := &capturingSink{}
	starter := &capturingStarter{}
	logSink := &capturingLog{}

	deps := Dependencies{
		Notifier:      notify.NewEmitter(sink),
		Interventions: starter,
	}

	return &fixture{
		sink:       sink,
		starter:    starter,
		log:        logSink,
		dispatcher: NewDispatcher(deps, logSink, nil),
	}
}

func TestDispatch_TierUpgrade(t *testing.T) {
	f := newFixture()

	result := f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-1",
		Type:      TypeTierUpgrade,
		Payload: Payload{
			"oldTier":       "Silver",
			"newTier":       "Gold",
			"discount":      10,
			"rateReduction": 50,
		},
	})

	if result.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %s, expected success", result.Outcome)
	}
	if len(f.sink.notifications) != 1 {
		t.Fatalf("wrote %d notifications, expected exactly 1", len(f.sink.notifications))
	}

	n := f.sink.notifications[0]
	if n.Kind != notify.KindTierUpgrade {
		t.Errorf("Kind = %s, expected tier-upgrade", n.Kind)
	}
	if n.Title != "You've been upgraded to Gold" {
		t.Errorf("Title = %q", n.Title)
	}

	if len(f.starter.starts) != 0 {
		t.Errorf("started %d interventions, expected none", len(f.starter.starts))
	}
}

func TestDispatch_HighSpendingAboveGoalsThreshold(t *testing.T) {
	f := newFixture()

	result := f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-2",
		Type:      TypeHighSpending,
		Payload:   Payload{"amount": 6000.0, "category": "dining"},
	})

	if result.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %s, expected success", result.Outcome)
	}

	if len(f.sink.notifications) != 1 {
		t.Fatalf("wrote %d notifications, expected 1", len(f.sink.notifications))
	}
	n := f.sink.notifications[0]
	if n.Kind != notify.KindNewRecommendation {
		t.Errorf("Kind = %s, expected new-recommendation", n.Kind)
	}
	if n.Title != "New recommendation: dining spending reduction" {
		t.Errorf("Title = %q", n.Title)
	}
	if savings := n.Metadata.Int("estimatedSavings", -1); savings != 900 {
		t.Errorf("estimatedSavings = %d, expected 900 (15%% of 6000)", savings)
	}

	if len(f.starter.starts) != 1 {
		t.Fatalf("started %d interventions, expected 1", len(f.starter.starts))
	}
	if f.starter.starts[0].program != intervention.ProgramGoals {
		t.Errorf("program = %s, expected goals", f.starter.starts[0].program)
	}
}

func TestDispatch_HighSpendingBelowGoalsThreshold(t *testing.T) {
	f := newFixture()

	f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-3",
		Type:      TypeHighSpending,
		Payload:   Payload{"amount": 2000.0, "category": "travel"},
	})

	if len(f.sink.notifications) != 1 {
		t.Fatalf("wrote %d notifications, expected 1", len(f.sink.notifications))
	}
	if savings := f.sink.notifications[0].Metadata.Int("estimatedSavings", -1); savings != 300 {
		t.Errorf("estimatedSavings = %d, expected 300", savings)
	}
	if len(f.starter.starts) != 0 {
		t.Errorf("started %d interventions, expected none below threshold", len(f.starter.starts))
	}
}

func TestDispatch_LowWellness(t *testing.T) {
	cases := []struct {
		name          string
		wellnessScore float64
		wantStarts    int
		wantNotices   int
	}{
		{"below counseling threshold", 25, 1, 1},
		{"below education threshold only", 45, 0, 1},
		{"healthy", 75, 0, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture()

			result := f.dispatcher.Dispatch(context.Background(), Event{
				SubjectID: "subject-4",
				Type:      TypeLowWellness,
				Payload:   Payload{"wellnessScore": c.wellnessScore},
			})

			if result.Outcome != OutcomeSuccess {
				t.Errorf("Outcome = %s, expected success", result.Outcome)
			}
			if len(f.starter.starts) != c.wantStarts {
				t.Errorf("starts = %d, expected %d", len(f.starter.starts), c.wantStarts)
			}
			if c.wantStarts > 0 && f.starter.starts[0].program != intervention.ProgramCounseling {
				t.Errorf("program = %s, expected counseling", f.starter.starts[0].program)
			}
			if len(f.sink.notifications) != c.wantNotices {
				t.Errorf("notifications = %d, expected %d", len(f.sink.notifications), c.wantNotices)
			}
		})
	}
}

func TestDispatch_FrequentAdvanceRequests(t *testing.T) {
	f := newFixture()

	f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-5",
		Type:      TypeFrequentAdvanceRequests,
		Payload:   Payload{"count": 6},
	})

	if len(f.starter.starts) != 1 || f.starter.starts[0].program != intervention.ProgramEducation {
		t.Errorf("starts = %v, expected one education intervention", f.starter.starts)
	}
	if len(f.sink.notifications) != 1 {
		t.Fatalf("notifications = %d, expected 1", len(f.sink.notifications))
	}
	if f.sink.notifications[0].Metadata.String("urgency", "") != "medium" {
		t.Errorf("urgency = %s, expected medium", f.sink.notifications[0].Metadata.String("urgency", ""))
	}

	// Below the education threshold only the recommendation fires.
	f2 := newFixture()
	f2.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-6",
		Type:      TypeFrequentAdvanceRequests,
		Payload:   Payload{"count": 3},
	})
	if len(f2.starter.starts) != 0 {
		t.Errorf("starts = %d, expected none for count=3", len(f2.starter.starts))
	}
	if len(f2.sink.notifications) != 1 {
		t.Errorf("notifications = %d, expected 1", len(f2.sink.notifications))
	}
}

func TestDispatch_WellnessImprovement(t *testing.T) {
	cases := []struct {
		name          string
		oldScore      float64
		newScore      float64
		wantMilestone bool
		wantRate      bool
	}{
		{"decile crossed, small gain", 58, 61, true, false},
		{"no decile, big gain", 52, 57, false, true},
		{"decile crossed and big gain", 40, 70, true, true},
		{"neither", 52, 54, false, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture()

			f.dispatcher.Dispatch(context.Background(), Event{
				SubjectID: "subject-7",
				Type:      TypeWellnessImprovement,
				Payload:   Payload{"oldScore": c.oldScore, "newScore": c.newScore},
			})

			var gotMilestone, gotRate bool
			for _, n := range f.sink.notifications {
				switch n.Kind {
				case notify.KindMilestone:
					gotMilestone = true
					wantValue := int(c.newScore/10) * 10
					if got := n.Metadata.Int("milestone", -1); got != wantValue {
						t.Errorf("milestone = %d, expected %d", got, wantValue)
					}
				case notify.KindRateImproved:
					gotRate = true
					if got := n.Metadata.Float("oldRate", 0); got != 4.5 {
						t.Errorf("oldRate = %v, expected 4.5", got)
					}
					if got := n.Metadata.Float("newRate", 0); got != 3.5 {
						t.Errorf("newRate = %v, expected 3.5", got)
					}
				}
			}

			if gotMilestone != c.wantMilestone {
				t.Errorf("milestone notice = %v, expected %v", gotMilestone, c.wantMilestone)
			}
			if gotRate != c.wantRate {
				t.Errorf("rate notice = %v, expected %v", gotRate, c.wantRate)
			}
		})
	}
}

func TestDispatch_UnknownType(t *testing.T) {
	f := newFixture()

	result := f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-8",
		Type:      Type("account_closed"),
	})

	if result.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %s, expected failed for unhandled type", result.Outcome)
	}
	if len(f.log.entries) != 1 {
		t.Fatalf("log entries = %d, expected 1", len(f.log.entries))
	}
	if f.log.entries[0].Action != "unhandled_event_type" {
		t.Errorf("logged action = %s, expected unhandled_event_type", f.log.entries[0].Action)
	}
	if len(f.sink.notifications) != 0 || len(f.starter.starts) != 0 {
		t.Error("unhandled event must not trigger any actions")
	}
}

func TestDispatch_ActionFailureDoesNotStopDispatch(t *testing.T) {
	f := newFixture()
	f.sink.fail = true // recommendation emit fails, goals intervention must still run

	result := f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-9",
		Type:      TypeHighSpending,
		Payload:   Payload{"amount": 6000.0, "category": "dining"},
	})

	if result.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %s, expected failed", result.Outcome)
	}
	if len(result.Actions) != 2 {
		t.Fatalf("action results = %d, expected 2", len(result.Actions))
	}
	if result.Actions[0].Outcome != OutcomeFailed {
		t.Errorf("first action outcome = %s, expected failed", result.Actions[0].Outcome)
	}
	if result.Actions[1].Outcome != OutcomeSuccess {
		t.Errorf("second action outcome = %s, expected success", result.Actions[1].Outcome)
	}

	if len(f.starter.starts) != 1 {
		t.Errorf("starts = %d, the goals intervention should still run", len(f.starter.starts))
	}

	var failedLogged bool
	for _, entry := range f.log.entries {
		if entry.Action == "emit_spending_reduction_recommendation" && entry.Outcome == OutcomeFailed {
			failedLogged = true
			if entry.Error == "" {
				t.Error("failed log entry should carry the error text")
			}
		}
	}
	if !failedLogged {
		t.Error("failed action was not recorded in the action log")
	}
}

func TestDispatch_LogFailureDoesNotAffectOutcome(t *testing.T) {
	f := newFixture()
	f.log.fail = true

	result := f.dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-10",
		Type:      TypeTierUpgrade,
		Payload:   Payload{"oldTier": "Bronze", "newTier": "Silver"},
	})

	if result.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %s, log sink failures must not change the outcome", result.Outcome)
	}
}

func TestDispatchBatch_IsolatesEvents(t *testing.T) {
	f := newFixture()

	results := f.dispatcher.DispatchBatch(context.Background(), []Event{
		{SubjectID: "subject-a", Type: Type("bogus")},
		{SubjectID: "subject-b", Type: TypeTierUpgrade, Payload: Payload{"oldTier": "Silver", "newTier": "Gold"}},
	})

	if len(results) != 2 {
		t.Fatalf("results = %d, expected 2", len(results))
	}
	if results[0].Outcome != OutcomeFailed {
		t.Errorf("first outcome = %s, expected failed", results[0].Outcome)
	}
	if results[1].Outcome != OutcomeSuccess {
		t.Errorf("second outcome = %s, expected success", results[1].Outcome)
	}
	if results[1].SubjectID != "subject-b" {
		t.Errorf("second subject = %s, expected subject-b", results[1].SubjectID)
	}
}

func TestNewDispatcher_DisabledTypeIsUnhandled(t *testing.T) {
	sink := &capturingSink{}
	starter := &capturingStarter{}
	deps := Dependencies{Notifier: notify.NewEmitter(sink), Interventions: starter}

	dispatcher := NewDispatcher(deps, nil, map[Type]bool{TypeLowWellness: true})

	result := dispatcher.Dispatch(context.Background(), Event{
		SubjectID: "subject-11",
		Type:      TypeTierUpgrade,
		Payload:   Payload{"newTier": "Gold"},
	})

	if result.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %s, expected failed for disabled type", result.Outcome)
	}
	if len(sink.notifications) != 0 {
		t.Errorf("notifications = %d, expected none for disabled type", len(sink.notifications))
	}
}
