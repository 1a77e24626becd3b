package alert

import (
	"context"
	"testing"
	"time"

	"landsmon/internal/model"
)

func newTestEvaluator(t *testing.T, cooldown time.Duration) (*Evaluator, *Registry) {
	t.Helper()
	r := newTestRegistry(t)
	e := NewEvaluator(r, NewMemoryEventStore(DefaultHistorySize), cooldown)
	return e, r
}

func TestEvaluateCostWarning(t *testing.T) {
	e, r := newTestEvaluator(t, 0)
	ctx := context.Background()

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.ThresholdID != "cost-warning" {
		t.Fatalf("expected cost-warning to fire, got %s", ev.ThresholdID)
	}
	if ev.Severity != model.SeverityWarning {
		t.Fatalf("expected warning severity, got %s", ev.Severity)
	}
	want := "Cost Warning: 35.00 USD exceeds threshold of 30 USD"
	if ev.Message != want {
		t.Fatalf("message mismatch:\n got %q\nwant %q", ev.Message, want)
	}

	// The breach stamps lastTriggered on the threshold.
	cw, err := r.Get(ctx, "cost-warning")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cw.LastTriggered == nil {
		t.Fatal("expected lastTriggered to be set")
	}
}

func TestEvaluateLargeBoundMessage(t *testing.T) {
	r := newTestRegistry(t)
	e := NewEvaluator(r, NewMemoryEventStore(DefaultHistorySize), 0)
	ctx := context.Background()

	if _, err := r.Create(ctx, model.Threshold{
		Name:     "Function Budget",
		Metric:   model.MetricFunctions,
		Operator: model.OpGreaterThan,
		Value:    1000000,
		Unit:     "invocations",
		Enabled:  true,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	events, err := e.Evaluate(ctx, model.UsageMetrics{FunctionInvocations: 1500000})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	// The bound must stay plain decimal, never "1e+06".
	want := "Function Budget: 1500000.00 invocations exceeds threshold of 1000000 invocations"
	if events[0].Message != want {
		t.Fatalf("message mismatch:\n got %q\nwant %q", events[0].Message, want)
	}
}

func TestEvaluateCostCritical(t *testing.T) {
	e, _ := newTestEvaluator(t, 0)

	events, err := e.Evaluate(context.Background(), model.UsageMetrics{Cost: 55})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// Both cost thresholds fire; severity follows the threshold name.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Severity != model.SeverityWarning || events[1].Severity != model.SeverityCritical {
		t.Fatalf("unexpected severities: %s, %s", events[0].Severity, events[1].Severity)
	}
}

func TestEvaluateStorageBytes(t *testing.T) {
	e, _ := newTestEvaluator(t, 0)

	// 7 GiB of raw bytes: above the 6.4 GB warning, below the 7.6 GB critical.
	events, err := e.Evaluate(context.Background(), model.UsageMetrics{Storage: 7 * (1 << 30)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ThresholdID != "storage-80" {
		t.Fatalf("expected storage-80, got %s", events[0].ThresholdID)
	}
	if events[0].CurrentValue != 7 {
		t.Fatalf("expected currentValue 7 (GB), got %g", events[0].CurrentValue)
	}
}

func TestEvaluateSkipsDisabled(t *testing.T) {
	e, r := newTestEvaluator(t, 0)
	ctx := context.Background()

	disabled := false
	if _, err := r.Update(ctx, "cost-warning", model.ThresholdUpdate{Enabled: &disabled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("disabled threshold fired: %+v", events)
	}
}

func TestEvaluateNoDeduplication(t *testing.T) {
	e, _ := newTestEvaluator(t, 0)
	ctx := context.Background()

	// The same sustained breach produces a fresh event every cycle.
	for i := 0; i < 3; i++ {
		if _, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35}); err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
	}
	history, err := e.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 events, got %d", len(history))
	}
}

func TestHistoryBounded(t *testing.T) {
	r := newTestRegistry(t)
	e := NewEvaluator(r, NewMemoryEventStore(3), 0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35}); err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
	}
	history, err := e.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(history))
	}
	// Most recent first.
	for i := 1; i < len(history); i++ {
		if history[i].TriggeredAt.After(history[i-1].TriggeredAt) {
			t.Fatal("history not ordered most recent first")
		}
	}
}

func TestAcknowledge(t *testing.T) {
	e, _ := newTestEvaluator(t, 0)
	ctx := context.Background()

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 55})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	ok, err := e.Acknowledge(ctx, events[0].ID)
	if err != nil || !ok {
		t.Fatalf("acknowledge: ok=%v err=%v", ok, err)
	}
	// Acknowledging again is a no-op, not an error.
	ok, err = e.Acknowledge(ctx, events[0].ID)
	if err != nil || !ok {
		t.Fatalf("second acknowledge: ok=%v err=%v", ok, err)
	}
	ok, err = e.Acknowledge(ctx, "missing")
	if err != nil {
		t.Fatalf("acknowledge missing: %v", err)
	}
	if ok {
		t.Fatal("expected false for unknown event id")
	}

	pending, err := e.Unacknowledged(ctx)
	if err != nil {
		t.Fatalf("unacknowledged: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending event, got %d", len(pending))
	}

	n, err := e.AcknowledgeAll(ctx)
	if err != nil {
		t.Fatalf("acknowledge all: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 transition, got %d", n)
	}
}

func TestEvaluateCondition(t *testing.T) {
	r := newTestRegistry(t)
	e := NewEvaluator(r, NewMemoryEventStore(DefaultHistorySize), 0)
	ctx := context.Background()

	// Gate the cost warning on MAU as well.
	cond := "mau > 1000"
	if _, err := r.Update(ctx, "cost-warning", model.ThresholdUpdate{Condition: &cond}); err != nil {
		t.Fatalf("update: %v", err)
	}

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35, MAU: 10})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("condition should have suppressed the event, got %d", len(events))
	}

	events, err = e.Evaluate(ctx, model.UsageMetrics{Cost: 35, MAU: 5000})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event with condition met, got %d", len(events))
	}
}

func TestEvaluateConditionCompileError(t *testing.T) {
	r := newTestRegistry(t)
	e := NewEvaluator(r, NewMemoryEventStore(DefaultHistorySize), 0)
	ctx := context.Background()

	cond := "mau >>> 1000"
	if _, err := r.Update(ctx, "cost-warning", model.ThresholdUpdate{Condition: &cond}); err != nil {
		t.Fatalf("update: %v", err)
	}

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 0 {
		t.Fatal("broken condition must not trigger")
	}
}

func TestEvaluateCooldown(t *testing.T) {
	e, _ := newTestEvaluator(t, time.Hour)
	ctx := context.Background()

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 35})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	events, err = e.Evaluate(ctx, model.UsageMetrics{Cost: 35})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("cooldown should suppress repeat events, got %d", len(events))
	}
}

func TestCompareOperators(t *testing.T) {
	cases := []struct {
		op    model.Operator
		value float64
		bound float64
		want  bool
	}{
		{model.OpGreaterThan, 5, 5, false},
		{model.OpGreaterThan, 6, 5, true},
		{model.OpGreaterEqual, 5, 5, true},
		{model.OpLessThan, 4, 5, true},
		{model.OpLessThan, 5, 5, false},
		{model.OpLessEqual, 5, 5, true},
		{model.OpEqual, 5, 5, true},
		{model.OpEqual, 5.1, 5, false},
		{model.Operator("between"), 5, 5, false},
	}
	for _, c := range cases {
		if got := compare(c.op, c.value, c.bound); got != c.want {
			t.Errorf("compare(%s, %g, %g) = %v, want %v", c.op, c.value, c.bound, got, c.want)
		}
	}
}

func TestSummary(t *testing.T) {
	e, r := newTestEvaluator(t, 0)
	ctx := context.Background()

	disabled := false
	if _, err := r.Update(ctx, "mau-warning", model.ThresholdUpdate{Enabled: &disabled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	events, err := e.Evaluate(ctx, model.UsageMetrics{Cost: 55})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := e.Acknowledge(ctx, events[0].ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	s, err := e.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.TotalThresholds != 7 || s.EnabledThresholds != 6 {
		t.Fatalf("threshold counts: %+v", s)
	}
	if s.TotalAlerts != 2 || s.UnacknowledgedAlerts != 1 {
		t.Fatalf("alert counts: %+v", s)
	}
	if s.CriticalAlerts != 1 || s.WarningAlerts != 1 {
		t.Fatalf("severity counts: %+v", s)
	}
	if s.LastAlertTime == nil {
		t.Fatal("expected lastAlertTime")
	}
}
