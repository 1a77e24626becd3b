package alert

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"landsmon/internal/model"
)

// DefaultHistorySize caps the alert event history.
const DefaultHistorySize = 100

// Evaluator checks every enabled threshold against a usage snapshot and
// records breaches in the event history.
type Evaluator struct {
	registry *Registry
	events   EventStore

	// cooldown suppresses repeat events for a threshold that re-breaches
	// within the window. Zero keeps the historical one-event-per-cycle
	// behavior the dashboard expects.
	cooldown time.Duration

	mu       sync.Mutex
	programs map[string]*vm.Program // compiled conditions, keyed by id+condition
}

func NewEvaluator(registry *Registry, events EventStore, cooldown time.Duration) *Evaluator {
	return &Evaluator{
		registry: registry,
		events:   events,
		cooldown: cooldown,
		programs: make(map[string]*vm.Program),
	}
}

// Evaluate runs all enabled thresholds against the snapshot and returns the
// events created by this call. The full history is available via History.
// A threshold still above its bound on the next cycle produces a new event
// each time; there is no deduplication.
func (e *Evaluator) Evaluate(ctx context.Context, metrics model.UsageMetrics) ([]model.AlertEvent, error) {
	thresholds, err := e.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}

	now := time.Now().UTC()
	env := metrics.Env()
	var created []model.AlertEvent

	for _, t := range thresholds {
		if !t.Enabled {
			continue
		}
		value, ok := metrics.Resolve(t.Metric)
		if !ok {
			// unrecognized metric: condition not met, keep evaluating the rest
			continue
		}
		if !compare(t.Operator, value, t.Value) {
			continue
		}
		if t.Condition != "" && !e.conditionHolds(&t, env) {
			continue
		}
		if e.cooldown > 0 && t.LastTriggered != nil && now.Sub(*t.LastTriggered) < e.cooldown {
			continue
		}

		ev := model.AlertEvent{
			ID:             fmt.Sprintf("%d-%s", now.UnixNano(), t.ID),
			ThresholdID:    t.ID,
			ThresholdName:  t.Name,
			Metric:         t.Metric,
			CurrentValue:   value,
			ThresholdValue: t.Value,
			// plain decimal for the bound; %g goes scientific at 1e6
			Message:        fmt.Sprintf("%s: %.2f %s exceeds threshold of %s %s", t.Name, value, t.Unit, strconv.FormatFloat(t.Value, 'f', -1, 64), t.Unit),
			Severity:       model.SeverityForName(t.Name),
			TriggeredAt:    now,
			Acknowledged:   false,
		}
		if err := e.events.Insert(ctx, ev); err != nil {
			return created, fmt.Errorf("record alert event: %w", err)
		}
		if err := e.registry.markTriggered(ctx, t.ID, now); err != nil {
			log.Printf("ERROR: mark threshold %s triggered: %v", t.ID, err)
		}
		created = append(created, ev)
	}

	return created, nil
}

// compare applies the threshold operator. Operators outside the closed set
// evaluate to false so a bad record never aborts the remaining thresholds.
func compare(op model.Operator, value, bound float64) bool {
	switch op {
	case model.OpGreaterThan:
		return value > bound
	case model.OpGreaterEqual:
		return value >= bound
	case model.OpLessThan:
		return value < bound
	case model.OpLessEqual:
		return value <= bound
	case model.OpEqual:
		return value == bound
	}
	return false
}

// conditionHolds evaluates the threshold's optional condition expression.
// Compile or runtime errors count as "not triggered".
func (e *Evaluator) conditionHolds(t *model.Threshold, env map[string]any) bool {
	e.mu.Lock()
	key := t.ID + "\x00" + t.Condition
	prog, ok := e.programs[key]
	if !ok {
		var err error
		prog, err = expr.Compile(t.Condition, expr.AsBool())
		if err != nil {
			e.mu.Unlock()
			log.Printf("ERROR: compile condition for threshold %s: %v", t.ID, err)
			return false
		}
		e.programs[key] = prog
	}
	e.mu.Unlock()

	result, err := expr.Run(prog, env)
	if err != nil {
		log.Printf("ERROR: evaluate condition for threshold %s: %v", t.ID, err)
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

// History returns the event history, most recent first.
func (e *Evaluator) History(ctx context.Context) ([]model.AlertEvent, error) {
	return e.events.List(ctx)
}

// Unacknowledged returns the events still awaiting acknowledgement.
func (e *Evaluator) Unacknowledged(ctx context.Context) ([]model.AlertEvent, error) {
	all, err := e.events.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.AlertEvent, 0, len(all))
	for _, ev := range all {
		if !ev.Acknowledged {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Acknowledge marks one event acknowledged. Acknowledging an event twice is a
// no-op; the returned bool reports whether the id was found at all.
func (e *Evaluator) Acknowledge(ctx context.Context, id string) (bool, error) {
	return e.events.Acknowledge(ctx, id)
}

// AcknowledgeAll acknowledges every pending event and returns how many
// transitioned.
func (e *Evaluator) AcknowledgeAll(ctx context.Context) (int, error) {
	return e.events.AcknowledgeAll(ctx)
}

// Summary recomputes the dashboard counters from current state on every call.
func (e *Evaluator) Summary(ctx context.Context) (model.AlertSummary, error) {
	thresholds, err := e.registry.List(ctx)
	if err != nil {
		return model.AlertSummary{}, err
	}
	events, err := e.events.List(ctx)
	if err != nil {
		return model.AlertSummary{}, err
	}

	s := model.AlertSummary{
		TotalThresholds: len(thresholds),
		TotalAlerts:     len(events),
	}
	for _, t := range thresholds {
		if t.Enabled {
			s.EnabledThresholds++
		}
	}
	for _, ev := range events {
		if !ev.Acknowledged {
			s.UnacknowledgedAlerts++
		}
		switch ev.Severity {
		case model.SeverityCritical:
			s.CriticalAlerts++
		case model.SeverityWarning:
			s.WarningAlerts++
		}
	}
	if len(events) > 0 {
		t := events[0].TriggeredAt
		s.LastAlertTime = &t
	}
	return s, nil
}
