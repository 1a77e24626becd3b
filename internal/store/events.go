package store

import (
	"context"
	"fmt"

	"landsmon/internal/alert"
	"landsmon/internal/model"
)

// EventStore is the durable alert.EventStore backed by _alert_events. The
// history cap is enforced on insert by pruning the oldest rows.
type EventStore struct {
	s   *Store
	cap int
}

func NewEventStore(s *Store, size int) *EventStore {
	if size <= 0 {
		size = alert.DefaultHistorySize
	}
	return &EventStore{s: s, cap: size}
}

var _ alert.EventStore = (*EventStore)(nil)

const eventCols = "id, threshold_id, threshold_name, metric, current_value, threshold_value, message, severity, triggered_at, acknowledged"

func (st *EventStore) Insert(ctx context.Context, ev model.AlertEvent) error {
	pb := st.s.Dialect.NewParamBuilder()
	_, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`INSERT INTO _alert_events (%s) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		eventCols,
		pb.Add(ev.ID), pb.Add(ev.ThresholdID), pb.Add(ev.ThresholdName), pb.Add(string(ev.Metric)),
		pb.Add(ev.CurrentValue), pb.Add(ev.ThresholdValue), pb.Add(ev.Message),
		pb.Add(string(ev.Severity)), pb.Add(ev.TriggeredAt), pb.Add(ev.Acknowledged)),
		pb.Params()...)
	if err != nil {
		return st.s.Dialect.MapError(err)
	}
	return st.prune(ctx)
}

// prune drops the oldest rows beyond the history cap.
func (st *EventStore) prune(ctx context.Context) error {
	pb := st.s.Dialect.NewParamBuilder()
	_, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`DELETE FROM _alert_events WHERE id NOT IN (
		   SELECT id FROM _alert_events ORDER BY triggered_at DESC, id DESC LIMIT %s
		 )`, pb.Add(st.cap)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("prune alert events: %w", err)
	}
	return nil
}

func (st *EventStore) List(ctx context.Context) ([]model.AlertEvent, error) {
	rows, err := QueryRows(ctx, st.s.DB,
		fmt.Sprintf("SELECT %s FROM _alert_events ORDER BY triggered_at DESC, id DESC", eventCols))
	if err != nil {
		return nil, fmt.Errorf("list alert events: %w", err)
	}
	out := make([]model.AlertEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowEvent(row))
	}
	return out, nil
}

func (st *EventStore) Acknowledge(ctx context.Context, id string) (bool, error) {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB,
		fmt.Sprintf("UPDATE _alert_events SET acknowledged = %s WHERE id = %s", pb.Add(true), pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return false, fmt.Errorf("acknowledge alert %s: %w", id, err)
	}
	return n > 0, nil
}

func (st *EventStore) AcknowledgeAll(ctx context.Context) (int, error) {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB,
		fmt.Sprintf("UPDATE _alert_events SET acknowledged = %s WHERE acknowledged = %s", pb.Add(true), pb.Add(false)),
		pb.Params()...)
	if err != nil {
		return 0, fmt.Errorf("acknowledge all alerts: %w", err)
	}
	return int(n), nil
}

func rowEvent(row map[string]any) model.AlertEvent {
	return model.AlertEvent{
		ID:             toStr(row, "id"),
		ThresholdID:    toStr(row, "threshold_id"),
		ThresholdName:  toStr(row, "threshold_name"),
		Metric:         model.Metric(toStr(row, "metric")),
		CurrentValue:   toF64(row, "current_value"),
		ThresholdValue: toF64(row, "threshold_value"),
		Message:        toStr(row, "message"),
		Severity:       model.Severity(toStr(row, "severity")),
		TriggeredAt:    toTime(row, "triggered_at"),
		Acknowledged:   toBool(row, "acknowledged"),
	}
}
