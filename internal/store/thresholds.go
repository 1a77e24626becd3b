package store

import (
	"context"
	"fmt"

	"landsmon/internal/alert"
	"landsmon/internal/model"
)

// ThresholdStore is the durable alert.ThresholdStore backed by _thresholds.
type ThresholdStore struct {
	s *Store
}

func NewThresholdStore(s *Store) *ThresholdStore {
	return &ThresholdStore{s: s}
}

var _ alert.ThresholdStore = (*ThresholdStore)(nil)

const thresholdCols = "id, name, metric, operator, value, unit, enabled, notify_email, notify_dashboard, condition, created_at, last_triggered"

func (st *ThresholdStore) List(ctx context.Context) ([]model.Threshold, error) {
	rows, err := QueryRows(ctx, st.s.DB,
		fmt.Sprintf("SELECT %s FROM _thresholds ORDER BY position", thresholdCols))
	if err != nil {
		return nil, fmt.Errorf("list thresholds: %w", err)
	}
	out := make([]model.Threshold, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowThreshold(row))
	}
	return out, nil
}

func (st *ThresholdStore) Get(ctx context.Context, id string) (model.Threshold, error) {
	pb := st.s.Dialect.NewParamBuilder()
	row, err := QueryRow(ctx, st.s.DB,
		fmt.Sprintf("SELECT %s FROM _thresholds WHERE id = %s", thresholdCols, pb.Add(id)),
		pb.Params()...)
	if err == ErrNotFound {
		return model.Threshold{}, alert.ErrNotFound
	}
	if err != nil {
		return model.Threshold{}, fmt.Errorf("get threshold %s: %w", id, err)
	}
	return rowThreshold(row), nil
}

func (st *ThresholdStore) Insert(ctx context.Context, t model.Threshold) error {
	pb := st.s.Dialect.NewParamBuilder()
	_, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`INSERT INTO _thresholds (id, name, metric, operator, value, unit, enabled, notify_email, notify_dashboard, condition, position, created_at, last_triggered)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, (SELECT COALESCE(MAX(position), 0) + 1 FROM _thresholds t2), %s, %s)`,
		pb.Add(t.ID), pb.Add(t.Name), pb.Add(string(t.Metric)), pb.Add(string(t.Operator)),
		pb.Add(t.Value), pb.Add(t.Unit), pb.Add(t.Enabled), pb.Add(t.NotifyEmail),
		pb.Add(t.NotifyDashboard), pb.Add(t.Condition), pb.Add(t.CreatedAt), pb.Add(t.LastTriggered)),
		pb.Params()...)
	if err != nil {
		return st.s.Dialect.MapError(err)
	}
	return nil
}

func (st *ThresholdStore) Update(ctx context.Context, t model.Threshold) error {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB, fmt.Sprintf(
		`UPDATE _thresholds
		 SET name = %s, metric = %s, operator = %s, value = %s, unit = %s, enabled = %s,
		     notify_email = %s, notify_dashboard = %s, condition = %s, last_triggered = %s
		 WHERE id = %s`,
		pb.Add(t.Name), pb.Add(string(t.Metric)), pb.Add(string(t.Operator)), pb.Add(t.Value),
		pb.Add(t.Unit), pb.Add(t.Enabled), pb.Add(t.NotifyEmail), pb.Add(t.NotifyDashboard),
		pb.Add(t.Condition), pb.Add(t.LastTriggered), pb.Add(t.ID)),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("update threshold %s: %w", t.ID, err)
	}
	if n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

func (st *ThresholdStore) Delete(ctx context.Context, id string) (bool, error) {
	pb := st.s.Dialect.NewParamBuilder()
	n, err := Exec(ctx, st.s.DB,
		fmt.Sprintf("DELETE FROM _thresholds WHERE id = %s", pb.Add(id)),
		pb.Params()...)
	if err != nil {
		return false, fmt.Errorf("delete threshold %s: %w", id, err)
	}
	return n > 0, nil
}

func (st *ThresholdStore) Replace(ctx context.Context, ts []model.Threshold) error {
	tx, err := st.s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace thresholds: %w", err)
	}
	defer tx.Rollback()

	if _, err := Exec(ctx, tx, "DELETE FROM _thresholds"); err != nil {
		return fmt.Errorf("replace thresholds: %w", err)
	}
	for i, t := range ts {
		pb := st.s.Dialect.NewParamBuilder()
		_, err := Exec(ctx, tx, fmt.Sprintf(
			`INSERT INTO _thresholds (id, name, metric, operator, value, unit, enabled, notify_email, notify_dashboard, condition, position, created_at, last_triggered)
			 VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)`,
			pb.Add(t.ID), pb.Add(t.Name), pb.Add(string(t.Metric)), pb.Add(string(t.Operator)),
			pb.Add(t.Value), pb.Add(t.Unit), pb.Add(t.Enabled), pb.Add(t.NotifyEmail),
			pb.Add(t.NotifyDashboard), pb.Add(t.Condition), pb.Add(i+1), pb.Add(t.CreatedAt), pb.Add(t.LastTriggered)),
			pb.Params()...)
		if err != nil {
			return fmt.Errorf("replace thresholds: %w", err)
		}
	}
	return tx.Commit()
}

func rowThreshold(row map[string]any) model.Threshold {
	return model.Threshold{
		ID:              toStr(row, "id"),
		Name:            toStr(row, "name"),
		Metric:          model.Metric(toStr(row, "metric")),
		Operator:        model.Operator(toStr(row, "operator")),
		Value:           toF64(row, "value"),
		Unit:            toStr(row, "unit"),
		Enabled:         toBool(row, "enabled"),
		NotifyEmail:     toBool(row, "notify_email"),
		NotifyDashboard: toBool(row, "notify_dashboard"),
		Condition:       toStr(row, "condition"),
		CreatedAt:       toTime(row, "created_at"),
		LastTriggered:   toTimePtr(row, "last_triggered"),
	}
}
