package alert

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"landsmon/internal/model"
)

// Registry holds the named threshold definitions. Reads return copies;
// mutations go through the injected store so the in-memory and SQL-backed
// variants behave identically.
type Registry struct {
	mu    sync.Mutex
	store ThresholdStore
}

func NewRegistry(store ThresholdStore) *Registry {
	return &Registry{store: store}
}

// Seed populates the store with the default thresholds if it is empty.
func (r *Registry) Seed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("seed thresholds: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	return r.store.Replace(ctx, DefaultThresholds(time.Now().UTC()))
}

// List returns all thresholds in insertion order.
func (r *Registry) List(ctx context.Context) ([]model.Threshold, error) {
	return r.store.List(ctx)
}

// Get returns the threshold with the given id, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (model.Threshold, error) {
	return r.store.Get(ctx, id)
}

// Create validates def, assigns a time-based id and creation timestamp, and
// appends the record.
func (r *Registry) Create(ctx context.Context, def model.Threshold) (model.Threshold, error) {
	if err := validate(def.Metric, def.Operator, def.Value); err != nil {
		return model.Threshold{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	def.ID = strconv.FormatInt(time.Now().UnixNano(), 10)
	def.CreatedAt = time.Now().UTC()
	def.LastTriggered = nil
	if err := r.store.Insert(ctx, def); err != nil {
		return model.Threshold{}, fmt.Errorf("create threshold: %w", err)
	}
	return def, nil
}

// Update merges the non-nil fields of upd into the stored record.
func (r *Registry) Update(ctx context.Context, id string, upd model.ThresholdUpdate) (model.Threshold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Get(ctx, id)
	if err != nil {
		return model.Threshold{}, err
	}
	upd.Apply(&t)
	if err := validate(t.Metric, t.Operator, t.Value); err != nil {
		return model.Threshold{}, err
	}
	if err := r.store.Update(ctx, t); err != nil {
		return model.Threshold{}, fmt.Errorf("update threshold %s: %w", id, err)
	}
	return t, nil
}

// Delete removes the threshold and reports whether a record was removed.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, id)
}

// ResetToDefaults replaces the whole set with the built-in seed list.
func (r *Registry) ResetToDefaults(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Replace(ctx, DefaultThresholds(time.Now().UTC()))
}

// markTriggered stamps lastTriggered on a threshold after a breach.
func (r *Registry) markTriggered(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	t.LastTriggered = &at
	return r.store.Update(ctx, t)
}

func validate(metric model.Metric, op model.Operator, value float64) error {
	if !model.ValidMetric(metric) {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalid, metric)
	}
	if !model.ValidOperator(op) {
		return fmt.Errorf("%w: unknown operator %q", ErrInvalid, op)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value must be finite", ErrInvalid)
	}
	return nil
}
