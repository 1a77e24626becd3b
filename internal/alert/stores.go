package alert

import (
	"context"
	"errors"
	"sync"

	"landsmon/internal/model"
)

var ErrNotFound = errors.New("not found")

// ErrInvalid wraps threshold validation failures (unknown metric/operator,
// non-finite bound).
var ErrInvalid = errors.New("invalid threshold")

// ThresholdStore persists threshold definitions in insertion order.
type ThresholdStore interface {
	List(ctx context.Context) ([]model.Threshold, error)
	Get(ctx context.Context, id string) (model.Threshold, error)
	Insert(ctx context.Context, t model.Threshold) error
	Update(ctx context.Context, t model.Threshold) error
	Delete(ctx context.Context, id string) (bool, error)
	Replace(ctx context.Context, ts []model.Threshold) error
}

// EventStore keeps the bounded, most-recent-first alert history.
type EventStore interface {
	Insert(ctx context.Context, ev model.AlertEvent) error
	List(ctx context.Context) ([]model.AlertEvent, error)
	Acknowledge(ctx context.Context, id string) (bool, error)
	AcknowledgeAll(ctx context.Context) (int, error)
}

// --- in-memory implementations ---

type memoryThresholdStore struct {
	mu         sync.RWMutex
	thresholds []model.Threshold
}

// NewMemoryThresholdStore returns a ThresholdStore backed by process memory.
func NewMemoryThresholdStore() ThresholdStore {
	return &memoryThresholdStore{}
}

func (s *memoryThresholdStore) List(ctx context.Context) ([]model.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Threshold, len(s.thresholds))
	copy(out, s.thresholds)
	return out, nil
}

func (s *memoryThresholdStore) Get(ctx context.Context, id string) (model.Threshold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.thresholds {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Threshold{}, ErrNotFound
}

func (s *memoryThresholdStore) Insert(ctx context.Context, t model.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = append(s.thresholds, t)
	return nil
}

func (s *memoryThresholdStore) Update(ctx context.Context, t model.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.thresholds {
		if s.thresholds[i].ID == t.ID {
			s.thresholds[i] = t
			return nil
		}
	}
	return ErrNotFound
}

func (s *memoryThresholdStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.thresholds {
		if s.thresholds[i].ID == id {
			s.thresholds = append(s.thresholds[:i], s.thresholds[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryThresholdStore) Replace(ctx context.Context, ts []model.Threshold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = make([]model.Threshold, len(ts))
	copy(s.thresholds, ts)
	return nil
}

type memoryEventStore struct {
	mu     sync.RWMutex
	events []model.AlertEvent // most recent first
	cap    int
}

// NewMemoryEventStore returns an EventStore that keeps at most size events,
// dropping the oldest on overflow.
func NewMemoryEventStore(size int) EventStore {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &memoryEventStore{cap: size}
}

func (s *memoryEventStore) Insert(ctx context.Context, ev model.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]model.AlertEvent{ev}, s.events...)
	if len(s.events) > s.cap {
		s.events = s.events[:s.cap]
	}
	return nil
}

func (s *memoryEventStore) List(ctx context.Context) ([]model.AlertEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

func (s *memoryEventStore) Acknowledge(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Acknowledged = true
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryEventStore) AcknowledgeAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.events {
		if !s.events[i].Acknowledged {
			s.events[i].Acknowledged = true
			n++
		}
	}
	return n, nil
}
