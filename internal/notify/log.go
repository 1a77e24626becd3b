package notify

import (
	"context"
	"sync"

	"landsmon/internal/model"
)

// DefaultLogSize caps the webhook delivery log.
const DefaultLogSize = 100

// LogStore keeps the bounded, most-recent-first webhook delivery log. Entries
// are append-only; the oldest are dropped on overflow.
type LogStore interface {
	Insert(ctx context.Context, entry model.WebhookLog) error
	List(ctx context.Context) ([]model.WebhookLog, error)
}

type memoryLogStore struct {
	mu      sync.RWMutex
	entries []model.WebhookLog // most recent first
	cap     int
}

// NewMemoryLogStore returns a LogStore that keeps at most size entries.
func NewMemoryLogStore(size int) LogStore {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &memoryLogStore{cap: size}
}

func (s *memoryLogStore) Insert(ctx context.Context, entry model.WebhookLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]model.WebhookLog{entry}, s.entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[:s.cap]
	}
	return nil
}

func (s *memoryLogStore) List(ctx context.Context) ([]model.WebhookLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.WebhookLog, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
