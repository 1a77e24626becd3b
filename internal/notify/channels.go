package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"landsmon/internal/model"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidChannel  = errors.New("invalid channel")
)

// ChannelStore persists webhook channel configurations.
type ChannelStore interface {
	List(ctx context.Context) ([]model.WebhookConfig, error)
	Get(ctx context.Context, id string) (model.WebhookConfig, error)
	Insert(ctx context.Context, ch model.WebhookConfig) error
	Update(ctx context.Context, ch model.WebhookConfig) error
	Delete(ctx context.Context, id string) (bool, error)

	// RecordResult stamps lastTriggered/lastStatus after a delivery cycle.
	RecordResult(ctx context.Context, id string, at time.Time, status string) error
}

// Channels wraps a ChannelStore with create/update semantics.
type Channels struct {
	mu    sync.Mutex
	store ChannelStore
}

func NewChannels(store ChannelStore) *Channels {
	return &Channels{store: store}
}

func (c *Channels) List(ctx context.Context) ([]model.WebhookConfig, error) {
	return c.store.List(ctx)
}

func (c *Channels) Get(ctx context.Context, id string) (model.WebhookConfig, error) {
	return c.store.Get(ctx, id)
}

// Create assigns an id and creation timestamp and stores the channel. A
// channel without a URL is rejected up front so a misconfigured record never
// reaches the dispatcher.
func (c *Channels) Create(ctx context.Context, ch model.WebhookConfig) (model.WebhookConfig, error) {
	if ch.URL == "" {
		return model.WebhookConfig{}, fmt.Errorf("%w: URL is required", ErrInvalidChannel)
	}
	if len(ch.Events) == 0 {
		ch.Events = []string{model.EventWildcard}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ch.ID = uuid.New().String()
	ch.CreatedAt = time.Now().UTC()
	ch.LastTriggered = nil
	ch.LastStatus = ""
	if err := c.store.Insert(ctx, ch); err != nil {
		return model.WebhookConfig{}, fmt.Errorf("create channel: %w", err)
	}
	return ch, nil
}

func (c *Channels) Update(ctx context.Context, id string, upd model.WebhookConfigUpdate) (model.WebhookConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.store.Get(ctx, id)
	if err != nil {
		return model.WebhookConfig{}, err
	}
	upd.Apply(&ch)
	if ch.URL == "" {
		return model.WebhookConfig{}, fmt.Errorf("%w: URL is required", ErrInvalidChannel)
	}
	if err := c.store.Update(ctx, ch); err != nil {
		return model.WebhookConfig{}, fmt.Errorf("update channel %s: %w", id, err)
	}
	return ch, nil
}

func (c *Channels) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Delete(ctx, id)
}

// WithoutEmailChannels returns chs minus the email-format channels. Alerts
// whose threshold has notifyEmail disabled dispatch through this subset.
func WithoutEmailChannels(chs []model.WebhookConfig) []model.WebhookConfig {
	out := make([]model.WebhookConfig, 0, len(chs))
	for _, ch := range chs {
		if ch.Format == "email" {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// --- in-memory implementation ---

type memoryChannelStore struct {
	mu       sync.RWMutex
	channels []model.WebhookConfig
}

// NewMemoryChannelStore returns a ChannelStore backed by process memory.
func NewMemoryChannelStore() ChannelStore {
	return &memoryChannelStore{}
}

func (s *memoryChannelStore) List(ctx context.Context) ([]model.WebhookConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.WebhookConfig, len(s.channels))
	copy(out, s.channels)
	return out, nil
}

func (s *memoryChannelStore) Get(ctx context.Context, id string) (model.WebhookConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return model.WebhookConfig{}, ErrChannelNotFound
}

func (s *memoryChannelStore) Insert(ctx context.Context, ch model.WebhookConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append(s.channels, ch)
	return nil
}

func (s *memoryChannelStore) Update(ctx context.Context, ch model.WebhookConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == ch.ID {
			s.channels[i] = ch
			return nil
		}
	}
	return ErrChannelNotFound
}

func (s *memoryChannelStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryChannelStore) RecordResult(ctx context.Context, id string, at time.Time, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			t := at
			s.channels[i].LastTriggered = &t
			s.channels[i].LastStatus = status
			return nil
		}
	}
	return ErrChannelNotFound
}
