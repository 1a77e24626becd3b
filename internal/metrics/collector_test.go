package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"landsmon/internal/alert"
	"landsmon/internal/config"
	"landsmon/internal/model"
	"landsmon/internal/notify"
)

type stubSource struct {
	metrics model.UsageMetrics
}

func (s stubSource) Fetch(ctx context.Context) (model.UsageMetrics, error) {
	return s.metrics, nil
}

func TestCycleEvaluatesAndDispatches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := alert.NewRegistry(alert.NewMemoryThresholdStore())
	if err := registry.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	evaluator := alert.NewEvaluator(registry, alert.NewMemoryEventStore(alert.DefaultHistorySize), 0)

	chStore := notify.NewMemoryChannelStore()
	channels := notify.NewChannels(chStore)
	if _, err := channels.Create(context.Background(), model.WebhookConfig{URL: srv.URL, IsActive: true}); err != nil {
		t.Fatalf("create channel: %v", err)
	}
	dispatcher := notify.NewDispatcher(notify.NewMemoryLogStore(notify.DefaultLogSize), chStore, "test", time.Second)

	c := NewCollector(stubSource{metrics: model.UsageMetrics{Cost: 35}}, registry, evaluator, dispatcher, channels, 0)
	c.Cycle(context.Background())

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	history, err := evaluator.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 event recorded, got %d", len(history))
	}
}

func TestCycleHonorsNotifyEmail(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	registry := alert.NewRegistry(alert.NewMemoryThresholdStore())
	if err := registry.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	evaluator := alert.NewEvaluator(registry, alert.NewMemoryEventStore(alert.DefaultHistorySize), 0)

	chStore := notify.NewMemoryChannelStore()
	channels := notify.NewChannels(chStore)
	if _, err := channels.Create(ctx, model.WebhookConfig{URL: srv.URL, IsActive: true, Format: "email"}); err != nil {
		t.Fatalf("create channel: %v", err)
	}
	dispatcher := notify.NewDispatcher(notify.NewMemoryLogStore(notify.DefaultLogSize), chStore, "test", time.Second)
	c := NewCollector(stubSource{metrics: model.UsageMetrics{Cost: 35}}, registry, evaluator, dispatcher, channels, 0)

	// Seed thresholds leave notifyEmail off: the email channel stays quiet.
	c.Cycle(ctx)
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("expected no email delivery, got %d", n)
	}

	on := true
	if _, err := registry.Update(ctx, "cost-warning", model.ThresholdUpdate{NotifyEmail: &on}); err != nil {
		t.Fatalf("update: %v", err)
	}
	c.Cycle(ctx)
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 email delivery after opt-in, got %d", n)
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/abc123/usage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"monthly_cost":         42.5,
			"db_size":              float64(7 * (1 << 30)),
			"total_egress":         float64(1 << 30),
			"mau":                  1200,
			"active_connections":   17,
			"function_invocations": 99,
		})
	}))
	defer srv.Close()

	src := NewHTTPSource(config.MetricsConfig{BaseURL: srv.URL, ProjectRef: "abc123", APIKey: "key"})
	m, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if m.Cost != 42.5 || m.Storage != 7*(1<<30) || m.MAU != 1200 {
		t.Fatalf("snapshot mismatch: %+v", m)
	}
}

func TestHTTPSourceUnconfigured(t *testing.T) {
	src := NewHTTPSource(config.MetricsConfig{BaseURL: "https://api.example.com"})
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected configuration error")
	}
}
