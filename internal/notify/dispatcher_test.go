package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"landsmon/internal/model"
)

func newTestDispatcher(channels ChannelStore) *Dispatcher {
	return NewDispatcher(NewMemoryLogStore(DefaultLogSize), channels, "lands-dashboard-monitor", 5*time.Second)
}

func TestSendSuccess(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	ch := model.WebhookConfig{
		ID:     "ch-1",
		Name:   "primary",
		URL:    srv.URL,
		Secret: "s3cret",
		Headers: map[string]string{
			"X-Team": "platform",
		},
	}

	result := d.Send(context.Background(), ch, EventAlertTriggered, map[string]any{"message": "cost breach"})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", result.StatusCode)
	}

	if ct := gotHeader.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: %s", ct)
	}
	if gotHeader.Get("X-Team") != "platform" {
		t.Fatal("custom header not forwarded")
	}

	// Signature is the HMAC-SHA256 of the exact body, hex encoded.
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if sig := gotHeader.Get(SignatureHeader); sig != want {
		t.Fatalf("signature mismatch:\n got %s\nwant %s", sig, want)
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Event != EventAlertTriggered {
		t.Fatalf("event: %s", payload.Event)
	}
	if payload.Source != "lands-dashboard-monitor" {
		t.Fatalf("source: %s", payload.Source)
	}
	if !strings.HasPrefix(payload.IdempotencyKey, "wh_") {
		t.Fatalf("idempotency key: %s", payload.IdempotencyKey)
	}

	logs, err := d.Logs(context.Background())
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}
	if logs[0].ChannelID != "ch-1" || !logs[0].Result.Success {
		t.Fatalf("log entry: %+v", logs[0])
	}
}

func TestSendNoSecretNoSignature(t *testing.T) {
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	d.Send(context.Background(), model.WebhookConfig{ID: "ch-1", URL: srv.URL}, EventWebhookTest, nil)

	if gotHeader.Get(SignatureHeader) != "" {
		t.Fatal("signature must be absent without a secret")
	}
}

func TestSendFailureIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	result := d.Send(context.Background(), model.WebhookConfig{ID: "ch-1", URL: srv.URL}, EventWebhookTest, nil)
	if result.Success {
		t.Fatal("502 must not count as success")
	}
	if result.StatusCode != 502 {
		t.Fatalf("status: %d", result.StatusCode)
	}

	// The failed attempt is logged too.
	logs, _ := d.Logs(context.Background())
	if len(logs) != 1 || logs[0].Result.Success {
		t.Fatalf("expected 1 failed log entry, got %+v", logs)
	}
}

func TestSendWithRetryExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	ch := model.WebhookConfig{ID: "ch-1", URL: srv.URL, RetryCount: 2, RetryDelay: 0}

	result := d.SendWithRetry(context.Background(), ch, EventAlertTriggered, nil)
	if result.Success {
		t.Fatal("expected failure after exhausting retries")
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("expected 3 attempts (retryCount+1), got %d", n)
	}

	logs, _ := d.Logs(context.Background())
	if len(logs) != 3 {
		t.Fatalf("expected every attempt logged, got %d entries", len(logs))
	}
}

func TestSendWithRetryStopsOnSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newTestDispatcher(nil)
	ch := model.WebhookConfig{ID: "ch-1", URL: srv.URL, RetryCount: 5, RetryDelay: 0}

	result := d.SendWithRetry(context.Background(), ch, EventAlertTriggered, nil)
	if !result.Success {
		t.Fatalf("expected eventual success, got %+v", result)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestSendWithRetryContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDispatcher(nil)
	ch := model.WebhookConfig{ID: "ch-1", URL: srv.URL, RetryCount: 5, RetryDelay: 60}

	start := time.Now()
	result := d.SendWithRetry(ctx, ch, EventAlertTriggered, nil)
	if result.Success {
		t.Fatal("expected failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("cancelled context should abort between attempts, took %s", elapsed)
	}
}

func TestTriggerChannelsFanOut(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewMemoryChannelStore()
	d := newTestDispatcher(store)
	channels := NewChannels(store)
	ctx := context.Background()

	subscribed, err := channels.Create(ctx, model.WebhookConfig{URL: srv.URL, Events: []string{EventAlertTriggered}, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inactive, err := channels.Create(ctx, model.WebhookConfig{URL: srv.URL, IsActive: false})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	otherEvent, err := channels.Create(ctx, model.WebhookConfig{URL: srv.URL, Events: []string{EventBackupStatus}, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	all, _ := channels.List(ctx)
	results := d.TriggerChannels(ctx, EventAlertTriggered, map[string]any{"message": "m"}, all)

	if len(results) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(results))
	}
	if _, ok := results[subscribed.ID]; !ok {
		t.Fatal("subscribed channel missing from results")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 request, got %d", n)
	}

	// Filtered channels get no attempt, hence no log entry.
	logs, _ := d.Logs(ctx)
	if len(logs) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(logs))
	}

	// The delivered channel's status is stamped, the others stay untouched.
	got, _ := channels.Get(ctx, subscribed.ID)
	if got.LastStatus != "success" || got.LastTriggered == nil {
		t.Fatalf("expected success stamp, got %+v", got)
	}
	for _, id := range []string{inactive.ID, otherEvent.ID} {
		got, _ := channels.Get(ctx, id)
		if got.LastStatus != "" || got.LastTriggered != nil {
			t.Fatalf("filtered channel %s was stamped: %+v", id, got)
		}
	}
}

func TestWildcardSubscription(t *testing.T) {
	ch := model.WebhookConfig{Events: []string{model.EventWildcard}}
	if !ch.Subscribed(EventAlertTriggered) || !ch.Subscribed(EventSecurity) {
		t.Fatal("wildcard must match every event")
	}
	ch = model.WebhookConfig{Events: []string{EventBackupStatus}}
	if ch.Subscribed(EventAlertTriggered) {
		t.Fatal("unrelated event must not match")
	}
}
