package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"landsmon/internal/model"
)

const userAgent = "landsmon-webhook/1.0"

// SignatureHeader carries the HMAC-SHA256 of the request body when the
// channel has a secret. The "sha256=<hex>" value format is relied upon by
// existing consumers and must not change.
const SignatureHeader = "X-Webhook-Signature"

// Dispatcher delivers formatted payloads to webhook channels with bounded
// retries. Every attempt, success or failure, lands in the delivery log.
type Dispatcher struct {
	httpClient *http.Client
	logs       LogStore
	channels   ChannelStore // optional; stamps lastTriggered/lastStatus
	source     string
}

func NewDispatcher(logs LogStore, channels ChannelStore, source string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		httpClient: &http.Client{Timeout: timeout},
		logs:       logs,
		channels:   channels,
		source:     source,
	}
}

// Send performs a single delivery attempt to the channel. Failures are
// returned as data, never as an error: transport problems and non-2xx
// responses both come back as an unsuccessful result.
func (d *Dispatcher) Send(ctx context.Context, ch model.WebhookConfig, event string, data map[string]any) model.WebhookResult {
	payload := model.WebhookPayload{
		Event:          event,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Data:           data,
		Source:         d.source,
		IdempotencyKey: "wh_" + uuid.New().String(),
	}

	var body []byte
	var err error
	if f := FormatterFor(ch.Format); f != nil {
		body, err = json.Marshal(f(event, data))
	} else {
		body, err = json.Marshal(payload)
	}
	if err != nil {
		result := model.WebhookResult{Error: fmt.Sprintf("marshal payload: %v", err)}
		d.logAttempt(ctx, ch, payload, result)
		return result
	}

	start := time.Now()
	result := d.post(ctx, ch, body)
	result.ResponseTime = time.Since(start).Milliseconds()

	d.logAttempt(ctx, ch, payload, result)
	return result
}

func (d *Dispatcher) post(ctx context.Context, ch model.WebhookConfig, body []byte) model.WebhookResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ch.URL, bytes.NewReader(body))
	if err != nil {
		return model.WebhookResult{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range ch.Headers {
		if k != "" {
			req.Header.Set(k, v)
		}
	}
	if ch.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+sign(ch.Secret, body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return model.WebhookResult{Error: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return model.WebhookResult{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (d *Dispatcher) logAttempt(ctx context.Context, ch model.WebhookConfig, payload model.WebhookPayload, result model.WebhookResult) {
	entry := model.WebhookLog{
		ID:          uuid.New().String(),
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Event:       payload.Event,
		Payload:     payload,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}
	if err := d.logs.Insert(ctx, entry); err != nil {
		log.Printf("ERROR: record webhook log for %s: %v", ch.ID, err)
	}
}

// SendWithRetry attempts Send up to retryCount+1 times, waiting retryDelay
// seconds between attempts and stopping on the first success. The last
// attempt's result is returned; intermediate failures stay in the log.
// Cancelling the context aborts the sequence between attempts.
func (d *Dispatcher) SendWithRetry(ctx context.Context, ch model.WebhookConfig, event string, data map[string]any) model.WebhookResult {
	attempts := ch.RetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(ch.RetryDelay) * time.Second

	var result model.WebhookResult
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(delay):
			}
		}
		result = d.Send(ctx, ch, event, data)
		if result.Success {
			break
		}
	}
	return result
}

// TriggerChannels fans the event out to every active channel subscribed to
// it, concurrently, and returns the per-channel results. Channels failing
// the filter are untouched: no attempt, no log entry.
func (d *Dispatcher) TriggerChannels(ctx context.Context, event string, data map[string]any, channels []model.WebhookConfig) map[string]model.WebhookResult {
	results := make(map[string]model.WebhookResult)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, ch := range channels {
		if !ch.IsActive || !ch.Subscribed(event) {
			continue
		}
		wg.Add(1)
		go func(ch model.WebhookConfig) {
			defer wg.Done()
			result := d.SendWithRetry(ctx, ch, event, data)

			mu.Lock()
			results[ch.ID] = result
			mu.Unlock()

			if d.channels != nil {
				status := "failed"
				if result.Success {
					status = "success"
				}
				if err := d.channels.RecordResult(ctx, ch.ID, time.Now().UTC(), status); err != nil {
					log.Printf("ERROR: record delivery status for channel %s: %v", ch.ID, err)
				}
			}
		}(ch)
	}

	wg.Wait()
	return results
}

// Logs returns the delivery log, most recent first.
func (d *Dispatcher) Logs(ctx context.Context) ([]model.WebhookLog, error) {
	return d.logs.List(ctx)
}
