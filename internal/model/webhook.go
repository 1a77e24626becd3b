package model

import "time"

// EventWildcard in a channel's event list subscribes it to every event type.
const EventWildcard = "*"

// WebhookConfig is an outbound notification channel definition.
type WebhookConfig struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	Secret     string            `json:"secret,omitempty"`
	Events     []string          `json:"events"`
	IsActive   bool              `json:"isActive"`
	RetryCount int               `json:"retryCount"`
	RetryDelay int               `json:"retryDelay"` // seconds between attempts
	Headers    map[string]string `json:"headers,omitempty"`

	// Format selects the payload formatter ("" = raw envelope).
	Format string `json:"format,omitempty"`

	LastTriggered *time.Time `json:"lastTriggered,omitempty"`
	LastStatus    string     `json:"lastStatus,omitempty"` // success, failed
	CreatedAt     time.Time  `json:"createdAt"`
}

// Subscribed reports whether the channel should receive the given event type.
func (w WebhookConfig) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event || e == EventWildcard {
			return true
		}
	}
	return false
}

// WebhookPayload is the outbound envelope posted to a channel URL.
type WebhookPayload struct {
	Event          string         `json:"event"`
	Timestamp      string         `json:"timestamp"`
	Data           map[string]any `json:"data"`
	Source         string         `json:"source"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// WebhookResult is the outcome of one delivery attempt.
type WebhookResult struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"statusCode,omitempty"`
	ResponseTime int64  `json:"responseTime"` // milliseconds
	Error        string `json:"error,omitempty"`
}

// WebhookLog pairs a payload with its delivery result.
type WebhookLog struct {
	ID          string         `json:"id"`
	ChannelID   string         `json:"channelId"`
	ChannelName string         `json:"channelName"`
	Event       string         `json:"event"`
	Payload     WebhookPayload `json:"payload"`
	Result      WebhookResult  `json:"result"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// WebhookConfigUpdate carries a partial channel update; nil fields are left untouched.
type WebhookConfigUpdate struct {
	Name       *string            `json:"name"`
	URL        *string            `json:"url"`
	Secret     *string            `json:"secret"`
	Events     *[]string          `json:"events"`
	IsActive   *bool              `json:"isActive"`
	RetryCount *int               `json:"retryCount"`
	RetryDelay *int               `json:"retryDelay"`
	Headers    *map[string]string `json:"headers"`
	Format     *string            `json:"format"`
}

// Apply merges the non-nil fields of u into w.
func (u WebhookConfigUpdate) Apply(w *WebhookConfig) {
	if u.Name != nil {
		w.Name = *u.Name
	}
	if u.URL != nil {
		w.URL = *u.URL
	}
	if u.Secret != nil {
		w.Secret = *u.Secret
	}
	if u.Events != nil {
		w.Events = *u.Events
	}
	if u.IsActive != nil {
		w.IsActive = *u.IsActive
	}
	if u.RetryCount != nil {
		w.RetryCount = *u.RetryCount
	}
	if u.RetryDelay != nil {
		w.RetryDelay = *u.RetryDelay
	}
	if u.Headers != nil {
		w.Headers = *u.Headers
	}
	if u.Format != nil {
		w.Format = *u.Format
	}
}
