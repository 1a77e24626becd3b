package notify

import (
	"time"

	"landsmon/internal/model"
)

// Event types dispatched to channels. Channels subscribe to these literal
// strings or to the wildcard.
const (
	EventAlertTriggered = "alert.triggered"
	EventWebhookTest    = "webhook.test"
	EventBackupStatus   = "backup.status"
	EventSecurity       = "security.event"
)

// AlertEventData flattens an alert event into a dispatch data map consumable
// by the formatters.
func AlertEventData(ev model.AlertEvent) map[string]any {
	return map[string]any{
		"id":             ev.ID,
		"thresholdId":    ev.ThresholdID,
		"thresholdName":  ev.ThresholdName,
		"metric":         string(ev.Metric),
		"currentValue":   ev.CurrentValue,
		"thresholdValue": ev.ThresholdValue,
		"message":        ev.Message,
		"severity":       string(ev.Severity),
		"triggeredAt":    ev.TriggeredAt.Format(time.RFC3339),
	}
}
