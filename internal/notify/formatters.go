package notify

import "fmt"

// Formatter shapes the outbound body for a specific provider. Formatters are
// pure functions so new providers can be added without touching the retry or
// logging logic.
type Formatter func(event string, data map[string]any) map[string]any

// FormatterFor returns the formatter registered under name, or nil for the
// raw envelope.
func FormatterFor(name string) Formatter {
	switch name {
	case "slack":
		return SlackFormatter
	case "pagerduty":
		return PagerDutyFormatter
	case "email":
		return EmailFormatter
	}
	return nil
}

// severityColors follow the dashboard palette.
var severityColors = map[string]string{
	"critical": "#dc3545",
	"warning":  "#ffc107",
	"info":     "#36a64f",
}

// SlackFormatter renders a chat-ops message with a colored attachment.
func SlackFormatter(event string, data map[string]any) map[string]any {
	severity := stringField(data, "severity")
	color, ok := severityColors[severity]
	if !ok {
		color = severityColors["info"]
	}

	text := stringField(data, "message")
	if text == "" {
		text = event
	}

	fields := []map[string]any{}
	if m := stringField(data, "metric"); m != "" {
		fields = append(fields, map[string]any{"title": "Metric", "value": m, "short": true})
	}
	if v, ok := data["currentValue"]; ok {
		fields = append(fields, map[string]any{"title": "Current", "value": fmt.Sprintf("%v", v), "short": true})
	}
	if v, ok := data["thresholdValue"]; ok {
		fields = append(fields, map[string]any{"title": "Threshold", "value": fmt.Sprintf("%v", v), "short": true})
	}

	return map[string]any{
		"text": text,
		"attachments": []map[string]any{
			{
				"color":  color,
				"title":  event,
				"text":   text,
				"fields": fields,
			},
		},
	}
}

// PagerDutyFormatter renders an Events API v2 trigger body.
func PagerDutyFormatter(event string, data map[string]any) map[string]any {
	severity := stringField(data, "severity")
	if severity == "" {
		severity = "info"
	}
	summary := stringField(data, "message")
	if summary == "" {
		summary = event
	}

	return map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":        summary,
			"severity":       severity,
			"source":         stringField(data, "source"),
			"custom_details": data,
		},
	}
}

// EmailFormatter renders a mail-gateway body. Email channels are webhook
// channels pointing at an SMTP relay endpoint; thresholds opt in per record
// via their notifyEmail flag.
func EmailFormatter(event string, data map[string]any) map[string]any {
	severity := stringField(data, "severity")
	if severity == "" {
		severity = "info"
	}
	subject := stringField(data, "thresholdName")
	if subject == "" {
		subject = event
	}
	body := stringField(data, "message")
	if body == "" {
		body = event
	}

	return map[string]any{
		"subject":  fmt.Sprintf("[%s] %s", severity, subject),
		"text":     body,
		"severity": severity,
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
