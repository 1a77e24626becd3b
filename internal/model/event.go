package model

import (
	"strings"
	"time"
)

// Severity is the qualitative level of a breach.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityForName derives a severity from a threshold name. Names containing
// "critical" map to critical, "warning" to warning, everything else to info.
func SeverityForName(name string) Severity {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "critical"):
		return SeverityCritical
	case strings.Contains(lower, "warning"):
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// AlertEvent records one threshold breach at one point in time.
type AlertEvent struct {
	ID             string    `json:"id"`
	ThresholdID    string    `json:"thresholdId"`
	ThresholdName  string    `json:"thresholdName"`
	Metric         Metric    `json:"metric"`
	CurrentValue   float64   `json:"currentValue"`
	ThresholdValue float64   `json:"thresholdValue"`
	Message        string    `json:"message"`
	Severity       Severity  `json:"severity"`
	TriggeredAt    time.Time `json:"triggeredAt"`
	Acknowledged   bool      `json:"acknowledged"`
}

// AlertSummary aggregates current registry and history state for the dashboard.
type AlertSummary struct {
	TotalThresholds      int        `json:"totalThresholds"`
	EnabledThresholds    int        `json:"enabledThresholds"`
	TotalAlerts          int        `json:"totalAlerts"`
	UnacknowledgedAlerts int        `json:"unacknowledgedAlerts"`
	CriticalAlerts       int        `json:"criticalAlerts"`
	WarningAlerts        int        `json:"warningAlerts"`
	LastAlertTime        *time.Time `json:"lastAlertTime,omitempty"`
}
