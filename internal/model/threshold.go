package model

import "time"

// Metric identifies one of the usage dimensions a threshold can watch.
type Metric string

const (
	MetricCost        Metric = "cost"
	MetricStorage     Metric = "storage"
	MetricBandwidth   Metric = "bandwidth"
	MetricMAU         Metric = "mau"
	MetricConnections Metric = "connections"
	MetricFunctions   Metric = "functions"
)

// Operator is the comparison applied between a resolved metric value and the bound.
type Operator string

const (
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpEqual        Operator = "eq"
)

// ValidMetric reports whether m is a member of the closed metric set.
func ValidMetric(m Metric) bool {
	switch m {
	case MetricCost, MetricStorage, MetricBandwidth, MetricMAU, MetricConnections, MetricFunctions:
		return true
	}
	return false
}

// ValidOperator reports whether op is a member of the closed operator set.
func ValidOperator(op Operator) bool {
	switch op {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual, OpEqual:
		return true
	}
	return false
}

// Threshold is a named rule comparing a metric to a numeric bound.
type Threshold struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Metric          Metric   `json:"metric"`
	Operator        Operator `json:"operator"`
	Value           float64  `json:"value"`
	Unit            string   `json:"unit"`
	Enabled         bool     `json:"enabled"`
	NotifyEmail     bool     `json:"notifyEmail"`
	NotifyDashboard bool     `json:"notifyDashboard"`

	// Condition is an optional expression evaluated against the metrics
	// snapshot; empty means the operator comparison alone decides.
	Condition string `json:"condition,omitempty"`

	CreatedAt     time.Time  `json:"createdAt"`
	LastTriggered *time.Time `json:"lastTriggered,omitempty"`
}

// ThresholdUpdate carries a partial update; nil fields are left untouched.
type ThresholdUpdate struct {
	Name            *string   `json:"name"`
	Metric          *Metric   `json:"metric"`
	Operator        *Operator `json:"operator"`
	Value           *float64  `json:"value"`
	Unit            *string   `json:"unit"`
	Enabled         *bool     `json:"enabled"`
	NotifyEmail     *bool     `json:"notifyEmail"`
	NotifyDashboard *bool     `json:"notifyDashboard"`
	Condition       *string   `json:"condition"`
}

// Apply merges the non-nil fields of u into t.
func (u ThresholdUpdate) Apply(t *Threshold) {
	if u.Name != nil {
		t.Name = *u.Name
	}
	if u.Metric != nil {
		t.Metric = *u.Metric
	}
	if u.Operator != nil {
		t.Operator = *u.Operator
	}
	if u.Value != nil {
		t.Value = *u.Value
	}
	if u.Unit != nil {
		t.Unit = *u.Unit
	}
	if u.Enabled != nil {
		t.Enabled = *u.Enabled
	}
	if u.NotifyEmail != nil {
		t.NotifyEmail = *u.NotifyEmail
	}
	if u.NotifyDashboard != nil {
		t.NotifyDashboard = *u.NotifyDashboard
	}
	if u.Condition != nil {
		t.Condition = *u.Condition
	}
}
