package alert

import (
	"time"

	"landsmon/internal/model"
)

// DefaultThresholds returns the built-in seed set. The bounds encode 80%/95%
// of the project's plan quotas: 8 GB storage, 250 GB bandwidth, 100k MAU and
// 500 pooled connections.
func DefaultThresholds(now time.Time) []model.Threshold {
	mk := func(id, name string, metric model.Metric, value float64, unit string) model.Threshold {
		return model.Threshold{
			ID:              id,
			Name:            name,
			Metric:          metric,
			Operator:        model.OpGreaterThan,
			Value:           value,
			Unit:            unit,
			Enabled:         true,
			NotifyDashboard: true,
			CreatedAt:       now,
		}
	}
	return []model.Threshold{
		mk("cost-warning", "Cost Warning", model.MetricCost, 30, "USD"),
		mk("cost-critical", "Cost Critical", model.MetricCost, 50, "USD"),
		mk("storage-80", "Storage Warning (80%)", model.MetricStorage, 6.4, "GB"),
		mk("storage-95", "Storage Critical (95%)", model.MetricStorage, 7.6, "GB"),
		mk("bandwidth-warning", "Bandwidth Warning (80%)", model.MetricBandwidth, 200, "GB"),
		mk("mau-warning", "MAU Warning (80%)", model.MetricMAU, 80000, "users"),
		mk("connections-warning", "Connections Warning (80%)", model.MetricConnections, 400, "connections"),
	}
}
