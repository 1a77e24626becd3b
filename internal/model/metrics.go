package model

// UsageMetrics is one immutable snapshot of project usage, produced by the
// billing/metrics collaborator once per evaluation cycle. Storage and
// bandwidth are raw byte counts; everything else is a plain count.
type UsageMetrics struct {
	Cost                float64 `json:"cost"`
	Storage             float64 `json:"storage"`
	Bandwidth           float64 `json:"bandwidth"`
	MAU                 float64 `json:"mau"`
	Connections         float64 `json:"connections"`
	FunctionInvocations float64 `json:"functionInvocations"`
}

const bytesPerGB = 1 << 30

// Resolve returns the scalar for the given metric, converting byte-valued
// metrics to gigabytes so they compare against thresholds in display units.
func (m UsageMetrics) Resolve(metric Metric) (float64, bool) {
	switch metric {
	case MetricCost:
		return m.Cost, true
	case MetricStorage:
		return m.Storage / bytesPerGB, true
	case MetricBandwidth:
		return m.Bandwidth / bytesPerGB, true
	case MetricMAU:
		return m.MAU, true
	case MetricConnections:
		return m.Connections, true
	case MetricFunctions:
		return m.FunctionInvocations, true
	}
	return 0, false
}

// Env returns the snapshot as an expression environment for threshold
// conditions. Byte-valued metrics are exposed in gigabytes.
func (m UsageMetrics) Env() map[string]any {
	storage, _ := m.Resolve(MetricStorage)
	bandwidth, _ := m.Resolve(MetricBandwidth)
	return map[string]any{
		"cost":        m.Cost,
		"storage":     storage,
		"bandwidth":   bandwidth,
		"mau":         m.MAU,
		"connections": m.Connections,
		"functions":   m.FunctionInvocations,
	}
}
