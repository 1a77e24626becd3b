package model

import "testing"

func TestResolveConvertsBytes(t *testing.T) {
	m := UsageMetrics{Storage: 7 * (1 << 30), Bandwidth: 1 << 30, Cost: 12.5}

	v, ok := m.Resolve(MetricStorage)
	if !ok || v != 7 {
		t.Fatalf("storage: %g, ok=%v", v, ok)
	}
	v, ok = m.Resolve(MetricBandwidth)
	if !ok || v != 1 {
		t.Fatalf("bandwidth: %g, ok=%v", v, ok)
	}
	v, ok = m.Resolve(MetricCost)
	if !ok || v != 12.5 {
		t.Fatalf("cost: %g, ok=%v", v, ok)
	}
	if _, ok := m.Resolve(Metric("latency")); ok {
		t.Fatal("unknown metric must not resolve")
	}
}

func TestSeverityForName(t *testing.T) {
	cases := []struct {
		name string
		want Severity
	}{
		{"Cost Critical", SeverityCritical},
		{"Storage Critical (95%)", SeverityCritical},
		{"Bandwidth Warning (80%)", SeverityWarning},
		{"critical usage", SeverityCritical},
		{"Plain threshold", SeverityInfo},
	}
	for _, c := range cases {
		if got := SeverityForName(c.name); got != c.want {
			t.Errorf("SeverityForName(%q) = %s, want %s", c.name, got, c.want)
		}
	}
}
