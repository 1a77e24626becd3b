package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"landsmon/internal/config"
	"landsmon/internal/model"
)

// Source supplies one usage snapshot per evaluation cycle.
type Source interface {
	Fetch(ctx context.Context) (model.UsageMetrics, error)
}

// HTTPSource polls the hosted project's management/billing API.
type HTTPSource struct {
	baseURL    string
	projectRef string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPSource(cfg config.MetricsConfig) *HTTPSource {
	return &HTTPSource{
		baseURL:    cfg.BaseURL,
		projectRef: cfg.ProjectRef,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// usageResponse mirrors the management API's daily usage body.
type usageResponse struct {
	TotalEgress     float64 `json:"total_egress"`
	DBSize          float64 `json:"db_size"`
	MonthlyCost     float64 `json:"monthly_cost"`
	MAU             float64 `json:"mau"`
	ActiveConns     float64 `json:"active_connections"`
	FuncInvocations float64 `json:"function_invocations"`
}

// Fetch downloads the current usage snapshot. A missing API key is a
// configuration error surfaced to the caller, never fatal to the process.
func (s *HTTPSource) Fetch(ctx context.Context) (model.UsageMetrics, error) {
	if s.apiKey == "" || s.projectRef == "" {
		return model.UsageMetrics{}, fmt.Errorf("metrics source not configured: missing api key or project ref")
	}

	url := fmt.Sprintf("%s/v1/projects/%s/usage", s.baseURL, s.projectRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.UsageMetrics{}, fmt.Errorf("build usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.UsageMetrics{}, fmt.Errorf("fetch usage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.UsageMetrics{}, fmt.Errorf("fetch usage: HTTP %d", resp.StatusCode)
	}

	var body usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.UsageMetrics{}, fmt.Errorf("decode usage response: %w", err)
	}

	return model.UsageMetrics{
		Cost:                body.MonthlyCost,
		Storage:             body.DBSize,
		Bandwidth:           body.TotalEgress,
		MAU:                 body.MAU,
		Connections:         body.ActiveConns,
		FunctionInvocations: body.FuncInvocations,
	}, nil
}
