package llm

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "LLM request duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"model", "status"})

	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"model"})

	llmErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_errors_total",
		Help: "Total number of LLM errors",
	}, []string{"model", "error_type"})

	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Total number of tokens used",
	}, []string{"model", "token_type"})
)

// TracedClient decora um Client com as métricas Prometheus de latência,
// erros e tokens. É o que o worker injeta como LLMClient.
type TracedClient struct {
	client *Client
}

func NewTracedClient(client *Client) *TracedClient {
	return &TracedClient{client: client}
}

func (c *Client) WithMetrics() *TracedClient {
	return NewTracedClient(c)
}

func (t *TracedClient) Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = t.client.model
	}

	llmRequestsTotal.WithLabelValues(model).Inc()

	start := time.Now()
	resp, err := t.client.Generate(ctx, req)
	if err != nil {
		llmRequestDuration.WithLabelValues(model, "error").Observe(time.Since(start).Seconds())
		llmErrorsTotal.WithLabelValues(model, classifyError(err)).Inc()
		return nil, err
	}

	llmRequestDuration.WithLabelValues(model, "success").Observe(time.Since(start).Seconds())
	recordTokens(model, resp.Usage)
	return resp, nil
}

func recordTokens(model string, usage Usage) {
	if usage.PromptTokens > 0 {
		llmTokensTotal.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		llmTokensTotal.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
	}
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsAuthError(err):
		return "auth"
	case IsRateLimitError(err):
		return "rate_limit"
	case IsTimeoutError(err):
		return "timeout"
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return "server_error"
		}
		if apiErr.StatusCode >= 400 {
			return "client_error"
		}
	}

	return "unknown"
}
