package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// LLMClient é o que o worker enxerga: uma chamada síncrona de completion.
type LLMClient interface {
	Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

type Client struct {
	baseURL      string
	apiKey       string
	model        string
	httpClient   *http.Client
	timeout      time.Duration
	maxRetries   int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:      URLOpenAI,
		timeout:      60 * time.Second,
		maxRetries:   3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return req, nil
}

// doWithRetry repete falhas de transporte e respostas 5xx com backoff
// exponencial. 429 não é repetido aqui: throttling é problema da fila de
// jobs, que respeita o retry-after do provedor.
func (c *Client) doWithRetry(ctx context.Context, path string, body any) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryWait(attempt - 1)):
			}
		}

		req, err := c.newRequest(ctx, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = &APIError{StatusCode: resp.StatusCode, Message: "max retries exceeded"}
	}

	return nil, lastErr
}

func (c *Client) retryWait(attempt int) time.Duration {
	wait := c.retryWaitMin * time.Duration(1<<attempt)
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}

	jitter := float64(wait) * 0.1
	return wait + time.Duration((rand.Float64()*2-1)*jitter)
}
