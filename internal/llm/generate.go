package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Generate faz uma chamada síncrona de chat/completions. O modelo do request
// prevalece sobre o default do client.
func (c *Client) Generate(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	if req.Model == "" {
		req.Model = c.model
	}
	if req.Model == "" {
		return nil, &APIError{Message: "model is required"}
	}

	resp, err := c.doWithRetry(ctx, "/v1/chat/completions", req)
	if err != nil {
		return nil, err
	}
	return decodeCompletion(resp)
}

// decodeCompletion consome e fecha o corpo. Fora de 200 o payload vira um
// erro tipado; o corpo de erro é lido com teto de 64KiB.
func decodeCompletion(resp *http.Response) (*CompletionResponse, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err != nil {
			return nil, fmt.Errorf("failed to read error response: %w", err)
		}
		return nil, parseAPIError(resp.StatusCode, resp.Header.Get("Retry-After"), body)
	}

	var completion CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &completion, nil
}
