package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoAPIKey       = errors.New("API key is required")
	ErrInvalidBaseURL = errors.New("invalid base URL")
	ErrNilContext     = errors.New("context cannot be nil")
)

// APIError é qualquer resposta não-2xx do provedor. A classe do erro sai do
// status; use os predicados Is* em vez de comparar o código na mão.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Param      string
	Code       any
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
}

// RateLimitError é o único 4xx com tipo próprio: o worker lê o RetryAfter
// para reagendar o job em vez de queimar uma tentativa no backoff padrão.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s: %s", e.RetryAfter, e.Message)
	}
	return "rate limited: " + e.Message
}

type apiErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Param   string `json:"param"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// parseAPIError monta o erro tipado de uma resposta de falha. Corpos que não
// são o envelope {"error": ...} viram a mensagem como vieram. Para 429 o
// retry-after sai do header quando presente, senão do corpo.
func parseAPIError(statusCode int, retryAfterHeader string, body []byte) error {
	apiErr := APIError{StatusCode: statusCode, Message: string(body)}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Param = envelope.Error.Param
		apiErr.Code = envelope.Error.Code
	}

	if statusCode != http.StatusTooManyRequests {
		return &apiErr
	}

	retryAfter := parseRetryAfterHeader(retryAfterHeader)
	if retryAfter == 0 {
		retryAfter = parseRetryAfterBody(string(body))
	}
	return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter}
}

// parseRetryAfterHeader aceita os dois formatos do header: segundos ou data
// HTTP.
func parseRetryAfterHeader(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// parseRetryAfterBody procura um retry-after embutido na mensagem de erro,
// que alguns provedores mandam em vez do header. Trata o valor como
// segundos; acima de um dia é ignorado.
func parseRetryAfterBody(body string) time.Duration {
	_, rest, ok := strings.Cut(strings.ToLower(body), "retry-after")
	if !ok {
		return 0
	}
	fields := strings.Fields(strings.TrimLeft(strings.TrimSpace(rest), ":= "))
	if len(fields) == 0 {
		return 0
	}
	tok := strings.Trim(fields[0], `",}`)
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n <= 0 || n > 86400 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func IsRateLimitError(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsAuthError cobre chave inválida (401) e chave sem permissão (403); os
// dois encerram o job, repetir não ajuda.
func IsAuthError(err error) bool {
	return hasStatus(err, http.StatusUnauthorized, http.StatusForbidden)
}

func IsTimeoutError(err error) bool {
	return hasStatus(err, http.StatusRequestTimeout, http.StatusGatewayTimeout)
}

func hasStatus(err error, codes ...int) bool {
	var api *APIError
	return errors.As(err, &api) && slices.Contains(codes, api.StatusCode)
}

// IsRetryableError diz se vale reapresentar a mesma chamada: throttling,
// timeout e 5xx passam; erro de chave ou de request é permanente.
func IsRetryableError(err error) bool {
	if IsRateLimitError(err) || IsTimeoutError(err) {
		return true
	}
	var api *APIError
	return errors.As(err, &api) && api.StatusCode >= 500
}
