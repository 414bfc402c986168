package llm

import (
	"net/http"
	"strings"
	"time"
)

// URLOpenAI é o endpoint default. Qualquer API compatível (OpenRouter,
// Ollama em modo openai) entra via WithBaseURL.
const URLOpenAI = "https://api.openai.com"

// ClientOption configura o NewClient. Valor inválido é erro na
// construção, não na primeira chamada.
type ClientOption func(*Client) error

// WithBaseURL troca o endpoint. A barra final é descartada; os paths da
// API já começam com uma.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) error {
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if url == "" {
			return ErrInvalidBaseURL
		}
		c.baseURL = url
		return nil
	}
}

// WithAPIKey define a credencial Bearer. Chave vazia é erro; provedores
// locais simplesmente não passam a opção.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) error {
		key = strings.TrimSpace(key)
		if key == "" {
			return ErrNoAPIKey
		}
		c.apiKey = key
		return nil
	}
}

func WithModel(model string) ClientOption {
	return func(c *Client) error {
		c.model = strings.TrimSpace(model)
		return nil
	}
}

// WithHTTPClient injeta um client pronto (proxy, transport de teste).
// nil mantém o default construído com o timeout configurado.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) error {
		if client != nil {
			c.httpClient = client
		}
		return nil
	}
}

// WithTimeout vale para o client default e é ignorado quando
// WithHTTPClient trouxe um pronto. Valores não positivos mantêm o
// default.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout > 0 {
			c.timeout = timeout
		}
		return nil
	}
}

func WithMaxRetries(retries int) ClientOption {
	return func(c *Client) error {
		c.maxRetries = max(retries, 0)
		return nil
	}
}

// WithRetryWaitRange limita a espera do backoff entre tentativas.
// Limites invertidos são corrigidos em vez de rejeitados.
func WithRetryWaitRange(lo, hi time.Duration) ClientOption {
	return func(c *Client) error {
		if lo <= 0 {
			lo = 500 * time.Millisecond
		}
		if hi <= 0 {
			hi = 30 * time.Second
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		c.retryWaitMin = lo
		c.retryWaitMax = hi
		return nil
	}
}
