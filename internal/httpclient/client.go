// Package httpclient fornece o http.Client padrão para chamadas
// externas: log estruturado por tentativa e retry com backoff para
// falhas de rede e 5xx.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PauloHFS/gothpress/internal/logging"
)

type Client struct {
	*http.Client
	name string
}

type Config struct {
	Name         string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// New monta o cliente com os transports empilhados de dentro para fora:
// logging por tentativa, retry por cima, e as opções por último.
func New(cfg Config, opts ...func(*Client)) *Client {
	var transport http.RoundTripper = &loggingTransport{
		RoundTripper: http.DefaultTransport,
		name:         cfg.Name,
	}

	if cfg.MaxRetries > 0 {
		transport = &retryTransport{
			RoundTripper: transport,
			maxRetries:   cfg.MaxRetries,
			waitMin:      cfg.RetryWaitMin,
			waitMax:      cfg.RetryWaitMax,
		}
	}

	c := &Client{
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		name: cfg.Name,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loggingTransport struct {
	http.RoundTripper
	name string
}

// RoundTrip loga cada tentativa individual. Quando o retryTransport repete
// o request, cada repetição vira uma linha própria.
func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, event := logging.NewEventContext(r.Context())
	event.Add(
		slog.String("http_client", t.name),
		slog.String("method", r.Method),
		slog.String("url", r.URL.String()),
	)

	resp, err := t.RoundTripper.RoundTrip(r.WithContext(ctx))

	event.Add(slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/1e6))

	if err != nil {
		event.Add(slog.String("error", err.Error()))
		logging.Get().LogAttrs(ctx, slog.LevelError, "http request failed", event.Attrs()...)
		return nil, err
	}

	event.Add(slog.Int("status", resp.StatusCode))

	level := slog.LevelInfo
	if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	logging.Get().LogAttrs(ctx, level, "http request completed", event.Attrs()...)

	return resp, nil
}

// retryTransport repete em erro de rede ou 5xx. Requests com body só
// repetem quando GetBody permite reconstruir o payload.
type retryTransport struct {
	http.RoundTripper
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

func (t *retryTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	var lastErr error
	wait := t.waitMin

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if r.Body != nil {
				if r.GetBody == nil {
					return nil, lastErr
				}
				body, err := r.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				r.Body = body
			}

			select {
			case <-r.Context().Done():
				return nil, r.Context().Err()
			case <-time.After(wait):
			}

			wait *= 2
			if wait > t.waitMax {
				wait = t.waitMax
			}
		}

		resp, err := t.RoundTripper.RoundTrip(r)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 && attempt < t.maxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// WithAuth injeta credenciais em cada request, depois de qualquer retry,
// de forma que a repetição também saia autenticada.
func WithAuth(authFunc func(*http.Request)) func(*Client) {
	return func(c *Client) {
		c.Transport = &authTransport{
			RoundTripper: c.Transport,
			authFunc:     authFunc,
		}
	}
}

type authTransport struct {
	http.RoundTripper
	authFunc func(*http.Request)
}

func (t *authTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.authFunc(r)
	return t.RoundTripper.RoundTrip(r)
}
