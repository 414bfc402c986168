package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/httpclient"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNoProvider        = errors.New("no mail provider available")
)

// Provider é um backend de envio. IsAvailable deixa a cadeia conter
// provedores que dependem de configuração sem checar isso a cada envio.
type Provider interface {
	Sender
	IsAvailable() bool
}

// Failover tenta os provedores a partir do último que funcionou. Pula os
// indisponíveis e só avança no rate limit; erro permanente sobe direto,
// o e-mail seria recusado em qualquer provedor.
type Failover struct {
	mu        sync.Mutex
	providers []Provider
	preferred int
}

func NewFailover(providers ...Provider) *Failover {
	return &Failover{providers: providers}
}

func (f *Failover) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lastErr error
	for i := range f.providers {
		idx := (f.preferred + i) % len(f.providers)
		p := f.providers[idx]
		if !p.IsAvailable() {
			continue
		}

		err := p.Send(ctx, to, subject, body)
		if err == nil {
			f.preferred = idx
			return nil
		}
		if !isRateLimited(err) {
			return err
		}
		lastErr = err
	}

	if lastErr != nil {
		return lastErr
	}
	return ErrNoProvider
}

func isRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimitExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "429")
}

// SMTPProvider fala com o relay configurado via net/smtp. É o provedor
// default; no dev costuma apontar para um mailpit local.
type SMTPProvider struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPProvider(cfg *config.Config) *SMTPProvider {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return &SMTPProvider{
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		auth: auth,
		from: cfg.SMTPFrom,
	}
}

func (s *SMTPProvider) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String()))
}

func (s *SMTPProvider) IsAvailable() bool { return true }

// ResendProvider envia pela API HTTP do Resend, como fallback do SMTP.
type ResendProvider struct {
	apiKey  string
	from    string
	baseURL string
	client  *httpclient.Client
}

func NewResendProvider(apiKey, from string) *ResendProvider {
	return &ResendProvider{
		apiKey:  apiKey,
		from:    from,
		baseURL: "https://api.resend.com",
		client: httpclient.New(httpclient.Config{
			Name:         "resend",
			Timeout:      30 * time.Second,
			MaxRetries:   2,
			RetryWaitMin: time.Second,
			RetryWaitMax: 10 * time.Second,
		}, httpclient.WithAuth(func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+apiKey)
		})),
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (r *ResendProvider) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(resendPayload{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	case resp.StatusCode >= 400:
		var apiErr struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("resend: %s (%s)", apiErr.Message, apiErr.Name)
		}
		return fmt.Errorf("resend: unexpected status %d", resp.StatusCode)
	}

	return nil
}

func (r *ResendProvider) IsAvailable() bool { return r.apiKey != "" }
