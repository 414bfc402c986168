package mailer

import (
	"context"
	"errors"
	"sync"

	"github.com/PauloHFS/gothpress/internal/config"
)

var ErrSimulatedFailure = errors.New("simulated failure")

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// New monta a cadeia de envio: SMTP sempre, Resend como fallback quando
// há API key configurada.
func New(cfg *config.Config) Sender {
	smtp := NewSMTPProvider(cfg)
	if cfg.ResendAPIKey == "" {
		return smtp
	}
	return NewFailover(smtp, NewResendProvider(cfg.ResendAPIKey, "GOTHPress <"+cfg.SMTPFrom+">"))
}

// MockMailer acumula envios em memória para testes e para o modo dev sem
// SMTP. Send é seguro para chamadas concorrentes.
type MockMailer struct {
	mu        sync.Mutex
	emails    []Email
	ShouldErr bool
}

func NewMock() *MockMailer { return &MockMailer{} }

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldErr {
		return ErrSimulatedFailure
	}
	m.emails = append(m.emails, Email{To: to, Subject: subject, Body: body})
	return nil
}

func (m *MockMailer) GetEmailCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.emails)
}

// GetLastEmail devolve uma cópia; o slice interno segue crescendo em
// outras goroutines.
func (m *MockMailer) GetLastEmail() *Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.emails); n > 0 {
		e := m.emails[n-1]
		return &e
	}
	return nil
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails, m.ShouldErr = nil, false
}
