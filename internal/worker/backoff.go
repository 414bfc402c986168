package worker

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"
)

type BackoffConfig struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

var DefaultBackoffConfig = BackoffConfig{
	BaseDelay: 100 * time.Millisecond,
	MaxDelay:  30 * time.Second,
}

// FullJitter devolve um delay entre a metade e o total do exponencial da
// tentativa, nunca acima de MaxDelay. O piso de metade evita que vários
// jobs reagendados caiam todos no mesmo tick.
func FullJitter(attempt int, cfg BackoffConfig) time.Duration {
	if attempt <= 0 {
		return cfg.BaseDelay
	}
	// 1<<20 já passa qualquer MaxDelay razoável; acima disso o shift estoura.
	attempt = min(attempt, 20)

	exp := min(cfg.BaseDelay<<attempt, cfg.MaxDelay)
	return exp/2 + time.Duration(rand.Int63n(int64(exp/2)+1))
}

// Padrões de erro transitório vindos como texto dos provedores.
var transientPatterns = []string{
	// HTTP
	"rate limit", "quota", "too many requests",
	"429", "500", "502", "503", "504",
	// Códigos SMTP (serviço indisponível, caixa ocupada, fila cheia)
	"421", "450", "451", "452",
	"temporary_failure", "try_again",
}

// IsRetryableError separa falha transitória (rede, throttling, serviço
// fora) de falha permanente (destinatário inexistente, payload inválido).
// Só as transitórias voltam para a fila.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") {
		return true
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
