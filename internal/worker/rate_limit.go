package worker

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/llm"
)

type JobRateConfig struct {
	Concurrency int
	Rate        rate.Limit
	Burst       int
}

// DefaultJobRateConfigs limita cada tipo de job pelo recurso externo que ele
// consome: e-mails pelo provedor SMTP, moderação e resumo pela API do LLM.
var DefaultJobRateConfigs = map[db.JobType]JobRateConfig{
	db.JobSendVerificationEmail:  {Concurrency: 5, Rate: 2, Burst: 5},
	db.JobSendPasswordResetEmail: {Concurrency: 5, Rate: 2, Burst: 5},
	db.JobModeratePost:           {Concurrency: 3, Rate: 1, Burst: 3},
	db.JobSummarizePost:          {Concurrency: 2, Rate: 1, Burst: 2},
}

// jobGate junta o limitador de vazão e o semáforo de concorrência de um tipo.
type jobGate struct {
	sem     chan struct{}
	limiter *rate.Limiter
}

// JobRateLimiter aplica os limites por tipo de job. Tipos fora da tabela
// caem no gate default. Os gates são montados uma vez e nunca mudam, então
// a leitura dispensa lock.
type JobRateLimiter struct {
	gates map[db.JobType]*jobGate
	def   *jobGate
}

func NewJobRateLimiter() *JobRateLimiter {
	jrl := &JobRateLimiter{
		gates: make(map[db.JobType]*jobGate, len(DefaultJobRateConfigs)),
		def: &jobGate{
			sem:     make(chan struct{}, 5),
			limiter: rate.NewLimiter(1, 5),
		},
	}
	for jobType, cfg := range DefaultJobRateConfigs {
		jrl.gates[jobType] = &jobGate{
			sem:     make(chan struct{}, cfg.Concurrency),
			limiter: rate.NewLimiter(cfg.Rate, cfg.Burst),
		}
	}
	return jrl
}

func (jrl *JobRateLimiter) gate(jobType db.JobType) *jobGate {
	if g, ok := jrl.gates[jobType]; ok {
		return g
	}
	return jrl.def
}

// Acquire espera vaga no limitador de vazão e no semáforo de concorrência.
// Retorna o erro do contexto quando o shutdown chega no meio da espera.
func (jrl *JobRateLimiter) Acquire(ctx context.Context, jobType db.JobType) error {
	g := jrl.gate(jobType)
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release devolve a vaga. Chamadas sem Acquire correspondente não bloqueiam.
func (jrl *JobRateLimiter) Release(jobType db.JobType) {
	select {
	case <-jrl.gate(jobType).sem:
	default:
	}
}

// IsExternalRateLimitError reconhece throttling de provedores externos pelo
// texto do erro. SMTP e APIs de LLM não compartilham um tipo de erro comum.
func IsExternalRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"rate limit", "too many requests", "429", "quota exceeded", "throttl"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// GetRetryAfterDuration extrai o retry-after sugerido pelo provedor: do erro
// tipado do LLM quando houver, senão do texto do erro. Throttling sem
// retry-after vale um minuto.
func GetRetryAfterDuration(err error) time.Duration {
	if err == nil {
		return 0
	}
	var rl *llm.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	msg := strings.ToLower(err.Error())
	if _, rest, ok := strings.Cut(msg, "retry-after"); ok {
		rest = strings.TrimSpace(rest)
		rest = strings.TrimLeft(rest, ":=")
		if secs := parseRetrySeconds(strings.TrimSpace(rest)); secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if IsExternalRateLimitError(err) {
		return time.Minute
	}
	return 0
}

func parseRetrySeconds(s string) int {
	s, _, _ = strings.Cut(s, " ")
	s, _, _ = strings.Cut(s, ",")
	s, _, _ = strings.Cut(s, "}")
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if d, err := time.ParseDuration(s); err == nil {
		return int(d.Seconds())
	}
	return 0
}
