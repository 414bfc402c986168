// Package worker processa a fila de jobs persistida no sqlite: e-mails
// transacionais, moderação e resumo de posts. Um único loop pega o próximo
// job pendente, despacha pelo tipo e grava o resultado. Falhas retryable
// voltam para a fila com backoff; as demais vão para a dead letter queue.
package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/llm"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/mailer"
	"github.com/PauloHFS/gothpress/internal/metrics"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/sse"
	"github.com/PauloHFS/gothpress/internal/view/pages"
)

type Processor struct {
	db      *sql.DB
	queries *db.Queries
	logger  *slog.Logger
	cfg     *config.Config
	mailer  mailer.Sender
	llm     llm.LLMClient
	broker  *sse.Broker
	dlq     *DeadLetterQueue
	limiter *JobRateLimiter
	wg      sync.WaitGroup
}

func New(cfg *config.Config, dbConn *sql.DB, q *db.Queries, l *slog.Logger, broker *sse.Broker) *Processor {
	p := &Processor{
		db:      dbConn,
		queries: q,
		logger:  l,
		cfg:     cfg,
		mailer:  mailer.New(cfg),
		broker:  broker,
		dlq:     NewDeadLetterQueue(q, dbConn, l),
		limiter: NewJobRateLimiter(),
	}

	if cfg.LLMEnabled() {
		opts := []llm.ClientOption{
			llm.WithBaseURL(cfg.LLMBaseURL),
			llm.WithModel(cfg.LLMModel),
		}
		// Ollama local não pede chave.
		if cfg.LLMAPIKey != "" {
			opts = append(opts, llm.WithAPIKey(cfg.LLMAPIKey))
		}
		client, err := llm.NewClient(opts...)
		if err != nil {
			l.Error("llm client misconfigured, moderation/summary jobs will no-op",
				slog.String("error", err.Error()))
		} else {
			p.llm = client.WithMetrics()
		}
	}

	return p
}

func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("worker started")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	// Entradas da DLQ além da retenção saem uma vez por hora.
	janitor := time.NewTicker(1 * time.Hour)
	defer janitor.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker signal received: waiting for active jobs to finish")
			return
		case <-ticker.C:
			p.processNext(ctx)
		case <-janitor.C:
			if err := p.dlq.Cleanup(ctx); err != nil {
				p.logger.Error("dead letter cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Wait blocks until all active jobs are finished
func (p *Processor) Wait() {
	p.wg.Wait()
}

// RescueZombies resgata jobs que ficaram presos no status 'processing'
// devido a um crash ou restart inesperado do servidor.
func (p *Processor) RescueZombies(ctx context.Context) error {
	p.logger.Info("zombie hunter: searching for stuck jobs")
	if err := p.queries.RescueZombies(ctx); err != nil {
		p.logger.Error("zombie hunter: failed to rescue jobs", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (p *Processor) processNext(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	start := time.Now()
	job, err := p.queries.PickNextJob(ctx)
	if err != nil {
		return // Fila vazia
	}

	ctx, event := logging.NewEventContext(ctx)
	event.Add(
		slog.Int64("job_id", job.ID),
		slog.String("job_type", string(job.Type)),
		slog.Int64("attempt", job.AttemptCount+1),
	)

	// Idempotency Check: Verifica se o job já foi processado com sucesso anteriormente
	processed, err := p.queries.IsJobProcessed(ctx, job.ID)
	if err == nil && processed == 1 {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "job already processed, skipping", event.Attrs()...)
		_ = p.queries.CompleteJob(ctx, job.ID) // Garante que o status está sincronizado
		return
	}

	if err := p.limiter.Acquire(ctx, job.Type); err != nil {
		// Shutdown no meio do Acquire: o job fica em 'processing' e o
		// RescueZombies do próximo boot devolve para a fila.
		p.logger.DebugContext(ctx, "rate limiter acquire aborted", "error", err)
		return
	}
	defer p.limiter.Release(job.Type)

	var errProcessing error
	switch job.Type {
	case db.JobSendVerificationEmail:
		errProcessing = p.handleSendVerificationEmail(ctx, job.Payload)
	case db.JobSendPasswordResetEmail:
		errProcessing = p.handleSendPasswordResetEmail(ctx, job.Payload)
	case db.JobModeratePost:
		errProcessing = p.handleModeratePost(ctx, job.Payload)
	case db.JobSummarizePost:
		errProcessing = p.handleSummarizePost(ctx, job.Payload)
	default:
		p.logger.WarnContext(ctx, "unknown job type", "type", job.Type)
	}

	if errProcessing != nil {
		p.recordFailure(ctx, job, errProcessing, start, event)
		return
	}

	// Sucesso: Registrar que foi processado e completar o job em uma transação
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to start transaction", "error", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	qtx := p.queries.WithTx(tx)

	if err := qtx.RecordJobProcessed(ctx, job.ID); err != nil {
		p.logger.ErrorContext(ctx, "failed to record job processed", "error", err)
		return
	}

	if err := qtx.CompleteJob(ctx, job.ID); err != nil {
		p.logger.ErrorContext(ctx, "failed to complete job", "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		p.logger.ErrorContext(ctx, "failed to commit transaction", "error", err)
		return
	}

	duration := time.Since(start)
	metrics.JobDuration.WithLabelValues(string(job.Type), "success").Observe(duration.Seconds())
	metrics.JobsProcessed.WithLabelValues(string(job.Type), "success").Inc()
	event.Add(slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6))

	p.logger.LogAttrs(ctx, slog.LevelInfo, "job completed", event.Attrs()...)

	// Notificação em tempo real via SSE para o dono do job
	if job.UserID.Valid {
		p.broker.NotifyUser(job.UserID.Int64, "job_completed", string(job.Type))
	}
}

// recordFailure decide o destino de um job que falhou: reagendamento com
// backoff quando o erro é transitório, dead letter queue quando não é ou
// quando as tentativas se esgotaram.
func (p *Processor) recordFailure(ctx context.Context, job db.Job, cause error, start time.Time, event *logging.Event) {
	metrics.JobDuration.WithLabelValues(string(job.Type), "failed").Observe(time.Since(start).Seconds())
	metrics.JobsProcessed.WithLabelValues(string(job.Type), "failed").Inc()

	// PickNextJob entrega o attempt_count das tentativas anteriores;
	// esta falha ainda não foi contada.
	job.AttemptCount++

	retryable := IsRetryableError(cause) || llm.IsRetryableError(cause)
	if !retryable || p.dlq.ShouldMoveToDLQ(job) {
		if err := p.dlq.Move(ctx, job, cause); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "failed to move job to dead letter queue",
				append(event.Attrs(), slog.String("error", err.Error()))...)
		}
		return
	}

	delay := FullJitter(int(job.AttemptCount), DefaultBackoffConfig)
	if after := GetRetryAfterDuration(cause); after > delay {
		delay = after
	}

	if err := p.queries.FailJob(ctx, db.FailJobParams{
		LastError: sql.NullString{String: cause.Error(), Valid: true},
		RunAt:     sql.NullTime{Time: time.Now().Add(delay), Valid: true},
		ID:        job.ID,
	}); err != nil {
		p.logger.ErrorContext(ctx, "failed to record job failure in db", "error", err)
		return
	}

	metrics.JobRetries.WithLabelValues(string(job.Type)).Inc()
	p.logger.LogAttrs(ctx, slog.LevelError, "job processing failed, retry scheduled",
		append(event.Attrs(),
			slog.String("error", cause.Error()),
			slog.Duration("retry_in", delay))...)
}

func (p *Processor) handleSendVerificationEmail(ctx context.Context, payload json.RawMessage) error {
	var data struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Token string `json:"token"`
	}

	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}

	link := p.cfg.AppBaseURL + routes.VerifyEmail + "?token=" + data.Token
	subject := "Verifique seu E-mail"
	body := fmt.Sprintf("Olá, %s!\n\nBem-vindo! Clique no link abaixo para verificar seu e-mail:\n\n%s",
		data.Name, link)

	return p.mailer.Send(ctx, data.Email, subject, body)
}

func (p *Processor) handleSendPasswordResetEmail(ctx context.Context, payload json.RawMessage) error {
	var data struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Token string `json:"token"`
	}

	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}

	link := p.cfg.AppBaseURL + routes.ResetPassword + "?token=" + data.Token
	subject := "Recuperação de Senha"
	body := fmt.Sprintf("Olá, %s!\n\nClique no link abaixo para redefinir sua senha:\n\n%s\n\nEste link expira em 1 hora.",
		data.Name, link)

	return p.mailer.Send(ctx, data.Email, subject, body)
}

// handleModeratePost revisa um post pendente. Com um LLM configurado o
// veredito sai na hora; sem, o job completa sem tocar no post e a decisão
// fica a cargo do webhook do revisor externo.
func (p *Processor) handleModeratePost(ctx context.Context, payload json.RawMessage) error {
	var data struct {
		PostID int64 `json:"post_id"`
	}

	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}

	post, err := p.queries.GetPostByID(ctx, data.PostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p.logger.WarnContext(ctx, "moderation target no longer exists",
				slog.Int64("post_id", data.PostID))
			return nil
		}
		return err
	}

	// Quem chegou primeiro (webhook externo) já decidiu; não sobrescreve.
	if post.ModerationStatus != db.ModerationPending {
		return nil
	}

	if p.llm == nil {
		p.logger.InfoContext(ctx, "moderation left for external reviewer",
			slog.Int64("post_id", post.ID))
		return nil
	}

	status, err := p.moderateWithLLM(ctx, post)
	if err != nil {
		return err
	}

	return p.applyModeration(ctx, post, status)
}

func (p *Processor) moderateWithLLM(ctx context.Context, post db.Post) (string, error) {
	resp, err := p.llm.Generate(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Você é o moderador de um blog. Avalie se o post abaixo respeita as regras de conteúdo (sem spam, assédio ou conteúdo ilegal). Responda com uma única palavra: APPROVED ou REJECTED."},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Título: %s\n\n%s", post.Title, post.Content)},
		},
		MaxTokens: 8,
	})
	if err != nil {
		return "", fmt.Errorf("llm moderation: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("llm moderation: empty response")
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))
	if strings.Contains(verdict, "REJECT") {
		return db.ModerationRejected, nil
	}
	return db.ModerationApproved, nil
}

func (p *Processor) applyModeration(ctx context.Context, post db.Post, status string) error {
	if err := p.queries.SetPostModeration(ctx, db.SetPostModerationParams{
		ModerationStatus: status,
		ID:               post.ID,
	}); err != nil {
		return err
	}
	if err := p.queries.MarkPostReviewed(ctx, post.ID); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "post moderated",
		slog.Int64("post_id", post.ID),
		slog.String("status", status))

	t := i18n.Get(ctx)
	p.broker.NotifyPost(post.ID, "moderation_update", pages.ModerationStatusBadge(t, status))

	label := t.StatusApproved
	if status == db.ModerationRejected {
		label = t.StatusRejected
	}
	notice := fmt.Sprintf("<p>Post \"%s\": %s</p>", templ.EscapeString(post.Title), label)
	p.broker.NotifyUser(post.UserID, "moderation_update", notice)

	return nil
}

// handleSummarizePost gera o resumo curto exibido na página do post. Sem
// LLM configurado o job completa como no-op e o post segue sem resumo.
func (p *Processor) handleSummarizePost(ctx context.Context, payload json.RawMessage) error {
	var data struct {
		PostID int64 `json:"post_id"`
	}

	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}

	if p.llm == nil {
		return nil
	}

	post, err := p.queries.GetPostByID(ctx, data.PostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	resp, err := p.llm.Generate(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Resuma o post de blog abaixo em no máximo duas frases, no mesmo idioma do texto. Responda apenas com o resumo."},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Título: %s\n\n%s", post.Title, post.Content)},
		},
		MaxTokens:   160,
		Temperature: 0.3,
	})
	if err != nil {
		return fmt.Errorf("llm summary: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return fmt.Errorf("llm summary: empty response")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return fmt.Errorf("llm summary: blank response")
	}

	if err := p.queries.UpdatePostSummary(ctx, db.UpdatePostSummaryParams{
		Summary: sql.NullString{String: summary, Valid: true},
		ID:      post.ID,
	}); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "post summary generated", slog.Int64("post_id", post.ID))

	t := i18n.Get(ctx)
	fragment := fmt.Sprintf("<h4>%s</h4>\n<p>%s</p>", t.Summary, templ.EscapeString(summary))
	p.broker.NotifyPost(post.ID, "summary_ready", fragment)

	return nil
}
