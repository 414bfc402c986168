package worker

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/metrics"
)

const (
	MaxJobAttempts = 5

	// Job parado há mais de um dia não vale outro retry: o e-mail perdeu
	// o contexto e o post já foi editado ou removido.
	maxJobAge = 24 * time.Hour
)

// DeadLetterQueue guarda os jobs que esgotaram as tentativas ou falharam
// de forma permanente, para inspeção e reprocesso manual. A retenção fica
// no SQL de limpeza (14 dias após moved_at).
type DeadLetterQueue struct {
	queries *db.Queries
	db      *sql.DB
	logger  *slog.Logger
}

func NewDeadLetterQueue(queries *db.Queries, dbConn *sql.DB, logger *slog.Logger) *DeadLetterQueue {
	return &DeadLetterQueue{queries: queries, db: dbConn, logger: logger}
}

// ShouldMoveToDLQ decide se o job ainda merece retry.
func (dlq *DeadLetterQueue) ShouldMoveToDLQ(job db.Job) bool {
	if job.AttemptCount >= MaxJobAttempts {
		return true
	}
	return job.CreatedAt.Valid && time.Since(job.CreatedAt.Time) > maxJobAge
}

// Move copia o job para a dead letter queue e o remove da fila na mesma
// transação, para o job não existir nos dois lugares nem em nenhum.
func (dlq *DeadLetterQueue) Move(ctx context.Context, job db.Job, lastErr error) error {
	tx, err := dlq.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	qtx := dlq.queries.WithTx(tx)
	if err := qtx.MoveToDeadLetter(ctx, job.ID); err != nil {
		return err
	}
	if err := qtx.DeleteJob(ctx, job.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	metrics.JobsDeadLetter.WithLabelValues(string(job.Type)).Inc()
	dlq.logger.ErrorContext(ctx, "job moved to dead letter queue",
		slog.Int64("job_id", job.ID),
		slog.String("type", string(job.Type)),
		slog.Int64("attempts", job.AttemptCount),
		slog.String("error", lastErr.Error()),
	)
	return nil
}

// Reprocess devolve um job da DLQ para a fila como um job novo, com o
// contador de tentativas zerado.
func (dlq *DeadLetterQueue) Reprocess(ctx context.Context, dlqJobID int64) (*db.Job, error) {
	job, err := dlq.queries.ReprocessDeadLetterJob(ctx, dlqJobID)
	if err != nil {
		return nil, err
	}
	if err := dlq.queries.DeleteDeadLetterJob(ctx, dlqJobID); err != nil {
		return nil, err
	}

	dlq.logger.InfoContext(ctx, "job requeued from dead letter queue",
		slog.Int64("dlq_id", dlqJobID),
		slog.Int64("new_job_id", job.ID),
	)
	return &job, nil
}

// List devolve as entradas da DLQ, mais recentes primeiro.
func (dlq *DeadLetterQueue) List(ctx context.Context) ([]db.DeadLetterJob, error) {
	return dlq.queries.ListDeadLetterJobs(ctx)
}

// Delete descarta uma entrada sem reprocessar.
func (dlq *DeadLetterQueue) Delete(ctx context.Context, id int64) error {
	return dlq.queries.DeleteDeadLetterJob(ctx, id)
}

// Cleanup apaga as entradas além do prazo de retenção.
func (dlq *DeadLetterQueue) Cleanup(ctx context.Context) error {
	return dlq.queries.CleanupDeadLetterJobs(ctx)
}

// Stats conta as entradas por tipo de job, mais o total.
func (dlq *DeadLetterQueue) Stats(ctx context.Context) (map[string]int64, error) {
	total, err := dlq.queries.CountDeadLetterJobs(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]int64{"total": total}
	for _, jobType := range []db.JobType{
		db.JobSendVerificationEmail,
		db.JobSendPasswordResetEmail,
		db.JobModeratePost,
		db.JobSummarizePost,
	} {
		count, err := dlq.queries.CountDeadLetterJobsByType(ctx, jobType)
		if err != nil {
			return nil, err
		}
		stats[string(jobType)] = count
	}
	return stats, nil
}
