// Package webhook recebe o veredito do serviço externo de moderação.
// O job moderate_post envia o post para fora; o serviço responde aqui,
// assinando o corpo com HMAC. O handler persiste o callback bruto para
// auditoria, aplica o status no post e avisa os streams SSE.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/sse"
	"github.com/PauloHFS/gothpress/internal/validator"
	"github.com/PauloHFS/gothpress/internal/view/pages"
)

// SignatureHeader carrega o HMAC-SHA256 hex do corpo, calculado com o
// segredo combinado com o serviço de moderação.
const SignatureHeader = "X-Webhook-Signature"

type moderationInput struct {
	PostID int64  `json:"post_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason"`
}

type Handler struct {
	queries *db.Queries
	broker  *sse.Broker
	secret  string
}

func NewHandler(q *db.Queries, broker *sse.Broker, secret string) *Handler {
	return &Handler{queries: q, broker: broker, secret: secret}
}

// ServeHTTP handles incoming webhooks
// @Summary Receber Webhook de moderação
// @Description Recebe o veredito do serviço de moderação, persiste o callback e aplica o status no post.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param source path string true "Fonte do webhook (ex: moderation)"
// @Param X-Webhook-Signature header string true "HMAC-SHA256 hex do corpo"
// @Param payload body moderationInput true "Veredito"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Bad Request"
// @Failure 401 {string} string "Unauthorized"
// @Router /webhooks/{source} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.Get()

	source := r.PathValue("source")
	if source == "" {
		http.Error(w, "source required", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !h.verify(payload, signature) {
		logger.Warn("webhook signature rejected", slog.String("source", source))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var input moderationInput
	if err := json.Unmarshal(payload, &input); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := validator.Validate(input); err != nil {
		http.Error(w, "validation failed", http.StatusUnprocessableEntity)
		return
	}

	// 1. Persistir o callback bruto para auditoria
	webhook, err := h.queries.CreateWebhook(r.Context(), db.CreateWebhookParams{
		Source:    source,
		Event:     "post." + input.Status,
		Payload:   payload,
		Signature: toNullString(signature),
	})
	if err != nil {
		http.Error(w, "failed to store webhook", http.StatusInternalServerError)
		return
	}

	// 2. Aplicar o veredito. Post que sumiu no meio do caminho não é
	// erro do remetente: confirma com 200 para parar os retries.
	if err := h.apply(r, input); err != nil {
		logger.Warn("moderation verdict not applied",
			slog.Int64("post_id", input.PostID),
			slog.Any("error", err),
		)
	}

	if err := h.queries.MarkWebhookProcessed(r.Context(), webhook.ID); err != nil {
		logger.Error("failed to mark webhook processed",
			slog.Int64("webhook_id", webhook.ID),
			slog.Any("error", err),
		)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) verify(payload []byte, signature string) bool {
	if h.secret == "" {
		return true
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}

func (h *Handler) apply(r *http.Request, input moderationInput) error {
	ctx := r.Context()

	post, err := h.queries.GetPostByID(ctx, input.PostID)
	if err != nil {
		return fmt.Errorf("post lookup failed: %w", err)
	}

	if err := h.queries.SetPostModeration(ctx, db.SetPostModerationParams{
		ModerationStatus: input.Status,
		ID:               post.ID,
	}); err != nil {
		return fmt.Errorf("failed to set moderation status: %w", err)
	}

	if err := h.queries.MarkPostReviewed(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to mark post reviewed: %w", err)
	}

	logging.Get().Info("moderation verdict applied",
		slog.Int64("post_id", post.ID),
		slog.String("status", input.Status),
	)

	t := i18n.Get(ctx)
	badge := pages.ModerationStatusBadge(t, input.Status)
	h.broker.NotifyPost(post.ID, "moderation_update", badge)

	notice := fmt.Sprintf("<p>Post \"%s\": %s</p>",
		templ.EscapeString(post.Title),
		statusLabel(t, input.Status),
	)
	h.broker.NotifyUser(post.UserID, "moderation_update", notice)
	return nil
}

func statusLabel(t i18n.Translation, status string) string {
	switch status {
	case db.ModerationApproved:
		return t.StatusApproved
	case db.ModerationRejected:
		return t.StatusRejected
	default:
		return t.StatusPending
	}
}

func toNullString(s string) (out sql.NullString) {
	if s != "" {
		out = sql.NullString{String: s, Valid: true}
	}
	return out
}
