package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/sse"
)

const testSecret = "segredo-de-teste"

type handlerFixture struct {
	handler *Handler
	db      *sql.DB
	queries *db.Queries
	broker  *sse.Broker
}

func setupHandler(t *testing.T) handlerFixture {
	t.Helper()

	tempFile, err := os.CreateTemp("", "gothpress_webhook_test_*.db")
	if err != nil {
		t.Fatal(err)
	}
	tempFile.Close()
	dbPath := tempFile.Name()
	t.Cleanup(func() { os.Remove(dbPath) })

	dbConn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbConn.Close() })

	if err := db.RunMigrations(context.Background(), dbConn); err != nil {
		t.Fatalf("migração falhou: %v", err)
	}

	queries := db.New(dbConn)
	broker := sse.NewBroker()
	t.Cleanup(broker.Shutdown)

	return handlerFixture{
		handler: NewHandler(queries, broker, testSecret),
		db:      dbConn,
		queries: queries,
		broker:  broker,
	}
}

func createPendingPost(t *testing.T, queries *db.Queries) db.Post {
	t.Helper()
	ctx := context.Background()

	user, err := queries.CreateUser(ctx, db.CreateUserParams{
		Name:         "Autora",
		Email:        "autora@example.com",
		PasswordHash: "x",
		RoleID:       "user",
	})
	if err != nil {
		t.Fatal(err)
	}

	post, err := queries.CreatePost(ctx, db.CreatePostParams{
		UserID:  user.ID,
		Title:   "Post em revisão",
		Content: "corpo",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := queries.SetPostModeration(ctx, db.SetPostModerationParams{
		ModerationStatus: db.ModerationPending,
		ID:               post.ID,
	}); err != nil {
		t.Fatal(err)
	}
	return post
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func deliver(h *Handler, body, signature string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.Handle("POST /webhooks/{source}", h)

	req := httptest.NewRequest("POST", "/webhooks/moderation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestWebhookAplicaVeredito(t *testing.T) {
	fx := setupHandler(t)
	post := createPendingPost(t, fx.queries)
	ctx := context.Background()

	postClient, err := fx.broker.Subscribe("post", "1")
	if err != nil {
		t.Fatal(err)
	}
	userClient, err := fx.broker.Subscribe("user", "1")
	if err != nil {
		t.Fatal(err)
	}

	body := `{"post_id": 1, "status": "approved"}`
	rr := deliver(fx.handler, body, sign(body))

	if rr.Code != http.StatusOK {
		t.Fatalf("esperava 200, veio %d: %s", rr.Code, rr.Body.String())
	}

	got, err := fx.queries.GetPostByID(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ModerationStatus != db.ModerationApproved {
		t.Errorf("status = %q, esperava approved", got.ModerationStatus)
	}
	if !got.ReviewedAt.Valid {
		t.Error("reviewed_at deveria estar marcado")
	}

	select {
	case msg := <-postClient.Events:
		if !strings.Contains(msg, "moderation_update") {
			t.Errorf("evento sem nome esperado: %s", msg)
		}
		if !strings.Contains(msg, "Aprovado") {
			t.Errorf("badge sem o status: %s", msg)
		}
	default:
		t.Error("canal do post não recebeu o evento")
	}

	select {
	case msg := <-userClient.Events:
		if !strings.Contains(msg, "Post em revisão") {
			t.Errorf("notificação sem o título: %s", msg)
		}
	default:
		t.Error("canal do usuário não recebeu o evento")
	}

	var processed sql.NullTime
	row := fx.db.QueryRowContext(ctx, "SELECT processed_at FROM webhooks ORDER BY id DESC LIMIT 1")
	if err := row.Scan(&processed); err != nil {
		t.Fatalf("webhook não foi persistido: %v", err)
	}
	if !processed.Valid {
		t.Error("webhook deveria estar marcado como processado")
	}
}

func TestWebhookAssinaturaInvalida(t *testing.T) {
	fx := setupHandler(t)
	post := createPendingPost(t, fx.queries)

	body := `{"post_id": 1, "status": "approved"}`
	rr := deliver(fx.handler, body, "deadbeef")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, veio %d", rr.Code)
	}

	got, err := fx.queries.GetPostByID(context.Background(), post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ModerationStatus != db.ModerationPending {
		t.Errorf("post não deveria ter mudado: %q", got.ModerationStatus)
	}
}

func TestWebhookSemAssinatura(t *testing.T) {
	fx := setupHandler(t)
	createPendingPost(t, fx.queries)

	body := `{"post_id": 1, "status": "approved"}`
	rr := deliver(fx.handler, body, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, veio %d", rr.Code)
	}
}

func TestWebhookStatusDesconhecido(t *testing.T) {
	fx := setupHandler(t)
	createPendingPost(t, fx.queries)

	body := `{"post_id": 1, "status": "maybe"}`
	rr := deliver(fx.handler, body, sign(body))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("esperava 422, veio %d", rr.Code)
	}
}

func TestWebhookJSONInvalido(t *testing.T) {
	fx := setupHandler(t)

	body := `{"post_id": `
	rr := deliver(fx.handler, body, sign(body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("esperava 400, veio %d", rr.Code)
	}
}

func TestWebhookPostInexistenteAindaConfirma(t *testing.T) {
	// O serviço externo não tem culpa se o post foi excluído durante a
	// revisão; 200 encerra os retries e o callback fica para auditoria.
	fx := setupHandler(t)

	body := `{"post_id": 9999, "status": "rejected"}`
	rr := deliver(fx.handler, body, sign(body))

	if rr.Code != http.StatusOK {
		t.Fatalf("esperava 200, veio %d", rr.Code)
	}

	var count int64
	row := fx.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM webhooks")
	if err := row.Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("esperava 1 webhook persistido, veio %d", count)
	}
}

func TestWebhookSemSegredoAceitaTudo(t *testing.T) {
	fx := setupHandler(t)
	createPendingPost(t, fx.queries)
	open := NewHandler(fx.queries, fx.broker, "")

	body := `{"post_id": 1, "status": "approved"}`
	rr := deliver(open, body, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("sem segredo configurado deveria aceitar, veio %d", rr.Code)
	}
}
