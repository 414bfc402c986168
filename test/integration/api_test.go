package integration

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/microcosm-cc/bluemonday"
	_ "github.com/mattn/go-sqlite3"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/roles"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/services"
	"github.com/PauloHFS/gothpress/internal/sse"
	"github.com/PauloHFS/gothpress/internal/web"
	"github.com/PauloHFS/gothpress/internal/webhook"
)

const webhookSecret = "segredo-integracao"

type TestServer struct {
	DB      *sql.DB
	Queries *db.Queries
	Server  *httptest.Server
	Deps    web.HandlerDeps
}

// setupTestServer sobe a aplicação inteira sobre um sqlite descartável:
// rotas reais, sessões reais, política real. Só o CSRF fica de fora da
// cadeia, os formulários dos testes não carregam token.
func setupTestServer(t *testing.T) *TestServer {
	t.Helper()

	tempFile, err := os.CreateTemp("", "gothpress_integration_*.db")
	if err != nil {
		t.Fatal(err)
	}
	tempFile.Close()
	dbPath := tempFile.Name()
	t.Cleanup(func() {
		os.Remove(dbPath)
		os.Remove(dbPath + "-shm")
		os.Remove(dbPath + "-wal")
	})

	dbConn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		t.Fatalf("migração falhou: %v", err)
	}

	queries := db.New(dbConn)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(dbConn)
	sessionManager.Lifetime = 24 * time.Hour

	evaluator := policies.NewEvaluator()
	policies.RegisterPostPolicy(evaluator)
	policies.RegisterUserPolicy(evaluator)

	roleSvc, err := roles.New("", logging.Get())
	if err != nil {
		t.Fatal(err)
	}
	evaluator.Before(roles.BeforeHook(roleSvc))

	broker := sse.NewBroker()
	t.Cleanup(broker.Shutdown)

	cfg := &config.Config{
		Env:           "test",
		Port:          "8080",
		AppBaseURL:    "http://localhost:8080",
		UploadDir:     t.TempDir(),
		WebhookSecret: webhookSecret,
	}

	deps := web.HandlerDeps{
		DB:             dbConn,
		Queries:        queries,
		SessionManager: sessionManager,
		Config:         cfg,
		Auth:           services.NewAuthService(queries, dbConn, cfg),
		Evaluator:      evaluator,
		Roles:          roleSvc,
		Broker:         broker,
		Sanitizer:      bluemonday.UGCPolicy(),
	}

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, deps)
	mux.Handle("POST /webhooks/{source}", webhook.NewHandler(queries, broker, cfg.WebhookSecret))
	mux.HandleFunc("GET "+routes.Health, func(w http.ResponseWriter, r *http.Request) {
		if err := dbConn.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	handler := middleware.Recovery(
		middleware.SecurityHeaders(false)(
			middleware.Logger(
				middleware.Locale(
					sessionManager.LoadAndSave(mux),
				),
			),
		),
	)

	server := httptest.NewServer(handler)

	ts := &TestServer{
		DB:      dbConn,
		Queries: queries,
		Server:  server,
		Deps:    deps,
	}

	t.Cleanup(func() {
		server.Close()
		dbConn.Close()
	})

	return ts
}

// newClient devolve um cliente com cookie jar próprio, uma "sessão de
// navegador" independente por chamada.
func (ts *TestServer) newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func (ts *TestServer) registerAndLogin(t *testing.T, c *http.Client, name, email string) {
	t.Helper()

	resp, err := c.PostForm(ts.Server.URL+routes.Register, url.Values{
		"name":     {name},
		"email":    {email},
		"password": {"senha-segura-123"},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = c.PostForm(ts.Server.URL+routes.Login, url.Values{
		"email":    {email},
		"password": {"senha-segura-123"},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Request.URL.Path != routes.Dashboard {
		t.Fatalf("login de %s não chegou ao dashboard: %s", email, resp.Request.URL.Path)
	}
}

func (ts *TestServer) createPost(t *testing.T, c *http.Client, title, content string) string {
	t.Helper()

	resp, err := c.PostForm(ts.Server.URL+routes.Posts, url.Values{
		"title":   {title},
		"content": {content},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	path := resp.Request.URL.Path
	if !strings.HasPrefix(path, "/posts/") {
		t.Fatalf("criação não redirecionou para o post: %s", path)
	}
	return path
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := ts.Server.Client().Get(ts.Server.URL + routes.Health)
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); resp.StatusCode != http.StatusOK {
		t.Errorf("esperava 200, veio %d (%s)", resp.StatusCode, body)
	}
}

func TestFluxoDeOwnershipPontaAPonta(t *testing.T) {
	ts := setupTestServer(t)

	ana := ts.newClient(t)
	ts.registerAndLogin(t, ana, "Ana", "ana@example.com")
	postPath := ts.createPost(t, ana, "Post da Ana", "Conteúdo original")

	t.Run("AnonimoListaMasNaoAbre", func(t *testing.T) {
		anon := ts.newClient(t)

		resp, err := anon.Get(ts.Server.URL + routes.Posts)
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("listagem é pública, veio %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Post da Ana") {
			t.Error("lista deveria mostrar o título do post")
		}
		if strings.Contains(body, postPath+"/edit") {
			t.Error("anônimo não deveria ver o botão de editar")
		}

		resp, err = anon.Get(ts.Server.URL + postPath)
		if err != nil {
			t.Fatal(err)
		}
		body = readBody(t, resp)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("detalhe de post alheio é 403, veio %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Você não tem permissão para ver este post") {
			t.Errorf("negação sem a mensagem esperada: %s", body)
		}
	})

	t.Run("OutroUsuarioNaoAltera", func(t *testing.T) {
		bruno := ts.newClient(t)
		ts.registerAndLogin(t, bruno, "Bruno", "bruno@example.com")

		resp, err := bruno.PostForm(ts.Server.URL+postPath+"/edit", url.Values{
			"title":   {"Tomada hostil"},
			"content": {"conteúdo invadido"},
		})
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("esperava 403 para não-dono, veio %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Você não tem permissão para editar este post") {
			t.Errorf("resposta sem a mensagem de negação: %s", body)
		}

		resp, err = ana.Get(ts.Server.URL + postPath)
		if err != nil {
			t.Fatal(err)
		}
		if body := readBody(t, resp); !strings.Contains(body, "Post da Ana") {
			t.Errorf("título não deveria ter mudado: %s", body)
		}
	})

	t.Run("ExcluidoResponde404AntesDe403", func(t *testing.T) {
		resp, err := ana.PostForm(ts.Server.URL+postPath+"/delete", url.Values{})
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()

		// Anônimo num post que não existe mais: a existência é checada
		// antes da política, então sai 404 e não 403.
		anon := ts.newClient(t)
		resp, err = anon.Get(ts.Server.URL + postPath)
		if err != nil {
			t.Fatal(err)
		}
		readBody(t, resp)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("post excluído deveria dar 404, veio %d", resp.StatusCode)
		}
	})
}

func TestAPIJSONPontaAPonta(t *testing.T) {
	ts := setupTestServer(t)

	ana := ts.newClient(t)
	ts.registerAndLogin(t, ana, "Ana", "ana@example.com")

	var created struct {
		ID  int64 `json:"id"`
		Can struct {
			View   bool `json:"view"`
			Update bool `json:"update"`
			Delete bool `json:"delete"`
		} `json:"can"`
	}

	t.Run("DonaCriaViaJSON", func(t *testing.T) {
		payload := []byte(`{"title": "Post via API", "content": "<p>corpo</p>"}`)
		resp, err := ana.Post(ts.Server.URL+"/api/v1/posts", "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("esperava 201, veio %d (%s)", resp.StatusCode, body)
		}
		if err := json.Unmarshal([]byte(body), &created); err != nil {
			t.Fatal(err)
		}
		if !created.Can.Update || !created.Can.Delete {
			t.Errorf("dona deveria poder tudo no próprio post: %s", body)
		}
	})

	t.Run("AnonimoNaoCria", func(t *testing.T) {
		anon := ts.newClient(t)
		resp, err := anon.Post(ts.Server.URL+"/api/v1/posts", "application/json",
			strings.NewReader(`{"title": "x", "content": "y"}`))
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("esperava 403, veio %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Você precisa estar logado para criar posts") {
			t.Errorf("negação sem a mensagem esperada: %s", body)
		}
	})

	t.Run("ListaAnonimaSemPoderes", func(t *testing.T) {
		anon := ts.newClient(t)
		resp, err := anon.Get(ts.Server.URL + "/api/v1/posts")
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("listagem é pública, veio %d", resp.StatusCode)
		}

		var list struct {
			Items []struct {
				Title string `json:"title"`
				Can   struct {
					View   bool `json:"view"`
					Update bool `json:"update"`
				} `json:"can"`
			} `json:"items"`
		}
		if err := json.Unmarshal([]byte(body), &list); err != nil {
			t.Fatal(err)
		}
		if len(list.Items) != 1 {
			t.Fatalf("esperava 1 post na lista, veio %d", len(list.Items))
		}
		if list.Items[0].Can.Update {
			t.Error("anônimo não pode editar nada")
		}
	})

	t.Run("ValidacaoSoDepoisDaPolitica", func(t *testing.T) {
		// Payload inválido com dono certo: 422 com o campo nomeado.
		req, err := http.NewRequest(http.MethodPut,
			fmt.Sprintf("%s/api/v1/posts/%d", ts.Server.URL, created.ID),
			strings.NewReader(`{"title": "", "content": "x"}`))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := ana.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("esperava 422, veio %d (%s)", resp.StatusCode, body)
		}
		if !strings.Contains(body, "title") {
			t.Errorf("erro deveria apontar o campo: %s", body)
		}

		// Mesmo payload inválido sem ser o dono: a política fala primeiro.
		bruno := ts.newClient(t)
		ts.registerAndLogin(t, bruno, "Bruno", "bruno@example.com")
		req, err = http.NewRequest(http.MethodPut,
			fmt.Sprintf("%s/api/v1/posts/%d", ts.Server.URL, created.ID),
			strings.NewReader(`{"title": "", "content": "x"}`))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err = bruno.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		readBody(t, resp)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("não-dono deveria tomar 403 antes da validação, veio %d", resp.StatusCode)
		}
	})
}

func TestWebhookDeModeracaoPontaAPonta(t *testing.T) {
	ts := setupTestServer(t)

	ana := ts.newClient(t)
	ts.registerAndLogin(t, ana, "Ana", "ana@example.com")
	postPath := ts.createPost(t, ana, "Post para revisar", "Conteúdo")

	resp, err := ana.PostForm(ts.Server.URL+postPath+"/review", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var postID int64
	if err := ts.DB.QueryRow("SELECT id FROM posts LIMIT 1").Scan(&postID); err != nil {
		t.Fatal(err)
	}

	payload := fmt.Sprintf(`{"post_id": %d, "status": "approved", "reason": "tudo certo"}`, postID)
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/webhooks/moderation", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, signature)

	resp, err = ts.Server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("webhook assinado deveria ser aceito, veio %d (%s)", resp.StatusCode, body)
	}

	post, err := ts.Queries.GetPostByID(context.Background(), postID)
	if err != nil {
		t.Fatal(err)
	}
	if post.ModerationStatus != db.ModerationApproved {
		t.Errorf("veredito não foi aplicado: %s", post.ModerationStatus)
	}

	resp, err = ana.Get(ts.Server.URL + postPath)
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Aprovado") {
		t.Error("página do post deveria mostrar o badge de aprovado")
	}

	t.Run("AssinaturaErradaNaoPassa", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/webhooks/moderation", strings.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set(webhook.SignatureHeader, "deadbeef")
		resp, err := ts.Server.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		readBody(t, resp)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("esperava 401, veio %d", resp.StatusCode)
		}
	})
}

func TestEventsStreamPontaAPonta(t *testing.T) {
	ts := setupTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.Server.URL+routes.Events+"?stream=posts", nil)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream público deveria abrir, veio %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("Content-Type errado: %s", ct)
	}

	// O prólogo chega antes do timeout derrubar a conexão.
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), ":") {
		t.Errorf("esperava o comentário de abertura do SSE, veio %q", string(buf[:n]))
	}
}

func TestDashboardRequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	client := ts.newClient(t)
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Get(ts.Server.URL + routes.Dashboard)
	if err != nil {
		t.Fatal(err)
	}
	readBody(t, resp)

	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("esperava redirect para login, veio %d", resp.StatusCode)
	}
}
