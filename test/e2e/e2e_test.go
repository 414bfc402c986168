// Package e2e dirige um navegador de verdade contra a aplicação completa,
// com a mesma cadeia de middlewares da produção (sessão, CSRF, locale).
//
// Os testes só rodam com E2E=1 e exigem os browsers do playwright:
//
//	go run github.com/playwright-community/playwright-go/cmd/playwright install --with-deps chromium
//	E2E=1 go test ./test/e2e
package e2e

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/justinas/nosurf"
	_ "github.com/mattn/go-sqlite3"
	"github.com/microcosm-cc/bluemonday"
	"github.com/playwright-community/playwright-go"

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
)

// startApp sobe a aplicação num servidor de teste e devolve a URL base.
func startApp(t *testing.T) string {
	t.Helper()

	tempFile, err := os.CreateTemp("", "gothpress_e2e_*.db")
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

	if err := db.RunMigrations(context.Background(), dbConn); err != nil {
		t.Fatalf("migração falhou: %v", err)
	}

	queries := db.New(dbConn)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(dbConn)
	sessionManager.Lifetime = time.Hour

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
		Env:       "test",
		UploadDir: t.TempDir(),
	}

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.HandlerDeps{
		DB:             dbConn,
		Queries:        queries,
		SessionManager: sessionManager,
		Config:         cfg,
		Auth:           services.NewAuthService(queries, dbConn, cfg),
		Evaluator:      evaluator,
		Roles:          roleSvc,
		Broker:         broker,
		Sanitizer:      bluemonday.UGCPolicy(),
	})

	csrfHandler := nosurf.New(mux)
	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   false,
	})
	csrfHandler.ExemptFunc(func(r *http.Request) bool {
		return strings.HasPrefix(r.URL.Path, "/api/v1/") ||
			strings.HasPrefix(r.URL.Path, "/webhooks/")
	})

	handler := middleware.Recovery(
		middleware.SecurityHeaders(false)(
			middleware.Logger(
				middleware.Locale(
					sessionManager.LoadAndSave(
						middleware.InjectCSRF(csrfHandler),
					),
				),
			),
		),
	)

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		dbConn.Close()
	})

	return server.URL
}

func gotoPage(t *testing.T, page playwright.Page, url string) playwright.Response {
	t.Helper()
	// DOMContentLoaded: a página usa CDNs para CSS/htmx e o teste não
	// pode depender de rede externa.
	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		t.Fatalf("goto %s: %v", url, err)
	}
	return resp
}

func fill(t *testing.T, page playwright.Page, selector, value string) {
	t.Helper()
	if err := page.Locator(selector).Fill(value); err != nil {
		t.Fatalf("fill %s: %v", selector, err)
	}
}

func click(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).Click(); err != nil {
		t.Fatalf("click %s: %v", selector, err)
	}
}

func TestFluxoDeDonoNoNavegador(t *testing.T) {
	if os.Getenv("E2E") == "" {
		t.Skip("defina E2E=1 (e instale os browsers do playwright) para rodar")
	}

	baseURL := startApp(t)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("playwright não disponível (rode o install do playwright-go): %v", err)
	}
	t.Cleanup(func() { _ = pw.Stop() })

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	t.Cleanup(func() { _ = browser.Close() })

	owner, err := browser.NewContext()
	if err != nil {
		t.Fatal(err)
	}
	page, err := owner.NewPage()
	if err != nil {
		t.Fatal(err)
	}

	// Registro
	gotoPage(t, page, baseURL+routes.Register)
	fill(t, page, `input[name="name"]`, "Ana")
	fill(t, page, `input[name="email"]`, "ana@example.com")
	fill(t, page, `input[name="password"]`, "senha-segura-123")
	click(t, page, `button[type="submit"]`)
	if err := page.WaitForURL("**/login*"); err != nil {
		t.Fatalf("registro não levou ao login: %v", err)
	}

	// Login
	fill(t, page, `input[name="email"]`, "ana@example.com")
	fill(t, page, `input[name="password"]`, "senha-segura-123")
	click(t, page, `button[type="submit"]`)
	if err := page.WaitForURL("**/dashboard"); err != nil {
		t.Fatalf("login não levou ao dashboard: %v", err)
	}

	// Criação de post pelo formulário real, com o token CSRF da sessão.
	gotoPage(t, page, baseURL+routes.NewPost)
	fill(t, page, `input[name="title"]`, "Meu primeiro post")
	fill(t, page, `textarea[name="content"]`, "Escrito de dentro de um navegador de verdade.")
	click(t, page, `form[action="/posts"] button[type="submit"]`)

	heading := page.Locator("h1", playwright.PageLocatorOptions{HasText: "Meu primeiro post"})
	if err := heading.WaitFor(); err != nil {
		t.Fatalf("página do post não abriu: %v", err)
	}

	// Dona vê os controles de edição e exclusão.
	editLinks, err := page.Locator(`article a[href$="/edit"]`).Count()
	if err != nil {
		t.Fatal(err)
	}
	if editLinks != 1 {
		t.Errorf("dona deveria ver 1 botão de editar, viu %d", editLinks)
	}

	postURL := page.URL()
	if u, err := url.Parse(postURL); err == nil {
		u.RawQuery = ""
		postURL = u.String()
	}

	// Sessão anônima: lista mostra o título, mas sem botões; o detalhe
	// responde 403.
	anon, err := browser.NewContext()
	if err != nil {
		t.Fatal(err)
	}
	anonPage, err := anon.NewPage()
	if err != nil {
		t.Fatal(err)
	}

	gotoPage(t, anonPage, baseURL+routes.Posts)
	card := anonPage.Locator("h3 a", playwright.PageLocatorOptions{HasText: "Meu primeiro post"})
	if err := card.WaitFor(); err != nil {
		t.Fatalf("lista pública não mostrou o post: %v", err)
	}
	anonEdits, err := anonPage.Locator(`a[href$="/edit"]`).Count()
	if err != nil {
		t.Fatal(err)
	}
	if anonEdits != 0 {
		t.Errorf("anônimo não deveria ver botão de editar, viu %d", anonEdits)
	}

	resp := gotoPage(t, anonPage, postURL)
	if resp.Status() != http.StatusForbidden {
		t.Errorf("detalhe para anônimo deveria ser 403, veio %d", resp.Status())
	}

	// Logout encerra a sessão da dona.
	gotoPage(t, page, baseURL+routes.Posts)
	click(t, page, `form[action="/logout"] button`)
	if err := page.Locator(`a[href="/login"]`).First().WaitFor(); err != nil {
		t.Errorf("depois do logout o nav deveria voltar a oferecer login: %v", err)
	}
}
