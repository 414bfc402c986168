// Package web liga HTTP às políticas: todo handler resolve o ator e o
// recurso, pergunta ao Evaluator e só então toca o banco. A ordem de
// erros é fixa: recurso inexistente responde 404 antes de qualquer
// avaliação; negação responde 403; validação só roda depois que a
// autorização passou.
package web

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/i18n"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/metrics"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/roles"
	"github.com/PauloHFS/gothpress/internal/services"
	"github.com/PauloHFS/gothpress/internal/sse"
)

type HandlerDeps struct {
	DB             *sql.DB
	Queries        *db.Queries
	ReadQueries    *db.Queries
	SessionManager *scs.SessionManager
	Config         *config.Config
	Auth           *services.AuthService
	Evaluator      *policies.Evaluator
	Roles          *roles.Service
	Broker         *sse.Broker
	Sanitizer      *bluemonday.Policy
}

// reads devolve o query layer do pool de leitura. Quando os deps foram
// montados com um pool só (testes), cai no de escrita.
func (deps HandlerDeps) reads() *db.Queries {
	if deps.ReadQueries != nil {
		return deps.ReadQueries
	}
	return deps.Queries
}

// AppHandler recebe os deps e devolve erro. Erro que sobe até aqui é
// falha de servidor; respostas 4xx os handlers escrevem por conta
// própria e devolvem nil.
type AppHandler func(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error

// Handle adapta um AppHandler ao mux.
func Handle(deps HandlerDeps, h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(deps, w, r)
		if err == nil {
			return
		}
		logging.Get().LogAttrs(r.Context(), slog.LevelError, "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// authorize é o único caminho entre handlers e o Evaluator. Toda decisão
// sai daqui medida e anotada no evento do request; negar em qualquer
// outro lugar é bug.
func (deps HandlerDeps) authorize(r *http.Request, resourceType string, action policies.Action, resource policies.Resource) bool {
	start := time.Now()
	actor := middleware.ActorFrom(r.Context())
	allowed := deps.Evaluator.Allows(actor, resourceType, action, resource)
	metrics.AuthzDecisionDuration.Observe(time.Since(start).Seconds())

	decision := "deny"
	if allowed {
		decision = "allow"
	}
	metrics.AuthzDecisions.WithLabelValues(resourceType, string(action), decision).Inc()

	logging.AddToEvent(r.Context(),
		slog.String("authz_resource", resourceType),
		slog.String("authz_action", string(action)),
		slog.Bool("authz_allowed", allowed),
	)

	return allowed
}

// deny responde a negação com a mensagem da ação no idioma do request.
func deny(w http.ResponseWriter, r *http.Request, action policies.Action) {
	t := i18n.Get(r.Context())
	http.Error(w, t.DenialFor(action), http.StatusForbidden)
}

// notFound responde 404. Usado antes de qualquer checagem de política:
// sem recurso não há ownership para avaliar.
func notFound(w http.ResponseWriter, r *http.Request) {
	t := i18n.Get(r.Context())
	http.Error(w, t.NotFound, http.StatusNotFound)
}

// loadPost resolve {id} e busca o post. found=false já escreveu o 404.
func loadPost(deps HandlerDeps, w http.ResponseWriter, r *http.Request) (db.Post, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		notFound(w, r)
		return db.Post{}, false
	}

	post, err := deps.reads().GetPostByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		notFound(w, r)
		return db.Post{}, false
	}
	if err != nil {
		logging.Get().Error("failed to load post", slog.Int64("post_id", id), slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return db.Post{}, false
	}

	return post, true
}

// redirectWithMessage segue o padrão de flash por query string.
func redirectWithMessage(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?message="+url.QueryEscape(message), http.StatusSeeOther)
}

// actorSubjects monta os sujeitos casbin do request: id e papel.
func actorSubjects(r *http.Request) []string {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return nil
	}
	return []string{fmt.Sprint(user.ID), user.RoleID}
}
