package web

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/view/pages"
)

// WebhookRoute generates the path for a webhook source
func WebhookRoute(source string) string {
	return fmt.Sprintf("/webhooks/%s", source)
}

// RegisterRoutes monta a tabela de rotas da aplicação. GETs públicos
// passam por OptionalAuth (o Evaluator decide com o ator presente ou
// ausente); páginas que só fazem sentido logado passam por RequireAuth,
// que redireciona anônimos para o login. A API e o SSE ficam em
// OptionalAuth de propósito: lá quem responde anônimo é a própria
// política, com 403.
func RegisterRoutes(mux *http.ServeMux, deps HandlerDeps) {
	requireAuth := func(h http.Handler) http.Handler {
		return middleware.RequireAuth(deps.SessionManager, deps.Queries, h)
	}
	optionalAuth := func(h http.Handler) http.Handler {
		return middleware.OptionalAuth(deps.SessionManager, deps.Queries, h)
	}

	// Auth
	mux.HandleFunc("GET "+routes.Login, Handle(deps, handleLoginPage))
	mux.HandleFunc("POST "+routes.Login, Handle(deps, handleLogin))
	mux.HandleFunc("GET "+routes.TwoFactor, Handle(deps, handleTwoFactorPage))
	mux.HandleFunc("POST "+routes.TwoFactor, Handle(deps, handleTwoFactor))
	mux.Handle("GET "+routes.Register, templ.Handler(pages.Register("")))
	mux.HandleFunc("POST "+routes.Register, Handle(deps, handleRegister))
	mux.HandleFunc("POST "+routes.Logout, Handle(deps, handleLogout))
	mux.HandleFunc("GET "+routes.ForgotPassword, func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(pages.ForgotPassword(r.URL.Query().Get("message"))).ServeHTTP(w, r)
	})
	mux.HandleFunc("POST "+routes.ForgotPassword, Handle(deps, handleForgotPassword))
	mux.HandleFunc("GET "+routes.ResetPassword, func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(pages.ResetPassword(r.URL.Query().Get("token"), "")).ServeHTTP(w, r)
	})
	mux.HandleFunc("POST "+routes.ResetPassword, Handle(deps, handleResetPassword))
	mux.HandleFunc("GET "+routes.VerifyEmail, Handle(deps, handleVerifyEmail))
	mux.HandleFunc("GET "+routes.OAuthLogin, Handle(deps, handleOAuthLogin))
	mux.HandleFunc("GET "+routes.OAuthCallback, Handle(deps, handleOAuthCallback))

	// Home redireciona para a listagem pública.
	mux.Handle("GET "+routes.Home+"{$}", http.RedirectHandler(routes.Posts, http.StatusFound))

	// Posts (HTML)
	mux.Handle("GET "+routes.Posts, optionalAuth(Handle(deps, handlePostList)))
	mux.Handle("GET "+routes.NewPost, requireAuth(Handle(deps, handleNewPostPage)))
	mux.Handle("GET "+routes.Post, optionalAuth(Handle(deps, handlePostDetail)))
	mux.Handle("POST "+routes.Posts, requireAuth(Handle(deps, handleCreatePost)))
	mux.Handle("GET "+routes.EditPost, requireAuth(Handle(deps, handleEditPostPage)))
	mux.Handle("POST "+routes.EditPost, requireAuth(Handle(deps, handleUpdatePost)))
	mux.Handle("POST "+routes.DeletePost, requireAuth(Handle(deps, handleDeletePost)))
	mux.Handle("POST "+routes.ReviewPost, requireAuth(Handle(deps, handleReviewPost)))
	mux.Handle("POST "+routes.CoverPost, requireAuth(Handle(deps, handleCoverUpload)))

	// Área logada
	mux.Handle("GET "+routes.Dashboard, requireAuth(Handle(deps, handleDashboard)))
	mux.Handle("GET "+routes.TwoFactorSetup, requireAuth(Handle(deps, handleTwoFactorSetupPage)))
	mux.Handle("POST "+routes.TwoFactorSetup, requireAuth(Handle(deps, handleTwoFactorSetup)))
	mux.Handle("POST "+routes.Avatar, requireAuth(Handle(deps, handleAvatarUpload)))

	// SSE
	mux.Handle("GET "+routes.Events, optionalAuth(Handle(deps, handleEvents)))

	// API JSON
	mux.Handle("GET "+routes.APIPosts, optionalAuth(Handle(deps, handleAPIListPosts)))
	mux.Handle("POST "+routes.APIPosts, optionalAuth(Handle(deps, handleAPICreatePost)))
	mux.Handle("GET "+routes.APIPost, optionalAuth(Handle(deps, handleAPIGetPost)))
	mux.Handle("PUT "+routes.APIPost, optionalAuth(Handle(deps, handleAPIUpdatePost)))
	mux.Handle("DELETE "+routes.APIPost, optionalAuth(Handle(deps, handleAPIDeletePost)))
	mux.Handle("POST "+routes.APIPostReview, optionalAuth(Handle(deps, handleAPIReviewPost)))
}
