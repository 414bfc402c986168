package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/justinas/nosurf"
)

// CSRF protege os formulários com double-submit cookie e deixa o token da
// request no contexto, de onde o layout o lê. Rotas de API e de webhook
// ficam isentas: cliente JSON não carrega token de formulário e webhook é
// autenticado pela assinatura HMAC.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// O nosurf precisa envolver a injeção; fora dele o token ainda
		// não existe e Token devolve vazio.
		h := nosurf.New(InjectCSRF(next))
		h.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   secure,
		})
		h.ExemptFunc(func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/api/v1/") ||
				strings.HasPrefix(r.URL.Path, "/webhooks/")
		})
		h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logging.Get().Warn("csrf check failed",
				"path", r.URL.Path,
				"reason", nosurf.Reason(r).Error(),
			)
			http.Error(w, "Invalid CSRF token", http.StatusBadRequest)
		}))
		return h
	}
}

// InjectCSRF deixa o token da request no contexto, de onde o layout o lê.
// Precisa rodar por dentro do nosurf; fora dele o token ainda não existe e
// Token devolve vazio.
func InjectCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contextkeys.CSRFTokenKey, nosurf.Token(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
