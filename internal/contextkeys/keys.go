// Package contextkeys reúne as chaves de contexto que a cadeia de
// middleware compartilha com handlers e views.
package contextkeys

type contextKey string

const (
	// UserContextKey carrega o db.User autenticado; OptionalAuth e
	// RequireAuth são quem escrevem nela.
	UserContextKey contextKey = "user"
	LocaleKey      contextKey = "locale"
	CSRFTokenKey   contextKey = "csrf_token"
	RequestIDKey   contextKey = "request_id"
)
