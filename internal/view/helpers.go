package view

import (
	"context"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/db"
)

// CSRFToken retorna o token do contexto
func CSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(contextkeys.CSRFTokenKey).(string); ok {
		return token
	}
	return ""
}

// CurrentUser retorna o usuário logado do contexto, se houver. As páginas
// usam isso para montar a navegação; decisões de autorização continuam
// vindo prontas dos handlers, nunca recalculadas aqui.
func CurrentUser(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(contextkeys.UserContextKey).(db.User)
	return user, ok
}
