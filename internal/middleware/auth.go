package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/alexedwards/scs/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache de usuários para não bater no banco a cada request.
// Entradas expiram em 30s: mudanças de role/perfil levam no máximo
// isso para aparecer, a menos que InvalidateUser seja chamado.
var userCache = expirable.NewLRU[int64, db.User](1024, nil, 30*time.Second)

func RequireAuth(sm *scs.SessionManager, queries *db.Queries, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.GetInt64(r.Context(), "user_id")
		if userID == 0 {
			redirectLogin(w, r)
			return
		}

		user, err := loadUser(r.Context(), queries, userID)
		if err != nil {
			_ = sm.Destroy(r.Context())
			redirectLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth popula o usuário no contexto quando há sessão, mas deixa
// o request seguir anônimo quando não há. As rotas públicas do blog
// precisam disso: a listagem renderiza para qualquer um, e os botões de
// editar/excluir dependem de saber QUEM está olhando.
func OptionalAuth(sm *scs.SessionManager, queries *db.Queries, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := sm.GetInt64(r.Context(), "user_id")
		if userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		user, err := loadUser(r.Context(), queries, userID)
		if err != nil {
			// Sessão órfã (usuário excluído). Segue anônimo.
			_ = sm.Destroy(r.Context())
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loadUser(ctx context.Context, queries *db.Queries, userID int64) (db.User, error) {
	if user, ok := userCache.Get(userID); ok {
		return user, nil
	}

	user, err := queries.GetUserByID(ctx, userID)
	if err != nil {
		return db.User{}, err
	}

	userCache.Add(userID, user)
	return user, nil
}

// InvalidateUser derruba a entrada do cache. Chamar após alterar
// perfil ou role para a mudança valer no request seguinte.
func InvalidateUser(userID int64) {
	userCache.Remove(userID)
}

func redirectLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", routes.Login)
	} else {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
	}
}

// GetUser recupera o usuário do contexto de forma segura
func GetUser(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(contextkeys.UserContextKey).(db.User)
	return user, ok
}

// ActorFrom converte o usuário do contexto (se houver) no ator das
// decisões de autorização. Retorna a interface nil para requests
// anônimos, nunca um ponteiro nil embrulhado.
func ActorFrom(ctx context.Context) policies.Actor {
	user, ok := GetUser(ctx)
	if !ok {
		return nil
	}
	return user
}
