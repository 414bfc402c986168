package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/PauloHFS/gothpress/internal/logging"
)

// Recovery transforma panics em 500 com stack no log. http.ErrAbortHandler
// sobe de novo: é o sinal padrão para derrubar a conexão sem barulho, e o
// net/http já o trata.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			attrs := []any{
				slog.Any("panic", rec),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("stack", string(debug.Stack())),
			}
			// O Logger roda mais para dentro, mas já carimbou o header.
			if id := w.Header().Get("X-Request-ID"); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logging.Get().Error("panic recovered", attrs...)

			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
