package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
)

func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := "pt"

		// 1. Query param troca o idioma e grava o cookie
		if lang := r.URL.Query().Get("lang"); lang == "pt" || lang == "en" {
			locale = lang
			http.SetCookie(w, &http.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   365 * 24 * 3600,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		} else if cookie, err := r.Cookie("lang"); err == nil {
			// 2. Cookie (preferência manual)
			locale = cookie.Value
		} else if accept := r.Header.Get("Accept-Language"); strings.HasPrefix(accept, "en") {
			// 3. Header Accept-Language
			locale = "en"
		}

		ctx := context.WithValue(r.Context(), contextkeys.LocaleKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
