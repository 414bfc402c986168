package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/PauloHFS/gothpress/internal/contextkeys"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/metrics"
	"github.com/PauloHFS/gothpress/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// responseWriter observa status e bytes escritos. status zero significa
// que o handler ainda não escreveu nada.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status != 0 {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Flush repassa para o writer de baixo. Sem isso o SSE não conseguiria
// empurrar eventos através do wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		if rw.status == 0 {
			rw.WriteHeader(http.StatusOK)
		}
		f.Flush()
	}
}

func (rw *responseWriter) statusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// Logger abre o wide event do request, propaga X-Request-ID e fecha o span
// de trace. Tudo que os handlers acumularam via logging.AddToEvent sai numa
// linha única aqui.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx, event := logging.NewEventContext(r.Context())
		ctx = context.WithValue(ctx, contextkeys.RequestIDKey, requestID)

		ctx, span := telemetry.Tracer().Start(ctx, r.Method+" "+r.URL.Path)
		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.String("request_id", requestID),
		)

		event.Add(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)

		rw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(rw, r.WithContext(ctx))

		status := rw.statusCode()
		duration := time.Since(start)

		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.End()

		event.Add(
			slog.Int("status", status),
			slog.Int("size", rw.size),
			slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
		)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, strconv.Itoa(status)).Inc()

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}

		logging.Get().LogAttrs(ctx, level, "request completed", event.Attrs()...)
	})
}

// RequestID devolve o id do request corrente, vazio fora de um request.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextkeys.RequestIDKey).(string)
	return id
}
