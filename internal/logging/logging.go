package logging

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

type contextKey string

const eventKey contextKey = "event"

var (
	setup  sync.Once
	logger *slog.Logger
)

// Init monta o logger JSON global e o instala como default do slog.
// Idempotente: o primeiro de Init ou Get vence.
func Init() {
	setup.Do(func() {
		version := os.Getenv("VERSION")
		if version == "" {
			version = "dev"
		}

		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelFromEnv()})
		logger = slog.New(h).With(
			slog.String("service", "gothpress-api"),
			slog.String("version", version),
		)
		slog.SetDefault(logger)
	})
}

// Get devolve o logger global, inicializando na primeira chamada.
func Get() *slog.Logger {
	Init()
	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Event acumula atributos durante um request para sair numa linha só no
// final (wide event). Seguro para uso concorrente.
type Event struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

func (e *Event) Add(attrs ...slog.Attr) {
	e.mu.Lock()
	e.attrs = append(e.attrs, attrs...)
	e.mu.Unlock()
}

// Attrs devolve uma cópia dos atributos acumulados, pronta para LogAttrs.
func (e *Event) Attrs() []slog.Attr {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.attrs)
}

// NewEventContext pendura um Event vazio no contexto.
func NewEventContext(ctx context.Context) (context.Context, *Event) {
	e := &Event{}
	return context.WithValue(ctx, eventKey, e), e
}

// AddToEvent acumula atributos no Event do contexto. Fora de um request,
// sem Event por perto, é um no-op.
func AddToEvent(ctx context.Context, attrs ...slog.Attr) {
	if e, ok := ctx.Value(eventKey).(*Event); ok {
		e.Add(attrs...)
	}
}
