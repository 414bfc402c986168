package cmd

import (
	"context"
	"database/sql"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/klauspost/compress/gzhttp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/PauloHFS/gothpress/docs"
	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/policies"
	"github.com/PauloHFS/gothpress/internal/roles"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/services"
	"github.com/PauloHFS/gothpress/internal/sse"
	"github.com/PauloHFS/gothpress/internal/telemetry"
	"github.com/PauloHFS/gothpress/internal/web"
	"github.com/PauloHFS/gothpress/internal/webhook"
	"github.com/PauloHFS/gothpress/internal/worker"
)

// @title GOTHPress API
// @version 1.0
// @description API do GOTHPress: blog com posts, autorização por dono e fila de moderação.
// @host localhost:8080
// @BasePath /
func RunServer(assetsFS embed.FS) {
	logging.Init()
	logger := logging.Get()

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "failed to load config", err)
	}

	shutdownTracing, err := telemetry.Init(context.Background(), cfg)
	if err != nil {
		fatal(logger, "failed to init tracing", err)
	}

	// Pools separados de leitura e escrita sobre o mesmo arquivo. WAL
	// aceita leitores concorrentes mas um escritor por vez, então o pool
	// de escrita fica em uma conexão.
	pool, err := db.NewDualPool("sqlite3", serverDSN(cfg.DatabaseURL), config.GetSQLiteConfig())
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	defer pool.Close()

	// Raiz de storage; subdiretórios nascem no upload.
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		fatal(logger, "failed to create storage directory", err)
	}

	queries := pool.QueriesWrite()
	readQueries := pool.Queries()

	if err := db.RunMigrations(context.Background(), pool.Write); err != nil {
		fatal(logger, "failed to run migrations", err)
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(pool.Write)

	// Autorização: regras de dono por recurso + before-hook de papéis.
	evaluator := policies.NewEvaluator()
	policies.RegisterPostPolicy(evaluator)
	policies.RegisterUserPolicy(evaluator)

	roleSvc, err := roles.New(cfg.CasbinPolicy, logger)
	if err != nil {
		fatal(logger, "failed to load role policy", err)
	}
	evaluator.Before(roles.BeforeHook(roleSvc))

	broker := sse.NewBroker()

	// O mesmo contexto derruba o watcher de políticas, o worker e o laço
	// principal quando chega SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := roleSvc.Watch(ctx); err != nil {
			logger.Error("policy watcher stopped", "error", err)
		}
	}()

	w := worker.New(cfg, pool.Write, queries, logger, broker)
	if err := w.RescueZombies(ctx); err != nil {
		logger.Error("zombie hunter failed", "error", err)
	}
	go w.Start(ctx)

	mux := http.NewServeMux()
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))
	mux.Handle("GET /storage/", http.StripPrefix("/storage/", http.FileServer(http.Dir(cfg.UploadDir))))
	mux.Handle("GET "+routes.Metrics, promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /webhooks/{source}", webhook.NewHandler(queries, broker, cfg.WebhookSecret))
	mux.HandleFunc("GET "+routes.Health, healthHandler(pool, cfg.UploadDir, logger))

	web.RegisterRoutes(mux, web.HandlerDeps{
		DB:             pool.Write,
		Queries:        queries,
		ReadQueries:    readQueries,
		SessionManager: sessionManager,
		Config:         cfg,
		Auth:           services.NewAuthService(queries, pool.Write, cfg),
		Evaluator:      evaluator,
		Roles:          roleSvc,
		Broker:         broker,
		Sanitizer:      bluemonday.UGCPolicy(),
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	// Da borda para dentro; sessão e CSRF ficam grudados no mux.
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery,
		middleware.RateLimitDefault,
		middleware.SecurityHeaders(cfg.Env == "prod"),
		middleware.CORS(corsCfg),
		middleware.Logger,
		middleware.Locale,
		sessionManager.LoadAndSave,
		middleware.CSRF(cfg.Env == "prod"),
	}
	var handler http.Handler = mux
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           gzhttp.GzipHandler(handler),
		ReadHeaderTimeout: 5 * time.Second,
		// Sem WriteTimeout: o stream de eventos é uma resposta sem fim.
		IdleTimeout: 2 * time.Minute,
	}

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("server stopping")

	// Broker primeiro: fechar os streams destrava o drain do servidor.
	broker.Shutdown()
	w.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", "error", err)
	}

	logger.Info("server exited properly")
}

// fatal é para falha de boot, antes de o servidor aceitar tráfego.
func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

// healthHandler responde 200 quando os dois pools respondem e o disco da
// área de upload tem folga. Fila atolada gera warning sem derrubar o
// status; o servidor em si continua servindo.
func healthHandler(pool *db.DualPool, uploadDir string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pools := map[string]*sql.DB{"read": pool.Read, "write": pool.Write}
		for side, conn := range pools {
			if err := conn.PingContext(r.Context()); err != nil {
				logger.Error("health check failed", "pool", side, "error", err)
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}

		var dead, pending int
		_ = pool.Read.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM dead_letter_jobs").Scan(&dead)
		_ = pool.Read.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM jobs WHERE status = 'pending'").Scan(&pending)
		if dead > 50 || pending > 1000 {
			logger.Warn("job queue backed up", "dead_letter", dead, "pending", pending)
		}

		if free, ok := freeDiskBytes(uploadDir); ok && free < 100<<20 {
			logger.Error("health check failed", "reason", "low disk space", "free_bytes", free)
			http.Error(w, "low disk space", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// freeDiskBytes devolve o espaço livre no filesystem do caminho; ok=false
// quando o statfs falha, e o health não reprova por isso.
func freeDiskBytes(path string) (uint64, bool) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, false
	}
	return stat.Bavail * uint64(stat.Bsize), true
}
