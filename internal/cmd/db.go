package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/logging"
)

// serverDSN anexa os parâmetros de conexão que todo processo da aplicação
// usa, servidor e subcomandos igualmente.
func serverDSN(databaseURL string) string {
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=on"
}

// openDB abre uma conexão administrativa única com os mesmos pragmas do
// servidor. Subcomandos não precisam do pool de leitura/escrita.
func openDB() (*sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	conn, err := sql.Open("sqlite3", serverDSN(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := config.GetSQLiteConfig().ApplyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func RunMigrate() {
	logging.Init()
	logger := logging.Get()

	conn, err := openDB()
	if err != nil {
		logger.Error("migrate aborted", "error", err)
		return
	}
	defer conn.Close()

	if err := db.RunMigrations(context.Background(), conn); err != nil {
		logger.Error("failed to run migrations", "error", err)
		return
	}
	logger.Info("migrations executed successfully")
}

func RunSeed() {
	logging.Init()
	logger := logging.Get()

	conn, err := openDB()
	if err != nil {
		logger.Error("seed aborted", "error", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx, conn); err != nil {
		logger.Error("failed to run migrations during seed", "error", err)
		return
	}
	if err := db.Seed(ctx, conn); err != nil {
		logger.Error("failed to seed database", "error", err)
		return
	}
	logger.Info("database seeded successfully")
}
