package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/PauloHFS/gothpress/internal/logging"
)

// Seed cria o usuário admin e um post de boas-vindas. Idempotente: rodar
// de novo sobre um banco populado não duplica nada.
func Seed(ctx context.Context, dbConn *sql.DB) error {
	queries := New(dbConn)

	if _, err := queries.GetUserByEmail(ctx, "admin@admin.com"); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	admin, err := queries.CreateUser(ctx, CreateUserParams{
		Name:         "Admin",
		Email:        "admin@admin.com",
		PasswordHash: string(hash),
		RoleID:       "admin",
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	_, err = queries.CreatePost(ctx, CreatePostParams{
		UserID:  admin.ID,
		Title:   "Bem-vindo ao GOTHPress",
		Content: "Este é o primeiro post do blog. Edite ou delete à vontade: você é o dono.",
	})
	if err != nil {
		return fmt.Errorf("failed to seed welcome post: %w", err)
	}

	logging.Get().Info("database seeded successfully",
		slog.String("admin_email", "admin@admin.com"),
		slog.String("default_password", "admin123"),
	)
	return nil
}
