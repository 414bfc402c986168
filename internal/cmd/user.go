package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"github.com/PauloHFS/gothpress/internal/db"
)

var knownRoles = []string{"user", "moderator", "admin"}

// RunCreateUser cria uma conta direto no banco, sem passar pelo fluxo de
// registro. Como nenhum e-mail de verificação é enviado, a conta já nasce
// verificada.
func RunCreateUser() {
	if len(os.Args) < 5 {
		fmt.Println("Usage: create-user <name> <email> <password> [role]")
		os.Exit(1)
	}
	name, email, password := os.Args[2], os.Args[3], os.Args[4]

	role := "user"
	if len(os.Args) > 5 {
		role = os.Args[5]
	}
	if !slices.Contains(knownRoles, role) {
		fmt.Printf("unknown role %q (valid: %v)\n", role, knownRoles)
		os.Exit(1)
	}

	conn, err := openDB()
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	queries := db.New(conn)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("failed to hash password: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	user, err := queries.CreateUser(ctx, db.CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       role,
	})
	if err != nil {
		fmt.Printf("failed to create user: %v\n", err)
		os.Exit(1)
	}
	if err := queries.MarkUserEmailVerified(ctx, user.ID); err != nil {
		fmt.Printf("failed to mark email verified: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User %s <%s> created with role %s\n", name, email, role)
}
