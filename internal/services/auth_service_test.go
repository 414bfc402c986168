package services

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pquerna/otp/totp"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
)

func setupService(t *testing.T) (*AuthService, *sql.DB, *db.Queries) {
	t.Helper()

	tempFile, err := os.CreateTemp("", "gothpress_auth_test_*.db")
	if err != nil {
		t.Fatal(err)
	}
	tempFile.Close()
	dbPath := tempFile.Name()
	t.Cleanup(func() { os.Remove(dbPath) })

	dbConn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { dbConn.Close() })

	if err := db.RunMigrations(context.Background(), dbConn); err != nil {
		t.Fatalf("migração falhou: %v", err)
	}

	queries := db.New(dbConn)
	svc := NewAuthService(queries, dbConn, &config.Config{})
	return svc, dbConn, queries
}

func TestRegister_CriaUsuarioTokenEJob(t *testing.T) {
	svc, dbConn, queries := setupService(t)
	ctx := context.Background()

	out := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})
	if !out.Success {
		t.Fatalf("registro falhou: %s", out.Error)
	}

	user, err := queries.GetUserByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("usuário não foi criado: %v", err)
	}
	if user.Name != "Ana" || user.RoleID != "user" {
		t.Errorf("usuário criado errado: %+v", user)
	}
	if user.EmailVerifiedAt.Valid {
		t.Error("e-mail não deveria nascer verificado")
	}

	var token string
	err = dbConn.QueryRow("SELECT token FROM email_verifications WHERE user_id = ?", user.ID).Scan(&token)
	if err != nil {
		t.Fatalf("token de verificação não foi criado: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token deveria ter 64 hex chars, veio %d", len(token))
	}

	job, err := queries.PickNextJob(ctx)
	if err != nil {
		t.Fatalf("job de e-mail não foi enfileirado: %v", err)
	}
	if job.Type != db.JobSendVerificationEmail {
		t.Errorf("tipo do job = %s, esperava %s", job.Type, db.JobSendVerificationEmail)
	}
}

func TestRegister_EmailDuplicado(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	input := RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"}
	if out := svc.Register(ctx, input); !out.Success {
		t.Fatalf("primeiro registro falhou: %s", out.Error)
	}

	out := svc.Register(ctx, input)
	if out.Success {
		t.Error("segundo registro com mesmo e-mail deveria falhar")
	}
}

func TestVerifyEmail(t *testing.T) {
	svc, dbConn, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	var token string
	if err := dbConn.QueryRow("SELECT token FROM email_verifications WHERE user_id = ?", user.ID).Scan(&token); err != nil {
		t.Fatal(err)
	}

	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("verificação falhou: %v", err)
	}

	user, _ = queries.GetUserByID(ctx, user.ID)
	if !user.EmailVerifiedAt.Valid {
		t.Error("e-mail deveria estar verificado")
	}

	// Token é de uso único.
	if err := svc.VerifyEmail(ctx, token); err == nil {
		t.Error("token já usado deveria falhar")
	}
}

func TestVerifyEmail_TokenInvalido(t *testing.T) {
	svc, _, _ := setupService(t)

	if err := svc.VerifyEmail(context.Background(), "nope"); err == nil {
		t.Error("token inexistente deveria falhar")
	}
	if err := svc.VerifyEmail(context.Background(), ""); err == nil {
		t.Error("token vazio deveria falhar")
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})

	tests := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{"credenciais corretas", "ana@example.com", "senha-forte-123", true},
		{"senha errada", "ana@example.com", "outra-senha", false},
		{"usuário inexistente", "bob@example.com", "senha-forte-123", false},
		{"campos vazios", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := svc.Login(ctx, LoginInput{Email: tt.email, Password: tt.password})
			if out.Success != tt.want {
				t.Errorf("Login() success = %v, esperava %v (%s)", out.Success, tt.want, out.Error)
			}
			if tt.want && out.User == nil {
				t.Error("login com sucesso deveria retornar o usuário")
			}
		})
	}
}

func TestLogin_ComTotpPedeSegundoFator(t *testing.T) {
	svc, _, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	enrollment, err := svc.EnrollTOTP(ctx, user.ID)
	if err != nil {
		t.Fatalf("enroll falhou: %v", err)
	}

	// Antes de confirmar, o login segue direto.
	out := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "senha-forte-123"})
	if !out.Success || out.NeedsTOTP {
		t.Fatalf("2FA não confirmado não deveria ser exigido: %+v", out)
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmTOTP(ctx, user.ID, code); err != nil {
		t.Fatalf("confirmação falhou: %v", err)
	}

	out = svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "senha-forte-123"})
	if !out.Success || !out.NeedsTOTP {
		t.Fatalf("com 2FA ligado o login deveria pedir o código: %+v", out)
	}

	// Código válido fecha o login.
	code, _ = totp.GenerateCode(enrollment.Secret, time.Now())
	verified, err := svc.VerifyTOTP(ctx, user.ID, code)
	if err != nil {
		t.Fatalf("código válido rejeitado: %v", err)
	}
	if verified.ID != user.ID {
		t.Error("VerifyTOTP retornou outro usuário")
	}

	if _, err := svc.VerifyTOTP(ctx, user.ID, "000000"); err == nil {
		t.Error("código inválido deveria falhar")
	}
}

func TestConfirmTOTP_CodigoErradoNaoLiga(t *testing.T) {
	svc, _, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	if _, err := svc.EnrollTOTP(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmTOTP(ctx, user.ID, "000000"); err == nil {
		t.Error("código errado não deveria ligar o 2FA")
	}

	user, _ = queries.GetUserByID(ctx, user.ID)
	if user.TotpEnabled != 0 {
		t.Error("2FA não deveria estar habilitado")
	}
}

func TestForgotPassword_MesmaMensagemSempre(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})

	existente := svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ana@example.com"})
	inexistente := svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ghost@example.com"})

	if existente.Message != inexistente.Message {
		t.Error("resposta não pode revelar se o e-mail existe")
	}
	if !existente.Success || !inexistente.Success {
		t.Error("ambas as respostas deveriam ser neutras e de sucesso")
	}
}

func TestForgotPassword_EnfileiraJobQuandoExiste(t *testing.T) {
	svc, dbConn, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-forte-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	// Consome o job de verificação criado no registro.
	if job, err := queries.PickNextJob(ctx); err == nil {
		queries.CompleteJob(ctx, job.ID)
	}

	svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ana@example.com"})

	var count int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM password_resets WHERE user_id = ?", user.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("esperava 1 reset gravado, achei %d", count)
	}

	job, err := queries.PickNextJob(ctx)
	if err != nil {
		t.Fatalf("job de reset não foi enfileirado: %v", err)
	}
	if job.Type != db.JobSendPasswordResetEmail {
		t.Errorf("tipo do job = %s, esperava %s", job.Type, db.JobSendPasswordResetEmail)
	}
}

func TestResetPassword_RoundTrip(t *testing.T) {
	svc, dbConn, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-antiga-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ana@example.com"})

	var token string
	if err := dbConn.QueryRow("SELECT token FROM password_resets WHERE user_id = ?", user.ID).Scan(&token); err != nil {
		t.Fatal(err)
	}

	out := svc.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "senha-nova-456"})
	if !out.Success {
		t.Fatalf("reset falhou: %s", out.Error)
	}

	if login := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "senha-nova-456"}); !login.Success {
		t.Error("senha nova deveria logar")
	}
	if login := svc.Login(ctx, LoginInput{Email: "ana@example.com", Password: "senha-antiga-123"}); login.Success {
		t.Error("senha antiga não deveria mais logar")
	}

	// Token é de uso único.
	out = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "senha-outra-789"})
	if out.Success {
		t.Error("token já usado deveria falhar")
	}
}

func TestResetPassword_TokenExpirado(t *testing.T) {
	svc, dbConn, queries := setupService(t)
	ctx := context.Background()

	svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "senha-antiga-123"})
	user, _ := queries.GetUserByEmail(ctx, "ana@example.com")

	if _, err := queries.CreatePasswordReset(ctx, db.CreatePasswordResetParams{
		UserID:    user.ID,
		Token:     "tok-expirado",
		ExpiresAt: time.Now().Add(-1 * time.Minute),
	}); err != nil {
		t.Fatal(err)
	}

	out := svc.ResetPassword(ctx, ResetPasswordInput{Token: "tok-expirado", Password: "senha-nova-456"})
	if out.Success {
		t.Error("token expirado deveria falhar")
	}

	var count int
	dbConn.QueryRow("SELECT COUNT(*) FROM password_resets WHERE token = 'tok-expirado'").Scan(&count)
	if count != 0 {
		t.Error("token expirado deveria ser apagado ao ser rejeitado")
	}
}

func TestOAuth_DesligadoPorPadrao(t *testing.T) {
	svc, _, _ := setupService(t)

	if svc.OAuthEnabled() {
		t.Error("OAuth sem config não deveria estar habilitado")
	}
	if url := svc.OAuthLoginURL("state"); url != "" {
		t.Errorf("URL de login social sem config deveria ser vazia, veio %q", url)
	}

	out := svc.OAuthCallback(context.Background(), "code")
	if out.Success {
		t.Error("callback sem config deveria falhar")
	}
}
