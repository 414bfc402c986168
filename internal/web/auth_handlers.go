package web

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/middleware"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/services"
	"github.com/PauloHFS/gothpress/internal/upload"
	"github.com/PauloHFS/gothpress/internal/view/pages"
)

const (
	sessionUserID      = "user_id"
	sessionPendingTOTP = "pending_totp_user_id"
	sessionOAuthState  = "oauth_state"
)

func handleLoginPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	message := r.URL.Query().Get("message")
	templ.Handler(pages.Login(message, "", deps.Auth.OAuthEnabled())).ServeHTTP(w, r)
	return nil
}

func handleLogin(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	email := r.FormValue("email")

	emailDomain := ""
	if idx := strings.Index(email, "@"); idx > 0 {
		emailDomain = email[idx+1:]
	}
	logging.AddToEvent(r.Context(),
		slog.String("operation", "login"),
		slog.String("email_domain", emailDomain),
	)

	out := deps.Auth.Login(r.Context(), services.LoginInput{
		Email:    email,
		Password: r.FormValue("password"),
	})
	if !out.Success {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		templ.Handler(pages.Login("", out.Error, deps.Auth.OAuthEnabled())).ServeHTTP(w, r)
		return nil
	}

	// Sessão nova após autenticar, contra fixation.
	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	if out.NeedsTOTP {
		deps.SessionManager.Put(r.Context(), sessionPendingTOTP, out.User.ID)
		http.Redirect(w, r, routes.TwoFactor, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("user_id", out.User.ID),
		slog.String("user_role", out.User.RoleID),
	)

	deps.SessionManager.Put(r.Context(), sessionUserID, out.User.ID)
	http.Redirect(w, r, routes.Dashboard, http.StatusSeeOther)
	return nil
}

func handleTwoFactorPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if deps.SessionManager.GetInt64(r.Context(), sessionPendingTOTP) == 0 {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}
	templ.Handler(pages.TwoFactor("")).ServeHTTP(w, r)
	return nil
}

func handleTwoFactor(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	pendingID := deps.SessionManager.GetInt64(r.Context(), sessionPendingTOTP)
	if pendingID == 0 {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(),
		slog.String("operation", "login_totp"),
		slog.Int64("user_id", pendingID),
	)

	user, err := deps.Auth.VerifyTOTP(r.Context(), pendingID, r.FormValue("code"))
	if err != nil {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		templ.Handler(pages.TwoFactor("Código inválido")).ServeHTTP(w, r)
		return nil
	}

	deps.SessionManager.Remove(r.Context(), sessionPendingTOTP)
	deps.SessionManager.Put(r.Context(), sessionUserID, user.ID)

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	http.Redirect(w, r, routes.Dashboard, http.StatusSeeOther)
	return nil
}

func handleRegister(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	email := r.FormValue("email")

	emailDomain := ""
	if idx := strings.Index(email, "@"); idx > 0 {
		emailDomain = email[idx+1:]
	}
	logging.AddToEvent(r.Context(),
		slog.String("operation", "register"),
		slog.String("email_domain", emailDomain),
	)

	out := deps.Auth.Register(r.Context(), services.RegisterInput{
		Name:     r.FormValue("name"),
		Email:    email,
		Password: r.FormValue("password"),
	})
	if !out.Success {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		templ.Handler(pages.Register(strings.TrimSpace(out.Error))).ServeHTTP(w, r)
		return nil
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithMessage(w, r, routes.Login, "Conta criada! Verifique seu e-mail.")
	return nil
}

func handleLogout(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if user, ok := middleware.GetUser(r.Context()); ok {
		middleware.InvalidateUser(user.ID)
	}
	if err := deps.SessionManager.Destroy(r.Context()); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
	return nil
}

func handleForgotPassword(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "forgot_password"))

	out := deps.Auth.ForgotPassword(r.Context(), services.ForgotPasswordInput{
		Email: r.FormValue("email"),
	})

	templ.Handler(pages.ForgotPassword(out.Message)).ServeHTTP(w, r)
	return nil
}

func handleResetPassword(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	token := r.FormValue("token")

	logging.AddToEvent(r.Context(), slog.String("operation", "reset_password"))

	out := deps.Auth.ResetPassword(r.Context(), services.ResetPasswordInput{
		Token:    token,
		Password: r.FormValue("password"),
	})
	if !out.Success {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		templ.Handler(pages.ResetPassword(token, out.Error)).ServeHTTP(w, r)
		return nil
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithMessage(w, r, routes.Login, "Senha alterada com sucesso")
	return nil
}

func handleVerifyEmail(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "verify_email"))

	if err := deps.Auth.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		redirectWithMessage(w, r, routes.Login, "Link inválido ou expirado")
		return nil
	}

	logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
	redirectWithMessage(w, r, routes.Login, "E-mail verificado com sucesso")
	return nil
}

// handleOAuthLogin inicia o code flow: state aleatório na sessão e
// redirect para o provedor.
func handleOAuthLogin(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	if !deps.Auth.OAuthEnabled() {
		notFound(w, r)
		return nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)

	deps.SessionManager.Put(r.Context(), sessionOAuthState, state)
	http.Redirect(w, r, deps.Auth.OAuthLoginURL(state), http.StatusSeeOther)
	return nil
}

func handleOAuthCallback(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	logging.AddToEvent(r.Context(), slog.String("operation", "oauth_callback"))

	wantState := deps.SessionManager.PopString(r.Context(), sessionOAuthState)
	if wantState == "" || r.URL.Query().Get("state") != wantState {
		logging.AddToEvent(r.Context(),
			slog.String("outcome", "error"),
			slog.String("error_reason", "state_mismatch"),
		)
		templ.Handler(pages.Login("", "Login social falhou, tente de novo", true)).ServeHTTP(w, r)
		return nil
	}

	out := deps.Auth.OAuthCallback(r.Context(), r.URL.Query().Get("code"))
	if !out.Success {
		logging.AddToEvent(r.Context(), slog.String("outcome", "error"))
		templ.Handler(pages.Login("", out.Error, true)).ServeHTTP(w, r)
		return nil
	}

	if err := deps.SessionManager.RenewToken(r.Context()); err != nil {
		return fmt.Errorf("failed to renew session: %w", err)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.Int64("user_id", out.User.ID),
	)

	deps.SessionManager.Put(r.Context(), sessionUserID, out.User.ID)
	http.Redirect(w, r, routes.Dashboard, http.StatusSeeOther)
	return nil
}

// handleTwoFactorSetupPage mostra o estado do 2FA da conta logada.
func handleTwoFactorSetupPage(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	enabled := user.TotpEnabled != 0
	secret := ""
	url := ""
	if !enabled && user.TotpSecret.Valid {
		// Enroll começou mas não foi confirmado; reexibe para terminar.
		secret = user.TotpSecret.String
	}

	templ.Handler(pages.TwoFactorSetup(secret, url, "", enabled)).ServeHTTP(w, r)
	return nil
}

func handleTwoFactorSetup(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(),
		slog.String("operation", "totp_setup"),
		slog.Int64("user_id", user.ID),
	)

	if r.FormValue("step") == "confirm" {
		if err := deps.Auth.ConfirmTOTP(r.Context(), user.ID, r.FormValue("code")); err != nil {
			secret := ""
			if user.TotpSecret.Valid {
				secret = user.TotpSecret.String
			}
			templ.Handler(pages.TwoFactorSetup(secret, "", "Código inválido", false)).ServeHTTP(w, r)
			return nil
		}

		middleware.InvalidateUser(user.ID)
		logging.AddToEvent(r.Context(), slog.String("outcome", "success"))
		redirectWithMessage(w, r, routes.Dashboard, "2FA ativado")
		return nil
	}

	enrollment, err := deps.Auth.EnrollTOTP(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to enroll totp: %w", err)
	}
	middleware.InvalidateUser(user.ID)

	templ.Handler(pages.TwoFactorSetup(enrollment.Secret, enrollment.URL, "", false)).ServeHTTP(w, r)
	return nil
}

// handleAvatarUpload troca a foto de perfil do usuário logado. Perfil é
// recurso do próprio dono; a política de user decide.
func handleAvatarUpload(deps HandlerDeps, w http.ResponseWriter, r *http.Request) error {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Redirect(w, r, routes.Login, http.StatusSeeOther)
		return nil
	}

	logging.AddToEvent(r.Context(),
		slog.String("operation", "avatar_upload"),
		slog.Int64("user_id", user.ID),
	)

	result, err := upload.SaveFile(r, "avatar", deps.Config.UploadDir, upload.AvatarConfig)
	if err != nil {
		if upload.IsUploadError(err) {
			logging.AddToEvent(r.Context(),
				slog.String("outcome", "error"),
				slog.String("error_reason", "validation_failed"),
			)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil
		}
		return fmt.Errorf("failed to save avatar: %w", err)
	}

	if err := deps.Queries.UpdateUserAvatar(r.Context(), db.UpdateUserAvatarParams{
		AvatarPath: sql.NullString{String: result.URL, Valid: true},
		ID:         user.ID,
	}); err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	middleware.InvalidateUser(user.ID)

	if user.AvatarPath.Valid {
		_ = upload.Remove(deps.Config.UploadDir, user.AvatarPath.String)
	}

	logging.AddToEvent(r.Context(),
		slog.String("outcome", "success"),
		slog.String("avatar_url", result.URL),
	)

	http.Redirect(w, r, routes.Dashboard, http.StatusSeeOther)
	return nil
}
