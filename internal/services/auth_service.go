package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/PauloHFS/gothpress/internal/config"
	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/httpclient"
	"github.com/PauloHFS/gothpress/internal/routes"
	"github.com/PauloHFS/gothpress/internal/validator"
)

var (
	ErrInvalidToken = errors.New("token inválido ou expirado")
	ErrInvalidCode  = errors.New("código inválido")
)

type AuthService struct {
	queries *db.Queries
	db      *sql.DB
	config  *config.Config
	oauth   *oauth2.Config
	http    *httpclient.Client
}

func NewAuthService(queries *db.Queries, sqlDB *sql.DB, cfg *config.Config) *AuthService {
	s := &AuthService{
		queries: queries,
		db:      sqlDB,
		config:  cfg,
		http: httpclient.New(httpclient.Config{
			Name:         "oauth",
			Timeout:      10 * time.Second,
			MaxRetries:   2,
			RetryWaitMin: 200 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
		}),
	}

	if cfg.OAuthEnabled() {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.AppBaseURL + routes.OAuthCallback,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		}
	}

	return s
}

// OAuthEnabled diz se o login social está disponível nesta instância.
func (s *AuthService) OAuthEnabled() bool {
	return s.oauth != nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterOutput struct {
	Success bool
	Error   string
}

// Register cria o usuário e, na mesma transação, o token de verificação e o
// job que envia o e-mail. Ou tudo entra, ou nada entra.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) RegisterOutput {
	if input.Name == "" {
		return RegisterOutput{Success: false, Error: "Nome é obrigatório"}
	}

	validation := validator.ValidateRegistration(input.Email, input.Password)
	if !validation.Valid {
		errMsg := ""
		for _, e := range validation.Errors {
			errMsg += e.Message + " "
		}
		return RegisterOutput{Success: false, Error: errMsg}
	}

	_, err := s.queries.GetUserByEmail(ctx, input.Email)
	if err == nil {
		return RegisterOutput{Success: false, Error: "Este e-mail já está em uso"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterOutput{Success: false, Error: "Erro ao processar senha"}
	}

	token, err := generateToken()
	if err != nil {
		return RegisterOutput{Success: false, Error: "Erro interno"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RegisterOutput{Success: false, Error: "Erro interno"}
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	user, err := qtx.CreateUser(ctx, db.CreateUserParams{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		RoleID:       "user",
	})
	if err != nil {
		return RegisterOutput{Success: false, Error: "Erro ao criar usuário"}
	}

	if _, err := qtx.CreateEmailVerification(ctx, db.CreateEmailVerificationParams{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}); err != nil {
		return RegisterOutput{Success: false, Error: "Erro interno"}
	}

	jobPayload, _ := json.Marshal(map[string]string{
		"email": input.Email,
		"name":  input.Name,
		"token": token,
	})

	if _, err := qtx.CreateJob(ctx, db.CreateJobParams{
		UserID:  sql.NullInt64{Int64: user.ID, Valid: true},
		Type:    db.JobSendVerificationEmail,
		Payload: jobPayload,
	}); err != nil {
		return RegisterOutput{Success: false, Error: "Erro interno"}
	}

	if err := tx.Commit(); err != nil {
		return RegisterOutput{Success: false, Error: "Erro interno"}
	}

	return RegisterOutput{Success: true}
}

// VerifyEmail consome o token enviado por e-mail e marca a conta como
// verificada. Tokens usados são apagados; expirados, rejeitados.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}

	verification, err := s.queries.GetEmailVerificationByToken(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}

	if time.Now().After(verification.ExpiresAt) {
		_ = s.queries.DeleteEmailVerification(ctx, verification.ID)
		return ErrInvalidToken
	}

	if err := s.queries.MarkUserEmailVerified(ctx, verification.UserID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	return s.queries.DeleteEmailVerification(ctx, verification.ID)
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	Success bool
	Error   string
	User    *db.User
	// NeedsTOTP indica que a senha conferiu mas falta o segundo fator.
	// O handler guarda o id pendente na sessão e só loga após VerifyTOTP.
	NeedsTOTP bool
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) LoginOutput {
	if input.Email == "" || input.Password == "" {
		return LoginOutput{Success: false, Error: "Email e senha são obrigatórios"}
	}

	user, err := s.queries.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return LoginOutput{Success: false, Error: "Usuário ou senha inválidos"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return LoginOutput{Success: false, Error: "Usuário ou senha inválidos"}
	}

	if user.TotpEnabled != 0 {
		return LoginOutput{Success: true, User: &user, NeedsTOTP: true}
	}

	return LoginOutput{Success: true, User: &user}
}

// VerifyTOTP fecha o login em duas etapas: valida o código contra o segredo
// do usuário pendente.
func (s *AuthService) VerifyTOTP(ctx context.Context, userID int64, code string) (*db.User, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCode
	}

	if !user.TotpSecret.Valid || !totp.Validate(code, user.TotpSecret.String) {
		return nil, ErrInvalidCode
	}

	return &user, nil
}

type TOTPEnrollment struct {
	Secret string
	// URL otpauth:// para o app autenticador (QR code ou entrada manual).
	URL string
}

// EnrollTOTP gera e guarda um segredo novo, ainda desabilitado. O usuário
// precisa confirmar um código válido antes do 2FA passar a ser exigido.
func (s *AuthService) EnrollTOTP(ctx context.Context, userID int64) (*TOTPEnrollment, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "GOTHPress",
		AccountName: user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp secret: %w", err)
	}

	if err := s.queries.SetUserTotpSecret(ctx, db.SetUserTotpSecretParams{
		TotpSecret: sql.NullString{String: key.Secret(), Valid: true},
		ID:         userID,
	}); err != nil {
		return nil, fmt.Errorf("failed to store totp secret: %w", err)
	}

	return &TOTPEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmTOTP liga o 2FA depois que o usuário prova que o app autenticador
// está gerando códigos com o segredo recém-criado.
func (s *AuthService) ConfirmTOTP(ctx context.Context, userID int64, code string) error {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return ErrInvalidCode
	}

	if !user.TotpSecret.Valid || !totp.Validate(code, user.TotpSecret.String) {
		return ErrInvalidCode
	}

	return s.queries.EnableUserTotp(ctx, userID)
}

// OAuthLoginURL monta a URL de autorização do provedor com o state da
// sessão. O handler gera o state e valida no callback.
func (s *AuthService) OAuthLoginURL(state string) string {
	if s.oauth == nil {
		return ""
	}
	return s.oauth.AuthCodeURL(state)
}

type oauthUserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OAuthCallback troca o code por token, busca o perfil no provedor e
// resolve o usuário local: por vínculo OAuth, por e-mail já cadastrado
// (vinculando), ou criando a conta na hora.
func (s *AuthService) OAuthCallback(ctx context.Context, code string) LoginOutput {
	if s.oauth == nil {
		return LoginOutput{Success: false, Error: "Login social não está configurado"}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http.Client)

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return LoginOutput{Success: false, Error: "Não foi possível completar o login social"}
	}

	info, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return LoginOutput{Success: false, Error: "Não foi possível completar o login social"}
	}
	if info.Sub == "" || info.Email == "" {
		return LoginOutput{Success: false, Error: "Provedor não retornou e-mail"}
	}

	provider := sql.NullString{String: s.config.OAuthProvider, Valid: true}
	oauthID := sql.NullString{String: info.Sub, Valid: true}

	user, err := s.queries.GetUserByOauth(ctx, db.GetUserByOauthParams{
		OauthProvider: provider,
		OauthID:       oauthID,
	})
	if err == nil {
		return LoginOutput{Success: true, User: &user}
	}

	// E-mail já registrado com senha? Vincula o OAuth à conta existente.
	if existing, err := s.queries.GetUserByEmail(ctx, info.Email); err == nil {
		if err := s.queries.LinkUserOauth(ctx, db.LinkUserOauthParams{
			OauthProvider: provider,
			OauthID:       oauthID,
			ID:            existing.ID,
		}); err != nil {
			return LoginOutput{Success: false, Error: "Erro interno"}
		}
		existing.OauthProvider = provider
		existing.OauthID = oauthID
		return LoginOutput{Success: true, User: &existing}
	}

	created, err := s.createOAuthUser(ctx, info, provider, oauthID)
	if err != nil {
		return LoginOutput{Success: false, Error: "Erro ao criar usuário"}
	}

	return LoginOutput{Success: true, User: created}
}

func (s *AuthService) fetchUserInfo(ctx context.Context, accessToken string) (*oauthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.OAuthUserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info oauthUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &info, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, info *oauthUserInfo, provider, oauthID sql.NullString) (*db.User, error) {
	// Conta sem senha local: o hash vem de bytes aleatórios que ninguém
	// conhece, então o login por senha nunca confere.
	randomSecret, err := generateToken()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(randomSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash placeholder password: %w", err)
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	user, err := qtx.CreateUser(ctx, db.CreateUserParams{
		Name:         name,
		Email:        info.Email,
		PasswordHash: string(hash),
		RoleID:       "user",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	if err := qtx.LinkUserOauth(ctx, db.LinkUserOauthParams{
		OauthProvider: provider,
		OauthID:       oauthID,
		ID:            user.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to link oauth: %w", err)
	}

	// O provedor já validou a caixa de entrada.
	if err := qtx.MarkUserEmailVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	user.OauthProvider = provider
	user.OauthID = oauthID
	return &user, nil
}

type ForgotPasswordInput struct {
	Email string
}

type ForgotPasswordOutput struct {
	Success bool
	Message string
}

// ForgotPassword responde sempre a mesma mensagem, exista o e-mail ou não.
// Quando existe, grava o token e enfileira o envio.
func (s *AuthService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) ForgotPasswordOutput {
	neutral := ForgotPasswordOutput{Success: true, Message: "Se o e-mail existir, um link será enviado."}

	if err := validator.ValidateEmail(input.Email); err != nil {
		return ForgotPasswordOutput{Success: false, Message: err.Error()}
	}

	user, err := s.queries.GetUserByEmail(ctx, input.Email)
	if err != nil {
		return neutral
	}

	token, err := generateToken()
	if err != nil {
		return neutral
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return neutral
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if _, err := qtx.CreatePasswordReset(ctx, db.CreatePasswordResetParams{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}); err != nil {
		return neutral
	}

	jobPayload, _ := json.Marshal(map[string]string{
		"email": user.Email,
		"name":  user.Name,
		"token": token,
	})

	if _, err := qtx.CreateJob(ctx, db.CreateJobParams{
		UserID:  sql.NullInt64{Int64: user.ID, Valid: true},
		Type:    db.JobSendPasswordResetEmail,
		Payload: jobPayload,
	}); err != nil {
		return neutral
	}

	_ = tx.Commit()
	return neutral
}

type ResetPasswordInput struct {
	Token    string
	Password string
}

type ResetPasswordOutput struct {
	Success bool
	Error   string
}

func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) ResetPasswordOutput {
	if err := validator.ValidatePassword(input.Password); err != nil {
		return ResetPasswordOutput{Success: false, Error: err.Error()}
	}

	reset, err := s.queries.GetPasswordResetByToken(ctx, input.Token)
	if err != nil {
		return ResetPasswordOutput{Success: false, Error: "Token inválido ou expirado"}
	}

	if time.Now().After(reset.ExpiresAt) {
		_ = s.queries.DeletePasswordReset(ctx, reset.ID)
		return ResetPasswordOutput{Success: false, Error: "Token inválido ou expirado"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return ResetPasswordOutput{Success: false, Error: "Erro ao processar senha"}
	}

	if err := s.queries.UpdateUserPassword(ctx, db.UpdateUserPasswordParams{
		PasswordHash: string(hash),
		ID:           reset.UserID,
	}); err != nil {
		return ResetPasswordOutput{Success: false, Error: "Erro interno"}
	}

	if err := s.queries.DeletePasswordReset(ctx, reset.ID); err != nil {
		return ResetPasswordOutput{Success: false, Error: "Erro interno"}
	}

	return ResetPasswordOutput{Success: true}
}
