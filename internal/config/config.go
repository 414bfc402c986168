package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppBaseURL  string // usado em links de e-mail e redirects OAuth

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Quando presente, o Resend entra como provedor de fallback do SMTP.
	ResendAPIKey string

	SessionSecret string
	WebhookSecret string // HMAC dos webhooks de moderação

	// Caminho opcional de policy casbin em disco. Vazio usa a embutida.
	CasbinPolicy string

	// Origens externas liberadas na API JSON. Vazio reflete qualquer origem.
	CORSAllowedOrigins []string

	UploadDir string

	OAuthProvider     string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// "none", "stdout", "otlp-grpc" ou "otlp-http"
	OtelExporter string
	OtelEndpoint string

	Env string // "dev" or "prod"
}

// Load resolve a configuração em três camadas: defaults, arquivo YAML
// opcional (CONFIG_FILE) e variáveis de ambiente, que sempre vencem.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fileVals, err := loadConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	get := func(key, fallback string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		if value, ok := fileVals[key]; ok && value != "" {
			return value
		}
		return fallback
	}

	cfg := &Config{
		Port:        get("PORT", "8080"),
		DatabaseURL: get("DATABASE_URL", "./gothpress.db"),
		AppBaseURL:  get("APP_BASE_URL", "http://localhost:8080"),

		SMTPHost: get("SMTP_HOST", "localhost"),
		SMTPPort: get("SMTP_PORT", "1025"),
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		SMTPFrom: get("SMTP_FROM", "noreply@gothpress.com"),

		ResendAPIKey: get("RESEND_API_KEY", ""),

		SessionSecret: get("SESSION_SECRET", ""),
		WebhookSecret: get("WEBHOOK_SECRET", ""),

		CasbinPolicy: get("CASBIN_POLICY", ""),

		CORSAllowedOrigins: splitCSV(get("CORS_ALLOWED_ORIGINS", "")),

		UploadDir: get("UPLOAD_DIR", "storage"),

		OAuthProvider:     get("OAUTH_PROVIDER", ""),
		OAuthClientID:     get("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: get("OAUTH_CLIENT_SECRET", ""),
		OAuthAuthURL:      get("OAUTH_AUTH_URL", ""),
		OAuthTokenURL:     get("OAUTH_TOKEN_URL", ""),
		OAuthUserInfoURL:  get("OAUTH_USERINFO_URL", ""),

		LLMBaseURL: get("LLM_BASE_URL", ""),
		LLMAPIKey:  get("LLM_API_KEY", ""),
		LLMModel:   get("LLM_MODEL", "gpt-4o-mini"),

		OtelExporter: get("OTEL_EXPORTER", "none"),
		OtelEndpoint: get("OTEL_ENDPOINT", "localhost:4317"),

		Env: get("APP_ENV", "dev"),
	}

	// Validação Estrita para Produção
	if cfg.Env == "prod" {
		if cfg.SMTPPass == "" {
			return nil, fmt.Errorf("produção: SMTP_PASS é obrigatório")
		}
		if cfg.SMTPUser == "" {
			return nil, fmt.Errorf("produção: SMTP_USER é obrigatório")
		}
		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("produção: SESSION_SECRET é obrigatório")
		}
		if cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("produção: WEBHOOK_SECRET é obrigatório")
		}
	} else {
		// No dev, se não houver secret, usamos um valor fraco apenas para não quebrar o boot
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "dev-secret-keep-it-simple-but-not-safe"
		}
	}

	return cfg, nil
}

// OAuthEnabled diz se o login social está configurado por completo.
func (c *Config) OAuthEnabled() bool {
	return c.OAuthProvider != "" && c.OAuthClientID != "" && c.OAuthClientSecret != "" &&
		c.OAuthAuthURL != "" && c.OAuthTokenURL != "" && c.OAuthUserInfoURL != ""
}

// LLMEnabled diz se o sumarizador de posts tem um backend configurado.
func (c *Config) LLMEnabled() bool {
	return c.LLMBaseURL != ""
}

func splitCSV(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadConfigFile lê um YAML plano cujo mapeamento usa os mesmos nomes
// das variáveis de ambiente (PORT, DATABASE_URL, ...).
func loadConfigFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	vals := map[string]string{}
	if err := yaml.Unmarshal(data, &vals); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return vals, nil
}
