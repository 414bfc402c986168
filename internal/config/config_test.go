package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		os.Clearenv()
		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected port 8080, got %s", cfg.Port)
		}
		if cfg.OAuthEnabled() {
			t.Error("oauth não deveria estar habilitado sem configuração")
		}
		if cfg.LLMEnabled() {
			t.Error("llm não deveria estar habilitado sem configuração")
		}
	})

	t.Run("ProductionValidation", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("APP_ENV", "prod")
		_, err := Load()
		if err == nil {
			t.Error("expected error when SMTP_PASS is missing in production")
		}
	})

	t.Run("CustomValues", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("PORT", "9000")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("expected port 9000, got %s", cfg.Port)
		}
	})

	t.Run("YamlFileFallback", func(t *testing.T) {
		os.Clearenv()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "PORT: \"9100\"\nLLM_BASE_URL: \"http://llm.local\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		os.Setenv("CONFIG_FILE", path)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Port != "9100" {
			t.Errorf("expected port 9100 from yaml, got %s", cfg.Port)
		}
		if !cfg.LLMEnabled() {
			t.Error("llm deveria estar habilitado via yaml")
		}
	})

	t.Run("EnvWinsOverYaml", func(t *testing.T) {
		os.Clearenv()

		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("PORT: \"9100\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		os.Setenv("CONFIG_FILE", path)
		os.Setenv("PORT", "9200")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Port != "9200" {
			t.Errorf("env deveria vencer o yaml: esperado 9200, obtido %s", cfg.Port)
		}
	})

	t.Run("CORSOrigins", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, *.example.org ,")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"https://a.example.com", "*.example.org"}
		if len(cfg.CORSAllowedOrigins) != len(want) {
			t.Fatalf("origens = %v, want %v", cfg.CORSAllowedOrigins, want)
		}
		for i := range want {
			if cfg.CORSAllowedOrigins[i] != want[i] {
				t.Errorf("origem[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
			}
		}
	})
}

func TestGetSQLiteConfig(t *testing.T) {
	t.Run("EnvOverrides", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("SQLITE_CACHE_SIZE", "-4096")
		os.Setenv("SQLITE_TEMP_STORE", "file")
		os.Setenv("SQLITE_WAL_MODE", "0")
		os.Setenv("SQLITE_SYNC_LEVEL", "full")

		cfg := GetSQLiteConfig()
		if cfg.CacheSizeKB != -4096 {
			t.Errorf("CacheSizeKB = %d, want -4096", cfg.CacheSizeKB)
		}
		if cfg.TempStore != "FILE" {
			t.Errorf("TempStore = %q, want FILE", cfg.TempStore)
		}
		if cfg.WALMode {
			t.Error("WALMode deveria estar desligado")
		}
		if cfg.SyncLevel != "FULL" {
			t.Errorf("SyncLevel = %q, want FULL", cfg.SyncLevel)
		}
	})

	t.Run("ValoresInvalidosCaemNoDefault", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("SQLITE_TEMP_STORE", "disco")
		os.Setenv("SQLITE_SYNC_LEVEL", "talvez")

		cfg := GetSQLiteConfig()
		if cfg.TempStore != "MEMORY" {
			t.Errorf("TempStore = %q, want MEMORY", cfg.TempStore)
		}
		if cfg.SyncLevel != "NORMAL" {
			t.Errorf("SyncLevel = %q, want NORMAL", cfg.SyncLevel)
		}
	})

	t.Run("CacheProporcionalComTeto", func(t *testing.T) {
		os.Clearenv()

		os.Setenv("SYSTEM_RAM_MB", "1000")
		if got := autoCacheKB(); got != -20*1024 {
			t.Errorf("1GB de RAM: cache = %d, want %d", got, -20*1024)
		}

		os.Setenv("SYSTEM_RAM_MB", "100")
		if got := autoCacheKB(); got != -minCacheMB*1024 {
			t.Errorf("RAM baixa: cache = %d, want piso %d", got, -minCacheMB*1024)
		}

		os.Setenv("SYSTEM_RAM_MB", "64000")
		if got := autoCacheKB(); got != -maxCacheMB*1024 {
			t.Errorf("RAM alta: cache = %d, want teto %d", got, -maxCacheMB*1024)
		}
	})
}
