package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Limites do cache calculado a partir da RAM da máquina.
const (
	minCacheMB = 8
	maxCacheMB = 256
)

// SQLiteConfig reúne os pragmas que variam por ambiente. O restante
// (mmap, page_size, autocheckpoint) é fixo em ApplyPragmas.
type SQLiteConfig struct {
	CacheSizeKB int    // negativo = KB, positivo = páginas
	TempStore   string // "MEMORY" ou "FILE"
	WALMode     bool
	SyncLevel   string // "OFF", "NORMAL", "FULL", "EXTRA"
}

// GetSQLiteConfig parte de defaults conservadores e deixa as variáveis
// SQLITE_* sobrescreverem. Sem SQLITE_CACHE_SIZE explícito, o cache é
// dimensionado em 2% da RAM detectada.
func GetSQLiteConfig() SQLiteConfig {
	cfg := SQLiteConfig{
		CacheSizeKB: autoCacheKB(),
		TempStore:   "MEMORY",
		WALMode:     true,
		SyncLevel:   "NORMAL",
	}

	if v, ok := os.LookupEnv("SQLITE_CACHE_SIZE"); ok {
		if kb, err := strconv.Atoi(v); err == nil {
			cfg.CacheSizeKB = kb
		}
	}
	if v, ok := os.LookupEnv("SQLITE_TEMP_STORE"); ok {
		switch v = strings.ToUpper(v); v {
		case "MEMORY", "FILE":
			cfg.TempStore = v
		}
	}
	if v, ok := os.LookupEnv("SQLITE_WAL_MODE"); ok {
		cfg.WALMode = v == "1" || strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("SQLITE_SYNC_LEVEL"); ok {
		switch v = strings.ToUpper(v); v {
		case "OFF", "NORMAL", "FULL", "EXTRA":
			cfg.SyncLevel = v
		}
	}

	return cfg
}

// autoCacheKB devolve o cache_size em KB (valor negativo, convenção do
// sqlite) proporcional à RAM, preso entre minCacheMB e maxCacheMB.
func autoCacheKB() int {
	ramMB := systemRAMMB()
	if ramMB <= 0 {
		return -16 * 1024
	}
	cacheMB := min(max(ramMB/50, minCacheMB), maxCacheMB)
	return -cacheMB * 1024
}

// systemRAMMB lê SYSTEM_RAM_MB ou o MemTotal do /proc/meminfo.
// Zero quando nenhum dos dois responde (fora de Linux, por exemplo).
func systemRAMMB() int {
	if v, ok := os.LookupEnv("SYSTEM_RAM_MB"); ok {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			return mb
		}
	}

	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for line := range strings.SplitSeq(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return int(kb / 1024)
	}
	return 0
}

// ApplyPragmas aplica a configuração na conexão, junto com os pragmas
// fixos de performance. Precisa rodar antes do pool receber tráfego.
func (c SQLiteConfig) ApplyPragmas(db *sql.DB) error {
	journal := "DELETE"
	if c.WALMode {
		journal = "WAL"
	}

	pragmas := [][2]string{
		{"temp_store", c.TempStore},
		{"cache_size", strconv.Itoa(c.CacheSizeKB)},
		{"journal_mode", journal},
		{"wal_autocheckpoint", "1000"},
		{"busy_timeout", "5000"},
		{"synchronous", c.SyncLevel},
		{"mmap_size", "268435456"},
		{"page_size", "4096"},
	}

	for _, p := range pragmas {
		if _, err := db.Exec("PRAGMA " + p[0] + " = " + p[1]); err != nil {
			return fmt.Errorf("failed to set PRAGMA %s: %w", p[0], err)
		}
	}
	return nil
}
