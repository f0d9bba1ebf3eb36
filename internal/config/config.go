package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects everything the server reads from the environment. A .env
// file in the working directory is honored when present.
type Config struct {
	Addr    string
	LogMode string

	// StoreBackend selects the table store: "sqlite", "sheets" or "memory"
	// (seeded demo data, nothing persisted).
	StoreBackend string

	SQLitePath string

	SpreadsheetID   string
	CredentialsFile string

	CacheTTL     time.Duration
	StoreTimeout time.Duration

	// AdminPass gates the views that write back to the store.
	AdminPass string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:            getEnv("ADDR", ":8080"),
		LogMode:         getEnv("LOG_MODE", "dev"),
		StoreBackend:    getEnv("STORE_BACKEND", "sqlite"),
		SQLitePath:      getEnv("SQLITE_PATH", "ministry.db"),
		SpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL", 60)) * time.Second,
		StoreTimeout:    time.Duration(getEnvInt("STORE_TIMEOUT", 15)) * time.Second,
		AdminPass:       getEnv("ADMIN_PASS", ""),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
