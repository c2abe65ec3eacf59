package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	DBPath      string
	SessionFile string

	// Categorizer
	CategoriesFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Presentation
	Currency   string
	SessionTTL time.Duration
}

// LoadEnvFile loads a .env file for local use. A missing file is not an error.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		DBPath:         getEnv("KHARCHA_DB_PATH", getEnv("DB_PATH", "kharcha_book.db")),
		SessionFile:    getEnv("KHARCHA_SESSION_FILE", ".kharcha_session"),
		CategoriesFile: getEnv("KHARCHA_CATEGORIES_FILE", ""),
		LogLevel:       getEnv("KHARCHA_LOG_LEVEL", "warn"),
		LogFormat:      getEnv("KHARCHA_LOG_FORMAT", "console"),
		Currency:       getEnv("KHARCHA_CURRENCY", "₹"),
		SessionTTL:     getEnvDuration("KHARCHA_SESSION_TTL", 30*24*time.Hour),
	}
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "database path cannot be empty")
	} else if c.DBPath != ":memory:" {
		if info, err := os.Stat(c.DBPath); err == nil && info.IsDir() {
			problems = append(problems, fmt.Sprintf("database path %q is a directory", c.DBPath))
		}
	}

	if strings.TrimSpace(c.SessionFile) == "" {
		problems = append(problems, "session file path cannot be empty")
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); err != nil {
			problems = append(problems, fmt.Sprintf("categories file %q: %v", c.CategoriesFile, err))
		}
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	if !contains(validLevels, strings.ToLower(c.LogLevel)) {
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	validFormats := []string{"console", "json"}
	if !contains(validFormats, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid session TTL %s: must be positive", c.SessionTTL))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}

// EnsureDBDir creates the parent directory of the database file.
func (c *Config) EnsureDBDir() error {
	dir := filepath.Dir(c.DBPath)
	if dir == "." || dir == "" || c.DBPath == ":memory:" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
