package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Settings holds the server configuration read from LATTICE_* variables.
// Command flags override them.
type Settings struct {
	Addr  string `env:"ADDR" envDefault:":8080"`
	Grids string `env:"GRIDS" envDefault:"grids.yaml"`

	Store         string `env:"STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"lattice:"`
	SQLiteDSN     string `env:"SQLITE_DSN" envDefault:"lattice.db"`

	TokenSecret string `env:"TOKEN_SECRET"`

	EncryptionKey   string   `env:"ENCRYPTION_KEY"`
	FallbackKeys    []string `env:"FALLBACK_KEYS"`
	EncryptedFields []string `env:"ENCRYPTED_FIELDS"`
	MaskedFields    []string `env:"MASKED_FIELDS"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: "LATTICE_"}); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	return s, s.Validate()
}

// Validate checks the values flags and env can get wrong.
func (s Settings) Validate() error {
	switch s.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q: expected memory, redis or sqlite", s.Store)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	if len(s.EncryptedFields) > 0 && s.EncryptionKey == "" {
		return fmt.Errorf("encrypted fields need an encryption key")
	}
	return nil
}

// Level returns the parsed log level.
func (s Settings) Level() slog.Level {
	level, _ := logging.ParseLevel(s.LogLevel)
	return level
}
