package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// DBDriver selects the storage backend: postgres, sqlite, or memory.
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	// RedisAddr is optional; when empty, logout token revocation is disabled.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// A missing .env is fine; values may come from the process environment.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for driver %q", cfg.DBDriver)
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}

	return &cfg, nil
}
