package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr string `env:"CIVICA_ADDR" envDefault:":8080"`

	// DatabaseURL selects the PostgreSQL-backed stores when set; the engine
	// falls back to in-memory stores otherwise.
	DatabaseURL string `env:"CIVICA_DATABASE_URL"`

	// RedisURL selects the Redis-backed cooldown store when set.
	RedisURL string `env:"CIVICA_REDIS_URL"`

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string `env:"CIVICA_KAFKA_BROKERS"`
	AuditTopic   string   `env:"CIVICA_AUDIT_TOPIC" envDefault:"civica.audit"`

	JWTSigningKey string `env:"CIVICA_JWT_SIGNING_KEY" envDefault:"dev-secret-change-in-production"`

	// Age bounds enforced by the citizen registry.
	MinAge int `env:"CIVICA_MIN_AGE" envDefault:"1"`
	MaxAge int `env:"CIVICA_MAX_AGE" envDefault:"120"`

	// LockWait bounds how long an operation waits on a contended key before
	// failing with a retryable contention error.
	LockWait time.Duration `env:"CIVICA_LOCK_WAIT" envDefault:"250ms"`

	// RentalSweepInterval is the cadence of the expired-rental sweep.
	// Zero disables the sweep.
	RentalSweepInterval time.Duration `env:"CIVICA_RENTAL_SWEEP_INTERVAL" envDefault:"1m"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MinAge < 0 || cfg.MaxAge <= cfg.MinAge {
		return Config{}, fmt.Errorf("invalid age bounds: min=%d max=%d", cfg.MinAge, cfg.MaxAge)
	}
	return cfg, nil
}
