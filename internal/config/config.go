// Package config loads the service configuration from TURNSTILE_* environment
// variables. Command line flags (see cmdflags) override the values loaded here.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvPrefix = "TURNSTILE_"
)

type (
	Config struct {
		LogLevel  string   `env:"LOG_LEVEL" envDefault:"info"`
		LogPretty bool     `env:"LOG_PRETTY" envDefault:"false"`
		HTTP      HTTP     `envPrefix:"HTTP_"`
		Database  Database `envPrefix:"DATABASE_"`
		Session   Session  `envPrefix:"SESSION_"`
		Password  Password `envPrefix:"PASSWORD_"`
	}

	HTTP struct {
		Bind            string        `env:"BIND" envDefault:"localhost:7010"`
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"1m"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"1m"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"1m"`
	}

	Database struct {
		Driver string `env:"DRIVER" envDefault:"sqlite3"`
		DSN    string `env:"DSN" envDefault:"file:turnstile.db?_journal=wal&mode=rwc"`
	}

	Session struct {
		CookieName     string        `env:"COOKIE_NAME" envDefault:"turnstile_session"`
		TTL            time.Duration `env:"TTL" envDefault:"24h"`
		InsecureCookie bool          `env:"INSECURE_COOKIE" envDefault:"false"`
	}

	Password struct {
		// Scheme used to hash new passwords, verification accepts any
		// supported scheme.
		Scheme     string `env:"SCHEME" envDefault:"bcrypt"`
		BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
	}
)

// Load reads the environment using the TURNSTILE_ prefix.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom behaves like Load but reads variables from environment instead of
// the process environment when it is not nil.
func LoadFrom(environment map[string]string) (*Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("unable to parse configuration, cause %w", err)
	}
	return &cfg, nil
}
