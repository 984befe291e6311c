package cmdflags

import (
	"github.com/andrebq/turnstile/internal/config"
	"github.com/urfave/cli/v2"
)

// Logging flags, must be applied before any other command runs.
func Logging(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Minimum level of log messages (trace, debug, info, warn, error)",
			Value:       cfg.LogLevel,
			Destination: &cfg.LogLevel,
		},
		&cli.BoolFlag{
			Name:        "log-pretty",
			Usage:       "Human friendly logs instead of JSON",
			Value:       cfg.LogPretty,
			Destination: &cfg.LogPretty,
		},
	}
}

func Database(cfg *config.Database) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-driver",
			Usage:       "Database driver for the user store (sqlite3 or pgx)",
			Value:       cfg.Driver,
			Destination: &cfg.Driver,
		},
		&cli.StringFlag{
			Name:        "db",
			Aliases:     []string{"dsn"},
			Usage:       "Connection string of the user store",
			Value:       cfg.DSN,
			Destination: &cfg.DSN,
		},
	}
}

func Password(cfg *config.Password) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "password-scheme",
			Usage:       "Scheme used to hash new passwords (bcrypt or argon2id)",
			Value:       cfg.Scheme,
			Destination: &cfg.Scheme,
		},
		&cli.IntFlag{
			Name:        "bcrypt-cost",
			Usage:       "Cost of new bcrypt hashes",
			Value:       cfg.BcryptCost,
			Destination: &cfg.BcryptCost,
		},
	}
}

func HTTP(cfg *config.HTTP) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bind",
			Usage:       "Address to bind for incoming requests",
			Value:       cfg.Bind,
			Destination: &cfg.Bind,
		},
	}
}

func Session(cfg *config.Session) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-cookie",
			Usage:       "Name of the session cookie",
			Value:       cfg.CookieName,
			Destination: &cfg.CookieName,
		},
		&cli.DurationFlag{
			Name:        "session-ttl",
			Usage:       "How long a session lives after login",
			Value:       cfg.TTL,
			Destination: &cfg.TTL,
		},
		&cli.BoolFlag{
			Name:        "insecure-cookie",
			Usage:       "Allow the session cookie over plain HTTP (development only)",
			Value:       cfg.InsecureCookie,
			Destination: &cfg.InsecureCookie,
		},
	}
}
