package users

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/andrebq/turnstile/internal/config"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/passwd"
	"github.com/andrebq/turnstile/userstore"
	"github.com/urfave/cli/v2"
)

func Cmd(cfg *config.Config) *cli.Command {
	var flags []cli.Flag
	flags = append(flags, cmdflags.Database(&cfg.Database)...)
	flags = append(flags, cmdflags.Password(&cfg.Password)...)
	return &cli.Command{
		Name:    "users",
		Aliases: []string{"u"},
		Usage:   "Manage the user store",
		Flags:   flags,
		Subcommands: []*cli.Command{
			registerCmd(cfg),
			lookupCmd(cfg),
			migrateCmd(cfg),
		},
	}
}

// withStore opens the user store (applying migrations) for the duration of fn.
func withStore(ctx *cli.Context, cfg *config.Config, fn func(*userstore.Store) error) error {
	store, err := userstore.Open(ctx.Context, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func registerCmd(cfg *config.Config) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new user (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the user to register",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			hasher, err := passwd.ByName(cfg.Password.Scheme, cfg.Password.BcryptCost)
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(ctx.Context, password)
			if err != nil {
				return err
			}
			return withStore(ctx, cfg, func(store *userstore.Store) error {
				u, err := store.Register(ctx.Context, email, hash)
				if err != nil {
					return err
				}
				log := logutil.GetOrDefault(ctx.Context)
				log.Info().Str("user.id", u.ID).Str("user.email", u.Email).Msg("User registered")
				return printUser(u)
			})
		},
	}
}

func lookupCmd(cfg *config.Config) *cli.Command {
	var email, id string
	return &cli.Command{
		Name:  "lookup",
		Usage: "Print a user by email or id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Destination: &email,
			},
			&cli.StringFlag{
				Name:        "id",
				Destination: &id,
			},
		},
		Action: func(ctx *cli.Context) error {
			if email == "" && id == "" {
				return errors.New("either --email or --id is required")
			}
			return withStore(ctx, cfg, func(store *userstore.Store) error {
				var u *account.User
				var err error
				if email != "" {
					u, err = store.LookupByEmail(ctx.Context, email)
				} else {
					u, err = store.LookupByID(ctx.Context, id)
				}
				if err != nil {
					return err
				}
				if u == nil {
					return cli.Exit("user not found", 2)
				}
				return printUser(u)
			})
		},
	}
}

func migrateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations",
		Action: func(ctx *cli.Context) error {
			store, err := userstore.Connect(ctx.Context, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer store.Close()
			applied, err := store.Migrate(ctx.Context)
			if err != nil {
				return err
			}
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().Int("migration.applied", applied).Msg("User store is up to date")
			return nil
		},
	}
}

func printUser(u *account.User) error {
	buf, err := json.MarshalIndent(u.View(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(buf))
	return err
}
