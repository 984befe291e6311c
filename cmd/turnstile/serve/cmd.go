package serve

import (
	"github.com/andrebq/turnstile/internal/cmdflags"
	"github.com/andrebq/turnstile/internal/config"
	"github.com/andrebq/turnstile/internal/httpserver"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/localauth"
	"github.com/andrebq/turnstile/localauth/api"
	"github.com/andrebq/turnstile/passport"
	"github.com/andrebq/turnstile/passwd"
	"github.com/andrebq/turnstile/sessionstore"
	"github.com/andrebq/turnstile/userstore"
	"github.com/urfave/cli/v2"
)

func Cmd(cfg *config.Config) *cli.Command {
	var flags []cli.Flag
	flags = append(flags, cmdflags.HTTP(&cfg.HTTP)...)
	flags = append(flags, cmdflags.Session(&cfg.Session)...)
	flags = append(flags, cmdflags.Database(&cfg.Database)...)
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the login service (POST /login, POST /logout, GET /me)",
		Flags: flags,
		Action: func(ctx *cli.Context) error {
			log := logutil.GetOrDefault(ctx.Context)
			users, err := userstore.Open(ctx.Context, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer users.Close()
			sessions, err := sessionstore.Memory(cfg.Session.TTL)
			if err != nil {
				return err
			}
			defer sessions.Close()

			fw := passport.New(sessions,
				passport.WithCookieName(cfg.Session.CookieName),
				passport.WithTTL(cfg.Session.TTL),
				passport.WithInsecureCookie(cfg.Session.InsecureCookie))
			verifier := passwd.Auto{
				Bcrypt:   passwd.Bcrypt{Cost: cfg.Password.BcryptCost},
				Argon2id: passwd.DefaultArgon2id(),
			}
			auth := localauth.Initialize(fw, users.LookupByEmail, users.LookupByID, localauth.WithVerifier(verifier))
			if cfg.Session.InsecureCookie {
				log.Warn().Msg("Session cookies will be sent over plain HTTP")
			}
			realm := api.NewRealm(fw, auth.Name())
			return httpserver.Serve(ctx.Context, cfg.HTTP, realm.AsHandler(ctx.Context))
		},
	}
}
