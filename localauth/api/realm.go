package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/passport"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
)

type (
	// SecurityRealm exposes login, logout and the current user over HTTP.
	SecurityRealm struct {
		fw       *passport.Passport
		strategy string
	}
)

func NewRealm(fw *passport.Passport, strategy string) *SecurityRealm {
	return &SecurityRealm{
		fw:       fw,
		strategy: strategy,
	}
}

// AsHandler routes
//
//	POST /login   credentials as form or JSON (email, password)
//	POST /logout
//	GET  /me      the user of the current session
//
// every request goes through the session middleware first.
func (s *SecurityRealm) AsHandler(ctx context.Context) http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodPost, "/login", s.fw.Authenticate(s.strategy))
	router.Handler(http.MethodPost, "/logout", s.fw.LogOutHandler())
	router.Handler(http.MethodGet, "/me", s.Protect(http.HandlerFunc(currentUser)))
	log := logutil.GetOrDefault(ctx)
	return logutil.Middleware(log, s.fw.Session(router))
}

// Protect rejects requests without an authenticated session.
func (s *SecurityRealm) Protect(sensitive http.Handler) http.Handler {
	return passport.RequireUser(sensitive)
}

func currentUser(w http.ResponseWriter, r *http.Request) {
	log := logutil.GetOrDefault(r.Context()).Sample(zerolog.Often)
	user, _ := passport.UserFromContext(r.Context())
	buf, err := json.Marshal(user.View())
	if err != nil {
		log.Error().Err(err).Msg("Unable to encode user")
		http.Error(w, "unable to encode user", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.Write(buf)
}
