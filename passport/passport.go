// Package passport is a small pluggable authentication framework.
//
// Strategies decide whether a request carries valid credentials, the
// framework turns a successful attempt into a server side session and
// restores the user from that session on every later request.
//
// Only the session key produced by the registered serializer is kept in the
// session store, the deserializer is responsible for loading the user again.
package passport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/internal/logutil"
)

const (
	DefaultCookieName = "turnstile_session"
	DefaultTTL        = 24 * time.Hour
)

type (
	// Strategy authenticates a single request.
	Strategy interface {
		Authenticate(r *http.Request) Result
	}

	StrategyFunc func(r *http.Request) Result

	// SerializeFunc reduces a user to the key stored in the session.
	SerializeFunc func(ctx context.Context, user *account.User) (string, error)

	// DeserializeFunc expands a session key back into a user,
	// a nil user means the key no longer identifies anyone.
	DeserializeFunc func(ctx context.Context, key string) (*account.User, error)

	SessionStore interface {
		Save(ctx context.Context, token, key string, ttl time.Duration) error
		Lookup(ctx context.Context, token string) (key string, found bool, err error)
		Delete(ctx context.Context, token string) error
	}

	Option func(*Passport)

	Passport struct {
		mu          sync.RWMutex
		strategies  map[string]Strategy
		serialize   SerializeFunc
		deserialize DeserializeFunc

		sessions       SessionStore
		cookieName     string
		ttl            time.Duration
		insecureCookie bool
	}

	message struct {
		Message string `json:"message"`
	}
)

func (fn StrategyFunc) Authenticate(r *http.Request) Result {
	return fn(r)
}

func WithCookieName(name string) Option {
	return func(p *Passport) {
		if name != "" {
			p.cookieName = name
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(p *Passport) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithInsecureCookie allows the session cookie to travel over plain HTTP.
func WithInsecureCookie(allow bool) Option {
	return func(p *Passport) {
		p.insecureCookie = allow
	}
}

func New(sessions SessionStore, opts ...Option) *Passport {
	p := &Passport{
		strategies: make(map[string]Strategy),
		sessions:   sessions,
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Use registers s under name, replacing any previous strategy with
// the same name.
func (p *Passport) Use(name string, s Strategy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strategies[name] = s
}

func (p *Passport) SerializeUser(fn SerializeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.serialize = fn
}

func (p *Passport) DeserializeUser(fn DeserializeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deserialize = fn
}

// Attempt runs the named strategy against r.
func (p *Passport) Attempt(name string, r *http.Request) Result {
	p.mu.RLock()
	s := p.strategies[name]
	p.mu.RUnlock()
	if s == nil {
		return Error(UnknownStrategy{Name: name})
	}
	res := s.Authenticate(r)
	if res.Outcome() == OutcomeSuccess && res.User() == nil {
		return Error(errNoOutcome)
	}
	switch res.Outcome() {
	case OutcomeSuccess, OutcomeFailure, OutcomeError:
		return res
	}
	return Error(errNoOutcome)
}

// Authenticate returns a handler that logs the user in when the named
// strategy succeeds.
//
// Failures are answered with 401 and the strategy message, errors are logged
// and answered with an opaque 500.
func (p *Passport) Authenticate(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logutil.GetOrDefault(r.Context()).With().Str("auth.strategy", name).Logger()
		res := p.Attempt(name, r)
		switch res.Outcome() {
		case OutcomeSuccess:
			user := res.User()
			if err := p.LogIn(w, r, user); err != nil {
				log.Error().Err(err).Str("user.id", user.ID).Msg("Unable to create session")
				writeJSON(w, http.StatusInternalServerError, message{Message: "internal error"})
				return
			}
			log.Info().Str("user.id", user.ID).Msg("Login succeeded")
			writeJSON(w, http.StatusOK, user.View())
		case OutcomeFailure:
			log.Info().Str("auth.reason", res.Message()).Msg("Login failed")
			writeJSON(w, http.StatusUnauthorized, message{Message: res.Message()})
		default:
			log.Error().Err(res.Err()).Msg("Unexpected error during authentication")
			writeJSON(w, http.StatusInternalServerError, message{Message: "internal error"})
		}
	})
}

// LogIn starts a new session for user. Any session carried by r is
// discarded first so a token issued before login never becomes
// authenticated.
func (p *Passport) LogIn(w http.ResponseWriter, r *http.Request, user *account.User) error {
	p.mu.RLock()
	serialize := p.serialize
	p.mu.RUnlock()
	if serialize == nil {
		return ErrNoSerializer
	}
	ctx := r.Context()
	key, err := serialize(ctx, user)
	if err != nil {
		return err
	}
	if err := p.dropSession(ctx, r); err != nil {
		return err
	}
	token, err := NewToken()
	if err != nil {
		return err
	}
	if err := p.sessions.Save(ctx, token, key, p.ttl); err != nil {
		return err
	}
	http.SetCookie(w, p.cookie(token, int(p.ttl/time.Second)))
	return nil
}

// LogOut removes the session carried by r (if any) and clears the cookie.
func (p *Passport) LogOut(w http.ResponseWriter, r *http.Request) error {
	err := p.dropSession(r.Context(), r)
	http.SetCookie(w, p.cookie("", -1))
	return err
}

// LogOutHandler answers 204 after LogOut.
func (p *Passport) LogOutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := p.LogOut(w, r); err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Msg("Unable to remove session")
			writeJSON(w, http.StatusInternalServerError, message{Message: "internal error"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// Session restores the user of the current session into the request
// context. Requests without a valid session continue anonymously.
func (p *Passport) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := p.restore(r)
		if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Error().Err(err).Msg("Unable to restore session")
			writeJSON(w, http.StatusInternalServerError, message{Message: "internal error"})
			return
		}
		if user != nil {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests that Session did not authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, message{Message: "authentication required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Passport) restore(r *http.Request) (*account.User, error) {
	token := p.token(r)
	if token == "" {
		return nil, nil
	}
	ctx := r.Context()
	key, found, err := p.sessions.Lookup(ctx, token)
	if err != nil || !found {
		return nil, err
	}
	p.mu.RLock()
	deserialize := p.deserialize
	p.mu.RUnlock()
	if deserialize == nil {
		return nil, ErrNoDeserializer
	}
	user, err := deserialize(ctx, key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// the user is gone, so is the session
		return nil, p.sessions.Delete(ctx, token)
	}
	return user, nil
}

func (p *Passport) dropSession(ctx context.Context, r *http.Request) error {
	token := p.token(r)
	if token == "" {
		return nil
	}
	return p.sessions.Delete(ctx, token)
}

func (p *Passport) token(r *http.Request) string {
	c, err := r.Cookie(p.cookieName)
	if errors.Is(err, http.ErrNoCookie) || c == nil {
		return ""
	}
	return c.Value
}

func (p *Passport) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     p.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !p.insecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}
