package localauth

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/passport"
	"github.com/andrebq/turnstile/passwd"
)

const (
	StrategyName = "local"

	EmailField    = "email"
	PasswordField = "password"

	MsgNoUser               = "No user with that email"
	MsgPasswordIncorrect    = "Password incorrect"
	MsgMalformedCredentials = "Malformed credentials"

	maxBodySize = 1 << 16
)

type (
	// LookupFunc loads a user by key, returning nil, nil when not found.
	LookupFunc func(ctx context.Context, key string) (*account.User, error)

	Authenticator struct {
		byEmail       LookupFunc
		byID          LookupFunc
		verifier      passwd.Verifier
		name          string
		emailField    string
		passwordField string
	}

	Option func(*Authenticator)
)

// WithVerifier replaces the default bcrypt verifier.
func WithVerifier(v passwd.Verifier) Option {
	return func(a *Authenticator) {
		a.verifier = v
	}
}

// WithFields changes the request fields holding the credentials.
func WithFields(email, password string) Option {
	return func(a *Authenticator) {
		a.emailField = email
		a.passwordField = password
	}
}

// WithName registers the strategy under a name other than "local".
func WithName(name string) Option {
	return func(a *Authenticator) {
		a.name = name
	}
}

func New(lookupByEmail, lookupByID LookupFunc, opts ...Option) *Authenticator {
	a := &Authenticator{
		byEmail:       lookupByEmail,
		byID:          lookupByID,
		verifier:      passwd.Bcrypt{},
		name:          StrategyName,
		emailField:    EmailField,
		passwordField: PasswordField,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Initialize registers the strategy plus the session serializer and
// deserializer with fw.
func Initialize(fw *passport.Passport, lookupByEmail, lookupByID LookupFunc, opts ...Option) *Authenticator {
	a := New(lookupByEmail, lookupByID, opts...)
	fw.Use(a.name, a)
	fw.SerializeUser(a.SerializeUser)
	fw.DeserializeUser(a.DeserializeUser)
	return a
}

func (a *Authenticator) Name() string {
	return a.name
}

// Attempt checks email and password. Inputs are not validated, an empty
// email is just an email nobody has.
func (a *Authenticator) Attempt(ctx context.Context, email, password string) passport.Result {
	user, err := a.byEmail(ctx, email)
	if err != nil {
		return passport.Error(err)
	}
	if user == nil {
		return passport.Failure(MsgNoUser)
	}
	ok, err := a.verifier.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return passport.Error(err)
	}
	if !ok {
		return passport.Failure(MsgPasswordIncorrect)
	}
	return passport.Success(user)
}

// Authenticate reads the credentials from a form or JSON body.
func (a *Authenticator) Authenticate(r *http.Request) passport.Result {
	email, password, ok := a.credentials(r)
	if !ok {
		return passport.Failure(MsgMalformedCredentials)
	}
	return a.Attempt(r.Context(), email, password)
}

// SerializeUser reduces user to its id.
func (a *Authenticator) SerializeUser(_ context.Context, user *account.User) (string, error) {
	return user.ID, nil
}

// DeserializeUser returns whatever the by-id lookup returns.
func (a *Authenticator) DeserializeUser(ctx context.Context, id string) (*account.User, error) {
	return a.byID(ctx, id)
}

func (a *Authenticator) credentials(r *http.Request) (string, string, bool) {
	if r.Body == nil {
		return "", "", true
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", false
		}
		email, _ := body[a.emailField].(string)
		password, _ := body[a.passwordField].(string)
		return email, password, true
	}
	var err error
	if mt == "multipart/form-data" {
		err = r.ParseMultipartForm(maxBodySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return "", "", false
	}
	return r.PostFormValue(a.emailField), r.PostFormValue(a.passwordField), true
}
