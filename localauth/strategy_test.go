package localauth

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/passport"
	"github.com/andrebq/turnstile/passwd"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type (
	countingVerifier struct {
		calls uint32
		inner passwd.Verifier
	}

	failingVerifier struct {
		err error
	}

	users map[string]*account.User

	nopSessions struct{}
)

func (c *countingVerifier) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	atomic.AddUint32(&c.calls, 1)
	return c.inner.Verify(ctx, plaintext, hash)
}

func (f failingVerifier) Verify(context.Context, string, string) (bool, error) {
	return false, f.err
}

func (u users) byEmail(_ context.Context, email string) (*account.User, error) {
	for _, v := range u {
		if v.Email == email {
			return v, nil
		}
	}
	return nil, nil
}

func (u users) byID(_ context.Context, id string) (*account.User, error) {
	return u[id], nil
}

func (nopSessions) Save(context.Context, string, string, time.Duration) error { return nil }
func (nopSessions) Lookup(context.Context, string) (string, bool, error)      { return "", false, nil }
func (nopSessions) Delete(context.Context, string) error                      { return nil }

func hash(t *testing.T, plaintext string) string {
	t.Helper()
	h, err := passwd.Bcrypt{Cost: bcrypt.MinCost}.Hash(context.Background(), plaintext)
	require.NoError(t, err)
	return h
}

func TestAttemptWithoutUsers(t *testing.T) {
	v := &countingVerifier{inner: passwd.Bcrypt{}}
	store := users{}
	a := New(store.byEmail, store.byID, WithVerifier(v))

	for _, email := range []string{"a@b.com", "", "not an email"} {
		res := a.Attempt(context.Background(), email, "x")
		require.Equal(t, passport.OutcomeFailure, res.Outcome())
		require.Equal(t, "No user with that email", res.Message())
		require.Nil(t, res.User())
	}
	require.Zero(t, atomic.LoadUint32(&v.calls), "verifier must not be called for unknown emails")
}

func TestAttemptWithUser(t *testing.T) {
	one := &account.User{ID: "1", Email: "a@b.com", PasswordHash: hash(t, "secret")}
	store := users{"1": one}
	a := New(store.byEmail, store.byID, WithVerifier(passwd.Bcrypt{}))
	ctx := context.Background()

	res := a.Attempt(ctx, "a@b.com", "secret")
	require.Equal(t, passport.OutcomeSuccess, res.Outcome())
	require.Same(t, one, res.User(), "success should carry the record returned by the lookup")

	res = a.Attempt(ctx, "a@b.com", "wrong")
	require.Equal(t, passport.OutcomeFailure, res.Outcome())
	require.Equal(t, "Password incorrect", res.Message())
	require.Nil(t, res.User())

	res = a.Attempt(ctx, "a@b.com", "")
	require.Equal(t, passport.OutcomeFailure, res.Outcome())
	require.Equal(t, "Password incorrect", res.Message())
}

func TestAttemptVerifierError(t *testing.T) {
	cause := errors.New("hash primitive exploded")
	store := users{"1": {ID: "1", Email: "a@b.com", PasswordHash: "garbage"}}
	a := New(store.byEmail, store.byID, WithVerifier(failingVerifier{err: cause}))

	res := a.Attempt(context.Background(), "a@b.com", "secret")
	require.Equal(t, passport.OutcomeError, res.Outcome())
	require.ErrorIs(t, res.Err(), cause)
	require.Empty(t, res.Message(), "errors must not be relabeled as a failed login")
}

func TestAttemptMalformedStoredHash(t *testing.T) {
	store := users{"1": {ID: "1", Email: "a@b.com", PasswordHash: "$2a$short"}}
	a := New(store.byEmail, store.byID)

	res := a.Attempt(context.Background(), "a@b.com", "secret")
	require.Equal(t, passport.OutcomeError, res.Outcome())
	require.ErrorIs(t, res.Err(), passwd.MalformedHash{Scheme: "bcrypt"})
}

func TestAttemptLookupError(t *testing.T) {
	cause := errors.New("database unavailable")
	v := &countingVerifier{inner: passwd.Bcrypt{}}
	a := New(func(context.Context, string) (*account.User, error) {
		return nil, cause
	}, nil, WithVerifier(v))

	res := a.Attempt(context.Background(), "a@b.com", "secret")
	require.Equal(t, passport.OutcomeError, res.Outcome())
	require.ErrorIs(t, res.Err(), cause)
	require.Zero(t, atomic.LoadUint32(&v.calls))
}

func TestSerializeDeserialize(t *testing.T) {
	ctx := context.Background()
	answer := &account.User{ID: "42", Email: "x@y.com"}
	store := users{"42": answer}
	a := New(store.byEmail, store.byID)

	for i := 0; i < 3; i++ {
		key, err := a.SerializeUser(ctx, answer)
		require.NoError(t, err)
		require.Equal(t, "42", key)
	}

	u, err := a.DeserializeUser(ctx, "42")
	require.NoError(t, err)
	require.Same(t, answer, u)

	u, err = a.DeserializeUser(ctx, "43")
	require.NoError(t, err)
	require.Nil(t, u)

	cause := errors.New("lookup failed")
	a = New(store.byEmail, func(context.Context, string) (*account.User, error) { return nil, cause })
	_, err = a.DeserializeUser(ctx, "42")
	require.Same(t, cause, err, "deserialize must not wrap lookup errors")
}

func TestAuthenticateRequest(t *testing.T) {
	one := &account.User{ID: "1", Email: "a@b.com", PasswordHash: hash(t, "secret")}
	store := users{"1": one}
	a := New(store.byEmail, store.byID)

	form := url.Values{"email": {"a@b.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, passport.OutcomeSuccess, a.Authenticate(req).Outcome())

	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":"a@b.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	res := a.Authenticate(req)
	require.Equal(t, passport.OutcomeFailure, res.Outcome())
	require.Equal(t, MsgPasswordIncorrect, res.Message())

	req = httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	res = a.Authenticate(req)
	require.Equal(t, passport.OutcomeFailure, res.Outcome())
	require.Equal(t, MsgMalformedCredentials, res.Message())

	// username is not the field this strategy reads
	form = url.Values{"username": {"a@b.com"}, "password": {"secret"}}
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res = a.Authenticate(req)
	require.Equal(t, MsgNoUser, res.Message())
}

func TestAuthenticateMultipart(t *testing.T) {
	one := &account.User{ID: "1", Email: "a@b.com", PasswordHash: hash(t, "secret")}
	store := users{"1": one}
	a := New(store.byEmail, store.byID)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("email", "a@b.com"))
	require.NoError(t, mw.WriteField("password", "secret"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/login", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := a.Authenticate(req)
	require.Equal(t, passport.OutcomeSuccess, res.Outcome())
	require.Same(t, one, res.User())

	// no boundary
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=a@b.com&password=secret"))
	req.Header.Set("Content-Type", "multipart/form-data")
	res = a.Authenticate(req)
	require.Equal(t, passport.OutcomeFailure, res.Outcome())
	require.Equal(t, MsgMalformedCredentials, res.Message())
}

func TestCustomFields(t *testing.T) {
	one := &account.User{ID: "1", Email: "a@b.com", PasswordHash: hash(t, "secret")}
	store := users{"1": one}
	a := New(store.byEmail, store.byID, WithFields("login", "pass"), WithName("form"))
	require.Equal(t, "form", a.Name())

	form := url.Values{"login": {"a@b.com"}, "pass": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, passport.OutcomeSuccess, a.Authenticate(req).Outcome())
}

func TestInitialize(t *testing.T) {
	one := &account.User{ID: "1", Email: "a@b.com", PasswordHash: hash(t, "secret")}
	store := users{"1": one}
	fw := passport.New(nopSessions{})
	Initialize(fw, store.byEmail, store.byID)

	form := url.Values{"email": {"a@b.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := fw.Attempt(StrategyName, req)
	require.Equal(t, passport.OutcomeSuccess, res.Outcome())
	require.Same(t, one, res.User())

	rec := httptest.NewRecorder()
	require.NoError(t, fw.LogIn(rec, req, one), "serializer should be registered")
}
