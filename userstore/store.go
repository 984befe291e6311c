// Package userstore keeps user records in a SQL database (sqlite3 or
// postgres through pgx).
//
// Emails are compared after trimming and lower casing them, lookups go
// through a 64 bit hash of the normalized email before comparing the text
// itself.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andrebq/turnstile/account"
	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/andrebq/turnstile/userstore/migrations"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type (
	Dialect string

	Store struct {
		db      *sql.DB
		dialect Dialect
		now     func() time.Time
	}
)

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
)

var (
	errEmptyEmail = errors.New("email cannot be empty")
)

// Open connects to dsn using driver (sqlite3, pgx or postgres) and applies
// every pending migration.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	s, err := Connect(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	_, err = s.Migrate(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Connect behaves like Open but leaves the schema untouched.
func Connect(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open user store, cause %w", err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping user store, cause %w", err)
	}
	return New(conn, dialect), nil
}

// New wraps an open database, the schema is not touched.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

// Migrate applies every pending migration and returns how many were applied.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	provider, err := goose.NewProvider(s.dialect.goose(), s.db, migrations.FS)
	if err != nil {
		return 0, fmt.Errorf("unable to configure migrations for %v, cause %w", s.dialect, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to migrate user store, cause %w", err)
	}
	log := logutil.GetOrDefault(ctx)
	for _, r := range results {
		log.Info().Int64("migration.version", r.Source.Version).Dur("migration.elapsed", r.Duration).Msg("Migration applied")
	}
	return len(results), nil
}

// Register stores a new user, passwordHash must already be hashed.
func (s *Store) Register(ctx context.Context, email, passwordHash string) (*account.User, error) {
	email, emailHash := normalizeEmail(email)
	if email == "" {
		return nil, errEmptyEmail
	}
	u := &account.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`insert into users(user_id, email, email_hash64, password, created_at) values (?, ?, ?, ?, ?)`),
		u.ID, u.Email, emailHash, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, DuplicateEmail{Email: email}
	} else if err != nil {
		return nil, fmt.Errorf("unable to register user %v, cause %w", email, err)
	}
	return u, nil
}

// LookupByEmail returns nil, nil when no user has the given email.
func (s *Store) LookupByEmail(ctx context.Context, email string) (*account.User, error) {
	email, emailHash := normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.lookup(ctx, `select user_id, email, password, created_at from users where email_hash64 = ? and email = ?`, emailHash, email)
}

// LookupByID returns nil, nil when no user has the given id.
func (s *Store) LookupByID(ctx context.Context, id string) (*account.User, error) {
	if id == "" {
		return nil, nil
	}
	return s.lookup(ctx, `select user_id, email, password, created_at from users where user_id = ?`, id)
}

func (s *Store) lookup(ctx context.Context, query string, args ...interface{}) (*account.User, error) {
	var u account.User
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup user, cause %w", err)
	}
	return &u, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func normalizeEmail(email string) (string, int64) {
	email = strings.ToLower(strings.TrimSpace(email))
	return email, int64(xxhash.Sum64String(email))
}

func (d Dialect) goose() goose.Dialect {
	if d == Postgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres", "postgresql":
		return Postgres, nil
	}
	return "", UnknownDriver{Driver: driver}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// unique_violation
		return pgErr.Code == "23505"
	}
	return false
}
