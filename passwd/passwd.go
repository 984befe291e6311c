// Package passwd verifies plaintext passwords against stored one-way hashes.
//
// Hashes are self describing (modular crypt / PHC strings), which lets Auto
// verify a datastore that mixes bcrypt and argon2id records.
//
// Both hashing and comparison are CPU bound and may take hundreds of
// milliseconds, so every operation runs outside of the calling goroutine and
// gives up as soon as the context is done. The comparison itself cannot be
// interrupted, it finishes in the background and the result is discarded.
package passwd

import (
	"context"
	"strings"
)

type (
	// Verifier reports whether plaintext matches hash.
	//
	// A mismatch is (false, nil), an error means the comparison itself could
	// not be performed (malformed hash, unknown scheme, cancelled context).
	Verifier interface {
		Verify(ctx context.Context, plaintext, hash string) (bool, error)
	}

	// Hasher derives a salted hash suitable for storage.
	Hasher interface {
		Hash(ctx context.Context, plaintext string) (string, error)
	}

	// Scheme can produce hashes and verify them.
	Scheme interface {
		Hasher
		Verifier
	}

	// Auto verifies any hash produced by Bcrypt or Argon2id.
	Auto struct {
		Bcrypt   Bcrypt
		Argon2id Argon2id
	}
)

// Verify dispatches to the scheme named by the hash prefix.
func (a Auto) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	switch {
	case isBcrypt(hash):
		return a.Bcrypt.Verify(ctx, plaintext, hash)
	case strings.HasPrefix(hash, argon2idPrefix):
		return a.Argon2id.Verify(ctx, plaintext, hash)
	}
	return false, UnknownScheme{Prefix: schemePrefix(hash)}
}

// ByName returns the hashing scheme for name ("bcrypt" or "argon2id").
func ByName(name string, bcryptCost int) (Scheme, error) {
	switch strings.ToLower(name) {
	case "", "bcrypt":
		return Bcrypt{Cost: bcryptCost}, nil
	case "argon2id":
		return DefaultArgon2id(), nil
	}
	return nil, UnknownScheme{Prefix: name}
}

// schemePrefix returns the leading $id$ of a hash without leaking
// any salt or key material.
func schemePrefix(hash string) string {
	if !strings.HasPrefix(hash, "$") {
		return ""
	}
	end := strings.Index(hash[1:], "$")
	if end < 0 {
		return ""
	}
	return hash[:end+2]
}

func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn()
		done <- result{val: val, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
