package passwd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type (
	// Bcrypt hashes with golang.org/x/crypto/bcrypt, zero Cost means
	// bcrypt.DefaultCost.
	Bcrypt struct {
		Cost int
	}
)

func (b Bcrypt) Hash(ctx context.Context, plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return await(ctx, func() (string, error) {
		buf, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
		if err != nil {
			return "", fmt.Errorf("passwd: unable to hash password with bcrypt, cause %w", err)
		}
		return string(buf), nil
	})
}

func (b Bcrypt) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	return await(ctx, func() (bool, error) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		}
		return false, MalformedHash{Scheme: "bcrypt", cause: err}
	})
}

func isBcrypt(hash string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}
