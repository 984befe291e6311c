package passwd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fastArgon() Argon2id {
	return Argon2id{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 16, SaltLen: 8}
}

func TestBcrypt(t *testing.T) {
	ctx := context.Background()
	b := Bcrypt{Cost: bcrypt.MinCost}
	hash, err := b.Hash(ctx, "secret")
	require.NoError(t, err)
	require.True(t, isBcrypt(hash), "unexpected hash format %v", hash)

	ok, err := b.Verify(ctx, "secret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Verify(ctx, "wrong", hash)
	require.NoError(t, err, "a mismatch is not an error")
	require.False(t, ok)

	_, err = b.Verify(ctx, "secret", "$2a$not-really")
	require.True(t, errors.Is(err, MalformedHash{Scheme: "bcrypt"}), "got %v", err)
}

func TestArgon2id(t *testing.T) {
	ctx := context.Background()
	a := fastArgon()
	hash, err := a.Hash(ctx, "secret")
	require.NoError(t, err)
	require.Regexp(t, `^\$argon2id\$v=19\$m=64,t=1,p=1\$[^$]+\$[^$]+$`, hash)

	ok, err := a.Verify(ctx, "secret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)

	other, err := a.Hash(ctx, "secret")
	require.NoError(t, err)
	require.NotEqual(t, hash, other, "salt should be random")
}

func TestArgon2idMalformed(t *testing.T) {
	ctx := context.Background()
	for _, hash := range []string{
		"$argon2id$",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=64,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		_, err := fastArgon().Verify(ctx, "secret", hash)
		if !errors.Is(err, MalformedHash{Scheme: "argon2id"}) {
			t.Errorf("hash %q should be malformed, got %v", hash, err)
		}
	}
}

func TestAuto(t *testing.T) {
	ctx := context.Background()
	auto := Auto{Bcrypt: Bcrypt{Cost: bcrypt.MinCost}, Argon2id: fastArgon()}
	for _, h := range []Hasher{auto.Bcrypt, auto.Argon2id} {
		hash, err := h.Hash(ctx, "secret")
		require.NoError(t, err)
		ok, err := auto.Verify(ctx, "secret", hash)
		require.NoError(t, err)
		require.True(t, ok, "hash %v should verify", hash)
		ok, err = auto.Verify(ctx, "nope", hash)
		require.NoError(t, err)
		require.False(t, ok)
	}

	_, err := auto.Verify(ctx, "secret", "plaintext-password")
	require.ErrorIs(t, err, UnknownScheme{})
	_, err = auto.Verify(ctx, "secret", "$md5$abc")
	require.ErrorIs(t, err, UnknownScheme{Prefix: "$md5$"})
}

func TestByName(t *testing.T) {
	s, err := ByName("", 4)
	require.NoError(t, err)
	require.Equal(t, Bcrypt{Cost: 4}, s)
	s, err = ByName("Argon2id", 4)
	require.NoError(t, err)
	require.IsType(t, Argon2id{}, s)
	_, err = ByName("scrypt", 4)
	require.ErrorIs(t, err, UnknownScheme{Prefix: "scrypt"})
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := await(ctx, func() (bool, error) {
		time.Sleep(50 * time.Millisecond)
		return true, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
