package passwd

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2idPrefix = "$argon2id$"
)

type (
	// Argon2id stores hashes as $argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>
	// with unpadded base64 salt and key.
	Argon2id struct {
		Time      uint32
		MemoryKiB uint32
		Threads   uint8
		KeyLen    uint32
		SaltLen   uint32
	}
)

var (
	errArgon2Fields  = errors.New("expecting 5 $-separated fields")
	errArgon2Version = errors.New("unsupported argon2 version")
	errArgon2Params  = errors.New("invalid m,t,p parameters")
)

func DefaultArgon2id() Argon2id {
	threads := runtime.NumCPU() / 2
	if threads < 1 {
		threads = 1
	}
	// 7 passes over 10 MB should be a good replacement
	// for 1 pass over 64 MB of ram.
	return Argon2id{
		Time:      7,
		MemoryKiB: 10 * 1024,
		Threads:   uint8(threads),
		KeyLen:    32,
		SaltLen:   16,
	}
}

func (a Argon2id) Hash(ctx context.Context, plaintext string) (string, error) {
	p := a.withDefaults()
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("passwd: unable to generate salt, cause %w", err)
	}
	return await(ctx, func() (string, error) {
		key := argon2.IDKey([]byte(plaintext), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
		defer zero(key)
		return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s", argon2idPrefix, argon2.Version,
			p.MemoryKiB, p.Time, p.Threads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key)), nil
	})
}

func (a Argon2id) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	params, salt, key, err := decodeArgon2id(hash)
	if err != nil {
		return false, MalformedHash{Scheme: "argon2id", cause: err}
	}
	return await(ctx, func() (bool, error) {
		other := argon2.IDKey([]byte(plaintext), salt, params.Time, params.MemoryKiB, params.Threads, uint32(len(key)))
		defer zero(other)
		return subtle.ConstantTimeCompare(key, other) == 1, nil
	})
}

func (a Argon2id) withDefaults() Argon2id {
	def := DefaultArgon2id()
	if a.Time == 0 {
		a.Time = def.Time
	}
	if a.MemoryKiB == 0 {
		a.MemoryKiB = def.MemoryKiB
	}
	if a.Threads == 0 {
		a.Threads = def.Threads
	}
	if a.KeyLen == 0 {
		a.KeyLen = def.KeyLen
	}
	if a.SaltLen == 0 {
		a.SaltLen = def.SaltLen
	}
	return a
}

func decodeArgon2id(hash string) (Argon2id, []byte, []byte, error) {
	var params Argon2id
	if !strings.HasPrefix(hash, argon2idPrefix) {
		return params, nil, nil, errArgon2Fields
	}
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	fields := strings.Split(hash, "$")
	if len(fields) != 6 {
		return params, nil, nil, errArgon2Fields
	}
	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, errArgon2Version
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, errArgon2Params
	}
	if params.MemoryKiB == 0 || params.Time == 0 || params.Threads == 0 {
		return params, nil, nil, errArgon2Params
	}
	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid salt encoding, cause %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("invalid key encoding, cause %w", err)
	}
	if len(key) == 0 {
		return params, nil, nil, errArgon2Fields
	}
	return params, salt, key, nil
}
