// Package sessionstore keeps the mapping between an opaque session token
// (handed to the client as a cookie) and the session key of the user that
// owns it.
//
// Only the session key is stored, the user record is always loaded again
// from the datastore when the session is used.
//
// Sessions might be lost if they expire, the service is restarted, or the
// entry is evicted from cache. When that happens the user has to login again.
package sessionstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// MemStore keeps sessions in a bigcache instance.
	//
	// Entries are prefixed with their deadline (unix nanoseconds, big
	// endian), bigcache only drops old entries when its cleaner runs.
	MemStore struct {
		cache *bigcache.BigCache
		ttl   time.Duration
		now   func() time.Time
	}
)

const (
	deadlineSize = 8
)

// Memory returns an in-process store where every session lives at most ttl.
// Save may ask for a shorter lifetime but never a longer one.
func Memory(ttl time.Duration) (*MemStore, error) {
	if ttl <= 0 {
		return nil, errors.New("sessionstore: ttl must be positive")
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl / 2
	if cfg.CleanWindow < time.Second {
		cfg.CleanWindow = time.Second
	}
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: unable to create cache, cause %w", err)
	}
	return &MemStore{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

func (m *MemStore) Save(ctx context.Context, token, key string, ttl time.Duration) error {
	if token == "" {
		return errors.New("sessionstore: empty token")
	}
	if ttl <= 0 || ttl > m.ttl {
		ttl = m.ttl
	}
	entry := make([]byte, deadlineSize+len(key))
	binary.BigEndian.PutUint64(entry, uint64(m.now().Add(ttl).UnixNano()))
	copy(entry[deadlineSize:], key)
	err := m.cache.Set(token, entry)
	if err != nil {
		return fmt.Errorf("sessionstore: unable to save session, cause %w", err)
	}
	return nil
}

// Lookup returns found=false for unknown or expired tokens.
func (m *MemStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	if token == "" {
		return "", false, nil
	}
	buf, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, fmt.Errorf("sessionstore: unable to lookup session, cause %w", err)
	}
	if len(buf) < deadlineSize {
		return "", false, errors.New("sessionstore: corrupted session entry")
	}
	deadline := int64(binary.BigEndian.Uint64(buf))
	if m.now().UnixNano() >= deadline {
		return "", false, m.Delete(ctx, token)
	}
	return string(buf[deadlineSize:]), true, nil
}

func (m *MemStore) Delete(ctx context.Context, token string) error {
	err := m.cache.Delete(token)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("sessionstore: unable to delete session, cause %w", err)
	}
	return nil
}

func (m *MemStore) Close() error {
	return m.cache.Close()
}
