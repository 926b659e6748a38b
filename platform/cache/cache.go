// Package cache provides a small key/value cache with TTLs, backed by Redis
// when configured and by process memory otherwise.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"tel_handoff_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// Store is a byte-oriented cache. Get reports a miss with ok == false.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// New returns a RedisStore when REDIS_URL is configured and a MemoryStore otherwise.
// The returned close function is never nil.
func New(cfg config.CacheConfig, prefix string) (Store, func() error, error) {
	if cfg.GetRedisURL() == "" {
		return NewMemoryStore(), func() error { return nil }, nil
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisStore(client, prefix), client.Close, nil
}

// NewRedisClient builds a go-redis client from REDIS_URL, optionally
// skipping TLS certificate verification.
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if cfg.GetRedisTLSInsecure() {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return redis.NewClient(opt), nil
}

// RedisStore stores values in Redis under a common key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection. Used by readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

const (
	// DefaultMaxEntries bounds a MemoryStore created with NewMemoryStore.
	DefaultMaxEntries = 100_000

	memorySweepInterval = time.Minute
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process Store holding at most maxEntries values.
// Expired entries are dropped on read and by a sweep that runs on Set at
// most once per minute, or whenever the store is full.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	lastSweep  time.Time
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithLimit(DefaultMaxEntries)
}

// NewMemoryStoreWithLimit creates a MemoryStore bounded to maxEntries.
// A non-positive limit selects DefaultMaxEntries.
func NewMemoryStoreWithLimit(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.expired(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	_, exists := s.entries[key]
	full := !exists && len(s.entries) >= s.maxEntries
	if full || now.Sub(s.lastSweep) >= memorySweepInterval {
		s.sweepLocked(now)
	}
	if !exists && len(s.entries) >= s.maxEntries {
		s.evictOneLocked()
	}

	s.entries[key] = entry
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}

// evictOneLocked drops an arbitrary live entry; map iteration order makes it random.
func (s *MemoryStore) evictOneLocked() {
	for key := range s.entries {
		delete(s.entries, key)
		return
	}
}
