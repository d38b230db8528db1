package memory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// entry holds either a string value or a hash, never both.
type entry struct {
	value     []byte
	hash      map[string]int64
	expiresAt time.Time // zero => no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// Store is the process-local backend. It is lost on restart and not shared
// between instances.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty memory store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

// lookup returns a live entry. Caller must hold at least the read lock.
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e, true
}

func (s *Store) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, store.ErrNotFound
	}
	if e.hash != nil {
		return nil, store.ErrWrongType
	}
	return clone(e.value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{value: clone(value), expiresAt: s.expiry(ttl)}
	return nil
}

func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.entries[key] = &entry{value: clone(value), expiresAt: s.expiry(ttl)}
	return true, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expired(now) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &entry{hash: make(map[string]int64)}
		s.entries[key] = e
	}
	if e.hash == nil {
		return 0, store.ErrWrongType
	}
	e.hash[field] += amount
	return e.hash[field], nil
}

// HGet returns a hash field as a string, mirroring what Redis would return.
func (s *Store) HGet(key, field string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(key)
	if !ok || e.hash == nil {
		return "", false
	}
	v, ok := e.hash[field]
	if !ok {
		return "", false
	}
	return strconv.FormatInt(v, 10), true
}

func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return store.ErrNotFound
	}
	if e.hash != nil {
		return store.ErrWrongType
	}
	next, err := fn(clone(e.value))
	if err != nil {
		return err
	}
	e.value = clone(next)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
// Reads already ignore expired entries; this only reclaims memory.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Backend() string { return "memory" }

func (s *Store) Close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
