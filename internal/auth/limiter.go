package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

const (
	DefaultLoginWindow      = 15 * time.Minute
	DefaultLoginMaxAttempts = 5
	DefaultLoginLockout     = 15 * time.Minute
)

// LimiterOptions tunes the failed-login limiter. Zero values fall back to
// the defaults above.
type LimiterOptions struct {
	Window      time.Duration
	MaxAttempts int
	Lockout     time.Duration
	Now         func() time.Time
}

// Limiter counts failed logins per client identity.
//
// The window is anchored at the first failure of a series. Reaching
// MaxAttempts inside the window locks the identity for Lockout, whatever
// the attempt count. An expired window or an expired lock reads as a
// fresh identity.
type Limiter struct {
	store       store.Store
	window      time.Duration
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func NewLimiter(s store.Store, opts LimiterOptions) *Limiter {
	l := &Limiter{
		store:       s,
		window:      opts.Window,
		maxAttempts: opts.MaxAttempts,
		lockout:     opts.Lockout,
		now:         opts.Now,
	}
	if l.window <= 0 {
		l.window = DefaultLoginWindow
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = DefaultLoginMaxAttempts
	}
	if l.lockout <= 0 {
		l.lockout = DefaultLoginLockout
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// MaxAttempts returns the number of failures allowed before a lockout.
func (l *Limiter) MaxAttempts() int { return l.maxAttempts }

// Check returns a *domain.RateLimitError while identity is locked.
func (l *Limiter) Check(ctx context.Context, identity string) error {
	rec, ok, err := l.load(ctx, identity)
	if err != nil || !ok {
		return err
	}
	now := l.now()
	if rec.Locked(now) {
		return &domain.RateLimitError{RetryAfter: rec.LockedUntil.Sub(now)}
	}
	return nil
}

// RecordFailure registers one failed attempt and returns the updated record.
// The returned record is locked when this failure reached the threshold.
func (l *Limiter) RecordFailure(ctx context.Context, identity string) (domain.RateLimitRecord, error) {
	rec, ok, err := l.load(ctx, identity)
	if err != nil {
		return domain.RateLimitRecord{}, err
	}

	now := l.now()
	if !ok || l.stale(rec, now) {
		rec = domain.RateLimitRecord{Attempts: 1, FirstAttempt: now}
	} else {
		rec.Attempts++
	}

	if rec.Attempts >= l.maxAttempts {
		until := now.Add(l.lockout)
		rec.LockedUntil = &until
	}

	if err := l.save(ctx, identity, rec, now); err != nil {
		return domain.RateLimitRecord{}, err
	}
	return rec, nil
}

// Remaining returns how many failures rec may still absorb before locking.
func (l *Limiter) Remaining(rec domain.RateLimitRecord) int {
	if r := l.maxAttempts - rec.Attempts; r > 0 {
		return r
	}
	return 0
}

// Reset forgets identity, after a successful login.
func (l *Limiter) Reset(ctx context.Context, identity string) error {
	return l.store.Del(ctx, store.RateLimitKey(identity))
}

// Stale reports whether rec no longer constrains anything at now. Used by
// the sweeper to purge leftovers on backends without native TTLs.
func (l *Limiter) Stale(rec domain.RateLimitRecord, now time.Time) bool {
	return l.stale(rec, now)
}

func (l *Limiter) stale(rec domain.RateLimitRecord, now time.Time) bool {
	if rec.LockedUntil != nil {
		return !rec.LockedUntil.After(now)
	}
	return !now.Before(rec.FirstAttempt.Add(l.window))
}

func (l *Limiter) load(ctx context.Context, identity string) (domain.RateLimitRecord, bool, error) {
	var rec domain.RateLimitRecord
	data, err := l.store.Get(ctx, store.RateLimitKey(identity))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return rec, false, nil
		}
		return rec, false, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record must not wedge the identity.
		return domain.RateLimitRecord{}, false, nil
	}
	return rec, true, nil
}

func (l *Limiter) save(ctx context.Context, identity string, rec domain.RateLimitRecord, now time.Time) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal rate limit record: %w", err)
	}

	ttl := rec.FirstAttempt.Add(l.window).Sub(now)
	if rec.LockedUntil != nil {
		ttl = rec.LockedUntil.Sub(now)
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return l.store.Set(ctx, store.RateLimitKey(identity), data, ttl)
}
