package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	MinPasswordLength = 6

	// bcrypt ignores input past 72 bytes, so longer secrets are refused.
	maxPasswordBytes = 72
	tokenBytes       = 32
)

// Options tunes the manager. Zero values fall back to defaults.
type Options struct {
	BcryptCost int
	SessionTTL time.Duration
	Now        func() time.Time
}

// Manager owns the shared password and the sessions it issues.
type Manager struct {
	store      store.Store
	limiter    *Limiter
	log        logger.Logger
	cost       int
	sessionTTL time.Duration
	now        func() time.Time
}

func NewManager(s store.Store, limiter *Limiter, opts Options, log logger.Logger) *Manager {
	m := &Manager{
		store:      s,
		limiter:    limiter,
		log:        log,
		cost:       opts.BcryptCost,
		sessionTTL: opts.SessionTTL,
		now:        opts.Now,
	}
	if m.cost < bcrypt.MinCost || m.cost > bcrypt.MaxCost {
		m.cost = bcrypt.DefaultCost
	}
	if m.sessionTTL <= 0 {
		m.sessionTTL = DefaultSessionTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// SessionTTL is the lifetime of issued sessions, used for the cookie max age.
func (m *Manager) SessionTTL() time.Duration { return m.sessionTTL }

// Status reports whether a password exists and whether token is a live session.
func (m *Manager) Status(ctx context.Context, token string) (domain.Status, error) {
	isSetup, err := m.isSetup(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	authed, err := m.Verify(ctx, token)
	if err != nil {
		return domain.Status{}, err
	}
	return domain.Status{IsSetup: isSetup, IsAuthenticated: authed}, nil
}

// Setup stores the one and only password and opens a first session.
func (m *Manager) Setup(ctx context.Context, password string) (domain.Session, error) {
	isSetup, err := m.isSetup(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if isSetup {
		return domain.Session{}, domain.ErrAlreadySetUp
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return domain.Session{}, domain.ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return domain.Session{}, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	data, err := json.Marshal(domain.AuthRecord{
		PasswordHash: string(hash),
		CreatedAt:    m.now().UTC(),
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to marshal auth record: %w", err)
	}

	created, err := m.store.SetNX(ctx, store.AuthKey(), data, 0)
	if err != nil {
		return domain.Session{}, err
	}
	if !created {
		// lost a race against a concurrent setup
		return domain.Session{}, domain.ErrAlreadySetUp
	}

	m.log.Info("password set up")
	return m.createSession(ctx)
}

// Login checks password for identity, subject to the failed-login limiter.
func (m *Manager) Login(ctx context.Context, password, identity string) (domain.Session, error) {
	if err := m.limiter.Check(ctx, identity); err != nil {
		return domain.Session{}, err
	}

	rec, ok, err := m.loadAuth(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, domain.ErrNotSetUp
	}
	if password == "" {
		return domain.Session{}, domain.ErrMissingPassword
	}

	// bcrypt only sees the first 72 bytes, so a longer candidate can never
	// be the stored password.
	if len(password) > maxPasswordBytes {
		return domain.Session{}, m.failLogin(ctx, identity)
	}

	// CompareHashAndPassword compares in constant time.
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) && !errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return domain.Session{}, fmt.Errorf("failed to compare password: %w", err)
		}
		return domain.Session{}, m.failLogin(ctx, identity)
	}

	if err := m.limiter.Reset(ctx, identity); err != nil {
		m.log.Warn("failed to reset login limiter",
			logger.String("identity", identity),
			logger.Error(err))
	}
	return m.createSession(ctx)
}

func (m *Manager) failLogin(ctx context.Context, identity string) error {
	rl, err := m.limiter.RecordFailure(ctx, identity)
	if err != nil {
		return err
	}

	now := m.now()
	if rl.Locked(now) {
		m.log.Warn("login locked out",
			logger.String("identity", identity),
			logger.Int("attempts", rl.Attempts),
			logger.Time("locked_until", *rl.LockedUntil))
		return &domain.RateLimitError{RetryAfter: rl.LockedUntil.Sub(now), Locked: true}
	}
	return &domain.InvalidPasswordError{Remaining: m.limiter.Remaining(rl)}
}

// Verify reports whether token names a live session.
func (m *Manager) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	data, err := m.store.Get(ctx, store.SessionKey(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		m.log.Warn("discarding unreadable session record", logger.Error(err))
		return false, nil
	}
	return sess.Valid(m.now()), nil
}

// SessionExpired reports whether a raw session record may be purged at now.
// Unreadable records count as expired.
func SessionExpired(data []byte, now time.Time) bool {
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return true
	}
	return !sess.Valid(now)
}

func (m *Manager) isSetup(ctx context.Context) (bool, error) {
	_, ok, err := m.loadAuth(ctx)
	return ok, err
}

func (m *Manager) loadAuth(ctx context.Context) (domain.AuthRecord, bool, error) {
	var rec domain.AuthRecord
	data, err := m.store.Get(ctx, store.AuthKey())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return rec, false, nil
		}
		return rec, false, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false, fmt.Errorf("%w: unreadable auth record: %w", domain.ErrStorage, err)
	}
	return rec, true, nil
}

func (m *Manager) createSession(ctx context.Context) (domain.Session, error) {
	token, err := newToken()
	if err != nil {
		return domain.Session{}, err
	}

	now := m.now().UTC()
	sess := domain.Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := m.store.Set(ctx, store.SessionKey(token), data, m.sessionTTL); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
