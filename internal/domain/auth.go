package domain

import "time"

// AuthRecord is the singleton holding the shared password hash.
// It is created once and never rewritten.
type AuthRecord struct {
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is a bearer session issued on setup or login.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the session is still usable at now.
func (s Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// RateLimitRecord tracks failed logins for one client identity.
type RateLimitRecord struct {
	Attempts     int        `json:"attempts"`
	FirstAttempt time.Time  `json:"firstAttempt"`
	LockedUntil  *time.Time `json:"lockedUntil,omitempty"`
}

// Locked reports whether the record rejects attempts at now.
func (r RateLimitRecord) Locked(now time.Time) bool {
	return r.LockedUntil != nil && r.LockedUntil.After(now)
}

// Status answers the unauthenticated status probe.
type Status struct {
	IsSetup         bool `json:"isSetup"`
	IsAuthenticated bool `json:"isAuthenticated"`
}
