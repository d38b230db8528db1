package store

const (
	// KeyAuth holds the single password record.
	KeyAuth = "auth:password"

	KeyPrefixSession   = "session:"
	KeyPrefixRateLimit = "ratelimit:"
	KeyPrefixLink      = "link:"
)

// AuthKey returns the key of the singleton auth record.
func AuthKey() string {
	return KeyAuth
}

// SessionKey returns the key for a session token.
func SessionKey(token string) string {
	return KeyPrefixSession + token
}

// RateLimitKey returns the key for a client identity's login attempts.
func RateLimitKey(identity string) string {
	return KeyPrefixRateLimit + identity
}

// LinkKey returns the key for a slug.
func LinkKey(slug string) string {
	return KeyPrefixLink + slug
}

// LinkPattern matches every link key.
func LinkPattern() string {
	return KeyPrefixLink + "*"
}

// SessionPattern matches every session key.
func SessionPattern() string {
	return KeyPrefixSession + "*"
}

// RateLimitPattern matches every rate-limit key.
func RateLimitPattern() string {
	return KeyPrefixRateLimit + "*"
}

// SlugFromKey strips the link prefix. ok is false for foreign keys.
func SlugFromKey(key string) (slug string, ok bool) {
	if len(key) <= len(KeyPrefixLink) || key[:len(KeyPrefixLink)] != KeyPrefixLink {
		return "", false
	}
	return key[len(KeyPrefixLink):], true
}
