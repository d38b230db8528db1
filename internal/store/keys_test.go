package store

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{AuthKey(), "auth:password"},
		{SessionKey("abc"), "session:abc"},
		{RateLimitKey("10.0.0.1"), "ratelimit:10.0.0.1"},
		{LinkKey("promo"), "link:promo"},
		{LinkPattern(), "link:*"},
		{SessionPattern(), "session:*"},
		{RateLimitPattern(), "ratelimit:*"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSlugFromKey(t *testing.T) {
	tests := []struct {
		key    string
		slug   string
		wantOK bool
	}{
		{"link:promo", "promo", true},
		{"link:", "", false},
		{"session:abc", "", false},
		{"lin", "", false},
	}
	for _, tt := range tests {
		slug, ok := SlugFromKey(tt.key)
		if slug != tt.slug || ok != tt.wantOK {
			t.Errorf("SlugFromKey(%q) = (%q, %v), want (%q, %v)", tt.key, slug, ok, tt.slug, tt.wantOK)
		}
	}
}
