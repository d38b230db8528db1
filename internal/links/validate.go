package links

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateSlug accepts letters, digits, hyphens and underscores only.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return domain.ErrInvalidSlug
	}
	return nil
}

// ValidateDestination requires an absolute URL. Web URLs need a host;
// other schemes (tel:, geo:, mailto:) need a non-empty body.
func ValidateDestination(raw string) error {
	if raw == "" || strings.TrimSpace(raw) != raw {
		return domain.ErrInvalidDestination
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return domain.ErrInvalidDestination
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" || u.Hostname() == "" {
			return domain.ErrInvalidDestination
		}
	default:
		if u.Opaque == "" && u.Host == "" && u.Path == "" {
			return domain.ErrInvalidDestination
		}
	}
	return nil
}

// ParseStatus maps an optional status string; empty means active.
func ParseStatus(raw string) (domain.LinkStatus, error) {
	if raw == "" {
		return domain.StatusActive, nil
	}
	s := domain.LinkStatus(raw)
	if !s.Valid() {
		return "", domain.ErrInvalidStatus
	}
	return s, nil
}
