package domain

import "time"

// LinkStatus is the bookkeeping state of a short link.
// Both states resolve identically on redirect.
type LinkStatus string

const (
	StatusDraft  LinkStatus = "draft"
	StatusActive LinkStatus = "active"
)

// Valid reports whether s is a known status.
func (s LinkStatus) Valid() bool {
	return s == StatusDraft || s == StatusActive
}

// Link maps a permanent slug to a mutable destination.
//
// Slug is immutable once created. Destination is always an absolute URL
// at write time.
type Link struct {
	Slug        string     `json:"slug"`
	Destination string     `json:"destination"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Clicks      int64      `json:"clicks"`
	Status      LinkStatus `json:"status"`

	// QRCode is an optional cached rendering of the short URL,
	// usually a data URL produced by the admin UI or by renderQr.
	QRCode string `json:"qrCode,omitempty"`
}

// LinkPatch carries the optional fields of a partial update.
// A nil field keeps the stored value.
type LinkPatch struct {
	Destination *string
	Status      *LinkStatus
	QRCode      *string
}

// Empty reports whether the patch changes nothing besides updatedAt.
func (p LinkPatch) Empty() bool {
	return p.Destination == nil && p.Status == nil && p.QRCode == nil
}
