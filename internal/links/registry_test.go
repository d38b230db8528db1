package links

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/store/memory"
)

type stepClock struct{ t time.Time }

// Now advances one second per call so every write gets a distinct time.
func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestRegistry() *Registry {
	clock := &stepClock{t: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	return NewRegistry(memory.New(), logger.Nop()).WithClock(clock.Now)
}

func strPtr(s string) *string { return &s }

func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug string
		ok   bool
	}{
		{"ok-slug_2", true},
		{"ABC", true},
		{"bad slug!", false},
		{"", false},
		{"a/b", false},
		{"émoji", false},
	}
	for _, tt := range tests {
		err := ValidateSlug(tt.slug)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateSlug(%q) = %v, want ok=%v", tt.slug, err, tt.ok)
		}
	}
}

func TestValidateDestination(t *testing.T) {
	tests := []struct {
		dest string
		ok   bool
	}{
		{"https://example.com/sale", true},
		{"http://localhost:3000", true},
		{"tel:+33123456789", true},
		{"geo:48.85,2.35", true},
		{"mailto:me@example.com", true},
		{"not a url", false},
		{"example.com", false},
		{"/relative/path", false},
		{"https://", false},
		{"http:///nohost", false},
		{" https://example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		err := ValidateDestination(tt.dest)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateDestination(%q) = %v, want ok=%v", tt.dest, err, tt.ok)
		}
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	link, err := r.Create(ctx, CreateInput{Slug: "promo", Destination: "https://a.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if link.Clicks != 0 || link.Status != domain.StatusActive || !link.CreatedAt.Equal(link.UpdatedAt) {
		t.Errorf("Create() = %+v", link)
	}

	tests := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"duplicate", CreateInput{Slug: "promo", Destination: "https://b.com"}, domain.ErrDuplicateSlug},
		{"bad slug", CreateInput{Slug: "bad slug!", Destination: "https://a.com"}, domain.ErrInvalidSlug},
		{"bad destination", CreateInput{Slug: "x", Destination: "not a url"}, domain.ErrInvalidDestination},
		{"bad status", CreateInput{Slug: "y", Destination: "https://a.com", Status: "archived"}, domain.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}

	got, _ := r.Get(ctx, "promo")
	if got.Destination != "https://a.com" {
		t.Errorf("duplicate create overwrote destination: %q", got.Destination)
	}

	draft, err := r.Create(ctx, CreateInput{Slug: "d", Destination: "tel:+331", Status: "draft", QRCode: "data:image/png;base64,AA=="})
	if err != nil || draft.Status != domain.StatusDraft || draft.QRCode == "" {
		t.Errorf("Create() draft = %+v, %v", draft, err)
	}
}

func TestGetIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	_, _ = r.Create(ctx, CreateInput{Slug: "s", Destination: "https://a.com"})

	a, err1 := r.Get(ctx, "s")
	b, err2 := r.Get(ctx, "s")
	if err1 != nil || err2 != nil || !reflect.DeepEqual(a, b) {
		t.Errorf("Get() not idempotent: %+v / %+v", a, b)
	}
	if _, err := r.Get(ctx, "nope"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("Get() missing error = %v", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	created, _ := r.Create(ctx, CreateInput{Slug: "s", Destination: "https://a.com", QRCode: "qr"})

	var changed []string
	r.OnChange(func(slug string) { changed = append(changed, slug) })

	draft := domain.StatusDraft
	updated, err := r.Update(ctx, "s", domain.LinkPatch{Status: &draft})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Destination != "https://a.com" || updated.QRCode != "qr" || updated.Status != domain.StatusDraft {
		t.Errorf("Update() lost unspecified fields: %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("Update() timestamps: created %v updated %v", updated.CreatedAt, updated.UpdatedAt)
	}

	// empty patch still bumps updatedAt
	again, _ := r.Update(ctx, "s", domain.LinkPatch{})
	if !again.UpdatedAt.After(updated.UpdatedAt) {
		t.Error("empty Update() did not refresh updatedAt")
	}

	if _, err := r.Update(ctx, "s", domain.LinkPatch{Destination: strPtr("also not a url")}); !errors.Is(err, domain.ErrInvalidDestination) {
		t.Errorf("Update() bad destination error = %v", err)
	}
	stored, _ := r.Get(ctx, "s")
	if stored.Destination != "https://a.com" || !stored.UpdatedAt.Equal(again.UpdatedAt) {
		t.Errorf("rejected Update() mutated the record: %+v", stored)
	}

	if _, err := r.Update(ctx, "missing", domain.LinkPatch{Destination: strPtr("https://b.com")}); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("Update() missing error = %v", err)
	}

	if len(changed) != 2 {
		t.Errorf("OnChange fired %d times, want 2", len(changed))
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	_, _ = r.Create(ctx, CreateInput{Slug: "s", Destination: "https://a.com"})

	var changed []string
	r.OnChange(func(slug string) { changed = append(changed, slug) })

	if err := r.Delete(ctx, "s"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := r.Get(ctx, "s"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("Get() after Delete error = %v", err)
	}
	if err := r.Delete(ctx, "s"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
	if len(changed) != 1 || changed[0] != "s" {
		t.Errorf("OnChange = %v", changed)
	}

	// slug can be reused once deleted
	if _, err := r.Create(ctx, CreateInput{Slug: "s", Destination: "https://b.com"}); err != nil {
		t.Errorf("Create() after Delete error = %v", err)
	}
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()

	for _, slug := range []string{"first", "second", "third"} {
		if _, err := r.Create(ctx, CreateInput{Slug: slug, Destination: "https://a.com/" + slug}); err != nil {
			t.Fatalf("Create(%s) error = %v", slug, err)
		}
	}
	if _, err := r.Update(ctx, "first", domain.LinkPatch{Destination: strPtr("https://a.com/new")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	links, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var slugs []string
	for _, l := range links {
		slugs = append(slugs, l.Slug)
	}
	want := []string{"first", "third", "second"}
	if !reflect.DeepEqual(slugs, want) {
		t.Errorf("List() order = %v, want %v", slugs, want)
	}
}

func TestIncrementClicks(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry()
	created, _ := r.Create(ctx, CreateInput{Slug: "s", Destination: "https://a.com"})

	for i := int64(1); i <= 5; i++ {
		n, err := r.IncrementClicks(ctx, "s")
		if err != nil || n != i {
			t.Fatalf("IncrementClicks() = %d, %v, want %d", n, err, i)
		}
	}

	link, _ := r.Get(ctx, "s")
	if link.Clicks != 5 {
		t.Errorf("Clicks = %d, want 5", link.Clicks)
	}
	if !link.UpdatedAt.Equal(created.UpdatedAt) {
		t.Error("IncrementClicks() must not touch updatedAt")
	}
	if _, err := r.IncrementClicks(ctx, "missing"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("IncrementClicks() missing error = %v", err)
	}
}
