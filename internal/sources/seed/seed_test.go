package seed

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "links.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeSeed(t, `---
links:
  - slug: promo
    destination: https://example.com/sale
  - slug: phone
    destination: tel:+33123456789
    status: draft
`)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(file.Links) != 2 {
		t.Fatalf("Load() got %d links, want 2", len(file.Links))
	}
	if file.Links[1].Status != "draft" {
		t.Errorf("Links[1].Status = %q", file.Links[1].Status)
	}
}

func TestLoaderTemplateVariables(t *testing.T) {
	t.Setenv("QRLINK_VAR_SHOP", "https://shop.domain.ext")
	path := writeSeed(t, `links:
  - slug: shop
    destination: "{{QRLINK_VAR_SHOP}}/spring"
  - slug: unset
    destination: "{{ QRLINK_VAR_NOT_SET }}"
`)

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := file.Links[0].Destination; got != "https://shop.domain.ext/spring" {
		t.Errorf("Destination = %q", got)
	}
	if got := file.Links[1].Destination; got != "" {
		t.Errorf("unset variable expanded to %q", got)
	}
}

func TestLoaderErrors(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Error("Load() of missing file expected error")
	}
	if _, err := NewLoader(writeSeed(t, "links: [::")).Load(); err == nil {
		t.Error("Load() of broken yaml expected error")
	}
}

func TestMap(t *testing.T) {
	file := File{Links: []Entry{
		{Slug: "ok", Destination: "https://a.com"},
		{Slug: "bad slug", Destination: "https://a.com"},
		{Slug: "nourl", Destination: "nope"},
		{Slug: "status", Destination: "https://a.com", Status: "archived"},
		{Slug: "ok", Destination: "https://b.com"},
		{Slug: "draft", Destination: "geo:1,2", Status: "draft"},
	}}

	inputs, rejected := Map(file)
	if len(inputs) != 2 || inputs[0].Slug != "ok" || inputs[1].Slug != "draft" {
		t.Errorf("Map() inputs = %+v", inputs)
	}
	if len(rejected) != 4 {
		t.Fatalf("Map() rejected %d, want 4", len(rejected))
	}
	if !errors.Is(rejected[0].Err, domain.ErrInvalidSlug) || !errors.Is(rejected[1].Err, domain.ErrInvalidDestination) {
		t.Errorf("unexpected rejection reasons: %v, %v", rejected[0].Err, rejected[1].Err)
	}
	if rejected[3].Index != 4 {
		t.Errorf("duplicate rejected at index %d, want 4", rejected[3].Index)
	}
}
