package qr

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/skip2/go-qrcode"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    qrcode.RecoveryLevel
		wantErr bool
	}{
		{"", qrcode.Medium, false},
		{"low", qrcode.Low, false},
		{"HIGH", qrcode.High, false},
		{"highest", qrcode.Highest, false},
		{"ultra", qrcode.Medium, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
		if !tt.wantErr && LevelName(got) == "unknown" {
			t.Errorf("LevelName(%v) unknown", got)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", DefaultSize, false},
		{"128", 128, false},
		{"1024", 1024, false},
		{"127", 0, true},
		{"2048", 0, true},
		{"big", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSize(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestRender(t *testing.T) {
	png, err := Render("https://qr.domain.ext/r/promo", qrcode.High, 256)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Error("Render() did not return a PNG")
	}
}

func TestDataURL(t *testing.T) {
	u, err := DataURL("https://qr.domain.ext/r/promo")
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !strings.HasPrefix(u, dataURLPrefix) {
		t.Fatalf("DataURL() prefix = %q", u[:30])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(u, dataURLPrefix))
	if err != nil || !bytes.HasPrefix(raw, pngMagic) {
		t.Errorf("DataURL() payload is not a base64 PNG: %v", err)
	}
}
