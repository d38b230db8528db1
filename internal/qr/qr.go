package qr

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 128
	MaxSize     = 1024

	dataURLPrefix = "data:image/png;base64,"
)

// ParseLevel maps low|medium|high|highest to a recovery level. Empty means medium.
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(s) {
	case "", "medium":
		return qrcode.Medium, nil
	case "low":
		return qrcode.Low, nil
	case "high":
		return qrcode.High, nil
	case "highest":
		return qrcode.Highest, nil
	default:
		return qrcode.Medium, fmt.Errorf("level must be one of low, medium, high, highest")
	}
}

// LevelName is the inverse of ParseLevel, for logs.
func LevelName(level qrcode.RecoveryLevel) string {
	switch level {
	case qrcode.Low:
		return "low"
	case qrcode.Medium:
		return "medium"
	case qrcode.High:
		return "high"
	case qrcode.Highest:
		return "highest"
	default:
		return "unknown"
	}
}

// ParseSize reads a pixel size. Empty means DefaultSize.
func ParseSize(s string) (int, error) {
	if s == "" {
		return DefaultSize, nil
	}
	size, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("size must be a number")
	}
	if size < MinSize || size > MaxSize {
		return 0, fmt.Errorf("size must be between %d and %d", MinSize, MaxSize)
	}
	return size, nil
}

// Render encodes content as a PNG QR code.
func Render(content string, level qrcode.RecoveryLevel, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, level, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// DataURL renders content at the default size and level as a data URL,
// the format stored in a link's qrCode field.
func DataURL(content string) (string, error) {
	png, err := Render(content, qrcode.Medium, DefaultSize)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
