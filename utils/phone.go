package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// NormalizePhone keeps only digits, prefixes the Brazilian country code when it
// is missing and returns the number as "+55DDNNNNNNNNN". An empty input stays empty.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := strings.TrimLeft(b.String(), "0")

	if !strings.HasPrefix(phone, "55") || len(phone) < 12 {
		phone = "55" + phone
	}

	// 55 + DDD + 8 or 9 digits
	if len(phone) != 12 && len(phone) != 13 {
		return "", fmt.Errorf("invalid phone length: %d", len(phone))
	}
	return "+" + phone, nil
}
