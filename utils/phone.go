// Package utils provides utility functions for the application.
package utils

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("phone must normalize to 10 or 11 digits")

// NormalizePhone strips every non-digit character and requires a 10- or
// 11-digit result, the canonical key for duplicate detection. Anything else
// is rejected at intake.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 || len(digits) > 11 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
