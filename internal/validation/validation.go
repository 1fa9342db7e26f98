// Package validation holds input rules shared by the HTTP layer and the
// prediction form.
package validation

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrParamEmpty is returned when a path parameter is empty or whitespace-only.
	ErrParamEmpty = errors.New("parameter is required")
	// ErrParamTooLong is returned when a path parameter exceeds the maximum length.
	ErrParamTooLong = errors.New("parameter too long")
	// ErrParamInvalidChars is returned when a path parameter contains disallowed characters.
	ErrParamInvalidChars = errors.New("parameter contains invalid characters")
)

// ValidateName trims a location or region name taken from a URL path and
// restricts it to letters, digits, space, comma, hyphen, period and apostrophe
// ("Martha's Vineyard"). maxLen is in runes; 0 means unlimited.
func ValidateName(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrParamEmpty
	}
	if maxLen > 0 && len(r) > maxLen {
		return "", ErrParamTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrParamInvalidChars
		}
	}
	return s, nil
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'':
		return true
	}
	return false
}
