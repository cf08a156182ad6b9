// Package validate holds the pure input checks used by form fields.
package validate

import "strings"

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// Func reports whether raw user input is acceptable for a field.
type Func func(string) bool

// IsPlausiblePhone keeps only digits and '+' and accepts the result when it
// starts with '+' and carries between 10 and 15 digits.
func IsPlausiblePhone(s string) bool {
	cleaned := StripPhone(s)
	if !strings.HasPrefix(cleaned, "+") {
		return false
	}
	digits := 0
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// StripPhone drops every rune that is neither a digit nor '+'.
func StripPhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNonEmptyTrimmed fails on blank input.
func IsNonEmptyTrimmed(s string) bool {
	return strings.TrimSpace(s) != ""
}
