package security

import "regexp"

const (
	// PasswordMinLength and PasswordMaxLength bound accepted passwords.
	// The enforced 6-20 range is authoritative; user-facing messages quote
	// the same bounds.
	PasswordMinLength = 6
	PasswordMaxLength = 20
)

// local@domain.tld shape only; no DNS or MX verification.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s has a plausible email shape.
func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}

// ValidPassword reports whether the password length is within bounds.
func ValidPassword(s string) bool {
	return len(s) >= PasswordMinLength && len(s) <= PasswordMaxLength
}
