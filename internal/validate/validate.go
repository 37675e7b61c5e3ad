// Package validate holds the local input heuristics used by the login and
// recovery flows. These gate whether a request is dispatched at all; the
// server remains the authority on the actual semantics.
package validate

import (
	"regexp"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{3,}$`)
	otpRe      = regexp.MustCompile(`^[0-9]{6}$`)
	// Register uses a stricter check than login; the login heuristic only
	// decides whether an identifier is plausibly an email at all.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Normalize normalizes an email address for consistent comparison
// by converting to lowercase and trimming whitespace
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LooksLikeEmail reports whether s plausibly is an email address.
func LooksLikeEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// LooksLikeUsername reports whether s matches the portal username shape:
// at least three characters from [A-Za-z0-9._-].
func LooksLikeUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// Identifier reports whether s is acceptable as a login identifier,
// either as an email or as a username.
func Identifier(s string) bool {
	return LooksLikeEmail(s) || LooksLikeUsername(s)
}

// OTPCode reports whether s is exactly six ASCII digits.
func OTPCode(s string) bool {
	return otpRe.MatchString(s)
}

// Email is the stricter registration-time email check.
func Email(s string) bool {
	return emailRe.MatchString(s)
}
