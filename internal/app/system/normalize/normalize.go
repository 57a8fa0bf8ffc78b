// Package normalize canonicalizes user-supplied identifiers before they are
// used as store keys or compared.
package normalize

import "strings"

// GroupName returns the canonical group key: surrounding whitespace removed
// and lowercased. Interior whitespace is kept as typed, so "Study  Group"
// and "study group" are different groups.
func GroupName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and preserves its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// UserID trims an opaque user identifier. IDs are case sensitive.
func UserID(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a query-string value and preserves its case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// PrivacyStatus lowercases a YouTube privacy status, falling back to def
// for empty or unknown values.
func PrivacyStatus(s, def string) string {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "public", "private", "unlisted":
		return v
	default:
		return def
	}
}
