// Package normalize holds the canonical forms used for lookups and
// comparisons. Stores and handlers call these instead of trimming and
// lower-casing inline so every path agrees on what "the same email" means.
package normalize

import "strings"

// Email trims and lower-cases an email address. This is the natural key of
// a user record.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lower-cases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status trims and lower-cases an account or record status.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value and preserves case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
