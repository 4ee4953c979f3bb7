package domain

import "strings"

// NormalizeName trims leading/trailing whitespace and collapses internal whitespace runs.
// Ticket type names are compared after normalization.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
