// Package common holds small string helpers shared across ingestors and
// the ensemble reducer.
package common

import "strings"

// ContainsAnyFold reports whether s contains any of subs, case-insensitively.
// Every ingestor and the ensemble reducer runs some form of this check
// against lowercase keyword lists (breezy/wind/gust, precip-type words,
// severity phrases), so it lives here instead of being copied per package.
func ContainsAnyFold(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
