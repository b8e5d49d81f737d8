// Package strings provides string slice helpers for request normalization.
package strings

import (
	"strings"
)

// DedupeLower trims and lowercases each element, dropping empties and
// repeats. First-seen order is kept. A nil or empty input yields nil.
//
//	DedupeLower([]string{" TRF1", "stj", "trf1", ""}) // []string{"trf1", "stj"}
func DedupeLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
