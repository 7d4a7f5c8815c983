// Package strings provides string-slice normalization helpers for rule
// condition lists.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty entries from a condition value
// list (departments, regions, industries, user sources), trimming
// whitespace from each element. Order is preserved so rule authors see
// their lists back in the order they typed them.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// DedupeAndTrimLower is like DedupeAndTrim but also lowercases each
// element. Used for recipient domain lists, which compare
// case-insensitively against extracted email domains.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		lowered := strings.ToLower(strings.TrimSpace(v))
		if lowered == "" {
			continue
		}
		if _, ok := seen[lowered]; !ok {
			seen[lowered] = struct{}{}
			result = append(result, lowered)
		}
	}

	return result
}
