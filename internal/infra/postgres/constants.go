package postgres

import "strings"

// Order by clause constants
const orderByCreatedAtDesc = " ORDER BY created_at DESC"

// escapeLikePattern escapes special characters in LIKE/ILIKE patterns.
// The % and _ characters have special meaning in SQL LIKE patterns;
// without escaping, user search input could inject wildcards.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// wrapLikePattern wraps a search term with % wildcards after escaping.
func wrapLikePattern(s string) string {
	return "%" + escapeLikePattern(s) + "%"
}
