package settings

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	spaceRun     = regexp.MustCompile(`[\s\x00-\x1f]+`)
)

// SanitizeText strips markup and control characters and collapses runs of
// whitespace, the same cleanup applied to every free-text form field.
func SanitizeText(s string) string {
	s = strictPolicy.Sanitize(s)
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CoerceInt reads the leading integer of s the way loose form input is read:
// surrounding space is ignored, an optional sign is honoured and parsing stops
// at the first non-digit. Anything unparseable is zero; overflow saturates.
func CoerceInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	// Out of range values come back clamped to the int64 bounds.
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// ParseIDList splits a comma-separated list and coerces every element.
// Non-positive values are dropped; duplicates are kept in first-seen order only once.
func ParseIDList(s string) []int64 {
	s = SanitizeText(s)
	if s == "" {
		return nil
	}
	var out []int64
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(s, ",") {
		n := CoerceInt(part)
		if n <= 0 {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// FormatIDList is the inverse of ParseIDList for canonical input.
func FormatIDList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
