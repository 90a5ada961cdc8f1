package builder

import (
	"strings"
	"time"
	"unicode"
)

// NormalizeRoute returns path with a single leading slash, no trailing
// slash and no empty segments. An empty path is the home route "/".
func NormalizeRoute(path string) string {
	var segs []string
	for _, s := range strings.Split(strings.TrimSpace(path), "/") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return "/" + strings.Join(segs, "/")
}

// IsPascalCase reports whether name starts with an uppercase letter and
// contains only letters and digits.
func IsPascalCase(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 && !unicode.IsUpper(r) {
			return false
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Slug lowercases s and joins its alphanumeric runs with hyphens.
func Slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// NextTimestamp returns the current time at microsecond precision, forced
// strictly after prev so that successive UpdatedAt stamps of one entity
// always increase.
func NextTimestamp(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
