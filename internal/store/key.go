package store

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// DedupKey derives the article id from normalized title, source and the UTC
// publish day, so the same headline re-fetched later the same day collapses
// onto one record.
func DedupKey(title, source string, published time.Time) string {
	day := published.UTC().Format("2006-01-02")
	raw := normalizeText(title) + "|" + strings.ToLower(strings.TrimSpace(source)) + "|" + day
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// normalizeText lowercases, strips punctuation and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

func materiallyDifferent(a, b string) bool {
	return normalizeText(a) != normalizeText(b)
}
