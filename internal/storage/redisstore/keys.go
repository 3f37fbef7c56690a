package redisstore

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const maxKeyTextLen = 120

// Key builds "<prefix>:<key>". Keys that needed rewriting or truncation get an
// xxhash suffix of the raw key so distinct inputs stay distinct.
func Key(prefix, key string) string {
	p := sanitize(strings.TrimSpace(prefix))
	safe := sanitize(key)
	if safe == key && len(safe) <= maxKeyTextLen {
		return p + ":" + safe
	}
	if len(safe) > maxKeyTextLen {
		safe = safe[:maxKeyTextLen]
	}
	return fmt.Sprintf("%s:%s:h=%016x", p, safe, xxhash.Sum64String(key))
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// non-ASCII and punctuation
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r <= unicode.MaxASCII && unicode.IsDigit(r))
}
