package similarity

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases s, drops everything except ASCII letters, digits,
// whitespace and hyphens, collapses whitespace runs to one space and trims.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize normalizes s, splits it on spaces and hyphens and stems each token.
// Tokens that stem to nothing, such as "es", are dropped.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(NormalizeText(s), func(r rune) bool {
		return r == ' ' || r == '-'
	})
	out := fields[:0]
	for _, f := range fields {
		if t := Stem(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Stem applies a minimal suffix-stripping stemmer: "ies" becomes "y",
// a trailing "es" is dropped, and a trailing "s" is dropped on words longer
// than three characters.
func Stem(w string) string {
	switch {
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "es"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "s") && len(w) > 3:
		return w[:len(w)-1]
	}
	return w
}

// Acronym joins the first letters of the stemmed tokens of s.
func Acronym(s string) string {
	var b strings.Builder
	for _, t := range Tokenize(s) {
		if t == "" {
			continue
		}
		b.WriteByte(t[0])
	}
	return b.String()
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
