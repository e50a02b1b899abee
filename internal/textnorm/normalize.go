package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Normalize canonicalizes free text for phrase comparison: Unicode decompose,
// strip combining marks, lowercase, map everything outside [a-z0-9] and
// whitespace to a space, collapse whitespace, trim. Total and idempotent; any
// input yields a valid (possibly empty) result.
func Normalize(text string) string {
	folded := strings.ToLower(text)

	t := transform.Chain(norm.NFKD, transform.RemoveFunc(isMn))
	if out, _, err := transform.String(t, folded); err == nil {
		folded = out
	}

	folded = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return ' '
		}
	}, folded)

	return strings.Join(strings.Fields(folded), " ")
}

// Tokenize normalizes then splits on whitespace, dropping empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(Normalize(text))
}

// TokenSet is Tokenize as a membership set.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// Slug reduces text to an identifier-safe form: normalized, with token runs
// joined by underscores. Empty input slugs to "cmd".
func Slug(text string) string {
	slug := strings.Join(strings.Fields(Normalize(text)), "_")
	if slug == "" {
		return "cmd"
	}
	return slug
}
