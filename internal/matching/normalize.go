package matching

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalizer selects how tokens are compared. The zero value compares tokens
// by exact string equality, so "Math" and "math" never match.
type Normalizer string

const (
	// Exact leaves tokens untouched.
	Exact Normalizer = "exact"
	// CaseFold trims surrounding whitespace and applies Unicode case folding,
	// dropping tokens that end up empty.
	CaseFold Normalizer = "casefold"
)

// Apply returns a normalized copy of v. The input is not modified.
func (n Normalizer) Apply(v Vector) Vector {
	if n != CaseFold {
		return v
	}
	// Casers carry state and are not shared across calls.
	folder := cases.Fold()
	out := make(Vector, 0, len(v))
	for _, tok := range v {
		if tok, ok := foldToken(folder, tok); ok {
			out = append(out, tok)
		}
	}
	return out
}

// keyFunc returns the comparison key for a single token and whether the
// token survives normalization.
func (n Normalizer) keyFunc() func(string) (string, bool) {
	if n != CaseFold {
		return func(tok string) (string, bool) { return tok, true }
	}
	folder := cases.Fold()
	return func(tok string) (string, bool) { return foldToken(folder, tok) }
}

func foldToken(folder cases.Caser, tok string) (string, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false
	}
	return folder.String(tok), true
}
