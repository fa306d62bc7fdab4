// ABOUTME: Lookup-key normalization for names and emails
// ABOUTME: Upper-cases with the root locale and compares with Unicode case folding

package identity

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer produces the canonical form of a lookup key.
type Normalizer interface {
	NormalizeName(name string) string
	NormalizeEmail(email string) string
}

// UpperNormalizer upper-cases keys using locale-independent rules.
type UpperNormalizer struct{}

// NormalizeName returns the upper-cased name.
func (UpperNormalizer) NormalizeName(name string) string {
	// Casers are stateful, so each call gets its own.
	return cases.Upper(language.Und).String(name)
}

// NormalizeEmail returns the upper-cased email.
func (UpperNormalizer) NormalizeEmail(email string) string {
	return cases.Upper(language.Und).String(email)
}

// FoldEqual reports whether a and b are equal under Unicode case folding.
func FoldEqual(a, b string) bool {
	if a == b {
		return true
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
