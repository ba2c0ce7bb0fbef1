// Package fold provides case- and diacritic-insensitive text comparison.
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String lowercases s and strips combining marks ("Cancún" -> "cancun").
func String(s string) string {
	// transform.Chain keeps internal state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Equal reports whether a and b are equal after folding.
func Equal(a, b string) bool {
	return String(a) == String(b)
}

// Contains reports whether needle occurs in haystack after folding both.
// An empty needle always matches.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(String(haystack), String(needle))
}
