// Package query turns free-text listing searches into structured filters
// plus a residual semantic query.
package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Language is the detected query language.
type Language string

// Supported languages.
const (
	Spanish Language = "es"
	English Language = "en"
	Unknown Language = "unknown"
)

// Normalized is a cleaned query ready for extraction.
type Normalized struct {
	Raw      string
	Text     string
	Tokens   []string
	Language Language
}

// IsEmpty reports whether nothing survived normalization.
func (n Normalized) IsEmpty() bool { return len(n.Tokens) == 0 }

// Normalize lowercases, strips punctuation and collapses whitespace.
// Dots, commas and hyphens survive between digits, "$" survives before a
// digit and "/" survives between letters ("a/c"). Accents are kept.
// It never fails: garbage in yields an empty, unknown-language result.
func Normalize(raw string) Normalized {
	lower := strings.ToLower(norm.NFC.String(raw))
	rs := []rune(lower)

	var b strings.Builder
	b.Grow(len(lower))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// "i'm" -> "im"
		case (r == '.' || r == ',' || r == '-') && between(rs, i, unicode.IsDigit):
			b.WriteRune(r)
		case r == '$' && i+1 < len(rs) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		case r == '/' && between(rs, i, unicode.IsLetter):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	return Normalized{
		Raw:      raw,
		Text:     strings.Join(tokens, " "),
		Tokens:   tokens,
		Language: detectLanguage(lower, tokens),
	}
}

func between(rs []rune, i int, pred func(rune) bool) bool {
	return i > 0 && i+1 < len(rs) && pred(rs[i-1]) && pred(rs[i+1])
}

// detectLanguage scores Spanish-only characters and per-language marker
// words. Ties, including no evidence at all, are Unknown.
func detectLanguage(lower string, tokens []string) Language {
	var es, en int
	for _, r := range lower {
		if strings.ContainsRune(spanishChars, r) {
			es++
		}
	}
	for _, t := range tokens {
		if _, ok := spanishMarkers[t]; ok {
			es++
		}
		if _, ok := englishMarkers[t]; ok {
			en++
		}
	}
	switch {
	case es > en:
		return Spanish
	case en > es:
		return English
	default:
		return Unknown
	}
}
