package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextNormalizer wraps transform.Transformer to provide convenient string normalization methods.
// This is not safe for concurrent use.
type TextNormalizer struct {
	transformer transform.Transformer
}

// NewTextNormalizer creates a new TextNormalizer instance.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		transformer: transform.Chain(
			norm.NFKD,                          // Decompose with compatibility decomposition
			runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
			runes.Map(unicode.ToLower),         // Convert to lowercase before normalization
			norm.NFKC,                          // Normalize with compatibility composition
		),
	}
}

// Normalize folds text to lowercase without accents and compresses whitespace.
// Returns empty string if normalization fails or input is empty.
func (n *TextNormalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = CompressWhitespacePreserveNewlines(s)
	if s == "" {
		return ""
	}

	result, _, err := transform.String(n.transformer, s)
	if err != nil || result == "" {
		return ""
	}

	return result
}

// Slugify turns a group name or slug typed by a user into the stored slug form:
// folded letters and digits joined by single hyphens.
func (n *TextNormalizer) Slugify(s string) string {
	folded := n.Normalize(s)
	if folded == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(folded))

	pendingHyphen := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return b.String()
}

// NormalizeContent cleans user-submitted post or comment text. Unicode is put in
// NFC form, control characters other than newline and tab are dropped, and
// whitespace is compressed with newlines preserved. Case is kept.
func NormalizeContent(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	return CompressWhitespacePreserveNewlines(s)
}
