// Package normalizer canonicalizes statement text, amounts and dates.
// text.go handles description normalization and merchant fingerprinting.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)
	longDigitRunRegex    = regexp.MustCompile(`\d{5,}`)
)

// stopWords are transactional noise tokens that never identify a merchant.
var stopWords = toSet(
	"pix", "doc", "ted", "tef", "aut", "autoriz", "autorizacao",
	"ref", "referencia", "id", "nsu", "cod", "codigo",
	"nr", "num", "numero", "transacao",
)

const (
	fingerprintTokens   = 4
	fingerprintFallback = 50
)

// StripDiacritics removes combining marks, so "Lançamento" becomes "Lancamento".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Normalize lowercases, strips accents and punctuation, drops noise tokens
// and collapses whitespace. Empty or unusable input yields "".
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	s := strings.ToLower(StripDiacritics(text))
	s = nonAlphanumericRegex.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, noise := stopWords[w]; noise {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// Fingerprint derives the merchant key used by the merchant cache.
// Reference numbers (digit runs of five or more) are removed and the first
// four remaining tokens with at least two characters are kept.
func Fingerprint(description string) string {
	normalized := Normalize(description)
	if normalized == "" {
		return ""
	}

	stripped := longDigitRunRegex.ReplaceAllString(normalized, " ")
	tokens := make([]string, 0, fingerprintTokens)
	for _, tok := range strings.Fields(stripped) {
		if len(tok) < 2 {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == fingerprintTokens {
			break
		}
	}

	if len(tokens) == 0 {
		if len(normalized) > fingerprintFallback {
			return normalized[:fingerprintFallback]
		}
		return normalized
	}
	return strings.Join(tokens, " ")
}

// CleanDescription trims and collapses whitespace without changing case,
// for storing a human-readable description.
func CleanDescription(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
