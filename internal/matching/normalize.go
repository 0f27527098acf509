// Package matching reconciles facility names from the places provider with the
// vaccine provider's records. There is no shared identifier between the two, so
// names are reduced to a canonical key and compared by edit distance.
package matching

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultSuffixes are generic facility-type words that carry no identifying
// information and are stripped from the end of a name.
var DefaultSuffixes = []string{"한의원", "의원", "병원", "보건소", "hospital", "clinic", "medicalcenter"}

// Normalizer canonicalizes facility names for comparison. The same rule is used
// when populating the cache and when looking names up.
type Normalizer struct {
	suffixes []string
}

// NewNormalizer creates a normalizer that strips the given suffixes. Suffixes are
// canonicalized themselves and tried longest first.
func NewNormalizer(suffixes []string) *Normalizer {
	seen := make(map[string]struct{}, len(suffixes))
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		c := canonical(s)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		normalized = append(normalized, c)
	}
	sort.Slice(normalized, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(normalized[i]), utf8.RuneCountInString(normalized[j])
		if li != lj {
			return li > lj
		}
		return normalized[i] < normalized[j]
	})
	return &Normalizer{suffixes: normalized}
}

// Normalize returns the comparison key for name: NFC, lower-cased, with every
// non-letter/non-digit rune removed and trailing generic suffixes stripped.
// A name is never stripped down to nothing, so "병원" stays "병원".
func (n *Normalizer) Normalize(name string) string {
	key := canonical(name)
	for {
		stripped := false
		for _, suffix := range n.suffixes {
			if len(key) > len(suffix) && strings.HasSuffix(key, suffix) {
				key = strings.TrimSuffix(key, suffix)
				stripped = true
				break
			}
		}
		if !stripped {
			return key
		}
	}
}

// Suffixes returns the canonical suffix list in the order it is applied.
func (n *Normalizer) Suffixes() []string {
	return append([]string(nil), n.suffixes...)
}

func canonical(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser is stateful and must not be shared between goroutines
	lowered := cases.Lower(language.Und).String(norm.NFC.String(s))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return norm.NFC.String(b.String())
}
