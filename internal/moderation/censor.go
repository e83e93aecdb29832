// Package moderation masks blocked words in chat text.
package moderation

import (
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// DefaultMask replaces every rune of a blocked word.
const DefaultMask = '*'

// Censor finds blocked words with an Aho-Corasick automaton. Matching ignores
// case, punctuation and common leet substitutions, so "B.4.d" still matches
// "bad". A match must be a whole word: it may not cross whitespace and must
// not touch a letter on either side. Only the runes of the match are masked.
type Censor struct {
	matcher *goahocorasick.Machine
	mask    rune
}

// NewCensor builds a censor for words. It returns nil, nil for an empty list
// so callers can treat "no censor" as a nil filter.
func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if p := normalizeRunes([]rune(w)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	if mask == 0 {
		mask = DefaultMask
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build censor automaton: %w", err)
	}
	return &Censor{matcher: m, mask: mask}, nil
}

// Censor returns text with every blocked word masked.
func (c *Censor) Censor(text string) string {
	orig := []rune(text)
	norm, origIdx := normalize(orig)
	if len(norm) == 0 {
		return text
	}

	terms := c.matcher.MultiPatternSearch(norm, false)
	if len(terms) == 0 {
		return text
	}

	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		first, last := origIdx[start], origIdx[end-1]
		if !wholeWord(orig, first, last) {
			continue
		}
		for i := first; i <= last; i++ {
			orig[i] = c.mask
		}
	}
	return string(orig)
}

// wholeWord reports whether orig[first:last+1] stands alone: no whitespace
// inside and no letter directly before or after it.
func wholeWord(orig []rune, first, last int) bool {
	for _, r := range orig[first : last+1] {
		if unicode.IsSpace(r) {
			return false
		}
	}
	if first > 0 && unicode.IsLetter(orig[first-1]) {
		return false
	}
	if last+1 < len(orig) && unicode.IsLetter(orig[last+1]) {
		return false
	}
	return true
}

// normalize drops noise runes and lowercases the rest, recording where each
// kept rune came from.
func normalize(in []rune) (norm []rune, origIdx []int) {
	norm = make([]rune, 0, len(in))
	origIdx = make([]int, 0, len(in))
	for i, r := range in {
		r = simplifyRune(r)
		if isNoise(r) {
			continue
		}
		norm = append(norm, unicode.ToLower(r))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

func normalizeRunes(in []rune) []rune {
	norm, _ := normalize(in)
	return norm
}

func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
