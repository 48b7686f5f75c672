// Package tokenizer implements the code-aware tokenizer of spec §4.1: it
// splits CamelCase/snake_case/hyphenated identifiers, preserves
// language operators, and strips meaningful prefixes/suffixes so that a
// query in any common identifier convention matches code written in any
// other.
package tokenizer

import (
	"sort"
	"strings"
	"unicode"

	"github.com/oxhq/cascade/internal/langconfig"
)

// Token is one emitted token: its lowercased surface text plus the byte
// offset range it was derived from in the original buffer. For
// affix/variant-stripped extras the offset range is the original
// identifier's range, per spec §4.1's position-preserving guarantee.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenizer produces a token stream from one fixed, process-wide language
// configuration (spec §9: configuration is immutable after load).
type Tokenizer struct {
	cfg      langconfig.Config
	preserve []string // sorted longest-first
}

// New builds a Tokenizer over cfg. The same cfg must be used every time an
// existing index is reopened (spec §4.1).
func New(cfg langconfig.Config) *Tokenizer {
	preserve := append([]string(nil), cfg.PreservePatterns()...)
	sort.Slice(preserve, func(i, j int) bool { return len(preserve[i]) > len(preserve[j]) })
	return &Tokenizer{cfg: cfg, preserve: preserve}
}

const breakDelims = "(){}[]<>,;\"'"

func isWordByte(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize returns every token the text produces: the raw word tokens,
// their CamelCase/snake_case fan-out, and affix/variant-stripped extras.
// Tokenization never fails; pathological input yields an empty slice.
func (t *Tokenizer) Tokenize(text string) []Token {
	var out []Token
	runes := []rune(text)
	n := len(runes)
	i := 0

	// byteOffset maps a rune index back to a byte offset into text.
	byteOffsets := make([]int, n+1)
	b := 0
	for idx, r := range runes {
		byteOffsets[idx] = b
		b += len(string(r))
	}
	byteOffsets[n] = b

	for i < n {
		r := runes[i]

		// Longest preserve-pattern match at this position.
		if pat, ok := t.matchPreserve(runes, i); ok {
			start := byteOffsets[i]
			end := byteOffsets[i+len([]rune(pat))]
			out = append(out, Token{Text: strings.ToLower(pat), Start: start, End: end})
			i += len([]rune(pat))
			continue
		}

		if unicode.IsSpace(r) || strings.ContainsRune(breakDelims, r) || r == '-' || r == '.' {
			i++
			continue
		}

		if isWordByte(r) {
			j := i
			for j < n && isWordByte(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			start := byteOffsets[i]
			end := byteOffsets[j]
			out = append(out, t.expandWord(word, start, end)...)
			i = j
			continue
		}

		// Unrecognized character: skip one.
		i++
	}

	return out
}

// matchPreserve finds the longest configured preserve-pattern starting at
// rune index i, if any.
func (t *Tokenizer) matchPreserve(runes []rune, i int) (string, bool) {
	remaining := string(runes[i:])
	for _, pat := range t.preserve {
		if strings.HasPrefix(remaining, pat) {
			return pat, true
		}
	}
	return "", false
}

// expandWord fans one raw word token out into its lowercase form, its
// CamelCase split, its snake_case split, and any affix/variant-stripped
// extras, deduplicated, all carrying the original token's offset range.
func (t *Tokenizer) expandWord(word string, start, end int) []Token {
	seen := make(map[string]bool)
	var out []Token
	emit := func(s string) {
		s = strings.ToLower(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, Token{Text: s, Start: start, End: end})
	}

	emit(word)

	if hasUpperAndLower(word) {
		for _, part := range splitCamelCase(word) {
			emit(part)
		}
	}

	if strings.Contains(word, "_") {
		for _, part := range strings.Split(word, "_") {
			if part != "" {
				emit(part)
			}
		}
	}

	lower := strings.ToLower(word)
	for _, affix := range t.cfg.MeaningfulAffixes() {
		la := strings.ToLower(affix)
		if strings.HasPrefix(lower, la) && len(lower)-len(la) >= 3 {
			emit(lower[len(la):])
		}
		if strings.HasSuffix(lower, la) && len(lower)-len(la) >= 3 {
			emit(lower[:len(lower)-len(la)])
		}
	}

	for _, prefix := range t.cfg.VariantPrefixes() {
		lp := strings.ToLower(prefix)
		if strings.HasPrefix(lower, lp) && len(lower)-len(lp) >= 3 {
			emit(lower[len(lp):])
		}
	}
	for _, suffix := range t.cfg.VariantSuffixes() {
		ls := strings.ToLower(suffix)
		if strings.HasSuffix(lower, ls) && len(lower)-len(ls) >= 3 {
			emit(lower[:len(lower)-len(ls)])
		}
	}

	return out
}

func hasUpperAndLower(s string) bool {
	var hasUpper, hasLower bool
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}

// splitCamelCase splits an identifier on case boundaries with acronym
// handling: a run of 2+ capitals followed by a capital+lowercase pair
// splits before the last capital, so "XMLParser" -> ["XML", "Parser"] and
// "getHTTPResponse" -> ["get", "HTTP", "Response"].
func splitCamelCase(s string) []string {
	runes := []rune(s)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < n; i++ {
		prev, cur := runes[i-1], runes[i]

		boundary := false
		switch {
		case unicode.IsDigit(prev) != unicode.IsDigit(cur):
			boundary = true
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < n && unicode.IsLower(runes[i+1]):
			// Acronym-to-word boundary: "XMLParser" splits before "Parser".
			boundary = true
		}

		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
