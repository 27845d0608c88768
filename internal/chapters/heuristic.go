package chapters

import (
	"regexp"
	"strings"
)

// structuralKeywords open a heading when they are the first word of the
// utterance ("Chapter Twelve", "Part III", "Epilogue").
var structuralKeywords = map[string]struct{}{
	"chapter":      {},
	"part":         {},
	"book":         {},
	"section":      {},
	"volume":       {},
	"act":          {},
	"prologue":     {},
	"prolog":       {},
	"epilogue":     {},
	"epilog":       {},
	"introduction": {},
	"intro":        {},
	"preface":      {},
	"foreword":     {},
	"appendix":     {},
	"afterword":    {},
	"interlude":    {},
	"intermission": {},
}

// headingPhrases mark a heading anywhere in the utterance; narrators read
// these between chapters and at the start or end of a book.
var headingPhrases = []string{
	"end of chapter",
	"end of part",
	"end of book",
	"read for you by",
}

var (
	bareNumberPattern   = regexp.MustCompile(`^\d+\.?$`)
	leadingWordPattern  = regexp.MustCompile(`^[a-z]+`)
	romanNumeralLowTens = map[string]struct{}{
		"i": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
		"vi": {}, "vii": {}, "viii": {}, "ix": {}, "x": {},
	}
)

// Heuristic classifies an utterance as a chapter heading. The zero value
// rejects everything; use DefaultHeuristic for the standard rules. Keeping it
// a struct lets tests and callers swap detection rules independently of the
// transcript writer.
type Heuristic struct {
	keywords map[string]struct{}
	phrases  []string
}

// DefaultHeuristic returns the standard audiobook heading rules.
func DefaultHeuristic() *Heuristic {
	return &Heuristic{keywords: structuralKeywords, phrases: headingPhrases}
}

// IsHeading reports whether text reads like a chapter heading. Matching is
// case-insensitive and ignores surrounding whitespace.
func (h *Heuristic) IsHeading(text string) bool {
	if h == nil {
		return false
	}
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimSuffix(normalized, ".")
	if normalized == "" {
		return false
	}

	if word := leadingWordPattern.FindString(normalized); word != "" {
		// Require a word boundary so "parting words" does not match "part".
		if len(word) == len(normalized) || !isLetter(normalized[len(word)]) {
			if _, ok := h.keywords[word]; ok {
				return true
			}
		}
	}
	if bareNumberPattern.MatchString(normalized) {
		return true
	}
	if _, ok := romanNumeralLowTens[normalized]; ok {
		return true
	}
	for _, phrase := range h.phrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z'
}
