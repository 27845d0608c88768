package chapters

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NormalizeTitle cleans a spoken heading for use as a chapter title: collapse
// whitespace, drop trailing sentence punctuation, and apply English title
// casing so "chapter one." becomes "Chapter One".
func NormalizeTitle(text string) string {
	fields := strings.Fields(text)
	joined := strings.Join(fields, " ")
	joined = strings.TrimRight(joined, ".,;: ")
	if joined == "" {
		return ""
	}
	return titleCaser.String(joined)
}
