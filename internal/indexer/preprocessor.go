package indexer

import (
	"strings"
	"unicode"
)

// Preprocess cleans a reminder title before it is stored and embedded.
// Control characters are removed and any whitespace run becomes one space.
func Preprocess(title string) string {
	printable := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, title)
	return strings.Join(strings.Fields(printable), " ")
}
