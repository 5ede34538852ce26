package tokenizer

import (
	"strings"

	"golang.org/x/text/width"
)

// ExcerptWindow is the number of runes kept on each side of a match.
const ExcerptWindow = 40

// Excerpt returns the runes of text around [start, end). The window is
// halved for text containing wide east-asian characters, since each of them
// carries more information.
func Excerpt(text []rune, start, end, length int) string {
	if hasWideRune(text) {
		length /= 2
	}
	from := start - length
	if from < 0 {
		from = 0
	}
	to := end + length
	if to > len(text) {
		to = len(text)
	}
	return string(text[from:to])
}

// HitExcerpt builds "...window...window..." for every query term found in
// text (case-insensitive). Terms with no match are skipped; the result is
// "..." when nothing matched.
func HitExcerpt(text, query string) string {
	runes := []rune(text)
	var sb strings.Builder
	for _, term := range Terms(query) {
		start := indexFold(runes, []rune(term))
		if start < 0 {
			continue
		}
		sb.WriteString("...")
		sb.WriteString(Excerpt(runes, start, start+len([]rune(term)), ExcerptWindow))
	}
	sb.WriteString("...")
	return sb.String()
}

// indexFold finds needle in haystack ignoring case, in runes.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	n := string(needle)
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if strings.EqualFold(string(haystack[i:i+len(needle)]), n) {
			return i
		}
	}
	return -1
}

func hasWideRune(text []rune) bool {
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth, width.EastAsianAmbiguous:
			return true
		}
	}
	return false
}
