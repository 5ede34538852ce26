// Package tokenizer turns extracted text into the token stream stored in the
// full-text index and back into display text for search excerpts.
//
// Scripts without whitespace-delimited words (Japanese, Chinese) are indexed
// as overlapping character bigrams so the FTS5 unicode61 tokenizer can match
// substrings of them. Everything else is indexed as-is.
package tokenizer

import (
	"regexp"
	"strings"
)

const (
	// DefaultGram is the window size used for index and query bigrams.
	DefaultGram = 2
	// maxWordRunes is the longest delimiter-free run that still counts as a word.
	// Longer runs indicate a script that does not separate words with spaces.
	maxWordRunes = 40
)

// pieceSplitter splits on the delimiters that separate tokens in both the
// bigram output and ordinary western text.
var pieceSplitter = regexp.MustCompile(`[\s\-/;]`)

// Bigram returns the overlapping n-rune substrings of text joined by single
// spaces. Text shorter than n produces an empty string.
func Bigram(text string, n int) string {
	if n <= 0 {
		n = DefaultGram
	}
	runes := []rune(text)
	if len(runes) < n {
		return ""
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return strings.Join(grams, " ")
}

// NeedsBigram reports whether text should be bigram-tokenized: it contains a
// CJK/fullwidth character, or one of its delimiter-separated pieces is longer
// than maxWordRunes.
func NeedsBigram(text string) bool {
	for _, r := range text {
		if IsCJK(r) {
			return true
		}
	}
	for _, piece := range pieceSplitter.Split(text, -1) {
		if len([]rune(piece)) > maxWordRunes {
			return true
		}
	}
	return false
}

// Tokenize prepares one chunk of cleaned text for the index.
func Tokenize(text string) string {
	if NeedsBigram(text) {
		return Bigram(text, DefaultGram)
	}
	return text
}

// UnBigram is a best-effort inverse of Bigram. When every piece of the input
// is shorter than three runes the input is treated as bigram output and the
// original string is rebuilt from the first piece minus its last rune followed
// by the last rune of every non-empty piece. Any other input is returned
// unchanged.
//
// The inverse is ambiguous: ordinary text made only of one- and two-letter
// words ("to be or") is indistinguishable from bigram output and will be
// collapsed. Use it for display only.
func UnBigram(tokenized string) string {
	pieces := pieceSplitter.Split(tokenized, -1)
	longest := 0
	for _, p := range pieces {
		if n := len([]rune(p)); n > longest {
			longest = n
		}
	}
	if longest >= 3 {
		return tokenized
	}

	var sb strings.Builder
	first := []rune(pieces[0])
	if len(first) > 0 {
		sb.WriteString(string(first[:len(first)-1]))
	}
	for _, p := range pieces {
		runes := []rune(p)
		if len(runes) == 0 {
			continue
		}
		sb.WriteRune(runes[len(runes)-1])
	}
	return sb.String()
}

// IsCJK reports whether r belongs to the kana, CJK ideograph, CJK symbol or
// fullwidth form ranges.
func IsCJK(r rune) bool {
	switch {
	case r >= 0x3041 && r <= 0x3096: // hiragana
		return true
	case r >= 0x30A1 && r <= 0x30FA: // katakana
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK symbols and punctuation, includes 々 〇 〻
		return true
	case r >= 0x3400 && r <= 0x9FFF: // CJK unified ideographs + extension A
		return true
	case r >= 0xF900 && r <= 0xFAFF: // compatibility ideographs
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // halfwidth and fullwidth forms
		return true
	case r >= 0x20000 && r <= 0x2FA1F: // supplementary ideographic plane
		return true
	}
	return false
}
