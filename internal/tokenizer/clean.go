package tokenizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ocrSpaceRun = regexp.MustCompile(`[ 　\t,"'●■□]+`)
	ocrDotRun   = regexp.MustCompile(`[.,"'●■□~=ー−][.,"'●■□~=ー−]+`)
)

// CleanText normalizes OCR and markup output before tokenization: lines are
// joined, whitespace and stray punctuation runs collapsed, spaces between CJK
// runs removed and the result NFKC-normalized (which also folds ligatures).
func CleanText(t string) string {
	t = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(t)
	t = strings.TrimSpace(t)

	t = ocrSpaceRun.ReplaceAllString(t, " ")
	t = strings.ReplaceAll(t, ". . ", "")
	t = joinCJKRuns(t)
	t = norm.NFKC.String(t)
	t = ocrDotRun.ReplaceAllString(t, "")

	return strings.TrimSpace(t)
}

// joinCJKRuns drops single blanks that OCR inserts between CJK characters.
func joinCJKRuns(t string) string {
	runes := []rune(t)
	out := make([]rune, 0, len(runes))
	for i, r := range runes {
		if isBlank(r) && len(out) > 0 && IsCJK(out[len(out)-1]) && i+1 < len(runes) && IsCJK(runes[i+1]) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '　'
}
