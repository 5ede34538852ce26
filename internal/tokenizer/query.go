package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

// orphanSymbol matches an FTS5 syntax character standing alone between
// spaces; it is glued to its neighbours so it cannot form a bare operator.
var orphanSymbol = regexp.MustCompile(` ([&+()*\\#]) `)

// NormalizeQuery folds ideographic spaces and collapses orphaned symbols.
func NormalizeQuery(query string) string {
	query = strings.ReplaceAll(query, "　", " ")
	query = orphanSymbol.ReplaceAllString(query, "$1")
	return strings.TrimSpace(query)
}

// Terms splits a normalized query into its whitespace-separated terms.
func Terms(query string) []string {
	return strings.Fields(NormalizeQuery(query))
}

// MatchExpression builds the FTS5 MATCH argument for a raw query: every term
// quoted literally, OR'd with a group holding the bigram form of each term.
// Single-rune terms stay bare inside the group. An empty string is returned
// when the query has no terms.
//
//	budget 予算  ->  "budget" "予算" OR ("bu ud dg ge et" "予算")
func MatchExpression(query string) string {
	terms := Terms(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	grams := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, quote(term))
		if len([]rune(term)) > 1 {
			grams = append(grams, quote(Bigram(term, DefaultGram)))
		} else {
			grams = append(grams, bare(term))
		}
	}
	return strings.Join(quoted, " ") + " OR (" + strings.Join(grams, " ") + ")"
}

// quote wraps s as an FTS5 string, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// bare leaves a single letter or digit unquoted. Any other rune would be read
// as FTS5 syntax, so it is quoted instead.
func bare(s string) string {
	r := []rune(s)[0]
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return s
	}
	return quote(s)
}
