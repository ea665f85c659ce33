package services

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// columnNameSimilarity scores two column names in [0,1]. Exact normalized
// match is 1.0, singular/plural equality 0.95, otherwise the better of
// token-set overlap and normalized edit distance.
func columnNameSimilarity(a, b string) float64 {
	na := normalizeColumnName(a)
	nb := normalizeColumnName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if inflection.Singular(na) == inflection.Singular(nb) {
		return 0.95
	}

	token := tokenOverlap(splitNameTokens(a), splitNameTokens(b))
	edit := editSimilarity(na, nb)
	if token > edit {
		return token
	}
	return edit
}

// normalizeColumnName lowercases and strips separators so "CustomerID",
// "customer_id" and "customer-id" all compare equal.
func normalizeColumnName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			// dropped
		default:
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// splitNameTokens splits snake_case, kebab-case and camelCase names into
// lowercase tokens, singularized so "orders" and "order" line up.
func splitNameTokens(name string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, inflection.Singular(strings.ToLower(current.String())))
			current.Reset()
		}
	}

	var prev rune
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
		prev = r
	}
	flush()
	return tokens
}

// tokenOverlap is Jaccard similarity over token sets.
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	common := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	return float64(common) / float64(union)
}

// editSimilarity is 1 - levenshtein(a,b)/max(len), in [0,1].
func editSimilarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// idStyleSuffixes mark columns that are almost certainly keys; such columns
// get value-checked even when their names look nothing alike.
var idStyleSuffixes = []string{"id", "key", "code", "no", "num"}

// isIDStyleColumn reports whether a column name looks like a key column:
// "id" itself, or ending in an id-style token ("customer_id", "OrderKey").
func isIDStyleColumn(name string) bool {
	tokens := splitNameTokens(name)
	if len(tokens) == 0 {
		return false
	}
	last := tokens[len(tokens)-1]
	for _, s := range idStyleSuffixes {
		if last == s {
			return true
		}
	}
	return false
}
