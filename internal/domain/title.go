package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// TitleKey normalizes a title into the posted-log lookup key.
func TitleKey(title string) string {
	folded := cases.Fold().String(title)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.Join(fields, " ")
}

// TitleSimilarity returns the Jaccard index of the word sets of two titles.
func TitleSimilarity(a, b string) float64 {
	left := wordSet(TitleKey(a))
	right := wordSet(TitleKey(b))
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	shared := 0
	for w := range left {
		if _, ok := right[w]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	return float64(shared) / float64(union)
}

func wordSet(key string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(key) {
		if len([]rune(w)) < 2 {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
