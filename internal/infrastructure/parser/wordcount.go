package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	tagExpr   = regexp.MustCompile(`<[^>]*>`)
	scoreExpr = regexp.MustCompile(`\(\s*\d{1,2}\s*[:\-–]\s*\d{1,2}\s*\)`)
	// creditExpr matches "Name Name, Getty Images" style photo credits.
	creditExpr = regexp.MustCompile(`^\p{Lu}[\p{L}'’.\-]+(?:\s+\p{Lu}[\p{L}'’.\-]+){0,3}\s*[,/|©]\s*(?i:getty images|reuters|afp|ap photo|epa|imago|shutterstock|depositphotos|фото|photo|[\p{L}.]+\s+images)\.?$`)

	apostrophes = strings.NewReplacer("'", "", "’", "", "ʼ", "", "`", "")

	wordLocale = LookupLocale("uk", "ru", "en")
)

// CountWords is the article-length estimator used by the length gate.
// Markup, dates, times, photo credits and bracketed half-time scores are
// removed first; then tokens of at least two runes that are not purely
// numeric are counted.
func CountWords(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	cleaned := tagExpr.ReplaceAllString(text, " ")
	cleaned = dropCreditLines(cleaned)
	cleaned = scoreExpr.ReplaceAllString(cleaned, " ")
	cleaned = stripDates(cleaned, wordLocale)
	cleaned = apostrophes.Replace(cleaned)
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, cleaned)

	count := 0
	for _, token := range strings.Fields(cleaned) {
		if len([]rune(token)) < 2 || isDigits(token) {
			continue
		}
		count++
	}
	return count
}

func dropCreditLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isCreditLine(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isCreditLine(line string) bool {
	return line != "" && creditExpr.MatchString(line)
}

// stripDates blanks out ISO, numeric and named dates and clock times.
// Named dates are removed only when the word is a known month.
func stripDates(text string, l *Locale) string {
	text = isoDateExpr.ReplaceAllString(text, " ")
	text = numericDateExpr.ReplaceAllString(text, " ")

	var b strings.Builder
	last := 0
	for _, m := range namedDateExpr.FindAllStringSubmatchIndex(text, -1) {
		if _, ok := l.month(text[m[4]:m[5]]); !ok {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(text[last:])

	return clockExpr.ReplaceAllString(b.String(), " ")
}
