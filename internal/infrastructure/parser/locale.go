package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Locale is the date vocabulary of a source: month names and relative-time words.
// Unit words match a whole word exactly; a form of three or more letters also
// matches as a stem ("год" covers "години").
type Locale struct {
	Name       string
	Months     map[string]time.Month
	Minutes    []string
	Hours      []string
	Days       []string
	Weeks      []string
	MonthUnits []string
	Years      []string
	Ago        []string
	JustNow    []string
	Yesterday  []string
	Today      []string

	monthForms []monthForm
	relative   *regexp.Regexp
}

type monthForm struct {
	form  string
	month time.Month
}

var (
	isoDateExpr     = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})(?:[t\s]+(\d{1,2}):(\d{2}))?`)
	numericDateExpr = regexp.MustCompile(`(\d{1,2})[./](\d{1,2})[./](\d{4}|\d{2})`)
	namedDateExpr   = regexp.MustCompile(`(\d{1,2})\s+(\p{L}+)\.?,?(?:\s+(\d{4}))?`)
	clockExpr       = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	// freeDateExpr finds date-looking fragments in arbitrary page text.
	freeDateExpr = regexp.MustCompile(`(?:\d{1,2}:\d{2},?\s*)?(?:\d{1,2}[./]\d{1,2}[./]\d{2,4}|\d{1,2}\s+\p{L}+\.?,?\s+\d{4})(?:,?\s*(?:о|в|at)?\s*\d{1,2}:\d{2})?`)
)

var builtinLocales = map[string]Locale{
	"uk": {
		Name: "uk",
		Months: map[string]time.Month{
			"січня": time.January, "січень": time.January, "січ": time.January,
			"лютого": time.February, "лютий": time.February, "лют": time.February,
			"березня": time.March, "березень": time.March, "бер": time.March,
			"квітня": time.April, "квітень": time.April, "квіт": time.April,
			"травня": time.May, "травень": time.May, "трав": time.May,
			"червня": time.June, "червень": time.June, "черв": time.June,
			"липня": time.July, "липень": time.July, "лип": time.July,
			"серпня": time.August, "серпень": time.August, "серп": time.August,
			"вересня": time.September, "вересень": time.September, "вер": time.September,
			"жовтня": time.October, "жовтень": time.October, "жовт": time.October,
			"листопада": time.November, "листопад": time.November, "лист": time.November,
			"грудня": time.December, "грудень": time.December, "груд": time.December,
		},
		Minutes:    []string{"хв", "хвил"},
		Hours:      []string{"год"},
		Days:       []string{"дн", "дні", "днів", "день", "доб"},
		Weeks:      []string{"тиж"},
		MonthUnits: []string{"міс"},
		Years:      []string{"рік", "рок"},
		Ago:        []string{"тому"},
		JustNow:    []string{"щойно", "тільки що"},
		Yesterday:  []string{"вчора", "учора"},
		Today:      []string{"сьогодні"},
	},
	"ru": {
		Name: "ru",
		Months: map[string]time.Month{
			"января": time.January, "январь": time.January, "янв": time.January,
			"февраля": time.February, "февраль": time.February, "фев": time.February,
			"марта": time.March, "март": time.March, "мар": time.March,
			"апреля": time.April, "апрель": time.April, "апр": time.April,
			"мая": time.May, "май": time.May,
			"июня": time.June, "июнь": time.June, "июн": time.June,
			"июля": time.July, "июль": time.July, "июл": time.July,
			"августа": time.August, "август": time.August, "авг": time.August,
			"сентября": time.September, "сентябрь": time.September, "сен": time.September, "сент": time.September,
			"октября": time.October, "октябрь": time.October, "окт": time.October,
			"ноября": time.November, "ноябрь": time.November, "ноя": time.November,
			"декабря": time.December, "декабрь": time.December, "дек": time.December,
		},
		Minutes:    []string{"мин"},
		Hours:      []string{"час"},
		Days:       []string{"дн", "дня", "дней", "день", "сут"},
		Weeks:      []string{"нед"},
		MonthUnits: []string{"мес"},
		Years:      []string{"года", "лет"},
		Ago:        []string{"назад"},
		JustNow:    []string{"только что"},
		Yesterday:  []string{"вчера"},
		Today:      []string{"сегодня"},
	},
	"en": {
		Name: "en",
		Months: map[string]time.Month{
			"january": time.January, "jan": time.January,
			"february": time.February, "feb": time.February,
			"march": time.March, "mar": time.March,
			"april": time.April, "apr": time.April,
			"may": time.May,
			"june": time.June, "jun": time.June,
			"july": time.July, "jul": time.July,
			"august": time.August, "aug": time.August,
			"september": time.September, "sep": time.September, "sept": time.September,
			"october": time.October, "oct": time.October,
			"november": time.November, "nov": time.November,
			"december": time.December, "dec": time.December,
		},
		Minutes:    []string{"m", "min"},
		Hours:      []string{"h", "hr", "hrs", "hour"},
		Days:       []string{"d", "day"},
		Weeks:      []string{"w", "wk", "wks", "week"},
		MonthUnits: []string{"mo", "mos", "month"},
		Years:      []string{"y", "yr", "yrs", "year"},
		Ago:        []string{"ago"},
		JustNow:    []string{"just now"},
		Yesterday:  []string{"yesterday"},
		Today:      []string{"today"},
	},
}

// LookupLocale merges the named built-in lexicons. Unknown names are ignored;
// an empty result falls back to Ukrainian plus English.
func LookupLocale(names ...string) *Locale {
	merged := &Locale{Months: map[string]time.Month{}}
	var used []string
	for _, name := range names {
		l, ok := builtinLocales[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		used = append(used, l.Name)
		for k, v := range l.Months {
			merged.Months[k] = v
		}
		merged.Minutes = append(merged.Minutes, l.Minutes...)
		merged.Hours = append(merged.Hours, l.Hours...)
		merged.Days = append(merged.Days, l.Days...)
		merged.Weeks = append(merged.Weeks, l.Weeks...)
		merged.MonthUnits = append(merged.MonthUnits, l.MonthUnits...)
		merged.Years = append(merged.Years, l.Years...)
		merged.Ago = append(merged.Ago, l.Ago...)
		merged.JustNow = append(merged.JustNow, l.JustNow...)
		merged.Yesterday = append(merged.Yesterday, l.Yesterday...)
		merged.Today = append(merged.Today, l.Today...)
	}
	if len(used) == 0 {
		return LookupLocale("uk", "en")
	}
	merged.Name = strings.Join(used, "+")
	merged.compile()
	return merged
}

func (l *Locale) compile() {
	l.monthForms = l.monthForms[:0]
	for form, month := range l.Months {
		l.monthForms = append(l.monthForms, monthForm{form: form, month: month})
	}
	sort.Slice(l.monthForms, func(i, j int) bool {
		a, b := l.monthForms[i].form, l.monthForms[j].form
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})

	ago := make([]string, 0, len(l.Ago))
	for _, w := range l.Ago {
		ago = append(ago, regexp.QuoteMeta(w))
	}
	if len(ago) == 0 {
		ago = []string{"ago"}
	}
	l.relative = regexp.MustCompile(`(\d+)\s*(\p{L}+)\.?\s*(?:` + strings.Join(ago, "|") + `)`)
}

// month resolves a month word, accepting abbreviations and inflected forms
// that start with a known form of at least three letters.
func (l *Locale) month(word string) (time.Month, bool) {
	word = strings.TrimSuffix(strings.ToLower(word), ".")
	if m, ok := l.Months[word]; ok {
		return m, true
	}
	for _, mf := range l.monthForms {
		if len([]rune(mf.form)) >= 3 && strings.HasPrefix(word, mf.form) {
			return mf.month, true
		}
	}
	return 0, false
}

// Parse interprets a human-written date in this locale. It never
// substitutes the current time for an unparseable value.
func (l *Locale) Parse(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	if text == "" {
		return time.Time{}, false
	}

	if containsAny(text, l.JustNow) {
		return now, true
	}

	if t, ok := l.parseRelative(text, now); ok {
		return t, true
	}

	if containsAny(text, l.Yesterday) {
		return atClock(now.AddDate(0, 0, -1), text, loc), true
	}
	if containsAny(text, l.Today) {
		return atClock(now, text, loc), true
	}

	if t, ok := l.parseAbsolute(text, now, loc); ok {
		return t, true
	}

	if m := clockExpr.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if validClock(hour, minute) {
			return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc), true
		}
	}

	return time.Time{}, false
}

func (l *Locale) parseRelative(text string, now time.Time) (time.Time, bool) {
	if l.relative == nil {
		l.compile()
	}
	m := l.relative.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit := m[2]
	// years first: the Russian "года" would otherwise hit the Ukrainian "год" stem
	switch {
	case matchesUnit(unit, l.Years):
		return now.AddDate(-n, 0, 0), true
	case matchesUnit(unit, l.MonthUnits):
		return now.AddDate(0, -n, 0), true
	case matchesUnit(unit, l.Weeks):
		return now.AddDate(0, 0, -7*n), true
	case matchesUnit(unit, l.Days):
		return now.AddDate(0, 0, -n), true
	case matchesUnit(unit, l.Hours):
		return now.Add(-time.Duration(n) * time.Hour), true
	case matchesUnit(unit, l.Minutes):
		return now.Add(-time.Duration(n) * time.Minute), true
	}
	return time.Time{}, false
}

func (l *Locale) parseAbsolute(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	if m := isoDateExpr.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		hour, minute := 12, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
		}
		return buildDate(year, time.Month(month), day, hour, minute, loc)
	}

	if m := numericDateExpr.FindStringSubmatchIndex(text); m != nil {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[6]:m[7]])
		if year < 100 {
			year += 2000
		}
		hour, minute := clockOutside(text, m[0], m[1])
		return buildDate(year, time.Month(month), day, hour, minute, loc)
	}

	for _, m := range namedDateExpr.FindAllStringSubmatchIndex(text, -1) {
		month, ok := l.month(text[m[4]:m[5]])
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		hour, minute := clockOutside(text, m[0], m[1])
		if m[6] >= 0 {
			year, _ := strconv.Atoi(text[m[6]:m[7]])
			return buildDate(year, month, day, hour, minute, loc)
		}
		t, ok := buildDate(now.Year(), month, day, hour, minute, loc)
		if ok && t.After(now.Add(24*time.Hour)) {
			t, ok = buildDate(now.Year()-1, month, day, hour, minute, loc)
		}
		return t, ok
	}

	return time.Time{}, false
}

// clockOutside finds an HH:MM outside the [start,end) date span; 12:00 when absent.
func clockOutside(text string, start, end int) (int, int) {
	for _, m := range clockExpr.FindAllStringSubmatchIndex(text, -1) {
		if m[0] >= start && m[1] <= end {
			continue
		}
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		if validClock(hour, minute) {
			return hour, minute
		}
	}
	return 12, 0
}

func atClock(day time.Time, text string, loc *time.Location) time.Time {
	hour, minute := clockOutside(text, -1, -1)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

func buildDate(year int, month time.Month, day, hour, minute int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 || !validClock(hour, minute) {
		return time.Time{}, false
	}
	if year < 1990 || year > 2100 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour < 24 && minute >= 0 && minute < 60
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func matchesUnit(word string, forms []string) bool {
	for _, f := range forms {
		if f == "" {
			continue
		}
		if word == f {
			return true
		}
		if utf8.RuneCountInString(f) >= 3 && strings.HasPrefix(word, f) {
			return true
		}
	}
	return false
}
