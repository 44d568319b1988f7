package parser

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxFreeTextMatches = 3

var (
	timeAttributes = []string{"datetime", "content", "data-datetime", "data-time", "data-timestamp"}

	publishedMetaSelector = strings.Join([]string{
		"meta[property='article:published_time']",
		"meta[name='article:published_time']",
		"meta[property='og:published_time']",
		"meta[itemprop='datePublished']",
		"meta[name='pubdate']",
		"meta[name='publish-date']",
		"meta[name='date']",
	}, ", ")

	isoLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05 -0700",
	}

	// layouts without an offset are read in the reference zone
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

// ResolvePublishTime returns the best-effort publish time of an article page
// in the reference zone. The second result is false when no attempt succeeds;
// callers must then treat the time as undetermined.
func ResolvePublishTime(doc *goquery.Document, site *SiteRules, now time.Time) (time.Time, bool) {
	if doc == nil || site == nil {
		return time.Time{}, false
	}
	loc := site.Location()

	elements := doc.Find(strings.Join(site.TimeSelectors, ", "))

	var found time.Time
	elements.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range timeAttributes {
			if raw, ok := s.Attr(attr); ok {
				if t, ok := parseISO(raw, loc); ok {
					found = t
					return false
				}
			}
		}
		return true
	})
	if !found.IsZero() {
		return found, true
	}

	elements.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpace(s.Text())
		if text == "" {
			return true
		}
		if t, ok := site.locale.Parse(text, now, loc); ok {
			found = t
			return false
		}
		return true
	})
	if !found.IsZero() {
		return found, true
	}

	if t, ok := publishedFromMeta(doc, loc); ok {
		return t, true
	}
	if t, ok := publishedFromJSONLD(doc, loc); ok {
		return t, true
	}

	return scanFreeText(doc, site, now)
}

func publishedFromMeta(doc *goquery.Document, loc *time.Location) (time.Time, bool) {
	var found time.Time
	doc.Find(publishedMetaSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t, ok := parseISO(s.AttrOr("content", ""), loc); ok {
			found = t
			return false
		}
		return true
	})
	return found, !found.IsZero()
}

func publishedFromJSONLD(doc *goquery.Document, loc *time.Location) (time.Time, bool) {
	var found time.Time
	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		if raw, ok := findDatePublished(payload); ok {
			if t, ok := parseISO(raw, loc); ok {
				found = t
				return false
			}
		}
		return true
	})
	return found, !found.IsZero()
}

func findDatePublished(node any) (string, bool) {
	switch v := node.(type) {
	case map[string]any:
		if raw, ok := v["datePublished"].(string); ok && raw != "" {
			return raw, true
		}
		for _, key := range []string{"@graph", "mainEntity", "mainEntityOfPage"} {
			if raw, ok := findDatePublished(v[key]); ok {
				return raw, true
			}
		}
	case []any:
		for _, item := range v {
			if raw, ok := findDatePublished(item); ok {
				return raw, true
			}
		}
	}
	return "", false
}

func scanFreeText(doc *goquery.Document, site *SiteRules, now time.Time) (time.Time, bool) {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := collapseSpace(body.Text())
	for _, match := range freeDateExpr.FindAllString(text, maxFreeTextMatches) {
		if t, ok := site.locale.Parse(match, now, site.Location()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseISO reads ISO-8601 values and unix timestamps. A value without an
// offset is taken in loc; a date alone means noon.
func parseISO(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	if isDigits(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		switch len(raw) {
		case 10:
			return time.Unix(n, 0).In(loc), true
		case 13:
			return time.UnixMilli(n).In(loc), true
		}
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
