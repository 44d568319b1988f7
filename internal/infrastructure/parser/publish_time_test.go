package parser

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2025, time.August, 2, 15, 0, 0, 0, kyiv)

func TestResolvePublishTime(t *testing.T) {
	t.Parallel()

	site := testRules(t, nil)

	cases := []struct {
		name string
		html string
		want time.Time
	}{
		{
			name: "datetime attribute in UTC",
			html: `<html><body><time datetime="2025-08-02T07:48:00Z">сьогодні</time></body></html>`,
			want: time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		},
		{
			name: "datetime without offset uses reference zone",
			html: `<html><body><time datetime="2025-08-02T10:48:00"></time></body></html>`,
			want: time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		},
		{
			name: "attribute beats meta tag",
			html: `<html><head><meta property="article:published_time" content="2025-08-01T09:00:00+03:00"></head>
			<body><time datetime="2025-08-02T11:00:00+03:00"></time></body></html>`,
			want: time.Date(2025, time.August, 2, 11, 0, 0, 0, kyiv),
		},
		{
			name: "named date in element text",
			html: `<html><body><span class="date">2 серпня 2025, 10:48</span></body></html>`,
			want: time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		},
		{
			name: "relative hours",
			html: `<html><body><div class="time">3 год тому</div></body></html>`,
			want: fixedNow.Add(-3 * time.Hour),
		},
		{
			name: "yesterday with clock",
			html: `<html><body><div class="date">Вчора, 18:30</div></body></html>`,
			want: time.Date(2025, time.August, 1, 18, 30, 0, 0, kyiv),
		},
		{
			name: "yesterday defaults to noon",
			html: `<html><body><div class="date">вчора</div></body></html>`,
			want: time.Date(2025, time.August, 1, 12, 0, 0, 0, kyiv),
		},
		{
			name: "bare clock means today",
			html: `<html><body><div class="time">14:20</div></body></html>`,
			want: time.Date(2025, time.August, 2, 14, 20, 0, 0, kyiv),
		},
		{
			name: "meta tag",
			html: `<html><head><meta property="article:published_time" content="2025-08-02T09:00:00+03:00"></head><body></body></html>`,
			want: time.Date(2025, time.August, 2, 9, 0, 0, 0, kyiv),
		},
		{
			name: "json-ld graph",
			html: `<html><head><script type="application/ld+json">
			{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","datePublished":"2025-08-02T08:00:00+03:00"}]}
			</script></head><body></body></html>`,
			want: time.Date(2025, time.August, 2, 8, 0, 0, 0, kyiv),
		},
		{
			name: "free text scan",
			html: `<html><body><p>Опубліковано 02.08.2025, 10:48</p></body></html>`,
			want: time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ResolvePublishTime(mustDocument(t, tc.html), site, fixedNow)
			if !ok {
				t.Fatalf("expected a publish time")
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got.Location() != kyiv {
				t.Fatalf("expected reference zone, got %v", got.Location())
			}
		})
	}
}

func TestResolvePublishTimeUndetermined(t *testing.T) {
	t.Parallel()

	site := testRules(t, nil)
	doc := mustDocument(t, `<html><body><time datetime="not a date">колись</time><p>Динамо зіграє у середу ввечері.</p></body></html>`)

	if got, ok := ResolvePublishTime(doc, site, fixedNow); ok {
		t.Fatalf("expected undetermined time, got %v", got)
	}
}

func TestLocaleParse(t *testing.T) {
	t.Parallel()

	locale := LookupLocale("uk", "ru", "en")

	cases := map[string]time.Time{
		"2h ago":              fixedNow.Add(-2 * time.Hour),
		"15 хв тому":          fixedNow.Add(-15 * time.Minute),
		"2 дні тому":          fixedNow.AddDate(0, 0, -2),
		"5 минут назад":       fixedNow.Add(-5 * time.Minute),
		"5 min ago":           fixedNow.Add(-5 * time.Minute),
		"2 mins ago":          fixedNow.Add(-2 * time.Minute),
		"40 хвилин тому":      fixedNow.Add(-40 * time.Minute),
		"2 години тому":       fixedNow.Add(-2 * time.Hour),
		"2 months ago":        time.Date(2025, time.June, 2, 15, 0, 0, 0, kyiv),
		"3 weeks ago":         time.Date(2025, time.July, 12, 15, 0, 0, 0, kyiv),
		"1 year ago":          time.Date(2024, time.August, 2, 15, 0, 0, 0, kyiv),
		"2 місяці тому":       time.Date(2025, time.June, 2, 15, 0, 0, 0, kyiv),
		"2 тижні тому":        time.Date(2025, time.July, 19, 15, 0, 0, 0, kyiv),
		"2 года назад":        time.Date(2023, time.August, 2, 15, 0, 0, 0, kyiv),
		"3 дня назад":         fixedNow.AddDate(0, 0, -3),
		"just now":            fixedNow,
		"сьогодні":            time.Date(2025, time.August, 2, 12, 0, 0, 0, kyiv),
		"12 Mar 2024 09:15":   time.Date(2024, time.March, 12, 9, 15, 0, 0, kyiv),
		"10:48, 1 серпня 2025": time.Date(2025, time.August, 1, 10, 48, 0, 0, kyiv),
		"01.08.2025":          time.Date(2025, time.August, 1, 12, 0, 0, 0, kyiv),
		"2025-07-30 21:05":    time.Date(2025, time.July, 30, 21, 5, 0, 0, kyiv),
		"15 грудня":           time.Date(2024, time.December, 15, 12, 0, 0, 0, kyiv),
		"3 августа, 08:00":    time.Date(2025, time.August, 3, 8, 0, 0, 0, kyiv),
	}

	for in, want := range cases {
		got, ok := locale.Parse(in, fixedNow, kyiv)
		if !ok {
			t.Fatalf("Parse(%q) failed", in)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "без дати", "31.02.2025", "99:99", "5 mph ago"} {
		if got, ok := locale.Parse(in, fixedNow, kyiv); ok {
			t.Fatalf("Parse(%q) should fail, got %v", in, got)
		}
	}
}

func TestParseISO(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2025-08-02T07:48:00Z":      time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		"2025-08-02T10:48:00+03:00": time.Date(2025, time.August, 2, 10, 48, 0, 0, kyiv),
		"2025-08-02":                time.Date(2025, time.August, 2, 12, 0, 0, 0, kyiv),
		"1754120880":                time.Unix(1754120880, 0),
	}
	for in, want := range cases {
		got, ok := parseISO(in, kyiv)
		if !ok || !got.Equal(want) {
			t.Fatalf("parseISO(%q) = %v %v, want %v", in, got, ok, want)
		}
	}

	if _, ok := parseISO("вчора", kyiv); ok {
		t.Fatalf("parseISO accepted free text")
	}
}
