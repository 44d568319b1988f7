package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"FootballNews/internal/scanner"
)

const testBase = "https://news.example.com"

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
	times []time.Time
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	f.times = append(f.times, time.Now())
	page, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("unexpected status 404 for %s", url)
	}
	return []byte(page), nil
}

func (f *fakeFetcher) fetched(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

// articleFetchTimes returns when each article page was requested, in order.
func (f *fakeFetcher) articleFetchTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []time.Time
	for i, c := range f.calls {
		if strings.HasPrefix(c, testBase+"/news/") {
			out = append(out, f.times[i])
		}
	}
	return out
}

func newsURL(i int) string {
	return fmt.Sprintf("%s/news/%d", testBase, i)
}

func listingPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="block"><h2>Останні новини</h2></div><ul>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li><a href="/news/%d">Новина номер %d про український футбол</a></li>`, i, i)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// articlePage renders an article; an empty published value leaves the
// publish time undetermined.
func articlePage(published string) string {
	stamp := ""
	if published != "" {
		stamp = fmt.Sprintf(`<time datetime="%s"></time>`, published)
	}
	return `<html><head><meta property="og:image" content="/uploads/match.jpg"></head><body><article>` + stamp + `
	<div class="article-body">
	  <p>Динамо впевнено обіграло суперника у матчі чемпіонату.</p>
	  <p>Наступна гра відбудеться у середу на стадіоні в Києві.</p>
	</div></article></body></html>`
}

// sourcePages builds a listing with one article per published value.
func sourcePages(published ...string) map[string]string {
	pages := map[string]string{testBase: listingPage(len(published))}
	for i, p := range published {
		pages[newsURL(i+1)] = articlePage(p)
	}
	return pages
}

func newTestScanner(t *testing.T, fetcher *fakeFetcher, mutate func(r *Rules)) *SiteScanner {
	t.Helper()

	site := testRules(t, mutate)
	return NewSiteScanner(site, fetcher, nil).WithClock(func() time.Time { return fixedNow })
}

func recordURLs(result scanner.Result) []string {
	urls := make([]string, 0, len(result.Records))
	for _, r := range result.Records {
		urls = append(urls, r.URL)
	}
	return urls
}

func TestSiteScannerEndToEnd(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages(
		"2025-08-02T13:00:00Z",
		"2025-08-02T12:30:00Z",
		"2025-08-02T11:00:00Z",
		"2025-08-02T10:00:00Z",
		"2025-08-02T14:00:00Z",
	))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = 2 })

	since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
	result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	urls := recordURLs(result)
	if len(urls) != 2 || urls[0] != newsURL(1) || urls[1] != newsURL(2) {
		t.Fatalf("unexpected records: %v", urls)
	}
	if fetcher.fetched(newsURL(5)) {
		t.Fatalf("candidate 5 must never be fetched")
	}
	if !result.Report.EarlyStop || result.Report.Old != 2 || result.Report.Candidates != 5 {
		t.Fatalf("unexpected report: %+v", result.Report)
	}

	record := result.Records[0]
	if record.Title != "Новина номер 1 про український футбол" {
		t.Fatalf("unexpected title: %s", record.Title)
	}
	if record.Source != "testsite" {
		t.Fatalf("unexpected source: %s", record.Source)
	}
	if record.ImageURL != "https://news.example.com/uploads/match.jpg" {
		t.Fatalf("unexpected image: %s", record.ImageURL)
	}
	if record.PublishTime == nil || !record.PublishTime.Equal(time.Date(2025, time.August, 2, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected publish time: %v", record.PublishTime)
	}
	if record.PublishTime.Location() != kyiv {
		t.Fatalf("publish time not in reference zone: %v", record.PublishTime.Location())
	}
	if !strings.HasPrefix(record.Content, "Динамо впевнено") || record.Summary == "" || record.WordCount == 0 {
		t.Fatalf("unexpected body: %+v", record)
	}
}

func TestSiteScannerEarlyStop(t *testing.T) {
	t.Parallel()

	const (
		old   = "2025-08-01T09:00:00Z"
		fresh = "2025-08-02T14:00:00Z"
	)

	cases := []struct {
		name      string
		threshold int
		published []string
		trailing  int
	}{
		{name: "threshold 1", threshold: 1, published: []string{old, fresh}, trailing: 2},
		{name: "threshold 2", threshold: 2, published: []string{old, old, fresh}, trailing: 3},
		{name: "threshold 2 longer head", threshold: 2, published: []string{old, old, old, fresh}, trailing: 4},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fetcher := newFakeFetcher(sourcePages(tc.published...))
			sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = tc.threshold })

			since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
			result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
			if err != nil {
				t.Fatalf("Scan error: %v", err)
			}
			if len(result.Records) != 0 {
				t.Fatalf("expected no records, got %v", recordURLs(result))
			}
			if fetcher.fetched(newsURL(tc.trailing)) {
				t.Fatalf("trailing fresh article was processed")
			}
			if !result.Report.EarlyStop {
				t.Fatalf("early stop not reported: %+v", result.Report)
			}
		})
	}
}

func TestSiteScannerFreshArticleResetsStreak(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages(
		"2025-08-01T09:00:00Z",
		"2025-08-02T14:00:00Z",
		"2025-08-01T08:00:00Z",
		"2025-08-02T13:00:00Z",
	))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = 2 })

	since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
	result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	urls := recordURLs(result)
	if len(urls) != 2 || urls[0] != newsURL(2) || urls[1] != newsURL(4) {
		t.Fatalf("unexpected records: %v", urls)
	}
	if result.Report.EarlyStop {
		t.Fatalf("early stop fired on a broken streak")
	}
}

func TestSiteScannerUndeterminedTimeIsNew(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages("", "2025-08-01T09:00:00Z"))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = 1 })

	since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
	result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(result.Records) != 1 || result.Records[0].URL != newsURL(1) {
		t.Fatalf("unexpected records: %v", recordURLs(result))
	}
	if result.Records[0].PublishTime != nil {
		t.Fatalf("undetermined time must stay empty, got %v", result.Records[0].PublishTime)
	}
}

func TestSiteScannerCutoffMonotonicity(t *testing.T) {
	t.Parallel()

	published := []string{
		"2025-08-02T13:00:00Z",
		"",
		"2025-08-02T09:00:00Z",
		"2025-08-02T11:30:00Z",
		"2025-08-01T20:00:00Z",
		"2025-08-02T12:00:00Z",
	}
	cutoffs := []time.Time{
		time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.August, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC),
		time.Date(2025, time.August, 2, 14, 0, 0, 0, time.UTC),
	}

	var previous map[string]bool
	for _, cutoff := range cutoffs {
		cutoff := cutoff
		fetcher := newFakeFetcher(sourcePages(published...))
		sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = 100 })

		result, err := sc.Scan(context.Background(), scanner.Request{Since: &cutoff})
		if err != nil {
			t.Fatalf("Scan error: %v", err)
		}

		current := map[string]bool{}
		for _, u := range recordURLs(result) {
			current[u] = true
		}
		if !current[newsURL(2)] {
			t.Fatalf("undetermined article missing at cutoff %v", cutoff)
		}
		for u := range current {
			if previous != nil && !previous[u] {
				t.Fatalf("stricter cutoff %v admitted %s", cutoff, u)
			}
		}
		previous = current
	}

	if len(previous) != 1 {
		t.Fatalf("only the undetermined article should survive the last cutoff, got %v", previous)
	}
}

func TestSiteScannerSkipsBrokenArticle(t *testing.T) {
	t.Parallel()

	pages := sourcePages(
		"2025-08-01T09:00:00Z",
		"2025-08-02T14:00:00Z",
		"2025-08-01T08:00:00Z",
		"2025-08-02T13:00:00Z",
	)
	delete(pages, newsURL(2))
	fetcher := newFakeFetcher(pages)
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.OldThreshold = 2 })

	since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
	result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if result.Report.Failed != 1 {
		t.Fatalf("expected one failed candidate, got %+v", result.Report)
	}
	if !result.Report.EarlyStop || fetcher.fetched(newsURL(4)) {
		t.Fatalf("a failed fetch must not reset the old streak: %+v", result.Report)
	}
}

func TestSiteScannerLengthGate(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages("2025-08-02T14:00:00Z", "2025-08-02T13:00:00Z"))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.MaxWords = 5 })

	result, err := sc.Scan(context.Background(), scanner.Request{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(result.Records) != 0 || result.Report.Rejected != 2 {
		t.Fatalf("expected both articles rejected, got %+v", result.Report)
	}
}

func TestSiteScannerPausesBetweenArticles(t *testing.T) {
	t.Parallel()

	const delay = 40 * time.Millisecond
	fetcher := newFakeFetcher(sourcePages("", "", ""))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.Delay = delay })

	result, err := sc.Scan(context.Background(), scanner.Request{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("expected 3 records, got %v", recordURLs(result))
	}

	times := fetcher.articleFetchTimes()
	if len(times) != 3 {
		t.Fatalf("expected 3 article fetches, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < delay {
			t.Fatalf("fetch %d came %v after the previous one, want at least %v", i+1, gap, delay)
		}
	}
}

func TestSiteScannerResolvesImageAgainstArticle(t *testing.T) {
	t.Parallel()

	pages := sourcePages("")
	pages[newsURL(1)] = `<html><body><article><div class="article-body">
	  <img src="photos/a.jpg">
	  <p>Динамо впевнено обіграло суперника у матчі чемпіонату.</p>
	</div></article></body></html>`
	fetcher := newFakeFetcher(pages)
	sc := newTestScanner(t, fetcher, nil)

	result, err := sc.Scan(context.Background(), scanner.Request{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected one record, got %+v", result.Report)
	}
	if got := result.Records[0].ImageURL; got != "https://news.example.com/news/photos/a.jpg" {
		t.Fatalf("unexpected image: %s", got)
	}
}

func TestSiteScannerNoCutoffTruncates(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages("", "", "", ""))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.MaxCandidates = 3 })

	result, err := sc.Scan(context.Background(), scanner.Request{})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(result.Records) != 3 || fetcher.fetched(newsURL(4)) {
		t.Fatalf("expected 3 records, got %v", recordURLs(result))
	}
}

func TestSiteScannerSourceFailures(t *testing.T) {
	t.Parallel()

	t.Run("listing unavailable", func(t *testing.T) {
		t.Parallel()

		sc := newTestScanner(t, newFakeFetcher(map[string]string{}), nil)
		_, err := sc.Scan(context.Background(), scanner.Request{})
		if KindOf(err) != KindFetch {
			t.Fatalf("expected fetch failure, got %v", err)
		}
	})

	t.Run("layout changed", func(t *testing.T) {
		t.Parallel()

		fetcher := newFakeFetcher(map[string]string{testBase: `<html><body><p>Порожня сторінка</p></body></html>`})
		sc := newTestScanner(t, fetcher, nil)
		result, err := sc.Scan(context.Background(), scanner.Request{})
		if KindOf(err) != KindDiscovery || !errors.Is(err, ErrLayoutChanged) {
			t.Fatalf("expected discovery failure, got %v", err)
		}
		if result.Report.Tier != TierNone.String() || result.Report.Error == "" {
			t.Fatalf("unexpected report: %+v", result.Report)
		}
	})
}

func TestSiteScannerFeedHint(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		testBase + "/rss": `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
		<item><title>Новина зі стрічки без дати на сторінці</title><link>https://news.example.com/news/1</link>
		<pubDate>Fri, 01 Aug 2025 06:00:00 +0000</pubDate></item>
		<item><title>Друга новина зі стрічки без дати на сторінці</title><link>https://news.example.com/news/2</link>
		<pubDate>Sat, 02 Aug 2025 13:00:00 +0000</pubDate></item>
		</channel></rss>`,
		newsURL(1): articlePage(""),
		newsURL(2): articlePage(""),
	}
	fetcher := newFakeFetcher(pages)
	sc := newTestScanner(t, fetcher, func(r *Rules) {
		r.FeedURL = testBase + "/rss"
		r.OldThreshold = 5
	})

	since := time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)
	result, err := sc.Scan(context.Background(), scanner.Request{Since: &since})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if result.Report.Tier != TierFeed.String() {
		t.Fatalf("expected feed tier, got %s", result.Report.Tier)
	}
	if urls := recordURLs(result); len(urls) != 1 || urls[0] != newsURL(2) {
		t.Fatalf("feed hint not applied: %v", urls)
	}
	if fetcher.fetched(testBase) {
		t.Fatalf("listing page fetched although the feed worked")
	}
}

func TestSiteScannerHonoursCancellation(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher(sourcePages("", "", ""))
	sc := newTestScanner(t, fetcher, func(r *Rules) { r.Delay = time.Hour })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result, err := sc.Scan(ctx, scanner.Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected the first record before the pause, got %d", len(result.Records))
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	text := "Перше речення. Друге речення! Третє речення?"
	if got := Summary(text, 100); got != text {
		t.Fatalf("short text should pass through, got %q", got)
	}
	if got := Summary(text, 30); got != "Перше речення. Друге речення!" {
		t.Fatalf("unexpected summary: %q", got)
	}
	long := strings.Repeat("слово ", 100)
	if got := Summary(long, 20); len([]rune(got)) > 20 {
		t.Fatalf("summary too long: %d runes", len([]rune(got)))
	}
}
