// Package sources holds the built-in rule tables for the supported news sites
// and merges configuration overrides into them.
package sources

import (
	"fmt"
	"sort"
	"strings"

	"FootballNews/internal/config"
	"FootballNews/internal/infrastructure/parser"
)

const defaultTimezone = "Europe/Kyiv"

var builtin = map[string]parser.Rules{
	"footballua": {
		Name:           "footballua",
		BaseURL:        "https://football.ua",
		ListingURL:     "https://football.ua/newsarc/",
		SectionHeaders: []string{"Останні новини", "Новини футболу", "Стрічка новин"},
		FallbackSelectors: []string{
			".news-feed", ".news-list", ".archive-list", "ul.news",
		},
		AllowPatterns:    []string{`^https://football\.ua/[a-z]+/\d+-[^/]+\.html$`},
		DenyPatterns:     []string{`/video/`, `/photo/`, `/tag/`, `/blog/`},
		TimeSelectors:    []string{".article .date", ".author-article .date", "time"},
		ContentSelectors: []string{".article-text", ".article_text", "[itemprop='articleBody']", "article"},
		ImageSelectors:   []string{".article-photo img", ".article .main-img img", "figure img"},
		Locales:          []string{"uk"},
	},
	"sportua": {
		Name:           "sportua",
		BaseURL:        "https://sport.ua",
		ListingURL:     "https://sport.ua/uk/news/football",
		FeedURL:        "https://sport.ua/uk/rss/football",
		SectionHeaders: []string{"Новини футболу", "Всі новини"},
		FallbackSelectors: []string{
			".news-items", ".news-list", ".item-list",
		},
		AllowPatterns:    []string{`^https://sport\.ua/uk/news/\d+`},
		DenyPatterns:     []string{`/video`, `/blogs/`},
		TimeSelectors:    []string{".news-date", ".date", "time"},
		ContentSelectors: []string{".news-text", ".news-content", "[itemprop='articleBody']"},
		DenyPhrases:      []string{"sport.ua у telegram"},
		ImageSelectors:   []string{".news-image img", ".main-photo img"},
		Locales:          []string{"uk", "ru"},
	},
	"uafootball": {
		Name:           "uafootball",
		BaseURL:        "https://www.ua-football.com",
		ListingURL:     "https://www.ua-football.com/ua/foreign/news",
		SectionHeaders: []string{"Новини", "Останні новини"},
		FallbackSelectors: []string{
			".news-feed", ".liga-news", ".news-list",
		},
		AllowPatterns:    []string{`^https://www\.ua-football\.com/ua/[a-z/\-]+/\d+-[^/]+\.html$`},
		DenyPatterns:     []string{`/video/`, `/blog/`, `/photo/`},
		TimeSelectors:    []string{".news-date", ".article-date", "time"},
		ContentSelectors: []string{".article-text", ".news-text", "article"},
		ImageSelectors:   []string{".article-image img", ".news-image img"},
		Locales:          []string{"uk", "ru"},
	},
	"tribuna": {
		Name:           "tribuna",
		BaseURL:        "https://tribuna.com",
		ListingURL:     "https://tribuna.com/uk/football/news/",
		SectionHeaders: []string{"Головні новини", "Новини"},
		FallbackSelectors: []string{
			"[data-testid='news-feed']", ".news-feed", ".feed-list",
		},
		AllowPatterns:    []string{`^https://tribuna\.com/uk/(football/)?news/[^/]+/?$`},
		DenyPatterns:     []string{`/blogs/`, `/match/`, `/tags/`},
		TimeSelectors:    []string{"time", "[class*='publish-date']"},
		ContentSelectors: []string{"[class*='article-content']", "[class*='content-body']", "article"},
		ImageSelectors:   []string{"[class*='article-image'] img", "figure img"},
		Locales:          []string{"uk", "en"},
		Headers:          map[string]string{"Accept-Language": "uk-UA,uk;q=0.9"},
	},
}

// Names lists the built-in sources.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a copy of the named rule table.
func Builtin(name string) (parser.Rules, bool) {
	r, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return parser.Rules{}, false
	}
	return cloneRules(r), true
}

// Build merges the source config over its built-in table (if any) and the
// scraper-wide defaults, then compiles it.
func Build(src config.SourceConfig, scraper config.ScraperConfig, timezone string) (*parser.SiteRules, error) {
	name := strings.ToLower(strings.TrimSpace(src.Name))
	rules, ok := Builtin(name)
	if !ok {
		if src.BaseURL == "" {
			return nil, fmt.Errorf("source %s: unknown source without baseUrl", src.Name)
		}
		rules = parser.Rules{Name: name}
	}

	rules = Merge(rules, src)
	if rules.Timezone == "" {
		rules.Timezone = timezone
	}
	if rules.Timezone == "" {
		rules.Timezone = defaultTimezone
	}
	if src.Delay == 0 && scraper.Delay != 0 {
		rules.Delay = scraper.Delay
	}
	if src.Timeout == 0 && scraper.Timeout != 0 {
		rules.Timeout = scraper.Timeout
	}
	if src.OldThreshold == 0 && scraper.OldThreshold != 0 {
		rules.OldThreshold = scraper.OldThreshold
	}

	site, err := parser.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	return site, nil
}

// Merge overlays the non-empty fields of src onto rules.
func Merge(rules parser.Rules, src config.SourceConfig) parser.Rules {
	if src.BaseURL != "" {
		rules.BaseURL = src.BaseURL
	}
	if src.ListingURL != "" {
		rules.ListingURL = src.ListingURL
	}
	if src.FeedURL != "" {
		rules.FeedURL = src.FeedURL
	}
	if len(src.SectionHeaders) > 0 {
		rules.SectionHeaders = src.SectionHeaders
	}
	if len(src.FallbackSelectors) > 0 {
		rules.FallbackSelectors = src.FallbackSelectors
	}
	if len(src.AllowPatterns) > 0 {
		rules.AllowPatterns = src.AllowPatterns
	}
	if len(src.DenyPatterns) > 0 {
		rules.DenyPatterns = src.DenyPatterns
	}
	if len(src.TimeSelectors) > 0 {
		rules.TimeSelectors = src.TimeSelectors
	}
	if len(src.ContentSelectors) > 0 {
		rules.ContentSelectors = src.ContentSelectors
	}
	if len(src.DenyPhrases) > 0 {
		rules.DenyPhrases = append(append([]string{}, rules.DenyPhrases...), src.DenyPhrases...)
	}
	if len(src.ImageSelectors) > 0 {
		rules.ImageSelectors = src.ImageSelectors
	}
	if len(src.Locales) > 0 {
		rules.Locales = src.Locales
	}
	if src.MinTitleLength != 0 {
		rules.MinTitleLength = src.MinTitleLength
	}
	if src.MaxCandidates != 0 {
		rules.MaxCandidates = src.MaxCandidates
	}
	if src.MaxContentLength != 0 {
		rules.MaxContentLength = src.MaxContentLength
	}
	if src.MinWords != 0 {
		rules.MinWords = src.MinWords
	}
	if src.MaxWords != 0 {
		rules.MaxWords = src.MaxWords
	}
	if src.OldThreshold != 0 {
		rules.OldThreshold = src.OldThreshold
	}
	if src.Delay != 0 {
		rules.Delay = src.Delay
	}
	if src.Timeout != 0 {
		rules.Timeout = src.Timeout
	}
	if len(src.Headers) > 0 {
		headers := make(map[string]string, len(rules.Headers)+len(src.Headers))
		for k, v := range rules.Headers {
			headers[k] = v
		}
		for k, v := range src.Headers {
			headers[k] = v
		}
		rules.Headers = headers
	}
	return rules
}

func cloneRules(r parser.Rules) parser.Rules {
	cp := r
	cp.SectionHeaders = append([]string(nil), r.SectionHeaders...)
	cp.FallbackSelectors = append([]string(nil), r.FallbackSelectors...)
	cp.AllowPatterns = append([]string(nil), r.AllowPatterns...)
	cp.DenyPatterns = append([]string(nil), r.DenyPatterns...)
	cp.TimeSelectors = append([]string(nil), r.TimeSelectors...)
	cp.ContentSelectors = append([]string(nil), r.ContentSelectors...)
	cp.DenyPhrases = append([]string(nil), r.DenyPhrases...)
	cp.ImageSelectors = append([]string(nil), r.ImageSelectors...)
	cp.Locales = append([]string(nil), r.Locales...)
	if r.Headers != nil {
		cp.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			cp.Headers[k] = v
		}
	}
	return cp
}
