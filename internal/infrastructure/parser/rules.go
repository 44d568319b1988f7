package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	defaultMinTitleLength     = 15
	defaultMaxCandidates      = 15
	defaultMinParagraphLength = 15
	defaultMaxContentLength   = 2000
	defaultMaxWords           = 1000
	defaultMinWords           = 20
	defaultOldThreshold       = 2
	defaultDelay              = 2 * time.Second
	defaultTimeout            = 15 * time.Second
	defaultUserAgent          = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	defaultTimeSelectors = []string{"time", "[itemprop='datePublished']", ".date", ".time", ".article-date", ".publish-date"}

	defaultContentSelectors = []string{
		"[itemprop='articleBody']",
		".article-body",
		".article-content",
		".article__content",
		".article-text",
		".news-text",
		".post-content",
		".entry-content",
		"article",
	}

	defaultGenericContainers = []string{"main", "#main", "#content", ".main-content", ".content", "body"}

	defaultDenyPhrases = []string{
		"читайте також", "читайте также", "дивіться також", "смотрите также", "read also", "read more",
		"фото:", "photo:", "джерело:", "источник:",
		"підписуйтесь", "підписуйся", "подписывайтесь", "follow us", "telegram-канал", "наш telegram",
		"cookie", "advertisement", "залишити коментар", "оставить комментарий", "leave a comment",
		"getty images",
	}

	defaultImageInnerSelectors = []string{"figure img", "picture img", "img"}

	defaultImageSelectors = []string{
		".hero img", ".featured-image img", ".article-image img", ".article__image img",
		".main-image img", "figure img", "article img",
	}

	defaultImageRejectKeywords = []string{
		"icon", "logo", "banner", "advertisement", "/ads/", "thumb", "avatar", "sprite",
		"pixel", "placeholder", "/16x", "/32x", "/48x", "/64x", "1x1",
	}
)

// Rules is the per-source rule table driving the generic pipeline.
type Rules struct {
	Name       string
	BaseURL    string
	ListingURL string
	FeedURL    string

	SectionHeaders    []string
	FallbackSelectors []string
	GenericContainers []string
	AllowPatterns     []string
	DenyPatterns      []string
	MinTitleLength    int
	MaxCandidates     int

	TimeSelectors []string
	Locales       []string
	Timezone      string

	ContentSelectors   []string
	ParagraphSelector  string
	MinParagraphLength int
	DenyPhrases        []string
	MaxContentLength   int
	MaxWords           int
	MinWords           int

	ImageInnerSelectors []string
	ImageSelectors      []string
	ImageRejectKeywords []string

	OldThreshold int
	Delay        time.Duration
	Timeout      time.Duration
	Headers      map[string]string
}

// WithDefaults fills every empty field.
func (r Rules) WithDefaults() Rules {
	if r.ListingURL == "" {
		r.ListingURL = r.BaseURL
	}
	if len(r.GenericContainers) == 0 {
		r.GenericContainers = defaultGenericContainers
	}
	if r.MinTitleLength <= 0 {
		r.MinTitleLength = defaultMinTitleLength
	}
	if r.MaxCandidates <= 0 {
		r.MaxCandidates = defaultMaxCandidates
	}
	if len(r.TimeSelectors) == 0 {
		r.TimeSelectors = defaultTimeSelectors
	}
	if len(r.Locales) == 0 {
		r.Locales = []string{"uk", "en"}
	}
	if len(r.ContentSelectors) == 0 {
		r.ContentSelectors = defaultContentSelectors
	}
	if r.ParagraphSelector == "" {
		r.ParagraphSelector = "p"
	}
	if r.MinParagraphLength <= 0 {
		r.MinParagraphLength = defaultMinParagraphLength
	}
	r.DenyPhrases = mergeStrings(defaultDenyPhrases, r.DenyPhrases)
	if r.MaxContentLength <= 0 {
		r.MaxContentLength = defaultMaxContentLength
	}
	if r.MaxWords <= 0 {
		r.MaxWords = defaultMaxWords
	}
	if r.MinWords == 0 {
		r.MinWords = defaultMinWords
	} else if r.MinWords < 0 {
		r.MinWords = 0
	}
	if len(r.ImageInnerSelectors) == 0 {
		r.ImageInnerSelectors = defaultImageInnerSelectors
	}
	if len(r.ImageSelectors) == 0 {
		r.ImageSelectors = defaultImageSelectors
	}
	if len(r.ImageRejectKeywords) == 0 {
		r.ImageRejectKeywords = defaultImageRejectKeywords
	}
	if r.OldThreshold <= 0 {
		r.OldThreshold = defaultOldThreshold
	}
	// a negative delay disables the pause between article fetches
	if r.Delay == 0 {
		r.Delay = defaultDelay
	} else if r.Delay < 0 {
		r.Delay = 0
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultTimeout
	}
	headers := map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "uk-UA,uk;q=0.9,en;q=0.6",
	}
	if r.BaseURL != "" {
		headers["Referer"] = r.BaseURL
	}
	for k, v := range r.Headers {
		headers[k] = v
	}
	r.Headers = headers
	return r
}

// SiteRules is a compiled, ready-to-use rule table.
type SiteRules struct {
	Rules
	base     *url.URL
	allow    []*regexp.Regexp
	deny     []*regexp.Regexp
	locale   *Locale
	location *time.Location
}

// Compile applies defaults and compiles patterns, base URL and locale.
func Compile(r Rules) (*SiteRules, error) {
	r = r.WithDefaults()
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("rules: source name is required")
	}

	base, err := url.Parse(r.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("rules %s: invalid base url %q", r.Name, r.BaseURL)
	}

	allow, err := compilePatterns(r.AllowPatterns)
	if err != nil {
		return nil, fmt.Errorf("rules %s: allow pattern: %w", r.Name, err)
	}
	deny, err := compilePatterns(r.DenyPatterns)
	if err != nil {
		return nil, fmt.Errorf("rules %s: deny pattern: %w", r.Name, err)
	}

	loc := time.UTC
	if r.Timezone != "" {
		loc, err = time.LoadLocation(r.Timezone)
		if err != nil {
			return nil, fmt.Errorf("rules %s: timezone: %w", r.Name, err)
		}
	}

	return &SiteRules{
		Rules:    r,
		base:     base,
		allow:    allow,
		deny:     deny,
		locale:   LookupLocale(r.Locales...),
		location: loc,
	}, nil
}

// WithLocation returns a copy that reports times in loc.
func (s *SiteRules) WithLocation(loc *time.Location) *SiteRules {
	cp := *s
	if loc != nil {
		cp.location = loc
	}
	return &cp
}

// Base returns the parsed base URL.
func (s *SiteRules) Base() *url.URL {
	return s.base
}

// Location returns the reference time zone.
func (s *SiteRules) Location() *time.Location {
	return s.location
}

// linkAllowed applies deny-then-allow filtering. An empty allow list admits
// every URL on the source host.
func (s *SiteRules) linkAllowed(abs string) bool {
	for _, re := range s.deny {
		if re.MatchString(abs) {
			return false
		}
	}
	if len(s.allow) == 0 {
		u, err := url.Parse(abs)
		return err == nil && strings.EqualFold(u.Hostname(), s.base.Hostname())
	}
	for _, re := range s.allow {
		if re.MatchString(abs) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func mergeStrings(base, extra []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
