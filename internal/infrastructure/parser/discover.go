package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"

	"FootballNews/internal/domain"
)

// Tier records which discovery strategy produced the candidates.
type Tier int

const (
	TierNone Tier = iota
	TierHeader
	TierSelector
	TierGeneric
	TierFeed
)

func (t Tier) String() string {
	switch t {
	case TierHeader:
		return "header"
	case TierSelector:
		return "selector"
	case TierGeneric:
		return "generic"
	case TierFeed:
		return "feed"
	default:
		return "none"
	}
}

const (
	headingSelector   = "h1, h2, h3, h4, h5, h6"
	headerBoxSelector = "header, div, span, p, strong, b, li"
	headerSlack       = 30
	maxClimb             = 3
	minSelectorLinks     = 3
	minGenericLinks      = 5
)

var (
	blockAtoms = map[atom.Atom]bool{
		atom.Div: true, atom.Section: true, atom.Header: true, atom.Article: true,
		atom.Aside: true, atom.Nav: true, atom.Main: true, atom.P: true,
		atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Table: true,
		atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	}
)

// Discover locates the latest-news section of a listing page and returns its
// article links in page order. An empty result with TierNone is a normal
// outcome meaning the layout was not recognized.
func Discover(doc *goquery.Document, site *SiteRules, hasCutoff bool) ([]domain.ArticleCandidate, Tier) {
	if doc == nil || site == nil {
		return nil, TierNone
	}

	candidates, tier := discoverByHeader(doc, site), TierHeader
	if len(candidates) == 0 {
		candidates, tier = discoverBySelector(doc, site), TierSelector
	}
	if len(candidates) == 0 {
		candidates, tier = discoverGeneric(doc, site), TierGeneric
	}
	if len(candidates) == 0 {
		return nil, TierNone
	}

	return limitCandidates(candidates, site.MaxCandidates, hasCutoff), tier
}

type headerPass struct {
	selector string
	// headings may wrap a link to the section page; other elements holding
	// or inside a link are headlines, not headers.
	headings bool
	exact    bool
}

// Exact matches beat loose ones and headings beat other elements.
var headerPasses = []headerPass{
	{selector: headingSelector, headings: true, exact: true},
	{selector: headerBoxSelector, exact: true},
	{selector: headingSelector, headings: true},
	{selector: headerBoxSelector},
}

func discoverByHeader(doc *goquery.Document, site *SiteRules) []domain.ArticleCandidate {
	folder := cases.Fold()
	for _, header := range site.SectionHeaders {
		want := folder.String(collapseSpace(header))
		if want == "" {
			continue
		}
		maxLen := len([]rune(want)) + headerSlack

		for _, pass := range headerPasses {
			var found []domain.ArticleCandidate
			doc.Find(pass.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if !pass.headings && (s.Find("a").Length() > 0 || s.Closest("a").Length() > 0) {
					return true
				}
				text := collapseSpace(s.Text())
				if text == "" || len([]rune(text)) > maxLen {
					return true
				}
				text = folder.String(text)
				if pass.exact && text != want || !pass.exact && !strings.Contains(text, want) {
					return true
				}
				found = linksAfter(s, site)
				return len(found) == 0
			})
			if len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

// linksAfter takes the block holding a section header and reads links from
// its next sibling block, climbing a few levels when the header block is
// the last child of its wrapper.
func linksAfter(s *goquery.Selection, site *SiteRules) []domain.ArticleCandidate {
	block := nearestBlock(s)
	for level := 0; level < maxClimb && block.Length() > 0; level++ {
		if next := block.Next(); next.Length() > 0 {
			if links := extractLinks(next, site); len(links) > 0 {
				return links
			}
		}
		block = block.Parent()
	}
	return nil
}

func nearestBlock(s *goquery.Selection) *goquery.Selection {
	for sel := s; sel.Length() > 0; sel = sel.Parent() {
		if isBlock(sel.Get(0)) {
			return sel
		}
	}
	return s
}

func isBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockAtoms[n.DataAtom]
}

func discoverBySelector(doc *goquery.Document, site *SiteRules) []domain.ArticleCandidate {
	return firstWithLinks(doc, site.FallbackSelectors, site, minSelectorLinks)
}

func discoverGeneric(doc *goquery.Document, site *SiteRules) []domain.ArticleCandidate {
	return firstWithLinks(doc, site.GenericContainers, site, minGenericLinks)
}

func firstWithLinks(doc *goquery.Document, selectors []string, site *SiteRules, minLinks int) []domain.ArticleCandidate {
	for _, selector := range selectors {
		var found []domain.ArticleCandidate
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if links := extractLinks(s, site); len(links) >= minLinks {
				found = links
				return false
			}
			return true
		})
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

// extractLinks returns the filtered, deduplicated anchors inside container.
func extractLinks(container *goquery.Selection, site *SiteRules) []domain.ArticleCandidate {
	var (
		out  []domain.ArticleCandidate
		seen = map[string]struct{}{}
	)

	container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if skipHref(href) {
			return
		}

		title := collapseSpace(a.Text())
		if title == "" {
			title = collapseSpace(a.AttrOr("title", ""))
		}
		if len([]rune(title)) <= site.MinTitleLength {
			return
		}

		abs, ok := resolveURL(site.base, href)
		if !ok || !site.linkAllowed(abs) {
			return
		}

		key := normalizeURL(abs)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		out = append(out, domain.ArticleCandidate{Title: title, URL: abs, RawHref: href})
	})

	return out
}

func limitCandidates(candidates []domain.ArticleCandidate, max int, hasCutoff bool) []domain.ArticleCandidate {
	if hasCutoff || max <= 0 || len(candidates) <= max {
		return candidates
	}
	return candidates[:max]
}

func skipHref(href string) bool {
	lower := strings.ToLower(href)
	return href == "" ||
		strings.HasPrefix(lower, "#") ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:")
}

func resolveURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), true
}

// normalizeURL drops the fragment, lower-cases scheme and host and trims a
// trailing slash so that equivalent links share one key.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
