package parser

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const paragraphSeparator = "\n\n"

const purgeTags = "script, style, noscript, iframe, embed, object, nav, footer, header, aside, form, svg, figcaption, button"

var (
	boilerplateWords = map[string]bool{
		"ad": true, "ads": true, "adv": true, "advert": true, "advertisement": true, "adsbygoogle": true,
		"banner": true, "promo": true, "sponsored": true,
		"social": true, "share": true, "sharing": true, "socials": true,
		"related": true, "recommended": true, "more": true,
		"comment": true, "comments": true, "disqus": true,
		"sidebar": true, "widget": true, "breadcrumb": true, "breadcrumbs": true,
		"byline": true, "author": true, "date": true, "time": true, "meta": true,
		"credit": true, "credits": true, "caption": true, "copyright": true,
		"subscribe": true, "newsletter": true, "tags": true, "menu": true, "cookie": true, "popup": true,
	}

	// never purged even when their class names look like boilerplate
	protectedAtoms = map[atom.Atom]bool{atom.Html: true, atom.Body: true, atom.Main: true, atom.Article: true}

	dateConnectors = map[string]bool{
		"о": true, "об": true, "в": true, "во": true, "at": true, "on": true,
		"р": true, "року": true, "рік": true, "г": true, "года": true, "год": true,
		"оновлено": true, "обновлено": true, "updated": true, "опубліковано": true, "опубликовано": true, "published": true,
	}
)

// Content is the cleaned article body.
type Content struct {
	Text      string
	WordCount int
	// Container is the matched body element inside the purged copy; empty
	// when paragraphs came from the whole document.
	Container *goquery.Selection
}

// ExtractContent strips page chrome from a copy of doc and returns the
// surviving body paragraphs. The word count is measured before the length cap.
func ExtractContent(doc *goquery.Document, site *SiteRules) Content {
	if doc == nil || site == nil {
		return Content{}
	}

	clean := goquery.CloneDocument(doc)
	purge(clean)

	container := locateContainer(clean, site)

	var paragraphs *goquery.Selection
	if container.Length() > 0 {
		paragraphs = container.Find(site.ParagraphSelector)
	}
	if paragraphs == nil || paragraphs.Length() == 0 {
		paragraphs = clean.Find(site.ParagraphSelector)
	}

	var kept []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		text := collapseSpace(p.Text())
		if keepParagraph(text, site) {
			kept = append(kept, text)
		}
	})

	full := strings.Join(kept, paragraphSeparator)
	return Content{
		Text:      truncateRunes(full, site.MaxContentLength),
		WordCount: CountWords(full),
		Container: container,
	}
}

func locateContainer(doc *goquery.Document, site *SiteRules) *goquery.Selection {
	for _, selector := range site.ContentSelectors {
		if found := doc.Find(selector).First(); found.Length() > 0 {
			return found
		}
	}
	return doc.Selection.Slice(0, 0)
}

func purge(doc *goquery.Document) {
	doc.Find(purgeTags).Remove()

	var noise []*html.Node
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if protectedAtoms[n.DataAtom] {
			return
		}
		if looksLikeBoilerplate(s.AttrOr("class", "")) || looksLikeBoilerplate(s.AttrOr("id", "")) {
			noise = append(noise, n)
		}
	})
	for _, n := range noise {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

// looksLikeBoilerplate checks class or id tokens. A token counts when it is
// a keyword itself or its first dash/underscore separated word is one, so
// "share-buttons" matches while "layout-with-sidebar" does not.
func looksLikeBoilerplate(attr string) bool {
	for _, token := range strings.Fields(strings.ToLower(attr)) {
		if boilerplateWords[token] {
			return true
		}
		words := strings.FieldsFunc(token, func(r rune) bool { return r == '-' || r == '_' })
		if len(words) > 0 && boilerplateWords[words[0]] {
			return true
		}
	}
	return false
}

func keepParagraph(text string, site *SiteRules) bool {
	if len([]rune(text)) <= site.MinParagraphLength {
		return false
	}
	if containsAny(strings.ToLower(text), site.DenyPhrases) {
		return false
	}
	if isDateOnly(text, site.locale) || isCreditLine(text) {
		return false
	}
	return true
}

// isDateOnly reports whether a line carries nothing but a date or time,
// e.g. "10:48 2 серпня 2025".
func isDateOnly(text string, l *Locale) bool {
	hasDigit := strings.IndexFunc(text, unicode.IsDigit) >= 0
	if !hasDigit {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if dateConnectors[w] {
			continue
		}
		if _, ok := l.month(w); ok {
			continue
		}
		if containsAny(w, l.Today) || containsAny(w, l.Yesterday) {
			continue
		}
		return false
	}
	return true
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
