package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	imageAttributes = []string{"src", "data-src", "data-lazy-src", "data-original", "srcset", "data-srcset"}

	previewMetaSelectors = []string{
		"meta[property='og:image']",
		"meta[name='og:image']",
		"meta[property='twitter:image']",
		"meta[name='twitter:image']",
	}
)

// ExtractImage picks one representative image: inside the content container
// first, then the social preview meta image, then common image blocks.
// Relative references resolve against pageURL, or the site base when pageURL
// is not an absolute URL. It returns "" when nothing survives the reject list.
func ExtractImage(doc *goquery.Document, container *goquery.Selection, site *SiteRules, pageURL string) string {
	if doc == nil || site == nil {
		return ""
	}
	base := imageBase(pageURL, site)

	if container != nil && container.Length() > 0 {
		for _, selector := range site.ImageInnerSelectors {
			if src := firstImage(container.Find(selector), base, site); src != "" {
				return src
			}
		}
	}

	for _, selector := range previewMetaSelectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = acceptImage(s.AttrOr("content", ""), base, site)
			return found == ""
		})
		if found != "" {
			return found
		}
	}

	for _, selector := range site.ImageSelectors {
		if src := firstImage(doc.Find(selector), base, site); src != "" {
			return src
		}
	}
	return ""
}

func imageBase(pageURL string, site *SiteRules) *url.URL {
	if u, err := url.Parse(strings.TrimSpace(pageURL)); err == nil && u.IsAbs() && u.Host != "" {
		return u
	}
	return site.Base()
}

func firstImage(images *goquery.Selection, base *url.URL, site *SiteRules) string {
	var found string
	images.EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range imageAttributes {
			raw, ok := img.Attr(attr)
			if !ok {
				continue
			}
			if strings.HasSuffix(attr, "srcset") {
				raw = firstSrcsetEntry(raw)
			}
			if src := acceptImage(raw, base, site); src != "" {
				found = src
				return false
			}
		}
		return true
	})
	return found
}

func acceptImage(raw string, base *url.URL, site *SiteRules) string {
	src := NormalizeImageURL(raw, base)
	if src == "" || rejectedImage(src, site.ImageRejectKeywords) {
		return ""
	}
	return src
}

// NormalizeImageURL makes an image reference absolute: "//host/x" gets
// https, "/x" gets the base scheme and host, anything else resolves against
// base. Inline data URIs yield "".
func NormalizeImageURL(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return ""
	}

	switch {
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		if base == nil || base.Host == "" {
			return ""
		}
		return base.Scheme + "://" + base.Host + raw
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func rejectedImage(src string, keywords []string) bool {
	lower := strings.ToLower(src)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func firstSrcsetEntry(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
