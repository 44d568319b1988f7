package parser

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"FootballNews/internal/domain"
)

// DiscoverFeed turns an RSS/Atom document into candidates. Items pass the
// same link filters as listing-page anchors and carry their feed timestamp
// as a publish-time hint.
func DiscoverFeed(data []byte, site *SiteRules, hasCutoff bool) ([]domain.ArticleCandidate, error) {
	if site == nil {
		return nil, fmt.Errorf("feed: rules are not configured")
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var (
		out  []domain.ArticleCandidate
		seen = map[string]struct{}{}
	)
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := collapseSpace(item.Title)
		if len([]rune(title)) <= site.MinTitleLength {
			continue
		}

		abs, ok := resolveURL(site.base, collapseSpace(item.Link))
		if !ok || !site.linkAllowed(abs) {
			continue
		}
		key := normalizeURL(abs)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, domain.ArticleCandidate{
			Title:         title,
			URL:           abs,
			RawHref:       item.Link,
			PublishedHint: feedTime(item, site.Location()),
		})
	}

	return limitCandidates(out, site.MaxCandidates, hasCutoff), nil
}

func feedTime(item *gofeed.Item, loc *time.Location) *time.Time {
	var t *time.Time
	switch {
	case item.PublishedParsed != nil:
		t = item.PublishedParsed
	case item.UpdatedParsed != nil:
		t = item.UpdatedParsed
	default:
		return nil
	}
	local := t.In(loc)
	return &local
}
