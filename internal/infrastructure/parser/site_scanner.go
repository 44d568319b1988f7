package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FootballNews/internal/domain"
	"FootballNews/internal/ports"
	"FootballNews/internal/scanner"
)

const summaryLength = 300

// SiteScanner runs the generic news pipeline for one source: discovery,
// publish-time cutoff with early stop, content and image extraction.
type SiteScanner struct {
	site    *SiteRules
	fetcher ports.Fetcher
	logger  *slog.Logger
	now     func() time.Time
}

var _ scanner.Scanner = (*SiteScanner)(nil)

// NewSiteScanner wires compiled rules with a document fetcher.
func NewSiteScanner(site *SiteRules, fetcher ports.Fetcher, log *slog.Logger) *SiteScanner {
	if log != nil {
		log = log.With("source", site.Name)
	}
	return &SiteScanner{
		site:    site,
		fetcher: fetcher,
		logger:  log,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for relative dates.
func (s *SiteScanner) WithClock(now func() time.Time) *SiteScanner {
	if now != nil {
		s.now = now
	}
	return s
}

// Name identifies the strategy inside the registry.
func (s *SiteScanner) Name() string {
	return s.site.Name
}

// Rules exposes the compiled rule table.
func (s *SiteScanner) Rules() *SiteRules {
	return s.site
}

// Scan returns the source's articles newer than req.Since in listing order.
// Source-level problems come back as *Failure; a broken article is skipped.
func (s *SiteScanner) Scan(ctx context.Context, req scanner.Request) (scanner.Result, error) {
	started := s.now()
	report := scanner.Report{Source: s.site.Name, StartedAt: started}
	result := scanner.Result{}

	candidates, tier, err := s.discover(ctx, req.Since != nil)
	report.Tier = tier.String()
	if err != nil {
		report.Error = err.Error()
		report.Duration = s.now().Sub(started)
		result.Report = report
		return result, err
	}
	report.Candidates = len(candidates)
	s.debug("candidates discovered", "run", req.RunID, "tier", report.Tier, "count", len(candidates))

	consecutiveOld := 0
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			report.Error = err.Error()
			break
		}
		if i > 0 {
			if err := s.pause(ctx); err != nil {
				report.Error = err.Error()
				break
			}
		}

		doc, err := s.fetchDocument(ctx, candidate.URL)
		if err != nil {
			report.Failed++
			s.warn("skip article", "url", candidate.URL, "kind", KindOf(err), "error", err)
			continue
		}
		report.Checked++

		published, known := ResolvePublishTime(doc, s.site, s.now())
		if !known && candidate.PublishedHint != nil {
			published, known = *candidate.PublishedHint, true
		}

		if known && req.Since != nil && !published.After(*req.Since) {
			consecutiveOld++
			report.Old++
			s.debug("old article", "url", candidate.URL, "published", published, "streak", consecutiveOld)
			if consecutiveOld >= s.site.OldThreshold {
				report.EarlyStop = true
				s.debug("early stop", "skipped", len(candidates)-i-1)
				break
			}
			continue
		}
		consecutiveOld = 0

		record, ok := s.extract(doc, candidate)
		if !ok {
			report.Rejected++
			continue
		}
		if known {
			t := published
			record.PublishTime = &t
		}
		result.Records = append(result.Records, record)
	}

	report.Records = len(result.Records)
	report.Duration = s.now().Sub(started)
	result.Report = report
	s.debug("scan finished", "run", req.RunID, "records", report.Records, "old", report.Old,
		"rejected", report.Rejected, "failed", report.Failed, "early_stop", report.EarlyStop)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (s *SiteScanner) discover(ctx context.Context, hasCutoff bool) ([]domain.ArticleCandidate, Tier, error) {
	if s.site.FeedURL != "" {
		candidates, err := s.discoverFeed(ctx, hasCutoff)
		if err == nil && len(candidates) > 0 {
			return candidates, TierFeed, nil
		}
		s.debug("feed unusable, falling back to listing page", "feed", s.site.FeedURL, "error", err)
	}

	doc, err := s.fetchDocument(ctx, s.site.ListingURL)
	if err != nil {
		return nil, TierNone, err
	}

	candidates, tier := Discover(doc, s.site, hasCutoff)
	if len(candidates) == 0 {
		return nil, TierNone, newFailure(KindDiscovery, s.site.Name, s.site.ListingURL, ErrLayoutChanged)
	}
	return candidates, tier, nil
}

func (s *SiteScanner) discoverFeed(ctx context.Context, hasCutoff bool) ([]domain.ArticleCandidate, error) {
	data, err := s.fetcher.Fetch(ctx, s.site.FeedURL)
	if err != nil {
		return nil, newFailure(KindFetch, s.site.Name, s.site.FeedURL, err)
	}
	candidates, err := DiscoverFeed(data, s.site, hasCutoff)
	if err != nil {
		return nil, newFailure(KindParse, s.site.Name, s.site.FeedURL, err)
	}
	return candidates, nil
}

func (s *SiteScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	data, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, newFailure(KindFetch, s.site.Name, pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, newFailure(KindParse, s.site.Name, pageURL, fmt.Errorf("parse document: %w", err))
	}
	return doc, nil
}

// extract runs the content and image extractors and the length gate.
func (s *SiteScanner) extract(doc *goquery.Document, candidate domain.ArticleCandidate) (domain.ArticleRecord, bool) {
	content := ExtractContent(doc, s.site)
	if content.Text == "" {
		s.debug("reject article: no body", "url", candidate.URL)
		return domain.ArticleRecord{}, false
	}
	if content.WordCount > s.site.MaxWords || content.WordCount < s.site.MinWords {
		s.debug("reject article: length gate", "url", candidate.URL, "words", content.WordCount)
		return domain.ArticleRecord{}, false
	}

	return domain.ArticleRecord{
		Title:     candidate.Title,
		URL:       candidate.URL,
		Content:   content.Text,
		Summary:   Summary(content.Text, summaryLength),
		ImageURL:  ExtractImage(doc, content.Container, s.site, candidate.URL),
		Source:    domain.Source(s.site.Name),
		WordCount: content.WordCount,
	}, true
}

func (s *SiteScanner) pause(ctx context.Context) error {
	if s.site.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.site.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Summary returns the leading whole sentences of text that fit in max runes.
// A first sentence longer than max is cut.
func Summary(text string, max int) string {
	text = collapseSpace(text)
	if text == "" || len([]rune(text)) <= max {
		return text
	}

	var b strings.Builder
	length := 0
	for _, sentence := range splitSentences(text) {
		n := len([]rune(sentence))
		if length > 0 && length+1+n > max {
			break
		}
		if length == 0 && n > max {
			return truncateRunes(sentence, max-1) + "…"
		}
		if length > 0 {
			b.WriteByte(' ')
			length++
		}
		b.WriteString(sentence)
		length += n
	}
	return b.String()
}

func splitSentences(text string) []string {
	var (
		out   []string
		runes = []rune(text)
		start = 0
	)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' && r != '…' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		if sentence := strings.TrimSpace(string(runes[start : i+1])); sentence != "" {
			out = append(out, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

func (s *SiteScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *SiteScanner) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
