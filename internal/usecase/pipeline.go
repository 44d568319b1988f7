package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"FootballNews/internal/domain"
	"FootballNews/internal/logging"
	"FootballNews/internal/ports"
)

const (
	defaultDedupWindow = 72 * time.Hour
	defaultSimilarity  = 0.7
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	PostedLog  ports.PostedLog
	Translator ports.Translator
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	Logger     *slog.Logger

	DedupWindow time.Duration
	Similarity  float64

	Now   func() time.Time
	NewID func() string
}

// Pipeline implements poll -> dedup -> translate -> summarize -> deliver -> record.
type Pipeline struct {
	source     ports.ArticleSource
	posted     ports.PostedLog
	translator ports.Translator
	summarizer ports.Summarizer
	notifier   ports.Notifier
	logger     *slog.Logger

	dedupWindow time.Duration
	similarity  float64

	now   func() time.Time
	newID func() string
}

// Stats summarizes one pipeline run.
type Stats struct {
	Fetched    int `json:"fetched"`
	Duplicates int `json:"duplicates"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:      deps.Source,
		posted:      deps.PostedLog,
		translator:  deps.Translator,
		summarizer:  deps.Summarizer,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		dedupWindow: deps.DedupWindow,
		similarity:  deps.Similarity,
		now:         deps.Now,
		newID:       deps.NewID,
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	if p.dedupWindow <= 0 {
		p.dedupWindow = defaultDedupWindow
	}
	if p.similarity <= 0 || p.similarity > 1 {
		p.similarity = defaultSimilarity
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	return p
}

// Run polls every source for articles newer than since and delivers the new ones.
// Only a failure to read the posted log aborts the run; per-article delivery
// and storage errors are logged and counted.
func (p *Pipeline) Run(ctx context.Context, since *time.Time) (Stats, error) {
	var stats Stats
	if p.source == nil {
		return stats, nil
	}

	records, err := p.source.FetchLatest(ctx, since)
	if err != nil {
		return stats, fmt.Errorf("fetch latest: %w", err)
	}
	stats.Fetched = len(records)
	if len(records) == 0 {
		return stats, nil
	}

	var recent []domain.PostedEntry
	if p.posted != nil {
		recent, err = p.posted.Recent(ctx, p.now().Add(-p.dedupWindow))
		if err != nil {
			return stats, fmt.Errorf("load recent posts: %w", err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := p.logger.With("source", record.Source, "url", record.URL)

		dup, err := p.isDuplicate(ctx, record, recent)
		if err != nil {
			return stats, err
		}
		if dup {
			stats.Duplicates++
			log.Debug("skip duplicate", "title", record.Title)
			continue
		}

		record = p.translate(ctx, record, log)
		record = p.summarize(ctx, record, log)

		if p.notifier != nil {
			if err := p.notifier.PublishArticle(ctx, record); err != nil {
				stats.Failed++
				log.Warn("deliver article", "error", err)
				continue
			}
		}
		stats.Delivered++

		entry := record.DedupEntry(p.now())
		entry.ID = p.newID()
		recent = append(recent, entry)
		if p.posted != nil {
			if err := p.posted.Append(ctx, entry); err != nil {
				log.Warn("record posted article", "error", err)
			}
		}
	}

	p.logger.Info("pipeline run finished",
		"fetched", stats.Fetched,
		"duplicates", stats.Duplicates,
		"delivered", stats.Delivered,
		"failed", stats.Failed)
	return stats, nil
}

func (p *Pipeline) isDuplicate(ctx context.Context, record domain.ArticleRecord, recent []domain.PostedEntry) (bool, error) {
	if p.posted != nil {
		seen, err := p.posted.Seen(ctx, record.Title)
		if err != nil {
			return false, fmt.Errorf("check posted %q: %w", record.Title, err)
		}
		if seen {
			return true, nil
		}
	}
	key := domain.TitleKey(record.Title)
	for _, entry := range recent {
		if entry.URL != "" && entry.URL == record.URL {
			return true, nil
		}
		if entry.TitleKey == key || domain.TitleSimilarity(entry.Title, record.Title) >= p.similarity {
			return true, nil
		}
	}
	return false, nil
}

// translate rewrites title, summary and content, keeping originals. Any failed
// field stays untranslated.
func (p *Pipeline) translate(ctx context.Context, record domain.ArticleRecord, log *slog.Logger) domain.ArticleRecord {
	record.OriginalTitle = record.Title
	record.OriginalContent = record.Content
	if p.translator == nil || !p.translator.Available() {
		return record
	}

	record.Title = p.translateField(ctx, record.Title, "title", log)
	record.Summary = p.translateField(ctx, record.Summary, "summary", log)
	record.Content = p.translateField(ctx, record.Content, "body", log)
	return record
}

func (p *Pipeline) translateField(ctx context.Context, text, hint string, log *slog.Logger) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, err := p.translator.Translate(ctx, text, hint)
	if err != nil || strings.TrimSpace(out) == "" {
		log.Warn("translate failed, keeping original", "field", hint, "error", err)
		return text
	}
	return out
}

func (p *Pipeline) summarize(ctx context.Context, record domain.ArticleRecord, log *slog.Logger) domain.ArticleRecord {
	if p.summarizer == nil {
		return record
	}
	summary, err := p.summarizer.Summarize(ctx, record)
	if err != nil {
		log.Warn("summarize failed, keeping derived summary", "error", err)
		return record
	}
	if strings.TrimSpace(summary) != "" {
		record.Summary = summary
	}
	return record
}
