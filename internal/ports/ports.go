//go:generate mockgen -destination=../mocks/mock_ports.go -package=mocks FootballNews/internal/ports Fetcher,ArticleSource,PostedLog,Translator,Summarizer,Notifier,Scheduler

package ports

import (
	"context"
	"time"

	"FootballNews/internal/domain"
)

// Fetcher downloads a raw HTML document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArticleSource pulls fresh articles from all configured sites.
type ArticleSource interface {
	FetchLatest(ctx context.Context, since *time.Time) ([]domain.ArticleRecord, error)
}

// PostedLog persists delivered titles for deduplication.
type PostedLog interface {
	Seen(ctx context.Context, title string) (bool, error)
	Recent(ctx context.Context, since time.Time) ([]domain.PostedEntry, error)
	Append(ctx context.Context, entry domain.PostedEntry) error
}

// Translator rewrites text into the channel language.
type Translator interface {
	Available() bool
	Translate(ctx context.Context, text, hint string) (string, error)
}

// Summarizer produces a short form of an article.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.ArticleRecord) (string, error)
}

// Notifier delivers a single article to the messaging channel.
type Notifier interface {
	PublishArticle(ctx context.Context, article domain.ArticleRecord) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
