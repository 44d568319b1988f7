package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"FootballNews/internal/domain"
	"FootballNews/internal/mocks"
)

var pipelineNow = time.Date(2025, time.August, 2, 12, 0, 0, 0, time.UTC)

func fixedIDs(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestPipelineRunDeliversNewArticles(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockArticleSource(ctrl)
	posted := mocks.NewMockPostedLog(ctrl)
	translator := mocks.NewMockTranslator(ctrl)
	summarizer := mocks.NewMockSummarizer(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	since := pipelineNow.Add(-20 * time.Minute)
	source.EXPECT().FetchLatest(gomock.Any(), &since).Return([]domain.ArticleRecord{
		{Title: "Dynamo won the derby", Summary: "Short", Content: "Body text", URL: "https://a.example.com/1", Source: "footballua"},
		{Title: "Old story", URL: "https://a.example.com/2"},
		{Title: "Shakhtar signs new striker today", URL: "https://a.example.com/3"},
	}, nil)

	posted.EXPECT().Recent(gomock.Any(), pipelineNow.Add(-72*time.Hour)).Return([]domain.PostedEntry{
		{ID: "x", Title: "Shakhtar signs new striker", TitleKey: "shakhtar signs new striker", URL: "https://b.example.com/9"},
	}, nil)
	posted.EXPECT().Seen(gomock.Any(), "Dynamo won the derby").Return(false, nil)
	posted.EXPECT().Seen(gomock.Any(), "Old story").Return(true, nil)
	posted.EXPECT().Seen(gomock.Any(), "Shakhtar signs new striker today").Return(false, nil)

	translator.EXPECT().Available().Return(true).AnyTimes()
	translator.EXPECT().Translate(gomock.Any(), "Dynamo won the derby", "title").Return("Динамо виграло дербі", nil)
	translator.EXPECT().Translate(gomock.Any(), "Short", "summary").Return("Коротко", nil)
	translator.EXPECT().Translate(gomock.Any(), "Body text", "body").Return("Текст", nil)

	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.ArticleRecord) (string, error) {
			if r.Content != "Текст" {
				t.Errorf("summarizer got untranslated content %q", r.Content)
			}
			return "ML summary", nil
		})

	notifier.EXPECT().PublishArticle(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.ArticleRecord) error {
			if r.Title != "Динамо виграло дербі" || r.OriginalTitle != "Dynamo won the derby" {
				t.Errorf("unexpected titles: %q / %q", r.Title, r.OriginalTitle)
			}
			if r.Summary != "ML summary" || r.OriginalContent != "Body text" {
				t.Errorf("unexpected record: %+v", r)
			}
			return nil
		})

	posted.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e domain.PostedEntry) error {
			if e.ID != "id-1" || e.Title != "Dynamo won the derby" || e.Text != "Body text" {
				t.Errorf("unexpected entry: %+v", e)
			}
			if !e.PostedAt.Equal(pipelineNow) || e.TitleKey != "dynamo won the derby" {
				t.Errorf("unexpected entry key/time: %+v", e)
			}
			return nil
		})

	p := NewPipeline(PipelineDeps{
		Source:     source,
		PostedLog:  posted,
		Translator: translator,
		Summarizer: summarizer,
		Notifier:   notifier,
		Now:        func() time.Time { return pipelineNow },
		NewID:      fixedIDs("id-1"),
	})

	stats, err := p.Run(context.Background(), &since)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := Stats{Fetched: 3, Duplicates: 2, Delivered: 1}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPipelineRunFallbacks(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockArticleSource(ctrl)
	posted := mocks.NewMockPostedLog(ctrl)
	translator := mocks.NewMockTranslator(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	source.EXPECT().FetchLatest(gomock.Any(), nil).Return([]domain.ArticleRecord{
		{Title: "Transfer news", Summary: "S", URL: "https://a.example.com/1"},
		{Title: "Transfer news", Summary: "S", URL: "https://a.example.com/1"},
		{Title: "Match report", URL: "https://a.example.com/2"},
	}, nil)
	posted.EXPECT().Recent(gomock.Any(), gomock.Any()).Return(nil, nil)
	posted.EXPECT().Seen(gomock.Any(), gomock.Any()).Return(false, nil).Times(3)

	translator.EXPECT().Available().Return(true).AnyTimes()
	translator.EXPECT().Translate(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("quota")).AnyTimes()

	notifier.EXPECT().PublishArticle(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r domain.ArticleRecord) error {
			if r.Title == "Match report" {
				return errors.New("telegram down")
			}
			if r.Title != "Transfer news" || r.Summary != "S" {
				t.Errorf("original text not kept: %+v", r)
			}
			return nil
		}).Times(2)

	posted.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	p := NewPipeline(PipelineDeps{
		Source:     source,
		PostedLog:  posted,
		Translator: translator,
		Notifier:   notifier,
		Now:        func() time.Time { return pipelineNow },
		NewID:      fixedIDs("a", "b"),
	})

	stats, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := Stats{Fetched: 3, Duplicates: 1, Delivered: 1, Failed: 1}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPipelineRunAbortsOnPostedLogError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockArticleSource(ctrl)
	posted := mocks.NewMockPostedLog(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	source.EXPECT().FetchLatest(gomock.Any(), gomock.Any()).Return([]domain.ArticleRecord{{Title: "A"}}, nil)
	posted.EXPECT().Recent(gomock.Any(), gomock.Any()).Return(nil, nil)
	posted.EXPECT().Seen(gomock.Any(), "A").Return(false, errors.New("connection refused"))

	p := NewPipeline(PipelineDeps{Source: source, PostedLog: posted, Notifier: notifier})
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected posted log error to abort the run")
	}
}

func TestPipelineRunSourceError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockArticleSource(ctrl)
	source.EXPECT().FetchLatest(gomock.Any(), gomock.Any()).Return(nil, errors.New("all sources failed"))

	p := NewPipeline(PipelineDeps{Source: source})
	if _, err := p.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
