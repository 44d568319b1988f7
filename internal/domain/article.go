package domain

import (
	"strings"
	"time"
)

// Source names the site an article was scraped from (e.g. "footballua").
type Source string

// ArticleCandidate is a (title, URL) pair discovered on a listing page.
type ArticleCandidate struct {
	Title   string
	URL     string
	RawHref string
	// PublishedHint is set only for candidates that came from an RSS feed.
	PublishedHint *time.Time
}

// ArticleRecord is the normalized unit handed to translation and delivery.
type ArticleRecord struct {
	Title           string     `json:"title"`
	OriginalTitle   string     `json:"originalTitle,omitempty"`
	URL             string     `json:"url"`
	Content         string     `json:"content"`
	OriginalContent string     `json:"originalContent,omitempty"`
	Summary         string     `json:"summary"`
	ImageURL        string     `json:"imageUrl"`
	PublishTime     *time.Time `json:"publishTime,omitempty"`
	Source          Source     `json:"source"`
	WordCount       int        `json:"wordCount"`
}

// HasPublishTime reports whether the publish time was determined.
func (r ArticleRecord) HasPublishTime() bool {
	return r.PublishTime != nil && !r.PublishTime.IsZero()
}

// Text returns the best available body text for deduplication.
func (r ArticleRecord) Text() string {
	if strings.TrimSpace(r.Content) != "" {
		return r.Content
	}
	return r.Summary
}

// DedupEntry builds the posted-log entry for this record.
func (r ArticleRecord) DedupEntry(now time.Time) PostedEntry {
	title := r.OriginalTitle
	if title == "" {
		title = r.Title
	}
	text := r.OriginalContent
	if text == "" {
		text = r.Text()
	}
	return PostedEntry{
		Title:    title,
		TitleKey: TitleKey(title),
		Text:     text,
		URL:      r.URL,
		Source:   r.Source,
		PostedAt: now,
	}
}

// PostedEntry is one row of the posted-news log.
type PostedEntry struct {
	ID       string
	Title    string
	TitleKey string
	Text     string
	URL      string
	Source   Source
	PostedAt time.Time
}
