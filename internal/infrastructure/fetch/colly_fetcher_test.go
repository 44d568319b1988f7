package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollyFetcherSendsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotLang, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Динамо</p></body></html>"))
	}))
	defer srv.Close()

	f := NewCollyFetcher(map[string]string{
		"User-Agent":      "FootballNewsTest/1.0",
		"Accept-Language": "uk-UA",
		"Referer":         "https://news.example.com",
	}, time.Second)

	body, err := f.Fetch(context.Background(), srv.URL+"/news/1")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if !strings.Contains(string(body), "Динамо") {
		t.Fatalf("unexpected body: %s", body)
	}
	if gotUA != "FootballNewsTest/1.0" || gotLang != "uk-UA" || gotReferer != "https://news.example.com" {
		t.Fatalf("headers not sent: %q %q %q", gotUA, gotLang, gotReferer)
	}

	// same URL twice must not be treated as already visited
	if _, err := f.Fetch(context.Background(), srv.URL+"/news/1"); err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
}

func TestCollyFetcherStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewCollyFetcher(nil, time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestCollyFetcherHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := NewCollyFetcher(nil, 5*time.Second)
	start := time.Now()
	if _, err := f.Fetch(ctx, srv.URL); err == nil {
		t.Fatalf("expected context error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("fetch ignored context cancellation")
	}
}
