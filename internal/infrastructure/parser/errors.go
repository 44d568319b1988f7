package parser

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a source or candidate produced nothing.
type FailureKind string

const (
	KindDiscovery FailureKind = "discovery"
	KindFetch     FailureKind = "fetch"
	KindParse     FailureKind = "parse"
)

// ErrLayoutChanged means no discovery tier found a news section.
var ErrLayoutChanged = errors.New("news section not found")

// Failure is a typed scrape failure carrying the source and page involved.
type Failure struct {
	Kind   FailureKind
	Source string
	URL    string
	Err    error
}

func (f *Failure) Error() string {
	if f.URL != "" {
		return fmt.Sprintf("%s %s failure (%s): %v", f.Source, f.Kind, f.URL, f.Err)
	}
	return fmt.Sprintf("%s %s failure: %v", f.Source, f.Kind, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind FailureKind, source, url string, err error) *Failure {
	return &Failure{Kind: kind, Source: source, URL: url, Err: err}
}

// KindOf extracts the failure kind from an error chain; "" when untyped.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
