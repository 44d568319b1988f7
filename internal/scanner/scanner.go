package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"FootballNews/internal/domain"
)

// Request carries all parameters required to execute a scan.
type Request struct {
	// Since excludes articles published at or before it; nil disables the cutoff.
	Since *time.Time
	// RunID ties log lines of one poll together.
	RunID string
}

// Report describes how a scan went, so "nothing new" and "site broke" can
// be told apart.
type Report struct {
	Source     string        `json:"source"`
	Tier       string        `json:"tier"`
	Candidates int           `json:"candidates"`
	Checked    int           `json:"checked"`
	Old        int           `json:"old"`
	Rejected   int           `json:"rejected"`
	Failed     int           `json:"failed"`
	Records    int           `json:"records"`
	EarlyStop  bool          `json:"early_stop"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Result is the output of one scan.
type Result struct {
	Records []domain.ArticleRecord
	Report  Report
}

// Scanner captures a single source pipeline.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) (Result, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
