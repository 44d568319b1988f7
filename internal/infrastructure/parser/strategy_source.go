package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"FootballNews/internal/domain"
	"FootballNews/internal/ports"
	"FootballNews/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []string
	logger   *slog.Logger

	mu      sync.Mutex
	reports map[string]scanner.Report
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the enabled source names.
// Output keeps the order of sources.
func NewStrategySource(reg *scanner.Registry, sources []string, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
		reports:  map[string]scanner.Report{},
	}
}

// FetchLatest scans every source concurrently and merges the records,
// dropping repeated URLs. A failing source is logged and skipped; an error
// is returned only when all of them fail.
func (s *StrategySource) FetchLatest(ctx context.Context, since *time.Time) ([]domain.ArticleRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	runID := uuid.NewString()
	s.debug("fetch latest", "run", runID, "sources", len(s.sources), "since", since)

	results := make([]scanner.Result, len(s.sources))
	errs := make([]error, len(s.sources))

	var wg sync.WaitGroup
	for i, name := range s.sources {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = s.scan(ctx, name, scanner.Request{Since: since, RunID: runID})
		}(i, name)
	}
	wg.Wait()

	var (
		aggregated []domain.ArticleRecord
		failures   []error
		seen       = map[string]struct{}{}
	)
	for i, name := range s.sources {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			s.warn("source failed", "run", runID, "source", name, "kind", KindOf(errs[i]), "error", errs[i])
		}
		for _, record := range results[i].Records {
			if _, dup := seen[record.URL]; dup {
				continue
			}
			seen[record.URL] = struct{}{}
			aggregated = append(aggregated, record)
		}
	}

	if len(s.sources) > 0 && len(failures) == len(s.sources) {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(failures...))
	}

	s.debug("strategy source done", "run", runID, "total_articles", len(aggregated))
	return aggregated, nil
}

// ScanSource runs a single source on demand.
func (s *StrategySource) ScanSource(ctx context.Context, name string, since *time.Time) (scanner.Result, error) {
	if s.registry == nil {
		return scanner.Result{}, fmt.Errorf("scanner registry is not configured")
	}
	return s.scan(ctx, name, scanner.Request{Since: since, RunID: uuid.NewString()})
}

// Sources returns the enabled source names in configured order.
func (s *StrategySource) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Reports returns the latest report of each source that ran.
func (s *StrategySource) Reports() map[string]scanner.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]scanner.Report, len(s.reports))
	for k, v := range s.reports {
		out[k] = v
	}
	return out
}

func (s *StrategySource) scan(ctx context.Context, name string, req scanner.Request) (scanner.Result, error) {
	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return scanner.Result{}, fmt.Errorf("source %s: %w", name, err)
	}

	result, err := strategy.Scan(ctx, req)
	for i := range result.Records {
		if result.Records[i].Source == "" {
			result.Records[i].Source = domain.Source(name)
		}
	}
	if result.Report.Source == "" {
		result.Report.Source = name
	}

	s.mu.Lock()
	s.reports[name] = result.Report
	s.mu.Unlock()

	if err != nil {
		return result, fmt.Errorf("scan source %s: %w", name, err)
	}
	s.debug("source produced articles", "run", req.RunID, "source", name, "count", len(result.Records))
	return result, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
