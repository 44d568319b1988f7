// Package httpapi exposes the operations API: health, configured sources and
// an on-demand preview scan of one source.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"FootballNews/internal/logging"
	"FootballNews/internal/scanner"
)

// SourceScanner is the part of the article source the API drives.
type SourceScanner interface {
	Sources() []string
	Reports() map[string]scanner.Report
	ScanSource(ctx context.Context, name string, since *time.Time) (scanner.Result, error)
}

type envelope map[string]any

type api struct {
	sources SourceScanner
	logger  *slog.Logger
	now     func() time.Time
}

// NewRouter builds the chi router.
func NewRouter(sources SourceScanner, log *slog.Logger) http.Handler {
	if log == nil {
		log = logging.Discard()
	}
	a := &api{sources: sources, logger: log, now: time.Now}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)

	mux.Get("/healthz", a.healthcheckHandler)
	mux.Route("/api", func(r chi.Router) {
		r.Get("/sources", a.listSourcesHandler)
		r.Get("/sources/{name}/latest", a.latestHandler)
	})

	return mux
}

// Server wraps http.Server with context-aware shutdown.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer listens on addr once Start is called.
func NewServer(addr string, handler http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("ops api listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops api stopped", "error", err)
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (a *api) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

func (a *api) listSourcesHandler(w http.ResponseWriter, r *http.Request) {
	reports := a.sources.Reports()
	type item struct {
		Name   string          `json:"name"`
		Report *scanner.Report `json:"lastReport,omitempty"`
	}
	out := make([]item, 0)
	for _, name := range a.sources.Sources() {
		it := item{Name: name}
		if rep, ok := reports[name]; ok {
			it.Report = &rep
		}
		out = append(out, it)
	}
	a.writeJSON(w, http.StatusOK, envelope{"sources": out})
}

func (a *api) latestHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !slices.Contains(a.sources.Sources(), name) {
		a.errorResponse(w, http.StatusNotFound, "unknown source "+name)
		return
	}

	since, err := parseSince(r.URL.Query().Get("since"), a.now())
	if err != nil {
		a.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.sources.ScanSource(r.Context(), name, since)
	if err != nil {
		a.logger.Warn("preview scan failed", "source", name, "error", err)
		a.writeJSON(w, http.StatusBadGateway, envelope{"error": err.Error(), "report": result.Report})
		return
	}
	a.writeJSON(w, http.StatusOK, envelope{"records": result.Records, "report": result.Report})
}

// parseSince accepts an RFC 3339 timestamp or a look-back duration ("2h").
func parseSince(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return nil, errors.New("since must be an RFC 3339 time or a positive duration")
	}
	t := now.Add(-d)
	return &t, nil
}

func (a *api) writeJSON(w http.ResponseWriter, status int, data envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("write response", "error", err)
	}
}

func (a *api) errorResponse(w http.ResponseWriter, status int, msg string) {
	a.writeJSON(w, status, envelope{"error": msg})
}
