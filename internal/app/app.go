package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"FootballNews/internal/config"
	"FootballNews/internal/domain"
	"FootballNews/internal/infrastructure/fetch"
	"FootballNews/internal/infrastructure/httpapi"
	"FootballNews/internal/infrastructure/llm"
	"FootballNews/internal/infrastructure/ml"
	"FootballNews/internal/infrastructure/parser"
	"FootballNews/internal/infrastructure/scheduler"
	"FootballNews/internal/infrastructure/storage"
	"FootballNews/internal/infrastructure/telegram"
	"FootballNews/internal/logging"
	"FootballNews/internal/ports"
	"FootballNews/internal/scanner"
	"FootballNews/internal/sources"
	"FootballNews/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	source    *parser.StrategySource
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	api       *httpapi.Server
	closers   []io.Closer
}

// New builds the application from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	loc := cfg.Scheduler.Location()

	registry := scanner.NewRegistry()
	var names []string
	for _, src := range cfg.EnabledSources() {
		site, err := sources.Build(src, cfg.Scraper, cfg.Scheduler.Timezone)
		if err != nil {
			return nil, err
		}
		log := baseLogger.With("component", "scanner")
		fetcher := fetch.NewCollyFetcher(site.Headers, site.Timeout, fetch.WithLogger(log.With("source", site.Name)))
		registry.Register(parser.NewSiteScanner(site, fetcher, log))
		names = append(names, site.Name)
	}
	if len(names) == 0 {
		return nil, errors.New("no sources enabled")
	}

	app := &Application{cfg: cfg, logger: baseLogger}
	app.source = parser.NewStrategySource(registry, names, baseLogger.With("component", "source"))

	posted, err := app.openPostedLog()
	if err != nil {
		return nil, err
	}

	var translator ports.Translator
	if client := llm.NewChatGPTClient(cfg.ChatGPT); client.Available() {
		translator = client
	} else {
		baseLogger.Info("translation disabled, posting original text")
	}

	var summarizer ports.Summarizer
	if client := ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey); client != nil {
		summarizer = client
	}

	var notifier ports.Notifier
	tg := cfg.Notifications.Telegram
	if tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.APIURL, tg.BotToken, tg.ChatID)
	} else {
		baseLogger.Warn("telegram is not configured, articles are only logged")
		notifier = logNotifier{logger: baseLogger.With("component", "dry-run")}
	}

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:      app.source,
		PostedLog:   posted,
		Translator:  translator,
		Summarizer:  summarizer,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
		DedupWindow: cfg.Dedup.Window,
		Similarity:  cfg.Dedup.Similarity,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, loc, baseLogger.With("component", "cron"))
	app.scheduler = usecase.NewScheduler(driver, app.pipeline, usecase.Window{
		Location:      loc,
		WorkStartHour: cfg.Scheduler.WorkStartHour,
		WorkEndHour:   cfg.Scheduler.WorkEndHour,
		PollWindow:    cfg.Scheduler.PollWindow,
		CatchUpWindow: cfg.Scheduler.CatchUpWindow,
	}, baseLogger.With("component", "scheduler"))

	if cfg.HTTP.Addr != "" {
		router := httpapi.NewRouter(app.source, baseLogger.With("component", "httpapi"))
		app.api = httpapi.NewServer(cfg.HTTP.Addr, router, baseLogger.With("component", "httpapi"))
	}

	return app, nil
}

func (a *Application) openPostedLog() (ports.PostedLog, error) {
	db := a.cfg.Database
	switch db.Driver {
	case "postgres", "sqlite":
		repo, err := storage.Open(db.Driver, db.DSN)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("posted log: %w", err)
		}
		a.closers = append(a.closers, repo)
		return repo, nil
	case "redis":
		retention := 7 * 24 * time.Hour
		if a.cfg.Dedup.Window > retention {
			retention = a.cfg.Dedup.Window
		}
		repo, err := storage.NewRedisRepository(db.RedisAddr, db.RedisDB, retention)
		if err != nil {
			return nil, fmt.Errorf("posted log: %w", err)
		}
		a.closers = append(a.closers, repo)
		return repo, nil
	case "", "none":
		a.logger.Warn("posted log disabled, duplicates are detected within one run only")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", db.Driver)
	}
}

// RunOnce executes a single poll looking back the catch-up window.
func (a *Application) RunOnce(ctx context.Context) error {
	defer a.close()

	now := time.Now().In(a.cfg.Scheduler.Location())
	since := now.Add(-a.cfg.Scheduler.CatchUpWindow)
	_, err := a.pipeline.Run(ctx, &since)
	return err
}

// Run starts the scheduler and the ops API and blocks until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if a.api != nil {
		a.api.Start()
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Timezone,
		"sources", a.source.Sources())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.api != nil {
		if err := a.api.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop ops api: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *Application) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}

// logNotifier stands in for Telegram when no bot is configured.
type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) PublishArticle(_ context.Context, article domain.ArticleRecord) error {
	n.logger.Info("article", "source", article.Source, "title", article.Title, "url", article.URL, "image", article.ImageURL)
	return nil
}
