package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"FootballNews/internal/domain"
	"FootballNews/internal/ports"
)

const postedTable = "posted_news"

// SQLRepository keeps the posted-news log in Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PostedLog = (*SQLRepository)(nil)

// Open connects to driver ("postgres" or "sqlite") and returns the matching repository.
func Open(driver, dsn string) (*SQLRepository, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return NewSQLRepository(db, driver), nil
}

// NewSQLRepository wires a sql.DB implementation; driver picks the placeholder style.
func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		format = sq.Dollar
	}
	return &SQLRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Migrate creates the posted-news table when it does not exist.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + postedTable + ` (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			title_key TEXT NOT NULL,
			body TEXT NOT NULL,
			url TEXT NOT NULL,
			source TEXT NOT NULL,
			posted_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posted_news_title_key ON ` + postedTable + ` (title_key)`,
		`CREATE INDEX IF NOT EXISTS idx_posted_news_posted_at ON ` + postedTable + ` (posted_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seen reports whether a title with the same normalized key was posted.
func (r *SQLRepository) Seen(ctx context.Context, title string) (bool, error) {
	key := domain.TitleKey(title)
	if key == "" {
		return false, nil
	}

	query, args, err := r.builder.
		Select("COUNT(1)").
		From(postedTable).
		Where(sq.Eq{"title_key": key}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build seen query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("query seen: %w", err)
	}
	return n > 0, nil
}

// Recent returns entries posted at or after since, newest first.
func (r *SQLRepository) Recent(ctx context.Context, since time.Time) ([]domain.PostedEntry, error) {
	query, args, err := r.builder.
		Select("id", "title", "title_key", "body", "url", "source", "posted_at").
		From(postedTable).
		Where(sq.GtOrEq{"posted_at": since.UnixMilli()}).
		OrderBy("posted_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []domain.PostedEntry
	for rows.Next() {
		var (
			entry    domain.PostedEntry
			source   string
			postedAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.TitleKey, &entry.Text, &entry.URL, &source, &postedAt); err != nil {
			return nil, fmt.Errorf("scan posted entry: %w", err)
		}
		entry.Source = domain.Source(source)
		entry.PostedAt = time.UnixMilli(postedAt).UTC()
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Append inserts the entry; an existing id is left untouched.
func (r *SQLRepository) Append(ctx context.Context, entry domain.PostedEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("append posted entry: empty id")
	}
	if entry.TitleKey == "" {
		entry.TitleKey = domain.TitleKey(entry.Title)
	}

	query, args, err := r.builder.
		Insert(postedTable).
		Columns("id", "title", "title_key", "body", "url", "source", "posted_at").
		Values(entry.ID, entry.Title, entry.TitleKey, entry.Text, entry.URL, string(entry.Source), entry.PostedAt.UnixMilli()).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert posted entry: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}
