// Package storage persists news items in SQLite and serves the two
// query paths used by search: the FTS5 index and a LIKE-based substring
// scan. When the SQLite build lacks FTS5 the store degrades to
// substring search only instead of failing.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/vestnik/vestnik/pkg/log"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS news (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    title TEXT NOT NULL,
    link TEXT NOT NULL,
    published TEXT,
    summary TEXT,
    hash TEXT NOT NULL UNIQUE,
    added_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_news_published ON news(published);
CREATE INDEX IF NOT EXISTS idx_news_source ON news(source);
`

const ftsTable = `
CREATE VIRTUAL TABLE IF NOT EXISTS news_fts USING fts5(
    title,
    summary,
    content='news',
    content_rowid='id'
);
`

const ftsTriggers = `
CREATE TRIGGER IF NOT EXISTS news_ai AFTER INSERT ON news BEGIN
  INSERT INTO news_fts(rowid, title, summary) VALUES (new.id, new.title, new.summary);
END;
CREATE TRIGGER IF NOT EXISTS news_ad AFTER DELETE ON news BEGIN
  INSERT INTO news_fts(news_fts, rowid, title, summary) VALUES ('delete', old.id, old.title, old.summary);
END;
CREATE TRIGGER IF NOT EXISTS news_au AFTER UPDATE ON news BEGIN
  INSERT INTO news_fts(news_fts, rowid, title, summary) VALUES ('delete', old.id, old.title, old.summary);
  INSERT INTO news_fts(rowid, title, summary) VALUES (new.id, new.title, new.summary);
END;
`

// Item is one stored news entry. Source, title, link and summary are
// opaque text; published and id are used only for ordering.
type Item struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Summary   string `json:"summary,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
}

// SourceCount is the per-source summary used by source listings.
type SourceCount struct {
	Source          string `json:"source"`
	Count           int    `json:"count"`
	LatestPublished string `json:"latest_published,omitempty"`
}

// Stats summarizes the store contents.
type Stats struct {
	Total        int           `json:"total"`
	FTSAvailable bool          `json:"fts_available"`
	OldestAdded  string        `json:"oldest_added,omitempty"`
	NewestAdded  string        `json:"newest_added,omitempty"`
	Sources      []SourceCount `json:"sources,omitempty"`
}

type Store struct {
	db     *sql.DB
	path   string
	fts    bool
	logger *log.Logger
}

const itemColumns = "n.id, n.source, n.title, n.link, n.published, n.summary, n.added_at"

// Open opens or creates the database at path, applies performance
// pragmas and ensures the schema. The FTS5 index and its sync triggers
// are created when the SQLite build supports them; otherwise the store
// stays usable with substring search only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Apply performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = memory",
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA optimize",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(baseSchema); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: log.ForService("storage"),
	}

	if _, err := db.Exec(ftsTable + ftsTriggers); err != nil {
		if !isFTSUnavailable(err) {
			closeQuietly(db)
			return nil, fmt.Errorf("creating search index: %w", err)
		}
		s.logger.Warnf("FTS5 unavailable, falling back to substring search: %v", err)
	} else if err := db.QueryRow("SELECT count(*) FROM news_fts").Scan(new(int)); err != nil {
		s.logger.Warnf("search index probe failed, falling back to substring search: %v", err)
	} else {
		s.fts = true
	}

	return s, nil
}

func isFTSUnavailable(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "fts5")
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		fmt.Printf("Warning: failed to close database: %v\n", err)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// ItemHash derives the dedupe key for an item. Title case changes do
// not produce a new key.
func ItemHash(title, link string) string {
	payload := strings.ToLower(strings.TrimSpace(title)) + "\n" + strings.TrimSpace(link)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// InsertMany stores items and returns the ones that were actually new,
// with their assigned ids. Items whose hash already exists are skipped
// silently.
func (s *Store) InsertMany(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				fmt.Printf("Warning: failed to rollback transaction: %v\n", err)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO news (source, title, link, published, summary, hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			fmt.Printf("Warning: failed to close statement: %v\n", err)
		}
	}()

	var inserted []Item
	for _, it := range items {
		res, err := stmt.ExecContext(ctx,
			it.Source, it.Title, it.Link,
			nullable(it.Published), nullable(it.Summary),
			ItemHash(it.Title, it.Link))
		if err != nil {
			return nil, fmt.Errorf("inserting item %q: %w", it.Title, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("reading rows affected: %w", err)
		}
		if n == 0 {
			continue
		}
		if id, err := res.LastInsertId(); err == nil {
			it.ID = id
		}
		inserted = append(inserted, it)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	committed = true

	return inserted, nil
}

// Latest returns the newest items by publication date.
func (s *Store) Latest(ctx context.Context, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		ORDER BY datetime(n.published) DESC, n.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest items: %w", err)
	}
	return scanItems(rows)
}

// RecentAdditions returns the most recently stored items in insertion
// order, newest first. Unlike Latest this ignores publication dates, so
// a backfilled old article still shows up as a recent addition.
func (s *Store) RecentAdditions(ctx context.Context, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		ORDER BY n.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent additions: %w", err)
	}
	return scanItems(rows)
}

// LatestPage returns one page of the newest items plus the total count.
func (s *Store) LatestPage(ctx context.Context, limit, offset int) ([]Item, int, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		ORDER BY datetime(n.published) DESC, n.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying latest page: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SourceNews returns one page of a single source's items plus that
// source's total count. Source matching is case-insensitive.
func (s *Store) SourceNews(ctx context.Context, source string, limit, offset int) ([]Item, int, error) {
	total, err := s.TotalBySource(ctx, source)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		WHERE LOWER(n.source) = LOWER(?)
		ORDER BY datetime(n.published) DESC, n.id DESC
		LIMIT ? OFFSET ?`, source, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying source %q: %w", source, err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Sources lists all sources with item counts and the newest publication
// date each, busiest first.
func (s *Store) Sources(ctx context.Context) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, COUNT(*), MAX(datetime(published))
		FROM news
		GROUP BY source
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: failed to close rows: %v\n", err)
		}
	}()

	var sources []SourceCount
	for rows.Next() {
		var sc SourceCount
		var latest sql.NullString
		if err := rows.Scan(&sc.Source, &sc.Count, &latest); err != nil {
			return nil, fmt.Errorf("scanning source row: %w", err)
		}
		sc.LatestPublished = latest.String
		sources = append(sources, sc)
	}
	return sources, rows.Err()
}

// Count returns the total number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&total); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return total, nil
}

// TotalBySource returns how many items a source has. Matching is
// case-insensitive.
func (s *Store) TotalBySource(ctx context.Context, source string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM news WHERE LOWER(source) = LOWER(?)", source).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("counting items for source %q: %w", source, err)
	}
	return total, nil
}

// GetStats returns totals, the ingestion date range and the per-source
// breakdown.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{FTSAvailable: s.fts}

	total, err := s.Count(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = total

	var oldest, newest sql.NullString
	err = s.db.QueryRowContext(ctx, "SELECT MIN(added_at), MAX(added_at) FROM news").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("getting item date range: %w", err)
	}
	if oldest.Valid {
		stats.OldestAdded = oldest.String
	}
	if newest.Valid {
		stats.NewestAdded = newest.String
	}

	sources, err := s.Sources(ctx)
	if err != nil {
		return stats, err
	}
	stats.Sources = sources

	return stats, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: failed to close rows: %v\n", err)
		}
	}()

	var items []Item
	for rows.Next() {
		var it Item
		var published, summary, addedAt sql.NullString

		if err := rows.Scan(&it.ID, &it.Source, &it.Title, &it.Link, &published, &summary, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}

		it.Published = published.String
		it.Summary = summary.String
		it.AddedAt = addedAt.String
		items = append(items, it)
	}

	return items, rows.Err()
}
