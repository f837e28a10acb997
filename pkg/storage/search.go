package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vestnik/vestnik/pkg/query"
)

// ErrNoFTS is returned by index operations when the SQLite build has
// no FTS5 support.
var ErrNoFTS = errors.New("full-text index unavailable")

// FTSAvailable reports whether the FTS5 index can be queried.
func (s *Store) FTSAvailable() bool {
	return s.fts
}

// IndexSearch runs a compiled MATCH expression against the FTS5 index
// and returns one page of items newest first, plus the total match
// count before pagination.
func (s *Store) IndexSearch(ctx context.Context, matchExpr string, limit, offset int) ([]Item, int, error) {
	if !s.fts {
		return nil, 0, ErrNoFTS
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM news_fts WHERE news_fts MATCH ?", matchExpr).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting index matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news_fts
		JOIN news n ON n.id = news_fts.rowid
		WHERE news_fts MATCH ?
		ORDER BY n.id DESC
		LIMIT ? OFFSET ?`, matchExpr, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying index: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SubstringSearch runs a compiled LIKE predicate directly against the
// news table. It works regardless of FTS availability and honors
// negations inside the predicate itself.
func (s *Store) SubstringSearch(ctx context.Context, pred query.Predicate, limit, offset int) ([]Item, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM news n WHERE "+pred.SQL, pred.Args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting substring matches: %w", err)
	}

	args := make([]any, 0, len(pred.Args)+2)
	args = append(args, pred.Args...)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		WHERE `+pred.SQL+`
		ORDER BY n.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying substrings: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RebuildFTS reindexes the search index from the news table. It first
// asks FTS5 for an in-place rebuild; when that fails (typically after
// index corruption) it recreates the index table from scratch and
// reattaches the sync triggers. Returns the mode used, "rebuild" or
// "full".
func (s *Store) RebuildFTS(ctx context.Context) (string, error) {
	if !s.fts {
		return "", ErrNoFTS
	}

	_, err := s.db.ExecContext(ctx, "INSERT INTO news_fts(news_fts) VALUES('rebuild')")
	if err == nil {
		return "rebuild", nil
	}
	s.logger.Warnf("soft rebuild failed, recreating index: %v", err)

	stmts := []string{
		"DROP TABLE IF EXISTS news_fts_new",
		`CREATE VIRTUAL TABLE news_fts_new USING fts5(
			title,
			summary,
			content='news',
			content_rowid='id'
		)`,
		"INSERT INTO news_fts_new(rowid, title, summary) SELECT id, title, summary FROM news",
		"DROP TRIGGER IF EXISTS news_ai",
		"DROP TRIGGER IF EXISTS news_ad",
		"DROP TRIGGER IF EXISTS news_au",
		"ALTER TABLE news_fts RENAME TO news_fts_old",
		"ALTER TABLE news_fts_new RENAME TO news_fts",
		ftsTriggers,
		"DROP TABLE news_fts_old",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return "", fmt.Errorf("rebuilding search index: %w", err)
		}
	}

	return "full", nil
}

func (s *Store) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

func (s *Store) Analyze() error {
	_, err := s.db.Exec("ANALYZE")
	return err
}

func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

func (s *Store) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}
