package storage

import (
	"context"
	"fmt"

	"github.com/vestnik/vestnik/pkg/archive"
)

// Compile-time check that the store advertises the archive capability.
var _ archive.Archiver = (*Store)(nil)

// itemMonth buckets items by publication month, falling back to the
// ingestion date for items without a usable publication date.
const itemMonth = "strftime('%Y-%m', COALESCE(datetime(n.published), datetime(n.added_at)))"

// ArchiveMonths lists calendar months with stored items, newest first.
func (s *Store) ArchiveMonths(ctx context.Context) ([]archive.MonthCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemMonth+` AS month, COUNT(*)
		FROM news n
		GROUP BY month
		HAVING month IS NOT NULL
		ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying archive months: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			fmt.Printf("Warning: failed to close rows: %v\n", err)
		}
	}()

	var months []archive.MonthCount
	for rows.Next() {
		var mc archive.MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("scanning month row: %w", err)
		}
		months = append(months, mc)
	}
	return months, rows.Err()
}

// ArchiveStats summarizes the archivable backlog.
func (s *Store) ArchiveStats(ctx context.Context) (archive.Stats, error) {
	var stats archive.Stats

	months, err := s.ArchiveMonths(ctx)
	if err != nil {
		return stats, err
	}

	stats.Months = len(months)
	for _, m := range months {
		stats.Total += m.Count
	}
	if len(months) > 0 {
		stats.Newest = months[0].Month
		stats.Oldest = months[len(months)-1].Month
	}
	return stats, nil
}

// ArchiveNow exports items older than the keep window to a compressed
// dump and deletes them from the live table. The dump is fully written
// and closed before any row is removed, so a failed export never loses
// data.
func (s *Store) ArchiveNow(ctx context.Context, opts archive.Options) (archive.Result, error) {
	var res archive.Result

	keep := opts.KeepMonths
	if keep <= 0 {
		keep = 6
	}
	cutoff := fmt.Sprintf("-%d months", keep)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM news n
		WHERE COALESCE(datetime(n.published), datetime(n.added_at)) < datetime('now', ?)
		ORDER BY n.id`, cutoff)
	if err != nil {
		return res, fmt.Errorf("selecting archivable items: %w", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return res, err
	}
	if len(items) == 0 {
		return res, nil
	}

	w, err := archive.NewWriter(opts.Dir)
	if err != nil {
		return res, err
	}
	for _, it := range items {
		if err := w.Write(it); err != nil {
			if cerr := w.Close(); cerr != nil {
				fmt.Printf("Warning: failed to close archive writer: %v\n", cerr)
			}
			return res, fmt.Errorf("writing archive record: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return res, err
	}
	res.Exported = len(items)
	res.File = w.Name()

	deleted, err := s.deleteItems(ctx, items)
	if err != nil {
		return res, err
	}
	res.Deleted = deleted

	s.logger.Infof("archived %d items to %s", res.Exported, res.File)
	return res, nil
}

func (s *Store) deleteItems(ctx context.Context, items []Item) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				fmt.Printf("Warning: failed to rollback transaction: %v\n", err)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM news WHERE id = ?")
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			fmt.Printf("Warning: failed to close statement: %v\n", err)
		}
	}()

	deleted := 0
	for _, it := range items {
		res, err := stmt.ExecContext(ctx, it.ID)
		if err != nil {
			return 0, fmt.Errorf("deleting item %d: %w", it.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	committed = true

	return deleted, nil
}
