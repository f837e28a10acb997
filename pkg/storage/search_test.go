package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/vestnik/vestnik/pkg/query"
)

func seedSearchItems(t *testing.T, store *Store) {
	t.Helper()

	items := []Item{
		{Source: "lenta", Title: "Go release announced", Link: "https://example.com/1",
			Published: "2026-01-01 10:00:00", Summary: "The Go team ships a new version."},
		{Source: "lenta", Title: "Rust release announced", Link: "https://example.com/2",
			Published: "2026-01-02 10:00:00", Summary: "Another language, another release."},
		{Source: "meduza", Title: "Climate summit opens", Link: "https://example.com/3",
			Published: "2026-01-03 10:00:00", Summary: "Leaders gather for the climate summit."},
		{Source: "meduza", Title: "Climate change debated at the summit", Link: "https://example.com/4",
			Published: "2026-01-04 10:00:00", Summary: "No agreement reached."},
	}
	if _, err := store.InsertMany(context.Background(), items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
}

func TestIndexSearch(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)
	ctx := context.Background()

	items, total, err := store.IndexSearch(ctx, "release", 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	// Pages come back newest row first.
	if items[0].Title != "Rust release announced" {
		t.Errorf("items[0].Title = %q, want the later row first", items[0].Title)
	}
}

func TestIndexSearchPhrase(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)

	items, total, err := store.IndexSearch(context.Background(), `"climate summit"`, 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(items) != 1 || items[0].Title != "Climate summit opens" {
		t.Errorf("phrase matched %+v, want only the adjacent-words item", items)
	}
}

func TestIndexSearchPagination(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var items []Item
	for i := 1; i <= 5; i++ {
		items = append(items, Item{
			Source: "lenta",
			Title:  fmt.Sprintf("budget news %d", i),
			Link:   fmt.Sprintf("https://example.com/%d", i),
		})
	}
	if _, err := store.InsertMany(ctx, items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	var seen []string
	for offset := 0; offset < 6; offset += 2 {
		page, total, err := store.IndexSearch(ctx, "budget", 2, offset)
		if err != nil {
			t.Fatalf("IndexSearch offset %d: %v", offset, err)
		}
		if total != 5 {
			t.Errorf("offset %d: total = %d, want 5", offset, total)
		}
		for _, it := range page {
			seen = append(seen, it.Title)
		}
	}

	want := []string{"budget news 5", "budget news 4", "budget news 3", "budget news 2", "budget news 1"}
	if len(seen) != len(want) {
		t.Fatalf("paginated over %d items, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
}

func TestSubstringSearch(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)
	ctx := context.Background()

	pred := query.Predicate{
		SQL:  "(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)",
		Args: []any{"%climate%", "%climate%"},
	}
	items, total, err := store.SubstringSearch(ctx, pred, 10, 0)
	if err != nil {
		t.Fatalf("SubstringSearch: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	// Substrings match inside words, unlike the token-based index.
	pred = query.Predicate{
		SQL:  "(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)",
		Args: []any{"%announc%", "%announc%"},
	}
	_, total, err = store.SubstringSearch(ctx, pred, 10, 0)
	if err != nil {
		t.Fatalf("SubstringSearch: %v", err)
	}
	if total != 2 {
		t.Errorf("partial-word total = %d, want 2", total)
	}
}

func TestSubstringSearchWithNegation(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)

	pred := query.Predicate{
		SQL: "(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?) " +
			"AND NOT (LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)",
		Args: []any{"%release%", "%release%", "%rust%", "%rust%"},
	}
	items, total, err := store.SubstringSearch(context.Background(), pred, 10, 0)
	if err != nil {
		t.Fatalf("SubstringSearch: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(items) != 1 || items[0].Title != "Go release announced" {
		t.Errorf("items = %+v, want only the Go story", items)
	}
}

func TestSubstringSearchFromParsedQuery(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)

	node, ok := query.Parse("climate -debated")
	if !ok {
		t.Fatal("Parse returned no query")
	}
	items, total, err := store.SubstringSearch(context.Background(), query.BuildFallback(node), 10, 0)
	if err != nil {
		t.Fatalf("SubstringSearch: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(items) != 1 || items[0].Title != "Climate summit opens" {
		t.Errorf("items = %+v, want only the summit story", items)
	}
}

func TestMaintenanceOperations(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)

	if err := store.Optimize(); err != nil {
		t.Errorf("Optimize: %v", err)
	}
	if err := store.Analyze(); err != nil {
		t.Errorf("Analyze: %v", err)
	}
	if err := store.WALCheckpoint(); err != nil {
		t.Errorf("WALCheckpoint: %v", err)
	}
	if err := store.Vacuum(); err != nil {
		t.Errorf("Vacuum: %v", err)
	}

	// The data must survive all of it.
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("Count = %d after maintenance, want 4", n)
	}
}

func TestRebuildFTS(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)
	ctx := context.Background()

	mode, err := store.RebuildFTS(ctx)
	if err != nil {
		t.Fatalf("RebuildFTS: %v", err)
	}
	if mode != "rebuild" {
		t.Errorf("mode = %q, want %q", mode, "rebuild")
	}

	_, total, err := store.IndexSearch(ctx, "climate", 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch after rebuild: %v", err)
	}
	if total != 2 {
		t.Errorf("total after rebuild = %d, want 2", total)
	}

	// The sync triggers must survive a rebuild.
	_, err = store.InsertMany(ctx, []Item{{
		Source: "tass", Title: "Chess tournament begins", Link: "https://example.com/chess",
	}})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	_, total, err = store.IndexSearch(ctx, "chess", 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch: %v", err)
	}
	if total != 1 {
		t.Errorf("new item not indexed after rebuild: total = %d, want 1", total)
	}
}

func TestIndexStaysInSyncAfterDelete(t *testing.T) {
	store := testStore(t)
	seedSearchItems(t, store)
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx, "DELETE FROM news WHERE title LIKE 'Climate%'"); err != nil {
		t.Fatalf("deleting rows: %v", err)
	}

	_, total, err := store.IndexSearch(ctx, "climate", 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, want 0 after delete", total)
	}
}
