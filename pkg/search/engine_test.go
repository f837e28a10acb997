package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vestnik/vestnik/pkg/query"
	"github.com/vestnik/vestnik/pkg/storage"
)

// countingStore wraps a real store and counts which search paths the
// engine takes.
type countingStore struct {
	*storage.Store
	indexCalls     int
	substringCalls int
}

func (c *countingStore) IndexSearch(ctx context.Context, matchExpr string, limit, offset int) ([]storage.Item, int, error) {
	c.indexCalls++
	return c.Store.IndexSearch(ctx, matchExpr, limit, offset)
}

func (c *countingStore) SubstringSearch(ctx context.Context, pred query.Predicate, limit, offset int) ([]storage.Item, int, error) {
	c.substringCalls++
	return c.Store.SubstringSearch(ctx, pred, limit, offset)
}

func newTestEngine(t *testing.T) (*Engine, *countingStore) {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "news.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("closing store: %v", err)
		}
	})

	items := []storage.Item{
		{Source: "lenta", Title: "Climate summit opens", Link: "https://example.com/1",
			Published: "2026-01-01 10:00:00", Summary: "Leaders gather to talk."},
		{Source: "lenta", Title: "Climate deal debated", Link: "https://example.com/2",
			Published: "2026-01-02 10:00:00", Summary: "No agreement yet."},
		{Source: "meduza", Title: "Мировой кризис углубляется", Link: "https://example.com/3",
			Published: "2026-01-03 10:00:00", Summary: "Экономика под давлением."},
		{Source: "meduza", Title: "Мировой кризис и новые санкции", Link: "https://example.com/4",
			Published: "2026-01-04 10:00:00", Summary: "Подробности дня."},
		{Source: "tass", Title: "Chess tournament", Link: "https://example.com/5",
			Published: "2026-01-05 10:00:00", Summary: "An opening surprise."},
	}
	if _, err := store.InsertMany(context.Background(), items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	counting := &countingStore{Store: store}
	return New(counting), counting
}

func TestSearchBlankQuery(t *testing.T) {
	engine, store := newTestEngine(t)

	for _, raw := range []string{"", "   ", "\t\n"} {
		res, err := engine.Search(context.Background(), raw, 10, 0)
		if err != nil {
			t.Fatalf("Search(%q): %v", raw, err)
		}
		if len(res.Items) != 0 || res.Total != 0 {
			t.Errorf("Search(%q) = %+v, want empty result", raw, res)
		}
	}
	if store.indexCalls != 0 || store.substringCalls != 0 {
		t.Errorf("blank queries hit storage: index %d, substring %d", store.indexCalls, store.substringCalls)
	}
}

func TestSearchUnparsableQuery(t *testing.T) {
	engine, store := newTestEngine(t)

	res, err := engine.Search(context.Background(), "AND OR NOT", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 0 {
		t.Errorf("got %+v, want empty result", res)
	}
	if store.indexCalls != 0 || store.substringCalls != 0 {
		t.Errorf("operator-only query hit storage: index %d, substring %d", store.indexCalls, store.substringCalls)
	}
}

func TestSearchIndexPath(t *testing.T) {
	engine, store := newTestEngine(t)

	res, err := engine.Search(context.Background(), "climate", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(res.Items))
	}
	if store.indexCalls != 1 || store.substringCalls != 0 {
		t.Errorf("calls: index %d substring %d, want 1 and 0", store.indexCalls, store.substringCalls)
	}
}

func TestSearchNegationFiltersPage(t *testing.T) {
	engine, _ := newTestEngine(t)

	res, err := engine.Search(context.Background(), `"мировой кризис" -санкции`, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
	if res.Items[0].Title != "Мировой кризис углубляется" {
		t.Errorf("kept %q, want the item without the negated word", res.Items[0].Title)
	}
}

func TestSearchNegativeOnlySkipsIndex(t *testing.T) {
	engine, store := newTestEngine(t)

	res, err := engine.Search(context.Background(), "-climate", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.indexCalls != 0 {
		t.Errorf("index path used %d times, want 0", store.indexCalls)
	}
	if store.substringCalls != 1 {
		t.Errorf("substring path used %d times, want 1", store.substringCalls)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want the 3 non-climate items", res.Total)
	}
	for _, it := range res.Items {
		if it.Source == "lenta" {
			t.Errorf("negated item %q slipped through", it.Title)
		}
	}
}

func TestSearchFallsBackOnEmptyIndexPage(t *testing.T) {
	engine, store := newTestEngine(t)

	// The index matches whole tokens only, so a word fragment misses;
	// the substring scan still finds it.
	res, err := engine.Search(context.Background(), "climat", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.indexCalls != 1 || store.substringCalls != 1 {
		t.Errorf("calls: index %d substring %d, want 1 and 1", store.indexCalls, store.substringCalls)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
}

func TestSearchFallsBackWhenFilterEmptiesPage(t *testing.T) {
	engine, store := newTestEngine(t)

	// Every index hit contains the negated word, so the filtered page
	// is empty and the substring scan recounts; it excludes them too.
	res, err := engine.Search(context.Background(), "climate -climate", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.substringCalls != 1 {
		t.Errorf("substring path used %d times, want 1", store.substringCalls)
	}
	if len(res.Items) != 0 || res.Total != 0 {
		t.Errorf("got %+v, want empty result", res)
	}
}

func TestSearchFallsBackOnBadMatchSyntax(t *testing.T) {
	engine, store := newTestEngine(t)

	if _, err := store.Store.InsertMany(context.Background(), []storage.Item{
		{Source: "tass", Title: "Why c++ endures", Link: "https://example.com/cpp",
			Summary: "A column about the language."},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	// FTS5 rejects the compiled MATCH expression outright; the scan
	// answers instead of surfacing the syntax error, and LIKE treats
	// the symbols literally.
	res, err := engine.Search(context.Background(), "c++", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.indexCalls != 1 || store.substringCalls != 1 {
		t.Errorf("calls: index %d substring %d, want 1 and 1", store.indexCalls, store.substringCalls)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Fatalf("got %+v, want the single c++ item", res)
	}
	if res.Items[0].Title != "Why c++ endures" {
		t.Errorf("matched %q", res.Items[0].Title)
	}
}

func TestSearchBadMatchSyntaxNeverErrors(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, raw := range []string{"a -", "summit («", "(unbalanced"} {
		if _, err := engine.Search(context.Background(), raw, 10, 0); err != nil {
			t.Errorf("Search(%q): %v, want a result or an empty page", raw, err)
		}
	}
}

func TestSearchOffsetBeyondTotal(t *testing.T) {
	engine, _ := newTestEngine(t)

	res, err := engine.Search(context.Background(), "climate", 10, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("got %d items, want none beyond the last page", len(res.Items))
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2", res.Total)
	}
}

func TestSearchPhraseQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	res, err := engine.Search(context.Background(), `"climate summit"`, 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
	if len(res.Items) != 1 || res.Items[0].Title != "Climate summit opens" {
		t.Errorf("items = %+v, want only the adjacent-words item", res.Items)
	}
}

func TestSearchCompoundQuery(t *testing.T) {
	engine, store := newTestEngine(t)

	_, err := store.Store.InsertMany(context.Background(), []storage.Item{
		{Source: "tass", Title: "F-16 deliveries announced", Link: "https://example.com/f16",
			Summary: "The first F 16 batch arrives."},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	res, err := engine.Search(context.Background(), "F-16", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || len(res.Items) != 1 {
		t.Fatalf("got %+v, want exactly one match", res)
	}
	if res.Items[0].Title != "F-16 deliveries announced" {
		t.Errorf("matched %q", res.Items[0].Title)
	}
}
