package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/vestnik/vestnik/pkg/archive"
)

const dbTimeLayout = "2006-01-02 15:04:05"

func TestArchiveMonths(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(-2, 0, 0)
	recent := time.Now().UTC().AddDate(0, 0, -1)

	items := []Item{
		{Source: "lenta", Title: "old one", Link: "https://example.com/1", Published: old.Format(dbTimeLayout)},
		{Source: "lenta", Title: "old two", Link: "https://example.com/2", Published: old.Format(dbTimeLayout)},
		{Source: "lenta", Title: "fresh", Link: "https://example.com/3", Published: recent.Format(dbTimeLayout)},
	}
	if _, err := store.InsertMany(ctx, items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	months, err := store.ArchiveMonths(ctx)
	if err != nil {
		t.Fatalf("ArchiveMonths: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2: %+v", len(months), months)
	}
	if months[0].Month != recent.Format("2006-01") || months[0].Count != 1 {
		t.Errorf("months[0] = %+v, want %s with 1", months[0], recent.Format("2006-01"))
	}
	if months[1].Month != old.Format("2006-01") || months[1].Count != 2 {
		t.Errorf("months[1] = %+v, want %s with 2", months[1], old.Format("2006-01"))
	}
}

func TestArchiveStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(-1, 0, 0)
	recent := time.Now().UTC().AddDate(0, 0, -1)

	items := []Item{
		{Source: "lenta", Title: "a", Link: "https://example.com/a", Published: old.Format(dbTimeLayout)},
		{Source: "lenta", Title: "b", Link: "https://example.com/b", Published: recent.Format(dbTimeLayout)},
	}
	if _, err := store.InsertMany(ctx, items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	stats, err := store.ArchiveStats(ctx)
	if err != nil {
		t.Fatalf("ArchiveStats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Months != 2 {
		t.Errorf("Months = %d, want 2", stats.Months)
	}
	if stats.Oldest != old.Format("2006-01") {
		t.Errorf("Oldest = %q, want %q", stats.Oldest, old.Format("2006-01"))
	}
	if stats.Newest != recent.Format("2006-01") {
		t.Errorf("Newest = %q, want %q", stats.Newest, recent.Format("2006-01"))
	}
}

func TestArchiveNow(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	old := time.Now().UTC().AddDate(-2, 0, 0)
	recent := time.Now().UTC().AddDate(0, 0, -1)

	items := []Item{
		{Source: "lenta", Title: "ancient one", Link: "https://example.com/1", Published: old.Format(dbTimeLayout)},
		{Source: "lenta", Title: "ancient two", Link: "https://example.com/2", Published: old.Format(dbTimeLayout)},
		{Source: "meduza", Title: "fresh story", Link: "https://example.com/3", Published: recent.Format(dbTimeLayout)},
	}
	if _, err := store.InsertMany(ctx, items); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	res, err := store.ArchiveNow(ctx, archive.Options{Dir: dir, KeepMonths: 6})
	if err != nil {
		t.Fatalf("ArchiveNow: %v", err)
	}
	if res.Exported != 2 || res.Deleted != 2 {
		t.Errorf("result = %+v, want 2 exported and 2 deleted", res)
	}
	if res.File == "" {
		t.Fatal("result has no dump file")
	}

	// The live table keeps only the recent item, and the index follows.
	total, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if total != 1 {
		t.Errorf("Count = %d, want 1", total)
	}
	_, matches, err := store.IndexSearch(ctx, "ancient", 10, 0)
	if err != nil {
		t.Fatalf("IndexSearch: %v", err)
	}
	if matches != 0 {
		t.Errorf("archived items still indexed: %d matches", matches)
	}

	// The dump holds exactly the removed items.
	f, err := os.Open(res.File)
	if err != nil {
		t.Fatalf("opening dump: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			t.Errorf("closing dump: %v", err)
		}
	}()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}

	dec := json.NewDecoder(gz)
	var dumped []Item
	for {
		var it Item
		if err := dec.Decode(&it); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decoding dump: %v", err)
		}
		dumped = append(dumped, it)
	}
	if len(dumped) != 2 {
		t.Fatalf("dump has %d items, want 2", len(dumped))
	}
	for _, it := range dumped {
		if it.Source != "lenta" {
			t.Errorf("dumped item %+v, want only the old lenta items", it)
		}
	}
}

func TestArchiveNowNothingToDo(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	recent := time.Now().UTC().AddDate(0, 0, -1)
	_, err := store.InsertMany(ctx, []Item{
		{Source: "lenta", Title: "fresh", Link: "https://example.com/1", Published: recent.Format(dbTimeLayout)},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	res, err := store.ArchiveNow(ctx, archive.Options{Dir: dir, KeepMonths: 6})
	if err != nil {
		t.Fatalf("ArchiveNow: %v", err)
	}
	if res.Exported != 0 || res.Deleted != 0 || res.File != "" {
		t.Errorf("result = %+v, want an empty run", res)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("empty run created %d files in the dump directory", len(entries))
	}
}
