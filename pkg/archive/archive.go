// Package archive defines the cold-storage capability: exporting old
// news items to compressed dumps and pruning them from the live
// database. Stores advertise the capability by implementing Archiver;
// callers discover it with a type assertion.
package archive

import "context"

// MonthCount is the number of stored items that fall into one calendar
// month (YYYY-MM), based on the publication date when present and the
// ingestion date otherwise.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Stats summarizes the archivable backlog of a store.
type Stats struct {
	Total  int    `json:"total"`
	Months int    `json:"months"`
	Oldest string `json:"oldest,omitempty"`
	Newest string `json:"newest,omitempty"`
}

// Options control one archive run.
type Options struct {
	// Dir is the directory dump files are written to.
	Dir string
	// KeepMonths is how many trailing months stay in the live
	// database. Items older than the cutoff are exported and removed.
	KeepMonths int
}

// Result reports one completed archive run.
type Result struct {
	Exported int    `json:"exported"`
	Deleted  int    `json:"deleted"`
	File     string `json:"file,omitempty"`
}

// Archiver is implemented by stores that can export and prune old
// items.
type Archiver interface {
	ArchiveMonths(ctx context.Context) ([]MonthCount, error)
	ArchiveStats(ctx context.Context) (Stats, error)
	ArchiveNow(ctx context.Context, opts Options) (Result, error)
}
