// Package search runs parsed queries against the store, choosing
// between the full-text index and the substring scan. The index path
// is preferred; negated terms are filtered out of each page after the
// index query, and an empty page falls through to the substring scan,
// which applies negations in SQL and recounts authoritatively.
package search

import (
	"context"
	"strings"

	"github.com/vestnik/vestnik/pkg/log"
	"github.com/vestnik/vestnik/pkg/query"
	"github.com/vestnik/vestnik/pkg/storage"
)

// Storage is the slice of the store the engine needs.
type Storage interface {
	FTSAvailable() bool
	IndexSearch(ctx context.Context, matchExpr string, limit, offset int) ([]storage.Item, int, error)
	SubstringSearch(ctx context.Context, pred query.Predicate, limit, offset int) ([]storage.Item, int, error)
}

// Result is one page of matches plus the total match count.
type Result struct {
	Items []storage.Item
	Total int
}

type Engine struct {
	store  Storage
	logger *log.Logger
}

func New(store Storage) *Engine {
	return &Engine{
		store:  store,
		logger: log.ForService("search"),
	}
}

// Search parses raw and returns one page of matches. Blank and
// unparsable queries return an empty result without touching storage.
// Queries with only negated terms skip the index entirely: the index
// cannot express "everything except", the substring scan can.
func (e *Engine) Search(ctx context.Context, raw string, limit, offset int) (Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}, nil
	}

	node, ok := query.Parse(raw)
	if !ok {
		return Result{}, nil
	}

	positives, negatives := query.SplitTerms(node)
	negativeOnly := len(positives) == 0 && len(negatives) > 0

	if e.store.FTSAvailable() && !negativeOnly {
		return e.searchIndex(ctx, node, negatives, limit, offset)
	}

	e.logger.Debugf("substring search for %q", raw)
	return e.searchSubstring(ctx, node, limit, offset)
}

func (e *Engine) searchIndex(ctx context.Context, node query.Node, negatives []query.Term, limit, offset int) (Result, error) {
	var (
		items []storage.Item
		total int
	)

	if matchExpr := query.BuildMatchExpr(node); strings.TrimSpace(matchExpr) != "" {
		var err error
		items, total, err = e.store.IndexSearch(ctx, matchExpr, limit, offset)
		if err != nil {
			// Missing FTS5 and a MATCH expression FTS5 rejects both mean
			// the index path is unusable; the substring scan takes the
			// same input.
			e.logger.Debugf("index search failed, using substring scan: %v", err)
			return e.searchSubstring(ctx, node, limit, offset)
		}
	}

	if len(negatives) > 0 && len(items) > 0 {
		kept := excludeNegated(items, negatives)
		if removed := len(items) - len(kept); removed > 0 {
			total -= removed
			if total < 0 {
				total = 0
			}
		}
		items = kept
	}

	// An empty page, whether the index found nothing or the negation
	// filter removed everything, falls through to the substring scan.
	if len(items) == 0 {
		return e.searchSubstring(ctx, node, limit, offset)
	}

	return Result{Items: items, Total: total}, nil
}

func (e *Engine) searchSubstring(ctx context.Context, node query.Node, limit, offset int) (Result, error) {
	items, total, err := e.store.SubstringSearch(ctx, query.BuildFallback(node), limit, offset)
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items, Total: total}, nil
}

// excludeNegated drops items whose title or summary contains any
// negated term as a case-insensitive substring.
func excludeNegated(items []storage.Item, negatives []query.Term) []storage.Item {
	tokens := make([]string, len(negatives))
	for i, t := range negatives {
		tokens[i] = strings.ToLower(t.Text())
	}

	var kept []storage.Item
	for _, it := range items {
		title := strings.ToLower(it.Title)
		summary := strings.ToLower(it.Summary)
		excluded := false
		for _, tok := range tokens {
			if strings.Contains(title, tok) || strings.Contains(summary, tok) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, it)
		}
	}
	return kept
}
