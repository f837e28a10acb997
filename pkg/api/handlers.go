package api

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vestnik/vestnik/pkg/archive"
	"github.com/vestnik/vestnik/pkg/highlight"
	"github.com/vestnik/vestnik/pkg/search"
	"github.com/vestnik/vestnik/pkg/storage"
	"github.com/vestnik/vestnik/pkg/version"
)

const maxPageSize = 100

// pageParams reads limit and offset from the query string, falling back
// to the configured page size. Out-of-range values are clamped rather
// than rejected.
func (s *Server) pageParams(r *http.Request) (limit, offset int) {
	limit = s.pageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// toItemResponses converts stored items, adding highlighted title and
// snippet variants when patterns are given. Text is HTML-escaped before
// highlighting so the <b> markers are the only markup in the output.
func toItemResponses(items []storage.Item, patterns []string) []ItemResponse {
	responses := make([]ItemResponse, len(items))
	for i, it := range items {
		responses[i] = ItemResponse{
			ID:        it.ID,
			Source:    it.Source,
			Title:     it.Title,
			Link:      it.Link,
			Published: it.Published,
			Summary:   it.Summary,
			AddedAt:   it.AddedAt,
		}
		if len(patterns) > 0 {
			responses[i].TitleHTML = highlight.Highlight(html.EscapeString(it.Title), patterns)
			responses[i].SnippetHTML = highlight.Snippet(html.EscapeString(it.Summary), patterns)
		}
	}
	return responses
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing_query", "Query parameter 'q' is required")
		return
	}

	limit, offset := s.pageParams(r)
	result, err := s.engine.Search(r.Context(), query, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	key := s.searchSessions.Put(query)
	s.writeJSON(w, http.StatusOK, searchResponse(query, key, result, limit, offset))
}

func (s *Server) HandleSearchSession(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	query, err := s.searchSessions.Get(key)
	if err != nil {
		s.writeError(w, http.StatusGone, "stale_session", "Search session expired, start a new search")
		return
	}

	limit, offset := s.pageParams(r)
	result, err := s.engine.Search(r.Context(), query, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, searchResponse(query, key, result, limit, offset))
}

func searchResponse(query, key string, result search.Result, limit, offset int) SearchResponse {
	patterns := highlight.ExtractPatterns(query)
	return SearchResponse{
		Query:   query,
		Key:     key,
		Total:   result.Total,
		Limit:   limit,
		Offset:  offset,
		HasPrev: offset > 0,
		HasNext: offset+limit < result.Total,
		Items:   toItemResponses(result.Items, patterns),
	}
}

func (s *Server) HandleLatest(w http.ResponseWriter, r *http.Request) {
	limit, offset := s.pageParams(r)

	items, total, err := s.store.LatestPage(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "latest_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, PageResponse{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasPrev: offset > 0,
		HasNext: offset+limit < total,
		Items:   toItemResponses(items, nil),
	})
}

func (s *Server) HandleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.Sources(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "sources_failed", err.Error())
		return
	}

	infos := make([]SourceInfo, len(sources))
	for i, sc := range sources {
		infos[i] = SourceInfo{
			Name:            sc.Source,
			Count:           sc.Count,
			LatestPublished: sc.LatestPublished,
		}
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) HandleSourceNews(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "missing_source", "Source name is required")
		return
	}

	sources, err := s.store.Sources(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "sources_failed", err.Error())
		return
	}
	names := make([]string, len(sources))
	for i, sc := range sources {
		names[i] = sc.Source
	}

	match := search.ResolveSource(name, names)
	switch match.Kind {
	case search.SourceAmbiguous:
		s.writeJSON(w, http.StatusMultipleChoices, SourceResolutionResponse{
			Error:      "ambiguous_source",
			Message:    fmt.Sprintf("Several sources match %q", name),
			Candidates: match.Candidates,
			Truncated:  match.Truncated,
		})
		return
	case search.SourceUnknown:
		s.writeJSON(w, http.StatusNotFound, SourceResolutionResponse{
			Error:       "unknown_source",
			Message:     fmt.Sprintf("No source matches %q", name),
			Suggestions: match.Suggestions,
		})
		return
	}

	limit, offset := s.pageParams(r)
	key := s.sourceSessions.Put(match.Name)
	s.writeSourcePage(w, r, match.Name, key, limit, offset)
}

func (s *Server) HandleSourceSession(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	source, err := s.sourceSessions.Get(key)
	if err != nil {
		s.writeError(w, http.StatusGone, "stale_session", "Source session expired, browse the source again")
		return
	}

	limit, offset := s.pageParams(r)
	s.writeSourcePage(w, r, source, key, limit, offset)
}

func (s *Server) writeSourcePage(w http.ResponseWriter, r *http.Request, source, key string, limit, offset int) {
	items, total, err := s.store.SourceNews(r.Context(), source, limit, offset)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "source_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, SourceNewsResponse{
		Source:  source,
		Key:     key,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasPrev: offset > 0,
		HasNext: offset+limit < total,
		Items:   toItemResponses(items, nil),
	})
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "stats_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, StatsResponse{
		Stats:    stats,
		Path:     s.store.Path(),
		Sessions: s.searchSessions.Len() + s.sourceSessions.Len(),
	})
}

func (s *Server) HandleArchiveMonths(w http.ResponseWriter, r *http.Request) {
	arch, ok := s.store.(archive.Archiver)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, "archive_unsupported", "This storage backend cannot archive")
		return
	}

	months, err := arch.ArchiveMonths(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "archive_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ArchiveMonthsResponse{
		Months: months,
		Count:  len(months),
	})
}

func (s *Server) HandleAdminRebuild(w http.ResponseWriter, r *http.Request) {
	mode, err := s.store.RebuildFTS(r.Context())
	if errors.Is(err, storage.ErrNoFTS) {
		s.writeError(w, http.StatusConflict, "fts_unavailable", "This database has no full-text index to rebuild")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "rebuild_failed", err.Error())
		return
	}

	s.logger.Infof("search index rebuilt (%s)", mode)
	s.writeJSON(w, http.StatusOK, RebuildResponse{Mode: mode})
}

func (s *Server) HandleAdminArchive(w http.ResponseWriter, r *http.Request) {
	arch, ok := s.store.(archive.Archiver)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, "archive_unsupported", "This storage backend cannot archive")
		return
	}

	keep := s.archiveKeep
	if v := r.URL.Query().Get("keep"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			keep = n
		}
	}

	result, err := arch.ArchiveNow(r.Context(), archive.Options{
		Dir:        s.archiveDir,
		KeepMonths: keep,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "archive_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
