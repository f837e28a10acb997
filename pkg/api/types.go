package api

import (
	"time"

	"github.com/vestnik/vestnik/pkg/archive"
	"github.com/vestnik/vestnik/pkg/storage"
)

// ItemResponse is one news item as served by the API. TitleHTML and
// SnippetHTML carry HTML-escaped variants with query matches wrapped in
// <b> tags; they are only populated on search responses.
type ItemResponse struct {
	ID          int64  `json:"id"`
	Source      string `json:"source"`
	Title       string `json:"title"`
	TitleHTML   string `json:"title_html,omitempty"`
	Link        string `json:"link"`
	Published   string `json:"published,omitempty"`
	Summary     string `json:"summary,omitempty"`
	SnippetHTML string `json:"snippet_html,omitempty"`
	AddedAt     string `json:"added_at,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Key     string         `json:"key"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasPrev bool           `json:"has_prev"`
	HasNext bool           `json:"has_next"`
	Items   []ItemResponse `json:"items"`
}

type PageResponse struct {
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasPrev bool           `json:"has_prev"`
	HasNext bool           `json:"has_next"`
	Items   []ItemResponse `json:"items"`
}

type SourceNewsResponse struct {
	Source  string         `json:"source"`
	Key     string         `json:"key"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasPrev bool           `json:"has_prev"`
	HasNext bool           `json:"has_next"`
	Items   []ItemResponse `json:"items"`
}

type SourceInfo struct {
	Name            string `json:"name"`
	Count           int    `json:"count"`
	LatestPublished string `json:"latest_published,omitempty"`
}

// SourceResolutionResponse explains why a source path segment did not
// resolve to exactly one source: candidates when several matched,
// suggestions when none did.
type SourceResolutionResponse struct {
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	Candidates  []string `json:"candidates,omitempty"`
	Truncated   bool     `json:"truncated,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type StatsResponse struct {
	storage.Stats
	Path     string `json:"path"`
	Sessions int    `json:"sessions"`
}

type ArchiveMonthsResponse struct {
	Months []archive.MonthCount `json:"months"`
	Count  int                  `json:"count"`
}

type RebuildResponse struct {
	Mode string `json:"mode"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
