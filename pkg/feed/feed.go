// Package feed downloads RSS 2.0 and Atom feeds and converts their
// entries into storage items. Parsing is deliberately lenient: feeds
// in the wild carry several date layouts and HTML-laden summaries, so
// dates are normalized when recognizable and summaries are stripped to
// plain text.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vestnik/vestnik/pkg/log"
	"github.com/vestnik/vestnik/pkg/storage"
)

const (
	userAgent     = "vestnik/0.4 feed reader"
	maxItems      = 200
	maxSummaryLen = 2000
	maxBodyBytes  = 10 << 20 // 10MB
)

// RSS feed structures
type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

type atomDoc struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string   `xml:"title"`
	Link      atomLink `xml:"link"`
	Summary   string   `xml:"summary"`
	Content   string   `xml:"content"`
	Published string   `xml:"published"`
	Updated   string   `xml:"updated"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

// Fetcher downloads feeds over HTTP.
type Fetcher struct {
	client *http.Client
	logger *log.Logger
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log.ForService("feed"),
	}
}

// Fetch downloads one feed and returns its entries as items attributed
// to source.
func (f *Fetcher) Fetch(ctx context.Context, source, url string) ([]storage.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("Warning: failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	items, err := Parse(body, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	f.logger.Debugf("fetched %d items from %s", len(items), url)
	return items, nil
}

// Parse converts raw feed XML into items. RSS 2.0 is tried first, then
// Atom.
func Parse(data []byte, source string) ([]storage.Item, error) {
	var rss rssDoc
	if err := xml.Unmarshal(data, &rss); err == nil {
		items := make([]storage.Item, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			items = append(items, convert(source, it.Title, it.Link, it.Description, it.PubDate))
		}
		return capItems(items), nil
	}

	var atom atomDoc
	if err := xml.Unmarshal(data, &atom); err != nil {
		return nil, fmt.Errorf("neither RSS nor Atom: %w", err)
	}
	items := make([]storage.Item, 0, len(atom.Entries))
	for _, e := range atom.Entries {
		summary := e.Summary
		if e.Content != "" && len(e.Content) > len(summary) {
			summary = e.Content
		}
		published := e.Published
		if published == "" {
			published = e.Updated
		}
		items = append(items, convert(source, e.Title, e.Link.Href, summary, published))
	}
	return capItems(items), nil
}

func convert(source, title, link, description, pubDate string) storage.Item {
	return storage.Item{
		Source:    source,
		Title:     strings.TrimSpace(title),
		Link:      strings.TrimSpace(link),
		Published: normalizeDate(pubDate),
		Summary:   cleanSummary(description),
	}
}

func capItems(items []storage.Item) []storage.Item {
	if len(items) > maxItems {
		return items[:maxItems]
	}
	return items
}

var dateFormats = []string{
	time.RFC1123Z, // RSS standard
	time.RFC1123,
	time.RFC3339, // Atom standard
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"Mon, 02 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
}

// normalizeDate rewrites recognized date layouts to a sortable UTC form.
// Unrecognized dates pass through untouched rather than being dropped.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.UTC().Format("2006-01-02 15:04:05")
		}
	}
	return raw
}

// cleanSummary decodes HTML entities, removes tags and collapses
// whitespace. Long summaries are cut at a rune boundary.
func cleanSummary(raw string) string {
	s := html.UnescapeString(raw)
	s = strings.ReplaceAll(s, "<br>", " ")
	s = strings.ReplaceAll(s, "<br/>", " ")
	s = strings.ReplaceAll(s, "<p>", " ")
	s = strings.ReplaceAll(s, "</p>", " ")
	// Simple tag removal (not comprehensive but covers basics)
	for strings.Contains(s, "<") && strings.Contains(s, ">") {
		start := strings.Index(s, "<")
		end := strings.Index(s[start:], ">")
		if end == -1 {
			break
		}
		s = s[:start] + " " + s[start+end+1:]
	}
	s = strings.Join(strings.Fields(s), " ")

	if runes := []rune(s); len(runes) > maxSummaryLen {
		s = string(runes[:maxSummaryLen]) + "…"
	}
	return s
}
