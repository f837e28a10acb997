// Package render formats news items, source tables and pagination footers
// for terminal output.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vestnik/vestnik/pkg/storage"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true)

	markStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Margin(1, 0, 1, 0)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Margin(1, 0, 0, 0)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

var titleCaser = cases.Title(language.English)

const dbTimeLayout = "2006-01-02 15:04:05"

// Emphasize converts <b>...</b> highlight markers into styled terminal
// spans. Nested markers collapse into one span; markers never reach the
// output.
func Emphasize(s string) string {
	var out strings.Builder
	var span strings.Builder
	depth := 0
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "<b>") {
			depth++
			i += 3
			continue
		}
		if strings.HasPrefix(s[i:], "</b>") {
			if depth > 0 {
				depth--
				if depth == 0 {
					out.WriteString(markStyle.Render(span.String()))
					span.Reset()
				}
			}
			i += 4
			continue
		}
		if depth > 0 {
			span.WriteByte(s[i])
		} else {
			out.WriteByte(s[i])
		}
		i++
	}
	if span.Len() > 0 {
		out.WriteString(markStyle.Render(span.String()))
	}
	return out.String()
}

// RelativeTime renders a moment as a human-friendly distance from now.
func RelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		m := int(diff.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case diff < 24*time.Hour:
		h := int(diff.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	case diff < 7*24*time.Hour:
		d := int(diff.Hours() / 24)
		if d == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", d)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Published renders a stored publication timestamp relative to now.
// Values that do not parse come back unchanged.
func Published(published string) string {
	if published == "" {
		return ""
	}
	t, err := time.Parse(dbTimeLayout, published)
	if err != nil {
		return published
	}
	return RelativeTime(t)
}

// SourceTitle prettifies all-lowercase feed names for display and leaves
// mixed-case names untouched.
func SourceTitle(name string) string {
	if name == strings.ToLower(name) {
		return titleCaser.String(name)
	}
	return name
}

// Item renders one news item. Highlight markers in the title and summary
// are converted to styled spans.
func Item(item storage.Item, index int) string {
	var content strings.Builder

	meta := fmt.Sprintf("#%d · %s", index, SourceTitle(item.Source))
	if when := Published(item.Published); when != "" {
		meta += " · " + when
	}
	content.WriteString(metaStyle.Render(meta))
	content.WriteString("\n")

	if strings.Contains(item.Title, "<b>") {
		content.WriteString(Emphasize(item.Title))
	} else {
		content.WriteString(titleStyle.Render(item.Title))
	}

	if item.Summary != "" {
		content.WriteString("\n")
		content.WriteString(Emphasize(item.Summary))
	}
	if item.Link != "" {
		content.WriteString("\n")
		content.WriteString(linkStyle.Render("🔗 " + item.Link))
	}

	return content.String()
}

// Items renders a page of news items numbered from offset+1.
func Items(items []storage.Item, offset int) string {
	parts := make([]string, 0, len(items))
	for i, item := range items {
		parts = append(parts, Item(item, offset+i+1))
	}
	return strings.Join(parts, "\n\n")
}

// Footer renders the pagination line for a page of results.
func Footer(total, limit, offset int) string {
	if total <= 0 || limit <= 0 {
		return ""
	}
	first := offset + 1
	if first > total {
		return footerStyle.Render(fmt.Sprintf("Nothing past item %d (%d total)", offset, total))
	}
	last := offset + limit
	if last > total {
		last = total
	}
	page := offset/limit + 1
	pages := (total + limit - 1) / limit
	return footerStyle.Render(fmt.Sprintf("Showing %d-%d of %d · page %d/%d", first, last, total, page, pages))
}

// NoData renders an empty-state message.
func NoData(message string) string {
	return noDataStyle.Render(message)
}

// SourcesTable renders per-source counts with their latest publication.
func SourcesTable(sources []storage.SourceCount) string {
	if len(sources) == 0 {
		return NoData("No sources yet.")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-24s %8s  %s", "Source", "Items", "Latest")))
	b.WriteString("\n")
	for _, s := range sources {
		latest := Published(s.LatestPublished)
		if latest == "" {
			latest = "never"
		}
		fmt.Fprintf(&b, "%-24s %8d  %s\n", SourceTitle(s.Source), s.Count, metaStyle.Render(latest))
	}
	return b.String()
}

// Stats renders the database statistics block.
func Stats(stats storage.Stats, path string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Database"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Path:        %s\n", path)
	fmt.Fprintf(&b, "Total items: %d\n", stats.Total)
	fts := "available"
	if !stats.FTSAvailable {
		fts = "unavailable (substring scan only)"
	}
	fmt.Fprintf(&b, "Full-text:   %s\n", fts)
	if stats.OldestAdded != "" {
		fmt.Fprintf(&b, "First added: %s\n", stats.OldestAdded)
	}
	if stats.NewestAdded != "" {
		fmt.Fprintf(&b, "Last added:  %s\n", stats.NewestAdded)
	}
	if len(stats.Sources) > 0 {
		b.WriteString(SourcesTable(stats.Sources))
	}
	return b.String()
}
