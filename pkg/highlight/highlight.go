// Package highlight wraps query matches in <b> tags and builds short
// summary snippets centered on the first match. Patterns come from the
// positive terms of a query; hyphen and space variants are both tried
// so "F-16" lights up "F 16" in prose and vice versa.
package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/vestnik/vestnik/pkg/query"
)

const (
	snippetLen     = 180
	snippetContext = 40
)

// ExtractPatterns parses a raw query and returns the texts to
// highlight: each positive term plus its hyphen/space variants,
// longest first. Negated terms never produce patterns. Returns nil
// when the query does not parse or has no positive terms.
func ExtractPatterns(raw string) []string {
	node, ok := query.Parse(raw)
	if !ok {
		return nil
	}
	positives, _ := query.SplitTerms(node)

	var patterns []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}

	for _, t := range positives {
		original := strings.TrimSpace(t.Text())
		if original == "" {
			continue
		}
		add(original)
		if strings.Contains(original, " ") && !strings.Contains(original, "-") {
			add(strings.ReplaceAll(original, " ", "-"))
		}
		if strings.Contains(original, "-") {
			add(strings.ReplaceAll(original, "-", " "))
		}
	}

	// Longest first so multi-word patterns win over their own words.
	// Length is counted in runes; equal lengths order lexically so the
	// result does not depend on extraction order.
	sort.Slice(patterns, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(patterns[i]), utf8.RuneCountInString(patterns[j])
		if li != lj {
			return li > lj
		}
		return patterns[i] < patterns[j]
	})
	return patterns
}

// Highlight wraps every case-insensitive occurrence of each pattern in
// <b> tags. Patterns are applied in order, so a pattern can re-match
// inside text wrapped by an earlier one.
func Highlight(text string, patterns []string) string {
	if text == "" || len(patterns) == 0 {
		return text
	}
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		rx := regexp.MustCompile(`(?i)(` + regexp.QuoteMeta(pat) + `)`)
		text = rx.ReplaceAllString(text, "<b>$1</b>")
	}
	return text
}

// Snippet cuts a window out of summary around the earliest pattern
// match and highlights it. The window opens a little before the match
// so it keeps some leading context, and truncated ends are marked with
// an ellipsis. Returns "" when there are no patterns or none of them
// occur in the summary.
func Snippet(summary string, patterns []string) string {
	if summary == "" || len(patterns) == 0 {
		return ""
	}

	lower := strings.ToLower(summary)
	first := -1
	for _, p := range patterns {
		if idx := strings.Index(lower, strings.ToLower(p)); idx != -1 && (first == -1 || idx < first) {
			first = idx
		}
	}
	if first == -1 {
		return ""
	}

	// Byte offset to rune offset; case folding maps rune to rune, so
	// positions in the lowered text line up with the original.
	pos := utf8.RuneCountInString(lower[:first])

	runes := []rune(summary)
	start := pos - snippetContext
	if start < 0 {
		start = 0
	}
	end := start + snippetLen
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet = snippet + "…"
	}
	return Highlight(snippet, patterns)
}
