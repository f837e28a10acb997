// Package guard protects the query surface with per-client rate limiting
// and a content filter for inbound query text.
package guard

import (
	"regexp"
	"strings"
)

// ViolationKind distinguishes why a text was rejected.
type ViolationKind int

const (
	// ViolationWords means the text contains forbidden words.
	ViolationWords ViolationKind = iota
	// ViolationLinks means the text contains a link or a blocked link pattern.
	ViolationLinks
)

// Violation describes a content filter rejection. Words holds the matched
// forbidden words when Kind is ViolationWords.
type Violation struct {
	Kind  ViolationKind
	Words []string
}

// defaultLinkMarkers is the substring fallback used when a configured link
// pattern does not compile.
var defaultLinkMarkers = []string{"http://", "https://", "www."}

const defaultLinkPattern = `(?i)(https?://|www\.)`

// Filter checks query text against a list of forbidden words and an optional
// link policy. Word matching is case-insensitive substring matching, like the
// link marker fallback.
type Filter struct {
	words      []string
	blockLinks bool
	linkRe     *regexp.Regexp
	markers    []string
}

// NewFilter builds a filter. Words are lowercased and deduplicated.
// When blockLinks is set, linkPattern is compiled case-insensitively;
// an empty pattern uses a default matching http(s) URLs and www hosts,
// and a pattern that fails to compile degrades to plain substring markers.
func NewFilter(words []string, blockLinks bool, linkPattern string) *Filter {
	f := &Filter{blockLinks: blockLinks}

	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		f.words = append(f.words, w)
	}

	if !blockLinks {
		return f
	}
	if linkPattern == "" {
		f.linkRe = regexp.MustCompile(defaultLinkPattern)
		return f
	}
	re, err := regexp.Compile("(?i)" + linkPattern)
	if err != nil {
		f.markers = defaultLinkMarkers
		return f
	}
	f.linkRe = re
	return f
}

// Check returns nil for clean text, otherwise the violation that blocked it.
// Forbidden words are checked before links, matching every configured word
// the text contains.
func (f *Filter) Check(text string) *Violation {
	lower := strings.ToLower(text)

	var found []string
	for _, w := range f.words {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	if len(found) > 0 {
		return &Violation{Kind: ViolationWords, Words: found}
	}

	if !f.blockLinks {
		return nil
	}
	if f.linkRe != nil {
		if f.linkRe.MatchString(text) {
			return &Violation{Kind: ViolationLinks}
		}
		return nil
	}
	for _, marker := range f.markers {
		if strings.Contains(lower, marker) {
			return &Violation{Kind: ViolationLinks}
		}
	}
	return nil
}
