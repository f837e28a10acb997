package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	maxAmbiguous   = 20
	maxSuggestions = 5
)

// SourceResolution classifies the outcome of resolving user input
// against the known source names.
type SourceResolution int

const (
	// SourceResolved means exactly one source matched.
	SourceResolved SourceResolution = iota
	// SourceAmbiguous means several sources matched and the caller
	// must ask the user to narrow down.
	SourceAmbiguous
	// SourceUnknown means nothing matched, possibly with fuzzy
	// suggestions for typos.
	SourceUnknown
)

// SourceMatch is the result of ResolveSource.
type SourceMatch struct {
	Kind SourceResolution
	// Name is the canonical source name when resolved.
	Name string
	// Candidates holds the matching names when ambiguous, capped;
	// Truncated reports whether the cap cut the list.
	Candidates []string
	Truncated  bool
	// Suggestions holds close names when nothing matched.
	Suggestions []string
}

// ResolveSource maps free-form user input to a canonical source name.
// An exact case-insensitive match wins; otherwise a unique substring
// match resolves, several substring matches are reported as ambiguous,
// and no match at all yields fuzzy suggestions.
func ResolveSource(input string, names []string) SourceMatch {
	lowered := strings.ToLower(input)

	for _, name := range names {
		if strings.ToLower(name) == lowered {
			return SourceMatch{Kind: SourceResolved, Name: name}
		}
	}

	var candidates []string
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), lowered) {
			candidates = append(candidates, name)
		}
	}

	switch {
	case len(candidates) == 1:
		return SourceMatch{Kind: SourceResolved, Name: candidates[0]}
	case len(candidates) > 1:
		m := SourceMatch{Kind: SourceAmbiguous, Candidates: candidates}
		if len(candidates) > maxAmbiguous {
			m.Candidates = candidates[:maxAmbiguous]
			m.Truncated = true
		}
		return m
	}

	m := SourceMatch{Kind: SourceUnknown}
	for i, match := range fuzzy.Find(input, names) {
		if i == maxSuggestions {
			break
		}
		m.Suggestions = append(m.Suggestions, match.Str)
	}
	return m
}
