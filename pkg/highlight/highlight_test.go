package highlight

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractPatterns(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "phrase and compound with variants",
			query: `«мировой кризис» F-16`,
			want:  []string{"мировой кризис", "мировой-кризис", "F 16", "F-16"},
		},
		{
			name:  "negated terms produce no patterns",
			query: "кризис -санкции",
			want:  []string{"кризис"},
		},
		{
			name:  "single word",
			query: "budget",
			want:  []string{"budget"},
		},
		{
			name:  "negative-only query",
			query: "-spam",
			want:  nil,
		},
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPatterns(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractPatterns(%q) = %q, want %q", tt.query, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("patterns[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractPatternsSortsByRuneLength(t *testing.T) {
	// The Cyrillic word is longer in runes but the Latin word is longer
	// in bytes; rune length decides.
	got := ExtractPatterns("словарная abcdefghij")
	want := []string{"abcdefghij", "словарная"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExtractPatterns = %q, want %q", got, want)
	}
}

func TestExtractPatternsOrdersEqualLengthsLexically(t *testing.T) {
	// Both words are five runes; extraction order must not leak through.
	got := ExtractPatterns("gamma delta")
	want := []string{"delta", "gamma"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ExtractPatterns = %q, want %q", got, want)
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		patterns []string
		want     string
	}{
		{
			name:     "wraps match preserving original case",
			text:     "Кризис углубляется",
			patterns: []string{"кризис"},
			want:     "<b>Кризис</b> углубляется",
		},
		{
			name:     "multiple occurrences",
			text:     "go and GO and Go",
			patterns: []string{"go"},
			want:     "<b>go</b> and <b>GO</b> and <b>Go</b>",
		},
		{
			name:     "regex metacharacters are literal",
			text:     "cost is $5 (per unit)",
			patterns: []string{"$5 (per unit)"},
			want:     "cost is <b>$5 (per unit)</b>",
		},
		{
			name:     "no patterns leaves text alone",
			text:     "nothing to see",
			patterns: nil,
			want:     "nothing to see",
		},
		{
			name:     "patterns apply in order and can nest",
			text:     "world crisis",
			patterns: []string{"world crisis", "crisis"},
			want:     "<b>world <b>crisis</b></b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.text, tt.patterns); got != tt.want {
				t.Errorf("Highlight(%q, %q) = %q, want %q", tt.text, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestSnippetCentersOnFirstMatch(t *testing.T) {
	summary := strings.Repeat("ж", 100) + " Кризис " + strings.Repeat("д", 200)

	got := Snippet(summary, []string{"кризис"})
	if got == "" {
		t.Fatal("Snippet returned nothing")
	}
	if !strings.HasPrefix(got, "…") || !strings.HasSuffix(got, "…") {
		t.Errorf("snippet not marked as truncated on both ends: %q", got)
	}
	if !strings.Contains(got, "<b>Кризис</b>") {
		t.Errorf("snippet does not highlight the match: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("snippet is not valid UTF-8: %q", got)
	}

	// Window of 180 runes plus two ellipses plus the <b></b> wrapping.
	want := 182 + 7
	if n := utf8.RuneCountInString(got); n != want {
		t.Errorf("snippet is %d runes, want %d", n, want)
	}
}

func TestSnippetNearStart(t *testing.T) {
	summary := "Кризис " + strings.Repeat("д", 300)

	got := Snippet(summary, []string{"кризис"})
	if strings.HasPrefix(got, "…") {
		t.Errorf("match at the start should not get a leading ellipsis: %q", got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long tail should get a trailing ellipsis: %q", got)
	}
}

func TestSnippetShortSummary(t *testing.T) {
	got := Snippet("Кризис закончился.", []string{"кризис"})
	want := "<b>Кризис</b> закончился."
	if got != want {
		t.Errorf("Snippet = %q, want %q", got, want)
	}
}

func TestSnippetEmptyCases(t *testing.T) {
	if got := Snippet("", []string{"a"}); got != "" {
		t.Errorf("empty summary: got %q, want empty", got)
	}
	if got := Snippet("text", nil); got != "" {
		t.Errorf("no patterns: got %q, want empty", got)
	}
	if got := Snippet("text without the word", []string{"absent"}); got != "" {
		t.Errorf("no match: got %q, want empty", got)
	}
}
