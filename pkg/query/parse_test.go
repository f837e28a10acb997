package query

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string // DebugString form; "" means no parse
	}{
		{
			name:     "single term",
			input:    "tanks",
			expected: `TERM(phrase=false, value="tanks", original="tanks")`,
		},
		{
			name:     "implicit and",
			input:    "a b",
			expected: `AND(TERM(phrase=false, value="a", original="a"), TERM(phrase=false, value="b", original="b"))`,
		},
		{
			name:     "or groups",
			input:    "a b OR c",
			expected: `OR(AND(TERM(phrase=false, value="a", original="a"), TERM(phrase=false, value="b", original="b")), TERM(phrase=false, value="c", original="c"))`,
		},
		{
			name:     "cyrillic phrase with negation",
			input:    `"мировой кризис" -санкции`,
			expected: `AND(TERM(phrase=true, value="мировой кризис", original="мировой кризис"), NOT(TERM(phrase=false, value="санкции", original="санкции")))`,
		},
		{
			name:     "explicit not",
			input:    "war NOT peace",
			expected: `AND(TERM(phrase=false, value="war", original="war"), NOT(TERM(phrase=false, value="peace", original="peace")))`,
		},
		{
			name:     "compound becomes phrase term",
			input:    "F-16",
			expected: `TERM(phrase=true, value="F 16", original="F-16")`,
		},
		{
			name:     "dangling not dropped",
			input:    "NOT",
			expected: "",
		},
		{
			name:     "not before operator dropped",
			input:    "NOT OR a",
			expected: `TERM(phrase=false, value="a", original="a")`,
		},
		{
			name:     "not folds compound",
			input:    "NOT F-16",
			expected: `NOT(TERM(phrase=true, value="F 16", original="F-16"))`,
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "operators only",
			input:    "AND OR AND",
			expected: "",
		},
		{
			name:     "leading and trailing or",
			input:    "OR a OR",
			expected: `TERM(phrase=false, value="a", original="a")`,
		},
		{
			name:     "negative only",
			input:    "-spam",
			expected: `NOT(TERM(phrase=false, value="spam", original="spam"))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, ok := Parse(tt.input)
			if tt.expected == "" {
				if ok {
					t.Errorf("Parse(%q) = %s, want no parse", tt.input, DebugString(node))
				}
				return
			}
			if !ok {
				t.Fatalf("Parse(%q) produced no parse, want %s", tt.input, tt.expected)
			}
			if got := DebugString(node); got != tt.expected {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseNeverPanics(t *testing.T) {
	inputs := []string{
		`"""`, `-"`, `--`, `NOT NOT NOT`, `OR OR`, `-- - "" " `,
		"——", `a"b"c"d`, `-`, `AND`,
	}
	for _, input := range inputs {
		if node, ok := Parse(input); ok && node == nil {
			t.Errorf("Parse(%q) reported ok with nil node", input)
		}
	}
}
