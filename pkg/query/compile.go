package query

import "strings"

// Predicate is a parameterized SQL fragment over the title and summary
// columns, ready to drop into a WHERE clause.
type Predicate struct {
	SQL  string
	Args []any
}

// SplitTerms walks the tree and partitions terms into positives (must be
// present) and negatives (must be absent). The negation flag is set only
// directly under a Not node; And/Or pass it through unchanged, which is
// sufficient because Not only ever wraps a single term.
func SplitTerms(n Node) (positives, negatives []Term) {
	var walk func(Node, bool)
	walk = func(n Node, neg bool) {
		switch v := n.(type) {
		case Term:
			if neg {
				negatives = append(negatives, v)
			} else {
				positives = append(positives, v)
			}
		case Not:
			walk(v.Term, true)
		case And:
			for _, c := range v.Nodes {
				walk(c, neg)
			}
		case Or:
			for _, c := range v.Nodes {
				walk(c, neg)
			}
		}
	}
	if n != nil {
		walk(n, false)
	}
	return positives, negatives
}

// BuildMatchExpr renders the FTS5 MATCH expression from the positive terms
// only, space-joined, phrases quoted with internal quotes doubled. OR
// structure is flattened into the implicit AND: "a OR b" compiles to "a b",
// identical to "a AND b". The fallback predicate keeps true OR semantics,
// so the two execution paths can disagree on which rows match; this follows
// the original system's behavior and is left as-is rather than silently
// corrected.
func BuildMatchExpr(n Node) string {
	positives, _ := SplitTerms(n)
	return MatchFromPositives(positives)
}

// MatchFromPositives renders a MATCH expression from an already-split
// positive term list. Empty input yields the empty string, which callers
// must treat as "no index query possible".
func MatchFromPositives(positives []Term) string {
	if len(positives) == 0 {
		return ""
	}
	parts := make([]string, 0, len(positives))
	for _, t := range positives {
		if t.IsPhrase {
			parts = append(parts, `"`+strings.ReplaceAll(t.Value, `"`, `""`)+`"`)
		} else {
			parts = append(parts, t.Value)
		}
	}
	return strings.Join(parts, " ")
}

// Variant returns the hyphen/space counterpart of a term's surface form: a
// spaced form gains its hyphen-joined variant when that variant is a valid
// compound word, and a hyphenated compound gains its space-joined form.
// The second return is false when no counterpart applies.
func Variant(original string) (string, bool) {
	if strings.Contains(original, " ") && !strings.Contains(original, "-") {
		candidate := strings.ReplaceAll(original, " ", "-")
		if compoundRe.MatchString(candidate) {
			return candidate, true
		}
		return "", false
	}
	if strings.Contains(original, "-") && !strings.Contains(original, " ") {
		if compoundRe.MatchString(original) {
			return strings.ReplaceAll(original, "-", " "), true
		}
	}
	return "", false
}

// BuildFallback compiles the substring-scan predicate. Each positive term
// contributes a case-insensitive containment test against title and summary
// (plus one for its hyphen/space variant where one exists), all OR'd
// together; each negative term appends an AND NOT containment test. With no
// positives the base is 1=1 so negatives act as a pure exclusion filter;
// with neither the predicate is 0=1 and yields no rows.
func BuildFallback(n Node) Predicate {
	if n == nil {
		return Predicate{SQL: "0=1"}
	}
	positives, negatives := SplitTerms(n)

	posPatterns := likePatterns(positives)
	negPatterns := likePatterns(negatives)

	const colExpr = "(LOWER(title) LIKE ? OR LOWER(summary) LIKE ?)"

	var parts []string
	var args []any

	switch {
	case len(posPatterns) > 0:
		sub := make([]string, len(posPatterns))
		for i, p := range posPatterns {
			sub[i] = colExpr
			args = append(args, p, p)
		}
		parts = append(parts, "("+strings.Join(sub, " OR ")+")")
	case len(negPatterns) > 0:
		parts = append(parts, "1=1")
	default:
		return Predicate{SQL: "0=1"}
	}

	for _, p := range negPatterns {
		parts = append(parts, "NOT "+colExpr)
		args = append(args, p, p)
	}

	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

func likePatterns(terms []Term) []string {
	var pats []string
	for _, t := range terms {
		surface := t.Text()
		pats = append(pats, "%"+strings.ToLower(surface)+"%")
		if v, ok := Variant(surface); ok {
			pats = append(pats, "%"+strings.ToLower(v)+"%")
		}
	}
	return pats
}
