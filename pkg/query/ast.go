// Package query implements the boolean query language used for news search:
// plain terms, quoted phrases, AND/OR/NOT operators, a leading-dash shorthand
// for NOT, and hyphenated compound words that match their space-separated
// form ("F-16" finds documents containing "F 16" and vice versa).
//
// The language is deliberately small. There is no parenthesized grouping and
// no relevance scoring; precedence from lowest to highest is OR, implicit
// AND, NOT. Parsing never fails: malformed input degrades to fewer tokens
// and, at worst, an empty parse.
//
// A parsed query compiles two ways: BuildMatchExpr produces an FTS5 MATCH
// expression over the positive terms, and BuildFallback produces a
// parameterized LIKE predicate over (title, summary) covering positive and
// negative terms, used when the index path is unavailable or comes up empty.
package query

import (
	"fmt"
	"strings"
)

// Node is a parsed query expression. The implementations form a closed set:
// Term, Not, And and Or. Consumers switch exhaustively over these four.
type Node interface {
	node()
}

// Term is a single search unit. Value holds the normalized form used for
// index matching (compound words space-joined); Original holds the literal
// user surface form used for substring matching and highlighting. Original
// is never empty once a Term exists.
type Term struct {
	Value    string
	IsPhrase bool
	Original string
}

// Not negates a single term. The grammar never produces a negated And/Or/Not,
// so the child is a Term by construction and the type encodes that.
type Not struct {
	Term Term
}

// And requires every child expression to match. Never empty.
type And struct {
	Nodes []Node
}

// Or requires at least one child expression to match. Never empty.
type Or struct {
	Nodes []Node
}

func (Term) node() {}
func (Not) node()  {}
func (And) node()  {}
func (Or) node()   {}

// Text returns the term's surface form, the one substring matching and
// highlighting work with.
func (t Term) Text() string {
	if t.Original != "" {
		return t.Original
	}
	return t.Value
}

// DebugString renders a node tree in a compact single-line form for logs
// and test failure messages.
func DebugString(n Node) string {
	if n == nil {
		return "<EMPTY>"
	}
	switch v := n.(type) {
	case Term:
		return fmt.Sprintf("TERM(phrase=%v, value=%q, original=%q)", v.IsPhrase, v.Value, v.Original)
	case Not:
		return "NOT(" + DebugString(v.Term) + ")"
	case And:
		parts := make([]string, len(v.Nodes))
		for i, c := range v.Nodes {
			parts[i] = DebugString(c)
		}
		return "AND(" + strings.Join(parts, ", ") + ")"
	case Or:
		parts := make([]string, len(v.Nodes))
		for i, c := range v.Nodes {
			parts[i] = DebugString(c)
		}
		return "OR(" + strings.Join(parts, ", ") + ")"
	}
	return "?"
}
