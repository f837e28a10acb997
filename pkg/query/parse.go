package query

// seqItem is one element of the interleaved operator/term sequence the AST
// builder consumes. op is "AND", "OR" or "NOT" for markers; otherwise term
// is set.
type seqItem struct {
	op   string
	term Term
}

// astItem carries either a surviving operator marker or a folded node
// between the two builder passes.
type astItem struct {
	op   string
	node Node
}

// Parse turns a raw query string into an expression tree. The second return
// is false when the input parses to nothing (blank input, operators with no
// terms, empty phrases); callers decide how to handle emptiness, it is never
// an error.
func Parse(raw string) (Node, bool) {
	tokens := Tokenize(raw)
	seq := make([]seqItem, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenOp:
			seq = append(seq, seqItem{op: tok.Value})
		case TokenPhrase:
			seq = append(seq, seqItem{term: Term{Value: tok.Value, IsPhrase: true, Original: tok.Value}})
		case TokenCompound:
			seq = append(seq, seqItem{term: Term{Value: tok.Value, IsPhrase: true, Original: tok.Original}})
		case TokenWord:
			seq = append(seq, seqItem{term: Term{Value: tok.Value, Original: tok.Value}})
		}
	}
	node := buildAST(seq)
	return node, node != nil
}

// buildAST runs the two builder passes: NOT markers fold into their
// immediately following term (a dangling NOT is dropped), then the sequence
// splits into OR groups with AND markers removed, adjacent terms inside a
// group joining under an implicit And.
func buildAST(seq []seqItem) Node {
	if len(seq) == 0 {
		return nil
	}

	processed := make([]astItem, 0, len(seq))
	for idx := 0; idx < len(seq); idx++ {
		it := seq[idx]
		if it.op == "NOT" {
			if idx+1 < len(seq) && seq[idx+1].op == "" {
				processed = append(processed, astItem{node: Not{Term: seq[idx+1].term}})
				idx++
			}
			// NOT with nothing to negate is dropped.
			continue
		}
		if it.op != "" {
			processed = append(processed, astItem{op: it.op})
			continue
		}
		processed = append(processed, astItem{node: it.term})
	}

	groups := [][]Node{nil}
	for _, it := range processed {
		if it.op == "OR" {
			groups = append(groups, nil)
			continue
		}
		if it.op != "" {
			// AND is accepted but has no effect: adjacency already means AND.
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], it.node)
	}

	var orNodes []Node
	for _, g := range groups {
		switch len(g) {
		case 0:
		case 1:
			orNodes = append(orNodes, g[0])
		default:
			orNodes = append(orNodes, And{Nodes: g})
		}
	}

	switch len(orNodes) {
	case 0:
		return nil
	case 1:
		return orNodes[0]
	default:
		return Or{Nodes: orNodes}
	}
}
