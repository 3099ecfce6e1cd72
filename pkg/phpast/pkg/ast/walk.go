package ast

import "errors"

var errUnsupportedValue = errors.New("unsupported child value")

// Walk visits n and its descendant nodes in pre-order. The key is the
// child key under which the node was found ("" for the root). Returning
// false from fn skips the node's children.
func Walk(n *Node, fn func(key string, n *Node) bool) {
	walk("", n, fn)
}

func walk(key string, n *Node, fn func(string, *Node) bool) {
	if n == nil || !fn(key, n) {
		return
	}

	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		if child, ok := pair.Value.(*Node); ok {
			walk(pair.Key, child, fn)
		}
	}
}

// Equal reports whether two child values are structurally equal. Line
// numbers are ignored; kinds, flags, keys, scalars and declaration
// metadata other than end lines must match.
func Equal(a, b any) bool {
	an, aok := a.(*Node)
	bn, bok := b.(*Node)

	if aok != bok {
		return false
	}

	if !aok {
		return a == b
	}

	if an == nil || bn == nil {
		return an == bn
	}

	if an.Kind != bn.Kind || an.Flags != bn.Flags || an.Len() != bn.Len() || !equalDecl(an.Decl, bn.Decl) {
		return false
	}

	pa, pb := an.Children.Oldest(), bn.Children.Oldest()
	for ; pa != nil && pb != nil; pa, pb = pa.Next(), pb.Next() {
		if pa.Key != pb.Key || !Equal(pa.Value, pb.Value) {
			return false
		}
	}

	return true
}

func equalDecl(a, b *DeclInfo) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Name == b.Name && a.DocComment == b.DocComment && a.DeclID == b.DeclID
}

// Histogram counts nodes per kind.
func Histogram(n *Node) map[Kind]int {
	counts := make(map[Kind]int)

	Walk(n, func(_ string, node *Node) bool {
		counts[node.Kind]++

		return true
	})

	return counts
}

// Find returns the nodes of the given kind in pre-order.
func Find(n *Node, kind Kind) []*Node {
	var found []*Node

	Walk(n, func(_ string, node *Node) bool {
		if node.Kind == kind {
			found = append(found, node)
		}

		return true
	})

	return found
}
