// Package cst holds the concrete syntax tree handed to the converter: an
// immutable, pure-Go copy of the external parser's output plus the syntax
// diagnostics it reported.
package cst

import "slices"

// KindError is the kind of a node wrapping input the parser skipped.
const KindError = "ERROR"

// Node is a concrete syntax node or token. A node without children is a
// token; the kind of an anonymous token is its literal text ("(", "=>",
// "function"). Nodes are never mutated after the tree is built.
type Node struct {
	Kind  string
	Field string
	Start uint32
	End   uint32

	// Named is false for anonymous punctuation and keyword tokens.
	Named bool
	// Missing marks a zero-width token inserted by error recovery.
	Missing bool
	// Extra marks nodes that may appear anywhere, such as comments.
	Extra bool

	Children []*Node
	Parent   *Node
	// Index is the position of the node in Parent.Children.
	Index int
}

// IsError reports whether the node wraps skipped input.
func (n *Node) IsError() bool {
	return n.Kind == KindError
}

// IsToken reports whether the node has no children.
func (n *Node) IsToken() bool {
	return len(n.Children) == 0
}

// Text returns the source text spanned by the node.
func (n *Node) Text(src []byte) string {
	if int(n.End) > len(src) || n.Start > n.End {
		return ""
	}

	return string(src[n.Start:n.End])
}

// Contains reports whether offset lies inside [Start, End).
func (n *Node) Contains(offset uint32) bool {
	return offset >= n.Start && offset < n.End
}

// ChildByField returns the first child carrying the field name.
func (n *Node) ChildByField(field string) *Node {
	for _, child := range n.Children {
		if child.Field == field {
			return child
		}
	}

	return nil
}

// ChildrenByField returns every child carrying the field name.
func (n *Node) ChildrenByField(field string) []*Node {
	var out []*Node

	for _, child := range n.Children {
		if child.Field == field {
			out = append(out, child)
		}
	}

	return out
}

// NamedChildren returns the named children that are not extras.
func (n *Node) NamedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))

	for _, child := range n.Children {
		if child.Named && !child.Extra {
			out = append(out, child)
		}
	}

	return out
}

// FirstNamed returns the first named non-extra child of one of the kinds,
// or of any kind when none are given.
func (n *Node) FirstNamed(kinds ...string) *Node {
	for _, child := range n.Children {
		if !child.Named || child.Extra {
			continue
		}

		if len(kinds) == 0 || slices.Contains(kinds, child.Kind) {
			return child
		}
	}

	return nil
}

// HasToken reports whether an anonymous child token has the given kind.
func (n *Node) HasToken(kind string) bool {
	return n.TokenIndex(kind) >= 0
}

// TokenIndex returns the index of the first anonymous child token of the
// given kind, or -1. Missing tokens are ignored.
func (n *Node) TokenIndex(kind string) int {
	for i, child := range n.Children {
		if !child.Named && !child.Missing && child.Kind == kind {
			return i
		}
	}

	return -1
}

// PrevSibling returns the preceding child of the parent, or nil.
func (n *Node) PrevSibling() *Node {
	if n.Parent == nil || n.Index == 0 {
		return nil
	}

	return n.Parent.Children[n.Index-1]
}

// NextSibling returns the following child of the parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.Parent == nil || n.Index+1 >= len(n.Parent.Children) {
		return nil
	}

	return n.Parent.Children[n.Index+1]
}

// Walk visits n and its descendants in pre-order. Returning false skips
// the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, child := range n.Children {
		Walk(child, fn)
	}
}
