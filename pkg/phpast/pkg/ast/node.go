// Package ast defines the canonical PHP syntax tree produced by the
// converter: php-ast compatible kinds, flags, keyed children and the
// encodings used to exchange it.
package ast

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Node is a canonical syntax tree node. Children are keyed and keep the
// insertion order chosen by the converter; list kinds use "0", "1", ...
//
// A child value is one of *Node, string, int64, float64, bool or nil.
type Node struct {
	Kind     Kind
	Flags    Flags
	Line     uint32
	EndLine  uint32
	Children *orderedmap.OrderedMap[string, any]

	// Decl carries declaration metadata for schema versions that keep it
	// out of the children.
	Decl *DeclInfo
}

// DeclInfo is the declaration side channel used by legacy schema versions.
type DeclInfo struct {
	Name       any    `json:"name"       yaml:"name"`
	DocComment any    `json:"docComment" yaml:"docComment"`
	DeclID     uint32 `json:"declId"     yaml:"declId"`
	EndLine    uint32 `json:"endLineno"  yaml:"endLineno"`
}

// New creates a node without children.
func New(kind Kind, flags Flags, line uint32) *Node {
	return &Node{
		Kind:     kind,
		Flags:    flags,
		Line:     line,
		Children: orderedmap.New[string, any](),
	}
}

// Set stores a child under key, replacing an existing value in place.
// A nil *Node is stored as an untyped nil.
func (n *Node) Set(key string, value any) *Node {
	n.Children.Set(key, normalize(value))

	return n
}

// Append adds value under the next integer key.
func (n *Node) Append(value any) *Node {
	n.Children.Set(strconv.Itoa(n.Children.Len()), normalize(value))

	return n
}

// Get returns the child stored under key.
func (n *Node) Get(key string) (any, bool) {
	return n.Children.Get(key)
}

// Child returns the child stored under key, or nil.
func (n *Node) Child(key string) any {
	v, _ := n.Children.Get(key)

	return v
}

// ChildNode returns the child under key when it is a node.
func (n *Node) ChildNode(key string) *Node {
	child, _ := n.Child(key).(*Node)

	return child
}

// Keys returns the child keys in order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, n.Children.Len())
	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	return keys
}

// List returns the child values in order.
func (n *Node) List() []any {
	values := make([]any, 0, n.Children.Len())
	for pair := n.Children.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}

	return values
}

// Len returns the number of children.
func (n *Node) Len() int {
	return n.Children.Len()
}

func normalize(value any) any {
	if child, ok := value.(*Node); ok && child == nil {
		return nil
	}

	return value
}
