package cst

// identifierTokens are leaves that only carry meaning through their parent.
var identifierTokens = map[string]bool{
	"name":            true,
	"$":               true,
	`\`:               true,
	"string_content":  true,
	"string_value":    true,
	"escape_sequence": true,
	"string":          true,
}

// memberKinds promote a selected member name to the whole access.
var memberKinds = map[string]bool{
	"member_access_expression":          true,
	"nullsafe_member_access_expression": true,
	"member_call_expression":            true,
	"nullsafe_member_call_expression":   true,
	"scoped_property_access_expression": true,
	"scoped_call_expression":            true,
	"class_constant_access_expression":  true,
	"namespace_use_clause":              true,
	"namespace_use_group_clause":        true,
}

// statementKinds never replace a selected identifier.
var statementKinds = map[string]bool{
	"program":              true,
	"expression_statement": true,
	"compound_statement":   true,
	"declaration_list":     true,
	KindError:              true,
}

// Locate returns the node a cursor at offset selects, or nil when the
// offset falls on whitespace, a comment or outside the source.
//
// Identifier leaves (names, variable names, string pieces, namespace
// separators) are promoted to their parent. A member name is promoted once
// more to the member access, scoped access or use clause holding it.
func (t *Tree) Locate(offset uint32) *Node {
	n := t.deepest(t.Root, offset)
	if n == nil {
		return nil
	}

	if n.IsToken() && identifierTokens[n.Kind] && n.Parent != nil && !statementKinds[n.Parent.Kind] {
		n = n.Parent
	}

	if p := n.Parent; p != nil && memberKinds[p.Kind] && isMemberName(p, n) {
		n = p
	}

	return n
}

func (t *Tree) deepest(n *Node, offset uint32) *Node {
	if n == nil || !n.Contains(offset) {
		return nil
	}

	for _, child := range n.Children {
		if child.Contains(offset) {
			if child.Extra {
				return nil
			}

			return t.deepest(child, offset)
		}
	}

	if int(offset) < len(t.Source) && isSpace(t.Source[offset]) {
		return nil
	}

	return n
}

func isMemberName(parent, n *Node) bool {
	switch parent.Kind {
	case "class_constant_access_expression":
		named := parent.NamedChildren()

		return len(named) > 1 && named[len(named)-1] == n
	case "namespace_use_clause", "namespace_use_group_clause":
		return n.Kind == "name" || n.Kind == "qualified_name" || n.Kind == "namespace_name"
	default:
		return n.Field == "name"
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
