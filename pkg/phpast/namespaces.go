package phpast

import (
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

var useKinds = map[string]ast.Flags{
	"function": ast.UseFunction,
	"const":    ast.UseConst,
}

func convertNamespace(c *converter, n *cst.Node) (any, error) {
	var name any

	if nameNode := n.ChildByField("name"); nameNode != nil {
		_, text := qualify(c.text(nameNode))
		name = text
	} else if nameNode := n.FirstNamed("namespace_name"); nameNode != nil {
		_, text := qualify(c.text(nameNode))
		name = text
	}

	var stmts any

	if body := n.ChildByField("body"); body != nil {
		list := c.node(ast.KindStmtList, 0, body)
		if err := c.appendStatements(list, body.Children); err != nil {
			return nil, err
		}

		stmts = list
	} else if body := n.FirstNamed("compound_statement"); body != nil {
		list := c.node(ast.KindStmtList, 0, body)
		if err := c.appendStatements(list, body.Children); err != nil {
			return nil, err
		}

		stmts = list
	}

	return c.node(ast.KindNamespace, 0, n).Set("name", name).Set("stmts", stmts), nil
}

// useType returns the function/const qualifier written directly on n.
func useType(n *cst.Node) ast.Flags {
	for _, child := range n.Children {
		if child.Named && child.Kind != "function" && child.Kind != "const" {
			continue
		}

		if f, ok := useKinds[strings.ToLower(child.Kind)]; ok {
			return f
		}
	}

	return 0
}

func convertNamespaceUse(c *converter, n *cst.Node) (any, error) {
	flags := useType(n)

	group := n.FirstNamed("namespace_use_group", "namespace_use_group_clause")
	if group != nil && n.FirstNamed("namespace_use_clause") == nil {
		return c.groupUse(n, group, flags)
	}

	if flags == 0 {
		flags = ast.UseNormal
	}

	list := c.node(ast.KindUse, flags, n)

	for _, clause := range n.NamedChildren() {
		switch clause.Kind {
		case "namespace_use_clause":
			elem, err := c.useElem(clause, 0)
			if err != nil {
				return nil, err
			}

			list.Append(elem)
		case "namespace_use_group", "namespace_use_group_clause":
			v, err := c.groupUse(n, clause, flags)
			if err != nil {
				return nil, err
			}

			return v, nil
		}
	}

	return list, nil
}

// groupUse converts "use A\{B, function c};". The prefix is whatever name
// is written before the braces.
func (c *converter) groupUse(n, group *cst.Node, flags ast.Flags) (any, error) {
	var prefix string

	if prefixNode := n.FirstNamed("namespace_name", "qualified_name", "name"); prefixNode != nil {
		_, prefix = qualify(c.text(prefixNode))
	} else if prefixNode := group.FirstNamed("namespace_name"); prefixNode != nil {
		_, prefix = qualify(c.text(prefixNode))
	}

	prefix = strings.TrimSuffix(prefix, `\`)
	if prefix == "" {
		var err error

		prefix, err = c.invalidIdentifier(n, placeholderIdentifier)
		if err != nil {
			return nil, err
		}
	}

	useFlags := flags
	if useFlags == 0 {
		useFlags = ast.UseNormal
	}

	uses := c.node(ast.KindUse, useFlags, group)

	for _, clause := range group.NamedChildren() {
		if clause.Kind != "namespace_use_clause" && clause.Kind != "namespace_use_group_clause" {
			continue
		}

		elem, err := c.useElem(clause, useType(clause))
		if err != nil {
			return nil, err
		}

		uses.Append(elem)
	}

	return c.node(ast.KindGroupUse, flags, n).Set("prefix", prefix).Set("uses", uses), nil
}

func (c *converter) useElem(n *cst.Node, flags ast.Flags) (*ast.Node, error) {
	var nameNode, aliasNode *cst.Node

	for _, child := range n.NamedChildren() {
		switch {
		case child.Field == "alias":
			aliasNode = child
		case child.Kind == "namespace_aliasing_clause":
			aliasNode = child.FirstNamed("name")
		case nameNode == nil && (child.Kind == "name" || child.Kind == "qualified_name" || child.Kind == "namespace_name"):
			nameNode = child
		case nameNode != nil && aliasNode == nil && child.Kind == "name" && n.HasToken("as"):
			aliasNode = child
		}
	}

	var (
		name string
		err  error
	)

	if nameNode == nil || nameNode.Missing || nameNode.Start == nameNode.End {
		name, err = c.invalidIdentifier(n, placeholderIdentifier)
		if err != nil {
			return nil, err
		}
	} else {
		_, name = qualify(c.text(nameNode))
	}

	var alias any

	if aliasNode != nil {
		alias, err = c.identifier(n, aliasNode)
		if err != nil {
			return nil, err
		}
	}

	return c.node(ast.KindUseElem, flags, n).Set("name", name).Set("alias", alias), nil
}

func convertTraitUse(c *converter, n *cst.Node) (any, error) {
	traits := c.node(ast.KindNameList, 0, n)

	var adaptations any

	for _, child := range n.NamedChildren() {
		switch child.Kind {
		case "name", "qualified_name", "relative_name", "relative_scope":
			name, err := c.name(child)
			if err != nil {
				return nil, err
			}

			traits.Append(name)
		case "use_list":
			list, err := c.traitAdaptations(child)
			if err != nil {
				return nil, err
			}

			adaptations = list
		}
	}

	return c.node(ast.KindUseTrait, 0, n).Set("traits", traits).Set("adaptations", adaptations), nil
}

func (c *converter) traitAdaptations(n *cst.Node) (*ast.Node, error) {
	list := c.node(ast.KindTraitAdaptations, 0, n)

	for _, clause := range n.NamedChildren() {
		var (
			v   *ast.Node
			err error
		)

		switch clause.Kind {
		case "use_instead_of_clause":
			v, err = c.traitPrecedence(clause)
		case "use_as_clause":
			v, err = c.traitAlias(clause)
		default:
			continue
		}

		if err != nil {
			return nil, err
		}

		list.Append(v)
	}

	return list, nil
}

// methodReference converts "A::m" or a bare "m" into AST_METHOD_REFERENCE.
func (c *converter) methodReference(n *cst.Node) (*ast.Node, error) {
	var (
		class  any
		method string
		err    error
	)

	if n.Kind == "class_constant_access_expression" {
		named := n.NamedChildren()
		if len(named) > 0 {
			class, err = c.classRef(n, named[0])
			if err != nil {
				return nil, err
			}
		}

		var nameNode *cst.Node
		if len(named) > 1 {
			nameNode = named[len(named)-1]
		}

		method, err = c.identifier(n, nameNode)
	} else {
		method, err = c.identifier(n, n)
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindMethodReference, 0, n).Set("class", class).Set("method", method), nil
}

func (c *converter) traitPrecedence(n *cst.Node) (*ast.Node, error) {
	named := n.NamedChildren()
	if len(named) == 0 {
		return nil, c.fail(n, ErrInvalidNode)
	}

	ref, err := c.methodReference(named[0])
	if err != nil {
		return nil, err
	}

	insteadof := c.node(ast.KindNameList, 0, n)

	for _, child := range named[1:] {
		name, err := c.name(child)
		if err != nil {
			return nil, err
		}

		insteadof.Append(name)
	}

	return c.node(ast.KindTraitPrecedence, 0, n).Set("method", ref).Set("insteadof", insteadof), nil
}

func (c *converter) traitAlias(n *cst.Node) (*ast.Node, error) {
	named := n.NamedChildren()
	if len(named) == 0 {
		return nil, c.fail(n, ErrInvalidNode)
	}

	ref, err := c.methodReference(named[0])
	if err != nil {
		return nil, err
	}

	flags, _ := c.modifiers(n)

	var alias any

	for _, child := range named[1:] {
		if child.Kind == "name" {
			alias = strings.TrimSpace(c.text(child))
		}
	}

	return c.node(ast.KindTraitAlias, flags, n).Set("method", ref).Set("alias", alias), nil
}
