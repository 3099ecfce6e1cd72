package phpast

import (
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

const relativePrefix = `namespace\`

var magicConstants = map[string]ast.Flags{
	"__line__":      ast.MagicLine,
	"__file__":      ast.MagicFile,
	"__dir__":       ast.MagicDir,
	"__namespace__": ast.MagicNamespace,
	"__function__":  ast.MagicFunction,
	"__method__":    ast.MagicMethod,
	"__class__":     ast.MagicClass,
	"__trait__":     ast.MagicTrait,
}

// typeKeywords are the reserved type names that become AST_TYPE.
var typeKeywords = map[string]ast.Flags{
	"null":     ast.TypeNull,
	"false":    ast.TypeFalse,
	"true":     ast.TypeTrue,
	"int":      ast.TypeLong,
	"float":    ast.TypeDouble,
	"string":   ast.TypeString,
	"array":    ast.TypeArray,
	"object":   ast.TypeObject,
	"callable": ast.TypeCallable,
	"iterable": ast.TypeIterable,
	"void":     ast.TypeVoid,
	"static":   ast.TypeStatic,
	"mixed":    ast.TypeMixed,
	"never":    ast.TypeNever,
	"bool":     ast.TypeBool,
}

var castTypes = map[string]ast.Flags{
	"array":   ast.TypeArray,
	"bool":    ast.TypeBool,
	"boolean": ast.TypeBool,
	"int":     ast.TypeLong,
	"integer": ast.TypeLong,
	"float":   ast.TypeDouble,
	"double":  ast.TypeDouble,
	"real":    ast.TypeDouble,
	"string":  ast.TypeString,
	"binary":  ast.TypeString,
	"object":  ast.TypeObject,
	"unset":   ast.TypeNull,
}

// qualify splits a written name into its qualification flag and the name
// without the qualifying prefix.
func qualify(text string) (ast.Flags, string) {
	text = strings.Join(strings.Fields(text), "")

	switch {
	case strings.HasPrefix(text, `\`):
		return ast.NameFQ, text[1:]
	case len(text) > len(relativePrefix) && strings.EqualFold(text[:len(relativePrefix)], relativePrefix):
		return ast.NameRelative, text[len(relativePrefix):]
	default:
		return ast.NameNotFQ, text
	}
}

// name builds an AST_NAME from a non-nil name-like node: name,
// qualified_name, relative_name, namespace_name, relative_scope or
// named_type.
func (c *converter) name(n *cst.Node) (*ast.Node, error) {
	if n.Missing || n.IsError() || n.Start == n.End {
		return c.invalidName(n)
	}

	if n.Kind == "named_type" {
		if inner := n.FirstNamed(); inner != nil {
			n = inner
		}
	}

	flags, name := qualify(c.text(n))

	return c.node(ast.KindName, flags, n).Set("name", name), nil
}

// requireName is name for a mandatory child of parent.
func (c *converter) requireName(parent, n *cst.Node) (*ast.Node, error) {
	if n == nil {
		return c.invalidName(parent)
	}

	return c.name(n)
}

// identifier returns the text of a name token, or a placeholder string.
func (c *converter) identifier(parent, n *cst.Node) (string, error) {
	if n == nil {
		return c.invalidIdentifier(parent, placeholderIdentifier)
	}

	if n.Missing || n.IsError() || n.Start == n.End {
		return c.invalidIdentifier(n, placeholderIdentifier)
	}

	return strings.TrimSpace(c.text(n)), nil
}

// convertConstant handles a bare or qualified name in expression position:
// a magic constant or an AST_CONST.
func convertConstant(c *converter, n *cst.Node) (any, error) {
	if n.Start == n.End {
		return c.invalid(n, placeholderConst)
	}

	if flag, ok := magicConstants[strings.ToLower(strings.TrimSpace(c.text(n)))]; ok {
		return c.node(ast.KindMagicConst, flag, n), nil
	}

	name, err := c.name(n)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindConst, 0, n).Set("name", name), nil
}

func convertName(c *converter, n *cst.Node) (any, error) {
	return c.name(n)
}

// classRef converts a class designator: names become AST_NAME, anything
// else is an expression.
func (c *converter) classRef(parent, n *cst.Node) (any, error) {
	if n == nil {
		return c.invalidName(parent)
	}

	switch n.Kind {
	case "name", "qualified_name", "relative_name", "relative_scope", "named_type", "namespace_name":
		return c.name(n)
	default:
		return c.expr(n)
	}
}

// typ converts a type declaration. An absent type is nil.
func (c *converter) typ(n *cst.Node) (any, error) {
	if n == nil {
		return nil, nil
	}

	if n.Missing || n.IsError() {
		return c.invalidName(n)
	}

	if !n.Named {
		return c.simpleType(n)
	}

	switch n.Kind {
	case "optional_type":
		inner, err := c.typ(n.FirstNamed())
		if err != nil {
			return nil, err
		}

		if inner == nil {
			return c.invalidName(n)
		}

		return c.node(ast.KindNullableType, 0, n).Set("type", inner), nil
	case "union_type", "disjunctive_normal_form_type":
		return c.typeList(ast.KindTypeUnion, n)
	case "intersection_type":
		return c.typeList(ast.KindTypeIntersection, n)
	case "primitive_type", "bottom_type", "named_type", "name", "qualified_name", "relative_name", "relative_scope":
		return c.simpleType(n)
	case "parenthesized_type":
		return c.typ(n.FirstNamed())
	default:
		return c.dispatch(n)
	}
}

func (c *converter) simpleType(n *cst.Node) (any, error) {
	text := strings.ToLower(strings.TrimSpace(c.text(n)))

	if flag, ok := typeKeywords[text]; ok {
		return c.node(ast.KindType, flag, n), nil
	}

	return c.name(n)
}

func (c *converter) typeList(kind ast.Kind, n *cst.Node) (any, error) {
	list := c.node(kind, 0, n)

	for _, child := range n.NamedChildren() {
		t, err := c.typ(child)
		if err != nil {
			return nil, err
		}

		list.Append(t)
	}

	return list, nil
}

func convertType(c *converter, n *cst.Node) (any, error) {
	return c.typ(n)
}

// nameList converts every name-like named child of n into an AST_NAME_LIST.
func (c *converter) nameList(n *cst.Node) (*ast.Node, error) {
	list := c.node(ast.KindNameList, 0, n)

	for _, child := range n.NamedChildren() {
		name, err := c.name(child)
		if err != nil {
			return nil, err
		}

		list.Append(name)
	}

	return list, nil
}

// modifiers collects the modifier flags written on a declaration.
func (c *converter) modifiers(n *cst.Node) (flags ast.Flags, visibility bool) {
	for _, child := range n.Children {
		switch child.Kind {
		case "visibility_modifier":
			visibility = true

			text := strings.ToLower(c.text(child))

			switch {
			case strings.HasPrefix(text, "private"):
				flags |= ast.ModifierPrivate
			case strings.HasPrefix(text, "protected"):
				flags |= ast.ModifierProtected
			default:
				flags |= ast.ModifierPublic
			}
		case "var_modifier":
			visibility = true
			flags |= ast.ModifierPublic
		case "static_modifier":
			flags |= ast.ModifierStatic
		case "final_modifier":
			flags |= ast.ModifierFinal
		case "abstract_modifier":
			flags |= ast.ModifierAbstract
		case "readonly_modifier":
			flags |= ast.ModifierReadonly
		}
	}

	return flags, visibility
}

// memberModifiers applies the implicit public visibility of class members.
func (c *converter) memberModifiers(n *cst.Node) ast.Flags {
	flags, visibility := c.modifiers(n)
	if !visibility {
		flags |= ast.ModifierPublic
	}

	return flags
}

// attributes converts the attribute_list of a declaration, or nil.
func (c *converter) attributes(n *cst.Node) (any, error) {
	list := n.ChildByField("attributes")
	if list == nil {
		list = n.FirstNamed("attribute_list")
	}

	if list == nil {
		return nil, nil
	}

	return convertAttributeList(c, list)
}

func convertAttributeList(c *converter, n *cst.Node) (any, error) {
	out := c.node(ast.KindAttributeList, 0, n)

	for _, group := range n.NamedChildren() {
		if group.Kind != "attribute_group" {
			continue
		}

		g := c.node(ast.KindAttributeGroup, 0, group)

		for _, attr := range group.NamedChildren() {
			if attr.Kind != "attribute" {
				continue
			}

			a, err := c.attribute(attr)
			if err != nil {
				return nil, err
			}

			g.Append(a)
		}

		out.Append(g)
	}

	return out, nil
}

func (c *converter) attribute(n *cst.Node) (*ast.Node, error) {
	class, err := c.requireName(n, n.FirstNamed("name", "qualified_name"))
	if err != nil {
		return nil, err
	}

	var args any

	if params := n.ChildByField("parameters"); params != nil {
		args, err = c.args(n, params)
	} else if params := n.FirstNamed("arguments"); params != nil {
		args, err = c.args(n, params)
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindAttribute, 0, n).Set("class", class).Set("args", args), nil
}
