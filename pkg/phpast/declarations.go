package phpast

import (
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

const closureName = "{closure}"

// declaration is a declaration node whose id was reserved before its
// children were converted, so ids follow source pre-order.
type declaration struct {
	node   *ast.Node
	origin *cst.Node
	id     uint32
}

// declare starts a declaration node. From schema 70 the name and doc
// comment lead the children; before that they travel in the Decl side
// channel.
func (c *converter) declare(kind ast.Kind, flags ast.Flags, n *cst.Node, name, doc any) *declaration {
	d := &declaration{
		node:   c.node(kind, flags, n),
		origin: n,
		id:     c.ctx.NextDeclID(),
	}

	if c.ctx.Version.DeclMetadataInChildren() {
		d.node.Set("name", name).Set("docComment", doc)
	} else {
		d.node.Decl = &ast.DeclInfo{Name: name, DocComment: doc}
	}

	return d
}

// finish appends the trailing attributes and declaration id and records
// the end line.
func (c *converter) finish(d *declaration, attrs any) *ast.Node {
	if c.ctx.Version.HasAttributes() {
		d.node.Set("attributes", attrs)
	}

	end := d.origin.End
	if end > d.origin.Start {
		end--
	}

	d.node.EndLine = c.ctx.Lines.Line(int(end))

	if d.node.Decl != nil {
		d.node.Decl.DeclID = d.id
		d.node.Decl.EndLine = d.node.EndLine

		return d.node
	}

	d.node.Set("__declId", int64(d.id))

	return d.node
}

// docComment returns the closest "/**" comment written before n, looking
// back only across comments.
func (c *converter) docComment(n *cst.Node) any {
	for p := n.PrevSibling(); p != nil; p = p.PrevSibling() {
		if p.Kind != "comment" {
			return nil
		}

		if text := c.text(p); strings.HasPrefix(text, "/**") {
			return text
		}
	}

	return nil
}

func returnsRef(n *cst.Node) bool {
	return n.HasToken("&") || n.FirstNamed("reference_modifier") != nil
}

func convertFunction(c *converter, n *cst.Node) (any, error) {
	name, err := c.identifier(n, n.ChildByField("name"))
	if err != nil {
		return nil, err
	}

	var flags ast.Flags
	if returnsRef(n) {
		flags |= ast.FuncReturnsRef
	}

	d := c.declare(ast.KindFuncDecl, flags, n, name, c.docComment(n))

	return c.functionBody(d, n, nil)
}

// functionBody fills the children shared by every function-like
// declaration after name and docComment.
func (c *converter) functionBody(d *declaration, n *cst.Node, uses any) (any, error) {
	pop := c.pushFunction(d.node)
	defer pop()

	params, err := c.params(n)
	if err != nil {
		return nil, err
	}

	var stmts any

	if body := n.ChildByField("body"); body != nil {
		if d.node.Kind == ast.KindArrowFunc {
			v, err := c.requireExpr(n, body)
			if err != nil {
				return nil, err
			}

			stmts = c.node(ast.KindReturn, 0, body).Set("expr", v)
		} else {
			list := c.node(ast.KindStmtList, 0, body)
			if err := c.appendStatements(list, body.Children); err != nil {
				return nil, err
			}

			stmts = list
		}
	} else if d.node.Kind == ast.KindArrowFunc {
		v, err := c.invalid(n, placeholderConst)
		if err != nil {
			return nil, err
		}

		stmts = c.node(ast.KindReturn, 0, n).Set("expr", v)
	}

	returnType, err := c.typ(n.ChildByField("return_type"))
	if err != nil {
		return nil, err
	}

	attrs, err := c.attributes(n)
	if err != nil {
		return nil, err
	}

	d.node.Set("params", params).
		Set("uses", uses).
		Set("stmts", stmts).
		Set("returnType", returnType)

	return c.finish(d, attrs), nil
}

func convertMethod(c *converter, n *cst.Node) (any, error) {
	name, err := c.identifier(n, n.ChildByField("name"))
	if err != nil {
		return nil, err
	}

	flags := c.memberModifiers(n)
	if returnsRef(n) {
		flags |= ast.FuncReturnsRef
	}

	d := c.declare(ast.KindMethod, flags, n, name, c.docComment(n))

	return c.functionBody(d, n, nil)
}

func convertClosure(c *converter, n *cst.Node) (any, error) {
	var flags ast.Flags

	if n.FirstNamed("static_modifier") != nil || n.HasToken("static") {
		flags |= ast.ModifierStatic
	}

	if returnsRef(n) {
		flags |= ast.FuncReturnsRef
	}

	kind := ast.KindClosure
	if n.Kind == "arrow_function" {
		kind = ast.KindArrowFunc
	}

	d := c.declare(kind, flags, n, closureName, nil)

	var uses any

	if clause := n.FirstNamed("anonymous_function_use_clause"); clause != nil {
		list, err := c.closureUses(clause)
		if err != nil {
			return nil, err
		}

		uses = list
	}

	return c.functionBody(d, n, uses)
}

func (c *converter) closureUses(n *cst.Node) (*ast.Node, error) {
	list := c.node(ast.KindClosureUses, 0, n)

	for _, child := range n.NamedChildren() {
		var flags ast.Flags

		target := child
		if child.Kind == "by_ref" {
			flags = ast.ClosureUseRef
			target = child.FirstNamed()
		}

		name, err := c.variableName(child, target)
		if err != nil {
			return nil, err
		}

		list.Append(c.node(ast.KindClosureVar, flags, child).Set("name", name))
	}

	return list, nil
}

// variableName returns the name of a variable_name node without its "$".
func (c *converter) variableName(parent, n *cst.Node) (string, error) {
	if n == nil {
		return c.invalidIdentifier(parent, placeholderIdentifier)
	}

	if inner := n.FirstNamed("name"); inner != nil {
		n = inner
	}

	return c.identifier(parent, n)
}

func (c *converter) params(n *cst.Node) (*ast.Node, error) {
	paramsNode := n.ChildByField("parameters")
	if paramsNode == nil {
		paramsNode = n.FirstNamed("formal_parameters")
	}

	if paramsNode == nil {
		return c.node(ast.KindParamList, 0, n), nil
	}

	list := c.node(ast.KindParamList, 0, paramsNode)

	for _, p := range paramsNode.NamedChildren() {
		switch p.Kind {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			if p.IsError() {
				v, err := c.invalid(p, placeholderVariable)
				if err != nil {
					return nil, err
				}

				list.Append(c.node(ast.KindParam, 0, p).Set("type", nil).Set("name", v).Set("default", nil))
			}

			continue
		}

		param, err := c.param(p)
		if err != nil {
			return nil, err
		}

		list.Append(param)
	}

	return list, nil
}

func (c *converter) param(n *cst.Node) (*ast.Node, error) {
	flags, _ := c.modifiers(n)

	if returnsRef(n) {
		flags |= ast.ParamRef
	}

	if n.Kind == "variadic_parameter" || n.HasToken("...") {
		flags |= ast.ParamVariadic
	}

	typeNode := n.ChildByField("type")
	if typeNode != nil && typeNode.Kind == "optional_type" {
		flags |= ast.ParamNullable
	}

	typ, err := c.typ(typeNode)
	if err != nil {
		return nil, err
	}

	name, err := c.variableName(n, n.ChildByField("name"))
	if err != nil {
		return nil, err
	}

	def, err := c.optExpr(n.ChildByField("default_value"))
	if err != nil {
		return nil, err
	}

	param := c.node(ast.KindParam, flags, n).
		Set("type", typ).
		Set("name", name).
		Set("default", def)

	if c.ctx.Version.HasAttributes() {
		attrs, err := c.attributes(n)
		if err != nil {
			return nil, err
		}

		param.Set("attributes", attrs).Set("docComment", c.docComment(n))
	}

	return param, nil
}

var classModifiers = map[string]ast.Flags{
	"abstract_modifier": ast.ClassAbstract,
	"final_modifier":    ast.ClassFinal,
	"readonly_modifier": ast.ClassReadonly,
}

func convertClass(c *converter, n *cst.Node) (any, error) {
	var flags ast.Flags

	switch n.Kind {
	case "interface_declaration":
		flags = ast.ClassInterface
	case "trait_declaration":
		flags = ast.ClassTrait
	case "enum_declaration":
		flags = ast.ClassEnum
	}

	for _, child := range n.Children {
		flags |= classModifiers[child.Kind]
	}

	name, err := c.identifier(n, n.ChildByField("name"))
	if err != nil {
		return nil, err
	}

	d := c.declare(ast.KindClass, flags, n, name, c.docComment(n))

	return c.classBody(d, n)
}

// anonymousClass converts "new class(...) extends A {}" into an AST_NEW
// whose class is an anonymous AST_CLASS.
func (c *converter) anonymousClass(expr, n *cst.Node) (any, error) {
	flags := ast.ClassAnonymous
	for _, child := range n.Children {
		flags |= classModifiers[child.Kind]
	}

	d := c.declare(ast.KindClass, flags, n, nil, c.docComment(expr))

	class, err := c.classBody(d, n)
	if err != nil {
		return nil, err
	}

	args, err := c.args(n, n.FirstNamed("arguments"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindNew, 0, expr).Set("class", class).Set("args", args), nil
}

func (c *converter) classBody(d *declaration, n *cst.Node) (any, error) {
	var (
		extends, implements any
		err                 error
	)

	if base := n.FirstNamed("base_clause"); base != nil {
		parents, err := c.nameList(base)
		if err != nil {
			return nil, err
		}

		if d.node.Flags&ast.ClassInterface != 0 {
			implements = parents
		} else if parents.Len() > 0 {
			extends = parents.List()[0]
		}
	}

	if clause := n.FirstNamed("class_interface_clause"); clause != nil {
		implements, err = c.nameList(clause)
		if err != nil {
			return nil, err
		}
	}

	var backing any

	if colon := n.TokenIndex(":"); colon >= 0 {
		for _, child := range n.Children[colon+1:] {
			if child.Named && !child.Extra {
				backing, err = c.typ(child)
				if err != nil {
					return nil, err
				}

				break
			}
		}
	}

	body := n.ChildByField("body")
	if body == nil {
		body = n.FirstNamed("declaration_list", "enum_declaration_list")
	}

	origin := n
	if body != nil {
		origin = body
	}

	stmts := c.node(ast.KindStmtList, 0, origin)

	if body != nil {
		for _, member := range body.NamedChildren() {
			v, err := c.member(member)
			if err != nil {
				return nil, err
			}

			appendValue(stmts, v)
		}
	}

	attrs, err := c.attributes(n)
	if err != nil {
		return nil, err
	}

	d.node.Set("extends", extends).
		Set("implements", implements).
		Set("stmts", stmts)

	if c.ctx.Version.HasAttributes() {
		d.node.Set("attributes", attrs)
	}

	if c.ctx.Version.HasClassType() {
		d.node.Set("type", backing)
	}

	return c.finish(d, attrs), nil
}

// member converts one class body entry.
func (c *converter) member(n *cst.Node) (any, error) {
	switch n.Kind {
	case "property_declaration":
		return c.property(n)
	case "const_declaration":
		return c.classConst(n)
	case "enum_case":
		return c.enumCase(n)
	case "ERROR":
		return c.recoverStatements(n)
	default:
		return c.stmt(n)
	}
}

func (c *converter) property(n *cst.Node) (any, error) {
	flags := c.memberModifiers(n)
	doc := c.docComment(n)

	decl := c.node(ast.KindPropDecl, 0, n)

	for _, elem := range n.NamedChildren() {
		if elem.Kind != "property_element" {
			continue
		}

		nameNode := elem.ChildByField("name")
		if nameNode == nil {
			nameNode = elem.FirstNamed("variable_name")
		}

		name, err := c.variableName(elem, nameNode)
		if err != nil {
			return nil, err
		}

		defNode := elem.ChildByField("default_value")
		if defNode == nil {
			if init := elem.FirstNamed("property_initializer"); init != nil {
				defNode = init.FirstNamed()
			}
		}

		def, err := c.optExpr(defNode)
		if err != nil {
			return nil, err
		}

		decl.Append(c.node(ast.KindPropElem, 0, elem).
			Set("name", name).
			Set("default", def).
			Set("docComment", doc))

		doc = nil
	}

	if !c.ctx.Version.GroupsClassMembers() {
		decl.Flags = flags

		return decl, nil
	}

	typ, err := c.typ(n.ChildByField("type"))
	if err != nil {
		return nil, err
	}

	group := c.node(ast.KindPropGroup, flags, n).Set("type", typ).Set("props", decl)

	if c.ctx.Version.HasAttributes() {
		attrs, err := c.attributes(n)
		if err != nil {
			return nil, err
		}

		group.Set("attributes", attrs)
	}

	return group, nil
}

func (c *converter) classConst(n *cst.Node) (any, error) {
	flags := c.memberModifiers(n)

	decl := c.node(ast.KindClassConstDecl, 0, n)
	if err := c.constElements(decl, n); err != nil {
		return nil, err
	}

	if !c.ctx.Version.HasAttributes() {
		decl.Flags = flags

		return decl, nil
	}

	attrs, err := c.attributes(n)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindClassConstGroup, flags, n).Set("const", decl).Set("attributes", attrs), nil
}

func (c *converter) enumCase(n *cst.Node) (any, error) {
	name, err := c.identifier(n, n.ChildByField("name"))
	if err != nil {
		return nil, err
	}

	value, err := c.optExpr(n.ChildByField("value"))
	if err != nil {
		return nil, err
	}

	attrs, err := c.attributes(n)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindEnumCase, 0, n).
		Set("name", name).
		Set("expr", value).
		Set("docComment", c.docComment(n)).
		Set("attributes", attrs), nil
}
