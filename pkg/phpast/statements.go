package phpast

import (
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// statementKinds are the CST kinds recovered from inside ERROR nodes.
var statementKinds = map[string]bool{
	"expression_statement":        true,
	"compound_statement":          true,
	"echo_statement":              true,
	"unset_statement":             true,
	"declare_statement":           true,
	"try_statement":               true,
	"throw_statement":             true,
	"goto_statement":              true,
	"named_label_statement":       true,
	"continue_statement":          true,
	"break_statement":             true,
	"return_statement":            true,
	"exit_statement":              true,
	"if_statement":                true,
	"while_statement":             true,
	"do_statement":                true,
	"for_statement":               true,
	"foreach_statement":           true,
	"switch_statement":            true,
	"namespace_definition":        true,
	"namespace_use_declaration":   true,
	"function_definition":         true,
	"class_declaration":           true,
	"interface_declaration":       true,
	"trait_declaration":           true,
	"enum_declaration":            true,
	"const_declaration":           true,
	"global_declaration":          true,
	"function_static_declaration": true,
}

func convertProgram(c *converter, n *cst.Node) (any, error) {
	list := c.node(ast.KindStmtList, 0, n)

	if err := c.appendStatements(list, n.Children); err != nil {
		return nil, err
	}

	return list, nil
}

// appendStatements converts a run of statement-position children into list.
func (c *converter) appendStatements(list *ast.Node, children []*cst.Node) error {
	for _, child := range children {
		if !child.Named || child.Extra {
			continue
		}

		v, err := c.stmt(child)
		if err != nil {
			return err
		}

		appendValue(list, v)
	}

	return nil
}

// stmt converts one statement-position node.
func (c *converter) stmt(n *cst.Node) (any, error) {
	switch {
	case n.IsError():
		return c.recoverStatements(n)
	case n.Kind == "php_tag":
		c.echoTag = strings.HasPrefix(c.text(n), "<?=")

		return nil, nil
	case c.echoTag && n.Kind == "expression_statement":
		c.echoTag = false

		return c.echo(n, n.NamedChildren())
	}

	c.echoTag = false

	return c.dispatch(n)
}

// recoverStatements keeps the complete statements found inside an ERROR
// node and drops the skipped tokens around them.
func (c *converter) recoverStatements(n *cst.Node) (any, error) {
	var out splice

	for _, child := range n.NamedChildren() {
		if !child.IsError() && !statementKinds[child.Kind] {
			continue
		}

		v, err := c.stmt(child)
		if err != nil {
			return nil, err
		}

		switch v := v.(type) {
		case nil:
		case splice:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}

	return out, nil
}

// block normalizes a statement body into an AST_STMT_LIST. Absent and
// empty bodies yield nil.
func (c *converter) block(n *cst.Node) (any, error) {
	if n == nil || n.Kind == "empty_statement" {
		return nil, nil
	}

	list := c.node(ast.KindStmtList, 0, n)

	switch n.Kind {
	case "compound_statement", "colon_block":
		if err := c.appendStatements(list, n.Children); err != nil {
			return nil, err
		}
	default:
		v, err := c.stmt(n)
		if err != nil {
			return nil, err
		}

		appendValue(list, v)
	}

	return list, nil
}

// trailingBody converts the body that follows the token at index after in
// n: a single statement, a braced block, or the statements of an
// alternative-syntax block.
func (c *converter) trailingBody(n *cst.Node, after int) (any, error) {
	if after < 0 {
		return nil, nil
	}

	var (
		stmts []*cst.Node
		colon bool
	)

	for _, child := range n.Children[after+1:] {
		switch {
		case !child.Named && child.Kind == ":":
			colon = true
		case child.Named && !child.Extra:
			stmts = append(stmts, child)
		}
	}

	if !colon && len(stmts) == 1 {
		return c.block(stmts[0])
	}

	if !colon && len(stmts) == 0 {
		return nil, nil
	}

	origin := n
	if len(stmts) > 0 {
		origin = stmts[0]
	}

	list := c.node(ast.KindStmtList, 0, origin)
	if err := c.appendStatements(list, stmts); err != nil {
		return nil, err
	}

	return list, nil
}

func convertCompound(c *converter, n *cst.Node) (any, error) {
	list := c.node(ast.KindStmtList, 0, n)
	if err := c.appendStatements(list, n.Children); err != nil {
		return nil, err
	}

	return splice(list.List()), nil
}

func convertEmpty(*converter, *cst.Node) (any, error) {
	return nil, nil
}

func convertExpressionStatement(c *converter, n *cst.Node) (any, error) {
	e := n.FirstNamed()
	if e == nil {
		return nil, nil
	}

	return c.expr(e)
}

// convertInlineHTML turns text outside PHP tags into echo statements.
func convertInlineHTML(c *converter, n *cst.Node) (any, error) {
	if n.Kind == "text" {
		return c.node(ast.KindEcho, 0, n).Set("expr", c.text(n)), nil
	}

	var out splice

	for _, child := range n.Children {
		switch child.Kind {
		case "text":
			out = append(out, c.node(ast.KindEcho, 0, child).Set("expr", c.text(child)))
		case "php_tag":
			c.echoTag = strings.HasPrefix(c.text(child), "<?=")
		}
	}

	return out, nil
}

func convertEcho(c *converter, n *cst.Node) (any, error) {
	return c.echo(n, n.NamedChildren())
}

// echo emits one AST_ECHO per printed expression.
func (c *converter) echo(n *cst.Node, exprs []*cst.Node) (any, error) {
	exprs = flattenSequence(exprs)
	if len(exprs) == 0 {
		v, err := c.invalid(n, placeholderConst)
		if err != nil {
			return nil, err
		}

		return c.node(ast.KindEcho, 0, n).Set("expr", v), nil
	}

	out := make(splice, 0, len(exprs))

	for _, e := range exprs {
		v, err := c.expr(e)
		if err != nil {
			return nil, err
		}

		out = append(out, c.node(ast.KindEcho, 0, e).Set("expr", v))
	}

	if len(out) == 1 {
		return out[0], nil
	}

	return out, nil
}

// flattenSequence expands comma-separated sequence_expression nodes.
func flattenSequence(nodes []*cst.Node) []*cst.Node {
	var out []*cst.Node

	for _, n := range nodes {
		if n.Kind == "sequence_expression" {
			out = append(out, flattenSequence(n.NamedChildren())...)

			continue
		}

		out = append(out, n)
	}

	return out
}

func convertUnset(c *converter, n *cst.Node) (any, error) {
	return c.eachVar(n, ast.KindUnset, n.NamedChildren())
}

func convertGlobal(c *converter, n *cst.Node) (any, error) {
	return c.eachVar(n, ast.KindGlobal, n.NamedChildren())
}

// eachVar emits one statement of kind per variable operand.
func (c *converter) eachVar(n *cst.Node, kind ast.Kind, vars []*cst.Node) (any, error) {
	if len(vars) == 0 {
		v, err := c.invalid(n, placeholderVariable)
		if err != nil {
			return nil, err
		}

		return c.node(kind, 0, n).Set("var", v), nil
	}

	out := make(splice, 0, len(vars))

	for _, child := range vars {
		v, err := c.variable(n, child)
		if err != nil {
			return nil, err
		}

		out = append(out, c.node(kind, 0, child).Set("var", v))
	}

	if len(out) == 1 {
		return out[0], nil
	}

	return out, nil
}

func convertStatic(c *converter, n *cst.Node) (any, error) {
	var out splice

	for _, decl := range n.NamedChildren() {
		nameNode := decl.ChildByField("name")
		if nameNode == nil {
			nameNode = decl.FirstNamed("variable_name")
		}

		v, err := c.variable(decl, nameNode)
		if err != nil {
			return nil, err
		}

		def, err := c.optExpr(decl.ChildByField("value"))
		if err != nil {
			return nil, err
		}

		out = append(out, c.node(ast.KindStatic, 0, decl).Set("var", v).Set("default", def))
	}

	if len(out) == 1 {
		return out[0], nil
	}

	return out, nil
}

func convertReturn(c *converter, n *cst.Node) (any, error) {
	v, err := c.optExpr(n.FirstNamed())
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindReturn, 0, n).Set("expr", v), nil
}

func convertBreak(c *converter, n *cst.Node) (any, error) {
	kind := ast.KindBreak
	if n.Kind == "continue_statement" {
		kind = ast.KindContinue
	}

	depth, err := c.optExpr(n.FirstNamed())
	if err != nil {
		return nil, err
	}

	return c.node(kind, 0, n).Set("depth", depth), nil
}

func convertGoto(c *converter, n *cst.Node) (any, error) {
	label, err := c.identifier(n, n.FirstNamed("name"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindGoto, 0, n).Set("label", label), nil
}

func convertLabel(c *converter, n *cst.Node) (any, error) {
	label, err := c.identifier(n, n.FirstNamed("name"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindLabel, 0, n).Set("name", label), nil
}

func convertExit(c *converter, n *cst.Node) (any, error) {
	v, err := c.optExpr(n.FirstNamed())
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindExit, 0, n).Set("expr", v), nil
}

func convertIf(c *converter, n *cst.Node) (any, error) {
	list := c.node(ast.KindIf, 0, n)

	elem, err := c.ifElem(n, n.ChildByField("condition"), n.ChildByField("body"), true)
	if err != nil {
		return nil, err
	}

	list.Append(elem)

	for _, alt := range n.NamedChildren() {
		switch alt.Kind {
		case "else_if_clause":
			elem, err = c.ifElem(alt, alt.ChildByField("condition"), alt.ChildByField("body"), true)
		case "else_clause":
			elem, err = c.ifElem(alt, nil, alt.ChildByField("body"), false)
		default:
			continue
		}

		if err != nil {
			return nil, err
		}

		list.Append(elem)
	}

	return list, nil
}

func (c *converter) ifElem(n, cond, body *cst.Node, hasCond bool) (*ast.Node, error) {
	var (
		condition any
		err       error
	)

	if hasCond {
		condition, err = c.requireExpr(n, cond)
		if err != nil {
			return nil, err
		}
	}

	if body == nil {
		body = clauseBody(n)
	}

	stmts, err := c.block(body)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindIfElem, 0, n).Set("cond", condition).Set("stmts", stmts), nil
}

// clauseBody finds the body of a clause whose grammar version does not
// label it: the last named child that is not the condition.
func clauseBody(n *cst.Node) *cst.Node {
	named := n.NamedChildren()
	for i := len(named) - 1; i >= 0; i-- {
		if named[i].Field != "condition" && named[i].Kind != "parenthesized_expression" {
			return named[i]
		}
	}

	return nil
}

func convertWhile(c *converter, n *cst.Node) (any, error) {
	cond, err := c.requireExpr(n, n.ChildByField("condition"))
	if err != nil {
		return nil, err
	}

	body := n.ChildByField("body")

	var stmts any

	if body != nil {
		stmts, err = c.block(body)
	} else {
		stmts, err = c.trailingBody(n, indexOfField(n, "condition"))
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindWhile, 0, n).Set("cond", cond).Set("stmts", stmts), nil
}

func convertDoWhile(c *converter, n *cst.Node) (any, error) {
	stmts, err := c.block(n.ChildByField("body"))
	if err != nil {
		return nil, err
	}

	cond, err := c.requireExpr(n, n.ChildByField("condition"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindDoWhile, 0, n).Set("stmts", stmts).Set("cond", cond), nil
}

func indexOfField(n *cst.Node, field string) int {
	for i, child := range n.Children {
		if child.Field == field {
			return i
		}
	}

	return -1
}

// convertFor partitions the header by its ';' tokens, which keeps empty
// clauses distinguishable across grammar versions.
func convertFor(c *converter, n *cst.Node) (any, error) {
	groups := [][]*cst.Node{nil}
	open, closeIdx := false, -1

scan:
	for i, child := range n.Children {
		switch {
		case !child.Named && child.Kind == "(" && !open:
			open = true
		case !open:
		case !child.Named && child.Kind == ";":
			groups = append(groups, nil)
		case !child.Named && child.Kind == ")":
			closeIdx = i

			break scan
		case child.Named && !child.Extra && child.Field != "body":
			groups[len(groups)-1] = append(groups[len(groups)-1], child)
		}
	}

	for len(groups) < 3 {
		groups = append(groups, nil)
	}

	clauses := make([]any, 3)

	for i := range clauses {
		list, err := c.exprList(groups[i])
		if err != nil {
			return nil, err
		}

		clauses[i] = list
	}

	var (
		stmts any
		err   error
	)

	if body := n.ChildByField("body"); body != nil && n.TokenIndex(":") < 0 {
		stmts, err = c.block(body)
	} else {
		stmts, err = c.trailingBody(n, closeIdx)
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindFor, 0, n).
		Set("init", clauses[0]).
		Set("cond", clauses[1]).
		Set("loop", clauses[2]).
		Set("stmts", stmts), nil
}

// exprList converts a comma-separated expression group into an
// AST_EXPR_LIST, or nil when the group is empty.
func (c *converter) exprList(nodes []*cst.Node) (any, error) {
	nodes = flattenSequence(nodes)
	if len(nodes) == 0 {
		return nil, nil
	}

	list := c.node(ast.KindExprList, 0, nodes[0])

	for _, e := range nodes {
		v, err := c.expr(e)
		if err != nil {
			return nil, err
		}

		list.Append(v)
	}

	return list, nil
}

func convertForeach(c *converter, n *cst.Node) (any, error) {
	asIdx := n.TokenIndex("as")
	closeIdx := n.TokenIndex(")")

	var subject, target *cst.Node

	for i, child := range n.Children {
		if !child.Named || child.Extra || child.Field == "body" {
			continue
		}

		switch {
		case asIdx >= 0 && i < asIdx && subject == nil:
			subject = child
		case asIdx >= 0 && i > asIdx && (closeIdx < 0 || i < closeIdx) && target == nil:
			target = child
		}
	}

	expr, err := c.requireExpr(n, subject)
	if err != nil {
		return nil, err
	}

	var key, valueNode *cst.Node

	if target != nil && (target.Kind == "pair" || target.Kind == "foreach_pair") {
		named := target.NamedChildren()
		if len(named) > 0 {
			key = named[0]
		}

		if len(named) > 1 {
			valueNode = named[len(named)-1]
		}
	} else {
		valueNode = target
	}

	value, err := c.foreachValue(n, valueNode)
	if err != nil {
		return nil, err
	}

	keyValue, err := c.optExpr(key)
	if err != nil {
		return nil, err
	}

	var stmts any

	if body := n.ChildByField("body"); body != nil {
		stmts, err = c.block(body)
	} else {
		stmts, err = c.trailingBody(n, closeIdx)
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindForeach, 0, n).
		Set("expr", expr).
		Set("value", value).
		Set("key", keyValue).
		Set("stmts", stmts), nil
}

func (c *converter) foreachValue(parent, n *cst.Node) (any, error) {
	if n != nil && n.Kind == "by_ref" {
		return convertByRef(c, n)
	}

	return c.variable(parent, n)
}

func convertSwitch(c *converter, n *cst.Node) (any, error) {
	cond, err := c.requireExpr(n, n.ChildByField("condition"))
	if err != nil {
		return nil, err
	}

	body := n.ChildByField("body")
	if body == nil {
		body = n.FirstNamed("switch_block")
	}

	origin := n
	if body != nil {
		origin = body
	}

	cases := c.node(ast.KindSwitchList, 0, origin)

	if body != nil {
		for _, child := range body.NamedChildren() {
			if child.Kind != "case_statement" && child.Kind != "default_statement" {
				continue
			}

			sc, err := c.switchCase(child)
			if err != nil {
				return nil, err
			}

			cases.Append(sc)
		}
	}

	return c.node(ast.KindSwitch, 0, n).Set("cond", cond).Set("stmts", cases), nil
}

func (c *converter) switchCase(n *cst.Node) (*ast.Node, error) {
	named := n.NamedChildren()

	var (
		cond any
		err  error
	)

	if n.Kind == "case_statement" {
		value := n.ChildByField("value")
		if value == nil && len(named) > 0 {
			value = named[0]
		}

		cond, err = c.requireExpr(n, value)
		if err != nil {
			return nil, err
		}

		if len(named) > 0 && named[0] == value {
			named = named[1:]
		}
	}

	stmts := c.node(ast.KindStmtList, 0, n)
	if err := c.appendStatements(stmts, named); err != nil {
		return nil, err
	}

	return c.node(ast.KindSwitchCase, 0, n).Set("cond", cond).Set("stmts", stmts), nil
}

func convertTry(c *converter, n *cst.Node) (any, error) {
	body, err := c.block(n.ChildByField("body"))
	if err != nil {
		return nil, err
	}

	catches := c.node(ast.KindCatchList, 0, n)

	var finally any

	for _, child := range n.NamedChildren() {
		switch child.Kind {
		case "catch_clause":
			cat, err := c.catch(child)
			if err != nil {
				return nil, err
			}

			catches.Append(cat)
		case "finally_clause":
			if finally != nil {
				continue
			}

			finally, err = c.block(child.ChildByField("body"))
			if err != nil {
				return nil, err
			}
		}
	}

	return c.node(ast.KindTry, 0, n).
		Set("try", body).
		Set("catches", catches).
		Set("finally", finally), nil
}

func (c *converter) catch(n *cst.Node) (*ast.Node, error) {
	typesNode := n.ChildByField("type")
	if typesNode == nil {
		typesNode = n.FirstNamed("type_list")
	}

	var types *ast.Node

	if typesNode == nil {
		name, err := c.invalidName(n)
		if err != nil {
			return nil, err
		}

		types = c.node(ast.KindNameList, 0, n).Append(name)
	} else {
		var err error
		if typesNode.Kind == "type_list" {
			types, err = c.nameList(typesNode)
		} else {
			var name *ast.Node

			name, err = c.name(typesNode)
			types = c.node(ast.KindNameList, 0, typesNode).Append(name)
		}

		if err != nil {
			return nil, err
		}
	}

	var (
		v   any
		err error
	)

	if nameNode := n.ChildByField("name"); nameNode != nil {
		v, err = c.variable(n, nameNode)
		if err != nil {
			return nil, err
		}
	}

	stmts, err := c.block(n.ChildByField("body"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindCatch, 0, n).Set("class", types).Set("var", v).Set("stmts", stmts), nil
}

func convertDeclare(c *converter, n *cst.Node) (any, error) {
	declares := c.node(ast.KindConstDecl, 0, n)
	closeIdx := -1

	for i, child := range n.Children {
		if !child.Named && child.Kind == ")" && closeIdx < 0 {
			closeIdx = i
		}

		if child.Kind != "declare_directive" {
			continue
		}

		elem, err := c.declareDirective(child)
		if err != nil {
			return nil, err
		}

		declares.Append(elem)
	}

	stmts, err := c.trailingBody(n, closeIdx)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindDeclare, 0, n).Set("declares", declares).Set("stmts", stmts), nil
}

func (c *converter) declareDirective(n *cst.Node) (*ast.Node, error) {
	eq := n.TokenIndex("=")

	var name string

	if eq > 0 {
		name = strings.TrimSpace(string(c.src[n.Start:n.Children[eq].Start]))
	}

	if name == "" {
		var err error

		name, err = c.invalidIdentifier(n, placeholderIdentifier)
		if err != nil {
			return nil, err
		}
	}

	var valueNode *cst.Node
	if eq >= 0 {
		for _, child := range n.Children[eq+1:] {
			if child.Named && !child.Extra {
				valueNode = child

				break
			}
		}
	}

	value, err := c.requireExpr(n, valueNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindConstElem, 0, n).
		Set("name", name).
		Set("value", value).
		Set("docComment", nil), nil
}

// convertConstStatement handles top-level "const A = 1, B = 2;".
func convertConstStatement(c *converter, n *cst.Node) (any, error) {
	list := c.node(ast.KindConstDecl, 0, n)
	if err := c.constElements(list, n); err != nil {
		return nil, err
	}

	return list, nil
}

func (c *converter) constElements(list *ast.Node, n *cst.Node) error {
	doc := c.docComment(n)

	for _, elem := range n.NamedChildren() {
		if elem.Kind != "const_element" {
			continue
		}

		named := elem.NamedChildren()

		var nameNode, valueNode *cst.Node

		if len(named) > 0 {
			nameNode = named[0]
		}

		if v := elem.ChildByField("value"); v != nil {
			valueNode = v
		} else if len(named) > 1 {
			valueNode = named[len(named)-1]
		}

		name, err := c.identifier(elem, nameNode)
		if err != nil {
			return err
		}

		value, err := c.requireExpr(elem, valueNode)
		if err != nil {
			return err
		}

		list.Append(c.node(ast.KindConstElem, 0, elem).
			Set("name", name).
			Set("value", value).
			Set("docComment", doc))

		doc = nil
	}

	return nil
}
