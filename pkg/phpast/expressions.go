package phpast

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

type binaryOp struct {
	kind  ast.Kind
	flags ast.Flags
}

var binaryOps = map[string]binaryOp{
	"+":   {ast.KindBinaryOp, ast.BinaryAdd},
	"-":   {ast.KindBinaryOp, ast.BinarySub},
	"*":   {ast.KindBinaryOp, ast.BinaryMul},
	"/":   {ast.KindBinaryOp, ast.BinaryDiv},
	"%":   {ast.KindBinaryOp, ast.BinaryMod},
	"**":  {ast.KindBinaryOp, ast.BinaryPow},
	".":   {ast.KindBinaryOp, ast.BinaryConcat},
	"<<":  {ast.KindBinaryOp, ast.BinaryShiftLeft},
	">>":  {ast.KindBinaryOp, ast.BinaryShiftRight},
	"|":   {ast.KindBinaryOp, ast.BinaryBitwiseOr},
	"&":   {ast.KindBinaryOp, ast.BinaryBitwiseAnd},
	"^":   {ast.KindBinaryOp, ast.BinaryBitwiseXor},
	"===": {ast.KindBinaryOp, ast.BinaryIsIdentical},
	"!==": {ast.KindBinaryOp, ast.BinaryIsNotIdentical},
	"==":  {ast.KindBinaryOp, ast.BinaryIsEqual},
	"!=":  {ast.KindBinaryOp, ast.BinaryIsNotEqual},
	"<>":  {ast.KindBinaryOp, ast.BinaryIsNotEqual},
	"<":   {ast.KindBinaryOp, ast.BinaryIsSmaller},
	"<=":  {ast.KindBinaryOp, ast.BinaryIsSmallerOrEqual},
	">":   {ast.KindBinaryOp, ast.BinaryIsGreater},
	">=":  {ast.KindBinaryOp, ast.BinaryIsGreaterOrEqual},
	"<=>": {ast.KindBinaryOp, ast.BinarySpaceship},
	"&&":  {ast.KindBinaryOp, ast.BinaryBoolAnd},
	"and": {ast.KindBinaryOp, ast.BinaryBoolAnd},
	"||":  {ast.KindBinaryOp, ast.BinaryBoolOr},
	"or":  {ast.KindBinaryOp, ast.BinaryBoolOr},
	"xor": {ast.KindBinaryOp, ast.BinaryBoolXor},
	"??":  {ast.KindBinaryOp, ast.BinaryCoalesce},

	"instanceof": {ast.KindInstanceof, 0},
}

var unaryOps = map[string]ast.Flags{
	"!": ast.UnaryBoolNot,
	"~": ast.UnaryBitwiseNot,
	"-": ast.UnaryMinus,
	"+": ast.UnaryPlus,
	"@": ast.UnarySilence,
}

var includeFlags = map[string]ast.Flags{
	"include_expression":      ast.ExecInclude,
	"include_once_expression": ast.ExecIncludeOnce,
	"require_expression":      ast.ExecRequire,
	"require_once_expression": ast.ExecRequireOnce,
}

// operator returns the operator token of n: its "operator" field, or the
// first anonymous token that is not punctuation.
func (c *converter) operator(n *cst.Node) string {
	if op := n.ChildByField("operator"); op != nil {
		return strings.ToLower(strings.TrimSpace(c.text(op)))
	}

	for _, child := range n.Children {
		if child.Named || child.Extra || child.Missing {
			continue
		}

		switch child.Kind {
		case "(", ")", "[", "]", "{", "}", ",", ";":
			continue
		}

		return strings.ToLower(strings.TrimSpace(c.text(child)))
	}

	return ""
}

// recovered reports whether the parser patched n with a missing token or
// an ERROR child. Operator lookups only fail loudly on intact nodes.
func recovered(n *cst.Node) bool {
	for _, child := range n.Children {
		if child.Missing || child.IsError() {
			return true
		}
	}

	return false
}

// sides returns the left and right operands of a binary shape.
func sides(n *cst.Node) (left, right *cst.Node) {
	left, right = n.ChildByField("left"), n.ChildByField("right")
	if left != nil || right != nil {
		return left, right
	}

	named := n.NamedChildren()
	if len(named) > 0 {
		left = named[0]
	}

	if len(named) > 1 {
		right = named[len(named)-1]
	}

	return left, right
}

func convertBinary(c *converter, n *cst.Node) (any, error) {
	op := c.operator(n)

	spec, ok := binaryOps[op]
	if !ok {
		if recovered(n) {
			return c.invalid(n, placeholderConst)
		}

		panic(InternalError{Kind: n.Kind, Detail: fmt.Sprintf("unknown binary operator %q", op)})
	}

	left, right := sides(n)

	if spec.kind == ast.KindInstanceof {
		l, err := c.requireExpr(n, left)
		if err != nil {
			return nil, err
		}

		class, err := c.classRef(n, right)
		if err != nil {
			return nil, err
		}

		return c.node(ast.KindInstanceof, 0, n).Set("expr", l).Set("class", class), nil
	}

	l, r, keep, err := c.operands(n, left, right, false)
	if err != nil {
		return nil, err
	}

	if keep != nil {
		return keep, nil
	}

	return c.node(spec.kind, spec.flags, n).Set("left", l).Set("right", r), nil
}

func convertAssign(c *converter, n *cst.Node) (any, error) {
	left, right := sides(n)

	kind := ast.KindAssign
	if n.Kind == "reference_assignment_expression" || n.HasToken("&") {
		kind = ast.KindAssignRef
		if right != nil && right.Kind == "by_ref" {
			right = right.FirstNamed()
		}
	}

	l, r, keep, err := c.operands(n, left, right, true)
	if err != nil {
		return nil, err
	}

	if keep != nil {
		return keep, nil
	}

	return c.node(kind, 0, n).Set("var", l).Set("expr", r), nil
}

func convertAssignOp(c *converter, n *cst.Node) (any, error) {
	op := strings.TrimSuffix(c.operator(n), "=")

	spec, ok := binaryOps[op]
	if !ok || spec.kind != ast.KindBinaryOp {
		if recovered(n) {
			return c.invalid(n, placeholderConst)
		}

		panic(InternalError{Kind: n.Kind, Detail: fmt.Sprintf("unknown assignment operator %q=", op)})
	}

	left, right := sides(n)

	l, r, keep, err := c.operands(n, left, right, true)
	if err != nil {
		return nil, err
	}

	if keep != nil {
		return keep, nil
	}

	return c.node(ast.KindAssignOp, spec.flags, n).Set("var", l).Set("expr", r), nil
}

// operand returns the single expression operand of a prefix or postfix shape.
func operand(n *cst.Node) *cst.Node {
	if arg := n.ChildByField("argument"); arg != nil {
		return arg
	}

	if v := n.ChildByField("value"); v != nil {
		return v
	}

	named := n.NamedChildren()
	if len(named) == 0 {
		return nil
	}

	return named[len(named)-1]
}

func convertUnary(c *converter, n *cst.Node) (any, error) {
	op := c.operator(n)

	flags, ok := unaryOps[op]
	if !ok {
		if recovered(n) {
			return c.invalid(n, placeholderConst)
		}

		panic(InternalError{Kind: n.Kind, Detail: fmt.Sprintf("unknown unary operator %q", op)})
	}

	v, err := c.requireExpr(n, operand(n))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindUnaryOp, flags, n).Set("expr", v), nil
}

func convertSilence(c *converter, n *cst.Node) (any, error) {
	v, err := c.requireExpr(n, operand(n))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindUnaryOp, ast.UnarySilence, n).Set("expr", v), nil
}

func convertCast(c *converter, n *cst.Node) (any, error) {
	typeNode := n.ChildByField("type")
	if typeNode == nil {
		typeNode = n.FirstNamed("cast_type")
	}

	var flags ast.Flags

	if typeNode != nil {
		var ok bool

		flags, ok = castTypes[strings.ToLower(strings.TrimSpace(c.text(typeNode)))]
		if !ok && recovered(n) {
			return c.invalid(n, placeholderConst)
		}

		if !ok {
			panic(InternalError{Kind: n.Kind, Detail: fmt.Sprintf("unknown cast %q", c.text(typeNode))})
		}
	}

	valueNode := n.ChildByField("value")
	if valueNode == nil {
		for _, child := range n.NamedChildren() {
			if child != typeNode {
				valueNode = child
			}
		}
	}

	v, err := c.requireExpr(n, valueNode)
	if err != nil {
		return nil, err
	}

	if typeNode == nil {
		return c.invalid(n, placeholderConst)
	}

	return c.node(ast.KindCast, flags, n).Set("expr", v), nil
}

func convertUpdate(c *converter, n *cst.Node) (any, error) {
	arg := operand(n)

	var (
		kind ast.Kind
		tok  = -1
	)

	for i, child := range n.Children {
		if child.Named || (child.Kind != "++" && child.Kind != "--") {
			continue
		}

		tok = i
		prefix := arg == nil || child.Start < arg.Start

		switch {
		case child.Kind == "++" && prefix:
			kind = ast.KindPreInc
		case child.Kind == "++":
			kind = ast.KindPostInc
		case prefix:
			kind = ast.KindPreDec
		default:
			kind = ast.KindPostDec
		}

		break
	}

	if tok < 0 && recovered(n) {
		return c.invalid(n, placeholderConst)
	}

	if tok < 0 {
		panic(InternalError{Kind: n.Kind, Detail: "update expression without operator"})
	}

	v, err := c.variable(n, arg)
	if err != nil {
		return nil, err
	}

	return c.node(kind, 0, n).Set("var", v), nil
}

// singleOperand builds kind around the sole operand of n.
func (c *converter) singleOperand(n *cst.Node, kind ast.Kind, flags ast.Flags) (any, error) {
	v, err := c.requireExpr(n, operand(n))
	if err != nil {
		return nil, err
	}

	return c.node(kind, flags, n).Set("expr", v), nil
}

func convertClone(c *converter, n *cst.Node) (any, error) {
	return c.singleOperand(n, ast.KindClone, 0)
}

func convertPrint(c *converter, n *cst.Node) (any, error) {
	return c.singleOperand(n, ast.KindPrint, 0)
}

func convertThrow(c *converter, n *cst.Node) (any, error) {
	return c.singleOperand(n, ast.KindThrow, 0)
}

func convertInclude(c *converter, n *cst.Node) (any, error) {
	return c.singleOperand(n, ast.KindIncludeOrEval, includeFlags[n.Kind])
}

func convertParenthesized(c *converter, n *cst.Node) (any, error) {
	return c.requireExpr(n, n.FirstNamed())
}

func convertSequence(c *converter, n *cst.Node) (any, error) {
	return c.exprList(n.NamedChildren())
}

func convertConditional(c *converter, n *cst.Node) (any, error) {
	condNode, bodyNode, altNode := n.ChildByField("condition"), n.ChildByField("body"), n.ChildByField("alternative")

	if condNode == nil && altNode == nil {
		named := n.NamedChildren()
		switch len(named) {
		case 3:
			condNode, bodyNode, altNode = named[0], named[1], named[2]
		case 2:
			condNode, altNode = named[0], named[1]
		case 1:
			condNode = named[0]
		}
	}

	cond, err := c.requireExpr(n, condNode)
	if err != nil {
		return nil, err
	}

	body, err := c.optExpr(bodyNode)
	if err != nil {
		return nil, err
	}

	alt, err := c.requireExpr(n, altNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindConditional, 0, n).
		Set("cond", cond).
		Set("true", body).
		Set("false", alt), nil
}

func convertMatch(c *converter, n *cst.Node) (any, error) {
	cond, err := c.requireExpr(n, n.ChildByField("condition"))
	if err != nil {
		return nil, err
	}

	block := n.ChildByField("body")
	if block == nil {
		block = n.FirstNamed("match_block")
	}

	origin := n
	if block != nil {
		origin = block
	}

	arms := c.node(ast.KindMatchArmList, 0, origin)

	if block != nil {
		for _, arm := range block.NamedChildren() {
			a, err := c.matchArm(arm)
			if err != nil {
				return nil, err
			}

			if a != nil {
				arms.Append(a)
			}
		}
	}

	return c.node(ast.KindMatch, 0, n).Set("cond", cond).Set("stmts", arms), nil
}

func (c *converter) matchArm(n *cst.Node) (*ast.Node, error) {
	var conds any

	switch n.Kind {
	case "match_conditional_expression":
		list := n.ChildByField("conditional_expressions")
		if list == nil {
			list = n.FirstNamed("match_condition_list")
		}

		if list == nil {
			v, err := c.invalid(n, placeholderConst)
			if err != nil {
				return nil, err
			}

			conds = c.node(ast.KindExprList, 0, n).Append(v)

			break
		}

		l, err := c.exprList(list.NamedChildren())
		if err != nil {
			return nil, err
		}

		conds = l
	case "match_default_expression":
	default:
		return nil, nil
	}

	ret := n.ChildByField("return_expression")
	if ret == nil {
		named := n.NamedChildren()
		if len(named) > 0 && named[len(named)-1].Kind != "match_condition_list" {
			ret = named[len(named)-1]
		}
	}

	v, err := c.requireExpr(n, ret)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindMatchArm, 0, n).Set("cond", conds).Set("expr", v), nil
}

func convertYield(c *converter, n *cst.Node) (any, error) {
	c.markGenerator()

	if n.HasToken("from") {
		return c.singleOperand(n, ast.KindYieldFrom, 0)
	}

	var keyNode, valueNode *cst.Node

	if elem := n.FirstNamed("array_element_initializer"); elem != nil {
		named := elem.NamedChildren()
		if elem.HasToken("=>") && len(named) == 2 {
			keyNode, valueNode = named[0], named[1]
		} else if len(named) > 0 {
			valueNode = named[len(named)-1]
		}
	} else {
		valueNode = n.FirstNamed()
	}

	value, err := c.optExpr(valueNode)
	if err != nil {
		return nil, err
	}

	key, err := c.optExpr(keyNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindYield, 0, n).Set("value", value).Set("key", key), nil
}

func convertByRef(c *converter, n *cst.Node) (any, error) {
	v, err := c.variable(n, n.FirstNamed())
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindRef, 0, n).Set("var", v), nil
}

func convertVariable(c *converter, n *cst.Node) (any, error) {
	nameNode := n.FirstNamed("name")
	if nameNode == nil || nameNode.Missing || nameNode.Start == nameNode.End {
		return c.invalid(n, placeholderVariable)
	}

	return c.node(ast.KindVar, 0, n).Set("name", c.text(nameNode)), nil
}

// convertDynamicVariable handles $$a and ${expr}.
func convertDynamicVariable(c *converter, n *cst.Node) (any, error) {
	inner := n.FirstNamed()
	if inner == nil {
		return c.invalid(n, placeholderVariable)
	}

	v, err := c.expr(inner)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindVar, 0, n).Set("name", v), nil
}

func convertNew(c *converter, n *cst.Node) (any, error) {
	var (
		class    any
		argsNode *cst.Node
		err      error
	)

	if anon := n.FirstNamed("anonymous_class", "anonymous_class_creation_expression"); anon != nil {
		return c.anonymousClass(n, anon)
	}

	if n.HasToken("class") {
		return c.anonymousClass(n, n)
	}

	for _, child := range n.NamedChildren() {
		switch {
		case child.Kind == "arguments":
			argsNode = child
		case class == nil:
			class, err = c.classRef(n, child)
			if err != nil {
				return nil, err
			}
		}
	}

	if class == nil {
		class, err = c.invalidName(n)
		if err != nil {
			return nil, err
		}
	}

	args, err := c.args(n, argsNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindNew, 0, n).Set("class", class).Set("args", args), nil
}

// args converts an argument list. "(...)" becomes AST_CALLABLE_CONVERT.
func (c *converter) args(parent, n *cst.Node) (*ast.Node, error) {
	if n == nil {
		return c.node(ast.KindArgList, 0, parent), nil
	}

	if n.FirstNamed("variadic_placeholder") != nil {
		return c.node(ast.KindCallableConvert, 0, n), nil
	}

	list := c.node(ast.KindArgList, 0, n)
	named := n.NamedChildren()

	if len(named) == 0 && n.HasToken("...") {
		return c.node(ast.KindCallableConvert, 0, n), nil
	}

	for _, child := range named {
		v, err := c.arg(child)
		if err != nil {
			return nil, err
		}

		list.Append(v)
	}

	return list, nil
}

// arg converts one entry of an argument list. Spreads arrive either as an
// argument holding "..." or as a bare variadic_unpacking.
func (c *converter) arg(n *cst.Node) (any, error) {
	if n.Kind != "argument" {
		return c.expr(n)
	}

	nameNode := n.ChildByField("name")

	var valueNode *cst.Node

	for _, child := range n.NamedChildren() {
		if child != nameNode {
			valueNode = child
		}
	}

	v, err := c.requireExpr(n, valueNode)
	if err != nil {
		return nil, err
	}

	switch {
	case nameNode != nil:
		name, err := c.identifier(n, nameNode)
		if err != nil {
			return nil, err
		}

		return c.node(ast.KindNamedArg, 0, n).Set("name", name).Set("expr", v), nil
	case n.HasToken("..."):
		return c.node(ast.KindUnpack, 0, n).Set("expr", v), nil
	default:
		return v, nil
	}
}

// convertUnpack converts "...expr" into AST_UNPACK.
func convertUnpack(c *converter, n *cst.Node) (any, error) {
	v, err := c.requireExpr(n, n.FirstNamed())
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindUnpack, 0, n).Set("expr", v), nil
}

func convertCall(c *converter, n *cst.Node) (any, error) {
	fn := n.ChildByField("function")
	argsNode := n.ChildByField("arguments")

	if fn == nil {
		fn = n.FirstNamed()
	}

	if argsNode == nil {
		argsNode = n.FirstNamed("arguments")
	}

	if fn != nil && fn.Kind == "name" {
		if v, ok, err := c.specialCall(n, strings.ToLower(c.text(fn)), argsNode); ok || err != nil {
			return v, err
		}
	}

	callee, err := c.classRef(n, fn)
	if err != nil {
		return nil, err
	}

	args, err := c.args(n, argsNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindCall, 0, n).Set("expr", callee).Set("args", args), nil
}

// specialCall converts the language constructs the grammar parses as calls.
func (c *converter) specialCall(n *cst.Node, name string, argsNode *cst.Node) (any, bool, error) {
	var operands []*cst.Node
	if argsNode != nil {
		for _, a := range argsNode.NamedChildren() {
			if a.Kind == "argument" {
				if inner := operand(a); inner != nil {
					a = inner
				}
			}

			operands = append(operands, a)
		}
	}

	first := func() (any, error) {
		if len(operands) == 0 {
			return c.invalid(n, placeholderConst)
		}

		return c.expr(operands[0])
	}

	switch name {
	case "isset":
		var out any

		if len(operands) == 0 {
			v, err := c.invalid(n, placeholderVariable)
			if err != nil {
				return nil, true, err
			}

			return c.node(ast.KindIsset, 0, n).Set("var", v), true, nil
		}

		for _, op := range operands {
			v, err := c.variable(n, op)
			if err != nil {
				return nil, true, err
			}

			isset := c.node(ast.KindIsset, 0, op).Set("var", v)
			if out == nil {
				out = isset

				continue
			}

			out = c.node(ast.KindBinaryOp, ast.BinaryBoolAnd, n).Set("left", out).Set("right", isset)
		}

		return out, true, nil
	case "empty":
		v, err := first()
		if err != nil {
			return nil, true, err
		}

		return c.node(ast.KindEmpty, 0, n).Set("expr", v), true, nil
	case "eval":
		v, err := first()
		if err != nil {
			return nil, true, err
		}

		return c.node(ast.KindIncludeOrEval, ast.ExecEval, n).Set("expr", v), true, nil
	case "exit", "die":
		var (
			v   any
			err error
		)

		if len(operands) > 0 {
			v, err = c.expr(operands[0])
			if err != nil {
				return nil, true, err
			}
		}

		return c.node(ast.KindExit, 0, n).Set("expr", v), true, nil
	}

	return nil, false, nil
}

// memberName converts the name part of a member access or call.
func (c *converter) memberName(parent, n *cst.Node, kind placeholderKind) (any, error) {
	if n == nil {
		return c.invalid(parent, kind)
	}

	if n.Missing || n.IsError() || n.Start == n.End {
		return c.invalid(n, kind)
	}

	if n.Kind == "name" {
		return strings.TrimSpace(c.text(n)), nil
	}

	return c.expr(n)
}

func (c *converter) memberParts(n *cst.Node) (object, name *cst.Node) {
	object, name = n.ChildByField("object"), n.ChildByField("name")
	if object == nil {
		object = n.ChildByField("scope")
	}

	if object != nil || name != nil {
		return object, name
	}

	named := n.NamedChildren()
	if len(named) > 0 {
		object = named[0]
	}

	if len(named) > 1 && named[1].Kind != "arguments" {
		name = named[1]
	}

	return object, name
}

func convertMemberAccess(c *converter, n *cst.Node) (any, error) {
	objectNode, nameNode := c.memberParts(n)

	kind := ast.KindProp
	if n.Kind == "nullsafe_member_access_expression" {
		kind = ast.KindNullsafeProp
	}

	object, err := c.requireExpr(n, objectNode)
	if err != nil {
		return nil, err
	}

	prop, err := c.memberName(n, nameNode, placeholderProperty)
	if err != nil {
		return nil, err
	}

	return c.node(kind, 0, n).Set("expr", object).Set("prop", prop), nil
}

func convertMemberCall(c *converter, n *cst.Node) (any, error) {
	objectNode, nameNode := c.memberParts(n)

	kind := ast.KindMethodCall
	if n.Kind == "nullsafe_member_call_expression" {
		kind = ast.KindNullsafeMethodCall
	}

	object, err := c.requireExpr(n, objectNode)
	if err != nil {
		return nil, err
	}

	method, err := c.memberName(n, nameNode, placeholderProperty)
	if err != nil {
		return nil, err
	}

	args, err := c.args(n, n.ChildByField("arguments"))
	if err != nil {
		return nil, err
	}

	return c.node(kind, 0, n).Set("expr", object).Set("method", method).Set("args", args), nil
}

func convertStaticCall(c *converter, n *cst.Node) (any, error) {
	scopeNode, nameNode := c.memberParts(n)

	class, err := c.classRef(n, scopeNode)
	if err != nil {
		return nil, err
	}

	method, err := c.memberName(n, nameNode, placeholderProperty)
	if err != nil {
		return nil, err
	}

	args, err := c.args(n, n.ChildByField("arguments"))
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindStaticCall, 0, n).Set("class", class).Set("method", method).Set("args", args), nil
}

func convertStaticProp(c *converter, n *cst.Node) (any, error) {
	scopeNode, nameNode := c.memberParts(n)

	class, err := c.classRef(n, scopeNode)
	if err != nil {
		return nil, err
	}

	var prop any

	switch {
	case nameNode != nil && nameNode.Kind == "variable_name" && !nameNode.Missing:
		inner := nameNode.FirstNamed("name")
		if inner == nil || inner.Start == inner.End {
			prop, err = c.invalid(nameNode, placeholderProperty)
		} else {
			prop = c.text(inner)
		}
	default:
		prop, err = c.memberName(n, nameNode, placeholderProperty)
	}

	if err != nil {
		return nil, err
	}

	return c.node(ast.KindStaticProp, 0, n).Set("class", class).Set("prop", prop), nil
}

func convertClassConstAccess(c *converter, n *cst.Node) (any, error) {
	named := n.NamedChildren()

	var scopeNode, nameNode *cst.Node

	if len(named) > 0 {
		scopeNode = named[0]
	}

	if len(named) > 1 {
		nameNode = named[len(named)-1]
	}

	class, err := c.classRef(n, scopeNode)
	if err != nil {
		return nil, err
	}

	if nameNode != nil && strings.EqualFold(strings.TrimSpace(c.text(nameNode)), "class") {
		return c.node(ast.KindClassName, 0, n).Set("class", class), nil
	}

	name, err := c.memberName(n, nameNode, placeholderClassConst)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindClassConst, 0, n).Set("class", class).Set("const", name), nil
}

func convertSubscript(c *converter, n *cst.Node) (any, error) {
	named := n.NamedChildren()

	var objectNode, indexNode *cst.Node

	if len(named) > 0 {
		objectNode = named[0]
	}

	if len(named) > 1 {
		indexNode = named[1]
	}

	object, err := c.requireExpr(n, objectNode)
	if err != nil {
		return nil, err
	}

	index, err := c.optExpr(indexNode)
	if err != nil {
		return nil, err
	}

	var flags ast.Flags
	if n.HasToken("{") {
		flags = ast.DimAlternativeSyntax
	}

	return c.node(ast.KindDim, flags, n).Set("expr", object).Set("dim", index), nil
}

func convertArray(c *converter, n *cst.Node) (any, error) {
	flags := ast.ArraySyntaxLong
	if strings.HasPrefix(c.text(n), "[") {
		flags = ast.ArraySyntaxShort
	}

	list := c.node(ast.KindArray, flags, n)

	for _, elem := range n.NamedChildren() {
		parts := []*cst.Node{elem}
		if elem.Kind == "array_element_initializer" || elem.Kind == "variadic_unpacking" {
			parts = elem.Children
		}

		v, err := c.arrayElement(elem, parts)
		if err != nil {
			return nil, err
		}

		list.Append(v)
	}

	return list, nil
}

// arrayElement converts one element from the tokens that make it up: a
// value, "key => value", "&$ref" or "...$spread".
func (c *converter) arrayElement(origin *cst.Node, parts []*cst.Node) (any, error) {
	var (
		named  []*cst.Node
		arrow  bool
		spread bool
	)

	for _, p := range parts {
		switch {
		case p.Extra:
		case p.Named:
			named = append(named, p)
		case p.Kind == "=>":
			arrow = true
		case p.Kind == "...":
			spread = true
		}
	}

	if len(named) == 1 && named[0].Kind == "variadic_unpacking" {
		spread = true
		named = named[0].NamedChildren()
	}

	var keyNode, valueNode *cst.Node

	switch {
	case arrow && len(named) >= 2:
		keyNode, valueNode = named[0], named[len(named)-1]
	case len(named) > 0:
		valueNode = named[len(named)-1]
	}

	if spread {
		v, err := c.requireExpr(origin, valueNode)
		if err != nil {
			return nil, err
		}

		return c.node(ast.KindUnpack, 0, origin).Set("expr", v), nil
	}

	var flags ast.Flags

	if valueNode != nil && valueNode.Kind == "by_ref" {
		flags = ast.ArrayElemRef
		valueNode = valueNode.FirstNamed()
	}

	value, err := c.requireExpr(origin, valueNode)
	if err != nil {
		return nil, err
	}

	key, err := c.optExpr(keyNode)
	if err != nil {
		return nil, err
	}

	return c.node(ast.KindArrayElem, flags, origin).Set("value", value).Set("key", key), nil
}

// convertList splits the destructuring list at its commas so elided
// elements stay in place as nil entries.
func convertList(c *converter, n *cst.Node) (any, error) {
	flags := ast.ArraySyntaxShort
	if strings.HasPrefix(strings.ToLower(c.text(n)), "list") {
		flags = ast.ArraySyntaxList
	}

	var (
		groups [][]*cst.Node
		cur    []*cst.Node
		open   bool
	)

	for _, child := range n.Children {
		switch {
		case !child.Named && (child.Kind == "(" || child.Kind == "[") && !open:
			open = true
		case !open:
		case !child.Named && (child.Kind == ")" || child.Kind == "]"):
			groups = append(groups, cur)
			cur = nil
		case !child.Named && child.Kind == ",":
			groups = append(groups, cur)
			cur = nil
		default:
			cur = append(cur, child)
		}
	}

	if cur != nil {
		groups = append(groups, cur)
	}

	elems := make([]any, 0, len(groups))

	for _, g := range groups {
		if !hasNamed(g) {
			elems = append(elems, nil)

			continue
		}

		origin := g[0]
		if len(g) == 1 && (g[0].Kind == "array_element_initializer" || g[0].Kind == "list_element") {
			origin, g = g[0], g[0].Children
		}

		v, err := c.arrayElement(origin, g)
		if err != nil {
			return nil, err
		}

		elems = append(elems, v)
	}

	for len(elems) > 0 && elems[len(elems)-1] == nil {
		elems = elems[:len(elems)-1]
	}

	list := c.node(ast.KindArray, flags, n)
	for _, e := range elems {
		list.Append(e)
	}

	return list, nil
}

func hasNamed(nodes []*cst.Node) bool {
	for _, n := range nodes {
		if n.Named && !n.Extra {
			return true
		}
	}

	return false
}
