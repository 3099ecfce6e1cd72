package phpast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// convertFunc converts one CST shape. It returns a *ast.Node, a scalar,
// a splice of statements, or nil when the shape produces nothing.
type convertFunc func(c *converter, n *cst.Node) (any, error)

// splice is returned by statement conversions that expand to several
// canonical statements, such as "echo $a, $b;".
type splice []any

// converter walks one CST. It owns the Context and every side table of a
// single conversion.
type converter struct {
	ctx         *Context
	src         []byte
	table       map[string]convertFunc
	debugStrict bool
	logger      *slog.Logger

	selected  *cst.Node
	selection []*ast.Node
	origins   *OriginTable

	stubs        int
	placeholders int
	diagnostics  []cst.Diagnostic

	// functions is the stack of enclosing function-like declarations.
	functions []*ast.Node
	// echoTag is set after "<?=" until the next statement is converted.
	echoTag bool
}

func newConverter(cctx *Context, tree *cst.Tree, debugStrict bool, logger *slog.Logger) *converter {
	return &converter{
		ctx:         cctx,
		src:         tree.Source,
		table:       dispatchTable(),
		debugStrict: debugStrict,
		logger:      logger,
	}
}

func (c *converter) text(n *cst.Node) string {
	return n.Text(c.src)
}

func (c *converter) line(n *cst.Node) uint32 {
	return c.ctx.Lines.Line(int(n.Start))
}

// node creates a canonical node built from origin.
func (c *converter) node(kind ast.Kind, flags ast.Flags, origin *cst.Node) *ast.Node {
	n := ast.New(kind, flags, c.line(origin))

	if c.origins != nil {
		c.origins.add(n, origin)
	}

	if c.selected != nil && origin == c.selected {
		c.selection = append(c.selection, n)
	}

	return n
}

// dispatch converts n through the dispatch table.
func (c *converter) dispatch(n *cst.Node) (any, error) {
	fn, ok := c.table[n.Kind]
	if !ok {
		return c.unmapped(n)
	}

	return fn(c, n)
}

func (c *converter) unmapped(n *cst.Node) (any, error) {
	if c.debugStrict {
		return nil, c.fail(n, ErrUnmappedShape)
	}

	c.stubs++

	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "unmapped CST shape",
		slog.String("kind", n.Kind), slog.Uint64("offset", uint64(n.Start)))

	return c.node(ast.KindUnmapped, 0, n).
		Set("shape", n.Kind).
		Set("text", c.text(n)), nil
}

func (c *converter) fail(n *cst.Node, err error) *ConversionError {
	return &ConversionError{Kind: n.Kind, Offset: n.Start, Line: c.line(n), Err: err}
}

// expr converts an expression-position node.
func (c *converter) expr(n *cst.Node) (any, error) {
	if n.Missing || n.IsError() {
		return c.invalid(n, placeholderConst)
	}

	return c.dispatch(n)
}

// requireExpr converts a mandatory operand of parent. An absent operand
// is an invalid node.
func (c *converter) requireExpr(parent, n *cst.Node) (any, error) {
	if n == nil {
		return c.invalid(parent, placeholderConst)
	}

	return c.expr(n)
}

// optExpr converts an optional operand; an absent operand yields nil.
func (c *converter) optExpr(n *cst.Node) (any, error) {
	if n == nil {
		return nil, nil
	}

	return c.expr(n)
}

// variable converts a node in a variable position, where the placeholder
// is an AST_VAR.
func (c *converter) variable(parent, n *cst.Node) (any, error) {
	if n == nil {
		return c.invalid(parent, placeholderVariable)
	}

	if n.Missing || n.IsError() {
		return c.invalid(n, placeholderVariable)
	}

	return c.dispatch(n)
}

// operands converts the two sides of a binary operator or assignment.
// When exactly one side is invalid the other side is returned as keep and
// replaces the whole expression; both invalid propagates the error.
func (c *converter) operands(parent, left, right *cst.Node, leftVar bool) (l, r, keep any, err error) {
	if leftVar {
		l, err = c.variable(parent, left)
	} else {
		l, err = c.requireExpr(parent, left)
	}

	lerr := err

	r, rerr := c.requireExpr(parent, right)

	switch {
	case lerr == nil && rerr == nil:
		return l, r, nil, nil
	case lerr != nil && !isInvalid(lerr):
		return nil, nil, nil, lerr
	case rerr != nil && !isInvalid(rerr):
		return nil, nil, nil, rerr
	case lerr != nil && rerr != nil:
		return nil, nil, nil, lerr
	case lerr != nil:
		return nil, nil, r, nil
	default:
		return nil, nil, l, nil
	}
}

// appendValue adds a converted statement or list element to list.
func appendValue(list *ast.Node, v any) {
	switch v := v.(type) {
	case nil:
	case splice:
		for _, item := range v {
			list.Append(item)
		}
	default:
		list.Append(v)
	}
}

// pushFunction tracks the innermost function-like declaration so yields
// can mark it as a generator.
func (c *converter) pushFunction(n *ast.Node) func() {
	c.functions = append(c.functions, n)

	return func() {
		c.functions = c.functions[:len(c.functions)-1]
	}
}

func (c *converter) markGenerator() {
	if len(c.functions) > 0 {
		c.functions[len(c.functions)-1].Flags |= ast.FuncGenerator
	}
}

func (c *converter) warn(n *cst.Node, err error) {
	c.diagnostics = append(c.diagnostics, cst.Diagnostic{
		Start:    n.Start,
		End:      n.End,
		Message:  fmt.Sprintf("%s: %v", n.Kind, err),
		Severity: cst.SeverityWarning,
	})
}
