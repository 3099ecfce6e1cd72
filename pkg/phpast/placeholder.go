package phpast

import (
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// placeholderKind selects the stand-in built for an invalid node in
// placeholder mode.
type placeholderKind int

const (
	// placeholderConst is AST_CONST(AST_NAME("__INCOMPLETE_NAME__")).
	placeholderConst placeholderKind = iota
	// placeholderVariable is AST_VAR("__INCOMPLETE_VARIABLE__").
	placeholderVariable
	// placeholderName is AST_NAME("__INCOMPLETE_NAME__").
	placeholderName
	// placeholderIdentifier is the bare string "__INCOMPLETE_NAME__".
	placeholderIdentifier
	// placeholderProperty is the bare string "__INCOMPLETE_PROPERTY__".
	placeholderProperty
	// placeholderClassConst is the bare string "__INCOMPLETE_CLASS_CONST__".
	placeholderClassConst
)

// invalid raises the invalid-node condition for n. In placeholder mode the
// condition is absorbed here and a stand-in of the requested kind is
// returned; otherwise a *ConversionError wrapping ErrInvalidNode is
// returned for the nearest recovering caller.
func (c *converter) invalid(n *cst.Node, kind placeholderKind) (any, error) {
	if !c.ctx.Placeholders {
		return nil, c.fail(n, ErrInvalidNode)
	}

	c.placeholders++

	switch kind {
	case placeholderVariable:
		return c.node(ast.KindVar, 0, n).Set("name", ast.PlaceholderVariable), nil
	case placeholderName:
		return c.node(ast.KindName, ast.NameNotFQ, n).Set("name", ast.PlaceholderName), nil
	case placeholderIdentifier:
		return ast.PlaceholderName, nil
	case placeholderProperty:
		return ast.PlaceholderProperty, nil
	case placeholderClassConst:
		return ast.PlaceholderClassConst, nil
	default:
		name := c.node(ast.KindName, ast.NameNotFQ, n).Set("name", ast.PlaceholderName)

		return c.node(ast.KindConst, 0, n).Set("name", name), nil
	}
}

// invalidName is invalid for positions that need an AST_NAME.
func (c *converter) invalidName(n *cst.Node) (*ast.Node, error) {
	v, err := c.invalid(n, placeholderName)
	if err != nil {
		return nil, err
	}

	name, _ := v.(*ast.Node)

	return name, nil
}

// invalidIdentifier is invalid for positions that hold a bare identifier.
func (c *converter) invalidIdentifier(n *cst.Node, kind placeholderKind) (string, error) {
	v, err := c.invalid(n, kind)
	if err != nil {
		return "", err
	}

	s, _ := v.(string)

	return s, nil
}
