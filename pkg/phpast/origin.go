package phpast

import (
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/ast"
	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

// OriginTable maps canonical nodes back to the CST nodes they were built
// from. It is filled while converting and read-only afterwards.
type OriginTable struct {
	origins map[*ast.Node]*cst.Node
}

func newOriginTable() *OriginTable {
	return &OriginTable{origins: make(map[*ast.Node]*cst.Node)}
}

func (t *OriginTable) add(n *ast.Node, origin *cst.Node) {
	t.origins[n] = origin
}

// Lookup returns the CST node n was built from.
func (t *OriginTable) Lookup(n *ast.Node) (*cst.Node, bool) {
	if t == nil {
		return nil, false
	}

	origin, ok := t.origins[n]

	return origin, ok
}

// Len returns the number of linked nodes.
func (t *OriginTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.origins)
}
