package cst

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/phpast/pkg/safeconv"
)

// Sentinel errors for the tree-sitter adapter.
var (
	errNoRootNode = errors.New("tree-sitter: no root node")
	errPoolType   = errors.New("tree-sitter: pool returned unexpected type")
)

var phpLanguage = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(php.GetLanguage())
})

// TreeSitterParser parses PHP with the tree-sitter grammar and copies the
// result into a Tree. It is safe for concurrent use.
type TreeSitterParser struct {
	pool sync.Pool
}

// NewTreeSitterParser creates a parser backed by a pool of tree-sitter
// parser instances.
func NewTreeSitterParser() *TreeSitterParser {
	lang := phpLanguage()

	return &TreeSitterParser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse implements Parser.
func (p *TreeSitterParser) Parse(ctx context.Context, src []byte) (*Tree, error) {
	if err := safeconv.CheckSource(src); err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}

	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tsTree, err := tsParser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: failed to parse: %w", err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	cursor := sitter.NewTreeCursor(root)
	tree := &Tree{Root: materialize(cursor, nil, 0), Source: src}
	tree.Diagnostics = Diagnose(tree.Root, src)

	return tree, nil
}

// materialize copies the node under the cursor and its subtree.
func materialize(cursor *sitter.TreeCursor, parent *Node, index int) *Node {
	tsNode := cursor.CurrentNode()

	n := &Node{
		Kind:    tsNode.Type(),
		Field:   cursor.CurrentFieldName(),
		Start:   offset(tsNode.StartByte()),
		End:     offset(tsNode.EndByte()),
		Named:   tsNode.IsNamed(),
		Missing: tsNode.IsMissing(),
		Extra:   tsNode.IsExtra(),
		Parent:  parent,
		Index:   index,
	}

	if !cursor.GoToFirstChild() {
		return n
	}

	for i := 0; ; i++ {
		n.Children = append(n.Children, materialize(cursor, n, i))

		if !cursor.GoToNextSibling() {
			break
		}
	}

	cursor.GoToParent()

	return n
}

func offset(b uint) uint32 {
	return safeconv.MustUintToUint32(b)
}
