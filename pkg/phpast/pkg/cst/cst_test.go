package cst_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/phpast/pkg/phpast/pkg/cst"
)

func node(kind string, start, end uint32, children ...*cst.Node) *cst.Node {
	return &cst.Node{Kind: kind, Start: start, End: end, Named: true, Children: children}
}

func token(kind string, start, end uint32) *cst.Node {
	return &cst.Node{Kind: kind, Start: start, End: end}
}

func field(name string, n *cst.Node) *cst.Node {
	n.Field = name

	return n
}

func link(n *cst.Node) *cst.Node {
	for i, child := range n.Children {
		child.Parent = n
		child.Index = i
		link(child)
	}

	return n
}

// memberAccessTree models `<?php $a->foo; # c`.
func memberAccessTree() *cst.Tree {
	src := []byte("<?php $a->foo; # c")

	comment := node("comment", 15, 18)
	comment.Extra = true

	root := link(node("program", 0, 18,
		node("php_tag", 0, 5),
		node("expression_statement", 6, 14,
			node("member_access_expression", 6, 13,
				field("object", node("variable_name", 6, 8, token("$", 6, 7), node("name", 7, 8))),
				token("->", 8, 10),
				field("name", node("name", 10, 13)),
			),
			token(";", 13, 14),
		),
		comment,
	))

	return &cst.Tree{Root: root, Source: src}
}

func TestLocate_MemberNamePromotesToAccess(t *testing.T) {
	t.Parallel()

	tree := memberAccessTree()

	got := tree.Locate(11)
	require.NotNil(t, got)
	assert.Equal(t, "member_access_expression", got.Kind)
}

func TestLocate_VariableNamePromotesOnce(t *testing.T) {
	t.Parallel()

	tree := memberAccessTree()

	got := tree.Locate(7)
	require.NotNil(t, got)
	assert.Equal(t, "variable_name", got.Kind)

	got = tree.Locate(6)
	require.NotNil(t, got)
	assert.Equal(t, "variable_name", got.Kind)
}

func TestLocate_NoSelection(t *testing.T) {
	t.Parallel()

	tree := memberAccessTree()

	assert.Nil(t, tree.Locate(5), "whitespace")
	assert.Nil(t, tree.Locate(16), "comment")
	assert.Nil(t, tree.Locate(100), "out of range")
}

func TestLocate_PunctuationKeepsToken(t *testing.T) {
	t.Parallel()

	tree := memberAccessTree()

	got := tree.Locate(8)
	require.NotNil(t, got)
	assert.Equal(t, "->", got.Kind)
}

func TestNode_Helpers(t *testing.T) {
	t.Parallel()

	tree := memberAccessTree()
	access := tree.Root.Children[1].Children[0]

	assert.Equal(t, "variable_name", access.ChildByField("object").Kind)
	assert.Len(t, access.ChildrenByField("name"), 1)
	assert.Len(t, access.NamedChildren(), 2)
	assert.True(t, access.HasToken("->"))
	assert.Equal(t, 1, access.TokenIndex("->"))
	assert.Equal(t, -1, access.TokenIndex("?->"))
	assert.Equal(t, "$a->foo", access.Text(tree.Source))
	assert.Equal(t, "name", access.FirstNamed("name").Kind)
	assert.Nil(t, access.FirstNamed("integer"))
	assert.Equal(t, "->", access.Children[0].NextSibling().Kind)
	assert.Nil(t, access.Children[0].PrevSibling())
	assert.Empty(t, tree.Root.Children[2].NamedChildren())
	assert.Len(t, tree.Root.NamedChildren(), 2)
}

func TestDiagnose(t *testing.T) {
	t.Parallel()

	src := []byte("<?php $a = ;")
	missing := &cst.Node{Kind: "variable_name", Start: 11, End: 11, Named: true, Missing: true}
	root := link(node("program", 0, 12,
		node("php_tag", 0, 5),
		node(cst.KindError, 6, 12, node("variable_name", 6, 8), token("=", 9, 10)),
		missing,
	))

	diags := cst.Diagnose(root, src)
	require.Len(t, diags, 2)
	assert.Equal(t, "syntax error, unexpected '$a = ;'", diags[0].Message)
	assert.Equal(t, cst.SeverityError, diags[0].Severity)
	assert.Equal(t, "syntax error, missing 'variable_name'", diags[1].Message)
}

func TestTreeSitterParser_Valid(t *testing.T) {
	t.Parallel()

	src := []byte("<?php\nfunction f(int $x): void {}\n")

	tree, err := cst.NewTreeSitterParser().Parse(context.Background(), src)
	require.NoError(t, err)
	require.NotNil(t, tree.Root)

	assert.Equal(t, "program", tree.Root.Kind)
	assert.Empty(t, tree.Diagnostics)

	var fn *cst.Node

	cst.Walk(tree.Root, func(n *cst.Node) bool {
		if n.Kind == "function_definition" {
			fn = n
		}

		return fn == nil
	})

	require.NotNil(t, fn)
	assert.Equal(t, "f", fn.ChildByField("name").Text(src))
	assert.Equal(t, uint32(6), fn.Start)
	assert.Same(t, tree.Root, fn.Parent)
}

func TestTreeSitterParser_Malformed(t *testing.T) {
	t.Parallel()

	parser := cst.NewTreeSitterParser()

	for _, src := range []string{"<?php $a = ;", "<?php function (", "<?php class { public function", "<?php $x->;"} {
		tree, err := parser.Parse(context.Background(), []byte(src))
		require.NoError(t, err, src)
		assert.NotEmpty(t, tree.Diagnostics, src)
	}
}
