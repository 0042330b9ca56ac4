package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeGenerationGuard(t *testing.T) {
	tree, a := parse(t, "let a = 1;", tsModule)
	root := tree.Root()
	a.Reset()

	assert.Panics(t, func() { tree.Node(root) })
	assert.Panics(t, func() { tree.Root() })
	assert.Panics(t, func() { tree.Text(root) })
}

func TestTreePosition(t *testing.T) {
	tree, _ := parse(t, "let a = 1;\n  let b = 2;\n", tsModule)

	line, col := tree.Position(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	line, col = tree.Position(13) // "let" on line 2
	assert.Equal(t, 2, line)
	assert.Equal(t, 3, col)

	assert.Equal(t, "  let b = 2;", tree.LineText(2))
	assert.Equal(t, "  ", tree.LineIndent(15))
	assert.Equal(t, "", tree.LineText(9))
}

func TestTreeDiagnosticCopiesSnippet(t *testing.T) {
	tree, a := parse(t, "let a = 1;\nlet b = 2;", tsModule)

	var second NodeID = None
	tree.Walk(tree.Root(), func(id NodeID) bool {
		if tree.Kind(id) == "lexical_declaration" {
			second = id
		}
		return true
	})
	d := tree.Diagnostic(second, "boom")
	a.Reset()

	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 1, d.Column)
	assert.Equal(t, "let b = 2;", d.Snippet)
	assert.Equal(t, "2:1: error: boom", d.String())
}

func TestTreeRemoveMarksSubtree(t *testing.T) {
	tree, _ := parse(t, "let a: number = 1;", tsModule)

	ann := find(tree, "type_annotation")
	require.NotEqual(t, None, ann)
	tree.Remove(ann, DropInline)

	assert.True(t, tree.Node(ann).IsRemoved())
	var inner NodeID = None
	tree.Walk(ann, func(id NodeID) bool {
		if id != ann {
			inner = id
		}
		return true
	})
	assert.True(t, tree.Removed(inner))
	assert.False(t, tree.Removed(tree.Root()))
}

func TestTreeRemoveKeepMeansInline(t *testing.T) {
	tree, _ := parse(t, "let a = 1;", tsModule)
	id := find(tree, "number")
	tree.Remove(id, Keep)
	assert.Equal(t, DropInline, tree.Node(id).Drop)
}

func TestTreeReplaceAndUnwrap(t *testing.T) {
	tree, _ := parse(t, "let a = b as any;", tsModule)

	as := find(tree, "as_expression")
	require.NotEqual(t, None, as)
	operand := tree.Children(as)[0]
	tree.Unwrap(as, operand)
	assert.Equal(t, operand, tree.Node(as).Unwrapped())

	id := find(tree, "identifier")
	tree.Replace(id, "renamed")
	text, ok := tree.Node(id).Replacement()
	assert.True(t, ok)
	assert.Equal(t, "renamed", text)

	assert.Panics(t, func() { tree.Unwrap(as, tree.Root()) })
}

func TestTreeInsertSynthetic(t *testing.T) {
	tree, _ := parse(t, "let a = 1;", tsModule)

	stmt := find(tree, "lexical_declaration")
	before := tree.NewText("/* before */")
	after := tree.NewText("/* after */")
	tree.InsertAfter(stmt, after)
	tree.InsertBefore(stmt, before)

	kids := tree.Children(tree.Root())
	require.Len(t, kids, 3)
	assert.Equal(t, before, kids[0])
	assert.Equal(t, stmt, kids[1])
	assert.Equal(t, after, kids[2])
	assert.Equal(t, tree.Root(), tree.Parent(after))
	assert.True(t, tree.Node(after).IsSynthetic())
	assert.Equal(t, "/* after */", tree.Text(after))
}

func TestTreeNewSeq(t *testing.T) {
	tree, _ := parse(t, "let a = 1;", tsModule)

	x := tree.NewText("x")
	y := tree.NewText("y")
	seq := tree.NewSeq(x, y)
	assert.Equal(t, KindSeq, tree.Kind(seq))
	assert.Equal(t, []NodeID{x, y}, tree.Children(seq))
	assert.Equal(t, seq, tree.Parent(y))
	assert.Panics(t, func() { tree.InsertAfter(seq, x) })
}

func TestTreeFieldHelpers(t *testing.T) {
	tree, _ := parse(t, "function f(a: string, b?: number): void {}", tsModule)

	fn := find(tree, "function_declaration")
	require.NotEqual(t, None, fn)
	assert.Equal(t, "f", tree.Text(tree.ChildByField(fn, "name")))
	assert.Equal(t, "type_annotation", tree.Kind(tree.ChildByField(fn, "return_type")))
	assert.Equal(t, None, tree.ChildByField(fn, "type_parameters"))

	params := tree.ChildByField(fn, "parameters")
	named := tree.NamedChildren(params)
	require.Len(t, named, 2)
	assert.Equal(t, "required_parameter", tree.Kind(named[0]))
	assert.Equal(t, "optional_parameter", tree.Kind(named[1]))
	assert.True(t, tree.HasChild(named[1], "?"))
}
