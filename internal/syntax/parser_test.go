package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/source"
)

var tsModule = source.Type{Language: source.TypeScript, ModuleKind: source.Module}

func parse(t *testing.T, src string, st source.Type) (*Tree, *arena.Arena) {
	t.Helper()
	a := arena.New()
	p := NewParser(a)
	t.Cleanup(p.Close)
	tree, diags, err := p.Parse(context.Background(), []byte(src), st)
	require.NoError(t, err)
	require.Empty(t, diags, "unexpected syntax errors: %s", diags)
	return tree, a
}

// find returns the first node of kind in source order.
func find(tree *Tree, kind string) NodeID {
	found := None
	tree.Walk(tree.Root(), func(id NodeID) bool {
		if found != None {
			return false
		}
		if tree.Kind(id) == kind {
			found = id
			return false
		}
		return true
	})
	return found
}

func TestParseMirrorsTree(t *testing.T) {
	tree, _ := parse(t, "const x: number = 1;", tsModule)

	root := tree.Root()
	assert.Equal(t, "program", tree.Kind(root))
	assert.Equal(t, None, tree.Parent(root))

	decl := find(tree, "variable_declarator")
	require.NotEqual(t, None, decl)

	name := tree.ChildByField(decl, "name")
	assert.Equal(t, "x", tree.Text(name))

	typ := tree.ChildByField(decl, "type")
	require.NotEqual(t, None, typ)
	assert.Equal(t, "type_annotation", tree.Kind(typ))
	assert.Equal(t, ": number", tree.Text(typ))

	value := tree.ChildByField(decl, "value")
	assert.Equal(t, "1", tree.Text(value))
	assert.Equal(t, decl, tree.Parent(value))
}

func TestParseKeepsAnonymousTokens(t *testing.T) {
	tree, _ := parse(t, "let a = 1;", tsModule)

	stmt := find(tree, "lexical_declaration")
	require.NotEqual(t, None, stmt)
	assert.True(t, tree.HasChild(stmt, "let"))
	assert.True(t, tree.HasChild(stmt, ";"))
	assert.False(t, tree.Node(tree.ChildOfKind(stmt, "let")).IsNamed())
}

func TestParseIDsFollowSourceOrder(t *testing.T) {
	tree, _ := parse(t, "let a = 1;\nlet b = 2;\nlet c = 3;", tsModule)

	prev := NodeID(-1)
	var prevStart uint32
	tree.Walk(tree.Root(), func(id NodeID) bool {
		n := tree.Node(id)
		assert.Greater(t, id, prev)
		assert.GreaterOrEqual(t, n.Start, prevStart)
		prev, prevStart = id, n.Start
		return true
	})
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing binding", "const = ;"},
		{"unclosed block", "function f() {"},
		{"stray token", "let x = 1 +;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := arena.New()
			p := NewParser(a)
			defer p.Close()

			tree, diags, err := p.Parse(context.Background(), []byte(tt.src), tsModule)
			require.NoError(t, err)
			require.NotNil(t, tree)
			require.NotEmpty(t, diags)
			assert.True(t, diags.HasErrors())
			assert.Equal(t, 1, diags[0].Line)
			assert.Equal(t, tt.src, diags[0].Snippet)
			assert.Regexp(t, `^(Unexpected|Expected) `, diags[0].Message)
		})
	}
}

func TestParseJSXWithTSX(t *testing.T) {
	tsx := source.Type{Language: source.TypeScript, Variant: source.JSX}
	tree, _ := parse(t, "const el = <div>{value as string}</div>;", tsx)
	assert.NotEqual(t, None, find(tree, "jsx_element"))
	assert.NotEqual(t, None, find(tree, "as_expression"))
}

func TestParseJavaScript(t *testing.T) {
	js := source.Type{Language: source.JavaScript, Variant: source.JSX}
	tree, _ := parse(t, "export default function App() { return <App />; }", js)
	assert.NotEqual(t, None, find(tree, "jsx_self_closing_element"))
}

func TestParserReusedAcrossResets(t *testing.T) {
	a := arena.New()
	p := NewParser(a)
	defer p.Close()

	for i := 0; i < 3; i++ {
		a.Reset()
		tree, diags, err := p.Parse(context.Background(), []byte("let a: string = 'x';"), tsModule)
		require.NoError(t, err)
		require.Empty(t, diags)
		assert.Equal(t, "program", tree.Kind(tree.Root()))
	}
}

func TestParseClosedParser(t *testing.T) {
	p := NewParser(arena.New())
	p.Close()
	p.Close()
	_, _, err := p.Parse(context.Background(), []byte("1"), tsModule)
	assert.Error(t, err)
}
