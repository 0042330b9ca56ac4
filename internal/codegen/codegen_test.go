package codegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/source"
	"github.com/maxleiko/oxcc/internal/syntax"
)

var tsModule = source.Type{Language: source.TypeScript, ModuleKind: source.Module}

func parse(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	p := syntax.NewParser(arena.New())
	t.Cleanup(p.Close)
	tree, diags, err := p.Parse(context.Background(), []byte(src), tsModule)
	require.NoError(t, err)
	require.Empty(t, diags)
	return tree
}

// each calls fn for every node of kind in source order.
func each(tree *syntax.Tree, kind string, fn func(syntax.NodeID)) {
	var ids []syntax.NodeID
	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		if tree.Kind(id) == kind {
			ids = append(ids, id)
		}
		return true
	})
	for _, id := range ids {
		fn(id)
	}
}

func render(tree *syntax.Tree) string {
	return string(Print(tree, nil))
}

func TestPrintUnchanged(t *testing.T) {
	src := "  // leading\nconst x = 1; /* trailing */\n\nfunction f() {\n\treturn x;\n}\n"
	tree := parse(t, src)
	assert.Equal(t, src, render(tree))
}

func TestPrintDropInline(t *testing.T) {
	tree := parse(t, "const x: number = 1;\nfunction f(a: string, b?: number): void {}\n")
	each(tree, "type_annotation", func(id syntax.NodeID) { tree.Remove(id, syntax.DropInline) })
	each(tree, "optional_parameter", func(id syntax.NodeID) {
		tree.Remove(tree.ChildOfKind(id, "?"), syntax.DropInline)
	})
	assert.Equal(t, "const x = 1;\nfunction f(a, b) {}\n", render(tree))
}

func TestPrintDropLeading(t *testing.T) {
	tree := parse(t, "class A {\n  constructor(private readonly x, public y) {}\n}\n")
	each(tree, "accessibility_modifier", func(id syntax.NodeID) { tree.Remove(id, syntax.DropLeading) })
	each(tree, "required_parameter", func(id syntax.NodeID) {
		if r := tree.ChildOfKind(id, "readonly"); r != syntax.None {
			tree.Remove(r, syntax.DropLeading)
		}
	})
	assert.Equal(t, "class A {\n  constructor(x, y) {}\n}\n", render(tree))
}

func TestPrintDropLine(t *testing.T) {
	src := "interface A {}\nconst x = 1;\n  type B = string;\nconst y = 2;\ntype C = 1;"
	tree := parse(t, src)
	each(tree, "interface_declaration", func(id syntax.NodeID) { tree.Remove(id, syntax.DropLine) })
	each(tree, "type_alias_declaration", func(id syntax.NodeID) { tree.Remove(id, syntax.DropLine) })
	assert.Equal(t, "const x = 1;\nconst y = 2;\n", render(tree))
}

func TestPrintDropLineSharedLine(t *testing.T) {
	tree := parse(t, "const x = 1; type A = 1;\ntype B = 2; const y = 2;\n")
	each(tree, "type_alias_declaration", func(id syntax.NodeID) { tree.Remove(id, syntax.DropLine) })
	assert.Equal(t, "const x = 1;\nconst y = 2;\n", render(tree))
}

func TestPrintDropListItems(t *testing.T) {
	tree := parse(t, "import {\n  A,\n  B,\n  C\n} from \"m\";\nimport { D, E } from \"n\";\n")
	each(tree, "import_specifier", func(id syntax.NodeID) {
		switch tree.Text(id) {
		case "B":
			// middle item together with its trailing comma
			tree.Remove(id, syntax.DropLine)
			kids := tree.Children(tree.Parent(id))
			for i, k := range kids {
				if k == id {
					tree.Remove(kids[i+1], syntax.DropLeading)
				}
			}
		case "E":
			// last item together with the comma before it
			tree.Remove(id, syntax.DropInline)
			kids := tree.Children(tree.Parent(id))
			for i, k := range kids {
				if k == id {
					tree.Remove(kids[i-1], syntax.DropInline)
				}
			}
		}
	})
	assert.Equal(t, "import {\n  A,\n  C\n} from \"m\";\nimport { D } from \"n\";\n", render(tree))
}

func TestPrintReplaceUnwrapInsert(t *testing.T) {
	tree := parse(t, "let v = (a as any).b!;\nfoo();\n")
	each(tree, "as_expression", func(id syntax.NodeID) { tree.Unwrap(id, tree.Children(id)[0]) })
	each(tree, "non_null_expression", func(id syntax.NodeID) { tree.Unwrap(id, tree.Children(id)[0]) })
	each(tree, "lexical_declaration", func(id syntax.NodeID) {
		tree.Replace(tree.ChildOfKind(id, "let"), "var")
		tree.InsertAfter(id, tree.NewText("\nbar();"))
	})
	assert.Equal(t, "var v = (a).b;\nbar();\nfoo();\n", render(tree))
}

func TestPrintSeq(t *testing.T) {
	tree := parse(t, "x;\n")
	each(tree, "expression_statement", func(id syntax.NodeID) {
		seq := tree.NewSeq(tree.NewText("/*a*/"), tree.NewText("/*b*/"))
		tree.InsertBefore(id, seq)
	})
	assert.Equal(t, "/*a*//*b*/x;\n", render(tree))
}

func TestGenerateReusesBuffer(t *testing.T) {
	g := New(Options{}, nil)
	first := string(g.Generate(parse(t, "a;")))
	second := string(g.Generate(parse(t, "bb;")))
	assert.Equal(t, "a;", first)
	assert.Equal(t, "bb;", second)
}

func TestGenerateReprint(t *testing.T) {
	g := New(Options{Reprint: true}, nil)
	out := string(g.Generate(parse(t, "let   x=1;")))
	assert.Equal(t, "let x = 1;\n", out)
}

func TestGenerateMinify(t *testing.T) {
	g := New(Options{Minify: true}, nil)
	out := string(g.Generate(parse(t, "function f ( a ) {\n  return a + 1;\n}\n")))
	assert.Equal(t, "function f(a){return a+1}\n", out)
}

func TestGenerateReprintFallback(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := New(Options{Reprint: true}, zap.New(core))

	// Type syntax is not JavaScript; esbuild refuses it with the JS loader.
	out := string(g.Generate(parse(t, "let x: number = 1;")))
	assert.Equal(t, "let x: number = 1;", out)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "reprint failed")
}
