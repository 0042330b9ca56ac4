package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/source"
	"github.com/maxleiko/oxcc/internal/syntax"
)

var (
	tsModule = source.Type{Language: source.TypeScript, ModuleKind: source.Module}
	tsScript = source.Type{Language: source.TypeScript, ModuleKind: source.Script}
)

type fixture struct {
	arena *arena.Arena
	tree  *syntax.Tree
	sc    *Scoping
	diags diag.List
}

func build(t *testing.T, src string, opts ...Option) fixture {
	t.Helper()
	return buildAs(t, src, tsModule, opts...)
}

func buildAs(t *testing.T, src string, st source.Type, opts ...Option) fixture {
	t.Helper()
	a := arena.New()
	p := syntax.NewParser(a)
	t.Cleanup(p.Close)
	tree, perr, err := p.Parse(context.Background(), []byte(src), st)
	require.NoError(t, err)
	require.Empty(t, perr)
	sc, diags := NewBuilder(a, opts...).Build(tree)
	return fixture{arena: a, tree: tree, sc: sc, diags: diags}
}

// symbol finds the symbol declared by the first identifier named name.
func (f fixture) symbol(t *testing.T, name string) Symbol {
	t.Helper()
	for i := 0; i < f.sc.Symbols(); i++ {
		s := f.sc.Symbol(SymbolID(i))
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no symbol %q", name)
	return Symbol{}
}

func (f fixture) refs(t *testing.T, name string) (value, typ int) {
	t.Helper()
	for i := 0; i < f.sc.Symbols(); i++ {
		if f.sc.Symbol(SymbolID(i)).Name == name {
			return f.sc.ValueRefs(SymbolID(i)), f.sc.TypeRefs(SymbolID(i))
		}
	}
	t.Fatalf("no symbol %q", name)
	return 0, 0
}

func TestDeclarations(t *testing.T) {
	f := build(t, `
import def, { a, type B, c as d } from "m";
import type { E } from "m";
import * as ns from "ns";
var v = 1;
let l = 2;
const k = 3;
function fn(p: number, { q }: any, [r] = []) {}
class C<T> {}
interface I {}
type Alias = string;
enum En { A }
namespace N {}
try {} catch (err) {}
`)
	require.Empty(t, f.diags)

	tests := []struct {
		name  string
		flags SymbolFlags
	}{
		{"def", FlagImport},
		{"a", FlagImport},
		{"B", FlagTypeOnlyImport},
		{"d", FlagImport},
		{"E", FlagTypeOnlyImport},
		{"ns", FlagImport},
		{"v", FlagVar},
		{"l", FlagLet},
		{"k", FlagConst},
		{"fn", FlagFunction},
		{"p", FlagParam},
		{"q", FlagParam},
		{"r", FlagParam},
		{"C", FlagClass},
		{"T", FlagTypeParam},
		{"I", FlagInterface},
		{"Alias", FlagTypeAlias},
		{"En", FlagEnum},
		{"N", FlagNamespace},
		{"err", FlagCatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.flags, f.symbol(t, tt.name).Flags)
		})
	}

	root := f.sc.RootScope()
	_, ok := f.sc.Binding(root, "B", ValueSpace)
	assert.False(t, ok, "type-only imports have no value binding")
	_, ok = f.sc.Binding(root, "B", TypeSpace)
	assert.True(t, ok)
	_, ok = f.sc.Binding(root, "I", ValueSpace)
	assert.False(t, ok)
	_, ok = f.sc.Binding(root, "C", ValueSpace)
	assert.True(t, ok)
}

func TestValueAndTypeReferences(t *testing.T) {
	f := build(t, `
import { A, B, C, D } from "m";
const x: A = new B();
let y = <C>x;
let z = x as D;
function g(): A { return y as any; }
`)
	require.Empty(t, f.diags)

	v, ty := f.refs(t, "A")
	assert.Equal(t, 0, v)
	assert.Equal(t, 2, ty)

	v, _ = f.refs(t, "B")
	assert.Equal(t, 1, v)

	v, ty = f.refs(t, "C")
	assert.Equal(t, 0, v)
	assert.Equal(t, 1, ty)

	v, ty = f.refs(t, "D")
	assert.Equal(t, 0, v)
	assert.Equal(t, 1, ty)

	v, _ = f.refs(t, "x")
	assert.Equal(t, 2, v)
}

func TestHoistedReferencesResolve(t *testing.T) {
	f := build(t, `
use();
console.log(later);
function use() {}
var later = 1;
`)
	require.Empty(t, f.diags)
	v, _ := f.refs(t, "use")
	assert.Equal(t, 1, v)
	v, _ = f.refs(t, "later")
	assert.Equal(t, 1, v)
}

func TestShadowing(t *testing.T) {
	f := build(t, `
import { x } from "m";
function f(x) { return x; }
{ let x = 1; x; }
`)
	require.Empty(t, f.diags)
	v, _ := f.refs(t, "x") // the import
	assert.Equal(t, 0, v)
}

func TestVarHoistsToFunction(t *testing.T) {
	f := build(t, `function f() { { var inner = 1; } return inner; }`)
	require.Empty(t, f.diags)
	s := f.symbol(t, "inner")
	assert.Equal(t, ScopeFunction, f.sc.Scope(s.Scope).Kind)
	v, _ := f.refs(t, "inner")
	assert.Equal(t, 1, v)
}

func TestExportClauseCountsAsUse(t *testing.T) {
	f := build(t, `
import { a, b } from "m";
export { a };
export { b } from "other";
`)
	require.Empty(t, f.diags)
	v, _ := f.refs(t, "a")
	assert.Equal(t, 1, v)
	v, _ = f.refs(t, "b")
	assert.Equal(t, 0, v)
}

func TestFunctionTypeParametersDeclareNothing(t *testing.T) {
	f := build(t, `function f(cb: (a: string) => void) { let a = 1; return a; }`)
	assert.Empty(t, f.diags)
}

func TestRedeclarations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fail bool
	}{
		{"let let", "let a = 1; let a = 2;", true},
		{"const var", "const a = 1; var a = 2;", true},
		{"var var", "var a = 1; var a = 2;", false},
		{"function var", "function a() {} var a;", true},
		{"function function", "function a() {} function a() {}", true},
		{"nested function var", "function f() { function a() {} var a; }", false},
		{"nested function function", "function f() { function a() {} function a() {} }", false},
		{"duplicate param", "function f(a, a) {}", true},
		{"duplicate arrow param", "const f = (a, b, a) => 0;", true},
		{"class function", "class a {} function a() {}", true},
		{"import let", `import { a } from "m"; let a = 1;`, true},
		{"param let", "function f(a) { let a = 1; }", true},
		{"param var", "function f(a) { var a = 1; }", false},
		{"catch let", "try {} catch (a) { let a = 1; }", true},
		{"block shadow", "let a = 1; { let a = 2; }", false},
		{"var through block", "{ let a = 1; { var a = 2; } }", true},
		{"interface merge", "interface A {} interface A {}", false},
		{"class interface merge", "class A {} interface A {}", false},
		{"class namespace merge", "class A {} namespace A {}", false},
		{"enum merge", "enum A { X } enum A { Y = 1 }", false},
		{"duplicate alias", "type A = 1; type A = 2;", true},
		{"alias interface", "interface A {} type A = 1;", true},
		{"alias and value", "type A = 1; const A = 1;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := build(t, tt.src)
			if !tt.fail {
				assert.Empty(t, f.diags)
				return
			}
			require.Len(t, f.diags, 1)
			assert.Equal(t, "Identifier 'a' has already been declared", lower(f.diags[0].Message))
		})
	}
}

func TestScriptDuplicatesAllowed(t *testing.T) {
	for _, src := range []string{
		"function a() {} function a() {}",
		"function a() {} var a;",
		"function f(a, a) {}",
	} {
		f := buildAs(t, src, tsScript)
		assert.Empty(t, f.diags, src)
	}
}

func TestDuplicateParamPosition(t *testing.T) {
	f := build(t, "function f(\n  a: number,\n  a: string,\n) {}\n")
	require.Len(t, f.diags, 1)
	assert.Equal(t, 3, f.diags[0].Line)
	assert.Equal(t, 3, f.diags[0].Column)
}

// lower normalises the identifier in redeclaration messages for the table
// above, which uses both a and A.
func lower(msg string) string {
	if msg == "Identifier 'A' has already been declared" {
		return "Identifier 'a' has already been declared"
	}
	return msg
}

func TestMissingConstInitializer(t *testing.T) {
	f := build(t, "const a = 1, b;\nlet c;\nfor (const d of []) {}\n")
	require.Len(t, f.diags, 1)
	d := f.diags[0]
	assert.Equal(t, "Missing initializer in const declaration", d.Message)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, 14, d.Column)
}

func TestAmbientDeclarationsSkipped(t *testing.T) {
	f := build(t, "declare const a: number;\ndeclare function f(): void;\nlet a = 1;\nfunction f() {}\n")
	assert.Empty(t, f.diags)
}

func TestScopeKinds(t *testing.T) {
	f := build(t, `
function f() {}
class C {}
{ }
try {} catch (e) {}
namespace N { }
`)
	seen := map[ScopeKind]int{}
	for i := 0; i < f.sc.Scopes(); i++ {
		seen[f.sc.Scope(ScopeID(i)).Kind]++
	}
	assert.Equal(t, 1, seen[ScopeProgram])
	assert.Equal(t, 1, seen[ScopeFunction])
	assert.Equal(t, 1, seen[ScopeClass])
	assert.Equal(t, 1, seen[ScopeCatch])
	assert.Equal(t, 1, seen[ScopeNamespace])
	// the bare block and the try block
	assert.Equal(t, 2, seen[ScopeBlock])
	assert.Equal(t, ScopeProgram, f.sc.Scope(f.sc.RootScope()).Kind)
	assert.Equal(t, NoScope, f.sc.Scope(f.sc.RootScope()).Parent)
}

func TestExcessCapacity(t *testing.T) {
	src := "let a = 1, b = 2, c = 3; function f(x, y) { return x + y + a + b + c; }"

	lean := build(t, src, WithExcessCapacity(0))
	roomy := build(t, src)

	_, leanSyms, leanRefs := lean.sc.Capacity()
	_, roomySyms, roomyRefs := roomy.sc.Capacity()
	assert.GreaterOrEqual(t, roomySyms, 3*lean.sc.Symbols())
	assert.Greater(t, roomySyms, leanSyms)
	assert.Greater(t, roomyRefs, leanRefs)
}

func TestAddSymbolAndScope(t *testing.T) {
	f := build(t, "enum E { A }")
	root := f.sc.RootScope()
	before := f.sc.Symbols()

	scope := f.sc.AddScope(ScopeFunction, root, syntax.None)
	sym := f.sc.AddSymbol(scope, "E", FlagParam|FlagSynthetic, syntax.None)

	assert.Equal(t, before+1, f.sc.Symbols())
	assert.Equal(t, sym, f.sc.Lookup(scope, "E", ValueSpace))
	assert.NotEqual(t, sym, f.sc.Lookup(root, "E", ValueSpace))
	assert.Equal(t, "param|synthetic", f.sc.Symbol(sym).Flags.String())
}

func TestScopingGenerationGuard(t *testing.T) {
	f := build(t, "let a = 1;")
	f.arena.Reset()
	assert.Panics(t, func() { f.sc.Symbols() })
	assert.Panics(t, func() { f.sc.Lookup(0, "a", ValueSpace) })
}

func TestBuilderReuse(t *testing.T) {
	a := arena.New()
	p := syntax.NewParser(a)
	defer p.Close()
	b := NewBuilder(a)

	for _, src := range []string{"let a = 1; let a = 2;", "let a = 1;"} {
		a.Reset()
		tree, _, err := p.Parse(context.Background(), []byte(src), tsModule)
		require.NoError(t, err)
		_, diags := b.Build(tree)
		if src == "let a = 1;" {
			assert.Empty(t, diags, "bindings from the previous build leaked")
		}
	}
}
