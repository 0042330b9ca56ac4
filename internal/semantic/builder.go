package semantic

import (
	"fmt"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/syntax"
)

// DefaultExcessCapacity is the fraction of extra room reserved in the
// scoping tables for declarations added after analysis.
const DefaultExcessCapacity = 2.0

// Builder runs the semantic stage. It reuses its tables across calls through
// the arena and is not safe for concurrent use.
type Builder struct {
	arena  *arena.Arena
	excess float64

	scopes  *arena.Slab[Scope]
	symbols *arena.Slab[Symbol]
	refs    *arena.Slab[Reference]

	bindings map[bindingKey]SymbolID
	decls    map[syntax.NodeID]SymbolID
	scopeOf  map[syntax.NodeID]ScopeID

	// per-build state
	tree  *syntax.Tree
	sc    *Scoping
	cur   ScopeID
	diags diag.List
}

// Option configures a Builder.
type Option func(*Builder)

// WithExcessCapacity sets the extra room reserved in every table as a
// fraction of the estimated size. Negative values are treated as zero.
func WithExcessCapacity(excess float64) Option {
	return func(b *Builder) {
		b.excess = max(excess, 0)
	}
}

// NewBuilder creates a Builder allocating from a.
func NewBuilder(a *arena.Arena, opts ...Option) *Builder {
	b := &Builder{
		arena:   a,
		excess:  DefaultExcessCapacity,
		scopes:  arena.NewSlab[Scope](a),
		symbols: arena.NewSlab[Symbol](a),
		refs:    arena.NewSlab[Reference](a),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build analyses tree. Redeclarations and other early errors are returned as
// diagnostics.
func (b *Builder) Build(tree *syntax.Tree) (*Scoping, diag.List) {
	scopes, names := estimate(tree)
	grow := func(n int) int { return int(float64(n) * (1 + b.excess)) }
	b.scopes.Grow(grow(scopes))
	b.symbols.Grow(grow(names))
	b.refs.Grow(grow(names))

	if b.bindings == nil {
		b.bindings = make(map[bindingKey]SymbolID, grow(names))
		b.decls = make(map[syntax.NodeID]SymbolID, grow(names))
		b.scopeOf = make(map[syntax.NodeID]ScopeID, grow(scopes))
	} else {
		clear(b.bindings)
		clear(b.decls)
		clear(b.scopeOf)
	}

	b.tree = tree
	b.diags = nil
	b.sc = &Scoping{
		arena:    b.arena,
		gen:      b.arena.Generation(),
		scopes:   b.scopes,
		symbols:  b.symbols,
		refs:     b.refs,
		bindings: b.bindings,
		decls:    b.decls,
		scopeOf:  b.scopeOf,
	}
	defer func() { b.tree, b.sc = nil, nil }()

	root := tree.Root()
	b.cur = b.sc.AddScope(ScopeProgram, NoScope, root)
	b.visitChildren(root, false)
	b.resolve()
	return b.sc, b.diags
}

// estimate counts scope-opening nodes and identifiers.
func estimate(tree *syntax.Tree) (scopes, names int) {
	tree.Walk(tree.Root(), func(id syntax.NodeID) bool {
		switch tree.Kind(id) {
		case "identifier", "type_identifier", "shorthand_property_identifier",
			"shorthand_property_identifier_pattern":
			names++
		case "statement_block", "class_body", "catch_clause", "for_statement", "for_in_statement",
			"switch_body", "arrow_function", "method_definition", "function_expression", "function":
			scopes++
		}
		return true
	})
	return scopes + 1, names + 1
}

func (b *Builder) resolve() {
	for i := 0; i < b.refs.Len(); i++ {
		r := b.refs.At(int32(i))
		space := ValueSpace
		if r.Type {
			space = TypeSpace
		}
		sym := b.sc.Lookup(r.Scope, r.Name, space)
		if sym == NoSymbol && r.Type {
			sym = b.sc.Lookup(r.Scope, r.Name, ValueSpace)
		}
		r.Symbol = sym
		if sym == NoSymbol {
			continue
		}
		if r.Type {
			b.symbols.At(int32(sym)).typeRefs++
		} else {
			b.symbols.At(int32(sym)).valueRefs++
		}
	}
}

func (b *Builder) push(kind ScopeKind, node syntax.NodeID) ScopeID {
	prev := b.cur
	b.cur = b.sc.AddScope(kind, prev, node)
	return prev
}

func (b *Builder) pop(prev ScopeID) { b.cur = prev }

func (b *Builder) errorAt(node syntax.NodeID, format string, args ...any) {
	b.diags = append(b.diags, b.tree.Diagnostic(node, fmt.Sprintf(format, args...)))
}

func (b *Builder) ref(node syntax.NodeID, inType bool) {
	b.refs.Alloc(Reference{
		Node:   node,
		Name:   b.tree.Text(node),
		Scope:  b.cur,
		Type:   inType,
		Symbol: NoSymbol,
	})
}

// declare adds a symbol for the identifier node, reporting conflicting
// declarations.
func (b *Builder) declare(node syntax.NodeID, flags SymbolFlags) SymbolID {
	name := b.tree.Text(node)
	scope := b.cur
	if flags.Has(FlagVar) {
		// var hoists to the enclosing function; any lexical binding of the
		// same name on the way conflicts.
		for {
			s := b.scopes.At(int32(scope))
			if b.conflicts(scope, name, flags, node) || s.Kind.hoists() {
				break
			}
			scope = s.Parent
		}
	} else {
		b.conflicts(scope, name, flags, node)
	}
	return b.sc.AddSymbol(scope, name, flags, node)
}

// strictDuplicate reports redeclarations that only modules reject: a
// repeated parameter name, and a top-level function sharing its name with
// another function or var.
func (b *Builder) strictDuplicate(scope ScopeID, prev, flags SymbolFlags) bool {
	if !b.tree.SourceType().IsModule() {
		return false
	}
	if prev.Has(FlagParam) && flags.Has(FlagParam) {
		return true
	}
	return scope == b.sc.RootScope() &&
		(prev.Has(FlagFunction) || flags.Has(FlagFunction)) &&
		(prev.Has(FlagFunction|FlagVar) && flags.Has(FlagFunction|FlagVar))
}

func (b *Builder) conflicts(scope ScopeID, name string, flags SymbolFlags, node syntax.NodeID) bool {
	if flags.IsValue() {
		if prev, ok := b.bindings[bindingKey{scope, name, ValueSpace}]; ok {
			pf := b.symbols.At(int32(prev)).Flags
			lexical := pf.Has(lexicalFlags) || flags.Has(lexicalFlags) || b.strictDuplicate(scope, pf, flags)
			merges := pf.Has(FlagNamespace) || flags.Has(FlagNamespace) ||
				(pf.Has(FlagEnum) && flags.Has(FlagEnum))
			if lexical && !merges {
				b.errorAt(node, "Identifier '%s' has already been declared", name)
				return true
			}
		}
	}
	if flags.IsType() {
		if prev, ok := b.bindings[bindingKey{scope, name, TypeSpace}]; ok {
			pf := b.symbols.At(int32(prev)).Flags
			if pf.Has(FlagTypeAlias) || flags.Has(FlagTypeAlias) {
				b.errorAt(node, "Identifier '%s' has already been declared", name)
				return true
			}
		}
	}
	return false
}
