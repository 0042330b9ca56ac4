// Package semantic builds scopes, symbols and references for a syntax tree.
//
// The analysis is shallow: it knows which names are declared
// where and how often each declaration is used as a value, which is what the
// transform stage needs to drop type-only imports and to lower enums and
// namespaces. It does no type checking.
package semantic

import (
	"fmt"
	"strings"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/syntax"
)

type (
	ScopeID     int32
	SymbolID    int32
	ReferenceID int32
)

const (
	NoScope  ScopeID  = -1
	NoSymbol SymbolID = -1
)

// ScopeKind says what opened a scope.
type ScopeKind uint8

const (
	ScopeProgram ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeClass
	ScopeCatch
	ScopeNamespace
)

var scopeKindNames = [...]string{"program", "function", "block", "class", "catch", "namespace"}

func (k ScopeKind) String() string {
	if int(k) < len(scopeKindNames) {
		return scopeKindNames[k]
	}
	return fmt.Sprintf("ScopeKind(%d)", k)
}

// hoists reports whether var declarations stop at this scope.
func (k ScopeKind) hoists() bool {
	return k == ScopeProgram || k == ScopeFunction || k == ScopeNamespace
}

// SymbolFlags classify a declaration.
type SymbolFlags uint32

const (
	FlagVar SymbolFlags = 1 << iota
	FlagLet
	FlagConst
	FlagFunction
	FlagClass
	FlagParam
	FlagCatch
	FlagImport
	FlagTypeOnlyImport
	FlagInterface
	FlagTypeAlias
	FlagTypeParam
	FlagEnum
	FlagNamespace
	FlagSynthetic
)

const (
	// valueFlags declare a name in value space.
	valueFlags = FlagVar | FlagLet | FlagConst | FlagFunction | FlagClass | FlagParam |
		FlagCatch | FlagImport | FlagEnum | FlagNamespace
	// typeFlags declare a name in type space.
	typeFlags = FlagClass | FlagImport | FlagTypeOnlyImport | FlagInterface | FlagTypeAlias |
		FlagTypeParam | FlagEnum | FlagNamespace
	// lexicalFlags may not share a scope with another value declaration.
	lexicalFlags = FlagLet | FlagConst | FlagClass | FlagImport
)

var flagNames = []struct {
	flag SymbolFlags
	name string
}{
	{FlagVar, "var"}, {FlagLet, "let"}, {FlagConst, "const"}, {FlagFunction, "function"},
	{FlagClass, "class"}, {FlagParam, "param"}, {FlagCatch, "catch"}, {FlagImport, "import"},
	{FlagTypeOnlyImport, "type-import"}, {FlagInterface, "interface"}, {FlagTypeAlias, "type"},
	{FlagTypeParam, "type-param"}, {FlagEnum, "enum"}, {FlagNamespace, "namespace"},
	{FlagSynthetic, "synthetic"},
}

// Has reports whether any of x is set.
func (f SymbolFlags) Has(x SymbolFlags) bool { return f&x != 0 }

// IsValue reports whether the symbol lives in value space.
func (f SymbolFlags) IsValue() bool { return f&valueFlags != 0 }

// IsType reports whether the symbol lives in type space.
func (f SymbolFlags) IsType() bool { return f&typeFlags != 0 }

func (f SymbolFlags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Space is a declaration namespace. TypeScript keeps values and types apart,
// so `interface A {}` and `const A = 1` can coexist.
type Space uint8

const (
	ValueSpace Space = iota
	TypeSpace
)

// Scope is one lexical scope.
type Scope struct {
	Kind   ScopeKind
	Parent ScopeID
	Node   syntax.NodeID // node that opened the scope
}

// Symbol is one declaration.
type Symbol struct {
	Name      string
	Flags     SymbolFlags
	Scope     ScopeID
	Decl      syntax.NodeID // the declared identifier
	valueRefs int32
	typeRefs  int32
}

// Reference is one use of a name.
type Reference struct {
	Node   syntax.NodeID
	Name   string
	Scope  ScopeID
	Type   bool // used in a type position
	Symbol SymbolID
}

type bindingKey struct {
	scope ScopeID
	name  string
	space Space
}

// Scoping is the result of the semantic stage. Its tables live in the arena
// and are only valid until the arena is reset.
type Scoping struct {
	arena *arena.Arena
	gen   uint64

	scopes  *arena.Slab[Scope]
	symbols *arena.Slab[Symbol]
	refs    *arena.Slab[Reference]

	bindings map[bindingKey]SymbolID
	decls    map[syntax.NodeID]SymbolID
	scopeOf  map[syntax.NodeID]ScopeID
}

func (s *Scoping) check() {
	if s.gen != s.arena.Generation() {
		panic(fmt.Sprintf("semantic: scoping from arena generation %d used in generation %d", s.gen, s.arena.Generation()))
	}
}

// RootScope returns the program scope.
func (s *Scoping) RootScope() ScopeID { return 0 }

// Scope returns a copy of scope id.
func (s *Scoping) Scope(id ScopeID) Scope {
	s.check()
	return s.scopes.Get(int32(id))
}

// Symbol returns a copy of symbol id.
func (s *Scoping) Symbol(id SymbolID) Symbol {
	s.check()
	return s.symbols.Get(int32(id))
}

// Reference returns a copy of reference id.
func (s *Scoping) Reference(id ReferenceID) Reference {
	s.check()
	return s.refs.Get(int32(id))
}

// Scopes, Symbols and References report table sizes.
func (s *Scoping) Scopes() int     { s.check(); return s.scopes.Len() }
func (s *Scoping) Symbols() int    { s.check(); return s.symbols.Len() }
func (s *Scoping) References() int { s.check(); return s.refs.Len() }

// Capacity reports the reserved size of the scope, symbol and reference
// tables.
func (s *Scoping) Capacity() (scopes, symbols, refs int) {
	s.check()
	return s.scopes.Cap(), s.symbols.Cap(), s.refs.Cap()
}

// ScopeOf returns the scope opened by node.
func (s *Scoping) ScopeOf(node syntax.NodeID) (ScopeID, bool) {
	s.check()
	id, ok := s.scopeOf[node]
	return id, ok
}

// SymbolForDecl returns the symbol declared by the identifier node.
func (s *Scoping) SymbolForDecl(node syntax.NodeID) (SymbolID, bool) {
	s.check()
	id, ok := s.decls[node]
	return id, ok
}

// Binding returns the first declaration of name in exactly scope.
func (s *Scoping) Binding(scope ScopeID, name string, space Space) (SymbolID, bool) {
	s.check()
	id, ok := s.bindings[bindingKey{scope, name, space}]
	return id, ok
}

// Lookup resolves name starting at scope and walking outwards.
func (s *Scoping) Lookup(scope ScopeID, name string, space Space) SymbolID {
	s.check()
	for scope != NoScope {
		if id, ok := s.bindings[bindingKey{scope, name, space}]; ok {
			return id
		}
		scope = s.scopes.At(int32(scope)).Parent
	}
	return NoSymbol
}

// ValueRefs counts the references to sym in value positions.
func (s *Scoping) ValueRefs(sym SymbolID) int {
	s.check()
	return int(s.symbols.At(int32(sym)).valueRefs)
}

// TypeRefs counts the references to sym in type positions.
func (s *Scoping) TypeRefs(sym SymbolID) int {
	s.check()
	return int(s.symbols.At(int32(sym)).typeRefs)
}

// AddScope appends a scope. The transform stage uses it for the function
// scopes of the wrappers it emits.
func (s *Scoping) AddScope(kind ScopeKind, parent ScopeID, node syntax.NodeID) ScopeID {
	s.check()
	id := ScopeID(s.scopes.Alloc(Scope{Kind: kind, Parent: parent, Node: node}))
	if node != syntax.None {
		if _, ok := s.scopeOf[node]; !ok {
			s.scopeOf[node] = id
		}
	}
	return id
}

// AddSymbol declares name in scope. An existing binding for the same name
// keeps precedence.
func (s *Scoping) AddSymbol(scope ScopeID, name string, flags SymbolFlags, decl syntax.NodeID) SymbolID {
	s.check()
	id := SymbolID(s.symbols.Alloc(Symbol{Name: name, Flags: flags, Scope: scope, Decl: decl}))
	if decl != syntax.None {
		s.decls[decl] = id
	}
	if flags.IsValue() {
		s.bind(bindingKey{scope, name, ValueSpace}, id)
	}
	if flags.IsType() {
		s.bind(bindingKey{scope, name, TypeSpace}, id)
	}
	return id
}

func (s *Scoping) bind(k bindingKey, id SymbolID) {
	if _, ok := s.bindings[k]; !ok {
		s.bindings[k] = id
	}
}
