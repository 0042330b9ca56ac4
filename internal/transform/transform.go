// Package transform rewrites a TypeScript syntax tree into JavaScript.
//
// Rewriting happens in place through the tree's edit operations: type-only
// syntax is dropped, runtime TypeScript constructs (enums, namespaces,
// parameter properties, import assignments) are replaced with equivalent
// JavaScript text and the printer splices the result. JavaScript sources
// are left untouched.
package transform

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/semantic"
	"github.com/maxleiko/oxcc/internal/syntax"
)

// Transformer applies the TypeScript rewrites configured by Options. It
// holds no per-source state and may be reused.
type Transformer struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Transformer. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{opts: opts, logger: logger}
}

// Options returns the configuration of tr.
func (tr *Transformer) Options() Options { return tr.opts }

// Transform rewrites tree. Constructs that cannot be expressed in the
// configured output are reported as diagnostics; the tree is still edited
// as far as possible.
func (tr *Transformer) Transform(tree *syntax.Tree, sc *semantic.Scoping) diag.List {
	if !tree.SourceType().IsTypeScript() {
		return nil
	}
	p := &pass{
		opts:     tr.opts,
		tree:     tree,
		sc:       sc,
		logger:   tr.logger,
		declared: make(map[declKey]bool),
		members:  make(map[semantic.SymbolID]string),
	}
	p.visitChildren(tree.Root())
	p.rewriteMembers()
	p.guardSemicolons()
	return p.diags
}

type declKey struct {
	scope semantic.ScopeID
	name  string
}

// nsFrame is a namespace body being lowered. Exports directly inside body
// are assigned onto param.
type nsFrame struct {
	body  syntax.NodeID
	param string
	scope semantic.ScopeID
}

// pass is the state of one Transform call.
type pass struct {
	opts   Options
	tree   *syntax.Tree
	sc     *semantic.Scoping
	logger *zap.Logger
	diags  diag.List

	// declared records the enum and namespace names a `var` was already
	// emitted for, so merged declarations reuse it.
	declared map[declKey]bool
	ns       []nsFrame

	// members maps exported namespace variables to the property that
	// replaces them.
	members map[semantic.SymbolID]string
	step    string // see indentStep
}

func (p *pass) errorAt(id syntax.NodeID, format string, args ...any) {
	p.diags = append(p.diags, p.tree.Diagnostic(id, fmt.Sprintf(format, args...)))
}

func (p *pass) visitChildren(id syntax.NodeID) {
	for _, c := range p.tree.Children(id) {
		p.visit(c)
	}
}

func (p *pass) visit(id syntax.NodeID) {
	t := p.tree
	n := t.Node(id)
	if n.IsSynthetic() || n.IsRemoved() {
		return
	}
	switch n.Kind {
	case "type_annotation", "type_parameters", "type_arguments", "asserts_annotation",
		"type_predicate_annotation", "implements_clause":
		t.Remove(id, syntax.DropInline)

	case "as_expression", "satisfies_expression", "non_null_expression", "instantiation_expression":
		p.unwrap(id, firstNamed(t, id))
	case "type_assertion":
		named := t.NamedChildren(id)
		p.unwrap(id, named[len(named)-1])

	case "accessibility_modifier", "override_modifier":
		t.Remove(id, syntax.DropLeading)

	case "interface_declaration", "type_alias_declaration", "function_signature", "ambient_declaration":
		t.Remove(p.statementOf(id), syntax.DropLine)

	case "abstract_class_declaration":
		if kw := t.ChildOfKind(id, "abstract"); kw != syntax.None {
			t.Remove(kw, syntax.DropLeading)
		}
		p.visitChildren(id)
	case "class_body":
		p.classBody(id)
	case "method_definition":
		p.method(id)
	case "required_parameter", "optional_parameter":
		p.parameter(id)
	case "variable_declarator":
		if bang := t.ChildOfKind(id, "!"); bang != syntax.None {
			t.Remove(bang, syntax.DropInline)
		}
		p.visitChildren(id)

	case "enum_declaration":
		p.enum(id)
	case "internal_module", "module":
		p.namespace(id)

	case "import_statement":
		p.importStatement(id)
	case "import_alias":
		p.importAlias(id)
	case "export_statement":
		p.exportStatement(id)
	case "call_expression":
		if fn := t.ChildByField(id, "function"); fn != syntax.None && t.Kind(fn) == "import" {
			if args := t.ChildByField(id, "arguments"); args != syntax.None {
				if named := t.NamedChildren(args); len(named) > 0 && t.Kind(named[0]) == "string" {
					p.rewriteSpecifier(named[0])
				}
			}
		}
		p.visitChildren(id)

	default:
		p.visitChildren(id)
	}
}

// unwrap keeps only operand of a type-level wrapper expression.
func (p *pass) unwrap(id, operand syntax.NodeID) {
	if operand == syntax.None {
		return
	}
	p.tree.Unwrap(id, operand)
	p.visit(operand)
}

func firstNamed(t *syntax.Tree, id syntax.NodeID) syntax.NodeID {
	for _, c := range t.Children(id) {
		if t.Node(c).IsNamed() && t.Kind(c) != "comment" {
			return c
		}
	}
	return syntax.None
}

// statementOf returns the node to drop when removing declaration id: the
// declaration itself or the export and expression statements wrapping it.
func (p *pass) statementOf(id syntax.NodeID) syntax.NodeID {
	t := p.tree
	for {
		parent := t.Parent(id)
		switch t.Kind(parent) {
		case "export_statement", "expression_statement":
			id = parent
		default:
			return id
		}
	}
}

// removeListItem drops a comma-separated item together with one adjacent
// comma.
func (p *pass) removeListItem(id syntax.NodeID) {
	t := p.tree
	prev, next := siblings(t, id)
	switch {
	case next != syntax.None && t.Kind(next) == ",":
		t.Remove(id, syntax.DropLine)
		t.Remove(next, syntax.DropLeading)
	case prev != syntax.None && t.Kind(prev) == ",":
		t.Remove(prev, syntax.DropInline)
		t.Remove(id, syntax.DropInline)
	default:
		t.Remove(id, syntax.DropInline)
	}
}

// siblings returns the source siblings around id, skipping comments.
func siblings(t *syntax.Tree, id syntax.NodeID) (prev, next syntax.NodeID) {
	prev, next = syntax.None, syntax.None
	kids := t.Children(t.Parent(id))
	at := -1
	for i, c := range kids {
		if c == id {
			at = i
			break
		}
	}
	for i := at - 1; i >= 0; i-- {
		if k := t.Kind(kids[i]); k != "comment" && !t.Node(kids[i]).IsSynthetic() {
			prev = kids[i]
			break
		}
	}
	for i := at + 1; at >= 0 && i < len(kids); i++ {
		if k := t.Kind(kids[i]); k != "comment" && !t.Node(kids[i]).IsSynthetic() {
			next = kids[i]
			break
		}
	}
	return prev, next
}

// inNamespace returns the frame of the namespace body directly holding
// statement id.
func (p *pass) inNamespace(stmt syntax.NodeID) (nsFrame, bool) {
	if len(p.ns) == 0 {
		return nsFrame{}, false
	}
	top := p.ns[len(p.ns)-1]
	return top, p.tree.Parent(stmt) == top.body
}

// defaultIndent is one level of indentation when the source has none.
const defaultIndent = "    "

// indentStep returns one level of indentation as the source writes it.
func (p *pass) indentStep() string {
	if p.step == "" {
		p.step = detectIndent(p.tree.Source())
	}
	return p.step
}

// detectIndent returns the narrowest leading whitespace of an indented line
// in src. Blank lines and block comment continuations are ignored.
func detectIndent(src []byte) string {
	step := ""
	for line := range bytes.Lines(src) {
		text := bytes.TrimRight(line, "\r\n")
		rest := bytes.TrimLeft(text, " \t")
		ws := text[:len(text)-len(rest)]
		if len(ws) == 0 || len(rest) == 0 || rest[0] == '*' {
			continue
		}
		if ws[0] == '\t' {
			return "\t"
		}
		if bytes.IndexByte(ws, '\t') < 0 && (step == "" || len(ws) < len(step)) {
			step = string(ws)
		}
	}
	if step == "" {
		return defaultIndent
	}
	return step
}
