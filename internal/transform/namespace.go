package transform

import (
	"strings"

	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/semantic"
	"github.com/maxleiko/oxcc/internal/syntax"
)

// namespace lowers
//
//	namespace N {
//	    export const x = 1;
//	}
//
// to
//
//	var N;
//	(function (N) {
//	    const x = 1;
//	    N.x = x;
//	})(N || (N = {}));
//
// reusing the source layout of the body. Dotted names nest one function per
// segment. Namespaces without runtime content are removed.
func (p *pass) namespace(id syntax.NodeID) {
	t := p.tree
	stmt := p.statementOf(id)
	nameNode := t.ChildByField(id, "name")
	body := t.ChildByField(id, "body")
	if nameNode == syntax.None || t.Kind(nameNode) == "string" || body == syntax.None || !p.instantiated(body) {
		t.Remove(stmt, syntax.DropLine)
		return
	}
	if !p.opts.AllowNamespaces {
		p.errorAt(id, "Namespace declarations are not allowed when allow_namespaces is disabled.")
		return
	}

	segs := segments(t, nameNode)
	head := t.Text(segs[0])
	indent := t.LineIndent(t.Node(stmt).Start)

	keyword := t.ChildOfKind(id, "namespace")
	if keyword == syntax.None {
		keyword = t.ChildOfKind(id, "module")
	}
	if keyword == syntax.None {
		return
	}
	t.Replace(keyword, p.wrapperHead(id, segs[0], head, indent)+"(function ("+head+")")
	t.Remove(nameNode, syntax.DropInline)

	scope := p.addWrapperScope(id, head)
	param := head
	var open strings.Builder
	open.WriteString("{")
	closers := []string{"})(" + p.wrapperArg(stmt, head) + ");"}
	for i, seg := range segs[1:] {
		name := t.Text(seg)
		lvl := indent + strings.Repeat(p.indentStep(), i+1)
		open.WriteString("\n" + lvl + "let " + name + ";\n" + lvl + "(function (" + name + ") {")
		target := param + "." + name
		closers = append(closers, "})("+name+" = "+target+" || ("+target+" = {}));")
		scope = p.sc.AddScope(semantic.ScopeFunction, scope, syntax.None)
		p.sc.AddSymbol(scope, name, semantic.FlagParam|semantic.FlagSynthetic, syntax.None)
		param = name
	}
	if len(segs) > 1 {
		if brace := t.ChildOfKind(body, "{"); brace != syntax.None {
			t.Replace(brace, open.String())
		}
	}
	if brace := t.ChildOfKind(body, "}"); brace != syntax.None {
		var close strings.Builder
		for i := len(closers) - 1; i >= 0; i-- {
			close.WriteString(closers[i])
			if i > 0 {
				close.WriteString("\n" + indent + strings.Repeat(p.indentStep(), i-1))
			}
		}
		t.Replace(brace, close.String())
	}

	p.logger.Debug("namespace lowered", zap.String("name", t.Text(nameNode)))
	p.ns = append(p.ns, nsFrame{body: body, param: param, scope: scope})
	p.visitChildren(body)
	p.ns = p.ns[:len(p.ns)-1]
}

// segments splits a possibly dotted namespace name into its identifiers.
func segments(t *syntax.Tree, name syntax.NodeID) []syntax.NodeID {
	switch t.Kind(name) {
	case "nested_identifier", "member_expression":
		var out []syntax.NodeID
		for _, c := range t.NamedChildren(name) {
			out = append(out, segments(t, c)...)
		}
		return out
	default:
		return []syntax.NodeID{name}
	}
}

// instantiated reports whether a namespace body contains runtime code.
func (p *pass) instantiated(body syntax.NodeID) bool {
	for _, s := range statements(p.tree, body) {
		if p.instantiatedStmt(s) {
			return true
		}
	}
	return false
}

func (p *pass) instantiatedStmt(s syntax.NodeID) bool {
	t := p.tree
	switch t.Kind(s) {
	case "interface_declaration", "type_alias_declaration", "ambient_declaration",
		"function_signature", "empty_statement":
		return false
	case "export_statement":
		if t.HasChild(s, "type") {
			return false
		}
		if decl := t.ChildByField(s, "declaration"); decl != syntax.None {
			return p.instantiatedStmt(decl)
		}
		return true
	case "internal_module", "module":
		name := t.ChildByField(s, "name")
		body := t.ChildByField(s, "body")
		if name == syntax.None || t.Kind(name) == "string" || body == syntax.None {
			return false
		}
		return p.instantiated(body)
	case "expression_statement":
		if inner := firstNamed(t, s); inner != syntax.None {
			if k := t.Kind(inner); k == "internal_module" || k == "module" {
				return p.instantiatedStmt(inner)
			}
		}
		return true
	}
	return true
}

// namespaceExport lowers an export inside a namespace body to a plain
// declaration followed by assignments onto the namespace object. It
// reports false for exports it does not handle.
func (p *pass) namespaceExport(id syntax.NodeID, frame nsFrame) bool {
	t := p.tree
	decl := t.ChildByField(id, "declaration")
	if decl == syntax.None {
		return false
	}
	var names []string
	switch t.Kind(decl) {
	case "lexical_declaration", "variable_declaration":
		if p.namespaceMembers(id, decl, frame) {
			return true
		}
		for _, d := range t.ChildrenOfKind(decl, "variable_declarator") {
			names = boundNames(t, t.ChildByField(d, "name"), names)
		}
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration":
		if name := t.ChildByField(decl, "name"); name != syntax.None {
			names = append(names, t.Text(name))
		}
	case "import_alias":
		if named := t.NamedChildren(decl); len(named) > 0 {
			names = append(names, t.Text(named[0]))
		}
	default:
		// enums, nested namespaces and type-only declarations handle
		// their own export
		p.visit(decl)
		return true
	}
	if kw := t.ChildOfKind(id, "export"); kw != syntax.None {
		t.Remove(kw, syntax.DropLeading)
	}
	p.visit(decl)
	if len(names) == 0 {
		return true
	}
	sep := "\n" + t.LineIndent(t.Node(id).Start)
	if _, next := siblings(t, id); next != syntax.None {
		end, _ := t.Position(t.Node(id).End)
		if line, _ := t.Position(t.Node(next).Start); line == end {
			sep = " "
		}
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(sep + frame.param + "." + n + " = " + n + ";")
	}
	t.InsertAfter(id, t.NewText(b.String()))
	return true
}

// namespaceMembers lowers an exported let or var in a namespace body to
// assignments onto the namespace object,
//
//	export let c = 0;
//
// to
//
//	N.c = 0;
//
// and records the bindings so every reference is rewritten to N.c. It
// reports false for const and destructuring declarations, which keep a
// local binding.
func (p *pass) namespaceMembers(id, decl syntax.NodeID, frame nsFrame) bool {
	t := p.tree
	kw := t.ChildOfKind(decl, "var")
	if kw == syntax.None {
		kw = t.ChildOfKind(decl, "let")
	}
	if kw == syntax.None {
		return false
	}
	decls := t.ChildrenOfKind(decl, "variable_declarator")
	for _, d := range decls {
		if t.Kind(t.ChildByField(d, "name")) != "identifier" {
			return false
		}
	}

	kept := 0
	for _, d := range decls {
		name := t.ChildByField(d, "name")
		member := frame.param + "." + t.Text(name)
		if sym, ok := p.sc.SymbolForDecl(name); ok {
			p.members[sym] = member
		}
		if t.ChildByField(d, "value") == syntax.None {
			p.removeListItem(d)
			continue
		}
		t.Replace(name, member)
		kept++
	}
	if kept == 0 {
		t.Remove(id, syntax.DropLine)
		return true
	}
	if ex := t.ChildOfKind(id, "export"); ex != syntax.None {
		t.Remove(ex, syntax.DropLeading)
	}
	t.Remove(kw, syntax.DropLeading)
	p.visit(decl)
	return true
}

// rewriteMembers points every value reference to a lowered namespace member
// at the namespace object.
func (p *pass) rewriteMembers() {
	if len(p.members) == 0 {
		return
	}
	t := p.tree
	for i := range p.sc.References() {
		r := p.sc.Reference(semantic.ReferenceID(i))
		member, ok := p.members[r.Symbol]
		if r.Type || !ok || t.Removed(r.Node) {
			continue
		}
		if t.Kind(r.Node) == "shorthand_property_identifier" {
			member = r.Name + ": " + member
		}
		t.Replace(r.Node, member)
	}
	p.logger.Debug("namespace members rewritten", zap.Int("members", len(p.members)))
}

// boundNames appends the identifiers bound by a declaration pattern.
func boundNames(t *syntax.Tree, id syntax.NodeID, out []string) []string {
	switch t.Kind(id) {
	case "identifier", "shorthand_property_identifier_pattern":
		return append(out, t.Text(id))
	case "object_pattern", "array_pattern", "rest_pattern":
		for _, c := range t.NamedChildren(id) {
			out = boundNames(t, c, out)
		}
	case "pair_pattern":
		out = boundNames(t, t.ChildByField(id, "value"), out)
	case "assignment_pattern", "object_assignment_pattern":
		out = boundNames(t, t.ChildByField(id, "left"), out)
	}
	return out
}
