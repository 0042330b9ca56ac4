package transform

import (
	"strings"

	"github.com/maxleiko/oxcc/internal/syntax"
)

// classBody drops members that only exist in the type system and strips
// modifiers from the rest.
func (p *pass) classBody(id syntax.NodeID) {
	t := p.tree
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case "method_signature", "abstract_method_signature", "index_signature":
			p.removeMember(c)
		case "public_field_definition":
			p.field(c)
		default:
			p.visit(c)
		}
	}
}

// removeMember drops a class member and its terminating semicolon.
func (p *pass) removeMember(id syntax.NodeID) {
	t := p.tree
	t.Remove(id, syntax.DropLine)
	if _, next := siblings(t, id); next != syntax.None {
		if k := t.Kind(next); k == ";" || k == "," {
			t.Remove(next, syntax.DropLeading)
		}
	}
}

func (p *pass) field(id syntax.NodeID) {
	t := p.tree
	if t.HasChild(id, "declare") || t.HasChild(id, "abstract") {
		p.removeMember(id)
		return
	}
	if p.opts.RemoveClassFieldsWithoutInitializer &&
		t.ChildByField(id, "value") == syntax.None &&
		t.ChildByField(id, "decorator") == syntax.None {
		p.removeMember(id)
		return
	}
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case "readonly":
			t.Remove(c, syntax.DropLeading)
		case "?", "!":
			t.Remove(c, syntax.DropInline)
		default:
			p.visit(c)
		}
	}
}

func (p *pass) method(id syntax.NodeID) {
	t := p.tree
	if q := t.ChildOfKind(id, "?"); q != syntax.None {
		t.Remove(q, syntax.DropInline)
	}
	name := t.ChildByField(id, "name")
	if name != syntax.None && t.Text(name) == "constructor" {
		p.parameterProperties(id)
	}
	p.visitChildren(id)
}

func (p *pass) parameter(id syntax.NodeID) {
	t := p.tree
	pattern := t.ChildByField(id, "pattern")
	if pattern != syntax.None && t.Kind(pattern) == "this" {
		p.removeListItem(id)
		return
	}
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case "readonly":
			t.Remove(c, syntax.DropLeading)
		case "?":
			t.Remove(c, syntax.DropInline)
		default:
			p.visit(c)
		}
	}
}

// isParameterProperty reports whether a constructor parameter also declares
// a class field.
func isParameterProperty(t *syntax.Tree, param syntax.NodeID) bool {
	return t.HasChild(param, "accessibility_modifier") ||
		t.HasChild(param, "override_modifier") ||
		t.HasChild(param, "readonly")
}

// parameterProperties turns `constructor(private x)` into an assignment
// `this.x = x;` at the start of the constructor body, after the super call
// when there is one.
func (p *pass) parameterProperties(ctor syntax.NodeID) {
	t := p.tree
	params := t.ChildByField(ctor, "parameters")
	body := t.ChildByField(ctor, "body")
	if params == syntax.None || body == syntax.None {
		return
	}
	var names []string
	for _, param := range t.NamedChildren(params) {
		if !isParameterProperty(t, param) {
			continue
		}
		pattern := t.ChildByField(param, "pattern")
		if pattern == syntax.None || t.Kind(pattern) != "identifier" {
			continue
		}
		names = append(names, t.Text(pattern))
	}
	if len(names) == 0 {
		return
	}

	outer := t.LineIndent(t.Node(ctor).Start)
	step := p.indentStep()
	if class := t.LineIndent(t.Node(t.Parent(ctor)).Start); len(outer) > len(class) && strings.HasPrefix(outer, class) {
		step = outer[len(class):]
	}
	inner := outer + step
	stmts := statements(t, body)
	if len(stmts) > 0 {
		inner = t.LineIndent(t.Node(stmts[0]).Start)
	}

	anchor := t.ChildOfKind(body, "{")
	for _, s := range stmts {
		if isSuperCall(t, s) {
			anchor = s
			break
		}
	}

	var b strings.Builder
	for _, name := range names {
		b.WriteString("\n")
		b.WriteString(inner)
		b.WriteString("this.")
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(name)
		b.WriteString(";")
	}
	if len(stmts) == 0 {
		if closing := t.ChildOfKind(body, "}"); closing != syntax.None && sameLine(t, anchor, closing) {
			b.WriteString("\n")
			b.WriteString(outer)
		}
	}
	t.InsertAfter(anchor, t.NewText(b.String()))
}

// statements returns the statements of a block, without comments.
func statements(t *syntax.Tree, block syntax.NodeID) []syntax.NodeID {
	var out []syntax.NodeID
	for _, c := range t.NamedChildren(block) {
		if t.Kind(c) != "comment" {
			out = append(out, c)
		}
	}
	return out
}

func isSuperCall(t *syntax.Tree, stmt syntax.NodeID) bool {
	if t.Kind(stmt) != "expression_statement" {
		return false
	}
	call := firstNamed(t, stmt)
	if call == syntax.None || t.Kind(call) != "call_expression" {
		return false
	}
	fn := t.ChildByField(call, "function")
	return fn != syntax.None && t.Kind(fn) == "super"
}

func sameLine(t *syntax.Tree, a, b syntax.NodeID) bool {
	la, _ := t.Position(t.Node(a).Start)
	lb, _ := t.Position(t.Node(b).Start)
	return la == lb
}
