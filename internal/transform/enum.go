package transform

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/semantic"
	"github.com/maxleiko/oxcc/internal/syntax"
)

type valueKind uint8

const (
	valueNone valueKind = iota
	valueNumber
	valueString
)

// enumValue is the folded value of an enum member initializer.
type enumValue struct {
	kind valueKind
	num  float64
	str  string // quoted JavaScript literal for valueString
}

// enum lowers
//
//	enum E { A, B = "b" }
//
// to
//
//	var E;
//	(function (E) {
//	    E[E["A"] = 0] = "A";
//	    E["B"] = "b";
//	})(E || (E = {}));
func (p *pass) enum(id syntax.NodeID) {
	t := p.tree
	nameNode := t.ChildByField(id, "name")
	body := t.ChildByField(id, "body")
	if nameNode == syntax.None || body == syntax.None {
		return
	}
	name := t.Text(nameNode)
	stmt := p.statementOf(id)
	indent := t.LineIndent(t.Node(stmt).Start)
	inner := indent + p.indentStep()

	members := make(map[string]enumValue)
	var lines []string
	prev := enumValue{kind: valueNumber, num: -1}
	for _, m := range t.NamedChildren(body) {
		var key, init syntax.NodeID
		switch t.Kind(m) {
		case "comment":
			continue
		case "enum_assignment":
			key = t.ChildByField(m, "name")
			init = t.ChildByField(m, "value")
		default:
			key = m
			init = syntax.None
		}
		memberName, ok := p.memberName(key)
		if !ok {
			p.errorAt(key, "Computed property names are not allowed in enums.")
			continue
		}
		quoted := strconv.Quote(memberName)

		var v enumValue
		var expr string
		switch {
		case init != syntax.None:
			v = p.fold(init, name, members)
			if v.kind == valueNone {
				expr = p.plainText(init)
			}
		case prev.kind == valueNumber:
			v = enumValue{kind: valueNumber, num: prev.num + 1}
		default:
			p.errorAt(m, "Enum member must have initializer.")
			v = enumValue{}
			expr = "void 0"
		}
		members[memberName] = v
		prev = v

		switch v.kind {
		case valueString:
			lines = append(lines, name+"["+quoted+"] = "+v.str+";")
		case valueNumber:
			lines = append(lines, name+"["+name+"["+quoted+"] = "+formatNumber(v.num)+"] = "+quoted+";")
		default:
			lines = append(lines, name+"["+name+"["+quoted+"] = "+expr+"] = "+quoted+";")
		}
	}

	var b strings.Builder
	b.WriteString(p.wrapperHead(id, nameNode, name, indent))
	b.WriteString("(function (")
	b.WriteString(name)
	b.WriteString(") {\n")
	for _, l := range lines {
		b.WriteString(inner)
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString(indent)
	b.WriteString("})(")
	b.WriteString(p.wrapperArg(stmt, name))
	b.WriteString(");")
	t.Replace(id, b.String())
	p.addWrapperScope(id, name)
	p.logger.Debug("enum lowered", zap.String("name", name), zap.Int("members", len(members)))
}

// memberName returns the name of an enum member key.
func (p *pass) memberName(key syntax.NodeID) (string, bool) {
	t := p.tree
	switch t.Kind(key) {
	case "property_identifier", "identifier":
		return t.Text(key), true
	case "string":
		s, ok := unquote(t.Text(key))
		return s, ok
	case "number":
		return t.Text(key), true
	}
	return "", false
}

// fold evaluates a constant enum initializer. Identifiers may refer to
// earlier members, bare or as E.member.
func (p *pass) fold(id syntax.NodeID, enum string, members map[string]enumValue) enumValue {
	t := p.tree
	switch t.Kind(id) {
	case "number":
		if f, ok := parseNumber(t.Text(id)); ok {
			return enumValue{kind: valueNumber, num: f}
		}
	case "string":
		if s, ok := unquote(t.Text(id)); ok {
			return enumValue{kind: valueString, str: strconv.Quote(s)}
		}
	case "template_string":
		if len(t.NamedChildren(id)) == 0 || onlyFragments(t, id) {
			text := t.Text(id)
			return enumValue{kind: valueString, str: strconv.Quote(text[1 : len(text)-1])}
		}
	case "parenthesized_expression":
		if inner := firstNamed(t, id); inner != syntax.None {
			return p.fold(inner, enum, members)
		}
	case "identifier":
		switch name := t.Text(id); name {
		case "Infinity":
			return enumValue{kind: valueNumber, num: math.Inf(1)}
		case "NaN":
			return enumValue{kind: valueNumber, num: math.NaN()}
		default:
			if v, ok := members[name]; ok {
				return v
			}
		}
	case "member_expression":
		obj := t.ChildByField(id, "object")
		prop := t.ChildByField(id, "property")
		if obj != syntax.None && prop != syntax.None && t.Text(obj) == enum {
			if v, ok := members[t.Text(prop)]; ok {
				return v
			}
		}
	case "unary_expression":
		op := t.ChildByField(id, "operator")
		arg := p.fold(t.ChildByField(id, "argument"), enum, members)
		if op == syntax.None || arg.kind != valueNumber {
			break
		}
		switch t.Text(op) {
		case "-":
			return enumValue{kind: valueNumber, num: -arg.num}
		case "+":
			return arg
		case "~":
			return enumValue{kind: valueNumber, num: float64(^toInt32(arg.num))}
		}
	case "binary_expression":
		return p.foldBinary(id, enum, members)
	}
	return enumValue{}
}

func (p *pass) foldBinary(id syntax.NodeID, enum string, members map[string]enumValue) enumValue {
	t := p.tree
	op := t.ChildByField(id, "operator")
	if op == syntax.None {
		return enumValue{}
	}
	l := p.fold(t.ChildByField(id, "left"), enum, members)
	r := p.fold(t.ChildByField(id, "right"), enum, members)
	if l.kind == valueNone || r.kind == valueNone {
		return enumValue{}
	}
	if t.Text(op) == "+" && (l.kind == valueString || r.kind == valueString) {
		ls, lok := literalString(l)
		rs, rok := literalString(r)
		if !lok || !rok {
			return enumValue{}
		}
		return enumValue{kind: valueString, str: strconv.Quote(ls + rs)}
	}
	if l.kind != valueNumber || r.kind != valueNumber {
		return enumValue{}
	}
	a, b := l.num, r.num
	var v float64
	switch t.Text(op) {
	case "+":
		v = a + b
	case "-":
		v = a - b
	case "*":
		v = a * b
	case "/":
		v = a / b
	case "%":
		v = math.Mod(a, b)
	case "**":
		v = math.Pow(a, b)
	case "|":
		v = float64(toInt32(a) | toInt32(b))
	case "&":
		v = float64(toInt32(a) & toInt32(b))
	case "^":
		v = float64(toInt32(a) ^ toInt32(b))
	case "<<":
		v = float64(toInt32(a) << (uint32(toInt32(b)) & 31))
	case ">>":
		v = float64(toInt32(a) >> (uint32(toInt32(b)) & 31))
	case ">>>":
		v = float64(uint32(toInt32(a)) >> (uint32(toInt32(b)) & 31))
	default:
		return enumValue{}
	}
	return enumValue{kind: valueNumber, num: v}
}

func literalString(v enumValue) (string, bool) {
	if v.kind == valueNumber {
		return formatNumber(v.num), true
	}
	s, err := strconv.Unquote(v.str)
	return s, err == nil
}

func onlyFragments(t *syntax.Tree, id syntax.NodeID) bool {
	for _, c := range t.NamedChildren(id) {
		if t.Kind(c) == "template_substitution" {
			return false
		}
	}
	return true
}

// plainText returns the source of a non-constant initializer. Type syntax
// inside it is not stripped, which only matters for casts in initializers.
func (p *pass) plainText(id syntax.NodeID) string {
	return p.tree.Text(id)
}

// toInt32 applies the ECMAScript ToInt32 conversion.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	m := math.Mod(f, 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int32(uint32(m))
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "_", "")
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			n, err := strconv.ParseInt(s, 0, 64)
			return float64(n), err == nil
		}
	}
	if strings.HasSuffix(s, "n") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// formatNumber renders f the way JavaScript prints numbers for the common
// cases.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// unquote decodes a single or double quoted JavaScript string literal.
func unquote(lit string) (string, bool) {
	if len(lit) < 2 {
		return "", false
	}
	q := lit[0]
	if (q != '"' && q != '\'') || lit[len(lit)-1] != q {
		return "", false
	}
	body := lit[1 : len(lit)-1]
	if q == '\'' {
		body = strings.ReplaceAll(body, `\'`, `'`)
		body = strings.ReplaceAll(body, `"`, `\"`)
	}
	s, err := strconv.Unquote(`"` + body + `"`)
	if err != nil {
		return body, true
	}
	return s, true
}

// wrapperHead returns the declaration emitted before an enum or namespace
// function, or "" when the name is already bound. An export keyword in front
// of the declaration is dropped when nothing follows it to export.
func (p *pass) wrapperHead(decl, nameNode syntax.NodeID, name, indent string) string {
	t := p.tree
	exportStmt := syntax.None
	if parent := t.Parent(decl); t.Kind(parent) == "export_statement" {
		exportStmt = parent
	}
	_, inNS := p.inNamespace(p.statementOf(decl))

	kw := "var"
	if inNS {
		kw = "let"
	}
	need := p.needsDecl(decl, nameNode, name)
	if exportStmt != syntax.None && (inNS || !need) {
		if kw := t.ChildOfKind(exportStmt, "export"); kw != syntax.None {
			t.Remove(kw, syntax.DropLeading)
		}
	}
	if !need {
		return ""
	}
	return kw + " " + name + ";\n" + indent
}

// wrapperArg returns the argument passed to an enum or namespace function:
// the existing object or a fresh one, attached to the enclosing namespace
// when exported from one.
func (p *pass) wrapperArg(stmt syntax.NodeID, name string) string {
	frame, inNS := p.inNamespace(stmt)
	if inNS && p.tree.Kind(stmt) == "export_statement" {
		target := frame.param + "." + name
		return name + " = " + target + " || (" + target + " = {})"
	}
	return name + " || (" + name + " = {})"
}

// needsDecl reports whether a declaration for name must be emitted. Names
// already bound by a class, function or variable, or by an earlier lowered
// enum or namespace in the same scope, reuse that binding.
func (p *pass) needsDecl(decl, nameNode syntax.NodeID, name string) bool {
	scope := p.sc.RootScope()
	sym, ok := p.sc.SymbolForDecl(nameNode)
	if ok {
		scope = p.sc.Symbol(sym).Scope
	} else if frame, inNS := p.inNamespace(p.statementOf(decl)); inNS {
		scope = frame.scope
	}
	key := declKey{scope, name}
	if p.declared[key] {
		return false
	}
	if first, bound := p.sc.Binding(scope, name, semantic.ValueSpace); bound && (!ok || first != sym) {
		if !p.sc.Symbol(first).Flags.Has(semantic.FlagEnum | semantic.FlagNamespace) {
			return false
		}
	}
	p.declared[key] = true
	return true
}

// addWrapperScope records the function scope and parameter introduced by a
// lowered enum or namespace.
func (p *pass) addWrapperScope(decl syntax.NodeID, param string) semantic.ScopeID {
	parent := p.sc.RootScope()
	if frame, inNS := p.inNamespace(p.statementOf(decl)); inNS {
		parent = frame.scope
	} else if sym, ok := p.sc.SymbolForDecl(p.tree.ChildByField(decl, "name")); ok {
		parent = p.sc.Symbol(sym).Scope
	}
	scope := p.sc.AddScope(semantic.ScopeFunction, parent, syntax.None)
	p.sc.AddSymbol(scope, param, semantic.FlagParam|semantic.FlagSynthetic, syntax.None)
	return scope
}
