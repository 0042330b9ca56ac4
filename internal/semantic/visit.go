package semantic

import (
	"github.com/maxleiko/oxcc/internal/syntax"
)

func (b *Builder) visitChildren(id syntax.NodeID, inType bool) {
	for _, c := range b.tree.Children(id) {
		b.visit(c, inType)
	}
}

func (b *Builder) visitField(id syntax.NodeID, field string, inType bool) {
	for _, c := range b.tree.ChildrenByField(id, field) {
		b.visit(c, inType)
	}
}

func (b *Builder) visit(id syntax.NodeID, inType bool) {
	t := b.tree
	n := t.Node(id)
	if !n.IsNamed() {
		return
	}
	switch n.Kind {
	case "identifier", "shorthand_property_identifier":
		b.ref(id, inType)
	case "type_identifier":
		b.ref(id, true)
	case "property_identifier", "private_property_identifier", "statement_identifier",
		"this", "super", "comment":

	case "ambient_declaration", "function_signature", "namespace_export", "method_signature",
		"abstract_method_signature", "index_signature":
		// declarations without runtime code

	case "type_annotation", "type_arguments", "asserts_annotation", "type_predicate_annotation",
		"implements_clause", "extends_type_clause", "type_query", "opting_type_annotation",
		"omitting_type_annotation":
		b.visitChildren(id, true)
	case "type_parameters":
		b.typeParams(id)
	case "as_expression", "satisfies_expression":
		// the operand is a value, everything after the keyword is a type
		seen := false
		for _, c := range t.Children(id) {
			k := t.Kind(c)
			if k == "as" || k == "satisfies" {
				seen = true
				continue
			}
			b.visit(c, inType || seen)
		}

	case "lexical_declaration":
		b.lexical(id)
	case "variable_declaration":
		for _, d := range t.ChildrenOfKind(id, "variable_declarator") {
			b.declarator(d, FlagVar)
		}
	case "nested_identifier":
		// only the head of A.B.C names a binding
		if named := t.NamedChildren(id); len(named) > 0 {
			b.visit(named[0], inType)
		}

	case "function_declaration", "generator_function_declaration":
		if name := t.ChildByField(id, "name"); name != syntax.None {
			b.declare(name, FlagFunction)
		}
		b.function(id)
	case "function_expression", "function", "generator_function", "arrow_function",
		"method_definition":
		b.function(id)
	case "class_static_block":
		prev := b.push(ScopeFunction, id)
		b.visitBlockBody(t.ChildByField(id, "body"))
		b.pop(prev)

	case "class_declaration", "abstract_class_declaration":
		if name := t.ChildByField(id, "name"); name != syntax.None {
			b.declare(name, FlagClass)
		}
		b.class(id, false)
	case "class":
		b.class(id, true)

	case "statement_block":
		prev := b.push(ScopeBlock, id)
		b.visitChildren(id, inType)
		b.pop(prev)
	case "for_statement", "switch_body":
		prev := b.push(ScopeBlock, id)
		b.visitChildren(id, inType)
		b.pop(prev)
	case "for_in_statement":
		b.forIn(id)
	case "catch_clause":
		prev := b.push(ScopeCatch, id)
		if p := t.ChildByField(id, "parameter"); p != syntax.None {
			b.pattern(p, FlagCatch)
		}
		if ty := t.ChildByField(id, "type"); ty != syntax.None {
			b.visit(ty, true)
		}
		b.visitBlockBody(t.ChildByField(id, "body"))
		b.pop(prev)

	case "import_statement":
		b.importStatement(id)
	case "import_alias":
		b.importAlias(id)
	case "export_statement":
		b.exportStatement(id)

	case "interface_declaration":
		b.declare(t.ChildByField(id, "name"), FlagInterface)
		b.typeDecl(id)
	case "type_alias_declaration":
		b.declare(t.ChildByField(id, "name"), FlagTypeAlias)
		b.typeDecl(id)
	case "enum_declaration":
		b.declare(t.ChildByField(id, "name"), FlagEnum)
		b.visit(t.ChildByField(id, "body"), false)
	case "internal_module", "module":
		b.namespace(id)

	case "required_parameter", "optional_parameter":
		if inType {
			// parameters of a function type declare nothing
			b.visitChildren(id, true)
			return
		}
		b.parameter(id)

	default:
		b.visitChildren(id, inType)
	}
}

// visitBlockBody visits the statements of a function or catch body in the
// current scope instead of opening a block scope.
func (b *Builder) visitBlockBody(body syntax.NodeID) {
	if body == syntax.None {
		return
	}
	if b.tree.Kind(body) != "statement_block" {
		b.visit(body, false)
		return
	}
	b.sc.scopeOf[body] = b.cur
	b.visitChildren(body, false)
}

func (b *Builder) lexical(id syntax.NodeID) {
	t := b.tree
	flags := FlagLet
	isConst := t.HasChild(id, "const")
	if isConst {
		flags = FlagConst
	}
	for _, d := range t.ChildrenOfKind(id, "variable_declarator") {
		if isConst && t.ChildByField(d, "value") == syntax.None {
			b.errorAt(d, "Missing initializer in const declaration")
		}
		b.declarator(d, flags)
	}
}

func (b *Builder) declarator(id syntax.NodeID, flags SymbolFlags) {
	t := b.tree
	if name := t.ChildByField(id, "name"); name != syntax.None {
		b.pattern(name, flags)
	}
	if ty := t.ChildByField(id, "type"); ty != syntax.None {
		b.visit(ty, true)
	}
	if v := t.ChildByField(id, "value"); v != syntax.None {
		b.visit(v, false)
	}
}

// pattern declares every binding in a destructuring pattern and visits the
// default values and computed keys it contains.
func (b *Builder) pattern(id syntax.NodeID, flags SymbolFlags) {
	t := b.tree
	switch t.Kind(id) {
	case "identifier", "shorthand_property_identifier_pattern":
		b.declare(id, flags)
	case "object_pattern", "array_pattern", "rest_pattern":
		for _, c := range t.NamedChildren(id) {
			b.pattern(c, flags)
		}
	case "pair_pattern":
		if k := t.ChildByField(id, "key"); k != syntax.None && t.Kind(k) == "computed_property_name" {
			b.visit(k, false)
		}
		if v := t.ChildByField(id, "value"); v != syntax.None {
			b.pattern(v, flags)
		}
	case "assignment_pattern", "object_assignment_pattern":
		if l := t.ChildByField(id, "left"); l != syntax.None {
			b.pattern(l, flags)
		}
		if r := t.ChildByField(id, "right"); r != syntax.None {
			b.visit(r, false)
		}
	case "required_parameter", "optional_parameter":
		b.parameter(id)
	case "this", "comment":
	default:
		b.visit(id, false)
	}
}

func (b *Builder) parameter(id syntax.NodeID) {
	t := b.tree
	b.visitField(id, "decorator", false)
	if p := t.ChildByField(id, "pattern"); p != syntax.None {
		b.pattern(p, FlagParam)
	}
	if ty := t.ChildByField(id, "type"); ty != syntax.None {
		b.visit(ty, true)
	}
	if v := t.ChildByField(id, "value"); v != syntax.None {
		b.visit(v, false)
	}
}

// function analyses any function-like node in a fresh function scope. The
// name of a function expression is bound inside its own scope.
func (b *Builder) function(id syntax.NodeID) {
	t := b.tree
	kind := t.Kind(id)
	b.visitField(id, "decorator", false)
	if kind == "method_definition" {
		if name := t.ChildByField(id, "name"); name != syntax.None && t.Kind(name) == "computed_property_name" {
			b.visit(name, false)
		}
	}

	prev := b.push(ScopeFunction, id)
	defer b.pop(prev)

	if kind == "function_expression" || kind == "function" || kind == "generator_function" {
		if name := t.ChildByField(id, "name"); name != syntax.None {
			b.declare(name, FlagFunction)
		}
	}
	if tp := t.ChildByField(id, "type_parameters"); tp != syntax.None {
		b.typeParams(tp)
	}
	if p := t.ChildByField(id, "parameter"); p != syntax.None {
		b.pattern(p, FlagParam)
	}
	if ps := t.ChildByField(id, "parameters"); ps != syntax.None {
		for _, p := range t.NamedChildren(ps) {
			b.pattern(p, FlagParam)
		}
	}
	if rt := t.ChildByField(id, "return_type"); rt != syntax.None {
		b.visit(rt, true)
	}
	if body := t.ChildByField(id, "body"); body != syntax.None {
		b.visitBlockBody(body)
	}
}

func (b *Builder) class(id syntax.NodeID, expression bool) {
	t := b.tree
	b.visitField(id, "decorator", false)
	prev := b.push(ScopeClass, id)
	defer b.pop(prev)
	if expression {
		if name := t.ChildByField(id, "name"); name != syntax.None {
			b.declare(name, FlagClass)
		}
	}
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case "type_parameters":
			b.typeParams(c)
		case "class_heritage", "class_body":
			b.visit(c, false)
		}
	}
}

func (b *Builder) typeParams(id syntax.NodeID) {
	t := b.tree
	for _, p := range t.NamedChildren(id) {
		if t.Kind(p) != "type_parameter" {
			continue
		}
		if name := t.ChildByField(p, "name"); name != syntax.None {
			b.declare(name, FlagTypeParam)
		}
		b.visitField(p, "constraint", true)
		b.visitField(p, "value", true)
	}
}

// typeDecl visits an interface or type alias. Type parameters get their own
// scope so they do not leak into the enclosing one.
func (b *Builder) typeDecl(id syntax.NodeID) {
	t := b.tree
	prev := b.push(ScopeBlock, id)
	defer b.pop(prev)
	for _, c := range t.Children(id) {
		if t.Node(c).Field == "name" {
			continue
		}
		if t.Kind(c) == "type_parameters" {
			b.typeParams(c)
			continue
		}
		b.visit(c, true)
	}
}

func (b *Builder) forIn(id syntax.NodeID) {
	t := b.tree
	prev := b.push(ScopeBlock, id)
	defer b.pop(prev)

	left := t.ChildByField(id, "left")
	var flags SymbolFlags
	if kind := t.ChildByField(id, "kind"); kind != syntax.None {
		switch t.Kind(kind) {
		case "var":
			flags = FlagVar
		case "let":
			flags = FlagLet
		default:
			flags = FlagConst
		}
	}
	for _, c := range t.Children(id) {
		if c == left && flags != 0 {
			b.pattern(c, flags)
			continue
		}
		b.visit(c, false)
	}
}

func (b *Builder) importStatement(id syntax.NodeID) {
	t := b.tree
	flags := FlagImport
	if t.HasChild(id, "type") || t.HasChild(id, "typeof") {
		flags = FlagTypeOnlyImport
	}
	for _, c := range t.NamedChildren(id) {
		switch t.Kind(c) {
		case "import_clause":
			b.importClause(c, flags)
		case "import_require_clause":
			if name := t.ChildOfKind(c, "identifier"); name != syntax.None {
				b.declare(name, flags)
			}
		}
	}
}

func (b *Builder) importClause(id syntax.NodeID, flags SymbolFlags) {
	t := b.tree
	for _, c := range t.NamedChildren(id) {
		switch t.Kind(c) {
		case "identifier":
			b.declare(c, flags)
		case "namespace_import":
			if name := t.ChildOfKind(c, "identifier"); name != syntax.None {
				b.declare(name, flags)
			}
		case "named_imports":
			for _, spec := range t.NamedChildren(c) {
				if t.Kind(spec) != "import_specifier" {
					continue
				}
				f := flags
				if t.HasChild(spec, "type") || t.HasChild(spec, "typeof") {
					f = FlagTypeOnlyImport
				}
				local := t.ChildByField(spec, "alias")
				if local == syntax.None {
					local = t.ChildByField(spec, "name")
				}
				if local != syntax.None {
					b.declare(local, f)
				}
			}
		}
	}
}

// importAlias handles `import x = A.B`. The alias is a value binding; the
// target is a use of A.
func (b *Builder) importAlias(id syntax.NodeID) {
	t := b.tree
	named := t.NamedChildren(id)
	if len(named) == 0 {
		return
	}
	b.declare(named[0], FlagImport)
	for _, c := range named[1:] {
		b.visit(c, false)
	}
}

func (b *Builder) exportStatement(id syntax.NodeID) {
	t := b.tree
	reexport := t.ChildByField(id, "source") != syntax.None
	for _, c := range t.Children(id) {
		if t.Kind(c) == "export_clause" {
			if reexport {
				continue
			}
			for _, spec := range t.NamedChildren(c) {
				if t.Kind(spec) != "export_specifier" {
					continue
				}
				if name := t.ChildByField(spec, "name"); name != syntax.None && t.Kind(name) == "identifier" {
					b.ref(name, t.HasChild(spec, "type"))
				}
			}
			continue
		}
		b.visit(c, false)
	}
}

// namespace declares the first segment of a namespace name and analyses the
// body in a namespace scope. Ambient and string-named modules are skipped.
func (b *Builder) namespace(id syntax.NodeID) {
	t := b.tree
	name := t.ChildByField(id, "name")
	if name == syntax.None || t.Kind(name) == "string" {
		return
	}
	head := name
	for t.Kind(head) == "nested_identifier" || t.Kind(head) == "member_expression" {
		head = t.NamedChildren(head)[0]
	}
	if t.Kind(head) == "identifier" {
		b.declare(head, FlagNamespace)
	}
	prev := b.push(ScopeNamespace, id)
	defer b.pop(prev)
	if body := t.ChildByField(id, "body"); body != syntax.None {
		b.visitBlockBody(body)
	}
}
