package transform

import (
	"strings"

	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/semantic"
	"github.com/maxleiko/oxcc/internal/syntax"
)

func (p *pass) importStatement(id syntax.NodeID) {
	t := p.tree
	if t.HasChild(id, "type") {
		t.Remove(id, syntax.DropLine)
		return
	}
	if req := t.ChildOfKind(id, "import_require_clause"); req != syntax.None {
		p.importRequire(id, req)
		return
	}
	if clause := t.ChildOfKind(id, "import_clause"); clause != syntax.None {
		if !p.importClause(clause) {
			t.Remove(id, syntax.DropLine)
			p.logger.Debug("import elided", zap.String("source", t.Text(t.ChildByField(id, "source"))))
			return
		}
	}
	if src := t.ChildByField(id, "source"); src != syntax.None {
		p.rewriteSpecifier(src)
	}
}

// importClause drops type-only bindings, and with elision enabled the
// bindings never used as values. It reports whether the import should be
// kept.
func (p *pass) importClause(clause syntax.NodeID) bool {
	t := p.tree
	elide := !p.opts.OnlyRemoveTypeImports
	total, removed := 0, 0
	drop := func(id syntax.NodeID) {
		p.removeListItem(id)
		removed++
	}
	for _, c := range t.NamedChildren(clause) {
		switch t.Kind(c) {
		case "identifier":
			total++
			if elide && p.unused(c) {
				drop(c)
			}
		case "namespace_import":
			total++
			if name := t.ChildOfKind(c, "identifier"); elide && name != syntax.None && p.unused(name) {
				drop(c)
			}
		case "named_imports":
			total++
			specs, gone := 0, 0
			for _, spec := range t.NamedChildren(c) {
				if t.Kind(spec) != "import_specifier" {
					continue
				}
				specs++
				if t.HasChild(spec, "type") || (elide && p.unused(localName(t, spec))) {
					p.removeListItem(spec)
					gone++
				}
			}
			// a lone `import { type A } from "m"` keeps the module's side
			// effects as `import { } from "m"` unless elision is on
			if (specs > 0 && specs == gone && (elide || total > 1)) || (specs == 0 && elide) {
				drop(c)
			}
		}
	}
	return total == 0 || total > removed
}

func localName(t *syntax.Tree, spec syntax.NodeID) syntax.NodeID {
	if alias := t.ChildByField(spec, "alias"); alias != syntax.None {
		return alias
	}
	return t.ChildByField(spec, "name")
}

// unused reports whether the import binding declared by name is never read
// as a value.
func (p *pass) unused(name syntax.NodeID) bool {
	sym, ok := p.sc.SymbolForDecl(name)
	if !ok {
		return false
	}
	return p.sc.ValueRefs(sym) == 0
}

// importRequire handles `import x = require("m")`, which only has a meaning
// in CommonJS sources.
func (p *pass) importRequire(id, req syntax.NodeID) {
	t := p.tree
	if t.SourceType().IsModule() {
		p.errorAt(id, "Import assignment cannot be used when targeting ECMAScript modules. Consider using 'import * as ns from \"mod\"', 'import {a} from \"mod\"', 'import d from \"mod\"', or another module format instead.")
		return
	}
	if name := t.ChildOfKind(req, "identifier"); name != syntax.None && !p.opts.OnlyRemoveTypeImports && p.unused(name) {
		t.Remove(p.statementOf(id), syntax.DropLine)
		return
	}
	if kw := t.ChildOfKind(id, "import"); kw != syntax.None {
		t.Replace(kw, "const")
	}
	if src := t.ChildByField(req, "source"); src != syntax.None {
		p.rewriteSpecifier(src)
	} else if s := t.ChildOfKind(req, "string"); s != syntax.None {
		p.rewriteSpecifier(s)
	}
}

// importAlias turns `import x = A.B` into `var x = A.B`.
func (p *pass) importAlias(id syntax.NodeID) {
	t := p.tree
	exported := t.Kind(t.Parent(id)) == "export_statement"
	if named := t.NamedChildren(id); len(named) > 0 && !exported && !p.opts.OnlyRemoveTypeImports && p.unused(named[0]) {
		t.Remove(id, syntax.DropLine)
		return
	}
	if kw := t.ChildOfKind(id, "import"); kw != syntax.None {
		t.Replace(kw, "var")
	}
}

func (p *pass) exportStatement(id syntax.NodeID) {
	t := p.tree
	if t.HasChild(id, "type") {
		t.Remove(id, syntax.DropLine)
		return
	}
	if t.HasChild(id, "as") && t.HasChild(id, "namespace") {
		// export as namespace UMD;
		t.Remove(id, syntax.DropLine)
		return
	}
	if frame, ok := p.inNamespace(id); ok && p.namespaceExport(id, frame) {
		return
	}
	if t.HasChild(id, "=") {
		p.exportAssignment(id)
		return
	}
	for _, c := range t.Children(id) {
		if t.Kind(c) == "export_clause" {
			p.exportClause(c, t.ChildByField(id, "source") != syntax.None)
			continue
		}
		p.visit(c)
	}
	if src := t.ChildByField(id, "source"); src != syntax.None {
		p.rewriteSpecifier(src)
	}
}

// exportClause drops `type` specifiers and local exports of names that only
// exist as types.
func (p *pass) exportClause(clause syntax.NodeID, reexport bool) {
	t := p.tree
	for _, spec := range t.NamedChildren(clause) {
		if t.Kind(spec) != "export_specifier" {
			continue
		}
		if t.HasChild(spec, "type") {
			p.removeListItem(spec)
			continue
		}
		if reexport {
			continue
		}
		name := t.ChildByField(spec, "name")
		if name == syntax.None || t.Kind(name) != "identifier" {
			continue
		}
		if p.typeOnly(t.Text(name)) {
			p.removeListItem(spec)
		}
	}
}

// typeOnly reports whether a top-level name is declared only as a type.
func (p *pass) typeOnly(name string) bool {
	root := p.sc.RootScope()
	if p.sc.Lookup(root, name, semantic.ValueSpace) != semantic.NoSymbol {
		return false
	}
	return p.sc.Lookup(root, name, semantic.TypeSpace) != semantic.NoSymbol
}

// exportAssignment handles `export = x`, which becomes `module.exports = x`
// in CommonJS sources.
func (p *pass) exportAssignment(id syntax.NodeID) {
	t := p.tree
	if t.SourceType().IsModule() {
		p.errorAt(id, "Export assignment cannot be used when targeting ECMAScript modules. Consider using 'export default' or another module format instead.")
		return
	}
	if kw := t.ChildOfKind(id, "export"); kw != syntax.None {
		t.Replace(kw, "module.exports")
	}
	p.visitChildren(id)
}

var extensionRewrites = []struct{ from, to string }{
	{".d.ts", ""},
	{".d.mts", ""},
	{".d.cts", ""},
	{".tsx", ".js"},
	{".ts", ".js"},
	{".mts", ".mjs"},
	{".cts", ".cjs"},
}

// rewriteSpecifier applies RewriteImportExtensions to a relative module
// specifier string literal.
func (p *pass) rewriteSpecifier(lit syntax.NodeID) {
	mode := p.opts.RewriteImportExtensions
	if mode == RewriteOff {
		return
	}
	t := p.tree
	text := t.Text(lit)
	if len(text) < 2 {
		return
	}
	quote, spec := text[:1], text[1:len(text)-1]
	if !isRelative(spec) {
		return
	}
	out, ok := rewritePath(spec, mode)
	if !ok {
		return
	}
	t.Replace(lit, quote+out+quote)
}

func isRelative(spec string) bool {
	return spec == "." || spec == ".." || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// rewritePath maps the extension of spec. Declaration file extensions are
// left alone.
func rewritePath(spec string, mode RewriteMode) (string, bool) {
	for _, r := range extensionRewrites {
		if !strings.HasSuffix(spec, r.from) {
			continue
		}
		if r.to == "" {
			return "", false
		}
		base := strings.TrimSuffix(spec, r.from)
		if mode == RemoveExtensions {
			return base, true
		}
		return base + r.to, true
	}
	return "", false
}
