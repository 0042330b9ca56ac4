package transform

import (
	"strings"

	"go.uber.org/zap"

	"github.com/maxleiko/oxcc/internal/syntax"
)

// continuers are the characters that make a line continue the statement
// before it when no semicolon separates them.
const continuers = "([`+-/"

// blockEnded are statements that need no semicolon after their closing
// brace.
var blockEnded = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"if_statement":                   true,
	"for_statement":                  true,
	"for_in_statement":               true,
	"while_statement":                true,
	"try_statement":                  true,
	"switch_statement":               true,
	"statement_block":                true,
	"labeled_statement":              true,
	"with_statement":                 true,
}

// guardSemicolons walks every statement list and terminates statements that
// removals left facing a continuing line. Run after all other edits.
func (p *pass) guardSemicolons() {
	t := p.tree
	t.Walk(t.Root(), func(id syntax.NodeID) bool {
		switch t.Kind(id) {
		case "program", "statement_block":
			p.guardList(id)
		}
		return true
	})
}

// guardList inserts ";" after an unterminated statement when the statement
// printed next to it is new in that position and starts with one of
// continuers. In
//
//	let a = b
//	type T = string
//	(c)
//
// dropping the alias would otherwise turn the last line into a call of b.
func (p *pass) guardList(list syntax.NodeID) {
	t := p.tree
	open := syntax.None // last kept statement without a terminator
	moved := false      // something was removed since open
	for _, c := range t.Children(list) {
		n := t.Node(c)
		switch {
		case n.IsSynthetic():
			if text := strings.TrimSpace(printedText(t, c)); text != "" {
				open, moved = syntax.None, false
				if !strings.HasSuffix(text, ";") && !strings.HasSuffix(text, "}") {
					open = c
				}
			}
			continue
		case !n.IsNamed() || n.Kind == "comment":
			continue
		case n.IsRemoved():
			moved = true
			continue
		}
		first, ok := firstPrinted(t, c)
		if !ok {
			moved = true
			continue
		}
		src := strings.TrimLeft(t.Text(c), " \t\r\n")
		changed := moved || src == "" || src[0] != first
		if open != syntax.None && changed && strings.IndexByte(continuers, first) >= 0 {
			t.InsertAfter(open, t.NewText(";"))
			line, _ := t.Position(n.Start)
			p.logger.Debug("semicolon inserted", zap.Int("line", line))
		}
		open, moved = syntax.None, false
		if !terminated(t, c) {
			open = c
		}
	}
}

// terminated reports whether the printed form of statement id ends it.
func terminated(t *syntax.Tree, id syntax.NodeID) bool {
	last, ok := lastPrinted(t, id)
	if !ok {
		return true
	}
	switch last {
	case ';':
		return true
	case '}':
		kind := t.Kind(id)
		if kind == "export_statement" {
			if decl := t.ChildByField(id, "declaration"); decl != syntax.None {
				kind = t.Kind(decl)
			}
		}
		return blockEnded[kind]
	}
	return false
}

// firstPrinted returns the first non-blank character printed for id.
func firstPrinted(t *syntax.Tree, id syntax.NodeID) (byte, bool) {
	return printedEdge(t, id, true)
}

// lastPrinted returns the last non-blank character printed for id.
func lastPrinted(t *syntax.Tree, id syntax.NodeID) (byte, bool) {
	return printedEdge(t, id, false)
}

func printedEdge(t *syntax.Tree, id syntax.NodeID, first bool) (byte, bool) {
	n := t.Node(id)
	if n.IsRemoved() || n.Kind == "comment" {
		return 0, false
	}
	if text, ok := n.Replacement(); ok {
		return edge(text, first)
	}
	if n.Kind == syntax.KindText {
		return edge(n.SyntheticText(), first)
	}
	if u := n.Unwrapped(); u != syntax.None {
		return printedEdge(t, u, first)
	}
	kids := t.Children(id)
	if len(kids) == 0 {
		return edge(t.Text(id), first)
	}
	for i := range kids {
		c := kids[i]
		if !first {
			c = kids[len(kids)-1-i]
		}
		if b, ok := printedEdge(t, c, first); ok {
			return b, true
		}
	}
	return 0, false
}

func edge(text string, first bool) (byte, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if first {
		return text[0], true
	}
	return text[len(text)-1], true
}

// printedText returns the text a synthetic node prints.
func printedText(t *syntax.Tree, id syntax.NodeID) string {
	n := t.Node(id)
	if n.Kind == syntax.KindText {
		return n.SyntheticText()
	}
	var b strings.Builder
	for _, c := range t.Children(id) {
		b.WriteString(printedText(t, c))
	}
	return b.String()
}
