package codegen

import (
	"github.com/maxleiko/oxcc/internal/syntax"
)

// skip is the whitespace cleanup owed to the next source gap after a node
// was removed.
type skip uint8

const (
	skipNone skip = iota
	skipInline
	skipSpaces
	skipLine
)

type printer struct {
	tree *syntax.Tree
	src  []byte
	out  []byte
	skip skip
}

// Print appends the printed form of tree to dst and returns the extended
// slice.
func Print(tree *syntax.Tree, dst []byte) []byte {
	p := printer{tree: tree, src: tree.Source(), out: dst}
	root := tree.Root()
	n := tree.Node(root)
	p.gap(0, n.Start)
	p.node(root)
	p.gap(n.End, uint32(len(p.src)))
	return p.out
}

func (p *printer) node(id syntax.NodeID) {
	n := p.tree.Node(id)
	if n.IsRemoved() {
		return
	}
	if text, ok := n.Replacement(); ok {
		p.emit(text)
		return
	}
	if n.IsSynthetic() {
		if n.Kind == syntax.KindText {
			p.emit(n.SyntheticText())
			return
		}
		for _, c := range p.tree.Children(id) {
			p.node(c)
		}
		return
	}
	if u := n.Unwrapped(); u != syntax.None {
		p.node(u)
		return
	}

	kids := p.tree.Children(id)
	if len(kids) == 0 {
		p.emitSource(n.Start, n.End)
		return
	}
	pos := n.Start
	for i := 0; i < len(kids); i++ {
		c := p.tree.Node(kids[i])
		if c.IsSynthetic() {
			p.node(kids[i])
			continue
		}
		p.gap(pos, c.Start)
		pos = c.End
		if !c.IsRemoved() {
			p.node(kids[i])
			continue
		}
		// Removed siblings separated only by spaces are cut as one piece.
		mode := c.Drop
		for i+1 < len(kids) {
			next := p.tree.Node(kids[i+1])
			if next.IsSynthetic() || !next.IsRemoved() || !blank(p.src[pos:next.Start]) {
				break
			}
			mode = max(mode, next.Drop)
			pos = next.End
			i++
		}
		p.drop(c.Start, pos, mode)
	}
	p.gap(pos, n.End)
}

func (p *printer) drop(start, end uint32, mode syntax.DropMode) {
	switch mode {
	case syntax.DropInline:
		p.skip = skipInline
	case syntax.DropLeading:
		p.skip = skipSpaces
	case syntax.DropLine:
		atStart, atEnd := p.startsLine(start), p.endsLine(end)
		switch {
		case atStart && atEnd:
			p.trimTrailing()
			p.skip = skipLine
		case atEnd:
			p.trimTrailing()
			p.skip = skipNone
		default:
			p.skip = skipSpaces
		}
	}
}

// gap copies the source between two printed nodes, settling any pending
// whitespace cleanup. An empty gap leaves the cleanup pending.
func (p *printer) gap(from, to uint32) {
	if from >= to {
		return
	}
	s := p.src[from:to]
	switch p.skip {
	case skipSpaces:
		s = trimSpaces(s)
	case skipInline:
		if p.endsWithSpace() {
			s = trimSpaces(s)
			if len(s) > 0 && (s[0] == '\n' || s[0] == '\r') {
				p.trimTrailing()
			}
		}
	case skipLine:
		s = trimSpaces(s)
		switch {
		case len(s) >= 2 && s[0] == '\r' && s[1] == '\n':
			s = s[2:]
		case len(s) >= 1 && s[0] == '\n':
			s = s[1:]
		}
	}
	p.skip = skipNone
	p.out = append(p.out, s...)
}

func (p *printer) emit(text string) {
	p.skip = skipNone
	p.out = append(p.out, text...)
}

func (p *printer) emitSource(from, to uint32) {
	p.skip = skipNone
	p.out = append(p.out, p.src[from:to]...)
}

func (p *printer) endsWithSpace() bool {
	if len(p.out) == 0 {
		return false
	}
	c := p.out[len(p.out)-1]
	return c == ' ' || c == '\t'
}

func (p *printer) trimTrailing() {
	for p.endsWithSpace() {
		p.out = p.out[:len(p.out)-1]
	}
}

// startsLine reports whether only indentation precedes off on its line.
func (p *printer) startsLine(off uint32) bool {
	for i := int(off) - 1; i >= 0; i-- {
		switch p.src[i] {
		case ' ', '\t':
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// endsLine reports whether only spaces follow off on its line.
func (p *printer) endsLine(off uint32) bool {
	for i := int(off); i < len(p.src); i++ {
		switch p.src[i] {
		case ' ', '\t':
		case '\n', '\r':
			return true
		default:
			return false
		}
	}
	return true
}

func blank(s []byte) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}

func trimSpaces(s []byte) []byte {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[i:]
}
