// Package syntax parses JavaScript and TypeScript with tree-sitter and keeps
// the result as a mutable tree in arena memory.
//
// tree-sitter trees are immutable and live in C memory, so the parser mirrors
// every node (named and anonymous) into arena slabs and closes the
// tree-sitter tree right away. Later stages edit the mirror: they drop nodes,
// replace them with text, or splice in synthetic nodes. The codegen stage
// prints the edited mirror against the original source.
package syntax

import (
	"context"
	"fmt"
	"strconv"

	sitter "github.com/smacker/go-tree-sitter"

	"fortio.org/safecast"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/source"
)

// Parser turns source text into a Tree. A Parser reuses one tree-sitter
// parser and the slabs of its arena across calls. It is not safe for
// concurrent use.
type Parser struct {
	arena *arena.Arena
	ts    *sitter.Parser

	nodes *arena.Slab[Node]
	kids  *arena.Slab[NodeID]
	lines *arena.Slab[uint32]
}

// NewParser creates a Parser allocating from a.
func NewParser(a *arena.Arena) *Parser {
	return &Parser{
		arena: a,
		ts:    sitter.NewParser(),
		nodes: arena.NewSlab[Node](a),
		kids:  arena.NewSlab[NodeID](a),
		lines: arena.NewSlab[uint32](a),
	}
}

// Close releases the tree-sitter parser.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
		p.ts = nil
	}
}

// Parse parses src as st. A syntax error is reported as diagnostics, not as
// an error; the returned error is reserved for failures of the parser itself.
// The tree is valid until the arena is reset.
func (p *Parser) Parse(ctx context.Context, src []byte, st source.Type) (*Tree, diag.List, error) {
	if p.ts == nil {
		return nil, nil, fmt.Errorf("syntax: parser is closed")
	}
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, nil, fmt.Errorf("syntax: source too large: %w", err)
	}

	p.ts.SetLanguage(GrammarFor(st))
	tsTree, err := p.ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("syntax: tree-sitter parse: %w", err)
	}
	defer tsTree.Close()

	t := &Tree{
		arena: p.arena,
		gen:   p.arena.Generation(),
		src:   src,
		st:    st,
		nodes: p.nodes,
		kids:  p.kids,
		lines: p.lines,
	}
	t.buildLines()

	rootNode := tsTree.RootNode()
	t.root = t.add(rootNode, "", None)
	cursor := sitter.NewTreeCursor(rootNode)
	defer cursor.Close()
	t.mirror(cursor, rootNode, t.root)

	var diags diag.List
	if rootNode.HasError() {
		diags = t.syntaxErrors()
	}
	return t, diags, nil
}

func (t *Tree) buildLines() {
	t.lines.Alloc(0)
	for i, b := range t.src {
		if b == '\n' {
			t.lines.Alloc(uint32(i + 1))
		}
	}
}

func (t *Tree) add(sn *sitter.Node, field string, parent NodeID) NodeID {
	n := Node{
		Kind:   sn.Type(),
		Field:  field,
		Start:  sn.StartByte(),
		End:    sn.EndByte(),
		Parent: parent,
	}
	if sn.IsNamed() {
		n.Flags |= FlagNamed
	}
	if sn.IsMissing() {
		n.Flags |= FlagMissing
	}
	if n.Kind == "ERROR" {
		n.Flags |= FlagError
	}
	return NodeID(t.nodes.Alloc(n))
}

// mirror copies the children of sn (the cursor's current node) below id.
// Child lists are allocated contiguously before descending, so node ids
// follow source order.
func (t *Tree) mirror(c *sitter.TreeCursor, sn *sitter.Node, id NodeID) {
	count, err := safecast.Conv[int](sn.ChildCount())
	if err != nil || count == 0 {
		return
	}
	if !c.GoToFirstChild() {
		return
	}
	off := t.kids.AllocN(count)
	i := 0
	for {
		child := c.CurrentNode()
		cid := t.add(child, c.CurrentFieldName(), id)
		t.kids.Set(off+int32(i), cid)
		i++
		t.mirror(c, child, cid)
		if i == count || !c.GoToNextSibling() {
			break
		}
	}
	c.GoToParent()
	n := t.nodes.At(int32(id))
	n.kids = off
	n.nkids = int32(i)
}

// syntaxErrors reports every outermost ERROR node and every node the parser
// had to invent.
func (t *Tree) syntaxErrors() diag.List {
	var out diag.List
	t.Walk(t.root, func(id NodeID) bool {
		n := t.nodes.Get(int32(id))
		switch {
		case n.Flags&FlagError != 0:
			out = append(out, t.Diagnostic(id, unexpected(t, id)))
			return false
		case n.Flags&FlagMissing != 0:
			out = append(out, t.Diagnostic(id, expected(n)))
		}
		return true
	})
	return out
}

func unexpected(t *Tree, id NodeID) string {
	leaf := id
	for {
		kids := t.Children(leaf)
		if len(kids) == 0 {
			break
		}
		leaf = kids[0]
	}
	text := t.Text(leaf)
	if text == "" {
		return "Unexpected end of input"
	}
	return "Unexpected token " + strconv.Quote(text)
}

func expected(n Node) string {
	if n.Flags&FlagNamed != 0 {
		return "Expected " + n.Kind
	}
	return "Expected " + strconv.Quote(n.Kind)
}
