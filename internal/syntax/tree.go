package syntax

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/maxleiko/oxcc/internal/arena"
	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/source"
)

// Tree is a mutable syntax tree stored in arena slabs. Its nodes, child lists
// and line table are only valid until the arena is reset; every accessor
// panics when called on a tree from an earlier generation.
type Tree struct {
	arena *arena.Arena
	gen   uint64
	src   []byte
	st    source.Type
	root  NodeID

	nodes *arena.Slab[Node]
	kids  *arena.Slab[NodeID]
	lines *arena.Slab[uint32] // byte offset of every line start
}

func (t *Tree) check() {
	if t.gen != t.arena.Generation() {
		panic(fmt.Sprintf("syntax: tree from arena generation %d used in generation %d", t.gen, t.arena.Generation()))
	}
}

// Root returns the program node.
func (t *Tree) Root() NodeID {
	t.check()
	return t.root
}

// Source returns the parsed text. It aliases arena memory.
func (t *Tree) Source() []byte {
	t.check()
	return t.src
}

// SourceType returns the classification the tree was parsed with.
func (t *Tree) SourceType() source.Type { return t.st }

// Len returns the number of nodes, synthetic ones included.
func (t *Tree) Len() int {
	t.check()
	return t.nodes.Len()
}

// Node returns a copy of node id.
func (t *Tree) Node(id NodeID) Node {
	t.check()
	return t.nodes.Get(int32(id))
}

// Kind returns the grammar type of id, or "" for None.
func (t *Tree) Kind(id NodeID) string {
	if id == None {
		return ""
	}
	t.check()
	return t.nodes.At(int32(id)).Kind
}

// Parent returns the parent of id, or None for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	t.check()
	return t.nodes.At(int32(id)).Parent
}

// Children returns the child list of id. The slice aliases the tree and is
// invalidated by InsertAfter and InsertBefore.
func (t *Tree) Children(id NodeID) []NodeID {
	t.check()
	n := t.nodes.At(int32(id))
	if n.nkids == 0 {
		return nil
	}
	return t.kids.Range(n.kids, n.nkids)
}

// ChildByField returns the first child of id stored under field, or None.
func (t *Tree) ChildByField(id NodeID, field string) NodeID {
	for _, c := range t.Children(id) {
		if t.nodes.At(int32(c)).Field == field {
			return c
		}
	}
	return None
}

// ChildrenByField returns every child of id stored under field.
func (t *Tree) ChildrenByField(id NodeID, field string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.nodes.At(int32(c)).Field == field {
			out = append(out, c)
		}
	}
	return out
}

// ChildOfKind returns the first child of id with the given kind, or None.
func (t *Tree) ChildOfKind(id NodeID, kind string) NodeID {
	for _, c := range t.Children(id) {
		if t.nodes.At(int32(c)).Kind == kind {
			return c
		}
	}
	return None
}

// ChildrenOfKind returns every child of id with the given kind.
func (t *Tree) ChildrenOfKind(id NodeID, kind string) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.nodes.At(int32(c)).Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children of id.
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.nodes.At(int32(c)).Flags&FlagNamed != 0 {
			out = append(out, c)
		}
	}
	return out
}

// HasChild reports whether id has an anonymous token child with the given
// text, such as "async" or "?".
func (t *Tree) HasChild(id NodeID, kind string) bool {
	return t.ChildOfKind(id, kind) != None
}

// Text returns the source text of id. The string aliases arena memory and
// must be copied before the arena is reset.
func (t *Tree) Text(id NodeID) string {
	t.check()
	n := t.nodes.At(int32(id))
	if n.Flags&FlagSynthetic != 0 {
		return n.text
	}
	if n.End <= n.Start {
		return ""
	}
	return unsafe.String(&t.src[n.Start], int(n.End-n.Start))
}

// Position converts a byte offset to a 1-based line and column.
func (t *Tree) Position(offset uint32) (line, col int) {
	t.check()
	n := t.lines.Len()
	starts := t.lines.Range(0, int32(n))
	i := sort.Search(n, func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(offset-starts[i]) + 1
}

// LineText returns the text of a 1-based line without its line terminator.
func (t *Tree) LineText(line int) string {
	t.check()
	n := t.lines.Len()
	if line < 1 || line > n {
		return ""
	}
	start := t.lines.Get(int32(line - 1))
	end := uint32(len(t.src))
	if line < n {
		end = t.lines.Get(int32(line))
	}
	for end > start && (t.src[end-1] == '\n' || t.src[end-1] == '\r') {
		end--
	}
	if end == start {
		return ""
	}
	return unsafe.String(&t.src[start], int(end-start))
}

// LineIndent returns the leading spaces and tabs of the line holding offset.
func (t *Tree) LineIndent(offset uint32) string {
	line, _ := t.Position(offset)
	text := t.LineText(line)
	i := 0
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return text[:i]
}

// Diagnostic builds an error diagnostic located at id. The snippet is copied
// so the result outlives the arena.
func (t *Tree) Diagnostic(id NodeID, msg string) diag.Diagnostic {
	n := t.Node(id)
	line, col := t.Position(n.Start)
	return diag.Diagnostic{
		Severity: diag.SevError,
		Message:  msg,
		Span:     diag.Span{Start: n.Start, End: n.End},
		Line:     line,
		Column:   col,
		Snippet:  strings.Clone(t.LineText(line)),
	}
}

// Remove drops id from the output using mode.
func (t *Tree) Remove(id NodeID, mode DropMode) {
	t.check()
	if mode == Keep {
		mode = DropInline
	}
	t.nodes.At(int32(id)).Drop = mode
}

// Removed reports whether id, or one of its ancestors, was dropped.
func (t *Tree) Removed(id NodeID) bool {
	t.check()
	for id != None {
		n := t.nodes.At(int32(id))
		if n.Drop != Keep {
			return true
		}
		id = n.Parent
	}
	return false
}

// Replace prints text instead of id.
func (t *Tree) Replace(id NodeID, text string) {
	t.check()
	n := t.nodes.At(int32(id))
	n.Flags |= FlagReplaced
	n.text = text
}

// Unwrap prints only child keep in place of id, e.g. the operand of an
// "as" expression.
func (t *Tree) Unwrap(id, keep NodeID) {
	t.check()
	if t.nodes.At(int32(keep)).Parent != id {
		panic(fmt.Sprintf("syntax: node %d is not a child of %d", keep, id))
	}
	t.nodes.At(int32(id)).unwrap = keep
}

// NewText creates a detached synthetic node printing text.
func (t *Tree) NewText(text string) NodeID {
	t.check()
	return NodeID(t.nodes.Alloc(Node{
		Kind:   KindText,
		Parent: None,
		Flags:  FlagSynthetic,
		text:   text,
	}))
}

// NewSeq creates a detached synthetic node printing its children in order.
// The children must be detached synthetic nodes.
func (t *Tree) NewSeq(children ...NodeID) NodeID {
	t.check()
	id := NodeID(t.nodes.Alloc(Node{Kind: KindSeq, Parent: None, Flags: FlagSynthetic}))
	t.setChildren(id, children)
	return id
}

// InsertAfter places nodes right after anchor in anchor's parent.
func (t *Tree) InsertAfter(anchor NodeID, nodes ...NodeID) {
	t.insert(anchor, 1, nodes)
}

// InsertBefore places nodes right before anchor in anchor's parent.
func (t *Tree) InsertBefore(anchor NodeID, nodes ...NodeID) {
	t.insert(anchor, 0, nodes)
}

func (t *Tree) insert(anchor NodeID, after int, nodes []NodeID) {
	t.check()
	parent := t.nodes.At(int32(anchor)).Parent
	if parent == None {
		panic("syntax: cannot insert next to a detached node")
	}
	old := t.Children(parent)
	at := -1
	for i, c := range old {
		if c == anchor {
			at = i + after
			break
		}
	}
	if at < 0 {
		panic(fmt.Sprintf("syntax: node %d missing from its parent", anchor))
	}
	merged := make([]NodeID, 0, len(old)+len(nodes))
	merged = append(merged, old[:at]...)
	merged = append(merged, nodes...)
	merged = append(merged, old[at:]...)
	t.setChildren(parent, merged)
}

func (t *Tree) setChildren(id NodeID, children []NodeID) {
	off := t.kids.AllocN(len(children))
	for i, c := range children {
		t.kids.Set(off+int32(i), c)
		t.nodes.At(int32(c)).Parent = id
	}
	n := t.nodes.At(int32(id))
	n.kids = off
	n.nkids = int32(len(children))
}

// Walk calls fn for id and its descendants in source order. Returning false
// from fn skips the node's children.
func (t *Tree) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	t.check()
	n := t.nodes.At(int32(id))
	off, cnt := n.kids, n.nkids
	for i := int32(0); i < cnt; i++ {
		t.Walk(t.kids.Get(off+i), fn)
	}
}
