package syntax

// NodeID addresses a node inside its Tree.
type NodeID int32

// None is the absent node.
const None NodeID = -1

// Synthetic node kinds. They never come out of the parser.
const (
	KindText = "#text"
	KindSeq  = "#seq"
)

// Flags describe a node.
type Flags uint8

const (
	FlagNamed Flags = 1 << iota
	FlagError
	FlagMissing
	FlagSynthetic
	FlagReplaced
)

// DropMode says how a removed node is cut out of the printed output and what
// happens to the whitespace around it.
type DropMode uint8

const (
	// Keep prints the node.
	Keep DropMode = iota
	// DropInline removes the node. A space left dangling before the next
	// token is collapsed.
	DropInline
	// DropLeading removes the node and the spaces and tabs after it.
	DropLeading
	// DropLine removes the whole line when the node (together with
	// consecutive removed siblings) is the only thing on it, and otherwise
	// behaves like DropLeading.
	DropLine
)

// Node is one syntax node. Nodes coming from the parser cover the byte span
// [Start, End) of the source; synthetic nodes carry their own text.
type Node struct {
	Kind   string
	Field  string // field name in the parent, if any
	Start  uint32
	End    uint32
	Parent NodeID
	Flags  Flags
	Drop   DropMode

	kids   int32 // offset of the child list in Tree.kids
	nkids  int32
	text   string // replacement or synthetic text
	unwrap NodeID // print only this child instead of the node; 0 when unset
}

// IsNamed reports whether the node is a named grammar node.
func (n Node) IsNamed() bool { return n.Flags&FlagNamed != 0 }

// IsSynthetic reports whether the node was created after parsing.
func (n Node) IsSynthetic() bool { return n.Flags&FlagSynthetic != 0 }

// IsRemoved reports whether the node is dropped from the output.
func (n Node) IsRemoved() bool { return n.Drop != Keep }

// Replacement returns the text printed instead of the node.
func (n Node) Replacement() (string, bool) {
	if n.Flags&FlagReplaced != 0 {
		return n.text, true
	}
	return "", false
}

// SyntheticText returns the text of a KindText node.
func (n Node) SyntheticText() string { return n.text }

// Unwrapped returns the child printed in place of the node, or None.
func (n Node) Unwrapped() NodeID {
	if n.unwrap == 0 {
		return None
	}
	return n.unwrap
}

// Len returns the number of children.
func (n Node) Len() int { return int(n.nkids) }
