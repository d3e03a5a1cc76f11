// Package toc models the frame's table of contents: the list of
// sections (global and per-group) the bitstream carries, each tagged
// with a kind, an absolute bit offset and a size in bytes.
//
// Decoding the TOC's own on-wire representation (how offsets and a
// possible permutation are varint-coded) is part of the frame-header
// format and stays an external collaborator per spec.md §1; this
// package only models the already-parsed table and its bitstream-order
// walk, which is squarely component E's job (spec.md §4.E).
package toc

import "fmt"

// Kind tags the five section kinds a TocGroup can carry.
type Kind int

const (
	KindAll Kind = iota
	KindLfGlobal
	KindLfGroup
	KindHfGlobal
	KindGroupPass
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "All"
	case KindLfGlobal:
		return "LfGlobal"
	case KindLfGroup:
		return "LfGroup"
	case KindHfGlobal:
		return "HfGlobal"
	case KindGroupPass:
		return "GroupPass"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// GroupKind identifies a section's kind plus whatever index data that
// kind carries (LF-group index, or pass/group index pair).
type GroupKind struct {
	Kind       Kind
	LfGroupIdx uint32 // valid when Kind == KindLfGroup
	PassIdx    uint32 // valid when Kind == KindGroupPass
	GroupIdx   uint32 // valid when Kind == KindGroupPass
}

// LfGroup returns the GroupKind for LF-group idx.
func LfGroup(idx uint32) GroupKind {
	return GroupKind{Kind: KindLfGroup, LfGroupIdx: idx}
}

// GroupPass returns the GroupKind for pass passIdx, group groupIdx.
func GroupPass(passIdx, groupIdx uint32) GroupKind {
	return GroupKind{Kind: KindGroupPass, PassIdx: passIdx, GroupIdx: groupIdx}
}

// All, LfGlobal, HfGlobal are the index-free GroupKinds.
var (
	All      = GroupKind{Kind: KindAll}
	LfGlobal = GroupKind{Kind: KindLfGlobal}
	HfGlobal = GroupKind{Kind: KindHfGlobal}
)

// Group is one table-of-contents entry: a kind plus its location.
// Offset is an absolute bit offset into the bitstream; Size is in bytes.
type Group struct {
	Kind   GroupKind
	Offset uint64
	Size   uint64
}

// Table holds the parsed table of contents for one frame.
type Table struct {
	singleEntry bool
	groups      []Group
}

// New builds a Table from groups already in bitstream order.
// singleEntry marks the "all sections concatenated" TOC form (spec.md
// §4.E), in which the single group carries GroupKind All.
func New(singleEntry bool, groups []Group) *Table {
	return &Table{singleEntry: singleEntry, groups: append([]Group(nil), groups...)}
}

// IsSingleEntry reports whether this is a single-entry TOC.
func (t *Table) IsSingleEntry() bool { return t.singleEntry }

// LfGlobalEntry returns the table's single group when IsSingleEntry is
// true. It panics if called on a multi-entry table, matching the
// precondition callers must already have checked (spec.md §4.E: "legal
// only for single-entry TOC").
func (t *Table) LfGlobalEntry() Group {
	if !t.singleEntry {
		panic("toc: LfGlobalEntry called on multi-entry table")
	}
	return t.groups[0]
}

// IterBitstreamOrder returns the table's groups in bitstream (physical)
// order.
func (t *Table) IterBitstreamOrder() []Group {
	return t.groups
}

// Len returns the number of groups in the table.
func (t *Table) Len() int { return len(t.groups) }
