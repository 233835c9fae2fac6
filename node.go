// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

type nodeKind int

const (
	leafKind nodeKind = iota
	interiorKind
	frozenLeafKind
	frozenInteriorKind
)

// node is the capability interface shared by all four node kinds: mutable
// leaf, mutable interior, and their frozen counterparts backed by a
// previously encoded buffer. Traversal code is written once against this
// interface and stays oblivious to whether a subtree is mutable or frozen.
// Accessors that do not apply to a kind are no-ops returning zero values.
type node[T any] interface {
	kind() nodeKind
	isLeaf() bool

	// Interior accessors. childAt takes a compact-array index, i.e. the
	// rank of the child's branch slot in the presence bitmap.
	childBitmap() bitmap32
	childAt(index int) node[T]

	// Leaf accessors.
	leafHash() uint32
	leafKey() []byte
	leafValue() (T, error)

	// rawValue returns the still-encoded value bytes of a frozen leaf, so
	// a full re-encode can copy them without a decode round trip.
	rawValue() ([]byte, bool)

	// savedRef returns the tagged offset this node occupies in the buffer
	// of the immutable tree it belongs to. Only frozen nodes have one; a
	// delta write emits the ref instead of re-encoding the node.
	savedRef() (uint32, bool)
}
