// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import "encoding/binary"

// frozenLeaf is a read-only view of an encoded leaf record. Its key and value
// slices alias the immutable tree's buffer; the mutable tree never frees or
// writes through them.
type frozenLeaf[T any] struct {
	tree  *ImmutableTree[T]
	ref   uint32
	hash  uint32
	key   []byte
	value []byte // still encoded; decoded through the tree's codec on demand
}

func (n *frozenLeaf[T]) kind() nodeKind {
	return frozenLeafKind
}

func (n *frozenLeaf[T]) isLeaf() bool {
	return true
}

func (n *frozenLeaf[T]) childBitmap() bitmap32 {
	return 0
}

func (n *frozenLeaf[T]) childAt(index int) node[T] {
	return nil
}

func (n *frozenLeaf[T]) leafHash() uint32 {
	return n.hash
}

func (n *frozenLeaf[T]) leafKey() []byte {
	return n.key
}

func (n *frozenLeaf[T]) leafValue() (T, error) {
	return n.tree.codec.Decode(n.value)
}

func (n *frozenLeaf[T]) rawValue() ([]byte, bool) {
	return n.value, true
}

func (n *frozenLeaf[T]) savedRef() (uint32, bool) {
	return n.ref, true
}

// frozenInterior is a read-only view of an encoded interior record. Child
// refs are parsed straight out of the buffer, which was bounds-checked when
// the immutable tree was opened.
type frozenInterior[T any] struct {
	tree   *ImmutableTree[T]
	ref    uint32
	bitmap bitmap32
}

func (n *frozenInterior[T]) kind() nodeKind {
	return frozenInteriorKind
}

func (n *frozenInterior[T]) isLeaf() bool {
	return false
}

func (n *frozenInterior[T]) childBitmap() bitmap32 {
	return n.bitmap
}

func (n *frozenInterior[T]) childAt(index int) node[T] {
	off := refOffset(n.ref)
	child := binary.LittleEndian.Uint32(n.tree.data[off+4+4*uint32(index):])
	return n.tree.nodeAtRef(child)
}

// thaw makes a mutable copy of this node with room for extra more children,
// sharing the existing children as frozen refs. The frozen original stays
// valid; only the parent's slot switches over to the copy.
func (n *frozenInterior[T]) thaw(extra int) *interiorNode[T] {
	count := n.bitmap.count()
	capacity := count + extra
	if capacity > maxChildren {
		capacity = maxChildren
	}
	if capacity < 1 {
		capacity = 1
	}
	m := newInterior[T](capacity)
	m.bitmap = n.bitmap
	for i := 0; i < count; i++ {
		m.children = append(m.children, n.childAt(i))
	}
	return m
}

func (n *frozenInterior[T]) leafHash() uint32 {
	return 0
}

func (n *frozenInterior[T]) leafKey() []byte {
	return nil
}

func (n *frozenInterior[T]) leafValue() (T, error) {
	var zero T
	return zero, nil
}

func (n *frozenInterior[T]) rawValue() ([]byte, bool) {
	return nil, false
}

func (n *frozenInterior[T]) savedRef() (uint32, bool) {
	return n.ref, true
}
