// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import "bytes"

// interiorNode holds up to 32 children in a compact array addressed through
// the presence bitmap: the child for branch slot b lives at index
// bitmap.rank(b). The array's allocated capacity may exceed the live child
// count so new children can be inserted without reallocating; when it cannot,
// the node is replaced by a grown copy and the caller updates its slot.
type interiorNode[T any] struct {
	bitmap   bitmap32
	children []node[T] // len == bitmap.count(); cap is the allocated capacity
}

func newInterior[T any](capacity int) *interiorNode[T] {
	if capacity < 1 || capacity > maxChildren {
		panic("hamt: interior node capacity out of range")
	}
	return &interiorNode[T]{children: make([]node[T], 0, capacity)}
}

func newRoot[T any]() *interiorNode[T] {
	return newInterior[T](maxChildren)
}

// insert adds or overwrites the binding for t below this node, consuming the
// hash slice at shift. The returned node supersedes the receiver when growth
// forced a replacement; the caller must store it in its own slot.
func (n *interiorNode[T]) insert(t target, value T, shift uint32) *interiorNode[T] {
	if shift+bitShift >= hashBits {
		panic(ErrHashCollision)
	}
	bit := childBit(t.hash, shift)
	if !n.bitmap.contains(bit) {
		return n.addChild(bit, newLeaf(t, value))
	}
	index := n.bitmap.rank(bit)
	child := n.children[index]
	switch child.kind() {
	case leafKind:
		leaf := child.(*leafNode[T])
		if leaf.matches(t.hash, t.key) {
			leaf.value = value
			return n
		}
		n.children[index] = splitLeaf(child, t, value, shift)
	case frozenLeafKind:
		if child.leafHash() == t.hash && bytes.Equal(child.leafKey(), t.key) {
			// A frozen leaf cannot be overwritten in place; a fresh
			// mutable leaf takes over the slot.
			n.children[index] = newLeaf(t, value)
			return n
		}
		n.children[index] = splitLeaf(child, t, value, shift)
	case interiorKind:
		in := child.(*interiorNode[T])
		if rep := in.insert(t, value, shift+bitShift); rep != in {
			n.children[index] = rep
		}
	case frozenInteriorKind:
		thawed := child.(*frozenInterior[T]).thaw(1)
		n.children[index] = thawed.insert(t, value, shift+bitShift)
	}
	return n
}

// splitLeaf handles a partial hash collision: the slot's occupant and the new
// binding agree on the hash slice at shift but are different keys, so both
// move into a freshly allocated interior one level deeper. Shallow levels get
// extra headroom because further branching there is statistically more likely.
func splitLeaf[T any](existing node[T], t target, value T, shift uint32) *interiorNode[T] {
	level := shift / bitShift
	capacity := 2
	if level < 1 {
		capacity++
	}
	if level < 3 {
		capacity++
	}
	inner := newInterior[T](capacity)
	inner = inner.addChild(childBit(existing.leafHash(), shift+bitShift), existing)
	return inner.insert(t, value, shift+bitShift)
}

// remove deletes the binding for t if present, reporting whether anything was
// removed. A child interior left empty by the removal is unlinked here;
// collapsing stops at that single level.
func (n *interiorNode[T]) remove(t target, shift uint32) bool {
	if shift+bitShift >= hashBits {
		panic(ErrHashCollision)
	}
	bit := childBit(t.hash, shift)
	if !n.bitmap.contains(bit) {
		return false
	}
	index := n.bitmap.rank(bit)
	child := n.children[index]
	switch child.kind() {
	case leafKind, frozenLeafKind:
		if child.leafHash() == t.hash && bytes.Equal(child.leafKey(), t.key) {
			n.removeChild(bit, index)
			return true
		}
		return false
	case interiorKind:
		in := child.(*interiorNode[T])
		if !in.remove(t, shift+bitShift) {
			return false
		}
		if in.bitmap.isEmpty() {
			n.removeChild(bit, index)
		}
		return true
	default: // frozenInteriorKind
		thawed := child.(*frozenInterior[T]).thaw(0)
		if !thawed.remove(t, shift+bitShift) {
			// Nothing removed: drop the copy, keep sharing the
			// frozen subtree.
			return false
		}
		if thawed.bitmap.isEmpty() {
			n.removeChild(bit, index)
		} else {
			n.children[index] = thawed
		}
		return true
	}
}

// addChild inserts child at branch slot bit, growing into a replacement node
// first when the compact array is full. When the returned node differs from
// the receiver the caller must store it in place of the receiver, which has
// been retired.
func (n *interiorNode[T]) addChild(bit uint32, child node[T]) *interiorNode[T] {
	dst := n
	if len(n.children) == cap(n.children) {
		dst = n.grow()
	}
	dst.putChild(bit, child)
	return dst
}

// grow allocates a replacement with room for exactly one more child and moves
// the existing children over by reference. The receiver is retired: its child
// array is dropped so two live nodes never claim the same children.
func (n *interiorNode[T]) grow() *interiorNode[T] {
	if cap(n.children) >= maxChildren {
		panic("hamt: interior node over branch factor")
	}
	replacement := &interiorNode[T]{
		bitmap:   n.bitmap,
		children: make([]node[T], len(n.children), len(n.children)+1),
	}
	copy(replacement.children, n.children)
	n.bitmap = 0
	n.children = nil
	return replacement
}

func (n *interiorNode[T]) putChild(bit uint32, child node[T]) {
	index := n.bitmap.rank(bit)
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.bitmap.add(bit)
}

func (n *interiorNode[T]) removeChild(bit uint32, index int) {
	copy(n.children[index:], n.children[index+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	n.bitmap.remove(bit)
}

func (n *interiorNode[T]) kind() nodeKind {
	return interiorKind
}

func (n *interiorNode[T]) isLeaf() bool {
	return false
}

func (n *interiorNode[T]) childBitmap() bitmap32 {
	return n.bitmap
}

func (n *interiorNode[T]) childAt(index int) node[T] {
	return n.children[index]
}

func (n *interiorNode[T]) leafHash() uint32 {
	return 0
}

func (n *interiorNode[T]) leafKey() []byte {
	return nil
}

func (n *interiorNode[T]) leafValue() (T, error) {
	var zero T
	return zero, nil
}

func (n *interiorNode[T]) rawValue() ([]byte, bool) {
	return nil, false
}

func (n *interiorNode[T]) savedRef() (uint32, bool) {
	return 0, false
}
