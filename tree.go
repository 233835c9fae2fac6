// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"bytes"
	"fmt"
	"io"
)

// Tree is a mutable hash-array-mapped trie: keys are []byte, values are T,
// and every key is addressed by successive 5-bit slices of its 32-bit hash.
//
// A Tree may be re-rooted over an ImmutableTree (FromImmutable), in which
// case reads are serviced by the frozen node graph and mutations copy only
// the path being changed, leaving sibling subtrees shared with the frozen
// base. That sharing is what makes a later delta write small.
//
// A Tree is not safe for concurrent use. Reads may run concurrently with
// each other on an unmutated instance, but any Insert or Remove requires
// exclusive access because node replacement rewrites parent-held child slots
// with no synchronization.
type Tree[T any] struct {
	root   node[T] // nil, *interiorNode[T], or *frozenInterior[T]
	hashFn HashFn
}

// WalkFn is called for each binding during a walk. Returning true terminates
// the walk.
type WalkFn[T any] func(key []byte, value T) bool

func New[T any]() *Tree[T] {
	return &Tree[T]{hashFn: defaultHash}
}

func NewWithHash[T any](fn HashFn) *Tree[T] {
	return &Tree[T]{hashFn: fn}
}

// FromImmutable re-roots a mutable tree over a frozen base. The base's
// lifetime is governed by its buffer; the returned tree references its nodes
// but never owns, mutates, or frees them.
func FromImmutable[T any](base *ImmutableTree[T]) *Tree[T] {
	t := &Tree[T]{hashFn: base.hashFn}
	if base.root != 0 {
		t.root = base.nodeAtRef(base.root)
	}
	return t
}

// Count returns the number of bindings. O(nodes).
func (t *Tree[T]) Count() int {
	if t.root == nil {
		return 0
	}
	return itemCount(t.root)
}

// Get returns the value bound to key. The boolean distinguishes a
// present-but-zero value from absence; the error is non-nil only when a
// frozen value fails to decode.
func (t *Tree[T]) Get(key []byte) (T, bool, error) {
	return lookup(t.root, t.hashFn, key)
}

// Insert binds value to key, overwriting any existing binding. Panics with
// ErrHashCollision if key's hash is identical to that of a different key
// already stored.
func (t *Tree[T]) Insert(key []byte, value T) {
	root := t.mutableRoot()
	t.root = root.insert(newTarget(t.hashFn, key), value, 0)
}

// Remove deletes the binding for key, reporting whether it was present.
// An emptied root stays allocated; Count()==0 is the observable state.
func (t *Tree[T]) Remove(key []byte) bool {
	switch root := t.root.(type) {
	case nil:
		return false
	case *interiorNode[T]:
		return root.remove(newTarget(t.hashFn, key), 0)
	default:
		thawed := root.(*frozenInterior[T]).thaw(0)
		if !thawed.remove(newTarget(t.hashFn, key), 0) {
			return false
		}
		t.root = thawed
		return true
	}
}

// mutableRoot returns the root interior node, allocating it lazily at full
// capacity on first insert and thawing a frozen root on first mutation.
func (t *Tree[T]) mutableRoot() *interiorNode[T] {
	switch root := t.root.(type) {
	case nil:
		m := newRoot[T]()
		t.root = m
		return m
	case *interiorNode[T]:
		return root
	default:
		m := root.(*frozenInterior[T]).thaw(1)
		t.root = m
		return m
	}
}

// Walk visits every binding in hash order (depth-first, ascending branch
// slots). The order is deterministic but not key-sorted.
func (t *Tree[T]) Walk(fn WalkFn[T]) error {
	return walkRoot(t.root, fn)
}

func (t *Tree[T]) Iterator() *Iterator[T] {
	return newIterator(t.root)
}

// Dump writes a human-readable rendering of the node graph for diagnostics.
func (t *Tree[T]) Dump(w io.Writer) {
	fmt.Fprint(w, "Tree {")
	if t.root != nil {
		fmt.Fprintln(w)
		dumpNode(w, t.root, 1)
	}
	fmt.Fprintln(w, "}")
}

func walkRoot[T any](root node[T], fn WalkFn[T]) error {
	if root == nil {
		return nil
	}
	_, err := walkNode(root, fn)
	return err
}

func walkNode[T any](n node[T], fn WalkFn[T]) (bool, error) {
	total := n.childBitmap().count()
	for i := 0; i < total; i++ {
		child := n.childAt(i)
		if child.isLeaf() {
			value, err := child.leafValue()
			if err != nil {
				return false, err
			}
			if fn(child.leafKey(), value) {
				return true, nil
			}
			continue
		}
		stop, err := walkNode(child, fn)
		if stop || err != nil {
			return stop, err
		}
	}
	return false, nil
}

// lookup probes root for key: findNearest locates the candidate leaf by hash
// slices alone, then full (hash, key) equality is confirmed here.
func lookup[T any](root node[T], fn HashFn, key []byte) (T, bool, error) {
	var zero T
	if root == nil {
		return zero, false, nil
	}
	hash := fn(key)
	var leaf node[T]
	if root.isLeaf() {
		leaf = root
	} else {
		leaf = findNearest(root, hash)
	}
	if leaf == nil || leaf.leafHash() != hash || !bytes.Equal(leaf.leafKey(), key) {
		return zero, false, nil
	}
	value, err := leaf.leafValue()
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}
