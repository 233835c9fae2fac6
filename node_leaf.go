// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

// leafNode holds exactly one (hash, key, value) binding. Overwriting the
// value in place is permitted; the key and hash are fixed at creation.
type leafNode[T any] struct {
	target
	value T
}

func newLeaf[T any](t target, value T) *leafNode[T] {
	return &leafNode[T]{target: t, value: value}
}

func (n *leafNode[T]) kind() nodeKind {
	return leafKind
}

func (n *leafNode[T]) isLeaf() bool {
	return true
}

func (n *leafNode[T]) childBitmap() bitmap32 {
	return 0
}

func (n *leafNode[T]) childAt(index int) node[T] {
	return nil
}

func (n *leafNode[T]) leafHash() uint32 {
	return n.hash
}

func (n *leafNode[T]) leafKey() []byte {
	return n.key
}

func (n *leafNode[T]) leafValue() (T, error) {
	return n.value, nil
}

func (n *leafNode[T]) rawValue() ([]byte, bool) {
	return nil, false
}

func (n *leafNode[T]) savedRef() (uint32, bool) {
	return 0, false
}
