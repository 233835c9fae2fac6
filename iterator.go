// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

// Iterator walks every binding of a tree depth-first, ascending branch slots
// at each level. It works over mutable and frozen subtrees alike. The tree
// must not be mutated while an iterator is live.
type Iterator[T any] struct {
	stack []node[T]
	err   error
}

func newIterator[T any](root node[T]) *Iterator[T] {
	it := &Iterator[T]{}
	if root != nil {
		it.stack = append(it.stack, root)
	}
	return it
}

// Next returns the next binding, or ok=false when the iteration is done or a
// frozen value failed to decode. Check Err after exhaustion.
func (it *Iterator[T]) Next() ([]byte, T, bool) {
	var zero T
	if it.err != nil {
		return nil, zero, false
	}
	for len(it.stack) > 0 {
		n := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if n.isLeaf() {
			value, err := n.leafValue()
			if err != nil {
				it.err = err
				return nil, zero, false
			}
			return n.leafKey(), value, true
		}
		for i := n.childBitmap().count() - 1; i >= 0; i-- {
			it.stack = append(it.stack, n.childAt(i))
		}
	}
	return nil, zero, false
}

func (it *Iterator[T]) Err() error {
	return it.err
}
