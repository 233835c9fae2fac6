// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"fmt"
	"io"
	"strings"
)

// findNearest descends by successive 5-bit hash slices and returns the leaf
// occupying the hash's path, or nil when the path dead-ends. The leaf is a
// heuristic match only: it has the right hash slices along the way, not
// necessarily the right key, so callers confirm full equality themselves.
// Works identically over mutable and frozen nodes.
func findNearest[T any](n node[T], hash uint32) node[T] {
	for shift := uint32(0); ; shift += bitShift {
		bit := childBit(hash, shift)
		if !n.childBitmap().contains(bit) {
			return nil
		}
		child := n.childAt(n.childBitmap().rank(bit))
		if child.isLeaf() {
			return child
		}
		n = child
	}
}

// itemCount counts the leaves below an interior node.
func itemCount[T any](n node[T]) int {
	count := 0
	total := n.childBitmap().count()
	for i := 0; i < total; i++ {
		child := n.childAt(i)
		if child.isLeaf() {
			count++
		} else {
			count += itemCount(child)
		}
	}
	return count
}

// dumpNode renders a subtree for diagnostics: interior children first, then
// the hashes of the leaf children. The format is not stable.
func dumpNode[T any](w io.Writer, n node[T], indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(w, "%s{", pad)
	total := n.childBitmap().count()
	leaves := total
	for i := 0; i < total; i++ {
		child := n.childAt(i)
		if !child.isLeaf() {
			leaves--
			fmt.Fprintln(w)
			dumpNode(w, child, indent+1)
		}
	}
	if leaves > 0 {
		if leaves < total {
			fmt.Fprintf(w, "\n%s ", pad)
		}
		for i := 0; i < total; i++ {
			child := n.childAt(i)
			if child.isLeaf() {
				fmt.Fprintf(w, " %08x", child.leafHash())
			}
		}
	}
	fmt.Fprint(w, " }")
}
