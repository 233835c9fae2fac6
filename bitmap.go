// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import "math/bits"

// bitmap32 is the presence set of an interior node: bit i is set iff branch
// slot i is occupied. Children are stored gap-free, so the compact array index
// of slot i is the number of set bits below i.
type bitmap32 uint32

func (b bitmap32) count() int {
	return bits.OnesCount32(uint32(b))
}

func (b bitmap32) contains(pos uint32) bool {
	return b&(1<<pos) != 0
}

// rank returns the number of set bits strictly below pos, which is the
// compact-array index at which the child for pos lives or would be inserted.
func (b bitmap32) rank(pos uint32) int {
	return bits.OnesCount32(uint32(b) & (1<<pos - 1))
}

func (b *bitmap32) add(pos uint32) {
	*b |= 1 << pos
}

func (b *bitmap32) remove(pos uint32) {
	*b &^= 1 << pos
}

func (b bitmap32) isEmpty() bool {
	return b == 0
}
