// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"bytes"
	"hash/fnv"
)

const (
	// bitShift is the number of hash bits consumed per tree level.
	bitShift = 5
	// maxChildren is the branch factor, 2^bitShift slots per interior node.
	maxChildren = 1 << bitShift
	// hashBits is the width of a key hash. Once a root-to-leaf path has
	// consumed all of it, two distinct keys can no longer be told apart.
	hashBits = 32
)

// HashFn computes the 32-bit hash of a key. Equal keys must hash equally;
// unequal keys should hash differently. The tree consumes the hash five bits
// at a time, least-significant slice first, one slice per level.
type HashFn func(key []byte) uint32

func defaultHash(key []byte) uint32 {
	h := fnv.New32a()
	h.Write(key)
	return h.Sum32()
}

// target is a search probe: a key together with its cached hash. It is also
// embedded in mutable leaves so the hash is computed once per key.
type target struct {
	hash uint32
	key  []byte
}

func newTarget(fn HashFn, key []byte) target {
	return target{hash: fn(key), key: key}
}

// matches reports whether the stored (hash, key) pair equals the given one.
// The hash check short-circuits the key comparison; hash equality alone is
// never sufficient.
func (t target) matches(hash uint32, key []byte) bool {
	return t.hash == hash && bytes.Equal(t.key, key)
}

// childBit returns the branch slot selected by the hash at the given shift.
func childBit(hash, shift uint32) uint32 {
	return (hash >> shift) & (maxChildren - 1)
}
