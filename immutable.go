// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"encoding/binary"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultNodeCacheSize = 512

// ImmutableTree is the frozen peer of a Tree: a previously encoded stream
// navigated in place, read-only. Its node graph is structurally compatible
// with live mutable nodes, so a Tree re-rooted over it (FromImmutable) can
// share unmodified subtrees and a later delta write re-encodes only what
// actually changed.
//
// The whole stream is bounds-checked once at open time; node views are then
// decoded on demand and kept in a small LRU cache keyed by their ref.
type ImmutableTree[T any] struct {
	data   []byte
	codec  Codec[T]
	hashFn HashFn
	root   uint32 // tagged ref, 0 when the tree is empty
	count  int
	cache  *lru.Cache[uint32, node[T]]
}

func OpenImmutable[T any](data []byte, codec Codec[T]) (*ImmutableTree[T], error) {
	return OpenImmutableWithHash(data, codec, defaultHash)
}

// OpenImmutableWithHash opens a stream whose tree was built with a
// non-default hash function. The function must match the one used when the
// stream was written or lookups will miss.
func OpenImmutableWithHash[T any](data []byte, codec Codec[T], fn HashFn) (*ImmutableTree[T], error) {
	if len(data) < headerSize+trailerSize {
		return nil, ErrTruncated
	}
	if string(data[:headerSize]) != wireMagic {
		return nil, ErrBadMagic
	}
	cache, err := lru.New[uint32, node[T]](defaultNodeCacheSize)
	if err != nil {
		return nil, err
	}
	t := &ImmutableTree[T]{
		data:   data,
		codec:  codec,
		hashFn: fn,
		root:   binary.LittleEndian.Uint32(data[len(data)-trailerSize:]),
		cache:  cache,
	}
	if t.root != 0 {
		count, err := t.validate(t.root, uint32(len(data)-trailerSize))
		if err != nil {
			return nil, err
		}
		t.count = count
	}
	return t, nil
}

// validate bounds-checks the record at ref and everything below it, returning
// the leaf count. Child refs must point strictly backward, which also rules
// out cycles. After a successful open the traversal accessors can parse
// records without rechecking.
func (t *ImmutableTree[T]) validate(ref, limit uint32) (int, error) {
	off := refOffset(ref)
	if off < headerSize || off >= limit {
		if ref == t.root {
			return 0, ErrBadRootRef
		}
		return 0, ErrBadNodeRef
	}
	if refIsLeaf(ref) {
		if limit-off < 12 {
			return 0, fmt.Errorf("%w: leaf header at %d", ErrTruncated, off)
		}
		keyLen := binary.LittleEndian.Uint32(t.data[off+4:])
		valLen := binary.LittleEndian.Uint32(t.data[off+8:])
		if uint64(off)+12+uint64(keyLen)+uint64(valLen) > uint64(limit) {
			return 0, fmt.Errorf("%w: leaf body at %d", ErrTruncated, off)
		}
		return 1, nil
	}
	if limit-off < 4 {
		return 0, fmt.Errorf("%w: interior header at %d", ErrTruncated, off)
	}
	bm := bitmap32(binary.LittleEndian.Uint32(t.data[off:]))
	n := uint32(bm.count())
	if limit-off < 4+4*n {
		return 0, fmt.Errorf("%w: interior refs at %d", ErrTruncated, off)
	}
	count := 0
	for i := uint32(0); i < n; i++ {
		child := binary.LittleEndian.Uint32(t.data[off+4+4*i:])
		if refOffset(child) >= off {
			return 0, fmt.Errorf("%w: forward child ref at %d", ErrBadNodeRef, off)
		}
		c, err := t.validate(child, off)
		if err != nil {
			return 0, err
		}
		count += c
	}
	return count, nil
}

// Count returns the number of bindings, computed once at open time.
func (t *ImmutableTree[T]) Count() int {
	return t.count
}

func (t *ImmutableTree[T]) Get(key []byte) (T, bool, error) {
	return lookup(t.rootNode(), t.hashFn, key)
}

func (t *ImmutableTree[T]) Iterator() *Iterator[T] {
	return newIterator(t.rootNode())
}

func (t *ImmutableTree[T]) Walk(fn WalkFn[T]) error {
	return walkRoot(t.rootNode(), fn)
}

func (t *ImmutableTree[T]) Dump(w io.Writer) {
	fmt.Fprint(w, "ImmutableTree {")
	if root := t.rootNode(); root != nil && !root.isLeaf() {
		fmt.Fprintln(w)
		dumpNode(w, root, 1)
	}
	fmt.Fprintln(w, "}")
}

func (t *ImmutableTree[T]) rootNode() node[T] {
	if t.root == 0 {
		return nil
	}
	return t.nodeAtRef(t.root)
}

// nodeAtRef materializes the view for a validated ref.
func (t *ImmutableTree[T]) nodeAtRef(ref uint32) node[T] {
	if n, ok := t.cache.Get(ref); ok {
		return n
	}
	off := refOffset(ref)
	var n node[T]
	if refIsLeaf(ref) {
		keyLen := binary.LittleEndian.Uint32(t.data[off+4:])
		valLen := binary.LittleEndian.Uint32(t.data[off+8:])
		body := off + 12
		n = &frozenLeaf[T]{
			tree:  t,
			ref:   ref,
			hash:  binary.LittleEndian.Uint32(t.data[off:]),
			key:   t.data[body : body+keyLen],
			value: t.data[body+keyLen : body+keyLen+valLen],
		}
	} else {
		n = &frozenInterior[T]{
			tree:   t,
			ref:    ref,
			bitmap: bitmap32(binary.LittleEndian.Uint32(t.data[off:])),
		}
	}
	t.cache.Add(ref, n)
	return n
}
