// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import "encoding/binary"

// Wire format, little-endian throughout:
//
//	stream   = magic "HMT1" | node records | root ref (u32)
//	leaf     = hash u32 | keyLen u32 | valLen u32 | key | value
//	interior = bitmap u32 | child refs (u32 each, one per set bit, in
//	           ascending branch-slot order)
//
// A ref is offset<<1, with bit 0 set for leaf records. Children are written
// before their parent, so every ref points strictly backward; the root ref in
// the trailer is 0 for an empty tree. A delta stream has no magic of its own:
// it is appended to the base stream it was encoded against, and the combined
// bytes decode as one tree whose unchanged subtrees still live in the base
// region.
const (
	wireMagic   = "HMT1"
	headerSize  = 4
	trailerSize = 4
	leafTag     = 1
)

func makeRef(off uint32, leaf bool) uint32 {
	ref := off << 1
	if leaf {
		ref |= leafTag
	}
	return ref
}

func refOffset(ref uint32) uint32 {
	return ref >> 1
}

func refIsLeaf(ref uint32) bool {
	return ref&leafTag != 0
}

// Encoder serializes a tree post-order into a byte stream. It implements the
// write side of the persistence contract: the tree traverses its live node
// graph and hands each node over; the encoder owns the binary layout.
type Encoder[T any] struct {
	codec Codec[T]
	buf   []byte
	start int // logical offset of buf[0] within the final stream
	delta bool
	root  uint32
}

func NewEncoder[T any](codec Codec[T]) *Encoder[T] {
	return &Encoder[T]{codec: codec, buf: []byte(wireMagic)}
}

// NewDeltaEncoder encodes only what changed since base was written: nodes
// still frozen against base are emitted as refs to their existing records
// instead of being re-encoded. base must be the exact stream the mutated
// tree's immutable peer was opened from. The output of Finish is meant to be
// appended to base.
func NewDeltaEncoder[T any](codec Codec[T], base []byte) *Encoder[T] {
	return &Encoder[T]{codec: codec, start: len(base), delta: true}
}

// WriteTo serializes t into e. Call Finish afterwards to obtain the stream.
func (t *Tree[T]) WriteTo(e *Encoder[T]) error {
	if t.root == nil {
		e.root = 0
		return nil
	}
	ref, err := e.encodeNode(t.root)
	if err != nil {
		return err
	}
	e.root = ref
	return nil
}

// Finish appends the root ref trailer and returns the encoded stream.
func (e *Encoder[T]) Finish() []byte {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, e.root)
	return e.buf
}

func (e *Encoder[T]) encodeNode(n node[T]) (uint32, error) {
	if ref, ok := n.savedRef(); ok && e.delta {
		return ref, nil
	}
	if n.isLeaf() {
		if raw, ok := n.rawValue(); ok {
			// Frozen leaf in a full rewrite: copy the encoded value
			// bytes without a decode round trip.
			return e.writeLeaf(n.leafHash(), n.leafKey(), raw), nil
		}
		value, err := n.leafValue()
		if err != nil {
			return 0, err
		}
		data, err := e.codec.Encode(value)
		if err != nil {
			return 0, err
		}
		return e.writeLeaf(n.leafHash(), n.leafKey(), data), nil
	}
	bm := n.childBitmap()
	refs := make([]uint32, 0, bm.count())
	for i := 0; i < bm.count(); i++ {
		ref, err := e.encodeNode(n.childAt(i))
		if err != nil {
			return 0, err
		}
		refs = append(refs, ref)
	}
	return e.writeInterior(bm, refs), nil
}

func (e *Encoder[T]) writeLeaf(hash uint32, key, value []byte) uint32 {
	off := uint32(e.start + len(e.buf))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, hash)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(key)))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(value)))
	e.buf = append(e.buf, key...)
	e.buf = append(e.buf, value...)
	return makeRef(off, true)
}

func (e *Encoder[T]) writeInterior(bm bitmap32, refs []uint32) uint32 {
	off := uint32(e.start + len(e.buf))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(bm))
	for _, ref := range refs {
		e.buf = binary.LittleEndian.AppendUint32(e.buf, ref)
	}
	return makeRef(off, false)
}
