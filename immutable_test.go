// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTree(t *testing.T, tree *Tree[int]) []byte {
	t.Helper()
	enc := NewEncoder[int](IntCodec[int]{})
	require.NoError(t, tree.WriteTo(enc))
	return enc.Finish()
}

func TestEncode_Empty(t *testing.T) {
	t.Parallel()

	data := encodeTree(t, New[int]())

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	require.Equal(t, 0, itree.Count())

	_, ok, err := itree.Get([]byte("foo"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEncode_TinyRoundTrip(t *testing.T) {
	t.Parallel()

	tree := New[int]()
	tree.Insert(itemKey(8), 8)
	data := encodeTree(t, tree)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	require.Equal(t, 1, itree.Count())

	v, ok, err := itree.Get(itemKey(8))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 8, v)
}

func TestEncode_BiggerRoundTrip(t *testing.T) {
	t.Parallel()

	const n = 100
	keys := itemKeys(n)
	tree := New[int]()
	for i, key := range keys {
		tree.Insert(key, i)
	}
	data := encodeTree(t, tree)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	require.Equal(t, n, itree.Count())

	for i, key := range keys {
		v, ok, err := itree.Get(key)
		require.NoError(t, err)
		require.True(t, ok, "missing key %q", key)
		require.Equal(t, i, v)
	}

	seen := 0
	require.NoError(t, itree.Walk(func(key []byte, value int) bool {
		seen++
		return false
	}))
	require.Equal(t, n, seen)
}

func TestOpenImmutable_BadData(t *testing.T) {
	t.Parallel()

	_, err := OpenImmutable[int](nil, IntCodec[int]{})
	require.ErrorIs(t, err, ErrTruncated)

	_, err = OpenImmutable[int]([]byte("XXXX\x00\x00\x00\x00"), IntCodec[int]{})
	require.ErrorIs(t, err, ErrBadMagic)

	tree := New[int]()
	tree.Insert([]byte("k"), 1)
	data := encodeTree(t, tree)

	// Point the root ref past the end of the stream.
	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[len(bad)-4:], makeRef(uint32(len(bad)), false))
	_, err = OpenImmutable[int](bad, IntCodec[int]{})
	require.ErrorIs(t, err, ErrBadRootRef)

	// Truncate the last node record.
	short := append([]byte(nil), data[:len(data)-8]...)
	short = binary.LittleEndian.AppendUint32(short, binary.LittleEndian.Uint32(data[len(data)-4:]))
	_, err = OpenImmutable[int](short, IntCodec[int]{})
	require.Error(t, err)
}

func TestWrapped_ReadsThrough(t *testing.T) {
	t.Parallel()

	const n = 100
	keys := itemKeys(n)
	base := New[int]()
	for i, key := range keys {
		base.Insert(key, i)
	}
	data := encodeTree(t, base)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)

	tree := FromImmutable(itree)
	require.Equal(t, n, tree.Count())
	for i, key := range keys {
		v, ok, err := tree.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestWrapped_MutateByReplacing(t *testing.T) {
	t.Parallel()

	const n = 100
	keys := itemKeys(n)
	base := New[int]()
	for i, key := range keys {
		base.Insert(key, i)
	}
	data := encodeTree(t, base)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	tree := FromImmutable(itree)

	for i := 0; i < 10; i++ {
		old := i * i
		nuu := 99 - old
		tree.Insert(keys[old], nuu)

		require.Equal(t, n, tree.Count())
		v, ok, err := tree.Get(keys[old])
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, nuu, v)
	}

	// The frozen base is untouched.
	for i, key := range keys {
		v, ok, err := itree.Get(key)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestWrapped_MutateByInserting(t *testing.T) {
	t.Parallel()

	keys := itemKeys(20)
	base := New[int]()
	for i := 0; i < 10; i++ {
		base.Insert(keys[i], i)
	}
	data := encodeTree(t, base)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	tree := FromImmutable(itree)
	require.Equal(t, 10, tree.Count())

	for i := 10; i < 20; i++ {
		tree.Insert(keys[i], i)
		require.Equal(t, i+1, tree.Count())
		for j := 0; j <= i; j++ {
			v, ok, err := tree.Get(keys[j])
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, j, v)
		}
	}

	for i := 0; i <= 5; i++ {
		require.True(t, tree.Remove(keys[3*i+2]))
		require.Equal(t, 19-i, tree.Count())
	}
}

func TestDelta_SmallerThanFull(t *testing.T) {
	t.Parallel()

	const n = 50
	keys := itemKeys(2 * n)
	base := New[int]()
	for i := 0; i < n; i++ {
		base.Insert(keys[i], i)
	}
	data := encodeTree(t, base)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	tree := FromImmutable(itree)

	expect := map[string]int{}
	for i := 0; i < n; i++ {
		expect[string(keys[i])] = i
	}
	for i := n; i < n+10; i++ {
		tree.Insert(keys[i], i)
		expect[string(keys[i])] = i
	}
	for i := 2; i < n+5; i += 3 {
		require.True(t, tree.Remove(keys[i]))
		delete(expect, string(keys[i]))
	}

	full := encodeTree(t, tree)

	denc := NewDeltaEncoder[int](IntCodec[int]{}, data)
	require.NoError(t, tree.WriteTo(denc))
	delta := denc.Finish()

	require.Less(t, len(delta), len(full),
		"delta must be smaller than a full rewrite")

	// base + delta decodes as the mutated tree.
	combined := append(append([]byte(nil), data...), delta...)
	final, err := OpenImmutable[int](combined, IntCodec[int]{})
	require.NoError(t, err)
	require.Equal(t, len(expect), final.Count())

	for key, want := range expect {
		v, ok, err := final.Get([]byte(key))
		require.NoError(t, err)
		require.True(t, ok, "missing key %q", key)
		require.Equal(t, want, v)
	}
	for i := 2; i < n+5; i += 3 {
		_, ok, err := final.Get(keys[i])
		require.NoError(t, err)
		require.False(t, ok, "key %q should be gone", keys[i])
	}
}

func TestDelta_UnmodifiedTreeIsTrailerOnly(t *testing.T) {
	t.Parallel()

	tree := New[int]()
	for i := 0; i < 30; i++ {
		tree.Insert(itemKey(i), i)
	}
	data := encodeTree(t, tree)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	wrapped := FromImmutable(itree)

	denc := NewDeltaEncoder[int](IntCodec[int]{}, data)
	require.NoError(t, wrapped.WriteTo(denc))
	delta := denc.Finish()

	// Nothing changed, so the delta carries only the root ref.
	require.Len(t, delta, trailerSize)

	combined := append(append([]byte(nil), data...), delta...)
	final, err := OpenImmutable[int](combined, IntCodec[int]{})
	require.NoError(t, err)
	require.Equal(t, 30, final.Count())
}

func TestWrapped_Iterator(t *testing.T) {
	t.Parallel()

	const n = 40
	keys := itemKeys(n)
	base := New[int]()
	for i := 0; i < n/2; i++ {
		base.Insert(keys[i], i)
	}
	data := encodeTree(t, base)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)
	tree := FromImmutable(itree)
	for i := n / 2; i < n; i++ {
		tree.Insert(keys[i], i)
	}

	// Iteration crosses mutable and frozen subtrees transparently.
	seen := map[string]int{}
	it := tree.Iterator()
	for {
		key, value, ok := it.Next()
		if !ok {
			break
		}
		seen[string(key)] = value
	}
	require.NoError(t, it.Err())
	require.Len(t, seen, n)
	for i, key := range keys {
		require.Equal(t, i, seen[string(key)])
	}
}

func TestWrapped_DumpDistinguishesNothing(t *testing.T) {
	t.Parallel()

	tree := New[int]()
	for i := 0; i < 10; i++ {
		tree.Insert(itemKey(i), i)
	}
	data := encodeTree(t, tree)

	itree, err := OpenImmutable[int](data, IntCodec[int]{})
	require.NoError(t, err)

	var a, b bytes.Buffer
	tree.Dump(&a)
	itree.Dump(&b)
	// Same shape renders the same node graph either way.
	require.Equal(t,
		a.String()[len("Tree "):],
		b.String()[len("ImmutableTree "):])
}
