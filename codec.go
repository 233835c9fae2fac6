// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Codec translates leaf values across the serialization boundary. The tree
// itself is agnostic to value contents; a codec is only consulted when a tree
// is written out or when a frozen leaf's value is read back.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// BytesCodec stores values verbatim. Decoded slices alias the underlying
// buffer and must be treated as read-only.
type BytesCodec struct{}

func (BytesCodec) Encode(value []byte) ([]byte, error) {
	return value, nil
}

func (BytesCodec) Decode(data []byte) ([]byte, error) {
	return data, nil
}

type StringCodec struct{}

func (StringCodec) Encode(value string) ([]byte, error) {
	return []byte(value), nil
}

func (StringCodec) Decode(data []byte) (string, error) {
	return string(data), nil
}

// IntCodec stores any integer type as a zigzag varint.
type IntCodec[T constraints.Integer] struct{}

func (IntCodec[T]) Encode(value T) ([]byte, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, int64(value))
	return buf[:n], nil
}

func (IntCodec[T]) Decode(data []byte) (T, error) {
	v, n := binary.Varint(data)
	if n <= 0 || n != len(data) {
		return 0, fmt.Errorf("%w: malformed varint value", ErrTruncated)
	}
	return T(v), nil
}
