// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package hamt

import "errors"

var (
	// ErrHashCollision is the panic value raised when two distinct keys
	// share every slice of their 32-bit hash. No disambiguating bits
	// remain, so the tree halts rather than silently dropping a binding.
	ErrHashCollision = errors.New("hamt: identical hashes for distinct keys")

	ErrBadMagic   = errors.New("hamt: bad magic")
	ErrTruncated  = errors.New("hamt: data truncated")
	ErrBadNodeRef = errors.New("hamt: node ref out of bounds")
	ErrBadRootRef = errors.New("hamt: root ref out of bounds")
)
