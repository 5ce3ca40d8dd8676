// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package checkpoint builds the per-block root hash and the chained
// block-hash that links every committed block to its predecessor.
package checkpoint

import (
	"encoding/binary"
	"hash"

	"github.com/xsleonard/go-merkle"
	"golang.org/x/crypto/sha3"
)

// Size is the width in bytes of a root hash or a chained block hash.
const Size = 32

// Zero is the chain seed used before the first committed block.
var Zero [Size]byte

// Entry is one (key, assigned index) pair introduced by a block, in the
// order the index was assigned.
type Entry struct {
	Key   []byte
	Index uint64
}

// Root computes the deterministic, order-dependent root hash over the
// (key, index) pairs introduced in one block. It builds a binary Merkle
// tree (github.com/xsleonard/go-merkle) over leaves of key||BE(index),
// hashed with keccak-256.
func Root(entries []Entry) [Size]byte {
	var out [Size]byte
	if len(entries) == 0 {
		return out
	}
	leaves := make([][]byte, len(entries))
	for i, e := range entries {
		leaf := make([]byte, len(e.Key)+8)
		copy(leaf, e.Key)
		binary.BigEndian.PutUint64(leaf[len(e.Key):], e.Index)
		leaves[i] = leaf
	}

	tree := merkle.NewTree()
	if err := tree.Generate(leaves, newKeccak()); err != nil {
		// Generate only fails on a nil hash.Hash or empty input, both of
		// which are excluded above.
		panic(err)
	}
	root := tree.Root()
	copy(out[:], root.Hash)
	return out
}

// Chain computes the chained block hash H(prev || root), the running
// link from one committed block's checkpoint to the next.
func Chain(prev, root [Size]byte) [Size]byte {
	h := newKeccak()
	h.Write(prev[:])
	h.Write(root[:])
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

func newKeccak() hash.Hash { return sha3.NewLegacyKeccak256() }
