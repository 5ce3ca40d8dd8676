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

package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootIsOrderDependent(t *testing.T) {
	a := []Entry{{Key: []byte("aaaaaaaaaaaaaaaaaaaa"), Index: 0}, {Key: []byte("bbbbbbbbbbbbbbbbbbbb"), Index: 1}}
	b := []Entry{{Key: []byte("bbbbbbbbbbbbbbbbbbbb"), Index: 1}, {Key: []byte("aaaaaaaaaaaaaaaaaaaa"), Index: 0}}

	require.NotEqual(t, Root(a), Root(b))
}

func TestRootDeterministic(t *testing.T) {
	entries := []Entry{{Key: []byte("aaaaaaaaaaaaaaaaaaaa"), Index: 0}}
	require.Equal(t, Root(entries), Root(entries))
}

func TestChainLinksToPredecessor(t *testing.T) {
	root1 := Root([]Entry{{Key: []byte("aaaaaaaaaaaaaaaaaaaa"), Index: 0}})
	chain1 := Chain(Zero, root1)
	require.NotEqual(t, Zero, chain1)

	root2 := Root([]Entry{{Key: []byte("bbbbbbbbbbbbbbbbbbbb"), Index: 1}})
	chain2 := Chain(chain1, root2)
	require.NotEqual(t, chain1, chain2)

	// Replaying reproduces the same chain deterministically.
	require.Equal(t, chain1, Chain(Zero, root1))
	require.Equal(t, chain2, Chain(chain1, root2))
}

func TestEmptyBlockHasZeroRoot(t *testing.T) {
	require.Equal(t, Zero, Root(nil))
}
