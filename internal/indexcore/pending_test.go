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

package indexcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	pidx, err := Open(Config{DataDir: t.TempDir(), KeySize: 20, CacheCapacity: 64, MaxKVSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pidx.Close() })
	return NewPipeline(pidx)
}

func key20(b byte) []byte {
	k := make([]byte, 20)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestQueueHappyPathThenCommit(t *testing.T) {
	p := openTestPipeline(t)

	n, err := p.Queue(1, [][]byte{key20(1), key20(2)})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = p.Queue(2, [][]byte{key20(3)})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, uint64(3), p.Len())

	committed, err := p.Commit(2)
	require.NoError(t, err)
	require.Equal(t, 3, committed)
	require.Equal(t, uint64(2), p.LastCommittedBlock())

	idx, ok, err := p.IndexOf(key20(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), idx)

	got, ok, err := p.Get(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, key20(3), got)
}

func TestQueueDedupAcrossPendingAndCommitted(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)
	_, err = p.Commit(1)
	require.NoError(t, err)

	// key20(1) already committed, key20(2) repeated within the same block.
	n, err := p.Queue(2, [][]byte{key20(1), key20(2), key20(2)})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestQueueGapRejected(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)

	_, err = p.Queue(3, [][]byte{key20(2)})
	require.True(t, errors.Is(err, ErrGap))
}

func TestQueueReorgRollsBackUncommittedPending(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)
	_, err = p.Queue(2, [][]byte{key20(2)})
	require.NoError(t, err)

	// Reorg: block 2 is replaced with different keys.
	n, err := p.Queue(2, [][]byte{key20(3)})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, ok, err := p.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, key20(3), got)
}

func TestQueueReorgAfterCommitIsGap(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)
	_, err = p.Commit(1)
	require.NoError(t, err)

	_, err = p.Queue(1, [][]byte{key20(9)})
	require.True(t, errors.Is(err, ErrGap))
}

func TestCommitIsPartialWhenSafeBlockLagsPending(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)
	_, err = p.Queue(2, [][]byte{key20(2)})
	require.NoError(t, err)
	_, err = p.Queue(3, [][]byte{key20(3)})
	require.NoError(t, err)

	committed, err := p.Commit(2)
	require.NoError(t, err)
	require.Equal(t, 2, committed)
	require.Equal(t, uint64(2), p.LastCommittedBlock())
	require.Equal(t, uint64(3), p.LastIndexedBlock())

	// Block 3 is still pending and queryable.
	idx, ok, err := p.IndexOf(key20(3))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(2), idx)
}

func TestCommitNoOpWhenNothingNewlySafe(t *testing.T) {
	p := openTestPipeline(t)

	_, err := p.Queue(1, [][]byte{key20(1)})
	require.NoError(t, err)
	_, err = p.Commit(1)
	require.NoError(t, err)

	committed, err := p.Commit(0)
	require.NoError(t, err)
	require.Equal(t, 0, committed)
}
