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

package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStatsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	var found bool
	require.NoError(t, s.View(func(tx *Tx) error {
		_, ok, err := tx.GetStat(StatCounter)
		found = ok
		return err
	}))
	require.False(t, found)

	require.NoError(t, s.Update(func(tx *Tx) error { return tx.PutStat(StatCounter, 42) }))

	var got uint32
	require.NoError(t, s.View(func(tx *Tx) error {
		v, ok, err := tx.GetStat(StatCounter)
		if err != nil {
			return err
		}
		require.True(t, ok)
		got = v
		return nil
	}))
	require.EqualValues(t, 42, got)
}

func TestIndexRoundTrip(t *testing.T) {
	s := openTestStore(t)
	key := []byte("01234567890123456789")

	require.NoError(t, s.Update(func(tx *Tx) error {
		return tx.PutIndexKey(3, key)
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		v, ok, err := tx.GetIndexKey(3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, key, v)

		count, err := tx.CountIndex()
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
		return nil
	}))
}

func TestFingerprintCollisions(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *Tx) error {
		if err := tx.PutFingerprint(9, 1); err != nil {
			return err
		}
		if err := tx.PutFingerprint(9, 5); err != nil {
			return err
		}
		return tx.PutFingerprint(9, 2)
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		got, err := tx.LookupFingerprint(9)
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 2, 5}, got)
		return nil
	}))
}

func TestBlocksAndMaxBlock(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := blocksMax(s)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Update(func(tx *Tx) error {
		if err := tx.PutBlockHash(1, [32]byte{1}); err != nil {
			return err
		}
		return tx.PutBlockHash(2, [32]byte{2})
	}))

	max, ok, err := blocksMax(s)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, max)
}

func blocksMax(s *Store) (uint32, bool, error) {
	var max uint32
	var ok bool
	err := s.View(func(tx *Tx) error {
		var err error
		max, ok, err = tx.MaxBlock()
		return err
	})
	return max, ok, err
}
