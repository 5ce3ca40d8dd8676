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

package flatlog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func recAt(i uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, i)
	return b
}

func TestOpenEmptyWritesZeroFooter(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "flat.db"), 4, 0)
	require.NoError(t, err)
	defer l.Close()

	n, err := l.Len()
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, l.Cursor())
}

func TestAppendAndGet(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "flat.db"), 4, 30)
	require.NoError(t, err)
	defer l.Close()

	var recs [][]byte
	for i := uint32(0); i < 40; i++ {
		recs = append(recs, recAt(i))
	}
	require.NoError(t, l.Append(recs, nil))

	n, err := l.Len()
	require.NoError(t, err)
	require.EqualValues(t, 40, n)

	for i := uint64(0); i < 40; i++ {
		v, err := l.Get(i)
		require.NoError(t, err)
		require.Equal(t, recs[i], v)
	}

	cursor := uint64(7)
	more := [][]byte{recAt(40), recAt(41)}
	require.NoError(t, l.Append(more, &cursor))
	n, err = l.Len()
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
	require.EqualValues(t, cursor, l.Cursor())
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.db")
	{
		l, err := Open(path, 4, 0)
		require.NoError(t, err)
		var recs [][]byte
		for i := uint32(0); i < 10; i++ {
			recs = append(recs, recAt(i))
		}
		cursor := uint64(3)
		require.NoError(t, l.Append(recs, &cursor))
		require.NoError(t, l.Close())
	}
	{
		l, err := Open(path, 4, 0)
		require.NoError(t, err)
		defer l.Close()
		n, err := l.Len()
		require.NoError(t, err)
		require.EqualValues(t, 10, n)
		require.EqualValues(t, 3, l.Cursor())
		v, err := l.Get(5)
		require.NoError(t, err)
		require.Equal(t, recAt(5), v)
	}
}

func TestCorruptionDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.db")
	{
		l, err := Open(path, 4, 0)
		require.NoError(t, err)
		var recs [][]byte
		for i := uint32(0); i < 5; i++ {
			recs = append(recs, recAt(i))
		}
		require.NoError(t, l.Append(recs, nil))
		require.NoError(t, l.Close())
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xFF}, 2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(path, 4, 0)
	require.ErrorIs(t, err, ErrCorruptChecksum)
}

func TestTruncationDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flat.db")
	{
		l, err := Open(path, 4, 0)
		require.NoError(t, err)
		var recs [][]byte
		for i := uint32(0); i < 5; i++ {
			recs = append(recs, recAt(i))
		}
		require.NoError(t, l.Append(recs, nil))
		require.NoError(t, l.Close())
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-1))

	_, err = Open(path, 4, 0)
	require.ErrorIs(t, err, ErrCorruptLayout)
}
