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

package mnemonic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWordlistHasExactly2048Entries(t *testing.T) {
	require.Len(t, englishWordsList, 2048)
}

func TestRoundTripMax(t *testing.T) {
	cs := Checksum([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	phrase, err := Encode(MaxIndex, cs)
	require.NoError(t, err)

	idx, gotCs, err := Decode(phrase)
	require.NoError(t, err)
	require.Equal(t, uint64(MaxIndex), idx)
	require.Equal(t, cs, gotCs)
}

func TestRoundTripSmallValues(t *testing.T) {
	for _, idx := range []uint64{0, 1, 127, 128, 2047, 2048, 262_144} {
		cs := byte(idx % 16)
		phrase, err := Encode(idx, cs)
		require.NoError(t, err)

		gotIdx, gotCs, err := Decode(phrase)
		require.NoError(t, err)
		require.Equal(t, idx, gotIdx, "index round trip for %d", idx)
		require.Equal(t, cs, gotCs, "checksum round trip for %d", idx)
	}
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	_, err := Encode(MaxIndex+1, 0)
	require.Error(t, err)

	_, err = Encode(0, 16)
	require.Error(t, err)
}

func TestDecodeRejectsUnknownWord(t *testing.T) {
	_, _, err := Decode("not-a-real-word")
	require.Error(t, err)
}

func TestChecksumIsDeterministic(t *testing.T) {
	key := []byte{0x01, 0x02, 0x03}
	require.Equal(t, Checksum(key), Checksum(key))
}
