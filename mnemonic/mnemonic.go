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

// Package mnemonic renders an account index as a short, checksummed phrase
// and recovers the index from that phrase. It is a standalone display
// helper: nothing in internal/indexcore or indexstore depends on it.
package mnemonic

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/sha3"
)

// MaxIndex is the largest index that can be encoded: a 6-word phrase holds
// 66 bits, 4 of which are reserved for the checksum.
const MaxIndex = 1<<62 - 1

const chunkBits = 11
const chunkCount = 6 // ceil(62/11)
const chunkMask = 1<<chunkBits - 1

// Checksum derives a 4-bit checksum from an account key (any length, but
// 20-byte addresses are the expected input), the top nibble of its
// keccak-256 hash.
func Checksum(key []byte) byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(key)
	sum := h.Sum(nil)
	return sum[0] >> 4
}

// Encode renders index as a space-separated phrase with checksum embedded
// in the most significant word.
func Encode(index uint64, checksum byte) (string, error) {
	if index > MaxIndex {
		return "", fmt.Errorf("mnemonic: index %d exceeds max %d", index, MaxIndex)
	}
	if checksum > 15 {
		return "", fmt.Errorf("mnemonic: checksum %d out of range", checksum)
	}

	var chunks [chunkCount]uint16
	for i := range chunks {
		chunks[i] = uint16(index>>(chunkBits*i)) & chunkMask
	}

	pos := chunkCount - 1
	for i := chunkCount - 1; i >= 0; i-- {
		if chunks[i] != 0 {
			pos = i
			break
		}
	}

	last := pos
	if chunks[pos] > 127 {
		last = pos + 1
	}
	chunks[last] |= uint16(checksum) << 7

	words := make([]string, last+1)
	for i := 0; i <= last; i++ {
		words[i] = englishWordsList[chunks[last-i]]
	}
	return strings.Join(words, " "), nil
}

// Decode parses a phrase produced by Encode back into its index and
// embedded checksum.
func Decode(phrase string) (index uint64, checksum byte, err error) {
	words := strings.Fields(phrase)
	if len(words) == 0 || len(words) > chunkCount {
		return 0, 0, fmt.Errorf("mnemonic: phrase has %d words, want 1-%d", len(words), chunkCount)
	}

	values := make([]uint16, len(words))
	for i, w := range words {
		v, ok := wordIndex(w)
		if !ok {
			return 0, 0, fmt.Errorf("mnemonic: unknown word %q", w)
		}
		values[i] = uint16(v)
	}

	n := len(values)
	for p := 0; p < n; p++ {
		v := values[n-1-p]
		if p == n-1 {
			checksum = byte(v >> 7)
			v &= 0x7f
		}
		index |= uint64(v) << (chunkBits * p)
	}
	return index, checksum, nil
}

var (
	wordIndexBuild sync.Once
	wordIndexMap   map[string]int
)

func wordIndex(w string) (int, bool) {
	wordIndexBuild.Do(func() {
		wordIndexMap = make(map[string]int, len(englishWordsList))
		for i, word := range englishWordsList {
			wordIndexMap[word] = i
		}
	})
	i, ok := wordIndexMap[w]
	return i, ok
}
