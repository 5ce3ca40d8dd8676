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

import "errors"

var (
	// ErrCorruptLayout is returned when the persisted counters disagree
	// with the tables they are supposed to summarize. Fatal: the store
	// must not be used.
	ErrCorruptLayout = errors.New("indexcore: corrupt layout")
	// ErrCorruptChecksum is returned when the flat log's checksum footer
	// does not match the recomputed checksum of its last batch.
	ErrCorruptChecksum = errors.New("indexcore: corrupt checksum")
	// ErrGap is returned by Queue when block is not last indexed + 1 and
	// not a rollback (block <= last indexed).
	ErrGap = errors.New("indexcore: non-consecutive block")
	// ErrBusy is returned by Commit when another commit already holds the
	// commit lock.
	ErrBusy = errors.New("indexcore: commit in progress")
	// ErrChainBroken is returned by Push when the previous block's
	// checkpoint hash is missing from the blocks table. In a consistent
	// store this cannot happen; treated as corruption by the caller.
	ErrChainBroken = errors.New("indexcore: checkpoint chain broken")
)
