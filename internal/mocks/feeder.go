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

// Package mocks provides an in-memory indexstore.Feeder for tests and
// local demos. It never talks to a live chain client.
package mocks

import (
	"context"
	"sync"
)

// Block is one scripted block handed to a Feeder.
type Block struct {
	Number uint64
	Keys   [][]byte
}

// Feeder replays a fixed script of blocks, advancing SafeBlock by a
// configurable confirmation lag behind the most recently queued block.
type Feeder struct {
	mu     sync.Mutex
	script []Block
	pos    int
	lag    uint64
}

// NewFeeder returns a Feeder that replays script in order, reporting
// SafeBlock as lag blocks behind the last block returned by Next.
func NewFeeder(script []Block, lag uint64) *Feeder {
	return &Feeder{script: script, lag: lag}
}

// Next returns the next scripted block, blocking forever once the script is
// exhausted (until ctx is cancelled) so callers can Commit a final time.
func (f *Feeder) Next(ctx context.Context) (uint64, [][]byte, error) {
	f.mu.Lock()
	if f.pos < len(f.script) {
		b := f.script[f.pos]
		f.pos++
		f.mu.Unlock()
		return b.Number, b.Keys, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return 0, nil, ctx.Err()
}

// SafeBlock reports the last delivered block number minus the configured
// confirmation lag, floored at zero.
func (f *Feeder) SafeBlock() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos == 0 {
		return 0
	}
	last := f.script[f.pos-1].Number
	if last <= f.lag {
		return 0
	}
	return last - f.lag
}
