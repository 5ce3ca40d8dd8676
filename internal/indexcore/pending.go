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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/erigontech/acctidx/internal/checkpoint"
)

// errMissingPending signals that commit's contiguous range assumption was
// violated: a block in [lastCommittedBlock+1, target] has no pending
// entry. Queue always occupies a slot for an indexed block (even if empty
// after dedup), so this can only mean a bug upstream.
var errMissingPending = errors.New("indexcore: pending invariant violated")

// blockNum adapts uint64 to btree.Item so Pipeline can keep its pending
// block numbers in ascending order without re-sorting map keys on every
// read (mirrors the teacher's use of google/btree for ordered iteration).
type blockNum uint64

func (a blockNum) Less(than btree.Item) bool { return a < than.(blockNum) }

// Pipeline is the in-memory pending queue plus the commit transaction that
// promotes a contiguous range of pending blocks into a PersistentIndex.
type Pipeline struct {
	pidx *PersistentIndex

	mu                 sync.RWMutex
	pending            map[uint64][][]byte
	order              *btree.BTree
	lastIndexedBlock   uint64
	lastCommittedBlock uint64

	committing int32 // 0 = free, 1 = a commit holds the mutex
}

// NewPipeline wraps pidx with a pending queue initialized from its current
// last committed block.
func NewPipeline(pidx *PersistentIndex) *Pipeline {
	last := pidx.LastBlock()
	return &Pipeline{
		pidx:               pidx,
		pending:            make(map[uint64][][]byte),
		order:              btree.New(32),
		lastIndexedBlock:   last,
		lastCommittedBlock: last,
	}
}

// Queue accepts the keys observed for block. It rolls back any pending
// blocks >= block first if block indicates a reorg of uncommitted state,
// rejects a reorg attempt on already-committed blocks as a Gap, and
// otherwise requires block == lastIndexedBlock+1.
func (p *Pipeline) Queue(block uint64, keys [][]byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case block <= p.lastCommittedBlock:
		// The rollback path only applies to uncommitted pending blocks;
		// committed state is immutable (spec scenario: reorg after commit).
		return 0, ErrGap
	case block <= p.lastIndexedBlock:
		p.rollbackLocked(block)
	case block != p.lastIndexedBlock+1:
		return 0, ErrGap
	}

	deduped, err := p.dedupLocked(keys)
	if err != nil {
		return 0, err
	}
	p.pending[block] = deduped
	p.order.ReplaceOrInsert(blockNum(block))
	p.lastIndexedBlock = block
	return len(deduped), nil
}

func (p *Pipeline) rollbackLocked(from uint64) {
	for n := from; n <= p.lastIndexedBlock; n++ {
		if _, ok := p.pending[n]; ok {
			delete(p.pending, n)
			p.order.Delete(blockNum(n))
		}
	}
}

// dedupLocked drops keys already pending, already committed, or repeated
// within the input itself, preserving first-seen order.
func (p *Pipeline) dedupLocked(keys [][]byte) ([][]byte, error) {
	seen := make(map[string]struct{})
	for _, ks := range p.pending {
		for _, k := range ks {
			seen[string(k)] = struct{}{}
		}
	}
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		s := string(k)
		if _, dup := seen[s]; dup {
			continue
		}
		_, committed, err := p.pidx.IndexOf(k)
		if err != nil {
			return nil, err
		}
		if committed {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// Commit promotes every pending block up to min(safeBlock, lastIndexedBlock)
// into the PersistentIndex, computing each block's checkpoint root first.
// A concurrent commit returns ErrBusy immediately rather than blocking.
func (p *Pipeline) Commit(safeBlock uint64) (int, error) {
	if !atomic.CompareAndSwapInt32(&p.committing, 0, 1) {
		return 0, ErrBusy
	}
	defer atomic.StoreInt32(&p.committing, 0)

	p.mu.Lock()
	defer p.mu.Unlock()

	target := safeBlock
	if p.lastIndexedBlock < target {
		target = p.lastIndexedBlock
	}
	if target < p.lastCommittedBlock {
		target = p.lastCommittedBlock
	}
	if target <= p.lastCommittedBlock {
		return 0, nil
	}

	counter := p.pidx.Len()
	blocks := make([]Block, 0, target-p.lastCommittedBlock)
	for n := p.lastCommittedBlock + 1; n <= target; n++ {
		keys, ok := p.pending[n]
		if !ok {
			return 0, fmt.Errorf("indexcore: commit block %d: %w", n, errMissingPending)
		}
		entries := make([]checkpoint.Entry, len(keys))
		for i, k := range keys {
			entries[i] = checkpoint.Entry{Key: k, Index: counter}
			counter++
		}
		blocks = append(blocks, Block{Number: n, Keys: keys, Root: checkpoint.Root(entries)})
	}

	// A push failure leaves pending untouched so the caller may retry the
	// same commit (§4.5 failure semantics).
	if err := p.pidx.Push(blocks); err != nil {
		return 0, err
	}

	total := 0
	for n := p.lastCommittedBlock + 1; n <= target; n++ {
		total += len(p.pending[n])
		delete(p.pending, n)
		p.order.Delete(blockNum(n))
	}
	p.lastCommittedBlock = target
	return total, nil
}

// Len is the committed length plus every currently pending key.
func (p *Pipeline) Len() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lenLocked()
}

func (p *Pipeline) lenLocked() uint64 {
	total := p.pidx.Len()
	for _, ks := range p.pending {
		total += uint64(len(ks))
	}
	return total
}

// Get resolves index i against the committed store, falling back to the
// pending queue (walked in ascending block-number order) for the tail.
func (p *Pipeline) Get(i uint64) ([]byte, bool, error) {
	committedLen := p.pidx.Len()
	if i < committedLen {
		return p.pidx.Get(i)
	}

	p.mu.RLock()
	offset := i - committedLen
	var result []byte
	var found bool
	p.order.Ascend(func(item btree.Item) bool {
		n := uint64(item.(blockNum))
		keys := p.pending[n]
		if offset < uint64(len(keys)) {
			result = keys[offset]
			found = true
			return false
		}
		offset -= uint64(len(keys))
		return true
	})
	p.mu.RUnlock()
	if !found {
		return nil, false, nil
	}
	return result, true, nil
}

// IndexOf scans pending first (a key present in both pending and committed
// is impossible by the de-dup invariant), then delegates to the committed
// store.
func (p *Pipeline) IndexOf(key []byte) (uint64, bool, error) {
	p.mu.RLock()
	idx := p.pidx.Len()
	var found bool
	p.order.Ascend(func(item btree.Item) bool {
		n := uint64(item.(blockNum))
		for _, k := range p.pending[n] {
			if string(k) == string(key) {
				found = true
				return false
			}
			idx++
		}
		return true
	})
	p.mu.RUnlock()
	if found {
		return idx, true, nil
	}
	return p.pidx.IndexOf(key)
}

// Stats reports the last committed block number and the total committed
// + pending key count.
func (p *Pipeline) Stats() (lastBlock uint64, count uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCommittedBlock, p.lenLocked()
}

// LastIndexedBlock returns the most recent block accepted by Queue.
func (p *Pipeline) LastIndexedBlock() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastIndexedBlock
}

// LastCommittedBlock returns the most recent block promoted by Commit.
func (p *Pipeline) LastCommittedBlock() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastCommittedBlock
}
