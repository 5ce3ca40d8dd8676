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
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/erigontech/acctidx/internal/checkpoint"
	"github.com/erigontech/acctidx/internal/flatlog"
	"github.com/erigontech/acctidx/internal/kvstore"
)

// Config controls how a PersistentIndex is opened.
type Config struct {
	DataDir         string
	KeySize         int  // fixed width of every key, in bytes (20 in the reference deployment)
	CacheCapacity   int  // LRU entries per direction; 0 disables
	MaxKVSize       uint64
	GenesisOverride *uint64 // initial last_block when opening a fresh store
	DisableFlatLog  bool
}

// Block is one committed unit of work: a contiguous block number, the new
// keys it introduces (already de-duplicated and ordered), and the root
// hash the Checkpoint Hasher computed for its (key, index) pairs.
type Block struct {
	Number uint64
	Keys   [][]byte
	Root   [checkpoint.Size]byte
}

// PersistentIndex is the durable ordered set: Flat Log + KV Store +
// Checkpoint Hasher, combined behind push/len/get/index_of.
type PersistentIndex struct {
	keySize int

	kv   *kvstore.Store
	flat *flatlog.Log // nil when DisableFlatLog

	mu        sync.RWMutex
	counter   uint64
	lastBlock uint64

	keyCache *lru.Cache[uint64, []byte]
	idxCache *lru.Cache[string, uint64]
}

// Open loads counters from the KV store, verifies them against the
// tables (and the flat log, if enabled), and returns a ready index.
func Open(cfg Config) (*PersistentIndex, error) {
	if cfg.KeySize <= 0 {
		return nil, fmt.Errorf("indexcore: invalid key size %d", cfg.KeySize)
	}
	kv, err := kvstore.Open(kvstore.Config{
		Path:    filepath.Join(cfg.DataDir, "kv"),
		MaxSize: cfg.MaxKVSize,
	})
	if err != nil {
		return nil, err
	}

	p := &PersistentIndex{kv: kv, keySize: cfg.KeySize}

	var indexCount uint64
	var maxBlock uint32
	var haveMaxBlock bool
	err = kv.View(func(tx *kvstore.Tx) error {
		counter, ok, err := tx.GetStat(kvstore.StatCounter)
		if err != nil {
			return err
		}
		if ok {
			p.counter = uint64(counter)
		}
		lastBlock, ok, err := tx.GetStat(kvstore.StatLastBlock)
		if err != nil {
			return err
		}
		if ok {
			p.lastBlock = uint64(lastBlock)
		}
		indexCount, err = tx.CountIndex()
		if err != nil {
			return err
		}
		maxBlock, haveMaxBlock, err = tx.MaxBlock()
		return err
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	fresh := p.counter == 0 && p.lastBlock == 0 && indexCount == 0 && !haveMaxBlock
	if fresh && cfg.GenesisOverride != nil {
		p.lastBlock = *cfg.GenesisOverride
		if err := kv.Update(func(tx *kvstore.Tx) error {
			return tx.PutStat(kvstore.StatLastBlock, uint32(p.lastBlock))
		}); err != nil {
			kv.Close()
			return nil, err
		}
	}

	if p.counter != indexCount {
		kv.Close()
		return nil, fmt.Errorf("indexcore: counter=%d index-table=%d: %w", p.counter, indexCount, ErrCorruptLayout)
	}
	// A genesis override legitimately leaves the blocks table empty while
	// last_block is non-zero until the first block is committed; otherwise
	// last_block must equal the largest key actually committed to the blocks
	// table.
	if !(fresh && cfg.GenesisOverride != nil) {
		if haveMaxBlock && uint64(maxBlock) != p.lastBlock {
			kv.Close()
			return nil, fmt.Errorf("indexcore: last_block=%d blocks-table-max=%d: %w", p.lastBlock, maxBlock, ErrCorruptLayout)
		}
		if !haveMaxBlock && p.lastBlock != 0 && p.counter != 0 {
			kv.Close()
			return nil, fmt.Errorf("indexcore: last_block=%d but blocks table empty: %w", p.lastBlock, ErrCorruptLayout)
		}
	}

	if !cfg.DisableFlatLog {
		flat, err := flatlog.Open(filepath.Join(cfg.DataDir, "flat.db"), cfg.KeySize, cfg.CacheCapacity)
		if err != nil {
			kv.Close()
			if errors.Is(err, flatlog.ErrCorruptChecksum) {
				return nil, fmt.Errorf("indexcore: %w: %w", ErrCorruptChecksum, err)
			}
			return nil, err
		}
		if fresh && cfg.GenesisOverride != nil {
			// A brand-new flat log always opens with a zero-value footer, so
			// its cursor would otherwise disagree with last_block below.
			// Stamp it to the genesis value now, before the consistency
			// check runs.
			cursor := p.lastBlock
			if err := flat.Append(nil, &cursor); err != nil {
				flat.Close()
				kv.Close()
				return nil, err
			}
		}
		flatLen, err := flat.Len()
		if err != nil {
			kv.Close()
			return nil, err
		}
		if flatLen != p.counter || flat.Cursor() != p.lastBlock {
			flat.Close()
			kv.Close()
			return nil, fmt.Errorf("indexcore: flat log len=%d cursor=%d vs counter=%d last_block=%d: %w",
				flatLen, flat.Cursor(), p.counter, p.lastBlock, ErrCorruptLayout)
		}
		p.flat = flat
	}

	if cfg.CacheCapacity > 0 {
		kc, err := lru.New[uint64, []byte](cfg.CacheCapacity)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("indexcore: key cache: %w", err)
		}
		ic, err := lru.New[string, uint64](cfg.CacheCapacity)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("indexcore: index cache: %w", err)
		}
		p.keyCache = kc
		p.idxCache = ic
	}
	return p, nil
}

// Close releases the KV store and the flat log.
func (p *PersistentIndex) Close() error {
	if p.flat != nil {
		_ = p.flat.Close()
	}
	return p.kv.Close()
}

// Len returns the number of committed keys.
func (p *PersistentIndex) Len() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.counter
}

// LastBlock returns the last committed block number.
func (p *PersistentIndex) LastBlock() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastBlock
}

// Get returns the key assigned to index i, if i < Len().
func (p *PersistentIndex) Get(i uint64) ([]byte, bool, error) {
	p.mu.RLock()
	n := p.counter
	p.mu.RUnlock()
	if i >= n {
		return nil, false, nil
	}
	if p.keyCache != nil {
		if v, ok := p.keyCache.Get(i); ok {
			out := make([]byte, len(v))
			copy(out, v)
			return out, true, nil
		}
	}
	var key []byte
	err := p.kv.View(func(tx *kvstore.Tx) error {
		v, ok, err := tx.GetIndexKey(uint32(i))
		if err != nil || !ok {
			return err
		}
		key = v
		return nil
	})
	if err != nil || key == nil {
		return nil, false, err
	}
	if p.keyCache != nil {
		p.keyCache.Add(i, key)
	}
	return key, true, nil
}

// IndexOf returns the index assigned to key, if committed.
func (p *PersistentIndex) IndexOf(key []byte) (uint64, bool, error) {
	if p.idxCache != nil {
		if v, ok := p.idxCache.Get(string(key)); ok {
			return v, true, nil
		}
	}
	fp := fingerprint(key)
	var found uint64
	var ok bool
	err := p.kv.View(func(tx *kvstore.Tx) error {
		candidates, err := tx.LookupFingerprint(fp)
		if err != nil {
			return err
		}
		for _, idx := range candidates {
			v, exists, err := tx.GetIndexKey(idx)
			if err != nil {
				return err
			}
			if exists && string(v) == string(key) {
				found, ok = uint64(idx), true
				return nil
			}
		}
		return nil
	})
	if err != nil || !ok {
		return 0, false, err
	}
	if p.idxCache != nil {
		p.idxCache.Add(string(key), found)
	}
	return found, true, nil
}

func fingerprint(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

// Push commits an ordered, strictly consecutive run of blocks starting at
// LastBlock()+1: it writes blocks/index/table/stats inside a single KV
// transaction, appends the new keys to the flat log, and only then
// advances the in-memory counters.
func (p *PersistentIndex) Push(blocks []Block) error {
	if len(blocks) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	expected := p.lastBlock + 1
	for _, b := range blocks {
		if b.Number != expected {
			return fmt.Errorf("indexcore: push expected block %d, got %d: %w", expected, b.Number, ErrCorruptLayout)
		}
		expected++
	}

	var flatKeys [][]byte
	newCounter := p.counter
	newLastBlock := p.lastBlock

	err := p.kv.Update(func(tx *kvstore.Tx) error {
		prevChain := checkpoint.Zero
		if p.lastBlock > 0 {
			h, ok, err := tx.GetBlockHash(uint32(p.lastBlock))
			if err != nil {
				return err
			}
			if ok {
				prevChain = h
			} else {
				// Before the first committed block (a genesis-seeded
				// last_block) the chain starts from the zero seed.
				_, committed, err := tx.MaxBlock()
				if err != nil {
					return err
				}
				if committed {
					return ErrChainBroken
				}
			}
		}

		counter := p.counter
		for _, b := range blocks {
			chain := checkpoint.Chain(prevChain, b.Root)
			if err := tx.PutBlockHash(uint32(b.Number), chain); err != nil {
				return err
			}
			prevChain = chain

			for _, key := range b.Keys {
				idx := uint32(counter)
				if err := tx.PutIndexKey(idx, key); err != nil {
					return err
				}
				if err := tx.PutFingerprint(fingerprint(key), idx); err != nil {
					return err
				}
				counter++
			}
			newLastBlock = b.Number
		}
		newCounter = counter

		if err := tx.PutStat(kvstore.StatCounter, uint32(newCounter)); err != nil {
			return err
		}
		return tx.PutStat(kvstore.StatLastBlock, uint32(newLastBlock))
	})
	if err != nil {
		return err
	}

	for _, b := range blocks {
		flatKeys = append(flatKeys, b.Keys...)
	}
	if p.flat != nil {
		// Append unconditionally, even with zero keys: an all-empty-after-
		// dedup block still advances last_block in the KV store, and the
		// flat log's cursor must track it or Open's consistency check
		// (flat.Cursor() == last_block) trips on the next restart.
		cursor := newLastBlock
		if err := p.flat.Append(flatKeys, &cursor); err != nil {
			// KV already committed; the mirror is now behind. §4.5/§9:
			// this is fatal and surfaces as corruption on next open.
			return fmt.Errorf("indexcore: flat log append after kv commit: %w", err)
		}
	}

	if p.keyCache != nil {
		base := p.counter
		for i, key := range flatKeys {
			p.keyCache.Add(base+uint64(i), key)
		}
	}

	p.counter = newCounter
	p.lastBlock = newLastBlock
	return nil
}
