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

// Package indexstore is the public facade over acctidx's durable and
// pending state: a single Store that answers len/get/index_of over
// committed plus in-flight blocks, and accepts new blocks through a Feeder.
package indexstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/erigontech/acctidx/internal/config"
	"github.com/erigontech/acctidx/internal/indexcore"
)

// Feeder supplies blocks to a Store. A live deployment backs this with a
// chain client; the CLI's run command uses internal/mocks.Feeder.
type Feeder interface {
	// Next blocks until the next block's account keys (or a reorg target)
	// are available, or ctx is cancelled.
	Next(ctx context.Context) (block uint64, keys [][]byte, err error)
	// SafeBlock reports the most recent block number the feeder considers
	// final, the argument to Commit.
	SafeBlock() uint64
}

// Stats is the point-in-time summary returned by Store.Stats.
type Stats struct {
	LastCommittedBlock uint64
	LastIndexedBlock   uint64
	Count              uint64
}

// Store wraps a Pipeline with the open/close lifecycle and logging.
type Store struct {
	log  *zap.Logger
	pidx *indexcore.PersistentIndex
	pipe *indexcore.Pipeline
}

// Open opens the durable index at cfg.DataDir and returns a ready Store.
func Open(cfg config.Config, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pidx, err := indexcore.Open(cfg.IndexConfig())
	if err != nil {
		return nil, err
	}
	log.Info("index opened",
		zap.String("data_dir", cfg.DataDir),
		zap.Uint64("count", pidx.Len()),
		zap.Uint64("last_block", pidx.LastBlock()),
	)
	return &Store{log: log, pidx: pidx, pipe: indexcore.NewPipeline(pidx)}, nil
}

// Close releases the underlying KV store and flat log.
func (s *Store) Close() error {
	return s.pidx.Close()
}

// Len is the committed plus pending key count.
func (s *Store) Len() uint64 { return s.pipe.Len() }

// Get returns the key assigned to index i.
func (s *Store) Get(i uint64) ([]byte, bool, error) { return s.pipe.Get(i) }

// IndexOf returns the index assigned to key.
func (s *Store) IndexOf(key []byte) (uint64, bool, error) { return s.pipe.IndexOf(key) }

// Queue submits the keys observed for block, handling reorgs and de-dup.
func (s *Store) Queue(block uint64, keys [][]byte) (int, error) {
	n, err := s.pipe.Queue(block, keys)
	if err != nil {
		s.log.Warn("queue rejected", zap.Uint64("block", block), zap.Error(err))
		return 0, err
	}
	s.log.Debug("queued block", zap.Uint64("block", block), zap.Int("new_keys", n))
	return n, nil
}

// Commit promotes pending blocks up to safeBlock into the durable index.
func (s *Store) Commit(safeBlock uint64) (int, error) {
	n, err := s.pipe.Commit(safeBlock)
	if err != nil {
		s.log.Warn("commit failed", zap.Uint64("safe_block", safeBlock), zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.log.Info("committed", zap.Uint64("safe_block", safeBlock), zap.Int("keys", n),
			zap.Uint64("last_committed_block", s.pipe.LastCommittedBlock()))
	}
	return n, nil
}

// Stats reports the current committed/pending summary.
func (s *Store) Stats() Stats {
	lastCommitted, count := s.pipe.Stats()
	return Stats{
		LastCommittedBlock: lastCommitted,
		LastIndexedBlock:   s.pipe.LastIndexedBlock(),
		Count:              count,
	}
}

// Run drains feeder into the store until ctx is cancelled, the feeder
// returns an error, or a Queue or Commit fails; it returns that error.
func Run(ctx context.Context, s *Store, feeder Feeder) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		block, keys, err := feeder.Next(ctx)
		if err != nil {
			return err
		}
		if _, err := s.Queue(block, keys); err != nil {
			return err
		}
		if _, err := s.Commit(feeder.SafeBlock()); err != nil {
			return err
		}
	}
}
