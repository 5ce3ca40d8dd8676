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

// Package kvstore wraps github.com/erigontech/mdbx-go into the four
// logical tables the account index needs: stats, index, table (reverse
// index) and blocks. It follows the teacher's kv package conventions
// (erigon-lib/kv): table names are plain strings, schemas are declared as
// data (see tables.go) and opened once at startup.
package kvstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/erigontech/mdbx-go/mdbx"
)

// DefaultMaxSize is the minimum reserved database size (§6 max_kv_size).
const DefaultMaxSize = 16 << 30 // 16 GiB

// Store owns one MDBX environment and the four table DBIs opened against
// it. All transactions go through View/Update; callers never see *mdbx.Txn
// directly outside this package.
type Store struct {
	env  *mdbx.Env
	dbis map[string]mdbx.DBI
}

// Config controls how the environment is opened.
type Config struct {
	Path    string
	MaxSize uint64 // bytes; 0 means DefaultMaxSize
}

// Open creates datadir if needed and opens (or initializes) the MDBX
// environment with the schema in tables.go.
func Open(cfg Config) (*Store, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("kvstore: mkdir %s: %w", cfg.Path, err)
	}

	env, err := mdbx.NewEnv(mdbx.Default)
	if err != nil {
		return nil, fmt.Errorf("kvstore: new env: %w", err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, uint64(len(Tables))); err != nil {
		return nil, fmt.Errorf("kvstore: set max dbs: %w", err)
	}
	if err := env.SetGeometry(-1, -1, int(cfg.MaxSize), -1, -1, -1); err != nil {
		return nil, fmt.Errorf("kvstore: set geometry: %w", err)
	}
	if err := env.Open(cfg.Path, mdbx.Coalesce|mdbx.LifoReclaim, 0644); err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", cfg.Path, err)
	}

	s := &Store{env: env, dbis: make(map[string]mdbx.DBI, len(Tables))}
	err = env.Update(func(tx *mdbx.Txn) error {
		for _, name := range Tables {
			flags := dbiFlags(TableCfg[name].Flags) | mdbx.Create
			dbi, err := tx.OpenDBISimple(name, flags)
			if err != nil {
				return fmt.Errorf("open table %s: %w", name, err)
			}
			s.dbis[name] = dbi
		}
		return nil
	})
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("kvstore: create schema: %w", err)
	}
	return s, nil
}

func dbiFlags(f TableFlags) mdbx.DBICreateFlags {
	var out mdbx.DBICreateFlags
	if f&DupSort != 0 {
		out |= mdbx.DupSort
	}
	if f&IntegerKey != 0 {
		out |= mdbx.IntegerKey
	}
	if f&IntegerDup != 0 {
		out |= mdbx.IntegerDup
	}
	return out
}

// Close releases the environment.
func (s *Store) Close() error {
	s.env.Close()
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.env.View(func(txn *mdbx.Txn) error {
		return fn(&Tx{txn: txn, dbis: s.dbis})
	})
}

// Update runs fn in a read-write transaction. All writes across fn are
// committed atomically, or none are if fn (or the commit) fails.
func (s *Store) Update(fn func(tx *Tx) error) error {
	return s.env.Update(func(txn *mdbx.Txn) error {
		return fn(&Tx{txn: txn, dbis: s.dbis})
	})
}

// Tx is a handle scoped to a single transaction, exposing the four logical
// tables through typed accessors rather than raw byte keys.
type Tx struct {
	txn  *mdbx.Txn
	dbis map[string]mdbx.DBI
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func leBytesToU32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// GetStat returns the stored 32-bit counter for key ("counter" or
// "last_block"), or (0, false, nil) if absent.
func (t *Tx) GetStat(key string) (uint32, bool, error) {
	v, err := t.txn.Get(t.dbis[Stats], []byte(key))
	if mdbx.IsNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("kvstore: get stat %s: %w", key, err)
	}
	if len(v) != 4 {
		return 0, false, fmt.Errorf("kvstore: stat %s: %w", key, ErrCorruptLayout)
	}
	return leBytesToU32(v), true, nil
}

// PutStat stores a 32-bit counter.
func (t *Tx) PutStat(key string, v uint32) error {
	if err := t.txn.Put(t.dbis[Stats], []byte(key), le32(v), 0); err != nil {
		return fmt.Errorf("kvstore: put stat %s: %w", key, err)
	}
	return nil
}

// GetIndexKey resolves index -> key via the index table.
func (t *Tx) GetIndexKey(index uint32) ([]byte, bool, error) {
	v, err := t.txn.Get(t.dbis[Index], le32(index))
	if mdbx.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get index %d: %w", index, err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// PutIndexKey assigns key to index.
func (t *Tx) PutIndexKey(index uint32, key []byte) error {
	if err := t.txn.Put(t.dbis[Index], le32(index), key, 0); err != nil {
		return fmt.Errorf("kvstore: put index %d: %w", index, err)
	}
	return nil
}

// CountIndex returns the number of entries in the index table.
func (t *Tx) CountIndex() (uint64, error) {
	stat, err := t.txn.StatDBI(t.dbis[Index])
	if err != nil {
		return 0, fmt.Errorf("kvstore: stat index: %w", err)
	}
	return stat.Entries, nil
}

// PutFingerprint appends index as one more value under fingerprint fp in
// the duplicate-sort reverse table.
func (t *Tx) PutFingerprint(fp uint32, index uint32) error {
	cur, err := t.txn.OpenCursor(t.dbis[Table])
	if err != nil {
		return fmt.Errorf("kvstore: open table cursor: %w", err)
	}
	defer cur.Close()
	if err := cur.Put(le32(fp), le32(index), 0); err != nil {
		return fmt.Errorf("kvstore: put fingerprint %d: %w", fp, err)
	}
	return nil
}

// LookupFingerprint returns every index stored under fingerprint fp, in
// ascending order (native MDBX dup-sort order for IntegerDup values).
func (t *Tx) LookupFingerprint(fp uint32) ([]uint32, error) {
	cur, err := t.txn.OpenCursor(t.dbis[Table])
	if err != nil {
		return nil, fmt.Errorf("kvstore: open table cursor: %w", err)
	}
	defer cur.Close()

	var out []uint32
	key := le32(fp)
	_, v, err := cur.Get(key, nil, mdbx.SetKey)
	for err == nil {
		out = append(out, leBytesToU32(v))
		_, v, err = cur.Get(nil, nil, mdbx.NextDup)
	}
	if err != nil && !mdbx.IsNotFound(err) {
		return nil, fmt.Errorf("kvstore: lookup fingerprint %d: %w", fp, err)
	}
	return out, nil
}

// GetBlockHash returns the chained block hash stored for block, if any.
func (t *Tx) GetBlockHash(block uint32) ([32]byte, bool, error) {
	var out [32]byte
	v, err := t.txn.Get(t.dbis[Blocks], le32(block))
	if mdbx.IsNotFound(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("kvstore: get block %d: %w", block, err)
	}
	if len(v) != 32 {
		return out, false, fmt.Errorf("kvstore: block %d: %w", block, ErrCorruptLayout)
	}
	copy(out[:], v)
	return out, true, nil
}

// PutBlockHash stores the chained block hash for block.
func (t *Tx) PutBlockHash(block uint32, hash [32]byte) error {
	if err := t.txn.Put(t.dbis[Blocks], le32(block), hash[:], 0); err != nil {
		return fmt.Errorf("kvstore: put block %d: %w", block, err)
	}
	return nil
}

// MaxBlock returns the largest key in the blocks table, or (0, false, nil)
// if the table is empty.
func (t *Tx) MaxBlock() (uint32, bool, error) {
	cur, err := t.txn.OpenCursor(t.dbis[Blocks])
	if err != nil {
		return 0, false, fmt.Errorf("kvstore: open blocks cursor: %w", err)
	}
	defer cur.Close()
	k, _, err := cur.Get(nil, nil, mdbx.Last)
	if mdbx.IsNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("kvstore: max block: %w", err)
	}
	return leBytesToU32(k), true, nil
}

// ErrCorruptLayout signals an on-disk value of the wrong width, which can
// only mean the store was written by an incompatible version.
var ErrCorruptLayout = errors.New("kvstore: corrupt layout")
