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

// Table names. Physical layout (see §6 of the design doc):
//
//	Stats:  key in {"counter","last_block"} -> LE-u32 value
//	Index:  LE-u32 index                    -> fixed-width key bytes
//	Table:  LE-u32 fingerprint              -> LE-u32 index (DupSort, many per key)
//	Blocks: LE-u32 block number              -> 32-byte chained block hash
const (
	Stats  = "stats"
	Index  = "index"
	Table  = "table"
	Blocks = "blocks"
)

// Stats keys.
const (
	StatCounter   = "counter"
	StatLastBlock = "last_block"
)

// TableFlags mirrors the subset of MDBX database flags this store relies
// on. Kept as a local type rather than importing mdbx's flag constants
// everywhere so the schema reads independently of the underlying engine.
type TableFlags uint

const (
	Default    TableFlags = 0x00
	DupSort    TableFlags = 0x04
	IntegerKey TableFlags = 0x08
	IntegerDup TableFlags = 0x20
)

// TableCfgItem describes one logical table's physical flags.
type TableCfgItem struct {
	Flags TableFlags
}

// TableCfg is the full schema for this store: every logical table this
// package opens, alongside the flags MDBX needs to lay it out correctly.
// Modeled directly on the teacher's ChaindataTablesCfg (erigon-lib/kv).
var TableCfg = map[string]TableCfgItem{
	Stats:  {Flags: Default},
	Index:  {Flags: IntegerKey},
	Table:  {Flags: DupSort | IntegerKey | IntegerDup},
	Blocks: {Flags: IntegerKey},
}

// Tables lists every table name this store opens, in a stable order so
// DBI creation during Open is deterministic.
var Tables = []string{Stats, Index, Table, Blocks}
