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

// Package config holds the settings acctidx needs to open an index and
// serve queries, shared between the CLI and tests.
package config

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/erigontech/acctidx/internal/indexcore"
)

// KeySize is the fixed width, in bytes, of every indexed account identifier.
const KeySize = 20

// DefaultMaxKVSize is the initial MDBX geometry ceiling; erigon-style
// deployments grow this with --db.size.limit as the index fills up.
const DefaultMaxKVSize = 64 << 30

// Config is the full set of knobs for running an acctidx instance.
type Config struct {
	DataDir       string
	CacheCapacity int
	MaxKVSize     uint64
	Genesis       *uint64
	HTTPAddr      string
	LogFilePath   string
}

// Default returns a Config with conservative, production-ready defaults for
// DataDir.
func Default(dataDir string) Config {
	return Config{
		DataDir:       dataDir,
		CacheCapacity: 1 << 20,
		MaxKVSize:     DefaultMaxKVSize,
		HTTPAddr:      "127.0.0.1:8845",
	}
}

// IndexConfig adapts this Config to indexcore.Config.
func (c Config) IndexConfig() indexcore.Config {
	return indexcore.Config{
		DataDir:         c.DataDir,
		KeySize:         KeySize,
		CacheCapacity:   c.CacheCapacity,
		MaxKVSize:       c.MaxKVSize,
		GenesisOverride: c.Genesis,
	}
}

// Validate rejects configurations that cannot open an index.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data dir is required")
	}
	if c.MaxKVSize == 0 {
		return fmt.Errorf("config: max kv size must be non-zero")
	}
	return nil
}
