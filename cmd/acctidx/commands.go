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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/erigontech/acctidx/internal/config"
	"github.com/erigontech/acctidx/internal/httpapi"
	"github.com/erigontech/acctidx/internal/logging"
	"github.com/erigontech/acctidx/internal/mocks"
	"github.com/erigontech/acctidx/indexstore"
	"github.com/erigontech/acctidx/mnemonic"
)

func newLogger(path string) *zap.Logger {
	cfg := logging.DefaultConfig()
	cfg.FilePath = path
	return logging.New(cfg)
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "print the current index stats and exit",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "genesis", Usage: "initial last_block when opening a fresh store"},
		},
		Action: func(c *cli.Context) error {
			log := loggerFromFlags(c)
			defer log.Sync()

			cfg := config.Default(c.String("datadir"))
			if c.IsSet("genesis") {
				genesis := c.Uint64("genesis")
				cfg.Genesis = &genesis
			}
			store, err := indexstore.Open(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			stats := store.Stats()
			fmt.Printf("last_committed_block: %d\n", stats.LastCommittedBlock)
			fmt.Printf("last_indexed_block:   %d\n", stats.LastIndexedBlock)
			fmt.Printf("count:                %d\n", stats.Count)
			return nil
		},
	}
}

func mnemonicCommand() *cli.Command {
	return &cli.Command{
		Name:      "mnemonic",
		Usage:     "encode an index (and its key's checksum) as a phrase, or decode a phrase back",
		ArgsUsage: "encode <index> <hex-key> | decode <phrase...>",
		Action: func(c *cli.Context) error {
			args := c.Args()
			if args.Len() < 2 {
				return errors.Errorf("mnemonic: usage: %s", c.Command.ArgsUsage)
			}
			switch args.First() {
			case "encode":
				index, err := strconv.ParseUint(args.Get(1), 10, 64)
				if err != nil {
					return errors.Wrap(err, "mnemonic: invalid index")
				}
				if args.Len() < 3 {
					return errors.New("mnemonic: encode requires a hex key")
				}
				key, err := hex.DecodeString(args.Get(2))
				if err != nil {
					return errors.Wrap(err, "mnemonic: invalid key")
				}
				phrase, err := mnemonic.Encode(index, mnemonic.Checksum(key))
				if err != nil {
					return err
				}
				fmt.Println(phrase)
				return nil
			case "decode":
				index, checksum, err := mnemonic.Decode(strings.Join(args.Tail(), " "))
				if err != nil {
					return err
				}
				fmt.Printf("index: %d\nchecksum: %d\n", index, checksum)
				return nil
			default:
				return errors.Errorf("mnemonic: unknown subcommand %q", args.First())
			}
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "feed blocks into the index and optionally serve the query API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "api", Usage: "serve the read-only query API"},
			&cli.StringFlag{Name: "http-addr", Value: "127.0.0.1:8845", Usage: "query API listen address"},
			&cli.Uint64Flag{Name: "confirmation-lag", Value: 12, Usage: "blocks behind head considered safe to commit"},
			&cli.Uint64Flag{Name: "genesis", Usage: "initial last_block when opening a fresh store"},
		},
		Action: func(c *cli.Context) error {
			log := loggerFromFlags(c)
			defer log.Sync()

			cfg := config.Default(c.String("datadir"))
			cfg.HTTPAddr = c.String("http-addr")
			if c.IsSet("genesis") {
				genesis := c.Uint64("genesis")
				cfg.Genesis = &genesis
			}

			store, err := indexstore.Open(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if c.Bool("api") {
				srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(store)}
				go func() {
					log.Info("query api listening", zap.String("addr", cfg.HTTPAddr))
					if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error("query api stopped", zap.Error(err))
					}
				}()
				go func() {
					<-ctx.Done()
					_ = srv.Close()
				}()
			}

			// No live chain client is wired up; run against an empty mock
			// feeder so the command is runnable end to end for local checks.
			feeder := mocks.NewFeeder(nil, c.Uint64("confirmation-lag"))
			if err := indexstore.Run(ctx, store, feeder); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}
