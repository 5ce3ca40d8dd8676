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
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "acctidx",
		Usage: "durable, reorg-safe account index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "datadir", Aliases: []string{"d"}, Required: true, Usage: "data directory"},
			&cli.StringFlag{Name: "log-file", Usage: "rotating log file path (empty disables)"},
		},
		Commands: []*cli.Command{
			runCommand(),
			infoCommand(),
			mnemonicCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "acctidx:", err)
		os.Exit(1)
	}
}

func loggerFromFlags(c *cli.Context) *zap.Logger {
	return newLogger(c.String("log-file"))
}
