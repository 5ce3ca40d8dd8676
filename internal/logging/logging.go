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

// Package logging builds the zap.Logger used across acctidx: human-readable
// on the console, JSON with rotation on disk.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where and how verbosely acctidx logs.
type Config struct {
	ConsoleLevel zapcore.Level
	FilePath     string // empty disables the file sink
	FileLevel    zapcore.Level
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
}

// DefaultConfig logs info and above to the console and disables the file
// sink.
func DefaultConfig() Config {
	return Config{
		ConsoleLevel: zapcore.InfoLevel,
		FileLevel:    zapcore.DebugLevel,
		MaxSizeMB:    100,
		MaxBackups:   3,
		MaxAgeDays:   28,
	}
}

// New builds a zap.Logger writing to the console and, if FilePath is set, to
// a lumberjack-rotated JSON file.
func New(cfg Config) *zap.Logger {
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), cfg.ConsoleLevel),
	}
	if cfg.FilePath != "" {
		jsonEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		writer := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), cfg.FileLevel))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return ec
}

// Noop returns a logger that discards everything, used by tests that don't
// care about log output.
func Noop() *zap.Logger {
	return zap.NewNop()
}
