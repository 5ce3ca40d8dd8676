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

// Package flatlog implements a fixed-width, append-only record file with a
// trailing integrity footer: a sequential mirror of the key sequence that
// is cheap to scan and cheap to verify on open.
package flatlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// FooterLen is the size in bytes of the trailing footer: cursor (8) +
// last batch length (8) + checksum (8), all big-endian.
const FooterLen = 24

var (
	// ErrCorruptLayout is returned when the file size is not a whole
	// number of records plus the footer.
	ErrCorruptLayout = errors.New("flatlog: corrupt layout")
	// ErrCorruptChecksum is returned when the stored checksum does not
	// match the recomputed checksum of the last batch.
	ErrCorruptChecksum = errors.New("flatlog: corrupt checksum")
)

type footer struct {
	cursor       uint64
	lastBatchLen uint64
	checksum     uint64
}

func (f footer) marshal() [FooterLen]byte {
	var b [FooterLen]byte
	binary.BigEndian.PutUint64(b[0:8], f.cursor)
	binary.BigEndian.PutUint64(b[8:16], f.lastBatchLen)
	binary.BigEndian.PutUint64(b[16:24], f.checksum)
	return b
}

func unmarshalFooter(b []byte) footer {
	return footer{
		cursor:       binary.BigEndian.Uint64(b[0:8]),
		lastBatchLen: binary.BigEndian.Uint64(b[8:16]),
		checksum:     binary.BigEndian.Uint64(b[16:24]),
	}
}

// Log is a homogeneous-record flat file of record size R, terminated by a
// footer. It is safe for concurrent readers; writers must be serialized by
// the caller (the core never appends concurrently).
type Log struct {
	mu       sync.Mutex
	file     *os.File
	recSize  int
	footer   footer
	cache    *lru.Cache[uint64, []byte]
	hasCache bool
}

// Open opens or creates the flat log at path with records of recSize bytes.
// cacheCapacity is the number of records kept in the index->record LRU; 0
// disables the cache.
func Open(path string, recSize int, cacheCapacity int) (*Log, error) {
	if recSize <= 0 {
		return nil, fmt.Errorf("flatlog: invalid record size %d", recSize)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("flatlog: open %s: %w", path, err)
	}
	l := &Log{file: f, recSize: recSize}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flatlog: stat %s: %w", path, err)
	}
	switch size := info.Size(); {
	case size == 0:
		if err := l.writeFooterAt(0, footer{}); err != nil {
			f.Close()
			return nil, err
		}
	case size < FooterLen || (size-FooterLen)%int64(recSize) != 0:
		f.Close()
		return nil, fmt.Errorf("flatlog: %s: %w", path, ErrCorruptLayout)
	default:
		ftr, err := l.readFooterAt(size)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := l.verifyChecksum(size, ftr); err != nil {
			f.Close()
			return nil, err
		}
		l.footer = ftr
	}

	if cacheCapacity > 0 {
		c, err := lru.New[uint64, []byte](cacheCapacity)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("flatlog: lru: %w", err)
		}
		l.cache = c
		l.hasCache = true
	}
	return l, nil
}

func (l *Log) readFooterAt(fileSize int64) (footer, error) {
	buf := make([]byte, FooterLen)
	if _, err := l.file.ReadAt(buf, fileSize-FooterLen); err != nil {
		return footer{}, fmt.Errorf("flatlog: read footer: %w", err)
	}
	return unmarshalFooter(buf), nil
}

func (l *Log) writeFooterAt(dataEnd int64, ftr footer) error {
	b := ftr.marshal()
	if _, err := l.file.WriteAt(b[:], dataEnd); err != nil {
		return fmt.Errorf("flatlog: write footer: %w", err)
	}
	return nil
}

func (l *Log) verifyChecksum(fileSize int64, ftr footer) error {
	// The all-zero footer written when the file is created covers no batch
	// and carries no checksum.
	if ftr == (footer{}) {
		return nil
	}
	last := int64(ftr.lastBatchLen) * int64(l.recSize)
	dataEnd := fileSize - FooterLen
	start := dataEnd - last
	if start < 0 {
		return fmt.Errorf("flatlog: %w", ErrCorruptLayout)
	}
	buf := make([]byte, last)
	if last > 0 {
		if _, err := l.file.ReadAt(buf, start); err != nil {
			return fmt.Errorf("flatlog: read last batch: %w", err)
		}
	}
	if xxhash.Sum64(buf) != ftr.checksum {
		return fmt.Errorf("flatlog: %w", ErrCorruptChecksum)
	}
	return nil
}

// Len returns the number of records currently stored.
func (l *Log) Len() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lenLocked()
}

func (l *Log) lenLocked() (uint64, error) {
	info, err := l.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("flatlog: stat: %w", err)
	}
	return uint64(info.Size()-FooterLen) / uint64(l.recSize), nil
}

// Cursor returns the application-defined high-water mark stamped in the
// footer by the most recent Append call.
func (l *Log) Cursor() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.footer.cursor
}

// Append writes records to the end of the data region, then re-stamps the
// footer with the new cursor (or the previous cursor, if newCursor is nil)
// and the checksum of exactly this batch. The cache is warmed with the
// appended records.
func (l *Log) Append(records [][]byte, newCursor *uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range records {
		if len(r) != l.recSize {
			return fmt.Errorf("flatlog: record size %d != %d", len(r), l.recSize)
		}
	}

	start, err := l.lenLocked()
	if err != nil {
		return err
	}
	info, err := l.file.Stat()
	if err != nil {
		return fmt.Errorf("flatlog: stat: %w", err)
	}
	writeAt := info.Size() - FooterLen

	hasher := xxhash.New()
	for i, r := range records {
		if _, err := l.file.WriteAt(r, writeAt+int64(i)*int64(l.recSize)); err != nil {
			return fmt.Errorf("flatlog: write record: %w", err)
		}
		hasher.Write(r)
	}

	cursor := l.footer.cursor
	if newCursor != nil {
		cursor = *newCursor
	}
	l.footer = footer{
		cursor:       cursor,
		lastBatchLen: uint64(len(records)),
		checksum:     hasher.Sum64(),
	}
	newEnd := writeAt + int64(len(records))*int64(l.recSize)
	if err := l.writeFooterAt(newEnd, l.footer); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("flatlog: sync: %w", err)
	}

	if l.hasCache {
		for i, r := range records {
			cp := make([]byte, len(r))
			copy(cp, r)
			l.cache.Add(start+uint64(i), cp)
		}
	}
	return nil
}

// Get returns the record at index i.
func (l *Log) Get(i uint64) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasCache {
		if v, ok := l.cache.Get(i); ok {
			out := make([]byte, len(v))
			copy(out, v)
			return out, nil
		}
	}
	buf := make([]byte, l.recSize)
	if _, err := l.file.ReadAt(buf, int64(i)*int64(l.recSize)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("flatlog: record %d: %w", i, io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("flatlog: read record %d: %w", i, err)
	}
	if l.hasCache {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		l.cache.Add(i, cp)
	}
	return buf, nil
}

// Close closes the underlying file handle.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
