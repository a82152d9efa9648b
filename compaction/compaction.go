// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package compaction rewrites a closed data segment, dropping
// tombstoned entries, the offline cleanup the original engine's
// data_delete comments describe but never implements inline. A
// segment is only ever compacted once it is no longer the writable
// one, since compaction renumbers every offset within it.
package compaction

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/comail/go-uuid/uuid"
	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
	"launchpad.net/gommap"

	"github.com/generalzzd/0-db/data"
)

// Logger is the logger instance used by the compactor.
var Logger = log.New(os.Stderr, "COMPACT ", log.LstdFlags)

// Stats summarizes one compaction run.
type Stats struct {
	EntriesKept    int
	EntriesDropped int
	BytesKept      int64
	BytesDropped   int64
}

// Relocation records where an entry landed after compaction, so the
// caller can repoint its bucket index without a full rebuild.
type Relocation struct {
	Key       []byte
	OldOffset uint64
	NewOffset uint64
}

// Compact reads the segment at path, drops every entry flagged
// deleted, and writes the remainder to a new file created atomically
// at path (the stale content is never visible mid-write). It returns
// the relocations live callers must apply to their in-memory index.
func Compact(path string) ([]Relocation, Stats, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("compaction: open %s: %w", path, err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("compaction: stat %s: %w", path, err)
	}

	if fi.Size() == 0 {
		return nil, Stats{}, nil
	}

	region, err := gommap.Map(src.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("compaction: mmap %s: %w", path, err)
	}

	// advise the kernel we're about to stream through this file once,
	// so it doesn't keep the whole segment resident afterwards
	_ = unix.Fadvise(int(src.Fd()), 0, fi.Size(), unix.FADV_SEQUENTIAL)

	out, relocations, stats, err := rewrite(region)
	if err != nil {
		return nil, Stats{}, err
	}

	tmp := fmt.Sprintf("%s.compact-%s", path, uuid.New())
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return nil, Stats{}, fmt.Errorf("compaction: write %s: %w", tmp, err)
	}
	defer os.Remove(tmp)

	if err := atomic.ReplaceFile(tmp, path); err != nil {
		return nil, Stats{}, fmt.Errorf("compaction: replace %s: %w", path, err)
	}

	Logger.Printf("info: compacted %s: kept %d, dropped %d", path, stats.EntriesKept, stats.EntriesDropped)
	return relocations, stats, nil
}

// rewrite walks region entry by entry, copying live entries to a
// fresh buffer starting right after a new SegmentHeader, and tracking
// the back-pointer of the last entry kept.
func rewrite(region []byte) ([]byte, []Relocation, Stats, error) {
	if len(region) < int(data.SegmentHeaderSize) {
		return nil, nil, Stats{}, fmt.Errorf("compaction: region too small for a segment header")
	}

	out := make([]byte, data.SegmentHeaderSize)
	copy(out, region[:data.SegmentHeaderSize])

	var relocations []Relocation
	var stats Stats
	var previous uint64 = uint64(data.SegmentHeaderSize)

	offset := uint64(data.SegmentHeaderSize)
	for offset+uint64(data.EntryHeaderSize) <= uint64(len(region)) {
		hdr := region[offset : offset+uint64(data.EntryHeaderSize)]
		idlen := hdr[0]
		datalen := binary.LittleEndian.Uint32(hdr[1:5])
		flags := hdr[17]

		entryLen := uint64(data.EntryHeaderSize) + uint64(idlen) + uint64(datalen)
		if offset+entryLen > uint64(len(region)) {
			break
		}

		if flags&data.FlagDeleted != 0 {
			stats.EntriesDropped++
			stats.BytesDropped += int64(entryLen)
			offset += entryLen
			continue
		}

		key := make([]byte, idlen)
		copy(key, region[offset+uint64(data.EntryHeaderSize):offset+uint64(data.EntryHeaderSize)+uint64(idlen)])

		newOffset := uint64(len(out))

		rewritten := make([]byte, entryLen)
		copy(rewritten, region[offset:offset+entryLen])
		binary.LittleEndian.PutUint64(rewritten[5:13], previous)

		out = append(out, rewritten...)
		relocations = append(relocations, Relocation{Key: key, OldOffset: offset, NewOffset: newOffset})

		previous = newOffset
		stats.EntriesKept++
		stats.BytesKept += int64(entryLen)
		offset += entryLen
	}

	return out, relocations, stats, nil
}
