// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package data implements the append-only segment log: the on-disk
// half of the storage core. A DataRoot owns one writable segment at a
// time and serves point reads against any segment that has ever been
// written in its data directory.
package data

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// Logger is used for warnings the core can recover from on its own.
// Override it the way biglog.Logger is overridden, e.g. to route
// through the host application's structured logger.
var Logger = log.New(os.Stderr, "DATA ", log.LstdFlags)

const (
	// DataMaxSize is the sanity ceiling Match enforces on datalength.
	DataMaxSize = 8 * 1024 * 1024
	// MaxKeyLength is the largest key accepted by Insert/Match.
	MaxKeyLength = 255

	filePattern = "zdb-data-%05d"
)

// SyncMode selects the durability policy applied after every payload write.
type SyncMode uint8

const (
	// SyncNone never fsyncs from the write path; durability relies on Emergency.
	SyncNone SyncMode = iota
	// SyncAlways fsyncs unconditionally after every payload write.
	SyncAlways
	// SyncTimed fsyncs once SyncPeriod has elapsed since the last fsync.
	SyncTimed
)

// Option configures a DataRoot at Open time.
type Option func(*DataRoot)

// WithSyncAlways enables sync-always durability.
func WithSyncAlways() Option {
	return func(r *DataRoot) { r.syncMode = SyncAlways }
}

// WithSyncTimed enables sync-timed durability with the given period.
// A period of zero is equivalent to SyncNone.
func WithSyncTimed(period time.Duration) Option {
	return func(r *DataRoot) {
		if period <= 0 {
			return
		}
		r.syncMode = SyncTimed
		r.syncPeriod = period
	}
}

// DataRoot is the runtime state of the data log: the data directory,
// the currently writable segment, and the durability policy applied
// to it. DataRoot is safe for concurrent readers as long as writes
// (Insert, Delete, Rollover) are serialized by the caller, per the
// core's single-logical-writer concurrency model.
type DataRoot struct {
	mu sync.RWMutex

	dataDir  string
	dataid   uint16
	datafd   *os.File
	readOnly bool

	previous uint64 // back-pointer seed: offset of the last written entry
	size     uint64 // end-of-file offset of the writable segment

	syncMode   SyncMode
	syncPeriod time.Duration
	lastSync   time.Time // zero value intentionally predates any insert
}

func filename(dataDir string, fileid uint16) string {
	return filepath.Join(dataDir, fmt.Sprintf(filePattern, fileid))
}

// Open opens or creates segment fileid in dataDir. If the segment is
// new, a SegmentHeader is written first. The segment is then scanned
// from its first entry to recover the back-pointer seed and current
// size. On a read-only filesystem (EROFS), Open demotes the DataRoot
// to read-only instead of failing: writes are rejected but reads and
// Check continue to work, allowing the engine to boot off immutable
// media for recovery.
func Open(dataDir string, fileid uint16, opts ...Option) (*DataRoot, error) {
	r := &DataRoot{dataDir: dataDir, dataid: fileid}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.openSegment(fileid); err != nil {
		return nil, err
	}

	return r, nil
}

// openSegment creates (if needed), opens and scans segment fileid,
// installing it as the current writable segment.
func (r *DataRoot) openSegment(fileid uint16) error {
	path := filename(r.dataDir, fileid)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := initializeSegment(path, fileid); err != nil {
			if !isReadOnlyErr(err) {
				return err
			}
			// EROFS: nothing we can initialize, and nothing to append to.
			r.readOnly = true
			r.dataid = fileid
			return nil
		}
	}

	fd, readOnly, err := openForAppend(path)
	if err != nil {
		return err
	}

	r.datafd = fd
	r.dataid = fileid
	r.readOnly = readOnly

	if err := validateSegmentHeader(fd); err != nil {
		fd.Close()
		r.datafd = nil
		return err
	}

	previous, size, err := scanSegment(fd)
	if err != nil {
		return err
	}

	r.previous = previous
	r.size = size

	Logger.Printf("info: active segment %q (readonly=%t)", path, readOnly)
	return nil
}

// initializeSegment creates path and writes its SegmentHeader. On a
// read-only filesystem the open error is returned as is; openSegment
// recognizes EROFS and demotes the DataRoot to read-only.
func initializeSegment(path string, fileid uint16) error {
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer fd.Close()

	header := newSegmentHeader(fileid)
	if _, err := fd.Write(header); err != nil {
		return ErrIO
	}

	return nil
}

// openForAppend opens path for append, falling back to read-only on EROFS.
func openForAppend(path string) (fd *os.File, readOnly bool, err error) {
	fd, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0600)
	if err == nil {
		return fd, false, nil
	}

	if !isReadOnlyErr(err) {
		return nil, false, ErrIO
	}

	fd, err = os.OpenFile(path, os.O_RDONLY, 0600)
	if err != nil {
		return nil, false, ErrIO
	}

	Logger.Print("info: data file opened in read-only mode")
	return fd, true, nil
}

// validateSegmentHeader confirms fd begins with a preamble this package
// wrote: a matching magic and a version it knows how to read.
func validateSegmentHeader(fd *os.File) error {
	buf := make([]byte, SegmentHeaderSize)
	n, err := fd.ReadAt(buf, 0)
	if n != SegmentHeaderSize || err != nil {
		return ErrInvalidSegment
	}

	h := segmentHeader(buf)
	if !h.magicOK() || h.version() != SegmentVersion {
		return ErrInvalidSegment
	}

	return nil
}

// scanSegment walks every entry from the first usable offset, returning
// the offset of the last entry seen (or SegmentHeaderSize if none) and
// the offset one past the last entry (the current end of file).
func scanSegment(fd *os.File) (previous uint64, size uint64, err error) {
	previous = SegmentHeaderSize
	offset := uint64(SegmentHeaderSize)
	entries := 0

	for {
		buf := make([]byte, EntryHeaderSize)
		n, rerr := fd.ReadAt(buf, int64(offset))
		if n != EntryHeaderSize || rerr != nil {
			break
		}

		h := entryHeader(buf)
		previous = offset
		offset += uint64(EntryHeaderSize) + uint64(h.idlength()) + uint64(h.datalength())
		entries++
	}

	Logger.Printf("info: scanned %d entries, end offset %d", entries, offset)
	return previous, offset, nil
}

// DataID returns the id of the currently writable segment.
func (r *DataRoot) DataID() uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dataid
}

// ReadOnly reports whether writes are currently rejected because the
// backing filesystem answered EROFS at open.
func (r *DataRoot) ReadOnly() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readOnly
}

// NextOffset returns the offset the next Insert into the writable
// segment would use. Useful for direct-key mode, where a caller needs
// the offset before the entry is actually inserted.
func (r *DataRoot) NextOffset() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// acquire returns a readable fd for segment id: the cached writable fd
// when id is the current segment, or a transient read-only fd
// otherwise. Callers must pair every acquire with release.
func (r *DataRoot) acquire(id uint16) (fd *os.File, transient bool, err error) {
	r.mu.RLock()
	cur, curfd := r.dataid, r.datafd
	r.mu.RUnlock()

	if id == cur && curfd != nil {
		return curfd, false, nil
	}

	fd, err = os.Open(filename(r.dataDir, id))
	if err != nil {
		return nil, false, ErrIO
	}

	return fd, true, nil
}

func (r *DataRoot) release(fd *os.File, transient bool) {
	if transient {
		_ = fd.Close()
	}
}

// Insert atomically (from a reader's perspective) appends an entry
// header, the key bytes and the payload to the writable segment. It
// returns the offset of the entry header, which is never 0 on
// success. Returns 0 on any failure.
func (r *DataRoot) Insert(key, payload []byte) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.readOnly {
		return 0
	}

	if len(key) == 0 || len(key) > MaxKeyLength {
		return 0
	}

	if len(payload) > DataMaxSize {
		return 0
	}

	offset := r.size
	integrity := CRC32C(payload)
	header := newEntryHeader(uint8(len(key)), uint32(len(payload)), r.previous, integrity)

	buf := make([]byte, 0, len(header)+len(key))
	buf = append(buf, header...)
	buf = append(buf, key...)

	if !r.write(buf, false) {
		return 0
	}

	if !r.write(payload, true) {
		return 0
	}

	r.previous = offset
	r.size = offset + uint64(len(buf)) + uint64(len(payload))

	return offset
}

// write wraps every write against the writable fd, checking for short
// writes and optionally running the sync-check. sync must only be
// true on the final write of a logical insert so only one fsync can
// occur per call to Insert.
func (r *DataRoot) write(buf []byte, sync bool) bool {
	n, err := r.datafd.Write(buf)
	if err != nil {
		Logger.Printf("error: data write: %s", err)
		return false
	}

	if n != len(buf) {
		Logger.Print("error: data write: partial write")
		return false
	}

	if sync {
		r.syncCheck()
	}

	return true
}

func (r *DataRoot) syncCheck() {
	switch r.syncMode {
	case SyncAlways:
		r.doSync()
	case SyncTimed:
		if time.Since(r.lastSync) > r.syncPeriod {
			Logger.Print("debug: last sync expired, forcing sync")
			r.doSync()
		}
	}
}

func (r *DataRoot) doSync() {
	_ = r.datafd.Sync()
	r.lastSync = time.Now()
}

// Get reads datalength bytes of payload at offset in segment id. If
// datalength is 0 the entry header is read first to learn it. No key
// verification is performed; use Match for that.
func (r *DataRoot) Get(id uint16, offset uint64, datalength uint32, idlength uint8) ([]byte, error) {
	fd, transient, err := r.acquire(id)
	if err != nil {
		return nil, err
	}
	defer r.release(fd, transient)

	if datalength == 0 {
		buf := make([]byte, EntryHeaderSize)
		n, err := fd.ReadAt(buf, int64(offset))
		if n != EntryHeaderSize || err != nil {
			return nil, ErrIO
		}
		datalength = entryHeader(buf).datalength()
	}

	payload := make([]byte, datalength)
	payloadOffset := offset + uint64(EntryHeaderSize) + uint64(idlength)
	n, err := fd.ReadAt(payload, int64(payloadOffset))
	if n != int(datalength) || (err != nil && uint32(n) != datalength) {
		return nil, ErrIO
	}

	return payload, nil
}

// Check reads the entry header and payload at offset in segment id,
// recomputes CRC32C over the payload and compares it against the
// header's integrity field. It returns ErrIntegrityMismatch if they
// disagree and ErrIO on any read failure; nil means the payload is intact.
func (r *DataRoot) Check(id uint16, offset uint64) error {
	fd, transient, err := r.acquire(id)
	if err != nil {
		return err
	}
	defer r.release(fd, transient)

	hbuf := make([]byte, EntryHeaderSize)
	if n, err := fd.ReadAt(hbuf, int64(offset)); n != EntryHeaderSize || err != nil {
		return ErrIO
	}
	h := entryHeader(hbuf)

	payload := make([]byte, h.datalength())
	payloadOffset := offset + uint64(EntryHeaderSize) + uint64(h.idlength())
	if n, err := fd.ReadAt(payload, int64(payloadOffset)); n != int(h.datalength()) || err != nil {
		return ErrIO
	}

	if CRC32C(payload) != h.integrity() {
		return ErrIntegrityMismatch
	}

	return nil
}

// Match validates that offset plausibly refers to an entry for key: the
// header must be fully readable, idlength must match len(key),
// datalength must be within DataMaxSize, the deleted flag must be
// clear, and the key bytes must match exactly. It returns the header's
// datalength on success, 0 on any failure. Match is the only function
// that honors the deleted flag at read time.
func (r *DataRoot) Match(id uint16, offset uint64, key []byte) uint32 {
	fd, transient, err := r.acquire(id)
	if err != nil {
		return 0
	}
	defer r.release(fd, transient)

	hbuf := make([]byte, EntryHeaderSize)
	if n, err := fd.ReadAt(hbuf, int64(offset)); n != EntryHeaderSize || err != nil {
		return 0
	}
	h := entryHeader(hbuf)

	if int(h.idlength()) != len(key) {
		return 0
	}

	if h.deleted() {
		return 0
	}

	if h.datalength() > DataMaxSize {
		return 0
	}

	keycheck := make([]byte, len(key))
	if n, err := fd.ReadAt(keycheck, int64(offset)+int64(EntryHeaderSize)); n != len(key) || err != nil {
		return 0
	}

	for i := range key {
		if keycheck[i] != key[i] {
			return 0
		}
	}

	return h.datalength()
}

// Delete marks the entry at offset in segment id as logically deleted.
// It is the only operation that mutates an existing byte range: the
// target segment is opened read-write (never in append mode), its
// header is read, flagged and rewritten in place.
func (r *DataRoot) Delete(id uint16, offset uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	fd, err := os.OpenFile(filename(r.dataDir, id), os.O_RDWR, 0600)
	if err != nil {
		Logger.Printf("error: delete: open: %s", err)
		return false
	}
	defer fd.Close()

	hbuf := make([]byte, EntryHeaderSize)
	if n, err := fd.ReadAt(hbuf, int64(offset)); n != EntryHeaderSize || err != nil {
		Logger.Print("error: delete: header read")
		return false
	}

	h := entryHeader(hbuf)
	h.setDeleted()

	if n, err := fd.WriteAt(h, int64(offset)); n != EntryHeaderSize || err != nil {
		Logger.Print("error: delete: header overwrite")
		return false
	}

	return true
}

// Rollover closes the current writable segment and switches to a new
// one, creating it if necessary, and returns its id.
func (r *DataRoot) Rollover(newFileID uint16) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.datafd != nil {
		_ = r.datafd.Close()
		r.datafd = nil
	}

	if err := r.openSegment(newFileID); err != nil {
		return 0, err
	}

	return r.dataid, nil
}

// Emergency makes a best-effort attempt to fsync the writable fd. It
// is meant to be called on shutdown or signal handling and never
// returns an error since there is nothing more a caller can do.
func (r *DataRoot) Emergency() {
	r.mu.RLock()
	fd := r.datafd
	r.mu.RUnlock()

	if fd == nil {
		return
	}

	_ = fd.Sync()
}

// Close releases the writable fd without touching on-disk data.
func (r *DataRoot) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.datafd == nil {
		return nil
	}

	err := r.datafd.Close()
	r.datafd = nil
	return err
}

// isReadOnlyErr reports whether err is the kernel telling us the
// backing filesystem is mounted read-only (EROFS), the condition
// under which the core silently demotes itself instead of failing.
func isReadOnlyErr(err error) bool {
	return errors.Is(err, syscall.EROFS)
}
