// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package store composes the data log and the bucket index into the
// key/value engine a process actually boots, the same role NetLog
// plays wrapping BigLog with topic management.
package store

import (
	"log"
	"os"
	"time"

	"github.com/generalzzd/0-db/data"
	"github.com/generalzzd/0-db/index"
)

// Logger is the logger instance used by the store in case of error.
var Logger = log.New(os.Stderr, "STORE ", log.LstdFlags)

// Option configures a Store at construction time.
type Option func(*Store)

// WithSyncAlways forces an fsync after every insert.
func WithSyncAlways() Option {
	return func(s *Store) { s.dataOpts = append(s.dataOpts, data.WithSyncAlways()) }
}

// WithSyncTimed enables sync-timed durability with the given period.
func WithSyncTimed(period time.Duration) Option {
	return func(s *Store) { s.dataOpts = append(s.dataOpts, data.WithSyncTimed(period)) }
}

// WithBucketBits sets the bucket-count exponent for the in-memory
// index built at Open; the index is not resized afterwards.
func WithBucketBits(bits uint8) Option {
	return func(s *Store) { s.bucketBits = bits }
}

// Store is the top-level handle a caller opens: one data segment set
// on disk plus the in-memory bucket index that locates entries in it.
type Store struct {
	dataDir    string
	bucketBits uint8
	dataOpts   []data.Option

	root  *data.DataRoot
	index *index.BucketArray
	ns    *index.Namespace
}

// Open loads (or creates) the segment at dataDir/fileid 0 and builds a
// fresh, empty in-memory index. Entries already on disk are not
// replayed into the index, so keys written before Open are not found
// by Get, Check, Delete or Each.
func Open(dataDir string, opts ...Option) (*Store, error) {
	s := &Store{
		dataDir:    dataDir,
		bucketBits: index.DefaultBucketBits,
		ns:         index.NewNamespace("default"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	root, err := data.Open(dataDir, 0, s.dataOpts...)
	if err != nil {
		return nil, err
	}
	s.root = root

	idx, err := index.NewBucketArray(s.bucketBits)
	if err != nil {
		return nil, err
	}
	s.index = idx

	return s, nil
}

// Put writes key/value to the data log and records its location in
// the index, replacing any prior entry for the same key.
func (s *Store) Put(key, value []byte) error {
	if s.root.ReadOnly() {
		return data.ErrReadOnly
	}

	offset := s.root.Insert(key, value)
	if offset == 0 {
		return data.ErrIO
	}

	s.index.Put(s.ns, key, s.root.DataID(), offset, uint32(len(value)))
	return nil
}

// Get returns the current value for key, or ErrNotFound if absent or
// tombstoned.
func (s *Store) Get(key []byte) ([]byte, error) {
	entry := s.index.Get(s.ns, key)
	if entry == nil || entry.Deleted() {
		return nil, ErrNotFound
	}

	return s.root.Get(entry.SegmentID, entry.Offset, entry.DataLength, uint8(len(key)))
}

// Delete tombstones key on disk and removes it from the index.
func (s *Store) Delete(key []byte) error {
	entry := s.index.Get(s.ns, key)
	if entry == nil {
		return ErrNotFound
	}

	if !s.root.Delete(entry.SegmentID, entry.Offset) {
		return data.ErrIO
	}

	s.index.Delete(s.ns, key)
	return nil
}

// Check verifies the stored payload for key against its CRC32C header
// without returning the payload.
func (s *Store) Check(key []byte) error {
	entry := s.index.Get(s.ns, key)
	if entry == nil {
		return ErrNotFound
	}
	return s.root.Check(entry.SegmentID, entry.Offset)
}

// BucketCount reports the number of bucket slots in the index (2^bits),
// allocated or not, for admin/stats use.
func (s *Store) BucketCount() int { return s.index.Len() }

// Walk invokes fn once per allocated bucket, for admin/stats use.
func (s *Store) Walk(fn func(index.BucketInfo)) { s.index.Walk(fn) }

// VerifyChain exposes the index's chain-integrity check for bucket id.
func (s *Store) VerifyChain(id uint32) (ok bool, length int, err error) {
	return s.index.VerifyChain(id)
}

// Each invokes fn once per live key, fetching its current value from
// the data log. Used by the export/dump tool.
func (s *Store) Each(fn func(key, value []byte)) {
	s.index.Each(func(e *index.Entry) {
		if e.Deleted() {
			return
		}
		value, err := s.root.Get(e.SegmentID, e.Offset, e.DataLength, uint8(len(e.Key)))
		if err != nil {
			Logger.Printf("error: export: read %q: %s", e.Key, err)
			return
		}
		fn(e.Key, value)
	})
}

// Rollover closes the current segment and opens newFileID, returning
// the id of the segment that is now writable.
func (s *Store) Rollover(newFileID uint16) (uint16, error) {
	return s.root.Rollover(newFileID)
}

// Sync forces a fsync on the active segment ahead of a clean shutdown.
func (s *Store) Sync() {
	s.root.Emergency()
}

// Close releases the store's file descriptor and frees the index.
func (s *Store) Close() error {
	s.index.FreeAll()
	return s.root.Close()
}
