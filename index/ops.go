// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

// NewEntry builds an Entry for key, taking its own copy of the key
// bytes since the index must not retain the caller's buffer.
func NewEntry(ns *Namespace, key []byte, segmentID uint16, offset uint64, datalength uint32) *Entry {
	owned := make([]byte, len(key))
	copy(owned, key)

	return &Entry{
		Namespace:  ns,
		Key:        owned,
		SegmentID:  segmentID,
		Offset:     offset,
		DataLength: datalength,
	}
}

// Put records a new location for key, replacing any prior entry for
// the same (namespace, key) pair. It returns the entry that was
// inserted. The find-remove-append sequence runs under one held write
// lock, so a concurrent Put/Delete for the same key cannot interleave
// with it.
func (a *BucketArray) Put(ns *Namespace, key []byte, segmentID uint16, offset uint64, datalength uint32) *Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.findAndRemoveLocked(ns, key)

	entry := NewEntry(ns, key, segmentID, offset, datalength)
	a.appendLocked(entry)
	return entry
}

// Delete removes the entry for (namespace, key) if present and
// reports whether anything was removed.
func (a *BucketArray) Delete(ns *Namespace, key []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.findAndRemoveLocked(ns, key)
}

// findAndRemoveLocked walks the bucket for key looking for an entry in
// namespace ns, removing it if found. Callers must hold a.mu for
// writing for the duration of the walk and the removal, so no other
// writer can observe or act on a half-updated chain.
func (a *BucketArray) findAndRemoveLocked(ns *Namespace, key []byte) bool {
	b := a.bucket(a.bucketID(key))
	if b == nil {
		return false
	}

	var previous *Entry
	for e := b.list; e != nil; e = e.next {
		if len(e.Key) == len(key) && e.Namespace == ns && string(e.Key) == string(key) {
			a.removeLocked(key, e, previous)
			return true
		}
		previous = e
	}

	return false
}
