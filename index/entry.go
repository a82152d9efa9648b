// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

// Namespace is an opaque identifier scoping keyspaces that share a
// single bucket array. Namespaces are compared by pointer identity,
// never by value, so two namespaces with the same label are distinct
// unless they share the same *Namespace.
type Namespace struct {
	label string
}

// NewNamespace mints a new, distinct namespace token. label is purely
// for diagnostics; it plays no part in equality.
func NewNamespace(label string) *Namespace {
	return &Namespace{label: label}
}

// String returns the namespace's diagnostic label.
func (n *Namespace) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.label
}

// Entry locates one key's entry on disk. Entries are created on first
// insert and unlinked (but not necessarily freed by the caller) on
// deletion.
type Entry struct {
	Namespace  *Namespace
	Key        []byte
	SegmentID  uint16
	Offset     uint64
	DataLength uint32
	Flags      uint8

	next *Entry
}

// FlagDeleted mirrors the data log's tombstone bit so callers can keep
// an index entry's flags in sync with its on-disk header without
// importing the data package for just one constant.
const FlagDeleted = 1 << 0

// Deleted reports whether the tombstone bit is set on this entry.
func (e *Entry) Deleted() bool {
	return e.Flags&FlagDeleted != 0
}
