// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package store

import (
	"os"
	"testing"
)

func tempStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "zdb-store-")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := Open(dir, opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func TestPutGetDelete(t *testing.T) {
	st := tempStore(t)

	if err := st.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatal(err)
	}

	got, err := st.Get([]byte("k1"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}

	if err := st.Delete([]byte("k1")); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Get([]byte("k1")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	st := tempStore(t)

	if _, err := st.Get([]byte("nope")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckPassesOnIntactEntry(t *testing.T) {
	st := tempStore(t)

	if err := st.Put([]byte("k1"), []byte("value")); err != nil {
		t.Fatal(err)
	}

	if err := st.Check([]byte("k1")); err != nil {
		t.Fatalf("expected clean check, got %v", err)
	}
}

func TestEachSkipsDeleted(t *testing.T) {
	st := tempStore(t)

	if err := st.Put([]byte("keep"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := st.Put([]byte("gone"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	if err := st.Delete([]byte("gone")); err != nil {
		t.Fatal(err)
	}

	var seen []string
	st.Each(func(key, value []byte) {
		seen = append(seen, string(key))
	})

	if len(seen) != 1 || seen[0] != "keep" {
		t.Fatalf("expected only [keep], got %v", seen)
	}
}

func TestRolloverSwitchesSegment(t *testing.T) {
	st := tempStore(t)

	if err := st.Put([]byte("before"), []byte("v1")); err != nil {
		t.Fatal(err)
	}

	prev, err := st.Rollover(1)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 1 {
		t.Fatalf("expected rollover to report new id 1, got %d", prev)
	}

	if err := st.Put([]byte("after"), []byte("v2")); err != nil {
		t.Fatal(err)
	}

	got, err := st.Get([]byte("before"))
	if err != nil {
		t.Fatalf("expected entry from old segment still readable: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}
}
