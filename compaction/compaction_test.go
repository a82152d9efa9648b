// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package compaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/generalzzd/0-db/data"
)

func tempSegment(t *testing.T) (dir string, root *data.DataRoot) {
	t.Helper()
	dir, err := os.MkdirTemp("", "zdb-compact-")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	root, err = data.Open(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { root.Close() })

	return dir, root
}

func TestCompactDropsDeletedEntries(t *testing.T) {
	dir, root := tempSegment(t)

	off1 := root.Insert([]byte("keep-me"), []byte("v1"))
	off2 := root.Insert([]byte("drop-me"), []byte("v2"))
	off3 := root.Insert([]byte("keep-too"), []byte("v3"))

	if off1 == 0 || off2 == 0 || off3 == 0 {
		t.Fatal("setup inserts failed")
	}

	if !root.Delete(root.DataID(), off2) {
		t.Fatal("delete failed")
	}
	if err := root.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "zdb-data-00000")
	relocations, stats, err := Compact(path)
	if err != nil {
		t.Fatal(err)
	}

	if stats.EntriesKept != 2 || stats.EntriesDropped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(relocations) != 2 {
		t.Fatalf("expected 2 relocations, got %d", len(relocations))
	}

	reopened, err := data.Open(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	for _, r := range relocations {
		dl := reopened.Match(0, r.NewOffset, r.Key)
		if dl == 0 {
			t.Fatalf("relocated entry for key %q not matchable at new offset %d", r.Key, r.NewOffset)
		}
	}
}

func TestCompactEmptySegment(t *testing.T) {
	dir, root := tempSegment(t)
	if err := root.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "zdb-data-00000")
	relocations, stats, err := Compact(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(relocations) != 0 || stats.EntriesKept != 0 {
		t.Fatalf("expected no-op compaction on header-only segment, got relocations=%d stats=%+v", len(relocations), stats)
	}
}
