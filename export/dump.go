// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package export dumps and restores a store.Store as a snappy-framed
// stream of length-prefixed key/value records, the same streaming
// compression style netlog uses for its message sets.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"

	"github.com/generalzzd/0-db/store"
)

// recordHeaderSize is the length-prefix written before every key and
// value: a uint32 key length followed by a uint32 value length.
const recordHeaderSize = 8

// Dump writes every live key/value pair in st to path as a
// snappy-compressed stream.
func Dump(st *store.Store, path string) (count int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := snappy.NewWriter(f)

	var writeErr error
	st.Each(func(key, value []byte) {
		if writeErr != nil {
			return
		}
		writeErr = writeRecord(w, key, value)
		if writeErr == nil {
			count++
		}
	})

	if writeErr != nil {
		return count, fmt.Errorf("export: write record: %w", writeErr)
	}

	return count, w.Close()
}

func writeRecord(w io.Writer, key, value []byte) error {
	header := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(key)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(value)))

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(key); err != nil {
		return err
	}
	if _, err := w.Write(value); err != nil {
		return err
	}
	return nil
}

// Restore reads a stream written by Dump and Puts every record into
// st, returning the number of records applied.
func Restore(st *store.Store, path string) (count int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("export: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(snappy.NewReader(f))

	for {
		key, value, err := readRecord(r)
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("export: read record %d: %w", count, err)
		}

		if err := st.Put(key, value); err != nil {
			return count, fmt.Errorf("export: restore record %d: %w", count, err)
		}
		count++
	}
}

func readRecord(r io.Reader) (key, value []byte, err error) {
	header := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, err
	}

	keyLen := binary.LittleEndian.Uint32(header[0:4])
	valLen := binary.LittleEndian.Uint32(header[4:8])

	key = make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, nil, fmt.Errorf("truncated key: %w", err)
	}

	value = make([]byte, valLen)
	if _, err := io.ReadFull(r, value); err != nil {
		return nil, nil, fmt.Errorf("truncated value: %w", err)
	}

	return key, value, nil
}
