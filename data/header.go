// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package data

import (
	"encoding/binary"
	"time"
)

// Segment header layout (all fields little-endian, packed):
//
//	magic    4 bytes  "DAT0"
//	version  1 byte
//	created  4 bytes  unix seconds
//	fileid   2 bytes
//
// "opened" from the data model is a runtime-only concept (always zero,
// reserved for a future feature) and is not part of the on-disk layout.
const (
	segMagicPos   = 0
	segVersionPos = segMagicPos + 4
	segCreatedPos = segVersionPos + 1
	segFileidPos  = segCreatedPos + 4
	segHeaderSize = segFileidPos + 2
)

// SegmentMagic is the 4-byte preamble every segment file begins with.
var SegmentMagic = [4]byte{'D', 'A', 'T', '0'}

// SegmentVersion is the on-disk format version written by this package.
const SegmentVersion = 1

var enc = binary.LittleEndian

// SegmentHeaderSize is the fixed byte size of a segment preamble.
const SegmentHeaderSize = segHeaderSize

// segmentHeader is the packed preamble written once at segment creation.
type segmentHeader []byte

func newSegmentHeader(fileid uint16) segmentHeader {
	buf := make([]byte, segHeaderSize)
	copy(buf[segMagicPos:segMagicPos+4], SegmentMagic[:])
	buf[segVersionPos] = SegmentVersion
	enc.PutUint32(buf[segCreatedPos:segCreatedPos+4], uint32(time.Now().Unix()))
	enc.PutUint16(buf[segFileidPos:segFileidPos+2], fileid)
	return segmentHeader(buf)
}

func (h segmentHeader) magicOK() bool {
	return string(h[segMagicPos:segMagicPos+4]) == string(SegmentMagic[:])
}

func (h segmentHeader) version() uint8 {
	return h[segVersionPos]
}

func (h segmentHeader) created() uint32 {
	return enc.Uint32(h[segCreatedPos : segCreatedPos+4])
}

func (h segmentHeader) fileid() uint16 {
	return enc.Uint16(h[segFileidPos : segFileidPos+2])
}

// Entry header layout (all fields little-endian, packed):
//
//	idlength    1 byte   > 0
//	datalength  4 bytes  <= DataMaxSize
//	previous    8 bytes  offset of prior entry in same segment
//	integrity   4 bytes  CRC32C of payload
//	flags       1 byte   bit 0 = deleted
//	_reserved   1 byte   always 0, keeps the header at the documented 19 bytes
//	id          idlength bytes
const (
	entIDLenPos     = 0
	entDataLenPos   = entIDLenPos + 1
	entPreviousPos  = entDataLenPos + 4
	entIntegrityPos = entPreviousPos + 8
	entFlagsPos     = entIntegrityPos + 4
	entReservedPos  = entFlagsPos + 1
	entHeaderSize   = entReservedPos + 1
)

// EntryHeaderSize is the fixed portion of an entry header, excluding the key bytes.
const EntryHeaderSize = entHeaderSize

// FlagDeleted marks an entry as logically tombstoned.
const FlagDeleted = 1 << 0

// entryHeader is the packed preamble written before every key+payload pair.
type entryHeader []byte

func newEntryHeader(idlength uint8, datalength uint32, previous uint64, integrity uint32) entryHeader {
	buf := make([]byte, entHeaderSize)
	buf[entIDLenPos] = idlength
	enc.PutUint32(buf[entDataLenPos:entDataLenPos+4], datalength)
	enc.PutUint64(buf[entPreviousPos:entPreviousPos+8], previous)
	enc.PutUint32(buf[entIntegrityPos:entIntegrityPos+4], integrity)
	buf[entFlagsPos] = 0
	buf[entReservedPos] = 0
	return entryHeader(buf)
}

func (h entryHeader) idlength() uint8 {
	return h[entIDLenPos]
}

func (h entryHeader) datalength() uint32 {
	return enc.Uint32(h[entDataLenPos : entDataLenPos+4])
}

func (h entryHeader) previous() uint64 {
	return enc.Uint64(h[entPreviousPos : entPreviousPos+8])
}

func (h entryHeader) integrity() uint32 {
	return enc.Uint32(h[entIntegrityPos : entIntegrityPos+4])
}

func (h entryHeader) flags() uint8 {
	return h[entFlagsPos]
}

func (h entryHeader) setDeleted() {
	h[entFlagsPos] |= FlagDeleted
}

func (h entryHeader) deleted() bool {
	return h[entFlagsPos]&FlagDeleted != 0
}
