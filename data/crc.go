// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package data

import "hash/crc32"

// castagnoli is shared by the data log (payload integrity) and by the
// index package (key hashing) so both sides of the core agree on one
// CRC32C implementation.
//
// hash/crc32 dispatches to the SSE4.2/ARM64 CRC32C instructions at
// runtime when available, without hand-rolling the intrinsics the
// original C source used.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the Castagnoli CRC32 checksum of buf.
func CRC32C(buf []byte) uint32 {
	return crc32.Checksum(buf, castagnoli)
}
