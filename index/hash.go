// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package index implements the in-memory bucket index: a fixed-size,
// power-of-two array of lazily allocated hash chains mapping keys to
// their location in the data log.
package index

import "github.com/generalzzd/0-db/data"

// DefaultBucketBits is the default index size exponent (2^24 slots).
const DefaultBucketBits = 24

// MinBucketBits and MaxBucketBits bound the one-time sizing configuration.
const (
	MinBucketBits = 1
	MaxBucketBits = 32
)

// hashKey returns the bucket id for key under the given mask. It reuses
// the data log's CRC32C implementation so hashing and payload integrity
// checking share one polynomial.
func hashKey(key []byte, mask uint32) uint32 {
	return data.CRC32C(key) & mask
}
