// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

import (
	"fmt"
	"sync"
)

// The original engine keeps bucket-count and mask as mutable process
// globals, settable once before the first allocation. We keep the
// same one-shot-before-init contract but drop the mutable global:
// ConfigureBucketBits just changes the default NewDefault() will
// use, and is itself guarded so a careless second call can't silently
// resize anything after boot.
var (
	defaultBitsMu   sync.Mutex
	defaultBits     uint8 = DefaultBucketBits
	defaultBitsUsed bool
)

// ConfigureBucketBits sets the bucket-count exponent that NewDefault
// will use. It must be called, at most once, before the first call to
// NewDefault; calling it afterwards returns ErrBucketBitsLocked
// without changing anything, since resizing an already-allocated
// index is explicitly unsupported.
func ConfigureBucketBits(bits uint8) error {
	defaultBitsMu.Lock()
	defer defaultBitsMu.Unlock()

	if defaultBitsUsed {
		return ErrBucketBitsLocked
	}

	if bits < MinBucketBits || bits > MaxBucketBits {
		return fmt.Errorf("index: bucket_bits %d out of range [%d,%d]", bits, MinBucketBits, MaxBucketBits)
	}

	defaultBits = bits
	return nil
}

// NewDefault allocates a BucketArray sized by the current default
// (DefaultBucketBits unless changed once via ConfigureBucketBits) and
// locks that default in for the remainder of the process.
func NewDefault() (*BucketArray, error) {
	defaultBitsMu.Lock()
	bits := defaultBits
	defaultBitsUsed = true
	defaultBitsMu.Unlock()

	return NewBucketArray(bits)
}
