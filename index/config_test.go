// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

import "testing"

func TestConfigureBucketBitsLocksAfterFirstUse(t *testing.T) {
	defaultBitsMu.Lock()
	defaultBits = DefaultBucketBits
	defaultBitsUsed = false
	defaultBitsMu.Unlock()

	if err := ConfigureBucketBits(4); err != nil {
		t.Fatalf("expected first configure to succeed, got %v", err)
	}

	a, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	if a.Bits() != 4 {
		t.Fatalf("expected configured bits 4, got %d", a.Bits())
	}

	if err := ConfigureBucketBits(8); err != ErrBucketBitsLocked {
		t.Fatalf("expected ErrBucketBitsLocked after NewDefault, got %v", err)
	}
}

func TestConfigureBucketBitsRejectsOutOfRange(t *testing.T) {
	defaultBitsMu.Lock()
	defaultBits = DefaultBucketBits
	defaultBitsUsed = false
	defaultBitsMu.Unlock()

	if err := ConfigureBucketBits(0); err == nil {
		t.Fatal("expected error for out-of-range bits")
	}
}
