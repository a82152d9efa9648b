// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package index

import "errors"

// ErrBucketBitsLocked is returned by ConfigureBucketBits once the
// default sizing has already been consumed by NewDefault.
var ErrBucketBitsLocked = errors.New("index: bucket_bits already initialized")
