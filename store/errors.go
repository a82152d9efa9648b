// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package store

import "errors"

// ErrNotFound is returned when a key has no live entry in the index,
// either because it was never written or because it was deleted.
var ErrNotFound = errors.New("store: key not found")
