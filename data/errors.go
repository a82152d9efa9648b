// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package data

import "errors"

// ErrIO is returned when a syscall (open/read/write/lseek/fsync) fails
// outright. It also covers short reads/writes on a blocking fd, which
// the core treats identically to a hard I/O failure.
var ErrIO = errors.New("data: i/o error")

// ErrIntegrityMismatch is returned by Check when the recomputed CRC32C
// of a payload does not match the integrity field stored in its header.
// It is never conflated with ErrIO: a mismatch is a successful read of
// a corrupt entry, not a failed read.
var ErrIntegrityMismatch = errors.New("data: integrity mismatch")

// ErrReadOnly is returned by write paths once the log has been demoted
// to read-only because its backing filesystem answered EROFS at open.
var ErrReadOnly = errors.New("data: datadir is read-only")

// ErrInvalidSegment is returned when a segment file's magic or version
// does not match what this package writes.
var ErrInvalidSegment = errors.New("data: invalid segment header")
