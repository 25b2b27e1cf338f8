// seehuhn.de/go/ptouch - a streaming encoder for Brother P-touch/QL raster jobs
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ptouch

import "sync/atomic"

// AbortToken replaces a POSIX signal handler that would write a bare 0x1a
// and exit: a signal handler (or any other goroutine) calls Abort, and the
// sequencer polls Aborted between rows. On the next poll the sequencer
// discards whatever rows are already buffered, writes the eject byte, and
// returns -- no partial flush is attempted, since the device resets itself
// on the next ESC @.
type AbortToken struct {
	flag atomic.Bool
}

// Abort requests that the running job stop at the next row boundary. It is
// safe to call from a signal handler.
func (t *AbortToken) Abort() {
	t.flag.Store(true)
}

// Aborted reports whether Abort has been called.
func (t *AbortToken) Aborted() bool {
	return t.flag.Load()
}

// WarnFunc receives a human-readable warning for a non-fatal condition,
// such as a clamped page dimension (§7's Overflow class).
type WarnFunc func(msg string)
