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

import (
	"fmt"

	"seehuhn.de/go/ptouch/joboptions"
	"seehuhn.de/go/ptouch/rowbuf"
)

// ConfigError reports an invalid job option: an unknown key, a type
// mismatch, a value out of range, or a cross-field invariant violation. It
// is returned by [joboptions.Parse] and [joboptions.JobOptions.Validate];
// aliased here so callers of this package need not import joboptions just
// to type-switch on it.
type ConfigError = joboptions.ConfigError

// OutOfBufferError reports that the row arena could not grow to hold a
// pending row even after a flush.
type OutOfBufferError = rowbuf.OutOfBufferError

// ReaderError wraps a failure returned by the raster.Reader the sequencer
// is driving: a malformed page header or a short row.
type ReaderError struct {
	Err error
}

func (err *ReaderError) Error() string {
	return fmt.Sprintf("ptouch: reader error: %v", err.Err)
}

func (err *ReaderError) Unwrap() error {
	return err.Err
}
