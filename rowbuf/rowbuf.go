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

// Package rowbuf implements the per-page row arena: encoded rows accumulate
// as tagged packets (described below) until
// a line-count threshold is reached or the page ends, at which point the
// arena is flushed to the job's output, either verbatim (run-length
// transfer) or expanded back to fixed-width rows (uncompressed or bit-image
// transfer).
//
// A packet is one of:
//
//	'G'|'g' <16-bit length, series endianness> <rle body>   -- encoded row
//	'Z'                                                     -- empty row
//
// The arena's backing array is reused across pages (its capacity is
// retained across Flush calls), mirroring the geometric-growth buffer of
// seehuhn.de/go/pdf's ascii85 encoder.
package rowbuf

import (
	"fmt"
	"io"

	"seehuhn.de/go/ptouch/joboptions"
	"seehuhn.de/go/ptouch/rle"
)

// growthIncrement is added on top of doubling when the arena must grow,
// matching the PDF ascii85 encoder's buffer-growth constant.
const growthIncrement = 0x4000

// hardCapBytes is the largest the arena is ever allowed to grow to before
// rowbuf is forced to flush mid-page.
const hardCapBytes = 1_000_000

// PrintInfoFunc builds the per-page "print information" command carrying
// the exact row count about to be flushed. It is only invoked when
// label-preamble is set.
type PrintInfoFunc func(lineCount int) []byte

// Buffer is the row arena for one page. It is safe to reuse across pages:
// Flush empties it and keeps the backing array's capacity.
type Buffer struct {
	arena []byte

	linesWaiting    int
	maxLinesWaiting int

	series       joboptions.Series
	bytesPerLine int
	transferMode joboptions.TransferMode
	labelPreamble bool
	onPrintInfo   PrintInfoFunc

	sink io.Writer
}

// New creates a row buffer writing flushed data to sink.
//
// maxLinesWaiting bounds how many rows accumulate before an automatic
// flush; tests pass a small value to force flushes deterministically, while
// production callers pass math.MaxInt to flush only at page boundaries.
func New(sink io.Writer, series joboptions.Series, bytesPerLine int, transferMode joboptions.TransferMode, labelPreamble bool, onPrintInfo PrintInfoFunc, maxLinesWaiting int) *Buffer {
	return &Buffer{
		sink:            sink,
		series:          series,
		bytesPerLine:    bytesPerLine,
		transferMode:    transferMode,
		labelPreamble:   labelPreamble,
		onPrintInfo:     onPrintInfo,
		maxLinesWaiting: maxLinesWaiting,
	}
}

// OutOfBufferError reports that the arena could not grow to hold a pending
// row, even after a flush.
type OutOfBufferError struct {
	Requested int
	Capacity  int
}

func (err *OutOfBufferError) Error() string {
	return fmt.Sprintf("rowbuf: out of buffer: requested %d bytes, capacity is capped at %d", err.Requested, err.Capacity)
}

// ensure grows the arena so that n more bytes can be appended, flushing
// first if the hard cap would otherwise be exceeded.
func (b *Buffer) ensure(n int) error {
	if len(b.arena)+n <= cap(b.arena) {
		return nil
	}

	newCap := 2*cap(b.arena) + growthIncrement
	if want := len(b.arena) + n; want > newCap {
		newCap = want
	}
	if newCap <= hardCapBytes {
		grown := make([]byte, len(b.arena), newCap)
		copy(grown, b.arena)
		b.arena = grown
		return nil
	}

	if err := b.Flush(); err != nil {
		return err
	}
	if n > hardCapBytes {
		return &OutOfBufferError{Requested: n, Capacity: hardCapBytes}
	}
	if cap(b.arena) < n {
		b.arena = make([]byte, 0, n)
	}
	return nil
}

// StoreRow appends one encoded row. isBackground selects the 'Z' marker
// instead of writing the RLE body; body is ignored when isBackground is
// true.
func (b *Buffer) StoreRow(body []byte, isBackground bool) error {
	if isBackground {
		if err := b.ensure(1); err != nil {
			return err
		}
		b.arena = append(b.arena, 'Z')
	} else {
		total := 1 + 2 + len(body)
		if err := b.ensure(total); err != nil {
			return err
		}
		b.arena = append(b.arena, b.series.Letter())
		var lenBuf [2]byte
		b.series.Endianness().PutUint16(lenBuf[:], uint16(len(body)))
		b.arena = append(b.arena, lenBuf[:]...)
		b.arena = append(b.arena, body...)
	}

	b.linesWaiting++
	if b.linesWaiting >= b.maxLinesWaiting {
		return b.Flush()
	}
	return nil
}

// StoreEmptyRows appends n rows that are uniformly xorMask.
//
// When xorMask is zero this uses the device's 'Z' shortcut, one byte per
// row. When xorMask is non-zero the shortcut would decode to the wrong
// background (the device's "no data" marker does not invert), so n full
// run-length rows are synthesized instead.
func (b *Buffer) StoreEmptyRows(n int, xorMask byte) error {
	if xorMask == 0 {
		for i := 0; i < n; i++ {
			if err := b.StoreRow(nil, true); err != nil {
				return err
			}
		}
		return nil
	}

	body := rle.EncodeUniform(xorMask, b.bytesPerLine)
	for i := 0; i < n; i++ {
		if err := b.StoreRow(body, false); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the accumulated rows to the sink and resets the arena,
// retaining its capacity. It is a no-op if no rows are waiting.
func (b *Buffer) Flush() error {
	if b.linesWaiting == 0 {
		return nil
	}

	if b.labelPreamble && b.onPrintInfo != nil {
		if _, err := b.sink.Write(b.onPrintInfo(b.linesWaiting)); err != nil {
			return err
		}
	}

	var err error
	switch b.transferMode {
	case joboptions.TransferRunLength:
		_, err = b.sink.Write(b.arena)
	case joboptions.TransferUncompressedLine:
		err = b.expandPerRow()
	case joboptions.TransferBitImage:
		err = b.expandBitImage()
	}
	if err != nil {
		return err
	}

	b.arena = b.arena[:0]
	b.linesWaiting = 0
	return nil
}

// expandPerRow expands each packet back to bytesPerLine bytes, writing a
// fixed uncompressed-row header ('g', 0x00, bytesPerLine) ahead of each row,
// mirroring the device's own uncompressed raster-line command.
func (b *Buffer) expandPerRow() error {
	return b.iteratePackets(func(decoded []byte) error {
		header := []byte{'g', 0x00, byte(b.bytesPerLine)}
		if _, err := b.sink.Write(header); err != nil {
			return err
		}
		_, err := b.sink.Write(decoded)
		return err
	})
}

// expandBitImage expands each packet to bytesPerLine bytes with no per-row
// framing: the page-level bit-image header (emitted by the sequencer at
// page open, carrying the total row count) already supplies the framing
// this transfer mode needs.
func (b *Buffer) expandBitImage() error {
	return b.iteratePackets(func(decoded []byte) error {
		_, err := b.sink.Write(decoded)
		return err
	})
}

// iteratePackets walks the arena's tagged packets, decoding each to exactly
// bytesPerLine bytes and invoking fn.
func (b *Buffer) iteratePackets(fn func(decoded []byte) error) error {
	arena := b.arena
	for len(arena) > 0 {
		tag := arena[0]
		if tag == 'Z' {
			arena = arena[1:]
			decoded, err := rle.DecodePadded(nil, b.bytesPerLine)
			if err != nil {
				return err
			}
			if err := fn(decoded); err != nil {
				return err
			}
			continue
		}

		if len(arena) < 3 {
			return fmt.Errorf("rowbuf: truncated packet header")
		}
		length := int(b.series.Endianness().Uint16(arena[1:3]))
		if len(arena) < 3+length {
			return fmt.Errorf("rowbuf: truncated packet body")
		}
		body := arena[3 : 3+length]
		arena = arena[3+length:]

		decoded, err := rle.DecodePadded(body, b.bytesPerLine)
		if err != nil {
			return err
		}
		if err := fn(decoded); err != nil {
			return err
		}
	}
	return nil
}
