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

package raster

import "seehuhn.de/go/ptouch/geometry"

// PageHeader describes the geometry of one page of the raster stream, as
// produced by the upstream raster container this module does not itself
// parse (see Reader).
type PageHeader struct {
	ResolutionX float64 // dots per inch
	ResolutionY float64 // dots per inch

	PageBox    geometry.Rect // the full page, in points
	ImagingBox geometry.Rect // the imageable area within PageBox, in points

	RowByteCount  int // bytes per row as delivered by the reader
	RowPixelCount int // pixels per row as delivered by the reader
	RowCount      int // number of rows in this page

	NegativePrint bool
}

// Validate checks the PageHeader invariants: the imaging box must be
// contained in the page box, and the row byte count must be able to hold
// row pixel count pixels.
func (h PageHeader) Validate() error {
	if !geometry.Contains(h.PageBox, h.ImagingBox) {
		return &InvalidHeaderError{Reason: "imaging bbox is not contained in the page box"}
	}
	if h.RowByteCount*8 < h.RowPixelCount {
		return &InvalidHeaderError{Reason: "row byte count is too small for row pixel count"}
	}
	return nil
}

// InvalidHeaderError reports a PageHeader that violates §3's invariants.
type InvalidHeaderError struct {
	Reason string
}

func (err *InvalidHeaderError) Error() string {
	return "invalid page header: " + err.Reason
}

// Reader is the capability set the command sequencer consumes from the
// upstream raster-producer. How the container format is parsed (the actual
// page-header-plus-pixels producer) is out of scope for this module; a
// test implementation constructs synthetic pages from in-memory row
// vectors (see NewSliceReader).
type Reader interface {
	// ReadPageHeader returns the next page's header, or ok=false at the
	// end of the stream.
	ReadPageHeader() (header PageHeader, ok bool, err error)

	// ReadRow reads one row of the current page into buf, which must be
	// exactly the page header's RowByteCount bytes long. It returns
	// rowsRead=0 at the end of the current page's rows.
	ReadRow(buf []byte) (rowsRead int, err error)
}

// SliceReader is a Reader backed by in-memory pages, used by tests and by
// any embedder that already has the raster data in memory.
type SliceReader struct {
	pages []SlicePage
	pos   int
	row   int
}

// SlicePage is one synthetic page for SliceReader.
type SlicePage struct {
	Header PageHeader
	Rows   [][]byte
}

// NewSliceReader returns a Reader that serves pages in order.
func NewSliceReader(pages []SlicePage) *SliceReader {
	return &SliceReader{pages: pages}
}

func (r *SliceReader) ReadPageHeader() (PageHeader, bool, error) {
	if r.pos >= len(r.pages) {
		return PageHeader{}, false, nil
	}
	h := r.pages[r.pos].Header
	r.row = 0
	return h, true, nil
}

func (r *SliceReader) ReadRow(buf []byte) (int, error) {
	page := r.pages[r.pos]
	if r.row >= len(page.Rows) {
		r.pos++
		r.row = 0
		return 0, nil
	}
	row := page.Rows[r.row]
	if len(row) != len(buf) {
		return 0, &ShortRowError{Want: len(buf), Got: len(row)}
	}
	copy(buf, row)
	r.row++
	return 1, nil
}

// ShortRowError reports a row whose length does not match the page
// header's RowByteCount.
type ShortRowError struct {
	Want, Got int
}

func (err *ShortRowError) Error() string {
	return "raster: short row"
}
