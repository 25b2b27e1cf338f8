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
	"bytes"
	"errors"
	"testing"

	"seehuhn.de/go/ptouch/geometry"
	"seehuhn.de/go/ptouch/joboptions"
	"seehuhn.de/go/ptouch/raster"
)

func noMarginHeader(rowByteCount, rowCount int) raster.PageHeader {
	box := geometry.Rect{LLx: 0, LLy: 0, URx: 100, URy: 100}
	return raster.PageHeader{
		ResolutionX:   300,
		ResolutionY:   300,
		PageBox:       box,
		ImagingBox:    box,
		RowByteCount:  rowByteCount,
		RowPixelCount: rowByteCount * 8,
		RowCount:      rowCount,
	}
}

// TestScenario1BlankPage implements spec.md §8 end-to-end scenario 1.
func TestScenario1BlankPage(t *testing.T) {
	opts, err := joboptions.Parse("ql-series bytes-per-line=90")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	header := noMarginHeader(90, 10)
	rows := make([][]byte, 10)
	for i := range rows {
		rows[i] = make([]byte, 90)
	}
	reader := raster.NewSliceReader([]raster.SlicePage{{Header: header, Rows: rows}})

	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()

	prefix := append(bytes.Repeat([]byte{0x00}, recoveryPadLen), esc, '@')
	if !bytes.HasPrefix(got, prefix) {
		t.Errorf("expected job to start with 350 zero bytes then ESC @")
	}

	if !bytes.Contains(got, []byte{'M', 0x02}) {
		t.Errorf("expected run-length compression select (M 0x02)")
	}

	if !bytes.Contains(got, bytes.Repeat([]byte{'Z'}, 10)) {
		t.Errorf("expected ten consecutive Z tokens for the blank page")
	}

	if !bytes.Contains(got, []byte{esc, 'i', 'd', 0x00, 0x00}) {
		t.Errorf("expected ESC i d 0 0 (zero margin, continuous tape)")
	}

	if got[len(got)-1] != eject {
		t.Errorf("job should end with the eject byte, got %#x", got[len(got)-1])
	}
	if bytes.Contains(got, []byte{formFeed}) {
		t.Errorf("a single-page job must not emit a form feed")
	}
}

// TestScenario2TwoPagePTSeries implements spec.md §8 end-to-end scenario 2.
func TestScenario2TwoPagePTSeries(t *testing.T) {
	opts, err := joboptions.Parse("pt-series legacy-xfer-mode=1 bytes-per-line=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	header := noMarginHeader(2, 3)
	row := []byte{0x00, 0xFF}
	rows := [][]byte{row, row, row}
	pages := []raster.SlicePage{
		{Header: header, Rows: rows},
		{Header: header, Rows: rows},
	}
	reader := raster.NewSliceReader(pages)

	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()

	if !bytes.Contains(got, []byte{esc, '@', esc, 'i', 'R', 0x01}) {
		t.Errorf("expected ESC i R 0x01 immediately after ESC @")
	}

	if !bytes.Contains(got, []byte{'G'}) {
		t.Errorf("pt-series rows must use the 'G' tag")
	}
	if bytes.Contains(got, []byte{'g'}) {
		t.Errorf("pt-series job must not use the 'g' tag")
	}

	if n := bytes.Count(got, []byte{formFeed}); n != 1 {
		t.Errorf("expected exactly one form feed between the two pages, got %d", n)
	}
	if got[len(got)-1] != eject {
		t.Errorf("job should end with the eject byte, got %#x", got[len(got)-1])
	}
	if n := bytes.Count(got, []byte{eject}); n != 1 {
		t.Errorf("eject byte must appear exactly once, got %d", n)
	}
}

// TestScenario5NegativePrintBackgroundRows implements spec.md §8 end-to-end
// scenario 5: background rows under negative-print must be encoded as real
// 0xFF-filled RLE rows, never as the 'Z' token (which always decodes to an
// all-zero row).
func TestScenario5NegativePrintBackgroundRows(t *testing.T) {
	opts, err := joboptions.Parse("ql-series bytes-per-line=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	header := noMarginHeader(2, 5)
	header.NegativePrint = true
	rows := make([][]byte, 5)
	for i := range rows {
		rows[i] = []byte{0x00, 0x00}
	}
	reader := raster.NewSliceReader([]raster.SlicePage{{Header: header, Rows: rows}})

	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()
	if bytes.Contains(got, []byte{'Z'}) {
		t.Errorf("negative-print background rows must not use the 'Z' token, got %v", got)
	}
	if n := bytes.Count(got, []byte{'g'}); n != 5 {
		t.Errorf("expected 5 real raster-line packets, got %d in %v", n, got)
	}
}

// TestConcatPagesSuppressesFormFeed implements spec.md §8 end-to-end
// scenario 6.
func TestConcatPagesSuppressesFormFeed(t *testing.T) {
	opts, err := joboptions.Parse("concat-pages bytes-per-line=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	header := noMarginHeader(2, 2)
	rows := [][]byte{{0x00, 0xFF}, {0x00, 0xFF}}
	pages := []raster.SlicePage{
		{Header: header, Rows: rows},
		{Header: header, Rows: rows},
	}
	reader := raster.NewSliceReader(pages)

	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()
	if bytes.Contains(got, []byte{formFeed}) {
		t.Errorf("concat-pages job must not emit a form feed, got %v", got)
	}
	if n := bytes.Count(got, []byte{eject}); n != 1 {
		t.Errorf("concat-pages job must emit exactly one eject byte, got %d", n)
	}
}

func TestEscAtAppearsExactlyOncePerJob(t *testing.T) {
	opts, err := joboptions.Parse("bytes-per-line=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	header := noMarginHeader(2, 1)
	reader := raster.NewSliceReader([]raster.SlicePage{
		{Header: header, Rows: [][]byte{{0x00, 0x00}}},
	})

	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()
	if n := bytes.Count(got, []byte{esc, '@'}); n != 1 {
		t.Errorf("ESC @ must appear exactly once, got %d", n)
	}
}

func TestAbortDiscardsBufferedRowsAndEjects(t *testing.T) {
	opts, err := joboptions.Parse("bytes-per-line=2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	header := noMarginHeader(2, 5)
	rows := make([][]byte, 5)
	for i := range rows {
		rows[i] = []byte{0x01, 0x02}
	}
	reader := raster.NewSliceReader([]raster.SlicePage{{Header: header, Rows: rows}})

	var out bytes.Buffer
	token := &AbortToken{}
	token.Abort()
	seq := New(&out, opts)
	seq.Abort = token
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := out.Bytes()
	if got[len(got)-1] != eject {
		t.Fatalf("aborted job should still end with the eject byte")
	}
	if bytes.Contains(got, []byte{'G'}) || bytes.Contains(got, []byte{'g'}) {
		t.Errorf("aborted job must discard buffered rows, got %v", got)
	}
}

func TestRowWiderThanBytesPerLineIsRejected(t *testing.T) {
	opts, err := joboptions.Parse("bytes-per-line=1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	header := noMarginHeader(2, 1)
	header.RowPixelCount = 16
	reader := raster.NewSliceReader([]raster.SlicePage{
		{Header: header, Rows: [][]byte{{0x00, 0x00}}},
	})

	var out bytes.Buffer
	seq := New(&out, opts)
	err = seq.Run(reader)
	var configErr *joboptions.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected a *joboptions.ConfigError, got %T: %v", err, err)
	}
}

func TestZeroPageJobEmitsNothing(t *testing.T) {
	opts, err := joboptions.Parse("")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reader := raster.NewSliceReader(nil)
	var out bytes.Buffer
	seq := New(&out, opts)
	if err := seq.Run(reader); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("a zero-page job should write nothing, got %v", out.Bytes())
	}
}
