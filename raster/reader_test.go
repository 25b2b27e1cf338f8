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

import (
	"testing"

	"seehuhn.de/go/ptouch/geometry"
)

func validHeader() PageHeader {
	return PageHeader{
		ResolutionX:   360,
		ResolutionY:   360,
		PageBox:       geometry.Rect{LLx: 0, LLy: 0, URx: 100, URy: 200},
		ImagingBox:    geometry.Rect{LLx: 5, LLy: 5, URx: 95, URy: 195},
		RowByteCount:  90,
		RowPixelCount: 720,
		RowCount:      2,
	}
}

func TestPageHeaderValidate(t *testing.T) {
	h := validHeader()
	if err := h.Validate(); err != nil {
		t.Errorf("valid header rejected: %v", err)
	}

	bad := h
	bad.ImagingBox = geometry.Rect{LLx: -5, LLy: 5, URx: 95, URy: 195}
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for imaging bbox outside page box")
	}

	bad = h
	bad.RowByteCount = 1
	if err := bad.Validate(); err == nil {
		t.Errorf("expected error for undersized row byte count")
	}
}

func TestSliceReaderServesPagesInOrder(t *testing.T) {
	secondHeader := validHeader()
	secondHeader.RowCount = 1
	pages := []SlicePage{
		{
			Header: validHeader(),
			Rows:   [][]byte{make([]byte, 90), make([]byte, 90)},
		},
		{
			Header: secondHeader,
			Rows:   [][]byte{make([]byte, 90)},
		},
	}
	r := NewSliceReader(pages)

	h, ok, err := r.ReadPageHeader()
	if err != nil || !ok {
		t.Fatalf("ReadPageHeader #1: ok=%v err=%v", ok, err)
	}
	if h.RowCount != 2 {
		t.Errorf("unexpected header: %+v", h)
	}

	buf := make([]byte, 90)
	for i := 0; i < 2; i++ {
		n, err := r.ReadRow(buf)
		if err != nil || n != 1 {
			t.Fatalf("ReadRow #%d: n=%d err=%v", i, n, err)
		}
	}
	n, err := r.ReadRow(buf)
	if err != nil || n != 0 {
		t.Fatalf("expected end-of-page, got n=%d err=%v", n, err)
	}

	h, ok, err = r.ReadPageHeader()
	if err != nil || !ok {
		t.Fatalf("ReadPageHeader #2: ok=%v err=%v", ok, err)
	}
	if h.RowCount != 1 {
		t.Errorf("unexpected second header: %+v", h)
	}

	n, err = r.ReadRow(buf)
	if err != nil || n != 1 {
		t.Fatalf("ReadRow: n=%d err=%v", n, err)
	}
	n, err = r.ReadRow(buf)
	if err != nil || n != 0 {
		t.Fatalf("expected end-of-page, got n=%d err=%v", n, err)
	}

	_, ok, err = r.ReadPageHeader()
	if err != nil || ok {
		t.Fatalf("expected end-of-stream, got ok=%v err=%v", ok, err)
	}
}

func TestSliceReaderShortRow(t *testing.T) {
	pages := []SlicePage{
		{Header: validHeader(), Rows: [][]byte{make([]byte, 10)}},
	}
	r := NewSliceReader(pages)
	if _, ok, err := r.ReadPageHeader(); err != nil || !ok {
		t.Fatalf("ReadPageHeader: ok=%v err=%v", ok, err)
	}
	buf := make([]byte, 90)
	_, err := r.ReadRow(buf)
	if err == nil {
		t.Fatalf("expected ShortRowError")
	}
	if _, ok := err.(*ShortRowError); !ok {
		t.Errorf("expected *ShortRowError, got %T", err)
	}
}
