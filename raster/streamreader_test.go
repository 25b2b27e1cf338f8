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
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func appendF64(buf []byte, v float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return append(buf, b[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

func encodeStreamPage(t *testing.T, resX, resY float64, box [4]float64, rowByteCount, rowPixelCount, rowCount int, negative bool, rows [][]byte) []byte {
	t.Helper()
	var buf []byte
	buf = appendF64(buf, resX)
	buf = appendF64(buf, resY)
	for _, v := range box {
		buf = appendF64(buf, v)
	}
	for _, v := range box {
		buf = appendF64(buf, v)
	}
	buf = appendI32(buf, int32(rowByteCount))
	buf = appendI32(buf, int32(rowPixelCount))
	buf = appendI32(buf, int32(rowCount))
	if negative {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	if len(buf) != streamHeaderLen {
		t.Fatalf("test helper built a %d-byte header, want %d", len(buf), streamHeaderLen)
	}
	for _, row := range rows {
		buf = append(buf, row...)
	}
	return buf
}

func TestStreamReaderRoundTripsOnePage(t *testing.T) {
	rows := [][]byte{{0x01, 0x02}, {0x03, 0x04}}
	data := encodeStreamPage(t, 300, 300, [4]float64{0, 0, 100, 100}, 2, 16, 2, false, rows)

	r := NewStreamReader(bytes.NewReader(data))
	header, ok, err := r.ReadPageHeader()
	if err != nil || !ok {
		t.Fatalf("ReadPageHeader: ok=%v err=%v", ok, err)
	}
	if header.ResolutionX != 300 || header.RowByteCount != 2 || header.RowCount != 2 {
		t.Fatalf("unexpected header: %#v", header)
	}

	for _, want := range rows {
		got := make([]byte, 2)
		n, err := r.ReadRow(got)
		if err != nil || n != 1 {
			t.Fatalf("ReadRow: n=%d err=%v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("expected row %v, got %v", want, got)
		}
	}

	n, err := r.ReadRow(make([]byte, 2))
	if err != nil || n != 0 {
		t.Fatalf("expected end-of-page, got n=%d err=%v", n, err)
	}

	_, ok, err = r.ReadPageHeader()
	if err != nil || ok {
		t.Fatalf("expected end-of-stream, got ok=%v err=%v", ok, err)
	}
}
