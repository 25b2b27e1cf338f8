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
	"encoding/binary"
	"io"
	"math"

	"seehuhn.de/go/ptouch/geometry"
)

// StreamReader is a concrete Reader over a simple on-disk page container:
// repeated {header, rows...} records, each header a fixed-size little-endian
// struct followed by RowByteCount*RowCount raw pixel bytes. It stands in for
// the real upstream raster-producer container (out of scope for this
// module) so that cmd/ptouchraster has something to read.
type StreamReader struct {
	src       io.Reader
	remaining int
}

// NewStreamReader creates a Reader pulling pages from src.
func NewStreamReader(src io.Reader) *StreamReader {
	return &StreamReader{src: src}
}

// streamHeaderLen is the byte size of the fixed-width on-disk header:
// 2 float64 resolutions, 4 float64 bbox corners for PageBox, 4 for
// ImagingBox, 3 int32 counts, 1 bool byte.
const streamHeaderLen = 8*2 + 8*4*2 + 4*3 + 1

func (r *StreamReader) ReadPageHeader() (PageHeader, bool, error) {
	var buf [streamHeaderLen]byte
	_, err := io.ReadFull(r.src, buf[:])
	if err == io.EOF {
		return PageHeader{}, false, nil
	}
	if err != nil {
		return PageHeader{}, false, err
	}

	readF64 := func(off int) float64 {
		bits := binary.LittleEndian.Uint64(buf[off:])
		return math.Float64frombits(bits)
	}
	readI32 := func(off int) int {
		return int(int32(binary.LittleEndian.Uint32(buf[off:])))
	}
	readRect := func(off int) geometry.Rect {
		return geometry.Rect{
			LLx: readF64(off),
			LLy: readF64(off + 8),
			URx: readF64(off + 16),
			URy: readF64(off + 24),
		}
	}

	h := PageHeader{
		ResolutionX:   readF64(0),
		ResolutionY:   readF64(8),
		PageBox:       readRect(16),
		ImagingBox:    readRect(48),
		RowByteCount:  readI32(80),
		RowPixelCount: readI32(84),
		RowCount:      readI32(88),
		NegativePrint: buf[92] != 0,
	}
	r.remaining = h.RowCount
	return h, true, nil
}

func (r *StreamReader) ReadRow(buf []byte) (int, error) {
	if r.remaining == 0 {
		return 0, nil
	}
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return 0, err
	}
	r.remaining--
	return 1, nil
}
