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

// Package render turns a decoded row stream into viewable images, separate
// from the decoder itself so that ptouchdump can skip rendering entirely
// when no --write prefix is given.
package render

import (
	"image"
	"image/color"
	"io"

	"golang.org/x/image/bmp"
)

// palette is black-on-white: bit 1 is ink.
var palette = color.Palette{color.White, color.Black}

// PageBuilder accumulates decoded rows into one page image. bytesPerLine is
// fixed for the life of the builder, since the device stream never changes
// row width mid-page.
type PageBuilder struct {
	bytesPerLine int
	rows         [][]byte
}

// NewPageBuilder creates a builder for rows of the given width.
func NewPageBuilder(bytesPerLine int) *PageBuilder {
	return &PageBuilder{bytesPerLine: bytesPerLine}
}

// AddRow appends one already-decoded row. It panics if the row's length
// does not match the builder's bytesPerLine, since that would indicate a
// decoder bug rather than a recoverable input error.
func (p *PageBuilder) AddRow(row []byte) {
	if len(row) != p.bytesPerLine {
		panic("render: row length does not match page width")
	}
	p.rows = append(p.rows, row)
}

// AddZeroRow appends one all-background row, for decoder.ZeroRasterLine
// events which carry no payload of their own.
func (p *PageBuilder) AddZeroRow() {
	p.rows = append(p.rows, make([]byte, p.bytesPerLine))
}

// Empty reports whether any rows have been added.
func (p *PageBuilder) Empty() bool {
	return len(p.rows) == 0
}

// Build renders the accumulated rows into a 2-color paletted image, MSB
// first within each byte, and resets the builder for the next page.
func (p *PageBuilder) Build() *image.Paletted {
	width := p.bytesPerLine * 8
	height := len(p.rows)
	img := image.NewPaletted(image.Rect(0, 0, width, height), palette)
	for y, row := range p.rows {
		for x := 0; x < width; x++ {
			byteIndex := x / 8
			bit := row[byteIndex] >> (7 - uint(x%8)) & 1
			img.SetColorIndex(x, y, bit)
		}
	}
	p.rows = p.rows[:0]
	return img
}

// DumpPage writes img to w as a BMP file, the format the upstream dump
// utility this module's decoder replaces also used.
func DumpPage(w io.Writer, img image.Image) error {
	return bmp.Encode(w, img)
}
