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

// Package decoder parses a device command byte stream back into a sequence
// of typed [Event] values. It is the oracle against which the encoder's
// wire format is checked: every byte the sequencer can emit has a
// corresponding decode rule here, and anything outside that grammar is
// reported as a [DecoderError] event rather than aborting the stream, so a
// single malformed job does not prevent decoding the jobs concatenated after
// it.
package decoder

import (
	"encoding/binary"
	"io"

	"seehuhn.de/go/ptouch/rle"
)

const (
	esc = 0x1b

	formFeed = 0x0c
	eject    = 0x1a
)

// Decoder pulls one [Event] at a time from a byte stream, buffering reads
// from src the way seehuhn.de/go/pdf's content.scanner does.
type Decoder struct {
	src       io.Reader
	buf       []byte
	pos, used int
	offset    int64
	err       error

	compression Compression

	// bitImageBytesPerLine enables decoding ESC * ' bit-image data, which
	// carries no per-row framing of its own; zero means bit-image rows are
	// reported as a single DecoderError instead of being split into rows.
	bitImageBytesPerLine int
	bitImageRemaining    int
}

// New creates a Decoder reading from src.
func New(src io.Reader) *Decoder {
	return &Decoder{
		src: src,
		buf: make([]byte, 512),
	}
}

// SetBitImageHint tells the decoder how many bytes make up one row of
// bit-image (uncompressed, unframed) transfer data. Without this hint,
// bit-image jobs decode as a single DecoderError at the ESC * ' header,
// since the wire format itself carries no row width for this transfer mode.
func (d *Decoder) SetBitImageHint(bytesPerLine int) {
	d.bitImageBytesPerLine = bytesPerLine
}

func (d *Decoder) errorAt(reason string) (Event, error) {
	return &DecoderError{Reason: reason, Offset: d.offset}, nil
}

// Next returns the next event in the stream, or io.EOF once the stream is
// exhausted. A malformed command is reported as a *DecoderError event with a
// nil error, not as a Go error, so callers can keep decoding subsequent
// jobs; this includes a command cut short by the end of the stream. Next
// only returns a non-nil error when the underlying reader fails.
func (d *Decoder) Next() (ev Event, err error) {
	start := d.offset
	defer func() {
		if err == io.EOF && d.offset > start {
			d.bitImageRemaining = 0
			ev, err = &DecoderError{Reason: "truncated command", Offset: start}, nil
		}
	}()

	if d.bitImageRemaining > 0 {
		return d.nextBitImageRow()
	}

	b, err := d.readByte()
	if err != nil {
		return nil, err
	}

	switch {
	case b == 0x00:
		n := 1
		for {
			peeked, err := d.peek()
			if err != nil || peeked != 0x00 {
				break
			}
			if _, err := d.readByte(); err != nil {
				break
			}
			n++
		}
		return Reset{N: n}, nil
	case b == esc:
		return d.nextEscape()
	case b == 'M':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return SelectCompression{Mode: d.selectCompression(n)}, nil
	case b == 'G' || b == 'g':
		return d.nextRasterLine(b)
	case b == 'Z':
		return ZeroRasterLine{}, nil
	case b == formFeed:
		return Print{}, nil
	case b == eject:
		return EndOfJob{}, nil
	default:
		return d.errorAt("unknown control byte")
	}
}

func (d *Decoder) selectCompression(n byte) Compression {
	switch n {
	case 0x00:
		d.compression = CompressionNone
		return CompressionNone
	case 0x02:
		d.compression = CompressionTIFF
		return CompressionTIFF
	default:
		d.compression = CompressionInvalid
		return CompressionInvalid
	}
}

// nextEscape decodes everything that follows a 0x1b byte.
func (d *Decoder) nextEscape() (Event, error) {
	b, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if b == '@' {
		return Initialize{}, nil
	}
	if b == '*' {
		return d.nextBitImageHeader()
	}
	if b != 'i' {
		return d.errorAt("unknown escape sequence")
	}

	sub, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch sub {
	case 'R':
		if _, err := d.skip(1); err != nil {
			return nil, err
		}
		return d.errorAt("legacy transfer mode command has no decoded representation")
	case 'D':
		if _, err := d.skip(1); err != nil {
			return nil, err
		}
		return d.errorAt("print density command has no decoded representation")
	case 'c':
		if _, err := d.skip(5); err != nil {
			return nil, err
		}
		return d.errorAt("legacy geometry command has no decoded representation")
	case '!':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return SwitchStatusNotification{On: n != 0}, nil
	case 'S':
		return StatusRequest{}, nil
	case 'a':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return SwitchMode{Mode: modeFromByte(n)}, nil
	case 'M':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return VariousMode{Flags: n}, nil
	case 'K':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return AdvancedMode{Flags: n}, nil
	case 'A':
		n, err := d.readByte()
		if err != nil {
			return nil, err
		}
		return CutEvery{N: int(n)}, nil
	case 'd':
		body, err := d.skip(2)
		if err != nil {
			return nil, err
		}
		return Margin{Lines: int(body[0]) | int(body[1])<<8}, nil
	case 'z':
		body, err := d.skip(10)
		if err != nil {
			return nil, err
		}
		return PrintInformation{
			Valid:     body[0],
			Kind:      body[1],
			Width:     body[2],
			Length:    body[3],
			Lines:     binary.LittleEndian.Uint32(body[4:8]),
			WhichPage: body[8],
		}, nil
	default:
		return d.errorAt("unknown ESC i sub-command")
	}
}

func modeFromByte(n byte) Mode {
	switch n {
	case 0:
		return ModeEscP
	case 1:
		return ModeRaster
	case 3:
		return ModePTemplate
	default:
		return ModeUnknown
	}
}

// nextBitImageHeader decodes ESC * ' <lo> <hi>, the bit-image page header
// that declares a row count for data with no per-row framing.
func (d *Decoder) nextBitImageHeader() (Event, error) {
	apostrophe, err := d.readByte()
	if err != nil {
		return nil, err
	}
	if apostrophe != '\'' {
		return d.errorAt("unknown ESC * sub-command")
	}
	body, err := d.skip(2)
	if err != nil {
		return nil, err
	}
	lines := int(body[0]) | int(body[1])<<8

	if d.bitImageBytesPerLine == 0 {
		return d.errorAt("bit-image data follows with no bytes-per-line hint set")
	}
	d.bitImageRemaining = lines * d.bitImageBytesPerLine
	return d.Next()
}

func (d *Decoder) nextBitImageRow() (Event, error) {
	n := d.bitImageBytesPerLine
	if n > d.bitImageRemaining {
		n = d.bitImageRemaining
	}
	body, err := d.skip(n)
	if err != nil {
		return nil, err
	}
	d.bitImageRemaining -= n
	return RasterLine{Bytes: body, Compression: CompressionNone, DecodedWidth: n}, nil
}

// nextRasterLine decodes a 'G' or 'g' tagged row. Under CompressionNone the
// 'g' tag is followed by a fixed {0x00, bytesPerLine} header instead of a
// length-prefixed RLE body, mirroring rowbuf's uncompressed expansion.
func (d *Decoder) nextRasterLine(tag byte) (Event, error) {
	if d.compression == CompressionNone {
		if tag != 'g' {
			return d.errorAt("uncompressed raster line must use the 'g' tag")
		}
		header, err := d.skip(2)
		if err != nil {
			return nil, err
		}
		if header[0] != 0x00 {
			return d.errorAt("malformed uncompressed raster line header")
		}
		width := int(header[1])
		body, err := d.skip(width)
		if err != nil {
			return nil, err
		}
		return RasterLine{Bytes: body, Compression: CompressionNone, DecodedWidth: width}, nil
	}

	order := seriesOrder(tag)
	lenBytes, err := d.skip(2)
	if err != nil {
		return nil, err
	}
	length := int(order.Uint16(lenBytes))
	body, err := d.skip(length)
	if err != nil {
		return nil, err
	}
	decoded, err := rle.Decode(body)
	if err != nil {
		return d.errorAt("malformed run-length body: " + err.Error())
	}
	return RasterLine{Bytes: decoded, Compression: CompressionTIFF, DecodedWidth: len(decoded)}, nil
}

// seriesOrder reports which byte order a tagged raster-line length uses:
// 'G' (pt-series) is little-endian, 'g' (ql-series) is big-endian.
func seriesOrder(tag byte) binary.ByteOrder {
	if tag == 'G' {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// skip reads and returns exactly n bytes.
func (d *Decoder) skip(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (d *Decoder) peek() (byte, error) {
	if d.pos >= d.used {
		if err := d.refill(); err != nil {
			return 0, err
		}
	}
	return d.buf[d.pos], nil
}

func (d *Decoder) readByte() (byte, error) {
	for d.pos >= d.used {
		if err := d.refill(); err != nil {
			return 0, err
		}
	}
	b := d.buf[d.pos]
	d.pos++
	d.offset++
	return b, nil
}

// refill reads more data from src into buf. This is the only place the
// underlying reader is called.
func (d *Decoder) refill() error {
	if d.err != nil {
		return d.err
	}
	d.used = copy(d.buf, d.buf[d.pos:d.used])
	d.pos = 0

	n, err := d.src.Read(d.buf[d.used:])
	d.used += n
	if err != nil {
		d.err = err
		if n > 0 {
			err = nil
		}
	}
	return err
}
