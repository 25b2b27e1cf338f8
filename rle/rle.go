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

// Package rle implements the bounded-length run-length packet codec used
// for raster lines: a byte n with 0<=n<=127 introduces n+1 literal bytes, a
// byte n with -128<=n<=-1 (two's complement) introduces one byte to be
// repeated 1-n times. The encoder guarantees a packet body no larger than
// len(input) + len(input)/128 + 1 bytes.
//
// This is the same family of run-length scheme as the PDF RunLengthDecode
// filter (see the minRunLength constant below and compare with a TIFF
// PackBits encoder), without that filter's end-of-data marker: the caller
// always knows the decoded length in advance from the row geometry.
package rle

import "fmt"

// minRunLength is the shortest repeated run this encoder will ever emit;
// anything shorter stays in the literal ("mixed") stream. Below this length
// a repeat costs as much to encode as the literal bytes it replaces.
const minRunLength = 3

// maxRunLength is the longest repeated run emitted before the encoder is
// forced to flush and restart the run at the same byte value. The wire
// format can represent runs up to 129 bytes (a control byte of -128), but
// this encoder never accumulates past 128 before flushing, so a run of
// exactly 129 identical input bytes always yields a 128-byte repeat run
// followed by a 1-byte literal run, not a single 129-byte run.
const maxRunLength = 128

// maxLiteralRun is the longest literal ("mixed") run emitted in one chunk.
const maxLiteralRun = 128

// Encode compresses input into a run-length packet body. If every byte of
// input equals background, Encode reports isBackground=true and returns a
// nil body; the caller is expected to substitute the single-byte empty-row
// marker ('Z') instead of writing the body.
//
// The returned body never exceeds len(input) + len(input)/128 + 1 bytes.
func Encode(input []byte, background byte) (body []byte, isBackground bool) {
	n := len(input)
	if isAllBackground(input, background) {
		return nil, true
	}

	out := make([]byte, 0, n+n/128+2)
	i := 0
	for i < n {
		runLen := matchLen(input, i, maxRunLength)
		if runLen >= minRunLength {
			out = appendRepeatRun(out, input[i], runLen)
			i += runLen
			continue
		}

		litStart := i
		i++
		for i < n {
			if matchLen(input, i, maxRunLength) >= minRunLength {
				break
			}
			i++
			if i-litStart >= maxLiteralRun {
				break
			}
		}
		out = appendLiteralRun(out, input[litStart:i])
	}
	return out, false
}

// isAllBackground reports whether every byte of buf equals background.
func isAllBackground(buf []byte, background byte) bool {
	for _, b := range buf {
		if b != background {
			return false
		}
	}
	return true
}

// matchLen returns the number of bytes starting at i in buf that equal
// buf[i], capped at max.
func matchLen(buf []byte, i int, max int) int {
	v := buf[i]
	n := 1
	for i+n < len(buf) && buf[i+n] == v && n < max {
		n++
	}
	return n
}

func appendRepeatRun(out []byte, value byte, count int) []byte {
	// count in [2, maxRunLength] (Encode passes at least minRunLength,
	// EncodeUniform may pass 2); the control byte encodes 1-count as a
	// two's-complement byte.
	ctrl := int8(1 - count)
	return append(out, byte(ctrl), value)
}

func appendLiteralRun(out []byte, run []byte) []byte {
	for len(run) > 0 {
		chunk := run
		if len(chunk) > maxLiteralRun {
			chunk = chunk[:maxLiteralRun]
		}
		out = append(out, byte(len(chunk)-1))
		out = append(out, chunk...)
		run = run[len(chunk):]
	}
	return out
}

// EncodeUniform encodes length copies of value as explicit repeat runs,
// chunked at maxRunLength, without the background short-circuit Encode
// applies. It is used to synthesize real run-length rows for the empty-row
// shortcut under a non-zero XOR mask, where the device's "no data" marker
// would be decoded as the wrong background.
func EncodeUniform(value byte, length int) []byte {
	if length <= 0 {
		return nil
	}
	out := make([]byte, 0, length/maxRunLength+2)
	remaining := length
	for remaining > 0 {
		chunk := remaining
		if chunk > maxRunLength {
			chunk = maxRunLength
		}
		if chunk == 1 {
			out = appendLiteralRun(out, []byte{value})
		} else {
			out = appendRepeatRun(out, value, chunk)
		}
		remaining -= chunk
	}
	return out
}

// Decode expands a run-length packet body into its original bytes. Decode
// is the inverse of Encode and is used both by the row buffer's
// uncompressed-expansion path and by the decoder oracle to verify encoder
// output.
func Decode(body []byte) ([]byte, error) {
	var out []byte
	i := 0
	for i < len(body) {
		ctrl := int8(body[i])
		i++
		if ctrl >= 0 {
			n := int(ctrl) + 1
			if i+n > len(body) {
				return nil, fmt.Errorf("rle: truncated literal run at offset %d", i-1)
			}
			out = append(out, body[i:i+n]...)
			i += n
		} else {
			if i >= len(body) {
				return nil, fmt.Errorf("rle: truncated repeat run at offset %d", i-1)
			}
			count := 1 - int(ctrl)
			value := body[i]
			i++
			for k := 0; k < count; k++ {
				out = append(out, value)
			}
		}
	}
	return out, nil
}

// DecodePadded decodes body and pads the result with zero bytes up to
// width, tolerating the row buffer's empty-row shortcut where a packet
// decodes to fewer bytes than the target line width.
func DecodePadded(body []byte, width int) ([]byte, error) {
	out, err := Decode(body)
	if err != nil {
		return nil, err
	}
	if len(out) > width {
		return nil, fmt.Errorf("rle: decoded %d bytes, want at most %d", len(out), width)
	}
	if len(out) < width {
		padded := make([]byte, width)
		copy(padded, out)
		out = padded
	}
	return out, nil
}
