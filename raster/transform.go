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

import "seehuhn.de/go/ptouch/bitops"

// TransformRow converts input (an MSB-first packed row) into exactly
// bytesPerLine bytes in output: right-aligned before rightPaddingBytes
// trailing padding bytes, shifted by shift bits, optionally mirrored, and
// XOR-masked with xorMask (0 or 0xFF).
//
// When mirror is false, the row is reassembled right-to-left with each
// byte passed through the bit-reverse table, matching the device's own
// nozzle order. When mirror is true, the row is copied left-to-right
// without byte reversal, implementing host-side horizontal mirroring.
//
// TransformRow reports whether any source bit contributed a set pixel
// prior to the XOR step, regardless of whether negative printing is in
// effect.
//
// output must be exactly bytesPerLine bytes long. If input, after
// truncation to fit bytesPerLine-rightPaddingBytes (minus one more byte of
// headroom when shift > 0), is empty, TransformRow writes only the XOR
// mask and returns false.
func TransformRow(input []byte, bytesPerLine, rightPaddingBytes, shift int, mirror bool, xorMask byte, output []byte) bool {
	if len(output) != bytesPerLine {
		panic("raster: output must be exactly bytesPerLine bytes long")
	}
	for i := range output {
		output[i] = xorMask
	}

	inputLen := len(input)
	if inputLen == 0 {
		return false
	}

	maxInputLen := bytesPerLine - rightPaddingBytes
	if shift > 0 {
		maxInputLen--
	}
	if maxInputLen < 0 {
		maxInputLen = 0
	}
	if inputLen > maxInputLen {
		inputLen = maxInputLen
	}
	if inputLen == 0 {
		return false
	}
	input = input[:inputLen]

	setBit := xorMask == 0 // a source 1-bit becomes a set output bit only when the background is 0

	if shift == 0 {
		return transformFast(input, bytesPerLine-rightPaddingBytes-inputLen, mirror, setBit, output)
	}

	destBase := (bytesPerLine-rightPaddingBytes-inputLen)*8 + shift
	nonzero := false
	totalBits := inputLen * 8
	for srcBit := 0; srcBit < totalBits; srcBit++ {
		var bitSet bool
		if mirror {
			bitSet = bitops.TestMSB(input, srcBit)
		} else {
			srcByte := srcBit / 8
			srcBitInByte := srcBit % 8
			mirroredByteIdx := inputLen - 1 - srcByte
			mirroredBitInByte := 7 - srcBitInByte
			bitSet = bitops.TestMSB(input, mirroredByteIdx*8+mirroredBitInByte)
		}
		if !bitSet {
			continue
		}
		nonzero = true

		destBit := destBase + srcBit
		if destBit < 0 || destBit >= len(output)*8 {
			continue
		}
		bitops.SetMSB(output, destBit, setBit)
	}
	return nonzero
}

// transformFast implements the shift==0 case without the general bit
// loop's per-bit carry bookkeeping: every source byte maps onto exactly
// one output byte, starting at output[offset].
func transformFast(input []byte, offset int, mirror, setBit bool, output []byte) bool {
	nonzero := false
	n := len(input)
	if mirror {
		for i := 0; i < n; i++ {
			b := input[i]
			if b == 0 {
				continue
			}
			nonzero = true
			applyByte(output, offset+i, b, setBit)
		}
		return nonzero
	}
	for i := 0; i < n; i++ {
		b := input[n-1-i]
		if b == 0 {
			continue
		}
		nonzero = true
		applyByte(output, offset+i, bitops.Reverse(b), setBit)
	}
	return nonzero
}

// applyByte sets, in output[idx], exactly the bits that are set in b,
// using setBit to decide whether a set source bit becomes 1 or 0 in the
// (already XOR-mask-filled) output byte.
func applyByte(output []byte, idx int, b byte, setBit bool) {
	if setBit {
		output[idx] |= b
	} else {
		output[idx] &^= b
	}
}
