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

// Package ptouch implements the command sequencer that turns a page-by-page
// 1-bit raster stream into Brother P-touch/QL device command bytes.
//
// The sequencer is a per-job state machine (Idle, PageOpen, RowPhase,
// PageClose) that reads pages through a raster.Reader, transforms and
// run-length-encodes each row via the raster and rle packages, accumulates
// encoded rows in a rowbuf.Buffer, and emits initialization, mode-select
// and print-information commands around the row data. The companion
// decoder package is the executable oracle for the byte stream this
// package writes.
package ptouch
