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

package decoder

import "fmt"

// Event is a single decoded command from the device byte stream. Every
// concrete event type below implements it.
type Event interface {
	isEvent()
}

// Mode selects the device's top-level command interpreter, as switched by
// ESC i a.
type Mode int

const (
	ModeEscP Mode = iota
	ModeRaster
	ModePTemplate
	ModeUnknown
)

func (m Mode) String() string {
	switch m {
	case ModeEscP:
		return "escp"
	case ModeRaster:
		return "raster"
	case ModePTemplate:
		return "ptemplate"
	default:
		return "unknown"
	}
}

// Compression selects how a raster row's body is framed on the wire, as
// switched by the M command.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionTIFF
	CompressionInvalid
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionTIFF:
		return "tiff"
	default:
		return "invalid"
	}
}

// Reset is emitted for a run of consecutive 0x00 recovery-padding bytes.
type Reset struct{ N int }

// Initialize is ESC @.
type Initialize struct{}

// SwitchStatusNotification is ESC i !.
type SwitchStatusNotification struct{ On bool }

// StatusRequest is ESC i S.
type StatusRequest struct{}

// SwitchMode is ESC i a.
type SwitchMode struct{ Mode Mode }

// PrintInformation is ESC i z.
type PrintInformation struct {
	Valid     byte
	Kind      byte
	Width     byte
	Length    byte
	Lines     uint32
	WhichPage byte
}

// VariousMode is ESC i M.
type VariousMode struct{ Flags byte }

// AdvancedMode is ESC i K.
type AdvancedMode struct{ Flags byte }

// Margin is ESC i d, in lines.
type Margin struct{ Lines int }

// CutEvery is ESC i A.
type CutEvery struct{ N int }

// SelectCompression is M <n>.
type SelectCompression struct{ Mode Compression }

// RasterLine is a 'G' or 'g' tagged row, already decompressed to exactly
// DecodedWidth bytes.
type RasterLine struct {
	Bytes        []byte
	Compression  Compression
	DecodedWidth int
}

// ZeroRasterLine is the 'Z' empty-row token.
type ZeroRasterLine struct{}

// Print is the 0x0c form-feed (print without eject).
type Print struct{}

// EndOfJob is the 0x1a eject byte.
type EndOfJob struct{}

// DecoderError reports that the stream violated the grammar: an unknown
// control byte, a truncated command, or a compression mismatch. It is
// non-fatal -- the decoder emits it as an event and keeps parsing whenever
// it can still determine how many bytes to skip.
type DecoderError struct {
	Reason string
	Offset int64
}

func (err *DecoderError) Error() string {
	return fmt.Sprintf("decoder: %s (at byte %d)", err.Reason, err.Offset)
}

func (Reset) isEvent()                    {}
func (Initialize) isEvent()               {}
func (SwitchStatusNotification) isEvent() {}
func (StatusRequest) isEvent()            {}
func (SwitchMode) isEvent()               {}
func (PrintInformation) isEvent()         {}
func (VariousMode) isEvent()              {}
func (AdvancedMode) isEvent()             {}
func (Margin) isEvent()                   {}
func (CutEvery) isEvent()                 {}
func (SelectCompression) isEvent()        {}
func (RasterLine) isEvent()               {}
func (ZeroRasterLine) isEvent()           {}
func (Print) isEvent()                    {}
func (EndOfJob) isEvent()                 {}
func (*DecoderError) isEvent()            {}
