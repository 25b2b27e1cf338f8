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

package main

import (
	"fmt"
	"io"

	"seehuhn.de/go/ptouch/decoder"
)

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// eventLogger formats decoded events as one line per event. Row-level
// commands (RasterLine, ZeroRasterLine) are suppressed under silent unless
// verbose is also set.
type eventLogger struct {
	out     io.Writer
	silent  bool
	verbose bool
	color   bool
}

func (l *eventLogger) log(ev decoder.Event) {
	switch e := ev.(type) {
	case decoder.RasterLine:
		if l.silent && !l.verbose {
			return
		}
		if l.verbose {
			fmt.Fprintf(l.out, "raster line: %d bytes, compression=%v\n", e.DecodedWidth, e.Compression)
		} else {
			fmt.Fprintf(l.out, "raster line: %d bytes\n", e.DecodedWidth)
		}
	case decoder.ZeroRasterLine:
		if l.silent && !l.verbose {
			return
		}
		fmt.Fprintln(l.out, "empty raster line")
	case *decoder.DecoderError:
		l.colorLine(ansiYellow, fmt.Sprintf("decode warning at byte %d: %s", e.Offset, e.Reason))
	default:
		fmt.Fprintf(l.out, "%s\n", describe(ev))
	}
}

func (l *eventLogger) colorLine(code, msg string) {
	if l.color {
		fmt.Fprintf(l.out, "%s%s%s\n", code, msg, ansiReset)
		return
	}
	fmt.Fprintln(l.out, msg)
}

func describe(ev decoder.Event) string {
	switch e := ev.(type) {
	case decoder.Reset:
		return fmt.Sprintf("reset (%d padding bytes)", e.N)
	case decoder.Initialize:
		return "initialize"
	case decoder.SwitchStatusNotification:
		return fmt.Sprintf("status notification: %v", e.On)
	case decoder.StatusRequest:
		return "status request"
	case decoder.SwitchMode:
		return fmt.Sprintf("switch mode: %v", e.Mode)
	case decoder.PrintInformation:
		return fmt.Sprintf("print information: kind=%d width=%dmm length=%dmm lines=%d which_page=%d",
			e.Kind, e.Width, e.Length, e.Lines, e.WhichPage)
	case decoder.VariousMode:
		return fmt.Sprintf("various mode: flags=%#02x", e.Flags)
	case decoder.AdvancedMode:
		return fmt.Sprintf("advanced mode: flags=%#02x", e.Flags)
	case decoder.Margin:
		return fmt.Sprintf("margin: %d lines", e.Lines)
	case decoder.CutEvery:
		return fmt.Sprintf("cut every %d labels", e.N)
	case decoder.SelectCompression:
		return fmt.Sprintf("select compression: %v", e.Mode)
	case decoder.Print:
		return "print"
	case decoder.EndOfJob:
		return "end of job"
	default:
		return fmt.Sprintf("%#v", ev)
	}
}
