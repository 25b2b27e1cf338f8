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

// Command ptouchdump decodes a Brother P-touch/QL device command stream and
// prints a human-readable log of the commands, optionally dumping each
// page's decoded raster to an image file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"seehuhn.de/go/ptouch/decoder"
	"seehuhn.de/go/ptouch/decoder/render"
)

func main() {
	input := flag.String("input", "", "path to the device command stream (default: stdin)")
	writePrefix := flag.String("write", "", "write each decoded page as PREFIX-N.bmp")
	silent := flag.Bool("silent", false, "suppress noisy row-level commands")
	verbose := flag.Bool("verbose", false, "show every datum")
	colorMode := flag.String("color", "auto", "colorize output: always, auto, or never")
	flag.Parse()

	switch *colorMode {
	case "always", "auto", "never":
	default:
		fmt.Fprintf(os.Stderr, "Error: --color must be always, auto, or never\n")
		os.Exit(2)
	}
	useColor := *colorMode == "always" || (*colorMode == "auto" && term.IsTerminal(int(os.Stdout.Fd())))

	in := os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	d := decoder.New(in)
	logger := &eventLogger{
		out:     os.Stdout,
		silent:  *silent,
		verbose: *verbose,
		color:   useColor,
	}

	var page *render.PageBuilder
	pageIndex := 0
	flushPage := func() {
		if page == nil || page.Empty() || *writePrefix == "" {
			return
		}
		name := fmt.Sprintf("%s-%d.bmp", *writePrefix, pageIndex)
		f, err := os.Create(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", name, err)
			os.Exit(1)
		}
		defer f.Close()
		if err := render.DumpPage(f, page.Build()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		pageIndex++
	}

	for {
		ev, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		logger.log(ev)

		switch e := ev.(type) {
		case decoder.RasterLine:
			if *writePrefix != "" {
				if page == nil {
					page = render.NewPageBuilder(e.DecodedWidth)
				}
				page.AddRow(e.Bytes)
			}
		case decoder.ZeroRasterLine:
			if *writePrefix != "" && page != nil {
				page.AddZeroRow()
			}
		case decoder.Print:
			flushPage()
			page = nil
		case decoder.EndOfJob:
			flushPage()
			page = nil
		}
	}
	flushPage()
}
