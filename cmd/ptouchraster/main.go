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

// Command ptouchraster reads a page stream and writes the corresponding
// Brother P-touch/QL device command stream.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"seehuhn.de/go/ptouch"
	"seehuhn.de/go/ptouch/joboptions"
	"seehuhn.de/go/ptouch/raster"
)

func main() {
	input := flag.String("input", "", "path to the page stream (default: stdin)")
	output := flag.String("output", "", "path to write the device command stream (default: stdout)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] 'option string'\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	opts, err := joboptions.Parse(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing options: %v\n", err)
		os.Exit(2)
	}

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

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	seq := ptouch.New(out, opts)
	seq.Warn = func(msg string) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}

	seq.Abort = &ptouch.AbortToken{}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		seq.Abort.Abort()
	}()

	reader := raster.NewStreamReader(in)
	if err := seq.Run(reader); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
