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

// Package joboptions parses the flat key=value option string accepted by the
// command sequencer into a validated, immutable JobOptions, and defines the
// Series enum that replaces the source driver's pair of pt-series/ql-series
// booleans (see the Polymorphism redesign note).
package joboptions

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// TransferMode selects how raster lines are written to the device.
type TransferMode int

const (
	TransferUncompressedLine TransferMode = iota
	TransferRunLength
	TransferBitImage
)

func (m TransferMode) String() string {
	switch m {
	case TransferUncompressedLine:
		return "uncompressed-line"
	case TransferRunLength:
		return "run-length"
	case TransferBitImage:
		return "bit-image"
	default:
		return "invalid"
	}
}

// PrintQuality selects the device's print-quality bit.
type PrintQuality int

const (
	PrintQualityHigh PrintQuality = iota
	PrintQualityFast
)

func (q PrintQuality) String() string {
	if q == PrintQualityFast {
		return "fast"
	}
	return "high"
}

// Alignment selects how a narrower label is aligned within the full head
// width.
type Alignment int

const (
	AlignRight Alignment = iota
	AlignCenter
)

func (a Alignment) String() string {
	if a == AlignCenter {
		return "center"
	}
	return "right"
}

// Media selects the supply type loaded in the device.
type Media int

const (
	MediaContinuousTape Media = iota
	MediaDieCutLabels
)

func (m Media) String() string {
	if m == MediaDieCutLabels {
		return "die-cut-labels"
	}
	return "continuous-tape"
}

// Series replaces the pt-series/ql-series boolean pair with a single enum:
// the two booleans only ever gate the row-length prefix's byte order and the
// choice of 'G' vs 'g' tag byte, so they are derived methods on one value
// instead of two independently-settable flags.
type Series int

const (
	SeriesPT Series = iota
	SeriesQL
)

// Endianness returns the byte order the series uses for a raster line's
// 16-bit length prefix.
func (s Series) Endianness() binary.ByteOrder {
	if s == SeriesQL {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Letter returns the tag byte a raster-line packet uses for this series.
func (s Series) Letter() byte {
	if s == SeriesQL {
		return 'g'
	}
	return 'G'
}

func (s Series) String() string {
	if s == SeriesQL {
		return "ql-series"
	}
	return "pt-series"
}

// JobOptions is the fully validated, immutable configuration for one print
// job, produced by Parse.
type JobOptions struct {
	TransferMode TransferMode
	PrintQuality PrintQuality
	Alignment    Alignment
	Media        Media
	Series       Series

	AutoCut        bool
	HalfCut        bool
	CutMark        bool
	ChainPrinting  bool
	MirrorPrint    bool
	SoftwareMirror bool
	LabelPreamble  bool
	LabelRecovery  bool
	LastPageFlag   bool
	LegacyHiRes    bool
	ConcatPages    bool

	BytesPerLine int // 1..255

	CutLabel           *int // 0..255, unset means no ESC i A command
	PrintDensity       *int // 0..5, unset or 0 means no ESC i D command
	LegacyTransferMode *int // 0..255, unset means no ESC i R command
	XferMode           *int // 0..255, unset means no ESC i a command
	StatusNotification *int // 0..1, unset means no ESC i ! command

	MinMargin float64 // points, >= 0
	Margin    float64 // points, >= 0
}

// Validate checks the cross-field invariants of §3 that a single key's
// per-key validator cannot express: bytes-per-line must be able to hold the
// widest representable row.
func (o *JobOptions) Validate(widestRowPixels int) error {
	if o.BytesPerLine*8 < widestRowPixels {
		return &ConfigError{Key: "bytes-per-line", Reason: "too small for the widest representable row"}
	}
	return nil
}

// ConfigError reports a problem with a single option key, either because the
// key is unknown, its value fails validation, or (from Validate) a
// cross-field invariant is violated.
type ConfigError struct {
	Key    string
	Reason string
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("joboptions: %s: %s", err.Key, err.Reason)
}

// defaults returns a JobOptions with every field at its documented default:
// run-length transfer, high quality, right alignment, continuous tape,
// pt-series, bytes-per-line at the widest common head width, every boolean
// false, every optional integer unset, zero margins.
func defaults() *JobOptions {
	return &JobOptions{
		TransferMode: TransferRunLength,
		PrintQuality: PrintQualityHigh,
		Alignment:    AlignRight,
		Media:        MediaContinuousTape,
		Series:       SeriesPT,
		BytesPerLine: 90,
	}
}

type kind int

const (
	kindBool kind = iota
	kindInt
	kindOptInt
	kindFloat
	kindEnum
)

type keySpec struct {
	kind kind
	// set parses raw according to kind, validates it, and applies the
	// result to o.
	set func(o *JobOptions, raw string) error
}

func intRangeSetter(min, max int, assign func(o *JobOptions, v int)) func(*JobOptions, string) error {
	return func(o *JobOptions, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		if n < min || n > max {
			return fmt.Errorf("%d out of range [%d, %d]", n, min, max)
		}
		assign(o, n)
		return nil
	}
}

func optIntRangeSetter(min, max int, assign func(o *JobOptions, v *int)) func(*JobOptions, string) error {
	return func(o *JobOptions, raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		if n < min || n > max {
			return fmt.Errorf("%d out of range [%d, %d]", n, min, max)
		}
		v := n
		assign(o, &v)
		return nil
	}
}

func floatRangeSetter(min float64, assign func(o *JobOptions, v float64)) func(*JobOptions, string) error {
	return func(o *JobOptions, raw string) error {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", raw)
		}
		if f < min {
			return fmt.Errorf("%g below minimum %g", f, min)
		}
		assign(o, f)
		return nil
	}
}

func enumSetter(values []string, assign func(o *JobOptions, v string)) func(*JobOptions, string) error {
	return func(o *JobOptions, raw string) error {
		lower := strings.ToLower(raw)
		if !slices.ContainsFunc(values, func(v string) bool { return v == lower }) {
			return fmt.Errorf("must be one of %v, got %q", values, raw)
		}
		assign(o, lower)
		return nil
	}
}

func boolSetter(assign func(o *JobOptions, v bool)) func(*JobOptions, string) error {
	return func(o *JobOptions, raw string) error {
		assign(o, raw != "false")
		return nil
	}
}

var keySpecs = map[string]keySpec{
	"transfer-mode": {kind: kindEnum, set: enumSetter([]string{"uncompressed-line", "run-length", "bit-image"}, func(o *JobOptions, v string) {
		switch v {
		case "uncompressed-line":
			o.TransferMode = TransferUncompressedLine
		case "run-length":
			o.TransferMode = TransferRunLength
		case "bit-image":
			o.TransferMode = TransferBitImage
		}
	})},
	"print-quality": {kind: kindEnum, set: enumSetter([]string{"high", "fast"}, func(o *JobOptions, v string) {
		if v == "fast" {
			o.PrintQuality = PrintQualityFast
		} else {
			o.PrintQuality = PrintQualityHigh
		}
	})},
	"alignment": {kind: kindEnum, set: enumSetter([]string{"right", "center"}, func(o *JobOptions, v string) {
		if v == "center" {
			o.Alignment = AlignCenter
		} else {
			o.Alignment = AlignRight
		}
	})},
	"media": {kind: kindEnum, set: enumSetter([]string{"continuous-tape", "die-cut-labels"}, func(o *JobOptions, v string) {
		if v == "die-cut-labels" {
			o.Media = MediaDieCutLabels
		} else {
			o.Media = MediaContinuousTape
		}
	})},

	"auto-cut":        {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.AutoCut = v })},
	"half-cut":        {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.HalfCut = v })},
	"cut-mark":        {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.CutMark = v })},
	"chain-printing":  {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.ChainPrinting = v })},
	"mirror-print":    {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.MirrorPrint = v })},
	"software-mirror": {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.SoftwareMirror = v })},
	"label-preamble":  {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.LabelPreamble = v })},
	"label-recovery":  {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.LabelRecovery = v })},
	"last-page-flag":  {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.LastPageFlag = v })},
	"legacy-hires":    {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.LegacyHiRes = v })},
	"concat-pages":    {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) { o.ConcatPages = v })},
	"pt-series": {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) {
		if v {
			o.Series = SeriesPT
		}
	})},
	"ql-series": {kind: kindBool, set: boolSetter(func(o *JobOptions, v bool) {
		if v {
			o.Series = SeriesQL
		}
	})},

	"bytes-per-line": {kind: kindInt, set: intRangeSetter(1, 255, func(o *JobOptions, v int) { o.BytesPerLine = v })},
	"cut-label":      {kind: kindOptInt, set: optIntRangeSetter(0, 255, func(o *JobOptions, v *int) { o.CutLabel = v })},
	"print-density":  {kind: kindOptInt, set: optIntRangeSetter(0, 5, func(o *JobOptions, v *int) { o.PrintDensity = v })},
	"legacy-xfer-mode": {kind: kindOptInt, set: optIntRangeSetter(0, 255, func(o *JobOptions, v *int) {
		o.LegacyTransferMode = v
	})},
	"xfer-mode":           {kind: kindOptInt, set: optIntRangeSetter(0, 255, func(o *JobOptions, v *int) { o.XferMode = v })},
	"status-notification": {kind: kindOptInt, set: optIntRangeSetter(0, 1, func(o *JobOptions, v *int) { o.StatusNotification = v })},

	"min-margin": {kind: kindFloat, set: floatRangeSetter(0, func(o *JobOptions, v float64) { o.MinMargin = v })},
	"margin":     {kind: kindFloat, set: floatRangeSetter(0, func(o *JobOptions, v float64) { o.Margin = v })},
}

var boolOnlyKeys = func() map[string]bool {
	m := make(map[string]bool)
	for key, spec := range keySpecs {
		if spec.kind == kindBool {
			m[key] = true
		}
	}
	return m
}()

// Parse parses a whitespace-separated token list of key=value, key (boolean
// true) or nokey (boolean false, only on keys registered as boolean) options
// into a validated JobOptions.
//
// Parse fails the whole job on the first unknown key or failed validator,
// wrapping a *ConfigError that names the offending key.
func Parse(input string) (*JobOptions, error) {
	o := defaults()
	for _, tok := range strings.Fields(input) {
		key, raw, hasValue := strings.Cut(tok, "=")

		negated := false
		if !hasValue && strings.HasPrefix(key, "no") {
			if _, ok := boolOnlyKeys[strings.TrimPrefix(key, "no")]; ok {
				key = strings.TrimPrefix(key, "no")
				negated = true
			}
		}

		spec, ok := keySpecs[key]
		if !ok {
			return nil, &ConfigError{Key: key, Reason: "unknown option"}
		}

		if !hasValue {
			if spec.kind != kindBool {
				return nil, &ConfigError{Key: key, Reason: "requires a value"}
			}
			raw = "true"
			if negated {
				raw = "false"
			}
		}

		if err := spec.set(o, raw); err != nil {
			return nil, &ConfigError{Key: key, Reason: err.Error()}
		}
	}

	return o, nil
}
