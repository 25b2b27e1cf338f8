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

package ptouch

import (
	"io"
	"math"

	"seehuhn.de/go/ptouch/geometry"
	"seehuhn.de/go/ptouch/joboptions"
	"seehuhn.de/go/ptouch/raster"
	"seehuhn.de/go/ptouch/rle"
	"seehuhn.de/go/ptouch/rowbuf"
)

const (
	esc = 0x1b

	recoveryPadLen = 350

	formFeed = 0x0c
	eject    = 0x1a
)

// Sequencer drives the Idle -> PageOpen -> RowPhase -> PageClose state
// machine of §4.5: it reads pages from a raster.Reader, encodes each row,
// and writes the resulting device command stream to Out.
type Sequencer struct {
	Out  io.Writer
	Opts *joboptions.JobOptions
	Warn WarnFunc

	// Abort, if set, is polled between rows; see AbortToken.
	Abort *AbortToken

	// MaxLinesWaiting bounds the row buffer's automatic flush threshold.
	// Zero means math.MaxInt (flush only at page boundaries), matching
	// the row buffer's documented default; tests set a small value to
	// force flushes deterministically.
	MaxLinesWaiting int

	buf               *rowbuf.Buffer
	pageIndex         int
	currentHeader     raster.PageHeader
	pendingEmptyLines int
	isLastPage        bool
}

// New creates a Sequencer writing to out under the given validated options.
func New(out io.Writer, opts *joboptions.JobOptions) *Sequencer {
	return &Sequencer{Out: out, Opts: opts}
}

func (s *Sequencer) warn(msg string) {
	if s.Warn != nil {
		s.Warn(msg)
	}
}

func (s *Sequencer) aborted() bool {
	return s.Abort != nil && s.Abort.Aborted()
}

// Run drives the full job: Idle through Done. It returns nil once the
// reader reports end-of-stream or once an aborted job has written its eject
// byte, and otherwise an error from the reader or the sink.
func (s *Sequencer) Run(r raster.Reader) error {
	header, ok, err := r.ReadPageHeader()
	if err != nil {
		return &ReaderError{Err: err}
	}
	if !ok {
		return nil
	}

	if err := s.emitJobInit(); err != nil {
		return err
	}

	maxWaiting := s.MaxLinesWaiting
	if maxWaiting == 0 {
		maxWaiting = math.MaxInt
	}
	s.buf = rowbuf.New(s.Out, s.Opts.Series, s.Opts.BytesPerLine, s.Opts.TransferMode, s.Opts.LabelPreamble, s.buildPrintInfo, maxWaiting)

	s.pageIndex = 1
	for {
		if err := header.Validate(); err != nil {
			return &ReaderError{Err: err}
		}
		if err := s.Opts.Validate(header.RowPixelCount); err != nil {
			return err
		}
		s.currentHeader = header

		if err := s.emitPageOpen(header); err != nil {
			return err
		}
		rowErr := s.runRowPhase(r, header)
		if s.aborted() {
			return s.emitAbort()
		}
		if rowErr != nil {
			return rowErr
		}

		nextHeader, hasNext, err := r.ReadPageHeader()
		if err != nil {
			return &ReaderError{Err: err}
		}
		isLast := !hasNext
		s.isLastPage = isLast

		if err := s.emitPageClose(isLast); err != nil {
			return err
		}
		if isLast {
			return nil
		}
		header = nextHeader
		s.pageIndex++
	}
}

// emitAbort discards any buffered rows and writes the bare eject byte,
// implementing §5's cancellation semantics.
func (s *Sequencer) emitAbort() error {
	s.buf = nil
	_, err := s.Out.Write([]byte{eject})
	return err
}

func (s *Sequencer) emitJobInit() error {
	pad := make([]byte, recoveryPadLen)
	if _, err := s.Out.Write(pad); err != nil {
		return err
	}
	if _, err := s.Out.Write([]byte{esc, '@'}); err != nil {
		return err
	}
	if v := s.Opts.LegacyTransferMode; v != nil {
		if _, err := s.Out.Write([]byte{esc, 'i', 'R', byte(*v)}); err != nil {
			return err
		}
	}
	if v := s.Opts.XferMode; v != nil {
		if _, err := s.Out.Write([]byte{esc, 'i', 'a', byte(*v)}); err != nil {
			return err
		}
	}
	if v := s.Opts.StatusNotification; v != nil {
		if _, err := s.Out.Write([]byte{esc, 'i', '!', byte(*v)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sequencer) emitPageOpen(header raster.PageHeader) error {
	o := s.Opts

	if v := o.PrintDensity; v != nil && *v >= 1 && *v <= 5 {
		if _, err := s.Out.Write([]byte{esc, 'i', 'D', byte(*v)}); err != nil {
			return err
		}
	}

	if o.LegacyHiRes && header.ResolutionX == 360 && (header.ResolutionY == 360 || header.ResolutionY == 720) {
		widthMM := s.clampMM(geometry.Dx(header.PageBox), "width")
		cmd := []byte{esc, 'i', 'c', 0x00, 0x00, widthMM, 0x00, 0x00}
		if _, err := s.Out.Write(cmd); err != nil {
			return err
		}
	}

	var flagsM byte
	if o.AutoCut || o.CutMark {
		flagsM |= 0x40
	}
	if o.MirrorPrint && !o.SoftwareMirror {
		flagsM |= 0x80
	}
	if _, err := s.Out.Write([]byte{esc, 'i', 'M', flagsM}); err != nil {
		return err
	}

	var flagsK byte
	if o.PrintQuality == joboptions.PrintQualityFast {
		flagsK |= 0x01
	}
	if o.HalfCut {
		flagsK |= 0x04
	}
	if !o.ChainPrinting {
		flagsK |= 0x08
	}
	if !o.LegacyHiRes && header.ResolutionX >= 360 {
		flagsK |= 0x40
	}
	if _, err := s.Out.Write([]byte{esc, 'i', 'K', flagsK}); err != nil {
		return err
	}

	if v := o.CutLabel; v != nil {
		if _, err := s.Out.Write([]byte{esc, 'i', 'A', byte(*v)}); err != nil {
			return err
		}
	}

	feed := 0
	if o.Media == joboptions.MediaContinuousTape {
		feed = geometry.FeedLines(o.MinMargin+o.Margin, header.ResolutionY)
	}
	if _, err := s.Out.Write([]byte{esc, 'i', 'd', byte(feed & 0xff), byte((feed >> 8) & 0xff)}); err != nil {
		return err
	}

	switch o.TransferMode {
	case joboptions.TransferRunLength:
		if _, err := s.Out.Write([]byte{'M', 0x02}); err != nil {
			return err
		}
	case joboptions.TransferBitImage:
		lines := header.RowCount
		if _, err := s.Out.Write([]byte{esc, '*', '\'', byte(lines & 0xff), byte((lines >> 8) & 0xff)}); err != nil {
			return err
		}
	}

	return nil
}

// runRowPhase reads every row of the current page, skipping the top/bottom
// margin rows per §4.5's row-skipping rule, transforming and encoding the
// remaining rows into the row buffer.
func (s *Sequencer) runRowPhase(r raster.Reader, header raster.PageHeader) error {
	topSkip, botSkip := geometry.TopBottomSkip(header.PageBox, header.ImagingBox, header.ResolutionY)
	if s.Opts.ConcatPages && s.pageIndex > 1 {
		topSkip = 0
	}
	bodyCount := header.RowCount - topSkip - botSkip
	if bodyCount < 0 {
		bodyCount = 0
	}

	var xorMask byte
	if header.NegativePrint {
		xorMask = 0xFF
	}
	rightPad, shift := s.alignment(header)
	mirror := s.Opts.MirrorPrint && s.Opts.SoftwareMirror

	raw := make([]byte, header.RowByteCount)
	transformed := make([]byte, s.Opts.BytesPerLine)

	drain := func(n int) error {
		for i := 0; i < n; i++ {
			if s.aborted() {
				return nil
			}
			if _, err := r.ReadRow(raw); err != nil {
				return &ReaderError{Err: err}
			}
		}
		return nil
	}

	if err := drain(topSkip); err != nil {
		return err
	}

	for i := 0; i < bodyCount; i++ {
		if s.aborted() {
			return nil
		}
		if _, err := r.ReadRow(raw); err != nil {
			return &ReaderError{Err: err}
		}
		raster.TransformRow(raw, s.Opts.BytesPerLine, rightPad, shift, mirror, xorMask, transformed)
		body, isBackground := rle.Encode(transformed, xorMask)
		if isBackground && xorMask != 0 {
			// 'Z' always decodes to an all-zero row; a background row under a
			// non-zero xor mask must be stored as a real uniform-value packet.
			body = rle.EncodeUniform(xorMask, s.Opts.BytesPerLine)
			isBackground = false
		}
		if err := s.buf.StoreRow(body, isBackground); err != nil {
			return err
		}
	}

	if err := drain(botSkip); err != nil {
		return err
	}

	if n, err := r.ReadRow(raw); err != nil {
		return &ReaderError{Err: err}
	} else if n != 0 {
		return &ReaderError{Err: errShortPage}
	}

	if s.Opts.ConcatPages {
		s.pendingEmptyLines = botSkip
		return nil
	}
	return s.buf.StoreEmptyRows(botSkip, xorMask)
}

var errShortPage = shortPageError{}

type shortPageError struct{}

func (shortPageError) Error() string { return "raster reader produced more rows than the page header declared" }

// alignment derives the row transform's right-padding and shift from the
// job's alignment setting and the gap between the device's bytes-per-line
// and the page header's row width.
func (s *Sequencer) alignment(header raster.PageHeader) (rightPaddingBytes, shift int) {
	totalPaddingBits := s.Opts.BytesPerLine*8 - header.RowPixelCount
	if totalPaddingBits < 0 {
		totalPaddingBits = 0
	}
	switch s.Opts.Alignment {
	case joboptions.AlignCenter:
		half := totalPaddingBits / 2
		return half / 8, half % 8
	default:
		return totalPaddingBits / 8, totalPaddingBits % 8
	}
}

func (s *Sequencer) emitPageClose(isLast bool) error {
	if err := s.buf.Flush(); err != nil {
		return err
	}

	if isLast {
		if s.Opts.ConcatPages && s.pendingEmptyLines > 0 {
			var xorMask byte
			if s.currentHeader.NegativePrint {
				xorMask = 0xFF
			}
			if err := s.buf.StoreEmptyRows(s.pendingEmptyLines, xorMask); err != nil {
				return err
			}
			if err := s.buf.Flush(); err != nil {
				return err
			}
		}
		_, err := s.Out.Write([]byte{eject})
		return err
	}

	if s.Opts.ConcatPages {
		return nil
	}
	_, err := s.Out.Write([]byte{formFeed})
	return err
}

// buildPrintInfo builds the ESC i z print-information command for the
// current page, carrying lineCount as the flushed batch's row count (per
// the concat-pages open question, this is the batch size, not necessarily
// the whole page).
func (s *Sequencer) buildPrintInfo(lineCount int) []byte {
	const (
		validKind    = 0x02
		validWidth   = 0x04
		validLength  = 0x08
		validQuality = 0x40
		validRecover = 0x80
	)

	valid := byte(validKind | validWidth | validLength | validQuality)
	if s.Opts.LabelRecovery {
		valid |= validRecover
	}

	var mediaKind byte
	if s.Opts.Media == joboptions.MediaDieCutLabels {
		mediaKind = 1
	}

	widthMM, lengthMM := s.tapeDimensionsMM(s.currentHeader)

	whichPage := byte(1)
	switch {
	case s.pageIndex == 1:
		whichPage = 0
	case s.isLastPage && s.Opts.LastPageFlag:
		whichPage = 2
	}

	cmd := []byte{esc, 'i', 'z', valid, mediaKind, widthMM, lengthMM}
	cmd = append(cmd,
		byte(lineCount),
		byte(lineCount>>8),
		byte(lineCount>>16),
		byte(lineCount>>24),
	)
	cmd = append(cmd, whichPage, 0x00)
	return cmd
}

// tapeDimensionsMM converts the page header's bounding box to millimetres,
// clamping to 255 and warning per §7's Overflow handling.
func (s *Sequencer) tapeDimensionsMM(header raster.PageHeader) (widthMM, lengthMM byte) {
	return s.clampMM(geometry.Dx(header.PageBox), "width"), s.clampMM(geometry.Dy(header.PageBox), "length")
}

func (s *Sequencer) clampMM(points float64, label string) byte {
	mm := points * 25.4 / 72
	rounded := int(mm + 0.5)
	if rounded > 255 {
		s.warn("page " + label + " exceeds 255 mm, clamping")
		return 255
	}
	if rounded < 0 {
		return 0
	}
	return byte(rounded)
}
