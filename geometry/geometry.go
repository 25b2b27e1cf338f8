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

// Package geometry provides the page-box arithmetic used by PageHeader: the
// imaging bbox containment check, and the row-skip computation that derives
// top/bottom margins from the gap between the imaging bbox and the page box.
//
// Rect wraps seehuhn.de/go/geom/rect.Rect, the same rectangle type the
// teacher library uses for font bounding boxes, so that a single geometry
// primitive is shared instead of hand-rolling four-float arithmetic.
package geometry

import (
	"math"

	"seehuhn.de/go/geom/rect"
)

// Rect is a page or imaging bounding box in points, with the origin at the
// bottom left, matching rect.Rect's LLx/LLy/URx/URy convention.
type Rect = rect.Rect

// Dx returns the width of r.
func Dx(r Rect) float64 { return r.URx - r.LLx }

// Dy returns the height of r.
func Dy(r Rect) float64 { return r.URy - r.LLy }

// Contains reports whether inner is fully contained in outer.
func Contains(outer, inner Rect) bool {
	return inner.LLx >= outer.LLx && inner.LLy >= outer.LLy &&
		inner.URx <= outer.URx && inner.URy <= outer.URy
}

// TopBottomSkip computes the number of leading and trailing raster rows
// that fall outside the imaging bbox and therefore do not need to be read
// from the raster source, per the "row skipping" rule of the command
// sequencer (the gap between the imaging bbox and the page box, expressed
// in rows at resolutionY dots per inch).
func TopBottomSkip(page, imaging Rect, resolutionY float64) (top, bottom int) {
	topGap := page.URy - imaging.URy
	bottomGap := imaging.LLy - page.LLy
	top = pixelsFromPoints(topGap, resolutionY)
	bottom = pixelsFromPoints(bottomGap, resolutionY)
	return top, bottom
}

// FeedLines converts a margin expressed in points to a line count at
// resolutionY dots per inch, rounding to the nearest line. This implements
// the ESC i d feed computation of the command sequencer:
// (min-margin + margin) * (resolution-y / 72).
func FeedLines(marginPoints, resolutionY float64) int {
	return pixelsFromPoints(marginPoints, resolutionY)
}

func pixelsFromPoints(points, resolutionY float64) int {
	if points <= 0 {
		return 0
	}
	return int(math.Round(points * resolutionY / 72))
}
