/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// LineKind tells where a snap line came from.
type LineKind string

const (
	LineGrid    LineKind = "grid"
	LineCanvas  LineKind = "canvas"
	LineElement LineKind = "element"
)

// SnapLine is one alignment candidate. Owner is the id of the element that
// produced an element line and is empty for grid and canvas lines.
type SnapLine struct {
	Position    float64
	Orientation Orientation
	Kind        LineKind
	Owner       string
}

// Anchor is another element's bounds, used to derive element lines.
type Anchor struct {
	ID   string
	Rect Rect
}

// SnapConfig selects the candidate categories and the capture distance.
type SnapConfig struct {
	CanvasWidth  float64
	CanvasHeight float64
	GridSize     float64
	Tolerance    float64

	Grid     bool
	Canvas   bool
	Elements bool

	// PreferClosest picks the nearest line within tolerance instead of the
	// first one in generation order.
	PreferClosest bool
}

// DefaultSnapConfig enables every category with a 10px grid and 5px tolerance.
func DefaultSnapConfig(canvasWidth, canvasHeight float64) SnapConfig {
	return SnapConfig{
		CanvasWidth:  canvasWidth,
		CanvasHeight: canvasHeight,
		GridSize:     10,
		Tolerance:    5,
		Grid:         true,
		Canvas:       true,
		Elements:     true,
	}
}

// SnapResult is the outcome of SnapToLines.
type SnapResult struct {
	X, Y     float64
	SnappedX bool
	SnappedY bool
	Active   []SnapLine
}

// Snapper holds the candidate lines for one canvas layout. Build it once per
// gesture (or whenever the layout changes); Snap is then cheap per pointer move.
type Snapper struct {
	cfg        SnapConfig
	vertical   []SnapLine
	horizontal []SnapLine
}

// NewSnapper derives the candidate lines for the given anchors.
func NewSnapper(cfg SnapConfig, anchors []Anchor) *Snapper {
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	s := &Snapper{cfg: cfg}
	for _, l := range BuildLines(cfg, anchors) {
		if l.Orientation == Vertical {
			s.vertical = append(s.vertical, l)
		} else {
			s.horizontal = append(s.horizontal, l)
		}
	}
	return s
}

// Config returns the configuration the snapper was built with.
func (s *Snapper) Config() SnapConfig { return s.cfg }

// Lines returns every candidate in generation order, vertical lines first.
func (s *Snapper) Lines() []SnapLine {
	out := make([]SnapLine, 0, len(s.vertical)+len(s.horizontal))
	out = append(out, s.vertical...)
	return append(out, s.horizontal...)
}

// BuildLines generates candidates in this order: grid verticals, grid
// horizontals, canvas lines (x=0, x=w, y=0, y=h, x=w/2, y=h/2), then for each
// anchor its left/center/right and top/center/bottom lines.
func BuildLines(cfg SnapConfig, anchors []Anchor) []SnapLine {
	var lines []SnapLine
	if cfg.Grid && cfg.GridSize > 0 {
		for i := 0; float64(i)*cfg.GridSize <= cfg.CanvasWidth; i++ {
			lines = append(lines, SnapLine{Position: float64(i) * cfg.GridSize, Orientation: Vertical, Kind: LineGrid})
		}
		for i := 0; float64(i)*cfg.GridSize <= cfg.CanvasHeight; i++ {
			lines = append(lines, SnapLine{Position: float64(i) * cfg.GridSize, Orientation: Horizontal, Kind: LineGrid})
		}
	}
	if cfg.Canvas {
		w, h := cfg.CanvasWidth, cfg.CanvasHeight
		lines = append(lines,
			SnapLine{Position: 0, Orientation: Vertical, Kind: LineCanvas},
			SnapLine{Position: w, Orientation: Vertical, Kind: LineCanvas},
			SnapLine{Position: 0, Orientation: Horizontal, Kind: LineCanvas},
			SnapLine{Position: h, Orientation: Horizontal, Kind: LineCanvas},
			SnapLine{Position: w / 2, Orientation: Vertical, Kind: LineCanvas},
			SnapLine{Position: h / 2, Orientation: Horizontal, Kind: LineCanvas},
		)
	}
	if cfg.Elements {
		for _, a := range anchors {
			r := a.Rect
			lines = append(lines,
				SnapLine{Position: r.X, Orientation: Vertical, Kind: LineElement, Owner: a.ID},
				SnapLine{Position: r.CenterX(), Orientation: Vertical, Kind: LineElement, Owner: a.ID},
				SnapLine{Position: r.Right(), Orientation: Vertical, Kind: LineElement, Owner: a.ID},
				SnapLine{Position: r.Y, Orientation: Horizontal, Kind: LineElement, Owner: a.ID},
				SnapLine{Position: r.CenterY(), Orientation: Horizontal, Kind: LineElement, Owner: a.ID},
				SnapLine{Position: r.Bottom(), Orientation: Horizontal, Kind: LineElement, Owner: a.ID},
			)
		}
	}
	return lines
}

// Snap aligns the rectangle (x, y, w, h) to at most one vertical and one
// horizontal line. Lines owned by excludeID are ignored.
//
// For each line in generation order the leading edge, the center and the
// trailing edge are tested in that order; the first test within tolerance
// wins. Later lines are not considered even if they are closer unless
// PreferClosest is set.
func (s *Snapper) Snap(x, y, w, h float64, excludeID string) SnapResult {
	res := SnapResult{X: x, Y: y}
	if nx, line, ok := s.axis(s.vertical, x, w, excludeID); ok {
		res.X, res.SnappedX = nx, true
		res.Active = append(res.Active, line)
	}
	if ny, line, ok := s.axis(s.horizontal, y, h, excludeID); ok {
		res.Y, res.SnappedY = ny, true
		res.Active = append(res.Active, line)
	}
	return res
}

// SnapToLines is the one-shot form of NewSnapper(cfg, anchors).Snap.
func SnapToLines(cfg SnapConfig, anchors []Anchor, x, y, w, h float64, excludeID string) SnapResult {
	return NewSnapper(cfg, anchors).Snap(x, y, w, h, excludeID)
}

func (s *Snapper) axis(lines []SnapLine, start, size float64, excludeID string) (float64, SnapLine, bool) {
	tol := s.cfg.Tolerance
	// offsets of leading edge, center and trailing edge from start
	features := [3]float64{0, size / 2, size}

	bestDist := math.Inf(1)
	var bestPos float64
	var bestLine SnapLine
	found := false
	for _, l := range lines {
		if excludeID != "" && l.Owner == excludeID {
			continue
		}
		for _, off := range features {
			d := math.Abs(start + off - l.Position)
			if d > tol {
				continue
			}
			if !s.cfg.PreferClosest {
				return l.Position - off, l, true
			}
			if d < bestDist {
				bestDist, bestPos, bestLine, found = d, l.Position-off, l, true
			}
		}
	}
	return bestPos, bestLine, found
}
