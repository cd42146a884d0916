/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas owns the live card model: element factory and geometry
// helpers, the canvas state store and the element operations built on it.
package canvas

import (
	"math"

	"github.com/google/uuid"

	"navalcards/internal/domain"
	"navalcards/internal/vector"
)

// NewID generates element ids. Tests may replace it.
var NewID = func() string { return "element-" + uuid.NewString() }

// CreateElement builds an element of type t at (x, y) with the type's default
// size, style and placeholder content, then applies overrides. It never fails;
// an unknown type gets text dimensions and no style.
func CreateElement(t domain.ElementType, x, y float64, overrides *domain.ElementPatch) domain.CanvasElement {
	size := domain.DefaultSize(t)
	e := domain.CanvasElement{
		ID:      NewID(),
		Type:    t,
		X:       x,
		Y:       y,
		Width:   size.Width,
		Height:  size.Height,
		Content: domain.DefaultContent(t),
		Visible: domain.Bool(true),
		Style:   domain.DefaultStyle(t),
	}
	if t == domain.ElementTable {
		e.TableData = domain.DefaultTableData()
	}
	if overrides != nil {
		e = overrides.Apply(e)
	}
	return e
}

// DuplicateElement returns a deep copy with a fresh id, offset by DuplicateOffset on both axes.
func DuplicateElement(e domain.CanvasElement) domain.CanvasElement {
	d := e.Clone()
	d.ID = NewID()
	d.X += domain.DuplicateOffset
	d.Y += domain.DuplicateOffset
	return d
}

// Bounds returns the element rectangle.
func Bounds(e domain.CanvasElement) vector.Rect { return vector.R(e.X, e.Y, e.Width, e.Height) }

// CalculateResizedDimensions applies a pointer delta to e through handle h.
// Edges not named by the handle stay where they were, including when the
// result is floored to the minimum element size.
func CalculateResizedDimensions(e domain.CanvasElement, h domain.ResizeHandle, dx, dy float64) vector.Rect {
	r := Bounds(e)
	switch {
	case h.West():
		r.X += dx
		r.W -= dx
	case h.East():
		r.W += dx
	}
	switch {
	case h.North():
		r.Y += dy
		r.H -= dy
	case h.South():
		r.H += dy
	}

	if r.W < domain.MinElementWidth {
		r.W = domain.MinElementWidth
		if h.West() {
			r.X = e.X + e.Width - r.W
		}
	}
	if r.H < domain.MinElementHeight {
		r.H = domain.MinElementHeight
		if h.North() {
			r.Y = e.Y + e.Height - r.H
		}
	}
	return r
}

// SnapToGrid rounds v to the nearest multiple of grid; halves round up.
// A non-positive grid returns v unchanged.
func SnapToGrid(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Floor(v/grid+0.5) * grid
}

// SnapRectToGrid snaps all four values of r.
func SnapRectToGrid(r vector.Rect, grid float64) vector.Rect {
	return vector.R(SnapToGrid(r.X, grid), SnapToGrid(r.Y, grid), SnapToGrid(r.W, grid), SnapToGrid(r.H, grid))
}

// ConstrainToCanvas keeps r inside [0,w]x[0,h]. An axis larger than the
// canvas is truncated to the canvas size with its origin at 0.
func ConstrainToCanvas(r vector.Rect, w, h float64) vector.Rect {
	r.X = math.Max(0, math.Min(r.X, w-r.W))
	r.Y = math.Max(0, math.Min(r.Y, h-r.H))
	if r.W > w {
		r.W = w
		r.X = 0
	}
	if r.H > h {
		r.H = h
		r.Y = 0
	}
	return r
}

func indexOf(elements []domain.CanvasElement, id string) int {
	for i := range elements {
		if elements[i].ID == id {
			return i
		}
	}
	return -1
}

// BringToFront moves the element with id to the end of a new list.
// The input is returned unchanged when id is unknown.
func BringToFront(elements []domain.CanvasElement, id string) []domain.CanvasElement {
	i := indexOf(elements, id)
	if i < 0 {
		return elements
	}
	out := make([]domain.CanvasElement, 0, len(elements))
	out = append(out, elements[:i]...)
	out = append(out, elements[i+1:]...)
	return append(out, elements[i])
}

// SendToBack moves the element with id to the start of a new list.
func SendToBack(elements []domain.CanvasElement, id string) []domain.CanvasElement {
	i := indexOf(elements, id)
	if i < 0 {
		return elements
	}
	out := make([]domain.CanvasElement, 0, len(elements))
	out = append(out, elements[i])
	out = append(out, elements[:i]...)
	return append(out, elements[i+1:]...)
}

// DefaultContent returns the placeholder text for t.
func DefaultContent(t domain.ElementType) string { return domain.DefaultContent(t) }

// ElementAtPoint returns the topmost visible element containing p.
func ElementAtPoint(elements []domain.CanvasElement, p vector.Pt) (domain.CanvasElement, bool) {
	for i := len(elements) - 1; i >= 0; i-- {
		if elements[i].IsVisible() && Bounds(elements[i]).Contains(p) {
			return elements[i], true
		}
	}
	return domain.CanvasElement{}, false
}

// Anchors converts elements into snap anchors.
func Anchors(elements []domain.CanvasElement) []vector.Anchor {
	out := make([]vector.Anchor, 0, len(elements))
	for _, e := range elements {
		if !e.IsVisible() {
			continue
		}
		out = append(out, vector.Anchor{ID: e.ID, Rect: Bounds(e)})
	}
	return out
}
