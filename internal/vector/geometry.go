/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package vector provides canvas-space geometry and the snap-line engine used
// while elements are dragged or resized. Everything here is pure and
// deterministic; coordinates are canvas pixels with y growing downwards.
package vector

import "math"

// Pt is a point in canvas pixels.
type Pt struct{ X, Y float64 }

func (p Pt) Sub(q Pt) Pt { return Pt{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Contains is inclusive on all edges.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.Right() && p.Y <= r.Bottom()
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.Right(), o.Right())
	maxY := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Viewport maps client (screen) coordinates into canvas space.
// Origin is the client position of the canvas top-left corner.
type Viewport struct {
	Origin Pt
	Zoom   float64
}

// ToCanvas converts a client point into zoom-adjusted canvas coordinates.
// A non-positive zoom is treated as 1.
func (v Viewport) ToCanvas(client Pt) Pt {
	z := v.Zoom
	if z <= 0 {
		z = 1
	}
	return Pt{(client.X - v.Origin.X) / z, (client.Y - v.Origin.Y) / z}
}

// FloatRound rounds v to n decimal places.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
