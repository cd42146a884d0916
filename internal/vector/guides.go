/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// GuideLine is a renderable segment for an active snap line, spanning the canvas.
type GuideLine struct {
	Line    SnapLine
	From    Pt
	To      Pt
	Color   string
	Opacity float64
}

// Guides turns the active lines of a snap result into canvas-wide segments.
// Grid guides are faint grey, canvas guides blue and element guides red.
func Guides(active []SnapLine, canvasWidth, canvasHeight float64) []GuideLine {
	out := make([]GuideLine, 0, len(active))
	for _, l := range active {
		p := FloatRound(l.Position, 3)
		g := GuideLine{Line: l, Opacity: 0.8}
		if l.Orientation == Vertical {
			g.From, g.To = Pt{p, 0}, Pt{p, canvasHeight}
		} else {
			g.From, g.To = Pt{0, p}, Pt{canvasWidth, p}
		}
		switch l.Kind {
		case LineGrid:
			g.Color, g.Opacity = "#e5e7eb", 0.3
		case LineCanvas:
			g.Color = "#3b82f6"
		default:
			g.Color = "#ef4444"
		}
		out = append(out, g)
	}
	return out
}
