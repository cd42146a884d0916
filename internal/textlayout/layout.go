/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout resolves card element styles to font faces and breaks
// element text into lines that fit the element box. Both the PNG and PDF
// renderers measure through it so a card wraps the same way everywhere.
package textlayout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"navalcards/internal/domain"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePt float64
	Bold   bool
	Italic bool
}

// Provider maps a FontSpec to a concrete face.
type Provider interface {
	Face(FontSpec) (font.Face, error)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Face(FontSpec) (font.Face, error) { return basicfont.Face7x13, nil }

// SpecFor derives the font of an element from its style, scaled by scale.
// Elements without a font size use 16pt.
func SpecFor(e domain.CanvasElement, scale float64) FontSpec {
	if scale <= 0 {
		scale = 1
	}
	st := e.Style
	spec := FontSpec{SizePt: st.FontSizeOr(16) * scale}
	if st != nil {
		spec.Family = domain.StringOr(st.FontFamily, "")
		spec.Bold = isBold(domain.StringOr(st.FontWeight, "normal"))
		spec.Italic = domain.StringOr(st.FontStyle, "normal") == "italic"
	}
	return spec
}

func isBold(w string) bool {
	switch w {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// Advance returns the width of s in pixels.
func Advance(face font.Face, s string) float64 {
	return fixedToFloat(font.MeasureString(face, s))
}

// LineHeight returns the distance between two baselines.
func LineHeight(face font.Face) float64 {
	m := face.Metrics()
	if m.Height > 0 {
		return fixedToFloat(m.Height)
	}
	return fixedToFloat(m.Ascent + m.Descent)
}

// Ascent returns the distance from the top of a line to its baseline.
func Ascent(face font.Face) float64 { return fixedToFloat(face.Metrics().Ascent) }

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

// Wrap breaks text into lines no wider than maxWidth as measured with face.
func Wrap(face font.Face, text string, maxWidth float64) []string {
	return WrapFunc(func(s string) float64 { return Advance(face, s) }, text, maxWidth)
}

// WrapFunc breaks text into lines no wider than maxWidth as measured by
// measure. Explicit newlines are kept. A single word wider than maxWidth is
// split between runes. A non-positive maxWidth disables wrapping.
func WrapFunc(measure func(string) float64, text string, maxWidth float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 {
			out = append(out, para)
			continue
		}
		out = append(out, wrapParagraph(measure, para, maxWidth)...)
	}
	return out
}

func wrapParagraph(measure func(string) float64, para string, maxWidth float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if measure(candidate) <= maxWidth {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		// the word alone does not fit: hard break it
		for measure(w) > maxWidth {
			head, rest := splitToWidth(measure, w, maxWidth)
			lines = append(lines, head)
			w = rest
		}
		cur = w
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// splitToWidth returns the longest prefix of w that fits, at least one rune.
func splitToWidth(measure func(string) float64, w string, maxWidth float64) (string, string) {
	end := 0
	for i := range w {
		if i > 0 && measure(w[:i]) > maxWidth {
			break
		}
		end = i
	}
	if end == 0 {
		_, size := utf8.DecodeRuneInString(w)
		end = size
	}
	return w[:end], w[end:]
}

// Truncate shortens s with a trailing "..." until it fits maxWidth.
func Truncate(measure func(string) float64, s string, maxWidth float64) string {
	if measure(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && measure(string(r)+"...") > maxWidth {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// AlignOffset returns the x offset of a line of width lineWidth inside a box
// of width boxWidth for a CSS-like text-align value.
func AlignOffset(align string, lineWidth, boxWidth float64) float64 {
	switch align {
	case "center":
		return (boxWidth - lineWidth) / 2
	case "right", "end":
		return boxWidth - lineWidth
	}
	return 0
}
