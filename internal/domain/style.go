/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// ElementStyle is the presentational attribute set of an element. Every field
// is optional; nil means "not specified".
type ElementStyle struct {
	FontSize              *float64  `json:"fontSize,omitempty"`
	FontWeight            *string   `json:"fontWeight,omitempty"`
	FontStyle             *string   `json:"fontStyle,omitempty"`
	FontFamily            *string   `json:"fontFamily,omitempty"`
	TextDecoration        *string   `json:"textDecoration,omitempty"`
	TextAlign             *string   `json:"textAlign,omitempty"`
	WhiteSpace            *string   `json:"whiteSpace,omitempty"`
	Color                 *string   `json:"color,omitempty"`
	BackgroundColor       *string   `json:"backgroundColor,omitempty"`
	BorderRadius          *float64  `json:"borderRadius,omitempty"`
	BorderWidth           *float64  `json:"borderWidth,omitempty"`
	BorderColor           *string   `json:"borderColor,omitempty"`
	BorderStyle           *string   `json:"borderStyle,omitempty"`
	HeaderBackgroundColor *string   `json:"headerBackgroundColor,omitempty"`
	ColumnWidths          []float64 `json:"columnWidths,omitempty"`
}

// Merge returns s overlaid with every field set in over.
func (s ElementStyle) Merge(over ElementStyle) ElementStyle {
	out := s.Clone()
	pickF(&out.FontSize, over.FontSize)
	pickS(&out.FontWeight, over.FontWeight)
	pickS(&out.FontStyle, over.FontStyle)
	pickS(&out.FontFamily, over.FontFamily)
	pickS(&out.TextDecoration, over.TextDecoration)
	pickS(&out.TextAlign, over.TextAlign)
	pickS(&out.WhiteSpace, over.WhiteSpace)
	pickS(&out.Color, over.Color)
	pickS(&out.BackgroundColor, over.BackgroundColor)
	pickF(&out.BorderRadius, over.BorderRadius)
	pickF(&out.BorderWidth, over.BorderWidth)
	pickS(&out.BorderColor, over.BorderColor)
	pickS(&out.BorderStyle, over.BorderStyle)
	pickS(&out.HeaderBackgroundColor, over.HeaderBackgroundColor)
	if over.ColumnWidths != nil {
		out.ColumnWidths = append([]float64(nil), over.ColumnWidths...)
	}
	return out
}

// Clone copies every pointer so the result shares nothing with s.
func (s ElementStyle) Clone() ElementStyle {
	out := ElementStyle{}
	pickF(&out.FontSize, s.FontSize)
	pickS(&out.FontWeight, s.FontWeight)
	pickS(&out.FontStyle, s.FontStyle)
	pickS(&out.FontFamily, s.FontFamily)
	pickS(&out.TextDecoration, s.TextDecoration)
	pickS(&out.TextAlign, s.TextAlign)
	pickS(&out.WhiteSpace, s.WhiteSpace)
	pickS(&out.Color, s.Color)
	pickS(&out.BackgroundColor, s.BackgroundColor)
	pickF(&out.BorderRadius, s.BorderRadius)
	pickF(&out.BorderWidth, s.BorderWidth)
	pickS(&out.BorderColor, s.BorderColor)
	pickS(&out.BorderStyle, s.BorderStyle)
	pickS(&out.HeaderBackgroundColor, s.HeaderBackgroundColor)
	if s.ColumnWidths != nil {
		out.ColumnWidths = append([]float64(nil), s.ColumnWidths...)
	}
	return out
}

func pickF(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func pickS(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Str and Num build optional style values inline.
func Str(s string) *string   { return &s }
func Num(f float64) *float64 { return &f }
func Bool(b bool) *bool      { return &b }
func Int(i int) *int         { return &i }

// Accessors with fallbacks for renderers.

func (s *ElementStyle) FontSizeOr(def float64) float64 {
	if s == nil || s.FontSize == nil || *s.FontSize <= 0 {
		return def
	}
	return *s.FontSize
}

func (s *ElementStyle) BorderWidthOr(def float64) float64 {
	if s == nil || s.BorderWidth == nil {
		return def
	}
	return *s.BorderWidth
}

func (s *ElementStyle) BorderRadiusOr(def float64) float64 {
	if s == nil || s.BorderRadius == nil {
		return def
	}
	return *s.BorderRadius
}

// StringOr dereferences p unless it is nil or empty.
func StringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
