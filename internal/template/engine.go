/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package template manages reusable card layouts: applying a template to the
// current canvas, the template library with its built-in defaults, exchange
// documents and packs, and the per-unit template state cache.
package template

import "navalcards/internal/domain"

// Result is the outcome of Apply. Nil canvas fields mean the template does
// not change that part of the canvas.
type Result struct {
	Elements         []domain.CanvasElement
	CanvasWidth      *int
	CanvasHeight     *int
	CanvasBackground *string
}

// Apply lays template t over the current elements. With formatOnly false the
// result is a fresh copy of the template elements. With formatOnly true every
// current element whose type appears in the template takes the geometry of
// the first template element of that type and its style merged over its own,
// keeping content, image and table data; template elements of types not on
// the canvas are appended. current is never modified.
func Apply(t domain.Template, current []domain.CanvasElement, formatOnly bool) Result {
	res := canvasFields(t)
	if !formatOnly {
		res.Elements = domain.CloneElements(t.Elements)
		if res.Elements == nil {
			res.Elements = []domain.CanvasElement{}
		}
		return res
	}

	byType := make(map[domain.ElementType]domain.CanvasElement, len(t.Elements))
	for _, te := range t.Elements {
		if _, seen := byType[te.Type]; !seen {
			byType[te.Type] = te
		}
	}

	out := make([]domain.CanvasElement, 0, len(current)+len(t.Elements))
	present := make(map[domain.ElementType]bool, len(current))
	for _, e := range current {
		present[e.Type] = true
		te, ok := byType[e.Type]
		if !ok {
			out = append(out, e.Clone())
			continue
		}
		out = append(out, formatted(e, te))
	}
	for _, te := range t.Elements {
		if !present[te.Type] {
			out = append(out, te.Clone())
		}
	}
	res.Elements = out
	return res
}

func formatted(e, te domain.CanvasElement) domain.CanvasElement {
	m := e.Clone()
	m.X, m.Y, m.Width, m.Height = te.X, te.Y, te.Width, te.Height
	switch {
	case e.Style == nil && te.Style == nil:
	case e.Style == nil:
		s := te.Style.Clone()
		m.Style = &s
	case te.Style != nil:
		s := e.Style.Merge(*te.Style)
		m.Style = &s
	}
	return m
}

func canvasFields(t domain.Template) Result {
	var r Result
	if t.CanvasWidth > 0 {
		w := t.CanvasWidth
		r.CanvasWidth = &w
	}
	if t.CanvasHeight > 0 {
		h := t.CanvasHeight
		r.CanvasHeight = &h
	}
	if t.CanvasBackground != "" {
		bg := t.CanvasBackground
		r.CanvasBackground = &bg
	}
	return r
}

// ApplyConfig returns c with the canvas fields of r applied.
func (r Result) ApplyConfig(c domain.CanvasConfig) domain.CanvasConfig {
	if r.CanvasWidth != nil {
		c.CanvasWidth = *r.CanvasWidth
	}
	if r.CanvasHeight != nil {
		c.CanvasHeight = *r.CanvasHeight
	}
	if r.CanvasBackground != nil {
		c.CanvasBackground = *r.CanvasBackground
	}
	return c
}
