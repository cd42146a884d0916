/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders naval unit cards to PNG and PDF. Both formats share
// one layout pass over a drawing surface, so a card looks the same in either.
package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"navalcards/internal/canvas"
	"navalcards/internal/domain"
	"navalcards/internal/textlayout"
)

// Card is one unit card to render. Unit is optional; when set, bound fields
// without content show the unit's name and class, and a card with no
// elements gets the default layout for the unit.
type Card struct {
	Unit  *domain.NavalUnit
	State domain.CanvasState
}

// Name returns the label used for output files.
func (c Card) Name() string {
	if c.Unit != nil && c.Unit.Name != "" {
		return c.Unit.Name
	}
	return "card"
}

const (
	textPadding     = 8
	lineHeightRatio = 1.2
	cellPadding     = 4
)

var (
	placeholderGray = color.RGBA{0x88, 0x88, 0x88, 0xff}
	placeholderRed  = color.RGBA{0xff, 0x00, 0x00, 0xff}
	cellBorder      = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	cellEven        = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	cellOdd         = color.RGBA{0xff, 0xff, 0xff, 0xff}
	headerText      = color.RGBA{0x00, 0x00, 0x00, 0xff}
	bodyText        = color.RGBA{0x37, 0x41, 0x51, 0xff}
)

// surface is a drawing target in card pixel coordinates.
type surface interface {
	fillRect(x, y, w, h, radius float64, c color.RGBA)
	strokeRect(x, y, w, h, radius, width float64, c color.RGBA, style string)
	line(x1, y1, x2, y2, width float64, c color.RGBA)
	setFont(spec textlayout.FontSpec) error
	measure(s string) float64
	text(s string, x, baseline float64, c color.RGBA)
	image(ctx context.Context, img image.Image, x, y, w, h float64) error
	clip(x, y, w, h float64)
	unclip()
}

type renderer struct {
	s      surface
	images ImageSource
	log    *slog.Logger
}

func canvasSize(cfg domain.CanvasConfig) (float64, float64) {
	w, h := cfg.CanvasWidth, cfg.CanvasHeight
	if w <= 0 {
		w = domain.DefaultCanvasWidth
	}
	if h <= 0 {
		h = domain.DefaultCanvasHeight
	}
	return float64(w), float64(h)
}

// elementsOf returns the elements to draw for c.
func elementsOf(c Card) []domain.CanvasElement {
	if len(c.State.Elements) == 0 && c.Unit != nil {
		return canvas.DefaultUnitLayout(*c.Unit)
	}
	return c.State.Elements
}

func (r *renderer) card(ctx context.Context, c Card) error {
	w, h := canvasSize(c.State.CanvasConfig)
	r.s.fillRect(0, 0, w, h, 0, colorOr(&c.State.CanvasBackground, domain.DefaultCanvasBackground))
	if bw := float64(c.State.CanvasBorderWidth); bw > 0 {
		bc := colorOr(&c.State.CanvasBorderColor, domain.DefaultCanvasBorderColor)
		r.s.strokeRect(bw/2, bw/2, w-bw, h-bw, 0, bw, bc, "solid")
	}
	for _, e := range elementsOf(c) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsVisible() {
			continue
		}
		r.element(ctx, e, c.Unit)
	}
	return nil
}

// element draws e. Problems with a single element are logged and the element
// is skipped so the rest of the card still renders.
func (r *renderer) element(ctx context.Context, e domain.CanvasElement, unit *domain.NavalUnit) {
	var err error
	switch {
	case e.Type.IsText():
		err = r.textElement(e, unit)
	case e.Type.IsImage():
		err = r.imageElement(ctx, e)
	case e.Type == domain.ElementTable:
		err = r.tableElement(e)
	}
	if err != nil {
		r.log.Warn("element skipped", slog.String("id", e.ID), slog.String("type", string(e.Type)), slog.Any("err", err))
	}
}

// frame paints the background and border shared by every element type and
// returns the border width.
func (r *renderer) frame(e domain.CanvasElement, defBackground string, defBorder float64) float64 {
	st := e.Style
	radius := st.BorderRadiusOr(0)
	var bg *string
	if st != nil {
		bg = st.BackgroundColor
	}
	if c := colorOr(bg, defBackground); c.A > 0 {
		r.s.fillRect(e.X, e.Y, e.Width, e.Height, radius, c)
	}
	bw := st.BorderWidthOr(defBorder)
	if bw > 0 {
		var bc, bs *string
		if st != nil {
			bc, bs = st.BorderColor, st.BorderStyle
		}
		r.s.strokeRect(e.X+bw/2, e.Y+bw/2, e.Width-bw, e.Height-bw, radius, bw, colorOr(bc, "#000000"), domain.StringOr(bs, "solid"))
	}
	return bw
}

func (r *renderer) textElement(e domain.CanvasElement, unit *domain.NavalUnit) error {
	content := e.Content
	if content == "" && unit != nil {
		switch e.Type {
		case domain.ElementUnitName:
			content = unit.Name
		case domain.ElementUnitClass:
			content = unit.UnitClass
		}
	}
	r.frame(e, "transparent", 0)

	spec := textlayout.SpecFor(e, 1)
	if err := r.s.setFont(spec); err != nil {
		return err
	}
	st := e.Style
	var colorStr, alignStr, wsStr, decoStr *string
	if st != nil {
		colorStr, alignStr, wsStr, decoStr = st.Color, st.TextAlign, st.WhiteSpace, st.TextDecoration
	}
	fg := colorOr(colorStr, "#000000")
	align := domain.StringOr(alignStr, "left")
	deco := domain.StringOr(decoStr, "none")

	maxWidth := e.Width - 2*textPadding
	if ws := domain.StringOr(wsStr, "normal"); ws == "nowrap" || ws == "pre" {
		maxWidth = 0
	}
	lines := textlayout.WrapFunc(r.s.measure, content, maxWidth)
	lh := spec.SizePt * lineHeightRatio
	top := e.Y + (e.Height-lh*float64(len(lines)))/2

	r.s.clip(e.X, e.Y, e.Width, e.Height)
	defer r.s.unclip()
	for i, ln := range lines {
		lw := r.s.measure(ln)
		var x float64
		switch align {
		case "center":
			x = e.X + textlayout.AlignOffset(align, lw, e.Width)
		case "right", "end":
			x = e.X + e.Width - lw - textPadding
		default:
			x = e.X + textPadding
		}
		lineTop := top + float64(i)*lh
		baseline := lineTop + (lh+spec.SizePt*0.7)/2
		r.s.text(ln, x, baseline, fg)
		switch deco {
		case "underline":
			y := baseline + spec.SizePt*0.12
			r.s.line(x, y, x+lw, y, 1, fg)
		case "line-through":
			y := baseline - spec.SizePt*0.3
			r.s.line(x, y, x+lw, y, 1, fg)
		}
	}
	return nil
}

func (r *renderer) imageElement(ctx context.Context, e domain.CanvasElement) error {
	bw := r.frame(e, "transparent", 0)
	if e.Image == "" {
		return nil
	}
	if r.images == nil {
		return r.placeholder(e, false)
	}
	img, err := r.images.Image(ctx, e.Image)
	if err != nil {
		r.log.Warn("image unavailable", slog.String("id", e.ID), slog.String("ref", e.Image), slog.Any("err", err))
		return r.placeholder(e, !errors.Is(err, ErrImageNotFound))
	}
	ix, iy, iw, ih := containRect(img.Bounds(), e.X+bw, e.Y+bw, e.Width-2*bw, e.Height-2*bw)
	if iw <= 0 || ih <= 0 {
		return nil
	}
	return r.s.image(ctx, img, ix, iy, iw, ih)
}

// containRect fits src into the box keeping its aspect ratio, centered.
func containRect(src image.Rectangle, x, y, w, h float64) (float64, float64, float64, float64) {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	if sw <= 0 || sh <= 0 || w <= 0 || h <= 0 {
		return x, y, 0, 0
	}
	scale := w / sw
	if s := h / sh; s < scale {
		scale = s
	}
	fw, fh := sw*scale, sh*scale
	return x + (w-fw)/2, y + (h-fh)/2, fw, fh
}

func (r *renderer) placeholder(e domain.CanvasElement, failed bool) error {
	label := "[" + strings.ToUpper(string(e.Type)) + "]"
	size, fg := 12.0, placeholderGray
	if failed {
		label = "[ERROR: " + strings.ToUpper(string(e.Type)) + "]"
		size, fg = 10, placeholderRed
	}
	if err := r.s.setFont(textlayout.FontSpec{SizePt: size}); err != nil {
		return err
	}
	lw := r.s.measure(label)
	r.s.text(label, e.X+(e.Width-lw)/2, e.Y+(e.Height+size*0.7)/2, fg)
	return nil
}

func (r *renderer) tableElement(e domain.CanvasElement) error {
	rows := e.TableData
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	bw := r.frame(e, "#ffffff", 1)
	cols := len(rows[0])
	innerW := e.Width - 2*bw
	cellH := (e.Height - 2*bw) / float64(len(rows))
	widths := columnWidths(e.Style, cols, innerW)

	st := e.Style
	var headerBg *string
	if st != nil {
		headerBg = st.HeaderBackgroundColor
	}
	bodySize := st.FontSizeOr(9) - 1
	if bodySize < 6 {
		bodySize = 6
	}

	y := e.Y + bw
	for ri, row := range rows {
		header := ri == 0
		bg, fg := cellOdd, bodyText
		spec := textlayout.FontSpec{SizePt: bodySize}
		switch {
		case header:
			bg, fg = colorOr(headerBg, "#f3f4f6"), headerText
			spec = textlayout.FontSpec{SizePt: st.FontSizeOr(9), Bold: true}
		case ri%2 == 0:
			bg = cellEven
		}
		if err := r.s.setFont(spec); err != nil {
			return err
		}
		x := e.X + bw
		for ci, cell := range row {
			if ci >= cols {
				break
			}
			cw := widths[ci]
			r.s.fillRect(x, y, cw, cellH, 0, bg)
			r.s.strokeRect(x, y, cw, cellH, 0, 1, cellBorder, "solid")
			label := textlayout.Truncate(r.s.measure, cell, cw-2*cellPadding)
			r.s.text(label, x+cellPadding, y+(cellH+spec.SizePt*0.7)/2, fg)
			x += cw
		}
		y += cellH
	}
	return nil
}

// columnWidths splits total among cols using the style's relative column
// widths when present; columns without a weight get an equal share.
func columnWidths(st *domain.ElementStyle, cols int, total float64) []float64 {
	out := make([]float64, cols)
	var weights []float64
	if st != nil {
		weights = st.ColumnWidths
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		sum = 100
	}
	for i := range out {
		if i < len(weights) {
			out[i] = weights[i] / sum * total
		} else {
			out[i] = total / float64(cols)
		}
	}
	return out
}
