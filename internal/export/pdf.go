/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	applog "navalcards/internal/log"
	"navalcards/internal/textlayout"
)

// ptPerMM converts millimetres to points.
const ptPerMM = 72 / 25.4

// PDFOptions controls PDF export behavior.
// Every card goes on its own page, scaled to fit inside the margins and
// centered. Text uses the built-in Helvetica so nothing has to be embedded.
type PDFOptions struct {
	PageSize  string  // gofpdf size name, "A4" when empty
	Portrait  bool    // landscape unless set
	MarginMM  float64 // 10 when zero
	Title     string
	Images    ImageSource
	PageLabel bool // print the unit name under each card
}

// WritePDF renders cards into a single multi-page PDF written to w.
func WritePDF(ctx context.Context, w io.Writer, cards []Card, opt PDFOptions) error {
	if len(cards) == 0 {
		return errors.New("no cards to export")
	}
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}
	orientation := "L"
	if opt.Portrait {
		orientation = "P"
	}
	margin := opt.MarginMM
	if margin <= 0 {
		margin = 10
	}
	pdf := gofpdf.New(orientation, "mm", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("navalcards", false)
	pdf.SetFont("Helvetica", "", 12)

	log := applog.WithComponent("export")
	for i, c := range cards {
		pdf.AddPage()
		pageW, pageH := pdf.GetPageSize()
		availH := pageH - 2*margin
		if opt.PageLabel {
			availH -= 8
		}
		cw, ch := canvasSize(c.State.CanvasConfig)
		k := (pageW - 2*margin) / cw
		if kh := availH / ch; kh < k {
			k = kh
		}
		ox := (pageW - cw*k) / 2
		oy := margin + (availH-ch*k)/2

		s := &pdfSurface{pdf: pdf, k: k, ox: ox, oy: oy, tr: pdf.UnicodeTranslatorFromDescriptor(""), page: i}
		r := renderer{s: s, images: opt.Images, log: log}
		if err := r.card(ctx, c); err != nil {
			return err
		}
		if opt.PageLabel {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(margin, oy+ch*k+2)
			pdf.CellFormat(pageW-2*margin, 6, s.tr(c.Name()), "", 0, "C", false, 0, "")
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("card %d: %w", i+1, err)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfSurface maps card pixels to page millimetres: page = o + px*k.
type pdfSurface struct {
	pdf    *gofpdf.Fpdf
	k      float64
	ox, oy float64
	tr     func(string) string
	page   int
	images int
}

func (s *pdfSurface) at(x, y float64) (float64, float64) { return s.ox + x*s.k, s.oy + y*s.k }

func (s *pdfSurface) setFill(c color.RGBA) bool {
	r, g, b, a := straight(c)
	if a == 0 {
		return false
	}
	s.pdf.SetFillColor(r, g, b)
	s.pdf.SetAlpha(a, "Normal")
	return true
}

func (s *pdfSurface) setDraw(c color.RGBA) bool {
	r, g, b, a := straight(c)
	if a == 0 {
		return false
	}
	s.pdf.SetDrawColor(r, g, b)
	s.pdf.SetAlpha(a, "Normal")
	return true
}

// Rounded corners are not drawn in PDF output; boxes keep square corners.
func (s *pdfSurface) fillRect(x, y, w, h, _ float64, c color.RGBA) {
	if !s.setFill(c) {
		return
	}
	px, py := s.at(x, y)
	s.pdf.Rect(px, py, w*s.k, h*s.k, "F")
	s.pdf.SetAlpha(1, "Normal")
}

func (s *pdfSurface) strokeRect(x, y, w, h, _ float64, width float64, c color.RGBA, style string) {
	if width <= 0 || !s.setDraw(c) {
		return
	}
	lw := width * s.k
	s.pdf.SetLineWidth(lw)
	switch style {
	case "dashed":
		s.pdf.SetDashPattern([]float64{4 * lw, 2 * lw}, 0)
	case "dotted":
		s.pdf.SetDashPattern([]float64{lw, lw}, 0)
	}
	px, py := s.at(x, y)
	s.pdf.Rect(px, py, w*s.k, h*s.k, "D")
	s.pdf.SetDashPattern([]float64{}, 0)
	s.pdf.SetAlpha(1, "Normal")
}

func (s *pdfSurface) line(x1, y1, x2, y2, width float64, c color.RGBA) {
	if !s.setDraw(c) {
		return
	}
	s.pdf.SetLineWidth(width * s.k)
	ax, ay := s.at(x1, y1)
	bx, by := s.at(x2, y2)
	s.pdf.Line(ax, ay, bx, by)
	s.pdf.SetAlpha(1, "Normal")
}

func (s *pdfSurface) setFont(spec textlayout.FontSpec) error {
	style := ""
	if spec.Bold {
		style += "B"
	}
	if spec.Italic {
		style += "I"
	}
	size := spec.SizePt
	if size <= 0 {
		size = 12
	}
	// card pixels -> millimetres -> points
	s.pdf.SetFont("Helvetica", style, size*s.k*ptPerMM)
	return nil
}

func (s *pdfSurface) measure(str string) float64 {
	return s.pdf.GetStringWidth(s.tr(str)) / s.k
}

func (s *pdfSurface) text(str string, x, baseline float64, c color.RGBA) {
	r, g, b, a := straight(c)
	if str == "" || a == 0 {
		return
	}
	s.pdf.SetTextColor(r, g, b)
	px, py := s.at(x, baseline)
	s.pdf.Text(px, py, s.tr(str))
}

func (s *pdfSurface) image(_ context.Context, img image.Image, x, y, w, h float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	s.images++
	name := fmt.Sprintf("p%d-img%d", s.page, s.images)
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	s.pdf.RegisterImageOptionsReader(name, opts, &buf)
	px, py := s.at(x, y)
	s.pdf.ImageOptions(name, px, py, w*s.k, h*s.k, false, opts, 0, "")
	return s.pdf.Error()
}

func (s *pdfSurface) clip(x, y, w, h float64) {
	px, py := s.at(x, y)
	s.pdf.ClipRect(px, py, w*s.k, h*s.k, false)
}

func (s *pdfSurface) unclip() { s.pdf.ClipEnd() }
