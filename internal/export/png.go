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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"

	applog "navalcards/internal/log"
	"navalcards/internal/textlayout"
)

// PNGOptions controls PNG export behavior.
//   - Scale: output pixels per card pixel, 1 when zero
//   - Fonts: face provider, the embedded Go fonts when nil
//   - Images: element image loader; images render as placeholders when nil
type PNGOptions struct {
	Scale  float64
	Fonts  textlayout.Provider
	Images ImageSource
}

// ScaleForDPI converts an export DPI to a PNG scale. Cards are laid out at 96 DPI.
func ScaleForDPI(dpi int) float64 {
	if dpi <= 0 {
		return 1
	}
	return float64(dpi) / 96
}

// RenderPNG rasterizes one card.
func RenderPNG(ctx context.Context, c Card, opt PNGOptions) (image.Image, error) {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	fonts := opt.Fonts
	if fonts == nil {
		fonts = textlayout.GoFonts{}
	}
	w, h := canvasSize(c.State.CanvasConfig)
	dc := gg.NewContext(int(math.Round(w*scale)), int(math.Round(h*scale)))
	s := &ggSurface{dc: dc, scale: scale, fonts: fonts}
	r := renderer{s: s, images: opt.Images, log: applog.WithComponent("export")}
	if err := r.card(ctx, c); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders c and encodes it to w.
func WritePNG(ctx context.Context, w io.Writer, c Card, opt PNGOptions) error {
	img, err := RenderPNG(ctx, c, opt)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodePNG renders c into memory.
func EncodePNG(ctx context.Context, c Card, opt PNGOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePNG(ctx, &buf, c, opt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ggSurface draws with gg. Coordinates and font sizes are multiplied by
// scale instead of using a context transform so glyphs rasterize at the
// final size.
type ggSurface struct {
	dc    *gg.Context
	scale float64
	fonts textlayout.Provider
	face  font.Face
}

func (s *ggSurface) path(x, y, w, h, radius float64) {
	k := s.scale
	if radius > 0 {
		s.dc.DrawRoundedRectangle(x*k, y*k, w*k, h*k, radius*k)
		return
	}
	s.dc.DrawRectangle(x*k, y*k, w*k, h*k)
}

func (s *ggSurface) fillRect(x, y, w, h, radius float64, c color.RGBA) {
	if c.A == 0 {
		return
	}
	s.path(x, y, w, h, radius)
	s.dc.SetColor(c)
	s.dc.Fill()
}

func (s *ggSurface) strokeRect(x, y, w, h, radius, width float64, c color.RGBA, style string) {
	if c.A == 0 || width <= 0 {
		return
	}
	s.path(x, y, w, h, radius)
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width * s.scale)
	switch style {
	case "dashed":
		s.dc.SetDash(4*width*s.scale, 2*width*s.scale)
	case "dotted":
		s.dc.SetDash(width*s.scale, width*s.scale)
	}
	s.dc.Stroke()
	s.dc.SetDash()
}

func (s *ggSurface) line(x1, y1, x2, y2, width float64, c color.RGBA) {
	k := s.scale
	s.dc.SetColor(c)
	s.dc.SetLineWidth(width * k)
	s.dc.DrawLine(x1*k, y1*k, x2*k, y2*k)
	s.dc.Stroke()
}

func (s *ggSurface) setFont(spec textlayout.FontSpec) error {
	spec.SizePt *= s.scale
	face, err := s.fonts.Face(spec)
	if err != nil {
		return err
	}
	s.face = face
	s.dc.SetFontFace(face)
	return nil
}

func (s *ggSurface) measure(str string) float64 {
	if s.face == nil {
		return 0
	}
	return textlayout.Advance(s.face, str) / s.scale
}

func (s *ggSurface) text(str string, x, baseline float64, c color.RGBA) {
	if str == "" || c.A == 0 {
		return
	}
	s.dc.SetColor(c)
	s.dc.DrawString(str, x*s.scale, baseline*s.scale)
}

func (s *ggSurface) image(_ context.Context, img image.Image, x, y, w, h float64) error {
	k := s.scale
	dw, dh := int(math.Round(w*k)), int(math.Round(h*k))
	if dw <= 0 || dh <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	s.dc.DrawImage(dst, int(math.Round(x*k)), int(math.Round(y*k)))
	return nil
}

func (s *ggSurface) clip(x, y, w, h float64) {
	s.dc.Push()
	s.dc.DrawRectangle(x*s.scale, y*s.scale, w*s.scale, h*s.scale)
	s.dc.Clip()
}

func (s *ggSurface) unclip() {
	s.dc.ResetClip()
	s.dc.Pop()
}
