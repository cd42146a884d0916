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
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"navalcards/internal/domain"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}, true},
		{"#f3f4f6", color.RGBA{0xf3, 0xf4, 0xf6, 255}, true},
		{"#FFF", color.RGBA{255, 255, 255, 255}, true},
		{"#ff000080", color.RGBA{128, 0, 0, 128}, true},
		{"rgb(1, 2, 3)", color.RGBA{1, 2, 3, 255}, true},
		{"rgba(255,255,255,0)", color.RGBA{0, 0, 0, 0}, true},
		{"transparent", color.RGBA{}, true},
		{"Navy", color.RGBA{0, 0, 128, 255}, true},
		{"", color.RGBA{}, false},
		{"#zzz", color.RGBA{}, false},
		{"chartreuse-ish", color.RGBA{}, false},
	}
	for _, c := range cases {
		got, ok := ParseColor(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestContainRectCentersAndKeepsAspect(t *testing.T) {
	x, y, w, h := containRect(image.Rect(0, 0, 200, 100), 10, 10, 100, 100)
	if w != 100 || h != 50 || x != 10 || y != 35 {
		t.Fatalf("got %v,%v %vx%v", x, y, w, h)
	}
}

func TestColumnWidths(t *testing.T) {
	got := columnWidths(&domain.ElementStyle{ColumnWidths: []float64{30, 70}}, 2, 200)
	if got[0] != 60 || got[1] != 140 {
		t.Fatalf("weighted = %v", got)
	}
	got = columnWidths(nil, 4, 200)
	for _, w := range got {
		if w != 50 {
			t.Fatalf("equal = %v", got)
		}
	}
}

// boundedImages serves a 10x10 solid image for every reference but "missing".
type boundedImages struct{ c color.RGBA }

func (b boundedImages) Image(_ context.Context, ref string) (image.Image, error) {
	if ref == "missing" {
		return nil, ErrImageNotFound
	}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetRGBA(x, y, b.c)
		}
	}
	return img, nil
}

func sameColor(a color.Color, b color.RGBA) bool {
	r, g, bl, al := a.RGBA()
	return uint8(r>>8) == b.R && uint8(g>>8) == b.G && uint8(bl>>8) == b.B && uint8(al>>8) == b.A
}

func sampleCard() Card {
	return Card{
		Unit: &domain.NavalUnit{ID: 3, Name: "Zara", UnitClass: "Zara"},
		State: domain.CanvasState{
			CanvasConfig: domain.DefaultCanvasConfig(),
			Elements: []domain.CanvasElement{
				{ID: "hidden", Type: domain.ElementText, X: 100, Y: 100, Width: 200, Height: 100, Visible: domain.Bool(false),
					Style: &domain.ElementStyle{BackgroundColor: domain.Str("#ff0000")}},
				{ID: "box", Type: domain.ElementText, X: 100, Y: 400, Width: 200, Height: 100,
					Style: &domain.ElementStyle{BackgroundColor: domain.Str("#00ff00")}},
				{ID: "name", Type: domain.ElementUnitName, X: 600, Y: 30, Width: 400, Height: 50, Style: domain.DefaultStyle(domain.ElementUnitName)},
				{ID: "logo", Type: domain.ElementLogo, X: 400, Y: 100, Width: 150, Height: 150, Image: "logo.png"},
				{ID: "flag", Type: domain.ElementFlag, X: 1000, Y: 100, Width: 120, Height: 80, Image: "missing"},
				{ID: "t", Type: domain.ElementTable, X: 20, Y: 560, Width: 800, Height: 120, TableData: domain.DefaultTableData(), Style: domain.DefaultStyle(domain.ElementTable)},
			},
		},
	}
}

func TestRenderPNGDrawsCard(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	img, err := RenderPNG(context.Background(), sampleCard(), PNGOptions{Scale: 0.5, Images: boundedImages{c: blue}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("size = %v", b)
	}
	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}
	checks := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"canvas border", 1, 100, black},
		{"background", 320, 170, white},
		{"hidden element", 100, 75, white},
		{"visible element", 75, 225, color.RGBA{0, 255, 0, 255}},
		{"logo image", 237, 87, blue},
	}
	for _, c := range checks {
		if got := img.At(c.x, c.y); !sameColor(got, c.want) {
			t.Errorf("%s at (%d,%d) = %v, want %v", c.name, c.x, c.y, got, c.want)
		}
	}
}

func TestRenderPNGUsesDefaultLayoutForEmptyCard(t *testing.T) {
	c := Card{Unit: &domain.NavalUnit{Name: "Pola"}, State: domain.CanvasState{CanvasConfig: domain.DefaultCanvasConfig()}}
	img, err := RenderPNG(context.Background(), c, PNGOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	// the default characteristics table has a #f3f4f6 background
	if got := img.At(30, 690); sameColor(got, color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("expected the default layout to be drawn, got plain background")
	}
}

func TestRenderPNGHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RenderPNG(ctx, sampleCard(), PNGOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	cards := []Card{sampleCard(), {State: domain.CanvasState{CanvasConfig: domain.DefaultCanvasConfig()}}}
	if err := WritePDF(context.Background(), &buf, cards, PDFOptions{Images: boundedImages{c: color.RGBA{0, 0, 255, 255}}, PageLabel: true, Title: "Unità"}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
	if err := WritePDF(context.Background(), &buf, nil, PDFOptions{}); err == nil {
		t.Fatalf("expected error for no cards")
	}
}

func TestBatchWritesPresetFormats(t *testing.T) {
	dir := t.TempDir()
	files, err := Batch(context.Background(), []Card{sampleCard()}, BatchOptions{Preset: PresetPrint, OutDir: dir, DPIOverride: 48, Images: boundedImages{c: color.RGBA{255, 255, 255, 255}}})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	want := []string{filepath.Join(dir, "pdf", "cards.pdf"), filepath.Join(dir, "png", "3-zara.png")}
	if len(files) != len(want) {
		t.Fatalf("files = %v", files)
	}
	for i, p := range want {
		if files[i] != p {
			t.Fatalf("file %d = %s, want %s", i, files[i], p)
		}
		st, err := os.Stat(p)
		if err != nil || st.Size() == 0 {
			t.Fatalf("stat %s: %v", p, err)
		}
	}
	if _, err := Batch(context.Background(), []Card{sampleCard()}, BatchOptions{OutDir: dir, Formats: []string{"svg"}}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestCardFileName(t *testing.T) {
	if got := CardFileName(Card{Unit: &domain.NavalUnit{ID: 12, Name: "Vittorio Veneto"}}, 0, ".png"); got != "12-vittorio-veneto.png" {
		t.Fatalf("got %q", got)
	}
	if got := CardFileName(Card{}, 4, ".png"); got != "005-card.png" {
		t.Fatalf("got %q", got)
	}
}

func pngBytes(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = []uint8{c.R, c.G, c.B, c.A}[i%4]
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestResolverSources(t *testing.T) {
	dir := t.TempDir()
	red := color.RGBA{255, 0, 0, 255}
	if err := os.MkdirAll(filepath.Join(dir, "flags"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "flags", "it.png"), pngBytes(t, red), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/remote.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pngBytes(t, red))
	}))
	defer srv.Close()

	res := NewResolver(dir, srv.URL)
	ctx := context.Background()
	refs := []string{
		"/uploads/flags/it.png",
		"/api/static/flags/it.png",
		"it.png",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, red)),
		srv.URL + "/remote.png",
		"/remote.png",
	}
	for _, ref := range refs {
		img, err := res.Image(ctx, ref)
		if err != nil {
			t.Fatalf("%s: %v", ref, err)
		}
		if !sameColor(img.At(0, 0), red) {
			t.Fatalf("%s: wrong pixel %v", ref, img.At(0, 0))
		}
	}
	if _, err := res.Image(ctx, "nope.png"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got %v", err)
	}
	if _, err := res.Image(ctx, srv.URL+"/gone.png"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound for 404, got %v", err)
	}
}
