/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores loaded OpenType fonts mapped by family/bold/italic.
// Families are matched case-insensitively.
type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family/bold/italic.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

// LoadDir loads every .ttf and .otf file in dir. The family and variant
// come from the file name: "Inter-BoldItalic.ttf" is family "inter", bold
// and italic. It returns the number of fonts loaded.
func (fl *FontLibrary) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read font dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		family, bold, italic := variantOf(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if err := fl.LoadTTF(family, bold, italic, filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func variantOf(name string) (family string, bold, italic bool) {
	family, style, found := strings.Cut(name, "-")
	if !found {
		return name, false, false
	}
	style = strings.ToLower(style)
	bold = strings.Contains(style, "bold")
	italic = strings.Contains(style, "italic") || strings.Contains(style, "oblique")
	return family, bold, italic
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	fam := strings.ToLower(spec.Family)
	if f, ok := fl.fonts[fontKey{family: fam, bold: spec.Bold, italic: spec.Italic}]; ok {
		return f
	}
	// same family, any variant
	for k, f := range fl.fonts {
		if k.family == fam {
			return f
		}
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another
// Provider (the Go fonts when nil).
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Face(spec FontSpec) (font.Face, error) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePt, DPI: dpi, Hinting: font.HintingFull})
		if err == nil {
			return face, nil
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = GoFonts{DPI: dpi}
	}
	return fb.Face(spec)
}

var (
	goFontsOnce sync.Once
	goFonts     map[fontKey]*truetype.Font
	goFontsErr  error
)

func loadGoFonts() {
	goFonts = make(map[fontKey]*truetype.Font, 4)
	for k, data := range map[fontKey][]byte{
		{bold: false, italic: false}: goregular.TTF,
		{bold: true, italic: false}:  gobold.TTF,
		{bold: false, italic: true}:  goitalic.TTF,
		{bold: true, italic: true}:   gobolditalic.TTF,
	} {
		f, err := truetype.Parse(data)
		if err != nil {
			goFontsErr = fmt.Errorf("parse go font: %w", err)
			return
		}
		goFonts[k] = f
	}
}

// GoFonts serves the embedded Go font family for every request. Only the
// bold and italic flags of a spec are honored.
type GoFonts struct {
	DPI float64 // default 72 if zero
}

func (p GoFonts) Face(spec FontSpec) (font.Face, error) {
	goFontsOnce.Do(loadGoFonts)
	if goFontsErr != nil {
		return nil, goFontsErr
	}
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	f := goFonts[fontKey{bold: spec.Bold, italic: spec.Italic}]
	return truetype.NewFace(f, &truetype.Options{Size: spec.SizePt, DPI: dpi, Hinting: font.HintingFull}), nil
}
