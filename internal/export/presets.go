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
	"path/filepath"
	"regexp"
	"strings"

	"navalcards/internal/storage"
	"navalcards/internal/textlayout"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export of several cards.
//
// Path semantics:
//   - OutDir receives png/ and pdf/ subfolders, one per format.
//   - PNG output is one file per card, named <unit id>-<name>.png.
//   - PDF output is a single cards.pdf holding every card.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // allowed: pdf, png; empty means preset defaults
	DPIOverride int      // when > 0 overrides the preset DPI for PNG
	OutDir      string
	Fonts       textlayout.Provider
	Images      ImageSource
}

// Batch renders cards according to the preset and returns the written files.
func Batch(ctx context.Context, cards []Card, opt BatchOptions) ([]string, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("no cards to export")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.OutDir
	if base == "" {
		base = filepath.Join("exports", string(opt.Preset))
	}
	dpi := presetDPI(opt.Preset)
	if opt.DPIOverride > 0 {
		dpi = opt.DPIOverride
	}

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "png":
			po := PNGOptions{Scale: ScaleForDPI(dpi), Fonts: opt.Fonts, Images: opt.Images}
			for i, c := range cards {
				b, err := EncodePNG(ctx, c, po)
				if err != nil {
					return written, fmt.Errorf("png card %d: %w", i+1, err)
				}
				out := filepath.Join(base, "png", CardFileName(c, i, ".png"))
				if err := storage.WriteFileAtomic(out, b, false); err != nil {
					return written, err
				}
				written = append(written, out)
			}
		case "pdf":
			var buf bytes.Buffer
			po := PDFOptions{Images: opt.Images, PageLabel: opt.Preset == PresetPrint, Title: "Naval unit cards"}
			if err := WritePDF(ctx, &buf, cards, po); err != nil {
				return written, err
			}
			out := filepath.Join(base, "pdf", "cards.pdf")
			if err := storage.WriteFileAtomic(out, buf.Bytes(), false); err != nil {
				return written, err
			}
			written = append(written, out)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]+`)

// CardFileName builds a stable file name for the i-th card.
func CardFileName(c Card, i int, ext string) string {
	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(c.Name()), "-"), "-")
	if slug == "" {
		slug = "card"
	}
	if c.Unit != nil && c.Unit.ID > 0 {
		return fmt.Sprintf("%d-%s%s", c.Unit.ID, slug, ext)
	}
	return fmt.Sprintf("%03d-%s%s", i+1, slug, ext)
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetDPI(p PresetName) int {
	if p == PresetPrint {
		return 300
	}
	return 96
}
