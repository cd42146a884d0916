/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"reflect"
	"strings"
	"testing"

	"navalcards/internal/domain"
)

func TestWrapBreaksOnSpaces(t *testing.T) {
	face, _ := BasicProvider{}.Face(FontSpec{})
	// Face7x13 advances 7px per rune: 10 runes fit in 70px
	got := Wrap(face, "Hello world from Go", 70)
	want := []string{"Hello", "world from", "Go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestWrapKeepsNewlinesAndEmptyLines(t *testing.T) {
	face, _ := BasicProvider{}.Face(FontSpec{})
	got := Wrap(face, "a\n\nb", 0)
	if !reflect.DeepEqual(got, []string{"a", "", "b"}) {
		t.Fatalf("got %q", got)
	}
}

func TestWrapSplitsLongWords(t *testing.T) {
	face, _ := BasicProvider{}.Face(FontSpec{})
	got := Wrap(face, "DISLOCAMENTO", 35)
	if len(got) != 3 || strings.Join(got, "") != "DISLOCAMENTO" {
		t.Fatalf("got %q", got)
	}
	for _, l := range got {
		if Advance(face, l) > 35 {
			t.Fatalf("line %q too wide", l)
		}
	}
}

func TestWrapNarrowerThanOneRune(t *testing.T) {
	face, _ := BasicProvider{}.Face(FontSpec{})
	got := Wrap(face, "àb", 3)
	if !reflect.DeepEqual(got, []string{"à", "b"}) {
		t.Fatalf("got %q", got)
	}
}

func TestAlignOffset(t *testing.T) {
	cases := []struct {
		align string
		want  float64
	}{
		{"left", 0},
		{"", 0},
		{"center", 30},
		{"right", 60},
	}
	for _, c := range cases {
		if got := AlignOffset(c.align, 40, 100); got != c.want {
			t.Errorf("%q: got %v want %v", c.align, got, c.want)
		}
	}
}

func TestSpecFor(t *testing.T) {
	e := domain.CanvasElement{Type: domain.ElementUnitName, Style: domain.DefaultStyle(domain.ElementUnitName)}
	s := SpecFor(e, 2)
	if s.SizePt != 48 || !s.Bold || s.Italic {
		t.Fatalf("spec = %+v", s)
	}
	if got := SpecFor(domain.CanvasElement{}, 0); got.SizePt != 16 {
		t.Fatalf("default size = %v", got.SizePt)
	}
}

func TestGoFontsResolve(t *testing.T) {
	for _, bold := range []bool{false, true} {
		face, err := GoFonts{}.Face(FontSpec{SizePt: 20, Bold: bold})
		if err != nil {
			t.Fatalf("face: %v", err)
		}
		if LineHeight(face) <= 0 || Advance(face, "Zara") <= 0 {
			t.Fatalf("bold=%v: degenerate metrics", bold)
		}
	}
}

func TestOTProviderFallsBackWithoutLibrary(t *testing.T) {
	face, err := OTProvider{}.Face(FontSpec{Family: "Arial", SizePt: 12})
	if err != nil || face == nil {
		t.Fatalf("face=%v err=%v", face, err)
	}
	if err := NewFontLibrary().LoadTTF("x", false, false, "/nonexistent.ttf"); err == nil {
		t.Fatalf("expected error for missing font file")
	}
}

func TestTruncate(t *testing.T) {
	face, _ := BasicProvider{}.Face(FontSpec{})
	measure := func(s string) float64 { return Advance(face, s) }
	if got := Truncate(measure, "ARMA", 70); got != "ARMA" {
		t.Fatalf("fitting text changed: %q", got)
	}
	// 8 runes of 7px fit in 56px: 5 letters plus the ellipsis
	if got := Truncate(measure, "EQUIPAGGIO", 56); got != "EQUIP..." {
		t.Fatalf("got %q", got)
	}
}
