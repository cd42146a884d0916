/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"regexp"

	"navalcards/internal/domain"
)

func framed() *domain.ElementStyle {
	return &domain.ElementStyle{
		BackgroundColor: domain.Str("#ffffff"),
		BorderRadius:    domain.Num(8),
		BorderWidth:     domain.Num(2),
		BorderColor:     domain.Str("#000000"),
		BorderStyle:     domain.Str("solid"),
	}
}

func boldField() *domain.ElementStyle {
	return &domain.ElementStyle{FontSize: domain.Num(20), FontWeight: domain.Str("bold"), Color: domain.Str("#000")}
}

// DefaultUnitLayout is the starter card for a unit that has never been laid
// out: class and name fields, logo, flag, silhouette and a characteristics
// table, pre-filled from the unit record.
func DefaultUnitLayout(u domain.NavalUnit) []domain.CanvasElement {
	w := float64(domain.DefaultCanvasWidth)
	class := u.UnitClass
	if class == "" {
		class = "[Inserire classe]"
	}
	name := u.Name
	if name == "" {
		name = "[Inserire nome]"
	}
	return []domain.CanvasElement{
		{ID: "unit_class", Type: domain.ElementUnitClass, X: 160, Y: 30, Width: 400, Height: 40, Content: class, IsFixed: true, Style: boldField()},
		{ID: "unit_name", Type: domain.ElementUnitName, X: 160, Y: 80, Width: 400, Height: 40, Content: name, IsFixed: true, Style: boldField()},
		{ID: "logo", Type: domain.ElementLogo, X: 20, Y: 20, Width: 120, Height: 120, Image: u.LogoPath, Style: framed()},
		{ID: "flag", Type: domain.ElementFlag, X: w - 140, Y: 20, Width: 120, Height: 80, Image: u.FlagPath, Style: framed()},
		{ID: "silhouette", Type: domain.ElementSilhouette, X: 20, Y: 180, Width: w - 40, Height: 300, Image: u.SilhouettePath, Style: framed()},
		{
			ID: "characteristics-table", Type: domain.ElementTable, X: 20, Y: 500, Width: w - 40, Height: 200,
			Style: &domain.ElementStyle{BackgroundColor: domain.Str("#f3f4f6")},
			TableData: [][]string{
				{"CARATTERISTICA", "VALORE", "CARATTERISTICA", "VALORE"},
				{"MOTORI", "XXX", "RADAR", "XXX"},
				{"ARMA", "XXX", "MITRAGLIERA", "XXX"},
			},
		},
	}
}

// BindUnitData overwrites unit-owned values in a new copy of elements: the
// unit's stored images win for logo, flag and silhouette, and its name and
// class fill the bound text fields. Empty unit values leave elements alone.
func BindUnitData(elements []domain.CanvasElement, u domain.NavalUnit) []domain.CanvasElement {
	out := domain.CloneElements(elements)
	for i := range out {
		e := &out[i]
		switch e.Type {
		case domain.ElementLogo:
			e.Image = firstNonEmpty(u.LogoPath, e.Image)
		case domain.ElementFlag:
			e.Image = firstNonEmpty(u.FlagPath, e.Image)
		case domain.ElementSilhouette:
			e.Image = firstNonEmpty(u.SilhouettePath, e.Image)
		case domain.ElementUnitName:
			e.Content = firstNonEmpty(u.Name, e.Content)
		case domain.ElementUnitClass:
			e.Content = firstNonEmpty(u.UnitClass, e.Content)
		}
	}
	return out
}

// Nation derives the unit nation from the flag on the card, falling back to fallback.
func Nation(elements []domain.CanvasElement, fallback string) string {
	for _, e := range elements {
		if e.Type != domain.ElementFlag || e.Image == "" {
			continue
		}
		if name, ok := domain.NationForFlag(e.Image); ok {
			return name
		}
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var (
	namePrefix  = regexp.MustCompile(`^NOME UNITA' NAVALE:\s*`)
	classPrefix = regexp.MustCompile(`^CLASSE UNITA':\s*`)
)

// UnitFields reads the unit name and class back from the fixed fields,
// dropping the label prefixes older cards carry. Missing fields yield "".
func UnitFields(elements []domain.CanvasElement) (name, class string) {
	for _, e := range elements {
		switch e.Type {
		case domain.ElementUnitName:
			if name == "" {
				name = namePrefix.ReplaceAllString(e.Content, "")
			}
		case domain.ElementUnitClass:
			if class == "" {
				class = classPrefix.ReplaceAllString(e.Content, "")
			}
		}
	}
	return name, class
}
