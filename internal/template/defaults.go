/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import "navalcards/internal/domain"

// Built-in template ids.
const (
	StandardID = "naval-card-standard"
	MinimalID  = "naval-card-minimal"
	DetailedID = "naval-card-detailed"
)

// builtinCreatedAt is the creation stamp reported for built-in templates.
const builtinCreatedAt = "2025-01-01T00:00:00Z"

func box(id string, t domain.ElementType, x, y, w, h float64, style domain.ElementStyle) domain.CanvasElement {
	return domain.CanvasElement{ID: id, Type: t, X: x, Y: y, Width: w, Height: h, Style: &style}
}

func text(id string, x, y, w, h float64, content string, style domain.ElementStyle) domain.CanvasElement {
	e := box(id, domain.ElementText, x, y, w, h, style)
	e.Content = content
	return e
}

func tinted(bg string, radius float64) domain.ElementStyle {
	return domain.ElementStyle{BackgroundColor: domain.Str(bg), BorderRadius: domain.Num(radius)}
}

// Defaults returns fresh copies of the built-in templates in display order.
func Defaults() []domain.Template {
	return []domain.Template{
		{
			ID:          StandardID,
			Name:        "Scheda Navale Standard",
			Description: "Layout classico con logo, bandiera, silhouette e tabella caratteristiche",
			IsDefault:   true,
			CreatedAt:   builtinCreatedAt,
			Elements: []domain.CanvasElement{
				box("logo", domain.ElementLogo, 20, 20, 120, 120, tinted("#0f766e", 8)),
				box("flag", domain.ElementFlag, 983, 20, 120, 80, tinted("#0f766e", 8)),
				text("unit-info", 160, 30, 600, 120, "CLASSE UNITA'\nNOME UNITA' NAVALE", domain.ElementStyle{
					FontSize: domain.Num(24), FontWeight: domain.Str("bold"), Color: domain.Str("#000"), WhiteSpace: domain.Str("pre-line"),
				}),
				box("silhouette", domain.ElementSilhouette, 20, 180, 1083, 300, tinted("#0f766e", 8)),
				box("characteristics-table", domain.ElementTable, 20, 500, 1083, 200, domain.ElementStyle{BackgroundColor: domain.Str("#f3f4f6")}),
			},
		},
		{
			ID:          MinimalID,
			Name:        "Scheda Navale Minimalista",
			Description: "Layout semplificato con solo silhouette e informazioni essenziali",
			IsDefault:   true,
			CreatedAt:   builtinCreatedAt,
			Elements: []domain.CanvasElement{
				text("unit-title", 50, 50, 1000, 80, "NOME UNITA' NAVALE", domain.ElementStyle{
					FontSize: domain.Num(32), FontWeight: domain.Str("bold"), Color: domain.Str("#000"), TextAlign: domain.Str("center"),
				}),
				box("silhouette", domain.ElementSilhouette, 150, 200, 823, 400, tinted("#1e40af", 12)),
				text("info-box", 50, 650, 1000, 100, "Classe: [Inserire classe]\nNazione: [Inserire nazione]", domain.ElementStyle{
					FontSize: domain.Num(18), FontWeight: domain.Str("normal"), Color: domain.Str("#374151"), WhiteSpace: domain.Str("pre-line"),
				}),
			},
		},
		{
			ID:          DetailedID,
			Name:        "Scheda Navale Dettagliata",
			Description: "Layout completo con sezioni multiple per informazioni estese",
			IsDefault:   true,
			CreatedAt:   builtinCreatedAt,
			Elements: []domain.CanvasElement{
				text("header-bg", 0, 0, 1123, 100, "", tinted("#1f2937", 0)),
				box("logo", domain.ElementLogo, 20, 20, 60, 60, tinted("#ffffff", 8)),
				text("title", 100, 25, 800, 50, "NOME UNITA' NAVALE - CLASSE", domain.ElementStyle{
					FontSize: domain.Num(28), FontWeight: domain.Str("bold"), Color: domain.Str("#ffffff"),
				}),
				box("flag", domain.ElementFlag, 1043, 20, 60, 40, tinted("#ffffff", 4)),
				box("silhouette", domain.ElementSilhouette, 50, 120, 1023, 250, tinted("#3b82f6", 8)),
				box("specs-left", domain.ElementTable, 50, 400, 500, 150, domain.ElementStyle{BackgroundColor: domain.Str("#f9fafb")}),
				box("specs-right", domain.ElementTable, 573, 400, 500, 150, domain.ElementStyle{BackgroundColor: domain.Str("#f9fafb")}),
				text("notes", 50, 580, 1023, 100, "Note operative e caratteristiche aggiuntive...", domain.ElementStyle{
					FontSize: domain.Num(14), FontWeight: domain.Str("normal"), Color: domain.Str("#6b7280"), WhiteSpace: domain.Str("pre-line"),
				}),
			},
		},
	}
}

// IsBuiltin reports whether id names a built-in template.
func IsBuiltin(id string) bool {
	switch id {
	case StandardID, MinimalID, DetailedID:
		return true
	}
	return false
}

// Builtin returns a copy of the built-in template with the given id.
func Builtin(id string) (domain.Template, bool) {
	for _, t := range Defaults() {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Template{}, false
}
