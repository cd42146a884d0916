/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Canvas defaults match the 16:9 presentation format.
const (
	DefaultCanvasWidth       = 1280
	DefaultCanvasHeight      = 720
	DefaultCanvasBackground  = "#ffffff"
	DefaultCanvasBorderWidth = 4
	DefaultCanvasBorderColor = "#000000"

	MinElementWidth  = 20
	MinElementHeight = 20

	// DuplicateOffset is added to both axes when an element is duplicated.
	DuplicateOffset = 20
)

// DefaultCanvasConfig returns the configuration of a fresh card.
func DefaultCanvasConfig() CanvasConfig {
	return CanvasConfig{
		CanvasWidth:       DefaultCanvasWidth,
		CanvasHeight:      DefaultCanvasHeight,
		CanvasBackground:  DefaultCanvasBackground,
		CanvasBorderWidth: DefaultCanvasBorderWidth,
		CanvasBorderColor: DefaultCanvasBorderColor,
	}
}

// Size is a width/height pair.
type Size struct{ Width, Height float64 }

var defaultSizes = map[ElementType]Size{
	ElementLogo:       {150, 150},
	ElementFlag:       {120, 80},
	ElementSilhouette: {300, 150},
	ElementText:       {200, 40},
	ElementTable:      {400, 150},
	ElementUnitName:   {400, 50},
	ElementUnitClass:  {400, 40},
}

// DefaultSize returns the size a new element of type t gets.
// Unknown types fall back to the text size.
func DefaultSize(t ElementType) Size {
	if s, ok := defaultSizes[t]; ok {
		return s
	}
	return defaultSizes[ElementText]
}

// DefaultStyle returns a fresh copy of the default style for t, or nil for
// image types which carry no default style.
func DefaultStyle(t ElementType) *ElementStyle {
	var s ElementStyle
	switch t {
	case ElementText:
		s = ElementStyle{
			FontSize:        Num(16),
			Color:           Str("#000000"),
			FontWeight:      Str("normal"),
			FontStyle:       Str("normal"),
			FontFamily:      Str("Arial"),
			TextAlign:       Str("left"),
			BackgroundColor: Str("transparent"),
		}
	case ElementTable:
		s = ElementStyle{
			FontSize:              Num(12),
			BorderColor:           Str("#000000"),
			BorderWidth:           Num(1),
			BorderStyle:           Str("solid"),
			HeaderBackgroundColor: Str("#f3f4f6"),
		}
	case ElementUnitName:
		s = ElementStyle{FontSize: Num(24), FontWeight: Str("bold"), Color: Str("#000000"), TextAlign: Str("center")}
	case ElementUnitClass:
		s = ElementStyle{FontSize: Num(18), FontWeight: Str("normal"), Color: Str("#666666"), TextAlign: Str("center")}
	default:
		return nil
	}
	return &s
}

// DefaultTableData returns a new copy of the characteristics grid placed in fresh tables.
func DefaultTableData() [][]string {
	return [][]string{
		{"LUNGHEZZA", "XXX m", "LARGHEZZA", "XXX m"},
		{"DISLOCAMENTO", "XXX t", "VELOCITÀ", "XXX kn"},
		{"EQUIPAGGIO", "XXX", "ARMA", "XXX"},
	}
}

// DefaultContent is the placeholder text of text-like types.
func DefaultContent(t ElementType) string {
	switch t {
	case ElementUnitName:
		return "Nome Unità"
	case ElementUnitClass:
		return "Classe Unità"
	case ElementText:
		return "Testo"
	default:
		return ""
	}
}

// Flag is a selectable national or organisational flag.
type Flag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func cdn(code string) string { return "https://flagcdn.com/w320/" + code + ".png" }

const wikiFlags = "https://upload.wikimedia.org/wikipedia/commons/thumb/"

// PredefinedFlags is the flag palette offered to every card.
var PredefinedFlags = []Flag{
	{"Italia", cdn("it")}, {"Francia", cdn("fr")}, {"Germania", cdn("de")}, {"Regno Unito", cdn("gb")},
	{"Spagna", cdn("es")}, {"Grecia", cdn("gr")}, {"Olanda", cdn("nl")}, {"Belgio", cdn("be")},
	{"Portogallo", cdn("pt")}, {"Norvegia", cdn("no")}, {"Danimarca", cdn("dk")}, {"Svezia", cdn("se")},
	{"Finlandia", cdn("fi")}, {"Polonia", cdn("pl")}, {"Austria", cdn("at")}, {"Svizzera", cdn("ch")},

	{"USA", cdn("us")}, {"Canada", cdn("ca")}, {"Messico", cdn("mx")}, {"Brasile", cdn("br")},
	{"Argentina", cdn("ar")}, {"Cile", cdn("cl")}, {"Colombia", cdn("co")}, {"Venezuela", cdn("ve")},

	{"Giappone", cdn("jp")}, {"Cina", cdn("cn")}, {"India", cdn("in")}, {"Corea del Sud", cdn("kr")},
	{"Thailandia", cdn("th")}, {"Singapore", cdn("sg")}, {"Malaysia", cdn("my")}, {"Indonesia", cdn("id")},
	{"Filippine", cdn("ph")}, {"Vietnam", cdn("vn")},

	{"Turchia", cdn("tr")}, {"Israele", cdn("il")}, {"Egitto", cdn("eg")}, {"Sud Africa", cdn("za")},
	{"Marocco", cdn("ma")}, {"Arabia Saudita", cdn("sa")}, {"Emirati Arabi", cdn("ae")},

	{"Australia", cdn("au")}, {"Nuova Zelanda", cdn("nz")},

	{"Russia", cdn("ru")}, {"Ucraina", cdn("ua")}, {"Romania", cdn("ro")}, {"Bulgaria", cdn("bg")},
	{"Croazia", cdn("hr")}, {"Serbia", cdn("rs")},

	{"NATO", wikiFlags + "3/37/Flag_of_NATO.svg/320px-Flag_of_NATO.svg.png"},
	{"Unione Europea", wikiFlags + "b/b7/Flag_of_Europe.svg/320px-Flag_of_Europe.svg.png"},
	{"ONU", wikiFlags + "2/2f/Flag_of_the_United_Nations.svg/320px-Flag_of_the_United_Nations.svg.png"},
}

// NationForFlag returns the palette name of a flag URL.
func NationForFlag(url string) (string, bool) {
	for _, f := range PredefinedFlags {
		if f.URL == url {
			return f.Name, true
		}
	}
	return "", false
}
