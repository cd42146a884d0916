/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the card editor data model: canvas elements, canvas
// configuration, templates and the naval unit records they belong to.
// JSON field names are the wire names used by the backend and by exported
// template documents, so renaming them breaks compatibility.
package domain

// ElementType is the closed set of element kinds a card can hold.
type ElementType string

const (
	ElementText       ElementType = "text"
	ElementLogo       ElementType = "logo"
	ElementFlag       ElementType = "flag"
	ElementSilhouette ElementType = "silhouette"
	ElementTable      ElementType = "table"
	ElementUnitName   ElementType = "unit_name"
	ElementUnitClass  ElementType = "unit_class"
)

// ElementTypes lists every valid type in palette order.
var ElementTypes = []ElementType{
	ElementUnitName, ElementUnitClass, ElementText, ElementLogo, ElementFlag, ElementSilhouette, ElementTable,
}

func (t ElementType) Valid() bool {
	for _, v := range ElementTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsImage reports whether the type renders a raster asset.
func (t ElementType) IsImage() bool {
	return t == ElementLogo || t == ElementFlag || t == ElementSilhouette
}

// IsText reports whether the type renders its content string.
func (t ElementType) IsText() bool {
	return t == ElementText || t == ElementUnitName || t == ElementUnitClass
}

// IsBound reports whether the type is a fixed field bound to unit data.
func (t ElementType) IsBound() bool {
	return t == ElementUnitName || t == ElementUnitClass
}

// CanvasElement is one positioned item on a card. Z-order is its index in the
// owning slice; the last element is drawn on top.
type CanvasElement struct {
	ID        string        `json:"id"`
	Type      ElementType   `json:"type"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Content   string        `json:"content,omitempty"`
	Image     string        `json:"image,omitempty"`
	TableData [][]string    `json:"tableData,omitempty"`
	Visible   *bool         `json:"visible,omitempty"`
	IsFixed   bool          `json:"isFixed,omitempty"`
	Style     *ElementStyle `json:"style,omitempty"`
}

// IsVisible treats a missing flag as visible.
func (e CanvasElement) IsVisible() bool { return e.Visible == nil || *e.Visible }

// Locked reports whether the element is a fixed field that may not be deleted.
func (e CanvasElement) Locked() bool { return e.IsFixed || e.Type.IsBound() }

// Clone returns a deep copy sharing no slices or pointers with e.
func (e CanvasElement) Clone() CanvasElement {
	c := e
	if e.Visible != nil {
		v := *e.Visible
		c.Visible = &v
	}
	c.TableData = cloneTable(e.TableData)
	if e.Style != nil {
		s := e.Style.Clone()
		c.Style = &s
	}
	return c
}

// CloneElements deep-copies a list. A nil list stays nil.
func CloneElements(in []CanvasElement) []CanvasElement {
	if in == nil {
		return nil
	}
	out := make([]CanvasElement, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneTable(t [][]string) [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, len(t))
	for i, row := range t {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// ElementPatch is a partial update; nil fields are left untouched.
// Style is shallow-merged into the existing style rather than replacing it.
type ElementPatch struct {
	X         *float64
	Y         *float64
	Width     *float64
	Height    *float64
	Content   *string
	Image     *string
	TableData [][]string
	Visible   *bool
	IsFixed   *bool
	Style     *ElementStyle
}

// Apply returns e with the patch applied. e itself is not modified.
func (p ElementPatch) Apply(e CanvasElement) CanvasElement {
	out := e.Clone()
	if p.X != nil {
		out.X = *p.X
	}
	if p.Y != nil {
		out.Y = *p.Y
	}
	if p.Width != nil {
		out.Width = *p.Width
	}
	if p.Height != nil {
		out.Height = *p.Height
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Image != nil {
		out.Image = *p.Image
	}
	if p.TableData != nil {
		out.TableData = cloneTable(p.TableData)
	}
	if p.Visible != nil {
		v := *p.Visible
		out.Visible = &v
	}
	if p.IsFixed != nil {
		out.IsFixed = *p.IsFixed
	}
	if p.Style != nil {
		var base ElementStyle
		if out.Style != nil {
			base = *out.Style
		}
		merged := base.Merge(*p.Style)
		out.Style = &merged
	}
	return out
}

// CanvasConfig is the card surface: size in pixels, background and border.
type CanvasConfig struct {
	CanvasWidth       int    `json:"canvasWidth"`
	CanvasHeight      int    `json:"canvasHeight"`
	CanvasBackground  string `json:"canvasBackground"`
	CanvasBorderWidth int    `json:"canvasBorderWidth"`
	CanvasBorderColor string `json:"canvasBorderColor"`
}

// CanvasState is the full serializable snapshot of one card.
type CanvasState struct {
	Elements []CanvasElement `json:"elements"`
	CanvasConfig
}

func (s CanvasState) Clone() CanvasState {
	c := s
	c.Elements = CloneElements(s.Elements)
	if c.Elements == nil {
		c.Elements = []CanvasElement{}
	}
	return c
}

// LayoutConfig is the layout persisted on a unit. Zero values mean "absent".
type LayoutConfig struct {
	Elements          []CanvasElement `json:"elements,omitempty"`
	CanvasWidth       int             `json:"canvasWidth,omitempty"`
	CanvasHeight      int             `json:"canvasHeight,omitempty"`
	CanvasBackground  string          `json:"canvasBackground,omitempty"`
	CanvasBorderWidth *int            `json:"canvasBorderWidth,omitempty"`
	CanvasBorderColor string          `json:"canvasBorderColor,omitempty"`
}

// LayoutFromState converts a snapshot into the persisted form.
func LayoutFromState(s CanvasState) LayoutConfig {
	bw := s.CanvasBorderWidth
	return LayoutConfig{
		Elements:          CloneElements(s.Elements),
		CanvasWidth:       s.CanvasWidth,
		CanvasHeight:      s.CanvasHeight,
		CanvasBackground:  s.CanvasBackground,
		CanvasBorderWidth: &bw,
		CanvasBorderColor: s.CanvasBorderColor,
	}
}

// NavalUnit is the subset of the backend unit record the editor needs.
type NavalUnit struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	UnitClass         string        `json:"unit_class"`
	Nation            string        `json:"nation,omitempty"`
	LogoPath          string        `json:"logo_path,omitempty"`
	FlagPath          string        `json:"flag_path,omitempty"`
	SilhouettePath    string        `json:"silhouette_path,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	LayoutConfig      *LayoutConfig `json:"layout_config,omitempty"`
	CurrentTemplateID string        `json:"current_template_id,omitempty"`
}

// Template is a reusable card blueprint. Zero canvas fields mean the template
// leaves that part of the canvas alone.
type Template struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Thumbnail         string          `json:"thumbnail,omitempty"`
	Elements          []CanvasElement `json:"elements"`
	CanvasWidth       int             `json:"canvasWidth,omitempty"`
	CanvasHeight      int             `json:"canvasHeight,omitempty"`
	CanvasBackground  string          `json:"canvasBackground,omitempty"`
	CanvasBorderWidth *int            `json:"canvasBorderWidth,omitempty"`
	CanvasBorderColor string          `json:"canvasBorderColor,omitempty"`
	CreatedAt         string          `json:"createdAt"`
	IsDefault         bool            `json:"isDefault"`
}

func (t Template) Clone() Template {
	c := t
	c.Elements = CloneElements(t.Elements)
	if t.CanvasBorderWidth != nil {
		v := *t.CanvasBorderWidth
		c.CanvasBorderWidth = &v
	}
	return c
}

// TemplateState remembers a unit's content under one template.
type TemplateState struct {
	ElementStates []CanvasElement `json:"element_states"`
	CanvasConfig  CanvasConfig    `json:"canvas_config"`
}

// ResizeHandle names one of the eight resize grips by compass direction.
type ResizeHandle string

const (
	HandleNW ResizeHandle = "nw"
	HandleN  ResizeHandle = "n"
	HandleNE ResizeHandle = "ne"
	HandleE  ResizeHandle = "e"
	HandleSE ResizeHandle = "se"
	HandleS  ResizeHandle = "s"
	HandleSW ResizeHandle = "sw"
	HandleW  ResizeHandle = "w"
)

var Handles = []ResizeHandle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

func (h ResizeHandle) Valid() bool {
	for _, v := range Handles {
		if v == h {
			return true
		}
	}
	return false
}

func (h ResizeHandle) West() bool  { return h == HandleW || h == HandleNW || h == HandleSW }
func (h ResizeHandle) East() bool  { return h == HandleE || h == HandleNE || h == HandleSE }
func (h ResizeHandle) North() bool { return h == HandleN || h == HandleNW || h == HandleNE }
func (h ResizeHandle) South() bool { return h == HandleS || h == HandleSW || h == HandleSE }
