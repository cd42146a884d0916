/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"slices"

	"navalcards/internal/domain"
)

const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

// Store holds the live state of one card editor: elements, canvas config,
// selection and zoom. It is not safe for concurrent use; the editor drives it
// from a single goroutine.
//
// Element lists are never modified in place. Every mutation installs a new
// slice, so slices handed out earlier stay valid snapshots of their moment.
type Store struct {
	elements   []domain.CanvasElement
	config     domain.CanvasConfig
	visibility map[string]bool
	selected   string
	zoom       float64

	unitID int64
	bound  bool
}

// NewStore returns an empty store with the default canvas configuration.
func NewStore() *Store {
	return &Store{
		elements:   []domain.CanvasElement{},
		config:     domain.DefaultCanvasConfig(),
		visibility: map[string]bool{},
		zoom:       1,
	}
}

// Bind attaches the store to unit u. The store is re-seeded only when the
// unit identity differs from the currently bound one, so repeated Bind calls
// for the same unit keep in-progress edits. It reports whether it re-seeded.
func (s *Store) Bind(u *domain.NavalUnit) bool {
	if u == nil {
		return false
	}
	if s.bound && s.unitID == u.ID {
		return false
	}
	s.bound = true
	s.unitID = u.ID
	s.selected = ""
	s.config = domain.DefaultCanvasConfig()
	s.SetElements(nil)

	lc := u.LayoutConfig
	if lc == nil {
		return true
	}
	if lc.CanvasWidth > 0 {
		s.config.CanvasWidth = lc.CanvasWidth
	}
	if lc.CanvasHeight > 0 {
		s.config.CanvasHeight = lc.CanvasHeight
	}
	if lc.CanvasBackground != "" {
		s.config.CanvasBackground = lc.CanvasBackground
	}
	if lc.CanvasBorderWidth != nil && *lc.CanvasBorderWidth >= 0 {
		s.config.CanvasBorderWidth = *lc.CanvasBorderWidth
	}
	if lc.CanvasBorderColor != "" {
		s.config.CanvasBorderColor = lc.CanvasBorderColor
	}
	if len(lc.Elements) > 0 {
		s.SetElements(domain.CloneElements(lc.Elements))
	}
	return true
}

// UnitID returns the bound unit id.
func (s *Store) UnitID() (int64, bool) { return s.unitID, s.bound }

// Elements returns the current list. Callers must not modify it.
func (s *Store) Elements() []domain.CanvasElement { return s.elements }

// SetElements installs a new element list and rebuilds the visibility map.
func (s *Store) SetElements(elements []domain.CanvasElement) {
	if elements == nil {
		elements = []domain.CanvasElement{}
	}
	s.elements = elements
	s.visibility = make(map[string]bool, len(elements))
	for _, e := range elements {
		s.visibility[e.ID] = e.IsVisible()
	}
}

// Visible reports the visibility of element id; unknown ids are not visible.
func (s *Store) Visible(id string) bool { return s.visibility[id] }

// Visibility returns a copy of the id -> visible map.
func (s *Store) Visibility() map[string]bool {
	out := make(map[string]bool, len(s.visibility))
	for k, v := range s.visibility {
		out[k] = v
	}
	return out
}

func (s *Store) Config() domain.CanvasConfig { return s.config }

func (s *Store) SetConfig(c domain.CanvasConfig) { s.config = c }

func (s *Store) SetCanvasWidth(w int) {
	if w > 0 {
		s.config.CanvasWidth = w
	}
}

func (s *Store) SetCanvasHeight(h int) {
	if h > 0 {
		s.config.CanvasHeight = h
	}
}

func (s *Store) SetCanvasBackground(c string) { s.config.CanvasBackground = c }

func (s *Store) SetCanvasBorderWidth(w int) {
	if w >= 0 {
		s.config.CanvasBorderWidth = w
	}
}

func (s *Store) SetCanvasBorderColor(c string) { s.config.CanvasBorderColor = c }

// Snapshot returns a deep copy of elements and config.
func (s *Store) Snapshot() domain.CanvasState {
	return domain.CanvasState{
		Elements:     domain.CloneElements(s.elements),
		CanvasConfig: s.config,
	}
}

// Restore replaces elements and config from a snapshot, e.g. after undo.
// The selection is dropped if the selected element no longer exists.
func (s *Store) Restore(state domain.CanvasState) {
	s.SetElements(domain.CloneElements(state.Elements))
	s.config = state.CanvasConfig
	if s.selected != "" && indexOf(s.elements, s.selected) < 0 {
		s.selected = ""
	}
}

// Selected returns the selected element id, or "" when nothing is selected.
func (s *Store) Selected() string { return s.selected }

// SelectedElement returns the selected element, if any.
func (s *Store) SelectedElement() (domain.CanvasElement, bool) {
	if s.selected == "" {
		return domain.CanvasElement{}, false
	}
	return s.ElementByID(s.selected)
}

// Select marks id as selected. Unknown ids are ignored.
func (s *Store) Select(id string) {
	if indexOf(s.elements, id) >= 0 {
		s.selected = id
	}
}

func (s *Store) ClearSelection() { s.selected = "" }

func (s *Store) Zoom() float64 { return s.zoom }

// SetZoom clamps z to [MinZoom, MaxZoom].
func (s *Store) SetZoom(z float64) {
	s.zoom = min(max(z, MinZoom), MaxZoom)
}

// ElementByID looks up an element by id.
func (s *Store) ElementByID(id string) (domain.CanvasElement, bool) {
	i := indexOf(s.elements, id)
	if i < 0 {
		return domain.CanvasElement{}, false
	}
	return s.elements[i], true
}

// replace installs a copy of the current list with element i swapped for e.
func (s *Store) replace(i int, e domain.CanvasElement) {
	next := slices.Clone(s.elements)
	next[i] = e
	s.elements = next
	s.visibility[e.ID] = e.IsVisible()
}
