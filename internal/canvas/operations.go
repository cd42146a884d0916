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

// Default drop position of AddElement.
const (
	DefaultDropX = 50
	DefaultDropY = 50
)

// AddElement creates an element of type t at (x, y), appends it on top and
// selects it. It returns the new id.
func (s *Store) AddElement(t domain.ElementType, x, y float64, overrides *domain.ElementPatch) string {
	e := CreateElement(t, x, y, overrides)
	s.append(e)
	s.selected = e.ID
	return e.ID
}

// UpdateElement merges patch into the element with id. Unknown ids are ignored.
func (s *Store) UpdateElement(id string, patch domain.ElementPatch) {
	i := indexOf(s.elements, id)
	if i < 0 {
		return
	}
	s.replace(i, patch.Apply(s.elements[i]))
}

// DeleteElement removes the element with id. The selection is cleared even
// when another element was selected.
func (s *Store) DeleteElement(id string) {
	if i := indexOf(s.elements, id); i >= 0 {
		next := slices.Delete(slices.Clone(s.elements), i, i+1)
		s.elements = next
		delete(s.visibility, id)
	}
	s.selected = ""
}

// DuplicateElementByID appends an offset copy of the element with id and
// selects it. It returns the copy's id, or false when id is unknown.
func (s *Store) DuplicateElementByID(id string) (string, bool) {
	src, ok := s.ElementByID(id)
	if !ok {
		return "", false
	}
	d := DuplicateElement(src)
	s.append(d)
	s.selected = d.ID
	return d.ID, true
}

// MoveElement shifts the element with id by (dx, dy).
func (s *Store) MoveElement(id string, dx, dy float64) {
	i := indexOf(s.elements, id)
	if i < 0 {
		return
	}
	e := s.elements[i].Clone()
	e.X += dx
	e.Y += dy
	s.replace(i, e)
}

// ResizeElement sets width and height; x and y change only when given.
func (s *Store) ResizeElement(id string, width, height float64, x, y *float64) {
	i := indexOf(s.elements, id)
	if i < 0 {
		return
	}
	e := s.elements[i].Clone()
	e.Width, e.Height = width, height
	if x != nil {
		e.X = *x
	}
	if y != nil {
		e.Y = *y
	}
	s.replace(i, e)
}

func (s *Store) BringElementToFront(id string) { s.elements = BringToFront(s.elements, id) }

func (s *Store) SendElementToBack(id string) { s.elements = SendToBack(s.elements, id) }

// ToggleElementVisibility flips the visible flag of the element with id.
func (s *Store) ToggleElementVisibility(id string) {
	i := indexOf(s.elements, id)
	if i < 0 {
		return
	}
	e := s.elements[i].Clone()
	e.Visible = domain.Bool(!e.IsVisible())
	s.replace(i, e)
}

func (s *Store) append(e domain.CanvasElement) {
	next := make([]domain.CanvasElement, 0, len(s.elements)+1)
	next = append(next, s.elements...)
	s.elements = append(next, e)
	s.visibility[e.ID] = e.IsVisible()
}
