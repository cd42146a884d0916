/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package autocomplete

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const notesType = "naval_data"

// IdentificationElement is one visual feature, listed from bow to stern.
type IdentificationElement struct {
	ID      string `json:"id"`
	Element string `json:"element"`
}

// NavalData is the structured form of a unit's notes field.
type NavalData struct {
	Type           string                  `json:"type"`
	Version        string                  `json:"version"`
	FreeNotes      string                  `json:"freeNotes,omitempty"`
	Identification []IdentificationElement `json:"identification"`
}

// ParseNotes reads a notes field. Notes that are not a naval_data document
// (plain or HTML text from older records) become the free-notes part.
func ParseNotes(notes string) NavalData {
	empty := NavalData{Type: notesType, Version: "1.0", Identification: []IdentificationElement{}}
	if strings.TrimSpace(notes) == "" {
		return empty
	}
	var d NavalData
	if err := json.Unmarshal([]byte(notes), &d); err != nil || d.Type != notesType {
		empty.FreeNotes = notes
		return empty
	}
	if d.Identification == nil {
		d.Identification = []IdentificationElement{}
	}
	return d
}

// Serialize renders d back into a notes field.
func (d NavalData) Serialize() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode notes: %w", err)
	}
	return string(b), nil
}

// NewElementID returns a fresh identification element id.
func NewElementID() string { return "elem-" + uuid.NewString() }

// Add appends element to the identification list under a new id.
// Blank elements are ignored and ok is false.
func (d *NavalData) Add(element string) (IdentificationElement, bool) {
	el := strings.TrimSpace(element)
	if el == "" {
		return IdentificationElement{}, false
	}
	it := IdentificationElement{ID: NewElementID(), Element: el}
	d.Identification = append(d.Identification, it)
	return it, true
}

// AddIdentification adds element to the notes field of a unit and returns
// the rewritten notes. Free notes in non-structured fields are kept.
func AddIdentification(notes, element string) (string, IdentificationElement, error) {
	d := ParseNotes(notes)
	it, ok := d.Add(element)
	if !ok {
		return notes, IdentificationElement{}, errors.New("empty identification element")
	}
	out, err := d.Serialize()
	if err != nil {
		return notes, IdentificationElement{}, err
	}
	return out, it, nil
}
