/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"testing"

	"navalcards/internal/domain"
)

func TestEmptyUnitEndToEnd(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	s.Bind(&domain.NavalUnit{ID: 7, Name: "Vittorio Veneto", LayoutConfig: &domain.LayoutConfig{}})
	if len(s.Elements()) != 0 {
		t.Fatalf("empty layout should give no elements, got %d", len(s.Elements()))
	}

	id := s.AddElement(domain.ElementUnitName, DefaultDropX, DefaultDropY, nil)
	els := s.Elements()
	if len(els) != 1 || els[0].Type != domain.ElementUnitName {
		t.Fatalf("want one unit_name, got %+v", els)
	}
	e := els[0]
	if e.Content != "Nome Unità" || e.X != 50 || e.Y != 50 || e.Width != 400 || e.Height != 50 {
		t.Fatalf("unexpected new element: %+v", e)
	}
	if s.Selected() != id {
		t.Fatalf("new element not selected")
	}

	s.UpdateElement(id, domain.ElementPatch{Content: domain.Str("USS Enterprise")})
	if got, _ := s.ElementByID(id); got.Content != "USS Enterprise" {
		t.Fatalf("content = %q", got.Content)
	}

	s.DeleteElement(id)
	if len(s.Elements()) != 0 || s.Selected() != "" {
		t.Fatalf("after delete: %d elements, selection %q", len(s.Elements()), s.Selected())
	}
}

func TestBindSeedsOnlyOnIdentityChange(t *testing.T) {
	bw := 0
	unit := &domain.NavalUnit{ID: 1, LayoutConfig: &domain.LayoutConfig{
		Elements: []domain.CanvasElement{
			{ID: "a", Type: domain.ElementText, Width: 10, Height: 10},
			{ID: "b", Type: domain.ElementLogo, Width: 10, Height: 10, Visible: domain.Bool(false)},
		},
		CanvasWidth:       800,
		CanvasBorderWidth: &bw,
	}}
	s := NewStore()
	if !s.Bind(unit) {
		t.Fatalf("first bind should seed")
	}
	cfg := s.Config()
	if cfg.CanvasWidth != 800 || cfg.CanvasHeight != 720 || cfg.CanvasBorderWidth != 0 || cfg.CanvasBackground != "#ffffff" {
		t.Fatalf("config = %+v", cfg)
	}
	if !s.Visible("a") || s.Visible("b") {
		t.Fatalf("visibility = %v", s.Visibility())
	}

	s.MoveElement("a", 5, 5)
	if s.Bind(unit) {
		t.Fatalf("rebinding the same unit must not reseed")
	}
	if a, _ := s.ElementByID("a"); a.X != 5 {
		t.Fatalf("in-progress edit clobbered: %+v", a)
	}

	unit.LayoutConfig.Elements[0].Content = "mutated after bind"
	if a, _ := s.ElementByID("a"); a.Content != "" {
		t.Fatalf("store aliases the unit layout")
	}

	if !s.Bind(&domain.NavalUnit{ID: 2}) {
		t.Fatalf("new unit should reseed")
	}
	if len(s.Elements()) != 0 || s.Config() != domain.DefaultCanvasConfig() {
		t.Fatalf("unit without layout should reset to defaults")
	}
}

func TestOperationsNeverMutatePreviousLists(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	a := s.AddElement(domain.ElementText, 0, 0, nil)
	b := s.AddElement(domain.ElementLogo, 100, 100, nil)
	before := s.Elements()

	s.MoveElement(a, 10, 20)
	s.ResizeElement(b, 60, 70, nil, nil)
	s.UpdateElement(a, domain.ElementPatch{Content: domain.Str("x")})
	s.ToggleElementVisibility(b)
	s.BringElementToFront(a)

	if before[0].X != 0 || before[0].Content != "Testo" || before[1].Width != 150 || !before[1].IsVisible() {
		t.Fatalf("earlier slice was modified: %+v", before)
	}
	after := s.Elements()
	if after[1].ID != a || after[1].X != 10 || after[1].Y != 20 {
		t.Fatalf("move/front wrong: %+v", after)
	}
	if after[0].Width != 60 || after[0].Height != 70 || after[0].X != 100 || after[0].Y != 100 {
		t.Fatalf("resize without origin moved element: %+v", after[0])
	}
	if s.Visible(b) || after[0].IsVisible() {
		t.Fatalf("toggle did not hide element")
	}
}

func TestResizeElementWithOrigin(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	id := s.AddElement(domain.ElementFlag, 30, 40, nil)
	x := 5.0
	s.ResizeElement(id, 50, 60, &x, nil)
	e, _ := s.ElementByID(id)
	if e.X != 5 || e.Y != 40 || e.Width != 50 || e.Height != 60 {
		t.Fatalf("resize = %+v", e)
	}
}

func TestDeleteClearsSelectionUnconditionally(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	a := s.AddElement(domain.ElementText, 0, 0, nil)
	b := s.AddElement(domain.ElementText, 0, 0, nil)
	s.Select(b)
	s.DeleteElement(a)
	if s.Selected() != "" {
		t.Fatalf("selection survived deleting another element")
	}
	s.Select(b)
	s.DeleteElement("unknown")
	if s.Selected() != "" {
		t.Fatalf("selection survived deleting an unknown id")
	}
}

func TestDuplicateByID(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	a := s.AddElement(domain.ElementSilhouette, 10, 10, nil)
	d, ok := s.DuplicateElementByID(a)
	if !ok || s.Selected() != d || len(s.Elements()) != 2 {
		t.Fatalf("duplicate failed: %v %q", ok, d)
	}
	if e, _ := s.ElementByID(d); e.X != 30 || e.Y != 30 {
		t.Fatalf("duplicate position = %v,%v", e.X, e.Y)
	}
	if _, ok := s.DuplicateElementByID("missing"); ok || len(s.Elements()) != 2 {
		t.Fatalf("missing source should be a no-op")
	}
}

func TestSnapshotRestore(t *testing.T) {
	seqIDs(t)
	s := NewStore()
	id := s.AddElement(domain.ElementTable, 0, 0, nil)
	snap := s.Snapshot()

	s.UpdateElement(id, domain.ElementPatch{TableData: [][]string{{"x"}}})
	s.SetCanvasBackground("#123456")
	if snap.Elements[0].TableData[0][0] != "LUNGHEZZA" || snap.CanvasBackground != "#ffffff" {
		t.Fatalf("snapshot aliases live state")
	}

	s.DeleteElement(id)
	s.Select(id)
	s.Restore(snap)
	if len(s.Elements()) != 1 || s.Config().CanvasBackground != "#ffffff" {
		t.Fatalf("restore failed: %+v", s.Snapshot())
	}
}

func TestZoomClamped(t *testing.T) {
	s := NewStore()
	s.SetZoom(10)
	if s.Zoom() != MaxZoom {
		t.Fatalf("zoom = %v", s.Zoom())
	}
	s.SetZoom(0)
	if s.Zoom() != MinZoom {
		t.Fatalf("zoom = %v", s.Zoom())
	}
}
