/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"testing"

	"navalcards/internal/canvas"
	"navalcards/internal/domain"
	"navalcards/internal/vector"
)

type countingListeners struct{ attached, detached int }

func (l *countingListeners) Attach() { l.attached++ }
func (l *countingListeners) Detach() { l.detached++ }

func newBox(s *canvas.Store, x, y, w, h float64) string {
	return s.AddElement(domain.ElementText, x, y, &domain.ElementPatch{Width: domain.Num(w), Height: domain.Num(h)})
}

func TestDragWithZoomAndGridSnap(t *testing.T) {
	s := canvas.NewStore()
	id := newBox(s, 100, 100, 200, 50)
	s.ClearSelection()
	s.SetZoom(2)

	l := &countingListeners{}
	c := NewController(s, Options{GridSnap: true, GridSize: 10}, l)
	c.SetOrigin(vector.Pt{X: 10, Y: 20})

	c.Handle(PressElement{ElementID: id, Client: vector.Pt{X: 310, Y: 260}})
	if s.Selected() != id {
		t.Fatalf("press should select the element")
	}
	if !c.Active() || !c.ListenersAttached() || l.attached != 1 {
		t.Fatalf("drag not started: active=%v attached=%v", c.Active(), l.attached)
	}

	// 46,14 client pixels at zoom 2 is 23,7 canvas units
	c.Handle(PointerMove{Client: vector.Pt{X: 356, Y: 274}})
	e, _ := s.ElementByID(id)
	if e.X != 120 || e.Y != 110 {
		t.Fatalf("position = %v,%v want 120,110", e.X, e.Y)
	}

	c.Handle(PointerUp{})
	if c.Active() || c.ListenersAttached() || l.detached != 1 {
		t.Fatalf("drag not finished")
	}
	c.Handle(PointerMove{Client: vector.Pt{X: 900, Y: 900}})
	if e2, _ := s.ElementByID(id); e2.X != 120 || e2.Y != 110 {
		t.Fatalf("move after release changed the element")
	}
}

func TestDragAccumulatesSmallMovesUnderGrid(t *testing.T) {
	s := canvas.NewStore()
	id := newBox(s, 100, 100, 50, 50)
	c := NewController(s, Options{GridSnap: true, GridSize: 10}, nil)

	c.Handle(PressElement{ElementID: id, Client: vector.Pt{X: 110, Y: 110}})
	for i := 1; i <= 4; i++ {
		c.Handle(PointerMove{Client: vector.Pt{X: 110 + float64(3*i), Y: 110}})
	}
	e, _ := s.ElementByID(id)
	if e.X != 110 || e.Y != 100 {
		t.Fatalf("position = %v,%v want 110,100", e.X, e.Y)
	}
}

func TestDragIsClampedToCanvas(t *testing.T) {
	s := canvas.NewStore()
	id := newBox(s, 100, 100, 200, 50)
	c := NewController(s, Options{}, nil)

	c.Handle(PressElement{ElementID: id, Client: vector.Pt{X: 150, Y: 120}})
	c.Handle(PointerMove{Client: vector.Pt{X: 5000, Y: -300}})
	e, _ := s.ElementByID(id)
	if e.X != 1080 || e.Y != 0 {
		t.Fatalf("position = %v,%v want 1080,0", e.X, e.Y)
	}
}

func TestResizeMeasuresFromPressPoint(t *testing.T) {
	s := canvas.NewStore()
	id := newBox(s, 100, 100, 200, 50)
	c := NewController(s, Options{GridSnap: true, GridSize: 10}, nil)

	c.Handle(PressHandle{Handle: domain.HandleSE, Client: vector.Pt{X: 300, Y: 150}})
	if _, ok := c.State().(Resizing); !ok {
		t.Fatalf("state = %T want Resizing", c.State())
	}
	c.Handle(PointerMove{Client: vector.Pt{X: 337, Y: 172}})
	e, _ := s.ElementByID(id)
	if e.X != 100 || e.Y != 100 || e.Width != 240 || e.Height != 70 {
		t.Fatalf("after first move: %+v", canvas.Bounds(e))
	}
	c.Handle(PointerMove{Client: vector.Pt{X: 307, Y: 153}})
	e, _ = s.ElementByID(id)
	if e.Width != 210 || e.Height != 50 {
		t.Fatalf("after second move: %+v", canvas.Bounds(e))
	}
	c.Handle(PointerUp{})
	if c.Active() || c.ListenersAttached() {
		t.Fatalf("resize not finished")
	}
}

func TestResizeNorthWestKeepsOppositeCorner(t *testing.T) {
	s := canvas.NewStore()
	id := newBox(s, 100, 100, 200, 50)
	c := NewController(s, Options{GridSnap: true, GridSize: 10}, nil)

	c.Handle(PressHandle{Handle: domain.HandleNW, Client: vector.Pt{X: 100, Y: 100}})
	c.Handle(PointerMove{Client: vector.Pt{X: 600, Y: 600}})
	e, _ := s.ElementByID(id)
	want := vector.R(280, 130, 20, 20)
	if canvas.Bounds(e) != want {
		t.Fatalf("bounds = %+v want %+v", canvas.Bounds(e), want)
	}
}

func TestHandlePressNeedsSelection(t *testing.T) {
	s := canvas.NewStore()
	newBox(s, 100, 100, 200, 50)
	s.ClearSelection()
	l := &countingListeners{}
	c := NewController(s, Options{}, l)

	c.Handle(PressHandle{Handle: domain.HandleE, Client: vector.Pt{X: 300, Y: 125}})
	if c.Active() || l.attached != 0 {
		t.Fatalf("handle press without selection should be ignored")
	}
	s.Select(s.Elements()[0].ID)
	c.Handle(PressHandle{Handle: "bogus", Client: vector.Pt{X: 300, Y: 125}})
	if c.Active() {
		t.Fatalf("unknown handle should be ignored")
	}
}

func TestBackgroundClickClearsSelection(t *testing.T) {
	s := canvas.NewStore()
	newBox(s, 100, 100, 200, 50)
	var changes []Effect
	c := NewController(s, Options{}, nil)
	c.OnChange = func(e Effect) { changes = append(changes, e) }

	c.Handle(BackgroundClick{})
	if s.Selected() != "" {
		t.Fatalf("selection not cleared")
	}
	if len(changes) != 1 {
		t.Fatalf("changes = %d want 1", len(changes))
	}
	if _, ok := changes[0].(ClearSelection); !ok {
		t.Fatalf("change = %T", changes[0])
	}
}

func TestDragSnapsToOtherElement(t *testing.T) {
	s := canvas.NewStore()
	a := newBox(s, 100, 100, 200, 50)
	b := newBox(s, 400, 300, 100, 50)
	cfg := vector.SnapConfig{Tolerance: 5, Elements: true}
	c := NewController(s, Options{SmartGuides: true, Snap: &cfg}, nil)

	c.Handle(PressElement{ElementID: b, Client: vector.Pt{X: 450, Y: 325}})
	c.Handle(PointerMove{Client: vector.Pt{X: 153, Y: 325}})
	e, _ := s.ElementByID(b)
	if e.X != 100 || e.Y != 300 {
		t.Fatalf("position = %v,%v want 100,300", e.X, e.Y)
	}
	lines := c.ActiveLines()
	if len(lines) != 1 || lines[0].Owner != a || lines[0].Kind != vector.LineElement {
		t.Fatalf("active lines = %+v", lines)
	}
	if g := c.Guides(); len(g) != 1 || g[0].Color != "#ef4444" {
		t.Fatalf("guides = %+v", g)
	}

	c.Handle(PointerUp{})
	if len(c.ActiveLines()) != 0 {
		t.Fatalf("guides should be hidden after release")
	}
}

func TestTransitionIgnoresPressWhileDragging(t *testing.T) {
	env := Env{
		Elements:     []domain.CanvasElement{{ID: "x", Width: 10, Height: 10}, {ID: "y", Width: 10, Height: 10}},
		CanvasWidth:  100,
		CanvasHeight: 100,
	}
	st, eff := Transition(Idle{}, PressElement{ElementID: "x"}, env)
	if len(eff) != 2 {
		t.Fatalf("effects = %+v", eff)
	}
	next, eff := Transition(st, PressElement{ElementID: "y"}, env)
	if d, ok := next.(Dragging); !ok || d.ElementID != "x" || len(eff) != 0 {
		t.Fatalf("press while dragging should be ignored: %T %+v", next, eff)
	}
	next, _ = Transition(Idle{}, PressElement{ElementID: "missing"}, env)
	if _, ok := next.(Idle); !ok {
		t.Fatalf("press on unknown element should stay idle")
	}
}
