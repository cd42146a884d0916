/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workspace turns pointer events into element moves and resizes.
//
// The interaction is a small state machine (Idle, Dragging, Resizing).
// Transition is a pure function from (state, event, environment) to the next
// state plus a list of effects; Controller owns the current state and applies
// the effects to the canvas store.
package workspace

import (
	"navalcards/internal/canvas"
	"navalcards/internal/domain"
	"navalcards/internal/vector"
)

// State is one of Idle, Dragging or Resizing.
type State interface{ isState() }

type Idle struct{}

// Dragging tracks a move gesture. Pointer is the last seen canvas-space
// pointer; Pos is the element position accumulated from pointer deltas
// before grid snapping and clamping.
type Dragging struct {
	ElementID string
	Pressed   domain.CanvasElement
	Pointer   vector.Pt
	Pos       vector.Pt
}

// Resizing tracks a resize gesture. Deltas are measured from Origin and
// applied to Pressed, the element as it was when the handle was grabbed.
type Resizing struct {
	Handle      domain.ResizeHandle
	ElementID   string
	StartWidth  float64
	StartHeight float64
	Pressed     domain.CanvasElement
	Origin      vector.Pt
}

func (Idle) isState()     {}
func (Dragging) isState() {}
func (Resizing) isState() {}

// Event is a pointer input in client coordinates.
type Event interface{ isEvent() }

// PressElement is a pointer-down on an element body.
type PressElement struct {
	ElementID string
	Client    vector.Pt
}

// PressHandle is a pointer-down on a resize grip of the selected element.
type PressHandle struct {
	Handle domain.ResizeHandle
	Client vector.Pt
}

type PointerMove struct{ Client vector.Pt }

type PointerUp struct{}

// BackgroundClick is a click on the canvas outside every element.
type BackgroundClick struct{}

func (PressElement) isEvent()    {}
func (PressHandle) isEvent()     {}
func (PointerMove) isEvent()     {}
func (PointerUp) isEvent()       {}
func (BackgroundClick) isEvent() {}

// Effect is a side effect requested by Transition.
type Effect interface{ isEffect() }

type MoveTo struct {
	ElementID string
	X, Y      float64
}

type ResizeTo struct {
	ElementID string
	Rect      vector.Rect
}

type Select struct{ ElementID string }

type ClearSelection struct{}

// AttachListeners asks the host to route pointer move/up from the whole
// window to the controller; DetachListeners undoes it.
type AttachListeners struct{}

type DetachListeners struct{}

// ShowGuides replaces the displayed alignment guides; an empty list hides them.
type ShowGuides struct{ Lines []vector.SnapLine }

func (MoveTo) isEffect()          {}
func (ResizeTo) isEffect()        {}
func (Select) isEffect()          {}
func (ClearSelection) isEffect()  {}
func (AttachListeners) isEffect() {}
func (DetachListeners) isEffect() {}
func (ShowGuides) isEffect()      {}

// Env is the read-only context a transition needs.
type Env struct {
	Elements     []domain.CanvasElement
	Selected     string
	CanvasWidth  float64
	CanvasHeight float64
	Viewport     vector.Viewport
	GridSnap     bool
	GridSize     float64
	// Snapper adds snap-line alignment while dragging; nil disables it.
	Snapper *vector.Snapper
}

func (env Env) find(id string) (domain.CanvasElement, bool) {
	for _, e := range env.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return domain.CanvasElement{}, false
}

// Transition computes the next state and effects for ev. Events that do not
// apply to the current state leave it unchanged with no effects.
func Transition(s State, ev Event, env Env) (State, []Effect) {
	switch st := s.(type) {
	case Idle:
		return fromIdle(st, ev, env)
	case Dragging:
		return whileDragging(st, ev, env)
	case Resizing:
		return whileResizing(st, ev, env)
	default:
		return Idle{}, nil
	}
}

func fromIdle(st Idle, ev Event, env Env) (State, []Effect) {
	switch e := ev.(type) {
	case PressElement:
		el, ok := env.find(e.ElementID)
		if !ok {
			return st, nil
		}
		return Dragging{
			ElementID: el.ID,
			Pressed:   el.Clone(),
			Pointer:   env.Viewport.ToCanvas(e.Client),
			Pos:       vector.Pt{X: el.X, Y: el.Y},
		}, []Effect{Select{ElementID: el.ID}, AttachListeners{}}
	case PressHandle:
		if env.Selected == "" || !e.Handle.Valid() {
			return st, nil
		}
		el, ok := env.find(env.Selected)
		if !ok {
			return st, nil
		}
		return Resizing{
			Handle:      e.Handle,
			ElementID:   el.ID,
			StartWidth:  el.Width,
			StartHeight: el.Height,
			Pressed:     el.Clone(),
			Origin:      env.Viewport.ToCanvas(e.Client),
		}, []Effect{AttachListeners{}}
	case BackgroundClick:
		return st, []Effect{ClearSelection{}}
	}
	return st, nil
}

func whileDragging(st Dragging, ev Event, env Env) (State, []Effect) {
	switch e := ev.(type) {
	case PointerMove:
		p := env.Viewport.ToCanvas(e.Client)
		d := p.Sub(st.Pointer)
		st.Pointer = p
		st.Pos = vector.Pt{X: st.Pos.X + d.X, Y: st.Pos.Y + d.Y}

		el, ok := env.find(st.ElementID)
		if !ok {
			el = st.Pressed
		}
		x, y := st.Pos.X, st.Pos.Y
		if env.GridSnap {
			x = canvas.SnapToGrid(x, env.GridSize)
			y = canvas.SnapToGrid(y, env.GridSize)
		}
		var active []vector.SnapLine
		if env.Snapper != nil {
			res := env.Snapper.Snap(x, y, el.Width, el.Height, st.ElementID)
			x, y, active = res.X, res.Y, res.Active
		}
		r := canvas.ConstrainToCanvas(vector.R(x, y, el.Width, el.Height), env.CanvasWidth, env.CanvasHeight)
		return st, []Effect{MoveTo{ElementID: st.ElementID, X: r.X, Y: r.Y}, ShowGuides{Lines: active}}
	case PointerUp:
		return Idle{}, []Effect{ShowGuides{}, DetachListeners{}}
	}
	return st, nil
}

func whileResizing(st Resizing, ev Event, env Env) (State, []Effect) {
	switch e := ev.(type) {
	case PointerMove:
		p := env.Viewport.ToCanvas(e.Client)
		d := p.Sub(st.Origin)
		r := canvas.CalculateResizedDimensions(st.Pressed, st.Handle, d.X, d.Y)
		if env.GridSnap {
			r = canvas.SnapRectToGrid(r, env.GridSize)
		}
		r = canvas.ConstrainToCanvas(r, env.CanvasWidth, env.CanvasHeight)
		return st, []Effect{ResizeTo{ElementID: st.ElementID, Rect: r}}
	case PointerUp:
		return Idle{}, []Effect{DetachListeners{}}
	}
	return st, nil
}
