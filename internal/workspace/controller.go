/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package workspace

import (
	"log/slog"

	"navalcards/internal/canvas"
	applog "navalcards/internal/log"
	"navalcards/internal/vector"
)

// Listeners is implemented by the host surface that can route window-wide
// pointer events to the controller during a gesture.
type Listeners interface {
	Attach()
	Detach()
}

// Options configures snapping for a Controller.
type Options struct {
	GridSnap bool
	GridSize float64
	// SmartGuides enables snap-line alignment while dragging.
	SmartGuides bool
	// Snap overrides the snap-line configuration. Canvas dimensions are
	// always taken from the store at gesture start.
	Snap *vector.SnapConfig
}

// Controller drives a canvas.Store from pointer events.
type Controller struct {
	store     *canvas.Store
	opts      Options
	listeners Listeners
	log       *slog.Logger

	state    State
	origin   vector.Pt
	attached bool
	snapper  *vector.Snapper
	guides   []vector.SnapLine

	// OnChange is called after each effect that mutated the store.
	OnChange func(Effect)
}

// NewController returns an idle controller over store. listeners may be nil.
func NewController(store *canvas.Store, opts Options, listeners Listeners) *Controller {
	return &Controller{
		store:     store,
		opts:      opts,
		listeners: listeners,
		log:       applog.WithComponent("workspace"),
		state:     Idle{},
	}
}

// SetOrigin records the client-space position of the canvas top-left corner.
func (c *Controller) SetOrigin(p vector.Pt) { c.origin = p }

func (c *Controller) State() State { return c.state }

// Active reports whether a drag or resize is in progress.
func (c *Controller) Active() bool {
	_, idle := c.state.(Idle)
	return !idle
}

func (c *Controller) ListenersAttached() bool { return c.attached }

// ActiveLines returns the snap lines currently matched by the dragged element.
func (c *Controller) ActiveLines() []vector.SnapLine { return c.guides }

// Guides returns renderable segments for the active snap lines.
func (c *Controller) Guides() []vector.GuideLine {
	cfg := c.store.Config()
	return vector.Guides(c.guides, float64(cfg.CanvasWidth), float64(cfg.CanvasHeight))
}

func (c *Controller) env() Env {
	cfg := c.store.Config()
	return Env{
		Elements:     c.store.Elements(),
		Selected:     c.store.Selected(),
		CanvasWidth:  float64(cfg.CanvasWidth),
		CanvasHeight: float64(cfg.CanvasHeight),
		Viewport:     vector.Viewport{Origin: c.origin, Zoom: c.store.Zoom()},
		GridSnap:     c.opts.GridSnap,
		GridSize:     c.opts.GridSize,
		Snapper:      c.snapper,
	}
}

func (c *Controller) buildSnapper() {
	c.snapper = nil
	if !c.opts.SmartGuides {
		return
	}
	cfg := c.store.Config()
	sc := vector.DefaultSnapConfig(float64(cfg.CanvasWidth), float64(cfg.CanvasHeight))
	if c.opts.Snap != nil {
		sc = *c.opts.Snap
		sc.CanvasWidth, sc.CanvasHeight = float64(cfg.CanvasWidth), float64(cfg.CanvasHeight)
	}
	c.snapper = vector.NewSnapper(sc, canvas.Anchors(c.store.Elements()))
}

// Handle feeds one event through the state machine and applies its effects.
func (c *Controller) Handle(ev Event) {
	if _, idle := c.state.(Idle); idle {
		if _, press := ev.(PressElement); press {
			c.buildSnapper()
		}
	}
	next, effects := Transition(c.state, ev, c.env())
	c.state = next
	for _, eff := range effects {
		c.apply(eff)
	}
	if _, idle := c.state.(Idle); idle {
		c.snapper = nil
	}
}

func (c *Controller) apply(eff Effect) {
	switch e := eff.(type) {
	case Select:
		c.store.Select(e.ElementID)
		c.changed(e)
	case ClearSelection:
		c.store.ClearSelection()
		c.changed(e)
	case MoveTo:
		cur, ok := c.store.ElementByID(e.ElementID)
		if !ok {
			return
		}
		dx, dy := e.X-cur.X, e.Y-cur.Y
		if dx == 0 && dy == 0 {
			return
		}
		c.store.MoveElement(e.ElementID, dx, dy)
		c.changed(e)
	case ResizeTo:
		cur, ok := c.store.ElementByID(e.ElementID)
		if !ok {
			return
		}
		if canvas.Bounds(cur) == e.Rect {
			return
		}
		x, y := e.Rect.X, e.Rect.Y
		c.store.ResizeElement(e.ElementID, e.Rect.W, e.Rect.H, &x, &y)
		c.changed(e)
	case ShowGuides:
		c.guides = e.Lines
	case AttachListeners:
		if c.attached {
			return
		}
		c.attached = true
		if c.listeners != nil {
			c.listeners.Attach()
		}
		c.log.Debug("gesture started", slog.String("selected", c.store.Selected()))
	case DetachListeners:
		if !c.attached {
			return
		}
		c.attached = false
		if c.listeners != nil {
			c.listeners.Detach()
		}
		c.log.Debug("gesture ended")
	}
}

func (c *Controller) changed(e Effect) {
	if c.OnChange != nil {
		c.OnChange(e)
	}
}

// Cancel abandons any gesture in progress without further store changes.
func (c *Controller) Cancel() {
	c.state = Idle{}
	c.snapper = nil
	c.guides = nil
	c.apply(DetachListeners{})
}
