/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor ties one card editing session together: the canvas store,
// its undo history, pointer interaction, templates and persistence.
//
// A Session is driven from a single goroutine. Only the history debounce
// timer runs elsewhere and it never touches the canvas.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"navalcards/internal/backend"
	"navalcards/internal/canvas"
	"navalcards/internal/config"
	"navalcards/internal/domain"
	applog "navalcards/internal/log"
	"navalcards/internal/notify"
	"navalcards/internal/telemetry"
	"navalcards/internal/template"
	"navalcards/internal/undo"
	"navalcards/internal/vector"
	"navalcards/internal/workspace"
)

var (
	// ErrFixedElement is returned when a fixed field would be deleted.
	ErrFixedElement = errors.New("fixed fields cannot be deleted")
	ErrNoUnit       = errors.New("no unit open")
	ErrNoElement    = errors.New("element not found")
)

// RemoteSaver stores a card on the backend. backend.Client implements it.
type RemoteSaver interface {
	SaveCard(ctx context.Context, id int64, upd backend.LayoutUpdate) (domain.NavalUnit, error)
}

// LocalStore keeps units and layout versions on disk. storage.DB implements it.
type LocalStore interface {
	PutUnit(ctx context.Context, u domain.NavalUnit) error
	SaveLayout(ctx context.Context, id int64, state domain.CanvasState, description string) error
	PruneVersions(ctx context.Context, id int64, keepLast int) (int64, error)
}

// Uploader sends an image and returns its server path. backend.Uploader implements it.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader, category backend.ImageCategory) (string, error)
}

// EventFunc records a telemetry event.
type EventFunc func(name string, props map[string]any)

// Options wires a Session to its collaborators. Every collaborator is
// optional; a session without Remote and Local only edits in memory.
type Options struct {
	Editor       config.EditorConfig
	KeepVersions int

	Remote    RemoteSaver
	Local     LocalStore
	Templates *template.Library
	States    template.StateStore
	Uploader  Uploader
	Notifier  notify.Notifier
	Listeners workspace.Listeners
	Events    EventFunc
}

// Session edits the card of one unit at a time.
type Session struct {
	opts    Options
	notify  notify.Notifier
	log     *slog.Logger
	events  EventFunc
	history *undo.History[domain.CanvasState]

	store  *canvas.Store
	ctrl   *workspace.Controller
	states *template.StateCache

	unit       domain.NavalUnit
	open       bool
	templateID string
	dirty      bool

	gesture string
}

// New returns a session with no unit open.
func New(opts Options) *Session {
	s := &Session{
		opts:   opts,
		notify: notify.OrLog(opts.Notifier),
		log:    applog.WithComponent("editor"),
		events: opts.Events,
	}
	if s.events == nil {
		s.events = telemetry.Event
	}
	if s.opts.Templates == nil {
		s.opts.Templates = template.NewLibrary(template.NewMemoryStore(), s.notify)
	}
	// a window of 0 commits every change at once
	debounce := opts.Editor.HistoryDebounce()
	if debounce <= 0 {
		debounce = -1
	}
	s.history = undo.New(domain.CanvasState{Elements: []domain.CanvasElement{}, CanvasConfig: domain.DefaultCanvasConfig()}, undo.Options[domain.CanvasState]{
		MaxHistorySize: opts.Editor.HistoryMaxSize,
		Debounce:       debounce,
		Copy:           domain.CanvasState.Clone,
	})
	s.reset()
	return s
}

func (s *Session) reset() {
	s.store = canvas.NewStore()
	s.ctrl = workspace.NewController(s.store, s.controllerOptions(), s.opts.Listeners)
	s.ctrl.OnChange = s.onGestureChange
}

func (s *Session) controllerOptions() workspace.Options {
	ed := s.opts.Editor
	o := workspace.Options{
		GridSnap:    ed.GridSnap,
		GridSize:    float64(ed.GridSize),
		SmartGuides: ed.SmartGuides,
	}
	if ed.SnapTolerance > 0 {
		sc := vector.DefaultSnapConfig(0, 0)
		sc.Tolerance = ed.SnapTolerance
		sc.Canvas = ed.SnapToCanvas
		sc.GridSize = float64(ed.GridSize)
		sc.Grid = ed.GridSnap
		o.Snap = &sc
	}
	return o
}

// Open loads unit u into a fresh canvas. Elements come from the state saved
// for the unit's current template, else from its layout, else from the
// default card layout.
func (s *Session) Open(ctx context.Context, u domain.NavalUnit) {
	s.ctrl.Cancel()
	s.reset()
	s.unit = u
	s.open = true
	s.dirty = false
	s.store.Bind(&s.unit)

	s.templateID = u.CurrentTemplateID
	if s.templateID == "" {
		s.templateID = template.StandardID
	}
	s.states = template.NewStateCache(s.opts.States, u.ID, s.notify)
	s.states.LoadAll(ctx)
	if st, ok := s.states.Get(s.templateID); ok && len(st.ElementStates) > 0 {
		s.store.SetElements(canvas.BindUnitData(st.ElementStates, u))
	} else if len(s.store.Elements()) == 0 {
		s.store.SetElements(canvas.DefaultUnitLayout(u))
	}
	s.history.Reset(s.store.Snapshot())
	s.log.Info("unit opened",
		slog.Int64("unit", u.ID),
		slog.String("template", s.templateID),
		slog.Int("elements", len(s.store.Elements())))
}

// Close stops the history timer and abandons any gesture.
func (s *Session) Close() {
	s.ctrl.Cancel()
	s.history.Close()
	s.open = false
}

func (s *Session) Unit() domain.NavalUnit { return s.unit }

func (s *Session) IsOpen() bool { return s.open }

// TemplateID is the template the card is currently laid out with.
func (s *Session) TemplateID() string { return s.templateID }

// Dirty reports unsaved changes since Open or the last Save.
func (s *Session) Dirty() bool { return s.dirty }

// Store exposes the canvas for reads. Mutations must go through the session
// so they reach the history.
func (s *Session) Store() *canvas.Store { return s.store }

func (s *Session) Elements() []domain.CanvasElement { return s.store.Elements() }

func (s *Session) Snapshot() domain.CanvasState { return s.store.Snapshot() }

// CrashSnapshot returns the live state for crash autosaves.
func (s *Session) CrashSnapshot() (int64, domain.CanvasState, bool) {
	if !s.open {
		return 0, domain.CanvasState{}, false
	}
	return s.unit.ID, s.store.Snapshot(), true
}

// record pushes the current canvas into the history.
func (s *Session) record(desc string, force bool) {
	s.dirty = true
	s.history.Save(s.store.Snapshot(), desc, force)
}

// AddElement places a new element of type t at the default drop position.
func (s *Session) AddElement(t domain.ElementType, overrides *domain.ElementPatch) string {
	id := s.store.AddElement(t, canvas.DefaultDropX, canvas.DefaultDropY, overrides)
	s.record("Aggiunto elemento "+string(t), false)
	return id
}

func (s *Session) UpdateElement(id string, patch domain.ElementPatch) error {
	if _, ok := s.store.ElementByID(id); !ok {
		return fmt.Errorf("update %s: %w", id, ErrNoElement)
	}
	s.store.UpdateElement(id, patch)
	s.record("Modificato elemento", false)
	return nil
}

// DeleteElement removes id unless it is a fixed field.
func (s *Session) DeleteElement(id string) error {
	e, ok := s.store.ElementByID(id)
	if !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNoElement)
	}
	if e.Locked() {
		return fmt.Errorf("delete %s: %w", id, ErrFixedElement)
	}
	s.store.DeleteElement(id)
	s.record("Eliminato elemento", true)
	return nil
}

func (s *Session) DuplicateElement(id string) (string, error) {
	nid, ok := s.store.DuplicateElementByID(id)
	if !ok {
		return "", fmt.Errorf("duplicate %s: %w", id, ErrNoElement)
	}
	s.record("Duplicato elemento", true)
	return nid, nil
}

func (s *Session) MoveElement(id string, dx, dy float64) {
	if _, ok := s.store.ElementByID(id); !ok || (dx == 0 && dy == 0) {
		return
	}
	s.store.MoveElement(id, dx, dy)
	s.record("Spostato elemento", false)
}

func (s *Session) ResizeElement(id string, w, h float64, x, y *float64) {
	if _, ok := s.store.ElementByID(id); !ok {
		return
	}
	s.store.ResizeElement(id, w, h, x, y)
	s.record("Ridimensionato elemento", false)
}

func (s *Session) BringToFront(id string) {
	if _, ok := s.store.ElementByID(id); !ok {
		return
	}
	s.store.BringElementToFront(id)
	s.record("Portato in primo piano", true)
}

func (s *Session) SendToBack(id string) {
	if _, ok := s.store.ElementByID(id); !ok {
		return
	}
	s.store.SendElementToBack(id)
	s.record("Portato in secondo piano", true)
}

func (s *Session) ToggleVisibility(id string) {
	if _, ok := s.store.ElementByID(id); !ok {
		return
	}
	s.store.ToggleElementVisibility(id)
	s.record("Visibilità elemento", true)
}

func (s *Session) Select(id string) { s.store.Select(id) }

func (s *Session) ClearSelection() { s.store.ClearSelection() }

// SetCanvasSize resizes the card; non-positive values are ignored.
func (s *Session) SetCanvasSize(w, h int) {
	before := s.store.Config()
	s.store.SetCanvasWidth(w)
	s.store.SetCanvasHeight(h)
	if s.store.Config() != before {
		s.record("Dimensioni canvas", false)
	}
}

func (s *Session) SetCanvasBackground(c string) {
	s.store.SetCanvasBackground(c)
	s.record("Sfondo canvas", false)
}

func (s *Session) SetCanvasBorder(width int, color string) {
	s.store.SetCanvasBorderWidth(width)
	if color != "" {
		s.store.SetCanvasBorderColor(color)
	}
	s.record("Bordo canvas", false)
}

// Handle feeds a pointer event to the interaction controller. A finished
// drag or resize becomes one history entry.
func (s *Session) Handle(ev workspace.Event) {
	s.ctrl.Handle(ev)
	if !s.ctrl.Active() && s.gesture != "" {
		desc := s.gesture
		s.gesture = ""
		s.record(desc, true)
	}
}

func (s *Session) Controller() *workspace.Controller { return s.ctrl }

func (s *Session) onGestureChange(e workspace.Effect) {
	switch e.(type) {
	case workspace.MoveTo:
		s.gesture = "Spostato elemento"
	case workspace.ResizeTo:
		s.gesture = "Ridimensionato elemento"
	}
}

// Undo steps back one history entry. A pending debounced change is
// committed first so it is the one undone.
func (s *Session) Undo() bool {
	s.history.Flush()
	st, ok := s.history.Undo()
	if ok {
		s.store.Restore(st)
		s.dirty = true
	}
	return ok
}

func (s *Session) Redo() bool {
	s.history.Flush()
	st, ok := s.history.Redo()
	if ok {
		s.store.Restore(st)
		s.dirty = true
	}
	return ok
}

// GoTo jumps to history entry i.
func (s *Session) GoTo(i int) bool {
	s.history.Flush()
	st, ok := s.history.GoTo(i)
	if ok {
		s.store.Restore(st)
		s.dirty = true
	}
	return ok
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) History() undo.Info { return s.history.Info() }

// Replace installs state wholesale, for example a recovered autosave.
func (s *Session) Replace(state domain.CanvasState, desc string) {
	s.store.Restore(state)
	s.record(desc, true)
}

// ApplyTemplate lays template id over the card. With formatOnly the
// current content is kept and only geometry and style change. The unit's
// own images and names always win over template placeholders.
func (s *Session) ApplyTemplate(ctx context.Context, id string, formatOnly bool) error {
	if !s.open {
		return ErrNoUnit
	}
	t, err := s.opts.Templates.Get(ctx, id)
	if err != nil {
		s.notify.Error("Template non trovato")
		return err
	}
	res := template.Apply(t, s.store.Elements(), formatOnly)
	s.store.SetElements(canvas.BindUnitData(res.Elements, s.unit))
	s.store.SetConfig(res.ApplyConfig(s.store.Config()))
	s.store.ClearSelection()
	mode := "completo"
	if formatOnly {
		mode = "solo formato"
	}
	s.record(fmt.Sprintf("Applicato template %s (%s)", t.Name, mode), true)
	s.events(telemetry.EventTemplateApplied, map[string]any{"template": id, "formatOnly": formatOnly})
	s.log.Info("template applied", slog.String("template", id), slog.Bool("formatOnly", formatOnly))
	return nil
}

// SwitchTemplate moves the card to template id. The state under the current
// template is saved first; a state saved earlier for id is restored,
// otherwise the template is laid out carrying over content by element type
// and keeping custom elements the template lacks.
func (s *Session) SwitchTemplate(ctx context.Context, id string) error {
	if !s.open {
		return ErrNoUnit
	}
	if id == s.templateID {
		return nil
	}
	_ = s.SaveTemplateState(ctx)

	if st, ok := s.states.Get(id); ok && len(st.ElementStates) > 0 {
		s.store.SetElements(canvas.BindUnitData(st.ElementStates, s.unit))
	} else {
		t, err := s.opts.Templates.Get(ctx, id)
		if err != nil {
			s.notify.Error("Template non trovato")
			return err
		}
		s.store.SetElements(canvas.BindUnitData(carryOver(t.Elements, s.store.Elements()), s.unit))
		s.store.SetConfig(templateCanvas(t))
	}
	s.store.ClearSelection()
	s.templateID = id
	s.record("Cambio template", true)
	s.events(telemetry.EventTemplateApplied, map[string]any{"template": id, "switch": true})
	s.log.Info("template switched", slog.String("template", id))
	return nil
}

// carryOver builds the element list for a template switch.
func carryOver(tpl, current []domain.CanvasElement) []domain.CanvasElement {
	byType := make(map[domain.ElementType]domain.CanvasElement, len(current))
	for _, e := range current {
		if _, seen := byType[e.Type]; !seen {
			byType[e.Type] = e
		}
	}
	inTemplate := make(map[domain.ElementType]bool, len(tpl))
	out := make([]domain.CanvasElement, 0, len(tpl)+len(current))
	for _, te := range tpl {
		inTemplate[te.Type] = true
		e := te.Clone()
		if old, ok := byType[te.Type]; ok {
			e.Content = old.Content
			e.TableData = old.Clone().TableData
			if old.Image != "" {
				e.Image = old.Image
			}
		}
		out = append(out, e)
	}
	for _, e := range current {
		if !inTemplate[e.Type] && !e.Locked() {
			out = append(out, e.Clone())
		}
	}
	return out
}

// templateCanvas is the full canvas of t, defaults filling what t leaves unset.
func templateCanvas(t domain.Template) domain.CanvasConfig {
	c := domain.DefaultCanvasConfig()
	if t.CanvasWidth > 0 {
		c.CanvasWidth = t.CanvasWidth
	}
	if t.CanvasHeight > 0 {
		c.CanvasHeight = t.CanvasHeight
	}
	if t.CanvasBackground != "" {
		c.CanvasBackground = t.CanvasBackground
	}
	if t.CanvasBorderWidth != nil && *t.CanvasBorderWidth > 0 {
		c.CanvasBorderWidth = *t.CanvasBorderWidth
	}
	if t.CanvasBorderColor != "" {
		c.CanvasBorderColor = t.CanvasBorderColor
	}
	return c
}

// SaveTemplateState remembers the canvas under the current template.
func (s *Session) SaveTemplateState(ctx context.Context) error {
	if !s.open || s.states == nil {
		return ErrNoUnit
	}
	return s.states.Save(ctx, s.templateID, template.StateOf(s.store.Snapshot()))
}

// SaveAsTemplate stores the current card as a new user template.
func (s *Session) SaveAsTemplate(ctx context.Context, name, description string) (domain.Template, error) {
	return s.opts.Templates.SaveCurrent(ctx, name, description, s.store.Snapshot())
}

// SetElementImage uploads r and points element id at the stored image.
func (s *Session) SetElementImage(ctx context.Context, id, filename string, r io.Reader) error {
	e, ok := s.store.ElementByID(id)
	if !ok {
		return fmt.Errorf("image for %s: %w", id, ErrNoElement)
	}
	if s.opts.Uploader == nil {
		return errors.New("no uploader configured")
	}
	path, err := s.opts.Uploader.Upload(ctx, filename, r, backend.CategoryFor(e.Type))
	if err != nil {
		return err
	}
	s.store.UpdateElement(id, domain.ElementPatch{Image: &path})
	s.record("Immagine aggiornata", true)
	return nil
}

// Save commits pending history and writes the card everywhere it is kept:
// the template state, the backend and the local store. The backend is
// authoritative; a local failure is reported but does not fail the save.
func (s *Session) Save(ctx context.Context) error {
	if !s.open {
		return ErrNoUnit
	}
	s.history.Flush()
	st := s.store.Snapshot()
	_ = s.SaveTemplateState(ctx)

	nation := canvas.Nation(st.Elements, s.unit.Nation)
	name, class := canvas.UnitFields(st.Elements)
	if s.opts.Remote != nil {
		upd := backend.LayoutUpdate{
			LayoutConfig:      domain.LayoutFromState(st),
			Nation:            nation,
			Name:              name,
			UnitClass:         class,
			CurrentTemplateID: s.templateID,
		}
		if _, err := s.opts.Remote.SaveCard(ctx, s.unit.ID, upd); err != nil {
			s.log.Error("save layout failed", slog.Int64("unit", s.unit.ID), slog.Any("err", err))
			s.notify.Error("Errore durante il salvataggio del layout")
			return fmt.Errorf("save unit %d: %w", s.unit.ID, err)
		}
	}

	lc := domain.LayoutFromState(st)
	s.unit.LayoutConfig = &lc
	s.unit.Nation = nation
	s.unit.CurrentTemplateID = s.templateID
	if name != "" {
		s.unit.Name = name
	}
	if class != "" {
		s.unit.UnitClass = class
	}
	if s.opts.Local != nil {
		s.saveLocal(ctx, st)
	}
	s.dirty = false
	s.notify.Success("Layout salvato con successo")
	s.events(telemetry.EventLayoutSaved, map[string]any{"elements": len(st.Elements)})
	return nil
}

func (s *Session) saveLocal(ctx context.Context, st domain.CanvasState) {
	desc := "Salvataggio"
	if inf := s.history.Info(); inf.Current < len(inf.Items) {
		desc = inf.Items[inf.Current].Description
	}
	if err := s.opts.Local.PutUnit(ctx, s.unit); err != nil {
		s.log.Warn("local unit save failed", slog.Any("err", err))
		return
	}
	if err := s.opts.Local.SaveLayout(ctx, s.unit.ID, st, desc); err != nil {
		s.log.Warn("local layout save failed", slog.Any("err", err))
		return
	}
	if s.opts.KeepVersions > 0 {
		if n, err := s.opts.Local.PruneVersions(ctx, s.unit.ID, s.opts.KeepVersions); err != nil {
			s.log.Warn("prune layout versions failed", slog.Any("err", err))
		} else if n > 0 {
			s.log.Debug("layout versions pruned", slog.Int64("removed", n))
		}
	}
}
