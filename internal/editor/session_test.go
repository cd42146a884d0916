/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"navalcards/internal/backend"
	"navalcards/internal/config"
	"navalcards/internal/domain"
	"navalcards/internal/notify"
	"navalcards/internal/storage"
	"navalcards/internal/telemetry"
	"navalcards/internal/template"
	"navalcards/internal/vector"
	"navalcards/internal/workspace"
)

type recordedEvent struct {
	name  string
	props map[string]any
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *eventLog) record(name string, props map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{name, props})
}

func (l *eventLog) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.name
	}
	return out
}

type fakeRemote struct {
	err  error
	sent []backend.LayoutUpdate
}

func (f *fakeRemote) SaveCard(_ context.Context, id int64, upd backend.LayoutUpdate) (domain.NavalUnit, error) {
	if f.err != nil {
		return domain.NavalUnit{}, f.err
	}
	f.sent = append(f.sent, upd)
	return domain.NavalUnit{ID: id}, nil
}

type fakeUploader struct {
	category backend.ImageCategory
	body     string
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader, c backend.ImageCategory) (string, error) {
	b, _ := io.ReadAll(r)
	f.category, f.body = c, string(b)
	return "/uploads/" + string(c) + "/" + filename, nil
}

func testEditorConfig() config.EditorConfig {
	ed := config.Defaults().Editor
	ed.HistoryDebounceMs = -1
	ed.GridSnap = false
	ed.SmartGuides = false
	return ed
}

type fixture struct {
	s      *Session
	states *template.MemoryStore
	rec    *notify.Recorder
	events *eventLog
}

func newFixture(t *testing.T, mod func(*Options)) fixture {
	t.Helper()
	f := fixture{states: template.NewMemoryStore(), rec: &notify.Recorder{}, events: &eventLog{}}
	opts := Options{
		Editor:    testEditorConfig(),
		Templates: template.NewLibrary(f.states, f.rec),
		States:    f.states,
		Notifier:  f.rec,
		Events:    f.events.record,
	}
	if mod != nil {
		mod(&opts)
	}
	f.s = New(opts)
	t.Cleanup(f.s.Close)
	return f
}

func vittorioVeneto() domain.NavalUnit {
	return domain.NavalUnit{ID: 12, Name: "Vittorio Veneto", UnitClass: "Andrea Doria", LogoPath: "/uploads/logos/vv.png"}
}

func elementOfType(t *testing.T, s *Session, typ domain.ElementType) domain.CanvasElement {
	t.Helper()
	for _, e := range s.Elements() {
		if e.Type == typ {
			return e
		}
	}
	t.Fatalf("no %s element", typ)
	return domain.CanvasElement{}
}

func ids(els []domain.CanvasElement) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.ID
	}
	return out
}

func TestOpenSeedsDefaultLayoutFromUnit(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())

	if got := len(f.s.Elements()); got != 6 {
		t.Fatalf("elements = %d, want the 6-element default card", got)
	}
	if n := elementOfType(t, f.s, domain.ElementUnitName); n.Content != "Vittorio Veneto" {
		t.Fatalf("unit_name = %q", n.Content)
	}
	if l := elementOfType(t, f.s, domain.ElementLogo); l.Image != "/uploads/logos/vv.png" {
		t.Fatalf("logo = %q", l.Image)
	}
	if f.s.TemplateID() != template.StandardID {
		t.Fatalf("template = %q", f.s.TemplateID())
	}
	if f.s.CanUndo() || f.s.Dirty() {
		t.Fatalf("fresh session should have nothing to undo")
	}
}

func TestOpenKeepsStoredLayout(t *testing.T) {
	f := newFixture(t, nil)
	u := vittorioVeneto()
	u.LayoutConfig = &domain.LayoutConfig{
		Elements:     []domain.CanvasElement{{ID: "only", Type: domain.ElementText, Content: "x", Width: 10, Height: 10}},
		CanvasHeight: 600,
	}
	f.s.Open(context.Background(), u)
	if got := ids(f.s.Elements()); len(got) != 1 || got[0] != "only" {
		t.Fatalf("elements = %v", got)
	}
	if f.s.Snapshot().CanvasHeight != 600 {
		t.Fatalf("canvas height not taken from layout")
	}
}

func TestOpenPrefersStateOfCurrentTemplate(t *testing.T) {
	f := newFixture(t, nil)
	u := vittorioVeneto()
	u.CurrentTemplateID = template.MinimalID
	saved := domain.TemplateState{ElementStates: []domain.CanvasElement{
		{ID: "logo", Type: domain.ElementLogo, Width: 50, Height: 50, Image: "/old.png"},
	}}
	if err := f.states.SaveState(context.Background(), u.ID, template.MinimalID, saved); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	f.s.Open(context.Background(), u)
	if f.s.TemplateID() != template.MinimalID {
		t.Fatalf("template = %q", f.s.TemplateID())
	}
	els := f.s.Elements()
	if len(els) != 1 || els[0].Image != u.LogoPath {
		t.Fatalf("state not restored with unit image: %+v", els)
	}
}

func TestDeleteRefusesFixedFields(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())

	for _, id := range []string{"unit_name", "unit_class"} {
		if err := f.s.DeleteElement(id); !errors.Is(err, ErrFixedElement) {
			t.Fatalf("delete %s: err = %v", id, err)
		}
	}
	f.s.Select("flag")
	if err := f.s.DeleteElement("logo"); err != nil {
		t.Fatalf("delete logo: %v", err)
	}
	if len(f.s.Elements()) != 5 || f.s.Store().Selected() != "" {
		t.Fatalf("after delete: %v selected=%q", ids(f.s.Elements()), f.s.Store().Selected())
	}
	if err := f.s.DeleteElement("logo"); !errors.Is(err, ErrNoElement) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestAddElementUnitNameDefaults(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())

	id := f.s.AddElement(domain.ElementUnitName, nil)
	e, ok := f.s.Store().ElementByID(id)
	if !ok {
		t.Fatalf("added element missing")
	}
	if e.Content != "Nome Unità" || e.X != 50 || e.Y != 50 || e.Width != 400 || e.Height != 50 {
		t.Fatalf("element = %+v", e)
	}
	if f.s.Store().Selected() != id {
		t.Fatalf("new element not selected")
	}
	content := "Amerigo Vespucci"
	if err := f.s.UpdateElement(id, domain.ElementPatch{Content: &content}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if e, _ := f.s.Store().ElementByID(id); e.Content != content {
		t.Fatalf("content = %q", e.Content)
	}
	if !f.s.Dirty() {
		t.Fatalf("edits should mark the session dirty")
	}
}

func TestHistoryIsLinear(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	base := len(f.s.Elements())

	a := f.s.AddElement(domain.ElementText, nil)
	b := f.s.AddElement(domain.ElementText, nil)
	_ = f.s.AddElement(domain.ElementText, nil)
	if !f.s.Undo() {
		t.Fatalf("undo failed")
	}
	d := f.s.AddElement(domain.ElementText, nil)

	got := ids(f.s.Elements())[base:]
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != d {
		t.Fatalf("elements = %v, want [%s %s %s]", got, a, b, d)
	}
	if f.s.CanRedo() {
		t.Fatalf("new edit must drop the redo branch")
	}
	if f.s.History().Total != 4 {
		t.Fatalf("history entries = %d", f.s.History().Total)
	}

	if !f.s.GoTo(0) || len(f.s.Elements()) != base {
		t.Fatalf("goto 0 did not restore the opened card")
	}
	if !f.s.Redo() || len(f.s.Elements()) != base+1 {
		t.Fatalf("redo after goto = %d elements", len(f.s.Elements()))
	}
}

func TestDragGestureIsOneHistoryEntry(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	before := f.s.History().Total

	f.s.Handle(workspace.PressElement{ElementID: "logo", Client: vector.Pt{X: 30, Y: 30}})
	f.s.Handle(workspace.PointerMove{Client: vector.Pt{X: 40, Y: 50}})
	f.s.Handle(workspace.PointerMove{Client: vector.Pt{X: 60, Y: 70}})
	if f.s.History().Total != before {
		t.Fatalf("history grew during the drag")
	}
	f.s.Handle(workspace.PointerUp{})

	if got := f.s.History().Total; got != before+1 {
		t.Fatalf("history entries = %d, want %d", got, before+1)
	}
	logo := elementOfType(t, f.s, domain.ElementLogo)
	if logo.X != 50 || logo.Y != 60 {
		t.Fatalf("logo at %v,%v", logo.X, logo.Y)
	}
	f.s.Undo()
	if logo := elementOfType(t, f.s, domain.ElementLogo); logo.X != 20 || logo.Y != 20 {
		t.Fatalf("undo left logo at %v,%v", logo.X, logo.Y)
	}

	// a click without movement adds nothing
	f.s.Handle(workspace.PressElement{ElementID: "logo", Client: vector.Pt{X: 30, Y: 30}})
	f.s.Handle(workspace.PointerUp{})
	if got := f.s.History().Total; got != before+1 {
		t.Fatalf("click added history: %d", got)
	}
}

func TestApplyTemplateFormatOnlyKeepsUnitData(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())

	if err := f.s.ApplyTemplate(context.Background(), template.DetailedID, true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	logo := elementOfType(t, f.s, domain.ElementLogo)
	if logo.Width != 60 || logo.Height != 60 || logo.Image != "/uploads/logos/vv.png" {
		t.Fatalf("logo = %+v", logo)
	}
	if n := elementOfType(t, f.s, domain.ElementUnitName); n.Content != "Vittorio Veneto" {
		t.Fatalf("unit_name = %q", n.Content)
	}
	if got := f.events.names(); len(got) != 1 || got[0] != telemetry.EventTemplateApplied {
		t.Fatalf("events = %v", got)
	}
	if !f.s.Undo() {
		t.Fatalf("template apply should be undoable")
	}
	if logo := elementOfType(t, f.s, domain.ElementLogo); logo.Width != 120 {
		t.Fatalf("undo kept template geometry: %+v", logo)
	}
}

func TestApplyUnknownTemplateNotifies(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	if err := f.s.ApplyTemplate(context.Background(), "nope", false); !errors.Is(err, template.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(f.rec.Errors()) != 1 {
		t.Fatalf("errors = %v", f.rec.Errors())
	}
}

func TestSwitchTemplateRoundTripsState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.s.Open(ctx, vittorioVeneto())

	table := [][]string{{"DISLOCAMENTO", "9500 t"}}
	if err := f.s.UpdateElement("characteristics-table", domain.ElementPatch{TableData: table}); err != nil {
		t.Fatalf("update: %v", err)
	}
	standard := ids(f.s.Elements())

	if err := f.s.SwitchTemplate(ctx, template.MinimalID); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if f.s.TemplateID() != template.MinimalID {
		t.Fatalf("template = %q", f.s.TemplateID())
	}
	for _, e := range f.s.Elements() {
		if e.Locked() {
			t.Fatalf("fixed field %s carried into a template without it", e.ID)
		}
	}
	tbl := elementOfType(t, f.s, domain.ElementTable)
	if len(tbl.TableData) != 1 || tbl.TableData[0][1] != "9500 t" {
		t.Fatalf("custom table not kept: %+v", tbl.TableData)
	}
	if _, ok, _ := f.states.LoadState(ctx, 12, template.StandardID); !ok {
		t.Fatalf("state of the previous template not saved")
	}

	if err := f.s.SwitchTemplate(ctx, template.StandardID); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	got := ids(f.s.Elements())
	if len(got) != len(standard) {
		t.Fatalf("restored = %v, want %v", got, standard)
	}
	for i := range got {
		if got[i] != standard[i] {
			t.Fatalf("restored = %v, want %v", got, standard)
		}
	}
}

func TestSaveWritesEverywhereAndPrunes(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "cards.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	remote := &fakeRemote{}
	f := newFixture(t, func(o *Options) {
		o.Remote = remote
		o.Local = db
		o.KeepVersions = 2
	})
	ctx := context.Background()
	f.s.Open(ctx, vittorioVeneto())

	flag := domain.PredefinedFlags[0]
	for i := 0; i < 3; i++ {
		if i == 0 {
			if err := f.s.UpdateElement("flag", domain.ElementPatch{Image: &flag.URL}); err != nil {
				t.Fatalf("set flag: %v", err)
			}
		} else {
			f.s.MoveElement("logo", 1, 0)
		}
		if err := f.s.Save(ctx); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if f.s.Dirty() {
		t.Fatalf("save should clear dirty")
	}
	if len(remote.sent) != 3 {
		t.Fatalf("remote saves = %d", len(remote.sent))
	}
	upd := remote.sent[0]
	if upd.Nation != flag.Name || upd.Name != "Vittorio Veneto" || upd.UnitClass != "Andrea Doria" || upd.CurrentTemplateID != template.StandardID {
		t.Fatalf("update = %+v", upd)
	}
	versions, err := db.ListVersions(ctx, 12, 10)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %d, want 2 after pruning", len(versions))
	}
	u, err := db.GetUnit(ctx, 12)
	if err != nil || u.LayoutConfig == nil || u.Nation != flag.Name {
		t.Fatalf("local unit = %+v, %v", u, err)
	}
	if _, ok, _ := f.states.LoadState(ctx, 12, template.StandardID); !ok {
		t.Fatalf("template state not saved")
	}
	if len(f.rec.Messages()) == 0 {
		t.Fatalf("success not notified")
	}
}

func TestSaveRemoteFailureKeepsDirty(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Remote = &fakeRemote{err: errors.New("offline")} })
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.MoveElement("logo", 5, 5)
	if err := f.s.Save(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if !f.s.Dirty() || len(f.rec.Errors()) != 1 {
		t.Fatalf("dirty=%v errors=%v", f.s.Dirty(), f.rec.Errors())
	}
}

func TestSaveWithoutUnit(t *testing.T) {
	f := newFixture(t, nil)
	if err := f.s.Save(context.Background()); !errors.Is(err, ErrNoUnit) {
		t.Fatalf("err = %v", err)
	}
	if _, _, ok := f.s.CrashSnapshot(); ok {
		t.Fatalf("no crash snapshot without a unit")
	}
}

func TestSetElementImageUploadsByCategory(t *testing.T) {
	up := &fakeUploader{}
	f := newFixture(t, func(o *Options) { o.Uploader = up })
	f.s.Open(context.Background(), vittorioVeneto())

	if err := f.s.SetElementImage(context.Background(), "silhouette", "vv.png", bytes.NewBufferString("PNG")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if up.category != backend.CategorySilhouettes || up.body != "PNG" {
		t.Fatalf("uploaded %q to %q", up.body, up.category)
	}
	if s := elementOfType(t, f.s, domain.ElementSilhouette); s.Image != "/uploads/silhouettes/vv.png" {
		t.Fatalf("image = %q", s.Image)
	}
}

func TestCanvasSettersAndCrashSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.SetCanvasSize(800, 0)
	f.s.SetCanvasBackground("#eeeeee")
	f.s.SetCanvasBorder(2, "#ff0000")

	id, st, ok := f.s.CrashSnapshot()
	if !ok || id != 12 {
		t.Fatalf("crash snapshot = %d, %v", id, ok)
	}
	c := st.CanvasConfig
	if c.CanvasWidth != 800 || c.CanvasHeight != domain.DefaultCanvasConfig().CanvasHeight || c.CanvasBackground != "#eeeeee" || c.CanvasBorderWidth != 2 || c.CanvasBorderColor != "#ff0000" {
		t.Fatalf("config = %+v", c)
	}
	if f.s.History().Total != 4 {
		t.Fatalf("history = %d", f.s.History().Total)
	}
}

func TestSaveAsTemplate(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	tpl, err := f.s.SaveAsTemplate(context.Background(), "Mio layout", "")
	if err != nil {
		t.Fatalf("save as template: %v", err)
	}
	if len(tpl.Elements) != 6 || tpl.IsDefault {
		t.Fatalf("template = %+v", tpl)
	}
}

func TestZeroDebounceCommitsImmediately(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.Editor.HistoryDebounceMs = 0 })
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.AddElement(domain.ElementText, nil)
	if !f.s.CanUndo() || f.s.History().Total != 2 {
		t.Fatalf("history after add = %+v", f.s.History())
	}
}

func TestZOrderOnUnknownIDRecordsNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.BringToFront("missing")
	f.s.SendToBack("missing")
	if f.s.History().Total != 1 || f.s.Dirty() {
		t.Fatalf("no-op z-order changed state: total=%d dirty=%v", f.s.History().Total, f.s.Dirty())
	}
}

func TestOpenAfterCloseRecordsHistory(t *testing.T) {
	f := newFixture(t, nil)
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.Close()
	f.s.Open(context.Background(), vittorioVeneto())
	f.s.AddElement(domain.ElementText, nil)
	if !f.s.CanUndo() {
		t.Fatalf("history closed after reopening: %+v", f.s.History())
	}
}
