/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"strings"
	"testing"

	"navalcards/internal/domain"
)

type fixedSource struct {
	id    int64
	state domain.CanvasState
	ok    bool
}

func (f fixedSource) CrashSnapshot() (int64, domain.CanvasState, bool) { return f.id, f.state, f.ok }

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(Options{}, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Naval Cards Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportNamesUnitInDir(t *testing.T) {
	dir := t.TempDir()
	src := fixedSource{id: 7, ok: true, state: domain.CanvasState{Elements: []domain.CanvasElement{{ID: "a"}, {ID: "b"}}}}
	path, err := writeReport(Options{Dir: dir, Source: src}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Fatalf("report outside dir: %s", path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Unit: 7") || !strings.Contains(string(b), "Elements: 2") {
		t.Fatalf("report lacks unit summary: %s", b)
	}
}

func TestAutosaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := domain.CanvasState{
		Elements:     []domain.CanvasElement{{ID: "el", Type: domain.ElementText, Content: "Testo", Width: 10, Height: 5}},
		CanvasConfig: domain.DefaultCanvasConfig(),
	}
	if _, ok, err := autosave(Options{Dir: dir, Source: fixedSource{id: 3, state: st, ok: true}}); err != nil || !ok {
		t.Fatalf("autosave = %v, %v", ok, err)
	}
	got, ok, err := LoadAutosave(dir, 3)
	if err != nil || !ok {
		t.Fatalf("LoadAutosave = %v, %v", ok, err)
	}
	if len(got.Elements) != 1 || got.Elements[0].Content != "Testo" || got.CanvasWidth != st.CanvasWidth {
		t.Fatalf("autosave content = %+v", got)
	}
	if _, ok, _ := LoadAutosave(dir, 4); ok {
		t.Fatalf("unexpected autosave for other unit")
	}
}

func TestAutosaveSkipsWithoutLiveState(t *testing.T) {
	dir := t.TempDir()
	if _, ok, err := autosave(Options{Dir: dir, Source: fixedSource{}}); ok || err != nil {
		t.Fatalf("autosave without state = %v, %v", ok, err)
	}
	if _, ok, err := autosave(Options{Dir: dir}); ok || err != nil {
		t.Fatalf("autosave without source = %v, %v", ok, err)
	}
}
