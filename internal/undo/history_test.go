/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func states(h *History[string]) []string {
	inf := h.Info()
	out := make([]string, 0, inf.Total)
	cur := inf.Current
	for i := 0; i < inf.Total; i++ {
		s, _ := h.GoTo(i)
		out = append(out, s)
	}
	h.GoTo(cur)
	return out
}

func TestBranchTruncation(t *testing.T) {
	h := New("A", Options[string]{})
	h.Save("B", "b", true)
	h.Save("C", "c", true)
	if s, ok := h.Undo(); !ok || s != "B" {
		t.Fatalf("undo = %q %v, want B", s, ok)
	}
	h.Save("D", "d", true)

	if got := fmt.Sprint(states(h)); got != "[A B D]" {
		t.Fatalf("history = %s, want [A B D]", got)
	}
	if h.CanRedo() {
		t.Fatalf("redo must be impossible after a new save")
	}
	if h.State() != "D" || !h.CanUndo() {
		t.Fatalf("current = %q", h.State())
	}
}

func TestLinearityCounts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for k := 0; k <= n; k++ {
			h := New(0, Options[int]{})
			for i := 1; i <= n; i++ {
				h.Save(i, "", true)
			}
			for i := 0; i < k; i++ {
				h.Undo()
			}
			h.Save(100, "", true)
			if h.CanRedo() {
				t.Fatalf("n=%d k=%d: canRedo after save", n, k)
			}
			if got, want := h.Info().Total, (n-k+1)+1; got != want {
				t.Fatalf("n=%d k=%d: length %d, want %d", n, k, got, want)
			}
		}
	}
}

func TestMaxHistorySizeEvictsOldest(t *testing.T) {
	h := New(0, Options[int]{MaxHistorySize: 3})
	for i := 1; i <= 5; i++ {
		h.Save(i, "", true)
	}
	inf := h.Info()
	if inf.Total != 3 || inf.Current != 2 || h.State() != 5 {
		t.Fatalf("info = %+v state=%d", inf, h.State())
	}
	h.Undo()
	h.Undo()
	if s, ok := h.Undo(); ok || s != 3 {
		t.Fatalf("oldest kept entry should be 3, got %d %v", s, ok)
	}
}

func TestDebounceCommitsOnlyLastOfBurst(t *testing.T) {
	var commits atomic.Int32
	h := New("A", Options[string]{Debounce: 20 * time.Millisecond, OnCommit: func() { commits.Add(1) }})
	h.Save("x1", "move", false)
	h.Save("x2", "move", false)
	h.Save("x3", "move", false)
	if h.Info().Total != 1 || !h.Pending() {
		t.Fatalf("debounced saves committed early")
	}

	deadline := time.Now().Add(2 * time.Second)
	for commits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := fmt.Sprint(states(h)); got != "[A x3]" {
		t.Fatalf("history = %s, want [A x3]", got)
	}
	if commits.Load() != 1 {
		t.Fatalf("OnCommit ran %d times", commits.Load())
	}
}

func TestUndoCancelsPendingCommit(t *testing.T) {
	h := New("A", Options[string]{Debounce: time.Hour})
	h.Save("B", "", true)
	h.Save("stale", "", false)
	h.Undo()
	if h.Pending() {
		t.Fatalf("undo should cancel the pending commit")
	}
	if h.Flush() {
		t.Fatalf("nothing should be left to flush")
	}
	if got := fmt.Sprint(states(h)); got != "[A B]" {
		t.Fatalf("history = %s", got)
	}
}

func TestFlushAndForcedSaveDropPending(t *testing.T) {
	h := New("A", Options[string]{Debounce: time.Hour})
	h.Save("B", "", false)
	if !h.Flush() || h.State() != "B" {
		t.Fatalf("flush should commit B, state=%q", h.State())
	}
	h.Save("C", "", false)
	h.Save("D", "", true)
	if h.Pending() || h.State() != "D" || h.Info().Total != 3 {
		t.Fatalf("forced save must replace the pending state: %+v", h.Info())
	}
}

func TestGoToAndClear(t *testing.T) {
	h := New("A", Options[string]{})
	h.Save("B", "b", true)
	h.Save("C", "c", true)
	if _, ok := h.GoTo(7); ok {
		t.Fatalf("out of range GoTo accepted")
	}
	if s, ok := h.GoTo(1); !ok || s != "B" {
		t.Fatalf("GoTo(1) = %q %v", s, ok)
	}
	inf := h.Info()
	if !inf.Items[1].IsCurrent || inf.Items[2].Description != "c" || !inf.CanRedo {
		t.Fatalf("info = %+v", inf)
	}
	h.Clear()
	inf = h.Info()
	if inf.Total != 1 || h.State() != "B" || inf.CanUndo || inf.CanRedo {
		t.Fatalf("clear = %+v state %q", inf, h.State())
	}
}

func TestCopyIsolatesSnapshots(t *testing.T) {
	cp := func(s []int) []int { return append([]int(nil), s...) }
	live := []int{1, 2}
	h := New(live, Options[[]int]{Copy: cp})
	live[0] = 99
	if h.State()[0] != 1 {
		t.Fatalf("history aliases the seed")
	}
	got := h.State()
	got[1] = 42
	if h.State()[1] != 2 {
		t.Fatalf("history hands out its own storage")
	}
}

func TestCloseIgnoresLaterSaves(t *testing.T) {
	h := New("A", Options[string]{Debounce: time.Hour})
	h.Save("B", "", false)
	h.Close()
	h.Save("C", "", true)
	if h.Pending() || h.Info().Total != 1 {
		t.Fatalf("closed history changed: %+v", h.Info())
	}
}

func TestResetReopensClosedHistory(t *testing.T) {
	h := New("A", Options[string]{Debounce: -1})
	h.Close()
	h.Reset("B")
	h.Save("C", "", false)
	if inf := h.Info(); inf.Total != 2 || !inf.CanUndo {
		t.Fatalf("history after reset = %+v", inf)
	}
}
