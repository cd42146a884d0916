/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo implements a linear undo/redo history over opaque state
// snapshots with trailing-edge debounced commits.
package undo

import (
	"sync"
	"time"
)

const (
	DefaultMaxHistorySize = 50
	DefaultDebounce       = 500 * time.Millisecond
)

// Entry is one committed snapshot.
type Entry[T any] struct {
	State       T
	Timestamp   time.Time
	Description string
}

// Options configures a History. Zero values select the defaults; set
// Debounce to a negative duration to commit every Save immediately.
type Options[T any] struct {
	MaxHistorySize int
	Debounce       time.Duration
	// Copy clones a state on the way in and out so callers never share
	// mutable data with the history. Nil stores values as given.
	Copy func(T) T
	// OnCommit runs after every commit, outside the history lock.
	OnCommit func()
	Now      func() time.Time
}

// History is a bounded, linear undo/redo stack. It is safe for concurrent
// use; debounced commits fire on a timer goroutine.
type History[T any] struct {
	mu   sync.Mutex
	opts Options[T]

	entries []Entry[T]
	index   int

	// debounce state
	pending      *Entry[T]
	timer        *time.Timer
	seq          uint64
	lastCommitAt time.Time
	closed       bool
}

// New returns a history seeded with initial as its only entry.
func New[T any](initial T, opts Options[T]) *History[T] {
	if opts.MaxHistorySize <= 0 {
		opts.MaxHistorySize = DefaultMaxHistorySize
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &History[T]{opts: opts}
	h.entries = []Entry[T]{{State: h.copy(initial), Timestamp: opts.Now(), Description: "Stato iniziale"}}
	return h
}

func (h *History[T]) copy(s T) T {
	if h.opts.Copy == nil {
		return s
	}
	return h.opts.Copy(s)
}

// Save records state. Unless force is set, calls are coalesced: each call
// restarts the debounce timer and only the last state of a burst is
// committed. A forced save commits at once and drops any pending state.
func (h *History[T]) Save(state T, description string, force bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	e := Entry[T]{State: h.copy(state), Timestamp: h.opts.Now(), Description: description}
	if force || h.opts.Debounce < 0 {
		h.cancelLocked()
		h.commitLocked(e)
		h.mu.Unlock()
		h.notify()
		return
	}
	h.pending = &e
	h.seq++
	seq := h.seq
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.opts.Debounce, func() { h.fire(seq) })
	h.mu.Unlock()
}

func (h *History[T]) fire(seq uint64) {
	h.mu.Lock()
	// A newer Save or a cancel happened after this timer was armed.
	if h.pending == nil || seq != h.seq {
		h.mu.Unlock()
		return
	}
	e := *h.pending
	h.pending, h.timer = nil, nil
	h.commitLocked(e)
	h.mu.Unlock()
	h.notify()
}

// Flush commits a pending debounced state immediately. It reports whether
// anything was pending.
func (h *History[T]) Flush() bool {
	h.mu.Lock()
	if h.pending == nil {
		h.mu.Unlock()
		return false
	}
	e := *h.pending
	h.cancelLocked()
	h.commitLocked(e)
	h.mu.Unlock()
	h.notify()
	return true
}

// CancelPending drops a pending debounced state without committing it.
func (h *History[T]) CancelPending() {
	h.mu.Lock()
	h.cancelLocked()
	h.mu.Unlock()
}

func (h *History[T]) cancelLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.pending = nil
	h.seq++
}

// commitLocked truncates the redo branch, appends e and evicts the oldest
// entry when the bound is exceeded.
func (h *History[T]) commitLocked(e Entry[T]) {
	next := make([]Entry[T], 0, h.index+2)
	next = append(next, h.entries[:h.index+1]...)
	next = append(next, e)
	h.index = len(next) - 1
	if len(next) > h.opts.MaxHistorySize {
		drop := len(next) - h.opts.MaxHistorySize
		next = next[drop:]
		h.index = max(0, h.index-drop)
	}
	h.entries = next
	h.lastCommitAt = e.Timestamp
}

func (h *History[T]) notify() {
	if h.opts.OnCommit != nil {
		h.opts.OnCommit()
	}
}

// State returns the current snapshot.
func (h *History[T]) State() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.copy(h.entries[h.index].State)
}

// Undo steps back one entry, cancelling any pending commit.
func (h *History[T]) Undo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	if h.index == 0 {
		return h.copy(h.entries[0].State), false
	}
	h.index--
	return h.copy(h.entries[h.index].State), true
}

// Redo steps forward one entry, cancelling any pending commit.
func (h *History[T]) Redo() (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	if h.index >= len(h.entries)-1 {
		return h.copy(h.entries[h.index].State), false
	}
	h.index++
	return h.copy(h.entries[h.index].State), true
}

// GoTo jumps to entry i. Out of range indices leave the history unchanged
// apart from cancelling the pending commit.
func (h *History[T]) GoTo(i int) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	if i < 0 || i >= len(h.entries) {
		return h.copy(h.entries[h.index].State), false
	}
	h.index = i
	return h.copy(h.entries[i].State), true
}

// Clear collapses the history to the current entry.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	h.entries = []Entry[T]{h.entries[h.index]}
	h.index = 0
}

// Reset discards everything and seeds the history with state. It also
// reopens a closed history.
func (h *History[T]) Reset(state T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	h.closed = false
	h.entries = []Entry[T]{{State: h.copy(state), Timestamp: h.opts.Now(), Description: "Stato iniziale"}}
	h.index = 0
}

// Close stops the debounce timer; later Saves are ignored.
func (h *History[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
	h.closed = true
}

func (h *History[T]) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

func (h *History[T]) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Pending reports whether a debounced state is waiting to be committed.
func (h *History[T]) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending != nil
}

// LastCommitAt is the timestamp of the newest committed entry.
func (h *History[T]) LastCommitAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastCommitAt
}

// ItemInfo describes one entry for a history panel.
type ItemInfo struct {
	Index       int
	Timestamp   time.Time
	Description string
	IsCurrent   bool
}

// Info summarizes the history for display.
type Info struct {
	Total   int
	Current int
	CanUndo bool
	CanRedo bool
	Items   []ItemInfo
}

func (h *History[T]) Info() Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	inf := Info{
		Total:   len(h.entries),
		Current: h.index,
		CanUndo: h.index > 0,
		CanRedo: h.index < len(h.entries)-1,
		Items:   make([]ItemInfo, len(h.entries)),
	}
	for i, e := range h.entries {
		inf.Items[i] = ItemInfo{Index: i, Timestamp: e.Timestamp, Description: e.Description, IsCurrent: i == h.index}
	}
	return inf
}
