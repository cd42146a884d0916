/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify delivers short user-facing messages (toasts in a UI, lines
// on stderr in the CLI).
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	applog "navalcards/internal/log"
)

// Notifier shows a success or error message to the user.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Log writes notifications to the application log only.
type Log struct{}

func (Log) Success(msg string) { applog.WithComponent("notify").Info(msg) }
func (Log) Error(msg string)   { applog.WithComponent("notify").Warn(msg) }

// Writer prints notifications to w and logs them.
type Writer struct {
	W  io.Writer
	mu sync.Mutex
}

func (n *Writer) Success(msg string) { n.write("ok", msg, slog.LevelInfo) }
func (n *Writer) Error(msg string)   { n.write("errore", msg, slog.LevelWarn) }

func (n *Writer) write(tag, msg string, lvl slog.Level) {
	n.mu.Lock()
	_, _ = fmt.Fprintf(n.W, "%s: %s\n", tag, msg)
	n.mu.Unlock()
	applog.WithComponent("notify").Log(context.Background(), lvl, msg)
}

// Message is one recorded notification.
type Message struct {
	Error bool
	Text  string
}

// Recorder keeps notifications in memory. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Success(msg string) { r.add(Message{Text: msg}) }
func (r *Recorder) Error(msg string)   { r.add(Message{Error: true, Text: msg}) }

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Errors returns the text of recorded error notifications.
func (r *Recorder) Errors() []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Error {
			out = append(out, m.Text)
		}
	}
	return out
}

// OrLog returns n, or Log when n is nil.
func OrLog(n Notifier) Notifier {
	if n == nil {
		return Log{}
	}
	return n
}
