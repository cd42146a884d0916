/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log owns the process-wide slog logger. Console output is a compact
// single-line format; an optional JSON file sink is rotated with lumberjack.
// Records carrying a unit id in their context get a "unit" attribute.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"navalcards/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. FromEnv reads:
//   - NAVALCARDS_LOG_LEVEL=debug|info|warn|error
//   - NAVALCARDS_LOG_FORMAT=console|json
//   - NAVALCARDS_LOG_FILE=<path> (rotated JSON file)
//   - NAVALCARDS_LOG_SOURCE=true|false
type Options struct {
	Level      string
	Format     string // "console" or "json"
	AddSource  bool
	File       string
	MaxSizeMB  int // rotation threshold, default 10
	MaxBackups int // default 3

	// Console replaces stderr; used by tests.
	Console io.Writer
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	closer  io.Closer
)

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init replaces the application logger and slog.Default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var sinks []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		sinks = append(sinks, slog.NewJSONHandler(console, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	} else {
		sinks = append(sinks, newConsoleHandler(console, lvl, opts.AddSource))
	}

	var rot *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		rot = &lj.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     28,
			Compress:   true,
		}
		sinks = append(sinks, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}
	logger := slog.New(unitContext{next: h}).With(
		slog.String("app", "navalcards"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}
	if rot != nil {
		closer = rot
	}
	current = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// Close flushes and releases the rotating file sink, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

// FromEnv builds Options from NAVALCARDS_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv("NAVALCARDS_LOG_LEVEL", "info"),
		Format:    getenv("NAVALCARDS_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(getenv("NAVALCARDS_LOG_SOURCE", "false"), "true"),
		File:      os.Getenv("NAVALCARDS_LOG_FILE"),
	}
}

// WithComponent returns a logger tagged with component=name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with op=name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type unitKey struct{}

// ContextWithUnit stores a naval unit id so log records emitted with ctx carry it.
func ContextWithUnit(ctx context.Context, unitID int64) context.Context {
	return context.WithValue(ctx, unitKey{}, unitID)
}

// UnitFromContext returns the unit id stored by ContextWithUnit.
func UnitFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(unitKey{}).(int64)
	return id, ok
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// unitContext copies the unit id from the record context into the record.
type unitContext struct{ next slog.Handler }

func (u unitContext) Enabled(ctx context.Context, l slog.Level) bool { return u.next.Enabled(ctx, l) }

func (u unitContext) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := UnitFromContext(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.Int64("unit", id))
	}
	return u.next.Handle(ctx, r)
}

func (u unitContext) WithAttrs(attrs []slog.Attr) slog.Handler {
	return unitContext{next: u.next.WithAttrs(attrs)}
}

func (u unitContext) WithGroup(name string) slog.Handler {
	return unitContext{next: u.next.WithGroup(name)}
}

// fanout sends each record to every sink that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
