/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navalcards.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", File: path, Console: &console})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("editor"), "save")
	l.InfoContext(ContextWithUnit(context.Background(), 42), "layout saved", slog.Int("elements", 6))
	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", last, err)
	}
	if m["app"] != "navalcards" || m["component"] != "editor" || m["op"] != "save" {
		t.Fatalf("static attrs missing: %v", m)
	}
	if m["unit"] != float64(42) {
		t.Fatalf("unit attr = %v, want 42", m["unit"])
	}
	if !strings.Contains(console.String(), "layout saved") {
		t.Fatalf("console sink missed record: %q", console.String())
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("NAVALCARDS_LOG_LEVEL", "warn")
	t.Setenv("NAVALCARDS_LOG_FORMAT", "json")
	t.Setenv("NAVALCARDS_LOG_SOURCE", "TRUE")
	t.Setenv("NAVALCARDS_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
}

func TestConsoleHandlerFormatting(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn")
	}

	var sh slog.Handler = h.WithAttrs([]slog.Attr{slog.String("component", "snap")})
	sh = sh.WithGroup("move")
	r := slog.NewRecord(time.Now(), slog.LevelError, "clamp failed", 0)
	r.AddAttrs(slog.Float64("x", 12.5), slog.String("id", "element 1"))
	if err := sh.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR clamp failed", "component=snap", "move.x=12.5", `move.id="element 1"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
