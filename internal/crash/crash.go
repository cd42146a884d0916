/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus an autosave of the
// card being edited.
package crash

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
	"navalcards/internal/storage"
	"navalcards/internal/telemetry"
	"navalcards/internal/version"
)

// exitFn is replaced in tests so Recover does not end the process.
var exitFn = os.Exit

// StateSource exposes the live editor state. editor.Session implements it.
type StateSource interface {
	CrashSnapshot() (unitID int64, state domain.CanvasState, ok bool)
}

// Options says where reports go and what to autosave. Dir defaults to the
// OS temp directory; Source may be nil.
type Options struct {
	Dir    string
	Source StateSource
}

// Recover captures a panic, logs it with the stack, writes a crash report
// and an autosave of the live canvas, then exits with status 2.
//
// Usage: defer crash.Recover(opts)
func Recover(opts Options) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(opts, r, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	if path, ok, err := autosave(opts); err != nil {
		l.Error("autosave crash snapshot failed", slog.Any("err", err))
	} else if ok {
		l.Info("autosave crash snapshot written", slog.String("path", path))
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func dirOf(opts Options) string {
	if opts.Dir == "" {
		return os.TempDir()
	}
	_ = os.MkdirAll(opts.Dir, 0o755)
	return opts.Dir
}

func writeReport(opts Options, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dirOf(opts), fmt.Sprintf("crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Naval Cards Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if opts.Source != nil {
		if id, st, ok := opts.Source.CrashSnapshot(); ok {
			_, _ = fmt.Fprintf(&buf, "Unit: %d\n", id)
			_, _ = fmt.Fprintf(&buf, "Elements: %d\n", len(st.Elements))
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := storage.WriteFileAtomic(path, buf.Bytes(), false); err != nil {
		return path, err
	}
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}

// AutosaveName is the file name of the autosave for unitID.
func AutosaveName(unitID int64) string { return fmt.Sprintf("autosave-unit-%d.json", unitID) }

func autosave(opts Options) (string, bool, error) {
	if opts.Source == nil {
		return "", false, nil
	}
	id, st, ok := opts.Source.CrashSnapshot()
	if !ok {
		return "", false, nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(dirOf(opts), AutosaveName(id))
	if err := storage.WriteFileAtomic(path, b, true); err != nil {
		return path, false, err
	}
	return path, true, nil
}

// LoadAutosave reads the autosave for unitID from dir; ok is false when none exists.
func LoadAutosave(dir string, unitID int64) (domain.CanvasState, bool, error) {
	b, err := os.ReadFile(filepath.Join(dir, AutosaveName(unitID)))
	if os.IsNotExist(err) {
		return domain.CanvasState{}, false, nil
	}
	if err != nil {
		return domain.CanvasState{}, false, err
	}
	var st domain.CanvasState
	if err := json.Unmarshal(b, &st); err != nil {
		return domain.CanvasState{}, false, fmt.Errorf("decode autosave: %w", err)
	}
	return st, true, nil
}
