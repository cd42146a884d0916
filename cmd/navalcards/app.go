/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"navalcards/internal/backend"
	"navalcards/internal/config"
	"navalcards/internal/domain"
	"navalcards/internal/editor"
	"navalcards/internal/export"
	applog "navalcards/internal/log"
	"navalcards/internal/notify"
	"navalcards/internal/storage"
	"navalcards/internal/telemetry"
	"navalcards/internal/template"
	"navalcards/internal/textlayout"
)

// app holds the configuration and the lazily opened collaborators of one
// CLI invocation.
type app struct {
	ctx    context.Context
	cfg    config.AppConfig
	token  string
	out    io.Writer
	errw   io.Writer
	notify notify.Notifier
	log    *slog.Logger

	dataDir string
	db      *storage.DB
	pg      *backend.PGStore
	client  *backend.Client
	tel     *telemetry.Client
	live    *editor.Session
}

func newApp(ctx context.Context, stdout, stderr io.Writer) (*app, error) {
	cfg, tok, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir, err := config.DataDir()
	if err != nil {
		return nil, err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   stderr,
	})
	return &app{
		ctx:     ctx,
		cfg:     cfg,
		token:   tok,
		out:     stdout,
		errw:    stderr,
		notify:  &notify.Writer{W: stderr},
		log:     applog.WithComponent("cli"),
		dataDir: dir,
	}, nil
}

// CrashSnapshot lets crash.Recover autosave the card being edited.
func (a *app) CrashSnapshot() (int64, domain.CanvasState, bool) {
	if a == nil || a.live == nil {
		return 0, domain.CanvasState{}, false
	}
	return a.live.CrashSnapshot()
}

func (a *app) crashDir() string { return filepath.Join(a.dataDir, "crash") }

// local opens the SQLite store on first use.
func (a *app) local() (*storage.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	path := a.cfg.Storage.SQLitePath
	if path == "" {
		path = filepath.Join(a.dataDir, "navalcards.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) remote() *backend.Client {
	if a.client == nil {
		a.client = backend.NewClient(a.cfg.Backend.BaseURL, a.token, a.cfg.Backend.Timeout())
	}
	return a.client
}

// templateStores picks the Postgres store when a DSN is configured, the
// backend when storage.templates is "remote" and the local database otherwise.
func (a *app) templateStores() (template.Store, template.StateStore, error) {
	if dsn := a.cfg.Storage.PostgresDSN; dsn != "" {
		if a.pg == nil {
			pg, err := backend.OpenPG(a.ctx, dsn)
			if err != nil {
				return nil, nil, err
			}
			a.pg = pg
		}
		return a.pg, a.pg, nil
	}
	if a.cfg.Storage.Templates == config.TemplatesRemote {
		t := a.remote().Templates()
		return t, t, nil
	}
	db, err := a.local()
	if err != nil {
		return nil, nil, err
	}
	t := db.Templates()
	return t, t, nil
}

func (a *app) library() (*template.Library, error) {
	store, _, err := a.templateStores()
	if err != nil {
		return nil, err
	}
	return template.NewLibrary(store, a.notify), nil
}

// session builds an editor session writing to the local store and, with
// push set, to the backend.
func (a *app) session(push bool) (*editor.Session, error) {
	db, err := a.local()
	if err != nil {
		return nil, err
	}
	lib, err := a.library()
	if err != nil {
		return nil, err
	}
	_, states, err := a.templateStores()
	if err != nil {
		return nil, err
	}
	opts := editor.Options{
		Editor:       a.cfg.Editor,
		KeepVersions: a.cfg.Storage.KeepVersions,
		Local:        db,
		Templates:    lib,
		States:       states,
		Notifier:     a.notify,
		Events:       a.event,
	}
	if push {
		opts.Remote = a.remote()
		opts.Uploader = backend.NewUploader(a.remote(), a.notify)
	}
	a.live = editor.New(opts)
	return a.live, nil
}

func (a *app) fonts() textlayout.Provider {
	lib := textlayout.NewFontLibrary()
	if dir := a.cfg.Export.FontDir; dir != "" {
		if n, err := lib.LoadDir(dir); err != nil {
			a.log.Warn("font dir not loaded", slog.String("dir", dir), slog.Any("err", err))
		} else {
			a.log.Debug("fonts loaded", slog.Int("count", n))
		}
	}
	return textlayout.OTProvider{Lib: lib}
}

func (a *app) images() export.ImageSource {
	return export.NewResolver(a.cfg.Export.UploadsDir, a.cfg.Backend.BaseURL)
}

// telemetry starts the event client. The local database holds the offline
// queue when it can be opened.
func (a *app) startTelemetry() {
	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || a.cfg.General.TelemetryOptIn
	if tc.OptIn {
		if db, err := a.local(); err == nil {
			tc.Spool = db
		}
	}
	a.tel = telemetry.NewDefault(tc)
	if n, err := a.tel.Replay(a.ctx); err != nil {
		a.log.Debug("telemetry replay incomplete", slog.Int("sent", n), slog.Any("err", err))
	}
}

func (a *app) event(name string, props map[string]any) {
	if a.tel != nil {
		a.tel.Event(name, props)
	}
}

func (a *app) close() {
	if a.live != nil {
		a.live.Close()
	}
	if a.tel != nil {
		a.tel.Flush(a.ctx)
		a.tel.Close()
	}
	var errs []error
	if a.pg != nil {
		errs = append(errs, a.pg.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("close failed", slog.Any("err", err))
	}
	_ = applog.Close()
}

func (a *app) printf(format string, args ...any) { _, _ = fmt.Fprintf(a.out, format, args...) }
