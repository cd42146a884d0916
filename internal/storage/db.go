/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "navalcards/internal/log"
	"navalcards/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DBFileName is the default database file inside the data directory.
	DBFileName = "navalcards.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// DB is the local SQLite database holding cached units, their layouts and
// layout versions, user templates, template states and small key/value
// entries. It is safe for concurrent use.
type DB struct {
	sql  *sql.DB
	path string
	log  *slog.Logger
}

// Open creates or opens the database at path, enables WAL mode and brings
// the schema up to date.
func Open(path string) (*DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sdb.SetMaxOpenConns(1)
	sdb.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := sdb.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = sdb.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := sdb.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, sdb); err != nil {
		_ = sdb.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, sdb); err != nil {
		_ = sdb.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, sdb); err != nil {
		_ = sdb.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("database ready")
	return &DB{sql: sdb, path: path, log: applog.WithComponent("storage")}, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) Path() string { return d.path }

// SchemaVersion returns the schema version recorded in the database.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := d.sql.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Check runs SQLite's quick_check and reports an error unless it passes.
func (d *DB) Check(ctx context.Context) error {
	var res string
	if err := d.sql.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&res); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(res), "ok") {
		return fmt.Errorf("quick_check: %s", res)
	}
	return nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// a fresh database starts at schema 1 and is migrated forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS units (
			id         INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			unit_json  TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS layout_versions (
			id          INTEGER PRIMARY KEY,
			unit_id     INTEGER NOT NULL,
			ts          TEXT    NOT NULL,
			description TEXT    NOT NULL DEFAULT '',
			state_json  TEXT    NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS templates (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			template_json TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			seq           INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS template_states (
			unit_id     INTEGER NOT NULL,
			template_id TEXT    NOT NULL,
			state_json  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL,
			PRIMARY KEY(unit_id, template_id)
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// written by a newer build; leave it alone
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_layout_versions_unit_ts ON layout_versions(unit_id, ts);`,
				`CREATE INDEX IF NOT EXISTS idx_templates_seq ON templates(seq);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
