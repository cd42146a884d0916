/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
	"navalcards/internal/template"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// language=SQL
// dialect=PostgreSQL
const (
	pgListTemplatesSQL  = `SELECT body FROM templates ORDER BY seq`
	pgSelectTemplateSQL = `SELECT body FROM templates WHERE id = $1`
	pgInsertTemplateSQL = `INSERT INTO templates(id, name, body) VALUES ($1, $2, $3)`
	pgUpdateTemplateSQL = `UPDATE templates SET name = $2, body = $3, updated_at = now() WHERE id = $1`
	pgDeleteTemplateSQL = `DELETE FROM templates WHERE id = $1`

	pgUpsertStateSQL = `INSERT INTO template_states(unit_id, template_id, state) VALUES ($1, $2, $3)
ON CONFLICT (unit_id, template_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`
	pgSelectStateSQL = `SELECT state FROM template_states WHERE unit_id = $1 AND template_id = $2`
	pgListStatesSQL  = `SELECT template_id, state FROM template_states WHERE unit_id = $1`
)

// PGStore keeps templates and template states in Postgres. It implements
// template.Store and template.StateStore.
type PGStore struct {
	db  *sql.DB
	log *slog.Logger
}

var (
	_ template.Store      = (*PGStore)(nil)
	_ template.StateStore = (*PGStore)(nil)
)

// OpenPG connects to dsn, pings it and applies pending migrations.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &PGStore{db: db, log: applog.WithComponent("pgstore")}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

// applyMigrations applies embedded SQL migrations in filename order.
func (s *PGStore) applyMigrations(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		s.log.Info("applying migration", slog.String("file", fname))
		if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (s *PGStore) List(ctx context.Context) ([]domain.Template, error) {
	rows, err := s.db.QueryContext(ctx, pgListTemplatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Template
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var t domain.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PGStore) Get(ctx context.Context, id string) (domain.Template, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, pgSelectTemplateSQL, id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Template{}, template.ErrNotFound
	case err != nil:
		return domain.Template{}, fmt.Errorf("load template %s: %w", id, err)
	}
	var t domain.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.Template{}, fmt.Errorf("decode template %s: %w", id, err)
	}
	return t, nil
}

func (s *PGStore) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return domain.Template{}, err
	}
	if _, err := s.db.ExecContext(ctx, pgInsertTemplateSQL, t.ID, t.Name, b); err != nil {
		return domain.Template{}, fmt.Errorf("insert template %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *PGStore) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return domain.Template{}, err
	}
	res, err := s.db.ExecContext(ctx, pgUpdateTemplateSQL, t.ID, t.Name, b)
	if err != nil {
		return domain.Template{}, fmt.Errorf("update template %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Template{}, template.ErrNotFound
	}
	return t, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, pgDeleteTemplateSQL, id)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}

func (s *PGStore) LoadState(ctx context.Context, unitID int64, templateID string) (domain.TemplateState, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, pgSelectStateSQL, unitID, templateID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.TemplateState{}, false, nil
	case err != nil:
		return domain.TemplateState{}, false, fmt.Errorf("load template state: %w", err)
	}
	var st domain.TemplateState
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.TemplateState{}, false, fmt.Errorf("decode template state: %w", err)
	}
	return st, true, nil
}

func (s *PGStore) SaveState(ctx context.Context, unitID int64, templateID string, st domain.TemplateState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, pgUpsertStateSQL, unitID, templateID, b); err != nil {
		return fmt.Errorf("store template state: %w", err)
	}
	return nil
}

func (s *PGStore) LoadAllStates(ctx context.Context, unitID int64) (map[string]domain.TemplateState, error) {
	rows, err := s.db.QueryContext(ctx, pgListStatesSQL, unitID)
	if err != nil {
		return nil, fmt.Errorf("list template states: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.TemplateState{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var st domain.TemplateState
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("decode template state %s: %w", id, err)
		}
		out[id] = st
	}
	return out, rows.Err()
}
