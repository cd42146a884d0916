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
	"encoding/json"
	"errors"
	"fmt"

	"navalcards/internal/domain"
	"navalcards/internal/template"
)

// language=SQL
// dialect=SQLite
const (
	listTemplatesSQL  = `SELECT template_json FROM templates ORDER BY seq`
	selectTemplateSQL = `SELECT template_json FROM templates WHERE id = ?`
	insertTemplateSQL = `INSERT INTO templates(id, name, template_json, created_at, seq)
VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM templates))`
	updateTemplateSQL = `UPDATE templates SET name = ?, template_json = ? WHERE id = ?`
	deleteTemplateSQL = `DELETE FROM templates WHERE id = ?`

	upsertStateSQL = `INSERT INTO template_states(unit_id, template_id, state_json, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(unit_id, template_id) DO UPDATE SET state_json=excluded.state_json, updated_at=excluded.updated_at`
	selectStateSQL = `SELECT state_json FROM template_states WHERE unit_id = ? AND template_id = ?`
	listStatesSQL  = `SELECT template_id, state_json FROM template_states WHERE unit_id = ?`
)

// Templates adapts the database to template.Store and template.StateStore.
type Templates struct{ db *DB }

var (
	_ template.Store      = Templates{}
	_ template.StateStore = Templates{}
)

func (d *DB) Templates() Templates { return Templates{db: d} }

func (s Templates) List(ctx context.Context) ([]domain.Template, error) {
	rows, err := s.db.sql.QueryContext(ctx, listTemplatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.Template
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var t domain.Template
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s Templates) Get(ctx context.Context, id string) (domain.Template, error) {
	var raw string
	err := s.db.sql.QueryRowContext(ctx, selectTemplateSQL, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Template{}, template.ErrNotFound
	}
	if err != nil {
		return domain.Template{}, fmt.Errorf("load template %s: %w", id, err)
	}
	var t domain.Template
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return domain.Template{}, fmt.Errorf("decode template %s: %w", id, err)
	}
	return t, nil
}

func (s Templates) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return domain.Template{}, fmt.Errorf("encode template %s: %w", t.ID, err)
	}
	if _, err := s.db.sql.ExecContext(ctx, insertTemplateSQL, t.ID, t.Name, string(b), t.CreatedAt); err != nil {
		return domain.Template{}, fmt.Errorf("insert template %s: %w", t.ID, err)
	}
	return t, nil
}

func (s Templates) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return domain.Template{}, fmt.Errorf("encode template %s: %w", t.ID, err)
	}
	res, err := s.db.sql.ExecContext(ctx, updateTemplateSQL, t.Name, string(b), t.ID)
	if err != nil {
		return domain.Template{}, fmt.Errorf("update template %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Template{}, template.ErrNotFound
	}
	return t, nil
}

func (s Templates) Delete(ctx context.Context, id string) error {
	res, err := s.db.sql.ExecContext(ctx, deleteTemplateSQL, id)
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return template.ErrNotFound
	}
	return nil
}

func (s Templates) LoadState(ctx context.Context, unitID int64, templateID string) (domain.TemplateState, bool, error) {
	var raw string
	err := s.db.sql.QueryRowContext(ctx, selectStateSQL, unitID, templateID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TemplateState{}, false, nil
	}
	if err != nil {
		return domain.TemplateState{}, false, fmt.Errorf("load template state: %w", err)
	}
	var st domain.TemplateState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return domain.TemplateState{}, false, fmt.Errorf("decode template state: %w", err)
	}
	return st, true, nil
}

func (s Templates) SaveState(ctx context.Context, unitID int64, templateID string, st domain.TemplateState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode template state: %w", err)
	}
	if _, err := s.db.sql.ExecContext(ctx, upsertStateSQL, unitID, templateID, string(b), now()); err != nil {
		return fmt.Errorf("store template state: %w", err)
	}
	return nil
}

func (s Templates) LoadAllStates(ctx context.Context, unitID int64) (map[string]domain.TemplateState, error) {
	rows, err := s.db.sql.QueryContext(ctx, listStatesSQL, unitID)
	if err != nil {
		return nil, fmt.Errorf("list template states: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]domain.TemplateState{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var st domain.TemplateState
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("decode template state %s: %w", id, err)
		}
		out[id] = st
	}
	return out, rows.Err()
}
