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
	"log/slog"

	"navalcards/internal/domain"
)

// ErrUnitNotFound is returned when no cached unit has the requested id.
var ErrUnitNotFound = errors.New("unit not found")

// language=SQL
// dialect=SQLite
const upsertUnitSQL = `INSERT INTO units(id, name, unit_json, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, unit_json=excluded.unit_json, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const selectUnitSQL = `SELECT unit_json FROM units WHERE id = ?`

// language=SQL
// dialect=SQLite
const listUnitsSQL = `SELECT unit_json FROM units ORDER BY name, id`

// PutUnit caches u, replacing any previous copy.
func (d *DB) PutUnit(ctx context.Context, u domain.NavalUnit) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode unit %d: %w", u.ID, err)
	}
	if _, err := d.sql.ExecContext(ctx, upsertUnitSQL, u.ID, u.Name, string(b), now()); err != nil {
		return fmt.Errorf("store unit %d: %w", u.ID, err)
	}
	return nil
}

// GetUnit returns the cached unit with the given id.
func (d *DB) GetUnit(ctx context.Context, id int64) (domain.NavalUnit, error) {
	var raw string
	err := d.sql.QueryRowContext(ctx, selectUnitSQL, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NavalUnit{}, ErrUnitNotFound
	}
	if err != nil {
		return domain.NavalUnit{}, fmt.Errorf("load unit %d: %w", id, err)
	}
	var u domain.NavalUnit
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return domain.NavalUnit{}, fmt.Errorf("decode unit %d: %w", id, err)
	}
	return u, nil
}

// ListUnits returns every cached unit ordered by name.
func (d *DB) ListUnits(ctx context.Context) ([]domain.NavalUnit, error) {
	rows, err := d.sql.QueryContext(ctx, listUnitsSQL)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.NavalUnit
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var u domain.NavalUnit
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			d.log.Warn("skip undecodable unit row", slog.Any("err", err))
			continue
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SaveLayout stores state as the layout of unit id and records it as a new
// layout version in the same transaction.
func (d *DB) SaveLayout(ctx context.Context, id int64, state domain.CanvasState, description string) error {
	u, err := d.GetUnit(ctx, id)
	if err != nil {
		return err
	}
	lc := domain.LayoutFromState(state)
	u.LayoutConfig = &lc
	ub, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode unit %d: %w", id, err)
	}
	sb, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode layout %d: %w", id, err)
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save layout: %w", err)
	}
	ts := now()
	if _, err := tx.ExecContext(ctx, upsertUnitSQL, u.ID, u.Name, string(ub), ts); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("store layout %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, insertVersionSQL, id, ts, description, string(sb)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record layout version %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save layout: %w", err)
	}
	d.log.Info("layout saved", slog.Int64("unit", id), slog.Int("elements", len(state.Elements)))
	return nil
}
