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
	"time"

	"navalcards/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertVersionSQL = `INSERT INTO layout_versions(unit_id, ts, description, state_json) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestVersionSQL = `SELECT id, ts, description, state_json FROM layout_versions WHERE unit_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listVersionsSQL = `SELECT id, ts, description, state_json FROM layout_versions WHERE unit_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectVersionSQL = `SELECT id, ts, description, state_json FROM layout_versions WHERE unit_id = ? AND id = ?`

// language=SQL
// dialect=SQLite
const pruneVersionsSQL = `DELETE FROM layout_versions WHERE unit_id = ? AND id NOT IN (
	SELECT id FROM layout_versions WHERE unit_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// ErrVersionNotFound is returned when a layout version does not exist.
var ErrVersionNotFound = errors.New("layout version not found")

// LayoutVersion is one saved layout of a unit.
type LayoutVersion struct {
	ID          int64
	UnitID      int64
	TS          time.Time
	Description string
	State       domain.CanvasState
}

// RecordVersion appends a layout version for unit id.
func (d *DB) RecordVersion(ctx context.Context, id int64, state domain.CanvasState, description string, ts time.Time) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode layout %d: %w", id, err)
	}
	_, err = d.sql.ExecContext(ctx, insertVersionSQL, id, ts.UTC().Format(time.RFC3339Nano), description, string(b))
	return err
}

// LatestVersion returns the newest version of unit id; ok is false when none exists.
func (d *DB) LatestVersion(ctx context.Context, id int64) (LayoutVersion, bool, error) {
	v, err := scanVersion(id, d.sql.QueryRowContext(ctx, selectLatestVersionSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return LayoutVersion{}, false, nil
	}
	if err != nil {
		return LayoutVersion{}, false, err
	}
	return v, true, nil
}

// Version returns one version of unit id by its row id.
func (d *DB) Version(ctx context.Context, id, versionID int64) (LayoutVersion, error) {
	v, err := scanVersion(id, d.sql.QueryRowContext(ctx, selectVersionSQL, id, versionID))
	if errors.Is(err, sql.ErrNoRows) {
		return LayoutVersion{}, fmt.Errorf("layout version %d of unit %d: %w", versionID, id, ErrVersionNotFound)
	}
	return v, err
}

// ListVersions returns up to limit most recent versions of unit id, newest first.
func (d *DB) ListVersions(ctx context.Context, id int64, limit int) ([]LayoutVersion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, listVersionsSQL, id, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []LayoutVersion
	for rows.Next() {
		v, err := scanVersion(id, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PruneVersions keeps at most keepLast versions of unit id and deletes older ones.
func (d *DB) PruneVersions(ctx context.Context, id int64, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := d.sql.ExecContext(ctx, pruneVersionsSQL, id, id, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(unitID int64, r rowScanner) (LayoutVersion, error) {
	var (
		v     LayoutVersion
		tsStr string
		raw   string
	)
	if err := r.Scan(&v.ID, &tsStr, &v.Description, &raw); err != nil {
		return LayoutVersion{}, err
	}
	v.UnitID = unitID
	// an unparsable timestamp still yields the state
	v.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	if err := json.Unmarshal([]byte(raw), &v.State); err != nil {
		return LayoutVersion{}, fmt.Errorf("decode layout version %d: %w", v.ID, err)
	}
	return v, nil
}
