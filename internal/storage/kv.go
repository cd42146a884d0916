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
)

// language=SQL
// dialect=SQLite
const (
	selectKVSQL = `SELECT value FROM kv WHERE key = ?`
	upsertKVSQL = `INSERT INTO kv(key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`
)

// Get returns the value stored under key; ok is false when the key is absent.
func (d *DB) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := d.sql.QueryRowContext(ctx, selectKVSQL, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, true, nil
}

// Put stores value under key.
func (d *DB) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := d.sql.ExecContext(ctx, upsertKVSQL, key, value, now()); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}
