/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
)

// DictionaryKey is the key the dictionary is stored under.
const DictionaryKey = "naval_elements_dictionary"

// KV is the persistence the dictionary needs. storage.DB implements it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// MemoryKV is a KV kept in memory.
type MemoryKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return append([]byte(nil), v...), ok, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.m == nil {
		m.m = map[string][]byte{}
	}
	m.m[key] = append([]byte(nil), value...)
	return nil
}

// Dictionary counts how often each identification element is used.
type Dictionary struct {
	kv  KV
	log *slog.Logger
}

func NewDictionary(kv KV) *Dictionary {
	return &Dictionary{kv: kv, log: applog.WithComponent("autocomplete")}
}

// Load returns the stored dictionary. A missing or unreadable entry yields
// an empty dictionary; read errors are logged.
func (d *Dictionary) Load(ctx context.Context) map[string]int {
	dict := map[string]int{}
	raw, ok, err := d.kv.Get(ctx, DictionaryKey)
	if err != nil {
		d.log.Warn("read dictionary failed", slog.Any("err", err))
		return dict
	}
	if !ok {
		return dict
	}
	if err := json.Unmarshal(raw, &dict); err != nil {
		d.log.Warn("decode dictionary failed", slog.Any("err", err))
		return map[string]int{}
	}
	return dict
}

func (d *Dictionary) save(ctx context.Context, dict map[string]int) error {
	b, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("encode dictionary: %w", err)
	}
	if err := d.kv.Put(ctx, DictionaryKey, b); err != nil {
		d.log.Error("save dictionary failed", slog.Any("err", err))
		return err
	}
	return nil
}

// Add increments the count of element. Blank elements are ignored.
func (d *Dictionary) Add(ctx context.Context, element string) error {
	el := strings.TrimSpace(element)
	if el == "" {
		return nil
	}
	dict := d.Load(ctx)
	dict[el]++
	return d.save(ctx, dict)
}

// Suggest ranks the stored dictionary against input.
func (d *Dictionary) Suggest(ctx context.Context, input string, limit int) []Suggestion {
	return Rank(d.Load(ctx), input, limit)
}

// Rebuild replaces the dictionary with the identification elements found in
// the notes of units.
func (d *Dictionary) Rebuild(ctx context.Context, units []domain.NavalUnit) (int, error) {
	dict := map[string]int{}
	for _, u := range units {
		if u.Notes == "" {
			continue
		}
		for _, it := range ParseNotes(u.Notes).Identification {
			if el := strings.TrimSpace(it.Element); el != "" {
				dict[el]++
			}
		}
	}
	if err := d.save(ctx, dict); err != nil {
		return 0, err
	}
	d.log.Info("dictionary rebuilt", slog.Int("units", len(units)), slog.Int("elements", len(dict)))
	return len(dict), nil
}
