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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"navalcards/internal/domain"
	"navalcards/internal/template"
)

func openPGForTest(t *testing.T) *PGStore {
	t.Helper()
	dsn := os.Getenv("NAVALCARDS_PG_DSN")
	if dsn == "" {
		t.Skip("NAVALCARDS_PG_DSN not set; skipping Postgres test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := OpenPG(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("migrations/0002_template_states_index.sql")
	if err != nil || v != 2 {
		t.Fatalf("v=%d err=%v", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for name without version prefix")
	}
}

func TestPGStoreRoundTrip(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()
	id := "pg-" + uuid.NewString()
	t.Cleanup(func() { _ = s.Delete(context.Background(), id) })

	if _, err := s.Create(ctx, domain.Template{ID: id, Name: "PG", Elements: []domain.CanvasElement{{ID: "e", Type: domain.ElementText}}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil || got.Name != "PG" || len(got.Elements) != 1 {
		t.Fatalf("get = %+v, %v", got, err)
	}
	got.Name = "PG2"
	if _, err := s.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	unit := time.Now().UnixNano()
	if _, ok, err := s.LoadState(ctx, unit, id); err != nil || ok {
		t.Fatalf("missing state ok=%v err=%v", ok, err)
	}
	if err := s.SaveState(ctx, unit, id, domain.TemplateState{CanvasConfig: domain.DefaultCanvasConfig()}); err != nil {
		t.Fatalf("save state: %v", err)
	}
	all, err := s.LoadAllStates(ctx, unit)
	if err != nil || len(all) != 1 {
		t.Fatalf("states = %v, %v", all, err)
	}
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, template.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
