/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	"context"
	"errors"
	"testing"

	"navalcards/internal/domain"
	"navalcards/internal/notify"
)

type brokenStates struct{}

func (brokenStates) LoadState(context.Context, int64, string) (domain.TemplateState, bool, error) {
	return domain.TemplateState{}, false, errBackend
}
func (brokenStates) SaveState(context.Context, int64, string, domain.TemplateState) error {
	return errBackend
}
func (brokenStates) LoadAllStates(context.Context, int64) (map[string]domain.TemplateState, error) {
	return nil, errBackend
}

func TestStateCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	state := StateOf(domain.CanvasState{
		Elements:     []domain.CanvasElement{{ID: "e", Type: domain.ElementFlag}},
		CanvasConfig: domain.DefaultCanvasConfig(),
	})
	_ = store.SaveState(ctx, 7, MinimalID, state)

	c := NewStateCache(store, 7, nil)
	if c.Loaded() {
		t.Fatalf("loaded before LoadAll")
	}
	c.LoadAll(ctx)
	if !c.Loaded() {
		t.Fatalf("not loaded after LoadAll")
	}
	got, ok := c.Get(MinimalID)
	if !ok || len(got.ElementStates) != 1 || got.CanvasConfig.CanvasWidth != 1280 {
		t.Fatalf("cached state = %+v, %v", got, ok)
	}

	if err := c.Save(ctx, StandardID, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	other := NewStateCache(store, 7, nil)
	other.Load(ctx, StandardID)
	if _, ok := other.Get(StandardID); !ok {
		t.Fatalf("saved state not visible to a new cache")
	}
}

func TestStateCacheFailuresAreSoft(t *testing.T) {
	ctx := context.Background()
	rec := &notify.Recorder{}
	c := NewStateCache(brokenStates{}, 3, rec)
	c.LoadAll(ctx)
	c.Load(ctx, StandardID)
	if !c.Loaded() {
		t.Fatalf("LoadAll should complete even when the store fails")
	}
	if len(rec.Messages()) != 0 {
		t.Fatalf("load failures must not notify: %v", rec.Messages())
	}
	if err := c.Save(ctx, StandardID, domain.TemplateState{}); !errors.Is(err, errBackend) {
		t.Fatalf("Save err = %v", err)
	}
	if len(rec.Errors()) != 1 {
		t.Fatalf("save failure should notify once")
	}
	if _, ok := c.Get(StandardID); ok {
		t.Fatalf("failed save must not be cached")
	}
}

func TestStateCacheWithoutUnit(t *testing.T) {
	c := NewStateCache(brokenStates{}, 0, nil)
	c.LoadAll(context.Background())
	if !c.Loaded() {
		t.Fatalf("LoadAll without unit should mark loaded")
	}
	if err := c.Save(context.Background(), "x", domain.TemplateState{}); err != nil {
		t.Fatalf("Save without unit should be a no-op: %v", err)
	}
}
