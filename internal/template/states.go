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
	"log/slog"
	"sync"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
	"navalcards/internal/notify"
)

// StateStore persists the last layout a unit had under each template.
// LoadState reports false when nothing was saved.
type StateStore interface {
	LoadState(ctx context.Context, unitID int64, templateID string) (domain.TemplateState, bool, error)
	SaveState(ctx context.Context, unitID int64, templateID string, s domain.TemplateState) error
	LoadAllStates(ctx context.Context, unitID int64) (map[string]domain.TemplateState, error)
}

// StateCache keeps the template states of one unit in memory. Template
// states are optional: load failures are logged and otherwise ignored, save
// failures are also reported to the user.
type StateCache struct {
	store  StateStore
	unitID int64
	notify notify.Notifier
	log    *slog.Logger

	mu     sync.Mutex
	states map[string]domain.TemplateState
	loaded bool
}

// NewStateCache returns a cache for unitID. A zero unitID disables all
// remote calls.
func NewStateCache(store StateStore, unitID int64, n notify.Notifier) *StateCache {
	return &StateCache{
		store:  store,
		unitID: unitID,
		notify: notify.OrLog(n),
		log:    applog.WithComponent("template").With(slog.Int64("unit", unitID)),
		states: map[string]domain.TemplateState{},
	}
}

// LoadAll replaces the cache with every state stored for the unit.
func (c *StateCache) LoadAll(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.loaded = true
		c.mu.Unlock()
	}()
	if c.unitID == 0 || c.store == nil {
		return
	}
	all, err := c.store.LoadAllStates(ctx, c.unitID)
	if err != nil {
		c.log.Warn("load template states failed", slog.Any("err", err))
		return
	}
	c.mu.Lock()
	c.states = make(map[string]domain.TemplateState, len(all))
	for id, s := range all {
		c.states[id] = s
	}
	c.mu.Unlock()
}

// Load refreshes the cached state for one template.
func (c *StateCache) Load(ctx context.Context, templateID string) {
	if c.unitID == 0 || c.store == nil {
		return
	}
	s, ok, err := c.store.LoadState(ctx, c.unitID, templateID)
	if err != nil {
		c.log.Warn("load template state failed", slog.String("template", templateID), slog.Any("err", err))
		return
	}
	if !ok {
		return
	}
	c.mu.Lock()
	c.states[templateID] = s
	c.mu.Unlock()
}

// Save stores s for templateID and updates the cache on success.
func (c *StateCache) Save(ctx context.Context, templateID string, s domain.TemplateState) error {
	if c.unitID == 0 || c.store == nil {
		return nil
	}
	if err := c.store.SaveState(ctx, c.unitID, templateID, s); err != nil {
		c.log.Error("save template state failed", slog.String("template", templateID), slog.Any("err", err))
		c.notify.Error("Errore durante il salvataggio dello stato del template")
		return err
	}
	c.mu.Lock()
	c.states[templateID] = s
	c.mu.Unlock()
	return nil
}

// Get returns the cached state for templateID.
func (c *StateCache) Get(templateID string) (domain.TemplateState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.states[templateID]
	return s, ok
}

// Loaded reports whether LoadAll has completed, successfully or not.
func (c *StateCache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// StateOf captures a canvas snapshot in template state form.
func StateOf(s domain.CanvasState) domain.TemplateState {
	return domain.TemplateState{ElementStates: domain.CloneElements(s.Elements), CanvasConfig: s.CanvasConfig}
}
