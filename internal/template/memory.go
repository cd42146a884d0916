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
	"sort"
	"sync"

	"navalcards/internal/domain"
)

// MemoryStore is an in-process Store and StateStore.
type MemoryStore struct {
	mu        sync.Mutex
	templates map[string]domain.Template
	order     []string
	states    map[int64]map[string]domain.TemplateState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: map[string]domain.Template{},
		states:    map[int64]map[string]domain.TemplateState{},
	}
}

func (m *MemoryStore) List(ctx context.Context) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Template, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.templates[id].Clone())
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return domain.Template{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (m *MemoryStore) Create(ctx context.Context, t domain.Template) (domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.templates[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return domain.Template{}, ErrNotFound
	}
	m.templates[t.ID] = t.Clone()
	return t.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	delete(m.templates, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) LoadState(ctx context.Context, unitID int64, templateID string) (domain.TemplateState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[unitID][templateID]
	if !ok {
		return domain.TemplateState{}, false, nil
	}
	return cloneState(s), true, nil
}

func (m *MemoryStore) SaveState(ctx context.Context, unitID int64, templateID string, s domain.TemplateState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[unitID] == nil {
		m.states[unitID] = map[string]domain.TemplateState{}
	}
	m.states[unitID][templateID] = cloneState(s)
	return nil
}

func (m *MemoryStore) LoadAllStates(ctx context.Context, unitID int64) (map[string]domain.TemplateState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.states[unitID]))
	for id := range m.states[unitID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make(map[string]domain.TemplateState, len(ids))
	for _, id := range ids {
		out[id] = cloneState(m.states[unitID][id])
	}
	return out, nil
}

func cloneState(s domain.TemplateState) domain.TemplateState {
	return domain.TemplateState{ElementStates: domain.CloneElements(s.ElementStates), CanvasConfig: s.CanvasConfig}
}
