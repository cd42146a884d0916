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
	"fmt"
	"net/http"
	"net/url"

	"navalcards/internal/domain"
	"navalcards/internal/template"
)

// Templates exposes the template endpoints as a template.Store and
// template.StateStore.
type Templates struct{ c *Client }

var (
	_ template.Store      = Templates{}
	_ template.StateStore = Templates{}
)

func (c *Client) Templates() Templates { return Templates{c: c} }

func templatePath(id string) string { return "/api/templates/" + url.PathEscape(id) }

func statePath(unitID int64, templateID string) string {
	return fmt.Sprintf("/api/units/%d/template-states/%s", unitID, url.PathEscape(templateID))
}

func (t Templates) List(ctx context.Context) ([]domain.Template, error) {
	var list []domain.Template
	if err := t.c.doJSON(ctx, http.MethodGet, "/api/templates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (t Templates) Get(ctx context.Context, id string) (domain.Template, error) {
	var tpl domain.Template
	if err := t.c.doJSON(ctx, http.MethodGet, templatePath(id), nil, &tpl); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.Template{}, template.ErrNotFound
		}
		return domain.Template{}, err
	}
	return tpl, nil
}

// Create posts tpl. The server answers with the id it stored the template under.
func (t Templates) Create(ctx context.Context, tpl domain.Template) (domain.Template, error) {
	var resp struct {
		Message    string `json:"message"`
		TemplateID string `json:"template_id"`
	}
	if err := t.c.doJSON(ctx, http.MethodPost, "/api/templates", tpl, &resp); err != nil {
		return domain.Template{}, err
	}
	if resp.TemplateID != "" {
		tpl.ID = resp.TemplateID
	}
	return tpl, nil
}

func (t Templates) Update(ctx context.Context, tpl domain.Template) (domain.Template, error) {
	if err := t.c.doJSON(ctx, http.MethodPut, templatePath(tpl.ID), tpl, nil); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.Template{}, template.ErrNotFound
		}
		return domain.Template{}, err
	}
	return tpl, nil
}

func (t Templates) Delete(ctx context.Context, id string) error {
	if err := t.c.doJSON(ctx, http.MethodDelete, templatePath(id), nil, nil); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return template.ErrNotFound
		}
		return err
	}
	return nil
}

// LoadState returns false when the server has no state for the pair, either
// by answering 404 or with a null body.
func (t Templates) LoadState(ctx context.Context, unitID int64, templateID string) (domain.TemplateState, bool, error) {
	var st *domain.TemplateState
	if err := t.c.doJSON(ctx, http.MethodGet, statePath(unitID, templateID), nil, &st); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.TemplateState{}, false, nil
		}
		return domain.TemplateState{}, false, err
	}
	if st == nil {
		return domain.TemplateState{}, false, nil
	}
	return *st, true, nil
}

func (t Templates) SaveState(ctx context.Context, unitID int64, templateID string, st domain.TemplateState) error {
	return t.c.doJSON(ctx, http.MethodPost, statePath(unitID, templateID), st, nil)
}

func (t Templates) LoadAllStates(ctx context.Context, unitID int64) (map[string]domain.TemplateState, error) {
	var all map[string]domain.TemplateState
	if err := t.c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/units/%d/template-states", unitID), nil, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]domain.TemplateState{}
	}
	return all, nil
}
