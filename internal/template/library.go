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
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
	"navalcards/internal/notify"
)

var (
	// ErrNotFound is returned by stores when no template has the given id.
	ErrNotFound = errors.New("template not found")
	// ErrDefaultTemplate is returned when a built-in template would be changed or removed.
	ErrDefaultTemplate = errors.New("built-in templates cannot be modified")
	ErrEmptyName       = errors.New("template name is required")
)

// Store persists user templates.
type Store interface {
	List(ctx context.Context) ([]domain.Template, error)
	Get(ctx context.Context, id string) (domain.Template, error)
	Create(ctx context.Context, t domain.Template) (domain.Template, error)
	Update(ctx context.Context, t domain.Template) (domain.Template, error)
	Delete(ctx context.Context, id string) error
}

// Library combines the built-in templates with a user template store.
type Library struct {
	store  Store
	notify notify.Notifier
	log    *slog.Logger

	Now   func() time.Time
	NewID func() string
}

// NewLibrary returns a library over store. A nil notifier logs only.
func NewLibrary(store Store, n notify.Notifier) *Library {
	return &Library{
		store:  store,
		notify: notify.OrLog(n),
		log:    applog.WithComponent("template"),
		Now:    time.Now,
		NewID:  func() string { return "template-" + uuid.NewString() },
	}
}

// List returns the built-in templates followed by the stored ones. When the
// store fails the built-ins are still returned together with the error.
func (l *Library) List(ctx context.Context) ([]domain.Template, error) {
	out := Defaults()
	user, err := l.store.List(ctx)
	if err != nil {
		l.log.Warn("list templates failed", slog.Any("err", err))
		return out, fmt.Errorf("list templates: %w", err)
	}
	for _, t := range user {
		if IsBuiltin(t.ID) {
			continue
		}
		t.IsDefault = false
		out = append(out, t)
	}
	return out, nil
}

// Get looks a template up among the built-ins first, then in the store.
func (l *Library) Get(ctx context.Context, id string) (domain.Template, error) {
	if t, ok := Builtin(id); ok {
		return t, nil
	}
	t, err := l.store.Get(ctx, id)
	if err != nil {
		return domain.Template{}, fmt.Errorf("get template %s: %w", id, err)
	}
	return t, nil
}

// SaveCurrent stores the given canvas state as a new user template.
func (l *Library) SaveCurrent(ctx context.Context, name, description string, state domain.CanvasState) (domain.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Template{}, ErrEmptyName
	}
	bw := state.CanvasBorderWidth
	t := domain.Template{
		ID:                l.NewID(),
		Name:              name,
		Description:       description,
		Elements:          domain.CloneElements(state.Elements),
		CanvasWidth:       state.CanvasWidth,
		CanvasHeight:      state.CanvasHeight,
		CanvasBackground:  state.CanvasBackground,
		CanvasBorderWidth: &bw,
		CanvasBorderColor: state.CanvasBorderColor,
		CreatedAt:         l.stamp(),
	}
	saved, err := l.store.Create(ctx, t)
	if err != nil {
		l.log.Error("save template failed", slog.String("name", name), slog.Any("err", err))
		l.notify.Error("Errore durante il salvataggio del template")
		return domain.Template{}, fmt.Errorf("save template: %w", err)
	}
	l.log.Info("template saved", slog.String("id", saved.ID), slog.Int("elements", len(saved.Elements)))
	l.notify.Success("Template salvato")
	return saved, nil
}

// Update replaces a stored user template.
func (l *Library) Update(ctx context.Context, t domain.Template) (domain.Template, error) {
	if IsBuiltin(t.ID) || t.IsDefault {
		return domain.Template{}, ErrDefaultTemplate
	}
	saved, err := l.store.Update(ctx, t)
	if err != nil {
		l.notify.Error("Errore durante l'aggiornamento del template")
		return domain.Template{}, fmt.Errorf("update template %s: %w", t.ID, err)
	}
	return saved, nil
}

// Delete removes a user template. Built-ins are refused with ErrDefaultTemplate.
func (l *Library) Delete(ctx context.Context, id string) error {
	if IsBuiltin(id) {
		return ErrDefaultTemplate
	}
	if err := l.store.Delete(ctx, id); err != nil {
		l.log.Error("delete template failed", slog.String("id", id), slog.Any("err", err))
		l.notify.Error("Errore durante l'eliminazione del template")
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	l.notify.Success("Template eliminato")
	return nil
}

// Duplicate stores a copy of template id named "<name> (Copia)". The copy is
// never a built-in.
func (l *Library) Duplicate(ctx context.Context, id string) (domain.Template, error) {
	src, err := l.Get(ctx, id)
	if err != nil {
		l.notify.Error("Template non trovato")
		return domain.Template{}, err
	}
	d := src.Clone()
	d.ID = l.NewID()
	d.Name = src.Name + " (Copia)"
	d.IsDefault = false
	d.CreatedAt = l.stamp()
	saved, err := l.store.Create(ctx, d)
	if err != nil {
		l.notify.Error("Errore durante la duplicazione del template")
		return domain.Template{}, fmt.Errorf("duplicate template %s: %w", id, err)
	}
	l.notify.Success("Template duplicato")
	return saved, nil
}

// Export returns the exchange document for template id and its file name.
func (l *Library) Export(ctx context.Context, id string) ([]byte, string, error) {
	t, err := l.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	b, err := Encode(t)
	if err != nil {
		return nil, "", err
	}
	return b, ExportFileName(t.Name), nil
}

// Import validates an exchange document and stores it as a user template.
// Documents that fail validation are logged and dropped. An imported
// template keeps its id unless it is missing, clashes with a built-in or is
// already taken.
func (l *Library) Import(ctx context.Context, data []byte) (domain.Template, error) {
	t, err := Decode(data)
	if err != nil {
		l.log.Warn("template import dropped", slog.Any("err", err))
		return domain.Template{}, err
	}
	t.IsDefault = false
	if t.ID == "" || IsBuiltin(t.ID) {
		t.ID = l.NewID()
	} else if _, err := l.store.Get(ctx, t.ID); err == nil {
		t.ID = l.NewID()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = l.stamp()
	}
	saved, err := l.store.Create(ctx, t)
	if err != nil {
		l.notify.Error("Errore durante l'importazione del template")
		return domain.Template{}, fmt.Errorf("import template: %w", err)
	}
	l.log.Info("template imported", slog.String("id", saved.ID), slog.String("name", saved.Name))
	return saved, nil
}

func (l *Library) stamp() string { return l.Now().UTC().Format(time.RFC3339) }
