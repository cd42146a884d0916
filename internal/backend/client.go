/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend talks to the naval units server: unit records and their
// layouts, templates and template states, image uploads and login. It also
// provides a Postgres-backed template store for deployments that share
// templates through a database instead of the REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"navalcards/internal/domain"
	applog "navalcards/internal/log"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("server %s %s: %s", e.Method, e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client is an HTTP client for the backend API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a new backend client. baseURL may include a trailing
// slash; it will be normalized. A non-positive timeout means 10s.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     applog.WithComponent("backend"),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do sends req and decodes a JSON response into dest (when non-nil).
func (c *Client) do(req *http.Request, dest any) error {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", slog.String("method", req.Method), slog.String("path", req.URL.Path), slog.Any("err", err))
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("request", slog.String("method", req.Method), slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(b)),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("login: empty token in response")
	}
	c.Token = resp.AccessToken
	return resp.AccessToken, nil
}

// ListUnits returns one page of units.
func (c *Client) ListUnits(ctx context.Context, skip, limit int) ([]domain.NavalUnit, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []domain.NavalUnit
	path := fmt.Sprintf("/api/units?skip=%d&limit=%d", skip, limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetUnit fetches one unit including its layout.
func (c *Client) GetUnit(ctx context.Context, id int64) (domain.NavalUnit, error) {
	var u domain.NavalUnit
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/units/%d", id), nil, &u); err != nil {
		return domain.NavalUnit{}, err
	}
	return u, nil
}

// LayoutUpdate is the body sent when saving a card layout. Name and
// UnitClass come from the fixed fields on the card; empty values are not sent.
type LayoutUpdate struct {
	LayoutConfig      domain.LayoutConfig `json:"layout_config"`
	Nation            string              `json:"nation,omitempty"`
	Name              string              `json:"name,omitempty"`
	UnitClass         string              `json:"unit_class,omitempty"`
	CurrentTemplateID string              `json:"current_template_id,omitempty"`
}

// SaveLayout stores state as the layout of unit id. A non-empty nation
// (derived from the flag on the card) is sent along.
func (c *Client) SaveLayout(ctx context.Context, id int64, state domain.CanvasState, nation string) (domain.NavalUnit, error) {
	return c.SaveCard(ctx, id, LayoutUpdate{LayoutConfig: domain.LayoutFromState(state), Nation: nation})
}

// SaveCard sends a full card update for unit id and returns the stored unit.
func (c *Client) SaveCard(ctx context.Context, id int64, upd LayoutUpdate) (domain.NavalUnit, error) {
	var u domain.NavalUnit
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/units/%d", id), upd, &u); err != nil {
		return domain.NavalUnit{}, err
	}
	c.log.Info("layout saved", slog.Int64("unit", id), slog.Int("elements", len(upd.LayoutConfig.Elements)))
	return u, nil
}

// UpdateNotes replaces the notes field of unit id.
func (c *Client) UpdateNotes(ctx context.Context, id int64, notes string) (domain.NavalUnit, error) {
	var u domain.NavalUnit
	body := map[string]string{"notes": notes}
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/units/%d", id), body, &u); err != nil {
		return domain.NavalUnit{}, err
	}
	return u, nil
}
