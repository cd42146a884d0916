/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a small, opt-in event sender for anonymous
// usage metrics and optional crash uploads. Events that cannot be delivered
// are kept in an offline queue and replayed later.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "navalcards/internal/log"
	"navalcards/internal/version"
)

// Event names emitted by the editor and the exporters.
const (
	EventTemplateApplied = "template_applied"
	EventCardExported    = "card_exported"
	EventLayoutSaved     = "layout_saved"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is opt-in and disabled by default.
//
// Environment variables (read by FromEnv):
//   - NAVALCARDS_TELEMETRY_OPT_IN: "1", "true", "yes" or "on" enables events
//   - NAVALCARDS_TELEMETRY_URL: URL to POST JSON events to
//   - NAVALCARDS_CRASH_UPLOAD_URL: URL to POST crash reports to
//   - NAVALCARDS_TELEMETRY_TIMEOUT_MS: request timeout, default 1500ms
//   - NAVALCARDS_TELEMETRY_DEBUG: if set, logs send attempts
//
// Without an events URL, events are dropped even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
	// Spool keeps undelivered events. Nil disables the offline queue.
	Spool Spool
	// MaxQueued bounds the offline queue; oldest events are dropped first.
	MaxQueued int
}

// Spool is a small key/value store for the offline queue.
// storage.DB satisfies it.
type Spool interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SpoolKey is the key the offline queue is stored under.
const SpoolKey = "telemetry.queue"

const defaultMaxQueued = 200

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("NAVALCARDS_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("NAVALCARDS_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("NAVALCARDS_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("NAVALCARDS_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("NAVALCARDS_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is an async sender. Event never blocks: the in-memory channel is
// bounded and full queues drop events.
type Client struct {
	cfg    Config
	log    *slog.Logger
	cli    *http.Client
	q      chan map[string]any
	once   sync.Once
	closed chan struct{}

	spoolMu sync.Mutex
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault installs a default client from the environment unless one exists.
func InitDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
}

// NewDefault creates and installs the default client with cfg, closing the previous one.
func NewDefault(cfg Config) *Client {
	c := New(cfg)
	defaultMu.Lock()
	prev := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	prev.Close()
	return c
}

func current() *Client {
	InitDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// New constructs a client and starts its sender goroutine.
func New(cfg Config) *Client {
	if cfg.MaxQueued <= 0 {
		cfg.MaxQueued = defaultMaxQueued
	}
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether telemetry is opted in and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

func Enabled() bool { return current().Enabled() }

// Event queues a small JSON event if enabled. props must not carry personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	select {
	case c.q <- payload:
	default:
		c.log.Debug("telemetry queue full, event dropped", slog.String("event", name))
	}
}

// Event sends through the default client.
func Event(name string, props map[string]any) { current().Event(name, props) }

// Flush waits briefly for the in-memory queue to drain.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(c.q) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the sender goroutine. Close on a nil client is a no-op.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			if err := c.send(context.Background(), item); err != nil {
				if c.cfg.DebugLogging {
					c.log.Debug("telemetry send failed", slog.Any("err", err))
				}
				c.spool(item)
			}
		}
	}
}

func (c *Client) send(ctx context.Context, item map[string]any) error {
	buf, err := json.Marshal(item)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telemetry endpoint returned %d", resp.StatusCode)
	}
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent")
	}
	return nil
}

func (c *Client) readQueue(ctx context.Context) []map[string]any {
	raw, ok, err := c.cfg.Spool.Get(ctx, SpoolKey)
	if err != nil || !ok || len(raw) == 0 {
		return nil
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warn("offline telemetry queue unreadable, discarding", slog.Any("err", err))
		return nil
	}
	return items
}

func (c *Client) writeQueue(ctx context.Context, items []map[string]any) error {
	if len(items) > c.cfg.MaxQueued {
		items = items[len(items)-c.cfg.MaxQueued:]
	}
	if items == nil {
		items = []map[string]any{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.cfg.Spool.Put(ctx, SpoolKey, b)
}

func (c *Client) spool(item map[string]any) {
	if c.cfg.Spool == nil {
		return
	}
	c.spoolMu.Lock()
	defer c.spoolMu.Unlock()
	ctx := context.Background()
	items := append(c.readQueue(ctx), item)
	if err := c.writeQueue(ctx, items); err != nil {
		c.log.Warn("spool telemetry event failed", slog.Any("err", err))
	}
}

// Queued returns the number of events waiting in the offline queue.
func (c *Client) Queued(ctx context.Context) int {
	if c == nil || c.cfg.Spool == nil {
		return 0
	}
	c.spoolMu.Lock()
	defer c.spoolMu.Unlock()
	return len(c.readQueue(ctx))
}

// Replay resends queued events in order and stops at the first failure,
// keeping the rest for the next attempt. It returns the number delivered.
func (c *Client) Replay(ctx context.Context) (int, error) {
	if !c.Enabled() || c.cfg.Spool == nil {
		return 0, nil
	}
	c.spoolMu.Lock()
	defer c.spoolMu.Unlock()
	items := c.readQueue(ctx)
	sent := 0
	var sendErr error
	for _, it := range items {
		if sendErr = c.send(ctx, it); sendErr != nil {
			break
		}
		sent++
	}
	if sent > 0 {
		if err := c.writeQueue(ctx, items[sent:]); err != nil {
			return sent, fmt.Errorf("rewrite telemetry queue: %w", err)
		}
	}
	if sendErr != nil {
		return sent, fmt.Errorf("replay telemetry: %w", sendErr)
	}
	return sent, nil
}

// UploadCrash posts a serialized crash report to the crash URL if opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.cli.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash sends through the default client.
func UploadCrash(report []byte) { current().UploadCrash(report) }
