/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memSpool struct {
	mu sync.Mutex
	kv map[string][]byte
}

func (m *memSpool) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *memSpool) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kv == nil {
		m.kv = map[string][]byte{}
	}
	m.kv[key] = append([]byte(nil), value...)
	return nil
}

func waitQueued(t *testing.T, c *Client, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Queued(context.Background()) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("queued = %d, want %d", c.Queued(context.Background()), want)
}

func TestUndeliveredEventsAreSpooled(t *testing.T) {
	sp := &memSpool{}
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      200 * time.Millisecond,
		DebugLogging: true,
		Spool:        sp,
	})
	defer c.Close()

	c.Event(EventCardExported, map[string]any{"format": "png"})
	waitQueued(t, c, 1)
	c.UploadCrash([]byte("oops"))

	raw, ok, _ := sp.Get(context.Background(), SpoolKey)
	if !ok {
		t.Fatalf("spool key not written")
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("spool json: %v", err)
	}
	if items[0]["name"] != EventCardExported || items[0]["format"] != "png" {
		t.Fatalf("spooled event = %v", items[0])
	}
}

func TestReplayDeliversInOrderAndEmptiesQueue(t *testing.T) {
	var mu sync.Mutex
	var names []string
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		mu.Lock()
		names = append(names, m["name"].(string))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second, Spool: &memSpool{}})
	defer c.Close()

	c.Event(EventTemplateApplied, nil)
	waitQueued(t, c, 1)
	c.Event(EventLayoutSaved, nil)
	waitQueued(t, c, 2)

	if n, err := c.Replay(context.Background()); err == nil || n != 0 {
		t.Fatalf("replay against failing endpoint = %d, %v", n, err)
	}
	if c.Queued(context.Background()) != 2 {
		t.Fatalf("failed replay must keep the queue")
	}

	fail.Store(false)
	n, err := c.Replay(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("replay = %d, %v", n, err)
	}
	if c.Queued(context.Background()) != 0 {
		t.Fatalf("queue not emptied")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(names) != 2 || names[0] != EventTemplateApplied || names[1] != EventLayoutSaved {
		t.Fatalf("replayed = %v", names)
	}
}

func TestOfflineQueueIsBounded(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/", Timeout: 100 * time.Millisecond, Spool: &memSpool{}, MaxQueued: 2})
	defer c.Close()
	for i := 0; i < 3; i++ {
		c.Event(EventCardExported, map[string]any{"i": i})
		waitQueued(t, c, min(i+1, 2))
	}
}
