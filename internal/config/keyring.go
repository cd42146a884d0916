/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "navalcards"
	keyringToken   = "backend_token"
)

// ErrNoToken is returned when no bearer token has been stored.
var ErrNoToken = errors.New("no backend token stored")

// TokenStore abstracts the OS keyring so tests can swap it out.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// UseTokenStore replaces the token backend and returns a restore func.
func UseTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

// Token returns the stored bearer token.
func Token() (string, error) {
	tok, err := tokenStore.Get(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && tok == "") {
		return "", ErrNoToken
	}
	return tok, err
}

func SetToken(tok string) error { return tokenStore.Set(keyringService, keyringToken, tok) }

// ClearToken removes the stored token; a missing entry is not an error.
func ClearToken() error {
	err := tokenStore.Delete(keyringService, keyringToken)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *MemoryTokenStore) Get(service, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (s *MemoryTokenStore) Set(service, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[service+"/"+key] = value
	return nil
}

func (s *MemoryTokenStore) Delete(service, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(s.m, service+"/"+key)
	return nil
}
