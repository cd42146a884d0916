/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
)

// ErrImageNotFound is returned when an image reference resolves to nothing.
var ErrImageNotFound = errors.New("image not found")

// ImageSource loads the image an element refers to.
type ImageSource interface {
	Image(ctx context.Context, ref string) (image.Image, error)
}

// Resolver resolves element image references: data URLs, http(s) URLs,
// server upload paths (/uploads/..., /api/static/...) and plain paths
// relative to UploadsDir. Decoded images are cached by reference.
type Resolver struct {
	UploadsDir string
	// BaseURL, when set, is used to fetch server paths missing locally.
	BaseURL string
	Client  *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
}

func NewResolver(uploadsDir, baseURL string) *Resolver {
	return &Resolver{
		UploadsDir: uploadsDir,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Resolver) Image(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, ErrImageNotFound
	}
	r.mu.Lock()
	if img, ok := r.cache[ref]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	img, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.cache == nil {
		r.cache = make(map[string]image.Image)
	}
	r.cache[ref] = img
	r.mu.Unlock()
	return img, nil
}

func (r *Resolver) load(ctx context.Context, ref string) (image.Image, error) {
	switch {
	case strings.HasPrefix(ref, "data:image/"):
		return decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return r.fetch(ctx, ref)
	}
	for _, p := range r.localCandidates(ref) {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		return img, nil
	}
	if r.BaseURL != "" && strings.HasPrefix(ref, "/") {
		return r.fetch(ctx, r.BaseURL+ref)
	}
	return nil, fmt.Errorf("%w: %s", ErrImageNotFound, ref)
}

// localCandidates lists the files ref may live in, most specific first.
func (r *Resolver) localCandidates(ref string) []string {
	rel := ref
	for _, prefix := range []string{"/uploads/", "/api/static/", "../data/uploads/", "./data/uploads/"} {
		if strings.HasPrefix(rel, prefix) {
			rel = strings.TrimPrefix(rel, prefix)
			break
		}
	}
	if filepath.IsAbs(ref) && rel == ref {
		return []string{ref}
	}
	base := filepath.Base(rel)
	return []string{
		filepath.Join(r.UploadsDir, filepath.FromSlash(rel)),
		filepath.Join(r.UploadsDir, base),
		filepath.Join(r.UploadsDir, "silhouettes", base),
		filepath.Join(r.UploadsDir, "logos", base),
		filepath.Join(r.UploadsDir, "flags", base),
	}
}

func (r *Resolver) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

func decodeDataURL(ref string) (image.Image, error) {
	_, data, ok := strings.Cut(ref, ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data url image: %w", err)
	}
	return img, nil
}
