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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"navalcards/internal/domain"
	"navalcards/internal/notify"
)

// ImageCategory selects the upload folder on the server.
type ImageCategory string

const (
	CategoryLogos       ImageCategory = "logos"
	CategoryFlags       ImageCategory = "flags"
	CategorySilhouettes ImageCategory = "silhouettes"
	CategoryGeneral     ImageCategory = "general"
)

func (c ImageCategory) Valid() bool {
	switch c {
	case CategoryLogos, CategoryFlags, CategorySilhouettes, CategoryGeneral:
		return true
	}
	return false
}

// CategoryFor maps an image element type to its upload category.
func CategoryFor(t domain.ElementType) ImageCategory {
	switch t {
	case domain.ElementLogo:
		return CategoryLogos
	case domain.ElementFlag:
		return CategoryFlags
	case domain.ElementSilhouette:
		return CategorySilhouettes
	}
	return CategoryGeneral
}

// ErrUploadFailed wraps every upload failure.
var ErrUploadFailed = errors.New("upload failed")

// Uploader posts images to the backend. Failures are reported to the user
// through the notifier; there is no automatic retry.
type Uploader struct {
	c        *Client
	notify   notify.Notifier
	inflight atomic.Int32
}

// NewUploader returns an uploader using c. A nil notifier logs only.
func NewUploader(c *Client, n notify.Notifier) *Uploader {
	return &Uploader{c: c, notify: notify.OrLog(n)}
}

// Busy reports whether an upload is in progress.
func (u *Uploader) Busy() bool { return u.inflight.Load() > 0 }

// Upload sends the content of r as multipart field "file" to
// /api/upload/{category} and returns the stored path (or file name) the
// server answers with.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader, category ImageCategory) (string, error) {
	u.inflight.Add(1)
	defer u.inflight.Add(-1)

	path, err := u.upload(ctx, filename, r, category)
	if err != nil {
		u.c.log.Error("image upload failed", slog.String("file", filename), slog.String("category", string(category)), slog.Any("err", err))
		u.notify.Error(fmt.Sprintf("Errore durante l'upload dell'immagine: %v", err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	u.notify.Success("Immagine caricata con successo")
	return path, nil
}

func (u *Uploader) upload(ctx context.Context, filename string, r io.Reader, category ImageCategory) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("unknown image category %q", category)
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := u.c.newRequest(ctx, http.MethodPost, "/api/upload/"+string(category), pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Path     string `json:"path"`
		Filename string `json:"filename"`
	}
	if err := u.c.do(req, &resp); err != nil {
		_ = pr.Close()
		return "", err
	}
	if resp.Path != "" {
		return resp.Path, nil
	}
	if resp.Filename != "" {
		return resp.Filename, nil
	}
	return "", errors.New("response carries neither path nor filename")
}
