/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	applog "navalcards/internal/log"
)

const packManifest = "templatepack.manifest.txt"

// ExportPack writes the templates named by ids into a zip archive at
// destZip, one exchange document per template under templates/, plus a
// plain-text manifest. It returns the number of templates written.
func (l *Library) ExportPack(ctx context.Context, ids []string, destZip string) (int, error) {
	lg := applog.WithOperation(applog.WithComponent("templatepack"), "export").With(slog.String("zip", destZip))
	if strings.TrimSpace(destZip) == "" {
		return 0, errors.New("destination zip path is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZip), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZip)

	zf, err := os.Create(destZip)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("Naval Cards Template Pack\nCreated: %s\nTemplates: %d\n", l.Now().UTC().Format(time.RFC3339), len(ids))
	w, err := zw.Create(packManifest)
	if err != nil {
		return 0, fmt.Errorf("add manifest: %w", err)
	}
	if _, err := io.WriteString(w, manifest); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	used := map[string]int{}
	written := 0
	for _, id := range ids {
		data, name, err := l.Export(ctx, id)
		if err != nil {
			lg.Error("export template failed", slog.String("id", id), slog.Any("err", err))
			return written, err
		}
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s_%d.json", strings.TrimSuffix(name, ".json"), n)
		}
		used[name]++
		fw, err := zw.Create(path.Join("templates", name))
		if err != nil {
			return written, fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written++
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finish zip: %w", err)
	}
	lg.Info("template pack exported", slog.Int("templates", written))
	return written, nil
}

// InstallPack imports every template document found in the zip at packZip.
// Documents that fail validation are skipped. It returns the number of
// templates installed.
func (l *Library) InstallPack(ctx context.Context, packZip string) (int, error) {
	lg := applog.WithOperation(applog.WithComponent("templatepack"), "install").With(slog.String("zip", packZip))
	if strings.TrimSpace(packZip) == "" {
		return 0, errors.New("pack zip path is required")
	}
	r, err := zip.OpenReader(packZip)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() || f.Name == packManifest || !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return installed, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if _, err := l.Import(ctx, data); err != nil {
			if errors.Is(err, ErrInvalidTemplate) {
				lg.Warn("skip invalid template", slog.String("file", f.Name))
				continue
			}
			return installed, err
		}
		installed++
	}
	lg.Info("template pack installed", slog.Int("templates", installed))
	return installed, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
