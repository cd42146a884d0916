/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func TestVariantOfFileName(t *testing.T) {
	cases := []struct {
		name         string
		family       string
		bold, italic bool
	}{
		{"Inter", "Inter", false, false},
		{"Inter-Regular", "Inter", false, false},
		{"Inter-Bold", "Inter", true, false},
		{"Inter-BoldItalic", "Inter", true, true},
		{"Roboto-Oblique", "Roboto", false, true},
	}
	for _, c := range cases {
		f, b, i := variantOf(c.name)
		if f != c.family || b != c.bold || i != c.italic {
			t.Fatalf("%s: got %s %v %v", c.name, f, b, i)
		}
	}
}

func TestLoadDirRegistersFonts(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Inter-Bold.ttf"), goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}
	lib := NewFontLibrary()
	n, err := lib.LoadDir(dir)
	if err != nil || n != 1 {
		t.Fatalf("LoadDir = %d, %v", n, err)
	}
	if lib.find(FontSpec{Family: "inter", Bold: true}) == nil {
		t.Fatalf("bold variant not found")
	}
	if _, err := lib.LoadDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
