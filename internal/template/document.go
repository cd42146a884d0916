/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"

	"navalcards/internal/domain"
)

// SchemaVersion is written into every exported template document.
const SchemaVersion = 1

// ErrInvalidTemplate wraps every validation failure reported by Decode.
var ErrInvalidTemplate = errors.New("invalid template document")

//go:embed template.schema.json
var schemaJSON []byte

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("template schema: %v", err))
	}
	return s
}()

type document struct {
	SchemaVersion int `json:"schemaVersion"`
	domain.Template
}

// Encode renders t as an indented exchange document.
func Encode(t domain.Template) ([]byte, error) {
	if t.Elements == nil {
		t.Elements = []domain.CanvasElement{}
	}
	b, err := json.MarshalIndent(document{SchemaVersion: SchemaVersion, Template: t}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode template %s: %w", t.ID, err)
	}
	return b, nil
}

// Decode validates data against the template schema and returns the
// template it describes. The schemaVersion field is optional.
func Decode(data []byte) (domain.Template, error) {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Template{}, fmt.Errorf("%w: %s", ErrInvalidTemplate, strings.Join(msgs, "; "))
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return doc.Template, nil
}

// ExportFileName derives a download name from a template name: every
// character that is not an ASCII letter or digit becomes an underscore and
// the result is lower-cased.
func ExportFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + ".json"
}
