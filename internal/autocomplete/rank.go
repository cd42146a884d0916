/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autocomplete suggests ship identification elements (the bow to
// stern feature list kept in unit notes) from a usage-count dictionary.
package autocomplete

import (
	"sort"
	"strings"
)

// DefaultLimit caps the number of suggestions.
const DefaultLimit = 10

// Suggestion is a dictionary entry with its usage count.
type Suggestion struct {
	Element string `json:"element"`
	Count   int    `json:"count"`
}

// Rank returns up to limit entries of dict matching input.
//
// Input is trimmed and compared case-insensitively. An empty input returns
// the most used entries. Otherwise entries containing the input are ordered
// exact match first, then prefix matches, then by descending count; ties are
// broken by element name so the result is deterministic.
func Rank(dict map[string]int, input string, limit int) []Suggestion {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := strings.ToLower(strings.TrimSpace(input))

	out := make([]Suggestion, 0, len(dict))
	for el, n := range dict {
		if q == "" || strings.Contains(strings.ToLower(el), q) {
			out = append(out, Suggestion{Element: el, Count: n})
		}
	}

	tier := func(s Suggestion) int {
		if q == "" {
			return 0
		}
		lower := strings.ToLower(s.Element)
		switch {
		case lower == q:
			return 0
		case strings.HasPrefix(lower, q):
			return 1
		}
		return 2
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ta, tb := tier(a), tier(b); ta != tb {
			return ta < tb
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Element < b.Element
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
