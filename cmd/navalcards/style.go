/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	heading  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563eb"))
	muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	okStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	errStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dc2626"))
	header   = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cell     = lipgloss.NewStyle().PaddingRight(2)
)

// renderTable lays rows out in left-aligned columns sized to the widest cell.
func renderTable(cols []string, rows [][]string) string {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if w := lipgloss.Width(r[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}
	var b strings.Builder
	line := func(st lipgloss.Style, r []string) {
		parts := make([]string, len(cols))
		for i := range cols {
			v := ""
			if i < len(r) {
				v = r[i]
			}
			parts[i] = st.Width(widths[i] + 2).Render(v)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " "))
		b.WriteByte('\n')
	}
	line(header, cols)
	for _, r := range rows {
		line(cell, r)
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
