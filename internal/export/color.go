/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.RGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"navy":   {0, 0, 128, 255},
	"silver": {192, 192, 192, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
}

// ParseColor understands the CSS color forms cards use: #rgb, #rrggbb,
// #rrggbbaa, rgb(), rgba(), a few names and "transparent". ok is false for
// anything else.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return color.RGBA{}, false
	case s == "transparent" || s == "none":
		return color.RGBA{}, true
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseRGBFunc(s)
	}
	c, ok := namedColors[s]
	return c, ok
}

func parseHex(s string) (color.RGBA, bool) {
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, false
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.RGB255()
	return premultiply(r, g, b, alpha), true
}

func parseRGBFunc(s string) (color.RGBA, bool) {
	lp, rp := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if lp < 0 || rp < lp {
		return color.RGBA{}, false
	}
	parts := strings.Split(s[lp+1:rp], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || v < 0 || v > 255 {
			return color.RGBA{}, false
		}
		ch[i] = uint8(v)
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.RGBA{}, false
		}
		alpha = uint8(a*255 + 0.5)
	}
	return premultiply(ch[0], ch[1], ch[2], alpha), true
}

// premultiply builds the alpha-premultiplied color.RGBA the image packages expect.
func premultiply(r, g, b, a uint8) color.RGBA {
	if a == 255 {
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	mul := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 255) }
	return color.RGBA{R: mul(r), G: mul(g), B: mul(b), A: a}
}

// straight undoes premultiply for consumers that take separate alpha.
func straight(c color.RGBA) (r, g, b int, alpha float64) {
	if c.A == 0 {
		return 0, 0, 0, 0
	}
	if c.A == 255 {
		return int(c.R), int(c.G), int(c.B), 1
	}
	un := func(v uint8) int { return int(uint16(v) * 255 / uint16(c.A)) }
	return un(c.R), un(c.G), un(c.B), float64(c.A) / 255
}

// colorOr parses s and falls back to def when s is empty or unknown.
func colorOr(s *string, def string) color.RGBA {
	if s != nil {
		if c, ok := ParseColor(*s); ok {
			return c
		}
	}
	c, _ := ParseColor(def)
	return c
}
