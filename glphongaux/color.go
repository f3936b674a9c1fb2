package glphongaux

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor parses a "#RGB", "#RRGGBB" or "#RRGGBBAA" hex color or a CSS
// color name into RGBA components normalized to 0..1.
func ParseColor(s string) ([4]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return [4]float32{}, fmt.Errorf("empty color")
	}
	if s[0] != '#' {
		c, ok := colornames.Map[strings.ToLower(s)]
		if !ok {
			return [4]float32{}, fmt.Errorf("color name not found %q", s)
		}
		return rgba8(c.R, c.G, c.B, c.A), nil
	}
	hex := s[1:]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return [4]float32{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	switch len(hex) {
	case 3:
		r, g, b := uint8(v>>8&0xf), uint8(v>>4&0xf), uint8(v&0xf)
		return rgba8(r|r<<4, g|g<<4, b|b<<4, 0xff), nil
	case 6:
		return rgba8(uint8(v>>16), uint8(v>>8), uint8(v), 0xff), nil
	case 8:
		return rgba8(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}
	return [4]float32{}, fmt.Errorf("hex color %q must have 3, 6 or 8 digits", s)
}

func rgba8(r, g, b, a uint8) [4]float32 {
	return [4]float32{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}
