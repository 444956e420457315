package espled

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an RGB LED color.
type Color struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// ColorFromUint32 unpacks 0xRRGGBB.
func ColorFromUint32(v uint32) Color {
	return Color{
		Red:   uint8(v >> 16),
		Green: uint8(v >> 8),
		Blue:  uint8(v),
	}
}

// ParseColor parses a hex color like "ff0040" or "#ff0040".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expect 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return ColorFromUint32(uint32(v)), nil
}

// FromHSV converts hue [0, 360], saturation and value [0, 1] to RGB.
func FromHSV(h, s, v float64) Color {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 0 || h > 360:
	case h <= 60:
		r, g = c, x
	case h <= 120:
		r, g = x, c
	case h <= 180:
		g, b = c, x
	case h <= 240:
		g, b = x, c
	case h <= 300:
		r, b = x, c
	default:
		r, b = c, x
	}
	return Color{
		Red:   uint8(math.Round((r + m) * 255)),
		Green: uint8(math.Round((g + m) * 255)),
		Blue:  uint8(math.Round((b + m) * 255)),
	}
}

// Uint32 packs the color as 0xRRGGBB.
func (c Color) Uint32() uint32 {
	return uint32(c.Red)<<16 | uint32(c.Green)<<8 | uint32(c.Blue)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", c.Uint32())
}
