// Package style implements compact style interning for the terminal grid:
// colors, attribute bitflags, and a refcounted Style -> StyleId table.
package style

// Color is a 4-byte RGBA color.
type Color struct {
	R, G, B, A uint8
}

// DefaultFG and DefaultBG are the terminal's default foreground and
// background colors, both fully opaque.
var (
	DefaultFG = Color{R: 255, G: 255, B: 255, A: 255}
	DefaultBG = Color{R: 0, G: 0, B: 0, A: 255}
)

var ansi16 = [16]Color{
	{0, 0, 0, 255},
	{205, 0, 0, 255},
	{0, 205, 0, 255},
	{205, 205, 0, 255},
	{0, 0, 238, 255},
	{205, 0, 205, 255},
	{0, 205, 205, 255},
	{229, 229, 229, 255},
	{127, 127, 127, 255},
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{255, 255, 0, 255},
	{92, 92, 255, 255},
	{255, 0, 255, 255},
	{0, 255, 255, 255},
	{255, 255, 255, 255},
}

// FromANSI256 resolves an xterm 256-color palette index to RGB:
// 0-15 are the named ANSI colors, 16-231 are a 6x6x6 color cube, and
// 232-255 are a 24-step grayscale ramp.
func FromANSI256(index uint8) Color {
	switch {
	case index < 16:
		return ansi16[index]
	case index < 232:
		idx := int(index) - 16
		r := cubeComponent(idx / 36)
		g := cubeComponent((idx % 36) / 6)
		b := cubeComponent(idx % 6)
		return Color{R: r, G: g, B: b, A: 255}
	default:
		gray := uint8(8 + (int(index)-232)*10)
		return Color{R: gray, G: gray, B: gray, A: 255}
	}
}

func cubeComponent(level int) uint8 {
	if level == 0 {
		return 0
	}
	return uint8(55 + level*40)
}
