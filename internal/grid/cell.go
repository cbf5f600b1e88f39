// Package grid implements the packed-cell terminal grid: per-cell color
// and flag encoding, and the bridge to interned styles.
package grid

import (
	"github.com/ridgeline-labs/termflow/internal/style"
)

// ColorMode selects how a cell's fg/bg channel is encoded.
type ColorMode uint8

const (
	ColorModeDefault ColorMode = iota
	ColorModeIndexed
	ColorModeRGB
)

// PackedColors is the cell-level color encoding: a mode plus either a
// palette index or inline RGB for each of fg/bg.
type PackedColors struct {
	FGMode  ColorMode
	BGMode  ColorMode
	FGIndex uint8
	BGIndex uint8
	FGRGB   style.Color
	BGRGB   style.Color
}

// Flags is the cell-level flag bitset: a subset maps to visual style
// attributes, the rest (Wide, WideContinuation, Complex) are cell
// structure bits that never flow through Style/StyleId.
type Flags uint16

const (
	FlagBold Flags = 1 << iota
	FlagDim
	FlagItalic
	FlagUnderline
	FlagBlink
	FlagInverse
	FlagHidden
	FlagStrikethrough
	FlagDoubleUnderline
	FlagCurlyUnderline
	FlagWide
	FlagWideContinuation
	FlagComplex
)

// styleFlagMask is the subset of Flags bits that correspond to visual
// style attributes and round-trip through a StyleTable. Dotted and
// dashed underline are StyleAttrs values with no CellFlags counterpart;
// a cell can only ever request one underline rendering, so the bridge
// does not carry them.
const styleFlagMask = FlagBold | FlagDim | FlagItalic | FlagUnderline | FlagBlink |
	FlagInverse | FlagHidden | FlagStrikethrough | FlagDoubleUnderline | FlagCurlyUnderline

// CellFlagsToAttrs maps the visual-style subset of f to style.Attrs.
func CellFlagsToAttrs(f Flags) style.Attrs {
	var a style.Attrs
	pairs := []struct {
		flag Flags
		attr style.Attrs
	}{
		{FlagBold, style.Bold},
		{FlagDim, style.Dim},
		{FlagItalic, style.Italic},
		{FlagUnderline, style.Underline},
		{FlagBlink, style.Blink},
		{FlagInverse, style.Inverse},
		{FlagHidden, style.Hidden},
		{FlagStrikethrough, style.Strikethrough},
		{FlagDoubleUnderline, style.DoubleUnderline},
		{FlagCurlyUnderline, style.CurlyUnderline},
	}
	for _, p := range pairs {
		if f&p.flag != 0 {
			a |= p.attr
		}
	}
	return a
}

// AttrsToCellFlags is the inverse of CellFlagsToAttrs, restoring the
// style portion of a cell's flags. Non-style bits (wide, etc.) are not
// touched and must be OR'd in by the caller.
func AttrsToCellFlags(a style.Attrs) Flags {
	var f Flags
	pairs := []struct {
		attr style.Attrs
		flag Flags
	}{
		{style.Bold, FlagBold},
		{style.Dim, FlagDim},
		{style.Italic, FlagItalic},
		{style.Underline, FlagUnderline},
		{style.Blink, FlagBlink},
		{style.Inverse, FlagInverse},
		{style.Hidden, FlagHidden},
		{style.Strikethrough, FlagStrikethrough},
		{style.DoubleUnderline, FlagDoubleUnderline},
		{style.CurlyUnderline, FlagCurlyUnderline},
	}
	for _, p := range pairs {
		if a&p.attr != 0 {
			f |= p.flag
		}
	}
	return f
}

// ExtendedStyleFromCell builds an ExtendedStyle from a cell's packed
// color encoding and flags, resolving indexed colors to RGB so that
// cells sharing an index dedupe against cells that specify the same
// final RGB directly.
func ExtendedStyleFromCell(colors PackedColors, flags Flags) style.ExtendedStyle {
	fg, fgType, fgIndex := resolveChannel(colors.FGMode, colors.FGIndex, colors.FGRGB, style.DefaultFG)
	bg, bgType, bgIndex := resolveChannel(colors.BGMode, colors.BGIndex, colors.BGRGB, style.DefaultBG)
	return style.ExtendedStyle{
		Style:   style.Style{FG: fg, BG: bg, Attrs: CellFlagsToAttrs(flags & styleFlagMask)},
		FGType:  fgType,
		BGType:  bgType,
		FGIndex: fgIndex,
		BGIndex: bgIndex,
	}
}

func resolveChannel(mode ColorMode, index uint8, rgb style.Color, def style.Color) (style.Color, style.ColorType, uint8) {
	switch mode {
	case ColorModeIndexed:
		return style.FromANSI256(index), style.ColorIndexed, index
	case ColorModeRGB:
		return rgb, style.ColorRGB, 0
	default:
		return def, style.ColorDefault, 0
	}
}

// ToPackedColors restores the per-channel color mode from an
// ExtendedStyle. RGB-mode channels carry their color out of band in the
// returned PackedColors.
func ToPackedColors(ext style.ExtendedStyle) PackedColors {
	pc := PackedColors{}
	switch ext.FGType {
	case style.ColorIndexed:
		pc.FGMode = ColorModeIndexed
		pc.FGIndex = ext.FGIndex
	case style.ColorRGB:
		pc.FGMode = ColorModeRGB
		pc.FGRGB = ext.Style.FG
	default:
		pc.FGMode = ColorModeDefault
	}
	switch ext.BGType {
	case style.ColorIndexed:
		pc.BGMode = ColorModeIndexed
		pc.BGIndex = ext.BGIndex
	case style.ColorRGB:
		pc.BGMode = ColorModeRGB
		pc.BGRGB = ext.Style.BG
	default:
		pc.BGMode = ColorModeDefault
	}
	return pc
}

// Cell is one grid position: a glyph, the StyleId governing its visual
// style, and structural flags that never pass through Style/StyleId.
type Cell struct {
	Rune    rune
	StyleID style.ID
	Flags   Flags
}
