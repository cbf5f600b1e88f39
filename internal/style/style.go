package style

// ID is an opaque handle into a StyleTable. ID 0 is reserved for the
// default Style and is permanent.
type ID uint16

// DefaultID is the StyleId of the table's permanent default entry.
const DefaultID ID = 0

// Style is a value-typed (fg, bg, attrs) triple. Equality and hashing
// are structural, which makes it usable as a Go map key directly.
type Style struct {
	FG, BG Color
	Attrs  Attrs
}

// Default is the zero-value style: default colors, no attributes.
var Default = Style{FG: DefaultFG, BG: DefaultBG, Attrs: 0}

// ColorType records how a color channel was expressed before interning,
// so the cell-level encoding can be restored losslessly after the Style
// has been deduplicated into the table.
type ColorType uint8

const (
	ColorDefault ColorType = iota
	ColorIndexed
	ColorRGB
)

// ExtendedStyle augments a Style with per-channel color-type metadata,
// the lossless bridge between a grid cell's packed color encoding and
// the deduplicated Style stored in a StyleTable.
type ExtendedStyle struct {
	Style            Style
	FGType, BGType   ColorType
	FGIndex, BGIndex uint8
}
