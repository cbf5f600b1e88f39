package grid

import "github.com/unilibs/uniwidth"

// RuneWidth returns the terminal display width of r: 2 for wide
// characters (CJK, emoji), 1 for normal, 0 for zero-width combining
// marks and control characters.
func RuneWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}

// IsWide reports whether r occupies two grid columns.
func IsWide(r rune) bool {
	return RuneWidth(r) == 2
}
