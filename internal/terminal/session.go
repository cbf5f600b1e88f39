// Package terminal ties the per-pane state of the emulator together:
// a grid of packed cells, the style table their StyleIds intern into,
// tiered scrollback, and the trigram search index over it.
package terminal

import (
	"github.com/ridgeline-labs/termflow/internal/grid"
	"github.com/ridgeline-labs/termflow/internal/scrollback"
	"github.com/ridgeline-labs/termflow/internal/search"
	"github.com/ridgeline-labs/termflow/internal/style"
)

// Session is the single-owner state of one pane. Cross-goroutine
// access goes through a SessionManager, which guards each session
// with its own lock.
type Session struct {
	paneID  string
	styles  *style.Table
	grid    *grid.Grid
	history *scrollback.Scrollback
	search  *search.TerminalSearch
}

// NewSession creates a session with a cols x rows grid and a
// scrollback bounded to maxScrollback lines.
func NewSession(paneID string, cols, rows, maxScrollback int) *Session {
	return &Session{
		paneID:  paneID,
		styles:  style.New(),
		grid:    grid.New(cols, rows),
		history: scrollback.New(maxScrollback),
		search:  search.NewTerminalSearch(),
	}
}

func (s *Session) PaneID() string                  { return s.paneID }
func (s *Session) Grid() *grid.Grid                { return s.grid }
func (s *Session) Styles() *style.Table            { return s.styles }
func (s *Session) History() *scrollback.Scrollback { return s.history }

// WriteCell places r at (row, col) with the given packed colors and
// flags, interning the visual style and keeping the style table's
// refcounts in step with cell occupancy. Wide runes get the wide flag
// and a continuation cell in the next column.
func (s *Session) WriteCell(row, col int, r rune, colors grid.PackedColors, flags grid.Flags) {
	ext := grid.ExtendedStyleFromCell(colors, flags)
	id := s.styles.InternExtended(ext)

	if old, ok := s.grid.Get(row, col); ok {
		s.styles.Release(old.StyleID)
	} else {
		// Out-of-bounds write; drop the ref we just took.
		s.styles.Release(id)
		return
	}

	if grid.IsWide(r) {
		flags |= grid.FlagWide
		if cont, ok := s.grid.Get(row, col+1); ok {
			s.styles.Release(cont.StyleID)
			s.styles.AddRef(id)
			s.grid.Set(row, col+1, grid.Cell{Rune: 0, StyleID: id, Flags: flags | grid.FlagWideContinuation})
		}
	}
	s.grid.Set(row, col, grid.Cell{Rune: r, StyleID: id, Flags: flags})
}

// ScrollLine pushes text into the scrollback and indexes it for
// search, returning its absolute line number.
func (s *Session) ScrollLine(text string) int {
	s.history.Push(text)
	return s.search.IndexScrollbackLine(text)
}

// Search returns every verified match for query over the indexed
// scrollback.
func (s *Session) Search(query string) []search.Match {
	return s.search.Search(query)
}

// FindNext returns the first match after (line, col) in document
// order.
func (s *Session) FindNext(query string, line, col int) (search.Match, bool) {
	return s.search.FindNext(query, line, col)
}

// FindPrev returns the first match before (line, col) in reverse
// document order.
func (s *Session) FindPrev(query string, line, col int) (search.Match, bool) {
	return s.search.FindPrev(query, line, col)
}

// Resize changes the grid's dimensions, releasing the styles of cells
// the shrink drops.
func (s *Session) Resize(cols, rows int) {
	oldCols, oldRows := s.grid.Cols(), s.grid.Rows()
	for row := 0; row < oldRows; row++ {
		for col := 0; col < oldCols; col++ {
			if row < rows && col < cols {
				continue
			}
			if cell, ok := s.grid.Get(row, col); ok {
				s.styles.Release(cell.StyleID)
			}
		}
	}
	s.grid.Resize(cols, rows)
}

// CompactStyles reclaims zero-refcount style entries and rewrites
// every cell's StyleId through the compaction remap.
func (s *Session) CompactStyles() {
	remap := s.styles.Compact()
	for row := 0; row < s.grid.Rows(); row++ {
		for col := 0; col < s.grid.Cols(); col++ {
			cell, ok := s.grid.Get(row, col)
			if !ok || int(cell.StyleID) >= len(remap) {
				continue
			}
			cell.StyleID = remap[cell.StyleID]
			s.grid.Set(row, col, cell)
		}
	}
}

// StyleStats returns the style table's diagnostic counters.
func (s *Session) StyleStats() style.Stats {
	return s.styles.StyleTableStats()
}
