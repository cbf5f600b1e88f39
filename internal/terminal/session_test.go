package terminal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/grid"
	"github.com/ridgeline-labs/termflow/internal/style"
)

func boldRed() (grid.PackedColors, grid.Flags) {
	colors := grid.PackedColors{
		FGMode: grid.ColorModeRGB,
		FGRGB:  style.Color{R: 255, A: 255},
	}
	return colors, grid.FlagBold
}

func TestSession_WriteCellInternsStyle(t *testing.T) {
	s := NewSession("p1", 80, 24, 1000)
	colors, flags := boldRed()

	s.WriteCell(0, 0, 'x', colors, flags)
	s.WriteCell(0, 1, 'y', colors, flags)

	cellA, ok := s.Grid().Get(0, 0)
	require.True(t, ok)
	cellB, _ := s.Grid().Get(0, 1)
	assert.Equal(t, cellA.StyleID, cellB.StyleID)
	assert.NotEqual(t, style.DefaultID, cellA.StyleID)
	assert.Equal(t, uint32(2), s.Styles().RefCount(cellA.StyleID))

	got, ok := s.Styles().Get(cellA.StyleID)
	require.True(t, ok)
	assert.True(t, got.Attrs.Has(style.Bold))
	assert.Equal(t, uint8(255), got.FG.R)
}

func TestSession_OverwriteReleasesOldStyle(t *testing.T) {
	s := NewSession("p1", 80, 24, 1000)
	colors, flags := boldRed()

	s.WriteCell(0, 0, 'x', colors, flags)
	cell, _ := s.Grid().Get(0, 0)
	oldID := cell.StyleID

	s.WriteCell(0, 0, 'y', grid.PackedColors{}, 0)
	assert.Equal(t, uint32(0), s.Styles().RefCount(oldID))
}

func TestSession_WideRuneTakesTwoCells(t *testing.T) {
	s := NewSession("p1", 80, 24, 1000)

	s.WriteCell(0, 0, '世', grid.PackedColors{}, 0)

	cell, _ := s.Grid().Get(0, 0)
	assert.NotZero(t, cell.Flags&grid.FlagWide)
	cont, _ := s.Grid().Get(0, 1)
	assert.NotZero(t, cont.Flags&grid.FlagWideContinuation)
	assert.Equal(t, cell.StyleID, cont.StyleID)
}

func TestSession_CompactRemapsCells(t *testing.T) {
	s := NewSession("p1", 80, 24, 1000)
	colorsA, flagsA := boldRed()
	colorsB := grid.PackedColors{FGMode: grid.ColorModeIndexed, FGIndex: 33}

	// First style becomes garbage after the overwrite.
	s.WriteCell(0, 0, 'x', colorsA, flagsA)
	s.WriteCell(0, 0, 'y', colorsB, grid.FlagItalic)
	before := s.Styles().Len()

	s.CompactStyles()

	assert.Less(t, s.Styles().Len(), before)
	cell, _ := s.Grid().Get(0, 0)
	got, ok := s.Styles().Get(cell.StyleID)
	require.True(t, ok)
	assert.True(t, got.Attrs.Has(style.Italic))
}

func TestSession_ResizeReleasesDroppedCells(t *testing.T) {
	s := NewSession("p1", 4, 2, 1000)
	colors, flags := boldRed()
	s.WriteCell(1, 3, 'x', colors, flags)
	cell, _ := s.Grid().Get(1, 3)
	id := cell.StyleID

	s.Resize(2, 1)

	assert.Equal(t, uint32(0), s.Styles().RefCount(id))
	assert.Equal(t, 2, s.Grid().Cols())
	assert.Equal(t, 1, s.Grid().Rows())
}

func TestSession_ScrollAndSearch(t *testing.T) {
	s := NewSession("p1", 80, 24, 1000)
	s.ScrollLine("hello world")
	s.ScrollLine("goodbye world")

	matches := s.Search("world")
	require.Len(t, matches, 2)

	m, ok := s.FindNext("world", 0, 6)
	require.True(t, ok)
	assert.Equal(t, 1, m.Line)

	line, ok := s.History().AbsoluteLine(1)
	require.True(t, ok)
	assert.Equal(t, "goodbye world", line)
}

func TestSessionManager_Concurrency(t *testing.T) {
	m := NewSessionManager()
	m.Create("p1", 80, 24, 1000)
	m.Create("p2", 80, 24, 1000)
	assert.Equal(t, 2, m.Len())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.With("p1", func(s *Session) {
					s.ScrollLine("line from worker")
				})
			}
		}()
	}
	wg.Wait()

	var total int
	ok := m.With("p1", func(s *Session) { total = s.History().Len() })
	require.True(t, ok)
	assert.Equal(t, 800, total)

	assert.True(t, m.Remove("p2"))
	assert.False(t, m.Remove("p2"))
	assert.False(t, m.With("p2", func(*Session) {}))
	assert.ElementsMatch(t, []string{"p1"}, m.PaneIDs())
}
