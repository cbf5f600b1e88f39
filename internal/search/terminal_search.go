package search

// TerminalSearch is the integration surface a terminal session uses:
// a SearchIndex plus a running count of indexed scrollback lines.
type TerminalSearch struct {
	index                  *Index
	indexedScrollbackLines int
}

// NewTerminalSearch returns a TerminalSearch over a freshly sized Index.
func NewTerminalSearch() *TerminalSearch {
	return &TerminalSearch{index: New()}
}

// IndexScrollbackLine appends text to the index and counts it.
func (ts *TerminalSearch) IndexScrollbackLine(text string) int {
	ln := ts.index.PushLine(text)
	ts.indexedScrollbackLines++
	return ln
}

// IndexScrollbackLines indexes every line in order.
func (ts *TerminalSearch) IndexScrollbackLines(lines []string) {
	for _, l := range lines {
		ts.IndexScrollbackLine(l)
	}
}

// IndexVisibleContent reindexes a contiguous range in place, used when
// the visible grid is redrawn.
func (ts *TerminalSearch) IndexVisibleContent(baseLine int, lines []string) {
	for offset, line := range lines {
		ts.index.IndexLine(baseLine+offset, line)
	}
}

// IndexedScrollbackLines returns the running count of indexed lines.
func (ts *TerminalSearch) IndexedScrollbackLines() int { return ts.indexedScrollbackLines }

// Search returns every verified match for query.
func (ts *TerminalSearch) Search(query string) []Match {
	return ts.index.SearchWithPositions(query)
}

// SearchOrdered returns every verified match for query, sorted per dir.
func (ts *TerminalSearch) SearchOrdered(query string, dir Direction) []Match {
	return ts.index.SearchOrdered(query, dir)
}

// FindNext returns the first match strictly after (afterLine, afterCol)
// in document order.
func (ts *TerminalSearch) FindNext(query string, afterLine, afterCol int) (Match, bool) {
	it := ts.index.SearchFromLine(query, afterLine)
	for {
		m, ok := it.Next()
		if !ok {
			return Match{}, false
		}
		if m.Line > afterLine || (m.Line == afterLine && m.StartCol > afterCol) {
			return m, true
		}
	}
}

// FindPrev returns the first match strictly before (beforeLine,
// beforeCol) in reverse document order.
func (ts *TerminalSearch) FindPrev(query string, beforeLine, beforeCol int) (Match, bool) {
	it := ts.index.SearchBeforeLine(query, beforeLine+1)
	for {
		m, ok := it.Next()
		if !ok {
			return Match{}, false
		}
		if m.Line < beforeLine || (m.Line == beforeLine && m.StartCol < beforeCol) {
			return m, true
		}
	}
}

// Clear drops the whole index and resets the scrollback counter.
func (ts *TerminalSearch) Clear() {
	ts.index = New()
	ts.indexedScrollbackLines = 0
}
