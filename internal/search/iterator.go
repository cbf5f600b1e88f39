package search

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// SearchOrdered returns every match for query, sorted ascending
// (line, col) for Forward or descending for Backward.
func (idx *Index) SearchOrdered(query string, dir Direction) []Match {
	matches := idx.SearchWithPositions(query)
	sort.Slice(matches, func(i, j int) bool {
		if dir == Forward {
			if matches[i].Line != matches[j].Line {
				return matches[i].Line < matches[j].Line
			}
			return matches[i].StartCol < matches[j].StartCol
		}
		if matches[i].Line != matches[j].Line {
			return matches[i].Line > matches[j].Line
		}
		return matches[i].StartCol > matches[j].StartCol
	})
	return matches
}

// ForwardIterator lazily yields matches for a query starting at a given
// line, in ascending (line, col) order, pulling candidate lines from a
// range-sliced posting bitmap on demand.
type ForwardIterator struct {
	idx        *Index
	query      string
	it         roaring.IntPeekable
	curMatches []Match
	curPos     int
}

// SearchFromLine returns a lazily-evaluated iterator over matches at or
// after fromLine.
func (idx *Index) SearchFromLine(query string, fromLine int) *ForwardIterator {
	fi := &ForwardIterator{idx: idx, query: query}
	if query == "" {
		return fi
	}
	var bm *roaring.Bitmap
	if len(query) < 3 {
		bm = roaring.New()
		if idx.lineCount > uint32(fromLine) {
			bm.AddRange(uint64(fromLine), uint64(idx.lineCount))
		}
	} else if !idx.MightContain(query) {
		bm = roaring.New()
	} else {
		bm = idx.candidates(query)
	}
	it := bm.Iterator()
	if fromLine > 0 {
		it.AdvanceIfNeeded(uint32(fromLine))
	}
	fi.it = it
	return fi
}

// Next returns the next match, or false once exhausted. Lines whose
// candidate status turns out to be a false positive (no actual
// substring match) are skipped transparently.
func (fi *ForwardIterator) Next() (Match, bool) {
	for {
		if fi.curPos < len(fi.curMatches) {
			m := fi.curMatches[fi.curPos]
			fi.curPos++
			return m, true
		}
		if fi.it == nil || !fi.it.HasNext() {
			return Match{}, false
		}
		line := int(fi.it.Next())
		text, ok := fi.idx.lines[uint32(line)]
		if !ok {
			continue
		}
		fi.curMatches = matchesInLine(fi.query, line, text)
		fi.curPos = 0
	}
}

// ReverseIterator is the descending-order counterpart of
// ForwardIterator: candidates strictly before a line, per-line matches
// yielded rightmost-column first.
type ReverseIterator struct {
	idx        *Index
	query      string
	it         roaring.IntIterable
	curMatches []Match
	curPos     int
}

// SearchBeforeLine returns a lazily-evaluated iterator over matches
// strictly before beforeLine, descending by (line, col).
func (idx *Index) SearchBeforeLine(query string, beforeLine int) *ReverseIterator {
	ri := &ReverseIterator{idx: idx, query: query}
	if query == "" {
		return ri
	}
	var bm *roaring.Bitmap
	if len(query) < 3 {
		bm = roaring.New()
		if beforeLine > 0 {
			bm.AddRange(0, uint64(beforeLine))
		}
	} else if !idx.MightContain(query) {
		bm = roaring.New()
	} else {
		bm = idx.candidates(query)
		if beforeLine >= 0 {
			bm.RemoveRange(uint64(beforeLine), uint64(math.MaxUint32)+1)
		}
	}
	ri.it = bm.ReverseIterator()
	return ri
}

// Next returns the next match in descending order, or false once
// exhausted.
func (ri *ReverseIterator) Next() (Match, bool) {
	for {
		if ri.curPos < len(ri.curMatches) {
			m := ri.curMatches[ri.curPos]
			ri.curPos++
			return m, true
		}
		if ri.it == nil || !ri.it.HasNext() {
			return Match{}, false
		}
		line := int(ri.it.Next())
		text, ok := ri.idx.lines[uint32(line)]
		if !ok {
			continue
		}
		matches := matchesInLine(ri.query, line, text)
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
		ri.curMatches = matches
		ri.curPos = 0
	}
}
