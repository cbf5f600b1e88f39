package search

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// Index is a trigram-accelerated substring search structure: a bloom
// filter for fast negative lookups, a trigram-to-line posting table for
// candidate generation, and a per-line text cache for verification and
// exact column reporting.
type Index struct {
	bloom     *bloomFilter
	trigrams  map[[3]byte]*roaring.Bitmap
	lines     map[uint32]string
	lineCount uint32
	nextLine  uint32
}

// New returns an Index sized for a generic session.
func New() *Index { return WithCapacity(100_000) }

// WithCapacity sizes the bloom filter and trigram table for an expected
// number of lines.
func WithCapacity(expectedLines int) *Index {
	if expectedLines < 1000 {
		expectedLines = 1000
	}
	return &Index{
		bloom:    newBloomFilter(expectedLines),
		trigrams: make(map[[3]byte]*roaring.Bitmap, expectedLines/10),
		lines:    make(map[uint32]string),
	}
}

func trigramWindows(text string) [][3]byte {
	if len(text) < 3 {
		return nil
	}
	out := make([][3]byte, 0, len(text)-2)
	for i := 0; i+3 <= len(text); i++ {
		out = append(out, [3]byte{text[i], text[i+1], text[i+2]})
	}
	return out
}

// IndexLine (re)indexes lineNum with text. Reindexing first removes the
// line's prior trigrams so the index stays accurate for overwritten
// content; posting bitmaps are kept (possibly empty) for reuse.
func (idx *Index) IndexLine(lineNum int, text string) {
	ln := uint32(lineNum)
	if old, ok := idx.lines[ln]; ok {
		idx.removeTrigrams(ln, old)
	}
	for _, tri := range trigramWindows(text) {
		idx.bloom.Add(tri[:])
		bm, ok := idx.trigrams[tri]
		if !ok {
			bm = roaring.New()
			idx.trigrams[tri] = bm
		}
		bm.Add(ln)
	}
	idx.lines[ln] = text
	if ln+1 > idx.lineCount {
		idx.lineCount = ln + 1
	}
	if ln+1 > idx.nextLine {
		idx.nextLine = ln + 1
	}
}

func (idx *Index) removeTrigrams(lineNum uint32, text string) {
	for _, tri := range trigramWindows(text) {
		if bm, ok := idx.trigrams[tri]; ok {
			bm.Remove(lineNum)
		}
	}
}

// PushLine indexes text as the next line and returns its assigned
// line number.
func (idx *Index) PushLine(text string) int {
	ln := int(idx.nextLine)
	idx.IndexLine(ln, text)
	return ln
}

// MightContain reports whether query could be present anywhere in the
// index; a false result is a guarantee it is not, per the bloom
// filter's no-false-negatives property. Queries shorter than a trigram
// always might-contain.
func (idx *Index) MightContain(query string) bool {
	if len(query) < 3 {
		return true
	}
	for _, tri := range trigramWindows(query) {
		if !idx.bloom.MightContain(tri[:]) {
			return false
		}
	}
	return true
}

// candidates returns the bitmap of line numbers that might contain
// query: all indexed lines for sub-trigram queries, an empty bitmap on
// a bloom miss or unknown trigram, or the intersection of posting
// bitmaps across every trigram window otherwise.
func (idx *Index) candidates(query string) *roaring.Bitmap {
	if len(query) < 3 {
		bm := roaring.New()
		if idx.lineCount > 0 {
			bm.AddRange(0, uint64(idx.lineCount))
		}
		return bm
	}
	if !idx.MightContain(query) {
		return roaring.New()
	}
	windows := trigramWindows(query)
	var result *roaring.Bitmap
	for _, tri := range windows {
		bm, ok := idx.trigrams[tri]
		if !ok {
			return roaring.New()
		}
		if result == nil {
			result = bm.Clone()
		} else {
			result.And(bm)
		}
	}
	if result == nil {
		return roaring.New()
	}
	return result
}

// Search returns every candidate line number that may contain query,
// in ascending order. Use SearchWithPositions for verified, column
// level matches.
func (idx *Index) Search(query string) []int {
	bm := idx.candidates(query)
	arr := bm.ToArray()
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

func matchesInLine(query string, line int, text string) []Match {
	if query == "" {
		return nil
	}
	var out []Match
	start := 0
	for start <= len(text) {
		rel := strings.Index(text[start:], query)
		if rel < 0 {
			break
		}
		abs := start + rel
		out = append(out, Match{Line: line, StartCol: abs, EndCol: abs + len(query)})
		start = abs + 1
	}
	return out
}

// SearchWithPositions verifies every candidate line by substring
// search, returning exact (line, start, end) matches. An empty query
// returns immediately with no matches.
func (idx *Index) SearchWithPositions(query string) []Match {
	if query == "" {
		return nil
	}
	var out []Match
	for _, ln := range idx.Search(query) {
		text, ok := idx.lines[uint32(ln)]
		if !ok {
			continue
		}
		out = append(out, matchesInLine(query, ln, text)...)
	}
	return out
}
