package style

import "math"

// maxStyles bounds the table at the 16-bit StyleId space; the 65,536th
// slot is never allocated so every in-range id still fits a uint16.
const maxStyles = math.MaxUint16

// extendedInfo records color-type metadata the first time an extended
// style is interned for a given id; later intern_extended calls on an
// existing id do not overwrite it.
type extendedInfo struct {
	fgType, bgType   ColorType
	fgIndex, bgIndex uint8
	set              bool
}

// Table interns (fg, bg, attrs) Styles into compact 16-bit ids with
// saturating reference counts. It is single-owner: callers that need to
// share a Table across goroutines must wrap it in an external mutex.
type Table struct {
	styles    []Style
	refCounts []uint32
	lookup    map[Style]ID
	extended  []extendedInfo
}

// New returns a table with entry 0 installed as the default Style with
// refcount 1.
func New() *Table {
	return WithCapacity(0)
}

// WithCapacity pre-sizes the backing storage for n expected styles.
func WithCapacity(n int) *Table {
	t := &Table{
		styles:    make([]Style, 0, n+1),
		refCounts: make([]uint32, 0, n+1),
		lookup:    make(map[Style]ID, n+1),
		extended:  make([]extendedInfo, 0, n+1),
	}
	t.styles = append(t.styles, Default)
	t.refCounts = append(t.refCounts, 1)
	t.extended = append(t.extended, extendedInfo{})
	t.lookup[Default] = DefaultID
	return t
}

// Intern returns the id for s, creating a new entry if none exists yet.
// An existing entry's refcount is incremented (saturating).
func (t *Table) Intern(s Style) ID {
	if id, ok := t.lookup[s]; ok {
		t.addRefLocked(id)
		return id
	}
	return t.insertNew(s, nil)
}

// InternExtended behaves like Intern but additionally records the
// extended color-type info the first time this id is created.
func (t *Table) InternExtended(ext ExtendedStyle) ID {
	if id, ok := t.lookup[ext.Style]; ok {
		t.addRefLocked(id)
		return id
	}
	return t.insertNew(ext.Style, &ext)
}

func (t *Table) insertNew(s Style, ext *ExtendedStyle) ID {
	if len(t.styles) >= maxStyles {
		return DefaultID
	}
	id := ID(len(t.styles))
	t.styles = append(t.styles, s)
	t.refCounts = append(t.refCounts, 1)
	info := extendedInfo{}
	if ext != nil {
		info = extendedInfo{fgType: ext.FGType, bgType: ext.BGType, fgIndex: ext.FGIndex, bgIndex: ext.BGIndex, set: true}
	}
	t.extended = append(t.extended, info)
	t.lookup[s] = id
	return id
}

// AddRef increments the refcount for id (saturating); unknown ids are a
// no-op.
func (t *Table) AddRef(id ID) {
	t.addRefLocked(id)
}

func (t *Table) addRefLocked(id ID) {
	if int(id) >= len(t.refCounts) {
		return
	}
	if t.refCounts[id] < math.MaxUint32 {
		t.refCounts[id]++
	}
}

// Release decrements the refcount for id (saturating at zero). Entry 0
// is never decremented.
func (t *Table) Release(id ID) {
	if id == DefaultID || int(id) >= len(t.refCounts) {
		return
	}
	if t.refCounts[id] > 0 {
		t.refCounts[id]--
	}
}

// ReleaseBatch releases every id in ids.
func (t *Table) ReleaseBatch(ids []ID) {
	for _, id := range ids {
		t.Release(id)
	}
}

// Get returns the Style for id, or false if id is out of range.
func (t *Table) Get(id ID) (Style, bool) {
	if int(id) >= len(t.styles) {
		return Style{}, false
	}
	return t.styles[id], true
}

// GetExtended composes the stored Style with any recorded color-type
// info for id.
func (t *Table) GetExtended(id ID) (ExtendedStyle, bool) {
	s, ok := t.Get(id)
	if !ok {
		return ExtendedStyle{}, false
	}
	info := t.extended[id]
	return ExtendedStyle{
		Style:   s,
		FGType:  info.fgType,
		BGType:  info.bgType,
		FGIndex: info.fgIndex,
		BGIndex: info.bgIndex,
	}, true
}

// GetID looks up the id for a structurally equal style without
// affecting its refcount.
func (t *Table) GetID(s Style) (ID, bool) {
	id, ok := t.lookup[s]
	return id, ok
}

// RefCount returns the current refcount of id, or 0 if out of range.
func (t *Table) RefCount(id ID) uint32 {
	if int(id) >= len(t.refCounts) {
		return 0
	}
	return t.refCounts[id]
}

// Len returns the number of entries currently stored, including
// zero-refcount ones awaiting compaction.
func (t *Table) Len() int { return len(t.styles) }

// IsEmpty reports whether only the default entry remains.
func (t *Table) IsEmpty() bool { return len(t.styles) <= 1 }

// ActiveCount returns the number of entries with a non-zero refcount.
func (t *Table) ActiveCount() int {
	n := 0
	for _, rc := range t.refCounts {
		if rc > 0 {
			n++
		}
	}
	return n
}

// Compact removes every zero-refcount entry (except entry 0, which is
// permanent) in a single in-place pass and returns the old-id to new-id
// remap table; remap[0] is always 0.
func (t *Table) Compact() []ID {
	remap := make([]ID, len(t.styles))
	remap[0] = DefaultID
	write := 1
	for read := 1; read < len(t.styles); read++ {
		if t.refCounts[read] == 0 {
			continue
		}
		remap[read] = ID(write)
		if write != read {
			t.styles[write] = t.styles[read]
			t.refCounts[write] = t.refCounts[read]
			t.extended[write] = t.extended[read]
		}
		write++
	}
	t.styles = t.styles[:write]
	t.refCounts = t.refCounts[:write]
	t.extended = t.extended[:write]

	t.lookup = make(map[Style]ID, write)
	for i, s := range t.styles {
		t.lookup[s] = ID(i)
	}
	return remap
}

// Clear truncates the table back to only the default entry.
func (t *Table) Clear() {
	t.styles = t.styles[:1]
	t.refCounts = t.refCounts[:1]
	t.extended = t.extended[:1]
	t.lookup = map[Style]ID{Default: DefaultID}
}

// Stats summarizes the table for diagnostics and persistence snapshots.
type Stats struct {
	TotalStyles  int
	ActiveStyles int
	TotalRefs    uint64
	MemoryBytes  uint64
}

// MemoryUsed estimates the table's backing memory in bytes.
func (t *Table) MemoryUsed() uint64 {
	const styleSize = 10 // fg(4) + bg(4) + attrs(2)
	const refSize = 4
	const extSize = 4
	return uint64(len(t.styles)) * (styleSize + refSize + extSize)
}

// StyleTableStats returns a snapshot of table-wide counters, suitable
// for persisting alongside a StyleTable snapshot.
func (t *Table) StyleTableStats() Stats {
	var totalRefs uint64
	for _, rc := range t.refCounts {
		totalRefs += uint64(rc)
	}
	return Stats{
		TotalStyles:  len(t.styles),
		ActiveStyles: t.ActiveCount(),
		TotalRefs:    totalRefs,
		MemoryBytes:  t.MemoryUsed(),
	}
}
