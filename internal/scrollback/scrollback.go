// Package scrollback implements the terminal's off-grid line history: a
// bounded ring buffer with a tiered hot/warm/cold backing store so old
// lines cost memory proportional to how rarely they're touched.
package scrollback

import (
	"bytes"
	"compress/flate"
	"io"
)

const (
	defaultHotLines  = 500
	defaultWarmChunk = 256
)

// Scrollback is a ring of historical lines, addressed by an
// ever-increasing line number. The most recent lines are kept
// uncompressed (hot); older lines are grouped into flate-compressed
// chunks (warm), then merged into larger cold chunks once a tier fills.
type Scrollback struct {
	maxLines   int
	oldestLine int // absolute line number of the oldest retained line
	hotStart   int // absolute line number of hot[0]
	hot        []string
	warm       []chunk
	cold       []chunk
	warmChunk  int
}

type chunk struct {
	startLine int
	count     int
	data      []byte // flate-compressed, newline-joined lines
}

// New returns a Scrollback bounded to maxLines total retained lines.
func New(maxLines int) *Scrollback {
	return &Scrollback{
		maxLines:  maxLines,
		hot:       make([]string, 0, defaultHotLines),
		warmChunk: defaultWarmChunk,
	}
}

// Push appends a line, evicting the oldest retained line if the
// scrollback is at capacity.
func (s *Scrollback) Push(line string) {
	s.hot = append(s.hot, line)
	if len(s.hot) > defaultHotLines {
		s.demoteOldestHot()
	}
	s.enforceCapacity()
}

func (s *Scrollback) demoteOldestHot() {
	n := s.warmChunk
	if n > len(s.hot) {
		n = len(s.hot)
	}
	batch := s.hot[:n]
	s.warm = append(s.warm, chunk{
		startLine: s.hotStart,
		count:     len(batch),
		data:      compressLines(batch),
	})
	s.hotStart += len(batch)
	s.hot = append([]string(nil), s.hot[n:]...)

	if len(s.warm) > 4 {
		s.mergeWarmIntoCold()
	}
}

func (s *Scrollback) mergeWarmIntoCold() {
	merged := s.warm[0]
	for _, c := range s.warm[1:3] {
		lines, _ := decompressLines(merged.data, merged.count)
		more, _ := decompressLines(c.data, c.count)
		lines = append(lines, more...)
		merged = chunk{startLine: merged.startLine, count: len(lines), data: compressLines(lines)}
	}
	s.cold = append(s.cold, merged)
	s.warm = append([]chunk(nil), s.warm[3:]...)
}

func (s *Scrollback) enforceCapacity() {
	for s.Len() > s.maxLines {
		switch {
		case len(s.cold) > 0:
			s.oldestLine += s.cold[0].count
			s.cold = s.cold[1:]
		case len(s.warm) > 0:
			s.oldestLine += s.warm[0].count
			s.warm = s.warm[1:]
		default:
			if len(s.hot) == 0 {
				return
			}
			s.hot = s.hot[1:]
			s.oldestLine++
			s.hotStart++
		}
	}
}

// OldestLineNumber returns the absolute line number of the oldest
// retained line.
func (s *Scrollback) OldestLineNumber() int { return s.oldestLine }

// NextLineNumber returns the absolute line number the next Push will
// be stored under.
func (s *Scrollback) NextLineNumber() int { return s.hotStart + len(s.hot) }

// AbsoluteLine returns the line stored under absolute number n, or
// false if it was never pushed or has been evicted.
func (s *Scrollback) AbsoluteLine(n int) (string, bool) {
	if n < s.oldestLine {
		return "", false
	}
	return s.Line(n - s.oldestLine)
}

// Len returns the number of lines currently retained.
func (s *Scrollback) Len() int {
	n := len(s.hot)
	for _, c := range s.warm {
		n += c.count
	}
	for _, c := range s.cold {
		n += c.count
	}
	return n
}

// Line returns the absolute line at index idx (0-based from the oldest
// retained line), or false if out of range.
func (s *Scrollback) Line(idx int) (string, bool) {
	for _, c := range s.cold {
		if idx < c.count {
			lines, err := decompressLines(c.data, c.count)
			if err != nil || idx >= len(lines) {
				return "", false
			}
			return lines[idx], true
		}
		idx -= c.count
	}
	for _, c := range s.warm {
		if idx < c.count {
			lines, err := decompressLines(c.data, c.count)
			if err != nil || idx >= len(lines) {
				return "", false
			}
			return lines[idx], true
		}
		idx -= c.count
	}
	if idx < len(s.hot) {
		return s.hot[idx], true
	}
	return "", false
}

// Lines returns every retained line in order, oldest first. Intended
// for reindexing a SearchIndex, not for hot-path iteration.
func (s *Scrollback) Lines() []string {
	out := make([]string, 0, s.Len())
	for _, c := range s.cold {
		lines, _ := decompressLines(c.data, c.count)
		out = append(out, lines...)
	}
	for _, c := range s.warm {
		lines, _ := decompressLines(c.data, c.count)
		out = append(out, lines...)
	}
	out = append(out, s.hot...)
	return out
}

func compressLines(lines []string) []byte {
	var buf bytes.Buffer
	w, _ := flate.NewWriter(&buf, flate.BestSpeed)
	for i, l := range lines {
		if i > 0 {
			_, _ = w.Write([]byte{'\n'})
		}
		_, _ = w.Write([]byte(l))
	}
	_ = w.Close()
	return buf.Bytes()
}

func decompressLines(data []byte, count int) ([]string, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	lines := make([]string, 0, count)
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\n' {
			lines = append(lines, string(raw[start:i]))
			start = i + 1
		}
	}
	lines = append(lines, string(raw[start:]))
	return lines, nil
}
