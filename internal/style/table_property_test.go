package style_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridgeline-labs/termflow/internal/style"
)

// randomStyle draws from a small style space so intern hits both the
// new-entry and existing-entry paths often.
func randomStyle(rng *rand.Rand) style.Style {
	return style.Style{
		FG:    style.FromANSI256(uint8(rng.Intn(32))),
		BG:    style.DefaultBG,
		Attrs: style.Attrs(rng.Intn(8)),
	}
}

func TestTableRandomOpsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tbl := style.New()

	// Model: refcounts we believe each live style has.
	refs := make(map[style.Style]int)
	ids := make(map[style.Style]style.ID)

	reconcile := func() {
		// get(intern(s)) == s and intern is stable for every known style.
		for s, id := range ids {
			got, ok := tbl.Get(id)
			require.True(t, ok)
			assert.Equal(t, s, got)
			again, ok := tbl.GetID(s)
			require.True(t, ok)
			assert.Equal(t, id, again)
		}
		// Entry 0 is never disturbed.
		def, ok := tbl.Get(style.DefaultID)
		require.True(t, ok)
		assert.Equal(t, style.Default, def)
		assert.GreaterOrEqual(t, tbl.RefCount(style.DefaultID), uint32(1))
	}

	for op := 0; op < 2000; op++ {
		switch rng.Intn(4) {
		case 0, 1: // intern
			s := randomStyle(rng)
			id := tbl.Intern(s)
			if prev, seen := ids[s]; seen {
				assert.Equal(t, prev, id)
			}
			ids[s] = id
			refs[s]++
		case 2: // release a known style
			for s, id := range ids {
				tbl.Release(id)
				if refs[s] > 0 {
					refs[s]--
				}
				break
			}
		case 3: // release default is a no-op
			tbl.Release(style.DefaultID)
		}
	}
	reconcile()

	// Compact drops exactly the zero-ref entries and remaps the rest
	// onto their old styles.
	preStyles := make(map[style.ID]style.Style, len(ids))
	for s, id := range ids {
		preStyles[id] = s
	}
	remap := tbl.Compact()
	assert.Equal(t, style.DefaultID, remap[0])

	survivors := make(map[style.Style]style.ID)
	for s, oldID := range ids {
		if refs[s] == 0 {
			continue
		}
		newID := remap[oldID]
		got, ok := tbl.Get(newID)
		require.True(t, ok)
		assert.Equal(t, preStyles[oldID], got)
		survivors[s] = newID
	}
	// randomStyle can produce the default style itself, which lives at
	// entry 0 and is already the "+1" below.
	wantLen := len(survivors) + 1
	if _, ok := survivors[style.Default]; ok {
		wantLen--
	}
	assert.Equal(t, wantLen, tbl.Len())

	// Interning a survivor after compaction reuses its remapped id.
	for s, id := range survivors {
		assert.Equal(t, id, tbl.Intern(s))
		break
	}
}
