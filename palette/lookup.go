package palette

import (
	"sort"

	"github.com/raulcorreia7/art2img-sub001/errkind"
)

const lookupRecordSize = 1 + NumColors

// LookupSet holds the palette swap tables from a LOOKUP.DAT file, keyed by
// swap index.
type LookupSet struct {
	tables map[byte][]byte
}

// DecodeLookup parses a LOOKUP.DAT file: a count byte followed by that many
// records of an index byte and a 256 byte remap table. Anything after the
// records, such as the alternate palettes some games append, is ignored.
func DecodeLookup(b []byte) (*LookupSet, error) {
	if len(b) < 1 {
		return nil, errkind.New(errkind.InvalidPalette, "lookup: empty file")
	}

	count := int(b[0])
	if need := 1 + count*lookupRecordSize; len(b) < need {
		return nil, errkind.Newf(errkind.InvalidPalette, "lookup: %d tables need %d bytes, have %d", count, need, len(b))
	}

	s := &LookupSet{tables: make(map[byte][]byte, count)}
	for i := 0; i < count; i++ {
		o := 1 + i*lookupRecordSize
		table := make([]byte, NumColors)
		copy(table, b[o+1:o+lookupRecordSize])
		s.tables[b[o]] = table
	}

	return s, nil
}

// Len returns the number of tables.
func (s *LookupSet) Len() int { return len(s.tables) }

// Table returns the remap table for swap index i.
func (s *LookupSet) Table(i byte) ([]byte, bool) {
	t, ok := s.tables[i]
	return t, ok
}

// Indices returns the swap indices present, in ascending order.
func (s *LookupSet) Indices() []byte {
	keys := make([]byte, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
