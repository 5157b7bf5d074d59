/*
Package art implements a decoder for Build engine ART tile archives.

An archive holds a contiguous range of tiles. It starts with a header of
three 32-bit values (version, first tile and last tile) followed by three
parallel tables with one entry per tile: 16-bit widths, 16-bit heights and
32-bit packed animation words ("picanm"), in that order. The palette index
bytes of every tile follow, concatenated in tile order. Each tile is stored
column by column, so the first height bytes are the leftmost column.

Many archives in the wild carry a fourth header field, a tile count, between
the version and the tile range; those are accepted as well.
*/
package art

const (
	// MaxDimension is the largest width or height a tile may declare.
	MaxDimension = 32767

	headerSize       = 12
	legacyHeaderSize = 16
	tableEntrySize   = 2 + 2 + 4
)

// Header is the fixed ART header.
type Header struct {
	Version uint32
	Start   uint32
	End     uint32
}

// NumTiles returns the number of tiles in the range [Start, End].
func (h Header) NumTiles() int {
	if h.End < h.Start {
		return 0
	}
	return int(h.End-h.Start) + 1
}

// Tile is one paletted image inside an Archive. Pixels and Remap borrow from
// the Archive's buffers and must not outlive it or be modified.
type Tile struct {
	Width     int
	Height    int
	Pixels    []byte // column-major palette indices, Width*Height bytes
	Remap     []byte // optional palette index substitution table
	Animation Animation
}

// Empty reports whether the tile is a zero-sized placeholder.
func (t Tile) Empty() bool {
	return t.Width == 0 && t.Height == 0
}

// Valid reports whether the tile is either empty or has positive dimensions
// with exactly Width*Height pixels.
func (t Tile) Valid() bool {
	if t.Empty() {
		return len(t.Pixels) == 0
	}
	return t.Width > 0 && t.Height > 0 &&
		t.Width <= MaxDimension && t.Height <= MaxDimension &&
		len(t.Pixels) == t.Width*t.Height
}

// At returns the palette index at column x, row y.
func (t Tile) At(x, y int) byte {
	return t.Pixels[x*t.Height+y]
}

// PaletteHint tells the caller's I/O layer where to look for the files that
// go with an archive. It is carried, not interpreted, by this package.
type PaletteHint int

const (
	// HintNone means the caller supplies everything explicitly.
	HintNone PaletteHint = iota
	// HintSidecar looks for PALETTE.DAT beside the archive.
	HintSidecar
	// HintLookup looks for LOOKUP.DAT beside the archive.
	HintLookup
	// HintBoth looks for both files.
	HintBoth
)

var hintNames = [...]string{"none", "sidecar", "lookup", "both"}

func (h PaletteHint) String() string {
	if h < 0 || int(h) >= len(hintNames) {
		return "unknown"
	}
	return hintNames[h]
}

// ParsePaletteHint is the inverse of PaletteHint.String.
func ParsePaletteHint(s string) (PaletteHint, bool) {
	for i, n := range hintNames {
		if n == s {
			return PaletteHint(i), true
		}
	}
	return HintNone, false
}

// Sidecar reports whether PALETTE.DAT should be looked up.
func (h PaletteHint) Sidecar() bool { return h == HintSidecar || h == HintBoth }

// Lookup reports whether LOOKUP.DAT should be looked up.
func (h PaletteHint) Lookup() bool { return h == HintLookup || h == HintBoth }
