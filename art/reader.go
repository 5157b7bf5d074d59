package art

import (
	"github.com/raulcorreia7/art2img-sub001/cursor"
	"github.com/raulcorreia7/art2img-sub001/errkind"
)

// DecodeOptions controls Decode. The zero value attaches no remap table.
type DecodeOptions struct {
	// Remap, if set, is copied into the archive and attached to every tile.
	Remap []byte
	// Hint is carried on the Archive for the caller's I/O layer.
	Hint PaletteHint
}

// Archive is a decoded ART file. It owns the pixel and remap buffers that
// its tiles borrow, and is immutable and safe for concurrent use.
type Archive struct {
	Header
	Hint PaletteHint

	pixels []byte
	remap  []byte
	tiles  []Tile
	ids    []uint32
}

type decoder struct {
	b          []byte
	headerSize int

	hdr     Header
	picanm  []uint32
	widths  []uint16
	heights []uint16
	total   int
	pixels  []byte
}

func errArt(format string, a ...interface{}) error {
	return errkind.Newf(errkind.InvalidArt, format, a...)
}

func (d *decoder) readHeader() error {
	if len(d.b) < d.headerSize {
		return errArt("need at least %d header bytes, have %d", d.headerSize, len(d.b))
	}

	d.hdr.Version = cursor.Uint32(d.b, 0)
	d.hdr.Start = cursor.Uint32(d.b, d.headerSize-8)
	d.hdr.End = cursor.Uint32(d.b, d.headerSize-4)

	if d.hdr.End < d.hdr.Start {
		return errArt("last tile %d before first tile %d", d.hdr.End, d.hdr.Start)
	}
	return nil
}

func (d *decoder) readTables() error {
	n := uint64(d.hdr.End-d.hdr.Start) + 1
	if have := uint64(len(d.b) - d.headerSize); n*tableEntrySize > have {
		return errArt("%d tiles need %d table bytes, have %d", n, n*tableEntrySize, have)
	}

	c := cursor.New(d.b[d.headerSize:])

	// Widths, then heights, then picanm
	d.widths = make([]uint16, n)
	for i := range d.widths {
		d.widths[i] = c.Uint16()
	}
	d.heights = make([]uint16, n)
	for i := range d.heights {
		d.heights[i] = c.Uint16()
	}
	d.picanm = make([]uint32, n)
	for i := range d.picanm {
		d.picanm[i] = c.Uint32()
	}

	for i := range d.widths {
		w, h := int(d.widths[i]), int(d.heights[i])
		if w > MaxDimension || h > MaxDimension {
			return errArt("tile %d is %dx%d, at most %d allowed", d.hdr.Start+uint32(i), w, h, MaxDimension)
		}
		if w == 0 || h == 0 {
			continue
		}
		d.total += w * h
	}

	if d.total > c.Remaining() {
		return errArt("tiles declare %d pixel bytes, have %d", d.total, c.Remaining())
	}
	d.pixels = c.Bytes(d.total)

	return nil
}

// exact reports whether the pixel data ends exactly at the end of the input.
func (d *decoder) exact() bool {
	return d.headerSize+len(d.widths)*tableEntrySize+d.total == len(d.b)
}

func (d *decoder) decode(b []byte, headerSize int) error {
	d.b = b
	d.headerSize = headerSize

	if err := d.readHeader(); err != nil {
		return err
	}
	return d.readTables()
}

func (d *decoder) archive(opts DecodeOptions) *Archive {
	a := &Archive{
		Header: d.hdr,
		Hint:   opts.Hint,
		pixels: make([]byte, d.total),
		tiles:  make([]Tile, len(d.widths)),
		ids:    make([]uint32, len(d.widths)),
	}
	copy(a.pixels, d.pixels)

	if len(opts.Remap) > 0 {
		a.remap = make([]byte, len(opts.Remap))
		copy(a.remap, opts.Remap)
	}

	var off int
	for i := range a.tiles {
		t := Tile{
			Remap:     a.remap,
			Animation: ParseAnimation(d.picanm[i]),
		}
		if w, h := int(d.widths[i]), int(d.heights[i]); w > 0 && h > 0 {
			n := w * h
			t.Width, t.Height = w, h
			t.Pixels = a.pixels[off : off+n : off+n]
			off += n
		}
		a.tiles[i] = t
		a.ids[i] = d.hdr.Start + uint32(i)
	}

	return a
}

// Decode parses an ART file.
func Decode(b []byte) (*Archive, error) {
	return DecodeWithOptions(b, DecodeOptions{})
}

// DecodeWithOptions parses an ART file, attaching opts.Remap to every tile.
func DecodeWithOptions(b []byte, opts DecodeOptions) (*Archive, error) {
	var d, legacy decoder
	err := d.decode(b, headerSize)

	// A file with the extra tile count field that decodes cleanly and
	// consumes every byte wins over the three field reading
	if lerr := legacy.decode(b, legacyHeaderSize); lerr == nil && legacy.exact() {
		if err != nil || !d.exact() {
			return legacy.archive(opts), nil
		}
	}

	if err != nil {
		return nil, err
	}
	return d.archive(opts), nil
}

// Len returns the number of tiles, including empty ones.
func (a *Archive) Len() int { return len(a.tiles) }

// Tile returns the tile at position i in the directory.
func (a *Archive) Tile(i int) (Tile, bool) {
	if i < 0 || i >= len(a.tiles) {
		return Tile{}, false
	}
	return a.tiles[i], true
}

// TileByID returns the tile with the given global tile number.
func (a *Archive) TileByID(id uint32) (Tile, bool) {
	if id < a.Start || id > a.End {
		return Tile{}, false
	}
	return a.Tile(int(id - a.Start))
}

// ID returns the global tile number of the tile at position i.
func (a *Archive) ID(i int) (uint32, bool) {
	if i < 0 || i >= len(a.ids) {
		return 0, false
	}
	return a.ids[i], true
}

// IDs returns the global tile numbers in directory order.
func (a *Archive) IDs() []uint32 {
	ids := make([]uint32, len(a.ids))
	copy(ids, a.ids)
	return ids
}
