/*
Package art2img is a library for converting Build engine ART tile archives
into common image formats.

Tiles are decoded from the archive, resolved through a palette (and
optionally a LOOKUP.DAT swap table), cleaned up and encoded one file per
tile. Whole archives and directory trees are exported with a small worker
pool, optionally recording every exported tile in a SQLite catalog.
*/
package art2img

import (
	"errors"
	"fmt"

	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/convert"
	"github.com/raulcorreia7/art2img-sub001/encode"
	"github.com/raulcorreia7/art2img-sub001/palette"
	"github.com/raulcorreia7/art2img-sub001/postprocess"
	"github.com/raulcorreia7/art2img-sub001/raster"
	"github.com/rs/zerolog"
)

const (
	// PaletteFilename is the palette looked for beside an archive
	PaletteFilename = "PALETTE.DAT"
	// LookupFilename is the swap table file looked for beside an archive
	LookupFilename = "LOOKUP.DAT"

	defaultWorkers = 10
)

// ErrEmptyTile is returned when exporting a zero-sized tile.
var ErrEmptyTile = errors.New("art2img: empty tile")

// Options controls conversion and export.
type Options struct {
	Format  encode.Format
	Encoder encode.Options

	// ApplyLookup substitutes indices through the attached swap table
	ApplyLookup bool
	// Shade selects the palette shade table
	Shade uint8
	// FixTransparency clears magenta (and index 0 when premultiplying) and
	// greys out the color under transparent pixels
	FixTransparency  bool
	PremultiplyAlpha bool
	SanitizeMatte    bool

	// PalettePath and LookupPath override discovery through Hint
	PalettePath string
	LookupPath  string
	Hint        art.PaletteHint
	// Swap is the LOOKUP.DAT table attached to tiles
	Swap uint8

	// Workers is the number of tiles converted in parallel
	Workers int
	// SkipMetadata disables writing the animation data file
	SkipMetadata bool
}

// DefaultOptions returns PNG output with transparency fixing, looking for a
// palette beside each archive.
func DefaultOptions() Options {
	return Options{
		Format:          encode.PNG,
		FixTransparency: true,
		Hint:            art.HintSidecar,
		Workers:         defaultWorkers,
	}
}

func (o Options) conversion() convert.Options {
	return convert.Options{
		ApplyLookup:      o.ApplyLookup,
		Shade:            o.Shade,
		FixTransparency:  o.FixTransparency,
		PremultiplyAlpha: o.PremultiplyAlpha,
	}
}

func (o Options) postprocessing() postprocess.Options {
	return postprocess.Options{
		FixTransparency:  o.FixTransparency,
		PremultiplyAlpha: o.PremultiplyAlpha,
		SanitizeMatte:    o.SanitizeMatte,
	}
}

// Convert turns a tile into a finished RGBA image.
func Convert(t art.Tile, pal palette.View, opts Options) (*raster.Image, error) {
	m, err := convert.ToRGBA(t, pal, opts.conversion())
	if err != nil {
		return nil, err
	}
	postprocess.Apply(m, opts.postprocessing())
	return m, nil
}

// ExportTile converts a tile and encodes it in opts.Format.
func ExportTile(t art.Tile, pal palette.View, opts Options) ([]byte, error) {
	if t.Empty() {
		return nil, ErrEmptyTile
	}
	m, err := Convert(t, pal, opts)
	if err != nil {
		return nil, err
	}
	return encode.Bytes(m, opts.Format, opts.Encoder)
}

// TileFilename returns the file name used for an exported tile.
func TileFilename(id uint32, f encode.Format) string {
	return fmt.Sprintf("tile%04d%s", id, f.Ext())
}

// Exporter exports archives to disk.
type Exporter struct {
	opts    Options
	catalog *Catalog
	logger  zerolog.Logger
}

// New returns an Exporter. catalog may be nil.
func New(opts Options, catalog *Catalog, logger zerolog.Logger) *Exporter {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Exporter{
		opts:    opts,
		catalog: catalog,
		logger:  logger,
	}
}
