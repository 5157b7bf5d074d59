/*
Package convert turns paletted ART tiles into RGBA images.

Each pixel goes through four stages: an optional remap (lookup) table
substitutes the palette index, the index is resolved to RGB through the
selected shade table and the base palette, reserved colors are made
transparent, and finally the color may be premultiplied by its alpha.
*/
package convert

import (
	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/errkind"
	"github.com/raulcorreia7/art2img-sub001/palette"
	"github.com/raulcorreia7/art2img-sub001/raster"
)

// Options controls conversion. The zero value looks colors up in the first
// shade table (if any) with no remapping and no transparency handling.
type Options struct {
	// ApplyLookup substitutes indices through the tile's remap table.
	ApplyLookup bool
	// Shade selects the shade table when the palette has any. It must be
	// below the palette's shade count.
	Shade uint8
	// FixTransparency makes Build engine magenta, and index 0 when
	// PremultiplyAlpha is also set, fully transparent.
	FixTransparency bool
	// PremultiplyAlpha scales color channels by alpha.
	PremultiplyAlpha bool
	// Stride overrides the output row stride when larger than width*4.
	Stride int
}

// Color is a single converted pixel.
type Color struct {
	R, G, B, A uint8
}

var transparent = Color{}

// IsBuildEngineMagenta reports whether the color is close enough to pure
// magenta to be the reserved transparent color.
func IsBuildEngineMagenta(r, g, b uint8) bool {
	return r >= 250 && b >= 250 && g <= 5
}

// Remap substitutes index through remap when apply is set and index is
// inside the table.
func Remap(index byte, remap []byte, apply bool) byte {
	if apply && int(index) < len(remap) {
		return remap[index]
	}
	return index
}

// Lookup resolves index to an opaque color through shade table shade, or
// straight through the base palette when there are no shade tables. It
// panics if shade is out of range for a palette with shade tables.
func Lookup(index byte, pal palette.View, shade byte) Color {
	if pal.ShadeCount > 0 {
		index = pal.Shade(shade, index)
	}
	r, g, b := pal.RGBAt(index)
	return Color{r, g, b, 0xff}
}

func premultiply(v, a uint8) uint8 {
	return uint8((uint(v)*uint(a) + 127) / 255)
}

// Premultiply scales the color channels by alpha.
func Premultiply(c Color) Color {
	return Color{
		R: premultiply(c.R, c.A),
		G: premultiply(c.G, c.A),
		B: premultiply(c.B, c.A),
		A: c.A,
	}
}

// Pixel converts a single palette index.
func Pixel(index byte, pal palette.View, remap []byte, opts Options) Color {
	index = Remap(index, remap, opts.ApplyLookup)
	c := Lookup(index, pal, opts.Shade)

	if opts.FixTransparency {
		// Index 0 only goes transparent when premultiplication will also
		// clear whatever color sits underneath it
		if (index == 0 && opts.PremultiplyAlpha) || IsBuildEngineMagenta(c.R, c.G, c.B) {
			return transparent
		}
	}

	if opts.PremultiplyAlpha {
		c = Premultiply(c)
	}

	return c
}

// Table returns the converted color for every possible palette index.
func Table(pal palette.View, remap []byte, opts Options) *[palette.NumColors]Color {
	var t [palette.NumColors]Color
	for i := range t {
		t[i] = Pixel(byte(i), pal, remap, opts)
	}
	return &t
}

// ToRGBA converts a tile into a row-major RGBA image. An empty tile yields
// an empty image.
func ToRGBA(t art.Tile, pal palette.View, opts Options) (*raster.Image, error) {
	if !t.Valid() {
		return nil, errkind.Newf(errkind.ConversionFailure, "tile is %dx%d but has %d pixel bytes", t.Width, t.Height, len(t.Pixels))
	}
	if len(pal.RGB) < palette.NumColors*3 {
		return nil, errkind.Newf(errkind.ConversionFailure, "palette has %d color bytes", len(pal.RGB))
	}
	if pal.ShadeCount > 0 {
		if int(opts.Shade) >= pal.ShadeCount {
			return nil, errkind.Newf(errkind.ConversionFailure, "shade %d out of range, palette has %d shade tables", opts.Shade, pal.ShadeCount)
		}
		if len(pal.Shades) < pal.ShadeCount*palette.ShadeTableSize {
			return nil, errkind.Newf(errkind.ConversionFailure, "palette declares %d shade tables but has %d bytes", pal.ShadeCount, len(pal.Shades))
		}
	}

	m := raster.NewWithStride(t.Width, t.Height, opts.Stride)
	m.Premultiplied = opts.PremultiplyAlpha
	if t.Empty() {
		return m, nil
	}

	lut := Table(pal, t.Remap, opts)
	m.Expand(t.Pixels, func(i byte) [4]byte {
		c := lut[i]
		return [4]byte{c.R, c.G, c.B, c.A}
	})

	return m, nil
}
