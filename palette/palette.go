/*
Package palette implements a decoder for Build engine PALETTE.DAT and
LOOKUP.DAT files.

A palette file starts with 256 RGB triplets of 6-bit components (768 bytes),
followed by a 16-bit count of shade tables and that many 256 byte tables,
each remapping every palette index to the index used at a given light level.
An optional 65536 byte translucency table may follow; many palettes omit it.
*/
package palette

import (
	"image/color"

	"github.com/raulcorreia7/art2img-sub001/cursor"
	"github.com/raulcorreia7/art2img-sub001/errkind"
)

const (
	// NumColors is the number of entries in a palette.
	NumColors = 256
	// MaxShadeTables is the most shade tables a palette may declare.
	MaxShadeTables = 256
	// ShadeTableSize is the size in bytes of one shade table.
	ShadeTableSize = NumColors
	// TranslucencySize is the size in bytes of the translucency table.
	TranslucencySize = NumColors * NumColors

	rgbBytes   = NumColors * 3
	headerSize = rgbBytes + 2
)

// Scale6 scales a 6-bit color component to 8 bits, landing exactly on 0 and
// 255. Values above 63 are clamped.
func Scale6(v byte) byte {
	if v > 63 {
		v = 63
	}
	return byte((uint(v)*255 + 31) / 63)
}

// Palette is a decoded palette file. It is immutable once decoded and safe
// for concurrent use.
type Palette struct {
	// Scaled RGB, then shade tables, then translucency
	buf []byte

	shadeCount   int
	translucency bool
}

// Decode parses a palette file.
func Decode(b []byte) (*Palette, error) {
	if len(b) < headerSize {
		return nil, errkind.Newf(errkind.InvalidPalette, "need at least %d bytes, have %d", headerSize, len(b))
	}

	count := int(cursor.Uint16(b, rgbBytes))
	if count > MaxShadeTables {
		return nil, errkind.Newf(errkind.InvalidPalette, "%d shade tables declared, at most %d allowed", count, MaxShadeTables)
	}

	shadeBytes := count * ShadeTableSize
	c := cursor.New(b[headerSize:])
	shades := c.Bytes(shadeBytes)
	if shades == nil && shadeBytes > 0 {
		return nil, errkind.Newf(errkind.InvalidPalette, "%d shade tables need %d bytes, have %d", count, shadeBytes, len(b)-headerSize)
	}

	p := &Palette{
		buf:        make([]byte, rgbBytes+shadeBytes+TranslucencySize),
		shadeCount: count,
	}

	for i, v := range b[:rgbBytes] {
		p.buf[i] = Scale6(v)
	}
	copy(p.buf[rgbBytes:], shades)

	// Translucency is optional and stays zeroed when absent
	if t := c.Bytes(TranslucencySize); t != nil {
		copy(p.buf[rgbBytes+shadeBytes:], t)
		p.translucency = true
	}

	return p, nil
}

// ShadeCount returns the number of shade tables.
func (p *Palette) ShadeCount() int { return p.shadeCount }

// HasTranslucency reports whether the file carried a translucency table.
func (p *Palette) HasTranslucency() bool { return p.translucency }

// View returns a non-owning view of the palette's tables.
func (p *Palette) View() View {
	shadeEnd := rgbBytes + p.shadeCount*ShadeTableSize
	return View{
		RGB:          p.buf[:rgbBytes:rgbBytes],
		Shades:       p.buf[rgbBytes:shadeEnd:shadeEnd],
		ShadeCount:   p.shadeCount,
		Translucency: p.buf[shadeEnd:],
	}
}

// Colors returns the base palette as opaque colors.
func (p *Palette) Colors() color.Palette {
	return p.View().Colors()
}

// View references the tables of a Palette without owning them. A View must
// not outlive the Palette it came from.
type View struct {
	RGB          []byte // NumColors 8-bit RGB triplets
	Shades       []byte // ShadeCount tables of ShadeTableSize bytes
	ShadeCount   int
	Translucency []byte // TranslucencySize bytes, zero if absent
}

// RGBAt returns the base color for palette index i.
func (v View) RGBAt(i byte) (r, g, b uint8) {
	o := int(i) * 3
	return v.RGB[o], v.RGB[o+1], v.RGB[o+2]
}

// Shade returns the palette index that index i maps to in shade table s. It
// panics if s is not below ShadeCount.
func (v View) Shade(s, i byte) byte {
	if int(s) >= v.ShadeCount {
		panic("palette: shade index out of range")
	}
	return v.Shades[int(s)*ShadeTableSize+int(i)]
}

// Blend returns the translucency table entry for the pair of indices.
func (v View) Blend(fg, bg byte) byte {
	if len(v.Translucency) < TranslucencySize {
		return 0
	}
	return v.Translucency[int(fg)<<8|int(bg)]
}

// Colors returns the base palette as opaque colors.
func (v View) Colors() color.Palette {
	p := make(color.Palette, NumColors)
	for i := range p {
		r, g, b := v.RGBAt(byte(i))
		p[i] = color.RGBA{r, g, b, 0xff}
	}
	return p
}
