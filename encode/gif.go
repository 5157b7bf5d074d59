package encode

import (
	"image"
	"image/color"
	"image/gif"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/raulcorreia7/art2img-sub001/raster"
)

const (
	maxGIFColors = 256
	// Pixels below this alpha are written as the transparent entry
	alphaThreshold = 0x80
)

// opaquePixels collects every pixel at or above the alpha threshold into a
// single row so the quantizer only sees colors that will be drawn.
func opaquePixels(m *image.NRGBA) *image.NRGBA {
	var pix []byte
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			if c.A >= alphaThreshold {
				pix = append(pix, c.R, c.G, c.B, 0xff)
			}
		}
	}
	n := len(pix) / 4
	return &image.NRGBA{Pix: pix, Stride: len(pix), Rect: image.Rect(0, 0, n, 1)}
}

func gifPalette(m *image.NRGBA, colors int) (color.Palette, bool) {
	var transparent bool
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !transparent; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.NRGBAAt(x, y).A < alphaThreshold {
				transparent = true
				break
			}
		}
	}

	p := make(color.Palette, 0, colors)
	if transparent {
		p = append(p, color.RGBA{})
	}

	opaque := opaquePixels(m)
	if opaque.Rect.Empty() {
		return append(p, color.RGBA{0, 0, 0, 0xff}), transparent
	}

	q := quantize.MedianCutQuantizer{}
	return q.Quantize(p, opaque), transparent
}

func encodeGIF(w io.Writer, m *raster.Image, colors int) error {
	if colors == 0 {
		colors = maxGIFColors
	}
	if colors < 2 || colors > maxGIFColors {
		return errColors
	}

	src := m.NRGBA()
	p, transparent := gifPalette(src, colors)

	// Index lookups are cached since tiles reuse few colors
	cache := make(map[color.NRGBA]uint8)
	opaque := p
	offset := 0
	if transparent {
		opaque = p[1:]
		offset = 1
	}

	pm := image.NewPaletted(src.Bounds(), p)
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.NRGBAAt(x, y)
			if c.A < alphaThreshold {
				pm.SetColorIndex(x, y, 0)
				continue
			}
			c.A = 0xff
			i, ok := cache[c]
			if !ok {
				i = uint8(opaque.Index(c) + offset)
				cache[c] = i
			}
			pm.SetColorIndex(x, y, i)
		}
	}

	return gif.Encode(w, pm, &gif.Options{NumColors: len(p)})
}
