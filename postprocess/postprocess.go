/*
Package postprocess implements the whole-image passes run on converted
tiles: clearing the color of transparent pixels, cleaning up the alpha matte
and premultiplying color by alpha.
*/
package postprocess

import "github.com/raulcorreia7/art2img-sub001/raster"

// Options selects the passes Apply runs. The zero value runs none.
type Options struct {
	FixTransparency  bool
	PremultiplyAlpha bool
	SanitizeMatte    bool
}

const neutralGray = 128

// Apply runs the enabled passes in order: transparency cleanup, matte
// hygiene, premultiplication.
func Apply(m *raster.Image, opts Options) {
	if m == nil || m.Empty() {
		return
	}
	if opts.FixTransparency {
		CleanTransparentPixels(m)
	}
	if opts.SanitizeMatte {
		ApplyMatteHygiene(m)
	}
	if opts.PremultiplyAlpha {
		PremultiplyAlpha(m)
	}
}

// CleanTransparentPixels sets the color of every fully transparent pixel to
// mid gray so consumers that ignore alpha don't bleed stray colors into
// filtered edges.
func CleanTransparentPixels(m *raster.Image) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < len(row); x += raster.BytesPerPixel {
			if row[x+3] == 0 {
				row[x+0] = neutralGray
				row[x+1] = neutralGray
				row[x+2] = neutralGray
			}
		}
	}
}

// PremultiplyAlpha scales color by alpha. Opaque pixels are left alone and
// fully transparent ones become black.
func PremultiplyAlpha(m *raster.Image) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < len(row); x += raster.BytesPerPixel {
			a := uint(row[x+3])
			switch a {
			case 0:
				row[x+0], row[x+1], row[x+2] = 0, 0, 0
			case 0xff:
			default:
				for c := x; c < x+3; c++ {
					row[c] = byte((uint(row[c])*a + 127) / 255)
				}
			}
		}
	}
	m.Premultiplied = true
}
