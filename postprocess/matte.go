package postprocess

import "github.com/raulcorreia7/art2img-sub001/raster"

// ApplyMatteHygiene erodes the alpha channel by one pixel and then softens it
// with a 3x3 box blur, removing the one pixel halo left around sprites.
// Color is untouched. Images smaller than 3x3 are left as they are.
func ApplyMatteHygiene(m *raster.Image) {
	if m.Width < 3 || m.Height < 3 {
		return
	}

	alpha := Alpha(m)
	alpha = Blur(Erode(alpha, m.Width, m.Height), m.Width, m.Height)
	SetAlpha(m, alpha)
}

// Alpha extracts the alpha plane of m.
func Alpha(m *raster.Image) []byte {
	a := make([]byte, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < m.Width; x++ {
			a[y*m.Width+x] = row[x*raster.BytesPerPixel+3]
		}
	}
	return a
}

// SetAlpha writes the alpha plane a back into m.
func SetAlpha(m *raster.Image, a []byte) {
	for y := 0; y < m.Height; y++ {
		row := m.Row(y)
		for x := 0; x < m.Width; x++ {
			row[x*raster.BytesPerPixel+3] = a[y*m.Width+x]
		}
	}
}

// Erode returns a copy of the width by height plane a where every interior
// value is the minimum of itself and its four direct neighbors. Border
// values are copied unchanged.
func Erode(a []byte, width, height int) []byte {
	out := make([]byte, len(a))
	copy(out, a)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			v := a[i]
			for _, n := range [...]int{i - width, i + width, i - 1, i + 1} {
				if a[n] < v {
					v = a[n]
				}
			}
			out[i] = v
		}
	}

	return out
}

// Blur returns a copy of the width by height plane a where every interior
// value is the integer mean of its 3x3 neighborhood. Border values are
// copied unchanged.
func Blur(a []byte, width, height int) []byte {
	out := make([]byte, len(a))
	copy(out, a)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var sum uint
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * width
				sum += uint(a[row+x-1]) + uint(a[row+x]) + uint(a[row+x+1])
			}
			out[y*width+x] = byte(sum / 9)
		}
	}

	return out
}
