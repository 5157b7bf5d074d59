/*
Package raster holds the row-major RGBA buffers produced by tile conversion,
and the helpers that reorder column-major tile storage into rows.
*/
package raster

import (
	"image"
)

// BytesPerPixel is the size of one RGBA pixel.
const BytesPerPixel = 4

// Image is an owned row-major RGBA buffer. Color channels are straight
// (not premultiplied) unless Premultiplied is set.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	Stride int

	Premultiplied bool
}

// New returns a zeroed width by height image with a tight stride.
func New(width, height int) *Image {
	return NewWithStride(width, height, width*BytesPerPixel)
}

// NewWithStride returns a zeroed image whose rows are stride bytes apart.
// The stride is raised to width*4 if smaller.
func NewWithStride(width, height, stride int) *Image {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if tight := width * BytesPerPixel; stride < tight {
		stride = tight
	}
	return &Image{
		Pix:    make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
	}
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return m.Width == 0 || m.Height == 0
}

// Offset returns the index of the first byte of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return y*m.Stride + x*BytesPerPixel
}

// Row returns the pixel bytes of row y, without stride padding.
func (m *Image) Row(y int) []byte {
	o := y * m.Stride
	return m.Pix[o : o+m.Width*BytesPerPixel]
}

// Image wraps the buffer as an image.Image without copying: an
// *image.RGBA when premultiplied and an *image.NRGBA otherwise.
func (m *Image) Image() image.Image {
	if m.Premultiplied {
		return &image.RGBA{Pix: m.Pix, Stride: m.Stride, Rect: m.bounds()}
	}
	return m.NRGBA()
}

// NRGBA wraps the buffer as an *image.NRGBA without copying or converting,
// so encoders that take it write the bytes exactly as they are, premultiplied
// or not.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: m.Pix, Stride: m.Stride, Rect: m.bounds()}
}

func (m *Image) bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}
