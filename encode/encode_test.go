package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/raulcorreia7/art2img-sub001/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage() *raster.Image {
	m := raster.New(4, 2)
	copy(m.Pix, []byte{
		255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 0, 255, 0, 255,
		128, 128, 128, 0, 0, 0, 255, 255, 10, 20, 30, 255, 10, 20, 30, 255,
	})
	return m
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{PNG, TGA, BMP, GIF} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)

		got, err = ParseFormat(f.Ext())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, got)

	_, err = ParseFormat("jpeg")
	assert.True(t, errors.Is(err, errFormat))
	assert.Equal(t, "unknown", Format(99).String())
}

func TestEncodeEmpty(t *testing.T) {
	for _, f := range []Format{PNG, TGA, BMP, GIF} {
		_, err := Bytes(raster.New(0, 0), f, Options{})
		assert.Equal(t, errEmpty, err)
	}
	_, err := Bytes(nil, PNG, Options{})
	assert.Equal(t, errEmpty, err)

	_, err = Bytes(testImage(), Format(42), Options{})
	assert.True(t, errors.Is(err, errFormat))
}

func TestEncodePNG(t *testing.T) {
	m := testImage()
	b, err := Bytes(m, PNG, Options{CompressionLevel: png.BestCompression})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	assert.Equal(t, color.NRGBAModel.Convert(color.NRGBA{0, 255, 0, 255}), color.NRGBAModel.Convert(img.At(3, 0)))
	_, _, _, a := img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestEncodePremultipliedVerbatim(t *testing.T) {
	m := raster.New(1, 1)
	copy(m.Pix, []byte{100, 50, 25, 128})
	m.Premultiplied = true

	b, err := Bytes(m, PNG, Options{})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{100, 50, 25, 128}, color.NRGBAModel.Convert(img.At(0, 0)))

	b, err = Bytes(m, TGA, Options{})
	require.NoError(t, err)
	_, _, pix := decodeTGA(t, b)
	assert.Equal(t, []byte{25, 50, 100, 128}, pix)

	// Extension area attribute type: premultiplied alpha
	assert.Equal(t, byte(4), b[tgaHeaderSize+4+0x1ee])
}

// decodeTGA reads back the subset of TGA this package writes.
func decodeTGA(t *testing.T, b []byte) (int, int, []byte) {
	t.Helper()
	require.True(t, len(b) >= tgaHeaderSize)

	w := int(binary.LittleEndian.Uint16(b[12:]))
	h := int(binary.LittleEndian.Uint16(b[14:]))
	require.Equal(t, byte(32), b[16])
	require.Equal(t, byte(0x28), b[17])

	data := b[tgaHeaderSize:]
	if b[2] == tgaTrueColor {
		// Pixels are followed by the extension area and footer
		require.True(t, bytes.HasSuffix(b, []byte("TRUEVISION-XFILE.\x00")))
		return w, h, data[:w*h*4]
	}
	require.Equal(t, byte(tgaTrueColorRLE), b[2])

	var out []byte
	for len(out) < w*h*4 {
		p := data[0]
		n := int(p&0x7f) + 1
		if p&0x80 != 0 {
			for i := 0; i < n; i++ {
				out = append(out, data[1:5]...)
			}
			data = data[5:]
		} else {
			out = append(out, data[1:1+n*4]...)
			data = data[1+n*4:]
		}
	}
	require.Empty(t, data)
	return w, h, out
}

func TestEncodeTGA(t *testing.T) {
	want := []byte{
		0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 255, 0, 255,
		128, 128, 128, 0, 255, 0, 0, 255, 30, 20, 10, 255, 30, 20, 10, 255,
	}

	for _, rle := range []bool{false, true} {
		b, err := Bytes(testImage(), TGA, Options{RLE: rle})
		require.NoError(t, err)

		w, h, pix := decodeTGA(t, b)
		assert.Equal(t, 4, w)
		assert.Equal(t, 2, h)
		assert.Equal(t, want, pix, "rle %v", rle)
	}
}

func TestEncodeTGARLEPackets(t *testing.T) {
	m := raster.New(3, 1)
	copy(m.Pix, []byte{1, 1, 1, 255, 1, 1, 1, 255, 2, 2, 2, 255})

	b, err := Bytes(m, TGA, Options{RLE: true})
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0x81, 1, 1, 1, 255,
		0x00, 2, 2, 2, 255,
	}, b[tgaHeaderSize:])
}

func TestEncodeTGALongRun(t *testing.T) {
	m := raster.New(300, 1)
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i+3] = 255
	}

	b, err := Bytes(m, TGA, Options{RLE: true})
	require.NoError(t, err)

	// 128 + 128 + 44
	assert.Equal(t, []byte{
		0xff, 0, 0, 0, 255,
		0xff, 0, 0, 0, 255,
		0x80 | 43, 0, 0, 0, 255,
	}, b[tgaHeaderSize:])
}

func TestEncodeBMP(t *testing.T) {
	b, err := Bytes(testImage(), BMP, Options{})
	require.NoError(t, err)

	img, err := bmp.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	r, g, bl, _ := img.At(2, 1).RGBA()
	assert.Equal(t, []uint32{10 * 0x101, 20 * 0x101, 30 * 0x101}, []uint32{r, g, bl})
}

func TestEncodeGIF(t *testing.T) {
	b, err := Bytes(testImage(), GIF, Options{})
	require.NoError(t, err)

	img, err := gif.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	pm, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 4, 2), pm.Bounds())

	// Transparent pixel maps to the reserved first entry
	assert.Equal(t, uint8(0), pm.ColorIndexAt(0, 1))
	_, _, _, a := pm.Palette[0].RGBA()
	assert.Equal(t, uint32(0), a)

	// Opaque pixels of the same color share an entry
	assert.Equal(t, pm.ColorIndexAt(0, 0), pm.ColorIndexAt(2, 0))
	assert.NotEqual(t, uint8(0), pm.ColorIndexAt(0, 0))
	_, _, _, a = pm.At(3, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a)
}

func TestEncodeGIFAllTransparent(t *testing.T) {
	b, err := Bytes(raster.New(2, 2), GIF, Options{})
	require.NoError(t, err)

	img, err := gif.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	_, _, _, a := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestEncodeGIFColors(t *testing.T) {
	for _, n := range []int{1, 257, -1} {
		_, err := Bytes(testImage(), GIF, Options{Colors: n})
		assert.Equal(t, errColors, err)
	}
}
