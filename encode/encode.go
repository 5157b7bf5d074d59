/*
Package encode writes converted tiles in common image formats.

PNG and GIF go through the standard library encoders, BMP through
golang.org/x/image/bmp and TGA through github.com/ftrvxmtrx/tga, with a
run-length encoded TGA variant written here. GIF output is reduced to at
most 256 colors with a median cut quantizer.

Encoders write the buffer's bytes as they are: a premultiplied image is
stored premultiplied, not converted back to straight alpha.
*/
package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/raulcorreia7/art2img-sub001/raster"
	"golang.org/x/image/bmp"
)

// Format is an output image format.
type Format int

// Supported formats.
const (
	PNG Format = iota
	TGA
	BMP
	GIF
)

var formatNames = [...]string{"png", "tga", "bmp", "gif"}

var (
	errEmpty   = errors.New("encode: empty image")
	errFormat  = errors.New("encode: unknown format")
	errColors  = errors.New("encode: gif needs between 2 and 256 colors")
	errTooWide = errors.New("encode: image too large for tga")
)

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat returns the Format named s, ignoring case and a leading dot.
func ParseFormat(s string) (Format, error) {
	s = strings.TrimPrefix(strings.ToLower(s), ".")
	for i, n := range formatNames {
		if n == s {
			return Format(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", errFormat, s)
}

// Options tunes the individual encoders. The zero value gives default PNG
// compression, uncompressed TGA and a 256 color GIF.
type Options struct {
	CompressionLevel png.CompressionLevel
	RLE              bool
	Colors           int
}

// Encode writes m to w in format f.
func Encode(w io.Writer, m *raster.Image, f Format, opts Options) error {
	if m == nil || m.Empty() {
		return errEmpty
	}

	switch f {
	case PNG:
		e := png.Encoder{CompressionLevel: opts.CompressionLevel}
		return e.Encode(w, m.NRGBA())
	case TGA:
		return encodeTGA(w, m, opts.RLE)
	case BMP:
		return bmp.Encode(w, m.NRGBA())
	case GIF:
		return encodeGIF(w, m, opts.Colors)
	default:
		return fmt.Errorf("%w %d", errFormat, int(f))
	}
}

// Bytes encodes m in format f and returns the result.
func Bytes(m *raster.Image, f Format, opts Options) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, m, f, opts); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
