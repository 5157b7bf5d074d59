package encode

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/ftrvxmtrx/tga"
	"github.com/raulcorreia7/art2img-sub001/raster"
)

const (
	tgaHeaderSize    = 18
	tgaTrueColor     = 2
	tgaTrueColorRLE  = 10
	tgaAlphaBits     = 8
	tgaTopLeftOrigin = 0x20
	tgaMaxPacket     = 128
	tgaMaxDimension  = 0xffff
)

func encodeTGA(w io.Writer, m *raster.Image, rle bool) error {
	if m.Width > tgaMaxDimension || m.Height > tgaMaxDimension {
		return errTooWide
	}
	if !rle {
		// Premultiplied buffers are tagged as such in the extension area
		return tga.Encode(w, m.Image())
	}
	return encodeTGARLE(w, m)
}

// encodeTGARLE writes run-length encoded 32-bit true-color, which the tga
// package only reads.
func encodeTGARLE(w io.Writer, m *raster.Image) error {
	var hdr [tgaHeaderSize]byte
	hdr[2] = tgaTrueColorRLE
	binary.LittleEndian.PutUint16(hdr[12:], uint16(m.Width))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(m.Height))
	hdr[16] = 32
	hdr[17] = tgaAlphaBits | tgaTopLeftOrigin

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	// Stored BGRA
	row := make([]byte, m.Width*raster.BytesPerPixel)
	for y := 0; y < m.Height; y++ {
		src := m.Row(y)
		for x := 0; x < len(src); x += 4 {
			row[x+0], row[x+1], row[x+2], row[x+3] = src[x+2], src[x+1], src[x+0], src[x+3]
		}
		if err := writeRLERow(bw, row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func samePixel(row []byte, i, j int) bool {
	return row[i*4] == row[j*4] && row[i*4+1] == row[j*4+1] &&
		row[i*4+2] == row[j*4+2] && row[i*4+3] == row[j*4+3]
}

// writeRLERow packs one scanline; packets never cross rows.
func writeRLERow(w *bufio.Writer, row []byte) error {
	pixels := len(row) / 4
	for i := 0; i < pixels; {
		// Length of the run starting at i
		run := 1
		for i+run < pixels && run < tgaMaxPacket && samePixel(row, i, i+run) {
			run++
		}
		if run > 1 {
			if err := w.WriteByte(0x80 | byte(run-1)); err != nil {
				return err
			}
			if _, err := w.Write(row[i*4 : i*4+4]); err != nil {
				return err
			}
			i += run
			continue
		}

		// Raw packet up to the start of the next run
		raw := 1
		for i+raw < pixels && raw < tgaMaxPacket {
			if i+raw+1 < pixels && samePixel(row, i+raw, i+raw+1) {
				break
			}
			raw++
		}
		if err := w.WriteByte(byte(raw - 1)); err != nil {
			return err
		}
		if _, err := w.Write(row[i*4 : (i+raw)*4]); err != nil {
			return err
		}
		i += raw
	}
	return nil
}
