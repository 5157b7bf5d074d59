package art2img

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/encode"
	"github.com/raulcorreia7/art2img-sub001/errkind"
	"github.com/raulcorreia7/art2img-sub001/metadata"
	"github.com/raulcorreia7/art2img-sub001/palette"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paletteBytes returns a palette where index i is (i/4, 0, 0), index 255 is
// magenta, with one identity shade table.
func paletteBytes() []byte {
	b := make([]byte, 768+2)
	for i := 0; i < 256; i++ {
		b[i*3] = byte(i / 4)
	}
	b[765], b[766], b[767] = 63, 0, 63
	binary.LittleEndian.PutUint16(b[768:], 1)
	for i := 0; i < 256; i++ {
		b = append(b, byte(i))
	}
	return b
}

// lookupBytes returns a LOOKUP.DAT with swap 1 mapping everything to 255.
func lookupBytes() []byte {
	b := []byte{1, 1}
	for i := 0; i < 256; i++ {
		b = append(b, 255)
	}
	return b
}

type fixtureTile struct {
	w, h   uint16
	picanm uint32
	fill   byte
}

func artBytes(start uint32, tiles ...fixtureTile) []byte {
	le := binary.LittleEndian
	b := make([]byte, 12)
	le.PutUint32(b[0:], 1)
	le.PutUint32(b[4:], start)
	le.PutUint32(b[8:], start+uint32(len(tiles))-1)
	for _, t := range tiles {
		b = le.AppendUint16(b, t.w)
	}
	for _, t := range tiles {
		b = le.AppendUint16(b, t.h)
	}
	for _, t := range tiles {
		b = le.AppendUint32(b, t.picanm)
	}
	for _, t := range tiles {
		b = append(b, bytes.Repeat([]byte{t.fill}, int(t.w)*int(t.h))...)
	}
	return b
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Workers = 3
	return opts
}

func TestExportTile(t *testing.T) {
	p, err := palette.Decode(paletteBytes())
	require.NoError(t, err)

	tile := art.Tile{Width: 2, Height: 2, Pixels: []byte{40, 40, 255, 40}}

	b, err := ExportTile(tile, p.View(), testOptions())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	r, _, _, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(palette.Scale6(10))*0x101, r)
	assert.Equal(t, uint32(0xffff), a)

	// Magenta at column 1, row 0
	r, g, bl, a := img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0, 0}, []uint32{r, g, bl, a})

	_, err = ExportTile(art.Tile{}, p.View(), testOptions())
	assert.Equal(t, ErrEmptyTile, err)

	_, err = ExportTile(art.Tile{Width: 3, Height: 3, Pixels: []byte{1}}, p.View(), testOptions())
	assert.True(t, errors.Is(err, errkind.ErrConversionFailure))
}

func TestConvertTransparencyCleanup(t *testing.T) {
	p, err := palette.Decode(paletteBytes())
	require.NoError(t, err)

	m, err := Convert(art.Tile{Width: 1, Height: 2, Pixels: []byte{255, 8}}, p.View(), testOptions())
	require.NoError(t, err)
	assert.Equal(t, []byte{128, 128, 128, 0}, m.Pix[0:4])
	assert.False(t, m.Premultiplied)

	opts := testOptions()
	opts.PremultiplyAlpha = true
	m, err = Convert(art.Tile{Width: 1, Height: 2, Pixels: []byte{255, 0}}, p.View(), opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, m.Pix)
	assert.True(t, m.Premultiplied)
}

func TestTileFilename(t *testing.T) {
	assert.Equal(t, "tile0007.png", TileFilename(7, encode.PNG))
	assert.Equal(t, "tile12345.tga", TileFilename(12345, encode.TGA))
}

func TestExportArchive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "game", "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(dir, "game", "TILES000.ART"), artBytes(20,
		fixtureTile{w: 4, h: 4, fill: 40},
		fixtureTile{},
		fixtureTile{w: 2, h: 8, fill: 255, picanm: art.Animation{Frames: 3, Type: art.AnimForward, Speed: 2}.Picanm()},
	))

	out := filepath.Join(dir, "out")
	e := New(testOptions(), nil, zerolog.Nop())

	r, err := e.ExportArchive(context.Background(), filepath.Join(dir, "game", "TILES000.ART"), out)
	require.NoError(t, err)
	assert.Equal(t, Result{Archives: 1, Exported: 2, Skipped: 1}, r)

	assert.FileExists(t, filepath.Join(out, "tile0020.png"))
	assert.NoFileExists(t, filepath.Join(out, "tile0021.png"))
	assert.FileExists(t, filepath.Join(out, "tile0022.png"))

	b, err := os.ReadFile(filepath.Join(out, "tile0022.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	text, err := os.ReadFile(filepath.Join(out, metadata.Filename))
	require.NoError(t, err)
	db := metadata.New()
	require.NoError(t, db.UnmarshalText(text))
	assert.Equal(t, []uint32{22}, db.IDs())
	entry, _ := db.Get(22)
	assert.Equal(t, art.AnimForward, entry.Animation.Type)
	assert.Equal(t, 8, entry.Height)
}

func TestExportArchiveWithLookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "palette.dat"), paletteBytes())
	writeFile(t, filepath.Join(dir, "lookup.dat"), lookupBytes())
	writeFile(t, filepath.Join(dir, "tiles.art"), artBytes(0, fixtureTile{w: 1, h: 1, fill: 40}))

	opts := testOptions()
	opts.Hint = art.HintBoth
	opts.ApplyLookup = true
	opts.Swap = 1
	opts.Format = encode.TGA

	out := filepath.Join(dir, "out")
	r, err := New(opts, nil, zerolog.Nop()).ExportArchive(context.Background(), filepath.Join(dir, "tiles.art"), out)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Exported)

	b, err := os.ReadFile(filepath.Join(out, "tile0000.tga"))
	require.NoError(t, err)
	// Remapped to magenta, so fully transparent mid gray
	assert.Equal(t, []byte{128, 128, 128, 0}, b[18:22])
	assert.NoFileExists(t, filepath.Join(out, metadata.Filename))
}

func TestExportArchiveMissingSwap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(dir, "LOOKUP.DAT"), lookupBytes())
	writeFile(t, filepath.Join(dir, "TILES.ART"), artBytes(0, fixtureTile{w: 1, h: 1, fill: 40}))

	opts := testOptions()
	opts.Hint = art.HintBoth
	opts.ApplyLookup = true
	opts.Swap = 9

	e := New(opts, nil, zerolog.Nop())
	src, err := e.Load(filepath.Join(dir, "TILES.ART"))
	require.NoError(t, err)
	tile, _ := src.Archive.Tile(0)
	assert.Nil(t, tile.Remap)
}

func TestExportArchiveErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "TILES.ART"), artBytes(0, fixtureTile{w: 1, h: 1}))
	writeFile(t, filepath.Join(dir, "b", "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(dir, "b", "TILES.ART"), []byte{1, 2, 3})
	writeFile(t, filepath.Join(dir, "c", "PALETTE.DAT"), []byte{1})
	writeFile(t, filepath.Join(dir, "c", "TILES.ART"), artBytes(0, fixtureTile{w: 1, h: 1}))

	e := New(testOptions(), nil, zerolog.Nop())
	ctx := context.Background()

	_, err := e.ExportArchive(ctx, filepath.Join(dir, "a", "TILES.ART"), dir)
	assert.True(t, errors.Is(err, errkind.ErrIOFailure), "got %v", err)

	_, err = e.ExportArchive(ctx, filepath.Join(dir, "b", "TILES.ART"), dir)
	assert.True(t, errors.Is(err, errkind.ErrInvalidArt), "got %v", err)

	_, err = e.ExportArchive(ctx, filepath.Join(dir, "c", "TILES.ART"), dir)
	assert.True(t, errors.Is(err, errkind.ErrInvalidPalette), "got %v", err)
}

func TestExportArchiveShadeOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(dir, "TILES.ART"), artBytes(0, fixtureTile{w: 1, h: 1}, fixtureTile{w: 2, h: 2}))

	opts := testOptions()
	opts.Shade = 5

	r, err := New(opts, nil, zerolog.Nop()).ExportArchive(context.Background(), filepath.Join(dir, "TILES.ART"), filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, Result{Archives: 1, Failed: 2}, r)
}

func TestExportArchiveCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(dir, "TILES.ART"), artBytes(0, fixtureTile{w: 1, h: 1}, fixtureTile{w: 1, h: 1}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testOptions(), nil, zerolog.Nop()).ExportArchive(ctx, filepath.Join(dir, "TILES.ART"), filepath.Join(dir, "out"))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportDirectory(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeFile(t, filepath.Join(in, "PALETTE.DAT"), paletteBytes())
	writeFile(t, filepath.Join(in, "TILES000.ART"), artBytes(0, fixtureTile{w: 1, h: 1, fill: 4}))
	writeFile(t, filepath.Join(in, "TILES001.art"), artBytes(1, fixtureTile{w: 2, h: 1, fill: 4}, fixtureTile{w: 1, h: 2, fill: 200}))
	writeFile(t, filepath.Join(in, "BROKEN.ART"), []byte{0})
	writeFile(t, filepath.Join(in, "README.TXT"), []byte("hello"))
	writeFile(t, filepath.Join(in, ".hidden", "TILES999.ART"), artBytes(999, fixtureTile{w: 1, h: 1}))

	catalog, err := OpenCatalog(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	defer catalog.Close()

	out := filepath.Join(dir, "out")
	opts := testOptions()
	opts.Format = encode.BMP

	r, err := New(opts, catalog, zerolog.Nop()).ExportDirectory(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, Result{Archives: 3, FailedArchives: 1, Exported: 3}, r)

	assert.FileExists(t, filepath.Join(out, "TILES000", "tile0000.bmp"))
	assert.FileExists(t, filepath.Join(out, "TILES001", "tile0001.bmp"))
	assert.FileExists(t, filepath.Join(out, "TILES001", "tile0002.bmp"))
	assert.NoDirExists(t, filepath.Join(out, "TILES999"))

	abs, err := filepath.Abs(filepath.Join(in, "TILES001.art"))
	require.NoError(t, err)
	records, err := catalog.Tiles(abs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint32(1), records[0].ID)
	assert.Equal(t, 2, records[0].Width)
	assert.Equal(t, uint32(2), records[1].ID)
	assert.Equal(t, filepath.Join(out, "TILES001", "tile0002.bmp"), records[1].Output)
	assert.NotZero(t, records[1].CRC)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, records[1].Dominant)
}

func TestCatalog(t *testing.T) {
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer c.Close()

	id, err := c.AddArchive("/a/TILES000.ART", art.Header{Version: 1, Start: 0, End: 3})
	require.NoError(t, err)

	again, err := c.AddArchive("/a/TILES000.ART", art.Header{Version: 1, Start: 0, End: 5})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	picanm := art.Animation{Frames: 2, Type: art.AnimBackward, XCenter: -4}.Picanm()
	require.NoError(t, c.AddTile(id, TileRecord{ID: 3, Width: 8, Height: 8, Picanm: picanm, CRC: 0xdeadbeef, Output: "x.png"}))
	require.NoError(t, c.AddTile(id, TileRecord{ID: 1, Width: 4, Height: 4, CRC: 1, Output: "y.png", Dominant: "#ff0000"}))
	require.NoError(t, c.AddTile(id, TileRecord{ID: 1, Width: 4, Height: 4, CRC: 2, Output: "y.png", Dominant: "#00ff00"}))

	records, err := c.Tiles("/a/TILES000.ART")
	require.NoError(t, err)
	assert.Equal(t, []TileRecord{
		{ID: 1, Width: 4, Height: 4, CRC: 2, Output: "y.png", Dominant: "#00ff00"},
		{ID: 3, Width: 8, Height: 8, Picanm: picanm, CRC: 0xdeadbeef, Output: "x.png"},
	}, records)
	assert.Equal(t, art.AnimBackward, records[1].Animation().Type)
	assert.Equal(t, int8(-4), records[1].Animation().XCenter)

	records, err = c.Tiles("/nowhere.art")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWaitForPipelineDrains(t *testing.T) {
	failed := make(chan error, 1)
	failed <- errors.New("write failed")
	close(failed)

	var cancelled, finished int32
	busy := make(chan error)
	go func() {
		// A worker still busy with its tile when the first one fails
		time.Sleep(50 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		close(busy)
	}()

	err := waitForPipeline(func() { atomic.StoreInt32(&cancelled, 1) }, failed, busy)
	assert.EqualError(t, err, "write failed")
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestExportArchiveWriteFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "PALETTE.DAT"), paletteBytes())
	tiles := make([]fixtureTile, 50)
	for i := range tiles {
		tiles[i] = fixtureTile{w: 2, h: 2, fill: 40}
	}
	writeFile(t, filepath.Join(dir, "TILES.ART"), artBytes(0, tiles...))

	// Output directory is a file, so every write fails
	out := filepath.Join(dir, "out")
	writeFile(t, out, []byte("x"))

	catalog, err := OpenCatalog(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)

	_, err = New(testOptions(), catalog, zerolog.Nop()).ExportArchive(context.Background(), filepath.Join(dir, "TILES.ART"), out)
	assert.True(t, errors.Is(err, errkind.ErrIOFailure), "got %v", err)

	// Every worker has stopped, so closing the catalog is safe
	require.NoError(t, catalog.Close())
}
