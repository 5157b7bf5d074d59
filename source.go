package art2img

import (
	"fmt"
	"path/filepath"

	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/errkind"
	"github.com/raulcorreia7/art2img-sub001/fileio"
	"github.com/raulcorreia7/art2img-sub001/palette"
)

// Source is an archive together with the palette used to convert it.
type Source struct {
	Path    string
	Archive *art.Archive
	Palette *palette.Palette
}

func (e *Exporter) palettePath(dir string) string {
	if e.opts.PalettePath != "" {
		return e.opts.PalettePath
	}
	if e.opts.Hint.Sidecar() {
		return fileio.Find(dir, PaletteFilename)
	}
	return ""
}

func (e *Exporter) lookupPath(dir string) string {
	if e.opts.LookupPath != "" {
		return e.opts.LookupPath
	}
	if e.opts.Hint.Lookup() {
		return fileio.Find(dir, LookupFilename)
	}
	return ""
}

func (e *Exporter) loadPalette(dir string) (*palette.Palette, error) {
	file := e.palettePath(dir)
	if file == "" {
		return nil, errkind.Newf(errkind.IOFailure, "no palette given and none found in %s", dir)
	}

	b, err := fileio.ReadFile(file)
	if err != nil {
		return nil, err
	}
	p, err := palette.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	e.logger.Debug().Str("palette", file).Int("shades", p.ShadeCount()).Msg("loaded palette")
	return p, nil
}

func (e *Exporter) loadRemap(dir string) ([]byte, error) {
	file := e.lookupPath(dir)
	if file == "" {
		return nil, nil
	}

	b, err := fileio.ReadFile(file)
	if err != nil {
		return nil, err
	}
	s, err := palette.DecodeLookup(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	table, ok := s.Table(e.opts.Swap)
	if !ok {
		e.logger.Warn().Str("lookup", file).Uint8("swap", e.opts.Swap).Msg("swap table not present, ignoring lookup")
		return nil, nil
	}

	e.logger.Debug().Str("lookup", file).Uint8("swap", e.opts.Swap).Msg("attached swap table")
	return table, nil
}

// Load reads and decodes an archive and the files that go with it.
func (e *Exporter) Load(path string) (*Source, error) {
	dir := filepath.Dir(path)

	pal, err := e.loadPalette(dir)
	if err != nil {
		return nil, err
	}

	remap, err := e.loadRemap(dir)
	if err != nil {
		return nil, err
	}

	b, err := fileio.ReadFile(path)
	if err != nil {
		return nil, err
	}

	a, err := art.DecodeWithOptions(b, art.DecodeOptions{
		Remap: remap,
		Hint:  e.opts.Hint,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Source{
		Path:    path,
		Archive: a,
		Palette: pal,
	}, nil
}
