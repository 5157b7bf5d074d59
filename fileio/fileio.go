/*
Package fileio reads and writes whole files for the converter. Inputs ending
in .gz, .zst or .xz are decompressed transparently.
*/
package fileio

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/raulcorreia7/art2img-sub001/errkind"
	"github.com/ulikunitz/xz"
)

// Compressed suffixes understood by ReadFile.
const (
	ExtGzip = ".gz"
	ExtZstd = ".zst"
	ExtXz   = ".xz"
)

// TrimCompression strips a recognized compression suffix from name, so
// "TILES000.ART.gz" becomes "TILES000.ART".
func TrimCompression(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtGzip, ExtZstd, ExtXz:
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

func decompressor(name string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case ExtZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ExtXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, func() {}, nil
	default:
		return r, func() {}, nil
	}
}

// ReadFile returns the contents of the named file, decompressed if its
// extension says so.
func ReadFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errkind.Wrap(errkind.IOFailure, "open", err)
	}
	defer f.Close()

	r, done, err := decompressor(name, f)
	if err != nil {
		return nil, errkind.Wrap(errkind.IOFailure, "decompress "+name, err)
	}
	defer done()

	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errkind.Wrap(errkind.IOFailure, "read "+name, err)
	}
	return b, nil
}

// WriteFile writes b to the named file, creating parent directories.
func WriteFile(name string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return errkind.Wrap(errkind.IOFailure, "create directory", err)
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return errkind.Wrap(errkind.IOFailure, "write", err)
	}
	return nil
}

// Find returns the path of a file called name in dir, matching the name
// case-insensitively and also accepting compressed variants. It returns ""
// if there is none.
func Find(dir, name string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var compressed string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.EqualFold(e.Name(), name):
			return filepath.Join(dir, e.Name())
		case compressed == "" && strings.EqualFold(TrimCompression(e.Name()), name):
			compressed = filepath.Join(dir, e.Name())
		}
	}
	return compressed
}
