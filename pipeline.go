package art2img

import (
	"context"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/raulcorreia7/art2img-sub001/encode"
	"github.com/raulcorreia7/art2img-sub001/fileio"
	"github.com/raulcorreia7/art2img-sub001/metadata"
	"github.com/raulcorreia7/art2img-sub001/palette"
)

// Result counts what an export did.
type Result struct {
	Archives       int
	FailedArchives int
	Exported       int
	Skipped        int
	Failed         int
}

func (r *Result) add(o Result) {
	r.Archives += o.Archives
	r.FailedArchives += o.FailedArchives
	r.Exported += o.Exported
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

type job struct {
	src       *Source
	view      palette.View
	outDir    string
	archiveID int64

	exported, skipped, failed int64
}

func isArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(fileio.TrimCompression(name)), ".art")
}

func (e *Exporter) findArchives(ctx context.Context, base string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories
			if file != base && info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !isArchive(info.Name()) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
	}()
	return out, errc
}

func emitTiles(ctx context.Context, n int) (<-chan int, <-chan error) {
	out := make(chan int)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			select {
			case out <- i:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return out, errc
}

func (e *Exporter) exportTile(j *job, i int) error {
	tile, _ := j.src.Archive.Tile(i)
	id, _ := j.src.Archive.ID(i)

	if tile.Empty() {
		atomic.AddInt64(&j.skipped, 1)
		return nil
	}

	m, err := Convert(tile, j.view, e.opts)
	if err != nil {
		atomic.AddInt64(&j.failed, 1)
		e.logger.Warn().Err(err).Str("file", j.src.Path).Uint32("tile", id).Msg("conversion failed")
		return nil
	}

	b, err := encode.Bytes(m, e.opts.Format, e.opts.Encoder)
	if err != nil {
		atomic.AddInt64(&j.failed, 1)
		e.logger.Warn().Err(err).Str("file", j.src.Path).Uint32("tile", id).Msg("encoding failed")
		return nil
	}

	out := filepath.Join(j.outDir, TileFilename(id, e.opts.Format))
	if err := fileio.WriteFile(out, b); err != nil {
		return err
	}
	atomic.AddInt64(&j.exported, 1)

	if e.catalog != nil {
		if err := e.catalog.AddTile(j.archiveID, TileRecord{
			ID:       id,
			Width:    tile.Width,
			Height:   tile.Height,
			Picanm:   tile.Animation.Picanm(),
			CRC:      crc32.ChecksumIEEE(tile.Pixels),
			Output:   out,
			Dominant: dominantHex(m),
		}); err != nil {
			return err
		}
	}

	return nil
}

func (e *Exporter) tileWorker(ctx context.Context, j *job, in <-chan int) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for i := range in {
			// Cancellation is only checked between tiles
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			if err := e.exportTile(j, i); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

// waitForPipeline returns the first error from errs. On error it calls
// cancel and keeps draining until every stage has closed its channel, so no
// worker is still running when it returns.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (e *Exporter) writeMetadata(j *job) error {
	db := metadata.New()
	a := j.src.Archive
	for i := 0; i < a.Len(); i++ {
		tile, _ := a.Tile(i)
		id, _ := a.ID(i)
		db.Set(id, metadata.Entry{
			Width:     tile.Width,
			Height:    tile.Height,
			Animation: tile.Animation,
		})
	}
	if db.Length() == 0 {
		return nil
	}

	b, err := db.MarshalText()
	if err != nil {
		return err
	}
	return fileio.WriteFile(filepath.Join(j.outDir, metadata.Filename), b)
}

// ExportArchive exports every tile of the archive at path into outDir.
// Tiles that fail to convert are logged and counted rather than aborting
// the export.
func (e *Exporter) ExportArchive(ctx context.Context, path, outDir string) (Result, error) {
	src, err := e.Load(path)
	if err != nil {
		return Result{}, err
	}

	j := &job{
		src:    src,
		view:   src.Palette.View(),
		outDir: outDir,
	}

	if e.catalog != nil {
		if j.archiveID, err = e.catalog.AddArchive(path, src.Archive.Header); err != nil {
			return Result{}, err
		}
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	tiles, errc := emitTiles(ctx, src.Archive.Len())
	errcList = append(errcList, errc)

	for i := 0; i < e.opts.Workers; i++ {
		errcList = append(errcList, e.tileWorker(ctx, j, tiles))
	}

	if err := waitForPipeline(cancelFunc, errcList...); err != nil {
		return Result{}, err
	}

	if !e.opts.SkipMetadata {
		if err := e.writeMetadata(j); err != nil {
			return Result{}, err
		}
	}

	r := Result{
		Archives: 1,
		Exported: int(j.exported),
		Skipped:  int(j.skipped),
		Failed:   int(j.failed),
	}

	e.logger.Info().
		Str("file", path).
		Int("exported", r.Exported).
		Int("skipped", r.Skipped).
		Int("failed", r.Failed).
		Msg("exported archive")

	return r, nil
}

// ExportDirectory finds every ART archive under dir and exports each into
// its own directory under outDir, named after the archive. Archives that
// cannot be loaded are logged and counted.
func (e *Exporter) ExportDirectory(ctx context.Context, dir, outDir string) (Result, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var total Result

	files, errc := e.findArchives(ctx, base)
	for file := range files {
		rel, err := filepath.Rel(base, file)
		if err != nil {
			return total, err
		}
		stem := fileio.TrimCompression(filepath.Base(rel))
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))

		r, err := e.ExportArchive(ctx, file, filepath.Join(outDir, filepath.Dir(rel), stem))
		switch {
		case err == nil:
			total.add(r)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return total, err
		default:
			total.Archives++
			total.FailedArchives++
			e.logger.Error().Err(err).Str("file", file).Msg("skipping archive")
		}
	}

	if err := <-errc; err != nil {
		return total, err
	}

	return total, nil
}
