package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	art2img "github.com/raulcorreia7/art2img-sub001"
	"github.com/raulcorreia7/art2img-sub001/art"
	"github.com/raulcorreia7/art2img-sub001/encode"
	"github.com/raulcorreia7/art2img-sub001/fileio"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	if !c.Bool("verbose") {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Logger()
}

func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "palette",
			Aliases: []string{"p"},
			EnvVars: []string{"ART2IMG_PALETTE"},
			Usage:   "path to PALETTE.DAT (default: found beside each archive)",
		},
		&cli.StringFlag{
			Name:    "lookup",
			EnvVars: []string{"ART2IMG_LOOKUP"},
			Usage:   "path to LOOKUP.DAT (default: found beside each archive)",
		},
		&cli.StringFlag{
			Name:  "discover",
			Value: art.HintSidecar.String(),
			Usage: "which companion files to look for: none, sidecar, lookup or both",
		},
		&cli.UintFlag{
			Name:  "swap",
			Usage: "LOOKUP.DAT palette swap to apply",
		},
		&cli.BoolFlag{
			Name:  "apply-lookup",
			Usage: "remap tiles through the LOOKUP.DAT swap table",
		},
		&cli.UintFlag{
			Name:  "shade",
			Usage: "palette shade table to use",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			EnvVars: []string{"ART2IMG_FORMAT"},
			Value:   encode.PNG.String(),
			Usage:   "output format: png, tga, bmp or gif",
		},
		&cli.BoolFlag{
			Name:  "no-transparency-fix",
			Usage: "keep magenta and index 0 pixels opaque",
		},
		&cli.BoolFlag{
			Name:  "premultiply",
			Usage: "premultiply color by alpha",
		},
		&cli.BoolFlag{
			Name:  "matte",
			Usage: "erode and soften the alpha edges",
		},
		&cli.BoolFlag{
			Name:  "rle",
			Usage: "run-length encode TGA output",
		},
		&cli.IntFlag{
			Name:  "colors",
			Value: 256,
			Usage: "GIF palette size",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"j"},
			EnvVars: []string{"ART2IMG_WORKERS"},
			Value:   10,
			Usage:   "tiles converted in parallel",
		},
		&cli.BoolFlag{
			Name:  "no-metadata",
			Usage: "don't write animdata.ini",
		},
	}
}

func optionsFromContext(c *cli.Context) (art2img.Options, error) {
	opts := art2img.DefaultOptions()

	f, err := encode.ParseFormat(c.String("format"))
	if err != nil {
		return opts, err
	}
	hint, ok := art.ParsePaletteHint(c.String("discover"))
	if !ok {
		return opts, fmt.Errorf("unknown discovery mode %q", c.String("discover"))
	}
	if c.Uint("swap") > 0xff || c.Uint("shade") > 0xff {
		return opts, fmt.Errorf("swap and shade must be below 256")
	}

	opts.Format = f
	opts.Encoder.RLE = c.Bool("rle")
	opts.Encoder.Colors = c.Int("colors")
	opts.ApplyLookup = c.Bool("apply-lookup")
	opts.Shade = uint8(c.Uint("shade"))
	opts.FixTransparency = !c.Bool("no-transparency-fix")
	opts.PremultiplyAlpha = c.Bool("premultiply")
	opts.SanitizeMatte = c.Bool("matte")
	opts.PalettePath = c.String("palette")
	opts.LookupPath = c.String("lookup")
	opts.Hint = hint
	opts.Swap = uint8(c.Uint("swap"))
	opts.Workers = c.Int("workers")
	opts.SkipMetadata = c.Bool("no-metadata")

	return opts, nil
}

func printResult(w io.Writer, r art2img.Result) {
	fmt.Fprintf(w, "%d archive(s), %d tile(s) exported, %d empty, %d failed\n", r.Archives, r.Exported, r.Skipped, r.Failed)
	if r.FailedArchives > 0 {
		fmt.Fprintf(w, "%d archive(s) could not be read\n", r.FailedArchives)
	}
}

func printInfo(w io.Writer, file string) error {
	b, err := fileio.ReadFile(file)
	if err != nil {
		return err
	}
	a, err := art.Decode(b)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: version %d, tiles %d-%d (%d)\n", file, a.Version, a.Start, a.End, a.Len())

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintln(tw, "TILE\tWIDTH\tHEIGHT\tFRAMES\tTYPE\tX\tY\tSPEED\tFLAGS")
	for i := 0; i < a.Len(); i++ {
		t, _ := a.Tile(i)
		id, _ := a.ID(i)
		if t.Empty() && t.Animation.IsZero() {
			continue
		}
		an := t.Animation
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%d\t%d\t%d\t%d\n", id, t.Width, t.Height, an.Frames, an.Type, an.XCenter, an.YCenter, an.Speed, an.Flags)
	}
	return tw.Flush()
}

func main() {
	app := cli.NewApp()

	app.Name = "art2img"
	app.Usage = "Build engine ART tile converter"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app.Commands = []*cli.Command{
		{
			Name:      "convert",
			Usage:     "Convert every tile of an ART file to images",
			ArgsUsage: "FILE",
			Flags: append(conversionFlags(), &cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "output directory",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := optionsFromContext(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				e := art2img.New(opts, nil, newLogger(c))

				r, err := e.ExportArchive(ctx, c.Args().First(), c.String("out"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				printResult(c.App.Writer, r)

				return nil
			},
		},
		{
			Name:      "export",
			Usage:     "Convert every ART file found under a directory",
			ArgsUsage: "DIRECTORY OUTDIR",
			Flags: append(conversionFlags(), &cli.StringFlag{
				Name:    "catalog",
				EnvVars: []string{"ART2IMG_CATALOG"},
				Usage:   "record exported tiles in this SQLite database",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := optionsFromContext(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				var catalog *art2img.Catalog
				if file := c.String("catalog"); file != "" {
					if catalog, err = art2img.OpenCatalog(file); err != nil {
						return cli.Exit(err, 1)
					}
					defer catalog.Close()
				}

				e := art2img.New(opts, catalog, newLogger(c))

				r, err := e.ExportDirectory(ctx, c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}
				printResult(c.App.Writer, r)

				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "List the tiles in an ART file",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				for _, file := range c.Args().Slice() {
					if err := printInfo(c.App.Writer, file); err != nil {
						return cli.Exit(err, 1)
					}
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
