// Command reflowcli is a thin command-line harness over the reflow
// engine: open an EPUB or HTML document, report its page count and
// table of contents, and render a page to a PNG preview. It exists to
// exercise the document/render/config stack end to end, not as a
// full-featured reader.
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/inkleaf/reflow/config"
	"github.com/inkleaf/reflow/document"
	"github.com/inkleaf/reflow/hyphen"
	"github.com/inkleaf/reflow/render"
)

func main() {
	cmd := &cli.Command{
		Name:  "reflowcli",
		Usage: "inspect and render reflowable EPUB/HTML documents",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a reflow config.yaml"},
		},
		Commands: []*cli.Command{
			infoCommand(),
			renderCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "reflowcli:", err)
		os.Exit(1)
	}
}

func loadEnv(c *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg := &config.Config{}
	if p := c.String("config"); p != "" {
		loaded, err := config.LoadConfiguration(p)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	} else {
		cfg.Logging.Console.Level = "normal"
	}
	log, err := cfg.Logging.Prepare()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func openDocument(c *cli.Command, cfg *config.Config, log *zap.Logger) (*document.Facade, error) {
	path := c.Args().First()
	if path == "" {
		return nil, fmt.Errorf("usage: reflowcli %s <path>", c.Name)
	}
	f, err := document.Open(path, log)
	if err != nil {
		return nil, err
	}
	params := cfg.Layout.Resolve()
	f.SetPageSize(params.WidthPx, params.HeightPx)
	f.SetMargin(params.MarginPx)
	f.SetFontSize(params.FontSizePx)
	f.SetLineHeight(params.LineHeightEm)
	f.SetDPI(params.DPI)
	f.SetTextAlign(params.TextAlign)
	f.SetFontFamily(params.FontFamily)
	f.SetHyphenPenalty(params.HyphenPenalty)
	f.SetStretchTolerance(params.StretchTolerance)
	f.SetIgnoreDocumentCSS(params.IgnoreDocumentCSS)
	if len(cfg.Hyphenation.Dictionaries) > 0 {
		f.SetHyphenator(hyphen.New(dirDictionaryProvider(cfg.Hyphenation.Dictionaries), log))
	}
	return f, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print page count, table of contents and metadata",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer log.Sync()
			f, err := openDocument(c, cfg, log)
			if err != nil {
				return err
			}
			n, err := f.PagesCount()
			if err != nil {
				return err
			}
			fmt.Printf("kind: %s\n", f.Kind())
			fmt.Printf("pages: %d\n", n)
			for _, key := range []string{"title", "creator", "language"} {
				if v := f.Metadata(key); len(v) > 0 {
					fmt.Printf("%s: %s\n", key, strings.Join(v, "; "))
				}
			}
			for _, e := range f.TOC() {
				fmt.Printf("  - %s\n", e.Title)
			}
			return nil
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render one page to a PNG file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Value: 0, Usage: "zero-based page index"},
			&cli.Float64Flag{Name: "scale", Value: 1.0, Usage: "device pixel scale"},
			&cli.StringFlag{Name: "out", Value: "page.png", Usage: "output PNG path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer log.Sync()
			f, err := openDocument(c, cfg, log)
			if err != nil {
				return err
			}
			offset := 0
			for i := int64(0); i < c.Int("page"); i++ {
				next, err := f.ResolveLocation(document.Next(offset))
				if err != nil {
					return err
				}
				offset = next
			}
			pix, w, h, err := f.Pixmap(document.Exact(offset), c.Float64("scale"), render.PlaceholderShaper{})
			if err != nil {
				return err
			}
			img := &image.Gray{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
			out, err := os.Create(c.String("out"))
			if err != nil {
				return err
			}
			defer out.Close()
			return png.Encode(out, img)
		},
	}
}

// dirDictionaryProvider resolves a hyphenation dictionary name (e.g.
// "en-us") to a pair of pattern/exception files under the configured
// directory, named "<name>.pat.txt" and "<name>.exc.txt".
type dirDictionaryProvider map[string]string

func (m dirDictionaryProvider) Dictionary(name string) (io.Reader, io.Reader, bool) {
	dir, ok := m[name]
	if !ok {
		return nil, nil, false
	}
	patterns, err := os.Open(filepath.Join(dir, name+".pat.txt"))
	if err != nil {
		return nil, nil, false
	}
	exceptions, err := os.Open(filepath.Join(dir, name+".exc.txt"))
	if err != nil {
		patterns.Close()
		return patterns, nil, true
	}
	return patterns, exceptions, true
}
