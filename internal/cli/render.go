package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/render"
)

// Output formats of the render command.
const (
	formatASCII = "ascii"
	formatDOT   = "dot"
	formatSVG   = "svg"
	formatPNG   = "png"
	formatPDF   = "pdf"
)

var renderFormats = []string{formatASCII, formatDOT, formatSVG, formatPNG, formatPDF}

type renderOpts struct {
	mapPath   string
	sessionID string
	format    string
	output    string
	scale     float64
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a map or a stored session",
		Long: `Render draws a map file, or the latest snapshot of a session from the
snapshot store, as text, Graphviz DOT, SVG, PNG or PDF. PNG and PDF need
rsvg-convert on PATH.`,
		Example: `  trackplan render --map mapa.json
  trackplan render --map mapa.json --format svg -o map.svg
  trackplan render --session 6f1c... --format png -o route.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := c.loadScene(cmd, opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), scene, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mapPath, "map", "m", "", "map file (JSON or TOML)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "session ID in the snapshot store")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatASCII, "output format: "+strings.Join(renderFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")
	cmd.Flags().String("store-dir", "", "read --session from this file store directory")
	cmd.MarkFlagsMutuallyExclusive("map", "session")
	cmd.MarkFlagsOneRequired("map", "session")

	return cmd
}

func (c *CLI) loadScene(cmd *cobra.Command, opts renderOpts) (render.Scene, error) {
	if opts.mapPath != "" {
		m, err := mapdata.LoadFile(opts.mapPath)
		if err != nil {
			return render.Scene{}, err
		}
		return render.FromMap(m), nil
	}
	snap, err := c.loadStoredSnapshot(cmd, opts.sessionID)
	if err != nil {
		return render.Scene{}, err
	}
	return render.FromSnapshot(snap), nil
}

func (c *CLI) runRender(ctx context.Context, out io.Writer, scene render.Scene, opts renderOpts) error {
	data, err := renderScene(ctx, scene, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		if opts.format == formatASCII {
			printScene(out, scene)
			return nil
		}
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printSuccess(out, "Rendered %s", opts.format)
	printFile(out, opts.output)
	return nil
}

func renderScene(ctx context.Context, scene render.Scene, opts renderOpts) ([]byte, error) {
	switch opts.format {
	case formatASCII:
		return []byte(render.ASCII(scene, render.DefaultGlyphs)), nil
	case formatDOT:
		return []byte(render.DOT(scene)), nil
	case formatSVG, formatPNG, formatPDF:
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", opts.format, strings.Join(renderFormats, ", "))
	}

	sp := startSpinner(ctx, os.Stderr, "Laying out with Graphviz...")
	svg, err := render.SVG(ctx, render.DOT(scene))
	sp.Stop()
	if err != nil {
		return nil, err
	}
	switch opts.format {
	case formatPNG:
		return render.ToPNG(ctx, svg, opts.scale)
	case formatPDF:
		return render.ToPDF(ctx, svg)
	default:
		return svg, nil
	}
}
