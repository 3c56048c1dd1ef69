package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/trackplan/pkg/grid"
)

// Palette maps each Kind to a fill colour.
var Palette = map[Kind]string{
	KindStart:   "#2e7d32",
	KindGoal:    "#c62828",
	KindWall:    "#37474f",
	KindPending: "#ff8f00",
	KindAgent:   "#6a1b9a",
	KindPath:    "#42a5f5",
	KindVisited: "#bbdefb",
	KindMarker:  "#fdd835",
	KindTrack:   "#d7ccc8",
	KindEmpty:   "#ffffff",
}

// cellSize is the width and height of one table cell in points.
const cellSize = 18

// DOT renders the scene as a single plaintext node whose HTML-table label has
// one coloured cell per grid cell.
func DOT(s Scene) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=plaintext, margin=0];\n")
	if s.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", s.Title)
	}
	buf.WriteString("  grid [label=<\n")
	buf.WriteString("    <table border=\"0\" cellborder=\"1\" cellspacing=\"0\" cellpadding=\"0\">\n")
	for y := 0; y < s.Height; y++ {
		buf.WriteString("      <tr>")
		for x := 0; x < s.Width; x++ {
			c := grid.C(x, y)
			k := s.KindOf(c)
			fmt.Fprintf(&buf, `<td width="%d" height="%d" fixedsize="true" bgcolor="%s" title="%s %s"> </td>`,
				cellSize, cellSize, Palette[k], html.EscapeString(c.String()), k)
		}
		buf.WriteString("</tr>\n")
	}
	buf.WriteString("    </table>\n")
	buf.WriteString("  >];\n")
	buf.WriteString("}\n")
	return buf.String()
}

// SVG lays out a DOT document with Graphviz.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element to a zero-origin viewBox with
// matching width and height, so the grid scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
