// Package render draws a planning grid.
//
// # Overview
//
// A [Scene] classifies every cell of a map (wall, track, path, agent, ...)
// from a session snapshot or a bare map. Scenes render to:
//
//   - plain text with [ASCII], one glyph per cell
//   - Graphviz DOT with [DOT], a single HTML-table node coloured per cell
//   - SVG with [SVG], laid out by Graphviz
//   - PDF and PNG with [ToPDF] and [ToPNG], converted from SVG by rsvg-convert
//
// A typical caller:
//
//	scene := render.FromSnapshot(snap)
//	fmt.Print(render.ASCII(scene, render.DefaultGlyphs))
//	svg, err := render.SVG(ctx, render.DOT(scene))
//
// Row 0 is drawn at the top.
package render
