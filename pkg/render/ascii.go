package render

import (
	"strings"

	"github.com/matzehuels/trackplan/pkg/grid"
)

// Glyphs maps each Kind to the rune drawn for it.
type Glyphs map[Kind]rune

// DefaultGlyphs is the glyph set used by the CLI.
var DefaultGlyphs = Glyphs{
	KindStart:   'S',
	KindGoal:    'G',
	KindWall:    '#',
	KindPending: '+',
	KindAgent:   'A',
	KindPath:    '*',
	KindVisited: 'o',
	KindMarker:  'r',
	KindTrack:   '=',
	KindEmpty:   '.',
}

// Painter decorates one glyph, e.g. with terminal colours. A nil Painter
// draws plain text.
type Painter func(k Kind, glyph string) string

// ASCII draws the scene as text, one row per line.
func ASCII(s Scene, g Glyphs) string {
	return Paint(s, g, nil)
}

// Paint draws the scene like ASCII and passes each glyph through p.
func Paint(s Scene, g Glyphs, p Painter) string {
	if g == nil {
		g = DefaultGlyphs
	}
	var b strings.Builder
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			k := s.KindOf(grid.C(x, y))
			glyph := string(g[k])
			if p != nil {
				glyph = p(k, glyph)
			}
			b.WriteString(glyph)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Present lists the kinds drawn somewhere in the scene, in precedence order.
func Present(s Scene) []Kind {
	seen := make(map[Kind]bool)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			seen[s.KindOf(grid.C(x, y))] = true
		}
	}
	var kinds []Kind
	for _, k := range Kinds() {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Legend returns "glyph label" lines for every kind present in the scene.
func Legend(s Scene, g Glyphs) []string {
	if g == nil {
		g = DefaultGlyphs
	}
	var lines []string
	for _, k := range Present(s) {
		lines = append(lines, string(g[k])+" "+k.String())
	}
	return lines
}
