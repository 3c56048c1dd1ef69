package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/trackplan/pkg/grid"
)

func TestKindOfPrecedence(t *testing.T) {
	start, goal := grid.C(0, 0), grid.C(2, 0)
	s := Scene{
		Width:   3,
		Height:  2,
		Walls:   grid.NewCellSet(grid.C(1, 1)),
		Tracks:  grid.NewCellSet(grid.C(0, 0), grid.C(1, 0), grid.C(1, 1)),
		Path:    grid.NewCellSet(grid.C(0, 0), grid.C(1, 0), grid.C(2, 0)),
		Visited: grid.NewCellSet(grid.C(1, 0), grid.C(0, 1)),
		Start:   &start,
		Goal:    &goal,
	}

	tests := []struct {
		cell grid.Cell
		want Kind
	}{
		{grid.C(0, 0), KindStart},
		{grid.C(2, 0), KindGoal},
		{grid.C(1, 1), KindWall},
		{grid.C(1, 0), KindPath},
		{grid.C(0, 1), KindVisited},
		{grid.C(2, 1), KindEmpty},
	}
	for _, tt := range tests {
		if got := s.KindOf(tt.cell); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestPaintDecoratesGlyphs(t *testing.T) {
	s := Scene{Width: 2, Height: 1, Walls: grid.NewCellSet(grid.C(1, 0))}
	got := Paint(s, nil, func(k Kind, g string) string { return "[" + g + "]" })
	if got != "[.][#]\n" {
		t.Errorf("Paint = %q", got)
	}
}

func TestDOT(t *testing.T) {
	s := Scene{Title: "floor", Width: 3, Height: 2, Walls: grid.NewCellSet(grid.C(1, 1))}
	dot := DOT(s)

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("DOT should start with digraph header:\n%s", dot)
	}
	if n := strings.Count(dot, "<tr>"); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
	if n := strings.Count(dot, "<td "); n != 6 {
		t.Errorf("cells = %d, want 6", n)
	}
	if !strings.Contains(dot, `bgcolor="`+Palette[KindWall]+`" title="(1,1) wall"`) {
		t.Error("wall cell should carry the wall colour")
	}
	if !strings.Contains(dot, `label="floor"`) {
		t.Error("title should become the graph label")
	}
}

func TestSVG(t *testing.T) {
	s := Scene{Width: 3, Height: 3, Walls: grid.NewCellSet(grid.C(1, 1))}
	svg, err := SVG(context.Background(), DOT(s))
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("SVG root not normalized:\n%.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should pass through")
	}
}
