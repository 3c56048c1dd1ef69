package render_test

import (
	"fmt"

	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/render"
	"github.com/matzehuels/trackplan/pkg/session"
)

func ExampleASCII() {
	m := &mapdata.Map{
		Width:   4,
		Height:  3,
		Walls:   []grid.Cell{grid.C(1, 1)},
		Tracks:  []grid.Cell{grid.C(0, 2), grid.C(1, 2)},
		Markers: []grid.Cell{grid.C(3, 0)},
	}
	fmt.Print(render.ASCII(render.FromMap(m), render.DefaultGlyphs))
	// Output:
	// ...r
	// .#..
	// ==..
}

func ExampleFromSnapshot() {
	snap := &session.Snapshot{
		Width:   4,
		Height:  3,
		Walls:   grid.NewCellSet(grid.C(1, 1), grid.C(2, 1)),
		Pending: []grid.Cell{grid.C(2, 1)},
		Masked:  grid.NewCellSet(grid.C(3, 2)),
		Start:   grid.C(0, 0),
		Goal:    grid.C(3, 0),
		Path:    []grid.Cell{grid.C(0, 0), grid.C(1, 0), grid.C(2, 0), grid.C(3, 0)},
	}
	scene := render.FromSnapshot(snap)
	fmt.Print(render.ASCII(scene, nil))
	for _, line := range render.Legend(scene, nil) {
		fmt.Println(line)
	}
	// Output:
	// S**G
	// .#+.
	// ...A
	// S start
	// G goal
	// + temporary wall
	// # wall
	// A other agent
	// * path
	// . empty
}
