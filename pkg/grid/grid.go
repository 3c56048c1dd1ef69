package grid

// offsets lists the eight unit moves in the order neighbours are reported.
var offsets = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {1, 1}, {-1, 1}, {1, -1},
}

// Grid is the immutable adjacency relation of a width×height grid.
// Build it once with [New] and share it freely; it is safe for concurrent reads.
type Grid struct {
	width, height int
	neighbors     [][]Cell // row-major index -> in-bounds neighbours
}

// New builds the 8-directional adjacency for a width×height grid.
// Non-positive dimensions yield an empty grid with no cells.
// Complexity: O(width·height) time and memory.
func New(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		return &Grid{}
	}
	g := &Grid{
		width:     width,
		height:    height,
		neighbors: make([][]Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			adj := make([]Cell, 0, len(offsets))
			for _, d := range offsets {
				n := Cell{X: x + d[0], Y: y + d[1]}
				if g.InBounds(n) {
					adj = append(adj, n)
				}
			}
			g.neighbors[g.Index(Cell{X: x, Y: y})] = adj
		}
	}
	return g
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns the number of cells.
func (g *Grid) Size() int { return g.width * g.height }

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Index maps c to its row-major index y*width + x. c must be in bounds.
func (g *Grid) Index(c Cell) int {
	return c.Y*g.width + c.X
}

// Cell converts a row-major index back to a cell.
func (g *Grid) Cell(idx int) Cell {
	return Cell{X: idx % g.width, Y: idx / g.width}
}

// Neighbors returns the in-bounds cells adjacent to c. The returned slice is
// shared and must not be modified. Out-of-bounds cells have no neighbours.
func (g *Grid) Neighbors(c Cell) []Cell {
	if !g.InBounds(c) {
		return nil
	}
	return g.neighbors[g.Index(c)]
}

// Cells returns every cell in row-major order.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, g.Size())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			out = append(out, Cell{X: x, Y: y})
		}
	}
	return out
}
