package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCell is returned by [ParseCell] and [Cell.UnmarshalJSON] when the
// input is not a pair of integers.
var ErrInvalidCell = errors.New("cell must be an integer pair")

// Cell is a grid coordinate. Identity is value equality.
type Cell struct {
	X, Y int
}

// C is shorthand for Cell{X: x, Y: y}.
func C(x, y int) Cell { return Cell{X: x, Y: y} }

// String formats the cell as "(x,y)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders cells by X, then Y.
func (c Cell) Less(o Cell) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// IsDiagonalTo reports whether o is one diagonal step away from c.
func (c Cell) IsDiagonalTo(o Cell) bool {
	return abs(c.X-o.X) == 1 && abs(c.Y-o.Y) == 1
}

// MarshalJSON encodes the cell as [x, y].
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON decodes a cell from [x, y].
func (c *Cell) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCell, err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: got %d values", ErrInvalidCell, len(pair))
	}
	c.X, c.Y = pair[0], pair[1]
	return nil
}

// ParseCell parses "x,y" (surrounding brackets or parentheses are allowed).
func ParseCell(s string) (Cell, error) {
	s = strings.Trim(strings.TrimSpace(s), "()[]")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return Cell{X: x, Y: y}, nil
}

// Manhattan returns |Δx| + |Δy| between a and b.
func Manhattan(a, b Cell) float64 {
	return float64(abs(a.X-b.X) + abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
