package engine

import "strings"

type Stone int

const (
	None Stone = iota
	Black
	White
)

func (s Stone) Opponent() Stone {
	switch s {
	case Black:
		return White
	case White:
		return Black
	default:
		return None
	}
}

func (s Stone) String() string {
	switch s {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "none"
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Equals(other Point) bool {
	return p.X == other.X && p.Y == other.Y
}

// Board is a square grid of stones. The zero value is unusable, construct
// with NewBoard.
type Board struct {
	size  int
	cells []Stone
}

const (
	MinBoardSize = 7
	MaxBoardSize = 19
)

func NewBoard(size int) Board {
	b := Board{}
	b.Reset(size)
	return b
}

func (b *Board) Reset(size int) {
	b.size = size
	b.cells = make([]Stone, size*size)
}

func (b Board) Size() int {
	return b.size
}

func (b Board) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.size && p.Y < b.size
}

func (b Board) At(p Point) Stone {
	return b.cells[b.index(p)]
}

func (b *Board) Set(p Point, s Stone) {
	b.cells[b.index(p)] = s
}

func (b *Board) Remove(p Point) {
	b.cells[b.index(p)] = None
}

func (b Board) IsEmpty(p Point) bool {
	return b.InBounds(p) && b.At(p) == None
}

// Neighbors returns the orthogonally adjacent points, clipped at edges.
func (b Board) Neighbors(p Point) []Point {
	candidates := [4]Point{
		{p.X + 1, p.Y},
		{p.X - 1, p.Y},
		{p.X, p.Y + 1},
		{p.X, p.Y - 1},
	}
	result := make([]Point, 0, 4)
	for _, c := range candidates {
		if b.InBounds(c) {
			result = append(result, c)
		}
	}
	return result
}

// Group is the maximal connected set of same-colored stones containing a
// point, together with its liberties. Derived on demand, never cached.
type Group struct {
	Color     Stone
	Stones    []Point
	Liberties []Point
}

// GroupAt runs a breadth-first traversal from p over same-colored stones.
// Returns an empty group if p is empty or out of bounds.
func (b Board) GroupAt(p Point) Group {
	if !b.InBounds(p) || b.At(p) == None {
		return Group{}
	}
	color := b.At(p)
	group := Group{Color: color}

	visited := make(map[Point]bool)
	libertySeen := make(map[Point]bool)
	queue := []Point{p}
	visited[p] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		group.Stones = append(group.Stones, cur)

		for _, n := range b.Neighbors(cur) {
			switch b.At(n) {
			case None:
				if !libertySeen[n] {
					libertySeen[n] = true
					group.Liberties = append(group.Liberties, n)
				}
			case color:
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
	}
	return group
}

func (b Board) CountStones(color Stone) int {
	count := 0
	for _, c := range b.cells {
		if c == color {
			count++
		}
	}
	return count
}

func (b Board) CountEmpty() int {
	return b.CountStones(None)
}

func (b Board) Clone() Board {
	clone := Board{size: b.size}
	clone.cells = make([]Stone, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

// Cells returns a row-major copy of the grid for snapshots.
func (b Board) Cells() [][]int {
	rows := make([][]int, b.size)
	for y := 0; y < b.size; y++ {
		row := make([]int, b.size)
		for x := 0; x < b.size; x++ {
			row[x] = int(b.At(Point{x, y}))
		}
		rows[y] = row
	}
	return rows
}

// RestoreCells rebuilds a board from a snapshot produced by Cells.
func RestoreCells(rows [][]int) Board {
	size := len(rows)
	b := NewBoard(size)
	for y := 0; y < size; y++ {
		for x := 0; x < size && x < len(rows[y]); x++ {
			b.Set(Point{x, y}, Stone(rows[y][x]))
		}
	}
	return b
}

func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			switch b.At(Point{x, y}) {
			case Black:
				sb.WriteByte('X')
			case White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b Board) index(p Point) int {
	return p.Y*b.size + p.X
}
