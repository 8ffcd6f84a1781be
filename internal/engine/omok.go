package engine

// Omok and ttamok share the in-a-row machinery: no liberties, no ko, wins
// come from rows of five, ttamok adds flanked-pair captures.

var rowDirections = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// RowLength returns the longest run of same-colored stones through p,
// assuming p is occupied.
func RowLength(board Board, p Point) int {
	color := board.At(p)
	if color == None {
		return 0
	}
	best := 0
	for _, d := range rowDirections {
		count := 1
		count += countDirection(board, p, d[0], d[1], color)
		count += countDirection(board, p, -d[0], -d[1], color)
		if count > best {
			best = count
		}
	}
	return best
}

func countDirection(board Board, p Point, dx, dy int, color Stone) int {
	count := 0
	x, y := p.X+dx, p.Y+dy
	for board.InBounds(Point{x, y}) && board.At(Point{x, y}) == color {
		count++
		x += dx
		y += dy
	}
	return count
}

// IsRowWin reports whether placing at p completed a winning row. Black
// must make exactly five (an overline is forbidden, caught earlier);
// White wins on five or more.
func IsRowWin(board Board, p Point, color Stone) bool {
	length := RowLength(board, p)
	if color == Black {
		return rowExactlyFive(board, p)
	}
	return length >= 5
}

func rowExactlyFive(board Board, p Point) bool {
	color := board.At(p)
	for _, d := range rowDirections {
		count := 1 + countDirection(board, p, d[0], d[1], color) +
			countDirection(board, p, -d[0], -d[1], color)
		if count == 5 {
			return true
		}
	}
	return false
}

// IsOverline reports whether placing color at p would make a run of six
// or more. The placement is applied transiently.
func IsOverline(board *Board, p Point, color Stone) bool {
	board.Set(p, color)
	defer board.Remove(p)
	for _, d := range rowDirections {
		count := 1 + countDirection(*board, p, d[0], d[1], color) +
			countDirection(*board, p, -d[0], -d[1], color)
		if count >= 6 {
			return true
		}
	}
	return false
}

// IsDoubleThree reports whether placing color at p creates two or more
// open threes at once. The placement is applied transiently.
func IsDoubleThree(board *Board, p Point, color Stone) bool {
	board.Set(p, color)
	defer board.Remove(p)
	openThrees := 0
	for _, d := range rowDirections {
		if isOpenThree(*board, p, d[0], d[1], color) {
			openThrees++
			if openThrees >= 2 {
				return true
			}
		}
	}
	return false
}

// isOpenThree: three in a row through p along (dx,dy) with both ends empty.
func isOpenThree(board Board, p Point, dx, dy int, color Stone) bool {
	forward := countDirection(board, p, dx, dy, color)
	backward := countDirection(board, p, -dx, -dy, color)
	if 1+forward+backward != 3 {
		return false
	}
	headX, headY := p.X+(forward+1)*dx, p.Y+(forward+1)*dy
	tailX, tailY := p.X-(backward+1)*dx, p.Y-(backward+1)*dy
	return board.IsEmpty(Point{headX, headY}) && board.IsEmpty(Point{tailX, tailY})
}

var captureDirections = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

// FindPairCaptures returns opponent stones captured by placing color at p
// under the ttamok flanking rule: color-opp-opp-color along any of the
// eight directions captures the inner pair. The stone at p must already
// be on the board.
func FindPairCaptures(board Board, p Point, color Stone) []Point {
	opponent := color.Opponent()
	var captured []Point
	for _, d := range captureDirections {
		p1 := Point{p.X + d[0], p.Y + d[1]}
		p2 := Point{p.X + 2*d[0], p.Y + 2*d[1]}
		p3 := Point{p.X + 3*d[0], p.Y + 3*d[1]}
		if !board.InBounds(p3) {
			continue
		}
		if board.At(p1) == opponent && board.At(p2) == opponent && board.At(p3) == color {
			captured = append(captured, p1, p2)
		}
	}
	return captured
}
