package engine

import "baduk_arena/internal/errors"

// KoState marks a single-point capture that may not be retaken on the very
// next move. Zero value means no ko restriction.
type KoState struct {
	Point Point `json:"point"`
	Turn  int   `json:"turn"`
	Set   bool  `json:"set"`
}

// MoveResult is the outcome of a legal placement.
type MoveResult struct {
	Board          Board
	Captured       int
	CapturedPoints []Point
	Ko             KoState
}

// ApplyMove validates and applies a stone placement under standard baduk
// rules: occupancy, ko, capture of dead opposing groups, suicide rollback.
// The input board is not modified; the result carries the new board.
func ApplyMove(board Board, p Point, color Stone, ko KoState, moveIndex int) (MoveResult, error) {
	if !board.InBounds(p) {
		return MoveResult{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	if board.At(p) != None {
		return MoveResult{}, errors.NewMoveError(errors.ReasonOccupied)
	}
	if ko.Set && ko.Point.Equals(p) && moveIndex == ko.Turn+1 {
		return MoveResult{}, errors.NewMoveError(errors.ReasonKo)
	}

	next := board.Clone()
	next.Set(p, color)

	opponent := color.Opponent()
	var capturedPoints []Point
	seen := make(map[Point]bool)
	for _, n := range next.Neighbors(p) {
		if next.At(n) != opponent || seen[n] {
			continue
		}
		group := next.GroupAt(n)
		for _, s := range group.Stones {
			seen[s] = true
		}
		if len(group.Liberties) == 0 {
			for _, s := range group.Stones {
				next.Remove(s)
				capturedPoints = append(capturedPoints, s)
			}
		}
	}

	own := next.GroupAt(p)
	if len(own.Liberties) == 0 {
		// Nothing was captured to free the group, so the placement kills
		// itself. Reject without touching the caller's board.
		return MoveResult{}, errors.NewMoveError(errors.ReasonSuicide)
	}

	result := MoveResult{
		Board:          next,
		Captured:       len(capturedPoints),
		CapturedPoints: capturedPoints,
	}

	if len(capturedPoints) == 1 && len(own.Stones) == 1 && len(own.Liberties) == 1 {
		result.Ko = KoState{Point: capturedPoints[0], Turn: moveIndex, Set: true}
	}

	return result, nil
}

// ScoreResult is an area count: stones plus surrounded empty territory.
type ScoreResult struct {
	Black float64 `json:"black"`
	White float64 `json:"white"`
}

// Score counts area for both colors. An empty region bordered by exactly
// one color is that color's territory; contested regions count for nobody.
// Komi is added to White.
func Score(board Board, komi float64) ScoreResult {
	result := ScoreResult{
		Black: float64(board.CountStones(Black)),
		White: float64(board.CountStones(White)) + komi,
	}

	visited := make(map[Point]bool)
	for y := 0; y < board.Size(); y++ {
		for x := 0; x < board.Size(); x++ {
			p := Point{x, y}
			if board.At(p) != None || visited[p] {
				continue
			}
			region, owner := emptyRegion(board, p, visited)
			switch owner {
			case Black:
				result.Black += float64(len(region))
			case White:
				result.White += float64(len(region))
			}
		}
	}
	return result
}

// emptyRegion floods an empty region and reports its sole bordering color,
// or None when both colors touch it.
func emptyRegion(board Board, start Point, visited map[Point]bool) ([]Point, Stone) {
	var region []Point
	owner := None
	contested := false

	queue := []Point{start}
	visited[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		region = append(region, cur)

		for _, n := range board.Neighbors(cur) {
			switch board.At(n) {
			case None:
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			default:
				if owner == None {
					owner = board.At(n)
				} else if owner != board.At(n) {
					contested = true
				}
			}
		}
	}
	if contested {
		return region, None
	}
	return region, owner
}

// FirstLiberty returns the first empty point that would be a legal
// placement for color, scanning row-major. Used as a deterministic
// fallback when an AI turn must produce something and pass is not part of
// the variant.
func FirstLiberty(board Board, color Stone, ko KoState, moveIndex int) (Point, bool) {
	for y := 0; y < board.Size(); y++ {
		for x := 0; x < board.Size(); x++ {
			p := Point{x, y}
			if board.At(p) != None {
				continue
			}
			if _, err := ApplyMove(board, p, color, ko, moveIndex); err == nil {
				return p, true
			}
		}
	}
	return Point{}, false
}
