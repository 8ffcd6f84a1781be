package variant

import (
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// handleRowPlace drives omok and ttamok. Black is bound by the overline
// and double-three restrictions; violating one counts as a foul and, at
// the foul limit, forfeits the game. Ttamok additionally captures flanked
// pairs and can win by reaching the capture target.
func handleRowPlace(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	if s.Board.At(p) != engine.None {
		return Outcome{}, errors.NewMoveError(errors.ReasonOccupied)
	}

	if color == engine.Black {
		if engine.IsOverline(&s.Board, p, color) || engine.IsDoubleThree(&s.Board, p, color) {
			fouls := s.FoulsOf(color)
			*fouls++
			if *fouls >= s.Settings.FoulLimit {
				s.End(color.Opponent(), statuses.WinReasonFoulLimit, now)
			}
			return Outcome{}, errors.NewMoveError(errors.ReasonForbiddenPattern)
		}
	}

	s.Board.Set(p, color)

	captured := 0
	if s.Mode == game.ModeTtamok {
		pairs := engine.FindPairCaptures(s.Board, p, color)
		for _, taken := range pairs {
			s.Board.Remove(taken)
		}
		captured = len(pairs)
		*s.CapturesOf(color) += captured
	}

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPlace),
			Color:     color.String(),
			X:         p.X,
			Y:         p.Y,
			Captured:  captured,
			Timestamp: now,
		},
		FlipTurn: true,
	}

	if engine.IsRowWin(s.Board, p, color) {
		s.End(color, statuses.WinReasonRow, now)
		return outcome, nil
	}
	if s.Mode == game.ModeTtamok && *s.CapturesOf(color) >= s.Settings.CaptureTarget {
		s.End(color, statuses.WinReasonCaptureTarget, now)
	}
	return outcome, nil
}
