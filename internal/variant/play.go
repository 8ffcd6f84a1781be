package variant

import (
	"math/rand"
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// handlePlace is the shared placement path for every go-ruled mode:
// capture, ko and suicide via the rule engine, plus the hidden-stone
// reveal and the capture-race short circuit where configured.
func handlePlace(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	p := engine.Point{X: action.X, Y: action.Y}

	if s.Mode == game.ModeHidden {
		if outcome, handled, err := resolveConcealed(s, color, p, now); handled {
			return outcome, err
		}
	}

	result, err := engine.ApplyMove(s.Board, p, color, s.Ko, s.MoveIndex())
	if err != nil {
		return Outcome{}, err
	}

	// A legal move onto your own concealed point materializes the stone:
	// drop it from the list only now that the placement stands.
	if s.Mode == game.ModeHidden {
		if idx, ok := hiddenIndex(s, color, p); ok {
			removeHidden(s, color, idx)
		}
	}

	s.Board = result.Board
	s.Ko = result.Ko
	s.PassStreak = 0
	*s.CapturesOf(color) += result.Captured

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPlace),
			Color:     color.String(),
			X:         p.X,
			Y:         p.Y,
			Captured:  result.Captured,
			Timestamp: now,
		},
		FlipTurn: true,
	}

	if s.Mode == game.ModeCaptureRace && *s.CapturesOf(color) >= s.Settings.CaptureTarget {
		s.End(color, statuses.WinReasonCaptureTarget, now)
	}
	return outcome, nil
}

// resolveConcealed handles a placement onto a concealed stone. Placing on
// an opponent's hidden stone reveals it and consumes the turn; if the
// revealed stone has no liberties it is captured on the spot. Placing on
// your own hidden point simply materializes it as your move.
func resolveConcealed(s *game.Session, color engine.Stone, p engine.Point, now time.Time) (Outcome, bool, error) {
	opponent := color.Opponent()
	if idx, ok := hiddenIndex(s, opponent, p); ok {
		removeHidden(s, opponent, idx)
		s.Board.Set(p, opponent)
		s.PassStreak = 0

		captured := 0
		if group := s.Board.GroupAt(p); len(group.Liberties) == 0 {
			for _, stone := range group.Stones {
				s.Board.Remove(stone)
			}
			captured = len(group.Stones)
			*s.CapturesOf(color) += captured
		}

		return Outcome{
			Record: game.MoveRecord{
				Type:      "reveal",
				Color:     color.String(),
				X:         p.X,
				Y:         p.Y,
				Captured:  captured,
				Timestamp: now,
			},
			FlipTurn: true,
		}, true, nil
	}

	// Your own concealed stone falls through to a normal placement;
	// handlePlace materializes it once the move is accepted.
	return Outcome{}, false, nil
}

func hiddenIndex(s *game.Session, color engine.Stone, p engine.Point) (int, bool) {
	list := s.Ext.HiddenBlack
	if color == engine.White {
		list = s.Ext.HiddenWhite
	}
	for i, h := range list {
		if h.Equals(p) {
			return i, true
		}
	}
	return 0, false
}

func removeHidden(s *game.Session, color engine.Stone, idx int) {
	if color == engine.Black {
		s.Ext.HiddenBlack = append(s.Ext.HiddenBlack[:idx], s.Ext.HiddenBlack[idx+1:]...)
	} else {
		s.Ext.HiddenWhite = append(s.Ext.HiddenWhite[:idx], s.Ext.HiddenWhite[idx+1:]...)
	}
}

// handlePass: two consecutive passes close the game by area counting.
func handlePass(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	s.PassStreak++
	s.Ko = engine.KoState{}

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPass),
			Color:     color.String(),
			Timestamp: now,
		},
		FlipTurn: true,
	}

	if s.PassStreak >= 2 {
		s.Phase = game.PhaseScoring
		score := engine.Score(s.Board, s.Settings.Komi)
		winner := engine.Black
		if score.White >= score.Black {
			winner = engine.White
		}
		s.End(winner, statuses.WinReasonScore, now)
		outcome.Score = &score
		outcome.FlipTurn = false
	}
	return outcome, nil
}

// handleFireMissile removes every stone in the plus-shaped blast around
// the target. Opponent stones removed count as captures; the charge and
// the turn are spent either way.
func handleFireMissile(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}

	charges := &s.Ext.MissileBlack
	if color == engine.White {
		charges = &s.Ext.MissileWhite
	}
	if *charges <= 0 {
		return Outcome{}, errors.NewMoveError(errors.ReasonNoCharges)
	}
	*charges--

	blast := append(s.Board.Neighbors(p), p)
	captured := 0
	for _, target := range blast {
		switch s.Board.At(target) {
		case color.Opponent():
			captured++
			s.Board.Remove(target)
		case color:
			s.Board.Remove(target)
		}
	}
	*s.CapturesOf(color) += captured
	s.Ko = engine.KoState{}
	s.PassStreak = 0

	return Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionFireMissile),
			Color:     color.String(),
			X:         p.X,
			Y:         p.Y,
			Captured:  captured,
			Timestamp: now,
		},
		FlipTurn: true,
	}, nil
}

// rollDie is swapped out by tests.
var rollDie = func() int { return rand.Intn(6) + 1 }

func handleRollDice(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	die := rollDie()
	s.Ext.LastRoll = die
	s.Ext.DiceBudget = (die + 1) / 2
	s.Phase = game.PhaseDicePlacing

	return Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionRollDice),
			Color:     color.String(),
			X:         die,
			Timestamp: now,
		},
	}, nil
}

// handleDicePass forfeits whatever is left of the roll: the budget is
// gone and the opponent starts their own turn with a fresh roll.
func handleDicePass(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	outcome, err := handlePass(s, color, action, now)
	if err != nil {
		return Outcome{}, err
	}
	s.Ext.DiceBudget = 0
	if !s.Ended() {
		s.Phase = game.PhaseDiceRolling
	}
	return outcome, nil
}

// handleDicePlace spends one placement from the roll budget; the turn
// only flips when the budget runs out.
func handleDicePlace(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	if s.Ext.DiceBudget <= 0 {
		return Outcome{}, errors.NewMoveError(errors.ReasonNoBudget)
	}
	outcome, err := handlePlace(s, color, action, now)
	if err != nil {
		return Outcome{}, err
	}
	s.Ext.DiceBudget--
	if s.Ext.DiceBudget > 0 {
		outcome.FlipTurn = false
	} else {
		s.Phase = game.PhaseDiceRolling
	}
	return outcome, nil
}
