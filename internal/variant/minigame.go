package variant

import (
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// handleAlkkagiFlick launches one of the mover's stones. Whoever runs out
// of stones on the field loses; if the flick clears both sides at once
// the mover loses for flicking their last stone away.
func handleAlkkagiFlick(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	stone, ok := findStone(s.Ext.PhysicsStones, action.StoneID)
	if !ok || stone.Gone {
		return Outcome{}, errors.NewMoveError(errors.ReasonBadAction)
	}
	if stone.Owner != color {
		return Outcome{}, errors.NewMoveError(errors.ReasonNotYourTurn)
	}

	result := engine.SimulateFlick(s.Ext.PhysicsStones, s.Settings.BoardSize, action.StoneID, action.Angle, action.Power)
	s.Ext.PhysicsStones = result.Stones

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionFlick),
			Color:     color.String(),
			Captured:  len(result.Removed),
			Timestamp: now,
		},
		FlipTurn: true,
		Flick:    &result,
	}

	opponent := color.Opponent()
	if engine.RemainingStones(s.Ext.PhysicsStones, color) == 0 {
		s.End(opponent, statuses.WinReasonNoStonesLeft, now)
	} else if engine.RemainingStones(s.Ext.PhysicsStones, opponent) == 0 {
		s.End(color, statuses.WinReasonNoStonesLeft, now)
	}
	return outcome, nil
}

// handleCurlingThrow launches a fresh stone from the mover's edge toward
// the house. When both players have thrown their allotment the owner of
// the stone closest to the center takes the end.
func handleCurlingThrow(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	thrown := &s.Ext.ThrownBlack
	if color == engine.White {
		thrown = &s.Ext.ThrownWhite
	}
	if *thrown >= s.Settings.MinigameStones {
		return Outcome{}, errors.NewMoveError(errors.ReasonNoBudget)
	}
	*thrown++

	id := len(s.Ext.PhysicsStones) + 1
	launch := engine.PhysicsStone{
		ID:    id,
		Owner: color,
		X:     float64(s.Settings.BoardSize) / 2,
		Y:     float64(s.Settings.BoardSize) - 0.5,
	}
	s.Ext.PhysicsStones = append(s.Ext.PhysicsStones, launch)

	result := engine.SimulateFlick(s.Ext.PhysicsStones, s.Settings.BoardSize, id, action.Angle, action.Power)
	s.Ext.PhysicsStones = result.Stones

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionFlick),
			Color:     color.String(),
			Timestamp: now,
		},
		FlipTurn: true,
		Flick:    &result,
	}

	if s.Ext.ThrownBlack >= s.Settings.MinigameStones && s.Ext.ThrownWhite >= s.Settings.MinigameStones {
		winner := engine.ClosestStoneOwner(s.Ext.PhysicsStones, s.Settings.BoardSize)
		if winner == engine.None {
			// Everything slid out; the last thrower wasted the hammer.
			winner = color.Opponent()
		}
		s.End(winner, statuses.WinReasonClosestStone, now)
	}
	return outcome, nil
}

func findStone(stones []engine.PhysicsStone, id int) (engine.PhysicsStone, bool) {
	for _, s := range stones {
		if s.ID == id {
			return s, true
		}
	}
	return engine.PhysicsStone{}, false
}

// AlkkagiLayout builds the opening rows for the flick minigame: Black
// along the bottom, White along the top.
func AlkkagiLayout(settings game.Settings) []engine.PhysicsStone {
	n := settings.MinigameStones
	size := float64(settings.BoardSize)
	stones := make([]engine.PhysicsStone, 0, 2*n)
	for i := 0; i < n; i++ {
		x := size * float64(i+1) / float64(n+1)
		stones = append(stones, engine.PhysicsStone{
			ID:    i + 1,
			Owner: engine.Black,
			X:     x,
			Y:     size - 1.5,
		})
		stones = append(stones, engine.PhysicsStone{
			ID:    n + i + 1,
			Owner: engine.White,
			X:     x,
			Y:     1.5,
		})
	}
	return stones
}
