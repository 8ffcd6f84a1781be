// Package variant maps (mode, phase, action) to the rule handler that may
// run it. The thirteen rule sets contribute entries to one dispatch
// table; session machinery never branches on the mode itself.
package variant

import (
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
)

// Outcome is what a handler reports back to the session state machine.
// Handlers mutate the session directly; the machine appends the record,
// flips the turn and runs clock bookkeeping.
type Outcome struct {
	Record   game.MoveRecord
	FlipTurn bool

	// Flick carries replay frames for the physics minigames.
	Flick *engine.FlickResult
	// Score is set when the action ended the game by counting.
	Score *engine.ScoreResult
}

type Handler func(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error)

type dispatchKey struct {
	mode   game.Mode
	phase  game.Phase
	action game.ActionType
}

var table = map[dispatchKey]Handler{}

func register(modes []game.Mode, phase game.Phase, action game.ActionType, h Handler) {
	for _, m := range modes {
		table[dispatchKey{m, phase, action}] = h
	}
}

// Dispatch resolves the handler for an action. Unknown combinations are a
// phase mismatch, surfaced to the caller and never applied.
func Dispatch(mode game.Mode, phase game.Phase, action game.ActionType) (Handler, error) {
	h, ok := table[dispatchKey{mode, phase, action}]
	if !ok {
		return nil, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	return h, nil
}

// Simultaneous reports whether the phase accepts submissions from both
// players regardless of whose turn it is (sealed bids, secret setup).
func Simultaneous(phase game.Phase) bool {
	return phase == game.PhaseBidding || phase == game.PhaseHiddenPlacement
}

var goRuleModes = []game.Mode{
	game.ModeClassic, game.ModeCaptureRace, game.ModeBlitz,
	game.ModeLightning, game.ModeBaseBid, game.ModeHidden,
	game.ModeMissile, game.ModeDice,
}

var rowModes = []game.Mode{game.ModeOmok, game.ModeTtamok}

func init() {
	register(goRuleModes, game.PhaseNormalPlay, game.ActionPlace, handlePlace)
	register(goRuleModes, game.PhaseNormalPlay, game.ActionPass, handlePass)

	register([]game.Mode{game.ModeBaseBid}, game.PhaseBidding, game.ActionBid, handleBid)
	register([]game.Mode{game.ModeHidden}, game.PhaseHiddenPlacement, game.ActionPlaceHidden, handlePlaceHidden)
	register([]game.Mode{game.ModeMissile}, game.PhaseNormalPlay, game.ActionFireMissile, handleFireMissile)

	register([]game.Mode{game.ModeDice}, game.PhaseDiceRolling, game.ActionRollDice, handleRollDice)
	register([]game.Mode{game.ModeDice}, game.PhaseDicePlacing, game.ActionPlace, handleDicePlace)
	register([]game.Mode{game.ModeDice}, game.PhaseDicePlacing, game.ActionPass, handleDicePass)

	register(rowModes, game.PhaseNormalPlay, game.ActionPlace, handleRowPlace)

	register([]game.Mode{game.ModeThiefPolice}, game.PhaseThiefPlacing, game.ActionPlaceThief, handlePlaceThief)
	register([]game.Mode{game.ModeThiefPolice}, game.PhaseNormalPlay, game.ActionPlace, handlePolicePlace)
	register([]game.Mode{game.ModeThiefPolice}, game.PhaseNormalPlay, game.ActionMoveThief, handleMoveThief)

	register([]game.Mode{game.ModeAlkkagi}, game.PhaseNormalPlay, game.ActionFlick, handleAlkkagiFlick)
	register([]game.Mode{game.ModeCurling}, game.PhaseNormalPlay, game.ActionFlick, handleCurlingThrow)
}
