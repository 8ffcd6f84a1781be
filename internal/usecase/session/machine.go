package session

import (
	"time"

	"go.uber.org/zap"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
	"baduk_arena/internal/variant"
)

// Machine is the single mutation entry point for one session's state.
// Callers (socket handlers, the sweep, the AI turn) never touch session
// fields directly; everything funnels through Apply under the registry
// lock.
type Machine struct {
	log *zap.SugaredLogger
}

func NewMachine(log *zap.SugaredLogger) *Machine {
	return &Machine{log: log}
}

const resumeCountdown = 3 * time.Second

// Apply validates and executes one action. On error the session is
// unchanged, with one exception: forbidden-pattern fouls are counted (and
// can forfeit the game at the limit) even though the move itself is
// rejected.
func (m *Machine) Apply(s *game.Session, userID string, action game.Action, now time.Time) (variant.Outcome, error) {
	if s.Ended() {
		return variant.Outcome{}, errors.ErrGameEnded
	}

	color, participant := s.ColorOf(userID)
	if !participant {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonNotParticipant)
	}

	switch action.Type {
	case game.ActionPause:
		return m.pause(s, color, now)
	case game.ActionResume:
		return m.resume(s, color, now)
	case game.ActionResign:
		return m.finish(s, color.Opponent(), statuses.WinReasonResign, string(game.ActionResign), color, now)
	case game.ActionTimeoutForfeit:
		// Synthetic, submitted by the sweep with the flagged player's id.
		return m.finish(s, color.Opponent(), statuses.WinReasonTimeout, string(game.ActionTimeoutForfeit), color, now)
	}

	if s.Status == statuses.StatusPaused {
		return variant.Outcome{}, errors.ErrGamePaused
	}
	if !s.ResumeAfter.IsZero() && now.Before(s.ResumeAfter) {
		return variant.Outcome{}, errors.ErrGamePaused
	}

	if s.Status == statuses.StatusPending {
		s.Start(now)
	}

	// Retry of an already-applied action carries an old index: reject it
	// instead of double-applying.
	if action.MoveIndex != s.MoveIndex() {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonStaleAction)
	}

	simultaneous := variant.Simultaneous(s.Phase)
	wasTimed := timedPhase(s.Phase)
	if !simultaneous && color != s.CurrentPlayer {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonNotYourTurn)
	}

	// Charge the mover's wall-clock time before legality is even looked
	// at; a player who flags while thinking loses regardless of what the
	// action would have been.
	if !simultaneous && wasTimed {
		if expired := chargeElapsed(s.ClockOf(color), s.Settings, now); expired {
			return m.finish(s, color.Opponent(), statuses.WinReasonTimeout, string(game.ActionTimeoutForfeit), color, now)
		}
	}

	handler, err := variant.Dispatch(s.Mode, s.Phase, action.Type)
	if err != nil {
		return variant.Outcome{}, err
	}

	outcome, err := handler(s, color, action, now)
	if err != nil {
		return variant.Outcome{}, err
	}

	s.AppendRecord(outcome.Record)
	s.LastActivity = now
	// Untimed setup phases (sealed bids, secret placements) leave both
	// LastTicks stale; re-arm on the transition into a timed phase so the
	// setup duration is never billed to the first mover.
	if !wasTimed && timedPhase(s.Phase) {
		armClocks(s, now)
	}
	if !simultaneous && wasTimed && timedPhase(s.Phase) {
		afterMove(s, color, now)
	}
	if outcome.FlipTurn && !s.Ended() {
		s.CurrentPlayer = s.CurrentPlayer.Opponent()
	}
	return outcome, nil
}

// finish applies a terminal action: always succeeds, always recorded,
// always broadcast.
func (m *Machine) finish(s *game.Session, winner engine.Stone, reason, recordType string, actor engine.Stone, now time.Time) (variant.Outcome, error) {
	rec := game.MoveRecord{
		Type:      recordType,
		Color:     actor.String(),
		Timestamp: now,
	}
	s.AppendRecord(rec)
	s.LastActivity = now
	s.End(winner, reason, now)
	m.log.Infow("session ended", "session", s.ID, "winner", winner.String(), "reason", reason)
	return variant.Outcome{Record: rec}, nil
}

// pause/resume exist for games against the engine bot; a human opponent
// is never held hostage by them.
func (m *Machine) pause(s *game.Session, color engine.Stone, now time.Time) (variant.Outcome, error) {
	if !s.IsAi(color.Opponent()) {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	if s.Status != statuses.StatusActive {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	s.Status = statuses.StatusPaused
	freezeClocks(s, now)
	s.LastActivity = now
	rec := game.MoveRecord{Type: string(game.ActionPause), Color: color.String(), Timestamp: now}
	s.AppendRecord(rec)
	return variant.Outcome{Record: rec}, nil
}

func (m *Machine) resume(s *game.Session, color engine.Stone, now time.Time) (variant.Outcome, error) {
	if s.Status != statuses.StatusPaused {
		return variant.Outcome{}, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	s.Status = statuses.StatusActive
	s.ResumeAfter = now.Add(resumeCountdown)
	armClocks(s, s.ResumeAfter)
	s.LastActivity = now
	rec := game.MoveRecord{Type: string(game.ActionResume), Color: color.String(), Timestamp: now}
	s.AppendRecord(rec)
	return variant.Outcome{Record: rec}, nil
}

// timedPhase: setup phases (sealed bids, secret placements) do not burn
// game clocks.
func timedPhase(phase game.Phase) bool {
	switch phase {
	case game.PhaseNormalPlay, game.PhaseDiceRolling, game.PhaseDicePlacing:
		return true
	}
	return false
}

// CheckExpiry is the sweep-side clock check: charge the player on the
// move without an action and report whether they flagged.
func (m *Machine) CheckExpiry(s *game.Session, now time.Time) (engine.Stone, bool) {
	if s.Status != statuses.StatusActive || !timedPhase(s.Phase) {
		return engine.None, false
	}
	if variant.Simultaneous(s.Phase) {
		return engine.None, false
	}
	color := s.CurrentPlayer
	if expired := chargeElapsed(s.ClockOf(color), s.Settings, now); expired {
		return color, true
	}
	return engine.None, false
}
