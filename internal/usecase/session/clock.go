package session

import (
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
)

// Clock bookkeeping. Time is charged from wall-clock deltas measured at
// action boundaries and by the registry sweep; nothing ticks per se.

// chargeElapsed debits the time since the clock's last tick. Main time
// runs out into byoyomi periods; exhausting the last period reports
// expiry. Returns true when the player has flagged.
func chargeElapsed(clock *game.Clock, settings game.Settings, now time.Time) bool {
	if clock.LastTick.IsZero() {
		clock.LastTick = now
		return false
	}
	elapsed := now.Sub(clock.LastTick).Milliseconds()
	clock.LastTick = now

	for elapsed > 0 {
		if !clock.InByoyomi {
			if clock.MainTimeMs > elapsed {
				clock.MainTimeMs -= elapsed
				return false
			}
			elapsed -= clock.MainTimeMs
			clock.MainTimeMs = 0
			if clock.ByoyomiPeriods <= 0 || settings.ByoyomiTimeMs <= 0 {
				return true
			}
			clock.ByoyomiPeriods--
			clock.InByoyomi = true
			clock.ByoyomiTimeMs = settings.ByoyomiTimeMs
		} else {
			if clock.ByoyomiTimeMs > elapsed {
				clock.ByoyomiTimeMs -= elapsed
				return false
			}
			elapsed -= clock.ByoyomiTimeMs
			if clock.ByoyomiPeriods <= 0 {
				return true
			}
			clock.ByoyomiPeriods--
			clock.ByoyomiTimeMs = settings.ByoyomiTimeMs
		}
	}
	return false
}

// afterMove runs the mover's post-move bookkeeping: the byoyomi period in
// use is refilled, Fischer modes add their increment, and the opponent's
// clock is re-armed from now.
func afterMove(s *game.Session, mover engine.Stone, now time.Time) {
	clock := s.ClockOf(mover)
	if clock.InByoyomi {
		clock.ByoyomiTimeMs = s.Settings.ByoyomiTimeMs
	} else if s.Settings.TimeIncrementMs > 0 {
		clock.MainTimeMs += s.Settings.TimeIncrementMs
	}
	s.ClockOf(mover.Opponent()).LastTick = now
}

// freezeClocks stops time while a session is paused.
func freezeClocks(s *game.Session, now time.Time) {
	chargeElapsed(&s.ClockBlack, s.Settings, now)
	chargeElapsed(&s.ClockWhite, s.Settings, now)
	s.ClockBlack.LastTick = time.Time{}
	s.ClockWhite.LastTick = time.Time{}
}

// armClocks restarts both clocks after a resume countdown.
func armClocks(s *game.Session, at time.Time) {
	s.ClockBlack.LastTick = at
	s.ClockWhite.LastTick = at
}
