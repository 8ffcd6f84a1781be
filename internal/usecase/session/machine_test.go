package session

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	apperrors "baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testMachine() *Machine {
	return NewMachine(zap.NewNop().Sugar())
}

func activeSession(mode game.Mode) *game.Session {
	s := game.NewSession("sess-1", "12345", mode, game.DefaultSettings(mode), "black-user", "white-user")
	s.Start(baseTime)
	return s
}

func place(x, y, idx int) game.Action {
	return game.Action{Type: game.ActionPlace, MoveIndex: idx, X: x, Y: y}
}

func mustReason(t *testing.T, err error, want apperrors.Reason) {
	t.Helper()
	moveErr, ok := apperrors.AsMoveError(err)
	if !ok {
		t.Fatalf("expected a move rejection, got %v", err)
	}
	if moveErr.Reason != want {
		t.Fatalf("expected reason %q, got %q", want, moveErr.Reason)
	}
}

func TestApplyRejectsNonParticipant(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)

	_, err := m.Apply(s, "stranger", place(3, 3, 0), baseTime)
	mustReason(t, err, apperrors.ReasonNotParticipant)
}

func TestApplyEnforcesTurnOrder(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)

	_, err := m.Apply(s, "white-user", place(3, 3, 0), baseTime)
	mustReason(t, err, apperrors.ReasonNotYourTurn)

	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(time.Second)); err != nil {
		t.Fatalf("black's move failed: %v", err)
	}
	if s.CurrentPlayer != engine.White {
		t.Fatalf("expected the turn to flip to White")
	}
}

func TestApplyRejectsStaleMoveIndex(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)

	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(time.Second)); err != nil {
		t.Fatalf("move failed: %v", err)
	}

	// The same submission arriving again carries the old index.
	_, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(2*time.Second))
	mustReason(t, err, apperrors.ReasonStaleAction)

	if len(s.History) != 1 {
		t.Fatalf("a duplicate must not be double-applied, history has %d entries", len(s.History))
	}
	if s.Board.At(engine.Point{X: 3, Y: 3}) != engine.Black {
		t.Fatalf("the original move must stand")
	}
}

func TestApplyRejectsActionsAfterEnd(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)
	s.End(engine.White, statuses.WinReasonResign, baseTime)

	_, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime)
	if !errors.Is(err, apperrors.ErrGameEnded) {
		t.Fatalf("expected the ended sentinel, got %v", err)
	}
}

func TestResignAlwaysSucceeds(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)

	// Resigning out of turn and with no move index is still accepted.
	if _, err := m.Apply(s, "white-user", game.Action{Type: game.ActionResign}, baseTime); err != nil {
		t.Fatalf("resign failed: %v", err)
	}
	if !s.Ended() || s.Winner != engine.Black || s.WinReason != statuses.WinReasonResign {
		t.Fatalf("expected Black to win by resignation, got winner=%v reason=%q", s.Winner, s.WinReason)
	}
	if len(s.History) != 1 || s.History[0].Type != string(game.ActionResign) {
		t.Fatalf("the resignation must be recorded")
	}
}

func TestApplyStartsPendingSession(t *testing.T) {
	m := testMachine()
	s := game.NewSession("sess-1", "12345", game.ModeClassic, game.DefaultSettings(game.ModeClassic), "black-user", "white-user")

	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime); err != nil {
		t.Fatalf("first move on a pending session failed: %v", err)
	}
	if s.Status != statuses.StatusActive {
		t.Fatalf("expected the session to activate, got %q", s.Status)
	}
}

func TestDoublePassEndsByScore(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)
	s.Settings.Komi = 0.5
	for y := 0; y < s.Board.Size(); y++ {
		s.Board.Set(engine.Point{X: 2, Y: y}, engine.Black)
		s.Board.Set(engine.Point{X: 16, Y: y}, engine.White)
	}

	now := baseTime.Add(time.Second)
	if _, err := m.Apply(s, "black-user", game.Action{Type: game.ActionPass, MoveIndex: 0}, now); err != nil {
		t.Fatalf("black pass failed: %v", err)
	}
	outcome, err := m.Apply(s, "white-user", game.Action{Type: game.ActionPass, MoveIndex: 1}, now.Add(time.Second))
	if err != nil {
		t.Fatalf("white pass failed: %v", err)
	}
	if !s.Ended() || s.WinReason != statuses.WinReasonScore {
		t.Fatalf("expected a scored finish, got %q", s.WinReason)
	}
	if outcome.Score == nil || outcome.Score.White != outcome.Score.Black+0.5 {
		t.Fatalf("expected komi to be the margin, got %+v", outcome.Score)
	}
}

func TestClockEntersByoyomiAndRefillsAfterMove(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)
	s.Settings.MainTimeMs = 1000
	s.Settings.ByoyomiTimeMs = 30000
	s.Settings.ByoyomiPeriods = 3
	s.ClockBlack = game.Clock{MainTimeMs: 1000, ByoyomiPeriods: 3, ByoyomiTimeMs: 30000, LastTick: baseTime}

	// Thinking for 5s burns main time and 4s of the first period.
	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(5*time.Second)); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !s.ClockBlack.InByoyomi {
		t.Fatalf("expected the clock to be in byoyomi")
	}
	if s.ClockBlack.ByoyomiPeriods != 2 {
		t.Fatalf("expected one period consumed, got %d", s.ClockBlack.ByoyomiPeriods)
	}
	// The period in use refills once the move lands.
	if s.ClockBlack.ByoyomiTimeMs != 30000 {
		t.Fatalf("expected the period to refill to 30000, got %d", s.ClockBlack.ByoyomiTimeMs)
	}
}

func TestClockExpiryForfeitsOnSubmit(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)
	s.Settings.ByoyomiTimeMs = 1000
	s.ClockBlack = game.Clock{MainTimeMs: 1000, ByoyomiPeriods: 1, ByoyomiTimeMs: 1000, LastTick: baseTime}

	// 5 seconds of thinking exhausts main time and the single period.
	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(5*time.Second)); err != nil {
		t.Fatalf("the flag itself is not an error: %v", err)
	}
	if !s.Ended() || s.Winner != engine.White || s.WinReason != statuses.WinReasonTimeout {
		t.Fatalf("expected White to win on time, got winner=%v reason=%q", s.Winner, s.WinReason)
	}
	if s.Board.At(engine.Point{X: 3, Y: 3}) != engine.None {
		t.Fatalf("a flagged move must not reach the board")
	}
}

func TestFischerIncrementAfterMove(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeBlitz)
	s.ClockBlack.LastTick = baseTime

	main := s.ClockBlack.MainTimeMs
	if _, err := m.Apply(s, "black-user", place(3, 3, 0), baseTime.Add(2*time.Second)); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	want := main - 2000 + s.Settings.TimeIncrementMs
	if s.ClockBlack.MainTimeMs != want {
		t.Fatalf("expected %dms after increment, got %d", want, s.ClockBlack.MainTimeMs)
	}
}

func TestPauseOnlyAgainstTheBot(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)

	_, err := m.Apply(s, "black-user", game.Action{Type: game.ActionPause}, baseTime)
	mustReason(t, err, apperrors.ReasonPhaseMismatch)
}

func TestPauseFreezesAndResumeCountsDown(t *testing.T) {
	m := testMachine()
	s := game.NewSession("sess-1", "12345", game.ModeClassic, game.DefaultSettings(game.ModeClassic), "black-user", game.AiUserPrefix+"bot")
	s.Start(baseTime)

	if _, err := m.Apply(s, "black-user", game.Action{Type: game.ActionPause}, baseTime.Add(time.Second)); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if s.Status != statuses.StatusPaused {
		t.Fatalf("expected paused status, got %q", s.Status)
	}

	_, err := m.Apply(s, "black-user", place(3, 3, 1), baseTime.Add(2*time.Second))
	if !errors.Is(err, apperrors.ErrGamePaused) {
		t.Fatalf("expected the paused sentinel, got %v", err)
	}

	resumeAt := baseTime.Add(10 * time.Second)
	if _, err := m.Apply(s, "black-user", game.Action{Type: game.ActionResume}, resumeAt); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	// Inside the countdown the game is still closed to moves.
	_, err = m.Apply(s, "black-user", place(3, 3, 2), resumeAt.Add(time.Second))
	if !errors.Is(err, apperrors.ErrGamePaused) {
		t.Fatalf("expected the countdown to block moves, got %v", err)
	}

	if _, err := m.Apply(s, "black-user", place(3, 3, 2), resumeAt.Add(resumeCountdown+time.Second)); err != nil {
		t.Fatalf("move after the countdown failed: %v", err)
	}

	// The pause gap must not have been charged: only the countdown-to-move
	// second is debited.
	spent := s.Settings.MainTimeMs - s.ClockBlack.MainTimeMs
	if spent > 2000 {
		t.Fatalf("paused time leaked into the clock, %dms spent", spent)
	}
}

func TestBiddingIsSimultaneousAndUntimed(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeBaseBid)

	// White submits while CurrentPlayer is Black; sealed phases admit it.
	if _, err := m.Apply(s, "white-user", game.Action{Type: game.ActionBid, MoveIndex: 0, Bid: 4}, baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("white bid failed: %v", err)
	}
	if s.ClockWhite.MainTimeMs != s.Settings.MainTimeMs {
		t.Fatalf("setup phases must not burn the clock")
	}
	if _, err := m.Apply(s, "black-user", game.Action{Type: game.ActionBid, MoveIndex: 1, Bid: 2}, baseTime.Add(time.Hour)); err != nil {
		t.Fatalf("black bid failed: %v", err)
	}
	if s.Phase != game.PhaseNormalPlay {
		t.Fatalf("expected play to start after both bids, got %q", s.Phase)
	}
}

func TestSetupTimeNotChargedToFirstMover(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeBaseBid)

	// Five minutes of sealed bidding belong to nobody.
	bidTime := baseTime.Add(5 * time.Minute)
	if _, err := m.Apply(s, "white-user", game.Action{Type: game.ActionBid, MoveIndex: 0, Bid: 1}, bidTime); err != nil {
		t.Fatalf("white bid failed: %v", err)
	}
	if _, err := m.Apply(s, "black-user", game.Action{Type: game.ActionBid, MoveIndex: 1, Bid: 3}, bidTime); err != nil {
		t.Fatalf("black bid failed: %v", err)
	}
	if s.Phase != game.PhaseNormalPlay {
		t.Fatalf("expected play to start after both bids, got %q", s.Phase)
	}

	if _, err := m.Apply(s, "black-user", place(3, 3, 2), bidTime.Add(time.Second)); err != nil {
		t.Fatalf("first move failed: %v", err)
	}
	if spent := s.Settings.MainTimeMs - s.ClockBlack.MainTimeMs; spent != 1000 {
		t.Fatalf("expected only the first move's second on the clock, got %dms", spent)
	}
	if s.ClockWhite.MainTimeMs != s.Settings.MainTimeMs {
		t.Fatalf("white has not been on the move yet")
	}
}

func TestCheckExpiryFlagsIdlePlayer(t *testing.T) {
	m := testMachine()
	s := activeSession(game.ModeClassic)
	s.Settings.ByoyomiTimeMs = 0
	s.ClockBlack = game.Clock{MainTimeMs: 1000, LastTick: baseTime}

	if _, expired := m.CheckExpiry(s, baseTime.Add(500*time.Millisecond)); expired {
		t.Fatalf("the clock has time left, no expiry expected")
	}
	color, expired := m.CheckExpiry(s, baseTime.Add(5*time.Second))
	if !expired || color != engine.Black {
		t.Fatalf("expected Black to flag, got color=%v expired=%v", color, expired)
	}
}
