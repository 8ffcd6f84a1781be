package variant

import (
	"time"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// handleBid records a sealed komi bid. Submissions are simultaneous; once
// both are in, the higher bidder takes Black and concedes the bid as
// komi. A tie goes against whoever bid first.
func handleBid(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	if action.Bid < 0 {
		return Outcome{}, errors.NewMoveError(errors.ReasonBadAction)
	}

	bid := action.Bid
	switch color {
	case engine.Black:
		if s.Ext.BidBlack != nil {
			return Outcome{}, errors.NewMoveError(errors.ReasonStaleAction)
		}
		s.Ext.BidBlack = &bid
	case engine.White:
		if s.Ext.BidWhite != nil {
			return Outcome{}, errors.NewMoveError(errors.ReasonStaleAction)
		}
		s.Ext.BidWhite = &bid
	}
	if s.Ext.FirstBidder == "" {
		s.Ext.FirstBidder = s.UserOf(color)
	}

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionBid),
			Color:     color.String(),
			X:         bid,
			Timestamp: now,
		},
	}

	if s.Ext.BidBlack != nil && s.Ext.BidWhite != nil {
		settleBids(s)
		s.Phase = game.PhaseNormalPlay
		s.CurrentPlayer = engine.Black
	}
	return outcome, nil
}

func settleBids(s *game.Session) {
	blackBid, whiteBid := *s.Ext.BidBlack, *s.Ext.BidWhite
	blackWins := blackBid > whiteBid
	if blackBid == whiteBid {
		// Tie: the slower bidder keeps Black.
		blackWins = s.Ext.FirstBidder != s.PlayerBlack
	}
	if blackWins {
		s.Settings.Komi = float64(blackBid) + 0.5
	} else {
		s.PlayerBlack, s.PlayerWhite = s.PlayerWhite, s.PlayerBlack
		s.ClockBlack, s.ClockWhite = s.ClockWhite, s.ClockBlack
		s.Settings.Komi = float64(whiteBid) + 0.5
	}
}

// handlePlaceHidden stores a concealed stone off-board during setup; play
// begins once both players have placed their full allotment.
func handlePlaceHidden(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	if _, taken := hiddenIndex(s, engine.Black, p); taken {
		return Outcome{}, errors.NewMoveError(errors.ReasonOccupied)
	}
	if _, taken := hiddenIndex(s, engine.White, p); taken {
		return Outcome{}, errors.NewMoveError(errors.ReasonOccupied)
	}

	placed := s.Ext.HiddenPlacedBy[s.UserOf(color)]
	if placed >= s.Settings.HiddenStoneCount {
		return Outcome{}, errors.NewMoveError(errors.ReasonNoBudget)
	}
	s.Ext.HiddenPlacedBy[s.UserOf(color)] = placed + 1

	if color == engine.Black {
		s.Ext.HiddenBlack = append(s.Ext.HiddenBlack, p)
	} else {
		s.Ext.HiddenWhite = append(s.Ext.HiddenWhite, p)
	}

	if len(s.Ext.HiddenBlack) == s.Settings.HiddenStoneCount &&
		len(s.Ext.HiddenWhite) == s.Settings.HiddenStoneCount {
		s.Phase = game.PhaseNormalPlay
		s.CurrentPlayer = engine.Black
	}

	return Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPlaceHidden),
			Color:     color.String(),
			X:         p.X,
			Y:         p.Y,
			Timestamp: now,
		},
	}, nil
}

// Thief-and-police: Black hides the thief, then White hunts it with
// normal placements while the thief slips one step per turn.

func handlePlaceThief(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	if color != engine.Black {
		return Outcome{}, errors.NewMoveError(errors.ReasonNotYourTurn)
	}
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	s.Ext.Thief = p
	s.Ext.ThiefSet = true
	s.Phase = game.PhaseNormalPlay

	// Thief records carry no coordinates: history is visible to the
	// police side too.
	return Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPlaceThief),
			Color:     color.String(),
			Timestamp: now,
		},
		FlipTurn: true,
	}, nil
}

func handlePolicePlace(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	if color != engine.White {
		return Outcome{}, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	if s.Board.At(p) != engine.None {
		return Outcome{}, errors.NewMoveError(errors.ReasonOccupied)
	}

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionPlace),
			Color:     color.String(),
			X:         p.X,
			Y:         p.Y,
			Timestamp: now,
		},
		FlipTurn: true,
	}

	// Stepping straight onto the concealed thief catches it outright.
	if s.Ext.ThiefSet && p.Equals(s.Ext.Thief) {
		s.End(engine.White, statuses.WinReasonThiefCaught, now)
		return outcome, nil
	}

	s.Board.Set(p, engine.White)
	if s.Ext.ThiefSet && thiefTrapped(s) {
		s.End(engine.White, statuses.WinReasonThiefCaught, now)
	}
	return outcome, nil
}

func handleMoveThief(s *game.Session, color engine.Stone, action game.Action, now time.Time) (Outcome, error) {
	if color != engine.Black {
		return Outcome{}, errors.NewMoveError(errors.ReasonPhaseMismatch)
	}
	p := engine.Point{X: action.X, Y: action.Y}
	if !s.Board.InBounds(p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonOutOfBounds)
	}
	if s.Board.At(p) != engine.None {
		return Outcome{}, errors.NewMoveError(errors.ReasonOccupied)
	}
	if !adjacent(s.Ext.Thief, p) {
		return Outcome{}, errors.NewMoveError(errors.ReasonBadAction)
	}

	s.Ext.Thief = p
	s.Ext.ThiefTurns++

	outcome := Outcome{
		Record: game.MoveRecord{
			Type:      string(game.ActionMoveThief),
			Color:     color.String(),
			Timestamp: now,
		},
		FlipTurn: true,
	}
	if s.Ext.ThiefTurns >= s.Settings.SurvivalTurns {
		s.End(engine.Black, statuses.WinReasonThiefEscaped, now)
	}
	return outcome, nil
}

func thiefTrapped(s *game.Session) bool {
	for _, n := range s.Board.Neighbors(s.Ext.Thief) {
		if s.Board.At(n) == engine.None {
			return false
		}
	}
	return true
}

func adjacent(a, b engine.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}
