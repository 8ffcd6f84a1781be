package game

import (
	"time"

	"baduk_arena/internal/engine"
	"baduk_arena/internal/statuses"
)

type Mode string

const (
	ModeClassic     Mode = "classic"
	ModeCaptureRace Mode = "capture_race"
	ModeBlitz       Mode = "blitz"
	ModeLightning   Mode = "lightning"
	ModeBaseBid     Mode = "base_bid"
	ModeHidden      Mode = "hidden"
	ModeMissile     Mode = "missile"
	ModeDice        Mode = "dice"
	ModeOmok        Mode = "omok"
	ModeTtamok      Mode = "ttamok"
	ModeThiefPolice Mode = "thief_police"
	ModeAlkkagi     Mode = "alkkagi"
	ModeCurling     Mode = "curling"
)

var AllModes = []Mode{
	ModeClassic, ModeCaptureRace, ModeBlitz, ModeLightning, ModeBaseBid,
	ModeHidden, ModeMissile, ModeDice, ModeOmok, ModeTtamok,
	ModeThiefPolice, ModeAlkkagi, ModeCurling,
}

func (m Mode) Valid() bool {
	for _, known := range AllModes {
		if m == known {
			return true
		}
	}
	return false
}

// UsesGoRules reports whether the mode plays under capture/ko/suicide
// legality. Row games and minigames have their own legality.
func (m Mode) UsesGoRules() bool {
	switch m {
	case ModeOmok, ModeTtamok, ModeThiefPolice, ModeAlkkagi, ModeCurling:
		return false
	}
	return true
}

// HasPass reports whether passing is a meaningful action in the mode.
func (m Mode) HasPass() bool {
	switch m {
	case ModeOmok, ModeTtamok, ModeAlkkagi, ModeCurling:
		return false
	}
	return true
}

type Phase string

const (
	PhaseNegotiating     Phase = "negotiating"
	PhaseBidding         Phase = "bidding"
	PhaseHiddenPlacement Phase = "hidden_placement"
	PhaseThiefPlacing    Phase = "thief_placing"
	PhaseDiceRolling     Phase = "dice_rolling"
	PhaseDicePlacing     Phase = "dice_placing"
	PhaseNormalPlay      Phase = "normal_play"
	PhaseScoring         Phase = "scoring"
	PhaseEnded           Phase = "ended"
)

// StartPhase is the phase a mode enters when the session becomes active.
func (m Mode) StartPhase() Phase {
	switch m {
	case ModeBaseBid:
		return PhaseBidding
	case ModeHidden:
		return PhaseHiddenPlacement
	case ModeThiefPolice:
		return PhaseThiefPlacing
	case ModeDice:
		return PhaseDiceRolling
	default:
		return PhaseNormalPlay
	}
}

// Settings are fixed at creation by the negotiation collaborator.
type Settings struct {
	BoardSize        int     `json:"board_size" bson:"board_size"`
	Komi             float64 `json:"komi" bson:"komi"`
	MainTimeMs       int64   `json:"main_time_ms" bson:"main_time_ms"`
	ByoyomiTimeMs    int64   `json:"byoyomi_time_ms" bson:"byoyomi_time_ms"`
	ByoyomiPeriods   int     `json:"byoyomi_periods" bson:"byoyomi_periods"`
	TimeIncrementMs  int64   `json:"time_increment_ms" bson:"time_increment_ms"`
	CaptureTarget    int     `json:"capture_target" bson:"capture_target"`
	HiddenStoneCount int     `json:"hidden_stone_count" bson:"hidden_stone_count"`
	MissileCharges   int     `json:"missile_charges" bson:"missile_charges"`
	FoulLimit        int     `json:"foul_limit" bson:"foul_limit"`
	SurvivalTurns    int     `json:"survival_turns" bson:"survival_turns"`
	MinigameStones   int     `json:"minigame_stones" bson:"minigame_stones"`
	AiLevel          int     `json:"ai_level" bson:"ai_level"`
}

func DefaultSettings(mode Mode) Settings {
	s := Settings{
		BoardSize:        19,
		Komi:             6.5,
		MainTimeMs:       10 * 60 * 1000,
		ByoyomiTimeMs:    30 * 1000,
		ByoyomiPeriods:   3,
		CaptureTarget:    10,
		HiddenStoneCount: 3,
		MissileCharges:   2,
		FoulLimit:        3,
		SurvivalTurns:    20,
		MinigameStones:   5,
	}
	switch mode {
	case ModeBlitz:
		s.MainTimeMs = 3 * 60 * 1000
		s.TimeIncrementMs = 5 * 1000
		s.ByoyomiPeriods = 0
	case ModeLightning:
		s.MainTimeMs = 60 * 1000
		s.ByoyomiTimeMs = 10 * 1000
		s.ByoyomiPeriods = 1
	case ModeCaptureRace, ModeOmok, ModeTtamok:
		s.BoardSize = 13
	case ModeThiefPolice, ModeAlkkagi, ModeCurling:
		s.BoardSize = 9
	}
	return s
}

// Clock is one player's time store. LastTick is the wall-clock moment the
// player went on the move; elapsed time is charged at action boundaries
// and by the registry sweep.
type Clock struct {
	MainTimeMs     int64     `json:"main_time_ms" bson:"main_time_ms"`
	ByoyomiPeriods int       `json:"byoyomi_periods" bson:"byoyomi_periods"`
	ByoyomiTimeMs  int64     `json:"byoyomi_time_ms" bson:"byoyomi_time_ms"`
	InByoyomi      bool      `json:"in_byoyomi" bson:"in_byoyomi"`
	LastTick       time.Time `json:"last_tick" bson:"last_tick"`
}

// MoveRecord is one entry of the authoritative append-only history.
type MoveRecord struct {
	Index     int       `json:"index" bson:"index"`
	Type      string    `json:"type" bson:"type"`
	Color     string    `json:"color" bson:"color"`
	X         int       `json:"x" bson:"x"`
	Y         int       `json:"y" bson:"y"`
	Captured  int       `json:"captured,omitempty" bson:"captured,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Extensions holds variant-specific state. Only the fields for the
// session's mode are ever populated.
type Extensions struct {
	HiddenBlack    []engine.Point        `json:"hidden_black,omitempty" bson:"hidden_black,omitempty"`
	HiddenWhite    []engine.Point        `json:"hidden_white,omitempty" bson:"hidden_white,omitempty"`
	MissileBlack   int                   `json:"missile_black,omitempty" bson:"missile_black,omitempty"`
	MissileWhite   int                   `json:"missile_white,omitempty" bson:"missile_white,omitempty"`
	BidBlack       *int                  `json:"bid_black,omitempty" bson:"bid_black,omitempty"`
	BidWhite       *int                  `json:"bid_white,omitempty" bson:"bid_white,omitempty"`
	FirstBidder    string                `json:"first_bidder,omitempty" bson:"first_bidder,omitempty"`
	DiceBudget     int                   `json:"dice_budget,omitempty" bson:"dice_budget,omitempty"`
	LastRoll       int                   `json:"last_roll,omitempty" bson:"last_roll,omitempty"`
	Thief          engine.Point          `json:"thief,omitempty" bson:"thief,omitempty"`
	ThiefSet       bool                  `json:"thief_set,omitempty" bson:"thief_set,omitempty"`
	ThiefTurns     int                   `json:"thief_turns,omitempty" bson:"thief_turns,omitempty"`
	PhysicsStones  []engine.PhysicsStone `json:"physics_stones,omitempty" bson:"physics_stones,omitempty"`
	ThrownBlack    int                   `json:"thrown_black,omitempty" bson:"thrown_black,omitempty"`
	ThrownWhite    int                   `json:"thrown_white,omitempty" bson:"thrown_white,omitempty"`
	HiddenPlacedBy map[string]int        `json:"hidden_placed_by,omitempty" bson:"hidden_placed_by,omitempty"`
}

// clone detaches the snapshot copy from the live session: slices and
// maps here are mutated in place by the variant handlers, so a shared
// header would let later moves reach into an already-taken snapshot.
func (e Extensions) clone() Extensions {
	out := e
	out.HiddenBlack = append([]engine.Point(nil), e.HiddenBlack...)
	out.HiddenWhite = append([]engine.Point(nil), e.HiddenWhite...)
	out.PhysicsStones = append([]engine.PhysicsStone(nil), e.PhysicsStones...)
	if e.BidBlack != nil {
		v := *e.BidBlack
		out.BidBlack = &v
	}
	if e.BidWhite != nil {
		v := *e.BidWhite
		out.BidWhite = &v
	}
	if e.HiddenPlacedBy != nil {
		placed := make(map[string]int, len(e.HiddenPlacedBy))
		for user, n := range e.HiddenPlacedBy {
			placed[user] = n
		}
		out.HiddenPlacedBy = placed
	}
	return out
}

// Session is the aggregate root. The registry owns the canonical copy;
// everything else sees it only inside SubmitAction.
type Session struct {
	ID            string
	PublicKey     string
	Mode          Mode
	Settings      Settings
	Status        string
	Phase         Phase
	Board         engine.Board
	CurrentPlayer engine.Stone
	CapturesBlack int
	CapturesWhite int
	FoulsBlack    int
	FoulsWhite    int
	PassStreak    int
	Ko            engine.KoState
	History       []MoveRecord
	ClockBlack    Clock
	ClockWhite    Clock
	PlayerBlack   string
	PlayerWhite   string
	Winner        engine.Stone
	WinReason     string
	Ext           Extensions

	CreatedAt    time.Time
	StartedAt    *time.Time
	EndedAt      *time.Time
	LastActivity time.Time

	// ResumeAfter blocks actions for a countdown after unpausing.
	ResumeAfter time.Time

	// DisconnectedSince tracks per-user socket silence for the grace
	// window before the sweep forfeits.
	DisconnectedSince map[string]time.Time
}

// AiUserPrefix marks a participant slot held by the engine bot.
const AiUserPrefix = "ai:"

func NewSession(id, publicKey string, mode Mode, settings Settings, playerBlack, playerWhite string) *Session {
	now := time.Now()
	s := &Session{
		ID:                id,
		PublicKey:         publicKey,
		Mode:              mode,
		Settings:          settings,
		Status:            statuses.StatusPending,
		Phase:             PhaseNegotiating,
		Board:             engine.NewBoard(settings.BoardSize),
		CurrentPlayer:     engine.Black,
		PlayerBlack:       playerBlack,
		PlayerWhite:       playerWhite,
		CreatedAt:         now,
		LastActivity:      now,
		DisconnectedSince: make(map[string]time.Time),
	}
	s.ClockBlack = newClock(settings)
	s.ClockWhite = newClock(settings)
	if mode == ModeMissile {
		s.Ext.MissileBlack = settings.MissileCharges
		s.Ext.MissileWhite = settings.MissileCharges
	}
	if mode == ModeHidden {
		s.Ext.HiddenPlacedBy = make(map[string]int)
	}
	return s
}

func newClock(settings Settings) Clock {
	return Clock{
		MainTimeMs:     settings.MainTimeMs,
		ByoyomiPeriods: settings.ByoyomiPeriods,
		ByoyomiTimeMs:  settings.ByoyomiTimeMs,
	}
}

// Start flips the session from pending to active and arms the clocks.
func (s *Session) Start(now time.Time) {
	if s.Status != statuses.StatusPending {
		return
	}
	s.Status = statuses.StatusActive
	s.Phase = s.Mode.StartPhase()
	s.StartedAt = &now
	s.ClockBlack.LastTick = now
	s.ClockWhite.LastTick = now
	s.LastActivity = now
}

// ColorOf maps a participant user id to its color.
func (s *Session) ColorOf(userID string) (engine.Stone, bool) {
	switch userID {
	case s.PlayerBlack:
		return engine.Black, true
	case s.PlayerWhite:
		return engine.White, true
	}
	return engine.None, false
}

func (s *Session) UserOf(color engine.Stone) string {
	if color == engine.Black {
		return s.PlayerBlack
	}
	return s.PlayerWhite
}

func (s *Session) IsAi(color engine.Stone) bool {
	user := s.UserOf(color)
	return len(user) > len(AiUserPrefix) && user[:len(AiUserPrefix)] == AiUserPrefix
}

func (s *Session) ClockOf(color engine.Stone) *Clock {
	if color == engine.Black {
		return &s.ClockBlack
	}
	return &s.ClockWhite
}

func (s *Session) CapturesOf(color engine.Stone) *int {
	if color == engine.Black {
		return &s.CapturesBlack
	}
	return &s.CapturesWhite
}

func (s *Session) FoulsOf(color engine.Stone) *int {
	if color == engine.Black {
		return &s.FoulsBlack
	}
	return &s.FoulsWhite
}

func (s *Session) Ended() bool {
	return s.Status == statuses.StatusEnded
}

// End moves the session to its terminal state. Idempotent.
func (s *Session) End(winner engine.Stone, reason string, now time.Time) {
	if s.Ended() {
		return
	}
	s.Status = statuses.StatusEnded
	s.Phase = PhaseEnded
	s.Winner = winner
	s.WinReason = reason
	s.EndedAt = &now
}

// AppendRecord appends to the authoritative history, stamping the index.
func (s *Session) AppendRecord(rec MoveRecord) {
	rec.Index = len(s.History)
	s.History = append(s.History, rec)
}

// MoveIndex is the index the next accepted action will take.
func (s *Session) MoveIndex() int {
	return len(s.History)
}
