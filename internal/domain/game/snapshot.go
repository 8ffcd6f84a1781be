package game

import (
	"time"

	"baduk_arena/internal/engine"
)

// Snapshot is the serializable projection of a Session: what redis holds
// for durability, what mongo archives, and what sockets receive on
// (re)subscribe. Hidden-information fields are filtered per viewer
// before a snapshot leaves the server.
type Snapshot struct {
	ID            string         `json:"id" bson:"id"`
	PublicKey     string         `json:"public_key" bson:"public_key"`
	Mode          Mode           `json:"mode" bson:"mode"`
	Settings      Settings       `json:"settings" bson:"settings"`
	Status        string         `json:"status" bson:"status"`
	Phase         Phase          `json:"phase" bson:"phase"`
	Board         [][]int        `json:"board" bson:"board"`
	CurrentPlayer string         `json:"current_player" bson:"current_player"`
	CapturesBlack int            `json:"captures_black" bson:"captures_black"`
	CapturesWhite int            `json:"captures_white" bson:"captures_white"`
	FoulsBlack    int            `json:"fouls_black" bson:"fouls_black"`
	FoulsWhite    int            `json:"fouls_white" bson:"fouls_white"`
	PassStreak    int            `json:"pass_streak" bson:"pass_streak"`
	Ko            engine.KoState `json:"ko" bson:"ko"`
	History       []MoveRecord   `json:"history" bson:"history"`
	ClockBlack    Clock          `json:"clock_black" bson:"clock_black"`
	ClockWhite    Clock          `json:"clock_white" bson:"clock_white"`
	PlayerBlack   string         `json:"player_black" bson:"player_black"`
	PlayerWhite   string         `json:"player_white" bson:"player_white"`
	Winner        string         `json:"winner,omitempty" bson:"winner,omitempty"`
	WinReason     string         `json:"win_reason,omitempty" bson:"win_reason,omitempty"`
	Ext           Extensions     `json:"ext" bson:"ext"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	StartedAt     *time.Time     `json:"started_at,omitempty" bson:"started_at,omitempty"`
	EndedAt       *time.Time     `json:"ended_at,omitempty" bson:"ended_at,omitempty"`
	LastActivity  time.Time      `json:"last_activity" bson:"last_activity"`
	ResumeAfter   time.Time      `json:"resume_after,omitempty" bson:"resume_after,omitempty"`
}

// Snapshot produces the full, unfiltered projection. Store-bound only;
// use SnapshotFor for anything leaving the server.
func (s *Session) Snapshot() Snapshot {
	winner := ""
	if s.Winner != engine.None {
		winner = s.Winner.String()
	}
	history := make([]MoveRecord, len(s.History))
	copy(history, s.History)
	return Snapshot{
		ID:            s.ID,
		PublicKey:     s.PublicKey,
		Mode:          s.Mode,
		Settings:      s.Settings,
		Status:        s.Status,
		Phase:         s.Phase,
		Board:         s.Board.Cells(),
		CurrentPlayer: s.CurrentPlayer.String(),
		CapturesBlack: s.CapturesBlack,
		CapturesWhite: s.CapturesWhite,
		FoulsBlack:    s.FoulsBlack,
		FoulsWhite:    s.FoulsWhite,
		PassStreak:    s.PassStreak,
		Ko:            s.Ko,
		History:       history,
		ClockBlack:    s.ClockBlack,
		ClockWhite:    s.ClockWhite,
		PlayerBlack:   s.PlayerBlack,
		PlayerWhite:   s.PlayerWhite,
		Winner:        winner,
		WinReason:     s.WinReason,
		Ext:           s.Ext.clone(),
		CreatedAt:     s.CreatedAt,
		StartedAt:     s.StartedAt,
		EndedAt:       s.EndedAt,
		LastActivity:  s.LastActivity,
		ResumeAfter:   s.ResumeAfter,
	}
}

// SnapshotFor filters concealed state for the given viewer: a player sees
// their own hidden stones and the thief only if they own it; spectators
// see neither until the game ends.
func (s *Session) SnapshotFor(viewerID string) Snapshot {
	snap := s.Snapshot()
	if s.Ended() {
		return snap
	}
	color, _ := s.ColorOf(viewerID)
	if color != engine.Black {
		snap.Ext.HiddenBlack = nil
	}
	if color != engine.White {
		snap.Ext.HiddenWhite = nil
	}
	if s.Mode == ModeThiefPolice && color != engine.Black {
		// Black is the thief side; police and spectators never see the
		// thief position while the chase is on.
		snap.Ext.Thief = engine.Point{}
		snap.Ext.ThiefSet = false
	}
	return snap
}

// Restore rebuilds a live Session from a stored snapshot.
func Restore(snap Snapshot) *Session {
	winner := engine.None
	switch snap.Winner {
	case "black":
		winner = engine.Black
	case "white":
		winner = engine.White
	}
	current := engine.Black
	if snap.CurrentPlayer == "white" {
		current = engine.White
	}
	return &Session{
		ID:                snap.ID,
		PublicKey:         snap.PublicKey,
		Mode:              snap.Mode,
		Settings:          snap.Settings,
		Status:            snap.Status,
		Phase:             snap.Phase,
		Board:             engine.RestoreCells(snap.Board),
		CurrentPlayer:     current,
		CapturesBlack:     snap.CapturesBlack,
		CapturesWhite:     snap.CapturesWhite,
		FoulsBlack:        snap.FoulsBlack,
		FoulsWhite:        snap.FoulsWhite,
		PassStreak:        snap.PassStreak,
		Ko:                snap.Ko,
		History:           snap.History,
		ClockBlack:        snap.ClockBlack,
		ClockWhite:        snap.ClockWhite,
		PlayerBlack:       snap.PlayerBlack,
		PlayerWhite:       snap.PlayerWhite,
		Winner:            winner,
		WinReason:         snap.WinReason,
		Ext:               snap.Ext.clone(),
		CreatedAt:         snap.CreatedAt,
		StartedAt:         snap.StartedAt,
		EndedAt:           snap.EndedAt,
		LastActivity:      snap.LastActivity,
		ResumeAfter:       snap.ResumeAfter,
		DisconnectedSince: make(map[string]time.Time),
	}
}
