package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
	"baduk_arena/internal/variant"
)

// Broadcaster is the fan-out contract the hub implements. Publishing must
// never block game-state progress; the hub drops slow subscribers.
type Broadcaster interface {
	Broadcast(sessionID string, build func(viewerID string) interface{})
}

// AiMover is the narrow AI collaborator contract. The returned action is
// still validated through the normal submit path.
type AiMover interface {
	RequestMove(ctx context.Context, snap game.Snapshot) (game.Action, error)
}

// StateUpdate and GameEnd are the two outbound socket message shapes.
type StateUpdate struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	State     game.Snapshot       `json:"state"`
	Flick     *engine.FlickResult `json:"flick,omitempty"`
	Score     *engine.ScoreResult `json:"score,omitempty"`
}

type GameEnd struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Winner    string `json:"winner"`
	Reason    string `json:"reason"`
}

// Service ties the registry, the state machine, the hub and the AI
// adapter together. Delivery handlers talk only to this.
type Service struct {
	registry *Registry
	machine  *Machine
	hub      Broadcaster
	ai       AiMover
	log      *zap.SugaredLogger

	// DisconnectGrace is how long a silent participant keeps their game
	// alive before the sweep forfeits them.
	DisconnectGrace time.Duration
	// AiCeiling bounds one AI move end to end.
	AiCeiling time.Duration
}

func NewService(registry *Registry, machine *Machine, hub Broadcaster, ai AiMover, log *zap.SugaredLogger) *Service {
	return &Service{
		registry:        registry,
		machine:         machine,
		hub:             hub,
		ai:              ai,
		log:             log,
		DisconnectGrace: time.Minute,
		AiCeiling:       10 * time.Second,
	}
}

func (svc *Service) Registry() *Registry {
	return svc.registry
}

// Create builds a session in pending status and persists it. The
// negotiation collaborator supplies mode, settings and participants.
func (svc *Service) Create(ctx context.Context, req game.CreateGameRequest, creatorID string) (*game.Session, error) {
	if !req.Mode.Valid() {
		return nil, errors.ErrCreateGameFailed
	}
	settings := game.DefaultSettings(req.Mode)
	if req.Settings != nil {
		settings = *req.Settings
	}
	if settings.BoardSize < engine.MinBoardSize || settings.BoardSize > engine.MaxBoardSize {
		return nil, errors.ErrCreateGameFailed
	}

	black, white := creatorID, ""
	if !req.IsCreatorBlack {
		black, white = "", creatorID
	}
	if req.VsAi && !aiPlayable(req.Mode) {
		return nil, errors.ErrCreateGameFailed
	}
	if req.VsAi {
		aiID := game.AiUserPrefix + uuid.New().String()
		if req.AiLevel > 0 {
			settings.AiLevel = req.AiLevel
		}
		if black == "" {
			black = aiID
		} else {
			white = aiID
		}
	}

	sess := game.NewSession(uuid.New().String(), generatePublicCode(uuid.New().String()), req.Mode, settings, black, white)
	if req.Mode == game.ModeAlkkagi {
		sess.Ext.PhysicsStones = variant.AlkkagiLayout(settings)
	}
	if req.VsAi {
		// Both seats are taken, no one left to join: start right away.
		sess.Start(time.Now())
	}
	if err := svc.registry.Put(ctx, sess); err != nil {
		svc.log.Errorw("create: persist failed", "error", err)
		return nil, errors.ErrCreateGameFailed
	}
	svc.log.Infow("session created", "session", sess.ID, "mode", sess.Mode)
	if req.VsAi {
		svc.maybeRunAiTurn(sess.ID)
	}
	return sess, nil
}

// Join fills the open seat and starts the game.
func (svc *Service) Join(ctx context.Context, sessionID, userID string) error {
	return svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
		if _, already := s.ColorOf(userID); already {
			return nil
		}
		switch {
		case s.PlayerBlack == "":
			s.PlayerBlack = userID
		case s.PlayerWhite == "":
			s.PlayerWhite = userID
		default:
			return errors.ErrJoinGameFailed
		}
		s.Start(time.Now())
		return nil
	})
}

// SubmitAction is the single mutation entry: every caller, human or
// machinery, comes through here. On success the new state fans out to all
// subscribers; rejections go back to the caller alone.
func (svc *Service) SubmitAction(ctx context.Context, sessionID, userID string, action game.Action) error {
	var outcome variant.Outcome
	var ended bool
	var endedBefore bool

	err := svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
		endedBefore = s.Ended()
		var applyErr error
		outcome, applyErr = svc.machine.Apply(s, userID, action, time.Now())
		ended = s.Ended()
		return applyErr
	})
	if err != nil {
		if moveErr, ok := errors.AsMoveError(err); ok &&
			moveErr.Reason == errors.ReasonForbiddenPattern && ended && !endedBefore {
			// Foul-limit forfeiture: the move was rejected but the game
			// ended, and that much must reach everyone.
			svc.broadcastEnd(ctx, sessionID)
		}
		return err
	}

	svc.broadcastState(ctx, sessionID, &outcome)
	if ended {
		svc.broadcastEnd(ctx, sessionID)
		return nil
	}

	svc.maybeRunAiTurn(sessionID)
	return nil
}

func (svc *Service) broadcastState(ctx context.Context, sessionID string, outcome *variant.Outcome) {
	snapFor, err := svc.snapshotsFor(ctx, sessionID)
	if err != nil {
		return
	}
	svc.hub.Broadcast(sessionID, func(viewerID string) interface{} {
		msg := StateUpdate{Type: "STATE_UPDATE", SessionID: sessionID, State: snapFor(viewerID)}
		if outcome != nil {
			msg.Flick = outcome.Flick
			msg.Score = outcome.Score
		}
		return msg
	})
}

func (svc *Service) broadcastEnd(ctx context.Context, sessionID string) {
	snap, err := svc.registry.Peek(ctx, sessionID)
	if err != nil {
		return
	}
	svc.hub.Broadcast(sessionID, func(viewerID string) interface{} {
		return GameEnd{Type: "GAME_END", SessionID: sessionID, Winner: snap.Winner, Reason: snap.WinReason}
	})
}

// snapshotsFor builds per-viewer filtered snapshots under one lock pass.
func (svc *Service) snapshotsFor(ctx context.Context, sessionID string) (func(viewerID string) game.Snapshot, error) {
	var sessCopy *game.Session
	err := svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
		restored := game.Restore(s.Snapshot())
		sessCopy = restored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessCopy.SnapshotFor, nil
}

// SnapshotFor serves the reconnection contract: a (re)subscribing socket
// always gets a full filtered snapshot, never a delta.
func (svc *Service) SnapshotFor(ctx context.Context, sessionID, viewerID string) (game.Snapshot, error) {
	snapFor, err := svc.snapshotsFor(ctx, sessionID)
	if err != nil {
		return game.Snapshot{}, err
	}
	return snapFor(viewerID), nil
}

// maybeRunAiTurn fires the AI adapter when the side to move is the bot.
// The session lock is held across the external call; AiCeiling bounds the
// suspension and the fallback keeps the game moving.
func (svc *Service) maybeRunAiTurn(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), svc.AiCeiling+5*time.Second)
		defer cancel()

		var acted, ended bool
		err := svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
			aiColor, ok := aiPendingColor(s)
			if !ok {
				return nil
			}
			acted = true
			action := svc.aiAction(ctx, s, aiColor)
			_, applyErr := svc.machine.Apply(s, s.UserOf(aiColor), action, time.Now())
			if applyErr != nil {
				// Do not trust the engine: an illegal suggestion becomes
				// a pass (or resignation where pass does not exist)
				// rather than a stalled session.
				fallback := game.Action{Type: game.ActionPass, MoveIndex: s.MoveIndex()}
				if !s.Mode.HasPass() {
					fallback = game.Action{Type: game.ActionResign}
				}
				_, applyErr = svc.machine.Apply(s, s.UserOf(aiColor), fallback, time.Now())
			}
			ended = s.Ended()
			return applyErr
		})
		if err != nil {
			svc.log.Errorw("ai turn failed", "session", sessionID, "error", err)
			return
		}
		if !acted {
			return
		}
		svc.broadcastState(ctx, sessionID, nil)
		if ended {
			svc.broadcastEnd(ctx, sessionID)
			return
		}
		// Multi-action turns (dice rolls, setup phases) keep the bot
		// moving until the turn passes back to the human.
		svc.continueAiIfNeeded(ctx, sessionID)
	}()
}

func (svc *Service) continueAiIfNeeded(ctx context.Context, sessionID string) {
	var aiToMove bool
	_ = svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
		_, aiToMove = aiPendingColor(s)
		return nil
	})
	if aiToMove {
		svc.maybeRunAiTurn(sessionID)
	}
}

// aiPendingColor reports the color the bot owes an action for: its own
// turn normally, or an outstanding sealed submission in the simultaneous
// setup phases.
func aiPendingColor(s *game.Session) (engine.Stone, bool) {
	if s.Ended() || s.Status != statuses.StatusActive {
		return engine.None, false
	}
	var aiColor engine.Stone
	switch {
	case s.IsAi(engine.Black):
		aiColor = engine.Black
	case s.IsAi(engine.White):
		aiColor = engine.White
	default:
		return engine.None, false
	}
	switch s.Phase {
	case game.PhaseBidding:
		pending := s.Ext.BidBlack == nil
		if aiColor == engine.White {
			pending = s.Ext.BidWhite == nil
		}
		return aiColor, pending
	case game.PhaseHiddenPlacement:
		return aiColor, s.Ext.HiddenPlacedBy[s.UserOf(aiColor)] < s.Settings.HiddenStoneCount
	default:
		return aiColor, s.CurrentPlayer == aiColor
	}
}

// aiPlayable: the external engine speaks board coordinates; flick and
// chase modes have no request shape for it.
func aiPlayable(mode game.Mode) bool {
	switch mode {
	case game.ModeThiefPolice, game.ModeAlkkagi, game.ModeCurling:
		return false
	}
	return true
}

// aiAction decides the bot's action. Setup phases are handled locally;
// board moves consult the external engine and fall back to pass or to
// the first open liberty so the session never stalls.
func (svc *Service) aiAction(ctx context.Context, s *game.Session, aiColor engine.Stone) game.Action {
	idx := s.MoveIndex()
	switch s.Phase {
	case game.PhaseBidding:
		return game.Action{Type: game.ActionBid, MoveIndex: idx, Bid: int(s.Settings.Komi)}
	case game.PhaseDiceRolling:
		return game.Action{Type: game.ActionRollDice, MoveIndex: idx}
	case game.PhaseHiddenPlacement:
		if p, ok := hiddenSpot(s); ok {
			return game.Action{Type: game.ActionPlaceHidden, MoveIndex: idx, X: p.X, Y: p.Y}
		}
		return game.Action{Type: game.ActionResign, MoveIndex: idx}
	}

	aiCtx, cancel := context.WithTimeout(ctx, svc.AiCeiling)
	defer cancel()
	action, err := svc.ai.RequestMove(aiCtx, s.Snapshot())
	if err == nil {
		action.MoveIndex = idx
		return action
	}
	svc.log.Warnw("ai adapter failed, falling back", "session", s.ID, "error", err)

	if s.Mode.HasPass() {
		return game.Action{Type: game.ActionPass, MoveIndex: idx}
	}
	if p, ok := engine.FirstLiberty(s.Board, aiColor, s.Ko, idx); ok {
		return game.Action{Type: game.ActionPlace, MoveIndex: idx, X: p.X, Y: p.Y}
	}
	return game.Action{Type: game.ActionResign, MoveIndex: idx}
}

// hiddenSpot picks the first free point for a bot's concealed stone.
func hiddenSpot(s *game.Session) (engine.Point, bool) {
	taken := make(map[engine.Point]bool)
	for _, p := range s.Ext.HiddenBlack {
		taken[p] = true
	}
	for _, p := range s.Ext.HiddenWhite {
		taken[p] = true
	}
	for y := 0; y < s.Board.Size(); y++ {
		for x := 0; x < s.Board.Size(); x++ {
			p := engine.Point{X: x, Y: y}
			if !taken[p] && s.Board.At(p) == engine.None {
				return p, true
			}
		}
	}
	return engine.Point{}, false
}

// RunSweep drives the periodic lifecycle pass: clock expiry for idle
// players, disconnect grace, orphan force-end, archive-and-evict.
func (svc *Service) RunSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.sweepOnce(ctx)
		}
	}
}

func (svc *Service) sweepOnce(ctx context.Context) {
	now := time.Now()
	for _, id := range svc.registry.liveIDs() {
		svc.sweepSession(ctx, id, now)
	}
}

func (svc *Service) sweepSession(ctx context.Context, sessionID string, now time.Time) {
	var forfeitUser string
	var toArchive *game.Session
	var endedNow bool

	err := svc.registry.WithSession(ctx, sessionID, func(s *game.Session) error {
		if color, expired := svc.machine.CheckExpiry(s, now); expired {
			_, _ = svc.machine.Apply(s, s.UserOf(color), game.Action{Type: game.ActionTimeoutForfeit}, now)
			endedNow = true
			return nil
		}
		wasEnded := s.Ended()
		user, archive := svc.registry.sweepEntry(s, now, svc.DisconnectGrace)
		forfeitUser = user
		endedNow = !wasEnded && s.Ended()
		if archive {
			toArchive = game.Restore(s.Snapshot())
		}
		return nil
	})
	if err != nil {
		return
	}

	if forfeitUser != "" {
		if err := svc.SubmitAction(ctx, sessionID, forfeitUser, game.Action{Type: game.ActionTimeoutForfeit}); err != nil {
			svc.log.Errorw("disconnect forfeit failed", "session", sessionID, "error", err)
		}
		return
	}
	if endedNow {
		svc.broadcastState(ctx, sessionID, nil)
		svc.broadcastEnd(ctx, sessionID)
	}
	if toArchive != nil {
		svc.registry.archiveAndEvict(ctx, toArchive)
	}
}
