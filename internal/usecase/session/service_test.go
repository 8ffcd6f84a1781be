package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"baduk_arena/internal/domain/game"
	apperrors "baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (h *recordingHub) Broadcast(sessionID string, build func(viewerID string) interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, build("black-user"))
}

func (h *recordingHub) messageTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	types := make([]string, 0, len(h.msgs))
	for _, msg := range h.msgs {
		switch m := msg.(type) {
		case StateUpdate:
			types = append(types, m.Type)
		case GameEnd:
			types = append(types, m.Type)
		}
	}
	return types
}

type scriptedAi struct {
	mu     sync.Mutex
	calls  int
	action game.Action
	err    error
}

func (a *scriptedAi) RequestMove(_ context.Context, _ game.Snapshot) (game.Action, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.action, a.err
}

func (a *scriptedAi) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func testService(hub Broadcaster, bot AiMover) *Service {
	log := zap.NewNop().Sugar()
	registry := NewRegistry(newFakeStore(), log)
	return NewService(registry, NewMachine(log), hub, bot, log)
}

func createJoined(t *testing.T, svc *Service, mode game.Mode) string {
	t.Helper()
	sess, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: mode, IsCreatorBlack: true}, "black-user")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Join(context.Background(), sess.ID, "white-user"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	return sess.ID
}

// waitForHistory polls until the session history reaches want entries.
func waitForHistory(t *testing.T, svc *Service, sessionID string, want int) game.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := svc.Registry().Peek(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("peek failed: %v", err)
		}
		if len(snap.History) >= want {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("history never reached %d entries", want)
	return game.Snapshot{}
}

func TestCreateRejectsUnknownModeAndBoardSize(t *testing.T) {
	svc := testService(&recordingHub{}, &scriptedAi{})

	if _, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: "chess"}, "black-user"); !errors.Is(err, apperrors.ErrCreateGameFailed) {
		t.Fatalf("expected a create failure for an unknown mode, got %v", err)
	}

	tiny := game.DefaultSettings(game.ModeClassic)
	tiny.BoardSize = 2
	if _, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: game.ModeClassic, Settings: &tiny}, "black-user"); !errors.Is(err, apperrors.ErrCreateGameFailed) {
		t.Fatalf("expected a create failure for a tiny board, got %v", err)
	}
}

func TestCreateRejectsAiForPhysicsAndChaseModes(t *testing.T) {
	svc := testService(&recordingHub{}, &scriptedAi{})
	for _, mode := range []game.Mode{game.ModeAlkkagi, game.ModeCurling, game.ModeThiefPolice} {
		_, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: mode, IsCreatorBlack: true, VsAi: true}, "black-user")
		if !errors.Is(err, apperrors.ErrCreateGameFailed) {
			t.Fatalf("%s: expected the bot seat to be refused, got %v", mode, err)
		}
	}
}

func TestJoinFillsSeatAndStarts(t *testing.T) {
	svc := testService(&recordingHub{}, &scriptedAi{})
	id := createJoined(t, svc, game.ModeClassic)

	snap, err := svc.Registry().Peek(context.Background(), id)
	if err != nil {
		t.Fatalf("peek failed: %v", err)
	}
	if snap.Status != statuses.StatusActive || snap.PlayerWhite != "white-user" {
		t.Fatalf("expected an active two-player session, got %+v", snap)
	}

	if err := svc.Join(context.Background(), id, "third-user"); !errors.Is(err, apperrors.ErrJoinGameFailed) {
		t.Fatalf("a full session must refuse a third seat, got %v", err)
	}
	// Rejoining is a no-op, not an error.
	if err := svc.Join(context.Background(), id, "white-user"); err != nil {
		t.Fatalf("rejoin failed: %v", err)
	}
}

func TestSubmitActionBroadcastsStateAndEnd(t *testing.T) {
	hub := &recordingHub{}
	svc := testService(hub, &scriptedAi{})
	id := createJoined(t, svc, game.ModeClassic)

	if err := svc.SubmitAction(context.Background(), id, "black-user", game.Action{Type: game.ActionPlace, MoveIndex: 0, X: 3, Y: 3}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := svc.SubmitAction(context.Background(), id, "white-user", game.Action{Type: game.ActionResign}); err != nil {
		t.Fatalf("resign failed: %v", err)
	}

	types := hub.messageTypes()
	if len(types) != 3 || types[0] != "STATE_UPDATE" || types[1] != "STATE_UPDATE" || types[2] != "GAME_END" {
		t.Fatalf("expected state, state, end; got %v", types)
	}
}

func TestSubmitActionRejectionIsNotBroadcast(t *testing.T) {
	hub := &recordingHub{}
	svc := testService(hub, &scriptedAi{})
	id := createJoined(t, svc, game.ModeClassic)

	err := svc.SubmitAction(context.Background(), id, "white-user", game.Action{Type: game.ActionPlace, MoveIndex: 0, X: 3, Y: 3})
	if moveErr, ok := apperrors.AsMoveError(err); !ok || moveErr.Reason != apperrors.ReasonNotYourTurn {
		t.Fatalf("expected a turn rejection, got %v", err)
	}
	if len(hub.messageTypes()) != 0 {
		t.Fatalf("rejected actions must not fan out")
	}
}

func TestAiAnswersAfterHumanMove(t *testing.T) {
	bot := &scriptedAi{action: game.Action{Type: game.ActionPlace, X: 16, Y: 3}}
	svc := testService(&recordingHub{}, bot)

	sess, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: game.ModeClassic, IsCreatorBlack: true, VsAi: true}, "black-user")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sess.Status != statuses.StatusActive {
		t.Fatalf("a bot game starts with both seats taken")
	}

	if err := svc.SubmitAction(context.Background(), sess.ID, "black-user", game.Action{Type: game.ActionPlace, MoveIndex: 0, X: 3, Y: 3}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	snap := waitForHistory(t, svc, sess.ID, 2)
	if bot.callCount() == 0 {
		t.Fatalf("the adapter was never consulted")
	}
	if snap.History[1].Type != string(game.ActionPlace) || snap.History[1].X != 16 {
		t.Fatalf("expected the bot's placement in the record, got %+v", snap.History[1])
	}
	if snap.CurrentPlayer != "black" {
		t.Fatalf("the turn must come back to the human")
	}
}

func TestAiAdapterFailureFallsBackToPass(t *testing.T) {
	bot := &scriptedAi{err: apperrors.ErrAiService}
	svc := testService(&recordingHub{}, bot)

	sess, err := svc.Create(context.Background(), game.CreateGameRequest{Mode: game.ModeClassic, IsCreatorBlack: true, VsAi: true}, "black-user")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.SubmitAction(context.Background(), sess.ID, "black-user", game.Action{Type: game.ActionPlace, MoveIndex: 0, X: 3, Y: 3}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	snap := waitForHistory(t, svc, sess.ID, 2)
	if snap.History[1].Type != string(game.ActionPass) {
		t.Fatalf("a broken adapter must degrade to a pass, got %+v", snap.History[1])
	}
}
