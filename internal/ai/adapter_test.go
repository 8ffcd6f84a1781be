package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"baduk_arena/internal/bootstrap"
	"baduk_arena/internal/domain/game"
	apperrors "baduk_arena/internal/errors"
)

func botSnapshot() game.Snapshot {
	s := game.NewSession("sess-1", "12345", game.ModeClassic, game.DefaultSettings(game.ModeClassic), "black-user", game.AiUserPrefix+"bot")
	return s.Snapshot()
}

func adapterFor(url string) *BotAdapter {
	cfg := &bootstrap.Config{AiBotUrl: url}
	return NewBotAdapter(cfg, zap.NewNop().Sugar())
}

func TestRequestMoveSendsPositionAndMapsPlay(t *testing.T) {
	var got SelectMoveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(SelectMoveResponse{Action: "play", X: 3, Y: 16})
	}))
	defer srv.Close()

	action, err := adapterFor(srv.URL).RequestMove(context.Background(), botSnapshot())
	if err != nil {
		t.Fatalf("RequestMove failed: %v", err)
	}
	if action.Type != game.ActionPlace || action.X != 3 || action.Y != 16 {
		t.Fatalf("expected a placement at (3,16), got %+v", action)
	}
	if got.Mode != "classic" || got.BoardSize != 19 || got.ToMove != "black" {
		t.Fatalf("request did not carry the position: %+v", got)
	}
	if got.RequestID == "" {
		t.Fatalf("every request needs a request id")
	}
	if len(got.Board) != 19 {
		t.Fatalf("expected a full board, got %d rows", len(got.Board))
	}
}

func TestRequestMoveMapsPassAndResign(t *testing.T) {
	for _, tc := range []struct {
		botAction string
		want      game.ActionType
	}{
		{"pass", game.ActionPass},
		{"resign", game.ActionResign},
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(SelectMoveResponse{Action: tc.botAction})
		}))
		action, err := adapterFor(srv.URL).RequestMove(context.Background(), botSnapshot())
		srv.Close()
		if err != nil {
			t.Fatalf("%s: RequestMove failed: %v", tc.botAction, err)
		}
		if action.Type != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.botAction, tc.want, action.Type)
		}
	}
}

func TestRequestMoveBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := adapterFor(srv.URL).RequestMove(context.Background(), botSnapshot())
	if !errors.Is(err, apperrors.ErrAiService) {
		t.Fatalf("expected the service sentinel, got %v", err)
	}
}

func TestRequestMoveUnknownAction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SelectMoveResponse{Action: "teleport"})
	}))
	defer srv.Close()

	_, err := adapterFor(srv.URL).RequestMove(context.Background(), botSnapshot())
	if !errors.Is(err, apperrors.ErrAiService) {
		t.Fatalf("expected the service sentinel, got %v", err)
	}
}

func TestRequestMoveUnreachableService(t *testing.T) {
	_, err := adapterFor("http://127.0.0.1:1/select-move").RequestMove(context.Background(), botSnapshot())
	if !errors.Is(err, apperrors.ErrAiService) {
		t.Fatalf("expected the service sentinel, got %v", err)
	}
}
