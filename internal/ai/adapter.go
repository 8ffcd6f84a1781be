package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"baduk_arena/internal/bootstrap"
	"baduk_arena/internal/domain/game"
	apperrors "baduk_arena/internal/errors"
)

// BotAdapter asks an external engine service for the next move over
// HTTP JSON. The service is stateless: every request carries the full
// position, so a restarted bot picks up mid-game.
type BotAdapter struct {
	cfg    *bootstrap.Config
	log    *zap.SugaredLogger
	botURL string
	client *http.Client
}

func NewBotAdapter(cfg *bootstrap.Config, log *zap.SugaredLogger) *BotAdapter {
	return &BotAdapter{
		cfg:    cfg,
		log:    log,
		botURL: cfg.AiBotUrl,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type SelectMoveRequest struct {
	RequestID string       `json:"request_id"`
	Mode      string       `json:"mode"`
	BoardSize int          `json:"board_size"`
	Board     [][]int      `json:"board"`
	ToMove    string       `json:"to_move"`
	Komi      float64      `json:"komi"`
	Level     int          `json:"level"`
	History   []historyRow `json:"history"`
}

type historyRow struct {
	Type  string `json:"type"`
	Color string `json:"color"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

type SelectMoveResponse struct {
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (b *BotAdapter) RequestMove(ctx context.Context, snap game.Snapshot) (game.Action, error) {
	reqBody, err := json.Marshal(buildRequest(snap))
	if err != nil {
		return game.Action{}, fmt.Errorf("marshal bot request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.botURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return game.Action{}, fmt.Errorf("create bot request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.log.Errorw("bot request failed", "session", snap.ID, "error", err)
		return game.Action{}, apperrors.ErrAiService
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b.log.Errorw("bot returned bad status", "session", snap.ID, "status", resp.StatusCode)
		return game.Action{}, apperrors.ErrAiService
	}

	var result SelectMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return game.Action{}, fmt.Errorf("decode bot response: %w", err)
	}

	switch result.Action {
	case "play":
		return game.Action{Type: game.ActionPlace, X: result.X, Y: result.Y}, nil
	case "pass":
		return game.Action{Type: game.ActionPass}, nil
	case "resign":
		return game.Action{Type: game.ActionResign}, nil
	default:
		b.log.Errorw("bot returned unknown action", "session", snap.ID, "action", result.Action)
		return game.Action{}, apperrors.ErrAiService
	}
}

func buildRequest(snap game.Snapshot) SelectMoveRequest {
	history := make([]historyRow, 0, len(snap.History))
	for _, rec := range snap.History {
		history = append(history, historyRow{
			Type:  rec.Type,
			Color: rec.Color,
			X:     rec.X,
			Y:     rec.Y,
		})
	}
	return SelectMoveRequest{
		RequestID: uuid.New().String(),
		Mode:      string(snap.Mode),
		BoardSize: snap.Settings.BoardSize,
		Board:     snap.Board,
		ToMove:    snap.CurrentPlayer,
		Komi:      snap.Settings.Komi,
		Level:     snap.Settings.AiLevel,
		History:   history,
	}
}
