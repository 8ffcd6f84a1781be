package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"baduk_arena/internal/domain/game"
	apperrors "baduk_arena/internal/errors"
	"baduk_arena/internal/httpresponse"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

type inboundMessage struct {
	Type   string      `json:"type"`
	Action game.Action `json:"action"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleStartGame upgrades the connection and attaches it to a session.
// Every (re)subscription starts with a full snapshot; deltas only ever
// follow a snapshot the client has.
func (g *GameHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("game_id")
	userID := g.GetUserID(w, r)
	if sessionID == "" || userID == "" {
		g.log.Error("StartGame: missing game_id or user identity")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "game_id is required"})
		return
	}

	snap, err := g.service.SnapshotFor(ctx, sessionID, userID)
	if err != nil {
		g.log.Error("StartGame: session lookup failed: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("StartGame: upgrade error: ", err)
		return
	}

	// The write pump is the only goroutine ever writing the conn; the
	// initial snapshot goes through the queue like every other frame.
	sub := g.hub.subscribe(sessionID, userID)
	g.queueState(sub, sessionID, snap)
	g.service.Registry().MarkConnected(ctx, sessionID, userID)
	g.log.Infow("socket attached", "session", sessionID, "user", userID)

	go g.writePump(conn, sub)
	g.readPump(conn, sub, sessionID, userID)
}

// queueState marshals a full-state frame onto the subscriber queue. A
// full queue drops the frame; the client recovers with a RESYNC.
func (g *GameHandler) queueState(sub *subscriber, sessionID string, snap game.Snapshot) {
	payload, err := json.Marshal(sessionState(sessionID, snap))
	if err != nil {
		g.log.Errorw("state frame marshal failed", "session", sessionID, "error", err)
		return
	}
	g.queuePayload(sub, payload)
}

func (g *GameHandler) queuePayload(sub *subscriber, payload []byte) {
	select {
	case sub.send <- payload:
	default:
		g.log.Warnw("dropping frame for slow subscriber", "user", sub.userID)
	}
}

func sessionState(sessionID string, snap game.Snapshot) interface{} {
	return struct {
		Type      string        `json:"type"`
		SessionID string        `json:"session_id"`
		State     game.Snapshot `json:"state"`
	}{Type: "STATE_UPDATE", SessionID: sessionID, State: snap}
}

func (g *GameHandler) readPump(conn *websocket.Conn, sub *subscriber, sessionID, userID string) {
	defer func() {
		g.hub.unsubscribe(sessionID, sub)
		g.service.Registry().MarkDisconnected(context.Background(), sessionID, userID)
		conn.Close()
		g.log.Infow("socket detached", "session", sessionID, "user", userID)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.log.Warnw("socket read error", "session", sessionID, "user", userID, "error", err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		switch msg.Type {
		case "ACTION":
			if err := g.service.SubmitAction(ctx, sessionID, userID, msg.Action); err != nil {
				g.sendError(sub, err)
			}
		case "RESYNC":
			snap, err := g.service.SnapshotFor(ctx, sessionID, userID)
			if err != nil {
				g.sendError(sub, err)
			} else {
				g.queueState(sub, sessionID, snap)
			}
		default:
			g.sendError(sub, apperrors.NewMoveError(apperrors.ReasonBadAction))
		}
		cancel()
	}
}

// sendError reports a rejection to the offending socket only. Rejections
// never fan out; the shared state did not change.
func (g *GameHandler) sendError(sub *subscriber, err error) {
	code := "internal"
	if moveErr, ok := apperrors.AsMoveError(err); ok {
		code = string(moveErr.Reason)
	} else if errors.Is(err, apperrors.ErrSessionBusy) {
		code = "session_busy"
	} else if errors.Is(err, apperrors.ErrSessionNotFound) {
		code = "session_not_found"
	} else if errors.Is(err, apperrors.ErrGameEnded) {
		code = "game_ended"
	} else if errors.Is(err, apperrors.ErrGamePaused) {
		code = "game_paused"
	}
	payload, marshalErr := json.Marshal(errorMessage{Type: "ERROR", Code: code, Message: err.Error()})
	if marshalErr != nil {
		g.log.Warnw("error frame marshal failed", "error", marshalErr)
		return
	}
	g.queuePayload(sub, payload)
}

// writePump drains the hub queue onto the socket and keeps the
// connection alive with pings.
func (g *GameHandler) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case payload, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
