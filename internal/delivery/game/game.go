package game

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"baduk_arena/internal/bootstrap"
	"baduk_arena/internal/domain/game"
	apperrors "baduk_arena/internal/errors"
	"baduk_arena/internal/httpresponse"
	repo "baduk_arena/internal/repository"
	sessionuc "baduk_arena/internal/usecase/session"
	"baduk_arena/internal/utils"
)

type GameHandler struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	service  *sessionuc.Service
	sessions *repo.SessionRepository
	identity *repo.IdentityStorage
	hub      *Hub
}

func NewGameHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	service *sessionuc.Service,
	sessions *repo.SessionRepository,
	identity *repo.IdentityStorage,
	hub *Hub,
) *GameHandler {
	return &GameHandler{
		cfg:      cfg,
		log:      log,
		service:  service,
		sessions: sessions,
		identity: identity,
		hub:      hub,
	}
}

// GetUserID resolves the visitor behind the request; first-time visitors
// get a cookie and a fresh id on the spot. There are no accounts.
func (g *GameHandler) GetUserID(w http.ResponseWriter, r *http.Request) string {
	ctx := r.Context()
	if cookie, err := r.Cookie("sessionID"); err == nil {
		if userID, ok := g.identity.GetUserIdByCookie(ctx, cookie.Value); ok {
			return userID
		}
	}

	token := uuid.New().String()
	userID := uuid.New().String()
	g.identity.StoreIdentity(ctx, token, userID)
	http.SetCookie(w, &http.Cookie{
		Name:     "sessionID",
		Value:    token,
		Expires:  time.Now().Add(10 * time.Hour),
		Secure:   true,
		HttpOnly: true,
	})
	return userID
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("NewGame: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req game.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("NewGame: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	userID := g.GetUserID(w, r)
	if userID == "" {
		return
	}

	if busy, err := g.sessions.HasActiveSession(r.Context(), userID); err == nil && busy {
		g.log.Infow("NewGame: user already in a live game", "user", userID)
		httpresponse.WriteResponseWithStatus(w, http.StatusConflict,
			httpresponse.ErrorResponse{ErrorDescription: "user already has an active game"})
		return
	}

	sess, err := g.service.Create(r.Context(), req, userID)
	if err != nil {
		g.log.Error("NewGame: create failed: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	resp := game.GameCreateResponse{
		UniqueKey: sess.ID,
		PublicKey: sess.PublicKey,
	}
	g.log.Infow("new game created", "session", sess.ID, "mode", sess.Mode, "creator", userID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("JoinGame: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req game.GameJoinRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JoinGame: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	if req.GameKey == "" {
		g.log.Error("JoinGame: missing game_key")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: "game_key is required"})
		return
	}

	userID := g.GetUserID(w, r)
	if userID == "" {
		return
	}

	ctx := r.Context()
	sessionID := g.resolveSessionKey(ctx, req.GameKey)

	if err := g.service.Join(ctx, sessionID, userID); err != nil {
		g.log.Error("JoinGame: join failed: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	g.log.Infow("player joined", "session", sessionID, "user", userID)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, JsonOKResponse{Text: "joined"})
}

// resolveSessionKey accepts either the session id or the short public
// code players share out of band.
func (g *GameHandler) resolveSessionKey(ctx context.Context, key string) string {
	if len(key) > 8 {
		return key
	}
	if id, err := g.sessions.ResolvePublicCode(ctx, key); err == nil {
		return id
	}
	return key
}

func (g *GameHandler) GetGameById(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("GetGameById: only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req gameFindRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("GetGameById: JSON decode error: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	userID := g.GetUserID(w, r)
	if userID == "" {
		return
	}

	ctx := r.Context()
	if snap, err := g.service.SnapshotFor(ctx, req.GameID, userID); err == nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, snap)
		return
	}

	snap, sgfText, err := g.sessions.GetArchivedGame(ctx, req.GameID)
	if err != nil {
		g.log.Error("GetGameById: not found: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound,
			httpresponse.ErrorResponse{ErrorDescription: apperrors.ErrSessionNotFound.Error()})
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, archivedGameResponse{Game: snap, SGF: sgfText})
}

func (g *GameHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	userID := g.GetUserID(w, r)
	if userID == "" {
		return
	}

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		page = parsePage(p)
	}

	games, err := g.sessions.ListArchivedGames(r.Context(), userID, page)
	if err != nil {
		g.log.Error("ListGames: query failed: ", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, games)
}

func parsePage(s string) int {
	page := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		page = page*10 + int(c-'0')
	}
	return page
}

type gameFindRequest struct {
	GameID string `json:"game_id"`
}

type archivedGameResponse struct {
	Game game.Snapshot `json:"game"`
	SGF  string        `json:"sgf"`
}

type JsonOKResponse struct {
	Text string `json:"text"`
}
