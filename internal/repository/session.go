package repo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"baduk_arena/internal/bootstrap"
	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// SessionRepository backs the registry: redis holds the live JSON
// snapshot per session (plus the public-code index), mongo keeps the
// archive of finished games.
type SessionRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewSessionRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redisClient *redis.Client, mongoDB *mongo.Database) *SessionRepository {
	return &SessionRepository{
		cfg:   cfg,
		log:   log,
		redis: redisClient,
		mongo: mongoDB,
	}
}

func sessionKey(id string) string {
	return "session:" + id
}

func publicCodeKey(code string) string {
	return "session:pub:" + code
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (game.Snapshot, error) {
	raw, err := r.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return game.Snapshot{}, errors.ErrSessionNotFound
		}
		return game.Snapshot{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return game.Snapshot{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return snap, nil
}

func (r *SessionRepository) Save(ctx context.Context, snap game.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", snap.ID, err)
	}
	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, sessionKey(snap.ID), raw, 0)
	pipe.Set(ctx, publicCodeKey(snap.PublicKey), snap.ID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", snap.ID, err)
	}
	return nil
}

// Archive writes the final snapshot (with an SGF export for board games)
// into mongo and clears the live redis keys.
func (r *SessionRepository) Archive(ctx context.Context, snap game.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := archivedGame{
		Snapshot:   snap,
		SGF:        ExportSGF(snap),
		ArchivedAt: time.Now(),
	}
	collection := r.mongo.Collection("games")
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("archive session %s: %w", snap.ID, err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Del(ctx, sessionKey(snap.ID))
	pipe.Del(ctx, publicCodeKey(snap.PublicKey))
	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Errorw("failed to clear live keys after archive", "session", snap.ID, "error", err)
	}
	r.log.Infow("game archived", "session", snap.ID)
	return nil
}

type archivedGame struct {
	Snapshot   game.Snapshot `bson:"snapshot"`
	SGF        string        `bson:"sgf,omitempty"`
	ArchivedAt time.Time     `bson:"archived_at"`
}

// ResolvePublicCode maps a five-digit join code to the session id.
func (r *SessionRepository) ResolvePublicCode(ctx context.Context, code string) (string, error) {
	id, err := r.redis.Get(ctx, publicCodeKey(code)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", errors.ErrGameNotFound
		}
		return "", fmt.Errorf("resolve code %s: %w", code, err)
	}
	return id, nil
}

// GetArchivedGame fetches one finished game by session id.
func (r *SessionRepository) GetArchivedGame(ctx context.Context, sessionID string) (game.Snapshot, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc archivedGame
	err := r.mongo.Collection("games").
		FindOne(ctx, bson.M{"snapshot.id": sessionID}).
		Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return game.Snapshot{}, "", errors.ErrGameNotFound
	} else if err != nil {
		return game.Snapshot{}, "", err
	}
	return doc.Snapshot, doc.SGF, nil
}

// ListArchivedGames returns a page of finished games for a user.
func (r *SessionRepository) ListArchivedGames(ctx context.Context, userID string, page int) ([]game.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	limit := int64(r.cfg.PageLimitGames)
	if limit <= 0 {
		limit = 20
	}
	skip := int64(page) * limit

	filter := bson.M{
		"$or": []bson.M{
			{"snapshot.player_black": userID},
			{"snapshot.player_white": userID},
		},
	}
	opts := mongoFindOptions(limit, skip)
	cursor, err := r.mongo.Collection("games").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var result []game.Snapshot
	for cursor.Next(ctx) {
		var doc archivedGame
		if err := cursor.Decode(&doc); err != nil {
			r.log.Error(err)
			return nil, err
		}
		result = append(result, doc.Snapshot)
	}
	return result, nil
}

func mongoFindOptions(limit, skip int64) *options.FindOptions {
	return options.Find().
		SetLimit(limit).
		SetSkip(skip).
		SetSort(bson.M{"archived_at": -1})
}

// HasActiveSession reports whether the user already sits in a live game,
// checked against the redis live set.
func (r *SessionRepository) HasActiveSession(ctx context.Context, userID string) (bool, error) {
	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, sessionKey("*"), 100).Result()
		if err != nil {
			return false, err
		}
		for _, key := range keys {
			raw, err := r.redis.Get(ctx, key).Result()
			if err != nil {
				continue
			}
			var snap game.Snapshot
			if json.Unmarshal([]byte(raw), &snap) != nil {
				continue
			}
			if snap.Status == statuses.StatusEnded {
				continue
			}
			if snap.PlayerBlack == userID || snap.PlayerWhite == userID {
				return true, nil
			}
		}
		cursor = next
		if cursor == 0 {
			return false, nil
		}
	}
}
